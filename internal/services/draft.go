// internal/services/draft.go
package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mintcart/mintcart-backend/internal/utils"
)

// ProductDraft is the user's create-product form input.
type ProductDraft struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
	Slug        string `json:"slug" validate:"required,slug"`
	Price       string `json:"price" validate:"required"`
	Supply      uint64 `json:"supply"`
}

// ProductMetadata is the document published to content-addressed storage.
type ProductMetadata struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// WalletSession is the connected wallet the workflow acts for.
type WalletSession struct {
	ChainID        int64
	Address        string
	DisplayAddress string
	Signer         Signer
}

func (s *WalletSession) Connected() bool {
	return s != nil && s.Address != "" && s.ChainID > 0
}

// Validate checks required fields and the slug; price is checked separately
// so it can fail as an invalid amount.
func (d ProductDraft) Validate() error {
	// Product stores keep supply as a signed 64-bit integer.
	if d.Supply > math.MaxInt64 {
		return fmt.Errorf("invalid fields: supply exceeds %d", int64(math.MaxInt64))
	}
	if err := utils.ValidateStruct(&d); err != nil {
		if fields := utils.GetValidationErrors(err); len(fields) > 0 {
			names := make([]string, 0, len(fields))
			for _, f := range fields {
				names = append(names, f.Field)
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(names, ", "))
		}
		return err
	}
	return nil
}

func (d ProductDraft) Metadata() ProductMetadata {
	return ProductMetadata{
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
	}
}

func (d ProductDraft) encode() []byte {
	data, _ := json.Marshal(d)
	return data
}

func decodeDraft(data []byte) (ProductDraft, error) {
	var d ProductDraft
	if len(data) == 0 {
		return d, fmt.Errorf("intent has no stored draft")
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("failed to decode stored draft: %w", err)
	}
	return d, nil
}

// ProductRecordPayload is the body of POST /api/{chainId}/{owner}/products.
type ProductRecordPayload struct {
	Contract    string `json:"contract"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
	TokenURI    string `json:"tokenUri"`
	Price       string `json:"price"`
	Supply      uint64 `json:"supply"`
	Sold        uint64 `json:"sold"`
}
