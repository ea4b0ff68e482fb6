// internal/models/intent.go
package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// CreationIntent journals the progress of one create-product submission.
// It is written before each side effect so a resubmission or the reconciler
// can resume from the first incomplete step.
type CreationIntent struct {
	BaseModel
	ChainID         int64          `json:"chain_id" gorm:"not null;uniqueIndex:idx_intents_chain_owner_slug,priority:1"`
	OwnerAddress    string         `json:"owner_address" gorm:"size:42;not null;uniqueIndex:idx_intents_chain_owner_slug,priority:2"`
	Slug            string         `json:"slug" gorm:"size:100;not null;uniqueIndex:idx_intents_chain_owner_slug,priority:3"`
	Status          IntentStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
	Draft           datatypes.JSON `json:"draft" gorm:"type:jsonb"`
	TokenURI        string         `json:"token_uri,omitempty" gorm:"size:512"`
	FactoryAddress  string         `json:"factory_address,omitempty" gorm:"size:42"`
	TxHashes        pq.StringArray `json:"tx_hashes" gorm:"type:text[]"`
	ContractAddress string         `json:"contract_address,omitempty" gorm:"size:42"`
	FailureKind     string         `json:"failure_kind,omitempty" gorm:"size:40"`
	LastError       string         `json:"last_error,omitempty" gorm:"type:text"`
	Attempts        int            `json:"attempts" gorm:"default:0"`
	LastAttemptAt   *time.Time     `json:"last_attempt_at,omitempty"`
}

func (CreationIntent) TableName() string {
	return "creation_intents"
}

// HasLiveTx reports whether the latest transaction is pending or mined.
// A reverted transaction moves the intent back to published.
func (i *CreationIntent) HasLiveTx() bool {
	return i.LatestTxHash() != "" &&
		(i.Status == IntentStatusSubmitted || i.Status == IntentStatusConfirmed)
}

// LatestTxHash is the most recently submitted transaction, or "".
func (i *CreationIntent) LatestTxHash() string {
	if len(i.TxHashes) == 0 {
		return ""
	}
	return i.TxHashes[len(i.TxHashes)-1]
}
