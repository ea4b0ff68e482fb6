// internal/models/product.go
package models

import (
	"github.com/shopspring/decimal"
)

// ProductRecord is the off-chain, denormalized copy of a product created
// through the factory contract. (ChainID, OwnerAddress, Slug) is unique.
type ProductRecord struct {
	BaseModel
	ChainID         int64           `json:"chain_id" gorm:"not null;uniqueIndex:idx_products_chain_owner_slug,priority:1"`
	OwnerAddress    string          `json:"owner_address" gorm:"size:42;not null;uniqueIndex:idx_products_chain_owner_slug,priority:2"`
	Slug            string          `json:"slug" gorm:"size:100;not null;uniqueIndex:idx_products_chain_owner_slug,priority:3"`
	ContractAddress string          `json:"contract" gorm:"size:42;not null;index"`
	Name            string          `json:"name" gorm:"size:255;not null"`
	Description     string          `json:"description" gorm:"type:text"`
	TokenURI        string          `json:"token_uri" gorm:"size:512;not null"`
	Price           decimal.Decimal `json:"price" gorm:"type:numeric(78,18);not null"`
	Supply          uint64          `json:"supply" gorm:"not null"`
	Sold            uint64          `json:"sold" gorm:"not null;default:0"`
}

func (ProductRecord) TableName() string {
	return "products"
}
