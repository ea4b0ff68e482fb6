// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the ID client-side; mongo documents reuse it as _id.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Enums
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusPublished IntentStatus = "published"
	IntentStatusSubmitted IntentStatus = "submitted"
	IntentStatusConfirmed IntentStatus = "confirmed"
	IntentStatusPersisted IntentStatus = "persisted"
	IntentStatusFailed    IntentStatus = "failed"
)
