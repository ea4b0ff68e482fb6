// internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mintcart/mintcart-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// ProductRepository stores ProductRecords keyed by (chain, owner, slug).
// Owner addresses are expected lowercase.
type ProductRepository interface {
	Create(ctx context.Context, product *models.ProductRecord) error
	FindBySlug(ctx context.Context, chainID int64, owner, slug string) (*models.ProductRecord, error)
	ListByOwner(ctx context.Context, chainID int64, owner string, page, limit int) ([]models.ProductRecord, int64, error)
}

// IntentRepository stores the create-product journal.
type IntentRepository interface {
	// FindOrCreate returns the intent stored under intent's key, inserting
	// intent when none exists. created reports whether the insert happened.
	FindOrCreate(ctx context.Context, intent *models.CreationIntent) (stored *models.CreationIntent, created bool, err error)
	Save(ctx context.Context, intent *models.CreationIntent) error
	ListByOwner(ctx context.Context, chainID int64, owner string) ([]models.CreationIntent, error)
	ListStale(ctx context.Context, statuses []models.IntentStatus, updatedBefore time.Time, limit int) ([]models.CreationIntent, error)
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
