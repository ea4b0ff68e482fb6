// internal/repository/gorm_intent.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mintcart/mintcart-backend/internal/models"
)

type GormIntentRepository struct {
	db *gorm.DB
}

func NewGormIntentRepository(db *gorm.DB) *GormIntentRepository {
	return &GormIntentRepository{db: db}
}

func (r *GormIntentRepository) FindOrCreate(ctx context.Context, intent *models.CreationIntent) (*models.CreationIntent, bool, error) {
	existing, err := r.find(ctx, intent.ChainID, intent.OwnerAddress, intent.Slug)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	if err := r.db.WithContext(ctx).Create(intent).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent submission inserted the same key first.
			existing, err := r.find(ctx, intent.ChainID, intent.OwnerAddress, intent.Slug)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create intent: %w", err)
	}

	return intent, true, nil
}

func (r *GormIntentRepository) find(ctx context.Context, chainID int64, owner, slug string) (*models.CreationIntent, error) {
	var intent models.CreationIntent
	err := r.db.WithContext(ctx).
		Where("chain_id = ? AND owner_address = ? AND slug = ?", chainID, owner, slug).
		First(&intent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &intent, nil
}

func (r *GormIntentRepository) Save(ctx context.Context, intent *models.CreationIntent) error {
	if err := r.db.WithContext(ctx).Save(intent).Error; err != nil {
		return fmt.Errorf("failed to save intent: %w", err)
	}
	return nil
}

func (r *GormIntentRepository) ListByOwner(ctx context.Context, chainID int64, owner string) ([]models.CreationIntent, error) {
	var intents []models.CreationIntent
	err := r.db.WithContext(ctx).
		Where("chain_id = ? AND owner_address = ?", chainID, owner).
		Order("created_at DESC").
		Find(&intents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list intents: %w", err)
	}
	return intents, nil
}

func (r *GormIntentRepository) ListStale(ctx context.Context, statuses []models.IntentStatus, updatedBefore time.Time, limit int) ([]models.CreationIntent, error) {
	var intents []models.CreationIntent
	err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", statuses, updatedBefore).
		Order("updated_at ASC").
		Limit(limit).
		Find(&intents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale intents: %w", err)
	}
	return intents, nil
}
