// internal/repository/gorm_product.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mintcart/mintcart-backend/internal/models"
)

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(ctx context.Context, product *models.ProductRecord) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *GormProductRepository) FindBySlug(ctx context.Context, chainID int64, owner, slug string) (*models.ProductRecord, error) {
	var product models.ProductRecord
	err := r.db.WithContext(ctx).
		Where("chain_id = ? AND owner_address = ? AND slug = ?", chainID, owner, slug).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (r *GormProductRepository) ListByOwner(ctx context.Context, chainID int64, owner string, page, limit int) ([]models.ProductRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductRecord{}).
		Where("chain_id = ? AND owner_address = ?", chainID, owner)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.ProductRecord
	if err := query.Order("created_at DESC").Offset(offset(page, limit)).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, total, nil
}
