// internal/repository/memory.go
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mintcart/mintcart-backend/internal/models"
)

type recordKey struct {
	chainID int64
	owner   string
	slug    string
}

// MemoryProductRepository backs DB_DRIVER=memory for local development.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[recordKey]models.ProductRecord
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[recordKey]models.ProductRecord)}
}

func (r *MemoryProductRepository) Create(ctx context.Context, product *models.ProductRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := recordKey{product.ChainID, product.OwnerAddress, product.Slug}
	if _, exists := r.products[key]; exists {
		return ErrDuplicate
	}

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[key] = *product
	return nil
}

func (r *MemoryProductRepository) FindBySlug(ctx context.Context, chainID int64, owner, slug string) (*models.ProductRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[recordKey{chainID, owner, slug}]
	if !ok {
		return nil, ErrNotFound
	}
	return &product, nil
}

func (r *MemoryProductRepository) ListByOwner(ctx context.Context, chainID int64, owner string, page, limit int) ([]models.ProductRecord, int64, error) {
	r.mu.RLock()
	var matched []models.ProductRecord
	for key, product := range r.products {
		if key.chainID == chainID && key.owner == owner {
			matched = append(matched, product)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := offset(page, limit)
	if start >= len(matched) {
		return []models.ProductRecord{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

type MemoryIntentRepository struct {
	mu      sync.Mutex
	intents map[recordKey]models.CreationIntent
}

func NewMemoryIntentRepository() *MemoryIntentRepository {
	return &MemoryIntentRepository{intents: make(map[recordKey]models.CreationIntent)}
}

func (r *MemoryIntentRepository) FindOrCreate(ctx context.Context, intent *models.CreationIntent) (*models.CreationIntent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := recordKey{intent.ChainID, intent.OwnerAddress, intent.Slug}
	if existing, ok := r.intents[key]; ok {
		return &existing, false, nil
	}

	if intent.ID == uuid.Nil {
		intent.ID = uuid.New()
	}
	now := time.Now()
	intent.CreatedAt = now
	intent.UpdatedAt = now
	r.intents[key] = *intent
	return intent, true, nil
}

func (r *MemoryIntentRepository) Save(ctx context.Context, intent *models.CreationIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	intent.UpdatedAt = time.Now()
	r.intents[recordKey{intent.ChainID, intent.OwnerAddress, intent.Slug}] = *intent
	return nil
}

func (r *MemoryIntentRepository) ListByOwner(ctx context.Context, chainID int64, owner string) ([]models.CreationIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var intents []models.CreationIntent
	for key, intent := range r.intents {
		if key.chainID == chainID && key.owner == owner {
			intents = append(intents, intent)
		}
	}
	sort.Slice(intents, func(i, j int) bool {
		return intents[i].CreatedAt.After(intents[j].CreatedAt)
	})
	return intents, nil
}

func (r *MemoryIntentRepository) ListStale(ctx context.Context, statuses []models.IntentStatus, updatedBefore time.Time, limit int) ([]models.CreationIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[models.IntentStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	var intents []models.CreationIntent
	for _, intent := range r.intents {
		if wanted[intent.Status] && intent.UpdatedAt.Before(updatedBefore) {
			intents = append(intents, intent)
		}
	}
	sort.Slice(intents, func(i, j int) bool {
		return intents[i].UpdatedAt.Before(intents[j].UpdatedAt)
	})
	if limit > 0 && len(intents) > limit {
		intents = intents[:limit]
	}
	return intents, nil
}
