package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintcart/mintcart-backend/internal/models"
)

func TestMemoryProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository()

	mug := &models.ProductRecord{ChainID: 1, OwnerAddress: "0xabc", Slug: "mug", Price: decimal.RequireFromString("0.05"), Supply: 10}
	require.NoError(t, repo.Create(ctx, mug))
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", mug.ID.String())

	dup := &models.ProductRecord{ChainID: 1, OwnerAddress: "0xabc", Slug: "mug"}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicate)

	// same slug on another chain is a different product
	require.NoError(t, repo.Create(ctx, &models.ProductRecord{ChainID: 137, OwnerAddress: "0xabc", Slug: "mug"}))

	found, err := repo.FindBySlug(ctx, 1, "0xabc", "mug")
	require.NoError(t, err)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("0.05")))

	_, err = repo.FindBySlug(ctx, 1, "0xabc", "cup")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Create(ctx, &models.ProductRecord{ChainID: 1, OwnerAddress: "0xabc", Slug: "cup"}))
	page, total, err := repo.ListByOwner(ctx, 1, "0xabc", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 1)

	page, _, err = repo.ListByOwner(ctx, 1, "0xabc", 5, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryIntentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryIntentRepository()

	first := &models.CreationIntent{ChainID: 1, OwnerAddress: "0xabc", Slug: "mug", Status: models.IntentStatusPublished}
	stored, created, err := repo.FindOrCreate(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	stored.Status = models.IntentStatusConfirmed
	require.NoError(t, repo.Save(ctx, stored))

	again, created, err := repo.FindOrCreate(ctx, &models.CreationIntent{ChainID: 1, OwnerAddress: "0xabc", Slug: "mug"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.IntentStatusConfirmed, again.Status)
	assert.Equal(t, stored.ID, again.ID)

	stale, err := repo.ListStale(ctx, []models.IntentStatus{models.IntentStatusConfirmed}, time.Now().Add(time.Second), 10)
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	stale, err = repo.ListStale(ctx, []models.IntentStatus{models.IntentStatusSubmitted}, time.Now().Add(time.Second), 10)
	require.NoError(t, err)
	assert.Empty(t, stale)

	owned, err := repo.ListByOwner(ctx, 1, "0xabc")
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}
