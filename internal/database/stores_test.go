package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mintcart/mintcart-backend/internal/config"
	"github.com/mintcart/mintcart-backend/internal/repository"
)

func TestOpenMemory(t *testing.T) {
	stores, err := Open(context.Background(), config.DatabaseConfig{Driver: "memory"})
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &repository.MemoryProductRepository{}, stores.Products)
	assert.IsType(t, &repository.MemoryIntentRepository{}, stores.Intents)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLogLevel("silent"))
	assert.Equal(t, logger.Warn, gormLogLevel("warn"))
	assert.Equal(t, logger.Error, gormLogLevel("error"))
	assert.Equal(t, logger.Info, gormLogLevel(""))
}
