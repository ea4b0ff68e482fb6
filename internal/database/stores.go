// internal/database/stores.go
package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mintcart/mintcart-backend/internal/config"
	"github.com/mintcart/mintcart-backend/internal/repository"
)

// Stores bundles the repositories backing products and the creation journal.
type Stores struct {
	Products repository.ProductRepository
	Intents  repository.IntentRepository
	close    func()
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects the configured driver and prepares its schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Stores, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := Initialize(cfg)
		if err != nil {
			return nil, err
		}
		if err := RunMigrations(db); err != nil {
			Close(db)
			return nil, err
		}
		return &Stores{
			Products: repository.NewGormProductRepository(db),
			Intents:  repository.NewGormIntentRepository(db),
			close:    func() { Close(db) },
		}, nil

	case "mongo":
		client, err := ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase())
		products := repository.NewMongoProductRepository(db.Collection(productsCollection))
		intents := repository.NewMongoIntentRepository(db.Collection(intentsCollection))
		if err := products.EnsureIndexes(ctx); err != nil {
			DisconnectMongo(client)
			return nil, fmt.Errorf("failed to create product indexes: %w", err)
		}
		if err := intents.EnsureIndexes(ctx); err != nil {
			DisconnectMongo(client)
			return nil, fmt.Errorf("failed to create intent indexes: %w", err)
		}
		return &Stores{
			Products: products,
			Intents:  intents,
			close:    func() { DisconnectMongo(client) },
		}, nil

	case "memory":
		logrus.Warn("Using in-memory stores, data is lost on restart")
		return &Stores{
			Products: repository.NewMemoryProductRepository(),
			Intents:  repository.NewMemoryIntentRepository(),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
