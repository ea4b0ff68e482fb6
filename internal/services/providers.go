// internal/services/providers.go
package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mintcart/mintcart-backend/internal/config"
	"github.com/mintcart/mintcart-backend/internal/repository"
)

// NewRelayerSigner returns the platform signer, or nil when no key is configured.
func NewRelayerSigner(cfg *config.Config) (Signer, error) {
	if cfg.Blockchain.PrivateKey == "" {
		logrus.Warn("BLOCKCHAIN_PRIVATE_KEY not set, create transactions will be rejected")
		return nil, nil
	}
	signer, err := NewKeyedSigner(cfg.Blockchain.PrivateKey)
	if err != nil {
		return nil, err
	}
	logrus.WithField("address", signer.Address().Hex()).Info("Relayer signer loaded")
	return signer, nil
}

// NewCreateProductWorkflow wires the workflow against the configured storage,
// chains and record API.
func NewCreateProductWorkflow(cfg *config.Config, intents repository.IntentRepository, onTransition func(Transition)) (*CreateProductService, error) {
	publisher, err := NewMetadataPublisher(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata publisher: %w", err)
	}

	chains, err := NewBlockchainService(cfg)
	if err != nil {
		return nil, err
	}

	records := NewRecordClient(cfg.Backend.APIURL, cfg.Backend.APIKey, cfg.Backend.Timeout)

	return NewCreateProductService(publisher, chains, records, CreateProductOptions{
		PublishTimeout: cfg.Storage.PublishTimeout,
		ConfirmTimeout: cfg.Blockchain.ConfirmTimeout,
		DashboardPath:  cfg.Frontend.DashboardPath,
		Intents:        intents,
		OnTransition:   onTransition,
	}), nil
}
