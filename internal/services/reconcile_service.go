// internal/services/reconcile_service.go
package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mintcart/mintcart-backend/internal/models"
	"github.com/mintcart/mintcart-backend/internal/repository"
)

const reconcileBatchSize = 50

// ReconcileService finishes journaled submissions whose transaction was sent
// but whose record was never written.
type ReconcileService struct {
	intents  repository.IntentRepository
	workflow *CreateProductService
	interval time.Duration
	staleAge time.Duration
}

type ReconcileReport struct {
	Scanned   int `json:"scanned"`
	Persisted int `json:"persisted"`
	Failed    int `json:"failed"`
}

func NewReconcileService(intents repository.IntentRepository, workflow *CreateProductService, interval, staleAge time.Duration) *ReconcileService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReconcileService{
		intents:  intents,
		workflow: workflow,
		interval: interval,
		staleAge: staleAge,
	}
}

// Run reconciles on every tick until ctx is cancelled.
func (s *ReconcileService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logrus.WithField("interval", s.interval).Info("Reconciler started")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Reconciler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				logrus.WithError(err).Error("Reconcile pass failed")
			}
		}
	}
}

func (s *ReconcileService) RunOnce(ctx context.Context) (*ReconcileReport, error) {
	statuses := []models.IntentStatus{models.IntentStatusSubmitted, models.IntentStatusConfirmed}
	intents, err := s.intents.ListStale(ctx, statuses, time.Now().Add(-s.staleAge), reconcileBatchSize)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Scanned: len(intents)}
	for i := range intents {
		intent := &intents[i]
		entry := logrus.WithFields(logrus.Fields{
			"intent":   intent.ID,
			"chain_id": intent.ChainID,
			"owner":    intent.OwnerAddress,
			"slug":     intent.Slug,
			"status":   intent.Status,
		})

		if _, err := s.workflow.Resume(ctx, intent); err != nil {
			report.Failed++
			entry.WithError(err).Warn("Intent still incomplete")
			continue
		}
		report.Persisted++
		entry.Info("Intent reconciled")
	}

	if report.Scanned > 0 {
		logrus.WithFields(logrus.Fields{
			"scanned":   report.Scanned,
			"persisted": report.Persisted,
			"failed":    report.Failed,
		}).Info("Reconcile pass finished")
	}
	return report, nil
}
