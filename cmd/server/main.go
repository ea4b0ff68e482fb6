// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mintcart/mintcart-backend/internal/config"
	"github.com/mintcart/mintcart-backend/internal/database"
	"github.com/mintcart/mintcart-backend/internal/i18n"
	"github.com/mintcart/mintcart-backend/internal/router"
	"github.com/mintcart/mintcart-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer stores.Close()

	if err := i18n.Initialize(cfg.I18n.LocalesPath, cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	signer, err := services.NewRelayerSigner(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load relayer signer")
	}

	workflow, err := services.NewCreateProductWorkflow(cfg, stores.Intents, logTransition)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize create-product workflow")
	}

	if cfg.Reconciler.Enabled {
		reconciler := services.NewReconcileService(stores.Intents, workflow, cfg.Reconciler.Interval, cfg.Reconciler.StaleAge)
		go reconciler.Run(ctx)
	}

	r := router.Initialize(cfg, router.Dependencies{
		Products: stores.Products,
		Workflow: workflow,
		Signer:   signer,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

func logTransition(t services.Transition) {
	entry := logrus.WithFields(logrus.Fields{
		"chain_id": t.ChainID,
		"owner":    t.Owner,
		"slug":     t.Slug,
		"from":     t.From,
		"to":       t.To,
	})
	if t.TxHash != "" {
		entry = entry.WithField("tx_hash", t.TxHash)
	}
	if t.Err != nil {
		entry.WithError(t.Err).Warn("Create-product transition")
		return
	}
	entry.Debug("Create-product transition")
}
