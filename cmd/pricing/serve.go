package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/OldStager01/getaround-pricing/api"
	"github.com/OldStager01/getaround-pricing/internal/audit"
	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/internal/metrics"
	"github.com/OldStager01/getaround-pricing/internal/prediction"
	"github.com/OldStager01/getaround-pricing/pkg/config"
	"github.com/OldStager01/getaround-pricing/pkg/database"
	"github.com/OldStager01/getaround-pricing/pkg/database/queries"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	m := metrics.New()

	p, loadErr := loadPipeline(cfg)
	if loadErr != nil {
		if cfg.Model.RequireArtifacts {
			return fmt.Errorf("failed to load pipeline: %w", loadErr)
		}
		logger.Errorf("Pipeline unavailable, every prediction will return the usage hint: %v", loadErr)
	} else {
		info := p.Info()
		logger.WithFields(logger.Fields{
			"regressor": info.RegressorKind,
			"features":  info.Features,
			"version":   info.RegressorVersion,
		}).Info("Pipeline loaded")
	}

	svcCfg := prediction.Config{LoadErr: loadErr, Metrics: m}
	// Predictor must stay an untyped nil when loading failed.
	if p != nil {
		svcCfg.Predictor = p
	}
	service := prediction.NewService(svcCfg)

	store, fetcher := newDatasetStore(cfg, m)
	defer fetcher.Close()

	deps := api.Dependencies{
		Service:  service,
		Pipeline: p,
		LoadErr:  loadErr,
		Pricing:  store,
		Reporter: newReporter(cfg, store),
		Metrics:  m,
	}

	var recorder *audit.Recorder
	if cfg.Database.Enabled {
		dbCtx, cancel := context.WithTimeout(ctx, 2*cfg.Database.PingTimeout+time.Second)
		db, err := database.Open(dbCtx, cfg.Database.ToDBConfig())
		if err != nil {
			cancel()
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("Database connection established")

		migrated, err := db.Migrated(dbCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to inspect schema: %w", err)
		}
		if !migrated {
			logger.Warn("Predictions table missing, run `pricing migrate`; audit records will fail")
		}

		repo := queries.NewPredictionRepository(db.DB)
		recorder = audit.NewRecorder(repo, audit.Config{
			BufferSize:   cfg.Database.AuditBuffer,
			WriteTimeout: cfg.Database.AuditWriteTimeout,
			Metrics:      m,
		})
		service.AddObserver(recorder)
		deps.DB = db
		deps.Predictions = repo
	}

	server := api.NewServer(cfg, deps)

	if cfg.Prometheus.Enabled {
		metricsServer := m.StartServer(cfg.Prometheus.Port)
		defer metricsServer.Close()
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if recorder != nil {
		if err := recorder.Close(shutdownCtx); err != nil {
			logger.Warnf("Audit queue not fully drained: %v", err)
		}
	}

	logger.Info("Server stopped gracefully")
	return nil
}
