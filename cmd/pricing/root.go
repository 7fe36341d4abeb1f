package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OldStager01/getaround-pricing/internal/dataset"
	"github.com/OldStager01/getaround-pricing/internal/delay"
	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/internal/metrics"
	"github.com/OldStager01/getaround-pricing/internal/pipeline"
	"github.com/OldStager01/getaround-pricing/pkg/config"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "pricing",
		Short:         "Rental price prediction service and delay reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newReportCmd(opts),
		newPredictCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := logger.Setup(cfg.App.LogLevel, cfg.App.Mode); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	return pipeline.Load(pipeline.Config{
		PreprocessorPath: cfg.Model.PreprocessorPath,
		RegressorPath:    cfg.Model.RegressorPath,
	})
}

func newDatasetStore(cfg *config.Config, m *metrics.Metrics) (*dataset.Store, *dataset.Fetcher) {
	fetcher := dataset.NewFetcher(dataset.FetcherConfig{
		Timeout:       cfg.Dataset.Timeout,
		RetryAttempts: cfg.Dataset.RetryAttempts,
		RetryDelay:    cfg.Dataset.RetryDelay,
		MaxFailures:   cfg.Dataset.CircuitBreaker.MaxFailures,
		ResetTimeout:  cfg.Dataset.CircuitBreaker.Timeout,
		Metrics:       m,
	})

	store := dataset.NewStore(fetcher, dataset.Config{
		PricingSource: cfg.Dataset.PricingSource,
		DelaySource:   cfg.Dataset.DelaySource,
		DelaySheet:    cfg.Dataset.DelaySheet,
		CacheTTL:      cfg.Dataset.CacheTTL,
	})
	return store, fetcher
}

func newReporter(cfg *config.Config, store *dataset.Store) *delay.Reporter {
	analyzer := delay.NewAnalyzer(delay.Config{
		TrimQuantile:        cfg.Report.TrimQuantile,
		HistogramBinMinutes: cfg.Report.HistogramBinMinutes,
		Thresholds:          cfg.Report.Thresholds,
	})
	return delay.NewReporter(store, analyzer, cfg.Dataset.CacheTTL)
}
