package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/pkg/database"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the prediction audit schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled {
				return errors.New("database is disabled, set database.enabled to run migrations")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Database.MigrationTimeout)
			defer cancel()

			db, err := database.Open(ctx, cfg.Database.ToDBConfig())
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if version, err := db.ServerVersion(ctx); err == nil {
				logger.Infof("Connected to PostgreSQL %s", version)
			}

			logger.Info("Running database migrations")
			applied, err := database.NewMigrator(db).Run(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if len(applied) == 0 {
				logger.Info("Schema is up to date")
				return nil
			}
			logger.Infof("Applied %d migration(s): %s", len(applied), strings.Join(applied, ", "))
			return nil
		},
	}
}
