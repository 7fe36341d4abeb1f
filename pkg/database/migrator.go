package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/OldStager01/getaround-pricing/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsTable records the migration files already applied.
const MigrationsTable = "schema_migrations"

// Migrator applies the embedded SQL files in name order, once each.
type Migrator struct {
	db    *DB
	files fs.FS
}

func NewMigrator(db *DB) *Migrator {
	return &Migrator{db: db, files: migrationsFS}
}

// MigrationFiles lists the embedded migrations in execution order.
func MigrationFiles() ([]string, error) {
	return listMigrations(migrationsFS)
}

func listMigrations(fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	for i, n := range names {
		names[i] = path.Base(n)
	}
	sort.Strings(names)
	return names, nil
}

// Run applies every pending migration and returns the names it applied.
func (m *Migrator) Run(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	names, err := listMigrations(m.files)
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	var ran []string
	for _, name := range names {
		if done[name] {
			continue
		}
		if err := m.apply(ctx, name); err != nil {
			return ran, fmt.Errorf("migration %s: %w", name, err)
		}
		ran = append(ran, name)
	}
	return ran, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+MigrationsTable+` (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", MigrationsTable, err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT name FROM `+MigrationsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", MigrationsTable, err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		done[name] = true
	}
	return done, rows.Err()
}

// apply runs one file and records it in the same transaction.
func (m *Migrator) apply(ctx context.Context, name string) error {
	body, err := fs.ReadFile(m.files, "migrations/"+name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(body)) == "" {
		return errors.New("empty migration")
	}

	logger.WithComponent("migrator").WithField("migration", name).Info("Applying migration")

	return m.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO `+MigrationsTable+` (name) VALUES ($1)`, name)
		return err
	})
}
