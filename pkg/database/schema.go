package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PredictionsTable is created by the first migration.
const PredictionsTable = "predictions"

// InTx runs fn in a transaction, committing when it returns nil.
func (db *DB) InTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Migrated reports whether the predictions table exists in the current schema.
func (db *DB) Migrated(ctx context.Context) (bool, error) {
	var regclass sql.NullString
	err := db.QueryRowContext(ctx, `SELECT to_regclass($1)::text`, PredictionsTable).Scan(&regclass)
	if err != nil {
		return false, fmt.Errorf("failed to check audit schema: %w", err)
	}
	return regclass.Valid, nil
}

func (db *DB) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := db.QueryRowContext(ctx, `SHOW server_version`).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read server version: %w", err)
	}
	return version, nil
}
