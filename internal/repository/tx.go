package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// InTx runs fn inside a transaction and commits when fn returns nil.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = fn(tx)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Savepoint runs fn inside a named savepoint of tx. When fn fails, only the work
// done since the savepoint is undone and the transaction stays usable.
// Works on SQLite and PostgreSQL alike.
func Savepoint(ctx context.Context, tx *sqlx.Tx, name string, fn func() error) error {
	_, err := tx.ExecContext(ctx, "SAVEPOINT "+name)
	if err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	fnErr := fn()
	if fnErr != nil {
		_, err = tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name)
		if err != nil {
			return fmt.Errorf("failed to roll back to savepoint: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
	if err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return fnErr
}

// isUniqueViolation checks for unique constraint violations (works for both SQLite and PostgreSQL)
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}
