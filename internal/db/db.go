package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Init opens the metadata store. driver is "sqlite" or "pgx".
func Init(driver, connection string) (*sqlx.DB, error) {
	if driver == "sqlite" {
		err := os.MkdirAll(filepath.Dir(sqlitePath(connection)), 0o755)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Open(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	configurePool(db, driver)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected", "driver", driver)
	return db, nil
}

// SQLite allows one writer at a time, so a large pool only adds lock waits.
func configurePool(db *sqlx.DB, driver string) {
	if driver == "sqlite" {
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(0)
		return
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}

// sqlitePath strips the query string of a SQLite DSN.
func sqlitePath(connection string) string {
	path, _, _ := strings.Cut(connection, "?")
	return strings.TrimPrefix(path, "file:")
}
