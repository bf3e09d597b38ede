package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vinnodrive/vinnodrive/internal/config"
	"github.com/vinnodrive/vinnodrive/internal/db"
	"github.com/vinnodrive/vinnodrive/internal/repository"
)

// env holds what the data commands share. Migrations are applied first so the
// tools never run against an older schema.
type env struct {
	db    *sqlx.DB
	files repository.FileRepository
	users repository.UserRepository
}

func open(ctx context.Context, cfg *config.Config) (*env, error) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, err
	}

	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &env{
		db:    database,
		files: repository.NewFileRepository(database),
		users: repository.NewUserRepository(database),
	}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}
