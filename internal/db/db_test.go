package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqlitePath(t *testing.T) {
	assert.Equal(t, "./data/app.db", sqlitePath("./data/app.db?_pragma=foreign_keys(1)"))
	assert.Equal(t, "/tmp/x.db", sqlitePath("file:/tmp/x.db"))
}

func TestMigrations_UpDown(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "nested", "m.db") + "?_pragma=foreign_keys(1)"

	database, err := Init("sqlite", dsn)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(ctx, database.DB, "sqlite"))
	version, err := Version(ctx, database.DB, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	// Running again is a no-op.
	require.NoError(t, RunMigrations(ctx, database.DB, "sqlite"))

	require.NoError(t, MigrateDown(ctx, database.DB, "sqlite"))
	version, err = Version(ctx, database.DB, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	var tables int
	require.NoError(t, database.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'share_grants'`))
	assert.Zero(t, tables)
}

func TestMigrations_UnknownDriver(t *testing.T) {
	err := RunMigrations(context.Background(), nil, "mysql")
	assert.ErrorContains(t, err, "no migrations")
}
