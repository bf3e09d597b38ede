package repository

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vinnodrive/vinnodrive/internal/db"
	"github.com/vinnodrive/vinnodrive/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "repo.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(context.Background(), database.DB, "sqlite"))
	return database
}

func newOwner(t *testing.T, database *sqlx.DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, NewUserRepository(database).Create(context.Background(), user))
	return user
}

func newRecord(ownerID int64, name, fp string, duplicate bool) *model.File {
	return &model.File{
		OwnerID:     ownerID,
		DisplayName: name,
		Fingerprint: fp,
		Location:    "u1/" + fp[:2] + "/" + fp,
		IsDuplicate: duplicate,
		SizeBytes:   5,
		FolderPath:  "/",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestFileRepository_SecondPrimaryIsRejected(t *testing.T) {
	database := newTestDB(t)
	files := NewFileRepository(database)
	ctx := context.Background()
	alice := newOwner(t, database, "alice")
	bob := newOwner(t, database, "bob")
	fp := strings.Repeat("ab", 32)

	require.NoError(t, files.Create(ctx, newRecord(alice.ID, "a.txt", fp, false)))

	err := files.Create(ctx, newRecord(alice.ID, "b.txt", fp, false))
	assert.ErrorIs(t, err, ErrPrimaryExists)

	// Duplicates and other owners are not constrained.
	assert.NoError(t, files.Create(ctx, newRecord(alice.ID, "c.txt", fp, true)))
	assert.NoError(t, files.Create(ctx, newRecord(bob.ID, "a.txt", fp, false)))
}

func TestSavepoint_KeepsTransactionUsable(t *testing.T) {
	database := newTestDB(t)
	files := NewFileRepository(database)
	ctx := context.Background()
	alice := newOwner(t, database, "alice")
	fp := strings.Repeat("cd", 32)

	err := InTx(ctx, database, func(tx *sqlx.Tx) error {
		txFiles := files.WithTx(tx)
		require.NoError(t, txFiles.Create(ctx, newRecord(alice.ID, "a.txt", fp, false)))

		err := Savepoint(ctx, tx, "second_primary", func() error {
			return txFiles.Create(ctx, newRecord(alice.ID, "b.txt", fp, false))
		})
		require.ErrorIs(t, err, ErrPrimaryExists)

		return txFiles.Create(ctx, newRecord(alice.ID, "b.txt", fp, true))
	})
	require.NoError(t, err)

	count, err := files.CountByFingerprint(ctx, alice.ID, fp)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	primary, err := files.Primary(ctx, alice.ID, fp)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", primary.DisplayName)
}
