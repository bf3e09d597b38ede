package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*LocalStorage, *Stager) {
	t.Helper()
	root := t.TempDir()

	store, err := NewLocalStorage(root)
	require.NoError(t, err)

	stager, err := NewStager(filepath.Join(root, "staging"))
	require.NoError(t, err)

	return store, stager
}

func stage(t *testing.T, stager *Stager, content string) *Staged {
	t.Helper()
	staged, err := stager.Stage(strings.NewReader(content))
	require.NoError(t, err)
	return staged
}

func TestObjectKey(t *testing.T) {
	fp := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

	assert.Equal(t, "u7/2c/"+fp, ObjectKey(7, fp))
	assert.NotEqual(t, ObjectKey(1, fp), ObjectKey(2, fp))
}

func TestStager_Stage(t *testing.T) {
	_, stager := newTestStorage(t)

	staged := stage(t, stager, "hello")

	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", staged.Fingerprint)
	assert.Equal(t, int64(5), staged.Size)
	assert.FileExists(t, staged.Path)
	assert.Equal(t, stager.Dir(), filepath.Dir(staged.Path))

	other := stage(t, stager, "hello")
	assert.NotEqual(t, staged.Path, other.Path, "staging names must not collide")

	stager.Discard(staged.Path)
	assert.NoFileExists(t, staged.Path)
	stager.Discard(staged.Path) // second discard is a no-op
}

func TestLocalStorage_PutOpenRemove(t *testing.T) {
	ctx := context.Background()
	store, stager := newTestStorage(t)

	staged := stage(t, stager, "hello")
	key := ObjectKey(1, staged.Fingerprint)

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	created, err := store.Put(ctx, staged.Path, key)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoFileExists(t, staged.Path, "put moves the staged file")

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Remove(ctx, key))
	require.NoError(t, store.Remove(ctx, key), "remove is idempotent")

	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_PutExisting(t *testing.T) {
	ctx := context.Background()
	store, stager := newTestStorage(t)

	first := stage(t, stager, "hello")
	key := ObjectKey(1, first.Fingerprint)
	_, err := store.Put(ctx, first.Path, key)
	require.NoError(t, err)

	second := stage(t, stager, "hello")
	created, err := store.Put(ctx, second.Path, key)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoFileExists(t, second.Path, "staged copy is discarded")

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStorage_InvalidKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStorage(t)

	_, err := store.Exists(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.Open(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLocalStorage_StagingEntriesLeftAlone(t *testing.T) {
	_, stager := newTestStorage(t)
	stage(t, stager, "a")
	stage(t, stager, "b")

	entries, err := os.ReadDir(stager.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, strings.HasPrefix(e.Name(), "upload-"))
		assert.True(t, strings.HasSuffix(e.Name(), ".part"))
	}
}

func TestLocalStorage_CheckStaging(t *testing.T) {
	store, stager := newTestStorage(t)

	require.NoError(t, store.CheckStaging(stager.Dir()))

	entries, err := os.ReadDir(stager.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = os.ReadDir(store.root)
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = store.CheckStaging(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
