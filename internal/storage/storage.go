package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cfg "github.com/vinnodrive/vinnodrive/internal/config"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidKey     = errors.New("invalid object key")
)

// Storage is the physical blob store. Keys are derived with ObjectKey and are
// never chosen by users.
type Storage interface {
	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Put moves the staged file at stagedPath to key. When key is already
	// present the staged file is discarded and created is false.
	Put(ctx context.Context, stagedPath, key string) (created bool, err error)

	// Remove deletes the object at key. Removing a missing object is not an error.
	Remove(ctx context.Context, key string) error

	// Open returns the object's content, or ErrObjectNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ObjectKey returns the per-user key for a fingerprint. Identical content of
// two different users never shares a key.
func ObjectKey(ownerID int64, fingerprint string) string {
	shard := fingerprint
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return fmt.Sprintf("u%d/%s/%s", ownerID, shard, fingerprint)
}

// New creates the configured object store.
func New(c *cfg.Config) (Storage, error) {
	switch c.StorageBackend {
	case "s3":
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	default:
		slog.Info("initializing local storage", "path", c.StoragePath)
		return NewLocalStorage(c.StoragePath)
	}
}
