package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects on the local filesystem under <root>/objects.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	objects := filepath.Join(root, "objects")
	err := os.MkdirAll(objects, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create objects directory: %w", err)
	}
	return &LocalStorage{root: objects}, nil
}

// CheckStaging moves a scratch file from dir into the object root to confirm
// Put can rename staged files into place. It fails when dir is on another
// filesystem.
func (s *LocalStorage) CheckStaging(dir string) error {
	f, err := os.CreateTemp(dir, "rename-check-*")
	if err != nil {
		return fmt.Errorf("failed to create file in staging directory: %w", err)
	}
	src := f.Name()
	f.Close()
	defer os.Remove(src)

	dst := filepath.Join(s.root, filepath.Base(src))
	err = os.Rename(src, dst)
	if err != nil {
		return fmt.Errorf("staging directory %s must be on the same filesystem as %s: %w", dir, s.root, err)
	}
	return os.Remove(dst)
}

func (s *LocalStorage) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || filepath.IsAbs(key) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object: %w", err)
}

// Put renames the staged file into place. The staging area must be on the same
// filesystem for the rename to be atomic.
func (s *LocalStorage) Put(ctx context.Context, stagedPath, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}

	exists, err := s.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		err = os.Remove(stagedPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("failed to discard staged file: %w", err)
		}
		return false, nil
	}

	err = os.MkdirAll(filepath.Dir(p), 0o755)
	if err != nil {
		return false, fmt.Errorf("failed to create object directory: %w", err)
	}

	err = os.Rename(stagedPath, p)
	if err != nil {
		return false, fmt.Errorf("failed to move staged file: %w", err)
	}

	return true, nil
}

func (s *LocalStorage) Remove(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	err = os.Remove(p)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

func (s *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}
