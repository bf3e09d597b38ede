package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/vinnodrive/vinnodrive/internal/fingerprint"
)

// Staged is an upload written to the staging area but not yet committed.
type Staged struct {
	Path        string
	Fingerprint string
	Size        int64
}

// Stager writes incoming content to uniquely named temporary files.
type Stager struct {
	dir string
}

func NewStager(dir string) (*Stager, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Stager{dir: dir}, nil
}

func (s *Stager) Dir() string {
	return s.dir
}

// Stage copies r into a fresh staging file, hashing it on the way, and syncs it
// to disk. The size comes from the filesystem, not from the copy count.
func (s *Stager) Stage(r io.Reader) (*Staged, error) {
	f, err := os.CreateTemp(s.dir, "upload-*.part")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	path := f.Name()

	fail := func(err error) (*Staged, error) {
		f.Close()
		s.Discard(path)
		return nil, err
	}

	hasher := fingerprint.NewWriter()
	_, err = io.CopyBuffer(io.MultiWriter(f, hasher), r, make([]byte, fingerprint.ChunkSize))
	if err != nil {
		return fail(fmt.Errorf("failed to write staging file: %w", err))
	}

	err = f.Sync()
	if err != nil {
		return fail(fmt.Errorf("failed to sync staging file: %w", err))
	}

	info, err := f.Stat()
	if err != nil {
		return fail(fmt.Errorf("failed to stat staging file: %w", err))
	}

	err = f.Close()
	if err != nil {
		s.Discard(path)
		return nil, fmt.Errorf("failed to close staging file: %w", err)
	}

	return &Staged{
		Path:        path,
		Fingerprint: hasher.Digest(),
		Size:        info.Size(),
	}, nil
}

// Discard removes a staged file. Already removed files are ignored.
func (s *Stager) Discard(path string) {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to remove staged file", "path", path, "error", err)
	}
}
