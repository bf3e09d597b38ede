package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/vinnodrive/vinnodrive/internal/metrics"
	"github.com/vinnodrive/vinnodrive/internal/model"
	"github.com/vinnodrive/vinnodrive/internal/repository"
	"github.com/vinnodrive/vinnodrive/internal/storage"
	"github.com/vinnodrive/vinnodrive/internal/validation"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrAccessDenied = errors.New("access denied")
)

const shareTokenAttempts = 3

type FileService struct {
	db        *sqlx.DB
	fileRepo  repository.FileRepository
	shares    *ShareService
	storage   storage.Storage
	locks     *UserLocks
	metrics   *metrics.Metrics
}

func NewFileService(
	db *sqlx.DB,
	fileRepo repository.FileRepository,
	shares *ShareService,
	storage storage.Storage,
	locks *UserLocks,
	metrics *metrics.Metrics,
) *FileService {
	return &FileService{
		db:        db,
		fileRepo:  fileRepo,
		shares:    shares,
		storage:   storage,
		locks:     locks,
		metrics:   metrics,
	}
}

// Files lists the user's own files. An empty folder lists all of them.
func (s *FileService) Files(ctx context.Context, userID int64, folder string) ([]*model.File, error) {
	if folder != "" {
		normalized, err := validation.NormalizeFolder(folder)
		if err != nil {
			return nil, err
		}
		folder = normalized
	}

	files, err := s.fileRepo.Files(ctx, userID, folder)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

func (s *FileService) Folders(ctx context.Context, userID int64) ([]string, error) {
	folders, err := s.fileRepo.Folders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

// File returns one of the user's own records.
func (s *FileService) File(ctx context.Context, userID, fileID int64) (*model.File, error) {
	file, err := s.fileRepo.ByOwner(ctx, userID, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return file, nil
}

// Download opens a file for its owner or for a user it was shared with.
// The caller closes the returned reader.
func (s *FileService) Download(ctx context.Context, userID, fileID int64) (*model.File, io.ReadCloser, error) {
	file, kind, err := s.authorize(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.open(ctx, file)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.Downloads.WithLabelValues(kind).Inc()
	return file, rc, nil
}

// PublicDownload opens a file through its public link and counts the download.
func (s *FileService) PublicDownload(ctx context.Context, token string) (*model.File, io.ReadCloser, error) {
	if token == "" {
		return nil, nil, ErrFileNotFound
	}

	file, err := s.fileRepo.ByShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("failed to get shared file: %w", err)
	}

	rc, err := s.open(ctx, file)
	if err != nil {
		return nil, nil, err
	}

	err = s.fileRepo.IncrementDownloads(ctx, file.ID)
	if err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("failed to count download: %w", err)
	}
	file.DownloadCount++

	s.metrics.Downloads.WithLabelValues("public").Inc()
	return file, rc, nil
}

// SetPublic enables or disables the public link of one of the user's files.
// Enabling an already public file keeps its token.
func (s *FileService) SetPublic(ctx context.Context, userID, fileID int64, public bool) (*model.File, error) {
	file, err := s.File(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}

	if !public {
		err = s.fileRepo.SetPublic(ctx, userID, fileID, false, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to disable public link: %w", err)
		}
		file.IsPublic = false
		file.ShareToken = nil
		return file, nil
	}

	if file.IsPublic && file.ShareToken != nil {
		return file, nil
	}

	for attempt := 1; attempt <= shareTokenAttempts; attempt++ {
		token, err := generateShareToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate share token: %w", err)
		}

		err = s.fileRepo.SetPublic(ctx, userID, fileID, true, &token)
		if errors.Is(err, repository.ErrShareTokenTaken) {
			slog.Warn("share token collision, retrying", "file_id", fileID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to enable public link: %w", err)
		}

		file.IsPublic = true
		file.ShareToken = &token
		return file, nil
	}

	return nil, fmt.Errorf("failed to enable public link: %w", repository.ErrShareTokenTaken)
}

// authorize loads a record and checks the caller may read it. kind is "owner"
// or "shared".
func (s *FileService) authorize(ctx context.Context, userID, fileID int64) (*model.File, string, error) {
	file, err := s.fileRepo.ByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil, "", ErrFileNotFound
		}
		return nil, "", fmt.Errorf("failed to get file: %w", err)
	}

	if file.OwnerID == userID {
		return file, "owner", nil
	}

	shared, err := s.shares.IsSharedWith(ctx, file.ID, userID)
	if err != nil {
		return nil, "", err
	}
	if !shared {
		return nil, "", ErrAccessDenied
	}

	return file, "shared", nil
}

// open reads the object behind a record. A record whose object is gone is
// reported as not found; the record itself is left alone.
func (s *FileService) open(ctx context.Context, file *model.File) (io.ReadCloser, error) {
	rc, err := s.storage.Open(ctx, file.Location)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			slog.Warn("file record points at missing object", "file_id", file.ID, "location", file.Location)
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return rc, nil
}

func generateShareToken() (string, error) {
	bytes := make([]byte, 24)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
