package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"
	"github.com/vinnodrive/vinnodrive/internal/metrics"
	"github.com/vinnodrive/vinnodrive/internal/model"
	"github.com/vinnodrive/vinnodrive/internal/ratelimit"
	"github.com/vinnodrive/vinnodrive/internal/repository"
	"github.com/vinnodrive/vinnodrive/internal/storage"
	"github.com/vinnodrive/vinnodrive/internal/validation"
)

type BatchErrorCode string

const (
	CodeNoFilesSelected BatchErrorCode = "NO_FILES_SELECTED"
	CodeInvalidFolder   BatchErrorCode = "INVALID_FOLDER"
	CodeRateLimited     BatchErrorCode = "RATE_LIMITED"
	CodeQuotaExceeded   BatchErrorCode = "QUOTA_EXCEEDED"
	CodeInternal        BatchErrorCode = "INTERNAL_ERROR"
)

// BatchError rejects an upload batch as a whole. When it is set no record of
// the batch was committed and no staged file is left behind.
type BatchError struct {
	Code    BatchErrorCode `json:"code"`
	Message string         `json:"message"`
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type UploadFile struct {
	Name    string
	Content io.Reader
}

type FileOutcome struct {
	FileID      int64  `json:"file_id"`
	Filename    string `json:"filename"`
	Status      string `json:"status"` // model.FileStatusUploaded or model.FileStatusDuplicate
	Size        int64  `json:"size"`
	Fingerprint string `json:"fingerprint"`
}

type UploadReport struct {
	Folder string        `json:"folder,omitempty"`
	Files  []FileOutcome `json:"files"`
	Error  *BatchError   `json:"error,omitempty"`
	Usage  *model.Usage  `json:"usage,omitempty"`
}

type stagedFile struct {
	*storage.Staged
	name string
}

type UploadService struct {
	db       *sqlx.DB
	fileRepo repository.FileRepository
	usage    *UsageService
	storage  storage.Storage
	stager   *storage.Stager
	limiter  *ratelimit.Cooldown
	locks    *UserLocks
	metrics  *metrics.Metrics
}

func NewUploadService(
	db *sqlx.DB,
	fileRepo repository.FileRepository,
	usage *UsageService,
	storage storage.Storage,
	stager *storage.Stager,
	limiter *ratelimit.Cooldown,
	locks *UserLocks,
	metrics *metrics.Metrics,
) *UploadService {
	return &UploadService{
		db:       db,
		fileRepo: fileRepo,
		usage:    usage,
		storage:  storage,
		stager:   stager,
		limiter:  limiter,
		locks:    locks,
		metrics:  metrics,
	}
}

// Upload ingests a batch of files into folder for userID. The batch is either
// rejected as a whole (report.Error set, nothing changed) or every file ends up
// as UPLOADED or DUPLICATE.
func (s *UploadService) Upload(ctx context.Context, userID int64, folder string, files []UploadFile) *UploadReport {
	start := time.Now()

	named := make([]UploadFile, 0, len(files))
	for _, f := range files {
		name := validation.CleanFilename(f.Name)
		if name == "" || f.Content == nil {
			continue
		}
		named = append(named, UploadFile{Name: name, Content: f.Content})
	}
	if len(named) == 0 {
		return s.reject(CodeNoFilesSelected, "no files selected")
	}

	folderPath, err := validation.NormalizeFolder(folder)
	if err != nil {
		return s.reject(CodeInvalidFolder, err.Error())
	}

	if !s.limiter.Allow(userID) {
		slog.Warn("upload rate limited", "user_id", userID, "retry_after", s.limiter.RetryAfter(userID))
		return s.reject(CodeRateLimited, fmt.Sprintf("only one upload per %s is allowed, please retry shortly", s.limiter.Window()))
	}

	staged := make([]*stagedFile, 0, len(named))
	defer func() {
		// Committed objects were moved out of staging; this only catches leftovers.
		for _, sf := range staged {
			s.stager.Discard(sf.Path)
		}
	}()

	for _, f := range named {
		st, err := s.stager.Stage(f.Content)
		if err != nil {
			slog.Error("failed to stage upload", "error", err, "user_id", userID, "filename", f.Name)
			return s.reject(CodeInternal, "failed to receive upload")
		}
		staged = append(staged, &stagedFile{Staged: st, name: f.Name})
	}

	limit, err := s.usage.QuotaLimit(ctx, userID)
	if err != nil {
		slog.Error("failed to load quota", "error", err, "user_id", userID)
		return s.reject(CodeInternal, "failed to check quota")
	}

	unlock := s.locks.Lock(userID)
	outcomes, err := s.commit(ctx, userID, folderPath, limit, staged)
	unlock()
	if err != nil {
		var batchErr *BatchError
		if errors.As(err, &batchErr) {
			return s.reject(batchErr.Code, batchErr.Message)
		}
		slog.Error("upload failed", "error", err, "user_id", userID, "files", len(staged))
		return s.reject(CodeInternal, "upload failed, nothing was stored")
	}

	report := &UploadReport{Folder: folderPath, Files: outcomes}
	for _, o := range outcomes {
		s.metrics.FilesIngested.WithLabelValues(o.Status).Inc()
		if o.Status == model.FileStatusUploaded {
			s.metrics.BytesStored.Add(float64(o.Size))
		} else {
			s.metrics.BytesDeduped.Add(float64(o.Size))
		}
	}
	s.metrics.UploadDuration.Observe(time.Since(start).Seconds())

	report.Usage, err = s.usage.Usage(ctx, userID)
	if err != nil {
		// The batch is committed; a missing summary is not worth failing it.
		slog.Warn("failed to load usage after upload", "error", err, "user_id", userID)
	}

	slog.Info("upload committed", "user_id", userID, "folder", folderPath, "files", len(outcomes), "duration_ms", time.Since(start).Milliseconds())
	return report
}

func (s *UploadService) reject(code BatchErrorCode, message string) *UploadReport {
	s.metrics.BatchesRejected.WithLabelValues(string(code)).Inc()
	return &UploadReport{
		Files: []FileOutcome{},
		Error: &BatchError{Code: code, Message: message},
	}
}

// commit runs the quota gate and writes every staged file in one transaction.
// Must be called with the user's lock held.
func (s *UploadService) commit(ctx context.Context, userID int64, folder string, limit int64, staged []*stagedFile) ([]FileOutcome, error) {
	var created []string
	outcomes := make([]FileOutcome, 0, len(staged))

	err := repository.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		files := s.fileRepo.WithTx(tx)

		usage, err := s.usage.usage(ctx, files, userID, limit)
		if err != nil {
			return err
		}

		projected, err := projectNewBytes(ctx, files, userID, staged)
		if err != nil {
			return err
		}

		if usage.ActualStorage+projected > limit {
			slog.Info("upload exceeds quota", "user_id", userID, "actual", usage.ActualStorage, "projected", projected, "limit", limit)
			return &BatchError{
				Code: CodeQuotaExceeded,
				Message: fmt.Sprintf("upload needs %s of new storage but only %s of your %s quota is free",
					humanize.IBytes(uint64(projected)),
					humanize.IBytes(uint64(usage.Remaining())),
					humanize.IBytes(uint64(limit)),
				),
			}
		}

		now := time.Now().UTC()
		for _, sf := range staged {
			outcome, objectCreated, err := s.commitFile(ctx, tx, files, userID, folder, sf, now)
			if objectCreated {
				created = append(created, storage.ObjectKey(userID, sf.Fingerprint))
			}
			if err != nil {
				return fmt.Errorf("failed to commit %q: %w", sf.name, err)
			}
			outcomes = append(outcomes, outcome)
		}
		return nil
	})
	if err != nil {
		// Objects written by this batch are referenced by nothing once the
		// transaction is gone.
		for _, key := range created {
			removeErr := s.storage.Remove(context.WithoutCancel(ctx), key)
			if removeErr != nil {
				slog.Error("failed to remove object during rollback", "error", removeErr, "key", key)
			}
		}
		return nil, err
	}

	return outcomes, nil
}

// projectNewBytes sums the sizes of staged files that will become new primaries.
// A fingerprint repeated within the batch only counts once.
func projectNewBytes(ctx context.Context, files repository.FileRepository, userID int64, staged []*stagedFile) (int64, error) {
	seen := make(map[string]bool, len(staged))
	var total int64

	for _, sf := range staged {
		if seen[sf.Fingerprint] {
			continue
		}
		seen[sf.Fingerprint] = true

		_, err := files.Primary(ctx, userID, sf.Fingerprint)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrFileNotFound) {
			return 0, fmt.Errorf("failed to look up primary: %w", err)
		}
		total += sf.Size
	}

	return total, nil
}

// commitFile records one staged file. objectCreated reports whether this call
// wrote a new object that nothing referenced before.
func (s *UploadService) commitFile(ctx context.Context, tx *sqlx.Tx, files repository.FileRepository, userID int64, folder string, sf *stagedFile, now time.Time) (outcome FileOutcome, objectCreated bool, err error) {
	record := &model.File{
		OwnerID:     userID,
		DisplayName: sf.name,
		Fingerprint: sf.Fingerprint,
		SizeBytes:   sf.Size,
		FolderPath:  folder,
		CreatedAt:   now,
	}

	primary, err := files.Primary(ctx, userID, sf.Fingerprint)
	if err == nil {
		return s.commitDuplicate(ctx, files, record, primary.Location, sf)
	}
	if !errors.Is(err, repository.ErrFileNotFound) {
		return FileOutcome{}, false, fmt.Errorf("failed to look up primary: %w", err)
	}

	key := storage.ObjectKey(userID, sf.Fingerprint)
	created, err := s.storage.Put(ctx, sf.Path, key)
	if err != nil {
		return FileOutcome{}, false, fmt.Errorf("failed to store object: %w", err)
	}

	record.Location = key
	err = repository.Savepoint(ctx, tx, "commit_file", func() error {
		return files.Create(ctx, record)
	})
	if errors.Is(err, repository.ErrPrimaryExists) {
		// Another writer committed this fingerprint first. Its object lives under
		// the same key, so the bytes we just stored must stay.
		winner, lookupErr := files.Primary(ctx, userID, sf.Fingerprint)
		if lookupErr != nil {
			return FileOutcome{}, false, fmt.Errorf("failed to look up concurrent primary: %w", lookupErr)
		}
		slog.Info("primary committed concurrently, recording duplicate", "user_id", userID, "fingerprint", sf.Fingerprint)
		return s.commitDuplicate(ctx, files, record, winner.Location, sf)
	}
	if err != nil {
		return FileOutcome{}, created, fmt.Errorf("failed to create file record: %w", err)
	}

	return outcomeOf(record, model.FileStatusUploaded), created, nil
}

func (s *UploadService) commitDuplicate(ctx context.Context, files repository.FileRepository, record *model.File, location string, sf *stagedFile) (FileOutcome, bool, error) {
	record.IsDuplicate = true
	record.Location = location

	err := files.Create(ctx, record)
	if err != nil {
		return FileOutcome{}, false, fmt.Errorf("failed to create duplicate record: %w", err)
	}

	s.stager.Discard(sf.Path)
	return outcomeOf(record, model.FileStatusDuplicate), false, nil
}

func outcomeOf(f *model.File, status string) FileOutcome {
	return FileOutcome{
		FileID:      f.ID,
		Filename:    f.DisplayName,
		Status:      status,
		Size:        f.SizeBytes,
		Fingerprint: f.Fingerprint,
	}
}
