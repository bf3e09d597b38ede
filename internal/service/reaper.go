package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/vinnodrive/vinnodrive/internal/repository"
)

// Delete removes one of the user's records and reclaims the physical object
// once no other record of the same owner references its fingerprint.
//
// The record goes first. If the object removal fails afterwards the object is
// orphaned, which wastes space but never leaves a record without bytes.
func (s *FileService) Delete(ctx context.Context, userID, fileID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	var reclaim string

	err := repository.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		files := s.fileRepo.WithTx(tx)

		file, err := files.ByOwner(ctx, userID, fileID)
		if err != nil {
			return err
		}

		references, err := files.CountByFingerprint(ctx, userID, file.Fingerprint)
		if err != nil {
			return fmt.Errorf("failed to count references: %w", err)
		}

		err = files.Delete(ctx, file.ID)
		if err != nil {
			return fmt.Errorf("failed to delete file record: %w", err)
		}

		if references == 1 {
			reclaim = file.Location
			return nil
		}

		if file.IsPrimary() {
			promoted, err := files.PromoteOldestDuplicate(ctx, userID, file.Fingerprint)
			if err != nil {
				return fmt.Errorf("failed to promote duplicate: %w", err)
			}
			slog.Info("promoted duplicate to primary", "user_id", userID, "file_id", promoted.ID, "deleted_id", file.ID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	if reclaim != "" {
		removeErr := s.storage.Remove(context.WithoutCancel(ctx), reclaim)
		if removeErr != nil {
			s.metrics.ReclaimFailures.Inc()
			slog.Error("failed to reclaim object, left orphaned", "error", removeErr, "user_id", userID, "location", reclaim)
		} else {
			s.metrics.ObjectsReclaimed.Inc()
		}
	}

	slog.Info("file deleted", "user_id", userID, "file_id", fileID, "reclaimed", reclaim != "")
	return nil
}
