package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vinnodrive/vinnodrive/internal/model"
	"github.com/vinnodrive/vinnodrive/internal/repository"
	"github.com/vinnodrive/vinnodrive/internal/validation"
)

var (
	ErrGranteeNotFound = errors.New("no user with that username")
	ErrShareWithSelf   = errors.New("cannot share a file with yourself")
	ErrAlreadyShared   = errors.New("file is already shared with that user")
	ErrShareNotFound   = errors.New("file is not shared with that user")
)

type ShareService struct {
	fileRepo  repository.FileRepository
	shareRepo repository.ShareRepository
	userRepo  repository.UserRepository
}

func NewShareService(fileRepo repository.FileRepository, shareRepo repository.ShareRepository, userRepo repository.UserRepository) *ShareService {
	return &ShareService{
		fileRepo:  fileRepo,
		shareRepo: shareRepo,
		userRepo:  userRepo,
	}
}

// Grant lets username read one of ownerID's files.
func (s *ShareService) Grant(ctx context.Context, ownerID, fileID int64, username string) (*model.ShareGrant, error) {
	file, grantee, err := s.resolve(ctx, ownerID, fileID, username)
	if err != nil {
		return nil, err
	}

	if grantee.ID == ownerID {
		return nil, ErrShareWithSelf
	}

	grant := &model.ShareGrant{
		FileID:    file.ID,
		GranteeID: grantee.ID,
		GranterID: ownerID,
		CreatedAt: time.Now().UTC(),
	}

	err = s.shareRepo.Create(ctx, grant)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyShared) {
			return nil, ErrAlreadyShared
		}
		return nil, fmt.Errorf("failed to create share: %w", err)
	}

	slog.Info("file shared", "file_id", file.ID, "owner_id", ownerID, "grantee_id", grantee.ID)
	return grant, nil
}

func (s *ShareService) Revoke(ctx context.Context, ownerID, fileID int64, username string) error {
	file, grantee, err := s.resolve(ctx, ownerID, fileID, username)
	if err != nil {
		return err
	}

	err = s.shareRepo.Delete(ctx, file.ID, grantee.ID)
	if err != nil {
		if errors.Is(err, repository.ErrShareNotFound) {
			return ErrShareNotFound
		}
		return fmt.Errorf("failed to revoke share: %w", err)
	}

	return nil
}

// Grantees lists who one of ownerID's files is shared with.
func (s *ShareService) Grantees(ctx context.Context, ownerID, fileID int64) ([]string, error) {
	_, err := s.fileRepo.ByOwner(ctx, ownerID, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	return s.shareRepo.Grantees(ctx, fileID)
}

// SharedWith lists files other users shared with userID.
func (s *ShareService) SharedWith(ctx context.Context, userID int64) ([]*model.SharedFile, error) {
	files, err := s.shareRepo.SharedWith(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared files: %w", err)
	}
	return files, nil
}

// IsSharedWith reports whether fileID was granted to userID.
func (s *ShareService) IsSharedWith(ctx context.Context, fileID, userID int64) (bool, error) {
	shared, err := s.shareRepo.Exists(ctx, fileID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check share: %w", err)
	}
	return shared, nil
}

func (s *ShareService) resolve(ctx context.Context, ownerID, fileID int64, username string) (*model.File, *model.User, error) {
	file, err := s.fileRepo.ByOwner(ctx, ownerID, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("failed to get file: %w", err)
	}

	grantee, err := s.userRepo.ByUsername(ctx, validation.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrGranteeNotFound
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	return file, grantee, nil
}
