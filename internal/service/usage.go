package service

import (
	"context"
	"fmt"

	"github.com/vinnodrive/vinnodrive/internal/model"
	"github.com/vinnodrive/vinnodrive/internal/repository"
)

// UsageService is the quota ledger. All numbers are derived from file records
// on every call; nothing is cached.
type UsageService struct {
	fileRepo     repository.FileRepository
	userRepo     repository.UserRepository
	defaultQuota int64
}

func NewUsageService(fileRepo repository.FileRepository, userRepo repository.UserRepository, defaultQuota int64) *UsageService {
	return &UsageService{
		fileRepo:     fileRepo,
		userRepo:     userRepo,
		defaultQuota: defaultQuota,
	}
}

func (s *UsageService) Usage(ctx context.Context, userID int64) (*model.Usage, error) {
	limit, err := s.QuotaLimit(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.usage(ctx, s.fileRepo, userID, limit)
}

// QuotaLimit returns the user's own quota, or the configured default.
func (s *UsageService) QuotaLimit(ctx context.Context, userID int64) (int64, error) {
	user, err := s.userRepo.ByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user.QuotaBytes != nil {
		return *user.QuotaBytes, nil
	}
	return s.defaultQuota, nil
}

// usage reads the ledger through files, which may be bound to a transaction.
func (s *UsageService) usage(ctx context.Context, files repository.FileRepository, userID, limit int64) (*model.Usage, error) {
	usage, err := files.Usage(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage: %w", err)
	}

	usage.QuotaLimit = limit
	if usage.OriginalUploaded > 0 {
		usage.SavingsPercent = float64(usage.SpaceSaved) / float64(usage.OriginalUploaded) * 100
	}

	return usage, nil
}
