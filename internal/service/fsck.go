package service

import (
	"context"
	"fmt"

	"github.com/vinnodrive/vinnodrive/internal/fingerprint"
	"github.com/vinnodrive/vinnodrive/internal/repository"
	"github.com/vinnodrive/vinnodrive/internal/storage"
)

const (
	ProblemMissingObject      = "missing_object"
	ProblemNoPrimary          = "no_primary"
	ProblemInvalidFingerprint = "invalid_fingerprint"
)

type Inconsistency struct {
	FileID   int64
	OwnerID  int64
	Location string
	Problem  string
}

// Checker compares file records with the object store. It only reports;
// nothing is repaired.
type Checker struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

func NewChecker(fileRepo repository.FileRepository, storage storage.Storage) *Checker {
	return &Checker{fileRepo: fileRepo, storage: storage}
}

// Check returns every primary whose object is missing or whose fingerprint is
// malformed, and every duplicate left without a primary.
func (c *Checker) Check(ctx context.Context) ([]Inconsistency, error) {
	primaries, err := c.fileRepo.Primaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list primaries: %w", err)
	}

	var found []Inconsistency
	for _, f := range primaries {
		if !fingerprint.Valid(f.Fingerprint) {
			found = append(found, Inconsistency{FileID: f.ID, OwnerID: f.OwnerID, Location: f.Location, Problem: ProblemInvalidFingerprint})
		}

		exists, err := c.storage.Exists(ctx, f.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to check object %s: %w", f.Location, err)
		}
		if !exists {
			found = append(found, Inconsistency{FileID: f.ID, OwnerID: f.OwnerID, Location: f.Location, Problem: ProblemMissingObject})
		}
	}

	unanchored, err := c.fileRepo.Unanchored(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list duplicates: %w", err)
	}
	for _, f := range unanchored {
		found = append(found, Inconsistency{FileID: f.ID, OwnerID: f.OwnerID, Location: f.Location, Problem: ProblemNoPrimary})
	}

	return found, nil
}
