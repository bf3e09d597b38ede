package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/vinnodrive/vinnodrive/internal/model"
)

var (
	ErrAlreadyShared = errors.New("file already shared with user")
	ErrShareNotFound = errors.New("share not found")
)

type ShareRepository interface {
	Create(ctx context.Context, grant *model.ShareGrant) error
	Exists(ctx context.Context, fileID, granteeID int64) (bool, error)
	Grantees(ctx context.Context, fileID int64) ([]string, error)
	SharedWith(ctx context.Context, granteeID int64) ([]*model.SharedFile, error)
	Delete(ctx context.Context, fileID, granteeID int64) error
}

type shareRepository struct {
	db *sqlx.DB
}

func NewShareRepository(db *sqlx.DB) ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) Create(ctx context.Context, grant *model.ShareGrant) error {
	query := `INSERT INTO share_grants (file_id, grantee_id, granter_id, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, grant.FileID, grant.GranteeID, grant.GranterID, grant.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyShared
		}
		return err
	}

	return nil
}

func (r *shareRepository) Exists(ctx context.Context, fileID, granteeID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM share_grants WHERE file_id = $1 AND grantee_id = $2`

	err := r.db.GetContext(ctx, &count, query, fileID, granteeID)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Grantees returns the usernames a file is shared with.
func (r *shareRepository) Grantees(ctx context.Context, fileID int64) ([]string, error) {
	var usernames []string
	query := `
		SELECT u.username
		FROM share_grants g
		JOIN users u ON u.id = g.grantee_id
		WHERE g.file_id = $1
		ORDER BY u.username
	`

	err := r.db.SelectContext(ctx, &usernames, query, fileID)
	if err != nil {
		return nil, err
	}

	return usernames, nil
}

func (r *shareRepository) SharedWith(ctx context.Context, granteeID int64) ([]*model.SharedFile, error) {
	var files []*model.SharedFile
	query := `
		SELECT f.*, u.username AS owner_username, g.created_at AS shared_at
		FROM share_grants g
		JOIN files f ON f.id = g.file_id
		JOIN users u ON u.id = f.owner_id
		WHERE g.grantee_id = $1
		ORDER BY g.created_at DESC
	`

	err := r.db.SelectContext(ctx, &files, query, granteeID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *shareRepository) Delete(ctx context.Context, fileID, granteeID int64) error {
	query := `DELETE FROM share_grants WHERE file_id = $1 AND grantee_id = $2`

	result, err := r.db.ExecContext(ctx, query, fileID, granteeID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrShareNotFound
	}

	return nil
}
