package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/vinnodrive/vinnodrive/internal/model"
)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrPrimaryExists   = errors.New("primary record already exists for fingerprint")
	ErrShareTokenTaken = errors.New("share token already in use")
)

type FileRepository interface {
	// WithTx returns a repository whose statements run inside tx.
	WithTx(tx *sqlx.Tx) FileRepository

	Create(ctx context.Context, file *model.File) error
	ByID(ctx context.Context, id int64) (*model.File, error)
	ByOwner(ctx context.Context, ownerID, id int64) (*model.File, error)
	ByShareToken(ctx context.Context, token string) (*model.File, error)
	Primary(ctx context.Context, ownerID int64, fingerprint string) (*model.File, error)
	CountByFingerprint(ctx context.Context, ownerID int64, fingerprint string) (int, error)
	Files(ctx context.Context, ownerID int64, folder string) ([]*model.File, error)
	Folders(ctx context.Context, ownerID int64) ([]string, error)
	Usage(ctx context.Context, ownerID int64) (*model.Usage, error)
	PromoteOldestDuplicate(ctx context.Context, ownerID int64, fingerprint string) (*model.File, error)
	SetPublic(ctx context.Context, ownerID, id int64, public bool, token *string) error
	IncrementDownloads(ctx context.Context, id int64) error
	Primaries(ctx context.Context) ([]*model.File, error)
	Unanchored(ctx context.Context) ([]*model.File, error)
	Delete(ctx context.Context, id int64) error
}

type fileRepository struct {
	db sqlx.ExtContext
}

func NewFileRepository(db *sqlx.DB) *fileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) WithTx(tx *sqlx.Tx) FileRepository {
	return &fileRepository{db: tx}
}

// Create inserts the record and sets file.ID. Inserting a second primary for the
// same owner and fingerprint fails with ErrPrimaryExists.
func (r *fileRepository) Create(ctx context.Context, file *model.File) error {
	query := `INSERT INTO files (owner_id, display_name, fingerprint, location, is_duplicate, size_bytes, folder_path, is_public, share_token, download_count, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		file.OwnerID,
		file.DisplayName,
		file.Fingerprint,
		file.Location,
		file.IsDuplicate,
		file.SizeBytes,
		file.FolderPath,
		file.IsPublic,
		file.ShareToken,
		file.DownloadCount,
		file.CreatedAt,
	).Scan(&file.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPrimaryExists
		}
		return err
	}

	return nil
}

func (r *fileRepository) ByID(ctx context.Context, id int64) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, file, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) ByOwner(ctx context.Context, ownerID, id int64) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE id = $1 AND owner_id = $2`

	err := sqlx.GetContext(ctx, r.db, file, query, id, ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

// ByShareToken only resolves records that are currently public.
func (r *fileRepository) ByShareToken(ctx context.Context, token string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE share_token = $1 AND is_public = $2`

	err := sqlx.GetContext(ctx, r.db, file, query, token, true)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) Primary(ctx context.Context, ownerID int64, fingerprint string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE owner_id = $1 AND fingerprint = $2 AND is_duplicate = $3`

	err := sqlx.GetContext(ctx, r.db, file, query, ownerID, fingerprint, false)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) CountByFingerprint(ctx context.Context, ownerID int64, fingerprint string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM files WHERE owner_id = $1 AND fingerprint = $2`

	err := sqlx.GetContext(ctx, r.db, &count, query, ownerID, fingerprint)
	return count, err
}

// Files lists the owner's records, newest first. An empty folder lists every folder.
func (r *fileRepository) Files(ctx context.Context, ownerID int64, folder string) ([]*model.File, error) {
	var files []*model.File
	var err error

	if folder == "" {
		query := `SELECT * FROM files WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`
		err = sqlx.SelectContext(ctx, r.db, &files, query, ownerID)
	} else {
		query := `SELECT * FROM files WHERE owner_id = $1 AND folder_path = $2 ORDER BY created_at DESC, id DESC`
		err = sqlx.SelectContext(ctx, r.db, &files, query, ownerID, folder)
	}
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) Folders(ctx context.Context, ownerID int64) ([]string, error) {
	var folders []string
	query := `SELECT DISTINCT folder_path FROM files WHERE owner_id = $1 ORDER BY folder_path`

	err := sqlx.SelectContext(ctx, r.db, &folders, query, ownerID)
	if err != nil {
		return nil, err
	}

	return folders, nil
}

// Usage aggregates the owner's ledger in one statement so all three sums
// come from the same snapshot.
func (r *fileRepository) Usage(ctx context.Context, ownerID int64) (*model.Usage, error) {
	usage := &model.Usage{}
	query := `
		SELECT
			CAST(COALESCE(SUM(CASE WHEN is_duplicate THEN 0 ELSE size_bytes END), 0) AS BIGINT) AS actual_storage,
			CAST(COALESCE(SUM(size_bytes), 0) AS BIGINT) AS original_uploaded,
			CAST(COALESCE(SUM(CASE WHEN is_duplicate THEN size_bytes ELSE 0 END), 0) AS BIGINT) AS space_saved
		FROM files
		WHERE owner_id = $1
	`

	err := sqlx.GetContext(ctx, r.db, usage, query, ownerID)
	if err != nil {
		return nil, err
	}

	return usage, nil
}

// PromoteOldestDuplicate turns the oldest remaining duplicate of a fingerprint into
// its primary. Returns ErrFileNotFound when no duplicate is left.
func (r *fileRepository) PromoteOldestDuplicate(ctx context.Context, ownerID int64, fingerprint string) (*model.File, error) {
	file := &model.File{}
	query := `
		UPDATE files SET is_duplicate = $1
		WHERE id = (
			SELECT id FROM files
			WHERE owner_id = $2 AND fingerprint = $3 AND is_duplicate = $4
			ORDER BY id ASC
			LIMIT 1
		)
		RETURNING *
	`

	err := sqlx.GetContext(ctx, r.db, file, query, false, ownerID, fingerprint, true)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) SetPublic(ctx context.Context, ownerID, id int64, public bool, token *string) error {
	query := `UPDATE files SET is_public = $1, share_token = $2 WHERE id = $3 AND owner_id = $4`

	result, err := r.db.ExecContext(ctx, query, public, token, id, ownerID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrShareTokenTaken
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrFileNotFound
	}

	return nil
}

func (r *fileRepository) IncrementDownloads(ctx context.Context, id int64) error {
	query := `UPDATE files SET download_count = download_count + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// Primaries lists every record that owns stored bytes, across all users.
func (r *fileRepository) Primaries(ctx context.Context) ([]*model.File, error) {
	var files []*model.File
	query := `SELECT * FROM files WHERE is_duplicate = $1 ORDER BY owner_id, id`

	err := sqlx.SelectContext(ctx, r.db, &files, query, false)
	if err != nil {
		return nil, err
	}

	return files, nil
}

// Unanchored lists duplicates whose owner has no primary for the fingerprint.
func (r *fileRepository) Unanchored(ctx context.Context) ([]*model.File, error) {
	var files []*model.File
	query := `
		SELECT d.* FROM files d
		WHERE d.is_duplicate = $1
		AND NOT EXISTS (
			SELECT 1 FROM files p
			WHERE p.owner_id = d.owner_id AND p.fingerprint = d.fingerprint AND p.is_duplicate = $2
		)
		ORDER BY d.owner_id, d.id`

	err := sqlx.SelectContext(ctx, r.db, &files, query, true, false)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM files WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrFileNotFound
	}

	return nil
}
