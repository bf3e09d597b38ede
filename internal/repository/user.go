package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/vinnodrive/vinnodrive/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id int64) (*model.User, error)
	ByUsername(ctx context.Context, username string) (*model.User, error)
	SetQuota(ctx context.Context, id int64, quotaBytes *int64) error
	All(ctx context.Context) ([]*model.User, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (username, password_hash, quota_bytes, created_at) VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.db.QueryRowxContext(ctx, query, user.Username, user.PasswordHash, user.QuotaBytes, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return err
	}

	return nil
}

func (r *userRepository) ByID(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, user, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE username = $1`

	err := r.db.GetContext(ctx, user, query, username)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

// SetQuota overrides the user's quota. A nil quota restores the configured default.
func (r *userRepository) SetQuota(ctx context.Context, id int64, quotaBytes *int64) error {
	query := `UPDATE users SET quota_bytes = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, quotaBytes, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) All(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	query := `SELECT * FROM users ORDER BY id`

	err := r.db.SelectContext(ctx, &users, query)
	if err != nil {
		return nil, err
	}

	return users, nil
}
