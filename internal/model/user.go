package model

import (
	"time"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	QuotaBytes   *int64    `db:"quota_bytes" json:"quota_bytes,omitempty"` // Nullable: falls back to the configured default
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
