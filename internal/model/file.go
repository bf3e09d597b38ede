package model

import (
	"time"
)

const (
	FileStatusUploaded  = "UPLOADED"
	FileStatusDuplicate = "DUPLICATE"
)

// File is one logical file record. Several records of the same owner can share
// a fingerprint; exactly one of them (IsDuplicate == false) owns the stored bytes,
// the others point at its Location.
type File struct {
	ID            int64     `db:"id" json:"id"`
	OwnerID       int64     `db:"owner_id" json:"owner_id"`
	DisplayName   string    `db:"display_name" json:"name"`
	Fingerprint   string    `db:"fingerprint" json:"fingerprint"`
	Location      string    `db:"location" json:"-"`
	IsDuplicate   bool      `db:"is_duplicate" json:"is_duplicate"`
	SizeBytes     int64     `db:"size_bytes" json:"size"`
	FolderPath    string    `db:"folder_path" json:"folder"`
	IsPublic      bool      `db:"is_public" json:"public"`
	ShareToken    *string   `db:"share_token" json:"share_token,omitempty"`
	DownloadCount int64     `db:"download_count" json:"download_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

func (f *File) IsPrimary() bool {
	return !f.IsDuplicate
}
