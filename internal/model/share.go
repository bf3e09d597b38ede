package model

import (
	"time"
)

type ShareGrant struct {
	FileID    int64     `db:"file_id" json:"file_id"`
	GranteeID int64     `db:"grantee_id" json:"grantee_id"`
	GranterID int64     `db:"granter_id" json:"granter_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SharedFile is a file as seen by a grantee.
type SharedFile struct {
	File
	OwnerUsername string    `db:"owner_username" json:"owner"`
	SharedAt      time.Time `db:"shared_at" json:"shared_at"`
}
