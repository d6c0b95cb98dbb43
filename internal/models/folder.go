package models

import "time"

// Folder groups documents for one user. PasswordHash is non-empty if and
// only if IsProtected is true; every write path maintains this invariant.
// The hash is never included in listing responses.
type Folder struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	UserID       string    `json:"userId"`
	IsProtected  bool      `json:"isProtected"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FolderPatch describes a partial folder update. SetProtection updates
// IsProtected and PasswordHash together so the invariant cannot be broken
// by patching one without the other.
type FolderPatch struct {
	Name          *string
	IsProtected   *bool
	PasswordHash  *string
	SetProtection bool
}
