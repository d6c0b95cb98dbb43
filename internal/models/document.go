// Package models defines the record shapes persisted in the document store.
package models

import "time"

// Document categories.
const (
	CategoryFinancial  = "Financial"
	CategoryLegal      = "Legal"
	CategoryHR         = "HR"
	CategoryMarketing  = "Marketing"
	CategoryOperations = "Operations"
	CategoryOther      = "Other"
)

// Categories lists every valid document category in display order.
var Categories = []string{
	CategoryFinancial,
	CategoryLegal,
	CategoryHR,
	CategoryMarketing,
	CategoryOperations,
	CategoryOther,
}

// ValidCategory reports whether c is a known document category.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Document is a user-owned file record. FolderID is nil for unfiled
// documents; a dangling FolderID is treated as unfiled by readers.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	FolderID    *string   `json:"folderId,omitempty"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	FileType    string    `json:"fileType"`
	FileURL     string    `json:"fileUrl"`
	FilePath    string    `json:"filePath"`
	UserID      string    `json:"userId"`
	Owner       string    `json:"owner,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DocumentPatch describes a partial document update. Nil fields are left
// unchanged. SetFolderID distinguishes "clear to unfiled" (true, nil
// FolderID) from "leave as is" (false).
type DocumentPatch struct {
	Name        *string
	Category    *string
	Description *string
	FolderID    *string
	SetFolderID bool
}
