package api

import (
	"github.com/docflowapp/docflow/internal/docservice"
	"github.com/docflowapp/docflow/internal/models"
)

// SignUpRequest is the request body for creating an account.
type SignUpRequest struct {
	Email       string `json:"email" example:"jo@example.com" validate:"required"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"displayName" example:"Jo"`
}

// UpdateProfileRequest is the request body for a partial profile update.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	PhotoURL    *string `json:"photoURL,omitempty"`
}

// SignInRequest is the request body for signing in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is returned after a successful sign-up or sign-in.
type SessionResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token" validate:"required"`
}

// DocumentPatchRequest is the request body for a partial document update.
// Unfile clears the folder reference; it wins over FolderID.
type DocumentPatchRequest struct {
	Name        *string `json:"name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	FolderID    *string `json:"folderId,omitempty"`
	Unfile      bool    `json:"unfile,omitempty"`
}

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Name            string `json:"name" example:"Reports" validate:"required"`
	IsProtected     bool   `json:"isProtected"`
	Password        string `json:"password,omitempty"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// RenameFolderRequest is the request body for renaming a folder.
type RenameFolderRequest struct {
	Name string `json:"name" validate:"required"`
}

// ProtectionRequest is the request body for changing folder protection.
type ProtectionRequest struct {
	IsProtected     bool   `json:"isProtected"`
	Password        string `json:"password,omitempty"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// UnlockRequest is the password challenge body.
type UnlockRequest struct {
	Password string `json:"password" validate:"required"`
}

// UnlockResponse reports the challenge outcome. AttemptsRemaining is set
// on failures until the lockout threshold is reached.
type UnlockResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message,omitempty"`
	AttemptsRemaining int    `json:"attemptsRemaining,omitempty"`
	MinutesRemaining  int    `json:"minutesRemaining,omitempty"`
}

// AccessResponse reports whether a folder is currently unlocked.
type AccessResponse struct {
	Granted          bool `json:"granted"`
	MinutesRemaining int  `json:"minutesRemaining,omitempty"`
}

// CreateTicketRequest is the request body for filing a help ticket.
type CreateTicketRequest struct {
	Subject     string `json:"subject" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// ResolveTicketRequest carries the admin's resolution response.
type ResolveTicketRequest struct {
	Response string `json:"response"`
}

// DocumentListResponse wraps document listings.
type DocumentListResponse struct {
	Documents []models.Document `json:"documents" validate:"required"`
	Total     int               `json:"total" example:"42" validate:"required"`
}

// FolderListResponse wraps folder listings. Password hashes are never
// serialized (the model omits them).
type FolderListResponse struct {
	Folders []models.Folder `json:"folders" validate:"required"`
	Total   int             `json:"total" validate:"required"`
}

// StatsResponse is the dashboard summary (aliased from the domain layer).
type StatsResponse = docservice.Stats
