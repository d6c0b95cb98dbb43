package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docflowapp/docflow/internal/apperr"
	"github.com/docflowapp/docflow/internal/models"
	"github.com/docflowapp/docflow/internal/passhash"
)

// Folders returns the cached folder list, fetching it on first use.
func (s *Service) Folders(ctx context.Context) []models.Folder {
	s.cache.LoadFolders(ctx, false)
	return s.cache.Folders()
}

// folderPassword validates a new protection password before any write.
func (s *Service) folderPassword(password, confirm string) error {
	if len(password) < s.policy.MinFolderPasswordLen {
		return fmt.Errorf("docservice: folder password must be at least %d characters", s.policy.MinFolderPasswordLen)
	}
	if password != confirm {
		return fmt.Errorf("docservice: passwords do not match")
	}
	return nil
}

// CreateFolder creates a folder, optionally password protected. The write
// races a fixed timeout: on timeout the caller sees ErrTimeout even though
// the write may still land later, in which case the record shows up on the
// next refresh rather than through the cache patch.
func (s *Service) CreateFolder(ctx context.Context, userID, name string, protected bool, password, confirm string) (*models.Folder, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("docservice: folder name is required")
	}

	var hash string
	if protected {
		if err := s.folderPassword(password, confirm); err != nil {
			return nil, err
		}
		var err error
		hash, err = passhash.Hash(password)
		if err != nil {
			return nil, err
		}
	}

	type result struct {
		folder models.Folder
		err    error
	}
	done := make(chan result, 1)
	go func() {
		f, err := s.store.CreateFolder(models.Folder{
			Name:         name,
			UserID:       userID,
			IsProtected:  protected,
			PasswordHash: hash,
		})
		done <- result{folder: f, err: err}
	}()

	timer := time.NewTimer(s.policy.FolderCreateTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		s.cache.AddFolder(res.folder)
		return &res.folder, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		s.logger.Warn("docservice: folder create timed out", slog.String("name", name))
		return nil, apperr.ErrTimeout
	}
}

// RenameFolder changes a folder's display name. Protection settings are
// untouched.
func (s *Service) RenameFolder(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("docservice: folder name is required")
	}
	p := models.FolderPatch{Name: &name}
	if err := s.store.UpdateFolder(id, p); err != nil {
		return err
	}
	s.cache.UpdateFolder(id, p)
	return nil
}

// SetFolderProtection enables protection with a freshly hashed password or
// disables it and clears the hash. The flag and the hash always change
// together.
func (s *Service) SetFolderProtection(ctx context.Context, id string, protected bool, password, confirm string) error {
	var hash string
	if protected {
		if err := s.folderPassword(password, confirm); err != nil {
			return err
		}
		var err error
		hash, err = passhash.Hash(password)
		if err != nil {
			return err
		}
	}
	p := models.FolderPatch{
		IsProtected:   &protected,
		PasswordHash:  &hash,
		SetProtection: true,
	}
	if err := s.store.UpdateFolder(id, p); err != nil {
		return err
	}
	s.cache.UpdateFolder(id, p)
	if !protected {
		s.sessions.Revoke(id)
	}
	return nil
}

// DeleteFolder unfiles the folder's documents, removes the record, then
// patches the cache and revokes any access grant. Documents are never
// deleted with their folder.
func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	if err := s.store.UnfileDocuments(id); err != nil {
		return err
	}
	if err := s.store.DeleteFolder(id); err != nil {
		return err
	}
	s.cache.UnfileDocuments(id)
	s.cache.RemoveFolder(id)
	return nil
}

// VerifyResult is the structured outcome of a password challenge.
type VerifyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// VerifyFolderPassword checks a plaintext password against the folder's
// stored hash. Failures are results, not errors; only infrastructure
// problems surface as an error. A successful verification is the caller's
// cue to grant access.
func (s *Service) VerifyFolderPassword(ctx context.Context, id, password string) (VerifyResult, error) {
	folder, err := s.store.GetFolder(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return VerifyResult{Message: "Folder not found."}, nil
		}
		return VerifyResult{}, err
	}
	if !folder.IsProtected || folder.PasswordHash == "" {
		return VerifyResult{Message: "This folder is not password protected."}, nil
	}
	if !passhash.Verify(password, folder.PasswordHash) {
		return VerifyResult{Message: "Incorrect password. Please try again."}, nil
	}
	return VerifyResult{Success: true}, nil
}
