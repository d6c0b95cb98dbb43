// Package docservice coordinates the document database, blob storage, the
// data cache, and folder access sessions. Writes go to the external
// collaborators first; the matching cache patch is applied only after the
// write path has fully succeeded, so the cache never claims state the
// server does not hold.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/docflowapp/docflow/internal/apperr"
	"github.com/docflowapp/docflow/internal/blobstore"
	"github.com/docflowapp/docflow/internal/cache"
	"github.com/docflowapp/docflow/internal/docstore"
	"github.com/docflowapp/docflow/internal/models"
	"github.com/docflowapp/docflow/internal/session"
)

// Policy carries the tunable limits the service enforces.
type Policy struct {
	MinFolderPasswordLen int
	FolderCreateTimeout  time.Duration
}

// Service coordinates storage, cache, and session operations.
type Service struct {
	store    docstore.Store
	blobs    blobstore.Provider
	cache    *cache.Store
	sessions *session.Manager
	policy   Policy
	logger   *slog.Logger
}

// NewService creates a new document service.
func NewService(store docstore.Store, blobs blobstore.Provider, c *cache.Store, sessions *session.Manager, policy Policy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, blobs: blobs, cache: c, sessions: sessions, policy: policy, logger: logger}
}

// UploadInput describes a new document and its file content.
type UploadInput struct {
	Name        string
	Category    string
	Description string
	FolderID    *string
	Owner       string
	FileName    string
	FileType    string
	FileSize    int64
	Reader      io.Reader
}

func (in UploadInput) validate() error {
	return validation.Errors{
		"name": validation.Validate(in.Name, validation.Required, validation.Length(1, 200)),
		"category": validation.Validate(in.Category, validation.Required,
			validation.By(func(v any) error {
				if !models.ValidCategory(v.(string)) {
					return fmt.Errorf("must be one of %s", strings.Join(models.Categories, ", "))
				}
				return nil
			})),
		"fileName": validation.Validate(in.FileName, validation.Required),
	}.Filter()
}

// Upload stores the file blob, creates the document record, and adds it to
// the cache front.
func (s *Service) Upload(ctx context.Context, userID string, in UploadInput) (*models.Document, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	blob, err := s.blobs.Upload(userID, in.FileName, in.Reader)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.CreateDocument(models.Document{
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		FolderID:    in.FolderID,
		FileName:    in.FileName,
		FileSize:    in.FileSize,
		FileType:    in.FileType,
		FileURL:     blob.URL,
		FilePath:    blob.Path,
		UserID:      userID,
		Owner:       in.Owner,
	})
	if err != nil {
		// The record never existed; remove the orphaned blob.
		if delErr := s.blobs.Delete(blob.Path); delErr != nil {
			s.logger.Warn("docservice: orphan blob cleanup failed",
				slog.String("path", blob.Path), slog.String("error", delErr.Error()))
		}
		return nil, err
	}

	s.cache.AddDocument(doc)
	return &doc, nil
}

// Rename changes a document's display name.
func (s *Service) Rename(ctx context.Context, id, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("docservice: name is required")
	}
	p := models.DocumentPatch{Name: &name}
	if err := s.store.UpdateDocument(id, p); err != nil {
		return err
	}
	s.cache.UpdateDocument(id, p)
	return nil
}

// Move re-files a document into folderID, or unfiles it when folderID is
// nil.
func (s *Service) Move(ctx context.Context, id string, folderID *string) error {
	p := models.DocumentPatch{FolderID: folderID, SetFolderID: true}
	if err := s.store.UpdateDocument(id, p); err != nil {
		return err
	}
	s.cache.UpdateDocument(id, p)
	return nil
}

// Update applies an arbitrary partial update to a document, then mirrors
// it into the cache.
func (s *Service) Update(ctx context.Context, id string, p models.DocumentPatch) error {
	if p.Category != nil && !models.ValidCategory(*p.Category) {
		return fmt.Errorf("docservice: unknown category %q", *p.Category)
	}
	if err := s.store.UpdateDocument(id, p); err != nil {
		return err
	}
	s.cache.UpdateDocument(id, p)
	return nil
}

// Delete removes the backing blob and the record, then drops the document
// from the cache.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.store.GetDocument(id)
	if err != nil {
		return err
	}
	if doc.FilePath != "" {
		if err := s.blobs.Delete(doc.FilePath); err != nil {
			return err
		}
	}
	if err := s.store.DeleteDocument(id); err != nil {
		return err
	}
	s.cache.RemoveDocument(id)
	return nil
}

// List returns the cached document list, fetching it on first use.
func (s *Service) List(ctx context.Context) ([]models.Document, error) {
	s.cache.LoadDocuments(ctx, false)
	if msg := s.cache.DocumentsError(); msg != "" && !s.cache.DocumentsLoaded() {
		return nil, errors.New(msg)
	}
	return s.cache.Documents(), nil
}

// Search returns the user's documents filtered by category (store-side)
// and by a case-insensitive substring match on name or owner (client-side,
// as the backing query language only supports equality filters).
func (s *Service) Search(ctx context.Context, userID, query, category string) ([]models.Document, error) {
	docs, err := s.store.SearchDocuments(userID, category)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return docs, nil
	}
	q := strings.ToLower(query)
	var out []models.Document
	for _, d := range docs {
		if strings.Contains(strings.ToLower(d.Name), q) ||
			strings.Contains(strings.ToLower(d.Owner), q) {
			out = append(out, d)
		}
	}
	return out, nil
}

// InFolder returns the cached documents filed under folderID. For a
// protected folder it requires a live access grant and returns ErrLocked
// otherwise.
func (s *Service) InFolder(ctx context.Context, folderID string) ([]models.Document, error) {
	s.cache.LoadFolders(ctx, false)
	for _, f := range s.cache.Folders() {
		if f.ID == folderID && f.IsProtected && !s.sessions.Has(folderID) {
			return nil, apperr.ErrLocked
		}
	}

	docs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Document
	for _, d := range docs {
		if d.FolderID != nil && *d.FolderID == folderID {
			out = append(out, d)
		}
	}
	return out, nil
}

// Stats summarizes the cached document list for the dashboard.
type Stats struct {
	TotalDocuments int               `json:"totalDocuments"`
	RecentUploads  int               `json:"recentUploads"`
	StorageUsed    int64             `json:"storageUsed"`
	RecentActivity []models.Document `json:"recentActivity"`
}

// DocumentStats computes dashboard statistics. "Recent" means the last
// seven days.
func (s *Service) DocumentStats(ctx context.Context) (*Stats, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	st := &Stats{TotalDocuments: len(docs)}
	for _, d := range docs {
		if d.CreatedAt.After(weekAgo) {
			st.RecentUploads++
		}
		st.StorageUsed += d.FileSize
	}
	if len(docs) > 5 {
		docs = docs[:5]
	}
	st.RecentActivity = docs
	return st, nil
}
