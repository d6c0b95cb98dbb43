// Package cache holds the in-memory copy of the signed-in identity's
// document and folder lists. It deduplicates concurrent fetches and keeps
// the lists consistent after local mutations so consumers never re-fetch
// just to reflect their own writes.
package cache

import (
	"context"
	"log/slog"
	"sync"

	"github.com/docflowapp/docflow/internal/models"
)

// Loader is the read side of the document database the store fetches from.
type Loader interface {
	DocumentsByUser(userID string) ([]models.Document, error)
	FoldersByUser(userID string) ([]models.Folder, error)
}

// Revoker releases folder access grants when cached folders disappear or
// the identity changes.
type Revoker interface {
	Revoke(folderID string)
	RevokeAll()
}

// Store is the single in-memory source of truth for the current identity's
// documents and folders.
//
// The loaded/loading check and the transition to loading happen under one
// lock acquisition, so concurrent LoadDocuments calls can never start two
// fetches. The fetch itself runs outside the lock.
type Store struct {
	loader   Loader
	sessions Revoker
	logger   *slog.Logger

	mu     sync.Mutex
	userID string // empty = signed out

	docs         []models.Document
	docsLoaded   bool
	docsFetching int // in-flight fetch count; forced refreshes can overlap
	docsErr      string

	folders         []models.Folder
	foldersLoaded   bool
	foldersFetching int
}

// NewStore creates an empty store for no identity.
func NewStore(loader Loader, sessions Revoker, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{loader: loader, sessions: sessions, logger: logger}
}

// SetIdentity points the store at a new identity, clearing all cached
// lists, flags, and access grants first. Passing the current identity id
// is a no-op; passing "" handles sign-out.
func (s *Store) SetIdentity(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == userID {
		return
	}
	s.userID = userID
	s.resetLocked()
	s.sessions.RevokeAll()
}

func (s *Store) resetLocked() {
	s.docs = nil
	s.docsLoaded = false
	s.docsFetching = 0
	s.docsErr = ""
	s.folders = nil
	s.foldersLoaded = false
	s.foldersFetching = 0
}

// LoadDocuments ensures the document list is fetched. A no-op when no
// identity is signed in, when the list is already loaded (unless
// forceRefresh), or when a fetch is already in flight (unless
// forceRefresh). Failures never escape: the error is recorded and loaded
// stays false so a later call retries.
func (s *Store) LoadDocuments(ctx context.Context, forceRefresh bool) {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return
	}
	if s.docsLoaded && !forceRefresh {
		s.mu.Unlock()
		return
	}
	if s.docsFetching > 0 && !forceRefresh {
		s.mu.Unlock()
		return
	}
	s.docsFetching++
	s.docsErr = ""
	uid := s.userID
	s.mu.Unlock()

	docs, err := s.loader.DocumentsByUser(uid)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != uid {
		// Identity changed while fetching; the reset already cleared the
		// counters, and this result belongs to the old identity.
		return
	}
	if s.docsFetching > 0 {
		s.docsFetching--
	}
	if err != nil {
		s.logger.Error("cache: load documents failed", slog.String("error", err.Error()))
		s.docsErr = "Failed to load documents: " + err.Error()
		return
	}
	if ctx.Err() != nil {
		return
	}
	s.docs = docs
	s.docsLoaded = true
}

// LoadFolders is the folder counterpart of LoadDocuments. Failures are
// logged only; there is no folder error channel.
func (s *Store) LoadFolders(ctx context.Context, forceRefresh bool) {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return
	}
	if s.foldersLoaded && !forceRefresh {
		s.mu.Unlock()
		return
	}
	if s.foldersFetching > 0 && !forceRefresh {
		s.mu.Unlock()
		return
	}
	s.foldersFetching++
	uid := s.userID
	s.mu.Unlock()

	folders, err := s.loader.FoldersByUser(uid)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != uid {
		return
	}
	if s.foldersFetching > 0 {
		s.foldersFetching--
	}
	if err != nil {
		s.logger.Error("cache: load folders failed", slog.String("error", err.Error()))
		return
	}
	if ctx.Err() != nil {
		return
	}
	s.folders = folders
	s.foldersLoaded = true
}

// RefreshAll forces both loads concurrently and waits for both. A failure
// on one side does not block the other.
func (s *Store) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.LoadDocuments(ctx, true)
	}()
	go func() {
		defer wg.Done()
		s.LoadFolders(ctx, true)
	}()
	wg.Wait()
}

// Documents returns a snapshot copy of the cached document list.
func (s *Store) Documents() []models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Folders returns a snapshot copy of the cached folder list.
func (s *Store) Folders() []models.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Folder, len(s.folders))
	copy(out, s.folders)
	return out
}

// DocumentsError returns the last document load error, or "".
func (s *Store) DocumentsError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docsErr
}

// DocumentsLoaded reports whether the document list has been fetched.
func (s *Store) DocumentsLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docsLoaded
}

// FoldersLoaded reports whether the folder list has been fetched.
func (s *Store) FoldersLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.foldersLoaded
}

// AddDocument prepends an already-persisted document so it appears without
// a re-fetch, and marks the list loaded.
func (s *Store) AddDocument(d models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append([]models.Document{d}, s.docs...)
	s.docsLoaded = true
}

// RemoveDocument filters a document out of the cached list.
func (s *Store) RemoveDocument(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.docs[:0]
	for _, d := range s.docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	s.docs = kept
}

// UpdateDocument merges a patch into the matching cached record. Other
// records are untouched.
func (s *Store) UpdateDocument(id string, p models.DocumentPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].ID != id {
			continue
		}
		applyDocumentPatch(&s.docs[i], p)
		return
	}
}

// UnfileDocuments clears the folder reference on every cached document
// filed under folderID. Applied after the server-side unfile step of a
// folder delete.
func (s *Store) UnfileDocuments(folderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].FolderID != nil && *s.docs[i].FolderID == folderID {
			s.docs[i].FolderID = nil
		}
	}
}

// AddFolder prepends an already-persisted folder and marks the list loaded.
func (s *Store) AddFolder(f models.Folder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders = append([]models.Folder{f}, s.folders...)
	s.foldersLoaded = true
}

// UpdateFolder merges a patch into the matching cached record.
func (s *Store) UpdateFolder(id string, p models.FolderPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.folders {
		if s.folders[i].ID != id {
			continue
		}
		applyFolderPatch(&s.folders[i], p)
		return
	}
}

// RemoveFolder filters a folder out of the cached list and revokes any
// access grant it held.
func (s *Store) RemoveFolder(id string) {
	s.mu.Lock()
	kept := s.folders[:0]
	for _, f := range s.folders {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	s.folders = kept
	s.mu.Unlock()

	s.sessions.Revoke(id)
}

func applyDocumentPatch(d *models.Document, p models.DocumentPatch) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.SetFolderID {
		if p.FolderID == nil {
			d.FolderID = nil
		} else {
			v := *p.FolderID
			d.FolderID = &v
		}
	}
}

func applyFolderPatch(f *models.Folder, p models.FolderPatch) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.SetProtection {
		f.IsProtected = p.IsProtected != nil && *p.IsProtected
		if p.PasswordHash != nil {
			f.PasswordHash = *p.PasswordHash
		} else {
			f.PasswordHash = ""
		}
	}
}
