package docservice

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docflowapp/docflow/internal/apperr"
	"github.com/docflowapp/docflow/internal/blobstore"
	"github.com/docflowapp/docflow/internal/cache"
	"github.com/docflowapp/docflow/internal/docstore"
	"github.com/docflowapp/docflow/internal/models"
	"github.com/docflowapp/docflow/internal/session"
	"github.com/docflowapp/docflow/internal/testutil"
)

// fakeBlobs records uploads and deletes without touching disk.
type fakeBlobs struct {
	mu       sync.Mutex
	uploads  []string
	deleted  []string
	failNext bool
}

func (b *fakeBlobs) Upload(ownerID, fileName string, r io.Reader) (*blobstore.Blob, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failNext {
		b.failNext = false
		return nil, errors.New("disk full")
	}
	path := ownerID + "/" + fileName
	b.uploads = append(b.uploads, path)
	return &blobstore.Blob{URL: "/blobs/" + path, Path: path}, nil
}

func (b *fakeBlobs) Delete(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, path)
	return nil
}

func (b *fakeBlobs) Open(path string) (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader("")), 0, nil
}

func testService(t *testing.T) (*Service, docstore.Store, *cache.Store, *session.Manager, *fakeBlobs) {
	t.Helper()
	db := testutil.TestDB(t)
	blobs := &fakeBlobs{}
	sessions := session.NewManager(15*time.Minute, time.Hour)
	t.Cleanup(sessions.Close)
	c := cache.NewStore(db, sessions, nil)
	c.SetIdentity("u1")
	svc := NewService(db, blobs, c, sessions, Policy{
		MinFolderPasswordLen: 6,
		FolderCreateTimeout:  15 * time.Second,
	}, nil)
	return svc, db, c, sessions, blobs
}

func upload(t *testing.T, svc *Service, name, category string, folderID *string) *models.Document {
	t.Helper()
	doc, err := svc.Upload(context.Background(), "u1", UploadInput{
		Name:     name,
		Category: category,
		FolderID: folderID,
		Owner:    "Jo",
		FileName: name + ".pdf",
		FileType: "application/pdf",
		FileSize: 64,
		Reader:   strings.NewReader("content"),
	})
	if err != nil {
		t.Fatalf("Upload(%s): %v", name, err)
	}
	return doc
}

func TestUploadCreatesRecordAndCachesFront(t *testing.T) {
	svc, _, c, _, blobs := testService(t)

	upload(t, svc, "first", "Financial", nil)
	doc := upload(t, svc, "second", "Legal", nil)

	cached := c.Documents()
	if len(cached) != 2 || cached[0].ID != doc.ID {
		t.Errorf("newest upload should be cached first: %v", cached)
	}
	if cached[0].FileURL == "" || cached[0].FilePath == "" {
		t.Error("cached record should carry the blob locators")
	}

	blobs.mu.Lock()
	uploads := len(blobs.uploads)
	blobs.mu.Unlock()
	if uploads != 2 {
		t.Errorf("blob uploads = %d, want 2", uploads)
	}
}

func TestUploadValidation(t *testing.T) {
	svc, _, _, _, _ := testService(t)
	ctx := context.Background()

	cases := []UploadInput{
		{Category: "Legal", FileName: "x.pdf", Reader: strings.NewReader("")},       // no name
		{Name: "x", Category: "Bogus", FileName: "x.pdf", Reader: strings.NewReader("")}, // bad category
		{Name: "x", Category: "Legal", Reader: strings.NewReader("")},               // no file name
	}
	for i, in := range cases {
		if _, err := svc.Upload(ctx, "u1", in); err == nil {
			t.Errorf("case %d should be rejected", i)
		}
	}

	if _, err := svc.Upload(ctx, "", UploadInput{Name: "x", Category: "Legal", FileName: "x.pdf"}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("no user = %v, want ErrUnauthorized", err)
	}
}

// failCreateStore fails document creation to exercise orphan blob cleanup.
type failCreateStore struct {
	docstore.Store
}

func (s failCreateStore) CreateDocument(d models.Document) (models.Document, error) {
	return models.Document{}, errors.New("insert failed")
}

func TestUploadCleansOrphanBlobOnRecordFailure(t *testing.T) {
	db := testutil.TestDB(t)
	blobs := &fakeBlobs{}
	sessions := session.NewManager(15*time.Minute, time.Hour)
	t.Cleanup(sessions.Close)
	c := cache.NewStore(db, sessions, nil)
	c.SetIdentity("u1")
	svc := NewService(failCreateStore{db}, blobs, c, sessions, Policy{MinFolderPasswordLen: 6, FolderCreateTimeout: time.Second}, nil)

	_, err := svc.Upload(context.Background(), "u1", UploadInput{
		Name: "x", Category: "Legal", FileName: "x.pdf", Reader: strings.NewReader("data"),
	})
	if err == nil {
		t.Fatal("expected error")
	}

	blobs.mu.Lock()
	defer blobs.mu.Unlock()
	if len(blobs.uploads) != 1 || len(blobs.deleted) != 1 || blobs.deleted[0] != blobs.uploads[0] {
		t.Errorf("orphan blob not cleaned: uploads=%v deleted=%v", blobs.uploads, blobs.deleted)
	}
}

func TestDeleteRemovesBlobRecordAndCacheEntry(t *testing.T) {
	svc, db, c, _, blobs := testService(t)
	doc := upload(t, svc, "doomed", "Other", nil)

	if err := svc.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.GetDocument(doc.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("record should be gone")
	}
	if len(c.Documents()) != 0 {
		t.Error("cache entry should be gone")
	}
	blobs.mu.Lock()
	defer blobs.mu.Unlock()
	if len(blobs.deleted) != 1 {
		t.Errorf("blob deletes = %d, want 1", len(blobs.deleted))
	}
}

func TestRenameAndMove(t *testing.T) {
	svc, db, c, _, _ := testService(t)
	doc := upload(t, svc, "old", "Other", nil)

	if err := svc.Rename(context.Background(), doc.ID, "renamed"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	fid := "f1"
	if err := svc.Move(context.Background(), doc.ID, &fid); err != nil {
		t.Fatalf("Move: %v", err)
	}

	// Store and cache agree without a re-fetch.
	stored, _ := db.GetDocument(doc.ID)
	cached := c.Documents()[0]
	if stored.Name != "renamed" || cached.Name != "renamed" {
		t.Errorf("rename: store=%q cache=%q", stored.Name, cached.Name)
	}
	if stored.FolderID == nil || cached.FolderID == nil || *stored.FolderID != *cached.FolderID {
		t.Errorf("move: store=%v cache=%v", stored.FolderID, cached.FolderID)
	}

	if err := svc.Rename(context.Background(), doc.ID, "  "); err == nil {
		t.Error("blank name should be rejected")
	}
}

func TestListUsesCache(t *testing.T) {
	svc, db, _, _, _ := testService(t)
	upload(t, svc, "a", "Other", nil)

	docs, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("len = %d, want 1", len(docs))
	}

	// A write behind the cache's back is not visible until a refresh.
	if _, err := db.CreateDocument(models.Document{Name: "ghost", Category: "Other", UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	docs, _ = svc.List(context.Background())
	if len(docs) != 1 {
		t.Errorf("list should come from cache, got %d", len(docs))
	}
}

// failListStore fails list fetches.
type failListStore struct {
	docstore.Store
}

func (s failListStore) DocumentsByUser(userID string) ([]models.Document, error) {
	return nil, errors.New("db down")
}

func TestListSurfacesLoadFailure(t *testing.T) {
	db := testutil.TestDB(t)
	sessions := session.NewManager(15*time.Minute, time.Hour)
	t.Cleanup(sessions.Close)
	c := cache.NewStore(failListStore{db}, sessions, nil)
	c.SetIdentity("u1")
	svc := NewService(failListStore{db}, &fakeBlobs{}, c, sessions, Policy{MinFolderPasswordLen: 6, FolderCreateTimeout: time.Second}, nil)

	if _, err := svc.List(context.Background()); err == nil {
		t.Error("failed load should surface an error")
	}
}

func TestSearch(t *testing.T) {
	svc, _, _, _, _ := testService(t)
	upload(t, svc, "Quarterly Report", "Financial", nil)
	upload(t, svc, "Hiring Plan", "HR", nil)

	hits, err := svc.Search(context.Background(), "u1", "report", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "Quarterly Report" {
		t.Errorf("name search: %v", hits)
	}

	// Owner matches too.
	hits, _ = svc.Search(context.Background(), "u1", "jo", "HR")
	if len(hits) != 1 || hits[0].Name != "Hiring Plan" {
		t.Errorf("owner+category search: %v", hits)
	}

	hits, _ = svc.Search(context.Background(), "u1", "nothing-matches", "")
	if len(hits) != 0 {
		t.Errorf("no-hit search: %v", hits)
	}
}

func TestInFolderRequiresGrant(t *testing.T) {
	svc, _, _, sessions, _ := testService(t)

	folder, err := svc.CreateFolder(context.Background(), "u1", "Vault", true, "secret123", "secret123")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	upload(t, svc, "inside", "Legal", &folder.ID)
	upload(t, svc, "outside", "Legal", nil)

	if _, err := svc.InFolder(context.Background(), folder.ID); !errors.Is(err, apperr.ErrLocked) {
		t.Errorf("locked folder = %v, want ErrLocked", err)
	}

	sessions.Grant(folder.ID)
	docs, err := svc.InFolder(context.Background(), folder.ID)
	if err != nil {
		t.Fatalf("InFolder after grant: %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "inside" {
		t.Errorf("folder contents: %v", docs)
	}
}

func TestInFolderUnprotected(t *testing.T) {
	svc, _, _, _, _ := testService(t)
	folder, err := svc.CreateFolder(context.Background(), "u1", "Open", false, "", "")
	if err != nil {
		t.Fatal(err)
	}
	upload(t, svc, "doc", "Other", &folder.ID)

	docs, err := svc.InFolder(context.Background(), folder.ID)
	if err != nil {
		t.Fatalf("InFolder: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("len = %d, want 1", len(docs))
	}
}

func TestDocumentStats(t *testing.T) {
	svc, _, _, _, _ := testService(t)
	for i := 0; i < 7; i++ {
		upload(t, svc, "doc", "Other", nil)
	}

	stats, err := svc.DocumentStats(context.Background())
	if err != nil {
		t.Fatalf("DocumentStats: %v", err)
	}
	if stats.TotalDocuments != 7 {
		t.Errorf("total = %d, want 7", stats.TotalDocuments)
	}
	if stats.RecentUploads != 7 {
		t.Errorf("recent = %d, want 7", stats.RecentUploads)
	}
	if stats.StorageUsed != 7*64 {
		t.Errorf("storage = %d, want %d", stats.StorageUsed, 7*64)
	}
	if len(stats.RecentActivity) != 5 {
		t.Errorf("activity = %d, want 5", len(stats.RecentActivity))
	}
}
