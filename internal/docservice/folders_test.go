package docservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docflowapp/docflow/internal/apperr"
	"github.com/docflowapp/docflow/internal/cache"
	"github.com/docflowapp/docflow/internal/docstore"
	"github.com/docflowapp/docflow/internal/models"
	"github.com/docflowapp/docflow/internal/passhash"
	"github.com/docflowapp/docflow/internal/session"
	"github.com/docflowapp/docflow/internal/testutil"
)

func TestCreateFolder(t *testing.T) {
	svc, db, c, _, _ := testService(t)

	folder, err := svc.CreateFolder(context.Background(), "u1", "  Reports  ", false, "", "")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if folder.Name != "Reports" {
		t.Errorf("name = %q, want trimmed", folder.Name)
	}
	if folder.IsProtected || folder.PasswordHash != "" {
		t.Error("unprotected folder should carry no hash")
	}

	stored, err := db.GetFolder(folder.ID)
	if err != nil {
		t.Fatalf("GetFolder: %v", err)
	}
	if stored.Name != "Reports" {
		t.Errorf("stored name = %q", stored.Name)
	}
	if got := c.Folders(); len(got) != 1 || got[0].ID != folder.ID {
		t.Errorf("cache: %v", got)
	}
}

func TestCreateFolderProtected(t *testing.T) {
	svc, db, _, _, _ := testService(t)

	folder, err := svc.CreateFolder(context.Background(), "u1", "Vault", true, "secret123", "secret123")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	stored, _ := db.GetFolder(folder.ID)
	if !stored.IsProtected {
		t.Error("folder should be protected")
	}
	if !passhash.Verify("secret123", stored.PasswordHash) {
		t.Error("stored hash should verify the password")
	}
}

func TestCreateFolderPasswordRules(t *testing.T) {
	svc, _, _, _, _ := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateFolder(ctx, "u1", "A", true, "short", "short"); err == nil {
		t.Error("short password should be rejected")
	}
	if _, err := svc.CreateFolder(ctx, "u1", "A", true, "secret123", "different"); err == nil {
		t.Error("mismatched confirmation should be rejected")
	}
	if _, err := svc.CreateFolder(ctx, "u1", "", false, "", ""); err == nil {
		t.Error("blank name should be rejected")
	}
	if _, err := svc.CreateFolder(ctx, "", "A", false, "", ""); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("no user = %v, want ErrUnauthorized", err)
	}
}

// slowStore delays folder creation past the service timeout.
type slowStore struct {
	docstore.Store
	delay time.Duration
}

func (s slowStore) CreateFolder(f models.Folder) (models.Folder, error) {
	time.Sleep(s.delay)
	return s.Store.CreateFolder(f)
}

func TestCreateFolderTimeout(t *testing.T) {
	db := testutil.TestDB(t)
	sessions := session.NewManager(15*time.Minute, time.Hour)
	t.Cleanup(sessions.Close)
	c := cache.NewStore(db, sessions, nil)
	c.SetIdentity("u1")
	svc := NewService(slowStore{db, 200 * time.Millisecond}, &fakeBlobs{}, c, sessions, Policy{
		MinFolderPasswordLen: 6,
		FolderCreateTimeout:  20 * time.Millisecond,
	}, nil)

	_, err := svc.CreateFolder(context.Background(), "u1", "Slow", false, "", "")
	if !errors.Is(err, apperr.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	// The timed-out write is not patched into the cache even if it lands
	// later; it shows up on the next refresh instead.
	if got := c.Folders(); len(got) != 0 {
		t.Errorf("cache after timeout: %v", got)
	}

	time.Sleep(250 * time.Millisecond)
	c.LoadFolders(context.Background(), true)
	if got := c.Folders(); len(got) != 1 {
		t.Errorf("late write should surface on refresh, got %v", got)
	}
}

func TestRenameFolderKeepsProtection(t *testing.T) {
	svc, db, _, _, _ := testService(t)
	folder, _ := svc.CreateFolder(context.Background(), "u1", "Vault", true, "secret123", "secret123")

	if err := svc.RenameFolder(context.Background(), folder.ID, "Safe"); err != nil {
		t.Fatalf("RenameFolder: %v", err)
	}
	stored, _ := db.GetFolder(folder.ID)
	if stored.Name != "Safe" || !stored.IsProtected || stored.PasswordHash == "" {
		t.Errorf("rename touched protection: %+v", stored)
	}
}

func TestSetFolderProtection(t *testing.T) {
	svc, db, _, sessions, _ := testService(t)
	folder, _ := svc.CreateFolder(context.Background(), "u1", "Docs", false, "", "")

	if err := svc.SetFolderProtection(context.Background(), folder.ID, true, "secret123", "secret123"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	stored, _ := db.GetFolder(folder.ID)
	if !stored.IsProtected || !passhash.Verify("secret123", stored.PasswordHash) {
		t.Errorf("after enable: %+v", stored)
	}

	// Disabling clears the hash and revokes any live grant.
	sessions.Grant(folder.ID)
	if err := svc.SetFolderProtection(context.Background(), folder.ID, false, "", ""); err != nil {
		t.Fatalf("disable: %v", err)
	}
	stored, _ = db.GetFolder(folder.ID)
	if stored.IsProtected || stored.PasswordHash != "" {
		t.Errorf("after disable: %+v", stored)
	}
	if sessions.Has(folder.ID) {
		t.Error("disabling protection should revoke the grant")
	}
}

func TestDeleteFolderUnfilesDocuments(t *testing.T) {
	svc, db, c, sessions, _ := testService(t)
	folder, _ := svc.CreateFolder(context.Background(), "u1", "Vault", true, "secret123", "secret123")
	doc := upload(t, svc, "inside", "Legal", &folder.ID)
	sessions.Grant(folder.ID)

	if err := svc.DeleteFolder(context.Background(), folder.ID); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}

	// The document survives, unfiled, in both store and cache.
	stored, err := db.GetDocument(doc.ID)
	if err != nil {
		t.Fatalf("document should survive folder delete: %v", err)
	}
	if stored.FolderID != nil {
		t.Error("stored document should be unfiled")
	}
	if cached := c.Documents(); len(cached) != 1 || cached[0].FolderID != nil {
		t.Errorf("cached document should be unfiled: %v", cached)
	}
	if len(c.Folders()) != 0 {
		t.Error("folder should leave the cache")
	}
	if sessions.Has(folder.ID) {
		t.Error("grant should be revoked with the folder")
	}
}

func TestVerifyFolderPassword(t *testing.T) {
	svc, _, _, _, _ := testService(t)
	ctx := context.Background()

	protected, _ := svc.CreateFolder(ctx, "u1", "Vault", true, "secret123", "secret123")
	open, _ := svc.CreateFolder(ctx, "u1", "Open", false, "", "")

	res, err := svc.VerifyFolderPassword(ctx, protected.ID, "secret123")
	if err != nil || !res.Success {
		t.Errorf("correct password: res=%+v err=%v", res, err)
	}

	res, _ = svc.VerifyFolderPassword(ctx, protected.ID, "wrong")
	if res.Success || res.Message != "Incorrect password. Please try again." {
		t.Errorf("wrong password: %+v", res)
	}

	res, _ = svc.VerifyFolderPassword(ctx, open.ID, "anything")
	if res.Success || res.Message != "This folder is not password protected." {
		t.Errorf("unprotected: %+v", res)
	}

	res, _ = svc.VerifyFolderPassword(ctx, "ghost", "x")
	if res.Success || res.Message != "Folder not found." {
		t.Errorf("missing: %+v", res)
	}
}

func TestVerifyFolderPasswordGrantsNothing(t *testing.T) {
	svc, _, _, sessions, _ := testService(t)
	folder, _ := svc.CreateFolder(context.Background(), "u1", "Vault", true, "secret123", "secret123")

	res, _ := svc.VerifyFolderPassword(context.Background(), folder.ID, "secret123")
	if !res.Success {
		t.Fatal("verification should succeed")
	}
	if sessions.Has(folder.ID) {
		t.Error("verification alone should not grant access")
	}
}
