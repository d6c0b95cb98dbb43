// Package testutil provides shared test helpers for setting up document
// databases and blob stores.
package testutil

import (
	"os"
	"testing"

	"github.com/docflowapp/docflow/internal/blobstore"
	"github.com/docflowapp/docflow/internal/docstore"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *docstore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "docflow-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := docstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestBlobs creates a temporary blob root with an FS provider.
func TestBlobs(t *testing.T) (string, blobstore.Provider) {
	t.Helper()
	root := t.TempDir()
	blobs, err := blobstore.NewFS(root, "")
	if err != nil {
		t.Fatal(err)
	}
	return root, blobs
}
