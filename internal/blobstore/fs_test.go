package blobstore

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempFS(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestUploadAndOpen(t *testing.T) {
	fs := tempFS(t)

	blob, err := fs.Upload("u1", "report.pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(blob.Path, "u1/") || !strings.HasSuffix(blob.Path, "_report.pdf") {
		t.Errorf("path = %q, want u1/<uuid>_report.pdf", blob.Path)
	}
	if blob.URL != "http://localhost:8080/blobs/"+blob.Path {
		t.Errorf("url = %q", blob.URL)
	}

	rc, size, err := fs.Open(blob.Path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if size != int64(len("pdf-bytes")) {
		t.Errorf("size = %d", size)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "pdf-bytes" {
		t.Errorf("content = %q", data)
	}
}

func TestUploadUniqueNames(t *testing.T) {
	fs := tempFS(t)
	a, err := fs.Upload("u1", "same.txt", strings.NewReader("first"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := fs.Upload("u1", "same.txt", strings.NewReader("second"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Path == b.Path {
		t.Errorf("two uploads of the same name share a path: %q", a.Path)
	}
}

func TestUploadStripsDirectories(t *testing.T) {
	fs := tempFS(t)
	blob, err := fs.Upload("u1", "../../evil.sh", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if strings.Contains(blob.Path, "..") {
		t.Errorf("stored path carries traversal: %q", blob.Path)
	}
	// The file must land under the owner directory, not outside the root.
	if !strings.HasPrefix(blob.Path, "u1/") {
		t.Errorf("path = %q, want under u1/", blob.Path)
	}
}

func TestUploadRequiresOwner(t *testing.T) {
	fs := tempFS(t)
	if _, err := fs.Upload("", "a.txt", strings.NewReader("x")); err == nil {
		t.Error("empty owner should be rejected")
	}
}

func TestUploadLeavesNoTempFiles(t *testing.T) {
	fs := tempFS(t)
	if _, err := fs.Upload("u1", "a.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	matches, _ := filepath.Glob(filepath.Join(fs.root, "u1", ".docflow-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestDelete(t *testing.T) {
	fs := tempFS(t)
	blob, _ := fs.Upload("u1", "bye.txt", strings.NewReader("gone"))

	if err := fs.Delete(blob.Path); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := fs.Open(blob.Path); err == nil {
		t.Error("deleted blob should not open")
	}
	// Deleting an already-missing blob is tolerated.
	if err := fs.Delete(blob.Path); err != nil {
		t.Errorf("double delete = %v, want nil", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	fs := tempFS(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.txt",
		"/etc/shadow",
		"",
	}
	for _, p := range cases {
		if _, _, err := fs.Open(p); err == nil {
			t.Errorf("Open(%q) should fail", p)
		}
		if err := fs.Delete(p); err == nil {
			t.Errorf("Delete(%q) should fail", p)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	if _, err := NewFS("/tmp/docflow-does-not-exist-"+t.Name(), ""); err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "docflow-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name(), ""); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestURLForWithoutBase(t *testing.T) {
	fs, err := NewFS(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	if got := fs.URLFor("u1/x.txt"); got != "/blobs/u1/x.txt" {
		t.Errorf("URLFor = %q", got)
	}
}
