package blobstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FS implements Provider backed by the local file system. Blobs live under
// root, one subdirectory per owner, each stored name prefixed with a uuid
// so uploads never collide.
type FS struct {
	root       string // absolute path to the blob root
	publicBase string // base URL prefix for served blobs, e.g. "http://host"
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root, publicBase string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("blobstore: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("blobstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("blobstore: root is not a directory: %s", abs)
	}
	return &FS{root: abs, publicBase: strings.TrimSuffix(publicBase, "/")}, nil
}

// safePath resolves a relative path against the blob root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("blobstore: empty path")
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("blobstore: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("blobstore: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("blobstore: path escapes blob root: %s", rel)
	}
	return abs, nil
}

// Upload writes the blob atomically: tmp file → fsync → rename.
func (f *FS) Upload(ownerID, fileName string, r io.Reader) (*Blob, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("blobstore: owner id is required")
	}
	base := filepath.Base(filepath.Clean(fileName))
	if base == "" || base == "." || base == string(os.PathSeparator) {
		return nil, fmt.Errorf("blobstore: invalid file name: %s", fileName)
	}
	rel := filepath.Join(ownerID, uuid.NewString()+"_"+base)
	abs, err := f.safePath(rel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".docflow-tmp-*")
	if err != nil {
		return nil, fmt.Errorf("blobstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return nil, fmt.Errorf("blobstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("blobstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("blobstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return nil, fmt.Errorf("blobstore: rename: %w", err)
	}
	success = true

	return &Blob{URL: f.URLFor(rel), Path: filepath.ToSlash(rel)}, nil
}

// URLFor returns the public URL for a blob path.
func (f *FS) URLFor(rel string) string {
	return f.publicBase + "/blobs/" + filepath.ToSlash(rel)
}

// Delete removes a blob. A blob that is already gone is logged and treated
// as deleted.
func (f *FS) Delete(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("blobstore: blob already missing", slog.String("path", path))
			return nil
		}
		return fmt.Errorf("blobstore: delete %s: %w", path, err)
	}
	return nil
}

// Open returns a reader over the blob and its size.
func (f *FS) Open(path string) (io.ReadCloser, int64, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, 0, err
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, 0, fmt.Errorf("blobstore: open %s: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("blobstore: stat %s: %w", path, err)
	}
	return file, info.Size(), nil
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
