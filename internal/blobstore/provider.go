// Package blobstore defines the binary object storage abstraction.
package blobstore

import "io"

// Blob locates a stored object: a public URL for serving and a path used
// for deletion.
type Blob struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Provider is the interface for blob storage operations.
type Provider interface {
	// Upload stores the content of r under a fresh path scoped to ownerID
	// and returns the blob locator.
	Upload(ownerID, fileName string, r io.Reader) (*Blob, error)
	// Delete removes the blob at path. A missing blob is not an error.
	Delete(path string) error
	// Open returns a reader over the blob at path. The caller closes it.
	Open(path string) (io.ReadCloser, int64, error)
}
