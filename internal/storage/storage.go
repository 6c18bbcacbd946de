// Package storage provides the blob store capability interface and its
// backend selection. Supported backends: local filesystem and S3-compatible
// object stores (Cloudflare R2, MinIO, AWS S3).
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Download when the object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Storage defines the interface for blob store operations. Both backends are
// interchangeable; callers never branch on which one is active.
type Storage interface {
	// Upload writes data from reader to the given object key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download returns a reader for the object at the given key.
	// Returns ErrNotFound if the object does not exist.
	// The caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at the given key. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns the locator for the object at the given key. The locator
	// is persisted on job records and resolvable back to a key with ObjectKey.
	URL(ctx context.Context, key string) (string, error)
}
