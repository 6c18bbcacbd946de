// Package local implements storage.Storage on a local directory. It is the
// development fallback used when no object store credentials are configured.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kbukum/kikitori/internal/logger"
	"github.com/kbukum/kikitori/internal/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return NewStorage(cfg.BasePath, log)
	})
}

// Storage implements storage.Storage using the local filesystem.
type Storage struct {
	basePath string
	log      *logger.Logger
}

// NewStorage creates a local filesystem storage rooted at basePath.
func NewStorage(basePath string, log *logger.Logger) (*Storage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create base directory: %w", err)
	}
	return &Storage{basePath: abs, log: log}, nil
}

// Upload writes data from reader to a file under the base directory.
func (s *Storage) Upload(_ context.Context, key string, reader io.Reader) error {
	f, err := os.Create(s.fullPath(key))
	if err != nil {
		return fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("storage: write file: %w", err)
	}
	return nil
}

// Download returns a reader for the file at the given key.
func (s *Storage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage: %s: %w", key, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: open file: %w", err)
	}
	return f, nil
}

// Delete removes the file at the given key. A missing file is logged and
// ignored; the repository record is the source of truth for existence.
func (s *Storage) Delete(_ context.Context, key string) error {
	err := os.Remove(s.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Warn("file not found for deletion", map[string]interface{}{
				logger.FieldObjectKey: key,
			})
			return nil
		}
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

// Exists checks whether a file exists at the given key.
func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// URL returns a file:// locator for the given key.
func (s *Storage) URL(_ context.Context, key string) (string, error) {
	return "file://" + s.fullPath(key), nil
}

// fullPath joins key onto the base directory, stripping path traversal.
func (s *Storage) fullPath(key string) string {
	return filepath.Join(s.basePath, filepath.Base(filepath.Clean(key)))
}

var _ storage.Storage = (*Storage)(nil)
