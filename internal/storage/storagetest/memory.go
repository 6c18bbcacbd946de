// Package storagetest provides an in-memory storage.Storage for tests.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kbukum/kikitori/internal/storage"
)

// MemStorage implements storage.Storage backed by a map. Safe for concurrent
// use. Failure modes can be injected per operation.
type MemStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailUpload, FailDownload, FailDelete force the corresponding
	// operation to return an error when set.
	FailUpload   error
	FailDownload error
	FailDelete   error
}

// New creates an empty in-memory storage.
func New() *MemStorage {
	return &MemStorage{objects: make(map[string][]byte)}
}

func (m *MemStorage) Upload(_ context.Context, key string, reader io.Reader) error {
	if m.FailUpload != nil {
		return m.FailUpload
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *MemStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if m.FailDownload != nil {
		return nil, m.FailDownload
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("storagetest: %s: %w", key, storage.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemStorage) Delete(_ context.Context, key string) error {
	if m.FailDelete != nil {
		return m.FailDelete
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemStorage) URL(_ context.Context, key string) (string, error) {
	return "mem://objects/" + key, nil
}

// Len returns the number of stored objects.
func (m *MemStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Put seeds an object directly.
func (m *MemStorage) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
}

var _ storage.Storage = (*MemStorage)(nil)
