package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/kikitori/internal/logger"
	"github.com/kbukum/kikitori/internal/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir(), logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	return s
}

func TestUploadDownloadRoundtrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	data := []byte("fake mp3 bytes")
	if err := s.Upload(ctx, "job-1.mp3", bytes.NewReader(data)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	rc, err := s.Download(ctx, "job-1.mp3")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer rc.Close()

	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, data) {
		t.Errorf("downloaded %q, want %q", got, data)
	}
}

func TestDownloadMissingReturnsNotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.Download(context.Background(), "nope.wav")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMissingIsNoError(t *testing.T) {
	s := newTestStorage(t)
	if err := s.Delete(context.Background(), "nope.wav"); err != nil {
		t.Errorf("deleting a missing object must not error, got %v", err)
	}
}

func TestDeleteRemovesObject(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_ = s.Upload(ctx, "gone.m4a", strings.NewReader("x"))
	if err := s.Delete(ctx, "gone.m4a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	exists, err := s.Exists(ctx, "gone.m4a")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("object still exists after delete")
	}
}

func TestURLIsFileLocatorEndingInKey(t *testing.T) {
	s := newTestStorage(t)
	url, err := s.URL(context.Background(), "abc.webm")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Errorf("locator %q should use the file scheme", url)
	}
	if storage.ObjectKey(url) != "abc.webm" {
		t.Errorf("ObjectKey(%q) = %q, want abc.webm", url, storage.ObjectKey(url))
	}
}

func TestKeyCannotEscapeBaseDirectory(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.Upload(ctx, "../../etc/passwd", strings.NewReader("x")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	// the traversal components must have been stripped
	exists, _ := s.Exists(ctx, "passwd")
	if !exists {
		t.Error("expected object stored under its base name inside the base directory")
	}
}
