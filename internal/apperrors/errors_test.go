package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestValidationErrors(t *testing.T) {
	ft := FileType("extension .exe not supported")
	if ft.Kind != "fileType" {
		t.Errorf("expected kind fileType, got %q", ft.Kind)
	}
	if ft.Retryable {
		t.Error("file type errors must not be retryable")
	}
	if ft.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", ft.HTTPStatus)
	}

	fs := FileSize("file exceeds 2GB")
	if fs.Kind != "fileSize" {
		t.Errorf("expected kind fileSize, got %q", fs.Kind)
	}
	if fs.Retryable {
		t.Error("file size errors must not be retryable")
	}
}

func TestTransientErrorsAreRetryable(t *testing.T) {
	cause := errors.New("connection reset")
	for _, err := range []*AppError{
		Storage("download", cause),
		Transcode(cause),
		Provider(cause),
		Database(cause),
	} {
		if !err.Retryable {
			t.Errorf("%s should be retryable", err.Code)
		}
		if !IsRetryableCode(err.Code) {
			t.Errorf("IsRetryableCode(%s) should be true", err.Code)
		}
		if !errors.Is(err, cause) {
			t.Errorf("%s should unwrap to its cause", err.Code)
		}
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("transcription", "abc-123")
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("not found must not be retryable")
	}
}

func TestAsAppError(t *testing.T) {
	inner := Provider(errors.New("boom"))
	wrapped := fmt.Errorf("pipeline: %w", inner)

	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to find the wrapped AppError")
	}
	if appErr.Code != CodeProvider {
		t.Errorf("expected %s, got %s", CodeProvider, appErr.Code)
	}

	if _, ok := AsAppError(errors.New("plain")); ok {
		t.Error("plain errors must not convert")
	}
}

func TestToResponseOmitsCause(t *testing.T) {
	err := Database(errors.New("dsn=postgres://secret"))
	resp := err.ToResponse()
	if resp.Code != CodeDatabase {
		t.Errorf("unexpected code %s", resp.Code)
	}
	if resp.Error != "database operation failed" {
		t.Errorf("response message should be generic, got %q", resp.Error)
	}
	if !resp.Retryable {
		t.Error("database errors should be marked retryable")
	}
}
