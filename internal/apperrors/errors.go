// Package apperrors provides the unified application error type. Errors carry
// a machine-readable code, an HTTP status mapping, and a retryable flag the
// worker's retry policy and API clients both rely on.
package apperrors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code Code `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Kind is the validation failure kind ("fileType", "fileSize") when the
	// error is client-caused, empty otherwise.
	Kind string `json:"type,omitempty"`
	// Retryable indicates whether the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, if any.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// --- Constructors ---

// FileType creates a validation error for a disallowed extension or MIME type.
func FileType(message string) *AppError {
	return &AppError{
		Code: CodeFileType, Message: message, Kind: "fileType",
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// FileSize creates a validation error for an upload over the size ceiling.
func FileSize(message string) *AppError {
	return &AppError{
		Code: CodeFileSize, Message: message, Kind: "fileSize",
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// InvalidInput creates an error for a malformed request.
func InvalidInput(reason string) *AppError {
	return &AppError{
		Code: CodeInvalidInput, Message: reason,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// NotFound creates an error for a missing resource.
func NotFound(resource, id string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	if id != "" {
		msg = fmt.Sprintf("%s not found: %s", resource, id)
	}
	return &AppError{
		Code: CodeNotFound, Message: msg,
		HTTPStatus: http.StatusNotFound, Retryable: false,
	}
}

// Storage creates a transient error for a blob store failure.
func Storage(op string, cause error) *AppError {
	return &AppError{
		Code: CodeStorage, Message: fmt.Sprintf("storage %s failed", op),
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Cause: cause,
	}
}

// Transcode creates a transient error for a failed compression pass.
func Transcode(cause error) *AppError {
	return &AppError{
		Code: CodeTranscode, Message: "audio compression failed",
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Cause: cause,
	}
}

// Provider creates a transient error for a transcription provider failure.
func Provider(cause error) *AppError {
	return &AppError{
		Code: CodeProvider, Message: "transcription provider call failed",
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Cause: cause,
	}
}

// Database creates an error for a repository failure.
func Database(cause error) *AppError {
	return &AppError{
		Code: CodeDatabase, Message: "database operation failed",
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Cause: cause,
	}
}

// Internal creates an error for an unclassified server fault.
func Internal(cause error) *AppError {
	return &AppError{
		Code: CodeInternal, Message: "internal server error",
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Cause: cause,
	}
}
