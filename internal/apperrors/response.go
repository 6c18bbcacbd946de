package apperrors

import (
	stderrors "errors"
)

// ErrorResponse is the JSON structure returned to clients. Kind carries the
// validation failure kind (fileType/fileSize) clients branch on.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      Code   `json:"code,omitempty"`
	Kind      string `json:"type,omitempty"`
	Retryable bool   `json:"retryable"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
// The underlying cause is intentionally omitted; internal detail stays in logs.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:     e.Message,
		Code:      e.Code,
		Kind:      e.Kind,
		Retryable: e.Retryable,
	}
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
