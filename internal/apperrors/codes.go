package apperrors

// Code is a machine-readable error code.
type Code string

// Validation errors (client-caused, not retryable)
const (
	// CodeFileType indicates the uploaded file extension or MIME type is not allowed.
	CodeFileType Code = "FILE_TYPE_NOT_SUPPORTED"
	// CodeFileSize indicates the upload exceeds the service size ceiling.
	CodeFileSize Code = "FILE_SIZE_EXCEEDED"
	// CodeInvalidInput indicates a malformed request.
	CodeInvalidInput Code = "INVALID_INPUT"
)

// Resource errors
const (
	// CodeNotFound indicates the requested resource was not found.
	CodeNotFound Code = "NOT_FOUND"
)

// Processing errors (transient, retried by the worker)
const (
	// CodeStorage indicates a blob read or write failure.
	CodeStorage Code = "STORAGE_ERROR"
	// CodeTranscode indicates the audio compression pass failed.
	CodeTranscode Code = "TRANSCODE_ERROR"
	// CodeProvider indicates the transcription provider call failed.
	CodeProvider Code = "PROVIDER_ERROR"
)

// Internal errors
const (
	// CodeDatabase indicates a repository read or write failure.
	CodeDatabase Code = "DATABASE_ERROR"
	// CodeInternal indicates an unclassified server fault.
	CodeInternal Code = "INTERNAL_ERROR"
)

var retryableCodes = map[Code]bool{
	CodeStorage:   true,
	CodeTranscode: true,
	CodeProvider:  true,
	CodeDatabase:  true,
}

// IsRetryableCode returns true if the code indicates a transient failure.
func IsRetryableCode(code Code) bool {
	return retryableCodes[code]
}
