package chat

import "errors"

// Error codes for domain errors. The transport layer maps these onto
// per-request error events; they are never broadcast.
const (
	ErrCodeUnauthenticated = "unauthenticated"
	ErrCodeForbidden       = "forbidden"
	ErrCodeEmptyMessage    = "empty_message"
	ErrCodeNotFound        = "not_found"
	ErrCodeUploadFailed    = "upload_failed"
	ErrCodeStorageError    = "storage_error"
	ErrCodeBadRequest      = "bad_request"
)

// Error wraps a code and human-readable message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func chatError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// CodeOf extracts the domain error code, or storage_error for anything
// that escaped the taxonomy.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeStorageError
}
