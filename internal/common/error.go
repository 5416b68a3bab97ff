package common

import (
	"errors"
	"fmt"
)

// Stable machine-readable error codes surfaced to API clients.
const (
	CodeInvalidRequest        = "invalid_request"
	CodeUnsupportedConversion = "unsupported_conversion"
	CodeTooManyFiles          = "too_many_files"
	CodeEmptyBatch            = "empty_batch"
	CodeInvalidExtension      = "invalid_extension"
	CodeFileTooLarge          = "file_too_large"
	CodeDecodeError           = "decode_error"
	CodeEncodeError           = "encode_error"
	CodeSessionNotFound       = "session_not_found"
	CodeArchiveError          = "archive_error"
)

// Error carries a stable code alongside a human-readable message. Lower-layer
// errors are wrapped, never used as the client-facing text verbatim.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func WrapError(code string, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of err if a *Error is anywhere in its chain.
func CodeOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
