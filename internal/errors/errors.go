// Package errors provides the error code taxonomy shared across CarKeeper Core.
package errors

import "fmt"

// ErrorCode is a stable code identifying a class of failure. Codes cross
// the bridge to the UI shells unchanged, so they must stay stable.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"

	// Storage errors
	ErrDatabase          ErrorCode = "DATABASE_ERROR"
	ErrEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrUnknownCollection ErrorCode = "UNKNOWN_COLLECTION"
	ErrUnknownIndex      ErrorCode = "UNKNOWN_INDEX"
	ErrIndexUnavailable  ErrorCode = "INDEX_UNAVAILABLE"

	// Queue errors
	ErrQueueFailed ErrorCode = "QUEUE_FAILED"

	// Transfer errors
	ErrImportFailed ErrorCode = "IMPORT_FAILED"
	ErrExportFailed ErrorCode = "EXPORT_FAILED"
	ErrMergeFailed  ErrorCode = "MERGE_FAILED"

	// Schedule errors
	ErrScheduleInvalid ErrorCode = "SCHEDULE_INVALID"
)

// AppError carries an error code, a human-readable message and an
// optional underlying cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// CodeOf returns the code carried by err, or ErrInternal when it carries
// none.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ErrInternal
}
