// Package errors provides error code definitions for the StudyPulse core.
package errors

import "fmt"

// ErrorCode represents a unique error code surfaced across the
// core's API boundary.
type ErrorCode string

const (
	// Local storage errors
	ErrStorageOpen ErrorCode = "STORAGE_OPEN_FAILED"

	// Remote document errors
	ErrRemoteUnavailable ErrorCode = "REMOTE_UNAVAILABLE"
	ErrRemoteRejected    ErrorCode = "REMOTE_WRITE_REJECTED"
	ErrSubscribeFailed   ErrorCode = "SUBSCRIBE_FAILED"

	// Sync errors
	ErrHydrateFailed ErrorCode = "HYDRATE_FAILED"
	ErrPushFailed    ErrorCode = "PUSH_FAILED"
)

// AppError represents an application error with code and message.
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
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error is of a specific code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}
