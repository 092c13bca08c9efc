package source

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes source errors.
type ErrorCode string

const (
	// ErrCodeSourceUnavailable indicates a configured backend could not be
	// reached or returned an unparseable payload.
	ErrCodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"

	// ErrCodeWriteFailed indicates a persistence write failed.
	ErrCodeWriteFailed ErrorCode = "WRITE_FAILED"
)

// Error is a failure at a backend boundary.
type Error struct {
	Code    ErrorCode
	Source  string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Code, e.Source, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Unavailable builds a SOURCE_UNAVAILABLE error.
func Unavailable(source, message string, err error) *Error {
	return &Error{Code: ErrCodeSourceUnavailable, Source: source, Message: message, Err: err}
}

// WriteFailed builds a WRITE_FAILED error.
func WriteFailed(source, message string, err error) *Error {
	return &Error{Code: ErrCodeWriteFailed, Source: source, Message: message, Err: err}
}

// IsSourceUnavailable returns true if err is a SOURCE_UNAVAILABLE error.
// Uses errors.As to handle wrapped errors.
func IsSourceUnavailable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeSourceUnavailable
	}
	return false
}

// IsWriteFailed returns true if err is a WRITE_FAILED error.
func IsWriteFailed(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeWriteFailed
	}
	return false
}
