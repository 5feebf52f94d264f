// Package errors provides structured error types for haven.
//
// Resolution failures are classified with a small set of codes so that the
// resolver, the CLI and the HTTP API can decide how to report them without
// string matching:
//   - MALFORMED_DECLARATION: a coordinate declaration could not be parsed
//   - NOT_FOUND: no repository holds the requested descriptor or artifact
//   - PARSE_FAILURE: a descriptor is not valid POM XML
//   - IO_FAILURE: filesystem or network failure
//   - TIMEOUT: a fetch exceeded its deadline
//   - INVALID_INPUT: bad configuration, URL or repository name
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedDeclaration, "expected group:artifact:version, got %q", s)
//	if errors.Is(err, errors.ErrCodeMalformedDeclaration) {
//	    // report to the user
//	}
//
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "read %s", path)
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput         Code = "INVALID_INPUT"
	ErrCodeMalformedDeclaration Code = "MALFORMED_DECLARATION"
	ErrCodeInvalidPath          Code = "INVALID_PATH"

	// Lookup errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Descriptor errors
	ErrCodeParseFailure Code = "PARSE_FAILURE"

	// Transport and storage errors
	ErrCodeIO      Code = "IO_FAILURE"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap creates an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// outermost returns the first *Error in err's chain, or nil.
func outermost(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// Is reports whether err carries code. Only the outermost *Error counts, so
// a NOT_FOUND wrapped inside an IO_FAILURE reports IO_FAILURE.
func Is(err error, code Code) bool {
	e := outermost(err)
	return e != nil && e.Code == code
}

// GetCode returns the code of the outermost *Error, or "".
func GetCode(err error) Code {
	if e := outermost(err); e != nil {
		return e.Code
	}
	return ""
}

// UserMessage returns the message to show a user: the outermost *Error's
// message without code or cause, or err.Error() for foreign errors.
func UserMessage(err error) string {
	if e := outermost(err); e != nil {
		return e.Message
	}
	return err.Error()
}

// Classify wraps err with code unless it already carries one.
// Deadline errors are always classified as TIMEOUT.
func Classify(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrCodeTimeout, err, format, args...)
	}
	if GetCode(err) != "" {
		return err
	}
	return Wrap(code, err, format, args...)
}
