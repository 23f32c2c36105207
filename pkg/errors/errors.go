// Package errors provides structured error types for nmcanvas.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the engine
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// Some codes describe conditions that are reported as warnings rather than
// returned as errors (UNRECOGNIZED_OPERATION, DANGLING_REFERENCE). They live
// here so that warnings and errors share one vocabulary.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDuplicateID, "node %q already exists", id)
//	if errors.Is(err, errors.ErrCodeDuplicateID) {
//	    // Handle strict-mode rejection
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Document errors
	ErrCodeSchemaValidationFailed Code = "SCHEMA_VALIDATION_FAILED"
	ErrCodeInvalidSchema          Code = "INVALID_SCHEMA"
	ErrCodeInvalidFormat          Code = "INVALID_FORMAT"

	// Operation errors and warnings
	ErrCodeUnrecognizedOperation Code = "UNRECOGNIZED_OPERATION"
	ErrCodeInvalidOperation      Code = "INVALID_OPERATION"
	ErrCodeDuplicateID           Code = "DUPLICATE_ID"
	ErrCodeDanglingReference     Code = "DANGLING_REFERENCE"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"
	ErrCodeSnapshotNotFound Code = "SNAPSHOT_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether any *Error in err's chain carries code.
// An operation failure wrapping an INVALID_INPUT cause therefore matches both
// INVALID_OPERATION and INVALID_INPUT. Use GetCode for the outermost code.
func Is(err error, code Code) bool {
	for _, c := range Codes(err) {
		if c == code {
			return true
		}
	}
	return false
}

// Codes lists the codes found in err's chain, outermost first.
func Codes(err error) []Code {
	var codes []Code
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		codes = append(codes, e.Code)
		err = e.Cause
	}
	return codes
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
