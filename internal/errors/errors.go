// Package errors provides error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInput indicates input that could not be decoded at all
	TypeInput Type = "INPUT_ERROR"

	// TypeInvalidRequest indicates a decodable request with the wrong shape
	TypeInvalidRequest Type = "INVALID_REQUEST"

	// TypeConfig indicates an application configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeStorage indicates a lead store failure
	TypeStorage Type = "STORAGE_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"

	// TypeNotFound indicates a missing widget configuration or lead
	TypeNotFound Type = "NOT_FOUND"
)

// Error represents a domain error with context
type Error struct {
	Type    Type           `json:"type"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...any) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) (Type, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type, true
	}
	return "", false
}

// IsType checks if any error in err's chain is of a specific type
func IsType(err error, t Type) bool {
	got, ok := TypeOf(err)
	return ok && got == t
}

// Input creates an input error
func Input(message string, cause error) *Error {
	return Wrap(TypeInput, message, cause)
}

// InvalidRequest creates a request shape error
func InvalidRequest(message string) *Error {
	return New(TypeInvalidRequest, message)
}

// Storage creates a storage error
func Storage(message string, cause error) *Error {
	return Wrap(TypeStorage, message, cause)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
