// Package util provides logging helpers and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the engine, transports and checks
var (
	ErrValidationFailed    = errors.New("validation failed")
	ErrDeviceUnreachable   = errors.New("device unreachable")
	ErrCommandFailed       = errors.New("command failed")
	ErrUnsupportedRevision = errors.New("unsupported revision")
	ErrTimeout             = errors.New("timed out")
	ErrNotResolved         = errors.New("command not resolved")
	ErrUnknownTest         = errors.New("unknown test")
	ErrNotFound            = errors.New("not found")
)

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddError adds an error message unconditionally
func (v *ValidationBuilder) AddError(message string) *ValidationBuilder {
	v.errors = append(v.errors, message)
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// AddField records err against a field path such as "interfaces[2].name".
// A nil err is ignored. Nested ValidationErrors are flattened with the path
// prefixed to each of their messages.
func (v *ValidationBuilder) AddField(path string, err error) *ValidationBuilder {
	if err == nil {
		return v
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		for _, msg := range ve.Errors {
			v.errors = append(v.errors, path+"."+msg)
		}
		return v
	}
	v.errors = append(v.errors, path+": "+err.Error())
	return v
}

// Require records a "field is required" message for path when missing is true
func (v *ValidationBuilder) Require(path string, missing bool) *ValidationBuilder {
	if missing {
		v.errors = append(v.errors, path+": field is required")
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}
