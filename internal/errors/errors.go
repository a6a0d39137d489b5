package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for the findql query engine
type ErrorType string

const (
	// Pattern errors
	ErrorTypePattern ErrorType = "invalid_pattern"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeIO           ErrorType = "io"

	// Query errors
	ErrorTypeQuery ErrorType = "query"
	ErrorTypeNear  ErrorType = "near_arguments"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ErrInvalidNearArguments marks a NEAR node built with a negative distance
// or a composite sub-expression. Evaluation treats such a node as
// always-false and logs a warning; this sentinel is only returned when the
// AST is constructed.
var ErrInvalidNearArguments = errors.New("near: arguments must be literal leaves with a non-negative distance")

// PatternError reports a regex literal that failed to compile. It surfaces
// to the caller and must never be collapsed into "no match".
type PatternError struct {
	Pattern    string
	Underlying error
	Timestamp  time.Time
}

// NewPatternError creates a new pattern error
func NewPatternError(pattern string, err error) *PatternError {
	return &PatternError{
		Pattern:    pattern,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Underlying)
}

// Unwrap returns the underlying error
func (e *PatternError) Unwrap() error {
	return e.Underlying
}

// ContentTooLargeError reports content or a file exceeding the configured
// size ceiling. Evaluation is skipped for that file only.
type ContentTooLargeError struct {
	Path      string
	Size      int64
	Limit     int64
	Timestamp time.Time
}

// NewContentTooLargeError creates a new size-limit error
func NewContentTooLargeError(path string, size, limit int64) *ContentTooLargeError {
	return &ContentTooLargeError{
		Path:      path,
		Size:      size,
		Limit:     limit,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *ContentTooLargeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("content too large for %s: %d bytes exceeds limit of %d", e.Path, e.Size, e.Limit)
	}
	return fmt.Sprintf("content too large: %d bytes exceeds limit of %d", e.Size, e.Limit)
}

// FileError represents a per-file I/O failure. A FileError never aborts a
// batch search; it is reported for its file and the batch continues.
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	return &FileError{
		Type:       classifyFileError(err),
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func classifyFileError(err error) ErrorType {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrorTypeFileNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrorTypePermission
	default:
		return ErrorTypeIO
	}
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError collects per-file errors from a batch run
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, dropping nil entries
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
