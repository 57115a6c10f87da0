package thailint

import (
	"errors"
	"fmt"
)

// ErrLint is returned when linting errors are found
var ErrLint = errors.New("lint errors found")

// ErrorType represents the category of an error
type ErrorType string

const (
	// ErrorTypeConfig represents configuration-related errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFS represents file system-related errors
	ErrorTypeFS ErrorType = "filesystem"
	// ErrorTypeParse represents parsing-related errors
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeLint represents linting-related errors
	ErrorTypeLint ErrorType = "lint"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
)

// AppError is a custom error type that provides context about the error
type AppError struct {
	Type    ErrorType // The category of the error
	Message string    // A human-readable error message
	Err     error     // The underlying error, if any
	File    string    // The file related to the error, if applicable
	Details string    // Additional details about the error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new configuration error. Configuration errors
// are fatal and raised at startup, before any file is processed.
func NewConfigError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfig,
		Message: message,
		Err:     err,
	}
}

// NewFSError creates a new file system error
func NewFSError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeFS,
		Message: message,
		Err:     err,
	}
}

// NewParseError creates a new parsing error
func NewParseError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewLintError creates a new linting error
func NewLintError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeLint,
		Message: message,
		Err:     err,
	}
}

// NewCacheError creates a new cache error
func NewCacheError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeCache,
		Message: message,
		Err:     err,
	}
}

// WithFile attaches file information to an AppError
func WithFile(err *AppError, file string) *AppError {
	err.File = file
	return err
}

// WithDetails attaches additional details to an AppError
func WithDetails(err *AppError, details string) *AppError {
	err.Details = details
	return err
}

// ErrorInfo holds extracted details from an AppError
type ErrorInfo struct {
	Type    ErrorType
	File    string
	Details string
}

// GetErrorInfo extracts structured information from an error chain
func GetErrorInfo(err error) (ErrorInfo, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return ErrorInfo{
			Type:    appErr.Type,
			File:    appErr.File,
			Details: appErr.Details,
		}, true
	}
	return ErrorInfo{}, false
}
