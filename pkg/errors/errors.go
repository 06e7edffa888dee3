package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes pipeline errors. Only setup-time errors are fatal;
// record-level defects are resolved to quarantine reasons and never surface
// as errors.
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeStorage       ErrorType = "storage"
	ErrorTypePipeline      ErrorType = "pipeline"
)

// AppError is an application error with a type, a stable code, and optional
// context describing the failing date or artifact.
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches AppErrors by type and code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext returns a copy of the error with the key/value pair attached.
// The receiver is left untouched so the shared sentinels stay immutable.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	clone := *e
	clone.Context = make(map[string]interface{}, len(e.Context)+1)
	for k, v := range e.Context {
		clone.Context[k] = v
	}
	clone.Context[key] = value
	return &clone
}

// NewAppError creates a new application error.
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{Type: errType, Code: code, Message: message}
}

// WrapError wraps an existing error with application context.
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{Type: errType, Code: code, Message: message, Cause: err}
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// NewStorageError creates a storage error.
func NewStorageError(code, message string) *AppError {
	return NewAppError(ErrorTypeStorage, code, message)
}

// NewPipelineError creates a pipeline error.
func NewPipelineError(code, message string) *AppError {
	return NewAppError(ErrorTypePipeline, code, message)
}

// Fatal setup errors. A run for a date aborts on these and writes no partial
// outputs for that date.
var (
	ErrRawFileMissing   = NewStorageError("RAW_FILE_MISSING", "mandatory raw file is missing")
	ErrRawHeaderInvalid = NewStorageError("RAW_HEADER_INVALID", "raw file header could not be read")
	ErrRawHeaderEmpty   = NewStorageError("RAW_HEADER_EMPTY", "raw file has an empty column set")
	ErrInvalidDate      = NewConfigurationError("INVALID_DATE", "ingest date is not a valid YYYY-MM-DD date")
	ErrInvalidDateRange = NewConfigurationError("INVALID_DATE_RANGE", "start date is after end date")
)
