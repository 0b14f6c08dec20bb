package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// ErrorTypeConfig covers missing, malformed or schema-invalid templates.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInput covers missing or unreadable input documents.
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeProcessing covers fatal per-page failures; the run is aborted
	// and no partial output is committed.
	ErrorTypeProcessing ErrorType = "processing"
	// ErrorTypeBackend covers unavailable soft dependencies (OCR).
	ErrorTypeBackend  ErrorType = "backend_unavailable"
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface. The cause is included so the root
// failure survives into logs and HTTP error payloads.
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new template configuration error
func NewConfigError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeConfig,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewInputError creates a new input document error
func NewInputError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInput,
		Message:    message,
		StatusCode: http.StatusNotFound,
		Cause:      cause,
	}
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeProcessing,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewBackendError creates a new backend-unavailable error
func NewBackendError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeBackend,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
