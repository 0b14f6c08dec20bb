package domain

import "errors"

// Domain errors
var (
	ErrInputNotFound     = errors.New("input document not found")
	ErrTemplateNotFound  = errors.New("template file not found")
	ErrInvalidTemplate   = errors.New("invalid anonymization template")
	ErrOCRUnavailable    = errors.New("ocr backend unavailable")
	ErrDocumentClosed    = errors.New("document already closed")
	ErrPageOutOfRange    = errors.New("page index out of range")
	ErrNoRedactions      = errors.New("no pending redactions")
	ErrUnsupportedAction = errors.New("unsupported date handling action")
)

// ValidationError represents a template validation error with field-path and
// message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
