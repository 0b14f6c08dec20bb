package domain

import "image"

// Engine opens PDF documents for anonymization. Implementations are not
// thread-safe per document: one document, one exclusive handle, opened and
// closed within a single run.
type Engine interface {
	Open(path string) (Document, error)
	OpenBytes(data []byte) (Document, error)
}

// Document is an exclusively-owned PDF handle. Redaction marks accumulate via
// the pages and are committed by ApplyRedactions in one deterministic pass;
// nothing is persisted before Save.
type Document interface {
	PageCount() int
	Page(index int) (Page, error)
	ApplyRedactions() error
	Save(path string) error
	Close() error
}

// Page exposes the per-page operations the redaction pipeline needs.
// All rectangles use PDF points with the origin at the bottom-left.
type Page interface {
	Number() int
	Size() (width, height float64)
	Text() (string, error)
	// Search returns the placement rectangles of every occurrence of the
	// literal text on the page.
	Search(literal string) ([]Rect, error)
	// Images returns the embedded image instances with their placements.
	Images() ([]PageImage, error)
	AddRedaction(mark RedactionMark)
	// Render rasterizes the page at the given scale (1.0 = 72 DPI).
	Render(scale float64) (image.Image, error)
}

// OCREngine extracts word-level text with bounding boxes from a raster image.
// Availability is resolved once at startup; callers branch on Available
// instead of handling backend errors ad hoc.
type OCREngine interface {
	Available() bool
	Words(img image.Image) ([]OCRWord, error)
}

// CityDatabase answers membership queries for known city names.
type CityDatabase interface {
	IsCity(name string) bool
	Cities() []string
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetUploadPath() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetLogFormat() string
	GetTemplatePath() string
	GetDataDir() string
	GetOCRLanguage() string
}
