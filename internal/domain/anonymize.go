package domain

import "image"

// Rect is an axis-aligned rectangle in PDF page coordinates.
// Units are points, origin at the bottom-left corner of the page.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// Intersects reports whether r and other share any area.
func (r Rect) Intersects(other Rect) bool {
	return r.X0 < other.X1 && other.X0 < r.X1 &&
		r.Y0 < other.Y1 && other.Y0 < r.Y1
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// PIIEntity represents a detected PII entity in extracted page text.
// StartPos and EndPos are character offsets into the page's extracted text.
type PIIEntity struct {
	Text        string `json:"text"`
	EntityType  string `json:"entity_type"`
	StartPos    int    `json:"start_pos"`
	EndPos      int    `json:"end_pos"`
	Replacement string `json:"replacement,omitempty"`
	Context     string `json:"context,omitempty"`
}

// Location context labels, ordered by priority (1 = highest).
const (
	LocationContextBlacklist   = "blacklist"
	LocationContextPLZ         = "plz"
	LocationContextPreposition = "preposition"
	LocationContextFacility    = "medical_facility"
	LocationContextReferral    = "referral"
)

// LocationMatch is a contextual city recognition candidate.
// Priority encodes the finder that produced it: 1 blacklist, 2 postal code,
// 3 preposition, 4 medical facility, 5 referral.
type LocationMatch struct {
	Text        string `json:"text"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Type        string `json:"type"`
	Context     string `json:"context"`
	Priority    int    `json:"priority"`
	PLZ         string `json:"plz,omitempty"`
	Preposition string `json:"preposition,omitempty"`
	Facility    string `json:"facility,omitempty"`
}

// FacilityMatch is a known medical facility occurrence in text.
type FacilityMatch struct {
	Text     string `json:"text"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Type     string `json:"type"`
	FullName string `json:"full_name,omitempty"`
	City     string `json:"city,omitempty"`
}

// DateMatch is a date-like substring found by the date scanner.
type DateMatch struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
}

// Date match type tags.
const (
	DateTypeGermanFull = "DATE_GERMAN_FULL"
	DateTypeNumeric    = "DATE_NUMERIC"
	DateTypeBirthdate  = "BIRTHDATE"
)

// RedactionFill selects the fill style of a redaction mark.
type RedactionFill string

const (
	FillBlack RedactionFill = "black"
	FillWhite RedactionFill = "white"
)

// RedactionMark is a pending redaction on a page. Marks accumulate during
// analysis and are applied in a single final pass, so analysis never observes
// mutated content.
type RedactionMark struct {
	Rect        Rect          `json:"rect"`
	Fill        RedactionFill `json:"fill"`
	Replacement string        `json:"replacement,omitempty"`
}

// PageImage is an embedded image instance with its placement on the page.
type PageImage struct {
	Index int
	Rect  Rect
	Image image.Image
}

// OCRWord is a recognized word with its raster bounding box.
type OCRWord struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// RedactedRegion records a region blacked out in an image.
type RedactedRegion struct {
	Text    string          `json:"text"`
	BBox    image.Rectangle `json:"bbox"`
	Pattern string          `json:"matched_pattern"`
}

// Stats aggregates counters over one anonymization run. Counts are
// informational: non-negative and monotonically accumulated.
type Stats struct {
	TotalPages       int `json:"total_pages"`
	ZonesRedacted    int `json:"zones_redacted"`
	PIIEntitiesFound int `json:"pii_entities_found"`
	ImagesExtracted  int `json:"images_extracted"`
	DatesShifted     int `json:"dates_shifted"`
}

// Result is the outcome of a completed anonymization run.
type Result struct {
	OutputPath string   `json:"output_path"`
	ImagePaths []string `json:"image_paths,omitempty"`
	Stats      Stats    `json:"stats"`
}
