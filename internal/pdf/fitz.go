package pdf

import (
	"image"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
	apperrors "github.com/jojospausch-web/redact-clinical-german/pkg/errors"
)

// DPI used when rastering pages for OCR-based text placement.
const searchDPI = 144.0

// Engine opens PDFs through go-fitz. go-fitz is a read-only binding: it
// extracts text and renders rasters but neither reports text placement nor
// rewrites documents. Placement therefore comes from OCR word boxes over a
// page raster, and output documents are rebuilt from redacted rasters by the
// writer.
type Engine struct {
	ocr    domain.OCREngine
	logger domain.Logger
}

// NewEngine builds the production PDF engine. The OCR engine supplies word
// geometry for Search; without it Search returns no placements and
// text-anchored redaction degrades to the zone and signature passes.
func NewEngine(ocr domain.OCREngine, logger domain.Logger) *Engine {
	return &Engine{ocr: ocr, logger: logger}
}

// Open opens a PDF file for anonymization.
func (e *Engine) Open(path string) (domain.Document, error) {
	fz, err := fitz.New(path)
	if err != nil {
		return nil, apperrors.NewInputError("failed to open PDF: "+path, err)
	}
	return e.newDocument(fz), nil
}

// OpenBytes opens an in-memory PDF, as received by the upload handler.
func (e *Engine) OpenBytes(data []byte) (domain.Document, error) {
	fz, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, apperrors.NewInputError("failed to open PDF from memory", err)
	}
	return e.newDocument(fz), nil
}

func (e *Engine) newDocument(fz *fitz.Document) *document {
	doc := &document{fz: fz, engine: e}
	doc.pages = make([]*page, fz.NumPage())
	return doc
}

type document struct {
	fz      *fitz.Document
	engine  *Engine
	pages   []*page
	applied bool
	closed  bool
}

func (d *document) PageCount() int {
	return len(d.pages)
}

func (d *document) Page(index int) (domain.Page, error) {
	if d.closed {
		return nil, domain.ErrDocumentClosed
	}
	if index < 0 || index >= len(d.pages) {
		return nil, domain.ErrPageOutOfRange
	}
	if d.pages[index] == nil {
		bound, err := d.fz.Bound(index)
		if err != nil {
			return nil, apperrors.NewProcessingError("failed to read page bounds", err)
		}
		d.pages[index] = &page{
			doc:    d,
			index:  index,
			width:  float64(bound.Dx()),
			height: float64(bound.Dy()),
		}
	}
	return d.pages[index], nil
}

// ApplyRedactions commits the accumulated marks. The actual pixel work
// happens in Save, once, over the final mark set.
func (d *document) ApplyRedactions() error {
	if d.closed {
		return domain.ErrDocumentClosed
	}
	d.applied = true
	return nil
}

func (d *document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.fz.Close()
}

type page struct {
	doc    *document
	index  int
	width  float64
	height float64
	marks  []domain.RedactionMark

	ocrWords []domain.OCRWord
	ocrDone  bool
}

func (p *page) Number() int {
	return p.index + 1
}

func (p *page) Size() (float64, float64) {
	return p.width, p.height
}

func (p *page) Text() (string, error) {
	if p.doc.closed {
		return "", domain.ErrDocumentClosed
	}
	text, err := p.doc.fz.Text(p.index)
	if err != nil {
		return "", apperrors.NewProcessingError("failed to extract page text", err)
	}
	return text, nil
}

// Search locates the literal on the page through OCR word boxes. go-fitz does
// not report text placement, so the page raster is OCRed once and consecutive
// word boxes matching the literal are merged into one rectangle.
func (p *page) Search(literal string) ([]domain.Rect, error) {
	if p.doc.closed {
		return nil, domain.ErrDocumentClosed
	}
	fields := strings.Fields(literal)
	if len(fields) == 0 {
		return nil, nil
	}

	words, err := p.words()
	if err != nil {
		return nil, err
	}

	var rects []domain.Rect
	for i := 0; i+len(fields) <= len(words); i++ {
		if !matchRun(words[i:i+len(fields)], fields) {
			continue
		}
		box := words[i].Box
		for j := 1; j < len(fields); j++ {
			box = box.Union(words[i+j].Box)
		}
		rects = append(rects, p.rasterToPage(box))
	}
	return rects, nil
}

// words runs OCR over the page raster once and caches the result.
func (p *page) words() ([]domain.OCRWord, error) {
	if p.ocrDone {
		return p.ocrWords, nil
	}
	ocr := p.doc.engine.ocr
	if ocr == nil || !ocr.Available() {
		p.ocrDone = true
		p.doc.engine.logger.Debug("OCR unavailable, text search returns no placements", "page", p.Number())
		return nil, nil
	}

	img, err := p.doc.fz.ImageDPI(p.index, searchDPI)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to render page for OCR", err)
	}
	words, err := ocr.Words(img)
	if err != nil {
		return nil, err
	}
	p.ocrWords = words
	p.ocrDone = true
	return words, nil
}

// matchRun compares a run of OCR words against the literal's fields. OCR
// words often carry adjoining punctuation, so containment counts as a match.
func matchRun(words []domain.OCRWord, fields []string) bool {
	for i, field := range fields {
		if !strings.Contains(strings.ToLower(words[i].Text), strings.ToLower(field)) {
			return false
		}
	}
	return true
}

// rasterToPage converts a raster box (origin top-left at searchDPI) to page
// points with the origin at the bottom-left.
func (p *page) rasterToPage(box image.Rectangle) domain.Rect {
	scale := 72.0 / searchDPI
	return domain.Rect{
		X0: float64(box.Min.X) * scale,
		Y0: p.height - float64(box.Max.Y)*scale,
		X1: float64(box.Max.X) * scale,
		Y1: p.height - float64(box.Min.Y)*scale,
	}
}

// Images reports embedded image placements. go-fitz exposes no embedded
// image enumeration, so this adapter reports none and logo preservation falls
// back to redacting the whole band.
func (p *page) Images() ([]domain.PageImage, error) {
	if p.doc.closed {
		return nil, domain.ErrDocumentClosed
	}
	return nil, nil
}

func (p *page) AddRedaction(mark domain.RedactionMark) {
	p.marks = append(p.marks, mark)
}

func (p *page) Render(scale float64) (image.Image, error) {
	if p.doc.closed {
		return nil, domain.ErrDocumentClosed
	}
	img, err := p.doc.fz.ImageDPI(p.index, 72.0*scale)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to render page", err)
	}
	return img, nil
}
