package anonymizer

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
	apperrors "github.com/jojospausch-web/redact-clinical-german/pkg/errors"
)

const previewScale = 2.0

var (
	previewHeaderFill    = color.NRGBA{R: 0, G: 100, B: 255, A: 80}
	previewHeaderOutline = color.NRGBA{R: 0, G: 100, B: 255, A: 200}
	previewFooterFill    = color.NRGBA{R: 255, G: 140, B: 0, A: 80}
	previewFooterOutline = color.NRGBA{R: 255, G: 140, B: 0, A: 200}
)

// CreateZonePreview renders the first page of the document at double scale
// and tints the header band blue and the footer band orange so a reviewer can
// check zone placement before running a full anonymization. Heights are PDF
// points measured from the top and bottom edges.
func CreateZonePreview(doc domain.Document, headerHeight, footerHeight float64) (image.Image, error) {
	page, err := doc.Page(0)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to open first page", err)
	}

	rendered, err := page.Render(previewScale)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to render preview page", err)
	}

	bounds := rendered.Bounds()
	canvas := image.NewNRGBA(bounds)
	draw.Draw(canvas, bounds, rendered, bounds.Min, draw.Src)

	_, pageHeight := page.Size()
	scale := float64(bounds.Dy()) / pageHeight

	if headerHeight > 0 {
		band := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+int(headerHeight*scale))
		tintRect(canvas, band, previewHeaderFill, previewHeaderOutline)
	}
	if footerHeight > 0 {
		band := image.Rect(bounds.Min.X, bounds.Max.Y-int(footerHeight*scale), bounds.Max.X, bounds.Max.Y)
		tintRect(canvas, band, previewFooterFill, previewFooterOutline)
	}

	return canvas, nil
}

// tintRect alpha-blends a translucent fill over the band and draws a 3px
// outline around it.
func tintRect(canvas *image.NRGBA, band image.Rectangle, fill, outline color.NRGBA) {
	band = band.Intersect(canvas.Bounds())
	if band.Empty() {
		return
	}

	draw.Draw(canvas, band, image.NewUniform(fill), image.Point{}, draw.Over)

	const border = 3
	edges := []image.Rectangle{
		image.Rect(band.Min.X, band.Min.Y, band.Max.X, band.Min.Y+border),
		image.Rect(band.Min.X, band.Max.Y-border, band.Max.X, band.Max.Y),
		image.Rect(band.Min.X, band.Min.Y, band.Min.X+border, band.Max.Y),
		image.Rect(band.Max.X-border, band.Min.Y, band.Max.X, band.Max.Y),
	}
	for _, edge := range edges {
		draw.Draw(canvas, edge.Intersect(canvas.Bounds()), image.NewUniform(outline), image.Point{}, draw.Over)
	}
}
