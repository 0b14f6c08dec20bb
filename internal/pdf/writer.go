package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/go-pdf/fpdf"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
	apperrors "github.com/jojospausch-web/redact-clinical-german/pkg/errors"
)

// DPI of the page rasters embedded in the output document.
const outputDPI = 150.0

// Save writes the anonymized document. Pages are rastered, the committed
// marks are burned into the pixels, and a new PDF is assembled from the
// rasters. Burning marks into pixels removes the text layer entirely, so no
// redacted content survives under the fill the way it can with overlay
// annotations.
func (d *document) Save(path string) error {
	if d.closed {
		return domain.ErrDocumentClosed
	}

	out := fpdf.New("P", "pt", "A4", "")
	out.SetAutoPageBreak(false, 0)
	tr := out.UnicodeTranslatorFromDescriptor("")

	for i := range d.pages {
		pg, err := d.Page(i)
		if err != nil {
			return err
		}
		p := pg.(*page)

		raster, err := p.Render(outputDPI / 72.0)
		if err != nil {
			return err
		}

		var marks []domain.RedactionMark
		if d.applied {
			marks = p.marks
		}
		burned := burnMarks(raster, marks, p.height, outputDPI)

		var buf bytes.Buffer
		if err := png.Encode(&buf, burned); err != nil {
			return apperrors.NewProcessingError("failed to encode page raster", err)
		}

		name := fmt.Sprintf("page-%d", i+1)
		out.AddPageFormat("P", fpdf.SizeType{Wd: p.width, Ht: p.height})
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		out.RegisterImageOptionsReader(name, opts, &buf)
		out.ImageOptions(name, 0, 0, p.width, p.height, false, opts, 0, "")

		// Replacement text (shifted dates) goes on top of the white fill.
		for _, mark := range marks {
			if mark.Fill != domain.FillWhite || mark.Replacement == "" {
				continue
			}
			size := mark.Rect.Height()
			if size < 6 || size > 24 {
				size = 10
			}
			out.SetFont("Helvetica", "", size)
			out.SetTextColor(0, 0, 0)
			// fpdf's origin is top-left; Text positions the baseline.
			baseline := p.height - mark.Rect.Y0 - size*0.15
			out.Text(mark.Rect.X0, baseline, tr(mark.Replacement))
		}
	}

	if err := out.OutputFileAndClose(path); err != nil {
		return apperrors.NewProcessingError("failed to write output PDF", err)
	}
	return nil
}

// burnMarks draws the redaction fills onto the page raster. Mark rectangles
// are page points with the origin bottom-left; the raster origin is top-left.
func burnMarks(raster image.Image, marks []domain.RedactionMark, pageHeight, dpi float64) image.Image {
	if len(marks) == 0 {
		return raster
	}

	bounds := raster.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, raster, bounds.Min, draw.Src)

	scale := dpi / 72.0
	for _, mark := range marks {
		box := image.Rect(
			int(mark.Rect.X0*scale),
			int((pageHeight-mark.Rect.Y1)*scale),
			int(mark.Rect.X1*scale),
			int((pageHeight-mark.Rect.Y0)*scale),
		)
		fill := color.Color(color.Black)
		if mark.Fill == domain.FillWhite {
			fill = color.White
		}
		draw.Draw(canvas, box.Intersect(bounds), image.NewUniform(fill), image.Point{}, draw.Src)
	}
	return canvas
}
