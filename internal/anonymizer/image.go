package anonymizer

import (
	"image"
	"image/color"
	"image/draw"
	"regexp"
	"strings"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
)

const regionPadding = 2

// MedicalImageAnonymizer blacks out OCR-detected PII in raster images
// extracted from documents. With no OCR backend available it degrades softly:
// the input image comes back unchanged with zero regions, never an error.
type MedicalImageAnonymizer struct {
	patterns map[string]*regexp.Regexp
	ocr      domain.OCREngine
	logger   domain.Logger
}

// NewMedicalImageAnonymizer builds an image anonymizer over the template's
// compiled image PII patterns.
func NewMedicalImageAnonymizer(patterns map[string]*regexp.Regexp, ocr domain.OCREngine, logger domain.Logger) *MedicalImageAnonymizer {
	return &MedicalImageAnonymizer{patterns: patterns, ocr: ocr, logger: logger}
}

// AnonymizeImage OCRs the image, blacks out every word matching a PII
// pattern, and reports the redacted regions. OCR failure is contained the
// same way as OCR absence.
func (a *MedicalImageAnonymizer) AnonymizeImage(img image.Image) (image.Image, []domain.RedactedRegion) {
	if a.ocr == nil || !a.ocr.Available() {
		a.logger.Warn("OCR backend not available, returning original image")
		return img, nil
	}

	words, err := a.ocr.Words(img)
	if err != nil {
		a.logger.Error("OCR failed, returning original image", err)
		return img, nil
	}

	var regions []domain.RedactedRegion
	var canvas *image.RGBA

	for _, word := range words {
		text := strings.TrimSpace(word.Text)
		if text == "" {
			continue
		}
		pattern := a.matchedPattern(text)
		if pattern == "" {
			continue
		}

		if canvas == nil {
			canvas = cloneImage(img)
		}
		box := word.Box.Inset(-regionPadding)
		draw.Draw(canvas, box, image.NewUniform(color.Black), image.Point{}, draw.Src)
		regions = append(regions, domain.RedactedRegion{
			Text:    text,
			BBox:    box,
			Pattern: pattern,
		})
	}

	if canvas == nil {
		return img, nil
	}
	return canvas, regions
}

// AnonymizeRegion blacks out one explicit rectangle.
func (a *MedicalImageAnonymizer) AnonymizeRegion(img image.Image, box image.Rectangle) image.Image {
	canvas := cloneImage(img)
	draw.Draw(canvas, box, image.NewUniform(color.Black), image.Point{}, draw.Src)
	return canvas
}

func (a *MedicalImageAnonymizer) matchedPattern(text string) string {
	for name, re := range a.patterns {
		if re.MatchString(text) {
			return name
		}
	}
	return ""
}

func cloneImage(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	clone := image.NewRGBA(bounds)
	draw.Draw(clone, bounds, img, bounds.Min, draw.Src)
	return clone
}
