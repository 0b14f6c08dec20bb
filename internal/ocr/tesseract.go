package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
	apperrors "github.com/jojospausch-web/redact-clinical-german/pkg/errors"
)

const runTimeout = 2 * time.Minute

// TesseractEngine shells out to the tesseract binary, the same backend
// pytesseract wraps. Word geometry comes from the TSV output format.
// Availability is probed once at construction; a missing binary makes the
// engine report unavailable instead of failing per call.
type TesseractEngine struct {
	binary   string
	language string
	logger   domain.Logger
}

// NewTesseractEngine probes PATH for the tesseract binary.
func NewTesseractEngine(language string, logger domain.Logger) *TesseractEngine {
	if language == "" {
		language = "deu"
	}
	binary, err := exec.LookPath("tesseract")
	if err != nil {
		logger.Warn("tesseract binary not found, OCR disabled", "language", language)
		return &TesseractEngine{language: language, logger: logger}
	}
	logger.Debug("OCR backend ready", "binary", binary, "language", language)
	return &TesseractEngine{binary: binary, language: language, logger: logger}
}

// Available reports whether the tesseract binary was found.
func (t *TesseractEngine) Available() bool {
	return t.binary != ""
}

// Words OCRs the image and returns word-level text with raster bounding
// boxes, origin top-left.
func (t *TesseractEngine) Words(img image.Image) ([]domain.OCRWord, error) {
	if !t.Available() {
		return nil, apperrors.NewBackendError("OCR backend not available", domain.ErrOCRUnavailable)
	}

	var input bytes.Buffer
	if err := png.Encode(&input, img); err != nil {
		return nil, apperrors.NewProcessingError("failed to encode image for OCR", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.binary, "stdin", "stdout", "-l", t.language, "tsv")
	cmd.Stdin = &input
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.logger.Error("tesseract run failed", err, "stderr", strings.TrimSpace(stderr.String()))
		return nil, apperrors.NewBackendError("tesseract run failed", err)
	}

	return ParseTSV(out.String()), nil
}

// ParseTSV extracts word records (level 5) from tesseract TSV output.
// Malformed rows are skipped, matching tesseract's own tolerance for them.
func ParseTSV(tsv string) []domain.OCRWord {
	var words []domain.OCRWord

	lines := strings.Split(tsv, "\n")
	for i, line := range lines {
		if i == 0 {
			continue // header row
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}

		level, err := strconv.Atoi(fields[0])
		if err != nil || level != 5 {
			continue
		}
		text := strings.TrimSpace(fields[11])
		if text == "" {
			continue
		}

		left, err1 := strconv.Atoi(fields[6])
		top, err2 := strconv.Atoi(fields[7])
		width, err3 := strconv.Atoi(fields[8])
		height, err4 := strconv.Atoi(fields[9])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil {
			conf = -1
		}

		words = append(words, domain.OCRWord{
			Text:       text,
			Box:        image.Rect(left, top, left+width, top+height),
			Confidence: conf,
		})
	}

	return words
}
