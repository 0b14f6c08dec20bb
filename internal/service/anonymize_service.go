package service

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/jojospausch-web/redact-clinical-german/internal/anonymizer"
	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
	"github.com/jojospausch-web/redact-clinical-german/internal/repository"
	"github.com/jojospausch-web/redact-clinical-german/internal/template"
	apperrors "github.com/jojospausch-web/redact-clinical-german/pkg/errors"
)

// AnonymizeRequest describes one anonymization run. Exactly one of InputPath
// and InputBytes must be set.
type AnonymizeRequest struct {
	InputPath  string
	InputBytes []byte
	OutputPath string
	Template   *template.Template

	// ShiftDays pins the date offset; nil draws a random offset from the
	// template's configured range.
	ShiftDays *int

	// ExtractImages renders every page to ImageDir and writes
	// OCR-anonymized copies next to them.
	ExtractImages bool
	ImageDir      string
}

// AnonymizeService wires the anonymization pipeline for one run per call.
type AnonymizeService struct {
	engine     domain.Engine
	cityDB     domain.CityDatabase
	facilityDB *repository.FacilityDatabase
	ocr        domain.OCREngine
	logger     domain.Logger
}

// NewAnonymizeService creates the service over its collaborators.
func NewAnonymizeService(
	engine domain.Engine,
	cityDB domain.CityDatabase,
	facilityDB *repository.FacilityDatabase,
	ocr domain.OCREngine,
	logger domain.Logger,
) *AnonymizeService {
	return &AnonymizeService{
		engine:     engine,
		cityDB:     cityDB,
		facilityDB: facilityDB,
		ocr:        ocr,
		logger:     logger,
	}
}

// Anonymize runs the full pipeline and returns the run statistics. Any
// processing error aborts the run without writing partial output.
func (s *AnonymizeService) Anonymize(req AnonymizeRequest) (*domain.Result, error) {
	if req.Template == nil {
		return nil, apperrors.NewConfigError("no template supplied", domain.ErrInvalidTemplate)
	}
	if req.OutputPath == "" {
		return nil, apperrors.NewInputError("no output path supplied", nil)
	}

	doc, err := s.open(req)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	shifter := s.dateShifter(req)
	s.logger.Info("Date shifter initialized", "offset_days", shifter.ShiftDays())

	var locations *anonymizer.ContextAwareLocationAnonymizer
	if cfg := req.Template.LocationAnonymization; cfg != nil && cfg.Enabled {
		locations = anonymizer.NewContextAwareLocationAnonymizer(s.cityDB, cfg.Blacklist)
	}

	var facilities *anonymizer.MedicalFacilityAnonymizer
	if s.facilityDB != nil {
		facilities = anonymizer.NewMedicalFacilityAnonymizer(s.facilityDB)
	}

	zones := anonymizer.NewZoneBasedAnonymizer(req.Template, locations, facilities, shifter, s.logger)
	stats, err := zones.AnonymizePDF(doc, req.OutputPath)
	if err != nil {
		return nil, err
	}

	result := &domain.Result{OutputPath: req.OutputPath, Stats: stats}

	if req.ExtractImages {
		paths, err := s.extractImages(doc, req)
		if err != nil {
			return nil, err
		}
		result.ImagePaths = paths
		result.Stats.ImagesExtracted = len(paths)
	}

	s.logger.Info("Anonymization completed",
		"output", req.OutputPath,
		"pages", result.Stats.TotalPages,
		"zones_redacted", result.Stats.ZonesRedacted,
		"pii_entities", result.Stats.PIIEntitiesFound,
		"dates_shifted", result.Stats.DatesShifted,
		"images_extracted", result.Stats.ImagesExtracted,
	)
	return result, nil
}

// Preview renders the first page with tinted header and footer bands.
func (s *AnonymizeService) Preview(pdfBytes []byte, headerHeight, footerHeight float64) (image.Image, error) {
	doc, err := s.engine.OpenBytes(pdfBytes)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	return anonymizer.CreateZonePreview(doc, headerHeight, footerHeight)
}

func (s *AnonymizeService) open(req AnonymizeRequest) (domain.Document, error) {
	if len(req.InputBytes) > 0 {
		return s.engine.OpenBytes(req.InputBytes)
	}
	if req.InputPath == "" {
		return nil, apperrors.NewInputError("no input supplied", domain.ErrInputNotFound)
	}
	if _, err := os.Stat(req.InputPath); err != nil {
		return nil, apperrors.NewInputError("input file not found: "+req.InputPath, domain.ErrInputNotFound)
	}
	return s.engine.Open(req.InputPath)
}

func (s *AnonymizeService) dateShifter(req AnonymizeRequest) *anonymizer.DateShifter {
	if req.ShiftDays != nil {
		return anonymizer.NewDateShifter(*req.ShiftDays)
	}
	return anonymizer.NewRandomDateShifter(req.Template.ShiftRange())
}

// extractImages renders every page into ImageDir and writes an OCR-redacted
// copy of each render into an anonymized/ subdirectory. A missing OCR
// backend degrades to plain renders.
func (s *AnonymizeService) extractImages(doc domain.Document, req AnonymizeRequest) ([]string, error) {
	dir := req.ImageDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(req.OutputPath), "extracted_images")
	}
	anonDir := filepath.Join(dir, "anonymized")
	if err := os.MkdirAll(anonDir, 0o755); err != nil {
		return nil, apperrors.NewProcessingError("failed to create image directory", err)
	}

	images := anonymizer.NewMedicalImageAnonymizer(req.Template.ImageRegexps(), s.ocr, s.logger)

	var paths []string
	for i := 0; i < doc.PageCount(); i++ {
		page, err := doc.Page(i)
		if err != nil {
			return nil, err
		}
		img, err := page.Render(2.0)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(dir, fmt.Sprintf("page%d.png", i+1))
		if err := writePNG(path, img); err != nil {
			return nil, err
		}
		paths = append(paths, path)

		redacted, regions := images.AnonymizeImage(img)
		anonPath := filepath.Join(anonDir, fmt.Sprintf("page%d_anonymized.png", i+1))
		if err := writePNG(anonPath, redacted); err != nil {
			return nil, err
		}
		if len(regions) > 0 {
			s.logger.Debug("Redacted regions in page image", "page", i+1, "regions", len(regions))
		}
	}
	return paths, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewProcessingError("failed to create image file", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return apperrors.NewProcessingError("failed to encode image", err)
	}
	return nil
}
