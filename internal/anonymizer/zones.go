package anonymizer

import (
	"strings"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
	"github.com/jojospausch-web/redact-clinical-german/internal/template"
	apperrors "github.com/jojospausch-web/redact-clinical-german/pkg/errors"
)

// ZoneBasedAnonymizer drives one anonymization run: static zone bands,
// signature blocks, structured PII, contextual locations and known facilities,
// in that order per page. Marks accumulate across all pages and are committed
// in a single pass before saving, so text analysis always sees the original
// content.
type ZoneBasedAnonymizer struct {
	template    *template.Template
	extractor   *StructuredPIIExtractor
	locations   *ContextAwareLocationAnonymizer
	facilities  *MedicalFacilityAnonymizer
	dateShifter *DateShifter
	logger      domain.Logger
}

// NewZoneBasedAnonymizer wires the per-run pipeline. The location and
// facility finders are optional; nil disables the corresponding pass.
func NewZoneBasedAnonymizer(
	tpl *template.Template,
	locations *ContextAwareLocationAnonymizer,
	facilities *MedicalFacilityAnonymizer,
	dateShifter *DateShifter,
	logger domain.Logger,
) *ZoneBasedAnonymizer {
	if dateShifter == nil {
		dateShifter = NewRandomDateShifter(tpl.ShiftRange())
	}
	return &ZoneBasedAnonymizer{
		template:    tpl,
		extractor:   NewStructuredPIIExtractor(tpl.StructuredPatterns, tpl.Whitelist),
		locations:   locations,
		facilities:  facilities,
		dateShifter: dateShifter,
		logger:      logger,
	}
}

// AnonymizePDF processes every page of the open document and saves the
// redacted result to outputPath. Any error is fatal for the run: no partial
// output is written.
func (z *ZoneBasedAnonymizer) AnonymizePDF(doc domain.Document, outputPath string) (domain.Stats, error) {
	stats := domain.Stats{TotalPages: doc.PageCount()}

	for i := 0; i < doc.PageCount(); i++ {
		page, err := doc.Page(i)
		if err != nil {
			return stats, apperrors.NewProcessingError("failed to open page", err)
		}

		if err := z.redactZones(page, &stats); err != nil {
			return stats, err
		}
		if err := z.redactSignatureBlocks(page); err != nil {
			return stats, err
		}

		text, err := page.Text()
		if err != nil {
			return stats, apperrors.NewProcessingError("failed to extract page text", err)
		}
		entities := z.collectEntities(text)
		stats.PIIEntitiesFound += len(entities)

		if err := z.redactEntities(page, entities, &stats); err != nil {
			return stats, err
		}

		z.logger.Debug("Page analyzed", "page", page.Number(), "entities", len(entities))
	}

	if err := doc.ApplyRedactions(); err != nil {
		return stats, apperrors.NewProcessingError("failed to apply redactions", err)
	}
	if err := doc.Save(outputPath); err != nil {
		return stats, apperrors.NewProcessingError("failed to save anonymized PDF", err)
	}

	return stats, nil
}

// collectEntities merges the structured extractor output with the optional
// location and facility finders into one entity list.
func (z *ZoneBasedAnonymizer) collectEntities(text string) []domain.PIIEntity {
	entities := z.extractor.ExtractPII(text)

	if z.locations != nil && z.template.LocationAnonymization != nil && z.template.LocationAnonymization.Enabled {
		for _, m := range z.locations.FindLocations(text) {
			entities = append(entities, domain.PIIEntity{
				Text:       m.Text,
				EntityType: m.Type,
				StartPos:   m.Start,
				EndPos:     m.End,
				Context:    m.Context,
			})
		}
	}

	if z.facilities != nil {
		for _, m := range z.facilities.FindFacilities(text) {
			entities = append(entities, domain.PIIEntity{
				Text:       m.Text,
				EntityType: m.Type,
				StartPos:   m.Start,
				EndPos:     m.End,
			})
		}
	}

	return entities
}

// redactZones marks the template's static bands on one page.
func (z *ZoneBasedAnonymizer) redactZones(page domain.Page, stats *domain.Stats) error {
	width, _ := page.Size()
	pageNo := page.Number()

	for name, zone := range z.template.Zones {
		if !zone.AppliesTo(pageNo) {
			continue
		}

		band := domain.Rect{X0: 0, Y0: zone.YStart, X1: width, Y1: zone.YEnd}

		switch zone.Redaction {
		case template.RedactionFull:
			if zone.PreserveLogos {
				if err := z.redactPreservingLogos(page, band, stats); err != nil {
					return err
				}
			} else {
				page.AddRedaction(domain.RedactionMark{Rect: band, Fill: domain.FillBlack})
				stats.ZonesRedacted++
			}
		case template.RedactionKeywordBased:
			if err := z.redactKeywords(page, band, zone.Keywords, stats); err != nil {
				return err
			}
		case template.RedactionNone:
			// Explicitly exempt.
		}

		z.logger.Debug("Zone evaluated", "zone", name, "page", pageNo, "redaction", zone.Redaction)
	}

	return nil
}

// redactPreservingLogos blacks out a band except for the area of the first
// embedded image intersecting it. Up to four sub-rectangles are marked around
// that image; with no intersecting image the whole band is marked.
func (z *ZoneBasedAnonymizer) redactPreservingLogos(page domain.Page, band domain.Rect, stats *domain.Stats) error {
	images, err := page.Images()
	if err != nil {
		return apperrors.NewProcessingError("failed to enumerate page images", err)
	}

	var logo *domain.Rect
	for _, img := range images {
		if band.Intersects(img.Rect) {
			r := img.Rect
			logo = &r
			break
		}
	}

	if logo == nil {
		page.AddRedaction(domain.RedactionMark{Rect: band, Fill: domain.FillBlack})
		stats.ZonesRedacted++
		return nil
	}

	if logo.Y1 < band.Y1 {
		page.AddRedaction(domain.RedactionMark{
			Rect: domain.Rect{X0: band.X0, Y0: logo.Y1, X1: band.X1, Y1: band.Y1},
			Fill: domain.FillBlack,
		})
	}
	if band.Y0 < logo.Y0 {
		page.AddRedaction(domain.RedactionMark{
			Rect: domain.Rect{X0: band.X0, Y0: band.Y0, X1: band.X1, Y1: logo.Y0},
			Fill: domain.FillBlack,
		})
	}
	if band.X0 < logo.X0 {
		page.AddRedaction(domain.RedactionMark{
			Rect: domain.Rect{X0: band.X0, Y0: logo.Y0, X1: logo.X0, Y1: logo.Y1},
			Fill: domain.FillBlack,
		})
	}
	if logo.X1 < band.X1 {
		page.AddRedaction(domain.RedactionMark{
			Rect: domain.Rect{X0: logo.X1, Y0: logo.Y0, X1: band.X1, Y1: logo.Y1},
			Fill: domain.FillBlack,
		})
	}
	stats.ZonesRedacted++
	return nil
}

// redactKeywords marks each keyword occurrence whose placement intersects the
// band. Occurrences outside the band are left alone.
func (z *ZoneBasedAnonymizer) redactKeywords(page domain.Page, band domain.Rect, keywords []string, stats *domain.Stats) error {
	for _, keyword := range keywords {
		areas, err := page.Search(keyword)
		if err != nil {
			return apperrors.NewProcessingError("keyword search failed", err)
		}
		for _, area := range areas {
			if band.Intersects(area) {
				page.AddRedaction(domain.RedactionMark{Rect: area, Fill: domain.FillBlack})
				stats.ZonesRedacted++
			}
		}
	}
	return nil
}

// redactSignatureBlocks marks a full-width band below every occurrence of the
// closing salutation trigger.
func (z *ZoneBasedAnonymizer) redactSignatureBlocks(page domain.Page) error {
	sig := z.template.SignatureBlock
	if sig == nil || !sig.Enabled {
		return nil
	}

	instances, err := page.Search(sig.Trigger)
	if err != nil {
		return apperrors.NewProcessingError("signature trigger search failed", err)
	}

	width, _ := page.Size()
	for _, inst := range instances {
		top := inst.Y0
		bottom := top - sig.HeightBelow
		if bottom < 0 {
			bottom = 0
		}
		page.AddRedaction(domain.RedactionMark{
			Rect: domain.Rect{X0: 0, Y0: bottom, X1: width, Y1: top},
			Fill: domain.FillBlack,
		})
		z.logger.Info("Redacted signature block", "page", page.Number(), "below_y", top, "height", sig.HeightBelow)
	}
	return nil
}

// redactEntities marks every placement of each detected entity. Date-typed
// entities get a white fill carrying the shifted date as replacement text;
// everything else is blacked out.
func (z *ZoneBasedAnonymizer) redactEntities(page domain.Page, entities []domain.PIIEntity, stats *domain.Stats) error {
	for _, entity := range entities {
		areas, err := page.Search(entity.Text)
		if err != nil {
			return apperrors.NewProcessingError("entity search failed", err)
		}
		for _, area := range areas {
			if entity.EntityType == domain.DateTypeBirthdate || strings.Contains(entity.EntityType, "DATE") {
				shifted := z.dateShifter.ShiftDate(entity.Text)
				page.AddRedaction(domain.RedactionMark{
					Rect:        area,
					Fill:        domain.FillWhite,
					Replacement: shifted,
				})
				stats.DatesShifted++
			} else {
				page.AddRedaction(domain.RedactionMark{Rect: area, Fill: domain.FillBlack})
			}
		}
	}
	return nil
}
