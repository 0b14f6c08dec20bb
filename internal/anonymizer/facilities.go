package anonymizer

import (
	"regexp"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
	"github.com/jojospausch-web/redact-clinical-german/internal/repository"
)

type facilityPattern struct {
	re       *regexp.Regexp
	fullName string
	city     string
}

// MedicalFacilityAnonymizer recognizes known German hospitals and clinics
// from the static facility dictionary. Abbreviations (UKE, MHH) match
// case-sensitively so ordinary words are never mistaken for them; full names
// and aliases match case-insensitively.
type MedicalFacilityAnonymizer struct {
	patterns []facilityPattern
}

// NewMedicalFacilityAnonymizer compiles one whole-word pattern per known
// abbreviation, facility name and alias.
func NewMedicalFacilityAnonymizer(db *repository.FacilityDatabase) *MedicalFacilityAnonymizer {
	a := &MedicalFacilityAnonymizer{}

	// No \b anchors: Go's word boundary is ASCII-only and misfires next
	// to umlauts. Boundaries are checked in code via isWholeWord.
	for abbr, fullName := range db.Abbreviations {
		a.patterns = append(a.patterns, facilityPattern{
			re:       regexp.MustCompile(regexp.QuoteMeta(abbr)),
			fullName: fullName,
		})
	}

	for name, entry := range db.Universities {
		names := append([]string{name}, entry.Aliases...)
		for _, n := range names {
			if n == "" {
				continue
			}
			a.patterns = append(a.patterns, facilityPattern{
				re:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(n)),
				city: entry.City,
			})
		}
	}

	return a
}

// FindFacilities returns every dictionary hit, deduplicated by exact span.
func (a *MedicalFacilityAnonymizer) FindFacilities(text string) []domain.FacilityMatch {
	var found []domain.FacilityMatch
	seen := make(map[[2]int]struct{})

	for _, p := range a.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if !isWholeWord(text, loc[0], loc[1]) {
				continue
			}
			span := [2]int{loc[0], loc[1]}
			if _, ok := seen[span]; ok {
				continue
			}
			seen[span] = struct{}{}
			found = append(found, domain.FacilityMatch{
				Text:     text[loc[0]:loc[1]],
				Start:    loc[0],
				End:      loc[1],
				Type:     "MEDICAL_FACILITY",
				FullName: p.fullName,
				City:     p.city,
			})
		}
	}

	return found
}
