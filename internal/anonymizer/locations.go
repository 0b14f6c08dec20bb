package anonymizer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
)

// Contextual finder vocabulary. Cities are only recognized when one of these
// contexts applies; a bare city name in running prose stays untouched so that
// medical vocabulary sharing a surface form with a city survives.
var (
	cityPrepositions = []string{"aus", "in", "nach", "von", "bei"}

	facilityKeywords = []string{
		"Universitätsklinikum", "Uniklinik", "Klinikum", "Krankenhaus",
		"Herzzentrum", "Tumorzentrum", "Lungenzentrum", "MVZ",
		"Medizinisches Versorgungszentrum", "Charité",
	}

	referralKeywords = []string{"überwiesen", "Zuweiser", "eingewiesen", "verlegt"}
)

var rePostalCity = regexp.MustCompile(`\b(\d{5})\s+([A-ZÄÖÜ][a-zäöüß\s-]+?)([,.\n]|$)`)

// The finder regexes carry no \b anchors: Go's word boundary is ASCII-only
// and misfires next to umlauts (überwiesen, Charité). Word boundaries are
// checked in code via isWholeWord instead.

// ContextAwareLocationAnonymizer finds German cities in five contexts, in
// priority order: template blacklist, postal code prefix, preposition,
// medical facility name, and referral phrasing. All regexes are compiled at
// construction against the city database of the run.
type ContextAwareLocationAnonymizer struct {
	cityDB    domain.CityDatabase
	canonical map[string]string

	blacklistRes  []*regexp.Regexp
	prepositionRe *regexp.Regexp
	facilityRe    *regexp.Regexp
	referralRe    *regexp.Regexp
}

// NewContextAwareLocationAnonymizer builds the finder set once. An empty city
// database disables every city-context finder but keeps the blacklist active.
func NewContextAwareLocationAnonymizer(cityDB domain.CityDatabase, blacklist []string) *ContextAwareLocationAnonymizer {
	a := &ContextAwareLocationAnonymizer{
		cityDB:    cityDB,
		canonical: make(map[string]string),
	}

	for _, term := range blacklist {
		a.blacklistRes = append(a.blacklistRes,
			regexp.MustCompile(`(?i)`+regexp.QuoteMeta(term)))
	}

	cities := cityDB.Cities()
	if len(cities) == 0 {
		return a
	}
	for _, city := range cities {
		a.canonical[strings.ToLower(city)] = city
	}

	// Longer names first so the alternation prefers "Frankfurt am Main"
	// over "Frankfurt".
	sort.SliceStable(cities, func(i, j int) bool { return len(cities[i]) > len(cities[j]) })
	quoted := make([]string, len(cities))
	for i, city := range cities {
		quoted[i] = regexp.QuoteMeta(city)
	}
	cityAlt := strings.Join(quoted, "|")

	a.prepositionRe = regexp.MustCompile(
		`(?i)(` + strings.Join(cityPrepositions, "|") + `)\s+(` + cityAlt + `)`)
	a.facilityRe = regexp.MustCompile(
		`(?i)(` + strings.Join(facilityKeywords, "|") + `)\s+(` + cityAlt + `)(?:-\w+)?`)
	a.referralRe = regexp.MustCompile(
		`(?i)(` + strings.Join(referralKeywords, "|") + `).{0,50}?(` + cityAlt + `)`)

	return a
}

// FindLocations runs all finders and resolves overlaps, higher priority
// (lower number) winning at equal start positions.
func (a *ContextAwareLocationAnonymizer) FindLocations(text string) []domain.LocationMatch {
	var matches []domain.LocationMatch

	matches = append(matches, a.findBlacklisted(text)...)
	matches = append(matches, a.findAfterPostalCode(text)...)
	matches = append(matches, a.findWithPrepositions(text)...)
	matches = append(matches, a.findInFacilities(text)...)
	matches = append(matches, a.findInReferrals(text)...)

	return dedupeLocations(matches)
}

// findBlacklisted recognizes blacklist terms everywhere, no context needed.
func (a *ContextAwareLocationAnonymizer) findBlacklisted(text string) []domain.LocationMatch {
	var found []domain.LocationMatch
	for _, re := range a.blacklistRes {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if !isWholeWord(text, loc[0], loc[1]) {
				continue
			}
			found = append(found, domain.LocationMatch{
				Text:     text[loc[0]:loc[1]],
				Start:    loc[0],
				End:      loc[1],
				Type:     "LOCATION_BLACKLIST",
				Context:  domain.LocationContextBlacklist,
				Priority: 1,
			})
		}
	}
	return found
}

// findAfterPostalCode matches "37075 Göttingen" style pairs and keeps only
// candidates the city database confirms.
func (a *ContextAwareLocationAnonymizer) findAfterPostalCode(text string) []domain.LocationMatch {
	var found []domain.LocationMatch
	for _, loc := range rePostalCity.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[4], loc[5]
		candidate := text[start:end]
		trimmed := strings.TrimSpace(candidate)
		if !a.cityDB.IsCity(trimmed) {
			continue
		}
		start += strings.Index(candidate, trimmed)
		found = append(found, domain.LocationMatch{
			Text:     trimmed,
			Start:    start,
			End:      start + len(trimmed),
			Type:     "CITY",
			Context:  domain.LocationContextPLZ,
			PLZ:      text[loc[2]:loc[3]],
			Priority: 2,
		})
	}
	return found
}

func (a *ContextAwareLocationAnonymizer) findWithPrepositions(text string) []domain.LocationMatch {
	if a.prepositionRe == nil {
		return nil
	}
	var found []domain.LocationMatch
	for _, loc := range a.prepositionRe.FindAllStringSubmatchIndex(text, -1) {
		if !isWholeWord(text, loc[2], loc[3]) || !isWholeWord(text, loc[4], loc[5]) {
			continue
		}
		found = append(found, domain.LocationMatch{
			Text:        a.canonicalName(text[loc[4]:loc[5]]),
			Start:       loc[4],
			End:         loc[5],
			Type:        "CITY",
			Context:     domain.LocationContextPreposition,
			Preposition: strings.ToLower(text[loc[2]:loc[3]]),
			Priority:    3,
		})
	}
	return found
}

func (a *ContextAwareLocationAnonymizer) findInFacilities(text string) []domain.LocationMatch {
	if a.facilityRe == nil {
		return nil
	}
	var found []domain.LocationMatch
	for _, loc := range a.facilityRe.FindAllStringSubmatchIndex(text, -1) {
		// Boundaries are checked on the keyword and the whole match;
		// the city itself may continue into a hyphenated suffix.
		if !isWholeWord(text, loc[2], loc[3]) || !isWholeWord(text, loc[0], loc[1]) {
			continue
		}
		found = append(found, domain.LocationMatch{
			Text:     a.canonicalName(text[loc[4]:loc[5]]),
			Start:    loc[4],
			End:      loc[5],
			Type:     "CITY",
			Context:  domain.LocationContextFacility,
			Facility: text[loc[2]:loc[3]],
			Priority: 4,
		})
	}
	return found
}

func (a *ContextAwareLocationAnonymizer) findInReferrals(text string) []domain.LocationMatch {
	if a.referralRe == nil {
		return nil
	}
	var found []domain.LocationMatch
	for _, loc := range a.referralRe.FindAllStringSubmatchIndex(text, -1) {
		if !isWholeWord(text, loc[2], loc[3]) || !isWholeWord(text, loc[4], loc[5]) {
			continue
		}
		found = append(found, domain.LocationMatch{
			Text:     a.canonicalName(text[loc[4]:loc[5]]),
			Start:    loc[4],
			End:      loc[5],
			Type:     "CITY",
			Context:  domain.LocationContextReferral,
			Priority: 5,
		})
	}
	return found
}

// canonicalName maps a case-insensitive match back to the database spelling.
func (a *ContextAwareLocationAnonymizer) canonicalName(matched string) string {
	if name, ok := a.canonical[strings.ToLower(matched)]; ok {
		return name
	}
	return matched
}
