package anonymizer

import (
	"sort"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
)

// dedupeLocations resolves overlapping location matches. Matches are ordered
// by start position, ties broken by priority (lower wins), and a match is
// kept only when it does not overlap any already-kept span. Spans are
// half-open, so a match starting exactly where the previous one ends survives.
func dedupeLocations(matches []domain.LocationMatch) []domain.LocationMatch {
	if len(matches) == 0 {
		return nil
	}

	sorted := make([]domain.LocationMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].Priority < sorted[j].Priority
	})

	kept := sorted[:0]
	lastEnd := -1
	for _, m := range sorted {
		if m.Start < lastEnd {
			continue
		}
		kept = append(kept, m)
		lastEnd = m.End
	}
	return kept
}
