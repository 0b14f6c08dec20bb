package anonymizer

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
)

// German month names, 1-indexed by month number.
var germanMonths = []string{
	"", "Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// Month names are matched permissively as a run of letters and validated via
// monthByName, so any abbreviation of 3 or more letters ("Sep", "Sept",
// "Septem") parses.
const monthToken = `[A-Za-zÄÖÜäöüß]{3,}`

var (
	reGermanDate   = regexp.MustCompile(`(?i)^\s*(\d{1,2})\.\s*(` + monthToken + `)(\.?)\s+(\d{4})\s*$`)
	reNumericDate  = regexp.MustCompile(`^\s*(\d{1,2})\.(\d{1,2})\.(\d{4})\s*$`)
	reShortDate    = regexp.MustCompile(`^\s*(\d{1,2})\.(\d{1,2})\s*$`)
	reMonthYear    = regexp.MustCompile(`(?i)^\s*(` + monthToken + `)(\.?)\s+(\d{4})\s*$`)
	reScanGerman   = regexp.MustCompile(`(?i)\b\d{1,2}\.\s*(` + monthToken + `)\.?\s+\d{4}`)
	reScanBirth    = regexp.MustCompile(`\*(\d{2}\.\d{2}\.\d{4})`)
	reScanNumeric  = regexp.MustCompile(`\b\d{2}\.\d{2}\.\d{4}\b`)
	fallbackLayout = []string{"02.01.2006", "2.1.2006", "02.01.06", "2006-01-02", "02/01/2006"}
)

// dateFormat identifies the textual family a date was written in, so the
// shifted date can be re-rendered the same way.
type dateFormat int

const (
	formatUnknown dateFormat = iota
	formatGermanFull
	formatGermanAbbrev
	formatNumeric
	formatShort
	formatMonthYear
	formatMonthYearAbbrev
)

// DateShifter applies one fixed per-run day offset to every recognized date,
// preserving the interval between any two dates in the document. Results are
// memoized per literal input string.
type DateShifter struct {
	shiftDays int
	shifted   map[string]string
}

// NewDateShifter creates a shifter with a fixed day offset.
func NewDateShifter(shiftDays int) *DateShifter {
	return &DateShifter{
		shiftDays: shiftDays,
		shifted:   make(map[string]string),
	}
}

// NewRandomDateShifter draws the offset once, uniformly from [min, max].
func NewRandomDateShifter(min, max int) *DateShifter {
	if max < min {
		min, max = max, min
	}
	return NewDateShifter(min + rand.Intn(max-min+1))
}

// ShiftDays returns the offset applied by this shifter.
func (s *DateShifter) ShiftDays() int {
	return s.shiftDays
}

// ResetCache clears the memoized results.
func (s *DateShifter) ResetCache() {
	s.shifted = make(map[string]string)
}

// ShiftDate shifts a date string by the configured offset, rendering the
// result in the same format family as the input. Unparsable input is returned
// unchanged; this function never fails.
func (s *DateShifter) ShiftDate(dateStr string) string {
	return s.shift(dateStr, 0)
}

// ShiftDateInYear is ShiftDate for short DD.MM dates that need a year.
func (s *DateShifter) ShiftDateInYear(dateStr string, contextYear int) string {
	return s.shift(dateStr, contextYear)
}

func (s *DateShifter) shift(dateStr string, contextYear int) string {
	if cached, ok := s.shifted[dateStr]; ok {
		return cached
	}

	parsed, format, ok := s.parse(dateStr, contextYear)
	if !ok {
		// Last resort: common day-first layouts, rendered numerically.
		if t, ok := parseFallback(dateStr); ok {
			shifted := t.AddDate(0, 0, s.shiftDays)
			out := render(shifted, formatNumeric)
			s.shifted[dateStr] = out
			return out
		}
		return dateStr
	}

	shifted := parsed.AddDate(0, 0, s.shiftDays)
	out := render(shifted, format)
	s.shifted[dateStr] = out
	return out
}

// ParseGermanDate parses a date in any supported German or numeric form.
// Short DD.MM forms fall back to the current year.
func (s *DateShifter) ParseGermanDate(dateStr string) (time.Time, bool) {
	t, _, ok := s.parse(dateStr, 0)
	return t, ok
}

func (s *DateShifter) parse(dateStr string, contextYear int) (time.Time, dateFormat, bool) {
	if m := reGermanDate.FindStringSubmatch(dateStr); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, full := monthByName(m[2])
		if month == 0 || !validDay(day) {
			return time.Time{}, formatUnknown, false
		}
		year, _ := strconv.Atoi(m[4])
		format := formatGermanFull
		if !full {
			format = formatGermanAbbrev
		}
		return date(year, month, day), format, true
	}

	if m := reNumericDate.FindStringSubmatch(dateStr); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if !validDay(day) || month < 1 || month > 12 {
			return time.Time{}, formatUnknown, false
		}
		return date(year, month, day), formatNumeric, true
	}

	if m := reShortDate.FindStringSubmatch(dateStr); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if !validDay(day) || month < 1 || month > 12 {
			return time.Time{}, formatUnknown, false
		}
		year := contextYear
		if year == 0 {
			year = time.Now().Year()
		}
		return date(year, month, day), formatShort, true
	}

	if m := reMonthYear.FindStringSubmatch(dateStr); m != nil {
		month, full := monthByName(m[1])
		if month == 0 {
			return time.Time{}, formatUnknown, false
		}
		year, _ := strconv.Atoi(m[3])
		format := formatMonthYear
		if !full {
			format = formatMonthYearAbbrev
		}
		return date(year, month, 1), format, true
	}

	return time.Time{}, formatUnknown, false
}

// FindAllDates locates every date-like substring in the three supported
// families. Numeric matches inside an already-found German full date or
// birthdate span are suppressed, so no cross-family overlap is reported.
func (s *DateShifter) FindAllDates(text string) []domain.DateMatch {
	var matches []domain.DateMatch

	for _, loc := range reScanGerman.FindAllStringSubmatchIndex(text, -1) {
		// The month token matches any letter run; only real month names count.
		if month, _ := monthByName(text[loc[2]:loc[3]]); month == 0 {
			continue
		}
		matches = append(matches, domain.DateMatch{
			Text:  text[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
			Type:  domain.DateTypeGermanFull,
		})
	}

	for _, loc := range reScanBirth.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, domain.DateMatch{
			Text:  text[loc[2]:loc[3]],
			Start: loc[2],
			End:   loc[3],
			Type:  domain.DateTypeBirthdate,
		})
	}

	for _, loc := range reScanNumeric.FindAllStringIndex(text, -1) {
		if coveredBy(matches, loc[0], loc[1]) {
			continue
		}
		matches = append(matches, domain.DateMatch{
			Text:  text[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
			Type:  domain.DateTypeNumeric,
		})
	}

	return matches
}

func coveredBy(matches []domain.DateMatch, start, end int) bool {
	for _, m := range matches {
		if start < m.End && m.Start < end {
			return true
		}
	}
	return false
}

// monthByName resolves a full or abbreviated (3+ letters) German month name,
// case-insensitively. The second return reports whether the name was written
// in full.
func monthByName(name string) (month int, full bool) {
	lowered := strings.ToLower(strings.TrimSuffix(name, "."))
	if len([]rune(lowered)) < 3 {
		return 0, false
	}
	for i := 1; i <= 12; i++ {
		target := strings.ToLower(germanMonths[i])
		if lowered == target {
			return i, true
		}
		if strings.HasPrefix(target, lowered) {
			return i, false
		}
	}
	return 0, false
}

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func validDay(day int) bool {
	return day >= 1 && day <= 31
}

func parseFallback(dateStr string) (time.Time, bool) {
	trimmed := strings.TrimSpace(dateStr)
	for _, layout := range fallbackLayout {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// render formats a shifted date in the family its source was written in.
// German formats keep the unpadded day of the source style; numeric and short
// forms are always zero padded.
func render(t time.Time, format dateFormat) string {
	day := t.Day()
	month := int(t.Month())
	year := t.Year()

	switch format {
	case formatGermanFull:
		return fmt.Sprintf("%d. %s %d", day, germanMonths[month], year)
	case formatGermanAbbrev:
		return fmt.Sprintf("%d. %s. %d", day, monthAbbrev(month), year)
	case formatShort:
		return fmt.Sprintf("%02d.%02d", day, month)
	case formatMonthYear:
		return fmt.Sprintf("%s %d", germanMonths[month], year)
	case formatMonthYearAbbrev:
		return fmt.Sprintf("%s. %d", monthAbbrev(month), year)
	default:
		return fmt.Sprintf("%02d.%02d.%04d", day, month, year)
	}
}

func monthAbbrev(month int) string {
	return string([]rune(germanMonths[month])[:3])
}
