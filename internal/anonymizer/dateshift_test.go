package anonymizer

import (
	"testing"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
)

func TestShiftDate_NumericFormat(t *testing.T) {
	shifter := NewDateShifter(10)

	if got := shifter.ShiftDate("05.11.2023"); got != "15.11.2023" {
		t.Fatalf("expected 15.11.2023, got %s", got)
	}
}

func TestShiftDate_GermanFullMonth(t *testing.T) {
	shifter := NewDateShifter(25)

	if got := shifter.ShiftDate("5. November 2023"); got != "30. November 2023" {
		t.Fatalf("expected 30. November 2023, got %s", got)
	}
}

func TestShiftDate_AbbreviatedMonth(t *testing.T) {
	shifter := NewDateShifter(25)

	if got := shifter.ShiftDate("5. Nov. 2023"); got != "30. Nov. 2023" {
		t.Fatalf("expected 30. Nov. 2023, got %s", got)
	}
}

func TestShiftDate_AcrossYearBoundary(t *testing.T) {
	shifter := NewDateShifter(10)

	if got := shifter.ShiftDate("25. Dezember 2023"); got != "4. Januar 2024" {
		t.Fatalf("expected 4. Januar 2024, got %s", got)
	}
}

func TestShiftDate_ShortFormat(t *testing.T) {
	shifter := NewDateShifter(10)

	if got := shifter.ShiftDateInYear("05.08", 2023); got != "15.08" {
		t.Fatalf("expected 15.08, got %s", got)
	}
	if got := shifter.ShiftDateInYear("25.08", 2023); got != "04.09" {
		t.Fatalf("expected 04.09, got %s", got)
	}
}

func TestShiftDate_MonthYear(t *testing.T) {
	shifter := NewDateShifter(0)

	if got := shifter.ShiftDate("November 2023"); got != "November 2023" {
		t.Fatalf("expected November 2023, got %s", got)
	}
}

func TestShiftDate_InvalidReturnsOriginal(t *testing.T) {
	shifter := NewDateShifter(10)

	if got := shifter.ShiftDate("kein Datum"); got != "kein Datum" {
		t.Fatalf("expected input unchanged, got %s", got)
	}
}

func TestShiftDate_Consistency(t *testing.T) {
	shifter := NewDateShifter(15)

	first := shifter.ShiftDate("15.03.2023")
	second := shifter.ShiftDate("15.03.2023")
	if first != second {
		t.Fatalf("expected identical results, got %s and %s", first, second)
	}

	shifter.ResetCache()
	if got := shifter.ShiftDate("15.03.2023"); got != first {
		t.Fatalf("expected %s after cache reset, got %s", first, got)
	}
}

func TestShiftDate_PreservesIntervals(t *testing.T) {
	shifter := NewDateShifter(7)

	d1, ok := shifter.ParseGermanDate(shifter.ShiftDate("01.01.2023"))
	if !ok {
		t.Fatal("expected shifted date to parse")
	}
	d2, ok := shifter.ParseGermanDate(shifter.ShiftDate("10.01.2023"))
	if !ok {
		t.Fatal("expected shifted date to parse")
	}
	if days := int(d2.Sub(d1).Hours() / 24); days != 9 {
		t.Fatalf("expected 9 day interval, got %d", days)
	}
}

func TestParseGermanDate_AllMonths(t *testing.T) {
	shifter := NewDateShifter(0)

	cases := []struct {
		input string
		month int
	}{
		{"1. Januar 2023", 1},
		{"1. Februar 2023", 2},
		{"1. März 2023", 3},
		{"1. April 2023", 4},
		{"1. Mai 2023", 5},
		{"1. Juni 2023", 6},
		{"1. Juli 2023", 7},
		{"1. August 2023", 8},
		{"1. September 2023", 9},
		{"1. Oktober 2023", 10},
		{"1. November 2023", 11},
		{"1. Dezember 2023", 12},
		{"1. Jan. 2023", 1},
		{"1. Mär. 2023", 3},
		{"1. Okt. 2023", 10},
		{"1. Dez. 2023", 12},
	}

	for _, tc := range cases {
		parsed, ok := shifter.ParseGermanDate(tc.input)
		if !ok {
			t.Fatalf("failed to parse %q", tc.input)
		}
		if int(parsed.Month()) != tc.month {
			t.Fatalf("%q: expected month %d, got %d", tc.input, tc.month, parsed.Month())
		}
		if parsed.Day() != 1 || parsed.Year() != 2023 {
			t.Fatalf("%q: unexpected day/year %d/%d", tc.input, parsed.Day(), parsed.Year())
		}
	}
}

func TestRandomShiftWithinRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		shifter := NewRandomDateShifter(-30, 30)
		if d := shifter.ShiftDays(); d < -30 || d > 30 {
			t.Fatalf("offset %d outside [-30, 30]", d)
		}
	}
}

func TestFindAllDates(t *testing.T) {
	shifter := NewDateShifter(0)

	text := "Patient geboren am *05.11.1960\nAufnahme am 5. November 2023\nEntlassung am 10.11.2023\n"
	dates := shifter.FindAllDates(text)

	types := make(map[string]int)
	for _, d := range dates {
		types[d.Type]++
	}
	if types[domain.DateTypeBirthdate] != 1 {
		t.Fatalf("expected 1 birthdate, got %d", types[domain.DateTypeBirthdate])
	}
	if types[domain.DateTypeGermanFull] != 1 {
		t.Fatalf("expected 1 German full date, got %d", types[domain.DateTypeGermanFull])
	}
	if types[domain.DateTypeNumeric] != 1 {
		t.Fatalf("expected 1 numeric date, got %d", types[domain.DateTypeNumeric])
	}
}

func TestFindAllDates_NumericSuppressedInsideBirthdate(t *testing.T) {
	shifter := NewDateShifter(0)

	dates := shifter.FindAllDates("geboren am *05.11.1960, sonst nichts")
	if len(dates) != 1 {
		t.Fatalf("expected exactly 1 match, got %d: %v", len(dates), dates)
	}
	if dates[0].Type != domain.DateTypeBirthdate {
		t.Fatalf("expected birthdate, got %s", dates[0].Type)
	}
}

func TestShiftDate_LongerAbbreviations(t *testing.T) {
	shifter := NewDateShifter(10)

	cases := map[string]string{
		"5. Sept. 2023":  "15. Sep. 2023",
		"5. Sept 2023":   "15. Sep. 2023",
		"1. Okt. 2023":   "11. Okt. 2023",
		"20. Dez. 2023":  "30. Dez. 2023",
		"5. Septem 2023": "15. Sep. 2023",
	}
	for in, want := range cases {
		if got := shifter.ShiftDate(in); got != want {
			t.Fatalf("ShiftDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShiftDate_UnknownMonthNameUnchanged(t *testing.T) {
	shifter := NewDateShifter(10)

	if got := shifter.ShiftDate("5. Brumaire 2023"); got != "5. Brumaire 2023" {
		t.Fatalf("expected input unchanged, got %s", got)
	}
}

func TestFindAllDates_LongerAbbreviations(t *testing.T) {
	shifter := NewDateShifter(0)

	dates := shifter.FindAllDates("Aufnahme am 5. Sept. 2023, Kontrolle am 3. Okt 2023")
	if len(dates) != 2 {
		t.Fatalf("expected 2 matches, got %d: %v", len(dates), dates)
	}
	for _, d := range dates {
		if d.Type != domain.DateTypeGermanFull {
			t.Fatalf("expected German date type, got %s", d.Type)
		}
	}
	if dates[0].Text != "5. Sept. 2023" {
		t.Fatalf("unexpected first match %q", dates[0].Text)
	}
}

func TestFindAllDates_IgnoresNonMonthWords(t *testing.T) {
	shifter := NewDateShifter(0)

	dates := shifter.FindAllDates("Ziffer 3. Absatz 2019 regelt die Aufbewahrung")
	if len(dates) != 0 {
		t.Fatalf("expected no matches, got %v", dates)
	}
}
