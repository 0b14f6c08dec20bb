package anonymizer

import (
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
	"github.com/jojospausch-web/redact-clinical-german/internal/template"
)

type fakePage struct {
	number  int
	width   float64
	height  float64
	text    string
	places  map[string][]domain.Rect
	images  []domain.PageImage
	marks   []domain.RedactionMark
	textErr error
}

func (p *fakePage) Number() int              { return p.number }
func (p *fakePage) Size() (float64, float64) { return p.width, p.height }
func (p *fakePage) Text() (string, error)    { return p.text, p.textErr }
func (p *fakePage) Images() ([]domain.PageImage, error) {
	return p.images, nil
}

func (p *fakePage) Search(literal string) ([]domain.Rect, error) {
	return p.places[literal], nil
}

func (p *fakePage) AddRedaction(mark domain.RedactionMark) {
	p.marks = append(p.marks, mark)
}

func (p *fakePage) Render(scale float64) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, int(p.width*scale), int(p.height*scale))), nil
}

type fakeDocument struct {
	pages    []*fakePage
	applied  bool
	saved    string
	applyErr error
	saveErr  error
}

func (d *fakeDocument) PageCount() int { return len(d.pages) }

func (d *fakeDocument) Page(index int) (domain.Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, domain.ErrPageOutOfRange
	}
	return d.pages[index], nil
}

func (d *fakeDocument) ApplyRedactions() error {
	if d.applyErr != nil {
		return d.applyErr
	}
	d.applied = true
	return nil
}

func (d *fakeDocument) Save(path string) error {
	if d.saveErr != nil {
		return d.saveErr
	}
	d.saved = path
	return nil
}

func (d *fakeDocument) Close() error { return nil }

func newA4Page(number int, text string) *fakePage {
	return &fakePage{
		number: number,
		width:  595,
		height: 842,
		text:   text,
		places: map[string][]domain.Rect{},
	}
}

func intPtr(v int) *int { return &v }

func testTemplate(t *testing.T, tpl *template.Template) *template.Template {
	t.Helper()
	for _, pg := range tpl.StructuredPatterns {
		if err := pg.Compile(); err != nil {
			t.Fatalf("failed to compile pattern: %v", err)
		}
	}
	return tpl
}

func marksWithFill(page *fakePage, fill domain.RedactionFill) []domain.RedactionMark {
	var out []domain.RedactionMark
	for _, m := range page.marks {
		if m.Fill == fill {
			out = append(out, m)
		}
	}
	return out
}

func TestAnonymizePDF_FullZoneOnFirstPageOnly(t *testing.T) {
	tpl := testTemplate(t, &template.Template{
		Zones: map[string]*template.Zone{
			"header": {Page: intPtr(1), YStart: 742, YEnd: 842, Redaction: template.RedactionFull},
		},
	})
	doc := &fakeDocument{pages: []*fakePage{newA4Page(1, ""), newA4Page(2, "")}}

	anon := NewZoneBasedAnonymizer(tpl, nil, nil, NewDateShifter(0), noopLogger{})
	stats, err := anon.AnonymizePDF(doc, "out.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.TotalPages != 2 || stats.ZonesRedacted != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(doc.pages[0].marks) != 1 || len(doc.pages[1].marks) != 0 {
		t.Fatalf("expected zone on page 1 only, got %d/%d marks", len(doc.pages[0].marks), len(doc.pages[1].marks))
	}

	mark := doc.pages[0].marks[0]
	want := domain.Rect{X0: 0, Y0: 742, X1: 595, Y1: 842}
	if mark.Rect != want || mark.Fill != domain.FillBlack {
		t.Fatalf("unexpected mark %+v", mark)
	}
	if !doc.applied || doc.saved != "out.pdf" {
		t.Fatalf("expected redactions applied and document saved, got applied=%v saved=%q", doc.applied, doc.saved)
	}
}

func TestAnonymizePDF_AllPagesWithExclusion(t *testing.T) {
	tpl := testTemplate(t, &template.Template{
		Zones: map[string]*template.Zone{
			"footer": {Pages: "all", ExcludePage: intPtr(2), YStart: 0, YEnd: 60, Redaction: template.RedactionFull},
		},
	})
	doc := &fakeDocument{pages: []*fakePage{newA4Page(1, ""), newA4Page(2, ""), newA4Page(3, "")}}

	anon := NewZoneBasedAnonymizer(tpl, nil, nil, NewDateShifter(0), noopLogger{})
	if _, err := anon.AnonymizePDF(doc, "out.pdf"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(doc.pages[0].marks) != 1 || len(doc.pages[1].marks) != 0 || len(doc.pages[2].marks) != 1 {
		t.Fatalf("expected excluded page untouched, got %d/%d/%d marks",
			len(doc.pages[0].marks), len(doc.pages[1].marks), len(doc.pages[2].marks))
	}
}

func TestAnonymizePDF_ZoneWithoutPageSpecSkipped(t *testing.T) {
	tpl := testTemplate(t, &template.Template{
		Zones: map[string]*template.Zone{
			"orphan": {YStart: 0, YEnd: 100, Redaction: template.RedactionFull},
		},
	})
	doc := &fakeDocument{pages: []*fakePage{newA4Page(1, "")}}

	anon := NewZoneBasedAnonymizer(tpl, nil, nil, NewDateShifter(0), noopLogger{})
	stats, err := anon.AnonymizePDF(doc, "out.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ZonesRedacted != 0 || len(doc.pages[0].marks) != 0 {
		t.Fatalf("expected zone skipped, got stats %+v", stats)
	}
}

func TestAnonymizePDF_KeywordZoneRedactsOnlyInsideBand(t *testing.T) {
	tpl := testTemplate(t, &template.Template{
		Zones: map[string]*template.Zone{
			"footer": {
				Pages:     "all",
				YStart:    0,
				YEnd:      100,
				Redaction: template.RedactionKeywordBased,
				Keywords:  []string{"Telefon"},
			},
		},
	})
	page := newA4Page(1, "")
	page.places["Telefon"] = []domain.Rect{
		{X0: 50, Y0: 40, X1: 120, Y1: 52},   // inside the band
		{X0: 50, Y0: 700, X1: 120, Y1: 712}, // outside
	}
	doc := &fakeDocument{pages: []*fakePage{page}}

	anon := NewZoneBasedAnonymizer(tpl, nil, nil, NewDateShifter(0), noopLogger{})
	stats, err := anon.AnonymizePDF(doc, "out.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.ZonesRedacted != 1 || len(page.marks) != 1 {
		t.Fatalf("expected only the in-band occurrence redacted, got %+v", page.marks)
	}
	if page.marks[0].Rect.Y1 != 52 {
		t.Fatalf("wrong occurrence redacted: %+v", page.marks[0])
	}
}

func TestAnonymizePDF_LogoPreservationCarvesAroundImage(t *testing.T) {
	tpl := testTemplate(t, &template.Template{
		Zones: map[string]*template.Zone{
			"header": {Page: intPtr(1), YStart: 700, YEnd: 842, Redaction: template.RedactionFull, PreserveLogos: true},
		},
	})
	page := newA4Page(1, "")
	logo := domain.Rect{X0: 40, Y0: 760, X1: 160, Y1: 820}
	page.images = []domain.PageImage{{Index: 0, Rect: logo}}
	doc := &fakeDocument{pages: []*fakePage{page}}

	anon := NewZoneBasedAnonymizer(tpl, nil, nil, NewDateShifter(0), noopLogger{})
	stats, err := anon.AnonymizePDF(doc, "out.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.ZonesRedacted != 1 {
		t.Fatalf("expected one zone counted, got %+v", stats)
	}
	if len(page.marks) != 4 {
		t.Fatalf("expected 4 carved rectangles, got %d: %v", len(page.marks), page.marks)
	}
	for _, m := range page.marks {
		if m.Rect.Intersects(logo) {
			t.Fatalf("mark overlaps the preserved logo: %+v", m)
		}
	}
}

func TestAnonymizePDF_LogoPreservationWithoutImages(t *testing.T) {
	tpl := testTemplate(t, &template.Template{
		Zones: map[string]*template.Zone{
			"header": {Page: intPtr(1), YStart: 700, YEnd: 842, Redaction: template.RedactionFull, PreserveLogos: true},
		},
	})
	page := newA4Page(1, "")
	doc := &fakeDocument{pages: []*fakePage{page}}

	anon := NewZoneBasedAnonymizer(tpl, nil, nil, NewDateShifter(0), noopLogger{})
	if _, err := anon.AnonymizePDF(doc, "out.pdf"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.marks) != 1 {
		t.Fatalf("expected full band redacted, got %v", page.marks)
	}
	want := domain.Rect{X0: 0, Y0: 700, X1: 595, Y1: 842}
	if page.marks[0].Rect != want {
		t.Fatalf("unexpected band %+v", page.marks[0])
	}
}

func TestAnonymizePDF_SignatureBlockBelowEveryTrigger(t *testing.T) {
	tpl := testTemplate(t, &template.Template{
		SignatureBlock: &template.SignatureBlock{
			Enabled:     true,
			Trigger:     "Mit freundlichen Grüßen",
			HeightBelow: 120,
		},
	})
	page := newA4Page(1, "")
	page.places["Mit freundlichen Grüßen"] = []domain.Rect{
		{X0: 70, Y0: 400, X1: 220, Y1: 412},
		{X0: 70, Y0: 60, X1: 220, Y1: 72},
	}
	doc := &fakeDocument{pages: []*fakePage{page}}

	anon := NewZoneBasedAnonymizer(tpl, nil, nil, NewDateShifter(0), noopLogger{})
	if _, err := anon.AnonymizePDF(doc, "out.pdf"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.marks) != 2 {
		t.Fatalf("expected a block below each trigger, got %v", page.marks)
	}
	first := page.marks[0].Rect
	if first.X0 != 0 || first.X1 != 595 || first.Y1 != 400 || first.Y0 != 280 {
		t.Fatalf("unexpected signature band %+v", first)
	}
	// Second trigger sits near the bottom edge; the band is clamped at 0.
	second := page.marks[1].Rect
	if second.Y0 != 0 || second.Y1 != 60 {
		t.Fatalf("expected clamped band, got %+v", second)
	}
}

func TestAnonymizePDF_DateEntitiesGetWhiteFillWithShiftedText(t *testing.T) {
	tpl := testTemplate(t, &template.Template{
		StructuredPatterns: map[string]*template.PatternGroup{
			"birthdate": {Pattern: `\*(\d{2}\.\d{2}\.\d{4})`, Type: "BIRTHDATE"},
			"case_id":   {Pattern: `Pat\.-Nr\.\s*([0-9]{6,10})`, Type: "CASE_ID"},
		},
	})
	page := newA4Page(1, "Herr Müller, *01.01.1960, Pat.-Nr. 123456789")
	page.places["01.01.1960"] = []domain.Rect{{X0: 100, Y0: 500, X1: 160, Y1: 512}}
	page.places["123456789"] = []domain.Rect{{X0: 300, Y0: 500, X1: 360, Y1: 512}}
	doc := &fakeDocument{pages: []*fakePage{page}}

	anon := NewZoneBasedAnonymizer(tpl, nil, nil, NewDateShifter(10), noopLogger{})
	stats, err := anon.AnonymizePDF(doc, "out.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.PIIEntitiesFound != 2 || stats.DatesShifted != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	white := marksWithFill(page, domain.FillWhite)
	if len(white) != 1 {
		t.Fatalf("expected 1 white mark, got %v", page.marks)
	}
	if white[0].Replacement != "11.01.1960" {
		t.Fatalf("expected shifted date replacement, got %q", white[0].Replacement)
	}

	black := marksWithFill(page, domain.FillBlack)
	if len(black) != 1 || black[0].Replacement != "" {
		t.Fatalf("expected 1 plain black mark, got %v", black)
	}
}

func TestAnonymizePDF_LocationAndFacilityFindersByConfiguration(t *testing.T) {
	tpl := testTemplate(t, &template.Template{
		LocationAnonymization: &template.LocationConfig{Enabled: true},
	})
	page := newA4Page(1, "Der Patient kam aus Darmstadt ins UKE.")
	page.places["Darmstadt"] = []domain.Rect{{X0: 100, Y0: 300, X1: 160, Y1: 312}}
	page.places["UKE"] = []domain.Rect{{X0: 200, Y0: 300, X1: 230, Y1: 312}}
	doc := &fakeDocument{pages: []*fakePage{page}}

	locations := NewContextAwareLocationAnonymizer(testCityDB(), nil)
	facilities := NewMedicalFacilityAnonymizer(testFacilityDB())

	anon := NewZoneBasedAnonymizer(tpl, locations, facilities, NewDateShifter(0), noopLogger{})
	stats, err := anon.AnonymizePDF(doc, "out.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.PIIEntitiesFound != 2 {
		t.Fatalf("expected city and facility entities, got %+v", stats)
	}
	if len(page.marks) != 2 {
		t.Fatalf("expected 2 marks, got %v", page.marks)
	}
}

func TestAnonymizePDF_LocationFinderDisabledByTemplate(t *testing.T) {
	tpl := testTemplate(t, &template.Template{
		LocationAnonymization: &template.LocationConfig{Enabled: false},
	})
	page := newA4Page(1, "Der Patient kam aus Darmstadt.")
	page.places["Darmstadt"] = []domain.Rect{{X0: 100, Y0: 300, X1: 160, Y1: 312}}
	doc := &fakeDocument{pages: []*fakePage{page}}

	locations := NewContextAwareLocationAnonymizer(testCityDB(), nil)
	anon := NewZoneBasedAnonymizer(tpl, locations, nil, NewDateShifter(0), noopLogger{})
	stats, err := anon.AnonymizePDF(doc, "out.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.PIIEntitiesFound != 0 || len(page.marks) != 0 {
		t.Fatalf("expected finder disabled, got stats %+v", stats)
	}
}

func TestAnonymizePDF_FatalErrorAbortsRun(t *testing.T) {
	tpl := testTemplate(t, &template.Template{})
	page := newA4Page(1, "")
	page.textErr = errors.New("xref damaged")
	doc := &fakeDocument{pages: []*fakePage{page}}

	anon := NewZoneBasedAnonymizer(tpl, nil, nil, NewDateShifter(0), noopLogger{})
	_, err := anon.AnonymizePDF(doc, "out.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "xref damaged") {
		t.Fatalf("expected cause preserved, got %v", err)
	}
	if doc.applied || doc.saved != "" {
		t.Fatal("expected no output on fatal error")
	}
}
