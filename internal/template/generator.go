package template

// Standard A4 height in PDF points.
const a4Height = 842.0

// CustomSettings are the user-tunable zone parameters for generated templates.
// Header height is measured from the top of the page, footer height from the
// bottom, both in A4 points.
type CustomSettings struct {
	HeaderHeight   float64
	HeaderPage     string // "1" for first page only, "all" for all pages
	FooterHeight   float64
	FooterKeywords []string
}

// Customize derives a new template from base with the header and footer zones
// replaced according to the settings. The base template is not modified.
func Customize(base *Template, settings CustomSettings) *Template {
	out := *base
	out.Zones = make(map[string]*Zone, len(base.Zones)+2)
	for name, zone := range base.Zones {
		if name == "header" || name == "footer" {
			continue
		}
		out.Zones[name] = zone
	}

	// Header height is given from the top; page coordinates run from the
	// bottom, so the band starts at a4Height - height.
	header := &Zone{
		YStart:        a4Height - settings.HeaderHeight,
		YEnd:          a4Height,
		Redaction:     RedactionFull,
		PreserveLogos: true,
	}
	if settings.HeaderPage == "1" {
		one := 1
		header.Page = &one
	} else {
		header.Pages = "all"
	}
	out.Zones["header"] = header

	footer := &Zone{
		Pages:     "all",
		YStart:    0,
		YEnd:      settings.FooterHeight,
		Redaction: RedactionFull,
	}
	if len(settings.FooterKeywords) > 0 {
		footer.Redaction = RedactionKeywordBased
		footer.Keywords = settings.FooterKeywords
	}
	out.Zones["footer"] = footer

	return &out
}
