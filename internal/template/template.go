package template

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
	apperrors "github.com/jojospausch-web/redact-clinical-german/pkg/errors"
)

// Redaction modes for zones.
const (
	RedactionFull         = "full"
	RedactionKeywordBased = "keyword_based"
	RedactionNone         = "none"
)

// Date handling actions.
const (
	ActionShift         = "shift"
	ActionShiftRelative = "shift_relative"
	ActionRemove        = "remove"
)

// Zone is a fixed vertical band on a page with a redaction policy.
// YStart and YEnd are PDF points, origin at the bottom of the page.
type Zone struct {
	Page          *int                   `mapstructure:"page" json:"page,omitempty"`
	Pages         string                 `mapstructure:"pages" json:"pages,omitempty"`
	ExcludePage   *int                   `mapstructure:"exclude_page" json:"exclude_page,omitempty"`
	YStart        float64                `mapstructure:"y_start" json:"y_start"`
	YEnd          float64                `mapstructure:"y_end" json:"y_end"`
	Redaction     string                 `mapstructure:"redaction" json:"redaction"`
	PreserveLogos bool                   `mapstructure:"preserve_logos" json:"preserve_logos,omitempty"`
	Keywords      []string               `mapstructure:"keywords" json:"keywords,omitempty"`
	Extra         map[string]interface{} `mapstructure:",remain" json:"-"`
}

// AppliesTo reports whether the zone is active on the given page (1-indexed).
// Zones with neither a specific page nor a pages specification never apply.
func (z *Zone) AppliesTo(page int) bool {
	if z.Page != nil {
		return *z.Page == page
	}
	if z.Pages == "all" {
		return z.ExcludePage == nil || *z.ExcludePage != page
	}
	return false
}

// PatternGroup configures one structured PII pattern. Exactly one extraction
// mode is active: context-gated when ContextTrigger is set, multi-group when
// Groups is set, simple otherwise.
type PatternGroup struct {
	Pattern        string                 `mapstructure:"pattern" json:"pattern"`
	Groups         map[string]string      `mapstructure:"groups" json:"groups,omitempty"`
	Type           string                 `mapstructure:"type" json:"type,omitempty"`
	ContextTrigger string                 `mapstructure:"context_trigger" json:"context_trigger,omitempty"`
	Lookahead      int                    `mapstructure:"lookahead" json:"lookahead,omitempty"`
	Extra          map[string]interface{} `mapstructure:",remain" json:"-"`

	re *regexp.Regexp
}

// Regexp returns the pattern compiled at template load time.
func (p *PatternGroup) Regexp() *regexp.Regexp {
	return p.re
}

// Compile compiles the pattern. Multi-group patterns anchor per line and
// ignore case; the other modes use the pattern as written.
func (p *PatternGroup) Compile() error {
	expr := p.Pattern
	if len(p.Groups) > 0 {
		expr = "(?im)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return err
	}
	p.re = re
	return nil
}

// DateHandling configures how one family of dates is treated.
type DateHandling struct {
	Pattern        string                 `mapstructure:"pattern" json:"pattern"`
	Action         string                 `mapstructure:"action" json:"action"`
	ShiftDaysRange []int                  `mapstructure:"shift_days_range" json:"shift_days_range,omitempty"`
	Extra          map[string]interface{} `mapstructure:",remain" json:"-"`

	re *regexp.Regexp
}

// Regexp returns the pattern compiled at template load time.
func (d *DateHandling) Regexp() *regexp.Regexp {
	return d.re
}

// SignatureBlock redacts a fixed-height band below every occurrence of the
// trigger literal (the German closing salutation).
type SignatureBlock struct {
	Enabled     bool    `mapstructure:"enabled" json:"enabled"`
	Trigger     string  `mapstructure:"trigger" json:"trigger"`
	HeightBelow float64 `mapstructure:"height_below" json:"height_below"`
	Redaction   string  `mapstructure:"redaction" json:"redaction,omitempty"`
}

// LocationConfig enables contextual city recognition.
type LocationConfig struct {
	Enabled   bool     `mapstructure:"enabled" json:"enabled"`
	Blacklist []string `mapstructure:"blacklist" json:"blacklist,omitempty"`
}

// Template is the validated, immutable anonymization rule set for one run.
// Unknown keys survive round trips through the Extra maps instead of being
// rejected, so templates written for newer versions still load.
type Template struct {
	TemplateName          string                   `mapstructure:"template_name" json:"template_name"`
	Version               string                   `mapstructure:"version" json:"version"`
	Zones                 map[string]*Zone         `mapstructure:"zones" json:"zones"`
	StructuredPatterns    map[string]*PatternGroup `mapstructure:"structured_patterns" json:"structured_patterns"`
	DateHandling          map[string]*DateHandling `mapstructure:"date_handling" json:"date_handling"`
	ImagePIIPatterns      map[string]string        `mapstructure:"image_pii_patterns" json:"image_pii_patterns"`
	SignatureBlock        *SignatureBlock          `mapstructure:"signature_block" json:"signature_block,omitempty"`
	LocationAnonymization *LocationConfig          `mapstructure:"location_anonymization" json:"location_anonymization,omitempty"`
	PIIMechanisms         map[string]string        `mapstructure:"pii_mechanisms" json:"pii_mechanisms,omitempty"`
	Whitelist             []string                 `mapstructure:"whitelist" json:"whitelist,omitempty"`
	Extra                 map[string]interface{}   `mapstructure:",remain" json:"-"`

	imageRes map[string]*regexp.Regexp
}

// ImageRegexps returns the image PII patterns compiled at load time.
func (t *Template) ImageRegexps() map[string]*regexp.Regexp {
	return t.imageRes
}

// ShiftRange returns the configured birthdate shift range, or the default
// (-30, 30) when none is set.
func (t *Template) ShiftRange() (min, max int) {
	if bd, ok := t.DateHandling["birthdate"]; ok && len(bd.ShiftDaysRange) == 2 {
		return bd.ShiftDaysRange[0], bd.ShiftDaysRange[1]
	}
	return -30, 30
}

// Load reads, decodes and validates a template file. Pattern compilation
// happens here: a bad regex is a config error at load time, never a deferred
// per-call failure.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewConfigError("template file not found: "+path, domain.ErrTemplateNotFound)
		}
		return nil, apperrors.NewConfigError("failed to read template file", err)
	}
	return Parse(data)
}

// Parse decodes and validates raw template JSON.
func Parse(data []byte) (*Template, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.NewConfigError("malformed template JSON", err)
	}

	tpl := &Template{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           tpl,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build template decoder", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, apperrors.NewConfigError("template does not match expected shape", err)
	}

	if errs := tpl.validate(raw); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, ve := range errs {
			msgs = append(msgs, ve.Error())
		}
		cfgErr := apperrors.NewConfigError("template validation failed", domain.ErrInvalidTemplate)
		cfgErr.Details = strings.Join(msgs, "; ")
		return nil, cfgErr
	}

	if err := tpl.compile(); err != nil {
		return nil, err
	}
	return tpl, nil
}

// validate collects field-path + message pairs for every violation instead of
// stopping at the first.
func (t *Template) validate(raw map[string]interface{}) []*domain.ValidationError {
	var errs []*domain.ValidationError

	required := []string{"template_name", "version", "zones", "structured_patterns", "date_handling", "image_pii_patterns"}
	for _, key := range required {
		if _, ok := raw[key]; !ok {
			errs = append(errs, &domain.ValidationError{Field: key, Message: "required field missing"})
		}
	}

	for name, zone := range t.Zones {
		field := "zones." + name
		if zone.YStart >= zone.YEnd {
			errs = append(errs, &domain.ValidationError{Field: field, Message: "y_start must be less than y_end"})
		}
		switch zone.Redaction {
		case RedactionFull, RedactionKeywordBased, RedactionNone:
		default:
			errs = append(errs, &domain.ValidationError{Field: field + ".redaction", Message: "must be one of full, keyword_based, none"})
		}
		if zone.Redaction == RedactionKeywordBased && len(zone.Keywords) == 0 {
			errs = append(errs, &domain.ValidationError{Field: field + ".keywords", Message: "keyword_based redaction requires keywords"})
		}
		if zone.Page != nil && zone.Pages != "" {
			errs = append(errs, &domain.ValidationError{Field: field, Message: "page and pages are mutually exclusive"})
		}
		if zone.Pages != "" && zone.Pages != "all" {
			errs = append(errs, &domain.ValidationError{Field: field + ".pages", Message: `only "all" is supported`})
		}
	}

	for name, dh := range t.DateHandling {
		field := "date_handling." + name
		switch dh.Action {
		case ActionShift, ActionShiftRelative, ActionRemove:
		default:
			errs = append(errs, &domain.ValidationError{Field: field + ".action", Message: "must be one of shift, shift_relative, remove"})
		}
		if len(dh.ShiftDaysRange) != 0 && len(dh.ShiftDaysRange) != 2 {
			errs = append(errs, &domain.ValidationError{Field: field + ".shift_days_range", Message: "must be a [min, max] pair"})
		}
	}

	if t.SignatureBlock != nil && t.SignatureBlock.Enabled {
		if t.SignatureBlock.Trigger == "" {
			errs = append(errs, &domain.ValidationError{Field: "signature_block.trigger", Message: "required when enabled"})
		}
		if t.SignatureBlock.HeightBelow <= 0 {
			errs = append(errs, &domain.ValidationError{Field: "signature_block.height_below", Message: "must be positive"})
		}
	}

	return errs
}

// compile builds every regex once.
func (t *Template) compile() error {
	for name, pg := range t.StructuredPatterns {
		if err := pg.Compile(); err != nil {
			cfgErr := apperrors.NewConfigError(fmt.Sprintf("invalid pattern %q", name), err)
			cfgErr.Details = "structured_patterns." + name + ".pattern: " + err.Error()
			return cfgErr
		}
	}

	for name, dh := range t.DateHandling {
		re, err := regexp.Compile(dh.Pattern)
		if err != nil {
			cfgErr := apperrors.NewConfigError(fmt.Sprintf("invalid date pattern %q", name), err)
			cfgErr.Details = "date_handling." + name + ".pattern: " + err.Error()
			return cfgErr
		}
		dh.re = re
	}

	t.imageRes = make(map[string]*regexp.Regexp, len(t.ImagePIIPatterns))
	for name, expr := range t.ImagePIIPatterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			cfgErr := apperrors.NewConfigError(fmt.Sprintf("invalid image pattern %q", name), err)
			cfgErr.Details = "image_pii_patterns." + name + ": " + err.Error()
			return cfgErr
		}
		t.imageRes[name] = re
	}
	return nil
}
