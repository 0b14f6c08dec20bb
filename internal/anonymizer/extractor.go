package anonymizer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
	"github.com/jojospausch-web/redact-clinical-german/internal/template"
)

const defaultLookahead = 200

// StructuredPIIExtractor extracts PII from predefined contexts using
// configured regex pattern groups. It deliberately performs no statistical
// NER; medical terms are only suppressed through the explicit whitelist.
type StructuredPIIExtractor struct {
	patterns  map[string]*template.PatternGroup
	whitelist map[string]struct{}
}

// NewStructuredPIIExtractor creates an extractor over compiled template
// patterns. Whitelisted terms are never emitted as entities.
func NewStructuredPIIExtractor(patterns map[string]*template.PatternGroup, whitelist []string) *StructuredPIIExtractor {
	wl := make(map[string]struct{}, len(whitelist))
	for _, term := range whitelist {
		wl[strings.ToLower(term)] = struct{}{}
	}
	return &StructuredPIIExtractor{patterns: patterns, whitelist: wl}
}

// ExtractPII runs every configured pattern against the text. Result order is
// not positional and duplicates across distinct pattern names are possible;
// deduplication beyond the whole-word filter is the caller's responsibility.
func (e *StructuredPIIExtractor) ExtractPII(text string) []domain.PIIEntity {
	var entities []domain.PIIEntity

	for _, config := range e.patterns {
		switch {
		case config.ContextTrigger != "":
			entities = append(entities, e.extractWithContext(text, config)...)
		case len(config.Groups) > 0:
			entities = append(entities, e.extractWithGroups(text, config)...)
		default:
			entities = append(entities, e.extractSimple(text, config)...)
		}
	}

	return entities
}

// extractSimple emits the first capture group when the pattern has one,
// otherwise the whole match.
func (e *StructuredPIIExtractor) extractSimple(text string, config *template.PatternGroup) []domain.PIIEntity {
	var entities []domain.PIIEntity
	re := config.Regexp()

	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		if re.NumSubexp() > 0 && loc[2] >= 0 {
			start, end = loc[2], loc[3]
		}
		if !e.accept(text, start, end) {
			continue
		}
		entityType := config.Type
		if entityType == "" {
			entityType = "UNKNOWN"
		}
		entities = append(entities, domain.PIIEntity{
			Text:       text[start:end],
			EntityType: entityType,
			StartPos:   start,
			EndPos:     end,
		})
	}

	return entities
}

// extractWithGroups emits one entity per configured, non-empty capture group
// of every match, carrying the full match as context.
func (e *StructuredPIIExtractor) extractWithGroups(text string, config *template.PatternGroup) []domain.PIIEntity {
	var entities []domain.PIIEntity
	re := config.Regexp()

	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		fullMatch := text[loc[0]:loc[1]]
		for groupKey, entityType := range config.Groups {
			idx, err := strconv.Atoi(groupKey)
			if err != nil || idx < 1 || idx > re.NumSubexp() {
				continue
			}
			start, end := loc[2*idx], loc[2*idx+1]
			if start < 0 || start == end {
				continue
			}
			if !e.accept(text, start, end) {
				continue
			}
			entities = append(entities, domain.PIIEntity{
				Text:       text[start:end],
				EntityType: entityType,
				StartPos:   start,
				EndPos:     end,
				Context:    fullMatch,
			})
		}
	}

	return entities
}

// extractWithContext applies the pattern only within a bounded window after
// the first occurrence of the trigger literal. Without the trigger the
// pattern contributes nothing, no matter what it would otherwise match.
func (e *StructuredPIIExtractor) extractWithContext(text string, config *template.PatternGroup) []domain.PIIEntity {
	var entities []domain.PIIEntity

	triggerPos := strings.Index(text, config.ContextTrigger)
	if triggerPos == -1 {
		return entities
	}

	lookahead := config.Lookahead
	if lookahead <= 0 {
		lookahead = defaultLookahead
	}
	searchStart := triggerPos + len(config.ContextTrigger)
	searchEnd := searchStart + lookahead
	if searchEnd > len(text) {
		searchEnd = len(text)
	}
	window := text[searchStart:searchEnd]

	for _, loc := range config.Regexp().FindAllStringIndex(window, -1) {
		// Translate back to full-text coordinates before any boundary check.
		start := searchStart + loc[0]
		end := searchStart + loc[1]
		if !e.accept(text, start, end) {
			continue
		}
		entityType := config.Type
		if entityType == "" {
			entityType = "CONTEXT_BASED"
		}
		entities = append(entities, domain.PIIEntity{
			Text:       text[start:end],
			EntityType: entityType,
			StartPos:   start,
			EndPos:     end,
			Context:    config.ContextTrigger,
		})
	}

	return entities
}

// accept applies the whole-word boundary filter against the full source text
// and the whitelist.
func (e *StructuredPIIExtractor) accept(text string, start, end int) bool {
	if !isWholeWord(text, start, end) {
		return false
	}
	if _, ok := e.whitelist[strings.ToLower(text[start:end])]; ok {
		return false
	}
	return true
}

// isWholeWord rejects a span whose immediate neighbor on either side is
// alphanumeric, so a known term never matches as a substring of a longer word
// (Hamburg inside Roshamburger, Klappe inside Aortenklappenbioprothese).
func isWholeWord(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
