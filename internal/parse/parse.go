// Package parse implements the field-extraction engine: it turns raw,
// weakly-delimited OCR text into a confidence-scored passport field set.
// Each field is extracted by an ordered list of strategies, label-anchored
// first, positional or pattern-based fallbacks after. Parsing is a pure,
// deterministic function of the input text and never fails: a field whose
// strategies all miss stays empty with confidence 0.
package parse

import (
	"regexp"
	"strings"

	"github.com/ruspass-tech/ruspass/internal/document"
)

// Confidence levels assigned by the individual strategies. A label-anchored
// hit is trusted more than a structural fallback.
const (
	confLabel     = 0.7
	confTriple    = 0.75
	confDate      = 0.85
	confDateOrder = 0.7
	confSeries    = 0.85
	confSeriesAlt = 0.8
	confAuthority = 0.9
	confGender    = 0.9
	confRegion    = 0.8
	confRegionAlt = 0.7
	confBirthPl   = 0.85
)

var wsRe = regexp.MustCompile(`\s+`)

// Parser extracts passport fields from OCR text using a locale rule set.
type Parser struct {
	rules *Rules
}

// NewParser returns a parser using the given rules, or the defaults when
// rules is nil.
func NewParser(rules *Rules) *Parser {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Parser{rules: rules}
}

// text is the shared normalized view of one input handed to the strategies.
type text struct {
	full  string   // trimmed original, newlines preserved
	norm  string   // whitespace collapsed to single spaces
	lines []string // non-empty trimmed lines
}

func newText(raw string) text {
	full := strings.TrimSpace(raw)
	t := text{
		full: full,
		norm: wsRe.ReplaceAllString(full, " "),
	}
	for _, ln := range strings.Split(full, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			t.lines = append(t.lines, ln)
		}
	}
	return t
}

// Parse extracts all fields from the OCR text. The returned set has every
// key present; unmatched fields stay empty with confidence 0.
func (p *Parser) Parse(raw string) document.FieldSet {
	fields := document.NewFieldSet()
	if strings.TrimSpace(raw) == "" {
		return fields
	}
	t := newText(raw)

	surname, name, patronymic := p.extractNameTriple(t)
	fields.Set(document.FieldSurname, surname)
	fields.Set(document.FieldName, name)
	fields.Set(document.FieldPatronymic, patronymic)

	fields.Set(document.FieldGender, p.extractGender(t))

	birth, issue := p.extractDates(t)
	fields.Set(document.FieldBirthDate, birth)
	fields.Set(document.FieldIssueDate, issue)

	fields.Set(document.FieldBirthPlace, p.extractBirthPlace(t))

	series, number := p.extractSeriesNumber(t)
	fields.Set(document.FieldPassportSeries, series)
	fields.Set(document.FieldPassportNumber, number)

	fields.Set(document.FieldIssuePlace, p.extractIssuePlace(t))
	fields.Set(document.FieldAuthorityCode, p.extractAuthorityCode(t))
	fields.Set(document.FieldRegistrationAddress, p.extractAddress(t))

	return fields
}

// ocr returns a FieldValue tagged with the OCR source.
func ocr(value string, confidence float64) document.FieldValue {
	return document.NewFieldValue(value, confidence, document.SourceOCR)
}

// truncateRunes bounds a captured region so a misrecognized stop marker
// cannot let the capture absorb unrelated downstream text.
func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) > max {
		return string(r[:max])
	}
	return s
}

// collapse squeezes internal whitespace runs into single spaces.
func collapse(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}
