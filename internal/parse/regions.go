package parse

import (
	"regexp"
	"strings"

	"github.com/ruspass-tech/ruspass/internal/document"
)

// Bounded capture lengths, in runes. A misrecognized stop marker must not
// let a free-text region absorb the rest of the page.
const (
	maxIssuePlace = 500
	maxBirthPlace = 150
	maxAddress    = 450
)

var (
	authorityRe = regexp.MustCompile(`\b(\d{3}-\d{3})\b`)
	innRe       = regexp.MustCompile(`\b(\d{12})\b`)
	genderRe    = regexp.MustCompile(`(?i)пол[:\s]*(муж|жен|м|ж|male|female)`)

	issuePlaceRe = regexp.MustCompile(`(?is)(?:паспорт\s+выдан|кем\s+выдан|выдан)[:\s]*([А-Яа-яЁё0-9№\s,.\-/]+?)(?:дата\s+выдачи|код|$)`)
	birthPlaceRe = regexp.MustCompile(`(?is)(?:место\s+рождения|рождения)[:\s]*([А-Яа-яЁёA-Za-z\s,.\-]+?)(?:\d{1,2}[.\-]\d|$)`)
	birthTownRe  = regexp.MustCompile(`(?s)ГОР\.\s*([А-Яа-яЁёA-Za-z\s\-]+?)(?:\d{1,2}\.\d|\n\n|$)`)

	addressRe = regexp.MustCompile(`(?is)зарегистрирован[а]?[:\s]*([А-Яа-яЁё0-9№\s,.\-/]+?)(?:семейное|дети|кем\s+выдан|паспорт|\n\n|$)`)

	startsDigitRe = regexp.MustCompile(`^\d`)
)

// addressParts are the labeled component patterns assembled when no single
// registration span can be captured.
var addressParts = []struct {
	prefix string
	re     *regexp.Regexp
}{
	{"г. ", regexp.MustCompile(`(?i)(?:пункт|гор\.?|город)[:\s]*([А-Яа-яЁё\-\s]+?)(?:\n|р-н|улица|дом|$)`)},
	{"р-н ", regexp.MustCompile(`(?i)р-н[:\s]*([А-Яа-яЁё\-]+)`)},
	{"", regexp.MustCompile(`(?i)(?:улица|ул\.?)[:\s]*([А-Яа-яЁё0-9\s\-]+?)(?:\n|дом|корп|кв|$)`)},
	{"д. ", regexp.MustCompile(`(?i)(?:дом|д\.)[:\s]*(\d+[\s\-]*(?:корп\.?\s*[\-\d]*)?)`)},
	{"кв. ", regexp.MustCompile(`(?i)(?:кв\.?|квартира)[:\s]*(\d+)`)},
}

// extractAuthorityCode finds the NNN-NNN issuing-subdivision code. The
// format is rigid and distinctive, so no fallback is needed.
func (p *Parser) extractAuthorityCode(t text) document.FieldValue {
	if m := authorityRe.FindStringSubmatch(t.full); m != nil {
		return ocr(m[1], confAuthority)
	}
	return ocr("", 0)
}

// ExtractINN returns a standalone 12-digit tax payer number if present.
// It feeds the tabular export and is not part of the passport field set.
func ExtractINN(rawText string) string {
	if m := innRe.FindStringSubmatch(rawText); m != nil {
		return m[1]
	}
	return ""
}

func (p *Parser) extractGender(t text) document.FieldValue {
	m := genderRe.FindStringSubmatch(t.full)
	if m == nil {
		return ocr("", 0)
	}
	v := strings.ToLower(m[1])
	switch {
	case strings.HasPrefix(v, "муж"), v == "м", v == "male":
		return ocr("M", confGender)
	case strings.HasPrefix(v, "жен"), v == "ж", v == "female":
		return ocr("F", confGender)
	}
	return ocr("", 0)
}

// extractIssuePlace captures the issuing-authority text between its start
// label and the nearest stop marker, appending the subdivision code when
// the captured span does not already contain it.
func (p *Parser) extractIssuePlace(t text) document.FieldValue {
	var subdiv string
	if m := authorityRe.FindStringSubmatch(t.full); m != nil {
		subdiv = m[1]
	}
	if m := issuePlaceRe.FindStringSubmatch(t.full); m != nil {
		val := truncateRunes(collapse(m[1]), maxIssuePlace)
		if val != "" {
			if subdiv != "" && !strings.Contains(val, subdiv) {
				val = strings.TrimSpace(val + " " + subdiv)
			}
			return ocr(val, confRegion)
		}
	}
	if subdiv != "" {
		return ocr(subdiv, 0.6)
	}
	return ocr("", 0)
}

func (p *Parser) extractBirthPlace(t text) document.FieldValue {
	if m := birthPlaceRe.FindStringSubmatch(t.full); m != nil {
		val := truncateRunes(collapse(m[1]), maxBirthPlace)
		if val != "" && !startsDigitRe.MatchString(val) {
			return ocr(val, confBirthPl)
		}
	}
	if m := birthTownRe.FindStringSubmatch(t.full); m != nil {
		val := truncateRunes("гор. "+strings.TrimSpace(m[1]), maxBirthPlace)
		return ocr(strings.TrimSpace(val), confRegionAlt)
	}
	return ocr("", 0)
}

// extractAddress captures the registration address: first the span after
// the registration marker, then an assembly of labeled components
// (town, district, street, house, apartment).
func (p *Parser) extractAddress(t text) document.FieldValue {
	if m := addressRe.FindStringSubmatch(t.full); m != nil {
		val := collapse(m[1])
		if len([]rune(val)) > 15 {
			return ocr(truncateRunes(val, maxAddress), confRegion)
		}
	}
	var parts []string
	for _, ap := range addressParts {
		if m := ap.re.FindStringSubmatch(t.full); m != nil {
			if v := collapse(m[1]); v != "" {
				parts = append(parts, ap.prefix+v)
			}
		}
	}
	if len(parts) > 0 {
		return ocr(truncateRunes(strings.Join(parts, ", "), maxAddress), confRegionAlt)
	}
	return ocr("", 0)
}
