package parse

import (
	"regexp"
	"strings"

	"github.com/ruspass-tech/ruspass/internal/document"
)

var (
	split226Re = regexp.MustCompile(`\b(\d{2})[\s\-]?(\d{2})[\s\-]?(\d{6})\b`)
	split46Re  = regexp.MustCompile(`\b(\d{4})[\s\-]?(\d{6})\b`)
	nonDigitRe = regexp.MustCompile(`\D`)
	datePosRe  = regexp.MustCompile(`\d{1,2}[.\-]\d{1,2}[.\-]\d{4}`)
)

// seriesCandidate is one structurally valid series+number hit together with
// its position in the text it was found in, used for the date-proximity
// tie-break.
type seriesCandidate struct {
	src    string
	pos    int
	series string
	number string
}

// seriesOK applies the guards shared by every strategy: six number digits,
// the year-prefix exclusion (a printed date mis-segmented as the series
// starts with 19 or 20), and the configurable prefix denylist.
func (p *Parser) seriesOK(series, number string) bool {
	if len(series) != 4 || len(number) != 6 {
		return false
	}
	if strings.HasPrefix(series, "19") || strings.HasPrefix(series, "20") {
		return false
	}
	for _, pre := range p.rules.SeriesPrefixDenylist {
		if pre != "" && strings.HasPrefix(series, pre) {
			return false
		}
	}
	return true
}

// extractSeriesNumber finds the 4-digit series and 6-digit number. It
// collects every structurally valid 2+2+6 or 4+6 candidate, prefers the one
// closest before a date pattern (the series is printed adjacent to the
// issue-date block), and as a last resort scans the digits-only projection
// of the whole text for a contiguous 10-digit run passing the same guards.
func (p *Parser) extractSeriesNumber(t text) (series, number document.FieldValue) {
	var candidates []seriesCandidate
	for _, txt := range []string{t.norm, t.full} {
		for _, m := range split226Re.FindAllStringSubmatchIndex(txt, -1) {
			s := txt[m[2]:m[3]] + txt[m[4]:m[5]]
			n := txt[m[6]:m[7]]
			if p.seriesOK(s, n) {
				candidates = append(candidates, seriesCandidate{src: txt, pos: m[0], series: s, number: n})
			}
		}
		for _, m := range split46Re.FindAllStringSubmatchIndex(txt, -1) {
			s := txt[m[2]:m[3]]
			n := txt[m[4]:m[5]]
			if p.seriesOK(s, n) {
				candidates = append(candidates, seriesCandidate{src: txt, pos: m[0], series: s, number: n})
			}
		}
	}

	if len(candidates) == 0 {
		digits := nonDigitRe.ReplaceAllString(t.full, "")
		if s, n, ok := p.ScanDigitRun(digits); ok {
			return ocr(s, confSeriesAlt), ocr(n, confSeriesAlt)
		}
		return ocr("", 0), ocr("", 0)
	}

	best := candidates[0]
	bestDist := -1
	for _, c := range candidates {
		end := c.pos + 12
		if end > len(c.src) {
			end = len(c.src)
		}
		loc := datePosRe.FindStringIndex(c.src[end:])
		if loc == nil {
			continue
		}
		if bestDist < 0 || loc[0] < bestDist {
			bestDist = loc[0]
			best = c
		}
	}
	conf := confSeries
	if bestDist < 0 {
		conf = confSeriesAlt
	}
	return ocr(best.series, conf), ocr(best.number, conf)
}

// ScanDigitRun slides a 10-digit window over a digits-only string and
// returns the first 4+6 split passing the series guards. Shared with the
// vertical-band detector's whole-image fallback.
func (p *Parser) ScanDigitRun(digits string) (series, number string, ok bool) {
	for i := 0; i+10 <= len(digits); i++ {
		s, n := digits[i:i+4], digits[i+4:i+10]
		if p.seriesOK(s, n) {
			return s, n, true
		}
	}
	return "", "", false
}
