package parse

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ruspass-tech/ruspass/internal/document"
)

// wordRe matches Cyrillic word tokens, hyphenated double surnames included.
var wordRe = regexp.MustCompile(`[А-ЯЁа-яё][А-ЯЁа-яё\-]*`)

// tripleRe matches three consecutive capitalized Cyrillic words; the caller
// checks the third for a patronymic suffix.
var tripleRe = regexp.MustCompile(`([А-ЯЁа-яё][А-ЯЁа-яё\-]+)\s+([А-ЯЁа-яё][А-ЯЁа-яё\-]+)\s+([А-ЯЁа-яё][А-ЯЁа-яё\-]+)`)

// extractNameTriple recovers surname, given name and patronymic. The
// label-anchored strategy runs first; when it cannot find both surname and
// name, the patronymic-suffix triple fallbacks take over.
func (p *Parser) extractNameTriple(t text) (surname, name, patronymic document.FieldValue) {
	skip := map[string]struct{}{}
	fam := p.valueNearLabel(t.lines, p.rules.SurnameLabels, skip, false)
	if fam != "" {
		skip[strings.ToUpper(fam)] = struct{}{}
	}
	im := p.valueNearLabel(t.lines, p.rules.NameLabels, skip, true)
	if im != "" {
		skip[strings.ToUpper(im)] = struct{}{}
	}
	otch := p.valueNearLabel(t.lines, p.rules.PatronymicLabels, skip, false)

	confF, confI, confO := confLabel, confLabel, confLabel

	if fam == "" || im == "" {
		a, b, c := p.patronymicTriple(t)
		if c == "" {
			a, b, c = p.lineTriple(t)
		}
		if c != "" {
			if fam == "" {
				fam, confF = a, confTriple
			}
			if im == "" {
				im, confI = b, confTriple
			}
			if otch == "" {
				otch, confO = c, confTriple
			}
		}
	}

	return ocrOrEmpty(fam, confF), ocrOrEmpty(im, confI), ocrOrEmpty(otch, confO)
}

func ocrOrEmpty(v string, conf float64) document.FieldValue {
	if v == "" {
		return ocr("", 0)
	}
	return ocr(v, conf)
}

// valueNearLabel finds the nearest valid candidate word around a line
// containing one of the label variants. OCR layout routinely places label
// and value on separate lines, and the value sometimes precedes the label,
// so the label's own line is checked first, then the following two lines,
// then the preceding two.
func (p *Parser) valueNearLabel(lines []string, labels []string, skip map[string]struct{}, avoidPatronymicLines bool) string {
	for i, ln := range lines {
		low := strings.ToLower(ln)
		if matchingLabel(low, labels) == "" {
			continue
		}
		// Documents print the name and patronymic labels adjacently;
		// searching the name near such a line would grab the patronymic
		// value, so leave those lines to the patronymic pass.
		if avoidPatronymicLines && matchingLabel(low, p.rules.PatronymicLabels) != "" {
			continue
		}
		for _, idx := range []int{i, i + 1, i + 2, i - 1, i - 2} {
			if idx < 0 || idx >= len(lines) {
				continue
			}
			if w := p.candidateWord(lines[idx], skip); w != "" {
				return w
			}
		}
	}
	return ""
}

func matchingLabel(lowLine string, labels []string) string {
	for _, l := range labels {
		if strings.Contains(lowLine, l) {
			return l
		}
	}
	return ""
}

// candidateWord returns the first word in the line that passes validity:
// alphabetic, 2-50 runes, not a label token, not denylisted, and not
// already assigned to another name slot.
func (p *Parser) candidateWord(line string, skip map[string]struct{}) string {
	for _, w := range wordRe.FindAllString(line, -1) {
		if p.validNameWord(w, skip) {
			return w
		}
	}
	return ""
}

func (p *Parser) validNameWord(w string, skip map[string]struct{}) bool {
	n := len([]rune(w))
	if n < 2 || n > 50 {
		return false
	}
	if !isAlphabetic(w) {
		return false
	}
	low := strings.ToLower(w)
	if p.rules.isLabel(low) || p.rules.isDenied(low) {
		return false
	}
	if _, taken := skip[strings.ToUpper(w)]; taken {
		return false
	}
	return true
}

func isAlphabetic(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// patronymicTriple scans for three consecutive capitalized words whose
// third carries a patronymic suffix. Patronymics are near-deterministically
// suffix-marked in Russian, which makes this the most reliable structural
// fallback when the labels themselves are unreadable.
func (p *Parser) patronymicTriple(t text) (string, string, string) {
	for _, txt := range []string{t.norm, t.full} {
		for _, m := range tripleRe.FindAllStringSubmatch(txt, -1) {
			a, b, c := m[1], m[2], m[3]
			if p.plausibleTriple(a, b, c) {
				return a, b, c
			}
		}
	}
	return "", "", ""
}

// lineTriple walks the lines collecting consecutive plausible name tokens,
// dropping immediate repeats, and accepts the first run of three ending in
// a patronymic-suffixed token.
func (p *Parser) lineTriple(t text) (string, string, string) {
	var run []string
	for _, ln := range t.lines {
		for _, w := range wordRe.FindAllString(ln, -1) {
			if !p.validNameWord(w, nil) {
				run = run[:0]
				continue
			}
			if len(run) > 0 && strings.EqualFold(run[len(run)-1], w) {
				continue
			}
			run = append(run, w)
			if len(run) >= 3 {
				a, b, c := run[len(run)-3], run[len(run)-2], run[len(run)-1]
				if p.rules.hasPatronymicSuffix(strings.ToLower(c)) {
					return a, b, c
				}
			}
		}
	}
	return "", "", ""
}

func (p *Parser) plausibleTriple(a, b, c string) bool {
	if !p.rules.hasPatronymicSuffix(strings.ToLower(c)) {
		return false
	}
	for _, w := range []string{a, b} {
		low := strings.ToLower(w)
		if p.rules.isLabel(low) || p.rules.isDenied(low) {
			return false
		}
	}
	return true
}
