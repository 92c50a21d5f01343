// Package mrz recovers passport fields from the machine-readable zone when
// label-anchored extraction comes up short. The Russian internal passport
// prints a TD3-format MRZ: two lines of 44 characters from the alphabet
// A-Z, 0-9 and '<'. Values extracted here carry the "mrz" source tag and
// merge at lower precedence than label-anchored OCR values.
package mrz

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ruspass-tech/ruspass/internal/document"
)

const lineLength = 44

var (
	nonMRZRe    = regexp.MustCompile(`[^A-Za-z0-9<]`)
	nonDigitsRe = regexp.MustCompile(`\D`)

	titler = cases.Title(language.Russian)
)

// Fields is the subset of passport data recoverable from a TD3 MRZ.
type Fields struct {
	Surname    string
	Name       string
	Patronymic string
	Series     string
	Number     string
	BirthDate  string // canonical YYYY-MM-DD
	Gender     string // "M" or "F"
	ChecksumOK *bool  // document-number check digit verification, nil when unreadable
}

// normalizeLine strips everything outside the MRZ alphabet and upper-cases.
func normalizeLine(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "<")
	return nonMRZRe.ReplaceAllString(s, "")
}

// ExtractFromText scans OCR text for a plausible TD3 line pair and parses
// it. Returns nil when no pair parses.
func ExtractFromText(ocrText string) *Fields {
	if len(ocrText) < 50 {
		return nil
	}
	var candidates []string
	for _, ln := range strings.Split(strings.ReplaceAll(ocrText, "\r", "\n"), "\n") {
		n := normalizeLine(ln)
		if len(n) >= 38 && len(n) <= 55 {
			if len(n) > lineLength {
				n = n[:lineLength]
			} else {
				n += strings.Repeat("<", lineLength-len(n))
			}
			candidates = append(candidates, n)
		}
	}
	for i := 0; i+1 < len(candidates); i++ {
		l1, l2 := candidates[i], candidates[i+1]
		if strings.HasPrefix(l1, "P<") && (l2[0] >= '0' && l2[0] <= '9' || l2[0] == '<') {
			if f := parseTD3(l1, l2); f != nil {
				return f
			}
		}
	}
	return nil
}

// parseTD3 decodes the two TD3 lines. Line 1 carries the names, line 2 the
// document number, birth date and sex.
func parseTD3(line1, line2 string) *Fields {
	if len(line1) < 30 || len(line2) < 30 {
		return nil
	}
	if !strings.HasPrefix(line1, "P<") && !strings.HasPrefix(line1, "P ") {
		return nil
	}
	if line1[2:5] != "RUS" {
		return nil
	}

	var f Fields
	nameParts := strings.SplitN(line1[5:], "<<", 2)
	if nameParts[0] != "" {
		f.Surname = titler.String(strings.TrimSpace(strings.ReplaceAll(nameParts[0], "<", " ")))
	}
	if len(nameParts) == 2 && nameParts[1] != "" {
		given := strings.Fields(strings.ReplaceAll(nameParts[1], "<", " "))
		if len(given) >= 1 {
			f.Name = titler.String(given[0])
		}
		if len(given) >= 2 {
			f.Patronymic = titler.String(strings.Join(given[1:], " "))
		}
	}

	// The document number field holds the first three series digits plus
	// the six number digits; the fourth series digit opens the optional
	// data field at position 28.
	docNum := strings.ReplaceAll(line2[:9], "<", "")
	digits := nonDigitsRe.ReplaceAllString(docNum, "")
	if len(digits) == 9 && len(line2) > 28 && line2[28] >= '0' && line2[28] <= '9' {
		series := digits[:3] + string(line2[28])
		if !strings.HasPrefix(series, "19") && !strings.HasPrefix(series, "20") {
			f.Series = series
			f.Number = digits[3:9]
		}
	}

	if ok, readable := verifyCheckDigit(line2[:9], line2[9]); readable {
		f.ChecksumOK = &ok
	}

	birth := line2[13:19]
	if isDigits(birth) {
		year := birth[0:2]
		century := "20"
		if year > "30" {
			century = "19"
		}
		f.BirthDate = century + year + "-" + birth[2:4] + "-" + birth[4:6]
	}

	if len(line2) > 20 {
		switch line2[20] {
		case 'M':
			f.Gender = "M"
		case 'F':
			f.Gender = "F"
		}
	}

	if f == (Fields{}) {
		return nil
	}
	return &f
}

// verifyCheckDigit validates a TD3 field against its check digit using the
// standard 7-3-1 weighting. readable is false when the check digit
// position does not hold a digit.
func verifyCheckDigit(field string, check byte) (ok, readable bool) {
	if check < '0' || check > '9' {
		return false, false
	}
	weights := []int{7, 3, 1}
	sum := 0
	for i := 0; i < len(field); i++ {
		var v int
		c := field[i]
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case c >= 'A' && c <= 'Z':
			v = int(c-'A') + 10
		case c == '<':
			v = 0
		default:
			return false, false
		}
		sum += v * weights[i%3]
	}
	return sum%10 == int(check-'0'), true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// MergeInto fills empty slots of the field set with MRZ-derived values at
// reduced confidence. Confident OCR values are never displaced.
func (f *Fields) MergeInto(fields document.FieldSet) {
	if f == nil {
		return
	}
	const conf = 0.6
	put := func(key, value string) {
		if value == "" {
			return
		}
		if fields.Get(key).Empty() {
			fields.Set(key, document.NewFieldValue(value, conf, document.SourceMRZ))
		}
	}
	put(document.FieldSurname, f.Surname)
	put(document.FieldName, f.Name)
	put(document.FieldPatronymic, f.Patronymic)
	put(document.FieldPassportSeries, f.Series)
	put(document.FieldPassportNumber, f.Number)
	put(document.FieldBirthDate, f.BirthDate)
	put(document.FieldGender, f.Gender)
}
