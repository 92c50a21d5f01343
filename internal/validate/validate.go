// Package validate applies format and sanity checks to an extraction
// record. Validation is a pure transform over the record: it recomputes
// the checks flags and the human-readable error list from the current
// field values and never mutates the values themselves. Running it twice
// on an unchanged record yields identical output.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ruspass-tech/ruspass/internal/document"
)

// Accepted textual date layouts, canonical ISO first.
var dateLayouts = []string{"2006-01-02", "02.01.2006", "02-01-2006"}

var (
	fourDigitsRe  = regexp.MustCompile(`^\d{4}$`)
	sixDigitsRe   = regexp.MustCompile(`^\d{6}$`)
	authorityRe   = regexp.MustCompile(`^\d{3}-\d{3}$`)
	nonDigitsOnly = regexp.MustCompile(`\D`)
)

const maxAgeYears = 120

// Validator checks extraction records. The clock is injectable so age and
// future-date checks stay deterministic in tests.
type Validator struct {
	now func() time.Time
}

// New returns a validator using the wall clock.
func New() *Validator {
	return &Validator{now: time.Now}
}

// NewWithClock returns a validator with a fixed clock.
func NewWithClock(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Apply recomputes record.Checks and appends validation messages to
// record.Errors. Field values are left untouched. Checks flags are derived
// fresh each pass; a flag set false never turns true within the same pass.
func (v *Validator) Apply(record *document.Record) {
	if record == nil {
		return
	}
	checks := document.NewChecks()
	checks.MRZChecksumOK = record.Checks.MRZChecksumOK
	var errs []string

	ok, es := v.validateDates(record.Fields)
	checks.DateFormatsOK = ok
	errs = append(errs, es...)

	ok, es = v.validateSeriesNumber(record.Fields)
	checks.SeriesNumberValid = ok
	errs = append(errs, es...)

	ok, es = v.validateAuthorityCode(record.Fields)
	checks.AuthorityCodeValid = ok
	errs = append(errs, es...)

	record.Checks = checks
	record.Errors = dedupAppend(record.Errors, errs)
}

// dedupAppend appends only messages not already present, keeping repeated
// validation passes over an unchanged record idempotent while preserving
// errors recorded by earlier pipeline stages.
func dedupAppend(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[e] = struct{}{}
	}
	for _, e := range incoming {
		if _, ok := seen[e]; !ok {
			existing = append(existing, e)
			seen[e] = struct{}{}
		}
	}
	return existing
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// validateDates checks both dates for parseability, rejects future dates,
// and bounds the implied age for the birth date.
func (v *Validator) validateDates(fields document.FieldSet) (bool, []string) {
	var errs []string
	ok := true
	today := v.now()

	for _, item := range []struct {
		key   string
		label string
	}{
		{document.FieldBirthDate, "Дата рождения"},
		{document.FieldIssueDate, "Дата выдачи"},
	} {
		fv := fields.Get(item.key)
		if fv.Empty() {
			continue
		}
		dt, parsed := parseDate(fv.Value)
		if !parsed {
			errs = append(errs, fmt.Sprintf("%s: неверный формат '%s'", item.label, fv.Value))
			ok = false
			continue
		}
		if dt.After(today) {
			errs = append(errs, fmt.Sprintf("%s: дата в будущем (%s)", item.label, fv.Value))
			ok = false
		}
		if item.key == document.FieldBirthDate {
			age := today.Sub(dt).Hours() / 24 / 365.25
			if age < 0 || age > maxAgeYears {
				errs = append(errs, fmt.Sprintf("%s: неверный возраст (%.0f лет)", item.label, age))
				ok = false
			}
		}
	}
	return ok, errs
}

// validateSeriesNumber checks that the series reduces to exactly 4 digits
// and the number to exactly 6 after stripping non-digits. The first
// failure stops further checks for the pair; there is no partial pass.
func (v *Validator) validateSeriesNumber(fields document.FieldSet) (bool, []string) {
	series := fields.Get(document.FieldPassportSeries)
	number := fields.Get(document.FieldPassportNumber)
	if series.Empty() && number.Empty() {
		return true, nil
	}
	if !series.Empty() && !fourDigitsRe.MatchString(nonDigitsOnly.ReplaceAllString(series.Value, "")) {
		return false, []string{"Серия паспорта: должна быть 4 цифры"}
	}
	if !number.Empty() && !sixDigitsRe.MatchString(nonDigitsOnly.ReplaceAllString(number.Value, "")) {
		return false, []string{"Номер паспорта: должен быть 6 цифр"}
	}
	return true, nil
}

func (v *Validator) validateAuthorityCode(fields document.FieldSet) (bool, []string) {
	code := fields.Get(document.FieldAuthorityCode)
	if code.Empty() {
		return true, nil
	}
	if !authorityRe.MatchString(strings.TrimSpace(code.Value)) {
		return false, []string{"Код подразделения: формат NNN-NNN"}
	}
	return true, nil
}
