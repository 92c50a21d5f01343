package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruspass-tech/ruspass/internal/document"
)

// fixedClock pins "today" so age and future-date checks are stable.
func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	}
}

func record(set func(fs document.FieldSet)) *document.Record {
	rec := document.NewRecord()
	if set != nil {
		set(rec.Fields)
	}
	return rec
}

func TestApply_NilRecord(t *testing.T) {
	v := New()
	v.Apply(nil) // must not panic
}

func TestApply_EmptyRecordPasses(t *testing.T) {
	v := NewWithClock(fixedClock())
	rec := record(nil)

	v.Apply(rec)

	assert.True(t, rec.Checks.DateFormatsOK)
	assert.True(t, rec.Checks.SeriesNumberValid)
	assert.True(t, rec.Checks.AuthorityCodeValid)
	assert.Empty(t, rec.Errors)
}

func TestApply_ValidRecord(t *testing.T) {
	v := NewWithClock(fixedClock())
	rec := record(func(fs document.FieldSet) {
		fs.Set(document.FieldBirthDate, document.NewFieldValue("1990-05-12", 0.85, document.SourceOCR))
		fs.Set(document.FieldIssueDate, document.NewFieldValue("2010-06-20", 0.85, document.SourceOCR))
		fs.Set(document.FieldPassportSeries, document.NewFieldValue("4008", 0.85, document.SourceOCR))
		fs.Set(document.FieldPassportNumber, document.NewFieldValue("595794", 0.85, document.SourceOCR))
		fs.Set(document.FieldAuthorityCode, document.NewFieldValue("292-000", 0.9, document.SourceOCR))
	})

	v.Apply(rec)

	assert.True(t, rec.Checks.DateFormatsOK)
	assert.True(t, rec.Checks.SeriesNumberValid)
	assert.True(t, rec.Checks.AuthorityCodeValid)
	assert.Empty(t, rec.Errors)
}

func TestApply_DateFormats(t *testing.T) {
	tests := []struct {
		name    string
		birth   string
		issue   string
		ok      bool
		errPart string
	}{
		{name: "iso dates", birth: "1990-05-12", issue: "2010-06-20", ok: true},
		{name: "dotted layout accepted", birth: "12.05.1990", issue: "20.06.2010", ok: true},
		{name: "garbage birth date", birth: "12/05/1990", ok: false, errPart: "неверный формат"},
		{name: "future issue date", issue: "2199-01-01", ok: false, errPart: "дата в будущем"},
		{name: "implausible age", birth: "1850-01-01", ok: false, errPart: "неверный возраст"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewWithClock(fixedClock())
			rec := record(func(fs document.FieldSet) {
				if tt.birth != "" {
					fs.Set(document.FieldBirthDate, document.NewFieldValue(tt.birth, 0.85, document.SourceOCR))
				}
				if tt.issue != "" {
					fs.Set(document.FieldIssueDate, document.NewFieldValue(tt.issue, 0.85, document.SourceOCR))
				}
			})

			v.Apply(rec)

			assert.Equal(t, tt.ok, rec.Checks.DateFormatsOK)
			if tt.errPart != "" {
				require.NotEmpty(t, rec.Errors)
				assert.Contains(t, rec.Errors[0], tt.errPart)
			}
		})
	}
}

func TestApply_SeriesNumber(t *testing.T) {
	tests := []struct {
		name   string
		series string
		number string
		ok     bool
	}{
		{name: "both empty", ok: true},
		{name: "valid pair", series: "4008", number: "595794", ok: true},
		{name: "series with separators", series: "40-08", number: "595794", ok: true},
		{name: "series too short", series: "408", number: "595794", ok: false},
		{name: "number too long", series: "4008", number: "5957941", ok: false},
		{name: "series only", series: "4008", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewWithClock(fixedClock())
			rec := record(func(fs document.FieldSet) {
				if tt.series != "" {
					fs.Set(document.FieldPassportSeries, document.NewFieldValue(tt.series, 0.85, document.SourceOCR))
				}
				if tt.number != "" {
					fs.Set(document.FieldPassportNumber, document.NewFieldValue(tt.number, 0.85, document.SourceOCR))
				}
			})

			v.Apply(rec)
			assert.Equal(t, tt.ok, rec.Checks.SeriesNumberValid)
		})
	}
}

func TestApply_AuthorityCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		ok   bool
	}{
		{name: "empty passes", code: "", ok: true},
		{name: "canonical", code: "292-000", ok: true},
		{name: "missing dash", code: "292000", ok: false},
		{name: "too many digits", code: "2920-000", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewWithClock(fixedClock())
			rec := record(func(fs document.FieldSet) {
				if tt.code != "" {
					fs.Set(document.FieldAuthorityCode, document.NewFieldValue(tt.code, 0.9, document.SourceOCR))
				}
			})

			v.Apply(rec)
			assert.Equal(t, tt.ok, rec.Checks.AuthorityCodeValid)
		})
	}
}

func TestApply_Idempotent(t *testing.T) {
	v := NewWithClock(fixedClock())
	rec := record(func(fs document.FieldSet) {
		fs.Set(document.FieldBirthDate, document.NewFieldValue("not-a-date", 0.85, document.SourceOCR))
		fs.Set(document.FieldAuthorityCode, document.NewFieldValue("292000", 0.9, document.SourceOCR))
	})

	v.Apply(rec)
	firstErrors := append([]string(nil), rec.Errors...)
	firstChecks := rec.Checks

	v.Apply(rec)
	assert.Equal(t, firstErrors, rec.Errors)
	assert.Equal(t, firstChecks, rec.Checks)
}

func TestApply_PreservesEarlierPipelineErrors(t *testing.T) {
	v := NewWithClock(fixedClock())
	rec := record(nil)
	rec.Errors = append(rec.Errors, "Не удалось распознать текст (OCR пустой)")

	v.Apply(rec)
	assert.Contains(t, rec.Errors, "Не удалось распознать текст (OCR пустой)")
}

func TestApply_KeepsMRZChecksumFlag(t *testing.T) {
	v := NewWithClock(fixedClock())
	rec := record(nil)
	ok := true
	rec.Checks.MRZChecksumOK = &ok

	v.Apply(rec)
	require.NotNil(t, rec.Checks.MRZChecksumOK)
	assert.True(t, *rec.Checks.MRZChecksumOK)
}

func TestApply_DoesNotMutateFieldValues(t *testing.T) {
	v := NewWithClock(fixedClock())
	rec := record(func(fs document.FieldSet) {
		fs.Set(document.FieldPassportSeries, document.NewFieldValue("40-08", 0.85, document.SourceOCR))
	})

	v.Apply(rec)
	assert.Equal(t, "40-08", rec.Fields.Get(document.FieldPassportSeries).Value)
}
