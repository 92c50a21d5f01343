// Package export turns passport records into tabular and JSON output.
// The column set mirrors the workbook layout the records are delivered
// in downstream.
package export

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/ruspass-tech/ruspass/internal/document"
)

// Columns is the fixed workbook header, in order.
var Columns = []string{
	"№ п/п",
	"Фамилия",
	"Имя",
	"Отчество",
	"Дата рождения",
	"Место рождения",
	"Серия и номер паспорта",
	"Дата выдачи",
	"Кем выдан",
	"ИНН",
	"Адрес регистрации",
	"Примечания",
}

// maxNotesLen bounds the free-text notes cell.
const maxNotesLen = 200

// Row is one workbook line.
type Row struct {
	Index        int
	Surname      string
	Name         string
	Patronymic   string
	BirthDate    string // DD.MM.YYYY for display
	BirthPlace   string
	SeriesNumber string // "SS SS NNNNNN"
	IssueDate    string // DD.MM.YYYY for display
	IssuePlace   string
	INN          string
	Address      string
	Notes        string
}

// Values returns the cells in column order.
func (r Row) Values() []string {
	return []string{
		fmt.Sprintf("%d", r.Index),
		r.Surname,
		r.Name,
		r.Patronymic,
		r.BirthDate,
		r.BirthPlace,
		r.SeriesNumber,
		r.IssueDate,
		r.IssuePlace,
		r.INN,
		r.Address,
		r.Notes,
	}
}

// RecordToRow flattens a record into a workbook row. inn comes from the
// recognized text (it is not a record field). The notes cell degrades
// gracefully: it stays empty while any field was extracted, and carries
// the truncated raw text when extraction came up completely empty on a
// page that still produced readable text.
func RecordToRow(record *document.Record, index int, inn, rawText string) Row {
	get := func(key string) string { return record.Fields.Get(key).Value }

	notes := ""
	if !record.Fields.HasValues() && hasSignal(rawText) {
		notes = collapseSpace(rawText)
		if len([]rune(notes)) > maxNotesLen {
			notes = string([]rune(notes)[:maxNotesLen])
		}
	}

	return Row{
		Index:        index,
		Surname:      get(document.FieldSurname),
		Name:         get(document.FieldName),
		Patronymic:   get(document.FieldPatronymic),
		BirthDate:    displayDate(get(document.FieldBirthDate)),
		BirthPlace:   get(document.FieldBirthPlace),
		SeriesNumber: FormatSeriesNumber(get(document.FieldPassportSeries), get(document.FieldPassportNumber)),
		IssueDate:    displayDate(get(document.FieldIssueDate)),
		IssuePlace:   get(document.FieldIssuePlace),
		INN:          inn,
		Address:      get(document.FieldRegistrationAddress),
		Notes:        notes,
	}
}

// RowToRecord rebuilds a record from a workbook row. Values come back as
// manually-entered data: confidence 1, source "ocr" is not claimed.
func RowToRecord(row Row) *document.Record {
	record := document.NewRecord()
	set := func(key, value string) {
		if value != "" {
			record.Fields.Set(key, document.NewFieldValue(value, 1.0, "import"))
		}
	}
	set(document.FieldSurname, row.Surname)
	set(document.FieldName, row.Name)
	set(document.FieldPatronymic, row.Patronymic)
	set(document.FieldBirthDate, isoDate(row.BirthDate))
	set(document.FieldBirthPlace, row.BirthPlace)
	series, number := SplitSeriesNumber(row.SeriesNumber)
	set(document.FieldPassportSeries, series)
	set(document.FieldPassportNumber, number)
	set(document.FieldIssueDate, isoDate(row.IssueDate))
	set(document.FieldIssuePlace, row.IssuePlace)
	set(document.FieldRegistrationAddress, row.Address)
	return record
}

// FormatSeriesNumber renders "1234"+"567890" as "12 34 567890".
func FormatSeriesNumber(series, number string) string {
	if series == "" && number == "" {
		return ""
	}
	if len(series) == 4 {
		series = series[:2] + " " + series[2:]
	}
	return strings.TrimSpace(series + " " + number)
}

// SplitSeriesNumber reverses FormatSeriesNumber.
func SplitSeriesNumber(s string) (series, number string) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if len(digits) != 10 {
		return "", ""
	}
	return digits[:4], digits[4:]
}

// displayDate converts canonical YYYY-MM-DD into DD.MM.YYYY; anything
// non-canonical passes through untouched.
func displayDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02.01.2006")
}

func isoDate(display string) string {
	t, err := time.Parse("02.01.2006", display)
	if err != nil {
		return display
	}
	return t.Format("2006-01-02")
}

// hasSignal reports whether text carries at least one letter or digit.
func hasSignal(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// collapseSpace squeezes whitespace runs, newlines included, into single
// spaces so raw text fits one workbook cell.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
