package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruspass-tech/ruspass/internal/document"
)

func sampleRecord() *document.Record {
	record := document.NewRecord()
	set := func(key, value string) {
		record.Fields.Set(key, document.NewFieldValue(value, 0.85, document.SourceOCR))
	}
	set(document.FieldSurname, "ЦИЦАР")
	set(document.FieldName, "ФЕДОР")
	set(document.FieldPatronymic, "МИХАЙЛОВИЧ")
	set(document.FieldBirthDate, "1990-05-12")
	set(document.FieldBirthPlace, "ГОР. ЛЕНИНГРАД")
	set(document.FieldPassportSeries, "4008")
	set(document.FieldPassportNumber, "595794")
	set(document.FieldIssueDate, "2010-06-20")
	set(document.FieldIssuePlace, "ОТДЕЛОМ УФМС РОССИИ")
	set(document.FieldRegistrationAddress, "ГОР. МОСКВА, УЛ. ЛЕНИНА, Д. 5")
	return record
}

func TestRecordToRow(t *testing.T) {
	row := RecordToRow(sampleRecord(), 3, "123456789012", "Фамилия ЦИЦАР Имя ФЕДОР")

	assert.Equal(t, 3, row.Index)
	assert.Equal(t, "ЦИЦАР", row.Surname)
	assert.Equal(t, "ФЕДОР", row.Name)
	assert.Equal(t, "МИХАЙЛОВИЧ", row.Patronymic)
	assert.Equal(t, "12.05.1990", row.BirthDate)
	assert.Equal(t, "ГОР. ЛЕНИНГРАД", row.BirthPlace)
	assert.Equal(t, "40 08 595794", row.SeriesNumber)
	assert.Equal(t, "20.06.2010", row.IssueDate)
	assert.Equal(t, "123456789012", row.INN)
	assert.Equal(t, "ГОР. МОСКВА, УЛ. ЛЕНИНА, Д. 5", row.Address)
	assert.Empty(t, row.Notes)
}

func TestRecordToRow_NotesEmptyWhenFieldsExtracted(t *testing.T) {
	// Raw text never leaks into notes as long as extraction produced
	// anything at all.
	row := RecordToRow(sampleRecord(), 1, "", "какой-то сырой текст страницы")
	assert.Empty(t, row.Notes)
}

func TestRecordToRow_NotesCarryRawTextOnFullFailure(t *testing.T) {
	record := document.NewRecord()
	record.Errors = []string{"Дата выдачи не распознана"}

	row := RecordToRow(record, 1, "", "ПАСПОРТ\nнечитаемый  скан 123")
	assert.Equal(t, "ПАСПОРТ нечитаемый скан 123", row.Notes)
}

func TestRecordToRow_NotesEmptyForGarbageText(t *testing.T) {
	record := document.NewRecord()
	row := RecordToRow(record, 1, "", ".,-~ \n !")
	assert.Empty(t, row.Notes)
}

func TestRecordToRow_NotesTruncated(t *testing.T) {
	record := document.NewRecord()
	long := make([]rune, 0, 300)
	for i := 0; i < 300; i++ {
		long = append(long, 'П')
	}

	row := RecordToRow(record, 1, "", string(long))
	assert.Len(t, []rune(row.Notes), maxNotesLen)
}

func TestRowToRecord_RoundTrip(t *testing.T) {
	original := sampleRecord()
	row := RecordToRow(original, 1, "", "")
	rebuilt := RowToRecord(row)

	for _, key := range []string{
		document.FieldSurname,
		document.FieldName,
		document.FieldPatronymic,
		document.FieldBirthDate,
		document.FieldBirthPlace,
		document.FieldPassportSeries,
		document.FieldPassportNumber,
		document.FieldIssueDate,
		document.FieldIssuePlace,
		document.FieldRegistrationAddress,
	} {
		assert.Equal(t, original.Fields.Get(key).Value, rebuilt.Fields.Get(key).Value, key)
	}
	assert.Equal(t, "import", rebuilt.Fields.Get(document.FieldSurname).Source)
}

func TestRowToRecord_EmptyCellsStayEmpty(t *testing.T) {
	rebuilt := RowToRecord(Row{Index: 1, Surname: "ЦИЦАР"})
	assert.Equal(t, "ЦИЦАР", rebuilt.Fields.Get(document.FieldSurname).Value)
	assert.True(t, rebuilt.Fields.Get(document.FieldName).Empty())
	assert.True(t, rebuilt.Fields.Get(document.FieldBirthDate).Empty())
}

func TestFormatSeriesNumber(t *testing.T) {
	tests := []struct {
		name   string
		series string
		number string
		want   string
	}{
		{"full", "4008", "595794", "40 08 595794"},
		{"series only", "4008", "", "40 08"},
		{"number only", "", "595794", "595794"},
		{"both empty", "", "", ""},
		{"short series passes through", "408", "595794", "408 595794"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSeriesNumber(tt.series, tt.number))
		})
	}
}

func TestSplitSeriesNumber(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantSeries string
		wantNumber string
	}{
		{"spaced", "40 08 595794", "4008", "595794"},
		{"compact", "4008595794", "4008", "595794"},
		{"extra separators", "40-08 № 595794", "4008", "595794"},
		{"too few digits", "40 08 5957", "", ""},
		{"too many digits", "40 08 5957941", "", ""},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, number := SplitSeriesNumber(tt.input)
			assert.Equal(t, tt.wantSeries, series)
			assert.Equal(t, tt.wantNumber, number)
		})
	}
}

func TestDisplayDate(t *testing.T) {
	assert.Equal(t, "12.05.1990", displayDate("1990-05-12"))
	assert.Equal(t, "не дата", displayDate("не дата"))
	assert.Equal(t, "", displayDate(""))
}

func TestRowValuesMatchColumns(t *testing.T) {
	require.Len(t, Row{}.Values(), len(Columns))
}
