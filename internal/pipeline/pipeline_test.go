package pipeline

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruspass-tech/ruspass/internal/document"
	"github.com/ruspass-tech/ruspass/internal/ocr"
	"github.com/ruspass-tech/ruspass/internal/testutil"
)

// samplePassportText drives the parser through every labeled strategy.
const samplePassportText = "Фамилия\nЦИЦАР\nИмя\nФЕДОР\nОтчество\nМИХАЙЛОВИЧ\n" +
	"Пол МУЖ\nМесто рождения ГОР. ЛЕНИНГРАД\nДата рождения 12.05.1990\n" +
	"Паспорт выдан ОТДЕЛОМ УФМС РОССИИ\nДата выдачи 20.06.2010\n" +
	"Код подразделения 292-000\n40 08 595794"

// fakeBackend returns canned recognition results.
type fakeBackend struct {
	name string
	fn   func(img image.Image) (ocr.Result, error)
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Recognize(_ context.Context, img image.Image) (ocr.Result, error) {
	return f.fn(img)
}

func textBackend(name, text string) *fakeBackend {
	return &fakeBackend{name: name, fn: func(image.Image) (ocr.Result, error) {
		return ocr.Result{Text: text, Confidence: 0.85}, nil
	}}
}

func errorBackend(name string) *fakeBackend {
	return &fakeBackend{name: name, fn: func(image.Image) (ocr.Result, error) {
		return ocr.Result{}, errors.New("backend down")
	}}
}

// fakeDigits satisfies vertical.DigitReader.
type fakeDigits struct{ text string }

func (f *fakeDigits) ReadDigits(image.Image) (string, error) {
	if f.text == "" {
		return "", errors.New("no digits")
	}
	return f.text, nil
}

func buildPipeline(t *testing.T, b *Builder) *Pipeline {
	t.Helper()
	p, err := b.Build()
	require.NoError(t, err)
	return p
}

func pageImage() image.Image {
	return testutil.CreateTextImage([]string{"page"}, 100, 60)
}

func TestBuild_NoBackends(t *testing.T) {
	_, err := NewBuilder().WithLocalOCR(false).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognition backend")
}

func TestBuild_BadRulesPath(t *testing.T) {
	_, err := NewBuilder().
		WithBackends(textBackend("fake", "x")).
		WithRulesPath("/nonexistent/rules.yaml").
		Build()
	assert.Error(t, err)
}

func TestProcess_FullExtraction(t *testing.T) {
	p := buildPipeline(t, NewBuilder().
		WithBackends(textBackend("fake", samplePassportText)).
		WithVerticalDetection(false))

	res := p.Process(context.Background(), pageImage())
	require.NotNil(t, res)
	rec := res.Record

	assert.Equal(t, samplePassportText, res.Text)
	assert.Empty(t, rec.Errors)
	assert.Equal(t, document.PageMain, rec.PageType)
	assert.Equal(t, "fake", rec.Debug.OCREngine)

	fields := rec.Fields
	assert.Equal(t, "ЦИЦАР", fields.Get(document.FieldSurname).Value)
	assert.Equal(t, "ФЕДОР", fields.Get(document.FieldName).Value)
	assert.Equal(t, "МИХАЙЛОВИЧ", fields.Get(document.FieldPatronymic).Value)
	assert.Equal(t, "M", fields.Get(document.FieldGender).Value)
	assert.Equal(t, "1990-05-12", fields.Get(document.FieldBirthDate).Value)
	assert.Equal(t, "2010-06-20", fields.Get(document.FieldIssueDate).Value)
	assert.Equal(t, "4008", fields.Get(document.FieldPassportSeries).Value)
	assert.Equal(t, "595794", fields.Get(document.FieldPassportNumber).Value)
	assert.Equal(t, "292-000", fields.Get(document.FieldAuthorityCode).Value)
	assert.Contains(t, fields.Get(document.FieldBirthPlace).Value, "ЛЕНИНГРАД")
	assert.Contains(t, fields.Get(document.FieldIssuePlace).Value, "УФМС")

	assert.True(t, rec.Checks.DateFormatsOK)
	assert.True(t, rec.Checks.SeriesNumberValid)
	assert.True(t, rec.Checks.AuthorityCodeValid)

	assert.Contains(t, rec.Debug.TimingsMS, "total")
	assert.Contains(t, rec.Debug.TimingsMS, "ocr")
	assert.Contains(t, rec.Debug.TimingsMS, "parse")
}

func TestProcess_EmptyOCR(t *testing.T) {
	p := buildPipeline(t, NewBuilder().
		WithBackends(textBackend("fake", "")).
		WithVerticalDetection(false))

	res := p.Process(context.Background(), pageImage())
	require.NotNil(t, res)
	assert.Contains(t, res.Record.Errors, "Не удалось распознать текст (OCR пустой)")
	assert.Equal(t, document.PageUnknown, res.Record.PageType)
	assert.True(t, res.Record.Fields.Get(document.FieldSurname).Empty())
}

func TestProcess_NilImage(t *testing.T) {
	p := buildPipeline(t, NewBuilder().
		WithBackends(textBackend("fake", samplePassportText)).
		WithVerticalDetection(false))

	res := p.Process(context.Background(), nil)
	require.NotNil(t, res)
	assert.Contains(t, res.Record.Errors, "Не удалось загрузить изображение")
}

func TestProcess_BackendFallback(t *testing.T) {
	p := buildPipeline(t, NewBuilder().
		WithBackends(errorBackend("cloud"), textBackend("tesseract", samplePassportText)).
		WithVerticalDetection(false))

	res := p.Process(context.Background(), pageImage())
	assert.Empty(t, res.Record.Errors)
	assert.Equal(t, "cloud+fallback:tesseract", res.Record.Debug.OCREngine)
	assert.Equal(t, "ЦИЦАР", res.Record.Fields.Get(document.FieldSurname).Value)
}

func TestProcess_GarbageSkipped(t *testing.T) {
	p := buildPipeline(t, NewBuilder().
		WithBackends(textBackend("cloud", "... --- ..."), textBackend("tesseract", samplePassportText)).
		WithVerticalDetection(false))

	res := p.Process(context.Background(), pageImage())
	assert.Empty(t, res.Record.Errors)
	assert.Equal(t, "cloud+fallback:tesseract", res.Record.Debug.OCREngine)
}

func TestProcess_PanicRecovered(t *testing.T) {
	panicky := &fakeBackend{name: "boom", fn: func(image.Image) (ocr.Result, error) {
		panic("engine exploded")
	}}
	p := buildPipeline(t, NewBuilder().
		WithBackends(panicky).
		WithVerticalDetection(false))

	res := p.Process(context.Background(), pageImage())
	require.NotNil(t, res)
	assert.Contains(t, res.Record.Errors, "Ошибка обработки: внутренняя ошибка")
}

func TestProcess_VerticalOverridesParser(t *testing.T) {
	// The parser reads 4008 595794 off the page text; the band detector
	// result still wins.
	p := buildPipeline(t, NewBuilder().
		WithBackends(textBackend("fake", samplePassportText)).
		WithDigitReader(&fakeDigits{text: "7704123456"}))

	res := p.Process(context.Background(), pageImage())
	series := res.Record.Fields.Get(document.FieldPassportSeries)
	assert.Equal(t, "7704", series.Value)
	assert.Equal(t, document.SourceVertical, series.Source)
	assert.InDelta(t, 0.85, series.Confidence, 1e-9)
	assert.Equal(t, "123456", res.Record.Fields.Get(document.FieldPassportNumber).Value)
	assert.Contains(t, res.Record.Debug.TimingsMS, "vertical")
}

func TestProcess_VerticalMissIsNotAnError(t *testing.T) {
	p := buildPipeline(t, NewBuilder().
		WithBackends(textBackend("fake", samplePassportText)).
		WithDigitReader(&fakeDigits{}))

	res := p.Process(context.Background(), pageImage())
	assert.Empty(t, res.Record.Errors)
	// Parser result stands when the band detector finds nothing.
	assert.Equal(t, "4008", res.Record.Fields.Get(document.FieldPassportSeries).Value)
	assert.Equal(t, document.SourceOCR, res.Record.Fields.Get(document.FieldPassportSeries).Source)
}

func TestProcess_PreprocessRecorded(t *testing.T) {
	p := buildPipeline(t, NewBuilder().
		WithBackends(textBackend("fake", samplePassportText)).
		WithVerticalDetection(false))

	res := p.Process(context.Background(), pageImage())
	assert.True(t, res.Record.Debug.Preprocess["grayscale"])
	assert.Contains(t, res.Record.Debug.TimingsMS, "preprocess")
}
