package pipeline

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"unicode"

	"github.com/ruspass-tech/ruspass/internal/common"
	"github.com/ruspass-tech/ruspass/internal/document"
	"github.com/ruspass-tech/ruspass/internal/ingest"
	"github.com/ruspass-tech/ruspass/internal/mrz"
	"github.com/ruspass-tech/ruspass/internal/ocr"
	"github.com/ruspass-tech/ruspass/internal/preprocess"
)

// minSignificantChars is the floor below which recognized text counts as
// empty and the next backend is tried.
const minSignificantChars = 5

const (
	errLoadImage = "Не удалось загрузить изображение"
	errEmptyOCR  = "Не удалось распознать текст (OCR пустой)"
	errInternal  = "Ошибка обработки: внутренняя ошибка"
)

// Result pairs the structured record with the recognized text. The text
// stays outside the record so it never leaks into exports or logs; batch
// post-processing (tax number scan, notes) reads it from here.
type Result struct {
	Record *document.Record
	Text   string
}

// ProcessFile loads path and extracts a record from it. Multi-page
// inputs (PDFs) are processed as one document group.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) *Result {
	pages, err := ingest.Load(path, p.cfg.Ingest)
	if err != nil {
		slog.Warn("ingest failed", "path", path, "error", err)
		record := document.NewRecord()
		record.Errors = append(record.Errors, errLoadImage)
		p.validator.Apply(record)
		return &Result{Record: record}
	}
	if len(pages) == 1 {
		return p.Process(ctx, pages[0].Image)
	}
	images := make([]image.Image, len(pages))
	for i, pg := range pages {
		images[i] = pg.Image
	}
	return p.ProcessGroupImages(ctx, images)
}

// Process extracts a record from a single page scan. It never panics and
// never returns nil; every failure mode lands in Record.Errors.
func (p *Pipeline) Process(ctx context.Context, img image.Image) (res *Result) {
	record := document.NewRecord()
	timings := make(map[string]float64)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline panic recovered", "panic", r)
			rec := document.NewRecord()
			rec.Errors = append(rec.Errors, errInternal)
			rec.Debug.TimingsMS = timings
			res = &Result{Record: rec}
		}
	}()

	total := common.NewNamedTimer("total")

	if img == nil {
		record.Errors = append(record.Errors, errLoadImage)
		p.validator.Apply(record)
		return &Result{Record: record}
	}

	work := img
	if p.cfg.PreprocessOn {
		t := common.NewNamedTimer("preprocess")
		processed, info := preprocess.Apply(img, p.cfg.Preprocess)
		timings[t.Name()] = ms(t)
		work = processed
		record.Debug.Preprocess = info
	}

	t := common.NewNamedTimer("ocr")
	text, engine := p.recognize(ctx, work)
	timings[t.Name()] = ms(t)
	record.Debug.OCREngine = engine

	if significantChars(text) < minSignificantChars {
		record.Errors = append(record.Errors, errEmptyOCR)
		record.Debug.TimingsMS = timings
		p.validator.Apply(record)
		return &Result{Record: record}
	}

	record.PageType = p.classifier.Classify(text)

	t = common.NewNamedTimer("parse")
	record.Fields = p.parser.Parse(text)
	timings[t.Name()] = ms(t)

	// The band digits survive scans that defeat full-page recognition,
	// so a non-empty detector result overrides the parser. The original
	// color image goes in; preprocessing strips the red channel.
	if p.detector != nil {
		t = common.NewNamedTimer("vertical")
		if s, n, conf, ok := p.detector.Extract(img); ok {
			record.Fields.Set(document.FieldPassportSeries,
				document.NewFieldValue(s, conf, document.SourceVertical))
			record.Fields.Set(document.FieldPassportNumber,
				document.NewFieldValue(n, conf, document.SourceVertical))
		}
		timings[t.Name()] = ms(t)
	}

	if mf := mrz.ExtractFromText(text); mf != nil {
		mf.MergeInto(record.Fields)
		record.Checks.MRZChecksumOK = mf.ChecksumOK
	}

	p.validator.Apply(record)

	timings[total.Name()] = ms(total)
	record.Debug.TimingsMS = timings
	return &Result{Record: record, Text: text}
}

// recognize walks the backend list in order and returns the first text
// with enough signal. The engine label records fallback hops.
func (p *Pipeline) recognize(ctx context.Context, img image.Image) (string, string) {
	var firstText, firstEngine string
	var engines []string

	for _, backend := range p.backends {
		engines = append(engines, backend.Name())
		result, err := backend.Recognize(ctx, img)
		if err != nil {
			slog.Debug("ocr backend failed", "backend", backend.Name(), "error", err)
			continue
		}
		if ocr.Garbage(result.Text) {
			continue
		}
		if firstText == "" {
			firstText, firstEngine = result.Text, backend.Name()
		}
		if significantChars(result.Text) >= minSignificantChars {
			return result.Text, strings.Join(engines, "+fallback:")
		}
	}
	// Nothing crossed the floor; hand back the best short text so the
	// caller can report an empty OCR outcome with the engine that ran.
	if firstEngine == "" && len(engines) > 0 {
		firstEngine = engines[0]
	}
	return firstText, firstEngine
}

func significantChars(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func ms(t *common.Timer) float64 {
	return float64(t.Stop().Microseconds()) / 1000.0
}
