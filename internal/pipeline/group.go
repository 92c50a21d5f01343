package pipeline

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"sync"

	"github.com/ruspass-tech/ruspass/internal/common"
	"github.com/ruspass-tech/ruspass/internal/document"
	"github.com/ruspass-tech/ruspass/internal/ingest"
	"github.com/ruspass-tech/ruspass/internal/mrz"
	"github.com/ruspass-tech/ruspass/internal/preprocess"
)

// freeTextFields may legitimately grow across pages; for them a strictly
// longer value from another page replaces a shorter one.
var freeTextFields = map[string]bool{
	document.FieldIssuePlace:          true,
	document.FieldRegistrationAddress: true,
}

// ProcessGroup treats paths as pages of one document (typically the main
// spread plus the registration page) and extracts a single record.
func (p *Pipeline) ProcessGroup(ctx context.Context, paths []string) *Result {
	var images []image.Image
	var loadErrors []string
	for _, path := range paths {
		pages, err := ingest.Load(path, p.cfg.Ingest)
		if err != nil {
			slog.Warn("ingest failed", "path", path, "error", err)
			loadErrors = append(loadErrors, errLoadImage)
			continue
		}
		for _, pg := range pages {
			images = append(images, pg.Image)
		}
	}
	if len(images) == 0 {
		record := document.NewRecord()
		record.Errors = append(record.Errors, errLoadImage)
		p.validator.Apply(record)
		return &Result{Record: record}
	}

	res := p.ProcessGroupImages(ctx, images)
	if len(loadErrors) > 0 && len(res.Record.Errors) == 0 {
		// Partial group: extraction went through but some pages were
		// unreadable.
		res.Record.Errors = append(res.Record.Errors, loadErrors[0])
	}
	return res
}

type pageResult struct {
	text string

	vertSeries string
	vertNumber string
	vertConf   float64
	vertOK     bool
}

// ProcessGroupImages runs recognition over each page concurrently, then
// parses the combined text once. Per-page parses refine the combined
// result through MergeFieldSets; the first non-empty vertical band
// detection wins the series and number.
func (p *Pipeline) ProcessGroupImages(ctx context.Context, images []image.Image) (res *Result) {
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

	pages := make([]pageResult, len(images))
	t := common.NewNamedTimer("ocr")
	var wg sync.WaitGroup
	for i, img := range images {
		wg.Add(1)
		go func(i int, img image.Image) {
			defer wg.Done()
			work := img
			if p.cfg.PreprocessOn {
				work, _ = preprocess.Apply(img, p.cfg.Preprocess)
			}
			text, engine := p.recognize(ctx, work)
			pages[i].text = text
			if i == 0 {
				record.Debug.OCREngine = engine
			}
			if p.detector != nil {
				s, n, conf, ok := p.detector.Extract(img)
				pages[i].vertSeries, pages[i].vertNumber = s, n
				pages[i].vertConf, pages[i].vertOK = conf, ok
			}
		}(i, img)
	}
	wg.Wait()
	timings[t.Name()] = ms(t)

	var texts []string
	for _, pg := range pages {
		if strings.TrimSpace(pg.text) != "" {
			texts = append(texts, pg.text)
		}
	}
	combined := strings.Join(texts, "\n")

	if significantChars(combined) < minSignificantChars {
		record.Errors = append(record.Errors, errEmptyOCR)
		record.Debug.TimingsMS = timings
		p.validator.Apply(record)
		return &Result{Record: record}
	}

	record.PageType = p.classifier.Classify(combined)

	t = common.NewNamedTimer("parse")
	record.Fields = p.parser.Parse(combined)
	for _, pg := range pages {
		if strings.TrimSpace(pg.text) == "" {
			continue
		}
		MergeFieldSets(record.Fields, p.parser.Parse(pg.text))
	}
	timings[t.Name()] = ms(t)

	for _, pg := range pages {
		if pg.vertOK {
			record.Fields.Set(document.FieldPassportSeries,
				document.NewFieldValue(pg.vertSeries, pg.vertConf, document.SourceVertical))
			record.Fields.Set(document.FieldPassportNumber,
				document.NewFieldValue(pg.vertNumber, pg.vertConf, document.SourceVertical))
			break
		}
	}

	if mf := mrz.ExtractFromText(combined); mf != nil {
		mf.MergeInto(record.Fields)
		record.Checks.MRZChecksumOK = mf.ChecksumOK
	}

	p.validator.Apply(record)

	timings[total.Name()] = ms(total)
	record.Debug.TimingsMS = timings
	return &Result{Record: record, Text: combined}
}

// MergeFieldSets folds src into dst. A src value is taken only when it is
// non-empty and either the dst slot is empty or, for free-text fields,
// the src value is strictly longer.
func MergeFieldSets(dst, src document.FieldSet) {
	for _, key := range document.FieldKeys {
		incoming := src.Get(key)
		if incoming.Value == "" {
			continue
		}
		existing := dst.Get(key)
		if existing.Value == "" {
			dst.Set(key, incoming)
			continue
		}
		if freeTextFields[key] && len([]rune(incoming.Value)) > len([]rune(existing.Value)) {
			dst.Set(key, incoming)
		}
	}
}
