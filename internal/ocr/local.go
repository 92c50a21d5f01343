package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/otiai10/gosseract/v2"

	"github.com/ruspass-tech/ruspass/internal/document"
	"github.com/ruspass-tech/ruspass/internal/parse"
	"github.com/ruspass-tech/ruspass/internal/preprocess"
	"github.com/ruspass-tech/ruspass/internal/utils"
)

// goodEnoughScore ends the variant search early: once a candidate text
// yields this many key fields there is little to gain from more passes.
const goodEnoughScore = 3

// LocalBackend recognizes text with a local Tesseract install through
// gosseract. Russian passports defeat a single-pass Tesseract run often
// enough that the backend tries several page segmentation modes,
// language sets and image renditions, scoring each candidate by how many
// key fields a trial parse recovers from it.
type LocalBackend struct {
	parser *parse.Parser
	// newClient is swappable in tests.
	newClient func() tesseractClient
}

// tesseractClient is the slice of gosseract.Client the backend uses.
type tesseractClient interface {
	SetLanguage(langs ...string) error
	SetPageSegMode(mode gosseract.PageSegMode) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	Close() error
}

// NewLocalBackend returns a backend using real gosseract clients.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		parser:    parse.NewParser(nil),
		newClient: func() tesseractClient { return gosseract.NewClient() },
	}
}

func (b *LocalBackend) Name() string { return "tesseract" }

type variant struct {
	name string
	img  image.Image
}

// variants builds the image renditions worth trying, cheapest first.
func renderVariants(img image.Image) []variant {
	out := []variant{
		{"full", img},
		{"center", utils.CenterCrop(img, 0.85)},
		{"contrast", preprocess.ContrastNormalize(img)},
	}
	for i, rot := range utils.Rotations(img)[1:] {
		out = append(out, variant{fmt.Sprintf("rot%d", (i+1)*90), rot})
	}
	return out
}

// Recognize runs the variant grid and keeps the best-scoring text.
func (b *LocalBackend) Recognize(ctx context.Context, img image.Image) (Result, error) {
	if img == nil {
		return Result{}, nil
	}

	langSets := [][]string{{"rus", "eng"}, {"rus"}}
	psms := []gosseract.PageSegMode{gosseract.PSM_SINGLE_BLOCK, gosseract.PSM_AUTO}

	best := Result{}
	bestScore := -1

	for _, v := range renderVariants(img) {
		data, err := encodePNG(v.img)
		if err != nil {
			continue
		}
		for _, langs := range langSets {
			for _, psm := range psms {
				if err := ctx.Err(); err != nil {
					return best, err
				}
				text, err := b.runOnce(data, langs, psm)
				if err != nil {
					slog.Debug("tesseract pass failed",
						"variant", v.name, "psm", int(psm), "error", err)
					continue
				}
				if Garbage(text) {
					continue
				}
				score := b.scoreText(text)
				if score > bestScore ||
					(score == bestScore && significantLen(text) > significantLen(best.Text)) {
					bestScore = score
					best = Result{Text: text, Confidence: localConfidence(score)}
				}
				if bestScore >= goodEnoughScore {
					return best, nil
				}
			}
		}
	}
	if bestScore < 0 {
		return Result{}, nil
	}
	return best, nil
}

func (b *LocalBackend) runOnce(data []byte, langs []string, psm gosseract.PageSegMode) (string, error) {
	client := b.newClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(langs...); err != nil {
		return "", err
	}
	if err := client.SetPageSegMode(psm); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", err
	}
	return client.Text()
}

// scoreText counts how many key fields a trial parse pulls out of text:
// surname, name, patronymic, and the series+number pair as one.
func (b *LocalBackend) scoreText(text string) int {
	fields := b.parser.Parse(text)
	score := 0
	for _, key := range []string{document.FieldSurname, document.FieldName, document.FieldPatronymic} {
		if fields.Get(key).Value != "" {
			score++
		}
	}
	if fields.Get(document.FieldPassportSeries).Value != "" &&
		fields.Get(document.FieldPassportNumber).Value != "" {
		score++
	}
	return score
}

// localConfidence maps the field score to a coarse confidence.
func localConfidence(score int) float64 {
	conf := 0.4 + 0.1*float64(score)
	if conf > 0.8 {
		conf = 0.8
	}
	return conf
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
