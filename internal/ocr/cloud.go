package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/disintegration/imaging"
)

// DefaultCloudURL is the batchAnalyze endpoint of the cloud vision API.
const DefaultCloudURL = "https://vision.api.cloud.yandex.net/vision/v1/batchAnalyze"

// DefaultMaxPayloadBytes caps the encoded JPEG sent to the API. Larger
// scans are re-encoded at lower quality and scale until they fit.
const DefaultMaxPayloadBytes = 900_000

const cloudConfidence = 0.85

// CloudBackend calls a hosted vision API over HTTP. It handles
// Cyrillic noticeably better than a stock local Tesseract and is tried
// first whenever an API key is configured.
type CloudBackend struct {
	APIKey          string
	URL             string
	MaxPayloadBytes int
	Client          *http.Client
}

// NewCloudBackend returns a backend with the standard endpoint and
// payload ceiling. The key may be empty; Configured reports usability.
func NewCloudBackend(apiKey string) *CloudBackend {
	return &CloudBackend{
		APIKey:          apiKey,
		URL:             DefaultCloudURL,
		MaxPayloadBytes: DefaultMaxPayloadBytes,
		Client:          &http.Client{Timeout: 60 * time.Second},
	}
}

func (b *CloudBackend) Name() string { return "cloud" }

// Configured reports whether the backend has an API key.
func (b *CloudBackend) Configured() bool { return b.APIKey != "" }

type analyzeRequest struct {
	AnalyzeSpecs []analyzeSpec `json:"analyze_specs"`
}

type analyzeSpec struct {
	Content  string    `json:"content"`
	Features []feature `json:"features"`
}

type feature struct {
	Type   string        `json:"type"`
	Config featureConfig `json:"text_detection_config"`
}

type featureConfig struct {
	LanguageCodes []string `json:"language_codes"`
}

// Recognize encodes the image, posts it and extracts the recognized
// text from the nested response.
func (b *CloudBackend) Recognize(ctx context.Context, img image.Image) (Result, error) {
	if !b.Configured() {
		return Result{}, nil
	}
	payload, err := b.encodeUnderCeiling(img)
	if err != nil {
		return Result{}, fmt.Errorf("cloud ocr: encode: %w", err)
	}

	body, err := json.Marshal(analyzeRequest{
		AnalyzeSpecs: []analyzeSpec{{
			Content: base64.StdEncoding.EncodeToString(payload),
			Features: []feature{{
				Type:   "TEXT_DETECTION",
				Config: featureConfig{LanguageCodes: []string{"ru", "en"}},
			}},
		}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("cloud ocr: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("cloud ocr: request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Key "+b.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := b.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("cloud ocr: post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("cloud ocr: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return Result{}, fmt.Errorf("cloud ocr: read body: %w", err)
	}

	text := ExtractResponseText(raw)
	if text == "" {
		slog.Debug("cloud ocr returned no text")
		return Result{}, nil
	}
	return Result{Text: text, Confidence: cloudConfidence}, nil
}

// encodeUnderCeiling JPEG-encodes img, stepping quality down and then
// scaling the image until the payload fits the ceiling.
func (b *CloudBackend) encodeUnderCeiling(img image.Image) ([]byte, error) {
	ceiling := b.MaxPayloadBytes
	if ceiling <= 0 {
		ceiling = DefaultMaxPayloadBytes
	}

	current := img
	for _, scale := range []float64{1.0, 0.75, 0.5} {
		if scale != 1.0 {
			bnd := img.Bounds()
			current = imaging.Resize(img, int(float64(bnd.Dx())*scale), 0, imaging.Lanczos)
		}
		for _, quality := range []int{85, 70, 55} {
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, current, &jpeg.Options{Quality: quality}); err != nil {
				return nil, err
			}
			if buf.Len() < ceiling {
				return buf.Bytes(), nil
			}
		}
	}
	return nil, fmt.Errorf("image does not fit payload ceiling %d", ceiling)
}

// ExtractResponseText pulls recognized text out of the API response. It
// first walks the documented shape (results → textDetection → fullText,
// then pages/blocks/lines); when the shape does not match, it falls back
// to collecting every string leaf that contains a letter or digit.
func ExtractResponseText(raw []byte) string {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return ""
	}

	if text := documentedText(root); text != "" {
		return text
	}

	var leaves []string
	collectLeaves(root, &leaves)
	if len(leaves) == 0 {
		return ""
	}
	if len(leaves) > 200 {
		leaves = leaves[:200]
	}
	return strings.Join(leaves, "\n")
}

func documentedText(root any) string {
	top, ok := root.(map[string]any)
	if !ok {
		return ""
	}
	outer, _ := top["results"].([]any)
	for _, r := range outer {
		res, ok := r.(map[string]any)
		if !ok {
			continue
		}
		inner, _ := res["results"].([]any)
		if inner == nil {
			inner, _ = res["result"].([]any)
		}
		for _, it := range inner {
			item, ok := it.(map[string]any)
			if !ok {
				continue
			}
			td, _ := item["textDetection"].(map[string]any)
			if td == nil {
				td, _ = item["textAnnotation"].(map[string]any)
			}
			if td == nil {
				continue
			}
			if full, _ := td["fullText"].(string); full != "" {
				return full
			}
			if text := pagesText(td); text != "" {
				return text
			}
		}
	}
	return ""
}

func pagesText(td map[string]any) string {
	var buf bytes.Buffer
	pages, _ := td["pages"].([]any)
	for _, p := range pages {
		page, ok := p.(map[string]any)
		if !ok {
			continue
		}
		blocks, _ := page["blocks"].([]any)
		for _, bl := range blocks {
			block, ok := bl.(map[string]any)
			if !ok {
				continue
			}
			lines, _ := block["lines"].([]any)
			for _, ln := range lines {
				line, ok := ln.(map[string]any)
				if !ok {
					continue
				}
				text, _ := line["text"].(string)
				if text == "" {
					words, _ := line["words"].([]any)
					var parts []string
					for _, w := range words {
						word, ok := w.(map[string]any)
						if !ok {
							continue
						}
						if wt, _ := word["text"].(string); wt != "" {
							parts = append(parts, wt)
						}
					}
					text = strings.Join(parts, " ")
				}
				if text != "" {
					if buf.Len() > 0 {
						buf.WriteByte('\n')
					}
					buf.WriteString(text)
				}
			}
		}
	}
	return buf.String()
}

// collectLeaves gathers string leaves with at least one letter or digit.
// Map keys are visited in sorted order so the salvaged text is the same
// on every run.
func collectLeaves(node any, out *[]string) {
	switch v := node.(type) {
	case string:
		if len(v) > 2 && hasLetterOrDigit(v) {
			*out = append(*out, strings.TrimSpace(v))
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectLeaves(v[k], out)
		}
	case []any:
		for _, child := range v {
			collectLeaves(child, out)
		}
	}
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
