// Package ocr adapts text recognition engines behind a single Backend
// interface. The extraction core never talks to an engine directly; it
// receives plain text plus a coarse confidence and does not care whether
// it came from a cloud API or a local Tesseract install.
package ocr

import (
	"context"
	"image"
	"unicode"
)

// Result is the outcome of one recognition attempt. An empty Text with
// zero Confidence is a valid outcome, not an error.
type Result struct {
	Text       string
	Confidence float64
}

// Backend recognizes text in a page scan.
type Backend interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) (Result, error)
}

// Garbage reports whether text carries no signal at all: no letter and no
// digit in the whole string. Anything with at least one of either is kept
// and left to the parser.
func Garbage(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Backends returns the recognition order: cloud first when it is
// configured with a key, then local.
func Backends(cloud *CloudBackend, local *LocalBackend) []Backend {
	var out []Backend
	if cloud != nil && cloud.Configured() {
		out = append(out, cloud)
	}
	if local != nil {
		out = append(out, local)
	}
	return out
}

// significantLen counts letters and digits, the parser's working
// material. Whitespace and punctuation do not count.
func significantLen(text string) int {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
