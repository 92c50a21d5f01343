// Package ingest loads scan sources, single images or multi-page PDFs,
// and turns them into decoded pages ready for recognition. It enforces
// the size ceiling and the supported-format check before any pixel work
// happens.
package ingest

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ruspass-tech/ruspass/internal/utils"
)

// DefaultMaxFileBytes caps accepted input files at 20 MB.
const DefaultMaxFileBytes = 20 * 1024 * 1024

// Error wraps ingestion failures with the offending path.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ingest %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("ingest %s: %s", e.Path, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Page is one decoded page of an input document. Single images yield one
// page; PDFs yield a page per embedded scan.
type Page struct {
	Image  image.Image
	Number int
}

// Config bounds what Load will accept.
type Config struct {
	MaxFileBytes int64
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{MaxFileBytes: DefaultMaxFileBytes}
}

// Load reads path and returns its pages in order. The file must be a
// supported raster image or a PDF, and must fit the configured ceiling.
func Load(path string, cfg Config) ([]Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &Error{Path: path, Reason: "stat failed", Err: err}
	}
	if info.IsDir() {
		return nil, &Error{Path: path, Reason: "is a directory"}
	}
	if cfg.MaxFileBytes > 0 && info.Size() > cfg.MaxFileBytes {
		return nil, &Error{
			Path:   path,
			Reason: fmt.Sprintf("file size %d exceeds limit %d", info.Size(), cfg.MaxFileBytes),
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return loadPDF(path)
	case utils.IsSupportedImage(path):
		img, _, err := utils.LoadImage(path)
		if err != nil {
			return nil, &Error{Path: path, Reason: "image decode failed", Err: err}
		}
		return []Page{{Image: img, Number: 1}}, nil
	default:
		return nil, &Error{Path: path, Reason: fmt.Sprintf("unsupported file type %q", ext)}
	}
}

// loadPDF extracts the embedded page scans from a PDF and returns them in
// page order.
func loadPDF(path string) ([]Page, error) {
	byPage, err := ExtractPDFImages(path, "")
	if err != nil {
		return nil, &Error{Path: path, Reason: "pdf extraction failed", Err: err}
	}
	if len(byPage) == 0 {
		return nil, &Error{Path: path, Reason: "pdf contains no extractable images"}
	}

	nums := make([]int, 0, len(byPage))
	for n := range byPage {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var pages []Page
	for _, n := range nums {
		for _, img := range byPage[n] {
			pages = append(pages, Page{Image: img, Number: n})
		}
	}
	return pages, nil
}
