// Package vertical finds the passport series and number printed as red
// digits in a vertical band along the page edge. The band survives scans
// that defeat full-page recognition, so its result takes priority over
// anything the text parser found.
package vertical

import (
	"image"
	"image/color"
	"log/slog"
	"regexp"

	"github.com/disintegration/imaging"

	"github.com/ruspass-tech/ruspass/internal/parse"
	"github.com/ruspass-tech/ruspass/internal/utils"
)

// rightFracs and leftFracs are the band start fractions tried in order:
// tight crops first, then looser ones, right edge before left.
var (
	rightFracs = []float64{0.88, 0.85, 0.80, 0.75, 0.70}
	leftFracs  = []float64{0.15, 0.20, 0.25}
)

const (
	confExactRun = 0.85
	confWindow   = 0.8
	confFallback = 0.7
)

var digitRunRe = regexp.MustCompile(`\d+`)
var nonDigitRe = regexp.MustCompile(`\D`)

// DigitReader recognizes a digit-only strip. The production reader runs
// Tesseract with a digit whitelist; tests plug in fakes.
type DigitReader interface {
	ReadDigits(img image.Image) (string, error)
}

// Detector locates and reads the vertical digit band.
type Detector struct {
	reader DigitReader
	parser *parse.Parser
}

// NewDetector builds a detector around the given reader. The series
// guards (year prefixes, denylisted prefixes) come from rules; nil means
// defaults.
func NewDetector(reader DigitReader, rules *parse.Rules) *Detector {
	return &Detector{reader: reader, parser: parse.NewParser(rules)}
}

// Extract scans img for the digit band and returns the 4-digit series
// and 6-digit number. ok is false when no acceptable run was found; that
// is the common case for registration pages and is not an error.
func (d *Detector) Extract(img image.Image) (series, number string, conf float64, ok bool) {
	if d.reader == nil || utils.IsEmpty(img) {
		return "", "", 0, false
	}

	rotations := utils.Rotations(img)

	for _, rot := range rotations {
		for _, frac := range rightFracs {
			if s, n, c, found := d.tryBand(utils.RightBand(rot, frac)); found {
				return s, n, c, true
			}
		}
		for _, frac := range leftFracs {
			if s, n, c, found := d.tryBand(utils.LeftBand(rot, frac)); found {
				return s, n, c, true
			}
		}
	}

	// Whole-image fallback: read digits off each full rotation and scan
	// contiguous runs for an acceptable 4+6 split.
	for _, rot := range rotations {
		text, err := d.reader.ReadDigits(rot)
		if err != nil {
			continue
		}
		for _, run := range digitRunRe.FindAllString(text, -1) {
			if s, n, found := d.parser.ScanDigitRun(run); found {
				return s, n, confFallback, true
			}
		}
	}
	return "", "", 0, false
}

// tryBand binarizes one candidate band two ways (red mask first, then
// grayscale Otsu) and reads digits off each.
func (d *Detector) tryBand(band image.Image) (string, string, float64, bool) {
	if utils.IsEmpty(band) {
		return "", "", 0, false
	}
	if s, n, c, ok := d.readBinarized(RedMask(band)); ok {
		return s, n, c, true
	}
	if s, n, c, ok := d.readBinarized(OtsuBinarize(band)); ok {
		return s, n, c, true
	}
	return "", "", 0, false
}

// readBinarized rotates the band to horizontal, upscales it and runs the
// digit reader over the result.
func (d *Detector) readBinarized(bin image.Image) (string, string, float64, bool) {
	// The band prints top-to-bottom; a clockwise quarter turn makes the
	// digits horizontal.
	horizontal := imaging.Rotate270(bin)
	b := horizontal.Bounds()
	scaled := imaging.Resize(horizontal, b.Dx()*2, b.Dy()*2, imaging.Lanczos)

	text, err := d.reader.ReadDigits(scaled)
	if err != nil {
		slog.Debug("digit read failed", "error", err)
		return "", "", 0, false
	}

	digits := nonDigitRe.ReplaceAllString(text, "")
	if len(digits) < 10 {
		return "", "", 0, false
	}
	s, n, ok := d.parser.ScanDigitRun(digits)
	if !ok {
		return "", "", 0, false
	}
	conf := confWindow
	if len(digits) == 10 {
		conf = confExactRun
	}
	return s, n, conf, true
}

// RedMask binarizes a band by red dominance: a pixel belongs to a digit
// when its red channel is strong and clearly above green and blue. Digits
// come out black on white.
func RedMask(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			r8, g8, b8 := float64(r>>8), float64(g>>8), float64(bl>>8)
			if r8 > 80 && r8 > g8*1.1 && r8 > b8*1.1 {
				out.SetGray(x, y, color.Gray{Y: 0})
			} else {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// OtsuBinarize converts a band to grayscale and thresholds it with Otsu's
// method. Used when the red mask finds nothing, typically on faded or
// color-shifted scans.
func OtsuBinarize(img image.Image) *image.Gray {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()

	var hist [256]int
	total := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.GrayModel.Convert(gray.At(x, y)).(color.Gray)
			hist[c.Y]++
			total++
		}
	}
	threshold := otsuThreshold(hist, total)

	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.GrayModel.Convert(gray.At(x, y)).(color.Gray)
			if int(c.Y) > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// otsuThreshold picks the threshold maximizing between-class variance.
func otsuThreshold(hist [256]int, total int) int {
	if total == 0 {
		return 127
	}
	var sum float64
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}

	var sumB, wB float64
	best, bestVar := 127, -1.0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	return best
}
