package vertical

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruspass-tech/ruspass/internal/testutil"
)

// fakeReader drives Extract through chosen paths without Tesseract.
type fakeReader struct {
	fn    func(img image.Image) (string, error)
	calls int
}

func (f *fakeReader) ReadDigits(img image.Image) (string, error) {
	f.calls++
	return f.fn(img)
}

func constReader(text string) *fakeReader {
	return &fakeReader{fn: func(image.Image) (string, error) { return text, nil }}
}

func errReader(err error) *fakeReader {
	return &fakeReader{fn: func(image.Image) (string, error) { return "", err }}
}

func testImage() image.Image {
	return testutil.CreateRedBandImage(100, 60)
}

func TestExtract_ExactRun(t *testing.T) {
	d := NewDetector(constReader("4008595794"), nil)

	series, number, conf, ok := d.Extract(testImage())
	require.True(t, ok)
	assert.Equal(t, "4008", series)
	assert.Equal(t, "595794", number)
	assert.InDelta(t, 0.85, conf, 1e-9)
}

func TestExtract_StripsNonDigits(t *testing.T) {
	d := NewDetector(constReader("40 08 595794\n"), nil)

	series, number, conf, ok := d.Extract(testImage())
	require.True(t, ok)
	assert.Equal(t, "4008", series)
	assert.Equal(t, "595794", number)
	assert.InDelta(t, 0.85, conf, 1e-9)
}

func TestExtract_WindowOverLongerRun(t *testing.T) {
	// Twelve digits: the sliding window finds the valid split, at reduced
	// confidence.
	d := NewDetector(constReader("400859579412"), nil)

	series, number, conf, ok := d.Extract(testImage())
	require.True(t, ok)
	assert.Equal(t, "4008", series)
	assert.Equal(t, "595794", number)
	assert.InDelta(t, 0.8, conf, 1e-9)
}

func TestExtract_YearPrefixRejected(t *testing.T) {
	d := NewDetector(constReader("2015123456"), nil)

	_, _, _, ok := d.Extract(testImage())
	assert.False(t, ok)
}

func TestExtract_ReaderErrors(t *testing.T) {
	reader := errReader(errors.New("engine unavailable"))
	d := NewDetector(reader, nil)

	_, _, _, ok := d.Extract(testImage())
	assert.False(t, ok)
	assert.Positive(t, reader.calls)
}

func TestExtract_EmptyText(t *testing.T) {
	d := NewDetector(constReader(""), nil)

	_, _, _, ok := d.Extract(testImage())
	assert.False(t, ok)
}

func TestExtract_NilReaderOrEmptyImage(t *testing.T) {
	d := NewDetector(nil, nil)
	_, _, _, ok := d.Extract(testImage())
	assert.False(t, ok)

	d = NewDetector(constReader("4008595794"), nil)
	_, _, _, ok = d.Extract(nil)
	assert.False(t, ok)
}

func TestExtract_WholeImageFallback(t *testing.T) {
	// Band reads fail; only the full rotations yield digits.
	full := func(b image.Rectangle) bool {
		return (b.Dx() == 100 && b.Dy() == 60) || (b.Dx() == 60 && b.Dy() == 100)
	}
	reader := &fakeReader{fn: func(img image.Image) (string, error) {
		if full(img.Bounds()) {
			return "серия 4008595794", nil
		}
		return "", errors.New("no digits")
	}}
	d := NewDetector(reader, nil)

	series, number, conf, ok := d.Extract(testImage())
	require.True(t, ok)
	assert.Equal(t, "4008", series)
	assert.Equal(t, "595794", number)
	assert.InDelta(t, 0.7, conf, 1e-9)
}

func TestRedMask(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.RGBA{R: 200, G: 30, B: 30, A: 255})  // red digit ink
	img.Set(1, 0, color.RGBA{R: 250, G: 250, B: 250, A: 255}) // paper
	img.Set(2, 0, color.RGBA{R: 40, G: 40, B: 200, A: 255})   // blue stamp

	mask := RedMask(img)
	assert.Equal(t, uint8(0), mask.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), mask.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(255), mask.GrayAt(2, 0).Y)
}

func TestRedMask_WeakRedIsPaper(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 60, G: 20, B: 20, A: 255}) // too dark to be ink

	mask := RedMask(img)
	assert.Equal(t, uint8(255), mask.GrayAt(0, 0).Y)
}

func TestOtsuBinarize(t *testing.T) {
	// Half dark, half bright: Otsu must separate the two populations.
	img := image.NewGray(image.Rect(0, 0, 10, 2))
	for x := 0; x < 10; x++ {
		img.SetGray(x, 0, color.Gray{Y: 20})
		img.SetGray(x, 1, color.Gray{Y: 230})
	}

	out := OtsuBinarize(img)
	for x := 0; x < 10; x++ {
		assert.Equal(t, uint8(0), out.GrayAt(x, 0).Y)
		assert.Equal(t, uint8(255), out.GrayAt(x, 1).Y)
	}
}

func TestOtsuThreshold_Empty(t *testing.T) {
	var hist [256]int
	assert.Equal(t, 127, otsuThreshold(hist, 0))
}
