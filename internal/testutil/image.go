// Package testutil generates synthetic scan images for tests.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // register decoder for LoadImage
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CreateTestImage creates a uniform image with the given dimensions.
func CreateTestImage(width, height int, backgroundColor color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)
	return img
}

// CreateTextImage renders lines of text on a white background. The
// pixels only matter structurally; recognition in tests goes through
// fake backends that return canned text.
func CreateTextImage(lines []string, width, height int) *image.RGBA {
	img := CreateTestImage(width, height, color.White)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
	}
	lineHeight := basicfont.Face7x13.Metrics().Height.Ceil() + 4
	for i, line := range lines {
		drawer.Dot = fixed.P(10, 20+i*lineHeight)
		drawer.DrawString(line)
	}
	return img
}

// CreateRedBandImage creates a white page with a red-dominant vertical
// strip along the right edge, the shape the band detector looks for.
func CreateRedBandImage(width, height int) *image.RGBA {
	img := CreateTestImage(width, height, color.White)

	red := color.RGBA{R: 200, G: 30, B: 30, A: 255}
	bandStart := int(float64(width) * 0.92)
	for y := height / 4; y < 3*height/4; y++ {
		for x := bandStart; x < width-4; x++ {
			img.Set(x, y, red)
		}
	}
	return img
}

// SaveImage writes an image as PNG, creating parent directories.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))

	file, err := os.Create(path) //nolint:gosec // G304: test-controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// LoadImage decodes an image file, failing the test on error.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	file, err := os.Open(path) //nolint:gosec // G304: test-controlled path
	require.NoError(t, err, "Failed to open image file %s", path)
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	require.NoError(t, err, "Failed to decode image")

	return img
}
