// Package utils provides the image helpers shared by preprocessing, the
// OCR adapter and the vertical-band detector.
package utils

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Rotate90 rotates the image 90 degrees counter-clockwise.
func Rotate90(img image.Image) image.Image { return imaging.Rotate90(img) }

// Rotate180 rotates the image 180 degrees.
func Rotate180(img image.Image) image.Image { return imaging.Rotate180(img) }

// Rotate270 rotates the image 270 degrees counter-clockwise.
func Rotate270(img image.Image) image.Image { return imaging.Rotate270(img) }

// Rotations returns the image at 0, 90, 180 and 270 degrees. Scan
// orientation is never guaranteed, so callers trial all four.
func Rotations(img image.Image) []image.Image {
	return []image.Image{img, Rotate90(img), Rotate180(img), Rotate270(img)}
}

// CropRect crops an image to the given rectangle, clamped to its bounds.
func CropRect(img image.Image, rect image.Rectangle) image.Image {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return imaging.New(0, 0, color.Transparent)
	}
	return imaging.Crop(img, rect)
}

// RightBand crops the vertical strip from frac*width to the right edge.
func RightBand(img image.Image, frac float64) image.Image {
	b := img.Bounds()
	x0 := b.Min.X + int(float64(b.Dx())*frac)
	return CropRect(img, image.Rect(x0, b.Min.Y, b.Max.X, b.Max.Y))
}

// LeftBand crops the vertical strip from the left edge to frac*width.
func LeftBand(img image.Image, frac float64) image.Image {
	b := img.Bounds()
	x1 := b.Min.X + int(float64(b.Dx())*frac)
	return CropRect(img, image.Rect(b.Min.X, b.Min.Y, x1, b.Max.Y))
}

// CenterCrop keeps the central frac share of both dimensions.
func CenterCrop(img image.Image, frac float64) image.Image {
	if frac <= 0 || frac >= 1 {
		return img
	}
	b := img.Bounds()
	w := int(float64(b.Dx()) * frac)
	h := int(float64(b.Dy()) * frac)
	return imaging.CropCenter(img, w, h)
}

// IsEmpty reports whether the image has no pixels.
func IsEmpty(img image.Image) bool {
	if img == nil {
		return true
	}
	b := img.Bounds()
	return b.Dx() <= 0 || b.Dy() <= 0
}
