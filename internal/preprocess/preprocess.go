// Package preprocess wraps the geometric and photometric normalization
// applied before recognition: grayscale conversion, contrast stretch, a
// light sharpen and an upscale for small text. These are well-understood
// image transforms; the extraction core treats the output as just another
// input image.
package preprocess

import (
	"image"

	"github.com/disintegration/imaging"
)

// Config toggles the individual steps.
type Config struct {
	Grayscale bool
	Contrast  bool
	Sharpen   bool
	Upscale   bool
	// UpscaleBelow upscales 2x only when the longer edge is below this
	// size; heavily compressed phone photos gain nothing from it.
	UpscaleBelow int
}

// DefaultConfig enables the full stack.
func DefaultConfig() Config {
	return Config{
		Grayscale:    true,
		Contrast:     true,
		Sharpen:      true,
		Upscale:      true,
		UpscaleBelow: 1600,
	}
}

// Apply runs the configured steps and reports which ones ran. The flags
// end up in the record's debug block.
func Apply(img image.Image, cfg Config) (image.Image, map[string]bool) {
	info := make(map[string]bool)
	if img == nil {
		return nil, info
	}
	out := imaging.Clone(img)

	if cfg.Grayscale {
		out = imaging.Grayscale(out)
		info["grayscale"] = true
	}
	if cfg.Contrast {
		out = imaging.AdjustContrast(out, 15)
		info["contrast"] = true
	}
	if cfg.Sharpen {
		out = imaging.Sharpen(out, 0.5)
		info["sharpen"] = true
	}
	if cfg.Upscale {
		b := out.Bounds()
		longer := max(b.Dx(), b.Dy())
		if longer > 0 && longer < cfg.UpscaleBelow {
			out = imaging.Resize(out, b.Dx()*2, b.Dy()*2, imaging.Lanczos)
			info["upscale"] = true
		}
	}
	return out, info
}

// ContrastNormalize is the standalone variant used by the OCR adapter when
// trialing alternative image renditions.
func ContrastNormalize(img image.Image) image.Image {
	return imaging.AdjustContrast(imaging.Grayscale(img), 20)
}
