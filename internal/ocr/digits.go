package ocr

import (
	"image"

	"github.com/otiai10/gosseract/v2"
)

// TesseractDigitReader recognizes digit-only strips with a whitelist
// restricted to digits and spaces. The vertical band detector uses it
// through its DigitReader interface.
type TesseractDigitReader struct{}

// NewTesseractDigitReader returns a digit-only reader.
func NewTesseractDigitReader() *TesseractDigitReader { return &TesseractDigitReader{} }

// ReadDigits recognizes img and returns the raw digit text. Failures
// come back as errors; callers treat them as "no digits here".
func (r *TesseractDigitReader) ReadDigits(img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage("eng"); err != nil {
		return "", err
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", err
	}
	if err := client.SetWhitelist("0123456789 "); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", err
	}
	return client.Text()
}
