// Package classify labels an OCR text as the biographical main spread, the
// registration/address page, or unknown, by scoring two keyword sets.
// Classification only affects which fields are expected downstream; it
// never blocks extraction, and "unknown" is a valid terminal state.
package classify

import (
	"strings"

	"github.com/ruspass-tech/ruspass/internal/document"
)

// Keywords holds the two scored keyword lists. Lower-cased. Locale data,
// replaceable for other document families.
type Keywords struct {
	Main         []string `yaml:"main"`
	Registration []string `yaml:"registration"`
	// RegistrationMarker alone forces the registration label even when
	// the keyword scores are inconclusive.
	RegistrationMarker string `yaml:"registration_marker"`
}

// DefaultKeywords returns the Russian internal passport keyword sets.
func DefaultKeywords() Keywords {
	return Keywords{
		Main: []string{
			"фамилия", "имя", "отчество", "пол", "дата рождения", "место рождения",
			"паспорт выдан", "дата выдачи", "код подразделения", "личная подпись",
		},
		Registration: []string{
			"место жительства", "зарегистрирован", "адрес", "улица", "дом", "квартира",
			"семейное положение", "дети", "сведения о ранее выданном",
		},
		RegistrationMarker: "зарегистрирован",
	}
}

// Classifier scores OCR text against keyword sets.
type Classifier struct {
	kw Keywords
}

// New returns a classifier with the given keyword sets; zero-value sets
// fall back to the defaults.
func New(kw Keywords) *Classifier {
	if len(kw.Main) == 0 && len(kw.Registration) == 0 {
		kw = DefaultKeywords()
	}
	return &Classifier{kw: kw}
}

// Classify labels the page. Decision ladder, in order: strong biographical
// score, registration score or explicit marker, weak biographical score,
// unknown.
func (c *Classifier) Classify(ocrText string) document.PageType {
	if strings.TrimSpace(ocrText) == "" {
		return document.PageUnknown
	}
	low := strings.ToLower(strings.ReplaceAll(ocrText, "\n", " "))

	mainScore := countHits(low, c.kw.Main)
	regScore := countHits(low, c.kw.Registration)

	switch {
	case mainScore >= 3 || (mainScore >= 2 && regScore < 2):
		return document.PageMain
	case regScore >= 2 || (c.kw.RegistrationMarker != "" && strings.Contains(low, c.kw.RegistrationMarker)):
		return document.PageRegistration
	case mainScore >= 1:
		return document.PageMain
	default:
		return document.PageUnknown
	}
}

func countHits(low string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(low, kw) {
			hits++
		}
	}
	return hits
}
