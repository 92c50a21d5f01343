package parse

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules carries the locale-specific extraction data: label words, the
// denylist of structural tokens that must never be captured as names, the
// patronymic suffixes used by the structural fallbacks, and the extra
// series-prefix guards. The defaults target the Russian internal passport;
// other locales can load their own set from a YAML file.
type Rules struct {
	// SurnameLabels, NameLabels and PatronymicLabels are the lower-cased
	// label words anchoring the name-triple extraction. PatronymicLabels
	// includes the frequent OCR misreading of the real label.
	SurnameLabels    []string `yaml:"surname_labels"`
	NameLabels       []string `yaml:"name_labels"`
	PatronymicLabels []string `yaml:"patronymic_labels"`

	// Denylist holds lower-cased structural and boilerplate tokens
	// (agency names, document-type words, place-type words) excluded from
	// name candidacy at every stage.
	Denylist []string `yaml:"denylist"`

	// PatronymicSuffixes are the lower-cased endings that mark the third
	// token of a name triple as a patronymic.
	PatronymicSuffixes []string `yaml:"patronymic_suffixes"`

	// SeriesPrefixDenylist rejects series/number candidates whose 4-digit
	// series starts with one of these prefixes. The 19/20 year guard is
	// always applied on top of this list.
	SeriesPrefixDenylist []string `yaml:"series_prefix_denylist"`

	labelSet map[string]struct{}
	denySet  map[string]struct{}
}

// DefaultRules returns the hand-tuned Russian-passport rule set.
func DefaultRules() *Rules {
	r := &Rules{
		SurnameLabels:    []string{"фамилия"},
		NameLabels:       []string{"имя"},
		PatronymicLabels: []string{"отчество", "почество"},
		Denylist: []string{
			"выдан", "выдана", "выдано", "паспорт", "россия", "российская",
			"федерация", "отдел", "отделом", "отделение", "уфмс", "оуфмс",
			"мвд", "увд", "овд", "тп", "гу", "область", "обл", "край",
			"район", "город", "гор", "пос", "село", "дата", "место",
			"рождения", "жительства", "код", "подразделения", "личная",
			"подпись", "пол", "муж", "жен", "зарегистрирован",
		},
		PatronymicSuffixes:   []string{"вич", "вна", "ова", "ич"},
		SeriesPrefixDenylist: nil,
	}
	r.index()
	return r
}

// LoadRules reads a YAML rule file and overlays it on the defaults. Lists
// present in the file replace the default list wholesale.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: rule file path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	r := DefaultRules()
	if len(loaded.SurnameLabels) > 0 {
		r.SurnameLabels = loaded.SurnameLabels
	}
	if len(loaded.NameLabels) > 0 {
		r.NameLabels = loaded.NameLabels
	}
	if len(loaded.PatronymicLabels) > 0 {
		r.PatronymicLabels = loaded.PatronymicLabels
	}
	if len(loaded.Denylist) > 0 {
		r.Denylist = loaded.Denylist
	}
	if len(loaded.PatronymicSuffixes) > 0 {
		r.PatronymicSuffixes = loaded.PatronymicSuffixes
	}
	if len(loaded.SeriesPrefixDenylist) > 0 {
		r.SeriesPrefixDenylist = loaded.SeriesPrefixDenylist
	}
	r.index()
	return r, nil
}

func (r *Rules) index() {
	r.labelSet = make(map[string]struct{})
	for _, group := range [][]string{r.SurnameLabels, r.NameLabels, r.PatronymicLabels} {
		for _, l := range group {
			r.labelSet[strings.ToLower(l)] = struct{}{}
		}
	}
	r.denySet = make(map[string]struct{}, len(r.Denylist))
	for _, d := range r.Denylist {
		r.denySet[strings.ToLower(d)] = struct{}{}
	}
}

// isLabel reports whether the lower-cased word is one of the name labels.
func (r *Rules) isLabel(lower string) bool {
	_, ok := r.labelSet[lower]
	return ok
}

// isDenied reports whether the lower-cased word is a structural token.
func (r *Rules) isDenied(lower string) bool {
	_, ok := r.denySet[lower]
	return ok
}

// hasPatronymicSuffix reports whether the lower-cased word carries one of
// the configured patronymic endings.
func (r *Rules) hasPatronymicSuffix(lower string) bool {
	for _, s := range r.PatronymicSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
