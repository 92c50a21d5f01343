package parse

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/ruspass-tech/ruspass/internal/document"
)

var (
	dateTokenRe = regexp.MustCompile(`\b(\d{1,2})[.\-](\d{1,2})[.\-](\d{4})\b`)
	birthDateRe = regexp.MustCompile(`(?i)(?:дата\s+рождения|рождения)[:\s]*(\d{1,2}[.\-]\d{1,2}[.\-]\d{4})`)
	issueDateRe = regexp.MustCompile(`(?i)(?:дата\s+выдачи|выдачи)[:\s]*(\d{1,2}[.\-]\d{1,2}[.\-]\d{4})`)
)

// normDateISO converts a DD.MM.YYYY or DD-MM-YYYY token into the canonical
// YYYY-MM-DD textual form. Returns "" for anything else.
func normDateISO(s string) string {
	m := dateTokenRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
}

// extractDates recovers the birth and issue dates. Label-anchored matches
// win; for whichever label match fails, all date-like tokens are collected
// and ordered by year: the earliest is the birth date and the latest the
// issue date, since birth necessarily precedes issue on this document.
func (p *Parser) extractDates(t text) (birth, issue document.FieldValue) {
	var birthVal, issueVal string
	birthConf, issueConf := confDate, confDate

	if m := birthDateRe.FindStringSubmatch(t.full); m != nil {
		birthVal = normDateISO(m[1])
	}
	if m := issueDateRe.FindStringSubmatch(t.full); m != nil {
		issueVal = normDateISO(m[1])
	}

	if birthVal == "" || issueVal == "" {
		type dated struct {
			iso  string
			year int
		}
		var all []dated
		for _, m := range dateTokenRe.FindAllStringSubmatch(t.full, -1) {
			year, _ := strconv.Atoi(m[3])
			all = append(all, dated{iso: normDateISO(m[0]), year: year})
		}
		sort.SliceStable(all, func(i, j int) bool { return all[i].year < all[j].year })
		if birthVal == "" && len(all) > 0 {
			birthVal, birthConf = all[0].iso, confDateOrder
		}
		if issueVal == "" && len(all) > 1 {
			issueVal, issueConf = all[len(all)-1].iso, confDateOrder
		}
	}

	return ocrOrEmpty(birthVal, birthConf), ocrOrEmpty(issueVal, issueConf)
}
