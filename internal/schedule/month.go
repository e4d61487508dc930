package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type monthName struct {
	name  string
	index int
}

// monthNames is checked in order; the first name contained in a title wins.
// Names are stored already normalized except "março", kept so callers that
// skip normalization still match the accented spelling.
var monthNames = []monthName{
	{"janeiro", 0},
	{"fevereiro", 1},
	{"março", 2},
	{"marco", 2},
	{"abril", 3},
	{"maio", 4},
	{"junho", 5},
	{"julho", 6},
	{"agosto", 7},
	{"setembro", 8},
	{"outubro", 9},
	{"novembro", 10},
	{"dezembro", 11},
	{"january", 0},
	{"february", 1},
	{"march", 2},
	{"april", 3},
	{"may", 4},
	{"june", 5},
	{"july", 6},
	{"august", 7},
	{"september", 8},
	{"october", 9},
	{"november", 10},
	{"december", 11},
}

var yearPattern = regexp.MustCompile(`20\d{2}`)

// NormalizeText lower-cases s and strips diacritics ("Março" -> "marco")
func NormalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

func lookupMonth(normalized string) (int, bool) {
	for _, m := range monthNames {
		if strings.Contains(normalized, m.name) {
			return m.index, true
		}
	}
	return 0, false
}

// ExtractMonthYear resolves the 0-based month and 4-digit year from a thread title.
// Either value is nil when the title does not contain it.
func ExtractMonthYear(title string) (month *int, year *int) {
	if idx, ok := lookupMonth(NormalizeText(title)); ok {
		month = &idx
	}
	if match := yearPattern.FindString(title); match != "" {
		if y, err := strconv.Atoi(match); err == nil {
			year = &y
		}
	}
	return month, year
}

// ContainsMonthName reports whether s mentions any known month name
func ContainsMonthName(s string) bool {
	_, ok := lookupMonth(NormalizeText(s))
	return ok
}

// MonthIndex looks up a single month word, e.g. "August" or "Março"
func MonthIndex(word string) (int, bool) {
	normalized := NormalizeText(strings.TrimSpace(word))
	for _, m := range monthNames {
		if normalized == m.name {
			return m.index, true
		}
	}
	return 0, false
}
