package canon

import (
	"strings"
	"unicode"
)

// Text normalizes a free-text filter value: trims, collapses inner
// whitespace and drops control characters. Letter case and accents are kept
// because the API matches city and neighborhood names verbatim.
func Text(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return collapseSpaces(s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
