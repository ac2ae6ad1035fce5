package meal

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims, lowercases and collapses internal whitespace.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// Canonical returns the title-cased form of a category name, so "  lunch" and
// "LUNCH" both become "Lunch".
func Canonical(s string) string {
	// Casers carry state and are not shared between goroutines.
	return cases.Title(language.English).String(Normalize(s))
}
