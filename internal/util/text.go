package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// CleanCell trims a field and drops one surrounding double quote on each side.
func CleanCell(input string) string {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}

// NormalizeHeader prepares a header cell for synonym matching.
func NormalizeHeader(input string) string {
	return strings.ToLower(CleanCell(input))
}

// NormalizeSpaces collapses runs of whitespace into one space.
func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

func IsBlankRow(fields []string) bool {
	return strings.TrimSpace(strings.Join(fields, "")) == ""
}
