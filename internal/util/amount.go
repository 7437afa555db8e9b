package util

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyPattern = regexp.MustCompile(`(?i)rp\.?|idr|usd|eur|[$€£]`)
	spacePattern    = regexp.MustCompile(`\s+`)
	leadingNumber   = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)`)
	exponentForm    = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)[eE][+-]?\d`)
)

// ParseAmount reads a money cell written in either the "1,234.56" or the
// "1.234,56" convention. Anything unreadable is zero.
func ParseAmount(input string) decimal.Decimal {
	value, _ := ParseAmountOK(input)
	return value
}

// ParseAmountOK is ParseAmount that also reports whether a number was found.
// A blank cell is zero and not an error.
func ParseAmountOK(input string) (decimal.Decimal, bool) {
	clean := strings.ReplaceAll(input, "\u00A0", "")
	clean = currencyPattern.ReplaceAllString(clean, "")
	clean = spacePattern.ReplaceAllString(clean, "")
	if clean == "" {
		return decimal.Zero, true
	}

	normalized := normalizeSeparators(clean)
	// Exponent notation is unreadable: 1e999999999 would expand to a billion digits.
	if exponentForm.MatchString(normalized) {
		return decimal.Zero, false
	}
	token := leadingNumber.FindString(normalized)
	if token == "" {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

// normalizeSeparators rewrites the decimal separator to a dot. With both
// separators present the dot groups thousands; a lone comma is the decimal mark.
func normalizeSeparators(token string) string {
	hasDot := strings.Contains(token, ".")
	hasComma := strings.Contains(token, ",")
	switch {
	case hasDot && hasComma:
		return strings.Replace(strings.ReplaceAll(token, ".", ""), ",", ".", 1)
	case hasComma:
		return strings.Replace(token, ",", ".", 1)
	default:
		return token
	}
}
