package util

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the canonical calendar date format of the dataset.
const DateLayout = "2006-01-02"

var dayFirstPattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)

// ParseDate converts a date cell to YYYY-MM-DD. D/M/YYYY and D-M-YYYY are read
// day first; other shapes go through a generic parser. Blank or unreadable
// values fall back to ref.
func ParseDate(input string, ref time.Time) string {
	value, _ := ParseDateOK(input, ref)
	return value
}

// ParseDateOK is ParseDate that also reports whether the fallback was avoided.
// A blank cell falls back without counting as unreadable.
func ParseDateOK(input string, ref time.Time) (string, bool) {
	fallback := ref.UTC().Format(DateLayout)
	value := strings.TrimSpace(input)
	if value == "" {
		return fallback, true
	}

	if m := dayFirstPattern.FindStringSubmatch(value); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes 31/02 into March; reject instead.
		if t.Day() != day || int(t.Month()) != month {
			return fallback, false
		}
		return t.Format(DateLayout), true
	}

	t, ok := parseAny(value)
	if !ok {
		return fallback, false
	}
	return t.UTC().Format(DateLayout), true
}

// MustDate parses a canonical YYYY-MM-DD value as a UTC midnight.
func MustDate(value string) time.Time {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DaysBetween counts calendar days from from to to, both taken as UTC days.
func DaysBetween(from, to time.Time) int {
	return int((TruncateDay(to).Unix() - TruncateDay(from).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// TruncateDay drops the time of day in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseAny(value string) (t time.Time, ok bool) {
	// dateparse panics on a few pathological inputs.
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	parsed, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
