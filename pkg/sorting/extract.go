package sorting

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	leadingInteger = regexp.MustCompile(`\d+`)
	percentage     = regexp.MustCompile(`(\d+)%`)
)

// ExtractLeadingInteger returns the first run of digits in value, so
// "2-4 weeks" yields 2. Values without digits yield 0.
func ExtractLeadingInteger(value string) int {
	match := leadingInteger.FindString(value)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

// ExtractPercentage returns the first integer directly followed by a percent
// sign, so "300% ROI" yields 300. Values without one yield 0.
func ExtractPercentage(value string) int {
	match := percentage.FindStringSubmatch(value)
	if len(match) < 2 {
		return 0
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return n
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2006",
	"Jan 2006",
	"2006",
}

// ParseDate tries the publish date formats used by the content store.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CompareDates orders publish date labels. Labels that do not parse come
// first, ordered as strings; parsed labels follow in chronological order.
func CompareDates(a, b string) int {
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return 1
	case okB:
		return -1
	}
	return strings.Compare(a, b)
}
