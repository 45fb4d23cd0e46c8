package importer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dayMonthAbbrevRe = regexp.MustCompile(`^(\d{1,2})-([A-Za-z]{3})-(\d{2,4})$`)
	dayMonthYearRe   = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})$`)
)

var monthAbbrevs = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseFlexibleDate parses the date grammars seen in bank exports, in
// priority order: standard ISO/RFC forms, D-MMM-YY(YY) with an English month
// abbreviation, then D[/-]M[/-]YY(YY) as day-month-year (never month-day).
// Two-digit years are interpreted as 2000+YY. Returns false for anything
// unparseable.
func ParseFlexibleDate(s string) (time.Time, bool) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"January 2, 2006",
		"Jan 2, 2006",
		"2 January 2006",
	} {
		if d, err := time.Parse(layout, clean); err == nil {
			return d, true
		}
	}

	if m := dayMonthAbbrevRe.FindStringSubmatch(clean); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, ok := monthAbbrevs[strings.ToLower(m[2])]
		if !ok {
			return time.Time{}, false
		}
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
	}

	if m := dayMonthYearRe.FindStringSubmatch(clean); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month < 1 || month > 12 {
			return time.Time{}, false
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

var timeOfDayRe = regexp.MustCompile(`(\d+):(\d+)(?::(\d+))?`)

// mergeTimeOfDay folds an HH:MM or HH:MM:SS string into a parsed date. The
// date is returned unchanged when the string has no recognizable time.
func mergeTimeOfDay(date time.Time, s string) time.Time {
	m := timeOfDayRe.FindStringSubmatch(s)
	if m == nil {
		return date
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds := 0
	if m[3] != "" {
		seconds, _ = strconv.Atoi(m[3])
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hours, minutes, seconds, 0, date.Location())
}
