package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// \s alone misses the unicode spaces the portal uses.
var whitespaceRegex = regexp.MustCompile(`[\s\v\p{Zs}\x{feff}\x{2028}\x{2029}]+`)

// the portal mixes in every flavour of non-breaking space, and sometimes a
// comma after the month.
var dateReplacer = strings.NewReplacer(
	"\u00a0", " ",
	"\u2007", " ",
	"\u202f", " ",
	",", "",
)

// NormalizeDate turns variants of the same date string into the same string
// without changing its case.
//
// "24 Nov, 2025 " -> "24 Nov 2025"
func NormalizeDate(s string) string {
	s = dateReplacer.Replace(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// DateKey is NormalizeDate lowercased, it is what dates are compared by.
func DateKey(s string) string {
	return strings.ToLower(NormalizeDate(s))
}

// FormatPortalDate formats t the way the portal prints dates ("24 Nov, 2025")
// in the given location.
func FormatPortalDate(t time.Time, location *time.Location) string {
	return t.In(location).Format("02 Jan, 2006")
}

var (
	roomRegex    = regexp.MustCompile(`(?i)Room\s*:`)
	facultyRegex = regexp.MustCompile(`(?i)Faculty Id\s*:`)
)

// AnnotateCell collapses the whitespace of a timetable cell and separates the
// room and faculty parts with pipes.
//
// "CS301  Room : 204 Faculty Id: IARE10" -> "CS301 | Room: 204 | Faculty: IARE10"
func AnnotateCell(s string) string {
	s = whitespaceRegex.ReplaceAllString(s, " ")
	s = roomRegex.ReplaceAllString(s, "| Room:")
	s = facultyRegex.ReplaceAllString(s, "| Faculty:")
	return strings.TrimSpace(s)
}

// parseNumber reads a numeric cell, an empty cell is 0. The boolean is false
// when the cell holds something that is not a number.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parsePeriod reads a period number, only whole periods 1 through 6 exist.
func parsePeriod(s string) (int, bool) {
	period, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || period < 1 || period > PeriodsPerDay {
		return 0, false
	}
	return period, true
}
