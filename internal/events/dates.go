package events

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical stored date format
const DateLayout = "2006-01-02"

var italianMonths = [...]string{
	"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
	"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
}

// ConvertDate converts dd/mm/yyyy to zero-padded yyyy-mm-dd.
// Strings that do not have three slash-separated parts are returned unchanged.
func ConvertDate(s string) string {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}
	return fmt.Sprintf("%s-%s-%s", parts[2], padLeft(parts[1]), padLeft(parts[0]))
}

func padLeft(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}

// Today returns midnight of now's calendar day in loc
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}

// ParseDate parses a stored yyyy-mm-dd date at midnight in loc
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaysBetween returns the number of calendar days from a to b.
// Only the date part of each value is considered.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// FormatRange formats the event dates as "10 luglio - 13 luglio".
// A single date is returned when start and end are equal.
func FormatRange(e Event) string {
	start := formatDayMonth(e.StartDate)
	if e.StartDate == e.EndDate {
		return start
	}
	return start + " - " + formatDayMonth(e.EndDate)
}

func formatDayMonth(s string) string {
	t, ok := ParseDate(s, time.UTC)
	if !ok {
		return s
	}
	return fmt.Sprintf("%d %s", t.Day(), italianMonths[t.Month()-1])
}

// FormatTableDate formats a stored date as dd/mm/yyyy
func FormatTableDate(s string) string {
	t, ok := ParseDate(s, time.UTC)
	if !ok {
		return s
	}
	return t.Format("02/01/2006")
}
