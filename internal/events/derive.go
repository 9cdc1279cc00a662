package events

import (
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UpcomingWindowDays is the look-ahead of the "in arrivo" section
const UpcomingWindowDays = 7

// FilterParams holds the search box, month select and active tab
type FilterParams struct {
	Query string
	// Month is the month select value; "all" or empty disables it
	Month string
	// Tab is the active month tab; empty disables it
	Tab string
}

// Filter returns the events matching the query and both month constraints
func Filter(evts []Event, p FilterParams) []Event {
	query := fold(strings.TrimSpace(p.Query))

	out := []Event{}
	for _, e := range evts {
		if query != "" && !matchesQuery(e, query) {
			continue
		}
		if p.Month != "" && p.Month != MonthAll && e.Month != p.Month {
			continue
		}
		if p.Tab != "" && e.Month != p.Tab {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesQuery(e Event, query string) bool {
	if strings.Contains(fold(e.Title), query) ||
		strings.Contains(fold(e.Location), query) ||
		strings.Contains(fold(e.Description), query) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(fold(tag), query) {
			return true
		}
	}
	return false
}

// fold lower-cases s and strips accents so "Località" matches "localita"
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Current returns the events running on today (start and end inclusive)
func Current(evts []Event, today time.Time) []Event {
	loc := today.Location()
	out := []Event{}
	for _, e := range evts {
		start, okStart := ParseDate(e.StartDate, loc)
		end, okEnd := ParseDate(e.EndDate, loc)
		if !okStart || !okEnd {
			continue
		}
		if DaysBetween(start, today) >= 0 && DaysBetween(today, end) >= 0 {
			out = append(out, e)
		}
	}
	return out
}

// Upcoming returns the events starting within the next days days, today excluded,
// sorted by start date
func Upcoming(evts []Event, today time.Time, days int) []Event {
	loc := today.Location()
	out := []Event{}
	for _, e := range evts {
		start, ok := ParseDate(e.StartDate, loc)
		if !ok {
			continue
		}
		if diff := DaysBetween(today, start); diff > 0 && diff <= days {
			out = append(out, e)
		}
	}
	SortByStart(out)
	return out
}

// Next returns the soonest event starting after today
func Next(evts []Event, today time.Time) (Event, bool) {
	loc := today.Location()
	future := []Event{}
	for _, e := range evts {
		start, ok := ParseDate(e.StartDate, loc)
		if ok && DaysBetween(today, start) > 0 {
			future = append(future, e)
		}
	}
	if len(future) == 0 {
		return Event{}, false
	}
	SortByStart(future)
	return future[0], true
}

// Featured returns the events flagged as featured
func Featured(evts []Event) []Event {
	out := []Event{}
	for _, e := range evts {
		if e.Featured {
			out = append(out, e)
		}
	}
	return out
}

// SortByStart sorts events by start date in ascending order.
// Events with a malformed start date are placed last.
func SortByStart(evts []Event) {
	sort.SliceStable(evts, func(i, j int) bool {
		a, okA := ParseDate(evts[i].StartDate, time.UTC)
		b, okB := ParseDate(evts[j].StartDate, time.UTC)
		if !okA || !okB {
			return okA && !okB
		}
		return a.Before(b)
	})
}

// DateStatus is the badge shown on an event card
type DateStatus struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Days   int    `json:"days"`
}

// Date status values
const (
	StatusToday    = "today"
	StatusTomorrow = "tomorrow"
	StatusSoon     = "soon"
)

// Status returns the badge of e relative to today, if any
func Status(e Event, today time.Time) (DateStatus, bool) {
	loc := today.Location()
	start, okStart := ParseDate(e.StartDate, loc)
	end, okEnd := ParseDate(e.EndDate, loc)
	if !okStart {
		return DateStatus{}, false
	}

	if okEnd && DaysBetween(start, today) >= 0 && DaysBetween(today, end) >= 0 {
		return DateStatus{Status: StatusToday, Label: "Oggi"}, true
	}

	switch diff := DaysBetween(today, start); {
	case diff == 1:
		return DateStatus{Status: StatusTomorrow, Label: "Domani", Days: 1}, true
	case diff > 1 && diff <= UpcomingWindowDays:
		return DateStatus{Status: StatusSoon, Label: "Tra " + strconv.Itoa(diff) + " giorni", Days: diff}, true
	}
	return DateStatus{}, false
}

// Remaining is the countdown to the next event
type Remaining struct {
	Active  bool `json:"active"`
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
}

// Countdown returns the time left from now until midnight of the event's start date
func Countdown(e Event, now time.Time) Remaining {
	start, ok := ParseDate(e.StartDate, now.Location())
	if !ok {
		return Remaining{}
	}
	d := start.Sub(now)
	if d <= 0 {
		return Remaining{}
	}

	total := int(d / time.Second)
	return Remaining{
		Active:  true,
		Days:    total / 86400,
		Hours:   total % 86400 / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}
