package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rome = mustLoadLocation("Europe/Rome")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func day(s string) time.Time {
	t, ok := ParseDate(s, rome)
	if !ok {
		panic("bad test date " + s)
	}
	return t
}

func ev(id, start, end string) Event {
	return Event{ID: id, StartDate: start, EndDate: end, Tags: []string{}}
}

func ids(evts []Event) []string {
	out := []string{}
	for _, e := range evts {
		out = append(out, e.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	evts := []Event{
		{ID: "limone", Title: "Sagra del Limone", Location: "Massa Lubrense", Month: MonthLuglio, Tags: []string{"Limoni IGP"}},
		{ID: "pesce", Title: "Festa del Pesce", Location: "Cetara", Description: "alici e colatura", Month: MonthLuglio},
		{ID: "gnocchi", Title: "Gnocchi", Location: "Località Sorrento", Month: MonthAgosto, Tags: []string{"Tarantella"}},
		{ID: "castagna", Title: "Castagna", Location: "Montella", Month: MonthSettembre},
	}

	tests := []struct {
		name   string
		params FilterParams
		want   []string
	}{
		{"No constraints", FilterParams{}, []string{"limone", "pesce", "gnocchi", "castagna"}},
		{"Tab only", FilterParams{Tab: MonthLuglio}, []string{"limone", "pesce"}},
		{"Month all", FilterParams{Month: MonthAll, Tab: MonthAgosto}, []string{"gnocchi"}},
		{"Query title case-insensitive", FilterParams{Query: "SAGRA"}, []string{"limone"}},
		{"Query description", FilterParams{Query: "colatura"}, []string{"pesce"}},
		{"Query tag", FilterParams{Query: "igp"}, []string{"limone"}},
		{"Query substring", FilterParams{Query: "tarant"}, []string{"gnocchi"}},
		{"Query accent folded", FilterParams{Query: "localita"}, []string{"gnocchi"}},
		{"Query accented", FilterParams{Query: "Località"}, []string{"gnocchi"}},
		{"Month and tab intersect", FilterParams{Month: MonthAgosto, Tab: MonthLuglio}, []string{}},
		{"Month and tab agree", FilterParams{Month: MonthLuglio, Tab: MonthLuglio, Query: "festa"}, []string{"pesce"}},
		{"No match", FilterParams{Query: "pizza"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(evts, tt.params)))
		})
	}
}

func TestCurrent(t *testing.T) {
	today := day("2025-07-10")
	evts := []Event{
		ev("today-only", "2025-07-10", "2025-07-10"),
		ev("ended-yesterday", "2025-07-01", "2025-07-09"),
		ev("running", "2025-07-08", "2025-07-12"),
		ev("starts-tomorrow", "2025-07-11", "2025-07-12"),
		ev("ends-today", "2025-07-05", "2025-07-10"),
		ev("malformed", "10/07/2025", "2025-07-10"),
	}

	assert.Equal(t, []string{"today-only", "running", "ends-today"}, ids(Current(evts, today)))
}

func TestUpcoming(t *testing.T) {
	today := day("2025-07-01")
	evts := []Event{
		ev("seven", "2025-07-08", "2025-07-08"),
		ev("today", "2025-07-01", "2025-07-03"),
		ev("one", "2025-07-02", "2025-07-02"),
		ev("eight", "2025-07-09", "2025-07-09"),
		ev("past", "2025-06-30", "2025-07-05"),
		ev("three", "2025-07-04", "2025-07-06"),
		ev("malformed", "domani", "domani"),
	}

	assert.Equal(t, []string{"one", "three", "seven"}, ids(Upcoming(evts, today, UpcomingWindowDays)))
}

func TestUpcoming_AcrossDSTChange(t *testing.T) {
	// Europe/Rome switches to winter time on 2025-10-26
	today := day("2025-10-25")
	evts := []Event{
		ev("a", "2025-11-01", "2025-11-01"),
		ev("b", "2025-11-02", "2025-11-02"),
	}

	assert.Equal(t, []string{"a"}, ids(Upcoming(evts, today, 7)))
}

func TestNext(t *testing.T) {
	today := day("2025-07-01")
	evts := []Event{
		ev("august", "2025-08-01", "2025-08-03"),
		ev("past", "2025-06-05", "2025-06-06"),
		ev("july", "2025-07-10", "2025-07-12"),
		ev("today", "2025-07-01", "2025-07-02"),
	}

	next, ok := Next(evts, today)
	require.True(t, ok)
	assert.Equal(t, "july", next.ID)
	assert.Equal(t, "2025-07-10", next.StartDate)
}

func TestNext_None(t *testing.T) {
	today := day("2025-12-01")

	_, ok := Next([]Event{ev("past", "2025-07-10", "2025-07-12")}, today)
	assert.False(t, ok)

	_, ok = Next(nil, today)
	assert.False(t, ok)
}

func TestFeatured(t *testing.T) {
	evts := []Event{{ID: "a", Featured: true}, {ID: "b"}, {ID: "c", Featured: true}}
	assert.Equal(t, []string{"a", "c"}, ids(Featured(evts)))
}

func TestSortByStart(t *testing.T) {
	evts := []Event{
		ev("bad", "???", ""),
		ev("c", "2025-09-01", ""),
		ev("a", "2025-07-01", ""),
		ev("b1", "2025-08-01", ""),
		ev("b2", "2025-08-01", ""),
	}

	SortByStart(evts)
	assert.Equal(t, []string{"a", "b1", "b2", "c", "bad"}, ids(evts))
}

func TestStatus(t *testing.T) {
	today := day("2025-07-01")

	tests := []struct {
		name   string
		event  Event
		want   DateStatus
		wantOK bool
	}{
		{"Running", ev("x", "2025-06-30", "2025-07-02"), DateStatus{Status: StatusToday, Label: "Oggi"}, true},
		{"Tomorrow", ev("x", "2025-07-02", "2025-07-02"), DateStatus{Status: StatusTomorrow, Label: "Domani", Days: 1}, true},
		{"Soon", ev("x", "2025-07-05", "2025-07-06"), DateStatus{Status: StatusSoon, Label: "Tra 4 giorni", Days: 4}, true},
		{"Week", ev("x", "2025-07-08", "2025-07-08"), DateStatus{Status: StatusSoon, Label: "Tra 7 giorni", Days: 7}, true},
		{"Far", ev("x", "2025-07-09", "2025-07-09"), DateStatus{}, false},
		{"Past", ev("x", "2025-06-01", "2025-06-02"), DateStatus{}, false},
		{"Malformed", ev("x", "luglio", "luglio"), DateStatus{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Status(tt.event, today)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountdown(t *testing.T) {
	now := time.Date(2025, 7, 8, 22, 30, 15, 0, rome)

	got := Countdown(ev("x", "2025-07-10", "2025-07-10"), now)
	assert.Equal(t, Remaining{Active: true, Days: 1, Hours: 1, Minutes: 29, Seconds: 45}, got)

	assert.False(t, Countdown(ev("x", "2025-07-08", "2025-07-08"), now).Active)
	assert.False(t, Countdown(ev("x", "n/a", "n/a"), now).Active)
}
