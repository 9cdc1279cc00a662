package app

import (
	"time"

	"github.com/klabast/wb-services/sagre-kalender/internal/events"
)

// maxHolidaySpan bounds the days scanned for a single event
const maxHolidaySpan = 366

// GetItalianHolidays returns the Italian national public holidays for the given year
func GetItalianHolidays(year int) map[string]string {
	holidays := make(map[string]string)

	// Fixed holidays
	holidays[formatDate(year, 1, 1)] = "Capodanno"
	holidays[formatDate(year, 1, 6)] = "Epifania"
	holidays[formatDate(year, 4, 25)] = "Festa della Liberazione"
	holidays[formatDate(year, 5, 1)] = "Festa del Lavoro"
	holidays[formatDate(year, 6, 2)] = "Festa della Repubblica"
	holidays[formatDate(year, 8, 15)] = "Ferragosto"
	holidays[formatDate(year, 11, 1)] = "Ognissanti"
	holidays[formatDate(year, 12, 8)] = "Immacolata Concezione"
	holidays[formatDate(year, 12, 25)] = "Natale"
	holidays[formatDate(year, 12, 26)] = "Santo Stefano"

	easter := calculateEaster(year)
	holidays[formatDateFromTime(easter)] = "Pasqua"
	holidays[formatDateFromTime(easter.AddDate(0, 0, 1))] = "Lunedì dell'Angelo"

	return holidays
}

// calculateEaster calculates Easter Sunday using the Meeus/Jones/Butcher algorithm
func calculateEaster(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	// Use noon to avoid timezone issues when formatting to YYYY-MM-DD
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
}

// formatDate formats a date as YYYY-MM-DD
func formatDate(year, month, day int) string {
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC).Format("2006-01-02")
}

func formatDateFromTime(t time.Time) string {
	return t.Format("2006-01-02")
}

// HolidayDuring returns the first national holiday falling between the
// event's start and end dates, inclusive
func HolidayDuring(e events.Event) (date, name string, ok bool) {
	start, okStart := events.ParseDate(e.StartDate, time.UTC)
	end, okEnd := events.ParseDate(e.EndDate, time.UTC)
	if !okStart {
		return "", "", false
	}
	if !okEnd || end.Before(start) {
		end = start
	}
	if events.DaysBetween(start, end) > maxHolidaySpan {
		end = start.AddDate(0, 0, maxHolidaySpan)
	}

	holidays := map[int]map[string]string{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if _, ok := holidays[d.Year()]; !ok {
			holidays[d.Year()] = GetItalianHolidays(d.Year())
		}
		key := d.Format(events.DateLayout)
		if n, ok := holidays[d.Year()][key]; ok {
			return key, n, true
		}
	}
	return "", "", false
}
