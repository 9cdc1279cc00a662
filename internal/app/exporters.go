package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/sagre-kalender/internal/events"
)

// Export formats
const (
	FormatICS  = "ics"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ICS constants
const (
	ICSUIDDomain    = "sagrecampania.it"
	ICSPublishedTTL = "PT1H"
)

var csvHeader = []string{
	"id", "titolo", "inizio", "fine", "luogo", "indirizzo", "orario",
	"mese", "zona", "costo", "organizzatore", "tag",
}

// exportName returns the file name stem for an export
func exportName(month string) string {
	if month == "" || month == events.MonthAll {
		return "sagre"
	}
	return "sagre_" + month
}

// buildCalendar converts events into an all-day VCALENDAR.
// Events whose dates do not parse are skipped.
func buildCalendar(name string, evts []events.Event, now time.Time, loc *time.Location) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetProductId(ICSProductID)
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(loc.String())

	for _, e := range evts {
		start, ok := events.ParseDate(e.StartDate, loc)
		if !ok {
			continue
		}
		end, ok := events.ParseDate(e.EndDate, loc)
		if !ok || end.Before(start) {
			end = start
		}

		vevent := cal.AddEvent(fmt.Sprintf("%s@%s", e.ID, ICSUIDDomain))
		vevent.SetDtStampTime(now.UTC())
		vevent.SetAllDayStartAt(start)
		// DTEND is exclusive for all-day events
		vevent.SetAllDayEndAt(end.AddDate(0, 0, 1))
		vevent.SetSummary(e.Title)
		vevent.SetLocation(locationLine(e))
		if desc := eventDescription(e); desc != "" {
			vevent.SetDescription(desc)
		}
		if e.MapURL != "" {
			vevent.SetURL(e.MapURL)
		}
		if len(e.Tags) > 0 {
			vevent.AddProperty(ical.ComponentPropertyCategories, strings.Join(e.Tags, ","))
		}
	}

	return cal
}

func locationLine(e events.Event) string {
	if e.Address == "" {
		return e.Location
	}
	return e.Location + ", " + e.Address
}

func eventDescription(e events.Event) string {
	var parts []string
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	if e.Time != "" {
		parts = append(parts, "Orario: "+e.Time)
	}
	if e.Cost != "" {
		parts = append(parts, "Costo: "+e.Cost)
	}
	if e.Organizer != "" {
		parts = append(parts, "Organizzatore: "+e.Organizer)
	}
	return strings.Join(parts, "\n")
}

// GenerateICS writes an ICS download of the given events
func (s *Server) GenerateICS(w http.ResponseWriter, month string, evts []events.Event) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.ics", exportName(month)))

	cal := buildCalendar(s.cfg.SiteName, evts, s.Now(), s.loc)
	s.writeCalendar(w, cal)
}

// GenerateSubscriptionICS writes an ICS subscription feed.
// Unlike GenerateICS it is served inline and carries METHOD:PUBLISH
// and a refresh interval.
func (s *Server) GenerateSubscriptionICS(w http.ResponseWriter, evts []events.Event) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")

	cal := buildCalendar(s.cfg.SiteName, evts, s.Now(), s.loc)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXPublishedTTL(ICSPublishedTTL)
	s.writeCalendar(w, cal)
}

func (s *Server) writeCalendar(w io.Writer, cal *ical.Calendar) {
	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		s.log.Error("error writing calendar", zap.Error(err))
	}
}

// GenerateCSV writes a CSV download of the given events
func (s *Server) GenerateCSV(w http.ResponseWriter, month string, evts []events.Event) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", exportName(month)))

	if err := WriteCSV(w, evts); err != nil {
		s.log.Error("error writing CSV export", zap.Error(err))
	}
}

// WriteCSV writes the events as CSV rows with a header line
func WriteCSV(w io.Writer, evts []events.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range evts {
		row := []string{
			e.ID,
			e.Title,
			e.StartDate,
			e.EndDate,
			e.Location,
			e.Address,
			e.Time,
			e.Month,
			e.Category,
			e.Cost,
			e.Organizer,
			strings.Join(e.Tags, ", "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// GenerateJSON writes a JSON download of the given events
func (s *Server) GenerateJSON(w http.ResponseWriter, month string, evts []events.Event) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", exportName(month)))

	if month == "" {
		month = events.MonthAll
	}
	data := map[string]any{
		"month":  month,
		"count":  len(evts),
		"events": evts,
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("error encoding JSON export", zap.Error(err))
		http.Error(w, ErrFailedToGenerateJSON, http.StatusInternalServerError)
	}
}

// HandleExport handles export requests
// Query params: format (ics, csv, json), month (optional)
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month := q.Get("month")

	evts := events.Filter(s.repo.All(), events.FilterParams{Month: month})
	events.SortByStart(evts)

	switch q.Get("format") {
	case FormatICS, "":
		s.GenerateICS(w, month, evts)
	case FormatCSV:
		s.GenerateCSV(w, month, evts)
	case FormatJSON:
		s.GenerateJSON(w, month, evts)
	default:
		s.writeError(w, http.StatusBadRequest, ErrInvalidFormat)
	}
}

// HandleSubscribe serves the calendar subscription feed
func (s *Server) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	evts := s.repo.All()
	events.SortByStart(evts)
	s.GenerateSubscriptionICS(w, evts)
}
