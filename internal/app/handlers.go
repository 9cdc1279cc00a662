package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/sagre-kalender/internal/events"
	"github.com/klabast/wb-services/sagre-kalender/internal/storage"
)

// maxImportBytes bounds the bulk import request body
const maxImportBytes = 1 << 20

// EventView is an event decorated for display
type EventView struct {
	events.Event
	DateLabel  string             `json:"dateLabel"`
	MonthColor events.Color       `json:"monthColor"`
	Status     *events.DateStatus `json:"dateStatus,omitempty"`
	Holiday    string             `json:"holiday,omitempty"`
}

// TableRow is a row of the tabular view
type TableRow struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Location  string `json:"location"`
	Time      string `json:"time" validate:"required"`
	Cost      string `json:"cost" validate:"required"`
	Month     string `json:"month"`
}

// eventRequest is the payload of the add and edit forms
type eventRequest struct {
	ID               string  `json:"id"`
	Title            string  `json:"title" validate:"required"`
	StartDate        string  `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate          string  `json:"endDate" validate:"required,datetime=2006-01-02"`
	Location         string  `json:"location" validate:"required"`
	Address          string  `json:"address" validate:"required"`
	Time             string  `json:"time" validate:"required"`
	Month            string  `json:"month" validate:"required"`
	Category         string  `json:"category"`
	Description      string  `json:"description" validate:"required"`
	Cost             string  `json:"cost" validate:"required"`
	Organizer        string  `json:"organizer" validate:"required"`
	Tags             tagList `json:"tags"`
	MapURL           string  `json:"mapUrl" validate:"required,url"`
	Featured         bool    `json:"featured"`
	HasFood          *bool   `json:"hasFood"`
	HasMusic         *bool   `json:"hasMusic"`
	HasFreeEntry     *bool   `json:"hasFreeEntry"`
	HasTicketTasting *bool   `json:"hasTicketTasting"`
	HasFireworks     *bool   `json:"hasFireworks"`
}

// toEvent applies the form defaults to unset fields
func (req eventRequest) toEvent() events.Event {
	e := events.NewEvent()
	e.ID = req.ID
	e.Title = req.Title
	e.StartDate = req.StartDate
	e.EndDate = req.EndDate
	e.Location = req.Location
	e.Address = req.Address
	e.Time = req.Time
	e.Month = req.Month
	if req.Category != "" {
		e.Category = req.Category
	}
	e.Description = req.Description
	e.Cost = req.Cost
	e.Organizer = req.Organizer
	if req.Tags != nil {
		e.Tags = []string(req.Tags)
	}
	e.MapURL = req.MapURL
	e.Featured = req.Featured
	setBool(&e.HasFood, req.HasFood)
	setBool(&e.HasMusic, req.HasMusic)
	setBool(&e.HasFreeEntry, req.HasFreeEntry)
	setBool(&e.HasTicketTasting, req.HasTicketTasting)
	setBool(&e.HasFireworks, req.HasFireworks)
	return e
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func (s *Server) view(evts []events.Event) []EventView {
	today := s.today()
	out := make([]EventView, 0, len(evts))
	for _, e := range evts {
		v := EventView{
			Event:      e,
			DateLabel:  events.FormatRange(e),
			MonthColor: events.MonthColor(e.Month),
		}
		if st, ok := events.Status(e, today); ok {
			v.Status = &st
		}
		if _, name, ok := HolidayDuring(e); ok {
			v.Holiday = name
		}
		out = append(out, v)
	}
	return out
}

// ServeIndex serves the public page
func (s *Server) ServeIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(s.IndexHTML); err != nil {
		s.log.Error("error writing index HTML", zap.Error(err))
	}
}

// ServeEdit serves the editor page
func (s *Server) ServeEdit(w http.ResponseWriter, r *http.Request) {
	if !s.RequireEditMode(w) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(s.EditHTML); err != nil {
		s.log.Error("error writing edit HTML", zap.Error(err))
	}
}

// HandleHealth reports liveness
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"events": s.repo.Count(),
		"source": s.repo.Source(),
	})
}

// GetConfig returns the application configuration
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	theme, err := s.repo.Theme()
	if err != nil {
		s.log.Error("error reading theme", zap.Error(err))
		theme = storage.ThemeLight
	}

	year := s.today().Year()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"siteName":           s.cfg.SiteName,
		"months":             events.Months,
		"monthColors":        events.MonthColors(),
		"categories":         events.Categories,
		"editMode":           s.cfg.EditMode,
		"theme":              theme,
		"today":              s.today().Format(events.DateLayout),
		"upcomingWindowDays": events.UpcomingWindowDays,
		"holidays":           GetItalianHolidays(year),
	})
}

// HandleEvents returns the filtered list
// Query params: q, month (or "all"), tab
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filtered := events.Filter(s.repo.All(), events.FilterParams{
		Query: q.Get("q"),
		Month: q.Get("month"),
		Tab:   q.Get("tab"),
	})
	s.writeJSON(w, http.StatusOK, s.view(filtered))
}

// HandleEventTable returns every event sorted by start date
func (s *Server) HandleEventTable(w http.ResponseWriter, r *http.Request) {
	all := s.repo.All()
	events.SortByStart(all)

	rows := make([]TableRow, 0, len(all))
	for _, e := range all {
		rows = append(rows, TableRow{
			ID:        e.ID,
			Title:     e.Title,
			StartDate: events.FormatTableDate(e.StartDate),
			EndDate:   events.FormatTableDate(e.EndDate),
			Location:  e.Location,
			Time:      e.Time,
			Cost:      e.Cost,
			Month:     e.Month,
		})
	}
	s.writeJSON(w, http.StatusOK, rows)
}

// HandleCurrentEvents returns the events running today
func (s *Server) HandleCurrentEvents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.view(events.Current(s.repo.All(), s.today())))
}

// HandleUpcomingEvents returns the events starting within the next week
func (s *Server) HandleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.view(events.Upcoming(s.repo.All(), s.today(), events.UpcomingWindowDays)))
}

// HandleFeaturedEvents returns the featured events
func (s *Server) HandleFeaturedEvents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.view(events.Featured(s.repo.All())))
}

// HandleNextEvent returns the soonest future event
func (s *Server) HandleNextEvent(w http.ResponseWriter, r *http.Request) {
	next, ok := events.Next(s.repo.All(), s.today())
	if !ok {
		s.writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"found": true,
		"event": s.view([]events.Event{next})[0],
	})
}

// HandleCountdown returns the time left until the next event starts
func (s *Server) HandleCountdown(w http.ResponseWriter, r *http.Request) {
	next, ok := events.Next(s.repo.All(), s.today())
	if !ok {
		s.writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}

	remaining := events.Countdown(next, s.Now().In(s.loc))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"active":    remaining.Active,
		"eventId":   next.ID,
		"title":     next.Title,
		"startDate": next.StartDate,
		"days":      remaining.Days,
		"hours":     remaining.Hours,
		"minutes":   remaining.Minutes,
		"seconds":   remaining.Seconds,
	})
}

// HandleEvent returns a single event
// URL: /api/event/{id}
func (s *Server) HandleEvent(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/event/"):]

	e, err := s.repo.Get(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, ErrEventNotFoundMsg)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view([]events.Event{e})[0])
}

// HandleTheme reads (GET) or stores (POST) the theme preference
func (s *Server) HandleTheme(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		theme, err := s.repo.Theme()
		if err != nil {
			s.log.Error("error reading theme", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, ErrInternalServer)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"theme": theme})

	case http.MethodPost:
		var req struct {
			Theme string `json:"theme"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, ErrInvalidRequest)
			return
		}
		if err := s.repo.SetTheme(req.Theme); err != nil {
			if errors.Is(err, storage.ErrInvalidTheme) {
				s.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.log.Error("error saving theme", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, ErrInternalServer)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"theme": req.Theme})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleLogin checks editor credentials
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	if s.auth == nil {
		s.metrics.Logins.WithLabelValues("failed").Inc()
		s.writeError(w, http.StatusUnauthorized, ErrCredentialsMsg)
		return
	}

	if err := s.auth.Check(req.Email, req.Password); err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			s.log.Error("error verifying password", zap.Error(err))
		}
		s.metrics.Logins.WithLabelValues("failed").Inc()
		s.writeError(w, http.StatusUnauthorized, ErrCredentialsMsg)
		return
	}

	s.metrics.Logins.WithLabelValues("ok").Inc()
	name, _, _ := strings.Cut(req.Email, "@")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"user": map[string]string{
			"email": req.Email,
			"name":  name,
		},
	})
}

// AddEvent adds a single event (edit mode only)
func (s *Server) AddEvent(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) || !s.RequireEditMode(w) {
		return
	}

	req, ok := s.decodeEventRequest(w, r)
	if !ok {
		return
	}

	e := req.toEvent()
	if e.ID == "" {
		e.ID = events.NewID()
	}

	added, err := s.repo.Add(e)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}

	s.recordMutation("add")
	s.log.Info("event added", zap.String("id", added.ID), zap.String("title", added.Title))
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "event": added})
}

// EditEvent replaces an event by id (edit mode only)
func (s *Server) EditEvent(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) || !s.RequireEditMode(w) {
		return
	}

	req, ok := s.decodeEventRequest(w, r)
	if !ok {
		return
	}
	if req.ID == "" {
		s.writeError(w, http.StatusBadRequest, "id: campo obbligatorio")
		return
	}

	e := req.toEvent()
	if err := s.repo.Update(e); err != nil {
		s.writeRepoError(w, err)
		return
	}

	s.recordMutation("edit")
	s.log.Info("event updated", zap.String("id", e.ID))
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "event": e})
}

// DeleteEvent removes an event by id (edit mode only)
func (s *Server) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) || !s.RequireEditMode(w) {
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	if err := s.repo.Delete(req.ID); err != nil {
		s.writeRepoError(w, err)
		return
	}

	s.recordMutation("delete")
	s.log.Info("event deleted", zap.String("id", req.ID))
	s.writeOK(w)
}

// ImportEvents parses a bulk import text and appends the events (edit mode only).
// The body is either the raw text or JSON {"text": "..."}.
func (s *Server) ImportEvents(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) || !s.RequireEditMode(w) {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.Imports.WithLabelValues(importInvalid).Inc()
			s.writeError(w, http.StatusRequestEntityTooLarge, ErrImportTooLarge)
			return
		}
		s.writeError(w, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	text := string(body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, ErrInvalidRequest)
			return
		}
		text = req.Text
	}

	parsed, err := events.ParseBulk(text)
	if err != nil {
		s.metrics.Imports.WithLabelValues(importInvalid).Inc()
		s.log.Info("bulk import rejected", zap.Error(err))
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if len(parsed) == 0 {
		s.metrics.Imports.WithLabelValues(importEmpty).Inc()
		s.writeError(w, http.StatusUnprocessableEntity, events.ErrNoEvents.Error())
		return
	}

	if err := s.repo.Import(parsed); err != nil {
		s.writeRepoError(w, err)
		return
	}

	s.metrics.Imports.WithLabelValues(importOK).Inc()
	s.metrics.Imported.Add(float64(len(parsed)))
	s.recordMutation("import")
	s.log.Info("bulk import completed", zap.Int("count", len(parsed)))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"count":   len(parsed),
		"message": importSuccessMessage(len(parsed)),
		"events":  parsed,
	})
}

func importSuccessMessage(n int) string {
	if n == 1 {
		return "1 evento importato con successo!"
	}
	return strconv.Itoa(n) + " eventi importati con successo!"
}

func (s *Server) decodeEventRequest(w http.ResponseWriter, r *http.Request) (eventRequest, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrInvalidRequest)
		return req, false
	}

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			s.writeError(w, http.StatusBadRequest, "Campi non validi: "+strings.Join(fields, ", "))
			return req, false
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}

	return req, true
}

func (s *Server) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrEventNotFound):
		s.writeError(w, http.StatusNotFound, ErrEventNotFoundMsg)
	case errors.Is(err, storage.ErrDuplicateID):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("error saving events", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, ErrFailedToSave)
	}
}

func (s *Server) recordMutation(op string) {
	s.metrics.Mutations.WithLabelValues(op).Inc()
	s.metrics.EventsTotal.Set(float64(s.repo.Count()))
}
