package events

import (
	"errors"

	"github.com/google/uuid"
)

// Event represents a single food festival ("sagra")
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Location    string   `json:"location"`
	Address     string   `json:"address"`
	Time        string   `json:"time"`
	Month       string   `json:"month"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Cost        string   `json:"cost"`
	Organizer   string   `json:"organizer"`
	Tags        []string `json:"tags"`
	MapURL      string   `json:"mapUrl"`
	Featured    bool     `json:"featured"`

	// Characteristics shown as icons on the event card
	HasFood          bool `json:"hasFood"`
	HasMusic         bool `json:"hasMusic"`
	HasFreeEntry     bool `json:"hasFreeEntry"`
	HasTicketTasting bool `json:"hasTicketTasting"`
	HasFireworks     bool `json:"hasFireworks"`
}

// Category values
const (
	CategoryPenisola = "penisola"
	CategoryCostiera = "costiera"
	CategoryOltre    = "oltre"
)

// Month values used for tabs
const (
	MonthLuglio    = "luglio"
	MonthAgosto    = "agosto"
	MonthSettembre = "settembre"
	MonthOltre     = "oltre"

	// MonthAll disables the month filter
	MonthAll = "all"
)

// Months lists the tab months in display order
var Months = []string{MonthLuglio, MonthAgosto, MonthSettembre, MonthOltre}

// Categories maps category keys to their display names
var Categories = map[string]string{
	CategoryPenisola: "Penisola Sorrentina",
	CategoryCostiera: "Costiera Amalfitana",
	CategoryOltre:    "Oltre",
}

// DefaultCost is used when an imported event has no cost line
const DefaultCost = "Ingresso gratuito"

// ID prefixes
const (
	importedIDPrefix = "imported-"
	eventIDPrefix    = "event-"
)

// ErrNoEvents is returned by callers when an import text contains no events.
// It is not a parse error.
var ErrNoEvents = errors.New("Nessun evento trovato nel testo inserito")

// NewEvent returns an event with the single-add defaults applied
func NewEvent() Event {
	return Event{
		ID:           NewID(),
		Month:        MonthLuglio,
		Category:     CategoryOltre,
		Tags:         []string{},
		HasFood:      true,
		HasFreeEntry: true,
	}
}

// NewID generates an id for an event created through the editor
func NewID() string {
	return eventIDPrefix + uuid.NewString()
}

func newImportedID() string {
	return importedIDPrefix + uuid.NewString()
}

// Clone returns a deep copy of the event
func (e Event) Clone() Event {
	c := e
	c.Tags = append([]string{}, e.Tags...)
	return c
}

// CloneAll returns a deep copy of a collection
func CloneAll(evts []Event) []Event {
	out := make([]Event, len(evts))
	for i, e := range evts {
		out[i] = e.Clone()
	}
	return out
}

// SplitTags splits a comma-separated tag string, trimming every entry.
// Empty entries are dropped: "" yields no tags, not a single blank tag
// rendered as an empty chip.
func SplitTags(s string) []string {
	tags := []string{}
	for _, t := range splitComma(s) {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
