package events

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed/events.json
var seedJSON []byte

// seedFile is the layout of the bundled seed data
type seedFile struct {
	Events []Event `json:"events"`
}

// Seed returns a fresh copy of the bundled default events
func Seed() ([]Event, error) {
	var f seedFile
	if err := json.Unmarshal(seedJSON, &f); err != nil {
		return nil, fmt.Errorf("failed to decode seed events: %w", err)
	}
	for i := range f.Events {
		if f.Events[i].Tags == nil {
			f.Events[i].Tags = []string{}
		}
	}
	return f.Events, nil
}
