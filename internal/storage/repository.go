package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/sagre-kalender/internal/events"
)

// Theme values
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Load sources
const (
	SourceStore = "store"
	SourceSeed  = "seed"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrDuplicateID   = errors.New("event id already exists")
	ErrInvalidTheme  = errors.New("invalid theme")
)

// Repository owns the event collection of a site and writes it back to the
// KV store as a single blob after every change
type Repository struct {
	kv  KV
	log *zap.Logger

	mu     sync.RWMutex
	events []events.Event
	source string
}

// NewRepository creates an empty repository; call Load before use
func NewRepository(kv KV, log *zap.Logger) *Repository {
	return &Repository{
		kv:     kv,
		log:    log,
		events: []events.Event{},
	}
}

// Load reads the collection from the store. When nothing is stored yet, or the
// stored blob cannot be decoded, the bundled seed collection is used instead.
func (r *Repository) Load() error {
	data, ok, err := r.kv.Get(KeyEvents)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", KeyEvents, err)
	}

	if ok {
		stored, err := decodeEvents(data)
		if err == nil {
			r.mu.Lock()
			r.events = stored
			r.source = SourceStore
			r.mu.Unlock()
			r.log.Info("events loaded", zap.String("source", SourceStore), zap.Int("count", len(stored)))
			return nil
		}
		r.log.Warn("stored events are corrupted, falling back to seed data", zap.Error(err))
	}

	seed, err := events.Seed()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.events = seed
	r.source = SourceSeed
	r.mu.Unlock()
	r.log.Info("events loaded", zap.String("source", SourceSeed), zap.Int("count", len(seed)))
	return nil
}

// Source reports where the collection was loaded from
func (r *Repository) Source() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.source
}

// All returns a copy of the collection in insertion order
func (r *Repository) All() []events.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return events.CloneAll(r.events)
}

// Count returns the number of events
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

// Get returns the event with the given id
func (r *Repository) Get(id string) (events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.events {
		if e.ID == id {
			return e.Clone(), nil
		}
	}
	return events.Event{}, ErrEventNotFound
}

// Add appends a single event. An empty id is replaced with a fresh one.
func (r *Repository) Add(e events.Event) (events.Event, error) {
	if e.ID == "" {
		e.ID = events.NewID()
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexLocked(e.ID) >= 0 {
		return events.Event{}, ErrDuplicateID
	}

	next := append(events.CloneAll(r.events), e.Clone())
	if err := r.saveLocked(next); err != nil {
		return events.Event{}, err
	}
	return e, nil
}

// Import appends a batch of events in order. Either all events are stored or none.
func (r *Repository) Import(batch []events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(r.events)+len(batch))
	for _, e := range r.events {
		seen[e.ID] = true
	}
	for _, e := range batch {
		if seen[e.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = true
	}

	next := append(events.CloneAll(r.events), events.CloneAll(batch)...)
	return r.saveLocked(next)
}

// Update replaces the event with the same id
func (r *Repository) Update(e events.Event) error {
	if e.Tags == nil {
		e.Tags = []string{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(e.ID)
	if i < 0 {
		return ErrEventNotFound
	}

	next := events.CloneAll(r.events)
	next[i] = e.Clone()
	return r.saveLocked(next)
}

// Delete removes the event with the given id
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return ErrEventNotFound
	}

	next := make([]events.Event, 0, len(r.events)-1)
	next = append(next, events.CloneAll(r.events[:i])...)
	next = append(next, events.CloneAll(r.events[i+1:])...)
	return r.saveLocked(next)
}

// Theme returns the stored theme preference, light when unset
func (r *Repository) Theme() (string, error) {
	data, ok, err := r.kv.Get(KeyTheme)
	if err != nil {
		return "", err
	}
	if !ok || string(data) != ThemeDark {
		return ThemeLight, nil
	}
	return ThemeDark, nil
}

// SetTheme stores the theme preference
func (r *Repository) SetTheme(theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return ErrInvalidTheme
	}
	return r.kv.Set(KeyTheme, []byte(theme))
}

func decodeEvents(data []byte) ([]events.Event, error) {
	var stored []events.Event
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.New("stored events blob is null")
	}
	for i := range stored {
		if stored[i].Tags == nil {
			stored[i].Tags = []string{}
		}
	}
	return stored, nil
}

func (r *Repository) indexLocked(id string) int {
	for i, e := range r.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// saveLocked writes next to the store and makes it the current collection
// (caller must hold the write lock)
func (r *Repository) saveLocked(next []events.Event) error {
	data, err := json.Marshal(next)
	if err != nil {
		return err
	}
	if err := r.kv.Set(KeyEvents, data); err != nil {
		return fmt.Errorf("failed to save events: %w", err)
	}
	r.events = next
	r.source = SourceStore
	return nil
}
