package storage

import (
	"sync"
)

// Keys used by the site
const (
	KeyEvents = "sagre-events"
	KeyTheme  = "theme"
)

// KV is a string-keyed blob store. Values are always read and written whole.
type KV interface {
	// Get returns the value stored under key and whether it exists
	Get(key string) ([]byte, bool, error)
	// Set replaces the value stored under key
	Set(key string, value []byte) error
}

// MemoryKV is an in-memory KV
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get implements KV
func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements KV
func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
