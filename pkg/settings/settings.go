package settings

import (
	"fmt"
	"strings"
	"sync"
)

// Package settings provides the key-value store the SDK keeps its
// session and device configuration in. Keys mirror the cookie names
// used by the browser SDK so a value written by one is recognizable in
// the other's exports.

const (
	KeyPublishableKey = "radar-publishableKey"
	KeyUserID         = "radar-userId"
	KeyDeviceID       = "radar-deviceId"
	KeyDescription    = "radar-description"
	KeyHost           = "radar-host"
	KeyPlacesProvider = "radar-placesProvider"
)

// DefaultHost is used when no host override is stored.
const DefaultHost = "https://api.radar.io"

// Store persists SDK settings. Permanent values survive Close/reopen
// on backends with real persistence; session values never do.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string, permanent bool) error
	Delete(key string) error
	Close() error
}

// NewStore creates the configured store backend.
func NewStore(typ, path string) (Store, error) {
	switch strings.TrimSpace(strings.ToLower(typ)) {
	case "", "memory":
		return NewMemStore(), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt settings store requires a path")
		}
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("unsupported settings store type %q", typ)
	}
}

// MemStore is an in-process Store. The permanent flag is accepted and
// ignored since nothing outlives the process anyway.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

func (m *MemStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemStore) Set(key, value string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemStore) Close() error { return nil }
