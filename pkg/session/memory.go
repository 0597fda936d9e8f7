package session

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

type memoryEntry struct {
	snap    wizard.SessionSnapshot
	expires time.Time
}

// MemoryStore keeps snapshots in process memory. Expired entries are dropped
// lazily on access.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (wizard.SessionSnapshot, error) {
	m.mu.RLock()
	entry, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return wizard.SessionSnapshot{}, ErrNotFound
	}
	if !entry.expires.IsZero() && m.now().After(entry.expires) {
		m.mu.Lock()
		delete(m.entries, id)
		m.mu.Unlock()
		return wizard.SessionSnapshot{}, ErrNotFound
	}
	return copySnapshot(entry.snap), nil
}

// Save stores snap. A ttl of zero keeps it until deleted.
func (m *MemoryStore) Save(_ context.Context, id string, snap wizard.SessionSnapshot, ttl time.Duration) error {
	entry := memoryEntry{snap: copySnapshot(snap)}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[id] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func copySnapshot(snap wizard.SessionSnapshot) wizard.SessionSnapshot {
	return wizard.SessionSnapshot{
		Values:      snap.Values.Clone(),
		Errors:      snap.Errors.Clone(),
		ErrorValues: snap.ErrorValues.Clone(),
		Steps:       append([]string(nil), snap.Steps...),
	}
}
