package intake

import (
	"context"
	"sort"
	"sync"
)

// Store persists interview sessions keyed by the external patient identifier.
// Load returns a zero Session on miss, never an error. Writes are
// last-write-wins at the granularity of the whole session blob.
type Store interface {
	Load(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, id string, s Session) error
	ListActive(ctx context.Context) ([]string, error)
	Archive(ctx context.Context, id string) error
}

// MemoryStore is the in-process Store used when no Redis address is
// configured. Suitable for development and tests only.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-process session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Load(ctx context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id], nil
}

func (m *MemoryStore) Save(ctx context.Context, id string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = s
	return nil
}

func (m *MemoryStore) ListActive(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) Archive(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
