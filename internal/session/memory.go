package session

import (
	"sync"

	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// MemoryStore keeps the session in process memory. Used by tests and by the
// "memory" session type.
type MemoryStore struct {
	mu    sync.Mutex
	saved *ems.Session
	saves int
}

var _ ems.SessionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*ems.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return nil, nil
	}
	s := *m.saved
	return &s, nil
}

func (m *MemoryStore) Save(s *ems.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.saved = &cp
	m.saves++
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = nil
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
