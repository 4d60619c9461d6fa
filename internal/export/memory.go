package export

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// MemorySink keeps exports in memory. Safe for concurrent use.
type MemorySink struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ ems.ExportSink = (*MemorySink)(nil)

func NewMemorySink() *MemorySink {
	return &MemorySink{objects: make(map[string][]byte)}
}

func (m *MemorySink) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = data
	return nil
}

func (m *MemorySink) Location(name string) string {
	return "memory:" + name
}

// Get returns a stored object.
func (m *MemorySink) Get(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[name]
	return data, ok
}

// Names lists stored objects in order.
func (m *MemorySink) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.objects))
	for n := range m.objects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
