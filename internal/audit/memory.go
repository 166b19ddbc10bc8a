package audit

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
)

type memory struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]Entry
}

// NewMemory returns a process-local Recorder.
func NewMemory() Recorder {
	return &memory{entries: make(map[uuid.UUID][]Entry)}
}

func (m *memory) Record(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.Detail = maps.Clone(entry.Detail)
	m.entries[entry.DocumentID] = append(m.entries[entry.DocumentID], entry)
	return nil
}

func (m *memory) List(ctx context.Context, documentID uuid.UUID) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.entries[documentID]
	out := make([]Entry, len(src))
	copy(out, src)
	return out, nil
}
