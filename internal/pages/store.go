package pages

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Store is the durable record store for pages and their tokens.
type Store interface {
	// Create inserts new pages. Pages are created with version 1.
	Create(ctx context.Context, pages []Page) error

	// Find loads a page with its tokens in reading order.
	Find(ctx context.Context, id uuid.UUID) (*Page, error)

	// ListByDocument loads every page of a document ordered by index.
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]Page, error)

	// PendingDocuments returns the ids of documents that still have pages
	// awaiting or undergoing OCR.
	PendingDocuments(ctx context.Context) ([]uuid.UUID, error)

	// CompareAndSwap writes p if the stored version still equals expected.
	// p.Version must already hold the new version. A mismatch returns
	// ErrVersionConflict and writes nothing.
	CompareAndSwap(ctx context.Context, p *Page, expected int) error
}

type memoryStore struct {
	mu    sync.RWMutex
	pages map[uuid.UUID]*Page
}

// NewMemoryStore returns a process-local Store.
func NewMemoryStore() Store {
	return &memoryStore{pages: make(map[uuid.UUID]*Page)}
}

func (m *memoryStore) Create(ctx context.Context, pages []Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range pages {
		if _, ok := m.pages[p.ID]; ok {
			return ErrDuplicate
		}
		for _, existing := range m.pages {
			if existing.DocumentID == p.DocumentID && existing.Index == p.Index {
				return ErrDuplicate
			}
		}
	}

	for _, p := range pages {
		m.pages[p.ID] = p.Clone()
	}
	return nil
}

func (m *memoryStore) Find(ctx context.Context, id uuid.UUID) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.pages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *memoryStore) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Page
	for _, p := range m.pages {
		if p.DocumentID == documentID {
			out = append(out, *p.Clone())
		}
	}

	slices.SortFunc(out, func(a, b Page) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return out, nil
}

func (m *memoryStore) PendingDocuments(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, p := range m.pages {
		if p.Status != StatusUploaded && p.Status != StatusProcessing {
			continue
		}
		if !seen[p.DocumentID] {
			seen[p.DocumentID] = true
			out = append(out, p.DocumentID)
		}
	}
	return out, nil
}

func (m *memoryStore) CompareAndSwap(ctx context.Context, p *Page, expected int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.pages[p.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != expected {
		return ErrVersionConflict
	}

	m.pages[p.ID] = p.Clone()
	return nil
}
