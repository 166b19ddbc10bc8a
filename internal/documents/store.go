package documents

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/vera/pkg/pagination"
	"github.com/google/uuid"
)

// Store persists document records.
type Store interface {
	Create(ctx context.Context, doc Document) (*Document, error)
	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]string) (*Document, error)

	// Delete removes the record and, through cascade, its pages and audit rows.
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkSummarized and MarkExported set the marker once; later calls
	// return the document unchanged.
	MarkSummarized(ctx context.Context, id uuid.UUID) (*Document, error)
	MarkExported(ctx context.Context, id uuid.UUID) (*Document, error)
}

type memoryStore struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]Document
	now  func() time.Time
}

// NewMemoryStore returns a process-local Store.
func NewMemoryStore() Store {
	return &memoryStore{
		docs: make(map[uuid.UUID]Document),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (m *memoryStore) Create(ctx context.Context, doc Document) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.docs {
		if d.ID == doc.ID || d.StorageKey == doc.StorageKey {
			return nil, ErrDuplicate
		}
	}

	now := m.now()
	doc.CreatedAt, doc.UpdatedAt = now, now
	if doc.StructuredFields == nil {
		doc.StructuredFields = map[string]string{}
	}
	m.docs[doc.ID] = clone(doc)
	return ptr(clone(doc)), nil
}

func (m *memoryStore) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ptr(clone(d)), nil
}

func (m *memoryStore) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []Document
	for _, d := range m.docs {
		if !contains(d.Name, filters.Name) || !contains(d.ContentType, filters.ContentType) {
			continue
		}
		if page.Search != nil && !contains(d.Name, page.Search) && !contains(d.Filename, page.Search) {
			continue
		}
		all = append(all, clone(d))
	}

	slices.SortFunc(all, func(a, b Document) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	start := min(page.Offset(), len(all))
	end := min(start+page.PageSize, len(all))
	result := pagination.NewPageResult(all[start:end], len(all), page.Page, page.PageSize)
	return &result, nil
}

func (m *memoryStore) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]string) (*Document, error) {
	return m.update(id, func(d *Document) {
		d.StructuredFields = maps.Clone(fields)
		d.UpdatedAt = m.now()
	})
}

func (m *memoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memoryStore) MarkSummarized(ctx context.Context, id uuid.UUID) (*Document, error) {
	return m.update(id, func(d *Document) {
		if d.SummarizedAt == nil {
			now := m.now()
			d.SummarizedAt = &now
			d.UpdatedAt = now
		}
	})
}

func (m *memoryStore) MarkExported(ctx context.Context, id uuid.UUID) (*Document, error) {
	return m.update(id, func(d *Document) {
		if d.ExportedAt == nil {
			now := m.now()
			d.ExportedAt = &now
			d.UpdatedAt = now
		}
	})
}

func (m *memoryStore) update(id uuid.UUID, fn func(d *Document)) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	fn(&d)
	m.docs[id] = d
	return ptr(clone(d)), nil
}

func clone(d Document) Document {
	d.StructuredFields = maps.Clone(d.StructuredFields)
	return d
}

func ptr[T any](v T) *T {
	return &v
}

func contains(s string, sub *string) bool {
	if sub == nil {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(*sub))
}
