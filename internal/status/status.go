// Package status serves document status snapshots to pollers and streams
// them to subscribers as pages change.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/internal/events"
	"github.com/JaimeStill/vera/internal/pages"
	"github.com/JaimeStill/vera/internal/tokens"
	"github.com/google/uuid"
)

type PageStatus struct {
	ID                uuid.UUID    `json:"id"`
	Index             int          `json:"index"`
	Status            pages.Status `json:"status"`
	ReviewComplete    bool         `json:"review_complete"`
	TokenCount        int          `json:"token_count"`
	ForcedReviewCount int          `json:"forced_review_count"`
	UpdatedAt         time.Time    `json:"updated_at"`
	Version           int          `json:"version"`
}

// Snapshot is the observable state of a document. It is computed on demand
// and never stored.
type Snapshot struct {
	DocumentID     uuid.UUID    `json:"document_id"`
	Status         pages.Status `json:"status"`
	ReviewComplete bool         `json:"review_complete"`
	Pages          []PageStatus `json:"pages"`
}

// Equal reports whether two snapshots show the same state.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.DocumentID != o.DocumentID || s.Status != o.Status ||
		s.ReviewComplete != o.ReviewComplete || len(s.Pages) != len(o.Pages) {
		return false
	}
	for i, p := range s.Pages {
		q := o.Pages[i]
		if p.ID != q.ID || p.Index != q.Index || p.Status != q.Status ||
			p.ReviewComplete != q.ReviewComplete || p.TokenCount != q.TokenCount ||
			p.ForcedReviewCount != q.ForcedReviewCount || p.Version != q.Version ||
			!p.UpdatedAt.Equal(q.UpdatedAt) {
			return false
		}
	}
	return true
}

// NewSnapshot builds a snapshot from a document and its pages ordered by
// index.
func NewSnapshot(doc *documents.Document, ps []pages.Page) *Snapshot {
	agg := documents.Derive(ps, doc.Markers())
	snap := &Snapshot{
		DocumentID:     doc.ID,
		Status:         agg.Status,
		ReviewComplete: agg.ReviewComplete,
		Pages:          make([]PageStatus, len(ps)),
	}
	for i, p := range ps {
		snap.Pages[i] = PageStatus{
			ID:                p.ID,
			Index:             p.Index,
			Status:            p.Status,
			ReviewComplete:    p.ReviewComplete,
			TokenCount:        len(p.Tokens),
			ForcedReviewCount: tokens.CountForced(p.Tokens),
			UpdatedAt:         p.UpdatedAt,
			Version:           p.Version,
		}
	}
	return snap
}

type DocumentReader interface {
	Find(ctx context.Context, id uuid.UUID) (*documents.Document, error)
}

type PageReader interface {
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]pages.Page, error)
}

type Subscriber interface {
	Subscribe(documentID uuid.UUID) *events.Subscription
}

type EventType string

const (
	EventStatus EventType = "status"
	EventError  EventType = "error"
)

// Event is one message of a status stream.
type Event struct {
	Type     EventType
	Snapshot *Snapshot
	Err      error
}

// Publisher computes snapshots and streams them to subscribers. It holds no
// per-document state; every snapshot is re-read from the stores.
type Publisher struct {
	docs     DocumentReader
	pages    PageReader
	notifier Subscriber
	logger   *slog.Logger
}

func New(docs DocumentReader, ps PageReader, notifier Subscriber, logger *slog.Logger) *Publisher {
	return &Publisher{
		docs:     docs,
		pages:    ps,
		notifier: notifier,
		logger:   logger.With("system", "status"),
	}
}

// Poll recomputes the current snapshot of a document.
func (p *Publisher) Poll(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	doc, err := p.docs.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	ps, err := p.pages.ListByDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return NewSnapshot(doc, ps), nil
}

// Stream subscribes to a document. The returned channel yields the current
// snapshot, then a snapshot after every observable change. When a snapshot
// can no longer be built it yields an EventError and closes. It also closes
// when ctx is done or the notifier shuts down. An unknown document fails
// before any event is produced.
func (p *Publisher) Stream(ctx context.Context, id uuid.UUID) (<-chan Event, error) {
	sub := p.notifier.Subscribe(id)

	initial, err := p.Poll(ctx, id)
	if err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan Event, 1)
	go func() {
		defer close(out)
		defer sub.Close()

		last := initial
		if !p.send(ctx, out, Event{Type: EventStatus, Snapshot: initial}) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.C:
				if !ok {
					return
				}
			}

			snap, err := p.Poll(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Warn("status stream ended", "document_id", id, "error", err)
				p.send(ctx, out, Event{Type: EventError, Err: err})
				return
			}

			if snap.Equal(last) {
				continue
			}
			last = snap

			if !p.send(ctx, out, Event{Type: EventStatus, Snapshot: snap}) {
				return
			}
		}
	}()

	return out, nil
}

func (p *Publisher) send(ctx context.Context, out chan<- Event, e Event) bool {
	select {
	case out <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
