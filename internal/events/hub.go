package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/JaimeStill/vera/pkg/lifecycle"
	"github.com/google/uuid"
)

// Hub is the in-process Notifier.
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[*Subscription]struct{}
	closed bool
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]map[*Subscription]struct{}),
		logger: logger.With("system", "events", "backend", BackendMemory),
	}
}

func (h *Hub) Publish(ctx context.Context, documentID uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[documentID] {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(documentID uuid.UUID) *Subscription {
	ch := make(chan struct{}, 1)
	sub := &Subscription{C: ch, ch: ch}
	sub.close = func() { h.remove(documentID, sub) }

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		sub.close = func() {}
		return sub
	}

	set, ok := h.subs[documentID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[documentID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Subscribers returns the number of open subscriptions for documentID.
func (h *Hub) Subscribers(documentID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[documentID])
}

// Ready is always true; the hub has no remote peers.
func (h *Hub) Ready() bool {
	return true
}

func (h *Hub) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		h.closeAll()
		h.logger.Info("event hub closed")
	})
	return nil
}

func (h *Hub) remove(documentID uuid.UUID, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[documentID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}

	delete(set, sub)
	close(sub.ch)
	if len(set) == 0 {
		delete(h.subs, documentID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, set := range h.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(h.subs, id)
	}
	h.closed = true
}
