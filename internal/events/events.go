// Package events carries per-document change notifications. A notifier holds
// no business state: publishers announce that a document changed and
// subscribers re-read whatever they need.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JaimeStill/vera/pkg/lifecycle"
	"github.com/google/uuid"
)

// Notifier publishes and subscribes to document change notifications.
type Notifier interface {
	Publish(ctx context.Context, documentID uuid.UUID) error
	Subscribe(documentID uuid.UUID) *Subscription
	Start(lc *lifecycle.Coordinator) error

	// Ready reports whether changes from other instances are being received.
	Ready() bool
}

// Subscription delivers a signal on C after one or more changes. Signals
// coalesce: a slow reader sees at most one pending signal. C is closed by
// Close or when the notifier shuts down.
type Subscription struct {
	C <-chan struct{}

	ch    chan struct{}
	close func()
	once  sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(s.close)
}

// New creates the Notifier selected by cfg.Backend.
func New(cfg *Config, logger *slog.Logger) (Notifier, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewHub(logger), nil
	case BackendRedis:
		return NewRedis(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported events backend: %s", cfg.Backend)
	}
}
