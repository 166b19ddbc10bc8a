package summaries

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JaimeStill/go-agents-orchestration/pkg/observability"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
	"github.com/JaimeStill/vera/pkg/decode"
)

type nodeEvent struct {
	Node         string `json:"node"`
	Iteration    int    `json:"iteration"`
	Error        bool   `json:"error"`
	ErrorMessage string `json:"error_message"`
}

type edgeEvent struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// logObserver writes pipeline graph events to the logger.
type logObserver struct {
	logger *slog.Logger
}

func newLogObserver(logger *slog.Logger) *logObserver {
	return &logObserver{logger: logger}
}

func (o *logObserver) OnEvent(ctx context.Context, event observability.Event) {
	switch event.Type {
	case observability.EventNodeStart:
		data, err := decode.FromMap[nodeEvent](event.Data)
		if err != nil {
			o.logger.Error("failed to decode node start data", "error", err)
			return
		}
		o.logger.Debug("node started", "node", data.Node, "iteration", data.Iteration)
	case observability.EventNodeComplete:
		data, err := decode.FromMap[nodeEvent](event.Data)
		if err != nil {
			o.logger.Error("failed to decode node complete data", "error", err)
			return
		}
		if data.Error {
			o.logger.Warn("node failed", "node", data.Node, "error", data.ErrorMessage)
			return
		}
		o.logger.Debug("node completed", "node", data.Node, "iteration", data.Iteration)
	case observability.EventEdgeTransition:
		data, err := decode.FromMap[edgeEvent](event.Data)
		if err != nil {
			return
		}
		o.logger.Debug("edge transition", "from", data.From, "to", data.To)
	}
}

// MemoryCheckpointStore keeps graph checkpoints in memory.
type MemoryCheckpointStore struct {
	mu     sync.Mutex
	states map[string]state.State
}

func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{states: make(map[string]state.State)}
}

func (m *MemoryCheckpointStore) Save(s state.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[s.RunID] = s
	return nil
}

func (m *MemoryCheckpointStore) Load(runID string) (state.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[runID]
	if !ok {
		return state.State{}, fmt.Errorf("checkpoint not found: %s", runID)
	}
	return s, nil
}

func (m *MemoryCheckpointStore) Delete(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, runID)
	return nil
}

func (m *MemoryCheckpointStore) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	return ids, nil
}
