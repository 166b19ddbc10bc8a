package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JaimeStill/vera/pkg/lifecycle"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/types"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ChangeEventType is the CloudEvents type published for document changes.
const ChangeEventType = "io.vera.document.changed"

// originExtension carries the publishing instance so it can skip its own echo.
const originExtension = "veraorigin"

const (
	subscribeTimeout = 5 * time.Second
	minBackoff       = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second
)

// Change is the CloudEvents data payload.
type Change struct {
	DocumentID uuid.UUID `json:"document_id"`
}

// redisNotifier fans notifications out across service instances over a Redis
// pub/sub channel. Local subscribers are signaled directly on Publish, so a
// lost subscription only cuts off changes made by other instances.
type redisNotifier struct {
	client   *redis.Client
	channel  string
	source   string
	instance string
	local    *Hub
	logger   *slog.Logger
	ready    atomic.Bool

	mu sync.Mutex
	ps *redis.PubSub
}

func NewRedis(cfg *Config, logger *slog.Logger) (Notifier, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return &redisNotifier{
		client:   redis.NewClient(opts),
		channel:  cfg.Channel,
		source:   cfg.Source,
		instance: uuid.NewString(),
		local:    NewHub(logger),
		logger:   logger.With("system", "events", "backend", BackendRedis),
	}, nil
}

func (n *redisNotifier) Publish(ctx context.Context, documentID uuid.UUID) error {
	n.local.Publish(ctx, documentID)

	payload, err := n.encode(documentID)
	if err != nil {
		return err
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

func (n *redisNotifier) Subscribe(documentID uuid.UUID) *Subscription {
	return n.local.Subscribe(documentID)
}

func (n *redisNotifier) Ready() bool {
	return n.ready.Load()
}

func (n *redisNotifier) Start(lc *lifecycle.Coordinator) error {
	n.logger.Info("starting event notifier", "channel", n.channel)

	lc.OnStartup(func() {
		go n.listen(lc.Context())
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		n.mu.Lock()
		if n.ps != nil {
			n.ps.Close()
		}
		n.mu.Unlock()

		n.local.closeAll()
		if err := n.client.Close(); err != nil {
			n.logger.Error("redis close failed", "error", err)
		}
		n.logger.Info("event notifier closed")
	})

	return nil
}

// listen subscribes with backoff until it succeeds, then consumes. go-redis
// reconnects an established subscription on its own.
func (n *redisNotifier) listen(ctx context.Context) {
	backoff := minBackoff
	for {
		ps, err := n.subscribe(ctx)
		if err == nil {
			n.ready.Store(true)
			n.logger.Info("redis subscription ready")
			n.consume(ctx, ps.Channel())
			n.ready.Store(false)
			return
		}

		n.logger.Error("redis subscribe failed", "error", err, "retry_in", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (n *redisNotifier) subscribe(ctx context.Context) (*redis.PubSub, error) {
	rctx, cancel := context.WithTimeout(ctx, subscribeTimeout)
	defer cancel()

	ps := n.client.Subscribe(rctx, n.channel)
	if _, err := ps.Receive(rctx); err != nil {
		ps.Close()
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if ctx.Err() != nil {
		ps.Close()
		return nil, ctx.Err()
	}
	n.ps = ps
	return ps, nil
}

func (n *redisNotifier) consume(ctx context.Context, msgs <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			documentID, origin, err := decode([]byte(msg.Payload))
			if err != nil {
				n.logger.Warn("discarding malformed change event", "error", err)
				continue
			}
			if origin == n.instance {
				continue
			}
			n.local.Publish(ctx, documentID)
		}
	}
}

func (n *redisNotifier) encode(documentID uuid.UUID) ([]byte, error) {
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(n.source)
	event.SetType(ChangeEventType)
	event.SetSubject(documentID.String())
	event.SetTime(time.Now().UTC())
	event.SetExtension(originExtension, n.instance)

	if err := event.SetData(cloudevents.ApplicationJSON, Change{DocumentID: documentID}); err != nil {
		return nil, fmt.Errorf("set event data: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return payload, nil
}

// decode returns the changed document and the publishing instance.
func decode(payload []byte) (uuid.UUID, string, error) {
	var event cloudevents.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return uuid.Nil, "", fmt.Errorf("unmarshal event: %w", err)
	}
	if event.Type() != ChangeEventType {
		return uuid.Nil, "", fmt.Errorf("unexpected event type %q", event.Type())
	}

	var change Change
	if err := event.DataAs(&change); err != nil {
		return uuid.Nil, "", fmt.Errorf("decode event data: %w", err)
	}

	origin, _ := types.ToString(event.Extensions()[originExtension])
	return change.DocumentID, origin, nil
}
