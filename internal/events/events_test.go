package events_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/JaimeStill/vera/internal/events"
	"github.com/JaimeStill/vera/pkg/lifecycle"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func expectSignal(t *testing.T, sub *events.Subscription) {
	t.Helper()
	select {
	case _, ok := <-sub.C:
		if !ok {
			t.Fatal("subscription closed, want signal")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal")
	}
}

func expectNoSignal(t *testing.T, sub *events.Subscription) {
	t.Helper()
	select {
	case <-sub.C:
		t.Fatal("unexpected signal")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_PublishSubscribe(t *testing.T) {
	hub := events.NewHub(testLogger())
	ctx := context.Background()
	doc := uuid.New()
	other := uuid.New()

	sub := hub.Subscribe(doc)
	defer sub.Close()

	hub.Publish(ctx, other)
	expectNoSignal(t, sub)

	hub.Publish(ctx, doc)
	expectSignal(t, sub)
}

func TestHub_Coalesces(t *testing.T) {
	hub := events.NewHub(testLogger())
	ctx := context.Background()
	doc := uuid.New()

	sub := hub.Subscribe(doc)
	defer sub.Close()

	for range 5 {
		hub.Publish(ctx, doc)
	}

	expectSignal(t, sub)
	expectNoSignal(t, sub)
}

func TestHub_IndependentSubscribers(t *testing.T) {
	hub := events.NewHub(testLogger())
	doc := uuid.New()

	a := hub.Subscribe(doc)
	b := hub.Subscribe(doc)
	defer b.Close()

	if got := hub.Subscribers(doc); got != 2 {
		t.Fatalf("Subscribers() = %d, want 2", got)
	}

	a.Close()
	a.Close()

	if _, ok := <-a.C; ok {
		t.Error("closed subscription channel still open")
	}
	if got := hub.Subscribers(doc); got != 1 {
		t.Errorf("Subscribers() = %d, want 1", got)
	}

	hub.Publish(context.Background(), doc)
	expectSignal(t, b)
}

func TestHub_ShutdownClosesSubscriptions(t *testing.T) {
	hub := events.NewHub(testLogger())
	lc := lifecycle.New()
	hub.Start(lc)
	lc.WaitForStartup()

	sub := hub.Subscribe(uuid.New())

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if _, ok := <-sub.C; ok {
		t.Error("subscription still open after shutdown")
	}

	late := hub.Subscribe(uuid.New())
	if _, ok := <-late.C; ok {
		t.Error("subscription after shutdown is open")
	}
}

func startRedis(t *testing.T, url string) events.Notifier {
	t.Helper()

	cfg := &events.Config{Backend: events.BackendRedis, RedisURL: url}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	n, err := events.New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lc := lifecycle.New()
	if err := n.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	lc.WaitForStartup()
	t.Cleanup(func() { lc.Shutdown(2 * time.Second) })

	return n
}

func waitReady(t *testing.T, n events.Notifier) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !n.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("notifier never became ready")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRedis_FansOutAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()

	publisher := startRedis(t, url)
	listener := startRedis(t, url)
	waitReady(t, listener)

	doc := uuid.New()
	sub := listener.Subscribe(doc)
	defer sub.Close()

	if err := publisher.Publish(context.Background(), doc); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	expectSignal(t, sub)
}

func TestRedis_IgnoresForeignPayloads(t *testing.T) {
	mr := miniredis.RunT(t)
	n := startRedis(t, "redis://"+mr.Addr())
	waitReady(t, n)

	doc := uuid.New()
	sub := n.Subscribe(doc)
	defer sub.Close()

	mr.Publish("vera:documents", `{"not":"a cloudevent"}`)
	expectNoSignal(t, sub)

	if err := n.Publish(context.Background(), doc); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	expectSignal(t, sub)
}

func TestRedis_SingleSignalForOwnPublish(t *testing.T) {
	mr := miniredis.RunT(t)
	n := startRedis(t, "redis://"+mr.Addr())
	waitReady(t, n)

	doc := uuid.New()
	sub := n.Subscribe(doc)
	defer sub.Close()

	if err := n.Publish(context.Background(), doc); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	expectSignal(t, sub)
	expectNoSignal(t, sub)
}

func TestRedis_LateSubscription(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()
	mr.Close()

	n := startRedis(t, url)
	if n.Ready() {
		t.Fatal("Ready() = true with redis down")
	}

	doc := uuid.New()
	sub := n.Subscribe(doc)
	defer sub.Close()

	if err := n.Publish(context.Background(), doc); err == nil {
		t.Error("Publish() error = nil with redis down")
	}
	expectSignal(t, sub)

	if err := mr.Restart(); err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	waitReady(t, n)

	peer := startRedis(t, url)
	if err := peer.Publish(context.Background(), doc); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	expectSignal(t, sub)
}

func TestConfig_Finalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     events.Config
		wantErr bool
	}{
		{"defaults", events.Config{}, false},
		{"redis", events.Config{Backend: events.BackendRedis}, false},
		{"unknown", events.Config{Backend: "kafka"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if err := cfg.Finalize(nil); (err != nil) != tt.wantErr {
				t.Errorf("Finalize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg.Channel != "vera:documents" {
				t.Errorf("Channel = %q, want vera:documents", cfg.Channel)
			}
		})
	}
}
