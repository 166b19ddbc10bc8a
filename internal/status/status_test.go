package status_test

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/vera/internal/audit"
	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/internal/events"
	"github.com/JaimeStill/vera/internal/pages"
	"github.com/JaimeStill/vera/internal/status"
	"github.com/JaimeStill/vera/internal/tokens"
	"github.com/google/uuid"
)

// vanishingStore reports documents as missing once gone is set.
type vanishingStore struct {
	documents.Store
	gone atomic.Bool
}

func (v *vanishingStore) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	if v.gone.Load() {
		return nil, documents.ErrNotFound
	}
	return v.Store.Find(ctx, id)
}

type env struct {
	hub   *events.Hub
	docs  *vanishingStore
	pages pages.System
	pub   *status.Publisher
	doc   uuid.UUID
	ids   []uuid.UUID
}

func newEnv(t *testing.T, count int) *env {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := &env{
		hub:  events.NewHub(logger),
		docs: &vanishingStore{Store: documents.NewMemoryStore()},
	}
	e.pages = pages.New(pages.NewMemoryStore(), e.hub, audit.NewMemory(), logger)
	e.pub = status.New(e.docs, e.pages, e.hub, logger)

	doc, err := e.docs.Create(ctx, documents.Document{ID: uuid.New(), Name: "a", StorageKey: uuid.NewString()})
	if err != nil {
		t.Fatal(err)
	}
	e.doc = doc.ID

	ps, err := e.pages.Create(ctx, e.doc, count)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range ps {
		e.ids = append(e.ids, p.ID)
	}
	return e
}

func next(t *testing.T, ch <-chan status.Event) status.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("stream closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return status.Event{}
}

func TestPoll(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()

	_, _ = e.pages.StartProcessing(ctx, e.ids[0])
	_, err := e.pages.CompleteOCR(ctx, e.ids[0], pages.OCRResult{Tokens: []tokens.Token{
		{ID: "a", Label: tokens.LabelTrusted, ForcedReview: true},
		{ID: "b", Label: tokens.LabelLow},
		{ID: "c", Label: tokens.LabelTrusted},
	}})
	if err != nil {
		t.Fatal(err)
	}

	snap, err := e.pub.Poll(ctx, e.doc)
	if err != nil {
		t.Fatal(err)
	}

	if snap.Status != pages.StatusUploaded || snap.ReviewComplete {
		t.Errorf("document = %s/%v", snap.Status, snap.ReviewComplete)
	}
	p := snap.Pages[0]
	if p.Status != pages.StatusOCRDone || p.TokenCount != 3 || p.ForcedReviewCount != 1 || p.Version != 3 {
		t.Errorf("page = %+v", p)
	}

	if _, err := e.pub.Poll(ctx, uuid.New()); err == nil {
		t.Error("unknown document must fail")
	}
}

func TestStream(t *testing.T) {
	e := newEnv(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := e.pub.Stream(ctx, e.doc)
	if err != nil {
		t.Fatal(err)
	}

	first := next(t, stream)
	if first.Type != status.EventStatus || first.Snapshot.Pages[0].Status != pages.StatusUploaded {
		t.Fatalf("initial = %+v", first)
	}

	e.hub.Publish(ctx, e.doc)

	if _, err := e.pages.StartProcessing(ctx, e.ids[0]); err != nil {
		t.Fatal(err)
	}

	changed := next(t, stream)
	if changed.Snapshot.Pages[0].Status != pages.StatusProcessing {
		t.Errorf("changed = %+v", changed.Snapshot.Pages[0])
	}

	e.docs.gone.Store(true)
	e.hub.Publish(ctx, e.doc)

	ev := next(t, stream)
	if ev.Type != status.EventError || ev.Err == nil {
		t.Fatalf("event = %+v, want error", ev)
	}

	select {
	case _, ok := <-stream:
		if ok {
			t.Error("stream must close after an error event")
		}
	case <-time.After(2 * time.Second):
		t.Error("stream did not close")
	}
}

func TestStream_ClientDisconnect(t *testing.T) {
	e := newEnv(t, 1)
	ctx, cancel := context.WithCancel(context.Background())

	stream, err := e.pub.Stream(ctx, e.doc)
	if err != nil {
		t.Fatal(err)
	}
	next(t, stream)

	cancel()
	for range stream {
	}

	deadline := time.Now().Add(2 * time.Second)
	for e.hub.Subscribers(e.doc) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not released")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStream_UnknownDocument(t *testing.T) {
	e := newEnv(t, 1)
	if _, err := e.pub.Stream(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error")
	}
	if e.hub.Subscribers(e.doc) != 0 {
		t.Error("unexpected subscribers")
	}
}

func TestSnapshot_Equal(t *testing.T) {
	a := &status.Snapshot{DocumentID: uuid.New(), Status: pages.StatusOCRDone, Pages: []status.PageStatus{{Version: 2}}}
	b := *a
	b.Pages = []status.PageStatus{{Version: 2}}

	if !a.Equal(&b) {
		t.Error("identical snapshots must be equal")
	}
	b.Pages[0].Version = 3
	if a.Equal(&b) {
		t.Error("version change must be observable")
	}
}

func TestHandler(t *testing.T) {
	e := newEnv(t, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := status.NewHandler(e.pub, logger)

	mux := http.NewServeMux()
	group := h.Routes()
	for _, r := range group.Routes {
		mux.HandleFunc(r.Method+" "+group.Prefix+r.Pattern, r.Handler)
	}

	t.Run("poll", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/documents/"+e.doc.String()+"/pages/status", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"forced_review_count":0`) {
			t.Errorf("status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("poll unknown", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/documents/"+uuid.NewString()+"/pages/status", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("stream", func(t *testing.T) {
		srv := httptest.NewServer(mux)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/documents/" + e.doc.String() + "/status/stream")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
			t.Fatalf("content type = %s", ct)
		}

		reader := bufio.NewReader(resp.Body)
		line, _ := reader.ReadString('\n')
		if line != "event: status\n" {
			t.Fatalf("first line = %q", line)
		}
		reader.ReadString('\n')
		reader.ReadString('\n')

		e.docs.gone.Store(true)
		e.hub.Publish(context.Background(), e.doc)

		line, _ = reader.ReadString('\n')
		if line != "event: error\n" {
			t.Fatalf("line = %q, want error event", line)
		}
		data, _ := reader.ReadString('\n')
		if !strings.Contains(data, `"error":"document not found"`) {
			t.Errorf("data = %q", data)
		}
	})
}
