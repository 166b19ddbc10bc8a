package ocr_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/vera/internal/audit"
	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/internal/ocr"
	"github.com/JaimeStill/vera/internal/pages"
	"github.com/JaimeStill/vera/internal/tokens"
	"github.com/JaimeStill/vera/pkg/lifecycle"
	"github.com/JaimeStill/vera/pkg/storage"
	"github.com/google/uuid"
)

type engineFunc func(ctx context.Context, img []byte) ([]tokens.Candidate, error)

func (f engineFunc) Recognize(ctx context.Context, img []byte) ([]tokens.Candidate, error) {
	return f(ctx, img)
}

type finderFunc func(ctx context.Context, id uuid.UUID) (*documents.Document, error)

func (f finderFunc) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	return f(ctx, id)
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, documentID uuid.UUID) error { return nil }

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fixture struct {
	pages pages.System
	audit audit.Recorder
	doc   documents.Document
	page  pages.Page
	cfg   *ocr.Config
}

func newFixture(t *testing.T, timeout string) *fixture {
	t.Helper()
	cfg := &ocr.Config{PageTimeout: timeout, TempDir: t.TempDir()}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	rec := audit.NewMemory()
	ps := pages.New(pages.NewMemoryStore(), nopPublisher{}, rec, discard())
	doc := documents.Document{ID: uuid.New(), ContentType: "image/png", PageCount: 1}

	created, err := ps.Create(context.Background(), doc.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{pages: ps, audit: rec, doc: doc, page: created[0], cfg: cfg}
}

func (f *fixture) processor(engine ocr.Engine) *ocr.Processor {
	classifier := tokens.NewClassifier(tokens.Config{HighThreshold: 0.92, LowThreshold: 0.80})
	return ocr.NewProcessor(f.pages, engine, ocr.NewRasterizer(f.cfg), classifier, f.cfg, discard())
}

func (f *fixture) finder() ocr.DocumentFinder {
	return finderFunc(func(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
		if id != f.doc.ID {
			return nil, documents.ErrNotFound
		}
		doc := f.doc
		return &doc, nil
	})
}

func (f *fixture) current(t *testing.T) *pages.Page {
	t.Helper()
	p, err := f.pages.Find(context.Background(), f.doc.ID, f.page.ID)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessor_Process(t *testing.T) {
	words := []tokens.Candidate{
		cand("Total", 10, 10, 0.98),
		cand("$12.50", 70, 10, 0.6),
	}

	tests := []struct {
		name       string
		engine     engineFunc
		wantStatus pages.Status
		wantTokens int
		wantReason string
		wantAudit  int
	}{
		{
			name: "success",
			engine: func(ctx context.Context, img []byte) ([]tokens.Candidate, error) {
				return words, nil
			},
			wantStatus: pages.StatusOCRDone,
			wantTokens: 2,
		},
		{
			name: "engine error",
			engine: func(ctx context.Context, img []byte) ([]tokens.Candidate, error) {
				return nil, errors.New("tesseract crashed")
			},
			wantStatus: pages.StatusFailed,
			wantReason: "tesseract crashed",
			wantAudit:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "5s")

			if err := f.processor(tt.engine).Process(context.Background(), f.doc, pngImage(t, 64, 32)); err != nil {
				t.Fatalf("Process: %v", err)
			}

			p := f.current(t)
			if p.Status != tt.wantStatus {
				t.Fatalf("status = %s, want %s", p.Status, tt.wantStatus)
			}
			if len(p.Tokens) != tt.wantTokens {
				t.Errorf("tokens = %d, want %d", len(p.Tokens), tt.wantTokens)
			}
			if tt.wantStatus == pages.StatusOCRDone && (p.Width != 64 || p.Height != 32) {
				t.Errorf("size = %dx%d, want 64x32", p.Width, p.Height)
			}
			if tt.wantReason != "" && (p.FailureReason == nil || !strings.Contains(*p.FailureReason, tt.wantReason)) {
				t.Errorf("failure reason = %v, want %q", p.FailureReason, tt.wantReason)
			}

			entries, err := f.audit.List(context.Background(), f.doc.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != tt.wantAudit {
				t.Errorf("audit entries = %d, want %d", len(entries), tt.wantAudit)
			}
		})
	}
}

func TestProcessor_PageTimeout(t *testing.T) {
	f := newFixture(t, "20ms")

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	engine := engineFunc(func(ctx context.Context, img []byte) ([]tokens.Candidate, error) {
		<-release
		return nil, nil
	})

	if err := f.processor(engine).Process(context.Background(), f.doc, pngImage(t, 8, 8)); err != nil {
		t.Fatal(err)
	}

	p := f.current(t)
	if p.Status != pages.StatusFailed {
		t.Fatalf("status = %s, want failed", p.Status)
	}
	if p.FailureReason == nil || !strings.Contains(*p.FailureReason, context.DeadlineExceeded.Error()) {
		t.Errorf("failure reason = %v", p.FailureReason)
	}
}

func TestProcessor_CanceledDuringOCR(t *testing.T) {
	f := newFixture(t, "5s")

	started := make(chan struct{})
	release := make(chan struct{})
	engine := engineFunc(func(ctx context.Context, img []byte) ([]tokens.Candidate, error) {
		close(started)
		<-release
		return []tokens.Candidate{cand("late", 10, 10, 0.99)}, nil
	})

	done := make(chan error, 1)
	go func() {
		done <- f.processor(engine).Process(context.Background(), f.doc, pngImage(t, 8, 8))
	}()

	<-started
	if _, err := f.pages.CancelDocument(context.Background(), f.doc.ID); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatal(err)
	}

	p := f.current(t)
	if p.Status != pages.StatusCanceled {
		t.Errorf("status = %s, want canceled", p.Status)
	}
	if len(p.Tokens) != 0 {
		t.Errorf("tokens = %d, want 0", len(p.Tokens))
	}
}

func TestProcessor_UnreadableUpload(t *testing.T) {
	f := newFixture(t, "5s")
	engine := engineFunc(func(ctx context.Context, img []byte) ([]tokens.Candidate, error) {
		t.Error("engine called for unreadable image")
		return nil, nil
	})

	if err := f.processor(engine).Process(context.Background(), f.doc, []byte("not an image")); err != nil {
		t.Fatal(err)
	}
	if p := f.current(t); p.Status != pages.StatusFailed {
		t.Errorf("status = %s, want failed", p.Status)
	}
}

func TestQueue(t *testing.T) {
	f := newFixture(t, "5s")

	blobs, err := storage.New(&storage.Config{BasePath: t.TempDir()}, discard())
	if err != nil {
		t.Fatal(err)
	}
	f.doc.StorageKey = "documents/" + f.doc.ID.String() + "/scan.png"
	if err := blobs.Store(context.Background(), f.doc.StorageKey, pngImage(t, 16, 16)); err != nil {
		t.Fatal(err)
	}

	engine := engineFunc(func(ctx context.Context, img []byte) ([]tokens.Candidate, error) {
		return []tokens.Candidate{cand("Vendor", 10, 10, 0.99)}, nil
	})

	lc := lifecycle.New()
	q := ocr.NewQueue(f.processor(engine), f.finder(), blobs, f.cfg, discard())
	if err := q.Start(lc); err != nil {
		t.Fatal(err)
	}
	lc.WaitForStartup()
	t.Cleanup(func() {
		if err := lc.Shutdown(time.Second); err != nil {
			t.Error(err)
		}
	})

	if err := q.Enqueue(context.Background(), f.doc); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.current(t).Status == pages.StatusOCRDone {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status = %s, want ocr_done", f.current(t).Status)
}

func TestQueue_MissingUpload(t *testing.T) {
	f := newFixture(t, "5s")

	blobs, err := storage.New(&storage.Config{BasePath: t.TempDir()}, discard())
	if err != nil {
		t.Fatal(err)
	}
	f.doc.StorageKey = "documents/missing.png"

	lc := lifecycle.New()
	q := ocr.NewQueue(f.processor(engineFunc(func(ctx context.Context, img []byte) ([]tokens.Candidate, error) {
		return nil, nil
	})), f.finder(), blobs, f.cfg, discard())
	if err := q.Start(lc); err != nil {
		t.Fatal(err)
	}
	lc.WaitForStartup()
	defer lc.Shutdown(time.Second)

	if err := q.Enqueue(context.Background(), f.doc); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.current(t).Status == pages.StatusFailed {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status = %s, want failed", f.current(t).Status)
}

func TestProcessor_Interrupted(t *testing.T) {
	f := newFixture(t, "5s")
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	engine := engineFunc(func(ctx context.Context, img []byte) ([]tokens.Candidate, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	done := make(chan error, 1)
	go func() { done <- f.processor(engine).Process(ctx, f.doc, pngImage(t, 16, 16)) }()

	<-started
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	p := f.current(t)
	if p.Status != pages.StatusProcessing {
		t.Errorf("status = %s, want processing", p.Status)
	}
	if p.FailureReason != nil {
		t.Errorf("failure reason = %q, want none", *p.FailureReason)
	}

	entries, _ := f.audit.List(context.Background(), f.doc.ID)
	if len(entries) != 0 {
		t.Errorf("audit = %+v, want no ocr failure", entries)
	}
}

func TestQueue_RecoversPending(t *testing.T) {
	f := newFixture(t, "5s")
	ctx := context.Background()

	blobs, err := storage.New(&storage.Config{BasePath: t.TempDir()}, discard())
	if err != nil {
		t.Fatal(err)
	}
	f.doc.StorageKey = "documents/" + f.doc.ID.String() + "/scan.png"
	if err := blobs.Store(ctx, f.doc.StorageKey, pngImage(t, 16, 16)); err != nil {
		t.Fatal(err)
	}

	if _, err := f.pages.StartProcessing(ctx, f.page.ID); err != nil {
		t.Fatal(err)
	}

	engine := engineFunc(func(ctx context.Context, img []byte) ([]tokens.Candidate, error) {
		return []tokens.Candidate{cand("Vendor", 10, 10, 0.99)}, nil
	})

	lc := lifecycle.New()
	q := ocr.NewQueue(f.processor(engine), f.finder(), blobs, f.cfg, discard())
	if err := q.Start(lc); err != nil {
		t.Fatal(err)
	}
	lc.WaitForStartup()
	t.Cleanup(func() {
		if err := lc.Shutdown(time.Second); err != nil {
			t.Error(err)
		}
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.current(t).Status == pages.StatusOCRDone {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status = %s, want ocr_done", f.current(t).Status)
}
