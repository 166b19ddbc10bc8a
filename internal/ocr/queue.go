package ocr

import (
	"context"
	"log/slog"
	"sync"

	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/pkg/lifecycle"
	"github.com/JaimeStill/vera/pkg/storage"
	"github.com/google/uuid"
)

// DocumentFinder loads the document record for a recovered job.
type DocumentFinder interface {
	Find(ctx context.Context, id uuid.UUID) (*documents.Document, error)
}

// Queue is a bounded OCR job queue drained by a fixed set of workers. Jobs
// still buffered at shutdown are dropped; their pages stay pending and are
// re-enqueued by the recovery sweep on the next start.
type Queue struct {
	jobs    chan documents.Document
	proc    *Processor
	docs    DocumentFinder
	blobs   storage.System
	workers int
	wg      sync.WaitGroup
	logger  *slog.Logger
}

func NewQueue(proc *Processor, docs DocumentFinder, blobs storage.System, cfg *Config, logger *slog.Logger) *Queue {
	return &Queue{
		jobs:    make(chan documents.Document, cfg.QueueSize),
		proc:    proc,
		docs:    docs,
		blobs:   blobs,
		workers: cfg.Workers,
		logger:  logger.With("system", "ocr-queue"),
	}
}

// Enqueue schedules OCR for doc, blocking while the queue is full.
func (q *Queue) Enqueue(ctx context.Context, doc documents.Document) error {
	select {
	case q.jobs <- doc:
		q.logger.Debug("document queued", "document_id", doc.ID, "pages", doc.PageCount)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		ctx := lc.Context()
		ids, err := q.proc.pages.Recover(ctx)
		if err != nil {
			q.logger.Error("ocr recovery failed", "error", err)
		}

		for range q.workers {
			q.wg.Go(func() { q.run(ctx) })
		}
		q.logger.Info("ocr workers started", "workers", q.workers)

		if len(ids) > 0 {
			q.wg.Go(func() { q.requeue(ctx, ids) })
		}
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		q.wg.Wait()
		q.logger.Info("ocr workers stopped")
	})
	return nil
}

func (q *Queue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case doc := <-q.jobs:
			q.process(ctx, doc)
		}
	}
}

// requeue enqueues documents left pending by an earlier run.
func (q *Queue) requeue(ctx context.Context, ids []uuid.UUID) {
	for _, id := range ids {
		doc, err := q.docs.Find(ctx, id)
		if err != nil {
			q.logger.Error("recovered document lookup failed", "document_id", id, "error", err)
			continue
		}
		if err := q.Enqueue(ctx, *doc); err != nil {
			return
		}
	}
	q.logger.Info("pending documents requeued", "count", len(ids))
}

func (q *Queue) process(ctx context.Context, doc documents.Document) {
	data, err := q.blobs.Retrieve(ctx, doc.StorageKey)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		q.logger.Error("retrieve upload failed", "document_id", doc.ID, "error", err)
		q.proc.Fail(ctx, doc.ID, err)
		return
	}

	if err := q.proc.Process(ctx, doc, data); err != nil {
		q.logger.Error("document ocr failed", "document_id", doc.ID, "error", err)
	}
}
