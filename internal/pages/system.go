package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/vera/internal/audit"
	"github.com/google/uuid"
)

// cancelAttempts bounds retries of a page cancel that loses a version race.
const cancelAttempts = 3

// Publisher announces that a document changed.
type Publisher interface {
	Publish(ctx context.Context, documentID uuid.UUID) error
}

// System exposes page lifecycle operations. Every accepted mutation bumps
// the page version by one and publishes a change for its document.
type System interface {
	Create(ctx context.Context, documentID uuid.UUID, count int) ([]Page, error)
	Find(ctx context.Context, documentID, pageID uuid.UUID) (*Page, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]Page, error)
	Validate(ctx context.Context, documentID, pageID uuid.UUID, cmd ValidateCommand) (*Page, error)
	StartProcessing(ctx context.Context, pageID uuid.UUID) (*Page, error)
	CompleteOCR(ctx context.Context, pageID uuid.UUID, result OCRResult) (*Page, error)
	Fail(ctx context.Context, pageID uuid.UUID, reason string) (*Page, error)
	MarkSummarized(ctx context.Context, documentID, pageID uuid.UUID) (*Page, error)
	MarkExported(ctx context.Context, documentID, pageID uuid.UUID) (*Page, error)
	CancelDocument(ctx context.Context, documentID uuid.UUID) ([]Page, error)

	// Recover returns interrupted pages to uploaded and reports the documents
	// that still need OCR. Call it only while no OCR work is in flight.
	Recover(ctx context.Context) ([]uuid.UUID, error)
}

type system struct {
	store     Store
	guard     *Guard
	publisher Publisher
	audit     audit.Recorder
	logger    *slog.Logger
}

func New(store Store, publisher Publisher, rec audit.Recorder, logger *slog.Logger) System {
	return &system{
		store:     store,
		guard:     NewGuard(store),
		publisher: publisher,
		audit:     rec,
		logger:    logger.With("system", "pages"),
	}
}

func (s *system) Create(ctx context.Context, documentID uuid.UUID, count int) ([]Page, error) {
	now := time.Now().UTC()
	pages := make([]Page, count)
	for i := range pages {
		pages[i] = Page{
			ID:         uuid.New(),
			DocumentID: documentID,
			Index:      i,
			Status:     StatusUploaded,
			Version:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	if err := s.store.Create(ctx, pages); err != nil {
		return nil, fmt.Errorf("create pages: %w", err)
	}

	s.logger.Info("pages created", "document_id", documentID, "count", count)
	return pages, nil
}

func (s *system) Find(ctx context.Context, documentID, pageID uuid.UUID) (*Page, error) {
	p, err := s.store.Find(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if p.DocumentID != documentID {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *system) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]Page, error) {
	return s.store.ListByDocument(ctx, documentID)
}

func (s *system) Validate(ctx context.Context, documentID, pageID uuid.UUID, cmd ValidateCommand) (*Page, error) {
	if _, err := s.Find(ctx, documentID, pageID); err != nil {
		return nil, err
	}

	var outcome ValidateOutcome
	p, _, err := s.guard.Apply(ctx, pageID, cmd.PageVersion, func(p *Page) (bool, error) {
		var err error
		outcome, err = Validate(p, cmd)
		return err == nil, err
	})
	if err != nil {
		return nil, err
	}

	if len(outcome.Corrected) > 0 {
		s.record(ctx, audit.NewEntry(documentID, pageID, audit.EventCorrectionsApplied, map[string]any{
			"count":     len(outcome.Corrected),
			"token_ids": outcome.Corrected,
		}))
	}

	event := audit.EventReviewSaved
	if cmd.ReviewComplete {
		event = audit.EventReviewCompleted
	}
	s.record(ctx, audit.NewEntry(documentID, pageID, event, map[string]any{
		"review_complete": cmd.ReviewComplete,
		"reviewed_tokens": outcome.ReviewedCount,
		"version":         p.Version,
	}))

	s.logger.Info("page reviewed",
		"document_id", documentID,
		"page_id", pageID,
		"status", p.Status,
		"version", p.Version,
		"corrections", len(outcome.Corrected),
	)

	s.publish(ctx, documentID)
	return p, nil
}

func (s *system) StartProcessing(ctx context.Context, pageID uuid.UUID) (*Page, error) {
	return s.apply(ctx, pageID, StartProcessing)
}

func (s *system) CompleteOCR(ctx context.Context, pageID uuid.UUID, result OCRResult) (*Page, error) {
	return s.apply(ctx, pageID, func(p *Page) (bool, error) {
		return CompleteOCR(p, result)
	})
}

func (s *system) Fail(ctx context.Context, pageID uuid.UUID, reason string) (*Page, error) {
	p, err := s.apply(ctx, pageID, func(p *Page) (bool, error) {
		return Fail(p, reason)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, audit.NewEntry(p.DocumentID, p.ID, audit.EventOCRFailed, map[string]any{
		"reason": reason,
	}))
	return p, nil
}

func (s *system) MarkSummarized(ctx context.Context, documentID, pageID uuid.UUID) (*Page, error) {
	if _, err := s.Find(ctx, documentID, pageID); err != nil {
		return nil, err
	}
	return s.apply(ctx, pageID, MarkSummarized)
}

func (s *system) MarkExported(ctx context.Context, documentID, pageID uuid.UUID) (*Page, error) {
	if _, err := s.Find(ctx, documentID, pageID); err != nil {
		return nil, err
	}
	return s.apply(ctx, pageID, MarkExported)
}

func (s *system) CancelDocument(ctx context.Context, documentID uuid.UUID) ([]Page, error) {
	pages, err := s.store.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	var canceled int
	for i := range pages {
		p, changed, err := s.cancel(ctx, pages[i].ID)
		if err != nil {
			return nil, fmt.Errorf("cancel page %d: %w", pages[i].Index, err)
		}
		pages[i] = *p
		if changed {
			canceled++
		}
	}

	if canceled > 0 {
		s.record(ctx, audit.NewEntry(documentID, uuid.Nil, audit.EventCanceled, map[string]any{
			"pages_canceled": canceled,
		}))
		s.logger.Info("document canceled", "document_id", documentID, "pages_canceled", canceled)
		s.publish(ctx, documentID)
	}

	return pages, nil
}

func (s *system) Recover(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.store.PendingDocuments(ctx)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		pages, err := s.store.ListByDocument(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, p := range pages {
			if p.Status != StatusProcessing {
				continue
			}
			if _, err := s.apply(ctx, p.ID, Requeue); err != nil {
				return nil, fmt.Errorf("requeue page %d: %w", p.Index, err)
			}
		}
	}

	if len(ids) > 0 {
		s.logger.Info("pending ocr recovered", "documents", len(ids))
	}
	return ids, nil
}

func (s *system) cancel(ctx context.Context, pageID uuid.UUID) (*Page, bool, error) {
	var err error
	for range cancelAttempts {
		var (
			p       *Page
			changed bool
		)
		p, changed, err = s.guard.Apply(ctx, pageID, nil, Cancel)
		if err == nil {
			return p, changed, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, false, err
		}
	}
	return nil, false, err
}

// apply runs fn through the guard against the current version and publishes
// when the page changed.
func (s *system) apply(ctx context.Context, pageID uuid.UUID, fn Mutation) (*Page, error) {
	p, changed, err := s.guard.Apply(ctx, pageID, nil, fn)
	if err != nil {
		return nil, err
	}
	if changed {
		s.logger.Debug("page transitioned", "page_id", p.ID, "status", p.Status, "version", p.Version)
		s.publish(ctx, p.DocumentID)
	}
	return p, nil
}

func (s *system) publish(ctx context.Context, documentID uuid.UUID) {
	if err := s.publisher.Publish(ctx, documentID); err != nil {
		s.logger.Warn("publish change failed", "document_id", documentID, "error", err)
	}
}

func (s *system) record(ctx context.Context, entry audit.Entry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("audit record failed", "document_id", entry.DocumentID, "event", entry.EventType, "error", err)
	}
}
