package summaries

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/JaimeStill/vera/internal/audit"
	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/internal/gate"
	"github.com/JaimeStill/vera/internal/pages"
	"github.com/google/uuid"
)

// Service serves gated summaries and records the summarized markers.
type Service struct {
	gate       *gate.Gate
	docs       documents.System
	pages      pages.System
	summarizer Summarizer
	audit      audit.Recorder
	logger     *slog.Logger
}

func NewService(docs documents.System, ps pages.System, summarizer Summarizer, rec audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		gate:       gate.New(docs, ps),
		docs:       docs,
		pages:      ps,
		summarizer: summarizer,
		audit:      rec,
		logger:     logger.With("system", "summaries"),
	}
}

// Page summarizes a review-complete page.
func (s *Service) Page(ctx context.Context, documentID, pageID uuid.UUID) (*Summary, error) {
	p, err := s.gate.Page(ctx, documentID, pageID)
	if err != nil {
		return nil, err
	}

	sum, err := s.summarizer.Summarize(ctx, p.ValidatedText())
	if err != nil {
		return nil, err
	}

	if _, err := s.pages.MarkSummarized(ctx, documentID, pageID); err != nil {
		return nil, fmt.Errorf("mark page summarized: %w", err)
	}

	s.record(ctx, audit.NewEntry(documentID, pageID, audit.EventSummaryGenerated, map[string]any{
		"scope": "page",
	}))
	return sum, nil
}

// Document summarizes a document whose every page is review complete.
// User-edited structured fields take precedence over extracted values.
func (s *Service) Document(ctx context.Context, documentID uuid.UUID) (*Summary, error) {
	view, ps, err := s.gate.Document(ctx, documentID)
	if err != nil {
		return nil, err
	}

	sum, err := s.summarizer.Summarize(ctx, DocumentText(ps))
	if err != nil {
		return nil, err
	}
	sum = sum.WithEdits(view.StructuredFields)

	for _, p := range ps {
		if _, err := s.pages.MarkSummarized(ctx, documentID, p.ID); err != nil {
			return nil, fmt.Errorf("mark page %d summarized: %w", p.Index, err)
		}
	}
	if _, err := s.docs.MarkSummarized(ctx, documentID); err != nil {
		return nil, fmt.Errorf("mark document summarized: %w", err)
	}

	s.record(ctx, audit.NewEntry(documentID, uuid.Nil, audit.EventSummaryGenerated, map[string]any{
		"scope": "document",
		"pages": len(ps),
	}))
	s.logger.Info("document summarized", "document_id", documentID, "pages", len(ps))
	return sum, nil
}

// DocumentText joins the validated text of ps in page order.
func DocumentText(ps []pages.Page) string {
	ordered := slices.Clone(ps)
	slices.SortFunc(ordered, func(a, b pages.Page) int { return a.Index - b.Index })

	texts := make([]string, 0, len(ordered))
	for i := range ordered {
		if text := ordered[i].ValidatedText(); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n")
}

func (s *Service) record(ctx context.Context, entry audit.Entry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("audit record failed", "document_id", entry.DocumentID, "event", entry.EventType, "error", err)
	}
}
