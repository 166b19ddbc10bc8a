package exports

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/vera/internal/audit"
	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/internal/gate"
	"github.com/JaimeStill/vera/internal/pages"
	"github.com/JaimeStill/vera/internal/summaries"
	"github.com/google/uuid"
)

// Service serves gated exports. Markers are recorded only after rendering
// succeeds.
type Service struct {
	gate     *gate.Gate
	docs     documents.System
	pages    pages.System
	renderer *Renderer
	audit    audit.Recorder
	logger   *slog.Logger
}

func NewService(docs documents.System, ps pages.System, renderer *Renderer, rec audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		gate:     gate.New(docs, ps),
		docs:     docs,
		pages:    ps,
		renderer: renderer,
		audit:    rec,
		logger:   logger.With("system", "exports"),
	}
}

func (s *Service) Page(ctx context.Context, documentID, pageID uuid.UUID, format string) (*Result, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	p, err := s.gate.Page(ctx, documentID, pageID)
	if err != nil {
		return nil, err
	}
	view, err := s.docs.Find(ctx, documentID)
	if err != nil {
		return nil, err
	}

	text := p.ValidatedText()
	sum := summaries.Analyze(text).Summary(nil)
	res, err := s.renderer.Render(ctx, f, &Payload{
		DocumentID:       documentID,
		PageID:           &pageID,
		Name:             view.Name,
		ValidatedText:    text,
		BulletSummary:    sum.BulletSummary,
		StructuredFields: sum.StructuredFields,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.pages.MarkExported(ctx, documentID, pageID); err != nil {
		return nil, fmt.Errorf("mark page exported: %w", err)
	}

	s.record(ctx, audit.NewEntry(documentID, pageID, audit.EventExported, map[string]any{
		"format": string(f),
		"scope":  "page",
	}))
	return res, nil
}

func (s *Service) Document(ctx context.Context, documentID uuid.UUID, format string) (*Result, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	view, ps, err := s.gate.Document(ctx, documentID)
	if err != nil {
		return nil, err
	}

	text := summaries.DocumentText(ps)
	sum := summaries.Analyze(text).Summary(nil).WithEdits(view.StructuredFields)
	res, err := s.renderer.Render(ctx, f, &Payload{
		DocumentID:       documentID,
		Name:             view.Name,
		ValidatedText:    text,
		BulletSummary:    sum.BulletSummary,
		StructuredFields: sum.StructuredFields,
	})
	if err != nil {
		return nil, err
	}

	for _, p := range ps {
		if _, err := s.pages.MarkExported(ctx, documentID, p.ID); err != nil {
			return nil, fmt.Errorf("mark page %d exported: %w", p.Index, err)
		}
	}
	if _, err := s.docs.MarkExported(ctx, documentID); err != nil {
		return nil, fmt.Errorf("mark document exported: %w", err)
	}

	s.record(ctx, audit.NewEntry(documentID, uuid.Nil, audit.EventExported, map[string]any{
		"format": string(f),
		"scope":  "document",
	}))
	s.logger.Info("document exported", "document_id", documentID, "format", f, "bytes", len(res.Data))
	return res, nil
}

func (s *Service) record(ctx context.Context, entry audit.Entry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("audit record failed", "document_id", entry.DocumentID, "event", entry.EventType, "error", err)
	}
}
