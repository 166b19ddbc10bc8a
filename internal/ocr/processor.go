package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/internal/pages"
	"github.com/JaimeStill/vera/internal/tokens"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Processor runs OCR for every page of a document.
type Processor struct {
	pages       pages.System
	engine      Engine
	raster      *Rasterizer
	classifier  *tokens.Classifier
	workers     int
	pageTimeout time.Duration
	logger      *slog.Logger
}

func NewProcessor(ps pages.System, engine Engine, raster *Rasterizer, classifier *tokens.Classifier, cfg *Config, logger *slog.Logger) *Processor {
	return &Processor{
		pages:       ps,
		engine:      engine,
		raster:      raster,
		classifier:  classifier,
		workers:     cfg.PageWorkers,
		pageTimeout: cfg.PageTimeoutDuration(),
		logger:      logger.With("system", "ocr"),
	}
}

// Process runs OCR over the pages of doc using data as the upload. Page
// failures are recorded on the page and do not stop the other pages.
func (p *Processor) Process(ctx context.Context, doc documents.Document, data []byte) error {
	ps, err := p.pages.ListByDocument(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}

	src, err := p.raster.Open(data, doc.ContentType)
	if err != nil {
		if ctx.Err() == nil {
			p.failAll(ctx, ps, err)
		}
		return err
	}
	defer src.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, page := range ps {
		g.Go(func() error {
			p.page(gctx, src, page)
			return nil
		})
	}
	g.Wait()

	p.logger.Info("document ocr finished", "document_id", doc.ID, "pages", len(ps))
	return nil
}

func (p *Processor) page(ctx context.Context, src PageSource, page pages.Page) {
	if _, err := p.pages.StartProcessing(ctx, page.ID); err != nil {
		p.logger.Debug("page skipped", "page_id", page.ID, "status", page.Status, "error", err)
		return
	}

	result, err := p.recognize(ctx, src, page.Index)
	if err != nil {
		if ctx.Err() != nil {
			p.logger.Info("ocr interrupted, page left for recovery", "page_id", page.ID)
			return
		}
		if _, ferr := p.pages.Fail(ctx, page.ID, err.Error()); ferr != nil {
			p.logDiscard(page, ferr)
		}
		return
	}

	if _, err := p.pages.CompleteOCR(ctx, page.ID, *result); err != nil {
		p.logDiscard(page, err)
	}
}

// recognize renders and reads one page within the page timeout. The engine
// call is abandoned, not interrupted, when the timeout fires.
func (p *Processor) recognize(ctx context.Context, src PageSource, index int) (*pages.OCRResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.pageTimeout)
	defer cancel()

	img, err := src.Page(ctx, index)
	if err != nil {
		return nil, err
	}
	width, height, err := dimensions(img)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		cands []tokens.Candidate
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		cands, err := p.engine.Recognize(ctx, img)
		done <- outcome{cands, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("ocr page %d: %w", index+1, ctx.Err())
	case o := <-done:
		if o.err != nil {
			return nil, fmt.Errorf("ocr page %d: %w", index+1, o.err)
		}
		return &pages.OCRResult{
			Tokens: Tokenize(o.cands, p.classifier),
			Width:  width,
			Height: height,
		}, nil
	}
}

// Fail marks every page of a document failed when its upload cannot be read.
func (p *Processor) Fail(ctx context.Context, documentID uuid.UUID, cause error) {
	if ctx.Err() != nil {
		return
	}
	ps, err := p.pages.ListByDocument(ctx, documentID)
	if err != nil {
		p.logger.Error("list pages failed", "document_id", documentID, "error", err)
		return
	}
	p.failAll(ctx, ps, cause)
}

func (p *Processor) failAll(ctx context.Context, ps []pages.Page, cause error) {
	for _, page := range ps {
		if _, err := p.pages.Fail(ctx, page.ID, cause.Error()); err != nil {
			p.logDiscard(page, err)
		}
	}
}

func (p *Processor) logDiscard(page pages.Page, err error) {
	if errors.Is(err, pages.ErrInvalidTransition) {
		p.logger.Info("discarding ocr result for page no longer in processing", "page_id", page.ID)
		return
	}
	p.logger.Error("recording ocr outcome failed", "page_id", page.ID, "error", err)
}
