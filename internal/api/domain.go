package api

import (
	"fmt"

	"github.com/JaimeStill/vera/internal/audit"
	"github.com/JaimeStill/vera/internal/config"
	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/internal/exports"
	"github.com/JaimeStill/vera/internal/ocr"
	"github.com/JaimeStill/vera/internal/pages"
	"github.com/JaimeStill/vera/internal/status"
	"github.com/JaimeStill/vera/internal/summaries"
	"github.com/JaimeStill/vera/internal/tokens"
	"github.com/JaimeStill/vera/pkg/lifecycle"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Audit     audit.Recorder
	Pages     pages.System
	Documents documents.System
	OCR       *ocr.Queue
	Status    *status.Publisher
	Summaries *summaries.Service
	Exports   *exports.Service
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime, cfg *config.Config) (*Domain, error) {
	db := runtime.Database.Connection()
	logger := runtime.Logger

	rec := audit.New(db, logger)
	pagesSys := pages.New(pages.NewPostgresStore(db, logger), runtime.Events, rec, logger)

	processor := ocr.NewProcessor(
		pagesSys,
		ocr.NewTesseract(&cfg.OCR),
		ocr.NewRasterizer(&cfg.OCR),
		tokens.NewClassifier(cfg.Review),
		&cfg.OCR,
		logger,
	)
	docStore := documents.NewPostgresStore(db, logger)
	queue := ocr.NewQueue(processor, docStore, runtime.Storage, &cfg.OCR, logger)

	docsSys := documents.New(documents.Deps{
		Store:      docStore,
		Pages:      pagesSys,
		Blobs:      runtime.Storage,
		Dispatcher: queue,
		Publisher:  runtime.Events,
		Audit:      rec,
		Logger:     logger,
		Pagination: runtime.Pagination,
	})

	summarizer, err := summaries.NewSummarizer(&cfg.Summary, logger)
	if err != nil {
		return nil, fmt.Errorf("summarizer init failed: %w", err)
	}

	renderer := exports.NewRenderer(exports.NewPrinter(&cfg.Export))

	return &Domain{
		Audit:     rec,
		Pages:     pagesSys,
		Documents: docsSys,
		OCR:       queue,
		Status:    status.New(docStore, pagesSys, runtime.Events, logger),
		Summaries: summaries.NewService(docsSys, pagesSys, summarizer, rec, logger),
		Exports:   exports.NewService(docsSys, pagesSys, renderer, rec, logger),
	}, nil
}

// Start registers the background OCR workers with the coordinator.
func (d *Domain) Start(lc *lifecycle.Coordinator) error {
	return d.OCR.Start(lc)
}
