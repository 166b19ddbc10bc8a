package documents

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/JaimeStill/vera/internal/audit"
	"github.com/JaimeStill/vera/internal/pages"
	"github.com/JaimeStill/vera/pkg/pagination"
	"github.com/JaimeStill/vera/pkg/storage"
	"github.com/google/uuid"
)

// Dispatcher schedules OCR for a newly created document.
type Dispatcher interface {
	Enqueue(ctx context.Context, doc Document) error
}

// System defines document operations. Status in every returned View is
// derived from the document's pages at read time.
type System interface {
	Create(ctx context.Context, cmd CreateCommand) (*View, error)
	Find(ctx context.Context, id uuid.UUID) (*View, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]string) (*View, error)
	Cancel(ctx context.Context, id uuid.UUID) (*View, error)
	MarkSummarized(ctx context.Context, id uuid.UUID) (*View, error)
	MarkExported(ctx context.Context, id uuid.UUID) (*View, error)
	Blob(ctx context.Context, id uuid.UUID) (*Document, []byte, error)
}

// Deps groups the collaborators of the document system.
type Deps struct {
	Store      Store
	Pages      pages.System
	Blobs      storage.System
	Dispatcher Dispatcher
	Publisher  pages.Publisher
	Audit      audit.Recorder
	Logger     *slog.Logger
	Pagination pagination.Config
}

type system struct {
	store      Store
	pages      pages.System
	blobs      storage.System
	dispatcher Dispatcher
	publisher  pages.Publisher
	audit      audit.Recorder
	logger     *slog.Logger
	pagination pagination.Config
}

func New(deps Deps) System {
	return &system{
		store:      deps.Store,
		pages:      deps.Pages,
		blobs:      deps.Blobs,
		dispatcher: deps.Dispatcher,
		publisher:  deps.Publisher,
		audit:      deps.Audit,
		logger:     deps.Logger.With("system", "documents"),
		pagination: deps.Pagination,
	}
}

func (s *system) Create(ctx context.Context, cmd CreateCommand) (*View, error) {
	info, err := Inspect(cmd.Data)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	name := cmd.Name
	if name == "" {
		name = cmd.Filename
	}

	doc := Document{
		ID:          id,
		Name:        name,
		Filename:    cmd.Filename,
		ContentType: info.ContentType,
		SizeBytes:   int64(len(cmd.Data)),
		PageCount:   info.PageCount,
		StorageKey:  buildStorageKey(id, cmd.Filename),
	}

	if err := s.blobs.Store(ctx, doc.StorageKey, cmd.Data); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	created, err := s.store.Create(ctx, doc)
	if err != nil {
		s.cleanup(ctx, doc.StorageKey)
		return nil, err
	}

	ps, err := s.pages.Create(ctx, created.ID, info.PageCount)
	if err != nil {
		if derr := s.store.Delete(ctx, created.ID); derr != nil {
			s.logger.Error("remove record after page create error", "id", created.ID, "error", derr)
		}
		s.cleanup(ctx, doc.StorageKey)
		return nil, err
	}

	s.logger.Info("document created",
		"id", created.ID,
		"name", created.Name,
		"content_type", created.ContentType,
		"pages", len(ps),
	)

	if err := s.dispatcher.Enqueue(ctx, *created); err != nil {
		s.logger.Error("ocr dispatch failed", "id", created.ID, "error", err)
	}

	return NewView(*created, ps), nil
}

func (s *system) Find(ctx context.Context, id uuid.UUID) (*View, error) {
	doc, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, doc)
}

func (s *system) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error) {
	page.Normalize(s.pagination)
	return s.store.List(ctx, page, filters)
}

func (s *system) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]string) (*View, error) {
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}

	doc, err := s.store.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.record(ctx, audit.NewEntry(id, uuid.Nil, audit.EventFieldsUpdated, map[string]any{
		"fields": sortedKeys(fields),
	}))
	s.logger.Info("structured fields updated", "id", id, "count", len(fields))
	s.publish(ctx, id)

	return s.view(ctx, doc)
}

func (s *system) Cancel(ctx context.Context, id uuid.UUID) (*View, error) {
	doc, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	ps, err := s.pages.CancelDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewView(*doc, ps), nil
}

func (s *system) MarkSummarized(ctx context.Context, id uuid.UUID) (*View, error) {
	doc, err := s.store.MarkSummarized(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, id)
	return s.view(ctx, doc)
}

func (s *system) MarkExported(ctx context.Context, id uuid.UUID) (*View, error) {
	doc, err := s.store.MarkExported(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, id)
	return s.view(ctx, doc)
}

func (s *system) Blob(ctx context.Context, id uuid.UUID) (*Document, []byte, error) {
	doc, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.blobs.Retrieve(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieve %s: %w", doc.StorageKey, err)
	}
	return doc, data, nil
}

func (s *system) view(ctx context.Context, doc *Document) (*View, error) {
	ps, err := s.pages.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return NewView(*doc, ps), nil
}

func (s *system) cleanup(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Error("cleanup failed after create error", "storage_key", key, "error", err)
	}
}

func (s *system) publish(ctx context.Context, id uuid.UUID) {
	if err := s.publisher.Publish(ctx, id); err != nil {
		s.logger.Warn("publish change failed", "document_id", id, "error", err)
	}
}

func (s *system) record(ctx context.Context, entry audit.Entry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("audit record failed", "document_id", entry.DocumentID, "event", entry.EventType, "error", err)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for _, k := range FieldKeys {
		if _, ok := m[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("documents/%s/%s", id.String(), sanitizeFilename(filename))
}

var filenameReplacer = strings.NewReplacer(
	" ", "_",
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return filenameReplacer.Replace(name)
}
