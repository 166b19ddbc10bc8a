package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/vera/pkg/pagination"
	"github.com/JaimeStill/vera/pkg/query"
	"github.com/JaimeStill/vera/pkg/repository"
	"github.com/google/uuid"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore returns a Store backed by the documents table.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "documents.store"),
	}
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "name", "filename")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.
		NewBuilder(projection).
		BuildSingle("id", id)

	doc, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &doc, nil
}

func (r *repo) Create(ctx context.Context, doc Document) (*Document, error) {
	q := `INSERT INTO documents(id, name, filename, content_type, size_bytes, page_count, storage_key)
		VALUES($1, $2, $3, $4, $5, $6, $7) ` + returning

	created, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		return repository.QueryOne(ctx, tx, q, []any{
			doc.ID, doc.Name, doc.Filename, doc.ContentType, doc.SizeBytes, doc.PageCount, doc.StorageKey,
		}, scanDocument)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &created, nil
}

func (r *repo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]string) (*Document, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}

	q := `UPDATE documents SET structured_fields = $1, updated_at = NOW()
		WHERE id = $2 ` + returning

	return r.update(ctx, q, data, id)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, `DELETE FROM documents WHERE id = $1`, id)
	})
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (r *repo) MarkSummarized(ctx context.Context, id uuid.UUID) (*Document, error) {
	q := `UPDATE documents
		SET summarized_at = COALESCE(summarized_at, NOW()), updated_at = NOW()
		WHERE id = $1 ` + returning

	return r.update(ctx, q, id)
}

func (r *repo) MarkExported(ctx context.Context, id uuid.UUID) (*Document, error) {
	q := `UPDATE documents
		SET exported_at = COALESCE(exported_at, NOW()), updated_at = NOW()
		WHERE id = $1 ` + returning

	return r.update(ctx, q, id)
}

func (r *repo) update(ctx context.Context, q string, args ...any) (*Document, error) {
	doc, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		return repository.QueryOne(ctx, tx, q, args, scanDocument)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &doc, nil
}
