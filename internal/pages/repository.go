package pages

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/vera/internal/tokens"
	"github.com/JaimeStill/vera/pkg/repository"
	"github.com/google/uuid"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a Store backed by the pages and tokens tables.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "pages"),
	}
}

func (r *repo) Create(ctx context.Context, pages []Page) error {
	const q = `INSERT INTO pages (id, document_id, page_index, status, review_complete, version, width, height, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		for _, p := range pages {
			if _, err := tx.ExecContext(ctx, q,
				p.ID, p.DocumentID, p.Index, string(p.Status), p.ReviewComplete, p.Version,
				p.Width, p.Height, p.CreatedAt, p.UpdatedAt,
			); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Page, error) {
	q := `SELECT ` + pageColumns + ` FROM pages WHERE id = $1`

	p, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanPage)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if p.Tokens, err = r.loadTokens(ctx, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]Page, error) {
	q := `SELECT ` + pageColumns + ` FROM pages WHERE document_id = $1 ORDER BY page_index`

	pages, err := repository.QueryMany(ctx, r.db, q, []any{documentID}, scanPage)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}

	for i := range pages {
		if pages[i].Tokens, err = r.loadTokens(ctx, pages[i].ID); err != nil {
			return nil, err
		}
	}
	return pages, nil
}

func (r *repo) PendingDocuments(ctx context.Context) ([]uuid.UUID, error) {
	const q = `SELECT DISTINCT document_id FROM pages WHERE status IN ($1, $2)`

	ids, err := repository.QueryMany(ctx, r.db, q, []any{string(StatusUploaded), string(StatusProcessing)},
		func(s repository.Scanner) (uuid.UUID, error) {
			var id uuid.UUID
			err := s.Scan(&id)
			return id, err
		})
	if err != nil {
		return nil, fmt.Errorf("query pending documents: %w", err)
	}
	return ids, nil
}

func (r *repo) CompareAndSwap(ctx context.Context, p *Page, expected int) error {
	const update = `UPDATE pages
		SET status = $3, review_complete = $4, version = $5, failure_reason = $6,
			width = $7, height = $8, updated_at = $9
		WHERE id = $1 AND version = $2`

	const upsert = `INSERT INTO tokens (page_id, ` + tokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (page_id, id) DO UPDATE SET text = EXCLUDED.text, reviewed = EXCLUDED.reviewed`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(ctx, tx, update,
			p.ID, expected, string(p.Status), p.ReviewComplete, p.Version, p.FailureReason,
			p.Width, p.Height, p.UpdatedAt,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return struct{}{}, r.missOrConflict(ctx, tx, p.ID)
		}
		if err != nil {
			return struct{}{}, err
		}

		for _, t := range p.Tokens {
			flags, err := json.Marshal(t.Flags)
			if err != nil {
				return struct{}{}, fmt.Errorf("encode token flags: %w", err)
			}
			bbox, err := json.Marshal(t.BBox)
			if err != nil {
				return struct{}{}, fmt.Errorf("encode token bbox: %w", err)
			}

			if _, err := tx.ExecContext(ctx, upsert,
				p.ID, t.ID, t.LineIndex, t.TokenIndex, t.OriginalText, t.Text, t.Confidence,
				string(t.Label), t.ForcedReview, flags, bbox, t.Reviewed,
			); err != nil {
				return struct{}{}, fmt.Errorf("upsert token %s: %w", t.ID, err)
			}
		}
		return struct{}{}, nil
	})

	if errors.Is(err, ErrVersionConflict) {
		r.logger.Info("version conflict", "page_id", p.ID, "expected", expected)
		return err
	}
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

// missOrConflict classifies an update that matched no row.
func (r *repo) missOrConflict(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pages WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (r *repo) loadTokens(ctx context.Context, pageID uuid.UUID) ([]tokens.Token, error) {
	q := `SELECT ` + tokenColumns + ` FROM tokens WHERE page_id = $1 ORDER BY line_index, token_index`

	toks, err := repository.QueryMany(ctx, r.db, q, []any{pageID}, scanToken)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	return toks, nil
}
