package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/vera/pkg/repository"
	"github.com/google/uuid"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a PostgreSQL-backed Recorder.
func New(db *sql.DB, logger *slog.Logger) Recorder {
	return &repo{
		db:     db,
		logger: logger.With("system", "audit"),
	}
}

func (r *repo) Record(ctx context.Context, e Entry) error {
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}

	const q = `INSERT INTO audit_logs (id, document_id, page_id, event_type, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(ctx, q, e.ID, e.DocumentID, e.PageID, string(e.EventType), detail, e.CreatedAt); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	r.logger.Debug("audit recorded", "document_id", e.DocumentID, "event", e.EventType)
	return nil
}

func (r *repo) List(ctx context.Context, documentID uuid.UUID) ([]Entry, error) {
	const q = `SELECT id, document_id, page_id, event_type, detail, created_at
		FROM audit_logs WHERE document_id = $1 ORDER BY created_at, id`

	entries, err := repository.QueryMany(ctx, r.db, q, []any{documentID}, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	return entries, nil
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var (
		e      Entry
		detail []byte
	)
	if err := s.Scan(&e.ID, &e.DocumentID, &e.PageID, &e.EventType, &detail, &e.CreatedAt); err != nil {
		return e, err
	}
	if err := json.Unmarshal(detail, &e.Detail); err != nil {
		return e, fmt.Errorf("decode audit detail: %w", err)
	}
	return e, nil
}
