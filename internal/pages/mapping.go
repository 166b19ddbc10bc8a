package pages

import (
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/vera/internal/tokens"
	"github.com/JaimeStill/vera/pkg/repository"
)

const pageColumns = `id, document_id, page_index, status, review_complete, version,
	failure_reason, width, height, created_at, updated_at`

const tokenColumns = `id, line_index, token_index, original_text, text, confidence,
	confidence_label, forced_review, flags, bbox, reviewed`

func scanPage(s repository.Scanner) (Page, error) {
	var (
		p      Page
		status string
	)
	err := s.Scan(
		&p.ID,
		&p.DocumentID,
		&p.Index,
		&status,
		&p.ReviewComplete,
		&p.Version,
		&p.FailureReason,
		&p.Width,
		&p.Height,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	p.Status = Status(status)
	return p, err
}

func scanToken(s repository.Scanner) (tokens.Token, error) {
	var (
		t     tokens.Token
		label string
		flags []byte
		bbox  []byte
	)
	err := s.Scan(
		&t.ID,
		&t.LineIndex,
		&t.TokenIndex,
		&t.OriginalText,
		&t.Text,
		&t.Confidence,
		&label,
		&t.ForcedReview,
		&flags,
		&bbox,
		&t.Reviewed,
	)
	if err != nil {
		return t, err
	}

	t.Label = tokens.Label(label)
	if err := json.Unmarshal(flags, &t.Flags); err != nil {
		return t, fmt.Errorf("decode token flags: %w", err)
	}
	if err := json.Unmarshal(bbox, &t.BBox); err != nil {
		return t, fmt.Errorf("decode token bbox: %w", err)
	}
	return t, nil
}
