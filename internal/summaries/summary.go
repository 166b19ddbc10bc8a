// Package summaries produces bullet summaries and structured fields from
// validated text. Extraction is deterministic; an agent-backed strategy can
// replace the summary points and falls back to the extractor on failure.
package summaries

import (
	"context"
	"errors"

	"github.com/JaimeStill/vera/internal/documents"
)

// ErrSummaryUnavailable reports that the agent produced no usable points.
var ErrSummaryUnavailable = errors.New("summary unavailable")

type Summary struct {
	BulletSummary    []string          `json:"bullet_summary"`
	StructuredFields map[string]string `json:"structured_fields"`
}

// WithEdits returns a copy whose fields prefer user edits, with bullets
// rebuilt from the merged fields.
func (s *Summary) WithEdits(edited map[string]string) *Summary {
	if len(edited) == 0 {
		return s
	}
	fields := documents.MergeFields(s.StructuredFields, edited)
	return &Summary{
		BulletSummary:    Bullets(fields),
		StructuredFields: fields,
	}
}

// Summarizer turns validated text into a Summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (*Summary, error)
}

// Extractor is the deterministic Summarizer.
type Extractor struct{}

func (Extractor) Summarize(ctx context.Context, text string) (*Summary, error) {
	return Analyze(text).Summary(nil), nil
}
