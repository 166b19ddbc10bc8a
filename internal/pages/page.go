// Package pages owns the review lifecycle of a single document page: OCR
// completion, reviewer corrections, review completion and the downstream
// summary and export markers. Every mutation runs through a Guard that
// enforces optimistic versioning.
package pages

import (
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/vera/internal/tokens"
	"github.com/google/uuid"
)

// Status is a page lifecycle state.
type Status string

const (
	StatusUploaded         Status = "uploaded"
	StatusProcessing       Status = "processing"
	StatusOCRDone          Status = "ocr_done"
	StatusReviewInProgress Status = "review_in_progress"
	StatusValidated        Status = "validated"
	StatusSummarized       Status = "summarized"
	StatusExported         Status = "exported"
	StatusCanceled         Status = "canceled"
	StatusFailed           Status = "failed"
)

// Stage is the position of s along the forward lifecycle. Side branches
// return -1.
func (s Status) Stage() int {
	switch s {
	case StatusUploaded:
		return 0
	case StatusProcessing:
		return 1
	case StatusOCRDone:
		return 2
	case StatusReviewInProgress:
		return 3
	case StatusValidated:
		return 4
	case StatusSummarized:
		return 5
	case StatusExported:
		return 6
	default:
		return -1
	}
}

// Terminal reports whether no further lifecycle transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusCanceled || s == StatusFailed || s == StatusExported
}

// StatusAtStage is the inverse of Stage.
func StatusAtStage(stage int) Status {
	for _, s := range []Status{
		StatusUploaded, StatusProcessing, StatusOCRDone, StatusReviewInProgress,
		StatusValidated, StatusSummarized, StatusExported,
	} {
		if s.Stage() == stage {
			return s
		}
	}
	return StatusUploaded
}

type Page struct {
	ID             uuid.UUID      `json:"id"`
	DocumentID     uuid.UUID      `json:"document_id"`
	Index          int            `json:"index"`
	Status         Status         `json:"status"`
	ReviewComplete bool           `json:"review_complete"`
	Version        int            `json:"version"`
	FailureReason  *string        `json:"failure_reason,omitempty"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	Tokens         []tokens.Token `json:"tokens"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Clone returns a deep copy safe to mutate.
func (p *Page) Clone() *Page {
	c := *p
	if p.FailureReason != nil {
		reason := *p.FailureReason
		c.FailureReason = &reason
	}
	c.Tokens = make([]tokens.Token, len(p.Tokens))
	for i, t := range p.Tokens {
		t.Flags = slices.Clone(t.Flags)
		c.Tokens[i] = t
	}
	return &c
}

// ValidatedText joins current token text with spaces per line and lines
// with newlines, in reading order.
func (p *Page) ValidatedText() string {
	toks := slices.Clone(p.Tokens)
	tokens.SortReading(toks)

	var (
		b    strings.Builder
		line = -1
	)
	for _, t := range toks {
		switch {
		case line == -1:
		case t.LineIndex != line:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		line = t.LineIndex
		b.WriteString(t.Text)
	}
	return b.String()
}

// Correction replaces the current text of a token.
type Correction struct {
	TokenID       string `json:"token_id"`
	CorrectedText string `json:"corrected_text"`
}

// ValidateCommand is one atomic review submission for a page. A nil
// PageVersion skips the client version check; the write is still
// compare-and-swap against the version the server read.
type ValidateCommand struct {
	Corrections      []Correction `json:"corrections"`
	ReviewedTokenIDs []string     `json:"reviewed_token_ids"`
	ReviewComplete   bool         `json:"review_complete"`
	PageVersion      *int         `json:"page_version"`
}

// OCRResult is the output of one page's OCR pass.
type OCRResult struct {
	Tokens []tokens.Token
	Width  int
	Height int
}
