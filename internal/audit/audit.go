// Package audit records the review trail of a document: corrections,
// review saves and completions, OCR failures, summaries, field edits,
// exports and cancellations.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCorrectionsApplied EventType = "corrections_applied"
	EventReviewSaved        EventType = "review_saved"
	EventReviewCompleted    EventType = "review_completed"
	EventOCRFailed          EventType = "ocr_failed"
	EventSummaryGenerated   EventType = "summary_generated"
	EventFieldsUpdated      EventType = "fields_updated"
	EventExported           EventType = "exported"
	EventCanceled           EventType = "canceled"
)

type Entry struct {
	ID         uuid.UUID      `json:"id"`
	DocumentID uuid.UUID      `json:"document_id"`
	PageID     *uuid.UUID     `json:"page_id,omitempty"`
	EventType  EventType      `json:"event_type"`
	Detail     map[string]any `json:"detail"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewEntry builds an entry for documentID. pageID may be uuid.Nil for
// document-level events.
func NewEntry(documentID, pageID uuid.UUID, event EventType, detail map[string]any) Entry {
	e := Entry{
		ID:         uuid.New(),
		DocumentID: documentID,
		EventType:  event,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
	if pageID != uuid.Nil {
		e.PageID = &pageID
	}
	if e.Detail == nil {
		e.Detail = map[string]any{}
	}
	return e
}

// Recorder persists and lists audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, documentID uuid.UUID) ([]Entry, error)
}
