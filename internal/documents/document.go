// Package documents owns uploaded documents: blob storage, page creation,
// user-edited structured fields and the document-level summary and export
// markers. Document status is never stored; it is derived from page states
// by Derive.
package documents

import (
	"time"

	"github.com/JaimeStill/vera/internal/pages"
	"github.com/google/uuid"
)

type Document struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	Filename         string            `json:"filename"`
	ContentType      string            `json:"content_type"`
	SizeBytes        int64             `json:"size_bytes"`
	PageCount        int               `json:"page_count"`
	StorageKey       string            `json:"storage_key"`
	StructuredFields map[string]string `json:"structured_fields"`
	SummarizedAt     *time.Time        `json:"summarized_at,omitempty"`
	ExportedAt       *time.Time        `json:"exported_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Markers returns the document-level summary and export markers.
func (d *Document) Markers() Markers {
	return Markers{
		Summarized: d.SummarizedAt != nil,
		Exported:   d.ExportedAt != nil,
	}
}

// PageRef is the position and state of one page within a document view.
type PageRef struct {
	ID             uuid.UUID    `json:"id"`
	Index          int          `json:"index"`
	Status         pages.Status `json:"status"`
	ReviewComplete bool         `json:"review_complete"`
	Version        int          `json:"version"`
}

// View is a document with its derived status and ordered page references.
type View struct {
	Document
	Status         pages.Status `json:"status"`
	ReviewComplete bool         `json:"review_complete"`
	Pages          []PageRef    `json:"pages"`
}

// NewView derives status for doc from its pages, which must be ordered by
// index.
func NewView(doc Document, ps []pages.Page) *View {
	agg := Derive(ps, doc.Markers())
	refs := make([]PageRef, len(ps))
	for i, p := range ps {
		refs[i] = PageRef{
			ID:             p.ID,
			Index:          p.Index,
			Status:         p.Status,
			ReviewComplete: p.ReviewComplete,
			Version:        p.Version,
		}
	}
	return &View{
		Document:       doc,
		Status:         agg.Status,
		ReviewComplete: agg.ReviewComplete,
		Pages:          refs,
	}
}

// CreateCommand contains an uploaded file. Data holds the raw bytes.
type CreateCommand struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}
