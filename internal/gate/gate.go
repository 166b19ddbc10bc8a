// Package gate decides whether summaries and exports may be served. It reads
// state and never changes it.
package gate

import (
	"context"
	"errors"
	"net/http"

	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/internal/pages"
	"github.com/google/uuid"
)

var (
	ErrReviewIncomplete     = pages.ErrReviewIncomplete
	ErrDocumentNotValidated = errors.New("document not validated")
)

// CheckPage opens the gate for a page whose review is complete.
func CheckPage(p *pages.Page) error {
	if !p.ReviewComplete {
		return ErrReviewIncomplete
	}
	return nil
}

// CheckDocument opens the gate for a document whose every page is review
// complete.
func CheckDocument(v *documents.View) error {
	if !v.ReviewComplete {
		return ErrDocumentNotValidated
	}
	return nil
}

type DocumentFinder interface {
	Find(ctx context.Context, id uuid.UUID) (*documents.View, error)
}

type PageFinder interface {
	Find(ctx context.Context, documentID, pageID uuid.UUID) (*pages.Page, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]pages.Page, error)
}

// Gate loads the target of a summary or export request and checks it.
type Gate struct {
	docs  DocumentFinder
	pages PageFinder
}

func New(docs DocumentFinder, ps PageFinder) *Gate {
	return &Gate{docs: docs, pages: ps}
}

// Page returns the page when its gate is open.
func (g *Gate) Page(ctx context.Context, documentID, pageID uuid.UUID) (*pages.Page, error) {
	p, err := g.pages.Find(ctx, documentID, pageID)
	if err != nil {
		return nil, err
	}
	if err := CheckPage(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Document returns the document view and its pages when its gate is open.
func (g *Gate) Document(ctx context.Context, documentID uuid.UUID) (*documents.View, []pages.Page, error) {
	v, err := g.docs.Find(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if err := CheckDocument(v); err != nil {
		return nil, nil, err
	}

	ps, err := g.pages.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	return v, ps, nil
}

func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrDocumentNotValidated) {
		return http.StatusConflict
	}
	return documents.MapHTTPStatus(err)
}
