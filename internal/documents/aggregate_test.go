package documents_test

import (
	"testing"

	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/internal/pages"
)

func pagesAt(statuses ...pages.Status) []pages.Page {
	ps := make([]pages.Page, len(statuses))
	for i, s := range statuses {
		ps[i] = pages.Page{
			Index:          i,
			Status:         s,
			ReviewComplete: s.Stage() >= pages.StatusValidated.Stage(),
		}
	}
	return ps
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name     string
		pages    []pages.Page
		markers  documents.Markers
		want     pages.Status
		complete bool
	}{
		{"no pages", nil, documents.Markers{}, pages.StatusUploaded, false},
		{"failed wins", pagesAt(pages.StatusValidated, pages.StatusFailed, pages.StatusCanceled), documents.Markers{}, pages.StatusFailed, false},
		{"canceled", pagesAt(pages.StatusCanceled, pages.StatusProcessing), documents.Markers{}, pages.StatusCanceled, false},
		{"processing", pagesAt(pages.StatusUploaded, pages.StatusProcessing, pages.StatusOCRDone), documents.Markers{}, pages.StatusProcessing, false},
		{"uploaded", pagesAt(pages.StatusUploaded, pages.StatusOCRDone), documents.Markers{}, pages.StatusUploaded, false},
		{"minimum stage", pagesAt(pages.StatusValidated, pages.StatusValidated, pages.StatusOCRDone), documents.Markers{}, pages.StatusOCRDone, false},
		{"in review", pagesAt(pages.StatusReviewInProgress, pages.StatusValidated), documents.Markers{}, pages.StatusReviewInProgress, false},
		{"all validated", pagesAt(pages.StatusValidated, pages.StatusValidated), documents.Markers{}, pages.StatusValidated, true},
		{"page summaries only", pagesAt(pages.StatusSummarized, pages.StatusSummarized), documents.Markers{}, pages.StatusValidated, true},
		{"document summarized", pagesAt(pages.StatusSummarized, pages.StatusExported), documents.Markers{Summarized: true}, pages.StatusSummarized, true},
		{"page exports only", pagesAt(pages.StatusExported, pages.StatusExported), documents.Markers{Summarized: true}, pages.StatusSummarized, true},
		{"page exports without summary", pagesAt(pages.StatusExported), documents.Markers{}, pages.StatusValidated, true},
		{"document exported", pagesAt(pages.StatusExported, pages.StatusExported), documents.Markers{Exported: true}, pages.StatusExported, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := documents.Derive(tt.pages, tt.markers)
			if got.Status != tt.want {
				t.Errorf("Status = %s, want %s", got.Status, tt.want)
			}
			if got.ReviewComplete != tt.complete {
				t.Errorf("ReviewComplete = %v, want %v", got.ReviewComplete, tt.complete)
			}
		})
	}
}

func TestDerive_ReviewCompleteRequiresEveryPage(t *testing.T) {
	ps := pagesAt(pages.StatusValidated, pages.StatusValidated, pages.StatusOCRDone)
	if documents.Derive(ps, documents.Markers{}).ReviewComplete {
		t.Fatal("document with an unreviewed page must not be review complete")
	}

	ps[2].Status = pages.StatusValidated
	ps[2].ReviewComplete = true
	if !documents.Derive(ps, documents.Markers{}).ReviewComplete {
		t.Fatal("document with every page reviewed must be review complete")
	}
}

func TestMergeFields(t *testing.T) {
	extracted := map[string]string{
		documents.FieldDates:   "2024-01-02",
		documents.FieldAmounts: "",
		documents.FieldEmails:  "a@b.co",
	}
	edited := map[string]string{
		documents.FieldEmails: "billing@vendor.example",
	}

	got := documents.MergeFields(extracted, edited)

	if len(got) != len(documents.FieldKeys) {
		t.Fatalf("len = %d, want %d", len(got), len(documents.FieldKeys))
	}

	tests := map[string]string{
		documents.FieldDates:    "2024-01-02",
		documents.FieldAmounts:  documents.NotDetected,
		documents.FieldEmails:   "billing@vendor.example",
		documents.FieldKeywords: documents.NotDetected,
	}
	for k, want := range tests {
		t.Run(k, func(t *testing.T) {
			if got[k] != want {
				t.Errorf("%s = %q, want %q", k, got[k], want)
			}
		})
	}
}

func TestValidateFields(t *testing.T) {
	if err := documents.ValidateFields(map[string]string{documents.FieldDates: "x"}); err != nil {
		t.Errorf("known key rejected: %v", err)
	}
	if err := documents.ValidateFields(map[string]string{"favorite_color": "x"}); err == nil {
		t.Error("unknown key accepted")
	}
}
