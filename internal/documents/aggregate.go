package documents

import "github.com/JaimeStill/vera/internal/pages"

// Markers record that a document-level summary or export was served.
type Markers struct {
	Summarized bool
	Exported   bool
}

// Aggregate is the derived state of a document.
type Aggregate struct {
	Status         pages.Status `json:"status"`
	ReviewComplete bool         `json:"review_complete"`
}

// Derive computes document status and review completion from page states.
//
// Precedence: failed, canceled, uploaded when there are no pages, processing,
// uploaded, then the minimum lifecycle stage across pages. Exported counts
// only with the export marker and summarized only with the summary marker.
// A document without pages is never review complete.
func Derive(ps []pages.Page, m Markers) Aggregate {
	agg := Aggregate{
		Status:         pages.StatusUploaded,
		ReviewComplete: len(ps) > 0,
	}
	if len(ps) == 0 {
		return agg
	}

	var failed, canceled, processing, uploaded bool
	minStage := pages.StatusExported.Stage()

	for _, p := range ps {
		if !p.ReviewComplete {
			agg.ReviewComplete = false
		}
		switch p.Status {
		case pages.StatusFailed:
			failed = true
		case pages.StatusCanceled:
			canceled = true
		case pages.StatusProcessing:
			processing = true
		case pages.StatusUploaded:
			uploaded = true
		}
		if s := p.Status.Stage(); s >= 0 && s < minStage {
			minStage = s
		}
	}

	switch {
	case failed:
		agg.Status = pages.StatusFailed
	case canceled:
		agg.Status = pages.StatusCanceled
	case processing:
		agg.Status = pages.StatusProcessing
	case uploaded:
		agg.Status = pages.StatusUploaded
	default:
		status := pages.StatusAtStage(minStage)
		if status == pages.StatusExported && !m.Exported {
			status = pages.StatusSummarized
		}
		if status == pages.StatusSummarized && !m.Summarized {
			status = pages.StatusValidated
		}
		agg.Status = status
	}

	return agg
}
