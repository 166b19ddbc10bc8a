package pages

import (
	"fmt"

	"github.com/JaimeStill/vera/internal/tokens"
	"golang.org/x/text/unicode/norm"
)

// Transitions mutate the page they are given and report whether anything
// changed. They never touch Version; the Guard owns it. On error the page
// must be discarded.

func invalid(p *Page, op string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, p.Status)
}

// StartProcessing moves an uploaded page into OCR.
func StartProcessing(p *Page) (bool, error) {
	if p.Status != StatusUploaded {
		return false, invalid(p, "start processing")
	}
	p.Status = StatusProcessing
	return true, nil
}

// Requeue returns a page whose OCR was interrupted to the uploaded state.
// Uploaded pages are left unchanged.
func Requeue(p *Page) (bool, error) {
	switch p.Status {
	case StatusUploaded:
		return false, nil
	case StatusProcessing:
		p.Status = StatusUploaded
		return true, nil
	default:
		return false, invalid(p, "requeue")
	}
}

// CompleteOCR attaches classified tokens and opens the page for review.
func CompleteOCR(p *Page, result OCRResult) (bool, error) {
	if p.Status != StatusUploaded && p.Status != StatusProcessing {
		return false, invalid(p, "complete ocr")
	}

	toks := make([]tokens.Token, len(result.Tokens))
	copy(toks, result.Tokens)
	tokens.SortReading(toks)

	p.Tokens = toks
	p.Width = result.Width
	p.Height = result.Height
	p.Status = StatusOCRDone
	return true, nil
}

// Fail records a terminal OCR failure.
func Fail(p *Page, reason string) (bool, error) {
	if p.Status != StatusUploaded && p.Status != StatusProcessing {
		return false, invalid(p, "fail")
	}
	p.Status = StatusFailed
	p.FailureReason = &reason
	return true, nil
}

// ValidateOutcome describes what a Validate call applied.
type ValidateOutcome struct {
	Corrected     []string
	ReviewedCount int
}

// Validate applies corrections and reviewed ids and, when requested, marks
// the page review complete. Corrected tokens count as reviewed. A correction
// equal to the original text restores it.
func Validate(p *Page, cmd ValidateCommand) (ValidateOutcome, error) {
	var out ValidateOutcome

	if p.Status != StatusOCRDone && p.Status != StatusReviewInProgress {
		return out, invalid(p, "validate")
	}

	index := make(map[string]int, len(p.Tokens))
	for i, t := range p.Tokens {
		index[t.ID] = i
	}

	for _, c := range cmd.Corrections {
		i, ok := index[c.TokenID]
		if !ok {
			return out, fmt.Errorf("%w: %s", ErrTokenNotFound, c.TokenID)
		}
		tok := &p.Tokens[i]
		tok.Text = norm.NFC.String(c.CorrectedText)
		tok.Reviewed = true
		out.Corrected = append(out.Corrected, c.TokenID)
	}

	for _, id := range cmd.ReviewedTokenIDs {
		i, ok := index[id]
		if !ok {
			return out, fmt.Errorf("%w: %s", ErrTokenNotFound, id)
		}
		p.Tokens[i].Reviewed = true
	}

	for _, t := range p.Tokens {
		if t.Reviewed {
			out.ReviewedCount++
		}
	}

	if !cmd.ReviewComplete {
		p.Status = StatusReviewInProgress
		return out, nil
	}

	if missing := tokens.Unreviewed(p.Tokens); len(missing) > 0 {
		return out, fmt.Errorf("%w: %d required tokens unreviewed", ErrReviewIncomplete, len(missing))
	}

	p.ReviewComplete = true
	p.Status = StatusValidated
	return out, nil
}

// MarkSummarized records that a summary was served. Already summarized or
// exported pages are left unchanged.
func MarkSummarized(p *Page) (bool, error) {
	switch p.Status {
	case StatusSummarized, StatusExported:
		return false, nil
	case StatusValidated:
		p.Status = StatusSummarized
		return true, nil
	default:
		return false, invalid(p, "mark summarized")
	}
}

// MarkExported records that an export was served. Exported pages are left
// unchanged.
func MarkExported(p *Page) (bool, error) {
	switch p.Status {
	case StatusExported:
		return false, nil
	case StatusValidated, StatusSummarized:
		p.Status = StatusExported
		return true, nil
	default:
		return false, invalid(p, "mark exported")
	}
}

// Cancel stops a page that has not reached validation. Canceled, failed and
// validated-or-later pages are left unchanged.
func Cancel(p *Page) (bool, error) {
	switch p.Status {
	case StatusUploaded, StatusProcessing, StatusOCRDone, StatusReviewInProgress:
		p.Status = StatusCanceled
		return true, nil
	default:
		return false, nil
	}
}
