// Package tokens classifies OCR tokens by confidence and decides which of
// them a reviewer must confirm before a page can be validated.
package tokens

import (
	"cmp"
	"slices"
)

// Label is the confidence band of a token.
type Label string

const (
	LabelTrusted Label = "trusted"
	LabelMedium  Label = "medium"
	LabelLow     Label = "low"
)

// Flag is a diagnostic attached to a token by the classifier.
type Flag string

const (
	FlagEmptyText            Flag = "empty_text"
	FlagAmbiguous            Flag = "ambiguous"
	FlagSuspiciousCharacters Flag = "suspicious_characters"
	FlagCurrencyAmount       Flag = "currency_amount"
	FlagDate                 Flag = "date"
	FlagTotalKeyword         Flag = "total_keyword"
	FlagInvoiceNumber        Flag = "invoice_number"
	FlagMalformedPrice       Flag = "malformed_price"
)

type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Token is a single OCR word on a page. Only Text and Reviewed change after OCR.
type Token struct {
	ID           string  `json:"id"`
	LineIndex    int     `json:"line_index"`
	TokenIndex   int     `json:"token_index"`
	OriginalText string  `json:"original_text"`
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
	Label        Label   `json:"confidence_label"`
	ForcedReview bool    `json:"forced_review"`
	Flags        []Flag  `json:"flags"`
	BBox         BBox    `json:"bbox"`
	Reviewed     bool    `json:"reviewed"`
}

// Required reports whether the token must be reviewed before its page can be
// marked review complete.
func (t Token) Required() bool {
	return t.ForcedReview || t.Label != LabelTrusted
}

func (t Token) Corrected() bool {
	return t.Text != t.OriginalText
}

// Severity ranks tokens for presentation: low confidence first, then forced
// review, then everything else.
func (t Token) Severity() int {
	switch {
	case t.Label == LabelLow:
		return 2
	case t.ForcedReview:
		return 1
	default:
		return 0
	}
}

// RequiredIDs returns the ids of tokens that need review, in input order.
func RequiredIDs(toks []Token) []string {
	var ids []string
	for _, t := range toks {
		if t.Required() {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Unreviewed returns the ids of required tokens that are not marked reviewed.
func Unreviewed(toks []Token) []string {
	var ids []string
	for _, t := range toks {
		if t.Required() && !t.Reviewed {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func CountForced(toks []Token) int {
	n := 0
	for _, t := range toks {
		if t.ForcedReview {
			n++
		}
	}
	return n
}

// SortReading orders tokens by line then position within the line.
func SortReading(toks []Token) {
	slices.SortStableFunc(toks, func(a, b Token) int {
		if c := cmp.Compare(a.LineIndex, b.LineIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.TokenIndex, b.TokenIndex)
	})
}

// SortSeverity orders tokens by descending severity, keeping reading order
// within each severity.
func SortSeverity(toks []Token) {
	SortReading(toks)
	slices.SortStableFunc(toks, func(a, b Token) int {
		return cmp.Compare(b.Severity(), a.Severity())
	})
}
