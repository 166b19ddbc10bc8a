package tokens

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	currencyPattern       = regexp.MustCompile(`^(£|\$|€)\s*\d{1,3}(?:,\d{3})*(?:\.\d{2})?$`)
	datePattern           = regexp.MustCompile(`^(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2})$`)
	totalPattern          = regexp.MustCompile(`(?i)\b(total|amount\s+due|balance\s+due|grand\s+total)\b`)
	invoicePattern        = regexp.MustCompile(`(?i)\b(invoice|inv|receipt)\s*#?\s*\d+\b`)
	malformedPricePattern = regexp.MustCompile(`\d+\.\d$`)
)

// Letters commonly misread as digits.
const confusables = "OoIlSBZ"

// Candidate is a raw engine result before classification.
type Candidate struct {
	Text       string
	Confidence float64
	Ambiguous  bool
	BBox       BBox
}

type Classifier struct {
	high float64
	low  float64
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{
		high: cfg.HighThreshold,
		low:  cfg.LowThreshold,
	}
}

func (c *Classifier) Label(score float64) Label {
	switch {
	case score >= c.high:
		return LabelTrusted
	case score >= c.low:
		return LabelMedium
	default:
		return LabelLow
	}
}

// Flags returns every diagnostic that applies to text. Any flag forces review.
func (c *Classifier) Flags(text string, ambiguous bool) []Flag {
	trimmed := strings.TrimSpace(text)
	flags := []Flag{}

	if trimmed == "" {
		flags = append(flags, FlagEmptyText)
	}
	if ambiguous {
		flags = append(flags, FlagAmbiguous)
	}
	if suspicious(trimmed) {
		flags = append(flags, FlagSuspiciousCharacters)
	}
	if currencyPattern.MatchString(trimmed) {
		flags = append(flags, FlagCurrencyAmount)
	}
	if datePattern.MatchString(trimmed) {
		flags = append(flags, FlagDate)
	}
	if totalPattern.MatchString(trimmed) {
		flags = append(flags, FlagTotalKeyword)
	}
	if invoicePattern.MatchString(trimmed) {
		flags = append(flags, FlagInvoiceNumber)
	}
	if malformedPricePattern.MatchString(trimmed) {
		flags = append(flags, FlagMalformedPrice)
	}

	return flags
}

// Classify builds a token from an engine candidate. The label comes from the
// confidence score; forced review comes from flags alone.
func (c *Classifier) Classify(id string, line, index int, cand Candidate) Token {
	flags := c.Flags(cand.Text, cand.Ambiguous)

	return Token{
		ID:           id,
		LineIndex:    line,
		TokenIndex:   index,
		OriginalText: cand.Text,
		Text:         cand.Text,
		Confidence:   cand.Confidence,
		Label:        c.Label(cand.Confidence),
		ForcedReview: len(flags) > 0,
		Flags:        flags,
		BBox:         cand.BBox,
	}
}

func suspicious(text string) bool {
	var digits, letters, confusable int

	for _, r := range text {
		switch {
		case r == unicode.ReplacementChar:
			return true
		case unicode.IsControl(r):
			return true
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
			if strings.ContainsRune(confusables, r) {
				confusable++
			}
		}
	}

	return digits > 0 && letters > 0 && letters == confusable
}
