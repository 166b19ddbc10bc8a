package documents

import (
	"fmt"
	"slices"
)

// NotDetected is the value of a structured field with nothing extracted.
const NotDetected = "Not detected"

// Structured field keys. The set is closed; edits naming any other key are
// rejected.
const (
	FieldLineCount              = "line_count"
	FieldWordCount              = "word_count"
	FieldSummaryPoints          = "summary_points"
	FieldDates                  = "dates"
	FieldAmounts                = "amounts"
	FieldInvoiceNumbers         = "invoice_numbers"
	FieldEmails                 = "emails"
	FieldPhones                 = "phones"
	FieldTaxIDs                 = "tax_ids"
	FieldDocumentType           = "document_type"
	FieldDocumentTypeConfidence = "document_type_confidence"
	FieldKeywords               = "keywords"
)

// FieldKeys lists every structured field in presentation order.
var FieldKeys = []string{
	FieldLineCount,
	FieldWordCount,
	FieldSummaryPoints,
	FieldDates,
	FieldAmounts,
	FieldInvoiceNumbers,
	FieldEmails,
	FieldPhones,
	FieldTaxIDs,
	FieldDocumentType,
	FieldDocumentTypeConfidence,
	FieldKeywords,
}

// ValidateFields rejects keys outside the closed field set.
func ValidateFields(fields map[string]string) error {
	for k := range fields {
		if !slices.Contains(FieldKeys, k) {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidFields, k)
		}
	}
	return nil
}

// MergeFields overlays user-edited values on extracted ones. Keys missing
// from both resolve to NotDetected.
func MergeFields(extracted, edited map[string]string) map[string]string {
	out := make(map[string]string, len(FieldKeys))
	for _, k := range FieldKeys {
		v, ok := edited[k]
		if !ok {
			v, ok = extracted[k]
		}
		if !ok || v == "" {
			v = NotDetected
		}
		out[k] = v
	}
	return out
}
