// Package exports renders gated page and document exports in the supported
// formats and records the exported markers.
package exports

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/vera/internal/gate"
	"github.com/google/uuid"
)

var (
	ErrInvalidFormat  = errors.New("invalid export format")
	ErrPDFUnavailable = errors.New("pdf export unavailable")
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

var formats = []Format{FormatJSON, FormatCSV, FormatYAML, FormatMarkdown, FormatHTML, FormatPDF}

// ParseFormat reads a format query value. Empty selects JSON.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatJSON, nil
	}
	f := Format(strings.ToLower(s))
	for _, known := range formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidFormat, s)
}

// Payload is the exported content of a page or document.
type Payload struct {
	DocumentID       uuid.UUID         `json:"document_id" yaml:"document_id"`
	PageID           *uuid.UUID        `json:"page_id,omitempty" yaml:"page_id,omitempty"`
	Name             string            `json:"name" yaml:"name"`
	ValidatedText    string            `json:"validated_text" yaml:"validated_text"`
	BulletSummary    []string          `json:"bullet_summary" yaml:"bullet_summary"`
	StructuredFields map[string]string `json:"structured_fields" yaml:"structured_fields"`
}

// Result is a rendered export.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrPDFUnavailable):
		return http.StatusServiceUnavailable
	default:
		return gate.MapHTTPStatus(err)
	}
}
