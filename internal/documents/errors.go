package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/vera/internal/pages"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicate       = errors.New("document storage key already exists")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
	ErrInvalidFile     = errors.New("invalid file")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrInvalidFields   = errors.New("invalid structured fields")
)

// MapHTTPStatus converts domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrInvalidFile), errors.Is(err, ErrInvalidFields):
		return http.StatusBadRequest
	default:
		return pages.MapHTTPStatus(err)
	}
}
