package pages

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("page not found")
	ErrTokenNotFound     = errors.New("token not found")
	ErrVersionConflict   = errors.New("review out of date")
	ErrReviewIncomplete  = errors.New("review incomplete")
	ErrInvalidTransition = errors.New("invalid page transition")
	ErrDuplicate         = errors.New("page already exists")
)

func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrTokenNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrVersionConflict),
		errors.Is(err, ErrReviewIncomplete),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
