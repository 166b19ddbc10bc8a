package routes

import (
	"net/http"

	"github.com/JaimeStill/vera/pkg/openapi"
)

// Route is a single method and pattern bound to a handler, with optional
// OpenAPI documentation.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}
