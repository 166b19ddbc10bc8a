// Package module mounts independently configured http.Handlers under
// single-segment path prefixes of one router.
package module

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/vera/pkg/middleware"
)

// Module is a handler with its own middleware stack, served under Prefix.
type Module struct {
	prefix     string
	handler    http.Handler
	middleware middleware.System
}

// New creates a Module. It panics when prefix is not a single "/segment".
func New(prefix string, handler http.Handler) *Module {
	if prefix == "" || !strings.HasPrefix(prefix, "/") || strings.Count(prefix, "/") != 1 {
		panic("module: prefix must be a single path segment such as /api, got " + prefix)
	}

	return &Module{
		prefix:     prefix,
		handler:    handler,
		middleware: middleware.New(),
	}
}

func (m *Module) Prefix() string {
	return m.prefix
}

func (m *Module) Handler() http.Handler {
	return m.middleware.Apply(m.handler)
}

// Use appends middleware to the module's stack.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

// Serve strips the module prefix and dispatches through the middleware stack.
func (m *Module) Serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, m.prefix)
	if path == "" {
		path = "/"
	}

	req := r.Clone(r.Context())
	req.URL.Path = path
	req.URL.RawPath = ""

	m.Handler().ServeHTTP(w, req)
}
