package routes

import (
	"net/http"
	"slices"

	"github.com/JaimeStill/vera/pkg/openapi"
)

// Group represents a collection of routes under a common URL prefix.
// Groups can contain child groups for hierarchical route organization.
type Group struct {
	Prefix      string
	Tags        []string
	Description string
	Routes      []Route
	Children    []Group
}

// AddToSpec records the group's documented operations under basePath.
// Operations without explicit tags inherit the group's tags.
func (g *Group) AddToSpec(basePath string, spec *openapi.Spec) {
	g.addOperations(basePath+g.Prefix, spec)
}

func (g *Group) addOperations(prefix string, spec *openapi.Spec) {
	for _, route := range g.Routes {
		if route.OpenAPI == nil {
			continue
		}

		op := route.OpenAPI
		if len(op.Tags) == 0 {
			op.Tags = slices.Clone(g.Tags)
		}

		spec.AddOperation(prefix+route.Pattern, route.Method, op)
	}

	for _, child := range g.Children {
		child.addOperations(prefix+child.Prefix, spec)
	}
}

func (g *Group) register(mux *http.ServeMux, prefix string) {
	for _, route := range g.Routes {
		mux.HandleFunc(route.Method+" "+prefix+route.Pattern, route.Handler)
	}

	for _, child := range g.Children {
		child.register(mux, prefix+child.Prefix)
	}
}

// Register mounts every group on mux and documents it in spec under basePath.
// Mux patterns omit basePath since modules strip their prefix before dispatch.
func Register(mux *http.ServeMux, basePath string, spec *openapi.Spec, groups ...Group) {
	for _, g := range groups {
		g.register(mux, g.Prefix)
		if spec != nil {
			g.AddToSpec(basePath, spec)
		}
	}
}
