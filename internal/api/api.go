// Package api assembles the review domain into the HTTP module served under
// the configured base path.
package api

import (
	"net/http"

	"github.com/JaimeStill/vera/internal/config"
	"github.com/JaimeStill/vera/internal/infrastructure"
	"github.com/JaimeStill/vera/pkg/lifecycle"
	"github.com/JaimeStill/vera/pkg/middleware"
	"github.com/JaimeStill/vera/pkg/module"
	"github.com/JaimeStill/vera/pkg/openapi"
)

// API is the mounted module plus the domain behind it.
type API struct {
	Module *module.Module
	Domain *Domain
}

func New(cfg *config.Config, infra *infrastructure.Infrastructure) (*API, error) {
	runtime := NewRuntime(cfg, infra)
	domain, err := NewDomain(runtime, cfg)
	if err != nil {
		return nil, err
	}

	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	if cfg.Domain != "" {
		spec.AddServer(cfg.Domain)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, spec, runtime, domain, cfg)

	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return &API{Module: m, Domain: domain}, nil
}

// Start registers the domain's background work with the coordinator.
func (a *API) Start(lc *lifecycle.Coordinator) error {
	return a.Domain.Start(lc)
}
