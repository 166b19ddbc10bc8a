package api

import (
	"net/http"

	"github.com/JaimeStill/vera/internal/audit"
	"github.com/JaimeStill/vera/internal/config"
	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/internal/exports"
	"github.com/JaimeStill/vera/internal/pages"
	"github.com/JaimeStill/vera/internal/status"
	"github.com/JaimeStill/vera/internal/summaries"
	"github.com/JaimeStill/vera/pkg/openapi"
	"github.com/JaimeStill/vera/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	spec *openapi.Spec,
	runtime *Runtime,
	domain *Domain,
	cfg *config.Config,
) {
	documentsHandler := documents.NewHandler(domain.Documents, runtime.Logger, runtime.Pagination, cfg.Storage.MaxUploadSizeBytes())
	pagesHandler := pages.NewHandler(domain.Pages, runtime.Logger)
	statusHandler := status.NewHandler(domain.Status, runtime.Logger)
	summariesHandler := summaries.NewHandler(domain.Summaries, runtime.Logger)
	exportsHandler := exports.NewHandler(domain.Exports, runtime.Logger)
	auditHandler := audit.NewHandler(domain.Audit, runtime.Logger)

	routes.Register(
		mux,
		cfg.API.BasePath,
		spec,
		documentsHandler.Routes(),
		pagesHandler.Routes(),
		statusHandler.Routes(),
		summariesHandler.Routes(),
		exportsHandler.Routes(),
		auditHandler.Routes(),
	)

	spec.Components.AddSchemas(documents.Spec.Schemas())
	spec.Components.AddSchemas(pages.Spec.Schemas())
	spec.Components.AddSchemas(status.Spec.Schemas())
	spec.Components.AddSchemas(summaries.Spec.Schemas())
	spec.Components.AddSchemas(exports.Spec.Schemas())
	spec.Components.AddSchemas(audit.Spec.Schemas())
}
