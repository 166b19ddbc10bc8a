package summaries

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/vera/internal/gate"
	"github.com/JaimeStill/vera/internal/pages"
	"github.com/JaimeStill/vera/pkg/handlers"
	"github.com/JaimeStill/vera/pkg/openapi"
	"github.com/JaimeStill/vera/pkg/routes"
	"github.com/google/uuid"
)

type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.With("handler", "summaries"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Tags:        []string{"Summaries"},
		Description: "Summaries of review-complete pages and documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/pages/{page_id}/summary", Handler: h.Page, OpenAPI: Spec.Page},
			{Method: "GET", Pattern: "/{id}/summary", Handler: h.Document, OpenAPI: Spec.Document},
		},
	}
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	docID, pageID, err := pages.ParseIDs(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	sum, err := h.svc.Page(r.Context(), docID, pageID)
	if err != nil {
		handlers.RespondError(w, h.logger, gate.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sum)
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	sum, err := h.svc.Document(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, gate.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sum)
}

type spec struct {
	Page     *openapi.Operation
	Document *openapi.Operation
}

var Spec = spec{
	Page: &openapi.Operation{
		Summary:     "Summarize page",
		Description: "Bullet summary and structured fields of a review-complete page",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
			openapi.PathParam("page_id", "Page ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page summary", "Summary"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Document: &openapi.Operation{
		Summary:     "Summarize document",
		Description: "Bullet summary and structured fields of a document whose pages are all review complete",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document summary", "Summary"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Summary": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"bullet_summary":    {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"structured_fields": {Type: "object", Description: "Closed key set; missing values are \"Not detected\""},
			},
		},
	}
}
