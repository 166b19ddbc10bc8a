package exports

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

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
		logger: logger.With("handler", "exports"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Tags:        []string{"Exports"},
		Description: "Exports of review-complete pages and documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/pages/{page_id}/export", Handler: h.Page, OpenAPI: Spec.Page},
			{Method: "GET", Pattern: "/{id}/export", Handler: h.Document, OpenAPI: Spec.Document},
		},
	}
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	docID, pageID, err := pages.ParseIDs(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	res, err := h.svc.Page(r.Context(), docID, pageID, r.URL.Query().Get("format"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	writeResult(w, res)
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	res, err := h.svc.Document(r.Context(), id, r.URL.Query().Get("format"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	writeResult(w, res)
}

func writeResult(w http.ResponseWriter, res *Result) {
	w.Header().Set("Content-Type", res.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}

type spec struct {
	Page     *openapi.Operation
	Document *openapi.Operation
}

func formatParam() *openapi.Parameter {
	return openapi.QueryParam("format", "string", "Export format: json (default), csv, yaml, markdown, html or pdf", false)
}

var Spec = spec{
	Page: &openapi.Operation{
		Summary:     "Export page",
		Description: "Export a review-complete page",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
			openapi.PathParam("page_id", "Page ID"),
			formatParam(),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Export artifact", "ExportPayload"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Document: &openapi.Operation{
		Summary:     "Export document",
		Description: "Export a document whose pages are all review complete",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
			formatParam(),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Export artifact", "ExportPayload"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"ExportPayload": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_id":       {Type: "string", Format: "uuid"},
				"page_id":           {Type: "string", Format: "uuid"},
				"name":              {Type: "string"},
				"validated_text":    {Type: "string"},
				"bullet_summary":    {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"structured_fields": {Type: "object"},
			},
		},
	}
}
