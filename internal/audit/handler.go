package audit

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/vera/pkg/handlers"
	"github.com/JaimeStill/vera/pkg/openapi"
	"github.com/JaimeStill/vera/pkg/routes"
	"github.com/google/uuid"
)

type Handler struct {
	rec    Recorder
	logger *slog.Logger
}

func NewHandler(rec Recorder, logger *slog.Logger) *Handler {
	return &Handler{
		rec:    rec,
		logger: logger.With("handler", "audit"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Tags:        []string{"Audit"},
		Description: "Document review audit trail",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/audit", Handler: h.List, OpenAPI: Spec.List},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	entries, err := h.rec.List(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	handlers.RespondJSON(w, http.StatusOK, entries)
}

type spec struct {
	List *openapi.Operation
}

var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List audit entries",
		Description: "Audit trail of a document in chronological order",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Audit entries",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("AuditEntry")}},
				},
			},
			400: openapi.ResponseRef("BadRequest"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"AuditEntry": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string", Format: "uuid"},
				"document_id": {Type: "string", Format: "uuid"},
				"page_id":     {Type: "string", Format: "uuid", Nullable: true},
				"event_type":  {Type: "string", Enum: []string{"corrections_applied", "review_saved", "review_completed", "ocr_failed", "summary_generated", "fields_updated", "exported", "canceled"}},
				"detail":      {Type: "object"},
				"created_at":  {Type: "string", Format: "date-time"},
			},
		},
	}
}
