package pages

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/vera/internal/tokens"
	"github.com/JaimeStill/vera/pkg/handlers"
	"github.com/JaimeStill/vera/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides HTTP endpoints for page review.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "pages"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Tags:        []string{"Pages"},
		Description: "Page review and validation",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/pages/{page_id}", Handler: h.Find, OpenAPI: Spec.Find},
			{Method: "POST", Pattern: "/{id}/pages/{page_id}/validate", Handler: h.Validate, OpenAPI: Spec.Validate},
		},
	}
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	docID, pageID, err := ParseIDs(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	p, err := h.sys.Find(r.Context(), docID, pageID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if r.URL.Query().Get("order") == "severity" {
		tokens.SortSeverity(p.Tokens)
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	docID, pageID, err := ParseIDs(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var cmd ValidateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	p, err := h.sys.Validate(r.Context(), docID, pageID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// ParseIDs reads the {id} and {page_id} path values.
func ParseIDs(r *http.Request) (documentID, pageID uuid.UUID, err error) {
	if documentID, err = uuid.Parse(r.PathValue("id")); err != nil {
		return
	}
	pageID, err = uuid.Parse(r.PathValue("page_id"))
	return
}
