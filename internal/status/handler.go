package status

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/pkg/handlers"
	"github.com/JaimeStill/vera/pkg/openapi"
	"github.com/JaimeStill/vera/pkg/routes"
	"github.com/google/uuid"
)

type Handler struct {
	pub    *Publisher
	logger *slog.Logger
}

func NewHandler(pub *Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		pub:    pub,
		logger: logger.With("handler", "status"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Tags:        []string{"Status"},
		Description: "Document status polling and streaming",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/pages/status", Handler: h.Poll, OpenAPI: Spec.Poll},
			{Method: "GET", Pattern: "/{id}/status/stream", Handler: h.Stream, OpenAPI: Spec.Stream},
		},
	}
}

func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	snap, err := h.pub.Poll(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, documents.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	stream, err := h.pub.Stream(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, documents.MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	for event := range stream {
		var payload any = event.Snapshot
		if event.Type == EventError {
			payload = map[string]string{"error": event.Err.Error()}
		}

		data, err := json.Marshal(payload)
		if err != nil {
			h.logger.Error("failed to marshal event", "error", err)
			continue
		}

		fmt.Fprintf(w, "event: %s\n", event.Type)
		fmt.Fprintf(w, "data: %s\n\n", data)

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

type spec struct {
	Poll   *openapi.Operation
	Stream *openapi.Operation
}

var Spec = spec{
	Poll: &openapi.Operation{
		Summary:     "Document status",
		Description: "Current status snapshot of a document and its pages",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Status snapshot", "StatusSnapshot"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Stream: &openapi.Operation{
		Summary:     "Stream document status",
		Description: "Server-sent events: 'status' carries a StatusSnapshot on every change; 'error' carries {error} before the stream closes",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Event stream",
				Content: map[string]*openapi.MediaType{
					"text/event-stream": {Schema: &openapi.Schema{Type: "string"}},
				},
			},
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"PageStatus": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                  {Type: "string", Format: "uuid"},
				"index":               {Type: "integer"},
				"status":              {Type: "string"},
				"review_complete":     {Type: "boolean"},
				"token_count":         {Type: "integer"},
				"forced_review_count": {Type: "integer"},
				"updated_at":          {Type: "string", Format: "date-time"},
				"version":             {Type: "integer"},
			},
		},
		"StatusSnapshot": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_id":     {Type: "string", Format: "uuid"},
				"status":          {Type: "string"},
				"review_complete": {Type: "boolean"},
				"pages":           {Type: "array", Items: openapi.SchemaRef("PageStatus")},
			},
		},
	}
}
