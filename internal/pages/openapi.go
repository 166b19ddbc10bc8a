package pages

import "github.com/JaimeStill/vera/pkg/openapi"

type spec struct {
	Find     *openapi.Operation
	Validate *openapi.Operation
}

var Spec = spec{
	Find: &openapi.Operation{
		Summary:     "Find page",
		Description: "Page projection with tokens in reading order, or by review severity with order=severity",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
			openapi.PathParam("page_id", "Page ID"),
			openapi.QueryParam("order", "string", "Token order: reading (default) or severity", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page", "Page"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Validate: &openapi.Operation{
		Summary:     "Validate page",
		Description: "Apply corrections and reviewed tokens; with review_complete=true every required token must be reviewed",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
			openapi.PathParam("page_id", "Page ID"),
		},
		RequestBody: openapi.RequestBodyJSON("ValidateCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated page", "Page"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Token": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":               {Type: "string"},
				"line_index":       {Type: "integer"},
				"token_index":      {Type: "integer"},
				"original_text":    {Type: "string"},
				"text":             {Type: "string", Description: "Current text after corrections"},
				"confidence":       {Type: "number"},
				"confidence_label": {Type: "string", Enum: []string{"trusted", "medium", "low"}},
				"forced_review":    {Type: "boolean"},
				"flags":            {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"bbox":             {Type: "object"},
				"reviewed":         {Type: "boolean"},
			},
		},
		"Page": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"document_id":     {Type: "string", Format: "uuid"},
				"index":           {Type: "integer"},
				"status":          {Type: "string", Enum: statusEnum()},
				"review_complete": {Type: "boolean"},
				"version":         {Type: "integer"},
				"failure_reason":  {Type: "string", Nullable: true},
				"width":           {Type: "integer"},
				"height":          {Type: "integer"},
				"tokens":          {Type: "array", Items: openapi.SchemaRef("Token")},
				"created_at":      {Type: "string", Format: "date-time"},
				"updated_at":      {Type: "string", Format: "date-time"},
			},
		},
		"Correction": {
			Type:     "object",
			Required: []string{"token_id", "corrected_text"},
			Properties: map[string]*openapi.Schema{
				"token_id":       {Type: "string"},
				"corrected_text": {Type: "string"},
			},
		},
		"ValidateCommand": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"corrections":        {Type: "array", Items: openapi.SchemaRef("Correction")},
				"reviewed_token_ids": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"review_complete":    {Type: "boolean"},
				"page_version":       {Type: "integer", Nullable: true},
			},
		},
	}
}

func statusEnum() []string {
	return []string{
		string(StatusUploaded), string(StatusProcessing), string(StatusOCRDone),
		string(StatusReviewInProgress), string(StatusValidated), string(StatusSummarized),
		string(StatusExported), string(StatusCanceled), string(StatusFailed),
	}
}
