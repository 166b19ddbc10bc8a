package documents

import "github.com/JaimeStill/vera/pkg/openapi"

type spec struct {
	List         *openapi.Operation
	Find         *openapi.Operation
	Search       *openapi.Operation
	Upload       *openapi.Operation
	UpdateFields *openapi.Operation
	Cancel       *openapi.Operation
}

var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List documents",
		Description: "List documents with pagination and optional filters",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Items per page", false),
			openapi.QueryParam("search", "string", "Search in name and filename", false),
			openapi.QueryParam("sort", "string", "Comma-separated fields, '-' prefix for descending", false),
			openapi.QueryParam("name", "string", "Filter by name (contains)", false),
			openapi.QueryParam("content_type", "string", "Filter by content type (contains)", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Documents list", "DocumentPageResult"),
		},
	},
	Find: &openapi.Operation{
		Summary:     "Find document",
		Description: "Document with derived status and ordered page references",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document view", "DocumentView"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Search: &openapi.Operation{
		Summary:     "Search documents",
		Description: "Search documents with pagination in request body",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("name", "string", "Filter by name (contains)", false),
			openapi.QueryParam("content_type", "string", "Filter by content type (contains)", false),
		},
		RequestBody: openapi.RequestBodyJSON("PageRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Search results", "DocumentPageResult"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Upload: &openapi.Operation{
		Summary:     "Upload document",
		Description: "Upload a PDF or image. One page is created per PDF page and OCR is queued.",
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content: map[string]*openapi.MediaType{
				"multipart/form-data": {
					Schema: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"file": {Type: "string", Format: "binary", Description: "PDF, PNG, JPEG, TIFF, BMP or WebP"},
							"name": {Type: "string", Description: "Optional display name (defaults to filename)"},
						},
						Required: []string{"file"},
					},
				},
			},
		},
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Document uploaded", "DocumentView"),
			400: openapi.ResponseRef("BadRequest"),
			413: {Description: "File too large"},
			415: {Description: "Unsupported content type"},
		},
	},
	UpdateFields: &openapi.Operation{
		Summary:     "Update structured fields",
		Description: "Replace user-edited structured fields. Unknown keys are rejected.",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		RequestBody: openapi.RequestBodyJSON("UpdateFieldsCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document updated", "DocumentView"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Cancel: &openapi.Operation{
		Summary:     "Cancel document",
		Description: "Cancel every page not yet validated. Repeating the call changes nothing.",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Resulting status", "CancelResult"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	fields := make(map[string]*openapi.Schema, len(FieldKeys))
	for _, k := range FieldKeys {
		fields[k] = &openapi.Schema{Type: "string"}
	}

	return map[string]*openapi.Schema{
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                {Type: "string", Format: "uuid"},
				"name":              {Type: "string", Description: "Display name"},
				"filename":          {Type: "string", Description: "Original filename"},
				"content_type":      {Type: "string", Description: "MIME type"},
				"size_bytes":        {Type: "integer", Format: "int64", Description: "File size in bytes"},
				"page_count":        {Type: "integer"},
				"storage_key":       {Type: "string", Description: "Storage location key"},
				"structured_fields": {Type: "object", Properties: fields},
				"summarized_at":     {Type: "string", Format: "date-time", Nullable: true},
				"exported_at":       {Type: "string", Format: "date-time", Nullable: true},
				"created_at":        {Type: "string", Format: "date-time"},
				"updated_at":        {Type: "string", Format: "date-time"},
			},
		},
		"PageRef": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"index":           {Type: "integer"},
				"status":          {Type: "string"},
				"review_complete": {Type: "boolean"},
				"version":         {Type: "integer"},
			},
		},
		"DocumentView": {
			Type:        "object",
			Description: "Document fields plus derived status",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"name":            {Type: "string"},
				"status":          {Type: "string"},
				"review_complete": {Type: "boolean"},
				"pages":           {Type: "array", Items: openapi.SchemaRef("PageRef")},
			},
		},
		"UpdateFieldsCommand": {
			Type:     "object",
			Required: []string{"structured_fields"},
			Properties: map[string]*openapi.Schema{
				"structured_fields": {Type: "object", Properties: fields},
			},
		},
		"CancelResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"status":          {Type: "string"},
				"review_complete": {Type: "boolean"},
			},
		},
		"DocumentPageResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Document")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
	}
}
