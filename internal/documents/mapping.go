package documents

import (
	"encoding/json"
	"net/url"

	"github.com/JaimeStill/vera/pkg/query"
	"github.com/JaimeStill/vera/pkg/repository"
)

var projection = query.NewProjectionMap("public", "documents", "d").
	Project("id", "id").
	Project("name", "name").
	Project("filename", "filename").
	Project("content_type", "content_type").
	Project("size_bytes", "size_bytes").
	Project("page_count", "page_count").
	Project("storage_key", "storage_key").
	Project("structured_fields", "structured_fields").
	Project("summarized_at", "summarized_at").
	Project("exported_at", "exported_at").
	Project("created_at", "created_at").
	Project("updated_at", "updated_at")

var defaultSort = query.SortField{Field: "created_at", Descending: true}

const returning = `RETURNING id, name, filename, content_type, size_bytes, page_count, storage_key,
	structured_fields, summarized_at, exported_at, created_at, updated_at`

func scanDocument(s repository.Scanner) (Document, error) {
	var (
		d      Document
		fields []byte
	)
	err := s.Scan(
		&d.ID,
		&d.Name,
		&d.Filename,
		&d.ContentType,
		&d.SizeBytes,
		&d.PageCount,
		&d.StorageKey,
		&fields,
		&d.SummarizedAt,
		&d.ExportedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return d, err
	}

	d.StructuredFields = map[string]string{}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &d.StructuredFields); err != nil {
			return d, err
		}
	}
	return d, nil
}

// Filters contains optional criteria for filtering document queries.
type Filters struct {
	Name        *string
	ContentType *string
}

// FiltersFromQuery extracts document filters from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	if ct := values.Get("content_type"); ct != "" {
		f.ContentType = &ct
	}

	return f
}

// Apply adds filter conditions to the query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("name", f.Name).
		WhereContains("content_type", f.ContentType)
}
