package exports_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/internal/exports"
	"github.com/JaimeStill/vera/internal/summaries"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    exports.Format
		wantErr bool
	}{
		{"", exports.FormatJSON, false},
		{"json", exports.FormatJSON, false},
		{"CSV", exports.FormatCSV, false},
		{"yaml", exports.FormatYAML, false},
		{"markdown", exports.FormatMarkdown, false},
		{"html", exports.FormatHTML, false},
		{"pdf", exports.FormatPDF, false},
		{"docx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := exports.ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
			}
			if tt.wantErr {
				if !errors.Is(err, exports.ErrInvalidFormat) || exports.MapHTTPStatus(err) != http.StatusBadRequest {
					t.Errorf("error = %v, want ErrInvalidFormat mapped to 400", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func payload() *exports.Payload {
	text := "Total $12.50\nthanks"
	sum := summaries.Analyze(text).Summary(nil)
	return &exports.Payload{
		DocumentID:       uuid.MustParse("7d3c7a1e-3f4b-4a5e-9c1d-2b8e6f0a1c2d"),
		Name:             "Acme Invoice",
		ValidatedText:    text,
		BulletSummary:    sum.BulletSummary,
		StructuredFields: sum.StructuredFields,
	}
}

func newRenderer(chrome string) *exports.Renderer {
	cfg := &exports.Config{ChromePath: chrome}
	cfg.Finalize(nil)
	return exports.NewRenderer(exports.NewPrinter(cfg))
}

func TestRenderer(t *testing.T) {
	r := newRenderer("")
	p := payload()

	tests := []struct {
		format   exports.Format
		mime     string
		filename string
		check    func(t *testing.T, data []byte)
	}{
		{
			format:   exports.FormatJSON,
			mime:     "application/json",
			filename: "Acme-Invoice.json",
			check: func(t *testing.T, data []byte) {
				var got exports.Payload
				if err := json.Unmarshal(data, &got); err != nil {
					t.Fatal(err)
				}
				if got.DocumentID != p.DocumentID || len(got.StructuredFields) != len(documents.FieldKeys) {
					t.Errorf("payload = %+v", got)
				}
			},
		},
		{
			format:   exports.FormatCSV,
			mime:     "text/csv",
			filename: "Acme-Invoice.csv",
			check: func(t *testing.T, data []byte) {
				rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
				if err != nil {
					t.Fatal(err)
				}
				if len(rows) != 3+len(documents.FieldKeys) {
					t.Fatalf("rows = %d", len(rows))
				}
				if rows[0][0] != "key" || rows[0][1] != "value" {
					t.Errorf("header = %v", rows[0])
				}
				if rows[2][0] != "validated_text" || rows[2][1] != "Total $12.50 thanks" {
					t.Errorf("validated_text row = %v", rows[2])
				}
			},
		},
		{
			format:   exports.FormatYAML,
			mime:     "application/yaml",
			filename: "Acme-Invoice.yaml",
			check: func(t *testing.T, data []byte) {
				var got map[string]any
				if err := yaml.Unmarshal(data, &got); err != nil {
					t.Fatal(err)
				}
				if got["name"] != "Acme Invoice" || got["validated_text"] != "Total $12.50\nthanks" {
					t.Errorf("yaml = %v", got)
				}
				if _, ok := got["page_id"]; ok {
					t.Error("document export must omit page_id")
				}
			},
		},
		{
			format:   exports.FormatMarkdown,
			mime:     "text/markdown; charset=utf-8",
			filename: "Acme-Invoice.md",
			check: func(t *testing.T, data []byte) {
				md := string(data)
				for _, want := range []string{
					"# Acme Invoice\n",
					"| document_type | Invoice/Receipt |",
					"~~~text\nTotal $12.50\nthanks\n~~~",
				} {
					if !strings.Contains(md, want) {
						t.Errorf("markdown missing %q", want)
					}
				}
			},
		},
		{
			format:   exports.FormatHTML,
			mime:     "text/html; charset=utf-8",
			filename: "Acme-Invoice.html",
			check: func(t *testing.T, data []byte) {
				html := string(data)
				for _, want := range []string{"<title>Acme Invoice</title>", "<h1>Acme Invoice</h1>", "<table>", "<td>document_type</td>"} {
					if !strings.Contains(html, want) {
						t.Errorf("html missing %q", want)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			res, err := r.Render(context.Background(), tt.format, p)
			if err != nil {
				t.Fatal(err)
			}
			if res.MimeType != tt.mime || res.Filename != tt.filename {
				t.Errorf("result = %s %s, want %s %s", res.MimeType, res.Filename, tt.mime, tt.filename)
			}
			tt.check(t, res.Data)
		})
	}
}

func TestRenderer_PageFilename(t *testing.T) {
	p := payload()
	id := uuid.MustParse("0a1b2c3d-0000-4000-8000-000000000000")
	p.PageID = &id

	res, err := newRenderer("").Render(context.Background(), exports.FormatCSV, p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Filename != "Acme-Invoice-page-0a1b2c3d.csv" {
		t.Errorf("filename = %s", res.Filename)
	}
	if !strings.Contains(string(res.Data), "page_id,"+id.String()) {
		t.Error("page export must include page_id")
	}
}

func TestRenderer_PDFUnavailable(t *testing.T) {
	r := newRenderer("/nonexistent/chromium")

	_, err := r.Render(context.Background(), exports.FormatPDF, payload())
	if !errors.Is(err, exports.ErrPDFUnavailable) {
		t.Fatalf("err = %v, want ErrPDFUnavailable", err)
	}
	if exports.MapHTTPStatus(err) != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", exports.MapHTTPStatus(err))
	}
}
