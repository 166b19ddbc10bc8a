package exports

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/JaimeStill/vera/internal/documents"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

//go:embed templates/document.html
var documentHTML string

var (
	documentTemplate = template.Must(template.New("document").Parse(documentHTML))
	markdown         = goldmark.New(goldmark.WithExtensions(extension.Table))
	unsafeFilename   = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// Renderer turns payloads into export artifacts.
type Renderer struct {
	pdf *Printer
}

func NewRenderer(pdf *Printer) *Renderer {
	return &Renderer{pdf: pdf}
}

func (r *Renderer) Render(ctx context.Context, f Format, p *Payload) (*Result, error) {
	var (
		data []byte
		mime string
		err  error
	)

	switch f {
	case FormatJSON:
		data, err = json.MarshalIndent(p, "", "  ")
		mime = "application/json"
	case FormatCSV:
		data, err = renderCSV(p)
		mime = "text/csv"
	case FormatYAML:
		data, err = yaml.Marshal(p)
		mime = "application/yaml"
	case FormatMarkdown:
		data = []byte(renderMarkdown(p))
		mime = "text/markdown; charset=utf-8"
	case FormatHTML:
		data, err = renderHTML(p)
		mime = "text/html; charset=utf-8"
	case FormatPDF:
		var html []byte
		if html, err = renderHTML(p); err == nil {
			data, err = r.pdf.Print(ctx, html)
		}
		mime = "application/pdf"
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", f, err)
	}

	return &Result{
		Data:     data,
		Filename: filename(p) + "." + fileExtension(f),
		MimeType: mime,
	}, nil
}

func renderCSV(p *Payload) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"key", "value"},
		{"document_id", p.DocumentID.String()},
	}
	if p.PageID != nil {
		rows = append(rows, []string{"page_id", p.PageID.String()})
	}
	rows = append(rows, []string{"validated_text", strings.ReplaceAll(p.ValidatedText, "\n", " ")})
	for _, k := range documents.FieldKeys {
		rows = append(rows, []string{k, p.StructuredFields[k]})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderMarkdown(p *Payload) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title(p))

	b.WriteString("## Summary\n\n")
	for _, bullet := range p.BulletSummary {
		fmt.Fprintf(&b, "- %s\n", bullet)
	}

	b.WriteString("\n## Structured fields\n\n| Field | Value |\n| --- | --- |\n")
	for _, k := range documents.FieldKeys {
		fmt.Fprintf(&b, "| %s | %s |\n", k, strings.ReplaceAll(p.StructuredFields[k], "|", `\|`))
	}

	b.WriteString("\n## Validated text\n\n~~~text\n")
	b.WriteString(p.ValidatedText)
	b.WriteString("\n~~~\n")

	return b.String()
}

func renderHTML(p *Payload) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(renderMarkdown(p)), &body); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	err := documentTemplate.Execute(&out, struct {
		Title   string
		Content template.HTML
	}{
		Title:   title(p),
		Content: template.HTML(body.String()),
	})
	return out.Bytes(), err
}

func title(p *Payload) string {
	name := p.Name
	if name == "" {
		name = p.DocumentID.String()
	}
	if p.PageID != nil {
		return name + " (page)"
	}
	return name
}

func filename(p *Payload) string {
	name := unsafeFilename.ReplaceAllString(p.Name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = p.DocumentID.String()
	}
	if p.PageID != nil {
		name += "-page-" + p.PageID.String()[:8]
	}
	return name
}

func fileExtension(f Format) string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}
