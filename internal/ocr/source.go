package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	dcconfig "github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	dcimage "github.com/JaimeStill/document-context/pkg/image"
	"github.com/JaimeStill/vera/internal/documents"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// PageSource yields page images of one upload by zero-based index.
type PageSource interface {
	Page(ctx context.Context, index int) ([]byte, error)
	Close() error
}

// Rasterizer opens uploads as page sources. PDFs are rendered page by page;
// images are a single page used as is.
type Rasterizer struct {
	dpi     int
	tempDir string
}

func NewRasterizer(cfg *Config) *Rasterizer {
	return &Rasterizer{dpi: cfg.DPI, tempDir: cfg.TempDir}
}

func (r *Rasterizer) Open(data []byte, contentType string) (PageSource, error) {
	if contentType != documents.ContentTypePDF {
		return imageSource(data), nil
	}

	f, err := os.CreateTemp(r.tempDir, "vera-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp pdf: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	f.Close()

	doc, err := document.Open(path, contentType)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	renderer, err := dcimage.NewImageMagickRenderer(dcconfig.ImageConfig{
		Format:  "png",
		DPI:     r.dpi,
		Options: map[string]any{},
	})
	if err != nil {
		doc.Close()
		os.Remove(path)
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	return &pdfSource{doc: doc, renderer: renderer, path: path}, nil
}

type imageSource []byte

func (s imageSource) Page(ctx context.Context, index int) ([]byte, error) {
	if index != 0 {
		return nil, fmt.Errorf("image has a single page, requested %d", index)
	}
	return s, nil
}

func (imageSource) Close() error { return nil }

// pdfSource renders one page at a time.
type pdfSource struct {
	mu       sync.Mutex
	doc      document.Document
	renderer dcimage.Renderer
	path     string
}

func (s *pdfSource) Page(ctx context.Context, index int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.doc.ExtractPage(index + 1)
	if err != nil {
		return nil, fmt.Errorf("extract page %d: %w", index+1, err)
	}
	data, err := page.ToImage(s.renderer, nil)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", index+1, err)
	}
	return data, nil
}

func (s *pdfSource) Close() error {
	err := s.doc.Close()
	os.Remove(s.path)
	return err
}

// dimensions reports the pixel size of an encoded page image.
func dimensions(img []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return 0, 0, fmt.Errorf("decode page image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
