package documents

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const ContentTypePDF = "application/pdf"

var imageTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
	"webp": "image/webp",
}

// Inspection is what an upload turned out to contain.
type Inspection struct {
	ContentType string
	PageCount   int
}

// Inspect identifies an upload from its bytes. PDFs report their page count;
// supported images are a single page.
func Inspect(data []byte) (Inspection, error) {
	if len(data) == 0 {
		return Inspection{}, fmt.Errorf("%w: empty file", ErrInvalidFile)
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		count, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
		if err != nil {
			return Inspection{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		if count < 1 {
			return Inspection{}, fmt.Errorf("%w: pdf has no pages", ErrInvalidFile)
		}
		return Inspection{ContentType: ContentTypePDF, PageCount: count}, nil
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Inspection{}, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}

	ct, ok := imageTypes[format]
	if !ok {
		return Inspection{}, fmt.Errorf("%w: %s", ErrUnsupportedType, format)
	}
	return Inspection{ContentType: ct, PageCount: 1}, nil
}
