// Package ocr turns stored uploads into classified page tokens. A bounded
// queue feeds documents to a processor that rasterizes pages, runs the
// engine with a per-page timeout and records the outcome on each page.
package ocr

import (
	"context"
	"fmt"

	"github.com/JaimeStill/vera/internal/tokens"
	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes words in a page image.
type Engine interface {
	Recognize(ctx context.Context, img []byte) ([]tokens.Candidate, error)
}

// Tesseract is the gosseract-backed Engine.
type Tesseract struct {
	languages []string
	dpi       int
}

func NewTesseract(cfg *Config) *Tesseract {
	return &Tesseract{
		languages: cfg.Languages,
		dpi:       cfg.DPI,
	}
}

func (e *Tesseract) Recognize(ctx context.Context, img []byte) ([]tokens.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := gosseract.NewClient()
	defer c.Close()

	if err := c.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if e.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.dpi)); err != nil {
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize words: %w", err)
	}

	cands := make([]tokens.Candidate, 0, len(boxes))
	for _, b := range boxes {
		cands = append(cands, tokens.Candidate{
			Text:       b.Word,
			Confidence: b.Confidence / 100.0,
			BBox: tokens.BBox{
				X:      float64(b.Box.Min.X),
				Y:      float64(b.Box.Min.Y),
				Width:  float64(b.Box.Dx()),
				Height: float64(b.Box.Dy()),
			},
		})
	}
	return cands, nil
}
