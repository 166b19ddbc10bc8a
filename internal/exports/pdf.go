package exports

import (
	"context"
	"encoding/base64"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

var browsers = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

// Printer renders HTML to PDF with headless Chrome.
type Printer struct {
	chromePath string
	timeout    time.Duration
}

func NewPrinter(cfg *Config) *Printer {
	return &Printer{
		chromePath: cfg.ChromePath,
		timeout:    cfg.PDFTimeoutDuration(),
	}
}

// Available reports the browser executable, or ErrPDFUnavailable.
func (p *Printer) Available() (string, error) {
	if p.chromePath != "" {
		path, err := exec.LookPath(p.chromePath)
		if err != nil {
			return "", fmt.Errorf("%w: %s not found", ErrPDFUnavailable, p.chromePath)
		}
		return path, nil
	}
	for _, name := range browsers {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: chromium not installed", ErrPDFUnavailable)
}

func (p *Printer) Print(ctx context.Context, html []byte) ([]byte, error) {
	browser, err := p.Available()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browser),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	dataURL := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(html)

	var pdf []byte
	err = chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.5).
				WithPaperHeight(11.0).
				WithMarginTop(0.75).
				WithMarginBottom(0.75).
				WithMarginLeft(0.75).
				WithMarginRight(0.75).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome pdf generation failed: %w", err)
	}
	return pdf, nil
}
