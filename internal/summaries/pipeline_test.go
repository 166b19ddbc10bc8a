package summaries_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/JaimeStill/vera/internal/documents"
	"github.com/JaimeStill/vera/internal/summaries"
)

type fakeGenerator struct {
	calls atomic.Int32
	fn    func(ctx context.Context, prompt string) (string, error)
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	return g.fn(ctx, prompt)
}

func newPipeline(t *testing.T, gen summaries.Generator, timeout string, retries int) *summaries.Pipeline {
	t.Helper()
	cfg := &summaries.Config{
		Strategy:    summaries.StrategyAgent,
		AgentConfig: "agent.json",
		Timeout:     timeout,
		Retries:     retries,
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	return summaries.NewPipeline(gen, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPipeline(t *testing.T) {
	extracted := "Vendor: Acme Supplies Ltd | Date: 2024-03-15 | Total: 25.00 | Items: Widget x 2 $12.50"

	tests := []struct {
		name      string
		fn        func(ctx context.Context, prompt string) (string, error)
		wantPts   string
		wantCalls int32
	}{
		{
			name: "agent points",
			fn: func(ctx context.Context, prompt string) (string, error) {
				return `["Invoice from Acme", "Total 25.00"]`, nil
			},
			wantPts:   "Invoice from Acme | Total 25.00",
			wantCalls: 1,
		},
		{
			name: "errors fall back after retries",
			fn: func(ctx context.Context, prompt string) (string, error) {
				return "", errors.New("connection refused")
			},
			wantPts:   extracted,
			wantCalls: 3,
		},
		{
			name: "timeouts fall back",
			fn: func(ctx context.Context, prompt string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			wantPts:   extracted,
			wantCalls: 3,
		},
		{
			name: "unusable response falls back",
			fn: func(ctx context.Context, prompt string) (string, error) {
				return `{"answer": "none"}`, nil
			},
			wantPts:   extracted,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{fn: tt.fn}
			p := newPipeline(t, gen, "20ms", 2)

			sum, err := p.Summarize(context.Background(), invoiceText)
			if err != nil {
				t.Fatalf("Summarize() error = %v", err)
			}
			if got := sum.StructuredFields[documents.FieldSummaryPoints]; got != tt.wantPts {
				t.Errorf("summary_points = %q, want %q", got, tt.wantPts)
			}
			if got := gen.calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
			if sum.StructuredFields[documents.FieldInvoiceNumbers] != "INV-1042" {
				t.Error("extracted fields must survive agent points")
			}
		})
	}
}

func TestPipeline_Canceled(t *testing.T) {
	gen := &fakeGenerator{fn: func(ctx context.Context, prompt string) (string, error) {
		return `["x"]`, nil
	}}
	p := newPipeline(t, gen, "1s", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Summarize(ctx, invoiceText); err == nil {
		t.Error("Summarize() on canceled context should fail")
	}
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     summaries.Config
		wantErr bool
	}{
		{"defaults", summaries.Config{}, false},
		{"agent without config", summaries.Config{Strategy: summaries.StrategyAgent}, true},
		{"unknown strategy", summaries.Config{Strategy: "magic"}, true},
		{"bad timeout", summaries.Config{Timeout: "soon"}, true},
		{"negative retries", summaries.Config{Retries: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("Finalize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_SUMMARY_RETRIES", "4")
		cfg := summaries.Config{}
		if err := cfg.Finalize(&summaries.Env{Retries: "TEST_SUMMARY_RETRIES"}); err != nil {
			t.Fatal(err)
		}
		if cfg.Retries != 4 || cfg.Strategy != summaries.StrategyDeterministic {
			t.Errorf("cfg = %+v", cfg)
		}
	})
}
