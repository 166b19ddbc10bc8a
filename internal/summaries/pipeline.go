package summaries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

const (
	keyText     = "text"
	keyAnalysis = "analysis"
	keyPoints   = "points"
	keySummary  = "summary"
)

// Pipeline is the agent-backed Summarizer. It runs extract, generate and
// compose as a graph; generate retries with a per-attempt timeout and leaves
// the extracted points in place when every attempt fails.
type Pipeline struct {
	gen         Generator
	timeout     time.Duration
	retries     int
	checkpoints *MemoryCheckpointStore
	logger      *slog.Logger
}

func NewPipeline(gen Generator, cfg *Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		gen:         gen,
		timeout:     cfg.TimeoutDuration(),
		retries:     cfg.Retries,
		checkpoints: NewMemoryCheckpointStore(),
		logger:      logger.With("system", "summary-pipeline"),
	}
}

func (p *Pipeline) Summarize(ctx context.Context, text string) (*Summary, error) {
	graph, err := p.graph()
	if err != nil {
		return nil, err
	}

	final, err := graph.Execute(ctx, state.New(nil).Set(keyText, text))
	if err != nil {
		return nil, fmt.Errorf("summary pipeline: %w", err)
	}

	v, ok := final.Get(keySummary)
	if !ok {
		return nil, fmt.Errorf("summary pipeline: no summary produced")
	}
	return v.(*Summary), nil
}

func (p *Pipeline) graph() (state.StateGraph, error) {
	cfg := config.DefaultGraphConfig("summarize")

	graph, err := state.NewGraphWithDeps(cfg, newLogObserver(p.logger), p.checkpoints)
	if err != nil {
		return nil, fmt.Errorf("create graph: %w", err)
	}

	nodes := []struct {
		name string
		fn   func(context.Context, state.State) (state.State, error)
	}{
		{"extract", p.extract},
		{"generate", p.generate},
		{"compose", p.compose},
	}
	for _, n := range nodes {
		if err := graph.AddNode(n.name, state.NewFunctionNode(n.fn)); err != nil {
			return nil, fmt.Errorf("add %s node: %w", n.name, err)
		}
	}

	if err := graph.AddEdge("extract", "generate", nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("generate", "compose", nil); err != nil {
		return nil, err
	}
	if err := graph.SetEntryPoint("extract"); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint("compose"); err != nil {
		return nil, err
	}
	return graph, nil
}

func (p *Pipeline) extract(ctx context.Context, s state.State) (state.State, error) {
	text, _ := s.Get(keyText)
	str, _ := text.(string)
	return s.Set(keyAnalysis, Analyze(str)), nil
}

func (p *Pipeline) generate(ctx context.Context, s state.State) (state.State, error) {
	text, _ := s.Get(keyText)
	str, _ := text.(string)

	points, err := p.attempt(ctx, Prompt(str))
	if err != nil {
		if ctx.Err() != nil {
			return s, ctx.Err()
		}
		p.logger.Warn("falling back to extracted summary points", "error", err)
		return s, nil
	}
	return s.Set(keyPoints, points), nil
}

func (p *Pipeline) attempt(ctx context.Context, prompt string) ([]string, error) {
	var last error
	for i := range p.retries + 1 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		points, err := p.once(ctx, prompt)
		if err == nil {
			return points, nil
		}
		last = err
		p.logger.Debug("summary attempt failed", "attempt", i+1, "error", err)
	}
	return nil, fmt.Errorf("%w: %v", ErrSummaryUnavailable, last)
}

func (p *Pipeline) once(ctx context.Context, prompt string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	content, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	points := ParsePoints(content)
	if len(points) == 0 {
		return nil, fmt.Errorf("no summary points in response")
	}
	return points, nil
}

func (p *Pipeline) compose(ctx context.Context, s state.State) (state.State, error) {
	v, _ := s.Get(keyAnalysis)
	analysis, ok := v.(*Analysis)
	if !ok {
		return s, fmt.Errorf("missing analysis")
	}

	var points []string
	if v, ok := s.Get(keyPoints); ok {
		points, _ = v.([]string)
	}
	return s.Set(keySummary, analysis.Summary(points)), nil
}
