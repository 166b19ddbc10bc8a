package summaries

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/JaimeStill/go-agents/pkg/agent"
	agtconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AgentGenerator adapts a go-agents agent to Generator.
type AgentGenerator struct {
	agent   agent.Agent
	options map[string]any
}

// NewAgentGenerator builds an agent from a JSON agent configuration file
// merged over the library defaults.
func NewAgentGenerator(path string, options map[string]any) (*AgentGenerator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent config: %w", err)
	}

	var user agtconfig.AgentConfig
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("parse agent config: %w", err)
	}

	cfg := agtconfig.DefaultAgentConfig()
	cfg.Merge(&user)

	a, err := agent.New(&cfg)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	return &AgentGenerator{agent: a, options: options}, nil
}

func (g *AgentGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.agent.Chat(ctx, prompt, g.options)
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}
