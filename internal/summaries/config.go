package summaries

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	StrategyDeterministic = "deterministic"
	StrategyAgent         = "agent"
)

// Config selects and tunes the summary strategy.
type Config struct {
	Strategy    string         `toml:"strategy"`
	AgentConfig string         `toml:"agent_config"`
	Options     map[string]any `toml:"options"`
	Timeout     string         `toml:"timeout"`
	Retries     int            `toml:"retries"`
}

type Env struct {
	Strategy    string
	AgentConfig string
	Timeout     string
	Retries     string
}

// TimeoutDuration parses and returns the per-attempt timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

func (c *Config) Merge(overlay *Config) {
	if overlay.Strategy != "" {
		c.Strategy = overlay.Strategy
	}
	if overlay.AgentConfig != "" {
		c.AgentConfig = overlay.AgentConfig
	}
	if overlay.Options != nil {
		c.Options = overlay.Options
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Retries != 0 {
		c.Retries = overlay.Retries
	}
}

// NewSummarizer builds the Summarizer selected by the configuration.
func NewSummarizer(cfg *Config, logger *slog.Logger) (Summarizer, error) {
	if cfg.Strategy != StrategyAgent {
		return Extractor{}, nil
	}

	gen, err := NewAgentGenerator(cfg.AgentConfig, cfg.Options)
	if err != nil {
		return nil, err
	}
	return NewPipeline(gen, cfg, logger), nil
}

func (c *Config) loadDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyDeterministic
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.Retries == 0 {
		c.Retries = 1
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Strategy != "" {
		if v := os.Getenv(env.Strategy); v != "" {
			c.Strategy = v
		}
	}
	if env.AgentConfig != "" {
		if v := os.Getenv(env.AgentConfig); v != "" {
			c.AgentConfig = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.Retries != "" {
		if v := os.Getenv(env.Retries); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Retries = n
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Strategy {
	case StrategyDeterministic:
	case StrategyAgent:
		if c.AgentConfig == "" {
			return fmt.Errorf("agent_config required for the agent strategy")
		}
	default:
		return fmt.Errorf("unsupported summary strategy: %s", c.Strategy)
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout: %s", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	return nil
}
