package events

import (
	"fmt"
	"os"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Backend  string `toml:"backend"`
	RedisURL string `toml:"redis_url"`
	Channel  string `toml:"channel"`
	Source   string `toml:"source"`
}

type Env struct {
	Backend  string
	RedisURL string
	Channel  string
}

func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.RedisURL != "" {
		c.RedisURL = overlay.RedisURL
	}
	if overlay.Channel != "" {
		c.Channel = overlay.Channel
	}
	if overlay.Source != "" {
		c.Source = overlay.Source
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.RedisURL == "" {
		c.RedisURL = "redis://localhost:6379/0"
	}
	if c.Channel == "" {
		c.Channel = "vera:documents"
	}
	if c.Source == "" {
		c.Source = "/vera"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Backend != "" {
		if v := os.Getenv(env.Backend); v != "" {
			c.Backend = v
		}
	}
	if env.RedisURL != "" {
		if v := os.Getenv(env.RedisURL); v != "" {
			c.RedisURL = v
		}
	}
	if env.Channel != "" {
		if v := os.Getenv(env.Channel); v != "" {
			c.Channel = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("invalid events backend: %s (must be memory or redis)", c.Backend)
	}
	if c.Backend == BackendRedis && c.Channel == "" {
		return fmt.Errorf("channel required for redis backend")
	}
	return nil
}
