package ocr

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Languages   []string `toml:"languages"`
	DPI         int      `toml:"dpi"`
	Workers     int      `toml:"workers"`
	PageWorkers int      `toml:"page_workers"`
	QueueSize   int      `toml:"queue_size"`
	PageTimeout string   `toml:"page_timeout"`
	TempDir     string   `toml:"temp_dir"`
}

type Env struct {
	Languages   string
	DPI         string
	Workers     string
	PageWorkers string
	PageTimeout string
}

// PageTimeoutDuration parses and returns the per-page OCR timeout.
func (c *Config) PageTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.PageTimeout)
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
	if len(overlay.Languages) > 0 {
		c.Languages = overlay.Languages
	}
	if overlay.DPI != 0 {
		c.DPI = overlay.DPI
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.PageWorkers != 0 {
		c.PageWorkers = overlay.PageWorkers
	}
	if overlay.QueueSize != 0 {
		c.QueueSize = overlay.QueueSize
	}
	if overlay.PageTimeout != "" {
		c.PageTimeout = overlay.PageTimeout
	}
	if overlay.TempDir != "" {
		c.TempDir = overlay.TempDir
	}
}

func (c *Config) loadDefaults() {
	if len(c.Languages) == 0 {
		c.Languages = []string{"eng"}
	}
	if c.DPI == 0 {
		c.DPI = 300
	}
	if c.Workers == 0 {
		c.Workers = 2
	}
	if c.PageWorkers == 0 {
		c.PageWorkers = 4
	}
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
	if c.PageTimeout == "" {
		c.PageTimeout = "2m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Languages != "" {
		if v := os.Getenv(env.Languages); v != "" {
			c.Languages = strings.Split(v, ",")
		}
	}
	if env.DPI != "" {
		if v := os.Getenv(env.DPI); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.DPI = n
			}
		}
	}
	if env.Workers != "" {
		if v := os.Getenv(env.Workers); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Workers = n
			}
		}
	}
	if env.PageWorkers != "" {
		if v := os.Getenv(env.PageWorkers); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.PageWorkers = n
			}
		}
	}
	if env.PageTimeout != "" {
		if v := os.Getenv(env.PageTimeout); v != "" {
			c.PageTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.DPI < 72 {
		return fmt.Errorf("dpi must be at least 72, got %d", c.DPI)
	}
	if c.Workers < 1 || c.PageWorkers < 1 || c.QueueSize < 1 {
		return fmt.Errorf("workers, page_workers and queue_size must be positive")
	}
	if d, err := time.ParseDuration(c.PageTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid page_timeout: %s", c.PageTimeout)
	}
	return nil
}
