package exports

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	ChromePath string `toml:"chrome_path"`
	PDFTimeout string `toml:"pdf_timeout"`
}

type Env struct {
	ChromePath string
	PDFTimeout string
}

// PDFTimeoutDuration parses and returns the PDF rendering timeout.
func (c *Config) PDFTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.PDFTimeout)
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
	if overlay.ChromePath != "" {
		c.ChromePath = overlay.ChromePath
	}
	if overlay.PDFTimeout != "" {
		c.PDFTimeout = overlay.PDFTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.PDFTimeout == "" {
		c.PDFTimeout = "30s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.ChromePath != "" {
		if v := os.Getenv(env.ChromePath); v != "" {
			c.ChromePath = v
		}
	}
	if env.PDFTimeout != "" {
		if v := os.Getenv(env.PDFTimeout); v != "" {
			c.PDFTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if d, err := time.ParseDuration(c.PDFTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid pdf_timeout: %s", c.PDFTimeout)
	}
	return nil
}
