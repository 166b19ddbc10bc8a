package tokens

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the confidence thresholds used to label tokens.
type Config struct {
	HighThreshold float64 `toml:"high_threshold"`
	LowThreshold  float64 `toml:"low_threshold"`
}

type Env struct {
	HighThreshold string
	LowThreshold  string
}

func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

func (c *Config) Merge(overlay *Config) {
	if overlay.HighThreshold != 0 {
		c.HighThreshold = overlay.HighThreshold
	}
	if overlay.LowThreshold != 0 {
		c.LowThreshold = overlay.LowThreshold
	}
}

func (c *Config) loadDefaults() {
	if c.HighThreshold == 0 {
		c.HighThreshold = 0.92
	}
	if c.LowThreshold == 0 {
		c.LowThreshold = 0.80
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.HighThreshold != "" {
		if v := os.Getenv(env.HighThreshold); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.HighThreshold = f
			}
		}
	}
	if env.LowThreshold != "" {
		if v := os.Getenv(env.LowThreshold); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.LowThreshold = f
			}
		}
	}
}

func (c *Config) validate() error {
	if c.LowThreshold <= 0 || c.HighThreshold > 1 {
		return fmt.Errorf("thresholds must be within (0, 1]")
	}
	if c.LowThreshold > c.HighThreshold {
		return fmt.Errorf("low_threshold (%v) must not exceed high_threshold (%v)", c.LowThreshold, c.HighThreshold)
	}
	return nil
}
