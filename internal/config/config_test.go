package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/vera/internal/config"
)

const baseConfig = `
[database]
name = "vera"
user = "vera"
`

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func loadFrom(t *testing.T, files map[string]string) (*config.Config, error) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		writeConfig(t, dir, name, body)
	}
	t.Chdir(dir)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Finalize()
}

func TestFinalize_Defaults(t *testing.T) {
	cfg, err := loadFrom(t, map[string]string{config.BaseConfigFile: baseConfig})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"addr", cfg.Server.Addr(), "0.0.0.0:8080"},
		{"shutdown timeout", cfg.ShutdownTimeoutDuration(), 30 * time.Second},
		{"base path", cfg.API.BasePath, "/api"},
		{"high threshold", cfg.Review.HighThreshold, 0.92},
		{"low threshold", cfg.Review.LowThreshold, 0.80},
		{"ocr dpi", cfg.OCR.DPI, 300},
		{"ocr workers", cfg.OCR.Workers, 2},
		{"summary strategy", cfg.Summary.Strategy, "deterministic"},
		{"summary timeout", cfg.Summary.TimeoutDuration(), 60 * time.Second},
		{"events backend", cfg.Events.Backend, "memory"},
		{"pdf timeout", cfg.Export.PDFTimeoutDuration(), 30 * time.Second},
		{"max upload", cfg.Storage.MaxUploadSizeBytes(), int64(100_000_000)},
		{"write timeout", cfg.Server.WriteTimeoutDuration(), time.Duration(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoad_Overlay(t *testing.T) {
	t.Setenv(config.EnvServiceEnv, "test")

	cfg, err := loadFrom(t, map[string]string{
		config.BaseConfigFile: baseConfig + `
[server]
port = 8080

[ocr]
workers = 3
`,
		"config.test.toml": `
[server]
port = 9090

[events]
backend = "redis"
`,
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.OCR.Workers != 3 {
		t.Errorf("workers = %d, want 3", cfg.OCR.Workers)
	}
	if cfg.Events.Backend != "redis" {
		t.Errorf("events backend = %s, want redis", cfg.Events.Backend)
	}
	if cfg.Env() != "test" {
		t.Errorf("Env() = %q, want test", cfg.Env())
	}
}

func TestFinalize_EnvOverrides(t *testing.T) {
	t.Setenv(config.EnvServerPort, "7070")
	t.Setenv("OCR_DPI", "150")
	t.Setenv("REVIEW_LOW_THRESHOLD", "0.7")
	t.Setenv("SUMMARY_RETRIES", "3")
	t.Setenv("EVENTS_CHANNEL", "review")

	cfg, err := loadFrom(t, map[string]string{config.BaseConfigFile: baseConfig})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.OCR.DPI != 150 {
		t.Errorf("dpi = %d", cfg.OCR.DPI)
	}
	if cfg.Review.LowThreshold != 0.7 {
		t.Errorf("low threshold = %v", cfg.Review.LowThreshold)
	}
	if cfg.Summary.Retries != 3 {
		t.Errorf("retries = %d", cfg.Summary.Retries)
	}
	if cfg.Events.Channel != "review" {
		t.Errorf("channel = %s", cfg.Events.Channel)
	}
}

func TestFinalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing database name", "[database]\nuser = \"vera\"\n"},
		{"bad shutdown timeout", "shutdown_timeout = \"soon\"\n" + baseConfig},
		{"thresholds inverted", baseConfig + "[review]\nhigh_threshold = 0.5\nlow_threshold = 0.9\n"},
		{"agent strategy without config", baseConfig + "[summary]\nstrategy = \"agent\"\n"},
		{"unknown events backend", baseConfig + "[events]\nbackend = \"kafka\"\n"},
		{"bad upload size", baseConfig + "[storage]\nmax_upload_size = \"lots\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadFrom(t, map[string]string{config.BaseConfigFile: tt.body}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := config.Load(); err == nil {
		t.Error("expected error for missing config.toml")
	}
}
