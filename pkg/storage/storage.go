// Package storage provides blob storage for uploaded documents. A filesystem
// backend serves single-node deployments and a MinIO backend serves shared
// S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/vera/pkg/lifecycle"
)

// System defines blob storage operations.
type System interface {
	// Store saves data at key, overwriting existing contents.
	Store(ctx context.Context, key string, data []byte) error

	// Retrieve returns the data at key or ErrNotFound.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete removes the data at key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Validate reports whether key exists.
	Validate(ctx context.Context, key string) (bool, error)

	// Start registers lifecycle hooks with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}

// New creates the System selected by cfg.Backend.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Backend {
	case "", BackendFilesystem:
		return newFilesystem(cfg, logger)
	case BackendMinIO:
		return newMinIO(&cfg.MinIO, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

func validKey(key string) bool {
	return key != ""
}
