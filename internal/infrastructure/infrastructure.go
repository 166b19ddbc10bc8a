// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, change
// notifications) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/vera/internal/config"
	"github.com/JaimeStill/vera/internal/events"
	"github.com/JaimeStill/vera/internal/migrations"
	"github.com/JaimeStill/vera/pkg/database"
	"github.com/JaimeStill/vera/pkg/lifecycle"
	"github.com/JaimeStill/vera/pkg/logging"
	"github.com/JaimeStill/vera/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Events    events.Notifier

	dbConfig *database.Config
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.New(&cfg.Logging, os.Stdout, "vera")

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	notifier, err := events.New(&cfg.Events, logger)
	if err != nil {
		return nil, fmt.Errorf("events init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Events:    notifier,
		dbConfig:  &cfg.Database,
	}, nil
}

// Start initializes all infrastructure systems and registers them with the
// lifecycle coordinator. Migrations run once the database answers.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.dbConfig.Migrates() {
		if err := database.Migrate(i.dbConfig, migrations.FS, migrations.Dir, i.Logger); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Events.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("events start failed: %w", err)
	}
	return nil
}
