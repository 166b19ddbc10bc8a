// Package migrations embeds the PostgreSQL schema applied at startup.
package migrations

import "embed"

//go:embed sql/*.sql
var FS embed.FS

// Dir is the directory within FS holding the migration files.
const Dir = "sql"
