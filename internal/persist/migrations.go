// Package persist serializes the review Store's graph and the content
// store's blobs to a single SQLite file, and reloads them on startup.
package persist

import (
	"embed"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SchemaVersion is the migration version this build expects.
// ApplyMigrations refuses a database stamped with a newer version than
// this, returning ErrSchemaTooNew.
const SchemaVersion = 1
