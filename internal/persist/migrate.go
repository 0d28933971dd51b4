package persist

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
)

// ErrSchemaTooNew is returned when the database was stamped by a newer
// build than this one knows how to read.
var ErrSchemaTooNew = errors.New("database schema is newer than this build supports")

// migrationLogger adapts slog.Logger to migrate.Logger.
type migrationLogger struct{ log *slog.Logger }

func (m *migrationLogger) Printf(format string, v ...any) {
	m.log.Info(strings.TrimRight(fmt.Sprintf(format, v...), "\n"))
}

func (m *migrationLogger) Verbose() bool { return true }

// ApplyMigrations brings db up to SchemaVersion, embedded under
// migrations/. Refuses to proceed if the database is already stamped
// with a newer version, per the "load is all-or-nothing" save policy.
func ApplyMigrations(db *sql.DB, log *slog.Logger) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite3 migration driver: %w", err)
	}

	src, err := httpfs.New(http.FS(migrationFiles), "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("migrations", src, "preflight", driver)
	if err != nil {
		return fmt.Errorf("create migration runner: %w", err)
	}
	m.Log = &migrationLogger{log}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is dirty at version %d, manual intervention required", version)
	}
	if version > SchemaVersion {
		return fmt.Errorf("%w: db_version=%d, supported_version=%d",
			ErrSchemaTooNew, version, SchemaVersion)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
