package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"tradeledger/src/config"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration for the given driver.
func Migrate(ctx context.Context, db *sql.DB, driver string, logger *logrus.Logger) error {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch driver {
	case config.DriverPostgres:
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	case config.DriverSQLite, "sqlite3":
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return fmt.Errorf("no migrations for driver %q", driver)
	}

	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	if logger != nil {
		for _, r := range results {
			logger.WithFields(logrus.Fields{
				"version":  r.Source.Version,
				"duration": r.Duration.String(),
			}).Info("Applied migration")
		}
	}
	return nil
}
