// Package testutil builds throwaway databases and configuration for tests.
package testutil

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"tradeledger/src/config"
	"tradeledger/src/database"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Logger discards its output.
func Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Config returns a configuration backed by a migrated SQLite file inside
// t.TempDir().
func Config(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Service: config.ServiceConfig{
			Type:           config.API,
			Port:           "0",
			RequestTimeout: 5 * time.Second,
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   5 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Logging: config.LoggingConfig{Level: "error"},
		Databases: config.DatabasesConfig{
			SQL: config.SQLConfig{
				Driver:  config.DriverSQLite,
				Path:    filepath.Join(t.TempDir(), "ledger.db"),
				Migrate: true,
			},
		},
		Pricing: config.PricingConfig{CacheTTL: time.Minute},
		Events:  config.EventsConfig{Kafka: config.KafkaConfig{Topic: "ledger.transactions"}},
		Auth:    config.AuthConfig{TokenTTL: time.Hour},
		Worker:  config.WorkerConfig{Concurrency: 2},
	}
}

// SetupTestDB opens a fresh migrated SQLite database closed at test end.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, cleanup, err := database.SetupDB(Config(t), nil, Logger())
	if err != nil {
		t.Fatalf("Failed to set up test database: %v", err)
	}
	t.Cleanup(cleanup)
	return db
}
