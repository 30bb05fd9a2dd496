package database

import (
	"context"
	"fmt"
	"time"

	"tradeledger/src/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SecretGetter resolves a secret id to its value.
type SecretGetter interface {
	GetSecretValue(secretId string) (string, error)
}

// SetupDB opens the configured SQL database and applies migrations when
// cfg.Databases.SQL.Migrate is set. The returned cleanup closes the
// underlying connections.
func SetupDB(cfg *config.Config, secrets SecretGetter, logger *logrus.Logger) (*gorm.DB, func(), error) {
	sqlCfg := cfg.Databases.SQL

	var (
		db      *gorm.DB
		cleanup func()
		err     error
	)
	switch sqlCfg.Driver {
	case config.DriverPostgres:
		db, cleanup, err = openPostgres(sqlCfg, secrets)
	case config.DriverSQLite, "sqlite3":
		db, cleanup, err = openSQLite(sqlCfg)
	default:
		return nil, nil, fmt.Errorf("unsupported sql driver %q", sqlCfg.Driver)
	}
	if err != nil {
		return nil, nil, err
	}

	if sqlCfg.Migrate {
		sqlDB, err := db.DB()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if err := Migrate(context.Background(), sqlDB, sqlCfg.Driver, logger); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	if sqlCfg.Driver != config.DriverPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		// sqlite allows a single writer; one connection serializes access.
		sqlDB.SetMaxOpenConns(1)
	}
	return db, cleanup, nil
}

func postgresDSN(sqlCfg config.SQLConfig, secrets SecretGetter) (string, error) {
	if sqlCfg.ConnectionString != "" {
		return sqlCfg.ConnectionString, nil
	}
	password := sqlCfg.Password
	if sqlCfg.PasswordSecretID != "" {
		if secrets == nil {
			return "", fmt.Errorf("password secret %s configured without a secrets client", sqlCfg.PasswordSecretID)
		}
		secret, err := secrets.GetSecretValue(sqlCfg.PasswordSecretID)
		if err != nil {
			return "", fmt.Errorf("failed to read database password secret: %w", err)
		}
		password = secret
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		sqlCfg.Host,
		sqlCfg.Username,
		password,
		sqlCfg.Database,
		sqlCfg.Port), nil
}

func openPostgres(sqlCfg config.SQLConfig, secrets SecretGetter) (*gorm.DB, func(), error) {
	dsn, err := postgresDSN(sqlCfg, secrets)
	if err != nil {
		return nil, nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, err
	}
	if sqlCfg.MaxConns > 0 {
		poolCfg.MaxConns = sqlCfg.MaxConns
	}
	if sqlCfg.MinConns > 0 {
		poolCfg.MinConns = sqlCfg.MinConns
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, nil, err
	}
	return db, func() {
		_ = sqlDB.Close()
		pool.Close()
	}, nil
}

func openSQLite(sqlCfg config.SQLConfig) (*gorm.DB, func(), error) {
	path := sqlCfg.Path
	if path == "" {
		path = "tradeledger.db"
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = sqlDB.Close() }, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}
