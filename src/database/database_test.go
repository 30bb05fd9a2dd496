package database_test

import (
	"errors"
	"os"
	"testing"

	"tradeledger/src/config"
	"tradeledger/src/database"
	"tradeledger/src/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	value string
	err   error
}

func (f fakeSecrets) GetSecretValue(string) (string, error) {
	return f.value, f.err
}

func TestSetupSQLite(t *testing.T) {
	cfg := testutil.Config(t)
	db, cleanup, err := database.SetupDB(cfg, nil, testutil.Logger())
	require.NoError(t, err)
	defer cleanup()

	for _, table := range []string{"accounts", "holdings", "transactions", "prices", "snapshots"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	t.Run("should skip applied migrations", func(t *testing.T) {
		cleanup()
		again, closeAgain, err := database.SetupDB(cfg, nil, testutil.Logger())
		require.NoError(t, err)
		defer closeAgain()
		assert.True(t, again.Migrator().HasTable("accounts"))
	})
}

func TestSetupDBErrors(t *testing.T) {
	t.Run("should reject unknown drivers", func(t *testing.T) {
		cfg := testutil.Config(t)
		cfg.Databases.SQL.Driver = "oracle"
		_, _, err := database.SetupDB(cfg, nil, testutil.Logger())
		assert.Error(t, err)
	})

	t.Run("should require a secrets client for secret passwords", func(t *testing.T) {
		cfg := testutil.Config(t)
		cfg.Databases.SQL = config.SQLConfig{Driver: config.DriverPostgres, PasswordSecretID: "ledger/db"}
		_, _, err := database.SetupDB(cfg, nil, testutil.Logger())
		assert.ErrorContains(t, err, "without a secrets client")
	})

	t.Run("should surface secret lookup failures", func(t *testing.T) {
		cfg := testutil.Config(t)
		cfg.Databases.SQL = config.SQLConfig{Driver: config.DriverPostgres, PasswordSecretID: "ledger/db"}
		boom := errors.New("access denied")
		_, _, err := database.SetupDB(cfg, fakeSecrets{err: boom}, testutil.Logger())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("should skip secrets without a secret id", func(t *testing.T) {
		secrets, err := database.SecretsFromConfig(config.SQLConfig{})
		require.NoError(t, err)
		assert.Nil(t, secrets)
	})
}

func TestSetupPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testutil.Config(t)
	cfg.Databases.SQL = config.SQLConfig{Driver: config.DriverPostgres, ConnectionString: url, Migrate: true}
	db, cleanup, err := database.SetupDB(cfg, nil, testutil.Logger())
	require.NoError(t, err)
	defer cleanup()
	assert.True(t, db.Migrator().HasTable("transactions"))
}
