package main

import (
	"log"
	"os"

	"tradeledger/src/config"
	"tradeledger/src/database"
	"tradeledger/src/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	// Load the appropriate config based on the environment
	cfg, err := config.LoadConfig("./settings", os.Getenv("ENV"))
	if err != nil {
		log.Fatalf("Error loading config for environment: %v", err)
	}
	logger := utils.NewLogger(utils.ParseLogLevel(cfg.Logging.Level), false, "")

	secrets, err := database.SecretsFromConfig(cfg.Databases.SQL)
	if err != nil {
		logger.Fatalf("Failed to create secrets client: %v", err)
	}

	cfg.Databases.SQL.Migrate = true
	_, cleanup, err := database.SetupDB(cfg, secrets, logger)
	if err != nil {
		logger.Fatalf("Failed to apply migrations: %v", err)
	}
	defer cleanup()

	logger.Info("Database migration completed successfully")
}
