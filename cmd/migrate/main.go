package main

import (
	"os"

	"github.com/Rrens/ollama-chat/internal/config"
	"github.com/Rrens/ollama-chat/internal/logger"
	"github.com/Rrens/ollama-chat/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const migrationsSource = "file://migrations"

// Applies the postgres session schema. Pass "down" to revert the last migration.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := logger.Setup(cfg.Logging); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Msg("Connecting to database")

	if len(os.Args) > 1 && os.Args[1] == "down" {
		if err := postgres.RollbackMigrations(cfg.Database.DSN(), migrationsSource); err != nil {
			log.Fatal().Err(err).Msg("Migration rollback failed")
		}
		return
	}

	if err := postgres.RunMigrations(cfg.Database.DSN(), migrationsSource); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
