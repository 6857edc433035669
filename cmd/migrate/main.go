package main

import (
	"errors"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"party-trivia/internal/config"
)

func main() {
	dotenvErr := config.LoadDotEnv(".env")
	cfg := config.Load()
	log := cfg.NewLogger(os.Stderr)
	if dotenvErr != nil {
		log.Warn().Err(dotenvErr).Msg("failed to load .env")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://db/migrations", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("migration setup failed")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatal().Err(err).Msg("read migration version")
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("database migrations applied")
}
