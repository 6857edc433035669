package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"party-trivia/internal/config"
)

// Open connects to Postgres using cfg.DatabaseURL and applies the pool
// settings.
func Open(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	conn, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second)
	return conn, nil
}

// Migrate runs GORM auto-migrations for the core tables and installs the
// games trigger that notifies notifyChannel on every revision change.
func Migrate(conn *gorm.DB, notifyChannel string, log zerolog.Logger) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	if err := conn.AutoMigrate(
		&Game{},
		&Player{},
		&Round{},
		&Answer{},
		&Event{},
		&Question{},
	); err != nil {
		return err
	}
	if notifyChannel == "" {
		notifyChannel = DefaultListenerConfig().NotifyChannel
	}
	for _, stmt := range schemaExtras(notifyChannel) {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply schema extras: %w", err)
		}
	}
	log.Info().Msg("database migration complete")
	return nil
}

// schemaExtras holds the pieces AutoMigrate cannot express. They mirror
// db/migrations and are safe to re-run.
func schemaExtras(notifyChannel string) []string {
	return []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_players_game_lower_name ON players (game_id, lower(name))`,
		`CREATE OR REPLACE FUNCTION notify_game_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify(` + pq.QuoteLiteral(notifyChannel) + `, NEW.id || ':' || NEW.revision);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS games_notify_change ON games`,
		`CREATE TRIGGER games_notify_change AFTER INSERT OR UPDATE OF revision ON games
	FOR EACH ROW EXECUTE FUNCTION notify_game_change()`,
	}
}
