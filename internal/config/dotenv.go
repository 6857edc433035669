package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                     string
	DatabaseURL              string
	NATSURL                  string
	NATSSubjectPrefix        string
	NotifyChannel            string
	QuestionBankPath         string
	DefaultRounds            int
	RoundOptions             []int
	PollSeconds              int
	StoreRetries             int
	StoreRetryMillis         int
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	AllowedOrigins           []string
	LogLevel                 string
	LogFormat                string
}

func Default() Config {
	return Config{
		Port:                     "8080",
		NATSSubjectPrefix:        "trivia.games",
		NotifyChannel:            "trivia_game_changes",
		DefaultRounds:            5,
		RoundOptions:             []int{3, 5, 7, 10, 12},
		PollSeconds:              3,
		StoreRetries:             3,
		StoreRetryMillis:         100,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		AllowedOrigins:           []string{"*"},
		LogLevel:                 "info",
		LogFormat:                "console",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("NATS_URL"); raw != "" {
		cfg.NATSURL = raw
	}
	if raw := os.Getenv("NATS_SUBJECT_PREFIX"); raw != "" {
		cfg.NATSSubjectPrefix = raw
	}
	if raw := os.Getenv("NOTIFY_CHANNEL"); raw != "" {
		cfg.NotifyChannel = raw
	}
	if raw := os.Getenv("QUESTION_BANK_PATH"); raw != "" {
		cfg.QuestionBankPath = raw
	}
	if raw := os.Getenv("ROUND_OPTIONS"); raw != "" {
		if options := parseInts(raw); len(options) > 0 {
			cfg.RoundOptions = options
		}
	}
	if raw := os.Getenv("DEFAULT_ROUNDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DefaultRounds = value
		}
	}
	if raw := os.Getenv("POLL_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.PollSeconds = value
		}
	}
	if raw := os.Getenv("STORE_RETRIES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.StoreRetries = value
		}
	}
	if raw := os.Getenv("STORE_RETRY_MILLIS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.StoreRetryMillis = value
		}
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw))
	}
	if raw := os.Getenv("LOG_FORMAT"); raw != "" {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(raw))
	}
	return cfg
}

func parseInts(raw string) []int {
	var out []int
	for _, part := range splitList(raw) {
		value, err := strconv.Atoi(part)
		if err != nil || value <= 0 {
			return nil
		}
		out = append(out, value)
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
