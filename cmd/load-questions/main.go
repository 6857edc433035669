package main

import (
	"context"
	"os"

	"github.com/spf13/pflag"

	"party-trivia/internal/config"
	"party-trivia/internal/db"
)

func main() {
	var (
		filePath     string
		withDefaults bool
	)
	flagSet := pflag.NewFlagSet("load-questions", pflag.ExitOnError)
	flagSet.StringVarP(&filePath, "file", "f", "questions.csv", "path to a questions csv or yaml file")
	flagSet.BoolVar(&withDefaults, "defaults", false, "also load the built-in questions")
	_ = flagSet.Parse(os.Args[1:])

	dotenvErr := config.LoadDotEnv(".env")
	cfg := config.Load()
	log := cfg.NewLogger(os.Stderr)
	if dotenvErr != nil {
		log.Warn().Err(dotenvErr).Msg("failed to load .env")
	}

	texts, err := config.ReadQuestionFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", filePath).Msg("failed to read questions")
	}
	if withDefaults {
		texts = append(texts, config.DefaultQuestions...)
	}

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.Migrate(conn, cfg.NotifyChannel, log); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	inserted, err := db.ImportQuestions(context.Background(), conn, texts)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to import questions")
	}
	log.Info().Int("read", len(texts)).Int("inserted", inserted).Msg("questions loaded")
}
