package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"party-trivia/internal/config"
	"party-trivia/internal/db"
	"party-trivia/internal/feed"
	"party-trivia/internal/game"
	"party-trivia/internal/relay"
	"party-trivia/internal/server"
)

func main() {
	dotenvErr := config.LoadDotEnv(".env")
	cfg := config.Load()
	log := cfg.NewLogger(os.Stderr)
	if dotenvErr != nil {
		log.Warn().Err(dotenvErr).Msg("failed to load .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bank, err := cfg.QuestionBank()
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.QuestionBankPath).Msg("failed to load question bank")
	}

	broker := feed.NewBroker()
	sinks := game.Sinks{broker}
	notifiers := []feed.Notifier{broker}
	var (
		store  game.Store = game.NewMemoryStore()
		events server.EventLister
	)

	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		if err := db.Migrate(conn, cfg.NotifyChannel, log); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
		store = db.NewStore(conn)
		eventLog := db.NewEventLog(conn)
		sinks = append(sinks, eventLog)
		events = eventLog

		if cfg.QuestionBankPath == "" {
			stored, err := db.ListQuestions(ctx, conn)
			switch {
			case err != nil:
				log.Warn().Err(err).Msg("failed to read stored questions, using built-in bank")
			case len(stored) > 0:
				bank = stored
			}
		}

		listener, err := db.NewListener(broker, db.ListenerConfig{
			DatabaseURL:   cfg.DatabaseURL,
			NotifyChannel: cfg.NotifyChannel,
		}, log)
		if err != nil {
			log.Warn().Err(err).Msg("change listener unavailable, relying on poll")
		} else {
			go func() {
				if err := listener.Start(ctx); err != nil {
					log.Error().Err(err).Msg("change listener stopped")
				}
			}()
		}
	} else {
		log.Warn().Msg("DATABASE_URL is not set, games are kept in memory")
	}

	if cfg.NATSURL != "" {
		relayCfg := relay.DefaultConfig()
		relayCfg.URL = cfg.NATSURL
		relayCfg.SubjectPrefix = cfg.NATSSubjectPrefix
		r, err := relay.Connect(relayCfg, log)
		if err != nil {
			log.Warn().Err(err).Msg("nats unavailable, events stay local")
		} else {
			defer r.Close()
			sinks = append(sinks, r)
			notifiers = append(notifiers, r)
		}
	}

	engine, err := game.NewEngine(game.Options{
		Store:        store,
		Bank:         bank,
		Events:       sinks,
		Logger:       log.With().Str("component", "engine").Logger(),
		RoundOptions: cfg.RoundOptions,
		DefaultRound: cfg.DefaultRounds,
		Retries:      cfg.StoreRetries,
		RetryDelay:   time.Duration(cfg.StoreRetryMillis) * time.Millisecond,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("engine setup failed")
	}
	log.Info().Int("questions", engine.BankSize()).Msg("question bank loaded")

	observer := feed.NewObserver(engine, feed.ObserverConfig{
		Notifiers:    notifiers,
		PollInterval: time.Duration(cfg.PollSeconds) * time.Second,
		Logger:       log.With().Str("component", "feed").Logger(),
	})
	srv := server.New(engine, cfg, server.Options{
		Observer: observer,
		Events:   events,
		Logger:   log.With().Str("component", "server").Logger(),
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet, http.MethodPost},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"Content-Type", "X-Player-Token"},
	})
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(srv.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go shutdownOnDone(ctx, httpServer, log)
	log.Info().Str("addr", httpServer.Addr).Msg("party-trivia server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func shutdownOnDone(ctx context.Context, httpServer *http.Server, log zerolog.Logger) {
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
