package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"party-trivia/internal/game"
)

type ListenerConfig struct {
	DatabaseURL   string // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel string // channel the games trigger notifies on
	PingInterval  time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel: "trivia_game_changes",
		PingInterval:  90 * time.Second,
	}
}

// Listener turns Postgres notifications about committed game rows into
// store_changed hints so that every replica's observers re-fetch, including
// changes written by other processes.
type Listener struct {
	listener *pq.Listener
	sink     game.EventSink
	cfg      ListenerConfig
	log      zerolog.Logger
}

func NewListener(sink game.EventSink, cfg ListenerConfig, log zerolog.Logger) (*Listener, error) {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultListenerConfig().PingInterval
	}
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}
	log.Info().Str("channel", cfg.NotifyChannel).Msg("listening for notifications")
	return &Listener{listener: l, sink: sink, cfg: cfg, log: log}, nil
}

func (l *Listener) Start(ctx context.Context) error {
	pingTicker := time.NewTicker(l.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info().Msg("listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// connection was re-established; notifications may have been missed
				// but observers still poll.
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				l.log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				l.log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	return l.listener.Close()
}

func (l *Listener) handleNotification(ctx context.Context, extra string) error {
	gameID, revision, err := parseNotification(extra)
	if err != nil {
		return err
	}
	return l.sink.Publish(ctx, game.Event{
		GameID:   gameID,
		Type:     game.EventStoreChanged,
		Revision: revision,
		At:       time.Now().UTC(),
	})
}

// parseNotification reads the "<game id>:<revision>" payload sent by the
// games trigger.
func parseNotification(extra string) (string, int64, error) {
	idx := strings.LastIndexByte(extra, ':')
	if idx <= 0 || idx == len(extra)-1 {
		return "", 0, fmt.Errorf("invalid notification payload %q", extra)
	}
	revision, err := strconv.ParseInt(extra[idx+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid revision in notification %q: %w", extra, err)
	}
	return extra[:idx], revision, nil
}
