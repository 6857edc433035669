// Package relay carries game change hints between server instances over
// NATS so observers attached to any instance converge.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"party-trivia/internal/game"
)

const DefaultSubjectPrefix = "trivia.games"

type Config struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: DefaultSubjectPrefix,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Relay publishes engine events to NATS and subscribes to them per game. It
// satisfies both game.EventSink and feed.Notifier.
type Relay struct {
	nc     *nats.Conn
	prefix string
	log    zerolog.Logger
}

func Connect(cfg Config, log zerolog.Logger) (*Relay, error) {
	opts := []nats.Option{
		nats.Name("party-trivia"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Error().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("nats error")
		}),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	log.Info().Str("url", nc.ConnectedUrl()).Msg("nats connected")
	return New(nc, cfg.SubjectPrefix, log), nil
}

func New(nc *nats.Conn, prefix string, log zerolog.Logger) *Relay {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Relay{nc: nc, prefix: strings.TrimSuffix(prefix, "."), log: log}
}

func (r *Relay) subject(gameID string) string {
	return r.prefix + "." + gameID
}

func (r *Relay) Publish(ctx context.Context, event game.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := r.nc.Publish(r.subject(event.GameID), data); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (r *Relay) Subscribe(ctx context.Context, gameID string) (<-chan game.Event, error) {
	msgs := make(chan *nats.Msg, 64)
	sub, err := r.nc.ChanSubscribe(r.subject(gameID), msgs)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", gameID, err)
	}
	out := make(chan game.Event, 16)
	go func() {
		defer close(out)
		defer func() {
			if err := sub.Unsubscribe(); err != nil && r.nc.IsConnected() {
				r.log.Warn().Err(err).Str("game_id", gameID).Msg("nats unsubscribe failed")
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				event, ok := decode(msg.Data)
				if !ok {
					r.log.Warn().Str("subject", msg.Subject).Msg("dropping malformed event")
					continue
				}
				select {
				case out <- event:
				default:
				}
			}
		}
	}()
	return out, nil
}

func (r *Relay) Close() {
	if err := r.nc.Drain(); err != nil {
		r.nc.Close()
	}
}

func decode(data []byte) (game.Event, bool) {
	var event game.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return game.Event{}, false
	}
	if event.GameID == "" {
		return game.Event{}, false
	}
	return event, true
}
