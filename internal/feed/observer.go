package feed

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"party-trivia/internal/game"
)

const DefaultPollInterval = 3 * time.Second

// Source reads the authoritative state of a game.
type Source interface {
	Snapshot(ctx context.Context, gameID string) (game.Snapshot, error)
}

type ObserverConfig struct {
	Notifiers    []Notifier
	PollInterval time.Duration
	Clock        clockwork.Clock
	Logger       zerolog.Logger
}

// Observer merges every notifier plus a poll ticker into one trigger stream,
// re-fetches the snapshot on each trigger, and emits it when the revision
// moved. The ticker alone is enough to converge.
type Observer struct {
	source    Source
	notifiers []Notifier
	interval  time.Duration
	clock     clockwork.Clock
	log       zerolog.Logger
}

func NewObserver(source Source, cfg ObserverConfig) *Observer {
	o := &Observer{
		source:    source,
		notifiers: cfg.Notifiers,
		interval:  cfg.PollInterval,
		clock:     cfg.Clock,
		log:       cfg.Logger,
	}
	if o.interval <= 0 {
		o.interval = DefaultPollInterval
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	return o
}

// Watch streams snapshots of gameID until ctx ends. The first snapshot is
// sent as soon as it is fetched. A reader that falls behind only sees the
// newest snapshot.
func (o *Observer) Watch(ctx context.Context, gameID string) (<-chan game.Snapshot, error) {
	hints := make([]<-chan game.Event, 0, len(o.notifiers))
	for _, notifier := range o.notifiers {
		ch, err := notifier.Subscribe(ctx, gameID)
		if err != nil {
			o.log.Warn().Err(err).Str("game_id", gameID).Msg("notifier unavailable, relying on poll")
			continue
		}
		hints = append(hints, ch)
	}
	triggers := merge(ctx, hints)
	out := make(chan game.Snapshot, 1)
	go o.run(ctx, gameID, triggers, out)
	return out, nil
}

func (o *Observer) run(ctx context.Context, gameID string, triggers <-chan game.Event, out chan game.Snapshot) {
	defer close(out)
	ticker := o.clock.NewTicker(o.interval)
	defer ticker.Stop()

	var last int64 = -1
	refresh := func(reason string) bool {
		snap, err := o.source.Snapshot(ctx, gameID)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			if errors.Is(err, game.ErrNotFound) {
				o.log.Info().Str("game_id", gameID).Msg("observed game is gone")
				return false
			}
			o.log.Warn().Err(err).Str("game_id", gameID).Str("trigger", reason).Msg("snapshot fetch failed, waiting for next cycle")
			return true
		}
		if snap.Revision() == last {
			return true
		}
		last = snap.Revision()
		offer(out, snap)
		return true
	}

	if !refresh("initial") {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-triggers:
			if !ok {
				triggers = nil
				continue
			}
			if event.Revision != 0 && event.Revision <= last {
				continue
			}
			if !refresh(event.Type) {
				return
			}
		case <-ticker.Chan():
			if !refresh("poll") {
				return
			}
		}
	}
}

// offer replaces whatever unread snapshot is pending with snap.
func offer(out chan game.Snapshot, snap game.Snapshot) {
	select {
	case out <- snap:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- snap
}

func merge(ctx context.Context, inputs []<-chan game.Event) <-chan game.Event {
	merged := make(chan game.Event, subscriberBuffer)
	if len(inputs) == 0 {
		close(merged)
		return merged
	}
	done := make(chan struct{}, len(inputs))
	for _, input := range inputs {
		go func(input <-chan game.Event) {
			defer func() { done <- struct{}{} }()
			for event := range input {
				select {
				case merged <- event:
				case <-ctx.Done():
					return
				}
			}
		}(input)
	}
	go func() {
		for range inputs {
			<-done
		}
		close(merged)
	}()
	return merged
}
