// Package feed turns committed game changes into a stream of fresh
// snapshots for every observer of a game.
package feed

import (
	"context"
	"sync"

	"party-trivia/internal/game"
)

// Notifier produces change hints for one game. The channel closes when ctx
// ends or the producer gives up.
type Notifier interface {
	Subscribe(ctx context.Context, gameID string) (<-chan game.Event, error)
}

const subscriberBuffer = 16

// Broker is an in-process Notifier fed by Publish. A slow subscriber loses
// hints rather than blocking the publisher; observers re-fetch on the next
// hint or poll anyway.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan game.Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan game.Event]struct{})}
}

func (b *Broker) Publish(ctx context.Context, event game.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[event.GameID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, gameID string) (<-chan game.Event, error) {
	ch := make(chan game.Event, subscriberBuffer)
	b.mu.Lock()
	group := b.subs[gameID]
	if group == nil {
		group = make(map[chan game.Event]struct{})
		b.subs[gameID] = group
	}
	group[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[gameID], ch)
		if len(b.subs[gameID]) == 0 {
			delete(b.subs, gameID)
		}
		close(ch)
	}()
	return ch, nil
}

// Subscribers reports how many live subscriptions a game has.
func (b *Broker) Subscribers(gameID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[gameID])
}
