package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var testBank = []string{"Q1", "Q2", "Q3", "Q4"}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Publish(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Type)
	}
	return out
}

type testRig struct {
	engine *Engine
	store  *MemoryStore
	sink   *recordingSink
}

func newTestRig(t *testing.T, bank []string) *testRig {
	t.Helper()
	store := NewMemoryStore()
	sink := &recordingSink{}
	var (
		mu    sync.Mutex
		ids   int
		seeds uint32
		codes int
	)
	engine, err := NewEngine(Options{
		Store:      store,
		Bank:       bank,
		Events:     sink,
		Logger:     zerolog.Nop(),
		RetryDelay: time.Millisecond,
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
		NewSeed: func() uint32 {
			mu.Lock()
			defer mu.Unlock()
			seeds++
			return seeds * 7919
		},
		NewCode: func() string {
			mu.Lock()
			defer mu.Unlock()
			codes++
			return fmt.Sprintf("CODE%02d", codes)
		},
		Now: func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return &testRig{engine: engine, store: store, sink: sink}
}

// lobby creates a game hosted by Host with the given guests joined.
func (r *testRig) lobby(t *testing.T, rounds int, guests ...string) (Game, Player, []Player) {
	t.Helper()
	ctx := context.Background()
	game, host, err := r.engine.CreateGame(ctx, "Host", rounds)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	joined := make([]Player, 0, len(guests))
	for _, name := range guests {
		_, player, err := r.engine.JoinGame(ctx, game.Code, name, "")
		if err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		joined = append(joined, player)
	}
	return game, host, joined
}

func (r *testRig) snapshot(t *testing.T, gameID string) Snapshot {
	t.Helper()
	snap, err := r.engine.Snapshot(context.Background(), gameID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

func (r *testRig) collect(t *testing.T, gameID, qmID string) {
	t.Helper()
	if err := r.engine.Approve(context.Background(), gameID, qmID); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func (r *testRig) submit(t *testing.T, gameID, playerID, content string) {
	t.Helper()
	if err := r.engine.SubmitAnswer(context.Background(), gameID, playerID, AnswerInput{Content: content, Done: true}); err != nil {
		t.Fatalf("submit %s: %v", playerID, err)
	}
}

func playerByID(t *testing.T, snap Snapshot, id string) Player {
	t.Helper()
	player, ok := snap.Player(id)
	if !ok {
		t.Fatalf("player %s missing from snapshot", id)
	}
	return player
}

func countFlags(players []Player) (hosts, qms int) {
	for _, player := range players {
		if player.IsHost {
			hosts++
		}
		if player.IsQM {
			qms++
		}
	}
	return hosts, qms
}
