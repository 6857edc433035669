package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"party-trivia/internal/game"
)

func TestSubjectPerGame(t *testing.T) {
	r := New(nil, "trivia.games.", zerolog.Nop())
	if got := r.subject("abc"); got != "trivia.games.abc" {
		t.Fatalf("unexpected subject %q", got)
	}
	if got := New(nil, "", zerolog.Nop()).subject("x"); got != DefaultSubjectPrefix+".x" {
		t.Fatalf("unexpected default subject %q", got)
	}
}

func TestDecodeEvent(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := json.Marshal(game.Event{GameID: "g1", Type: game.EventRoundScored, Revision: 9, RoundNumber: 2, At: at})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	event, ok := decode(data)
	if !ok {
		t.Fatalf("expected event to decode")
	}
	if event.GameID != "g1" || event.Revision != 9 || event.RoundNumber != 2 || !event.At.Equal(at) {
		t.Fatalf("unexpected event %#v", event)
	}
	if _, ok := decode([]byte("not json")); ok {
		t.Fatalf("expected malformed payload to be rejected")
	}
	if _, ok := decode([]byte(`{"type":"game_started"}`)); ok {
		t.Fatalf("expected event without game id to be rejected")
	}
}
