package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"party-trivia/internal/game"
)

func TestWebsocketStreamsSnapshots(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/games/" + host.GameID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?player_id="+host.PlayerID+"&token="+host.Token, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	defer conn.Close()

	first := readSnapshot(t, conn, 5*time.Second)
	if first["viewer_id"] != host.PlayerID {
		t.Fatalf("expected snapshot for the host, got viewer %v", first["viewer_id"])
	}

	joinPlayer(t, ts, host.Code, "Ada")
	next := readSnapshot(t, conn, 5*time.Second)
	if players := next["players"].([]any); len(players) != 2 {
		t.Fatalf("expected joined player to be pushed, got %d players", len(players))
	}
	if next["revision"].(float64) <= first["revision"].(float64) {
		t.Fatalf("expected revision to move forward")
	}
}

func TestWebsocketSpectatorSeesNoDrafts(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	ada := joinPlayer(t, ts, host.Code, "Ada")
	mustAct(t, ts, host, "start", nil)
	mustAct(t, ts, host, "approve", nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/games/" + host.GameID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	defer conn.Close()
	readSnapshot(t, conn, 5*time.Second)

	mustAct(t, ts, ada, "answers", map[string]any{"content": "Secret", "done": true})
	snapshot := readSnapshot(t, conn, 5*time.Second)
	answer := answerFor(t, roundOf(t, snapshot), ada.PlayerID)
	if answer["content"] != "" || answer["done"] != true {
		t.Fatalf("expected hidden but finished answer, got %v", answer)
	}
}

func TestWebsocketRejectsBadToken(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/games/" + host.GameID + "?player_id=" + host.PlayerID + "&token=wrong"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		conn.Close()
		t.Fatalf("expected dial to be refused")
	}
	if resp == nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestWebsocketReconnectsAfterObserverStops(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/games/" + host.GameID + "?player_id=" + host.PlayerID + "&token=" + host.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	defer conn.Close()
	readSnapshot(t, conn, 5*time.Second)

	// The next poll sees the game as missing and the observer gives up.
	app.store.SetFault(func(op string) error {
		if op == "get_game" {
			return game.ErrNotFound
		}
		return nil
	})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected socket to close once the observer stopped")
	}
	if app.server.hub.watching(host.GameID) {
		t.Fatalf("expected the stopped group to be dropped")
	}
	app.store.SetFault(nil)

	again, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("redial: %v", err)
	}
	defer again.Close()
	readSnapshot(t, again, 5*time.Second)
	joinPlayer(t, ts, host.Code, "Ada")
	next := readSnapshot(t, again, 5*time.Second)
	if players := next["players"].([]any); len(players) != 2 {
		t.Fatalf("expected pushes on the new watch, got %d players", len(players))
	}
}

func (h *wsHub) watching(gameID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.groups[gameID]
	return ok
}

func readSnapshot(t *testing.T, conn *websocket.Conn, timeout time.Duration) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("decode websocket message: %v", err)
	}
	if msg["type"] != "snapshot" {
		t.Fatalf("expected snapshot message, got %v", msg["type"])
	}
	return msg["snapshot"].(map[string]any)
}
