package server

import (
	"net/http"
	"testing"
)

func TestRoundFlowOverHTTP(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	ada := joinPlayer(t, ts, host.Code, "Ada")
	bob := joinPlayer(t, ts, host.Code, "Bob")

	body := mustAct(t, ts, host, "start", nil)
	snapshot := body["snapshot"].(map[string]any)
	if snapshot["status"] != "in_progress" {
		t.Fatalf("expected in_progress, got %v", snapshot["status"])
	}
	if status := roundOf(t, snapshot)["status"]; status != "proposed" {
		t.Fatalf("expected proposed round, got %v", status)
	}

	mustAct(t, ts, host, "approve", nil)
	mustAct(t, ts, ada, "answers", map[string]any{"content": "Blue", "done": false})

	bobView := roundOf(t, fetchSnapshot(t, ts, bob))
	if content := answerFor(t, bobView, ada.PlayerID)["content"]; content != "" {
		t.Fatalf("draft answer leaked to another player: %v", content)
	}
	adaView := roundOf(t, fetchSnapshot(t, ts, ada))
	if content := answerFor(t, adaView, ada.PlayerID)["content"]; content != "Blue" {
		t.Fatalf("expected own draft, got %v", content)
	}

	resp := act(t, ts, host, "reveal", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected reveal to be refused while players answer, got %d", resp.StatusCode)
	}

	mustAct(t, ts, ada, "answers", map[string]any{"content": "Green", "done": true})
	mustAct(t, ts, bob, "answers", map[string]any{"content": "Red", "done": true})
	body = mustAct(t, ts, host, "reveal", nil)
	revealed := roundOf(t, body["snapshot"].(map[string]any))
	if content := answerFor(t, revealed, bob.PlayerID)["content"]; content != "Red" {
		t.Fatalf("expected revealed content, got %v", content)
	}

	mustAct(t, ts, host, "judgments", map[string]any{"target_id": ada.PlayerID, "correct": true})
	mustAct(t, ts, host, "judgments", map[string]any{"target_id": bob.PlayerID, "correct": false})
	body = mustAct(t, ts, host, "score", map[string]any{"round": 1})
	snapshot = body["snapshot"].(map[string]any)
	if number := roundOf(t, snapshot)["number"]; number != float64(2) {
		t.Fatalf("expected round 2 to be proposed, got %v", number)
	}

	// A repeated score of round 1 changes nothing.
	mustAct(t, ts, host, "score", map[string]any{"round": 1})

	leaders := doRequest(t, ts, http.MethodGet, "/api/games/"+host.GameID+"/leaderboard", "", nil)
	board := decodeBody(t, leaders)["leaderboard"].([]any)
	first := board[0].(map[string]any)
	if first["name"] != "Ada" || first["score"] != float64(1) {
		t.Fatalf("expected Ada to lead with 1, got %v", first)
	}

	body = mustAct(t, ts, host, "end", nil)
	snapshot = body["snapshot"].(map[string]any)
	if snapshot["status"] != "complete" {
		t.Fatalf("expected complete, got %v", snapshot["status"])
	}
	winners := snapshot["winners"].([]any)
	if len(winners) != 1 || winners[0].(map[string]any)["name"] != "Ada" {
		t.Fatalf("expected Ada as the only winner, got %v", winners)
	}

	body = mustAct(t, ts, host, "replay", nil)
	snapshot = body["snapshot"].(map[string]any)
	if snapshot["status"] != "lobby" || snapshot["round"] != nil {
		t.Fatalf("expected a fresh lobby, got %v / %v", snapshot["status"], snapshot["round"])
	}
}

func TestRejoinReturnsSameSeat(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	first := joinPlayer(t, ts, host.Code, "Ada")
	resp := doRequest(t, ts, http.MethodPost, "/api/games/join", first.Token, map[string]any{"code": host.Code, "name": " ada "})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	again := decodeSeat(t, resp)
	if first.PlayerID != again.PlayerID || first.Token != again.Token {
		t.Fatalf("expected rejoin to reclaim the seat, got %+v and %+v", first, again)
	}
}

func TestJoinWithTakenNameConflicts(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	guest := joinPlayer(t, ts, host.Code, "Ada")
	for _, token := range []string{"", guest.Token} {
		resp := doRequest(t, ts, http.MethodPost, "/api/games/join", token, map[string]any{"code": host.Code, "name": "host"})
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("token %q: expected status %d, got %d", token, http.StatusConflict, resp.StatusCode)
		}
	}
	snap := fetchSnapshot(t, ts, host)
	if players := snap["players"].([]any); len(players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(players))
	}
}
