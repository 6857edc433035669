package server

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"party-trivia/internal/game"
)

func TestCreateGameValidation(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/games", "", map[string]any{"name": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	if msg := decodeBody(t, resp)["error"]; msg != "name is required" {
		t.Fatalf("unexpected error message %v", msg)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/games", "", map[string]any{"name": strings.Repeat("n", maxNameLength+1)})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	if msg := decodeBody(t, resp)["error"]; msg != "name must be 20 characters or fewer" {
		t.Fatalf("unexpected error message %v", msg)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/games", "", map[string]any{"name": "Host", "rounds": 4})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected unsupported round count to be refused, got %d", resp.StatusCode)
	}
}

func TestAnswersAcceptFreeText(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	ada := joinPlayer(t, ts, host.Code, "Ada")
	mustAct(t, ts, host, "start", nil)
	mustAct(t, ts, host, "approve", nil)

	cyrillic := strings.Repeat("ж", 120)
	for _, content := range []string{"😂", "me@home", "5*3", "<3 ~ `code`", cyrillic} {
		body := mustAct(t, ts, ada, "answers", map[string]any{"content": content, "done": false})
		view := roundOf(t, body["snapshot"].(map[string]any))
		if got := answerFor(t, view, ada.PlayerID)["content"]; got != content {
			t.Fatalf("expected draft %q, got %v", content, got)
		}
	}

	resp := act(t, ts, ada, "answers", map[string]any{"content": strings.Repeat("ж", maxAnswerLength+1)})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	if msg := decodeBody(t, resp)["error"]; msg != "answer must be 200 characters or fewer" {
		t.Fatalf("unexpected error message %v", msg)
	}
}

func TestJoinUnknownCode(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/games/join", "", map[string]any{"code": "ZZZZZZ", "name": "Ada"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestTransitionsRequireToken(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	forged := host
	forged.Token = "not-the-token"
	if resp := act(t, ts, forged, "start", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}

	resp := doRequest(t, ts, http.MethodGet, "/api/games/"+host.GameID+"?player_id="+host.PlayerID, "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected snapshot with player_id but no token to be refused, got %d", resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/games/"+host.GameID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected spectator snapshot, got %d", resp.StatusCode)
	}
}

func TestRoleGuardsMapToConflict(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	ada := joinPlayer(t, ts, host.Code, "Ada")

	if resp := act(t, ts, ada, "start", nil); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected non-host start to be refused, got %d", resp.StatusCode)
	}
	mustAct(t, ts, host, "start", nil)
	if resp := act(t, ts, ada, "approve", nil); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected non-QM approve to be refused, got %d", resp.StatusCode)
	}
	if resp := act(t, ts, host, "judgments", map[string]any{"target_id": ada.PlayerID}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected missing verdict to be a bad request, got %d", resp.StatusCode)
	}
}

func TestSubmitAfterDoneReportsAlreadySubmitted(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	ada := joinPlayer(t, ts, host.Code, "Ada")
	mustAct(t, ts, host, "start", nil)
	mustAct(t, ts, host, "approve", nil)
	mustAct(t, ts, ada, "answers", map[string]any{"content": "Paris", "done": true})

	body := mustAct(t, ts, ada, "answers", map[string]any{"content": "Rome", "done": true})
	if body["already_submitted"] != true {
		t.Fatalf("expected already_submitted flag, got %v", body)
	}
	round := roundOf(t, body["snapshot"].(map[string]any))
	if content := answerFor(t, round, ada.PlayerID)["content"]; content != "Paris" {
		t.Fatalf("expected first answer to stand, got %v", content)
	}
}

func TestStartWithEmptyBank(t *testing.T) {
	app := newTestApp(t, nil)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	if resp := act(t, ts, host, "start", nil); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, resp.StatusCode)
	}
}

func TestStoreOutageMapsToUnavailable(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	host := createGame(t, ts, "Host")
	app.store.SetFault(func(op string) error {
		if op == "update_game" {
			return game.ErrStoreUnavailable
		}
		return nil
	})
	if resp := act(t, ts, host, "start", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, resp.StatusCode)
	}
	app.store.SetFault(nil)
	mustAct(t, ts, host, "start", nil)
}

func TestUnknownGame(t *testing.T) {
	app := newTestApp(t, testQuestions)
	ts := newTestServer(t, app.server.Handler())
	t.Cleanup(ts.Close)

	for _, path := range []string{"/api/games/missing", "/api/games/missing/leaderboard", "/api/games/missing/events"} {
		if resp := doRequest(t, ts, http.MethodGet, path, "", nil); resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusNotFound, resp.StatusCode)
		}
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		game.ErrNotFound:              http.StatusNotFound,
		game.ErrInvalidTransition:     http.StatusConflict,
		game.ErrPlayersStillAnswering: http.StatusConflict,
		game.ErrNameTaken:             http.StatusConflict,
		game.ErrEmptyBank:             http.StatusUnprocessableEntity,
		game.ErrStoreUnavailable:      http.StatusServiceUnavailable,
		errUnauthorized:               http.StatusUnauthorized,
		errors.New("boom"):            http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("%v: expected %d, got %d", err, want, got)
		}
	}
}
