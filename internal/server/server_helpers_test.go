package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type seat struct {
	GameID   string
	Code     string
	PlayerID string
	Token    string
}

func createGame(t *testing.T, ts *httptest.Server, name string) seat {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games", "", map[string]any{"name": name, "rounds": 3})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	return decodeSeat(t, resp)
}

func joinPlayer(t *testing.T, ts *httptest.Server, code, name string) seat {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/join", "", map[string]any{"code": code, "name": name})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeSeat(t, resp)
}

func decodeSeat(t *testing.T, resp *http.Response) seat {
	t.Helper()
	body := decodeBody(t, resp)
	return seat{
		GameID:   body["game_id"].(string),
		Code:     body["code"].(string),
		PlayerID: body["player_id"].(string),
		Token:    body["token"].(string),
	}
}

// act posts a transition as who and returns the response.
func act(t *testing.T, ts *httptest.Server, who seat, action string, payload map[string]any) *http.Response {
	t.Helper()
	if payload == nil {
		payload = map[string]any{}
	}
	payload["player_id"] = who.PlayerID
	return doRequest(t, ts, http.MethodPost, "/api/games/"+who.GameID+"/"+action, who.Token, payload)
}

func mustAct(t *testing.T, ts *httptest.Server, who seat, action string, payload map[string]any) map[string]any {
	t.Helper()
	resp := act(t, ts, who, action, payload)
	if resp.StatusCode != http.StatusOK {
		body := decodeBody(t, resp)
		t.Fatalf("%s: expected status %d, got %d (%v)", action, http.StatusOK, resp.StatusCode, body["error"])
	}
	return decodeBody(t, resp)
}

func fetchSnapshot(t *testing.T, ts *httptest.Server, who seat) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/games/"+who.GameID+"?player_id="+who.PlayerID, who.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func roundOf(t *testing.T, snapshot map[string]any) map[string]any {
	t.Helper()
	round, ok := snapshot["round"].(map[string]any)
	if !ok {
		t.Fatalf("expected a current round, got %#v", snapshot["round"])
	}
	return round
}

func answerFor(t *testing.T, round map[string]any, playerID string) map[string]any {
	t.Helper()
	for _, item := range round["answers"].([]any) {
		answer := item.(map[string]any)
		if answer["player_id"] == playerID {
			return answer
		}
	}
	t.Fatalf("no answer row for %s", playerID)
	return nil
}
