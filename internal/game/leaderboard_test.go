package game

import "testing"

func TestLeaderboardOrdersByScoreThenName(t *testing.T) {
	players := []Player{
		{ID: "1", Name: "cara", Score: 2},
		{ID: "2", Name: "Bea", Score: 3},
		{ID: "3", Name: "abe", Score: 2},
		{ID: "4", Name: "Dan", Score: 0},
	}
	board := Leaderboard(players)
	want := []string{"Bea", "abe", "cara", "Dan"}
	for i, name := range want {
		if board[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, board[i].Name)
		}
	}
	if players[0].Name != "cara" {
		t.Fatalf("leaderboard must not reorder its input")
	}
}

func TestWinnersIncludesTies(t *testing.T) {
	players := []Player{
		{ID: "1", Name: "Ann", Score: 4},
		{ID: "2", Name: "Bo", Score: 4},
		{ID: "3", Name: "Cy", Score: 1},
	}
	winners := Winners(players)
	if len(winners) != 2 || winners[0].Name != "Ann" || winners[1].Name != "Bo" {
		t.Fatalf("expected Ann and Bo tied, got %#v", winners)
	}
	if got := Winners(nil); got != nil {
		t.Fatalf("expected no winners for no players, got %#v", got)
	}
}
