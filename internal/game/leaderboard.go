package game

import (
	"sort"
	"strings"
)

// Leaderboard orders players by score, highest first, breaking ties by name.
func Leaderboard(players []Player) []Player {
	ranked := append([]Player(nil), players...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return strings.ToLower(ranked[i].Name) < strings.ToLower(ranked[j].Name)
	})
	return ranked
}

// Winners returns every player tied at the maximum score.
func Winners(players []Player) []Player {
	ranked := Leaderboard(players)
	if len(ranked) == 0 {
		return nil
	}
	top := ranked[0].Score
	winners := make([]Player, 0, 1)
	for _, player := range ranked {
		if player.Score != top {
			break
		}
		winners = append(winners, player)
	}
	return winners
}
