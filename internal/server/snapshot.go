package server

import (
	"party-trivia/internal/game"
)

// snapshotPayload renders the state viewerID may see. An empty viewerID is
// a spectator.
func snapshotPayload(snap game.Snapshot, viewerID string) map[string]any {
	view := snap.ForViewer(viewerID)
	names := make(map[string]string, len(view.Players))
	players := make([]map[string]any, 0, len(view.Players))
	for _, player := range view.Players {
		names[player.ID] = player.Name
		players = append(players, playerPayload(player))
	}

	rounds := make([]map[string]any, 0, len(view.Rounds))
	for _, round := range view.Rounds {
		rounds = append(rounds, map[string]any{
			"number":   round.Number,
			"question": round.Question,
			"status":   round.Status,
		})
	}

	payload := map[string]any{
		"game_id":       view.Game.ID,
		"code":          view.Game.Code,
		"status":        view.Game.Status,
		"host_id":       view.Game.HostID,
		"qm_id":         view.Game.QMID,
		"round_count":   view.Game.RoundCount,
		"rounds_played": scoredRounds(view.Rounds),
		"revision":      view.Game.Revision,
		"players":       players,
		"rounds":        rounds,
		"round":         nil,
		"leaderboard":   standingsPayload(game.Leaderboard(view.Players)),
		"winners":       []map[string]any{},
	}
	if viewerID != "" {
		payload["viewer_id"] = viewerID
	}
	if view.Round != nil {
		payload["round"] = roundPayload(*view.Round, view.Answers, view.Game.QMID, names)
	}
	if view.Game.Status == game.StatusComplete {
		payload["winners"] = standingsPayload(game.Winners(view.Players))
	}
	return payload
}

func playerPayload(player game.Player) map[string]any {
	return map[string]any{
		"id":      player.ID,
		"name":    player.Name,
		"is_host": player.IsHost,
		"is_qm":   player.IsQM,
		"score":   player.Score,
	}
}

func roundPayload(round game.Round, answers []game.Answer, qmID string, names map[string]string) map[string]any {
	list := make([]map[string]any, 0, len(answers))
	waiting := make([]string, 0)
	done := 0
	for _, answer := range answers {
		if answer.PlayerID == qmID {
			continue
		}
		if answer.Done {
			done++
		} else {
			waiting = append(waiting, names[answer.PlayerID])
		}
		list = append(list, map[string]any{
			"player_id": answer.PlayerID,
			"name":      names[answer.PlayerID],
			"content":   answer.Content,
			"done":      answer.Done,
			"verdict":   answer.Verdict,
			"revealed":  answer.Revealed,
		})
	}
	return map[string]any{
		"number":        round.Number,
		"question":      round.Question,
		"status":        round.Status,
		"skipped_count": len(round.Skipped),
		"answers":       list,
		"done_count":    done,
		"waiting_on":    waiting,
	}
}

func standingsPayload(players []game.Player) []map[string]any {
	list := make([]map[string]any, 0, len(players))
	for _, player := range players {
		list = append(list, map[string]any{
			"id":    player.ID,
			"name":  player.Name,
			"score": player.Score,
		})
	}
	return list
}

func scoredRounds(rounds []game.Round) int {
	count := 0
	for _, round := range rounds {
		if round.Status == game.RoundScored {
			count++
		}
	}
	return count
}
