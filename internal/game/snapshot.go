package game

import "context"

// Snapshot is the authoritative state of one game at a revision.
type Snapshot struct {
	Game    Game
	Players []Player
	Rounds  []Round
	Round   *Round
	Answers []Answer
}

func (s Snapshot) Revision() int64 {
	return s.Game.Revision
}

// Snapshot reads the game, its players, every round, and the answers of the
// newest round from one point-in-time view, so the parts agree on a revision.
func (e *Engine) Snapshot(ctx context.Context, gameID string) (Snapshot, error) {
	var snap Snapshot
	err := e.view(ctx, "snapshot", func(tx Records) error {
		game, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		players, err := tx.ListPlayers(ctx, game.ID)
		if err != nil {
			return err
		}
		rounds, err := tx.ListRounds(ctx, game.ID)
		if err != nil {
			return err
		}
		snap = Snapshot{Game: game, Players: players, Rounds: rounds}
		if round, ok := latestRound(rounds); ok {
			snap.Round = &round
			snap.Answers, err = tx.ListAnswers(ctx, round.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	return snap, err
}

// Player finds a player of the snapshot by id.
func (s Snapshot) Player(id string) (Player, bool) {
	for _, player := range s.Players {
		if player.ID == id {
			return player, true
		}
	}
	return Player{}, false
}

// ForViewer hides what viewerID is not allowed to see: other players'
// answer content until the round is revealed, and every session token but
// the viewer's own.
func (s Snapshot) ForViewer(viewerID string) Snapshot {
	out := s
	out.Players = make([]Player, len(s.Players))
	for i, player := range s.Players {
		if player.ID != viewerID {
			player.Token = ""
		}
		out.Players[i] = player
	}
	out.Rounds = append([]Round(nil), s.Rounds...)
	if s.Round != nil {
		round := *s.Round
		out.Round = &round
	}
	out.Answers = make([]Answer, len(s.Answers))
	for i, answer := range s.Answers {
		if !answer.Revealed && answer.PlayerID != viewerID {
			answer.Content = ""
		}
		out.Answers[i] = answer
	}
	return out
}
