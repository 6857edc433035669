package db

import (
	"encoding/json"

	"gorm.io/datatypes"

	"party-trivia/internal/game"
)

func gameRow(g game.Game) Game {
	return Game{
		ID:         g.ID,
		Code:       g.Code,
		Status:     string(g.Status),
		HostID:     g.HostID,
		QMID:       g.QMID,
		RoundCount: g.RoundCount,
		Seed:       int64(g.Seed),
		Revision:   g.Revision,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}

func (r Game) toGame() game.Game {
	return game.Game{
		ID:         r.ID,
		Code:       r.Code,
		Status:     game.GameStatus(r.Status),
		HostID:     r.HostID,
		QMID:       r.QMID,
		RoundCount: r.RoundCount,
		Seed:       uint32(r.Seed),
		Revision:   r.Revision,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func playerRow(p game.Player) Player {
	return Player{
		ID:       p.ID,
		GameID:   p.GameID,
		Name:     p.Name,
		IsHost:   p.IsHost,
		IsQM:     p.IsQM,
		Score:    p.Score,
		Token:    p.Token,
		JoinedAt: p.JoinedAt,
	}
}

func (r Player) toPlayer() game.Player {
	return game.Player{
		ID:       r.ID,
		GameID:   r.GameID,
		Name:     r.Name,
		IsHost:   r.IsHost,
		IsQM:     r.IsQM,
		Score:    r.Score,
		Token:    r.Token,
		JoinedAt: r.JoinedAt,
	}
}

func roundRow(r game.Round) (Round, error) {
	skipped, err := encodeSkipped(r.Skipped)
	if err != nil {
		return Round{}, err
	}
	return Round{
		ID:        r.ID,
		GameID:    r.GameID,
		Number:    r.Number,
		Question:  r.Question,
		Status:    string(r.Status),
		Skipped:   skipped,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func (r Round) toRound() (game.Round, error) {
	skipped, err := decodeSkipped(r.Skipped)
	if err != nil {
		return game.Round{}, err
	}
	return game.Round{
		ID:        r.ID,
		GameID:    r.GameID,
		Number:    r.Number,
		Question:  r.Question,
		Status:    game.RoundStatus(r.Status),
		Skipped:   skipped,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func answerRow(a game.Answer) Answer {
	return Answer{
		ID:       a.ID,
		RoundID:  a.RoundID,
		PlayerID: a.PlayerID,
		Content:  a.Content,
		Done:     a.Done,
		Verdict:  string(a.Verdict),
		Revealed: a.Revealed,
	}
}

func (r Answer) toAnswer() game.Answer {
	return game.Answer{
		ID:       r.ID,
		RoundID:  r.RoundID,
		PlayerID: r.PlayerID,
		Content:  r.Content,
		Done:     r.Done,
		Verdict:  game.Verdict(r.Verdict),
		Revealed: r.Revealed,
	}
}

func encodeSkipped(skipped []string) (datatypes.JSON, error) {
	if skipped == nil {
		skipped = []string{}
	}
	data, err := json.Marshal(skipped)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func decodeSkipped(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var skipped []string
	if err := json.Unmarshal(raw, &skipped); err != nil {
		return nil, err
	}
	if len(skipped) == 0 {
		return nil, nil
	}
	return skipped, nil
}

func gameUpdates(update game.GameUpdate) map[string]any {
	values := map[string]any{}
	if update.Status != nil {
		values["status"] = string(*update.Status)
	}
	if update.QMID != nil {
		values["qm_id"] = *update.QMID
	}
	if update.RoundCount != nil {
		values["round_count"] = *update.RoundCount
	}
	if update.Seed != nil {
		values["seed"] = int64(*update.Seed)
	}
	return values
}

func answerUpdates(update game.AnswerUpdate) map[string]any {
	values := map[string]any{}
	if update.Content != nil {
		values["content"] = *update.Content
	}
	if update.Done != nil {
		values["done"] = *update.Done
	}
	if update.Verdict != nil {
		values["verdict"] = string(*update.Verdict)
	}
	if update.Revealed != nil {
		values["revealed"] = *update.Revealed
	}
	return values
}
