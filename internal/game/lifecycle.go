package game

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
)

const (
	maxCodeAttempts = 8
	maxSeedAttempts = 8
)

// CreateGame opens a lobby hosted by hostName, who also starts as QM. A zero
// roundCount selects the configured default.
func (e *Engine) CreateGame(ctx context.Context, hostName string, roundCount int) (Game, Player, error) {
	name := strings.TrimSpace(hostName)
	if name == "" {
		return Game{}, Player{}, invalid("name is required")
	}
	if roundCount == 0 {
		roundCount = e.defaultRound
	}
	if !e.validRoundCount(roundCount) {
		return Game{}, Player{}, invalid("round count must be one of %v", e.roundOptions)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		now := e.now()
		game := Game{
			ID:         e.newID(),
			Code:       e.newCode(),
			Status:     StatusLobby,
			RoundCount: roundCount,
			Seed:       e.newSeed(),
			Revision:   1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		host := Player{
			ID:       e.newID(),
			GameID:   game.ID,
			Name:     name,
			IsHost:   true,
			IsQM:     true,
			Token:    e.newID(),
			JoinedAt: now,
		}
		game.HostID = host.ID
		game.QMID = host.ID

		err := e.transact(ctx, "create_game", func(tx Records) error {
			if _, err := tx.GetGameByCode(ctx, game.Code); err == nil {
				return ErrCodeTaken
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
			if err := tx.InsertGame(ctx, game); err != nil {
				return err
			}
			return tx.InsertPlayer(ctx, host)
		})
		if errors.Is(err, ErrCodeTaken) {
			e.log.Debug().Str("join_code", game.Code).Msg("join code collision, drawing another")
			continue
		}
		if err != nil {
			return Game{}, Player{}, err
		}
		e.log.Info().Str("game_id", game.ID).Str("join_code", game.Code).Str("host", name).Msg("game created")
		e.emit(ctx, Event{GameID: game.ID, Type: EventGameCreated, Revision: game.Revision, PlayerID: host.ID, Detail: game.Code})
		return game, host, nil
	}
	return Game{}, Player{}, fmt.Errorf("no free join code after %d attempts: %w", maxCodeAttempts, ErrStoreUnavailable)
}

// JoinGame adds name to the game with the given code. A name already in the
// game is reclaimed only with that seat's token; otherwise it is taken.
func (e *Engine) JoinGame(ctx context.Context, code, playerName, token string) (Game, Player, error) {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return Game{}, Player{}, invalid("name is required")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	var (
		game    Game
		player  Player
		claimed bool
	)
	err := e.transact(ctx, "join_game", func(tx Records) error {
		claimed = false
		found, err := tx.GetGameByCode(ctx, code)
		if err != nil {
			return err
		}
		game, err = tx.LockGame(ctx, found.ID)
		if err != nil {
			return err
		}
		players, err := tx.ListPlayers(ctx, game.ID)
		if err != nil {
			return err
		}
		for _, existing := range players {
			if strings.EqualFold(existing.Name, name) {
				if token == "" || subtle.ConstantTimeCompare([]byte(existing.Token), []byte(token)) != 1 {
					return ErrNameTaken
				}
				player = existing
				claimed = true
				return nil
			}
		}
		player = Player{
			ID:       e.newID(),
			GameID:   game.ID,
			Name:     name,
			Token:    e.newID(),
			JoinedAt: e.now(),
		}
		if err := tx.InsertPlayer(ctx, player); err != nil {
			return err
		}
		game.Revision, err = tx.TouchGame(ctx, game.ID)
		return err
	})
	if err != nil {
		return Game{}, Player{}, err
	}
	if claimed {
		e.log.Info().Str("game_id", game.ID).Str("player_id", player.ID).Msg("player reclaimed seat")
		return game, player, nil
	}
	e.log.Info().Str("game_id", game.ID).Str("player_id", player.ID).Str("player_name", name).Msg("player joined")
	e.emit(ctx, Event{GameID: game.ID, Type: EventPlayerJoined, Revision: game.Revision, PlayerID: player.ID})
	return game, player, nil
}

// AssignQM moves the single QM flag to target: every flag is cleared and one
// is set inside one transaction.
func (e *Engine) AssignQM(ctx context.Context, gameID, actorID, targetID string) error {
	var revision int64
	err := e.transact(ctx, "assign_qm", func(tx Records) error {
		game, err := tx.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		actor, err := caller(ctx, tx, game, actorID)
		if err != nil {
			return err
		}
		if err := requireHost(game, actor); err != nil {
			return err
		}
		if game.Status == StatusComplete {
			return invalid("game is complete")
		}
		target, err := tx.GetPlayer(ctx, targetID)
		if err != nil {
			return err
		}
		if target.GameID != game.ID {
			return invalid("target is not in this game")
		}
		if err := tx.UpdatePlayers(ctx, game.ID, PlayerUpdate{IsQM: ptr(false)}); err != nil {
			return err
		}
		if err := tx.UpdatePlayer(ctx, target.ID, PlayerUpdate{IsQM: ptr(true)}); err != nil {
			return err
		}
		if err := tx.UpdateGame(ctx, game.ID, GameUpdate{QMID: ptr(target.ID)}); err != nil {
			return err
		}
		revision, err = tx.TouchGame(ctx, game.ID)
		return err
	})
	if err != nil {
		return err
	}
	e.log.Info().Str("game_id", gameID).Str("player_id", targetID).Msg("question master assigned")
	e.emit(ctx, Event{GameID: gameID, Type: EventQMAssigned, Revision: revision, PlayerID: targetID})
	return nil
}

func (e *Engine) SetRoundCount(ctx context.Context, gameID, actorID string, count int) error {
	if !e.validRoundCount(count) {
		return invalid("round count must be one of %v", e.roundOptions)
	}
	var revision int64
	err := e.transact(ctx, "set_round_count", func(tx Records) error {
		game, err := tx.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		actor, err := caller(ctx, tx, game, actorID)
		if err != nil {
			return err
		}
		if err := requireHost(game, actor); err != nil {
			return err
		}
		if game.Status != StatusLobby {
			return invalid("round count can only change in the lobby")
		}
		if err := tx.UpdateGame(ctx, game.ID, GameUpdate{RoundCount: ptr(count)}); err != nil {
			return err
		}
		revision, err = tx.TouchGame(ctx, game.ID)
		return err
	})
	if err != nil {
		return err
	}
	e.log.Info().Str("game_id", gameID).Int("rounds", count).Msg("settings updated")
	e.emit(ctx, Event{GameID: gameID, Type: EventSettingsUpdated, Revision: revision, Detail: fmt.Sprintf("rounds=%d", count)})
	return nil
}

// Start moves the lobby into play and proposes round 1.
func (e *Engine) Start(ctx context.Context, gameID, actorID string) error {
	var (
		revision int64
		first    Round
	)
	err := e.transact(ctx, "start", func(tx Records) error {
		game, err := tx.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		actor, err := caller(ctx, tx, game, actorID)
		if err != nil {
			return err
		}
		if err := requireQM(game, actor); err != nil {
			return err
		}
		if err := requireGame(game, StatusInProgress); err != nil {
			return err
		}
		first, err = e.proposeRound(ctx, tx, game, nil)
		if err != nil {
			return err
		}
		if err := tx.UpdateGame(ctx, game.ID, GameUpdate{Status: ptr(StatusInProgress)}); err != nil {
			return err
		}
		revision, err = tx.TouchGame(ctx, game.ID)
		return err
	})
	if err != nil {
		return err
	}
	e.log.Info().Str("game_id", gameID).Int("round", first.Number).Msg("game started")
	e.emit(ctx, Event{GameID: gameID, Type: EventGameStarted, Revision: revision, RoundNumber: first.Number})
	return nil
}

// proposeRound inserts the round after the last one in rounds with a freshly
// drawn question.
func (e *Engine) proposeRound(ctx context.Context, tx Records, game Game, rounds []Round) (Round, error) {
	selector, err := e.selector(game)
	if err != nil {
		return Round{}, err
	}
	number := 1
	if last, ok := latestRound(rounds); ok {
		if last.Active() {
			return Round{}, invalid("round %d is still %s", last.Number, last.Status)
		}
		number = last.Number + 1
	}
	now := e.now()
	round := Round{
		ID:        e.newID(),
		GameID:    game.ID,
		Number:    number,
		Question:  selector.Draw(usedQuestions(rounds)),
		Status:    RoundProposed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.InsertRound(ctx, round); err != nil {
		return Round{}, err
	}
	return round, nil
}

// advance reacts to a scored round: the next round is proposed, or the game
// completes once the configured count is played.
func (e *Engine) advance(ctx context.Context, tx Records, game Game, scored Round) (bool, error) {
	if scored.Number >= game.RoundCount {
		if err := requireGame(game, StatusComplete); err != nil {
			return false, err
		}
		return true, tx.UpdateGame(ctx, game.ID, GameUpdate{Status: ptr(StatusComplete)})
	}
	rounds, err := tx.ListRounds(ctx, game.ID)
	if err != nil {
		return false, err
	}
	_, err = e.proposeRound(ctx, tx, game, rounds)
	return false, err
}

// ForceEnd completes an in-progress game immediately.
func (e *Engine) ForceEnd(ctx context.Context, gameID, actorID string) error {
	var revision int64
	err := e.transact(ctx, "force_end", func(tx Records) error {
		game, err := tx.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		actor, err := caller(ctx, tx, game, actorID)
		if err != nil {
			return err
		}
		if requireHost(game, actor) != nil && requireQM(game, actor) != nil {
			return invalid("only the host or question master can end the game")
		}
		if game.Status != StatusInProgress {
			return invalid("game is %s, cannot end", game.Status)
		}
		if err := tx.UpdateGame(ctx, game.ID, GameUpdate{Status: ptr(StatusComplete)}); err != nil {
			return err
		}
		revision, err = tx.TouchGame(ctx, game.ID)
		return err
	})
	if err != nil {
		return err
	}
	e.log.Info().Str("game_id", gameID).Str("reason", "forced").Msg("game completed")
	e.emit(ctx, Event{GameID: gameID, Type: EventGameCompleted, Revision: revision, PlayerID: actorID, Detail: "forced"})
	return nil
}

// Replay wipes rounds and answers, zeroes scores, draws a new seed, and
// returns the game to the lobby. Players are kept.
func (e *Engine) Replay(ctx context.Context, gameID, actorID string) error {
	var revision int64
	err := e.transact(ctx, "replay", func(tx Records) error {
		game, err := tx.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		actor, err := caller(ctx, tx, game, actorID)
		if err != nil {
			return err
		}
		if err := requireHost(game, actor); err != nil {
			return err
		}
		if err := requireGame(game, StatusLobby); err != nil {
			return err
		}
		seed := e.freshSeed(game.Seed)
		if err := tx.DeleteAnswers(ctx, game.ID); err != nil {
			return err
		}
		if err := tx.DeleteRounds(ctx, game.ID); err != nil {
			return err
		}
		if err := tx.UpdatePlayers(ctx, game.ID, PlayerUpdate{Score: ptr(0)}); err != nil {
			return err
		}
		if err := tx.UpdateGame(ctx, game.ID, GameUpdate{Status: ptr(StatusLobby), Seed: ptr(seed)}); err != nil {
			return err
		}
		revision, err = tx.TouchGame(ctx, game.ID)
		return err
	})
	if err != nil {
		return err
	}
	e.log.Info().Str("game_id", gameID).Msg("game reset for replay")
	e.emit(ctx, Event{GameID: gameID, Type: EventGameReplayed, Revision: revision})
	return nil
}

// freshSeed draws a seed that differs from current, flipping the low bit if
// the generator keeps repeating it.
func (e *Engine) freshSeed(current uint32) uint32 {
	seed := e.newSeed()
	for attempt := 1; seed == current && attempt < maxSeedAttempts; attempt++ {
		seed = e.newSeed()
	}
	if seed == current {
		seed ^= 1
	}
	return seed
}
