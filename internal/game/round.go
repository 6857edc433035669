package game

import (
	"context"
	"errors"
)

// AnswerInput is a player's submission. Done finalizes it.
type AnswerInput struct {
	Content string
	Done    bool
}

type roundContext struct {
	game   Game
	actor  Player
	rounds []Round
	round  Round
}

// loadRound locks the game, resolves the caller, and finds the newest round.
func loadRound(ctx context.Context, tx Records, gameID, actorID string) (roundContext, error) {
	var rc roundContext
	game, err := tx.LockGame(ctx, gameID)
	if err != nil {
		return rc, err
	}
	actor, err := caller(ctx, tx, game, actorID)
	if err != nil {
		return rc, err
	}
	if game.Status != StatusInProgress {
		return rc, invalid("game is %s", game.Status)
	}
	rounds, err := tx.ListRounds(ctx, game.ID)
	if err != nil {
		return rc, err
	}
	round, ok := latestRound(rounds)
	if !ok {
		return rc, notFound("round")
	}
	return roundContext{game: game, actor: actor, rounds: rounds, round: round}, nil
}

// Approve locks in the proposed question and opens collection: one empty
// answer row per non-QM player is written in the same transaction.
func (e *Engine) Approve(ctx context.Context, gameID, actorID string) error {
	var (
		revision int64
		number   int
		fanout   int
	)
	err := e.transact(ctx, "approve", func(tx Records) error {
		rc, err := loadRound(ctx, tx, gameID, actorID)
		if err != nil {
			return err
		}
		if err := requireQM(rc.game, rc.actor); err != nil {
			return err
		}
		if err := requireRound(rc.round, RoundApproved); err != nil {
			return err
		}
		players, err := tx.ListPlayers(ctx, rc.game.ID)
		if err != nil {
			return err
		}
		answers := make([]Answer, 0, len(players))
		for _, player := range players {
			if player.ID == rc.game.QMID {
				continue
			}
			answers = append(answers, Answer{
				ID:       e.newID(),
				RoundID:  rc.round.ID,
				PlayerID: player.ID,
			})
		}
		if err := tx.InsertAnswers(ctx, answers); err != nil {
			return err
		}
		if err := tx.UpdateRound(ctx, rc.round.ID, RoundUpdate{Status: ptr(RoundCollecting)}); err != nil {
			return err
		}
		number = rc.round.Number
		fanout = len(answers)
		revision, err = tx.TouchGame(ctx, rc.game.ID)
		return err
	})
	if err != nil {
		return err
	}
	e.log.Info().Str("game_id", gameID).Int("round", number).Int("answers", fanout).Msg("round approved")
	e.emit(ctx, Event{GameID: gameID, Type: EventRoundApproved, Revision: revision, RoundNumber: number})
	return nil
}

// Skip replaces the proposed question with the next unused one.
func (e *Engine) Skip(ctx context.Context, gameID, actorID string) error {
	var (
		revision int64
		number   int
	)
	err := e.transact(ctx, "skip", func(tx Records) error {
		rc, err := loadRound(ctx, tx, gameID, actorID)
		if err != nil {
			return err
		}
		if err := requireQM(rc.game, rc.actor); err != nil {
			return err
		}
		if err := requireRound(rc.round, RoundSkipped); err != nil {
			return err
		}
		selector, err := e.selector(rc.game)
		if err != nil {
			return err
		}
		question := selector.Draw(usedQuestions(rc.rounds))
		skipped := append(append([]string(nil), rc.round.Skipped...), rc.round.Question)
		if err := tx.UpdateRound(ctx, rc.round.ID, RoundUpdate{
			Question: ptr(question),
			Status:   ptr(RoundProposed),
			Skipped:  skipped,
		}); err != nil {
			return err
		}
		number = rc.round.Number
		revision, err = tx.TouchGame(ctx, rc.game.ID)
		return err
	})
	if err != nil {
		return err
	}
	e.log.Info().Str("game_id", gameID).Int("round", number).Msg("question skipped")
	e.emit(ctx, Event{GameID: gameID, Type: EventQuestionSkipped, Revision: revision, RoundNumber: number})
	return nil
}

// SubmitAnswer saves the caller's answer. A finalized answer cannot change
// and further submissions return ErrAlreadySubmitted.
func (e *Engine) SubmitAnswer(ctx context.Context, gameID, actorID string, input AnswerInput) error {
	var (
		revision int64
		number   int
	)
	err := e.transact(ctx, "submit_answer", func(tx Records) error {
		rc, err := loadRound(ctx, tx, gameID, actorID)
		if err != nil {
			return err
		}
		if rc.round.Status != RoundCollecting {
			return invalid("round %d is not collecting answers", rc.round.Number)
		}
		if rc.actor.ID == rc.game.QMID {
			return invalid("the question master does not answer")
		}
		answers, err := tx.ListAnswers(ctx, rc.round.ID)
		if err != nil {
			return err
		}
		var mine *Answer
		for i := range answers {
			if answers[i].PlayerID == rc.actor.ID {
				mine = &answers[i]
				break
			}
		}
		switch {
		case mine == nil:
			if err := tx.InsertAnswers(ctx, []Answer{{
				ID:       e.newID(),
				RoundID:  rc.round.ID,
				PlayerID: rc.actor.ID,
				Content:  input.Content,
				Done:     input.Done,
			}}); err != nil {
				return err
			}
		case mine.Done:
			return ErrAlreadySubmitted
		default:
			if err := tx.UpdateAnswer(ctx, mine.ID, AnswerUpdate{
				Content: ptr(input.Content),
				Done:    ptr(input.Done),
			}); err != nil {
				return err
			}
		}
		number = rc.round.Number
		revision, err = tx.TouchGame(ctx, rc.game.ID)
		return err
	})
	if err != nil {
		return err
	}
	e.log.Debug().Str("game_id", gameID).Str("player_id", actorID).Bool("done", input.Done).Msg("answer saved")
	e.emit(ctx, Event{GameID: gameID, Type: EventAnswerSaved, Revision: revision, RoundNumber: number, PlayerID: actorID})
	return nil
}

// Reveal flips the round and all of its answers to revealed once every
// non-QM answer is done.
func (e *Engine) Reveal(ctx context.Context, gameID, actorID string) error {
	var (
		revision int64
		number   int
	)
	err := e.transact(ctx, "reveal", func(tx Records) error {
		rc, err := loadRound(ctx, tx, gameID, actorID)
		if err != nil {
			return err
		}
		if err := requireQM(rc.game, rc.actor); err != nil {
			return err
		}
		if err := requireRound(rc.round, RoundRevealed); err != nil {
			return err
		}
		answers, err := tx.ListAnswers(ctx, rc.round.ID)
		if err != nil {
			return err
		}
		for _, answer := range answers {
			if answer.PlayerID != rc.game.QMID && !answer.Done {
				return ErrPlayersStillAnswering
			}
		}
		if err := tx.UpdateAnswers(ctx, rc.round.ID, AnswerUpdate{Revealed: ptr(true)}); err != nil {
			return err
		}
		if err := tx.UpdateRound(ctx, rc.round.ID, RoundUpdate{Status: ptr(RoundRevealed)}); err != nil {
			return err
		}
		number = rc.round.Number
		revision, err = tx.TouchGame(ctx, rc.game.ID)
		return err
	})
	if err != nil {
		return err
	}
	e.log.Info().Str("game_id", gameID).Int("round", number).Msg("answers revealed")
	e.emit(ctx, Event{GameID: gameID, Type: EventAnswersRevealed, Revision: revision, RoundNumber: number})
	return nil
}

// Judge records the QM's verdict on one player's revealed answer. The last
// verdict wins.
func (e *Engine) Judge(ctx context.Context, gameID, actorID, targetID string, correct bool) error {
	verdict := VerdictIncorrect
	if correct {
		verdict = VerdictCorrect
	}
	var (
		revision int64
		number   int
	)
	err := e.transact(ctx, "judge", func(tx Records) error {
		rc, err := loadRound(ctx, tx, gameID, actorID)
		if err != nil {
			return err
		}
		if err := requireQM(rc.game, rc.actor); err != nil {
			return err
		}
		if rc.round.Status != RoundRevealed {
			return invalid("round %d is %s, answers are not open for judging", rc.round.Number, rc.round.Status)
		}
		if targetID == rc.game.QMID {
			return invalid("the question master's own answer is not judged")
		}
		answers, err := tx.ListAnswers(ctx, rc.round.ID)
		if err != nil {
			return err
		}
		for _, answer := range answers {
			if answer.PlayerID != targetID {
				continue
			}
			if !answer.Revealed {
				return invalid("answer is not revealed")
			}
			if err := tx.UpdateAnswer(ctx, answer.ID, AnswerUpdate{Verdict: ptr(verdict)}); err != nil {
				return err
			}
			number = rc.round.Number
			revision, err = tx.TouchGame(ctx, rc.game.ID)
			return err
		}
		return notFound("answer")
	})
	if err != nil {
		return err
	}
	e.log.Debug().Str("game_id", gameID).Str("player_id", targetID).Str("verdict", string(verdict)).Msg("answer judged")
	e.emit(ctx, Event{GameID: gameID, Type: EventAnswerJudged, Revision: revision, RoundNumber: number, PlayerID: targetID})
	return nil
}

// Score awards one point per correct non-QM answer, marks the round scored,
// and advances the game. number picks the round; zero means the newest.
// Scoring an already scored round changes nothing.
func (e *Engine) Score(ctx context.Context, gameID, actorID string, number int) error {
	var (
		revision  int64
		awarded   int
		completed bool
		repeated  bool
	)
	err := e.transact(ctx, "score", func(tx Records) error {
		repeated = false
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
		rounds, err := tx.ListRounds(ctx, game.ID)
		if err != nil {
			return err
		}
		round, ok := findRound(rounds, number)
		if !ok {
			return notFound("round")
		}
		if round.Status == RoundScored {
			repeated = true
			return nil
		}
		if game.Status != StatusInProgress {
			return invalid("game is %s", game.Status)
		}
		if err := requireRound(round, RoundScored); err != nil {
			return err
		}
		answers, err := tx.ListAnswers(ctx, round.ID)
		if err != nil {
			return err
		}
		awarded = 0
		for _, answer := range answers {
			if answer.Verdict != VerdictCorrect || answer.PlayerID == game.QMID {
				continue
			}
			if err := tx.UpdatePlayer(ctx, answer.PlayerID, PlayerUpdate{ScoreDelta: 1}); err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return err
			}
			awarded++
		}
		if err := tx.UpdateRound(ctx, round.ID, RoundUpdate{Status: ptr(RoundScored)}); err != nil {
			return err
		}
		round.Status = RoundScored
		completed, err = e.advance(ctx, tx, game, round)
		if err != nil {
			return err
		}
		number = round.Number
		revision, err = tx.TouchGame(ctx, game.ID)
		return err
	})
	if err != nil {
		return err
	}
	if repeated {
		e.log.Debug().Str("game_id", gameID).Msg("round already scored")
		return nil
	}
	e.log.Info().Str("game_id", gameID).Int("round", number).Int("awarded", awarded).Msg("round scored")
	e.emit(ctx, Event{GameID: gameID, Type: EventRoundScored, Revision: revision, RoundNumber: number})
	if completed {
		e.log.Info().Str("game_id", gameID).Str("reason", "rounds_played").Msg("game completed")
		e.emit(ctx, Event{GameID: gameID, Type: EventGameCompleted, Revision: revision, Detail: "rounds_played"})
	} else {
		e.emit(ctx, Event{GameID: gameID, Type: EventRoundProposed, Revision: revision, RoundNumber: number + 1})
	}
	return nil
}

func findRound(rounds []Round, number int) (Round, bool) {
	if number == 0 {
		return latestRound(rounds)
	}
	for _, round := range rounds {
		if round.Number == number {
			return round, true
		}
	}
	return Round{}, false
}
