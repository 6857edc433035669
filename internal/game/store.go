package game

import "context"

// Records is the table-level contract of the shared store. Lookups of a
// missing row return an error wrapping ErrNotFound; transient I/O failures
// wrap ErrStoreUnavailable.
type Records interface {
	GetGame(ctx context.Context, id string) (Game, error)
	GetGameByCode(ctx context.Context, code string) (Game, error)
	// LockGame reads a game and holds it against concurrent transitions
	// until the surrounding transaction ends.
	LockGame(ctx context.Context, id string) (Game, error)
	InsertGame(ctx context.Context, game Game) error
	UpdateGame(ctx context.Context, id string, update GameUpdate) error
	// TouchGame bumps the game's revision and returns the new value.
	TouchGame(ctx context.Context, id string) (int64, error)

	GetPlayer(ctx context.Context, id string) (Player, error)
	// ListPlayers returns the game's players in join order.
	ListPlayers(ctx context.Context, gameID string) ([]Player, error)
	InsertPlayer(ctx context.Context, player Player) error
	UpdatePlayer(ctx context.Context, id string, update PlayerUpdate) error
	UpdatePlayers(ctx context.Context, gameID string, update PlayerUpdate) error

	// ListRounds returns the game's rounds ordered by number.
	ListRounds(ctx context.Context, gameID string) ([]Round, error)
	InsertRound(ctx context.Context, round Round) error
	UpdateRound(ctx context.Context, id string, update RoundUpdate) error
	DeleteRounds(ctx context.Context, gameID string) error

	ListAnswers(ctx context.Context, roundID string) ([]Answer, error)
	InsertAnswers(ctx context.Context, answers []Answer) error
	UpdateAnswer(ctx context.Context, id string, update AnswerUpdate) error
	UpdateAnswers(ctx context.Context, roundID string, update AnswerUpdate) error
	DeleteAnswers(ctx context.Context, gameID string) error
}

// Store adds all-or-nothing transactions on top of Records.
type Store interface {
	Records
	Transact(ctx context.Context, fn func(tx Records) error) error
	// View runs read-only fn against a single point-in-time view of the
	// store. Writes made through tx are discarded or refused.
	View(ctx context.Context, fn func(tx Records) error) error
}

func latestRound(rounds []Round) (Round, bool) {
	if len(rounds) == 0 {
		return Round{}, false
	}
	return rounds[len(rounds)-1], true
}
