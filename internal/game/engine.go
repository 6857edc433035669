package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var DefaultRoundOptions = []int{3, 5, 7, 10, 12}

const DefaultRoundCount = 5

// Options wires the engine's collaborators. Zero values fall back to
// production defaults.
type Options struct {
	Store        Store
	Bank         []string
	Events       EventSink
	Logger       zerolog.Logger
	RoundOptions []int
	DefaultRound int
	Retries      int
	RetryDelay   time.Duration
	NewID        func() string
	NewSeed      func() uint32
	NewCode      func() string
	Now          func() time.Time
}

// Engine applies the game and round state machines against a Store. Every
// operation validates the caller's role before touching any row.
type Engine struct {
	store        Store
	bank         []string
	events       EventSink
	log          zerolog.Logger
	roundOptions []int
	defaultRound int
	retries      int
	retryDelay   time.Duration
	newID        func() string
	newSeed      func() uint32
	newCode      func() string
	now          func() time.Time
}

func NewEngine(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("engine requires a store")
	}
	e := &Engine{
		store:        opts.Store,
		bank:         NormalizeBank(opts.Bank),
		events:       opts.Events,
		log:          opts.Logger,
		roundOptions: opts.RoundOptions,
		defaultRound: opts.DefaultRound,
		retries:      opts.Retries,
		retryDelay:   opts.RetryDelay,
		newID:        opts.NewID,
		newSeed:      opts.NewSeed,
		newCode:      opts.NewCode,
		now:          opts.Now,
	}
	if len(e.roundOptions) == 0 {
		e.roundOptions = DefaultRoundOptions
	}
	if e.defaultRound == 0 {
		e.defaultRound = DefaultRoundCount
	}
	if !e.validRoundCount(e.defaultRound) {
		return nil, fmt.Errorf("default round count %d is not one of %v", e.defaultRound, e.roundOptions)
	}
	if e.retries <= 0 {
		e.retries = 3
	}
	if e.retryDelay <= 0 {
		e.retryDelay = 100 * time.Millisecond
	}
	if dropped := longQuestions(opts.Bank); dropped > 0 {
		e.log.Warn().Int("dropped", dropped).Int("max_length", MaxQuestionLength).Msg("question bank entries too long")
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.newSeed == nil {
		e.newSeed = NewSeed
	}
	if e.newCode == nil {
		e.newCode = NewJoinCode
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	return e, nil
}

func longQuestions(bank []string) int {
	count := 0
	for _, question := range bank {
		if utf8.RuneCountInString(strings.TrimSpace(question)) > MaxQuestionLength {
			count++
		}
	}
	return count
}

func (e *Engine) RoundOptions() []int {
	return append([]int(nil), e.roundOptions...)
}

func (e *Engine) BankSize() int {
	return len(e.bank)
}

func (e *Engine) validRoundCount(n int) bool {
	for _, option := range e.roundOptions {
		if option == n {
			return true
		}
	}
	return false
}

// transact runs fn in one store transaction, retrying the whole step while
// the store reports itself unavailable.
func (e *Engine) transact(ctx context.Context, op string, fn func(tx Records) error) error {
	return e.retry(ctx, op, e.store.Transact, fn)
}

// view is transact for read-only steps.
func (e *Engine) view(ctx context.Context, op string, fn func(tx Records) error) error {
	return e.retry(ctx, op, e.store.View, fn)
}

func (e *Engine) retry(ctx context.Context, op string, run func(context.Context, func(Records) error) error, fn func(tx Records) error) error {
	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		if attempt > 0 {
			delay := e.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		err := run(ctx, fn)
		if err == nil {
			if attempt > 0 {
				e.log.Info().Str("op", op).Int("attempt", attempt+1).Msg("transition succeeded after retry")
			}
			return nil
		}
		if !errors.Is(err, ErrStoreUnavailable) {
			return err
		}
		lastErr = err
		e.log.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("store unavailable, retrying")
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, e.retries+1, lastErr)
}

func (e *Engine) emit(ctx context.Context, event Event) {
	if e.events == nil {
		return
	}
	if event.At.IsZero() {
		event.At = e.now()
	}
	if err := e.events.Publish(ctx, event); err != nil {
		e.log.Error().Err(err).Str("game_id", event.GameID).Str("type", event.Type).Msg("failed to publish event")
	}
}

// caller resolves the acting player and checks they belong to the game.
func caller(ctx context.Context, tx Records, game Game, playerID string) (Player, error) {
	if strings.TrimSpace(playerID) == "" {
		return Player{}, invalid("player_id is required")
	}
	player, err := tx.GetPlayer(ctx, playerID)
	if err != nil {
		return Player{}, err
	}
	if player.GameID != game.ID {
		return Player{}, invalid("player is not in this game")
	}
	return player, nil
}

func requireQM(game Game, player Player) error {
	if !player.IsQM || game.QMID != player.ID {
		return invalid("only the question master can do that")
	}
	return nil
}

func requireHost(game Game, player Player) error {
	if !player.IsHost || game.HostID != player.ID {
		return invalid("only the host can do that")
	}
	return nil
}

func (e *Engine) selector(game Game) (*Selector, error) {
	if len(e.bank) == 0 {
		return nil, ErrEmptyBank
	}
	return NewSelector(e.bank, game.Seed)
}
