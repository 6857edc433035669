package game

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrEmptyBank         = errors.New("question bank is empty")
	ErrAlreadySubmitted  = errors.New("answer already submitted")
	ErrStoreUnavailable  = errors.New("store unavailable")

	ErrPlayersStillAnswering = fmt.Errorf("%w: players still answering", ErrInvalidTransition)

	// Unique-key violations reported by stores.
	ErrCodeTaken = errors.New("join code already in use")
	ErrNameTaken = errors.New("name already taken in this game")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}
