package game

import (
	"context"
	"time"
)

const (
	EventGameCreated     = "game_created"
	EventPlayerJoined    = "player_joined"
	EventQMAssigned      = "qm_assigned"
	EventSettingsUpdated = "settings_updated"
	EventGameStarted     = "game_started"
	EventRoundProposed   = "round_proposed"
	EventQuestionSkipped = "question_skipped"
	EventRoundApproved   = "round_approved"
	EventAnswerSaved     = "answer_saved"
	EventAnswersRevealed = "answers_revealed"
	EventAnswerJudged    = "answer_judged"
	EventRoundScored     = "round_scored"
	EventGameCompleted   = "game_completed"
	EventGameReplayed    = "game_replayed"
	EventStoreChanged    = "store_changed"
)

// Event describes a committed change to a game. Observers treat every
// event as a hint to re-fetch; the payload is informational.
type Event struct {
	GameID      string    `json:"game_id"`
	Type        string    `json:"type"`
	Revision    int64     `json:"revision,omitempty"`
	RoundNumber int       `json:"round_number,omitempty"`
	PlayerID    string    `json:"player_id,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	At          time.Time `json:"at"`
}

type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// Sinks fans an event out to every sink, returning the first error.
type Sinks []EventSink

func (s Sinks) Publish(ctx context.Context, event Event) error {
	var first error
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
