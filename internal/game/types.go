package game

import "time"

type GameStatus string

const (
	StatusLobby      GameStatus = "lobby"
	StatusInProgress GameStatus = "in_progress"
	StatusComplete   GameStatus = "complete"
)

type RoundStatus string

const (
	RoundProposed   RoundStatus = "proposed"
	RoundApproved   RoundStatus = "approved"
	RoundCollecting RoundStatus = "collecting"
	RoundRevealed   RoundStatus = "revealed"
	RoundScored     RoundStatus = "scored"
	RoundSkipped    RoundStatus = "skipped"
)

type Verdict string

const (
	VerdictUnset     Verdict = ""
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
)

type Game struct {
	ID         string
	Code       string
	Status     GameStatus
	HostID     string
	QMID       string
	RoundCount int
	Seed       uint32
	Revision   int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Player struct {
	ID       string
	GameID   string
	Name     string
	IsHost   bool
	IsQM     bool
	Score    int
	Token    string
	JoinedAt time.Time
}

type Round struct {
	ID        string
	GameID    string
	Number    int
	Question  string
	Status    RoundStatus
	Skipped   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the round still needs the QM to act on it.
func (r Round) Active() bool {
	return r.Status != RoundScored
}

type Answer struct {
	ID       string
	RoundID  string
	PlayerID string
	Content  string
	Done     bool
	Verdict  Verdict
	Revealed bool
}

// GameUpdate carries the fields to overwrite; nil fields are left alone.
type GameUpdate struct {
	Status     *GameStatus
	QMID       *string
	RoundCount *int
	Seed       *uint32
}

type PlayerUpdate struct {
	IsQM       *bool
	Score      *int
	ScoreDelta int
}

type RoundUpdate struct {
	Question *string
	Status   *RoundStatus
	Skipped  []string
}

type AnswerUpdate struct {
	Content  *string
	Done     *bool
	Verdict  *Verdict
	Revealed *bool
}

func ptr[T any](v T) *T {
	return &v
}
