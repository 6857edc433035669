package db

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"party-trivia/internal/game"
)

const defaultEventLimit = 100

// EventLog appends every committed game event to the events table.
type EventLog struct {
	conn *gorm.DB
}

func NewEventLog(conn *gorm.DB) *EventLog {
	return &EventLog{conn: conn}
}

func (l *EventLog) Publish(ctx context.Context, event game.Event) error {
	if event.Type == game.EventStoreChanged {
		return nil
	}
	row, err := eventRow(event)
	if err != nil {
		return err
	}
	return classify(l.conn.WithContext(ctx).Create(&row).Error)
}

// List returns the most recent events for a game, oldest first.
func (l *EventLog) List(ctx context.Context, gameID string, limit int) ([]game.Event, error) {
	if limit <= 0 || limit > defaultEventLimit {
		limit = defaultEventLimit
	}
	var rows []Event
	err := l.conn.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("id desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	events := make([]game.Event, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		events = append(events, rows[i].toEvent())
	}
	return events, nil
}

func eventRow(event game.Event) (Event, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Event{}, err
	}
	row := Event{
		GameID:      event.GameID,
		RoundNumber: event.RoundNumber,
		Type:        event.Type,
		Revision:    event.Revision,
		Payload:     datatypes.JSON(payload),
		CreatedAt:   event.At,
	}
	if event.PlayerID != "" {
		playerID := event.PlayerID
		row.PlayerID = &playerID
	}
	return row, nil
}

func (r Event) toEvent() game.Event {
	var event game.Event
	if len(r.Payload) > 0 {
		_ = json.Unmarshal(r.Payload, &event)
	}
	event.GameID = r.GameID
	event.Type = r.Type
	event.Revision = r.Revision
	event.RoundNumber = r.RoundNumber
	if r.PlayerID != nil {
		event.PlayerID = *r.PlayerID
	}
	if event.At.IsZero() {
		event.At = r.CreatedAt
	}
	return event
}
