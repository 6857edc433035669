package db

import (
	"time"

	"gorm.io/datatypes"
)

type Round struct {
	ID        string         `gorm:"primaryKey;size:36"`
	GameID    string         `gorm:"size:36;index;not null;uniqueIndex:idx_rounds_game_number"`
	Number    int            `gorm:"not null;uniqueIndex:idx_rounds_game_number"`
	Question  string         `gorm:"size:280;not null"`
	Status    string         `gorm:"size:32;not null"`
	Skipped   datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
	Answers   []Answer
}
