package db

import "time"

type Player struct {
	ID        string    `gorm:"primaryKey;size:36"`
	GameID    string    `gorm:"size:36;index;not null;uniqueIndex:idx_players_game_name"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_players_game_name"`
	IsHost    bool      `gorm:"not null;default:false"`
	IsQM      bool      `gorm:"column:is_qm;not null;default:false"`
	Score     int       `gorm:"not null;default:0"`
	Token     string    `gorm:"size:64;not null"`
	JoinedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Answers   []Answer
}
