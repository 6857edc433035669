package db

import "time"

type Answer struct {
	ID        string    `gorm:"primaryKey;size:36"`
	RoundID   string    `gorm:"size:36;index;not null;uniqueIndex:idx_answers_round_player"`
	PlayerID  string    `gorm:"size:36;index;not null;uniqueIndex:idx_answers_round_player"`
	Content   string    `gorm:"type:text;not null;default:''"`
	Done      bool      `gorm:"not null;default:false"`
	Verdict   string    `gorm:"size:16;not null;default:''"`
	Revealed  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
