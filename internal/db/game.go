package db

import "time"

type Game struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Code       string    `gorm:"size:12;uniqueIndex;not null"`
	Status     string    `gorm:"size:32;not null"`
	HostID     string    `gorm:"size:36;not null"`
	QMID       string    `gorm:"column:qm_id;size:36"`
	RoundCount int       `gorm:"not null;default:5"`
	Seed       int64     `gorm:"not null"`
	Revision   int64     `gorm:"not null;default:1"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
	Players    []Player
	Rounds     []Round
	Events     []Event
}
