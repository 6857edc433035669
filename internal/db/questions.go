package db

import (
	"context"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"party-trivia/internal/game"
)

// ImportQuestions inserts any question text not already in the bank and
// returns how many rows were created. Entries NormalizeBank rejects are
// skipped.
func ImportQuestions(ctx context.Context, conn *gorm.DB, texts []string) (int, error) {
	created := 0
	err := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, text := range game.NormalizeBank(texts) {
			row := Question{Text: text}
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "text"}},
				DoNothing: true,
			}).Create(&row)
			if result.Error != nil {
				return result.Error
			}
			created += int(result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, classify(err)
	}
	return created, nil
}

// ListQuestions returns the bank in insertion order.
func ListQuestions(ctx context.Context, conn *gorm.DB) ([]string, error) {
	var texts []string
	if err := conn.WithContext(ctx).Model(&Question{}).Order("id asc").Pluck("text", &texts).Error; err != nil {
		return nil, classify(err)
	}
	return texts, nil
}
