package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"party-trivia/internal/game"
)

// Store implements game.Store on top of Postgres.
type Store struct {
	records
	conn *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{records: records{db: conn}, conn: conn}
}

// Transact runs fn inside a single database transaction. Row locks taken by
// LockGame are held until fn returns.
func (s *Store) Transact(ctx context.Context, fn func(tx game.Records) error) error {
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(records{db: tx})
	})
	return classify(err)
}

// viewOptions pins every statement of a View to the snapshot taken by its
// first query.
var viewOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// View runs fn in a read-only REPEATABLE READ transaction so every read
// sees the same committed state.
func (s *Store) View(ctx context.Context, fn func(tx game.Records) error) error {
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(records{db: tx})
	}, viewOptions)
	return classify(err)
}

type records struct {
	db *gorm.DB
}

func (r records) with(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r records) GetGame(ctx context.Context, id string) (game.Game, error) {
	var row Game
	if err := r.with(ctx).First(&row, "id = ?", id).Error; err != nil {
		return game.Game{}, classify(err)
	}
	return row.toGame(), nil
}

func (r records) GetGameByCode(ctx context.Context, code string) (game.Game, error) {
	var row Game
	err := r.with(ctx).Where("upper(code) = ?", strings.ToUpper(code)).First(&row).Error
	if err != nil {
		return game.Game{}, classify(err)
	}
	return row.toGame(), nil
}

func (r records) LockGame(ctx context.Context, id string) (game.Game, error) {
	var row Game
	err := r.with(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "id = ?", id).Error
	if err != nil {
		return game.Game{}, classify(err)
	}
	return row.toGame(), nil
}

func (r records) InsertGame(ctx context.Context, g game.Game) error {
	row := gameRow(g)
	if err := r.with(ctx).Omit("Players", "Rounds", "Events").Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return game.ErrCodeTaken
		}
		return classify(err)
	}
	return nil
}

func (r records) UpdateGame(ctx context.Context, id string, update game.GameUpdate) error {
	values := gameUpdates(update)
	if len(values) == 0 {
		return nil
	}
	result := r.with(ctx).Model(&Game{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: game", game.ErrNotFound)
	}
	return nil
}

func (r records) TouchGame(ctx context.Context, id string) (int64, error) {
	result := r.with(ctx).Model(&Game{}).Where("id = ?", id).
		Update("revision", gorm.Expr("revision + 1"))
	if result.Error != nil {
		return 0, classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: game", game.ErrNotFound)
	}
	var revision int64
	err := r.with(ctx).Model(&Game{}).Where("id = ?", id).Select("revision").Scan(&revision).Error
	if err != nil {
		return 0, classify(err)
	}
	return revision, nil
}

func (r records) GetPlayer(ctx context.Context, id string) (game.Player, error) {
	var row Player
	if err := r.with(ctx).First(&row, "id = ?", id).Error; err != nil {
		return game.Player{}, classify(err)
	}
	return row.toPlayer(), nil
}

func (r records) ListPlayers(ctx context.Context, gameID string) ([]game.Player, error) {
	var rows []Player
	err := r.with(ctx).Where("game_id = ?", gameID).Order("joined_at asc, id asc").Find(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	players := make([]game.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, row.toPlayer())
	}
	return players, nil
}

func (r records) InsertPlayer(ctx context.Context, p game.Player) error {
	row := playerRow(p)
	if err := r.with(ctx).Omit("Answers").Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return game.ErrNameTaken
		}
		return classify(err)
	}
	return nil
}

func playerUpdates(update game.PlayerUpdate) map[string]any {
	values := map[string]any{}
	if update.IsQM != nil {
		values["is_qm"] = *update.IsQM
	}
	switch {
	case update.Score != nil:
		values["score"] = *update.Score + update.ScoreDelta
	case update.ScoreDelta != 0:
		values["score"] = gorm.Expr("score + ?", update.ScoreDelta)
	}
	return values
}

func (r records) UpdatePlayer(ctx context.Context, id string, update game.PlayerUpdate) error {
	values := playerUpdates(update)
	if len(values) == 0 {
		return nil
	}
	result := r.with(ctx).Model(&Player{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: player", game.ErrNotFound)
	}
	return nil
}

func (r records) UpdatePlayers(ctx context.Context, gameID string, update game.PlayerUpdate) error {
	values := playerUpdates(update)
	if len(values) == 0 {
		return nil
	}
	err := r.with(ctx).Model(&Player{}).Where("game_id = ?", gameID).Updates(values).Error
	return classify(err)
}

func (r records) ListRounds(ctx context.Context, gameID string) ([]game.Round, error) {
	var rows []Round
	if err := r.with(ctx).Where("game_id = ?", gameID).Order("number asc").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	rounds := make([]game.Round, 0, len(rows))
	for _, row := range rows {
		round, err := row.toRound()
		if err != nil {
			return nil, fmt.Errorf("decode round %s: %w", row.ID, err)
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}

func (r records) InsertRound(ctx context.Context, round game.Round) error {
	row, err := roundRow(round)
	if err != nil {
		return err
	}
	return classify(r.with(ctx).Omit("Answers").Create(&row).Error)
}

func (r records) UpdateRound(ctx context.Context, id string, update game.RoundUpdate) error {
	values := map[string]any{}
	if update.Question != nil {
		values["question"] = *update.Question
	}
	if update.Status != nil {
		values["status"] = string(*update.Status)
	}
	if update.Skipped != nil {
		skipped, err := encodeSkipped(update.Skipped)
		if err != nil {
			return err
		}
		values["skipped"] = skipped
	}
	if len(values) == 0 {
		return nil
	}
	result := r.with(ctx).Model(&Round{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: round", game.ErrNotFound)
	}
	return nil
}

func (r records) DeleteRounds(ctx context.Context, gameID string) error {
	return classify(r.with(ctx).Where("game_id = ?", gameID).Delete(&Round{}).Error)
}

func (r records) ListAnswers(ctx context.Context, roundID string) ([]game.Answer, error) {
	var rows []Answer
	err := r.with(ctx).
		Joins("JOIN players ON players.id = answers.player_id").
		Where("answers.round_id = ?", roundID).
		Order("players.joined_at asc, players.id asc").
		Find(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	answers := make([]game.Answer, 0, len(rows))
	for _, row := range rows {
		answers = append(answers, row.toAnswer())
	}
	return answers, nil
}

func (r records) InsertAnswers(ctx context.Context, answers []game.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	rows := make([]Answer, 0, len(answers))
	for _, answer := range answers {
		rows = append(rows, answerRow(answer))
	}
	return classify(r.with(ctx).Create(&rows).Error)
}

func (r records) UpdateAnswer(ctx context.Context, id string, update game.AnswerUpdate) error {
	values := answerUpdates(update)
	if len(values) == 0 {
		return nil
	}
	result := r.with(ctx).Model(&Answer{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: answer", game.ErrNotFound)
	}
	return nil
}

func (r records) UpdateAnswers(ctx context.Context, roundID string, update game.AnswerUpdate) error {
	values := answerUpdates(update)
	if len(values) == 0 {
		return nil
	}
	return classify(r.with(ctx).Model(&Answer{}).Where("round_id = ?", roundID).Updates(values).Error)
}

func (r records) DeleteAnswers(ctx context.Context, gameID string) error {
	rounds := r.with(ctx).Model(&Round{}).Select("id").Where("game_id = ?", gameID)
	return classify(r.with(ctx).Where("round_id IN (?)", rounds).Delete(&Answer{}).Error)
}
