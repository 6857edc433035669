package game

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps every table in process memory. Transactions run against
// a private copy that replaces the live data only when fn succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	data  *memData
	fault func(op string) error
}

type memData struct {
	seq     int
	games   map[string]Game
	players map[string]Player
	joined  map[string]int
	rounds  map[string]Round
	answers map[string]Answer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData()}
}

func newMemData() *memData {
	return &memData{
		games:   make(map[string]Game),
		players: make(map[string]Player),
		joined:  make(map[string]int),
		rounds:  make(map[string]Round),
		answers: make(map[string]Answer),
	}
}

func (d *memData) clone() *memData {
	out := newMemData()
	out.seq = d.seq
	for id, game := range d.games {
		out.games[id] = game
	}
	for id, player := range d.players {
		out.players[id] = player
	}
	for id, order := range d.joined {
		out.joined[id] = order
	}
	for id, round := range d.rounds {
		round.Skipped = append([]string(nil), round.Skipped...)
		out.rounds[id] = round
	}
	for id, answer := range d.answers {
		out.answers[id] = answer
	}
	return out
}

// SetFault installs a hook consulted before every table operation; a non-nil
// return aborts that operation. Used to simulate store outages.
func (s *MemoryStore) SetFault(fault func(op string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fault
}

func (s *MemoryStore) Transact(ctx context.Context, fn func(tx Records) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	working := s.data.clone()
	if err := fn(&memTx{data: working, fault: s.fault}); err != nil {
		return err
	}
	s.data = working
	return nil
}

// View runs fn on a private copy that is thrown away afterwards.
func (s *MemoryStore) View(ctx context.Context, fn func(tx Records) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&memTx{data: s.data.clone(), fault: s.fault})
}

func (s *MemoryStore) live() (*memTx, func()) {
	s.mu.Lock()
	return &memTx{data: s.data, fault: s.fault}, s.mu.Unlock
}

func (s *MemoryStore) GetGame(ctx context.Context, id string) (Game, error) {
	tx, unlock := s.live()
	defer unlock()
	return tx.GetGame(ctx, id)
}

func (s *MemoryStore) GetGameByCode(ctx context.Context, code string) (Game, error) {
	tx, unlock := s.live()
	defer unlock()
	return tx.GetGameByCode(ctx, code)
}

func (s *MemoryStore) LockGame(ctx context.Context, id string) (Game, error) {
	tx, unlock := s.live()
	defer unlock()
	return tx.LockGame(ctx, id)
}

func (s *MemoryStore) InsertGame(ctx context.Context, game Game) error {
	tx, unlock := s.live()
	defer unlock()
	return tx.InsertGame(ctx, game)
}

func (s *MemoryStore) UpdateGame(ctx context.Context, id string, update GameUpdate) error {
	tx, unlock := s.live()
	defer unlock()
	return tx.UpdateGame(ctx, id, update)
}

func (s *MemoryStore) TouchGame(ctx context.Context, id string) (int64, error) {
	tx, unlock := s.live()
	defer unlock()
	return tx.TouchGame(ctx, id)
}

func (s *MemoryStore) GetPlayer(ctx context.Context, id string) (Player, error) {
	tx, unlock := s.live()
	defer unlock()
	return tx.GetPlayer(ctx, id)
}

func (s *MemoryStore) ListPlayers(ctx context.Context, gameID string) ([]Player, error) {
	tx, unlock := s.live()
	defer unlock()
	return tx.ListPlayers(ctx, gameID)
}

func (s *MemoryStore) InsertPlayer(ctx context.Context, player Player) error {
	tx, unlock := s.live()
	defer unlock()
	return tx.InsertPlayer(ctx, player)
}

func (s *MemoryStore) UpdatePlayer(ctx context.Context, id string, update PlayerUpdate) error {
	tx, unlock := s.live()
	defer unlock()
	return tx.UpdatePlayer(ctx, id, update)
}

func (s *MemoryStore) UpdatePlayers(ctx context.Context, gameID string, update PlayerUpdate) error {
	tx, unlock := s.live()
	defer unlock()
	return tx.UpdatePlayers(ctx, gameID, update)
}

func (s *MemoryStore) ListRounds(ctx context.Context, gameID string) ([]Round, error) {
	tx, unlock := s.live()
	defer unlock()
	return tx.ListRounds(ctx, gameID)
}

func (s *MemoryStore) InsertRound(ctx context.Context, round Round) error {
	tx, unlock := s.live()
	defer unlock()
	return tx.InsertRound(ctx, round)
}

func (s *MemoryStore) UpdateRound(ctx context.Context, id string, update RoundUpdate) error {
	tx, unlock := s.live()
	defer unlock()
	return tx.UpdateRound(ctx, id, update)
}

func (s *MemoryStore) DeleteRounds(ctx context.Context, gameID string) error {
	tx, unlock := s.live()
	defer unlock()
	return tx.DeleteRounds(ctx, gameID)
}

func (s *MemoryStore) ListAnswers(ctx context.Context, roundID string) ([]Answer, error) {
	tx, unlock := s.live()
	defer unlock()
	return tx.ListAnswers(ctx, roundID)
}

func (s *MemoryStore) InsertAnswers(ctx context.Context, answers []Answer) error {
	tx, unlock := s.live()
	defer unlock()
	return tx.InsertAnswers(ctx, answers)
}

func (s *MemoryStore) UpdateAnswer(ctx context.Context, id string, update AnswerUpdate) error {
	tx, unlock := s.live()
	defer unlock()
	return tx.UpdateAnswer(ctx, id, update)
}

func (s *MemoryStore) UpdateAnswers(ctx context.Context, roundID string, update AnswerUpdate) error {
	tx, unlock := s.live()
	defer unlock()
	return tx.UpdateAnswers(ctx, roundID, update)
}

func (s *MemoryStore) DeleteAnswers(ctx context.Context, gameID string) error {
	tx, unlock := s.live()
	defer unlock()
	return tx.DeleteAnswers(ctx, gameID)
}

type memTx struct {
	data  *memData
	fault func(op string) error
}

func (t *memTx) check(op string) error {
	if t.fault == nil {
		return nil
	}
	if err := t.fault(op); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (t *memTx) GetGame(ctx context.Context, id string) (Game, error) {
	if err := t.check("get_game"); err != nil {
		return Game{}, err
	}
	game, ok := t.data.games[id]
	if !ok {
		return Game{}, notFound("game")
	}
	return game, nil
}

func (t *memTx) GetGameByCode(ctx context.Context, code string) (Game, error) {
	if err := t.check("get_game_by_code"); err != nil {
		return Game{}, err
	}
	for _, game := range t.data.games {
		if strings.EqualFold(game.Code, code) {
			return game, nil
		}
	}
	return Game{}, notFound("game")
}

func (t *memTx) LockGame(ctx context.Context, id string) (Game, error) {
	return t.GetGame(ctx, id)
}

func (t *memTx) InsertGame(ctx context.Context, game Game) error {
	if err := t.check("insert_game"); err != nil {
		return err
	}
	if _, exists := t.data.games[game.ID]; exists {
		return fmt.Errorf("game %s already exists", game.ID)
	}
	for _, existing := range t.data.games {
		if strings.EqualFold(existing.Code, game.Code) {
			return ErrCodeTaken
		}
	}
	t.data.games[game.ID] = game
	return nil
}

func (t *memTx) UpdateGame(ctx context.Context, id string, update GameUpdate) error {
	if err := t.check("update_game"); err != nil {
		return err
	}
	game, ok := t.data.games[id]
	if !ok {
		return notFound("game")
	}
	if update.Status != nil {
		game.Status = *update.Status
	}
	if update.QMID != nil {
		game.QMID = *update.QMID
	}
	if update.RoundCount != nil {
		game.RoundCount = *update.RoundCount
	}
	if update.Seed != nil {
		game.Seed = *update.Seed
	}
	t.data.games[id] = game
	return nil
}

func (t *memTx) TouchGame(ctx context.Context, id string) (int64, error) {
	if err := t.check("touch_game"); err != nil {
		return 0, err
	}
	game, ok := t.data.games[id]
	if !ok {
		return 0, notFound("game")
	}
	game.Revision++
	t.data.games[id] = game
	return game.Revision, nil
}

func (t *memTx) GetPlayer(ctx context.Context, id string) (Player, error) {
	if err := t.check("get_player"); err != nil {
		return Player{}, err
	}
	player, ok := t.data.players[id]
	if !ok {
		return Player{}, notFound("player")
	}
	return player, nil
}

func (t *memTx) ListPlayers(ctx context.Context, gameID string) ([]Player, error) {
	if err := t.check("list_players"); err != nil {
		return nil, err
	}
	list := make([]Player, 0)
	for _, player := range t.data.players {
		if player.GameID == gameID {
			list = append(list, player)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return t.data.joined[list[i].ID] < t.data.joined[list[j].ID]
	})
	return list, nil
}

func (t *memTx) InsertPlayer(ctx context.Context, player Player) error {
	if err := t.check("insert_player"); err != nil {
		return err
	}
	if _, ok := t.data.games[player.GameID]; !ok {
		return notFound("game")
	}
	for _, existing := range t.data.players {
		if existing.GameID == player.GameID && strings.EqualFold(existing.Name, player.Name) {
			return ErrNameTaken
		}
	}
	t.data.seq++
	t.data.players[player.ID] = player
	t.data.joined[player.ID] = t.data.seq
	return nil
}

func applyPlayerUpdate(player Player, update PlayerUpdate) Player {
	if update.IsQM != nil {
		player.IsQM = *update.IsQM
	}
	if update.Score != nil {
		player.Score = *update.Score
	}
	player.Score += update.ScoreDelta
	return player
}

func (t *memTx) UpdatePlayer(ctx context.Context, id string, update PlayerUpdate) error {
	if err := t.check("update_player"); err != nil {
		return err
	}
	player, ok := t.data.players[id]
	if !ok {
		return notFound("player")
	}
	t.data.players[id] = applyPlayerUpdate(player, update)
	return nil
}

func (t *memTx) UpdatePlayers(ctx context.Context, gameID string, update PlayerUpdate) error {
	if err := t.check("update_players"); err != nil {
		return err
	}
	for id, player := range t.data.players {
		if player.GameID == gameID {
			t.data.players[id] = applyPlayerUpdate(player, update)
		}
	}
	return nil
}

func (t *memTx) ListRounds(ctx context.Context, gameID string) ([]Round, error) {
	if err := t.check("list_rounds"); err != nil {
		return nil, err
	}
	list := make([]Round, 0)
	for _, round := range t.data.rounds {
		if round.GameID == gameID {
			round.Skipped = append([]string(nil), round.Skipped...)
			list = append(list, round)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Number < list[j].Number
	})
	return list, nil
}

func (t *memTx) InsertRound(ctx context.Context, round Round) error {
	if err := t.check("insert_round"); err != nil {
		return err
	}
	for _, existing := range t.data.rounds {
		if existing.GameID == round.GameID && existing.Number == round.Number {
			return fmt.Errorf("round %d already exists", round.Number)
		}
	}
	round.Skipped = append([]string(nil), round.Skipped...)
	t.data.rounds[round.ID] = round
	return nil
}

func (t *memTx) UpdateRound(ctx context.Context, id string, update RoundUpdate) error {
	if err := t.check("update_round"); err != nil {
		return err
	}
	round, ok := t.data.rounds[id]
	if !ok {
		return notFound("round")
	}
	if update.Question != nil {
		round.Question = *update.Question
	}
	if update.Status != nil {
		round.Status = *update.Status
	}
	if update.Skipped != nil {
		round.Skipped = append([]string(nil), update.Skipped...)
	}
	t.data.rounds[id] = round
	return nil
}

func (t *memTx) DeleteRounds(ctx context.Context, gameID string) error {
	if err := t.check("delete_rounds"); err != nil {
		return err
	}
	for id, round := range t.data.rounds {
		if round.GameID == gameID {
			delete(t.data.rounds, id)
		}
	}
	return nil
}

func (t *memTx) ListAnswers(ctx context.Context, roundID string) ([]Answer, error) {
	if err := t.check("list_answers"); err != nil {
		return nil, err
	}
	list := make([]Answer, 0)
	for _, answer := range t.data.answers {
		if answer.RoundID == roundID {
			list = append(list, answer)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return t.data.joined[list[i].PlayerID] < t.data.joined[list[j].PlayerID]
	})
	return list, nil
}

func (t *memTx) InsertAnswers(ctx context.Context, answers []Answer) error {
	for _, answer := range answers {
		if err := t.check("insert_answer"); err != nil {
			return err
		}
		for _, existing := range t.data.answers {
			if existing.RoundID == answer.RoundID && existing.PlayerID == answer.PlayerID {
				return fmt.Errorf("answer for player %s already exists", answer.PlayerID)
			}
		}
		t.data.answers[answer.ID] = answer
	}
	return nil
}

func applyAnswerUpdate(answer Answer, update AnswerUpdate) Answer {
	if update.Content != nil {
		answer.Content = *update.Content
	}
	if update.Done != nil {
		answer.Done = *update.Done
	}
	if update.Verdict != nil {
		answer.Verdict = *update.Verdict
	}
	if update.Revealed != nil {
		answer.Revealed = *update.Revealed
	}
	return answer
}

func (t *memTx) UpdateAnswer(ctx context.Context, id string, update AnswerUpdate) error {
	if err := t.check("update_answer"); err != nil {
		return err
	}
	answer, ok := t.data.answers[id]
	if !ok {
		return notFound("answer")
	}
	t.data.answers[id] = applyAnswerUpdate(answer, update)
	return nil
}

func (t *memTx) UpdateAnswers(ctx context.Context, roundID string, update AnswerUpdate) error {
	if err := t.check("update_answers"); err != nil {
		return err
	}
	for id, answer := range t.data.answers {
		if answer.RoundID == roundID {
			t.data.answers[id] = applyAnswerUpdate(answer, update)
		}
	}
	return nil
}

func (t *memTx) DeleteAnswers(ctx context.Context, gameID string) error {
	if err := t.check("delete_answers"); err != nil {
		return err
	}
	for id, answer := range t.data.answers {
		if round, ok := t.data.rounds[answer.RoundID]; ok && round.GameID == gameID {
			delete(t.data.answers, id)
		}
	}
	return nil
}
