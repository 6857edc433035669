package game

import (
	"strings"
	"unicode/utf8"
)

// MaxQuestionLength bounds a question in characters; the question columns
// are sized to match.
const MaxQuestionLength = 280

// Selector draws questions from a bank in a playlist order derived from a
// seed, so every process holding the same seed and history draws the same
// question.
type Selector struct {
	bank     []string
	playlist []int
}

func NewSelector(bank []string, seed uint32) (*Selector, error) {
	cleaned := NormalizeBank(bank)
	if len(cleaned) == 0 {
		return nil, ErrEmptyBank
	}
	return &Selector{
		bank:     cleaned,
		playlist: Shuffle(seed, len(cleaned)),
	}, nil
}

// NormalizeBank trims entries and drops blanks, duplicates, and entries
// longer than MaxQuestionLength, keeping first-seen order.
func NormalizeBank(bank []string) []string {
	seen := make(map[string]struct{}, len(bank))
	cleaned := make([]string, 0, len(bank))
	for _, question := range bank {
		question = strings.TrimSpace(question)
		if question == "" || utf8.RuneCountInString(question) > MaxQuestionLength {
			continue
		}
		if _, ok := seen[question]; ok {
			continue
		}
		seen[question] = struct{}{}
		cleaned = append(cleaned, question)
	}
	return cleaned
}

// Draw returns the next playlist question not in used. Once every question
// has been used the playlist repeats from the position len(used) % size.
func (s *Selector) Draw(used []string) string {
	seen := make(map[string]struct{}, len(used))
	for _, question := range used {
		seen[question] = struct{}{}
	}
	for _, index := range s.playlist {
		if _, ok := seen[s.bank[index]]; !ok {
			return s.bank[index]
		}
	}
	return s.bank[s.playlist[len(used)%len(s.playlist)]]
}

// Next draws count questions in sequence, treating each drawn question as
// used for the following draw.
func (s *Selector) Next(used []string, count int) []string {
	if count <= 0 {
		return nil
	}
	history := append([]string(nil), used...)
	picked := make([]string, 0, count)
	for len(picked) < count {
		question := s.Draw(history)
		picked = append(picked, question)
		history = append(history, question)
	}
	return picked
}

func (s *Selector) Size() int {
	return len(s.bank)
}

// usedQuestions lists every question drawn in a game, skipped ones included.
func usedQuestions(rounds []Round) []string {
	used := make([]string, 0, len(rounds))
	for _, round := range rounds {
		used = append(used, round.Skipped...)
		if round.Question != "" {
			used = append(used, round.Question)
		}
	}
	return used
}
