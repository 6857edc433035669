package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultQuestions is the bank used when no file or database rows are
// configured.
var DefaultQuestions = []string{
	"What is my favorite food?",
	"Where would I go on a dream vacation?",
	"What was my first job?",
	"What is my biggest fear?",
	"Which song would I pick for karaoke?",
	"What is my go-to coffee or tea order?",
	"What did I want to be when I grew up?",
	"What is my most used emoji?",
	"Which movie could I watch over and over?",
	"What is my hidden talent?",
	"What is my least favorite chore?",
	"Who was my childhood celebrity crush?",
	"What would I buy first if I won the lottery?",
	"What is my comfort TV show?",
	"Which season do I like best?",
	"What is my favorite board or card game?",
	"What is my worst habit?",
	"Which superpower would I choose?",
	"What is my favorite dessert?",
	"What was the name of my first pet?",
	"What is my dream car?",
	"Am I a morning person or a night owl?",
	"What is my favorite holiday?",
	"Which city would I most like to live in?",
	"What is the last book I enjoyed?",
	"What is my signature dance move?",
	"What pizza topping would I never order?",
	"Which fictional character am I most like?",
	"What is my favorite way to spend a Sunday?",
	"What is the best gift I ever received?",
}

type questionFile struct {
	Questions []string `yaml:"questions"`
}

// ReadQuestionFile loads a question bank from CSV or YAML. CSV files carry a
// header row and take the question from the last column, so both a single
// "text" column and "category,text" rows work. YAML files hold either a
// top-level list or a "questions" key.
func ReadQuestionFile(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readQuestionCSV(path)
	case ".yaml", ".yml":
		return readQuestionYAML(path)
	default:
		return nil, fmt.Errorf("unsupported question file %q: want .csv, .yaml or .yml", path)
	}
}

// QuestionBank resolves the bank from QuestionBankPath, falling back to
// DefaultQuestions.
func (c Config) QuestionBank() ([]string, error) {
	if c.QuestionBankPath == "" {
		return append([]string(nil), DefaultQuestions...), nil
	}
	questions, err := ReadQuestionFile(c.QuestionBankPath)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, errors.New("question file has no questions")
	}
	return questions, nil
}

func readQuestionCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var questions []string
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		text := strings.TrimSpace(row[len(row)-1])
		if text == "" {
			continue
		}
		questions = append(questions, text)
	}
	return questions, nil
}

func readQuestionYAML(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return trimAll(list), nil
	}
	var doc questionFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return trimAll(doc.Questions), nil
}

func trimAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
