package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ROUND_OPTIONS", "3, 6,9")
	t.Setenv("DEFAULT_ROUNDS", "6")
	t.Setenv("POLL_SECONDS", "0")
	t.Setenv("STORE_RETRIES", "0")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LOG_LEVEL", " DEBUG ")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if !reflect.DeepEqual(cfg.RoundOptions, []int{3, 6, 9}) || cfg.DefaultRounds != 6 {
		t.Fatalf("unexpected rounds config %v / %d", cfg.RoundOptions, cfg.DefaultRounds)
	}
	if cfg.PollSeconds != Default().PollSeconds {
		t.Fatalf("expected invalid poll seconds to keep default, got %d", cfg.PollSeconds)
	}
	if cfg.StoreRetries != 0 {
		t.Fatalf("expected zero retries to be allowed, got %d", cfg.StoreRetries)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"http://a.test", "http://b.test"}) {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected normalized log level, got %q", cfg.LogLevel)
	}
}

func TestLoadRejectsBadRoundOptions(t *testing.T) {
	t.Setenv("ROUND_OPTIONS", "3,x,5")
	if got := Load().RoundOptions; !reflect.DeepEqual(got, Default().RoundOptions) {
		t.Fatalf("expected defaults for malformed options, got %v", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}

func TestReadQuestionFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.csv")
	content := "category,text\nfood,What is my favorite food?\nmisc, \ntravel,Where would I go?\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadQuestionFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"What is my favorite food?", "Where would I go?"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestReadQuestionFileYAML(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.yaml")
	docPath := filepath.Join(dir, "doc.yml")
	if err := os.WriteFile(listPath, []byte("- One?\n- \"  Two?  \"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(docPath, []byte("questions:\n  - Three?\n  - Four?\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	list, err := ReadQuestionFile(listPath)
	if err != nil || !reflect.DeepEqual(list, []string{"One?", "Two?"}) {
		t.Fatalf("unexpected list result %v, %v", list, err)
	}
	doc, err := ReadQuestionFile(docPath)
	if err != nil || !reflect.DeepEqual(doc, []string{"Three?", "Four?"}) {
		t.Fatalf("unexpected doc result %v, %v", doc, err)
	}
}

func TestReadQuestionFileRejectsUnknownExtension(t *testing.T) {
	if _, err := ReadQuestionFile("questions.txt"); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestQuestionBankDefaults(t *testing.T) {
	bank, err := Default().QuestionBank()
	if err != nil {
		t.Fatalf("question bank: %v", err)
	}
	if len(bank) != len(DefaultQuestions) {
		t.Fatalf("expected built-in bank, got %d questions", len(bank))
	}
	bank[0] = "changed"
	if DefaultQuestions[0] == "changed" {
		t.Fatalf("question bank must be a copy")
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"
	log := cfg.NewLogger(&buf)
	log.Info().Msg("hidden")
	log.Warn().Str("game_id", "g1").Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"game_id":"g1"`) {
		t.Fatalf("unexpected log output %q", out)
	}
}
