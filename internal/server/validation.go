package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength   = 20
	maxAnswerLength = 200
	maxCodeLength   = 12
)

var validatorOnce sync.Once

// textRules back the custom binding tags. resolveBindError reruns a failed
// rule to report its exact message.
var textRules = map[string]func(string) (string, error){
	"name":     validateName,
	"answer":   validateAnswer,
	"joincode": validateCode,
}

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		for tag, rule := range textRules {
			rule := rule
			_ = engine.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				_, err := rule(fl.Field().String())
				return err == nil
			})
		}
	})
}

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

// validateAnswer accepts any printable text, including an empty draft.
func validateAnswer(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", errors.New("answer must be valid UTF-8")
	}
	trimmed := normalizeText(text)
	if utf8.RuneCountInString(trimmed) > maxAnswerLength {
		return "", fmt.Errorf("answer must be %d characters or fewer", maxAnswerLength)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", errors.New("answer must not contain control characters")
		}
	}
	return trimmed, nil
}

func validateCode(code string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return "", errors.New("code is required")
	}
	if len(trimmed) > maxCodeLength {
		return "", errors.New("code is too long")
	}
	for _, r := range trimmed {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", errors.New("code contains unsupported characters")
		}
	}
	return trimmed, nil
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeText(trimmed) {
		return "", fmt.Errorf("%s contains unsupported characters", label)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

// isSafeText accepts printable letters, digits, and common punctuation.
func isSafeText(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '"', '.', ',', '!', '?', ':', ';', '&', '(', ')', '/', '#', '%', '+', '$':
			continue
		default:
			return false
		}
	}
	return true
}
