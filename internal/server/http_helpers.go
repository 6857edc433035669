package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"party-trivia/internal/game"
)

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// statusFor maps engine errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrEmptyBank):
		return http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, game.ErrInvalidTransition),
		errors.Is(err, game.ErrNameTaken),
		errors.Is(err, game.ErrCodeTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeEngineError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	event := s.log.Warn()
	if status >= http.StatusInternalServerError {
		event = s.log.Error()
	}
	event.Err(err).
		Str("op", op).
		Str("game_id", c.Param("gameID")).
		Int("status", status).
		Msg("request failed")
	writeError(c, status, errorMessage(err, status))
}

func errorMessage(err error, status int) string {
	switch {
	case errors.Is(err, game.ErrPlayersStillAnswering):
		return "players are still answering"
	case status == http.StatusServiceUnavailable:
		return "store unavailable, try again"
	case status == http.StatusInternalServerError:
		return "internal error"
	}
	// Sentinel prefixes carry no extra value for clients.
	msg := err.Error()
	for _, sentinel := range []error{game.ErrInvalidTransition, game.ErrNotFound} {
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return msg
}
