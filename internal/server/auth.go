package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"party-trivia/internal/game"
)

const tokenHeader = "X-Player-Token"

var errUnauthorized = errors.New("invalid player authentication")

// authenticatePlayer loads the game and checks that playerID belongs to it
// and presented its session token.
func (s *Server) authenticatePlayer(ctx context.Context, gameID, playerID, token string) (game.Snapshot, game.Player, error) {
	snap, err := s.engine.Snapshot(ctx, gameID)
	if err != nil {
		return game.Snapshot{}, game.Player{}, err
	}
	player, ok := snap.Player(strings.TrimSpace(playerID))
	if !ok {
		return snap, game.Player{}, errUnauthorized
	}
	provided := strings.TrimSpace(token)
	if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(player.Token)) != 1 {
		return snap, game.Player{}, errUnauthorized
	}
	return snap, player, nil
}

func requestToken(c *gin.Context) string {
	if token := c.GetHeader(tokenHeader); token != "" {
		return token
	}
	return c.Query("token")
}
