package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"party-trivia/internal/config"
	"party-trivia/internal/feed"
	"party-trivia/internal/game"
)

// EventLister reads a game's audit trail.
type EventLister interface {
	List(ctx context.Context, gameID string, limit int) ([]game.Event, error)
}

type Options struct {
	// Observer feeds websocket clients. Defaults to a poll-only observer of
	// the engine.
	Observer *feed.Observer
	Events   EventLister
	Logger   zerolog.Logger
}

type Server struct {
	engine *game.Engine
	hub    *wsHub
	events EventLister
	cfg    config.Config
	log    zerolog.Logger
}

func New(engine *game.Engine, cfg config.Config, opts Options) *Server {
	observer := opts.Observer
	if observer == nil {
		observer = feed.NewObserver(engine, feed.ObserverConfig{
			PollInterval: time.Duration(cfg.PollSeconds) * time.Second,
			Logger:       opts.Logger,
		})
	}
	return &Server{
		engine: engine,
		hub:    newWSHub(observer, opts.Logger),
		events: opts.Events,
		cfg:    cfg,
		log:    opts.Logger,
	}
}

func (s *Server) Handler() http.Handler {
	registerValidators()
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/settings", s.handleSettingsOptions)
	api.POST("/games", s.handleCreateGame)
	api.POST("/games/join", s.handleJoinGame)

	games := api.Group("/games/:gameID")
	games.GET("", s.handleSnapshot)
	games.GET("/leaderboard", s.handleLeaderboard)
	games.GET("/events", s.handleEvents)
	games.POST("/qm", s.handleAssignQM)
	games.POST("/settings", s.handleSetRoundCount)
	games.POST("/start", s.handleStart)
	games.POST("/approve", s.handleApprove)
	games.POST("/skip", s.handleSkip)
	games.POST("/answers", s.handleSubmitAnswer)
	games.POST("/reveal", s.handleReveal)
	games.POST("/judgments", s.handleJudge)
	games.POST("/score", s.handleScore)
	games.POST("/end", s.handleForceEnd)
	games.POST("/replay", s.handleReplay)

	router.GET("/ws/games/:gameID", s.handleWebsocket)
	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
