package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"party-trivia/internal/game"
)

type gameURI struct {
	GameID string `uri:"gameID" binding:"required"`
}

type createRequest struct {
	Name   string `json:"name" binding:"required,name"`
	Rounds int    `json:"rounds"`
}

type joinRequest struct {
	Code string `json:"code" binding:"required,joincode"`
	Name string `json:"name" binding:"required,name"`
}

type actorRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
}

type assignQMRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	TargetID string `json:"target_id" binding:"required"`
}

type settingsRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Rounds   int    `json:"rounds" binding:"required"`
}

type answerRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Content  string `json:"content" binding:"answer"`
	Done     bool   `json:"done"`
}

type judgeRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	TargetID string `json:"target_id" binding:"required"`
	Correct  *bool  `json:"correct" binding:"required"`
}

type scoreRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Round    int    `json:"round" binding:"gte=0"`
}

type snapshotQuery struct {
	PlayerID string `form:"player_id"`
}

type eventsQuery struct {
	Limit int `form:"limit" binding:"gte=0,lte=100"`
}

var (
	nameMessages = bindMessages{
		"Name": {"required": "name is required"},
	}
	joinMessages = bindMessages{
		"Code": {"required": "code is required"},
		"Name": nameMessages["Name"],
	}
	actorMessages = bindMessages{
		"PlayerID": {"required": "player_id is required"},
		"TargetID": {"required": "target_id is required"},
		"Rounds":   {"required": "rounds is required"},
		"Correct":  {"required": "correct is required"},
		"Round":    {"gte": "round must not be negative"},
	}
)

func (s *Server) handleSettingsOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"round_options":  s.engine.RoundOptions(),
		"default_rounds": s.cfg.DefaultRounds,
		"bank_size":      s.engine.BankSize(),
	})
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createRequest
	if !bindJSON(c, &req, nameMessages, "invalid create request") {
		return
	}
	g, host, err := s.engine.CreateGame(c.Request.Context(), normalizeText(req.Name), req.Rounds)
	if err != nil {
		s.writeEngineError(c, "create_game", err)
		return
	}
	s.respondSeat(c, http.StatusCreated, g, host)
}

func (s *Server) handleJoinGame(c *gin.Context) {
	var req joinRequest
	if !bindJSON(c, &req, joinMessages, "invalid join request") {
		return
	}
	code, _ := validateCode(req.Code)
	g, player, err := s.engine.JoinGame(c.Request.Context(), code, normalizeText(req.Name), requestToken(c))
	if err != nil {
		s.writeEngineError(c, "join_game", err)
		return
	}
	s.respondSeat(c, http.StatusOK, g, player)
}

// respondSeat hands a player their id and session token.
func (s *Server) respondSeat(c *gin.Context, status int, g game.Game, player game.Player) {
	snap, err := s.engine.Snapshot(c.Request.Context(), g.ID)
	if err != nil {
		s.writeEngineError(c, "snapshot", err)
		return
	}
	s.hub.ApplyLocal(g.ID, snap)
	c.JSON(status, gin.H{
		"game_id":   g.ID,
		"code":      g.Code,
		"player_id": player.ID,
		"token":     player.Token,
		"snapshot":  snapshotPayload(snap, player.ID),
	})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	var query snapshotQuery
	if !bindQuery(c, &query) {
		return
	}
	snap, viewerID, err := s.viewerSnapshot(c.Request.Context(), uri.GameID, query.PlayerID, requestToken(c))
	if err != nil {
		s.writeEngineError(c, "snapshot", err)
		return
	}
	c.JSON(http.StatusOK, snapshotPayload(snap, viewerID))
}

// viewerSnapshot reads a game for a spectator, or for playerID once its token
// checks out.
func (s *Server) viewerSnapshot(ctx context.Context, gameID, playerID, token string) (game.Snapshot, string, error) {
	if strings.TrimSpace(playerID) == "" {
		snap, err := s.engine.Snapshot(ctx, gameID)
		return snap, "", err
	}
	snap, player, err := s.authenticatePlayer(ctx, gameID, playerID, token)
	if err != nil {
		return game.Snapshot{}, "", err
	}
	return snap, player.ID, nil
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	snap, err := s.engine.Snapshot(c.Request.Context(), uri.GameID)
	if err != nil {
		s.writeEngineError(c, "leaderboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"game_id":     snap.Game.ID,
		"status":      snap.Game.Status,
		"leaderboard": standingsPayload(game.Leaderboard(snap.Players)),
		"winners":     standingsPayload(game.Winners(snap.Players)),
	})
}

func (s *Server) handleEvents(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	var query eventsQuery
	if !bindQuery(c, &query) {
		return
	}
	if _, err := s.engine.Snapshot(c.Request.Context(), uri.GameID); err != nil {
		s.writeEngineError(c, "events", err)
		return
	}
	events := []game.Event{}
	if s.events != nil {
		list, err := s.events.List(c.Request.Context(), uri.GameID, query.Limit)
		if err != nil {
			s.writeEngineError(c, "events", err)
			return
		}
		events = list
	}
	c.JSON(http.StatusOK, gin.H{"game_id": uri.GameID, "events": events})
}

// act authenticates playerID, runs one transition, and answers with the
// state it produced.
func (s *Server) act(c *gin.Context, op, playerID string, fn func(ctx context.Context, gameID, actorID string) error) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	ctx := c.Request.Context()
	_, actor, err := s.authenticatePlayer(ctx, uri.GameID, playerID, requestToken(c))
	if err != nil {
		s.writeEngineError(c, op, err)
		return
	}
	err = fn(ctx, uri.GameID, actor.ID)
	alreadySubmitted := errors.Is(err, game.ErrAlreadySubmitted)
	if err != nil && !alreadySubmitted {
		s.writeEngineError(c, op, err)
		return
	}
	snap, err := s.engine.Snapshot(ctx, uri.GameID)
	if err != nil {
		s.writeEngineError(c, "snapshot", err)
		return
	}
	s.hub.ApplyLocal(uri.GameID, snap)
	resp := gin.H{
		"ok":       true,
		"snapshot": snapshotPayload(snap, actor.ID),
	}
	if alreadySubmitted {
		resp["already_submitted"] = true
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAssignQM(c *gin.Context) {
	var req assignQMRequest
	if !bindJSON(c, &req, actorMessages, "invalid qm request") {
		return
	}
	s.act(c, "assign_qm", req.PlayerID, func(ctx context.Context, gameID, actorID string) error {
		return s.engine.AssignQM(ctx, gameID, actorID, req.TargetID)
	})
}

func (s *Server) handleSetRoundCount(c *gin.Context) {
	var req settingsRequest
	if !bindJSON(c, &req, actorMessages, "invalid settings request") {
		return
	}
	s.act(c, "set_round_count", req.PlayerID, func(ctx context.Context, gameID, actorID string) error {
		return s.engine.SetRoundCount(ctx, gameID, actorID, req.Rounds)
	})
}

func (s *Server) handleStart(c *gin.Context) {
	s.simpleAction(c, "start", s.engine.Start)
}

func (s *Server) handleApprove(c *gin.Context) {
	s.simpleAction(c, "approve", s.engine.Approve)
}

func (s *Server) handleSkip(c *gin.Context) {
	s.simpleAction(c, "skip", s.engine.Skip)
}

func (s *Server) handleReveal(c *gin.Context) {
	s.simpleAction(c, "reveal", s.engine.Reveal)
}

func (s *Server) handleForceEnd(c *gin.Context) {
	s.simpleAction(c, "force_end", s.engine.ForceEnd)
}

func (s *Server) handleReplay(c *gin.Context) {
	s.simpleAction(c, "replay", s.engine.Replay)
}

func (s *Server) simpleAction(c *gin.Context, op string, fn func(ctx context.Context, gameID, actorID string) error) {
	var req actorRequest
	if !bindJSON(c, &req, actorMessages, "invalid "+op+" request") {
		return
	}
	s.act(c, op, req.PlayerID, fn)
}

func (s *Server) handleSubmitAnswer(c *gin.Context) {
	var req answerRequest
	if !bindJSON(c, &req, actorMessages, "invalid answer") {
		return
	}
	content, _ := validateAnswer(req.Content)
	s.act(c, "submit_answer", req.PlayerID, func(ctx context.Context, gameID, actorID string) error {
		return s.engine.SubmitAnswer(ctx, gameID, actorID, game.AnswerInput{Content: content, Done: req.Done})
	})
}

func (s *Server) handleJudge(c *gin.Context) {
	var req judgeRequest
	if !bindJSON(c, &req, actorMessages, "invalid judgment") {
		return
	}
	s.act(c, "judge", req.PlayerID, func(ctx context.Context, gameID, actorID string) error {
		return s.engine.Judge(ctx, gameID, actorID, req.TargetID, *req.Correct)
	})
}

func (s *Server) handleScore(c *gin.Context) {
	var req scoreRequest
	if !bindJSON(c, &req, actorMessages, "invalid score request") {
		return
	}
	s.act(c, "score", req.PlayerID, func(ctx context.Context, gameID, actorID string) error {
		return s.engine.Score(ctx, gameID, actorID, req.Round)
	})
}
