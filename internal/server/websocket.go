package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"party-trivia/internal/feed"
	"party-trivia/internal/game"
)

const wsWriteTimeout = 5 * time.Second

// wsHub keeps the sockets watching each game. A game with at least one
// socket has one observer; every socket keeps its own view and receives
// only what its viewer may see.
type wsHub struct {
	mu       sync.Mutex
	observer *feed.Observer
	groups   map[string]*wsGroup
	log      zerolog.Logger
}

type wsGroup struct {
	clients map[*wsClient]struct{}
	cancel  context.CancelFunc
}

type wsClient struct {
	conn     *websocket.Conn
	viewerID string
	view     feed.View
	writeMu  sync.Mutex
}

func newWSHub(observer *feed.Observer, log zerolog.Logger) *wsHub {
	return &wsHub{
		observer: observer,
		groups:   make(map[string]*wsGroup),
		log:      log,
	}
}

func (h *wsHub) Add(gameID string, client *wsClient) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameID]
	if group == nil {
		ctx, cancel := context.WithCancel(context.Background())
		snaps, err := h.observer.Watch(ctx, gameID)
		if err != nil {
			cancel()
			return err
		}
		group = &wsGroup{clients: make(map[*wsClient]struct{}), cancel: cancel}
		h.groups[gameID] = group
		go h.pump(ctx, gameID, group, snaps)
	}
	group.clients[client] = struct{}{}
	return nil
}

func (h *wsHub) Remove(gameID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = client.conn.Close()
	group := h.groups[gameID]
	if group == nil {
		return
	}
	delete(group.clients, client)
	if len(group.clients) == 0 {
		group.cancel()
		delete(h.groups, gameID)
	}
}

func (h *wsHub) clients(gameID string) []*wsClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameID]
	if group == nil {
		return nil
	}
	list := make([]*wsClient, 0, len(group.clients))
	for client := range group.clients {
		list = append(list, client)
	}
	return list
}

// pump forwards observed snapshots until the observer stops. A group whose
// observer stopped on its own is dropped and its sockets closed, so the next
// connection for the game starts a fresh watch.
func (h *wsHub) pump(ctx context.Context, gameID string, group *wsGroup, snaps <-chan game.Snapshot) {
	for snap := range snaps {
		h.Reconcile(gameID, snap)
	}
	if ctx.Err() != nil {
		return
	}
	h.mu.Lock()
	if h.groups[gameID] == group {
		delete(h.groups, gameID)
	}
	orphans := make([]*wsClient, 0, len(group.clients))
	for client := range group.clients {
		orphans = append(orphans, client)
	}
	h.mu.Unlock()
	group.cancel()
	h.log.Info().Str("game_id", gameID).Int("clients", len(orphans)).Msg("ws observer stopped")
	for _, client := range orphans {
		_ = client.conn.Close()
	}
}

// Reconcile replaces every socket's view with an observed snapshot.
func (h *wsHub) Reconcile(gameID string, snap game.Snapshot) {
	for _, client := range h.clients(gameID) {
		if client.view.Reconcile(snap) {
			h.push(gameID, client, snap, false)
		}
	}
}

// ApplyLocal pushes the result of a transition this process just committed
// without waiting for the observer.
func (h *wsHub) ApplyLocal(gameID string, snap game.Snapshot) {
	for _, client := range h.clients(gameID) {
		if client.view.ApplyLocal(snap) {
			h.push(gameID, client, snap, true)
		}
	}
}

func (h *wsHub) push(gameID string, client *wsClient, snap game.Snapshot, tentative bool) {
	if err := client.send(snapshotMessage(snap, client.viewerID, tentative)); err != nil {
		h.log.Debug().Err(err).Str("game_id", gameID).Msg("ws write failed")
		h.Remove(gameID, client)
	}
}

func (c *wsClient) send(payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.write(payload)
}

// write requires writeMu.
func (c *wsClient) write(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func snapshotMessage(snap game.Snapshot, viewerID string, tentative bool) map[string]any {
	return map[string]any{
		"type":      "snapshot",
		"tentative": tentative,
		"snapshot":  snapshotPayload(snap, viewerID),
	}
}

type wsQuery struct {
	PlayerID string `form:"player_id"`
	Token    string `form:"token"`
}

func (s *Server) handleWebsocket(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	var query wsQuery
	if !bindQuery(c, &query) {
		return
	}
	snap, viewerID, err := s.viewerSnapshot(c.Request.Context(), uri.GameID, query.PlayerID, query.Token)
	if err != nil {
		s.writeEngineError(c, "ws", err)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn, viewerID: viewerID}
	client.view.Reconcile(snap)

	// Hold the write lock so nothing pushed by the hub overtakes the first
	// snapshot.
	client.writeMu.Lock()
	if err := s.hub.Add(uri.GameID, client); err != nil {
		client.writeMu.Unlock()
		s.log.Error().Err(err).Str("game_id", uri.GameID).Msg("ws watch failed")
		_ = conn.Close()
		return
	}
	err = client.write(snapshotMessage(snap, viewerID, false))
	client.writeMu.Unlock()
	if err != nil {
		s.hub.Remove(uri.GameID, client)
		return
	}
	s.log.Info().Str("game_id", uri.GameID).Str("player_id", viewerID).Str("remote", c.Request.RemoteAddr).Msg("ws connected")
	go s.readWS(uri.GameID, client)
}

func (s *Server) readWS(gameID string, client *wsClient) {
	defer s.hub.Remove(gameID, client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			s.log.Info().Str("game_id", gameID).Str("player_id", client.viewerID).Err(err).Msg("ws disconnected")
			return
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
