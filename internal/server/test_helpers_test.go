package server

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"party-trivia/internal/config"
	"party-trivia/internal/feed"
	"party-trivia/internal/game"
)

var testQuestions = []string{
	"What is my favorite color?",
	"Where was I born?",
	"What did I eat for breakfast?",
	"What is my dream job?",
}

type testApp struct {
	server *Server
	engine *game.Engine
	store  *game.MemoryStore
	broker *feed.Broker
}

func newTestApp(t *testing.T, bank []string) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := game.NewMemoryStore()
	broker := feed.NewBroker()
	engine, err := game.NewEngine(game.Options{
		Store:      store,
		Bank:       bank,
		Events:     broker,
		Logger:     zerolog.Nop(),
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	observer := feed.NewObserver(engine, feed.ObserverConfig{
		Notifiers:    []feed.Notifier{broker},
		PollInterval: time.Second,
		Logger:       zerolog.Nop(),
	})
	srv := New(engine, config.Default(), Options{Observer: observer, Logger: zerolog.Nop()})
	return &testApp{server: srv, engine: engine, store: store, broker: broker}
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}
