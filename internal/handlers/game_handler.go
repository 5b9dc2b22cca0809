package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tmaziere/ouroboros/internal/arena"
	"github.com/tmaziere/ouroboros/internal/protocol"
	"github.com/tmaziere/ouroboros/pkg/logx"
)

type GameHandler struct {
	coordinator  *arena.Coordinator
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
}

func NewGameHandler(router *chi.Mux, coordinator *arena.Coordinator, allowedOrigins []string, writeTimeout time.Duration) {
	gameHandler := GameHandler{
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		writeTimeout: writeTimeout,
	}

	router.Get("/health", gameHandler.health)
	router.Get("/status", gameHandler.status)
	router.Get("/join", gameHandler.join)
}

// originChecker admits browser connections from the configured origins.
// An empty list admits everyone. Non-browser clients send no Origin header
// and always pass.
func originChecker(allowedOrigins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowedOrigins) == 0 {
			return true
		}
		for _, allowed := range allowedOrigins {
			if allowed == origin || allowed == "*" {
				return true
			}
		}
		return false
	}
}

func (gameHandler GameHandler) health(w http.ResponseWriter, r *http.Request) {
	encode(map[string]string{"status": "ok"}, w)
}

func (gameHandler GameHandler) status(w http.ResponseWriter, r *http.Request) {
	encode(gameHandler.coordinator.Status(), w)
}

func (gameHandler GameHandler) join(w http.ResponseWriter, r *http.Request) {
	connection, err := gameHandler.upgrader.Upgrade(w, r, nil)

	if err != nil {
		logx.Logger.Errorw(err.Error(), zap.String("desc", "could not upgrade http request"))
		return
	}

	stream := protocol.NewStream(protocol.NewWSFramer(connection, gameHandler.writeTimeout))

	if !gameHandler.coordinator.Enqueue(stream) {
		logx.Logger.Warnw("waiting queue is full, refusing connection", "remote", stream.RemoteAddr())
		stream.Close()
	}
}
