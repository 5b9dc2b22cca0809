package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tmaziere/ouroboros/internal/arena"
	"github.com/tmaziere/ouroboros/internal/protocol"
)

func newTestHandler(allowedOrigins []string) (*chi.Mux, *arena.Coordinator) {
	coordinator := arena.NewCoordinator(arena.Options{
		MaxClients:   4,
		Width:        20,
		Height:       20,
		TurnInterval: 5 * time.Millisecond,
		TurnDeadline: time.Second,
		LobbyPoll:    5 * time.Millisecond,
		Heartbeat:    20 * time.Millisecond,
	}, nil)

	router := chi.NewRouter()
	NewGameHandler(router, coordinator, allowedOrigins, time.Second)
	return router, coordinator
}

func TestHealth(t *testing.T) {
	router, _ := newTestHandler(nil)
	server := httptest.NewServer(router)
	defer server.Close()

	response, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", response.StatusCode, http.StatusOK)
	}
	if got := response.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("content type = %q, want application/json", got)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("reading body failed: %v", err)
	}
	if got := string(body); got != `{"status":"ok"}` {
		t.Errorf("body = %s", got)
	}
}

func TestStatusSnapshot(t *testing.T) {
	router, _ := newTestHandler(nil)
	server := httptest.NewServer(router)
	defer server.Close()

	response, err := http.Get(server.URL + "/status")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer response.Body.Close()

	var status arena.Status
	if err := json.NewDecoder(response.Body).Decode(&status); err != nil {
		t.Fatalf("decoding status failed: %v", err)
	}
	if status.Phase != arena.PhaseLobby {
		t.Errorf("phase = %q, want %q", status.Phase, arena.PhaseLobby)
	}
	if status.Players != 0 {
		t.Errorf("players = %d, want 0", status.Players)
	}
}

func TestJoinDeliversLobbyHeartbeat(t *testing.T) {
	router, coordinator := newTestHandler(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coordinator.Run(ctx)

	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws://" + strings.TrimPrefix(server.URL, "http://") + "/join"
	connection, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer connection.Close()

	connection.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := connection.ReadMessage()
	if err != nil {
		t.Fatalf("reading lobby frame failed: %v", err)
	}

	message, err := protocol.Decode[protocol.EventMessage](frame)
	if err != nil {
		t.Fatalf("decoding lobby frame failed: %v", err)
	}
	if message.Event != protocol.EventWaitInLobby {
		t.Errorf("event = %q, want %q", message.Event, protocol.EventWaitInLobby)
	}
}

func TestJoinRejectsForeignOrigin(t *testing.T) {
	router, _ := newTestHandler([]string{"http://app.example"})
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws://" + strings.TrimPrefix(server.URL, "http://") + "/join"

	header := http.Header{"Origin": {"http://evil.example"}}
	_, response, err := websocket.DefaultDialer.Dial(url, header)
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("dial error = %v, want bad handshake", err)
	}
	if response.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", response.StatusCode, http.StatusForbidden)
	}

	header = http.Header{"Origin": {"http://app.example"}}
	connection, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial with allowed origin failed: %v", err)
	}
	connection.Close()
}
