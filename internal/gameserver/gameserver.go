// Package gameserver assembles the arena: configuration, logging, the
// publisher, the coordinator and both front doors (raw TCP and HTTP).
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tmaziere/ouroboros/internal/arena"
	"github.com/tmaziere/ouroboros/internal/handlers"
	"github.com/tmaziere/ouroboros/internal/protocol"
	"github.com/tmaziere/ouroboros/internal/publisher"
	"github.com/tmaziere/ouroboros/pkg/logx"
)

// GameServer encapsulates all game server functionality
type GameServer struct {
	config      Config
	coordinator *arena.Coordinator
	pub         *publisher.Publisher
	router      *chi.Mux

	listener     net.Listener
	httpListener net.Listener
	httpServer   *http.Server
}

// NewGameServer creates a new game server with the provided configuration
func NewGameServer(config Config) *GameServer {
	logx.NewLogger(config.Log.File, config.Log.Level)

	pub := publisher.New(
		config.Publisher.Redis.Host,
		config.Publisher.Redis.Port,
		config.Publisher.Redis.Password,
		config.Publisher.Channel,
	)

	coordinator := arena.NewCoordinator(arena.Options{
		MaxClients:   config.Lobby.MaxClients,
		Width:        config.Game.Width,
		Height:       config.Game.Height,
		TurnInterval: config.Game.TurnInterval,
		TurnDeadline: config.Game.TurnDeadline,
		LobbyPoll:    config.Lobby.Poll,
		Heartbeat:    config.Lobby.Heartbeat,
	}, pub)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.Router.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handlers.NewGameHandler(router, coordinator, config.Router.AllowedOrigins, config.Game.WriteTimeout)

	return &GameServer{
		config:      config,
		coordinator: coordinator,
		pub:         pub,
		router:      router,
	}
}

// Listen binds both front doors without serving yet, so callers can learn
// the resolved addresses when listening on port 0.
func (gs *GameServer) Listen() error {
	listener, err := net.Listen("tcp", gs.config.Game.ListenAddr)
	if err != nil {
		return fmt.Errorf("bind game listener: %w", err)
	}

	httpListener, err := net.Listen("tcp", gs.config.Game.HTTPAddr)
	if err != nil {
		listener.Close()
		return fmt.Errorf("bind http listener: %w", err)
	}

	gs.listener = listener
	gs.httpListener = httpListener
	gs.httpServer = &http.Server{Handler: gs.router}
	return nil
}

// Addr returns the bound game address.
func (gs *GameServer) Addr() string {
	return gs.listener.Addr().String()
}

// HTTPAddr returns the bound HTTP address.
func (gs *GameServer) HTTPAddr() string {
	return gs.httpListener.Addr().String()
}

// Run serves both listeners until the context is cancelled, then tears the
// arena down and returns. Listen must have been called first.
func (gs *GameServer) Run(ctx context.Context) error {
	logx.Logger.Infow("starting server",
		"address", gs.Addr(),
		"http", gs.HTTPAddr(),
		"maxClients", gs.config.Lobby.MaxClients,
	)

	go gs.coordinator.Run(ctx)
	go gs.acceptLoop(ctx)

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- gs.httpServer.Serve(gs.httpListener)
	}()

	var err error
	select {
	case <-ctx.Done():
	case e := <-httpErr:
		if e != nil && !errors.Is(e, http.ErrServerClosed) {
			err = e
		}
	}

	gs.listener.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if e := gs.httpServer.Shutdown(shutdownCtx); e != nil && !errors.Is(e, http.ErrServerClosed) {
		logx.Logger.Errorw("http server shutdown failed", "error", e)
	}

	gs.pub.Close()
	return err
}

// acceptLoop admits raw TCP clients. A client that finds the waiting queue
// full is refused by closing its connection.
func (gs *GameServer) acceptLoop(ctx context.Context) {
	for {
		conn, err := gs.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			logx.Logger.Errorw("connection failed", "error", err)
			continue
		}

		logx.Logger.Infow("new client", "remote", conn.RemoteAddr().String())

		stream := protocol.NewStream(protocol.NewTCPFramer(conn, gs.config.Game.WriteTimeout))
		if !gs.coordinator.Enqueue(stream) {
			logx.Logger.Warnw("waiting queue is full, refusing connection", "remote", conn.RemoteAddr().String())
			stream.Close()
		}
	}
}
