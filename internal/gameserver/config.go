package gameserver

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tmaziere/ouroboros/internal/game"
)

// Config contains all configuration options for the game server
type Config struct {
	Game      GameConfig
	Lobby     LobbyConfig
	Publisher PublisherConfig
	Router    RouterConfig
	Log       LogConfig
}

// GameConfig sizes the board and paces the turn loop
type GameConfig struct {
	// ListenAddr is the raw line-protocol front door.
	ListenAddr string
	// HTTPAddr serves /health, /status and the /join WebSocket gateway.
	HTTPAddr string

	Width  int
	Height int

	// TurnInterval is the pause between resolved turns.
	TurnInterval time.Duration
	// TurnDeadline bounds how long a client may take to answer a turn
	// before it is treated as disconnected.
	TurnDeadline time.Duration
	// WriteTimeout bounds every outbound frame so one stalled client
	// cannot wedge the turn barrier.
	WriteTimeout time.Duration
}

// LobbyConfig controls admission into a match
type LobbyConfig struct {
	MaxClients int
	// Poll is how often the lobby sweeps for start requests and newcomers.
	Poll time.Duration
	// Heartbeat is how often waiting clients are reassured.
	Heartbeat time.Duration
}

// PublisherConfig contains configuration for the publisher service
type PublisherConfig struct {
	Redis RedisConfig
	// Channel is the pub/sub channel match lifecycle events go to.
	Channel string
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// RouterConfig contains router configuration
type RouterConfig struct {
	AllowedOrigins []string
}

// LogConfig selects the log sink and verbosity
type LogConfig struct {
	File  string
	Level string
}

// FromEnv builds a configuration from environment variables, falling back to
// the classic arena defaults: four players on a 20x20 board, one second per
// turn. Leaving REDIS_HOST empty disables the publisher.
func FromEnv() Config {
	return Config{
		Game: GameConfig{
			ListenAddr:   getEnv("LISTEN_ADDR", "127.0.0.1:8080"),
			HTTPAddr:     getEnv("HTTP_ADDR", "127.0.0.1:8081"),
			Width:        getEnvInt("BOARD_WIDTH", game.DefaultWidth),
			Height:       getEnvInt("BOARD_HEIGHT", game.DefaultHeight),
			TurnInterval: getEnvDuration("TURN_INTERVAL", time.Second),
			TurnDeadline: getEnvDuration("TURN_DEADLINE", 30*time.Second),
			WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 10*time.Second),
		},
		Lobby: LobbyConfig{
			MaxClients: getEnvInt("MAX_CLIENTS", 4),
			Poll:       getEnvDuration("LOBBY_POLL", 500*time.Millisecond),
			Heartbeat:  getEnvDuration("LOBBY_HEARTBEAT", time.Second),
		},
		Publisher: PublisherConfig{
			Redis: RedisConfig{
				Host:     getEnv("REDIS_HOST", ""),
				Port:     getEnv("REDIS_PORT", "6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
			},
			Channel: getEnv("PUBLISHER_CHANNEL", "game-service"),
		},
		Router: RouterConfig{
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		},
		Log: LogConfig{
			File:  getEnv("LOG_FILE", "log"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Validate rejects configurations the engine cannot host. The board must
// leave room for the walls, the food interior and one spawn row per player.
func (c Config) Validate() error {
	if c.Lobby.MaxClients < 1 {
		return fmt.Errorf("max clients must be at least 1, got %d", c.Lobby.MaxClients)
	}
	if c.Game.Width < 6 {
		return fmt.Errorf("board width must be at least 6, got %d", c.Game.Width)
	}
	if c.Game.Height < 4*c.Lobby.MaxClients {
		return fmt.Errorf("board height %d cannot seat %d players, need at least %d",
			c.Game.Height, c.Lobby.MaxClients, 4*c.Lobby.MaxClients)
	}
	if c.Game.TurnInterval <= 0 || c.Game.TurnDeadline <= 0 {
		return fmt.Errorf("turn interval and turn deadline must be positive")
	}
	if c.Lobby.Poll <= 0 || c.Lobby.Heartbeat <= 0 {
		return fmt.Errorf("lobby poll and heartbeat must be positive")
	}
	return nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
