// Command snakebot joins an arena over the line protocol and plays a plain
// survival policy. It exists for manual testing and demos: point a few of
// them at a server and watch the log.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"
	"net"
	"time"

	"github.com/tmaziere/ouroboros/internal/game"
	"github.com/tmaziere/ouroboros/internal/protocol"
	"github.com/tmaziere/ouroboros/pkg/logx"
)

// serverFrame is a superset of every message the arena sends, so a single
// decode can sort frames by which fields are present.
type serverFrame struct {
	Event  protocol.Event `json:"event"`
	Id     int            `json:"id"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Snakes [][]game.Point `json:"snakes"`
	Food   game.Point     `json:"food"`
	State  game.State     `json:"state"`
}

type bot struct {
	stream *protocol.Stream

	id      int
	width   int
	height  int
	snakes  [][]game.Point
	heading game.Direction

	forceStart bool
	stay       bool
}

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "arena address")
	forceStart := flag.Bool("start", false, "force the match to start instead of waiting for a full lobby")
	stay := flag.Bool("stay", false, "keep answering turns after losing")
	flag.Parse()

	logx.NewLogger("", "info")
	defer logx.Sync()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		logx.Logger.Fatalw("could not reach the arena", "addr", *addr, "error", err)
	}

	b := &bot{
		stream:     protocol.NewStream(protocol.NewTCPFramer(conn, 10*time.Second)),
		heading:    game.Right,
		forceStart: *forceStart,
		stay:       *stay,
	}
	defer b.stream.Close()

	err = b.play()
	switch {
	case err == nil:
		logx.Logger.Infow("leaving the arena")
	case errors.Is(err, io.EOF):
		logx.Logger.Infow("server closed the connection")
	default:
		logx.Logger.Errorw("session failed", "error", err)
	}
}

func (b *bot) play() error {
	for {
		frame, err := b.stream.ReadFrame()
		if err != nil {
			return err
		}

		var m serverFrame
		if err := json.Unmarshal(frame, &m); err != nil {
			logx.Logger.Warnw("dropping unreadable frame", "frame", string(frame), "error", err)
			continue
		}

		switch {
		case m.Event == protocol.EventWaitInLobby:
			if b.forceStart {
				b.forceStart = false
				logx.Logger.Infow("forcing the match to start")
				if err := protocol.Send(b.stream, protocol.ForceStartMessage{ForceStart: true}); err != nil {
					return err
				}
			}

		case m.Event == protocol.EventStart:
			logx.Logger.Infow("match starting")

		case m.Event == protocol.EventNewTurn:
			direction := b.pickDirection()
			b.heading = direction
			if err := protocol.Send(b.stream, protocol.DirectionMessage{Direction: direction}); err != nil {
				return err
			}

		case m.Width > 0:
			b.id = m.Id
			b.width = m.Width
			b.height = m.Height
			b.snakes = m.Snakes
			b.heading = game.Right
			logx.Logger.Infow("joined match",
				"id", b.id, "width", b.width, "height", b.height, "players", len(b.snakes))

		case m.Snakes != nil:
			// Turn result. The id can shift down when other players leave.
			b.id = m.Id
			b.snakes = m.Snakes

		case m.State != "":
			if m.State == game.Lost {
				logx.Logger.Infow("lost the match")
				if !b.stay {
					return nil
				}
			}
		}
	}
}

// pickDirection keeps the current heading while the next cell is survivable,
// otherwise it tries the other headings. When everything kills it keeps the
// heading and accepts its fate.
func (b *bot) pickDirection() game.Direction {
	if b.id >= len(b.snakes) {
		return b.heading
	}
	body := b.snakes[b.id]
	head := body[len(body)-1]

	candidates := []game.Direction{b.heading, game.Up, game.Right, game.Down, game.Left}
	for _, d := range candidates {
		if b.survivable(d.Next(head)) {
			return d
		}
	}
	return b.heading
}

// survivable reports whether p is inside the walls and off every snake.
// Tails vacate their cell on the same turn, so this is a little more
// cautious than strictly necessary.
func (b *bot) survivable(p game.Point) bool {
	if p.X <= 1 || p.X >= b.width || p.Y <= 1 || p.Y >= b.height {
		return false
	}
	for _, body := range b.snakes {
		for _, q := range body {
			if q == p {
				return false
			}
		}
	}
	return true
}
