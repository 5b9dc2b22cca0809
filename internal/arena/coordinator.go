package arena

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/tmaziere/ouroboros/internal/game"
	"github.com/tmaziere/ouroboros/internal/protocol"
	"github.com/tmaziere/ouroboros/internal/publisher"
	"github.com/tmaziere/ouroboros/pkg/logx"
)

// Options sizes one coordinator. All durations must be positive; config
// validation upstream guarantees it.
type Options struct {
	MaxClients   int
	Width        int
	Height       int
	TurnInterval time.Duration
	TurnDeadline time.Duration
	LobbyPoll    time.Duration
	Heartbeat    time.Duration
}

const (
	PhaseLobby   = "lobby"
	PhasePlaying = "playing"
)

// Status is the point-in-time snapshot served by the HTTP surface.
type Status struct {
	Phase   string `json:"phase"`
	Players int    `json:"players"`
	MatchId string `json:"matchId,omitempty"`
	Turn    int    `json:"turn"`
	Matches int    `json:"matches"`
}

// Coordinator runs the whole arena on one goroutine: it admits clients into
// the lobby, starts a match when the lobby fills up or a client forces it,
// then drives the lockstep turn protocol until nobody is left. Sessions,
// snakes and states are parallel collections sharing one index space, and
// every removal mutates all of them together.
type Coordinator struct {
	opts   Options
	pub    *publisher.Publisher
	intake chan *protocol.Stream

	sessions []*session
	g        *game.Game

	mu     sync.Mutex
	status Status
}

func NewCoordinator(opts Options, pub *publisher.Publisher) *Coordinator {
	return &Coordinator{
		opts:   opts,
		pub:    pub,
		intake: make(chan *protocol.Stream, opts.MaxClients),
		status: Status{Phase: PhaseLobby},
	}
}

// Enqueue hands an accepted stream to the lobby. It reports false when the
// waiting queue is full, in which case the caller refuses the connection.
// Streams queued during a running match are admitted by the next lobby.
func (c *Coordinator) Enqueue(stream *protocol.Stream) bool {
	select {
	case c.intake <- stream:
		return true
	default:
		return false
	}
}

// Status returns the current snapshot. Safe from any goroutine.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Coordinator) setStatus(mutate func(*Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mutate(&c.status)
}

// Run loops lobby then match until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		if err := c.lobby(ctx); err != nil {
			c.shutdown()
			return
		}
		c.playMatch(ctx)
		if ctx.Err() != nil {
			c.shutdown()
			return
		}
		logx.Logger.Infow("game is over, starting a new one")
	}
}

// shutdown detaches every remaining session; workers close their own
// connections on the way out.
func (c *Coordinator) shutdown() {
	for _, s := range c.sessions {
		close(s.events)
	}
	c.sessions = nil
}

// lobby admits queued clients until the room is full or someone forces a
// start. It polls instead of blocking so disconnects are noticed even while
// nothing else happens.
func (c *Coordinator) lobby(ctx context.Context) error {
	c.setStatus(func(st *Status) {
		st.Phase = PhaseLobby
		st.Players = len(c.sessions)
		st.MatchId = ""
		st.Turn = 0
	})

	poll := time.NewTicker(c.opts.LobbyPoll)
	defer poll.Stop()

	for {
		c.admitQueued()

		if len(c.sessions) == c.opts.MaxClients {
			logx.Logger.Infow("lobby is full, starting the game",
				"clients", len(c.sessions))
			return nil
		}
		if c.pollStart() {
			logx.Logger.Infow("start forced by a client",
				"clients", len(c.sessions))
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
		}
	}
}

// admitQueued drains the intake queue into the session pool, up to the room
// limit. Whatever stays queued waits for the next lobby.
func (c *Coordinator) admitQueued() {
	for len(c.sessions) < c.opts.MaxClients {
		select {
		case stream := <-c.intake:
			s := newSession(stream, c.opts.Heartbeat)
			s.start()
			c.sessions = append(c.sessions, s)
			logx.Logger.Infow("new client added",
				"clients", len(c.sessions), "remote", stream.RemoteAddr())
			c.setStatus(func(st *Status) { st.Players = len(c.sessions) })
		default:
			return
		}
	}
}

// pollStart checks every inbox without blocking and reports whether any
// client asked for the match to start. Dead sessions discovered on the way
// are removed.
func (c *Coordinator) pollStart() bool {
	start := false
	var dead []int

	for i, s := range c.sessions {
		select {
		case sig, ok := <-s.inbox:
			if !ok {
				logx.Logger.Infow("client closed connection, it will be removed from the pool",
					"index", i)
				dead = append(dead, i)
				continue
			}
			if sig.kind == startGame {
				start = true
			}
		default:
		}
	}

	c.removeSessions(dead)
	return start
}

// playMatch runs one match from creation to the last client leaving.
func (c *Coordinator) playMatch(ctx context.Context) {
	logx.Logger.Infow("creating game", "players", len(c.sessions))
	c.g = game.New(len(c.sessions), c.opts.Width, c.opts.Height)
	matchId := bson.NewObjectID().Hex()
	turn := 0

	c.setStatus(func(st *Status) {
		st.Phase = PhasePlaying
		st.MatchId = matchId
	})

	logx.Logger.Infow("exiting lobby", "matchId", matchId)
	c.broadcast(func(id int) event { return event{kind: evLeaveLobby, id: id} })
	c.drainInboxes()

	logx.Logger.Infow("sending client config")
	setup := c.snapshot()
	c.broadcast(func(id int) event { return event{kind: evConfig, id: id, board: setup} })

	logx.Logger.Infow("start playing game")
	c.g.SetStates(game.Playing)
	c.publish(publisher.MatchStartedEvent(matchId, len(c.sessions)))

	for len(c.sessions) > 0 && ctx.Err() == nil {
		turn++
		c.setStatus(func(st *Status) { st.Turn = turn })
		c.playTurn(turn)

		if len(c.sessions) == 0 {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(c.opts.TurnInterval):
		}
	}

	c.g = nil
	c.setStatus(func(st *Status) { st.Matches++ })
	c.publish(publisher.MatchEndedEvent(matchId, turn))
}

// playTurn runs one full barrier round: announce, gather, resolve, report.
func (c *Coordinator) playTurn(turn int) {
	logx.Logger.Infow("starting new turn", "turn", turn)
	c.broadcast(func(id int) event { return event{kind: evNewTurn, id: id} })

	logx.Logger.Debugw("waiting client directions", "clients", len(c.sessions))
	c.broadcast(func(id int) event { return event{kind: evWaitDirection, id: id} })

	directions := c.gather()
	logx.Logger.Debugw("directions received", "directions", directions)
	for i, d := range directions {
		c.g.Snakes[i].Direction = d
	}

	logx.Logger.Debugw("playing turn", "turn", turn)
	c.g.PlayTurn()

	logx.Logger.Debugw("sending turn results")
	result := c.snapshot()
	c.broadcast(func(id int) event { return event{kind: evTurnResult, id: id, board: result} })

	logx.Logger.Debugw("sending current game state")
	states := c.g.StatesCopy()
	c.broadcast(func(id int) event { return event{kind: evState, id: id, state: states[id]} })
}

// gather collects exactly one direction per live session, in index order.
// One deadline spans the whole round; a session that has not answered when
// it fires is dropped the same way a disconnected one is. The returned
// directions line up with the surviving sessions, and with the snakes,
// because removal keeps all three collections in step.
func (c *Coordinator) gather() []game.Direction {
	deadline := time.NewTimer(c.opts.TurnDeadline)
	defer deadline.Stop()
	expired := false

	var directions []game.Direction
	var dead []int

	for i, s := range c.sessions {
		var sig signal
		ok, timedOut := false, false

		select {
		case sig, ok = <-s.inbox:
		default:
			if expired {
				timedOut = true
			} else {
				select {
				case sig, ok = <-s.inbox:
				case <-deadline.C:
					expired = true
					timedOut = true
				}
			}
		}

		switch {
		case timedOut:
			logx.Logger.Warnw("client did not answer in time, it will be removed from the pool",
				"index", i)
			dead = append(dead, i)
		case !ok:
			logx.Logger.Infow("client closed connection, it will be removed from the pool",
				"index", i)
			dead = append(dead, i)
		case sig.kind != answerDirection:
			logx.Logger.Warnw("unexpected signal while gathering directions, removing client",
				"index", i)
			dead = append(dead, i)
		default:
			directions = append(directions, sig.direction)
		}
	}

	c.removeSessions(dead)
	return directions
}

// broadcast hands one event to every session in index order. build receives
// the session's index so per-player payloads carry the id as of this send.
// Sessions whose worker is gone are removed after the sweep.
func (c *Coordinator) broadcast(build func(id int) event) {
	var dead []int

	for i, s := range c.sessions {
		select {
		case s.events <- build(i):
		case <-s.gone:
			logx.Logger.Infow("client closed connection, it will be removed from the pool",
				"index", i)
			dead = append(dead, i)
		}
	}

	c.removeSessions(dead)
}

// removeSessions deletes the sessions at the given indices together with
// their snakes and states. Indices are interpreted against the collections
// as they were when collected: every deletion shifts later entries down
// one, so the remaining pending indices are decremented as we go.
func (c *Coordinator) removeSessions(ids []int) {
	for i := 0; i < len(ids); i++ {
		id := ids[i]
		close(c.sessions[id].events)
		c.sessions = append(c.sessions[:id], c.sessions[id+1:]...)
		if c.g != nil {
			c.g.RemovePlayer(id)
		}
		for j := range ids {
			if j != i && ids[j] > id {
				ids[j]--
			}
		}
	}

	if len(ids) > 0 {
		c.setStatus(func(st *Status) { st.Players = len(c.sessions) })
	}
}

// drainInboxes throws away start requests that raced the lobby exit, so the
// first gather sees nothing but directions.
func (c *Coordinator) drainInboxes() {
	for _, s := range c.sessions {
		select {
		case <-s.inbox:
		default:
		}
	}
}

// snapshot captures the board for hand-off to the session workers, which
// marshal it concurrently with the next mutation of the live game.
func (c *Coordinator) snapshot() *board {
	return &board{
		width:  c.g.Width,
		height: c.g.Height,
		snakes: c.g.SnakeBodies(),
		food:   c.g.Food,
	}
}

func (c *Coordinator) publish(message string, err error) {
	if err != nil {
		logx.Logger.Errorw("could not build publisher event", "error", err)
		return
	}
	c.pub.Publish(message)
}
