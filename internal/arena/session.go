package arena

import (
	"errors"
	"fmt"
	"time"

	"github.com/tmaziere/ouroboros/internal/protocol"
	"github.com/tmaziere/ouroboros/pkg/logx"
)

var (
	// errPeerClosed reports a client that went away, including one whose
	// socket writes time out.
	errPeerClosed = errors.New("client closed connection")
	// errProtocol reports a client or coordinator order that breaks the
	// dialect. It ends the session, never the server.
	errProtocol = errors.New("protocol violation")
	// errDetached reports that the coordinator closed the events channel,
	// which is the normal removal path and not worth a log line.
	errDetached = errors.New("detached by coordinator")
)

// session is one connected client. The coordinator owns the events channel
// and closes it to detach the session; the worker owns inbox and gone and
// closes both on its way out. Keeping every channel single-closer is what
// makes the teardown safe in all interleavings.
type session struct {
	stream *protocol.Stream

	// events carries coordinator orders. Unbuffered: a broadcast completes
	// only once every worker has taken its event, which keeps the turn
	// barrier strict.
	events chan event
	// inbox carries worker answers. One slot, so an answer that loses a
	// deadline race is absorbed instead of wedging the worker.
	inbox chan signal
	// gone is closed when the worker exits; coordinator sends select on it.
	gone chan struct{}
	// frames is fed by the read pump and closed when the peer is gone.
	frames chan []byte

	heartbeat time.Duration
}

func newSession(stream *protocol.Stream, heartbeat time.Duration) *session {
	return &session{
		stream:    stream,
		events:    make(chan event),
		inbox:     make(chan signal, 1),
		gone:      make(chan struct{}),
		frames:    make(chan []byte),
		heartbeat: heartbeat,
	}
}

func (s *session) start() {
	go s.readPump()
	go s.run()
}

// readPump moves raw frames from the peer to the worker. It exits when the
// peer fails or the worker is gone, whichever comes first; the worker's
// teardown closes the stream, which unblocks a pending read.
func (s *session) readPump() {
	defer close(s.frames)
	for {
		frame, err := s.stream.ReadFrame()
		if err != nil {
			return
		}
		select {
		case s.frames <- frame:
		case <-s.gone:
			return
		}
	}
}

func (s *session) run() {
	defer func() {
		close(s.gone)
		close(s.inbox)
		s.stream.Close()
	}()

	err := s.lobby()
	if err == nil {
		err = s.match()
	}

	switch {
	case err == nil, errors.Is(err, errDetached):
	case errors.Is(err, errPeerClosed):
		logx.Logger.Infow("client closed connection, closing session",
			"remote", s.stream.RemoteAddr())
	default:
		logx.Logger.Warnw("closing misbehaving session",
			"remote", s.stream.RemoteAddr(), "error", err)
	}
}

// lobby keeps the client fed with WaitInLobby heartbeats until the
// coordinator pulls it into a match. Client frames are decoded as force
// start requests; unreadable lobby chatter is dropped rather than fatal.
func (s *session) lobby() error {
	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	if err := s.writeEvent(protocol.EventWaitInLobby); err != nil {
		return err
	}

	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return errDetached
			}
			if ev.kind != evLeaveLobby {
				return fmt.Errorf("%w: %v in lobby", errProtocol, ev.kind)
			}
			return s.writeEvent(protocol.EventStart)

		case frame, ok := <-s.frames:
			if !ok {
				return errPeerClosed
			}
			m, err := protocol.Decode[protocol.ForceStartMessage](frame)
			if err != nil {
				logx.Logger.Debugw("ignoring unreadable lobby frame",
					"remote", s.stream.RemoteAddr(), "error", err)
				continue
			}
			if m.ForceStart {
				select {
				case s.inbox <- signal{kind: startGame}:
				default:
				}
			}

		case <-heartbeat.C:
			if err := s.writeEvent(protocol.EventWaitInLobby); err != nil {
				return err
			}
		}
	}
}

// match pushes the config first, then serves coordinator orders until the
// events channel closes. The coordinator always sends the config as the
// first order after lobby exit, so anything else is a violation.
func (s *session) match() error {
	ev, ok := <-s.events
	if !ok {
		return errDetached
	}
	if ev.kind != evConfig {
		return fmt.Errorf("%w: expected config, got %v", errProtocol, ev.kind)
	}
	if err := s.writeConfig(ev); err != nil {
		return err
	}

	for ev := range s.events {
		var err error
		switch ev.kind {
		case evNewTurn:
			err = s.writeEvent(protocol.EventNewTurn)
		case evWaitDirection:
			err = s.forwardDirection()
		case evTurnResult:
			err = s.writeTurn(ev)
		case evState:
			err = s.writeState(ev)
		default:
			err = fmt.Errorf("%w: unexpected %v in match", errProtocol, ev.kind)
		}
		if err != nil {
			return err
		}
	}
	return errDetached
}

// forwardDirection blocks for the client's answer and relays it. It also
// watches the events channel so a session dropped for exceeding the turn
// deadline unwinds instead of waiting for a frame that may never come.
func (s *session) forwardDirection() error {
	select {
	case frame, ok := <-s.frames:
		if !ok {
			return errPeerClosed
		}
		dm, err := protocol.Decode[protocol.DirectionMessage](frame)
		if err != nil {
			return err
		}
		if !dm.Direction.Valid() {
			return fmt.Errorf("%w: direction %q", protocol.ErrBadMessage, dm.Direction)
		}
		s.inbox <- signal{kind: answerDirection, direction: dm.Direction}
		return nil

	case ev, ok := <-s.events:
		if !ok {
			return errDetached
		}
		return fmt.Errorf("%w: %v while waiting for a direction", errProtocol, ev.kind)
	}
}

func (s *session) writeEvent(e protocol.Event) error {
	return s.write(protocol.EventMessage{Event: e})
}

func (s *session) writeConfig(ev event) error {
	return s.write(protocol.GameConfigMessage{
		Id:     ev.id,
		Width:  ev.board.width,
		Height: ev.board.height,
		Snakes: ev.board.snakes,
		Food:   ev.board.food,
	})
}

func (s *session) writeTurn(ev event) error {
	return s.write(protocol.TurnMessage{
		Id:     ev.id,
		Snakes: ev.board.snakes,
		Food:   ev.board.food,
	})
}

func (s *session) writeState(ev event) error {
	return s.write(protocol.StateMessage{State: ev.state})
}

// write sends one frame, folding transport failures into errPeerClosed.
func (s *session) write(m any) error {
	if err := protocol.Send(s.stream, m); err != nil {
		return fmt.Errorf("%w: %v", errPeerClosed, err)
	}
	return nil
}
