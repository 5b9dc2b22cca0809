// Package arena runs matches: a single coordinator goroutine owns the
// authoritative game and drives every connected client session through the
// lockstep turn protocol over channels.
package arena

import "github.com/tmaziere/ouroboros/internal/game"

// eventKind enumerates what the coordinator can ask a session worker to do.
type eventKind int

const (
	// evLeaveLobby moves the worker from the lobby phase into the match.
	evLeaveLobby eventKind = iota
	// evConfig pushes the one-time match geometry to the client.
	evConfig
	// evNewTurn announces the next turn.
	evNewTurn
	// evWaitDirection makes the worker relay exactly one direction from
	// its client.
	evWaitDirection
	// evTurnResult pushes the resolved board.
	evTurnResult
	// evState pushes the player's own lifecycle state.
	evState
)

func (k eventKind) String() string {
	switch k {
	case evLeaveLobby:
		return "LeaveLobby"
	case evConfig:
		return "Config"
	case evNewTurn:
		return "NewTurn"
	case evWaitDirection:
		return "WaitDirection"
	case evTurnResult:
		return "TurnResult"
	case evState:
		return "State"
	}
	return "Unknown"
}

// event flows coordinator to worker. id is the receiving player's index at
// send time. The board pointer is shared between workers and read-only.
type event struct {
	kind  eventKind
	id    int
	board *board
	state game.State
}

// board is a point-in-time snapshot of the field, deep-copied so workers
// can marshal it while the live game keeps changing.
type board struct {
	width  int
	height int
	snakes [][]game.Point
	food   game.Point
}

// signalKind enumerates what a session worker can tell the coordinator.
type signalKind int

const (
	// startGame asks for the match to begin before the lobby fills up.
	startGame signalKind = iota
	// answerDirection carries the player's heading for the gathered turn.
	answerDirection
)

// signal flows worker to coordinator over the session inbox.
type signal struct {
	kind      signalKind
	direction game.Direction
}
