// Package protocol defines the newline-delimited JSON dialect spoken between
// the arena server and its clients, a generic codec over it, and framers for
// the two supported transports (raw TCP lines and WebSocket messages).
package protocol

import "github.com/tmaziere/ouroboros/internal/game"

// Event names the server pushes inside an EventMessage.
type Event string

const (
	EventWaitInLobby Event = "WaitInLobby"
	EventStart       Event = "Start"
	EventNewTurn     Event = "NewTurn"
)

// ForceStartMessage is sent by a lobby client that wants the match to begin
// before the lobby fills up.
type ForceStartMessage struct {
	ForceStart bool `json:"force_start"`
}

// DirectionMessage carries one player's heading for the turn being gathered.
type DirectionMessage struct {
	Direction game.Direction `json:"direction"`
}

// EventMessage announces a phase change to the client.
type EventMessage struct {
	Event Event `json:"event"`
}

// GameConfigMessage is sent once per match, right after the Start event. Id
// is the receiving player's index into the snakes slice at send time.
type GameConfigMessage struct {
	Id     int            `json:"id"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Snakes [][]game.Point `json:"snakes"`
	Food   game.Point     `json:"food"`
}

// TurnMessage is the resolved board after a turn. Id is recomputed per send,
// so it tracks renumbering when other players drop out.
type TurnMessage struct {
	Id     int            `json:"id"`
	Snakes [][]game.Point `json:"snakes"`
	Food   game.Point     `json:"food"`
}

// StateMessage tells a client its own lifecycle state after a turn.
type StateMessage struct {
	State game.State `json:"state"`
}
