// Package game holds the grid simulation for a snake match: movement,
// collision classification and food placement. It performs no I/O and spawns
// no goroutines; the arena coordinator owns a Game exclusively and drives it
// one turn at a time.
package game

import (
	"math/rand"
	"time"
)

// Default board dimensions.
const (
	DefaultWidth  = 20
	DefaultHeight = 20
)

// State tags one player's lifecycle inside a match.
type State string

const (
	// Ready means the player is admitted but the match has not started.
	Ready State = "Ready"
	// Playing means the player's snake moves every turn.
	Playing State = "Playing"
	// Lost means the snake collided. It stays frozen on the board and keeps
	// its index until the match ends; only a disconnect removes it.
	Lost State = "Lost"
)

type collision int

const (
	collisionNone collision = iota
	collisionFood
	collisionBorderOrSnake
)

// Game is the authoritative match state. Snakes and States are parallel
// slices sharing one index space; every mutation keeps them aligned.
type Game struct {
	Snakes []*Snake
	Food   Point
	Width  int
	Height int
	States []State

	rng *rand.Rand
}

// New builds a match for the given player count. Each snake starts with
// three segments in state Ready, and the first food is placed immediately.
// Every game carries its own seeded generator so that rapidly created
// matches do not share a sequence.
func New(players, width, height int) *Game {
	g := &Game{
		Snakes: make([]*Snake, 0, players),
		States: make([]State, 0, players),
		Width:  width,
		Height: height,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for id := 0; id < players; id++ {
		g.Snakes = append(g.Snakes, newSnake(id, players, width, height))
		g.States = append(g.States, Ready)
	}
	g.placeFood()
	return g
}

// PlayTurn advances the match one step: every Playing snake moves one cell,
// then collisions are classified per snake in index order. A border or snake
// collision marks the player Lost and overrides food. A food collision
// restores the pre-move body, appends the food cell as the new head and
// relocates the food. Lost snakes neither move nor collide again, but their
// bodies remain obstacles.
func (g *Game) PlayTurn() {
	old := g.SnakeBodies()

	for i, s := range g.Snakes {
		if g.States[i] == Playing {
			s.move()
		}
	}

	for i, s := range g.Snakes {
		if g.States[i] != Playing {
			continue
		}
		switch g.collide(i) {
		case collisionBorderOrSnake:
			g.States[i] = Lost
		case collisionFood:
			s.Body = old[i]
			s.grow(g.Food)
			g.placeFood()
		}
	}
}

// collide classifies what snake idx ran into this turn. Border and body
// collisions take precedence over food.
func (g *Game) collide(idx int) collision {
	s := g.Snakes[idx]
	if s.hitBorder(g.Width, g.Height) || g.hitsSnake(idx) {
		return collisionBorderOrSnake
	}
	if s.Head() == g.Food {
		return collisionFood
	}
	return collisionNone
}

// hitsSnake reports whether snake idx's head sits on any segment of any
// snake, excluding only its own head. Segments are compared by position and
// index, so a reversal into the own neck counts as a collision.
func (g *Game) hitsSnake(idx int) bool {
	head := g.Snakes[idx].Head()
	for si, s := range g.Snakes {
		for pi, p := range s.Body {
			if si == idx && pi == len(s.Body)-1 {
				continue
			}
			if p == head {
				return true
			}
		}
	}
	return false
}

// placeFood draws interior cells until one is free of every snake body.
// The board stays sparse relative to the player cap, so rejection sampling
// terminates quickly.
func (g *Game) placeFood() {
	p := g.randomInterior()
	for g.overlapsAny(p) {
		p = g.randomInterior()
	}
	g.Food = p
}

// randomInterior picks a point at least one cell away from the lethal edge,
// uniform over [2, dim-2] on both axes.
func (g *Game) randomInterior() Point {
	return Point{
		X: g.rng.Intn(g.Width-3) + 2,
		Y: g.rng.Intn(g.Height-3) + 2,
	}
}

func (g *Game) overlapsAny(p Point) bool {
	for _, s := range g.Snakes {
		if s.overlaps(p) {
			return true
		}
	}
	return false
}

// SetStates forces every player into state s. Used once at match start to
// flip the whole field from Ready to Playing.
func (g *Game) SetStates(s State) {
	for i := range g.States {
		g.States[i] = s
	}
}

// RemovePlayer drops the snake and state at index i together, shifting the
// players behind it down by one. The coordinator calls this when a session
// disconnects; Lost players are never removed this way.
func (g *Game) RemovePlayer(i int) {
	g.Snakes = append(g.Snakes[:i], g.Snakes[i+1:]...)
	g.States = append(g.States[:i], g.States[i+1:]...)
}

// SnakeBodies returns a deep copy of all bodies in index order, safe to hand
// to other goroutines while the game keeps mutating.
func (g *Game) SnakeBodies() [][]Point {
	bodies := make([][]Point, len(g.Snakes))
	for i, s := range g.Snakes {
		b := make([]Point, len(s.Body))
		copy(b, s.Body)
		bodies[i] = b
	}
	return bodies
}

// StatesCopy returns a snapshot of the per-player states.
func (g *Game) StatesCopy() []State {
	return append([]State(nil), g.States...)
}
