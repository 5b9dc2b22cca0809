package game

import (
	"math/rand"
	"testing"
)

// testGame builds a one-snake game with a deterministic generator and the
// food parked well away from the action.
func testGame(body []Point, d Direction) *Game {
	return &Game{
		Snakes: []*Snake{{Body: body, Direction: d}},
		States: []State{Playing},
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Food:   Point{X: 2, Y: 18},
		rng:    rand.New(rand.NewSource(1)),
	}
}

func TestNewGameAligned(t *testing.T) {
	g := New(4, DefaultWidth, DefaultHeight)

	if len(g.Snakes) != 4 || len(g.States) != 4 {
		t.Fatalf("snakes/states = %d/%d, want 4/4", len(g.Snakes), len(g.States))
	}
	for i, st := range g.States {
		if st != Ready {
			t.Errorf("state %d = %s, want Ready", i, st)
		}
	}
	if g.overlapsAny(g.Food) {
		t.Errorf("food %v spawned on a snake", g.Food)
	}
	if g.Food.X < 2 || g.Food.X > DefaultWidth-2 || g.Food.Y < 2 || g.Food.Y > DefaultHeight-2 {
		t.Errorf("food %v outside interior", g.Food)
	}
}

func TestPlayTurnMoves(t *testing.T) {
	g := testGame([]Point{{X: 9, Y: 5}, {X: 10, Y: 5}, {X: 11, Y: 5}}, Right)
	g.PlayTurn()

	want := []Point{{X: 10, Y: 5}, {X: 11, Y: 5}, {X: 12, Y: 5}}
	got := g.Snakes[0].Body
	if len(got) != len(want) {
		t.Fatalf("body length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("body[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if g.States[0] != Playing {
		t.Errorf("state = %s, want Playing", g.States[0])
	}
}

func TestPlayTurnEatsFood(t *testing.T) {
	g := testGame([]Point{{X: 9, Y: 5}, {X: 10, Y: 5}, {X: 11, Y: 5}}, Right)
	g.Food = Point{X: 12, Y: 5}
	g.PlayTurn()

	s := g.Snakes[0]
	if len(s.Body) != 4 {
		t.Fatalf("body length after eating = %d, want 4", len(s.Body))
	}
	if s.Head() != (Point{X: 12, Y: 5}) {
		t.Errorf("head = %v, want the eaten food cell {12 5}", s.Head())
	}
	if s.Body[0] != (Point{X: 9, Y: 5}) {
		t.Errorf("tail = %v, want {9 5} kept", s.Body[0])
	}
	if g.Food == (Point{X: 12, Y: 5}) {
		t.Error("food was not relocated after being eaten")
	}
	if g.overlapsAny(g.Food) {
		t.Errorf("relocated food %v sits on a snake", g.Food)
	}
}

func TestPlayTurnBorderLoses(t *testing.T) {
	g := testGame([]Point{{X: 17, Y: 5}, {X: 18, Y: 5}, {X: 19, Y: 5}}, Right)
	g.PlayTurn()

	if g.States[0] != Lost {
		t.Fatalf("state = %s, want Lost after hitting the border", g.States[0])
	}
	if g.Snakes[0].Head() != (Point{X: 20, Y: 5}) {
		t.Errorf("head = %v, want {20 5}", g.Snakes[0].Head())
	}
}

func TestPlayTurnReversalLoses(t *testing.T) {
	g := testGame([]Point{{X: 9, Y: 5}, {X: 10, Y: 5}, {X: 11, Y: 5}}, Right)
	g.Snakes[0].Direction = Left
	g.PlayTurn()

	if g.States[0] != Lost {
		t.Fatalf("state = %s, want Lost after reversing into the neck", g.States[0])
	}
}

func TestLostSnakeFrozen(t *testing.T) {
	g := testGame([]Point{{X: 17, Y: 5}, {X: 18, Y: 5}, {X: 19, Y: 5}}, Right)
	g.PlayTurn()
	if g.States[0] != Lost {
		t.Fatalf("state = %s, want Lost", g.States[0])
	}

	frozen := append([]Point(nil), g.Snakes[0].Body...)
	g.PlayTurn()
	for i, p := range g.Snakes[0].Body {
		if p != frozen[i] {
			t.Errorf("frozen body[%d] = %v, want %v", i, p, frozen[i])
		}
	}
}

func TestLostSnakeStaysLethal(t *testing.T) {
	g := &Game{
		Snakes: []*Snake{
			{Body: []Point{{X: 5, Y: 8}, {X: 5, Y: 9}, {X: 5, Y: 10}}, Direction: Down},
			{Body: []Point{{X: 2, Y: 9}, {X: 3, Y: 9}, {X: 4, Y: 9}}, Direction: Right},
		},
		States: []State{Lost, Playing},
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Food:   Point{X: 18, Y: 18},
		rng:    rand.New(rand.NewSource(1)),
	}
	g.PlayTurn()

	if g.States[1] != Lost {
		t.Errorf("state = %s, want Lost after driving into a frozen snake", g.States[1])
	}
}

func TestHeadOnCollisionLosesBoth(t *testing.T) {
	g := &Game{
		Snakes: []*Snake{
			{Body: []Point{{X: 7, Y: 5}, {X: 8, Y: 5}, {X: 9, Y: 5}}, Direction: Right},
			{Body: []Point{{X: 13, Y: 5}, {X: 12, Y: 5}, {X: 11, Y: 5}}, Direction: Left},
		},
		States: []State{Playing, Playing},
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Food:   Point{X: 18, Y: 18},
		rng:    rand.New(rand.NewSource(1)),
	}
	g.PlayTurn()

	if g.States[0] != Lost || g.States[1] != Lost {
		t.Errorf("states = %s/%s, want Lost/Lost", g.States[0], g.States[1])
	}
}

func TestRemovePlayerShiftsIndexes(t *testing.T) {
	g := New(3, DefaultWidth, DefaultHeight)
	second, third := g.Snakes[1], g.Snakes[2]
	g.States[2] = Lost

	g.RemovePlayer(0)

	if len(g.Snakes) != 2 || len(g.States) != 2 {
		t.Fatalf("snakes/states = %d/%d, want 2/2", len(g.Snakes), len(g.States))
	}
	if g.Snakes[0] != second || g.Snakes[1] != third {
		t.Error("remaining snakes not shifted down in order")
	}
	if g.States[1] != Lost {
		t.Errorf("state carried with snake = %s, want Lost", g.States[1])
	}
}

func TestPlaceFoodAvoidsSnakes(t *testing.T) {
	g := New(4, DefaultWidth, DefaultHeight)
	for i := 0; i < 200; i++ {
		g.placeFood()
		if g.overlapsAny(g.Food) {
			t.Fatalf("food %v placed on a snake", g.Food)
		}
		if g.Food.X < 2 || g.Food.X > DefaultWidth-2 || g.Food.Y < 2 || g.Food.Y > DefaultHeight-2 {
			t.Fatalf("food %v outside interior", g.Food)
		}
	}
}

func TestSetStates(t *testing.T) {
	g := New(2, DefaultWidth, DefaultHeight)
	g.SetStates(Playing)
	for i, st := range g.States {
		if st != Playing {
			t.Errorf("state %d = %s, want Playing", i, st)
		}
	}
}

func TestSnakeBodiesIsACopy(t *testing.T) {
	g := New(2, DefaultWidth, DefaultHeight)
	bodies := g.SnakeBodies()
	bodies[0][0] = Point{X: -1, Y: -1}

	if g.Snakes[0].Body[0] == (Point{X: -1, Y: -1}) {
		t.Error("mutating the snapshot leaked into the game")
	}
}
