package game

// Direction is a snake heading as it appears on the wire.
type Direction string

const (
	Up    Direction = "Up"
	Down  Direction = "Down"
	Left  Direction = "Left"
	Right Direction = "Right"
)

// Valid reports whether d is one of the four playable headings.
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// Next returns the cell one step away from p in direction d.
func (d Direction) Next(p Point) Point {
	switch d {
	case Up:
		return Point{X: p.X, Y: p.Y - 1}
	case Down:
		return Point{X: p.X, Y: p.Y + 1}
	case Left:
		return Point{X: p.X - 1, Y: p.Y}
	case Right:
		return Point{X: p.X + 1, Y: p.Y}
	}
	return p
}

// Point is a grid coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snake is one player's piece on the board. The head is the last body
// segment and the body never holds fewer than three segments.
type Snake struct {
	Body      []Point
	Direction Direction
}

// newSnake lays snake id of players out horizontally, heading right.
// Rows are spread over the upper half of the board so snakes never
// overlap each other at the start.
func newSnake(id, players, width, height int) *Snake {
	row := height / (2 * players) * (id + 1)
	return &Snake{
		Body: []Point{
			{X: width/2 - 1, Y: row},
			{X: width / 2, Y: row},
			{X: width/2 + 1, Y: row},
		},
		Direction: Right,
	}
}

// Head returns the leading segment.
func (s *Snake) Head() Point {
	return s.Body[len(s.Body)-1]
}

// move advances the snake one cell: the tail is dropped and a new head is
// appended in the current direction. Length is unchanged.
func (s *Snake) move() {
	next := s.Direction.Next(s.Head())
	s.Body = append(s.Body[:0], s.Body[1:]...)
	s.Body = append(s.Body, next)
}

// grow appends the consumed food cell as the new head. Callers restore the
// pre-move body first, so the old tail survives and net length goes up by
// exactly one.
func (s *Snake) grow(food Point) {
	s.Body = append(s.Body, food)
}

// overlaps reports whether any body segment sits on p.
func (s *Snake) overlaps(p Point) bool {
	for _, q := range s.Body {
		if q == p {
			return true
		}
	}
	return false
}

// hitBorder reports whether the head reached the playing field edge.
// The edge runs along coordinate 1 and along width/height inclusive,
// which is the ruleset this server inherited, not a bug.
func (s *Snake) hitBorder(width, height int) bool {
	p := s.Head()
	return p.X == 1 || p.X == width || p.Y == 1 || p.Y == height
}
