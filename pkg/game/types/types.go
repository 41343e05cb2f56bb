package types

import "fmt"

// Cell is a board coordinate. (0,0) is the top-left corner.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the cell offset by the given delta.
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// InBounds reports whether the cell lies on a cols x rows board.
func (c Cell) InBounds(cols, rows int) bool {
	return c.X >= 0 && c.X < cols && c.Y >= 0 && c.Y < rows
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Direction is the movement direction of the snake.
// The zero value is DirectionNone, meaning no direction is committed.
type Direction uint8

const (
	DirectionNone Direction = iota
	DirectionNorth
	DirectionSouth
	DirectionEast
	DirectionWest
)

func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "none"
	case DirectionNorth:
		return "north"
	case DirectionSouth:
		return "south"
	case DirectionEast:
		return "east"
	case DirectionWest:
		return "west"
	default:
		return "unknown"
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection parses a direction name as produced by String.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "none", "":
		return DirectionNone, nil
	case "north":
		return DirectionNorth, nil
	case "south":
		return DirectionSouth, nil
	case "east":
		return DirectionEast, nil
	case "west":
		return DirectionWest, nil
	default:
		return DirectionNone, fmt.Errorf("unknown direction: %s", s)
	}
}

// Delta returns the unit vector for the direction.
// North decreases Y, South increases Y.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case DirectionNorth:
		return 0, -1
	case DirectionSouth:
		return 0, 1
	case DirectionEast:
		return 1, 0
	case DirectionWest:
		return -1, 0
	default:
		return 0, 0
	}
}

// Valid reports whether d is one of the four movement directions.
func (d Direction) Valid() bool {
	return d >= DirectionNorth && d <= DirectionWest
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionNorth:
		return DirectionSouth
	case DirectionSouth:
		return DirectionNorth
	case DirectionEast:
		return DirectionWest
	case DirectionWest:
		return DirectionEast
	default:
		return DirectionNone
	}
}

// SameAxis reports whether both directions move along the same axis.
// DirectionNone shares an axis with nothing.
func (d Direction) SameAxis(other Direction) bool {
	if !d.Valid() || !other.Valid() {
		return false
	}
	return d == other || d == other.Opposite()
}

// Boundary is the policy applied when the head leaves the board.
type Boundary uint8

const (
	// BoundaryWrap teleports the head to the opposite edge.
	BoundaryWrap Boundary = iota
	// BoundaryWalls ends the game when the head leaves the board.
	BoundaryWalls
)

func (b Boundary) String() string {
	switch b {
	case BoundaryWrap:
		return "wrap"
	case BoundaryWalls:
		return "walls"
	default:
		return "unknown"
	}
}

// ParseBoundary parses a boundary policy name.
// Valid policies are: wrap, walls.
func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "wrap":
		return BoundaryWrap, nil
	case "walls":
		return BoundaryWalls, nil
	default:
		return BoundaryWrap, fmt.Errorf("unknown boundary policy: %s", s)
	}
}
