package mdp

import "strconv"

type cellKind uint8

const (
	kindValue cellKind = iota
	kindObstacle
)

// Cell is one slot of a UtilityMap: either an obstacle marker or a real utility.
// The zero Cell is Value(0).
type Cell struct {
	kind  cellKind
	value float64
}

// Value wraps a utility.
func Value(v float64) Cell {
	return Cell{kind: kindValue, value: v}
}

// Obstacle returns the obstacle marker.
func Obstacle() Cell {
	return Cell{kind: kindObstacle}
}

func (c Cell) IsObstacle() bool {
	return c.kind == kindObstacle
}

// Float returns the utility and true, or 0 and false for an obstacle.
func (c Cell) Float() (float64, bool) {
	if c.kind == kindObstacle {
		return 0, false
	}
	return c.value, true
}

func (c Cell) String() string {
	if c.kind == kindObstacle {
		return "#"
	}
	return strconv.FormatFloat(c.value, 'f', 2, 64)
}
