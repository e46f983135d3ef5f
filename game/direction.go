package game

import (
	"fmt"
	"strings"
)

// Direction is a move label exchanged with the harness.
type Direction int

const (
	North Direction = iota
	South
	East
	West
	// Stop is never a planning output; it is the "remain in place" fallback.
	Stop
)

// Canonical is the fixed evaluation order used for policy tie-breaking.
var Canonical = [4]Direction{North, South, East, West}

var directionNames = [...]string{
	North: "North",
	South: "South",
	East:  "East",
	West:  "West",
	Stop:  "Stop",
}

var directionDeltas = [...]Point{
	North: {X: 0, Y: 1},
	South: {X: 0, Y: -1},
	East:  {X: 1, Y: 0},
	West:  {X: -1, Y: 0},
	Stop:  {X: 0, Y: 0},
}

// orthogonal holds the (left, right) drift pair for each commanded direction.
var orthogonal = [...][2]Direction{
	North: {West, East},
	South: {East, West},
	East:  {North, South},
	West:  {South, North},
	Stop:  {Stop, Stop},
}

func (d Direction) valid() bool {
	return d >= North && d <= Stop
}

func (d Direction) String() string {
	if !d.valid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Delta is the one-step displacement for d. Stop has a zero delta.
func (d Direction) Delta() Point {
	if !d.valid() {
		return Point{}
	}
	return directionDeltas[d]
}

// Orthogonal returns the two lateral directions the actuator may drift into.
// The first element is the commanded direction's left-hand side.
func (d Direction) Orthogonal() (Direction, Direction) {
	if !d.valid() {
		return Stop, Stop
	}
	pair := orthogonal[d]
	return pair[0], pair[1]
}

// ParseDirection accepts the harness labels (North/South/East/West/Stop)
// and the Battlesnake-style aliases (up/down/right/left), case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "up", "n":
		return North, nil
	case "south", "down", "s":
		return South, nil
	case "east", "right", "e":
		return East, nil
	case "west", "left", "w":
		return West, nil
	case "stop", "":
		return Stop, nil
	default:
		return Stop, fmt.Errorf("unknown direction %q", s)
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ContainsDirection reports whether d is in ds.
func ContainsDirection(ds []Direction, d Direction) bool {
	for _, x := range ds {
		if x == d {
			return true
		}
	}
	return false
}
