// Package game defines the sensed world types consumed by the planner.
//
// These types represent one decision step's view of the grid: bounds, walls,
// collectibles, adversaries and the agent. The snapshot is cheap to clone so
// the simulator can advance a copy without disturbing the planner's input.
package game

// Point is a board coordinate.
// Coordinates follow the harness convention: (0,0) is bottom-left and North is +Y.
type Point struct {
	X int
	Y int
}

// Add returns p shifted by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Manhattan returns the L1 distance between p and q.
func (p Point) Manhattan(q Point) int {
	return absInt(p.X-q.X) + absInt(p.Y-q.Y)
}

// Adversary is a sensed mobile hazard.
// Positions arrive as reals because adversaries can be observed mid-move.
type Adversary struct {
	X float64
	Y float64
	// ScaredTimer counts down the turns the adversary stays harmless. Zero means dangerous.
	ScaredTimer int
}

// Cell truncates the sensed position to the grid cell it occupies.
func (a Adversary) Cell() Point {
	return Point{X: int(a.X), Y: int(a.Y)}
}

// Harmless reports whether the adversary is currently scared.
func (a Adversary) Harmless() bool {
	return a.ScaredTimer > 0
}

// World is the complete sensed snapshot for one decision step.
type World struct {
	Corners     []Point
	Walls       []Point
	Food        []Point
	Capsules    []Point
	Adversaries []Adversary
	Agent       Point
	Legal       []Direction
	Turn        int
}

// Clone performs a deep copy of the world.
func (w *World) Clone() *World {
	if w == nil {
		return nil
	}

	out := &World{
		Agent: w.Agent,
		Turn:  w.Turn,
	}
	out.Corners = clonePoints(w.Corners)
	out.Walls = clonePoints(w.Walls)
	out.Food = clonePoints(w.Food)
	out.Capsules = clonePoints(w.Capsules)
	if len(w.Adversaries) > 0 {
		out.Adversaries = make([]Adversary, len(w.Adversaries))
		copy(out.Adversaries, w.Adversaries)
	}
	if len(w.Legal) > 0 {
		out.Legal = make([]Direction, len(w.Legal))
		copy(out.Legal, w.Legal)
	}
	return out
}

// AdversaryCells returns the truncated cells of every sensed adversary.
func (w *World) AdversaryCells() []Point {
	if len(w.Adversaries) == 0 {
		return nil
	}
	cells := make([]Point, len(w.Adversaries))
	for i, a := range w.Adversaries {
		cells[i] = a.Cell()
	}
	return cells
}

func clonePoints(ps []Point) []Point {
	if len(ps) == 0 {
		return nil
	}
	out := make([]Point, len(ps))
	copy(out, ps)
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
