package mdp

import (
	"fmt"

	"github.com/brensch/gridmdp/game"
)

// UtilityMap holds exactly one Cell for every coordinate inside the grid
// bounds, stored row-major. Obstacle cells are fixed at construction and can
// never be overwritten.
type UtilityMap struct {
	grid  *game.Grid
	cells []Cell
}

// NewUtilityMap returns a map with every passable cell at 0 and every
// obstacle marked.
func NewUtilityMap(g *game.Grid) *UtilityMap {
	m := &UtilityMap{grid: g, cells: make([]Cell, g.Size())}
	for _, o := range g.Obstacles() {
		m.cells[g.Index(o)] = Obstacle()
	}
	return m
}

func (m *UtilityMap) Grid() *game.Grid {
	return m.grid
}

// At returns the cell at p; ok is false outside the bounds.
func (m *UtilityMap) At(p game.Point) (Cell, bool) {
	if !m.grid.InBounds(p) {
		return Cell{}, false
	}
	return m.cells[m.grid.Index(p)], true
}

// Value returns the utility at p, or 0 for obstacles and out-of-bounds points.
func (m *UtilityMap) Value(p game.Point) float64 {
	c, ok := m.At(p)
	if !ok {
		return 0
	}
	v, _ := c.Float()
	return v
}

// Set stores v at p.
func (m *UtilityMap) Set(p game.Point, v float64) error {
	if !m.grid.InBounds(p) {
		return fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrInvalidCoordinate, p.X, p.Y, m.grid.Width, m.grid.Height)
	}
	i := m.grid.Index(p)
	if m.cells[i].IsObstacle() {
		return fmt.Errorf("%w: (%d,%d)", ErrObstacleCell, p.X, p.Y)
	}
	m.cells[i] = Value(v)
	return nil
}

// Clone returns an independent copy sharing only the immutable grid.
func (m *UtilityMap) Clone() *UtilityMap {
	out := &UtilityMap{grid: m.grid, cells: make([]Cell, len(m.cells))}
	copy(out.cells, m.cells)
	return out
}

func (m *UtilityMap) copyFrom(src *UtilityMap) {
	copy(m.cells, src.cells)
}

// Floats writes the utilities into dst (grown as needed) in row-major order.
// Obstacles are written as 0.
func (m *UtilityMap) Floats(dst []float64) []float64 {
	if cap(dst) < len(m.cells) {
		dst = make([]float64, len(m.cells))
	}
	dst = dst[:len(m.cells)]
	for i, c := range m.cells {
		dst[i], _ = c.Float()
	}
	return dst
}

// Each visits every cell in row-major order.
func (m *UtilityMap) Each(fn func(p game.Point, c Cell)) {
	for i, c := range m.cells {
		fn(m.grid.Point(i), c)
	}
}

// Equal reports whether both maps have the same bounds and identical cells.
func (m *UtilityMap) Equal(o *UtilityMap) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.grid.Width != o.grid.Width || m.grid.Height != o.grid.Height {
		return false
	}
	for i := range m.cells {
		if m.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Dims returns the grid width and height.
func (m *UtilityMap) Dims() (width, height int) {
	return m.grid.Width, m.grid.Height
}

// UtilityAt returns the utility at (x, y), or false for obstacles and
// coordinates outside the bounds.
func (m *UtilityMap) UtilityAt(x, y int) (float64, bool) {
	c, ok := m.At(game.Point{X: x, Y: y})
	if !ok {
		return 0, false
	}
	return c.Float()
}
