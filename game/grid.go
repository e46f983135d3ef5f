package game

import (
	"errors"
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// ErrEmptyGrid indicates the corner samples describe no cells.
var ErrEmptyGrid = errors.New("grid: corners describe an empty grid")

// Grid is the fixed index space for one episode: bounds plus static obstacles.
// It is immutable once built.
type Grid struct {
	Width  int
	Height int

	obstacles mapset.Set[Point]
}

// NewGrid derives the bounds from the corner samples (max-x+1, max-y+1) and
// records every in-bounds obstacle. Obstacles outside the bounds are ignored.
func NewGrid(corners []Point, obstacles []Point) (*Grid, error) {
	if len(corners) == 0 {
		return nil, ErrEmptyGrid
	}
	maxX, maxY := corners[0].X, corners[0].Y
	for _, c := range corners[1:] {
		if c.X > maxX {
			maxX = c.X
		}
		if c.Y > maxY {
			maxY = c.Y
		}
	}
	g := &Grid{
		Width:     maxX + 1,
		Height:    maxY + 1,
		obstacles: mapset.New[Point](),
	}
	if g.Width < 1 || g.Height < 1 {
		return nil, ErrEmptyGrid
	}
	for _, o := range obstacles {
		if g.InBounds(o) {
			g.obstacles.Put(o)
		}
	}
	return g, nil
}

// InBounds reports whether 0 <= x < Width and 0 <= y < Height.
func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// IsObstacle reports whether p is a static obstacle.
func (g *Grid) IsObstacle(p Point) bool {
	return g.obstacles.Has(p)
}

// Passable reports whether an agent may occupy p.
func (g *Grid) Passable(p Point) bool {
	return g.InBounds(p) && !g.obstacles.Has(p)
}

// Size is the number of cells inside the bounds.
func (g *Grid) Size() int {
	return g.Width * g.Height
}

// Index maps an in-bounds point to its row-major slot (y*Width + x).
func (g *Grid) Index(p Point) int {
	return p.Y*g.Width + p.X
}

// Point is the inverse of Index.
func (g *Grid) Point(i int) Point {
	return Point{X: i % g.Width, Y: i / g.Width}
}

// Obstacles returns the obstacle cells in row-major order.
func (g *Grid) Obstacles() []Point {
	out := make([]Point, 0, g.obstacles.Size())
	g.obstacles.Each(func(p Point) {
		out = append(out, p)
	})
	sort.Slice(out, func(i, j int) bool { return g.Index(out[i]) < g.Index(out[j]) })
	return out
}

// Corners returns the four corner samples of a width x height grid,
// in the order the harness reports them.
func Corners(width, height int) []Point {
	return []Point{
		{X: 0, Y: 0},
		{X: width - 1, Y: 0},
		{X: 0, Y: height - 1},
		{X: width - 1, Y: height - 1},
	}
}
