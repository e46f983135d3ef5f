package mdp

import (
	"math"

	"github.com/brensch/gridmdp/game"
)

// Evaluate returns ExpectedUtility for each canonical direction at cell.
// Obstacle or out-of-bounds cells evaluate to -Inf everywhere.
func Evaluate(m *UtilityMap, model MotionModel, cell game.Point) [4]float64 {
	var out [4]float64
	if !m.grid.Passable(cell) {
		for i := range out {
			out[i] = math.Inf(-1)
		}
		return out
	}
	for i, d := range game.Canonical {
		out[i] = ExpectedUtility(m, model, cell, d)
	}
	return out
}

// BestDirection returns the direction with the highest expected utility at
// cell. Ties go to the earliest of North, South, East, West. A cell that is
// not passable yields Stop.
func BestDirection(m *UtilityMap, model MotionModel, cell game.Point) game.Direction {
	return BestLegalDirection(m, model, cell, nil)
}

// BestLegalDirection is BestDirection restricted to legal. A nil legal slice
// means the harness reported nothing and all four directions are candidates;
// a non-nil empty slice means no move is legal and yields Stop. With a nil
// slice, a cell whose four neighbours are all blocked also yields Stop.
func BestLegalDirection(m *UtilityMap, model MotionModel, cell game.Point, legal []game.Direction) game.Direction {
	if !m.grid.Passable(cell) {
		return game.Stop
	}
	if legal == nil && boxedIn(m.grid, cell) {
		return game.Stop
	}
	best := game.Stop
	bestEU := math.Inf(-1)
	for _, d := range game.Canonical {
		if legal != nil && !game.ContainsDirection(legal, d) {
			continue
		}
		if eu := ExpectedUtility(m, model, cell, d); eu > bestEU || best == game.Stop {
			best, bestEU = d, eu
		}
	}
	return best
}

func boxedIn(g *game.Grid, cell game.Point) bool {
	for _, d := range game.Canonical {
		if g.Passable(cell.Add(d.Delta())) {
			return false
		}
	}
	return true
}
