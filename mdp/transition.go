package mdp

import (
	"fmt"
	"math"

	"github.com/brensch/gridmdp/game"
)

// MotionModel is the actuator's outcome distribution: the commanded move
// succeeds with Intended and drifts to each orthogonal side with Lateral.
type MotionModel struct {
	Intended float64
	Lateral  float64
}

// DefaultMotion is the harness actuator.
var DefaultMotion = MotionModel{Intended: 0.8, Lateral: 0.1}

const probabilityEpsilon = 1e-9

func (m MotionModel) Validate() error {
	if m.Intended < 0 || m.Intended > 1 || m.Lateral < 0 || m.Lateral > 1 {
		return fmt.Errorf("%w: intended=%g lateral=%g", ErrInvalidMotionModel, m.Intended, m.Lateral)
	}
	if math.Abs(m.Intended+2*m.Lateral-1) > probabilityEpsilon {
		return fmt.Errorf("%w: intended+2*lateral=%g", ErrInvalidMotionModel, m.Intended+2*m.Lateral)
	}
	return nil
}

// EffectiveTarget is where a move from cell in direction d lands: the
// neighbouring cell, or cell itself when the neighbour is an obstacle or
// outside the bounds.
func EffectiveTarget(g *game.Grid, cell game.Point, d game.Direction) game.Point {
	next := cell.Add(d.Delta())
	if !g.Passable(next) {
		return cell
	}
	return next
}

// ExpectedUtility is the probability-weighted utility of commanding d from
// cell: Intended*U(target(d)) + Lateral*U(target(left)) + Lateral*U(target(right)).
// cell must be passable.
func ExpectedUtility(m *UtilityMap, model MotionModel, cell game.Point, d game.Direction) float64 {
	g := m.grid
	left, right := d.Orthogonal()
	return model.Intended*m.Value(EffectiveTarget(g, cell, d)) +
		model.Lateral*m.Value(EffectiveTarget(g, cell, left)) +
		model.Lateral*m.Value(EffectiveTarget(g, cell, right))
}
