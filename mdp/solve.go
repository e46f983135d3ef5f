package mdp

import (
	"fmt"
	"math"

	"github.com/brensch/gridmdp/game"
	"gonum.org/v1/gonum/floats"
)

// SolverConfig holds the Bellman backup parameters for one step.
type SolverConfig struct {
	StepReward   float64        `json:"step_reward"`
	Discount     float64        `json:"discount"`
	Iterations   int            `json:"iterations"`
	Terminal     TerminalPolicy `json:"terminal"`
	BufferRadius int            `json:"buffer_radius"`
	// Tolerance > 0 allows stopping before the budget once the sup-norm change
	// of a sweep drops below Tolerance*(1-Discount)/Discount.
	Tolerance float64 `json:"tolerance"`
}

// DefaultSolver suits small maps.
var DefaultSolver = SolverConfig{
	StepReward:   -0.04,
	Discount:     0.8,
	Iterations:   50,
	Terminal:     TerminalPlain,
	BufferRadius: 4,
}

// LargeMapSolver is used once both grid dimensions reach the large-map size.
var LargeMapSolver = SolverConfig{
	StepReward:   -0.5,
	Discount:     0.7,
	Iterations:   200,
	Terminal:     TerminalBuffered,
	BufferRadius: 4,
}

func (c SolverConfig) Validate() error {
	if !(c.Discount > 0 && c.Discount <= 1) {
		return fmt.Errorf("%w: got %g", ErrInvalidDiscount, c.Discount)
	}
	if c.Iterations < 0 || c.BufferRadius < 0 {
		return fmt.Errorf("%w: iterations=%d buffer_radius=%d", ErrInvalidBudget, c.Iterations, c.BufferRadius)
	}
	return nil
}

// SolveStats describes one Solve call.
type SolveStats struct {
	Sweeps    int     `json:"sweeps"`
	Residual  float64 `json:"residual"`
	Converged bool    `json:"converged"`
	Active    int     `json:"active"`
}

// Solve runs synchronous Bellman sweeps over seed.Utilities in place and
// returns it. Every sweep reads only the previous sweep's values. Obstacle
// and terminal cells keep their seeded value; every other cell becomes
//
//	StepReward + Discount * max_d ExpectedUtility(prev, cell, d)
//
// Exactly Iterations sweeps run unless Tolerance is set and reached first.
func Solve(seed *Seed, model MotionModel, cfg SolverConfig) (*UtilityMap, SolveStats, error) {
	var stats SolveStats
	if err := cfg.Validate(); err != nil {
		return nil, stats, err
	}
	if err := model.Validate(); err != nil {
		return nil, stats, err
	}

	cur := seed.Utilities
	g := cur.grid
	terminals := terminalCells(seed, cfg.Terminal, cfg.BufferRadius)

	active := make([]int, 0, g.Size())
	for i, c := range cur.cells {
		if c.IsObstacle() || terminals.Has(g.Point(i)) {
			continue
		}
		active = append(active, i)
	}
	stats.Active = len(active)

	threshold := 0.0
	if cfg.Tolerance > 0 {
		threshold = cfg.Tolerance
		if cfg.Discount < 1 {
			threshold = cfg.Tolerance * (1 - cfg.Discount) / cfg.Discount
		}
	}

	prev := cur.Clone()
	var prevVals, curVals []float64
	for sweep := 0; sweep < cfg.Iterations; sweep++ {
		prev.copyFrom(cur)
		for _, i := range active {
			p := g.Point(i)
			best := math.Inf(-1)
			for _, d := range game.Canonical {
				if eu := ExpectedUtility(prev, model, p, d); eu > best {
					best = eu
				}
			}
			cur.cells[i] = Value(cfg.StepReward + cfg.Discount*best)
		}
		stats.Sweeps++

		prevVals = prev.Floats(prevVals)
		curVals = cur.Floats(curVals)
		stats.Residual = floats.Distance(curVals, prevVals, math.Inf(1))
		if threshold > 0 && stats.Residual < threshold {
			stats.Converged = true
			break
		}
	}
	return cur, stats, nil
}
