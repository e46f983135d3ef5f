// Package rules is the local stand-in for the simulation harness: legal
// moves, world transitions and the stochastic actuator. The planner never
// imports it; the simulator uses it to close the loop.
package rules

import (
	"github.com/brensch/gridmdp/game"
)

// Score deltas applied by NextState.
const (
	ScoreStep      = -1
	ScoreFood      = 10
	ScoreAdversary = 200
	ScoreWin       = 500
	ScoreLose      = -500

	// ScaredTurns is how long adversaries stay harmless after a capsule.
	ScaredTurns = 40
)

// Outcome summarises a single transition.
type Outcome struct {
	Moved     game.Direction
	Collected bool
	Caught    bool
	Cleared   bool
	Score     int
}

// LegalMoves returns the directions the agent can take, in canonical order.
// Stop is never included.
func LegalMoves(w *game.World) []game.Direction {
	walls := wallSet(w)
	width, height := bounds(w)

	moves := make([]game.Direction, 0, 4)
	for _, d := range game.Canonical {
		p := w.Agent.Add(d.Delta())
		if isSafe(p, width, height, walls) {
			moves = append(moves, d)
		}
	}
	return moves
}

func isSafe(p game.Point, width, height int, walls map[game.Point]bool) bool {
	// 1. Bounds
	if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
		return false
	}
	// 2. Walls
	return !walls[p]
}

// NextState returns the world after the agent performs move.
// An illegal move leaves the agent in place. Adversaries do not move here;
// see MoveAdversaries.
func NextState(w *game.World, move game.Direction) (*game.World, Outcome) {
	next := w.Clone()
	next.Turn++
	out := Outcome{Moved: game.Stop, Score: ScoreStep}

	if move != game.Stop && game.ContainsDirection(LegalMoves(w), move) {
		next.Agent = w.Agent.Add(move.Delta())
		out.Moved = move
	}

	// Collect food
	for i, f := range next.Food {
		if f == next.Agent {
			next.Food = append(next.Food[:i], next.Food[i+1:]...)
			out.Collected = true
			out.Score += ScoreFood
			break
		}
	}

	// Collect capsule
	for i, c := range next.Capsules {
		if c == next.Agent {
			next.Capsules = append(next.Capsules[:i], next.Capsules[i+1:]...)
			out.Collected = true
			for j := range next.Adversaries {
				next.Adversaries[j].ScaredTimer = ScaredTurns
			}
			break
		}
	}

	resolveContact(next, &out)
	if !out.Caught && len(next.Food) == 0 {
		out.Cleared = true
		out.Score += ScoreWin
	}
	next.Legal = LegalMoves(next)
	return next, out
}

// resolveContact handles agent/adversary co-location. Scared adversaries are
// eaten and removed; a dangerous one ends the episode.
func resolveContact(w *game.World, out *Outcome) {
	remaining := w.Adversaries[:0]
	for _, a := range w.Adversaries {
		if a.Cell() != w.Agent {
			remaining = append(remaining, a)
			continue
		}
		if a.Harmless() {
			out.Score += ScoreAdversary
			continue
		}
		out.Caught = true
		remaining = append(remaining, a)
	}
	w.Adversaries = remaining
	if out.Caught {
		out.Score += ScoreLose
	}
}

// IsTerminal reports whether the episode is over: the agent shares a cell with
// a dangerous adversary, or no food remains.
func IsTerminal(w *game.World) bool {
	for _, a := range w.Adversaries {
		if a.Cell() == w.Agent && !a.Harmless() {
			return true
		}
	}
	return len(w.Food) == 0
}

// Won reports whether a terminal world is a win for the agent.
func Won(w *game.World) bool {
	for _, a := range w.Adversaries {
		if a.Cell() == w.Agent && !a.Harmless() {
			return false
		}
	}
	return len(w.Food) == 0
}

func wallSet(w *game.World) map[game.Point]bool {
	walls := make(map[game.Point]bool, len(w.Walls))
	for _, p := range w.Walls {
		walls[p] = true
	}
	return walls
}

func bounds(w *game.World) (int, int) {
	width, height := 0, 0
	for _, c := range w.Corners {
		if c.X+1 > width {
			width = c.X + 1
		}
		if c.Y+1 > height {
			height = c.Y + 1
		}
	}
	return width, height
}
