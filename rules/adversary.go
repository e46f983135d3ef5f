package rules

import (
	"math/rand"

	"github.com/brensch/gridmdp/game"
)

// MoveAdversaries advances every adversary one cell to a uniformly chosen
// passable neighbour and ticks down scared timers. A boxed-in adversary
// stays put. Contact with the agent is resolved afterwards.
func MoveAdversaries(w *game.World, rng *rand.Rand) (*game.World, Outcome) {
	next := w.Clone()
	walls := wallSet(w)
	width, height := bounds(w)

	for i := range next.Adversaries {
		a := &next.Adversaries[i]
		here := a.Cell()
		options := make([]game.Point, 0, 4)
		for _, d := range game.Canonical {
			p := here.Add(d.Delta())
			if isSafe(p, width, height, walls) {
				options = append(options, p)
			}
		}
		if len(options) > 0 {
			to := options[rng.Intn(len(options))]
			a.X, a.Y = float64(to.X), float64(to.Y)
		}
		if a.ScaredTimer > 0 {
			a.ScaredTimer--
		}
	}

	out := Outcome{Moved: game.Stop}
	resolveContact(next, &out)
	return next, out
}
