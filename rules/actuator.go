package rules

import (
	"math/rand"

	"github.com/brensch/gridmdp/game"
)

// Execute resolves a commanded direction into the move actually made.
//
// With probability intended the command is honoured if it is legal and
// becomes Stop otherwise. With the remaining mass one of the two orthogonal
// directions is picked with equal chance, again collapsing to Stop when that
// drift is illegal.
func Execute(rng *rand.Rand, move game.Direction, legal []game.Direction, intended float64) game.Direction {
	if move == game.Stop {
		return game.Stop
	}
	if rng.Float64() <= intended {
		if game.ContainsDirection(legal, move) {
			return move
		}
		return game.Stop
	}

	left, right := move.Orthogonal()
	drift := right
	if rng.Float64() <= 0.5 {
		drift = left
	}
	if game.ContainsDirection(legal, drift) {
		return drift
	}
	return game.Stop
}
