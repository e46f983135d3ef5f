package mdp

import (
	"errors"
	"fmt"

	"github.com/brensch/gridmdp/game"
	"github.com/zyedidia/generic/mapset"
)

// RewardConfig sets the seeded utility of each cell category.
type RewardConfig struct {
	Food             float64
	Capsule          float64
	AdversaryPenalty float64
	// SkipScared leaves scared adversaries unpenalised. Off by default: the
	// scared timer is carried but not used.
	SkipScared bool
}

// DefaultRewards matches the harness's reward scale.
var DefaultRewards = RewardConfig{
	Food:             5,
	Capsule:          5,
	AdversaryPenalty: -10,
}

// Seed is the per-step utility map before any backup, together with the
// cells that act as terminals.
type Seed struct {
	Utilities *UtilityMap
	// Rewards holds the uncollected reward cells that kept their reward value.
	Rewards mapset.Set[game.Point]
	// Adversaries holds every penalised adversary cell.
	Adversaries mapset.Set[game.Point]
}

// BuildSeed records the agent's cell in visited and then seeds a fresh
// utility map for g:
//
//	obstacles                 -> obstacle marker
//	unvisited food / capsules -> reward
//	visited food / capsules   -> 0
//	adversary cells           -> penalty (overrides any reward)
//	everything else           -> 0
//
// Readings outside the bounds are discarded and reported as a joined
// ErrInvalidCoordinate; the returned seed is still usable in that case.
// An empty reward set is not an error.
func BuildSeed(g *game.Grid, w *game.World, visited *History, rc RewardConfig) (*Seed, error) {
	var errs []error
	badReading := func(kind string, p game.Point) {
		errs = append(errs, fmt.Errorf("%w: %s at (%d,%d)", ErrInvalidCoordinate, kind, p.X, p.Y))
	}

	if g.InBounds(w.Agent) {
		visited.Add(w.Agent)
	} else {
		badReading("agent", w.Agent)
	}

	s := &Seed{
		Utilities:   NewUtilityMap(g),
		Rewards:     mapset.New[game.Point](),
		Adversaries: mapset.New[game.Point](),
	}

	seedReward := func(kind string, cells []game.Point, value float64) {
		for _, p := range cells {
			if !g.InBounds(p) {
				badReading(kind, p)
				continue
			}
			if g.IsObstacle(p) {
				continue
			}
			if visited.Contains(p) {
				_ = s.Utilities.Set(p, 0)
				continue
			}
			_ = s.Utilities.Set(p, value)
			s.Rewards.Put(p)
		}
	}
	seedReward("food", w.Food, rc.Food)
	seedReward("capsule", w.Capsules, rc.Capsule)

	for _, a := range w.Adversaries {
		p := a.Cell()
		if !g.InBounds(p) {
			badReading("adversary", p)
			continue
		}
		if g.IsObstacle(p) || (rc.SkipScared && a.Harmless()) {
			continue
		}
		_ = s.Utilities.Set(p, rc.AdversaryPenalty)
		s.Rewards.Remove(p)
		s.Adversaries.Put(p)
	}

	return s, errors.Join(errs...)
}
