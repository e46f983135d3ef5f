// Package display renders utility maps for people: a coloured console grid,
// lipgloss-styled boards for the TUI and an HTML heatmap.
package display

import (
	"github.com/brensch/gridmdp/game"
	"github.com/zyedidia/generic/mapset"
)

// Surface is a rectangular field of utilities. Both solved utility maps and
// stored trace rows satisfy it.
type Surface interface {
	Dims() (width, height int)
	// UtilityAt returns false for obstacles and coordinates outside the field.
	UtilityAt(x, y int) (float64, bool)
}

// Markers are the entities overlaid on a rendered surface.
type Markers struct {
	Agent       *game.Point
	Adversaries mapset.Set[game.Point]
	Rewards     mapset.Set[game.Point]
}

// MarkersFor extracts the overlay from a sensed world. A nil world yields
// empty markers.
func MarkersFor(w *game.World) Markers {
	m := Markers{
		Adversaries: mapset.New[game.Point](),
		Rewards:     mapset.New[game.Point](),
	}
	if w == nil {
		return m
	}
	agent := w.Agent
	m.Agent = &agent
	for _, p := range w.AdversaryCells() {
		m.Adversaries.Put(p)
	}
	for _, p := range w.Food {
		m.Rewards.Put(p)
	}
	for _, p := range w.Capsules {
		m.Rewards.Put(p)
	}
	return m
}

func (m Markers) kind(p game.Point) cellKind {
	switch {
	case m.Agent != nil && *m.Agent == p:
		return kindAgent
	case m.Adversaries.Has(p):
		return kindAdversary
	case m.Rewards.Has(p):
		return kindReward
	default:
		return kindPlain
	}
}

type cellKind int

const (
	kindPlain cellKind = iota
	kindAgent
	kindAdversary
	kindReward
)

// bounds returns the min and max utility over the passable cells.
func bounds(s Surface) (lo, hi float64, found bool) {
	w, h := s.Dims()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v, ok := s.UtilityAt(x, y)
			if !ok {
				continue
			}
			if !found || v < lo {
				lo = v
			}
			if !found || v > hi {
				hi = v
			}
			found = true
		}
	}
	return lo, hi, found
}
