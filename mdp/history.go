package mdp

import (
	"github.com/brensch/gridmdp/game"
	"github.com/zyedidia/generic/mapset"
)

// History is the append-only set of cells the agent has occupied this episode.
type History struct {
	seen  mapset.Set[game.Point]
	order []game.Point
}

func NewHistory() *History {
	return &History{seen: mapset.New[game.Point]()}
}

// Add records p and reports whether it was new. Adding twice is a no-op.
func (h *History) Add(p game.Point) bool {
	if h.seen.Has(p) {
		return false
	}
	h.seen.Put(p)
	h.order = append(h.order, p)
	return true
}

func (h *History) Contains(p game.Point) bool {
	return h.seen.Has(p)
}

func (h *History) Len() int {
	return len(h.order)
}

// Points returns the visited cells in first-visit order.
func (h *History) Points() []game.Point {
	out := make([]game.Point, len(h.order))
	copy(out, h.order)
	return out
}

// Reset empties the history at an episode boundary.
func (h *History) Reset() {
	h.seen = mapset.New[game.Point]()
	h.order = nil
}
