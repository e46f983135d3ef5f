package mdp

import (
	"fmt"
	"strings"

	"github.com/brensch/gridmdp/game"
	"github.com/zyedidia/generic/mapset"
)

// TerminalPolicy decides which seeded cells keep their value during backups.
type TerminalPolicy int

const (
	// TerminalPlain freezes every uncollected reward cell and every adversary cell.
	TerminalPlain TerminalPolicy = iota
	// TerminalBuffered also backs up reward cells within the buffer radius of
	// an adversary, so danger propagates through nearby rewards.
	TerminalBuffered
)

func (t TerminalPolicy) String() string {
	switch t {
	case TerminalPlain:
		return "plain"
	case TerminalBuffered:
		return "buffered"
	default:
		return fmt.Sprintf("TerminalPolicy(%d)", int(t))
	}
}

func ParseTerminalPolicy(s string) (TerminalPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "":
		return TerminalPlain, nil
	case "buffered", "buffer":
		return TerminalBuffered, nil
	default:
		return TerminalPlain, fmt.Errorf("unknown terminal policy %q", s)
	}
}

func (t TerminalPolicy) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TerminalPolicy) UnmarshalText(b []byte) error {
	p, err := ParseTerminalPolicy(string(b))
	if err != nil {
		return err
	}
	*t = p
	return nil
}

// terminalCells returns the cells that are never backed up under policy t.
// The buffer is the Manhattan diamond |dx|+|dy| <= radius around each adversary.
func terminalCells(seed *Seed, t TerminalPolicy, radius int) mapset.Set[game.Point] {
	out := mapset.New[game.Point]()
	seed.Adversaries.Each(func(p game.Point) { out.Put(p) })

	if t != TerminalBuffered || seed.Adversaries.Size() == 0 {
		seed.Rewards.Each(func(p game.Point) { out.Put(p) })
		return out
	}

	adversaries := make([]game.Point, 0, seed.Adversaries.Size())
	seed.Adversaries.Each(func(p game.Point) { adversaries = append(adversaries, p) })
	seed.Rewards.Each(func(p game.Point) {
		for _, a := range adversaries {
			if p.Manhattan(a) <= radius {
				return
			}
		}
		out.Put(p)
	})
	return out
}
