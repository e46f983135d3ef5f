// layout.go parses text layouts into world snapshots for local simulation.

package game

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadLayout is returned for ragged or unrecognised layouts.
var ErrBadLayout = errors.New("layout: malformed layout")

// Layout glyphs. The first text line is the top row (highest Y).
const (
	GlyphWall      = '%'
	GlyphFood      = '.'
	GlyphCapsule   = 'o'
	GlyphAdversary = 'G'
	GlyphAgent     = 'P'
	GlyphEmpty     = ' '
)

// ParseLayout builds a World from a rectangular text layout.
// Exactly one agent glyph is required.
func ParseLayout(text string) (*World, error) {
	lines := strings.Split(strings.Trim(text, "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	if len(lines) == 0 || len(lines[0]) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadLayout)
	}
	width := len(lines[0])
	height := len(lines)

	w := &World{Corners: Corners(width, height)}
	agents := 0
	for row, line := range lines {
		if len(line) != width {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrBadLayout, row, len(line), width)
		}
		y := height - 1 - row
		for x, ch := range line {
			p := Point{X: x, Y: y}
			switch ch {
			case GlyphWall:
				w.Walls = append(w.Walls, p)
			case GlyphFood:
				w.Food = append(w.Food, p)
			case GlyphCapsule:
				w.Capsules = append(w.Capsules, p)
			case GlyphAdversary:
				w.Adversaries = append(w.Adversaries, Adversary{X: float64(x), Y: float64(y)})
			case GlyphAgent:
				w.Agent = p
				agents++
			case GlyphEmpty:
			default:
				return nil, fmt.Errorf("%w: unknown glyph %q at (%d,%d)", ErrBadLayout, ch, x, y)
			}
		}
	}
	if agents != 1 {
		return nil, fmt.Errorf("%w: want exactly one agent, found %d", ErrBadLayout, agents)
	}
	return w, nil
}

// SmallGrid is a 7x7 walled layout with two adversaries.
const SmallGrid = `
%%%%%%%
%P   .%
% %%% %
%. G .%
% %%% %
%.   G%
%%%%%%%
`

// MediumClassic is a 20x11 walled layout large enough to trigger the
// size-adaptive solver profile.
const MediumClassic = `
%%%%%%%%%%%%%%%%%%%%
%o...%........%....%
%.%%.%.%%%%%%.%.%%.%
%.%...... G........%
%.%%.%.%%  %%.%.%%.%
%......%G  G%......%
%.%%.%.%%%%%%.%.%%.%
%.%...............o%
%.%%.%.%%%%%%.%.%%.%
%....%...P....%....%
%%%%%%%%%%%%%%%%%%%%
`
