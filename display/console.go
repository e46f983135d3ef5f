package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/brensch/gridmdp/game"
	"github.com/logrusorgru/aurora"
)

// Console prints utility grids to a terminal.
type Console struct {
	out io.Writer
	au  aurora.Aurora
}

// NewConsole writes to w, with ANSI colours only when color is true.
func NewConsole(w io.Writer, color bool) *Console {
	return &Console{out: w, au: aurora.NewAurora(color)}
}

// PrintUtilities prints s with the highest row first. Obstacles print as '#',
// the agent green, adversaries red, rewards yellow and the rest blue.
func (c *Console) PrintUtilities(s Surface, mk Markers) error {
	w, h := s.Dims()
	var b strings.Builder
	for y := h - 1; y >= 0; y-- {
		for x := 0; x < w; x++ {
			v, ok := s.UtilityAt(x, y)
			if !ok {
				b.WriteString(c.au.White(fmt.Sprintf("%7s ", "#")).String())
				continue
			}
			cell := formatUtility(v)
			switch mk.kind(game.Point{X: x, Y: y}) {
			case kindAgent:
				b.WriteString(c.au.Bold(c.au.Green(cell)).String())
			case kindAdversary:
				b.WriteString(c.au.Red(cell).String())
			case kindReward:
				b.WriteString(c.au.Yellow(cell).String())
			default:
				b.WriteString(c.au.Blue(cell).String())
			}
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(c.out, b.String())
	return err
}

func formatUtility(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-%06.2f", -v)
	}
	return fmt.Sprintf(" %06.2f", v)
}
