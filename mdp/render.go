package mdp

import (
	"fmt"
	"strings"
)

// Render prints m with the highest row first, one fixed-width column per
// cell. Obstacles print as '#'.
func Render(m *UtilityMap) string {
	var b strings.Builder
	g := m.grid
	for y := g.Height - 1; y >= 0; y-- {
		for x := 0; x < g.Width; x++ {
			c := m.cells[y*g.Width+x]
			if c.IsObstacle() {
				fmt.Fprintf(&b, "%8s", "#")
				continue
			}
			v, _ := c.Float()
			fmt.Fprintf(&b, "%8.2f", v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderPolicy prints the greedy direction of every passable cell as an
// arrow, highest row first.
func RenderPolicy(m *UtilityMap, model MotionModel) string {
	var b strings.Builder
	g := m.grid
	for y := g.Height - 1; y >= 0; y-- {
		for x := 0; x < g.Width; x++ {
			p := g.Point(y*g.Width + x)
			if g.IsObstacle(p) {
				b.WriteByte('#')
				continue
			}
			b.WriteString(arrows[BestDirection(m, model, p)])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

var arrows = [...]string{"^", "v", ">", "<", "."}
