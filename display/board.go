package display

import (
	"fmt"
	"strings"

	"github.com/brensch/gridmdp/game"
	"github.com/charmbracelet/lipgloss"
)

var (
	obstacleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	agentStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Bold(true)
	adversaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")).Bold(true)
	rewardStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	positiveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	negativeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	frameStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Board renders s as a framed grid of fixed-width cells for the TUI.
func Board(s Surface, mk Markers) string {
	w, h := s.Dims()
	rows := make([]string, 0, h)
	for y := h - 1; y >= 0; y-- {
		cells := make([]string, 0, w)
		for x := 0; x < w; x++ {
			cells = append(cells, boardCell(s, mk, game.Point{X: x, Y: y}))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return frameStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func boardCell(s Surface, mk Markers, p game.Point) string {
	v, ok := s.UtilityAt(p.X, p.Y)
	if !ok {
		return obstacleStyle.Render(" ##### ")
	}
	text := fmt.Sprintf("%6.2f ", v)
	switch mk.kind(p) {
	case kindAgent:
		return agentStyle.Render(text)
	case kindAdversary:
		return adversaryStyle.Render(text)
	case kindReward:
		return rewardStyle.Render(text)
	}
	if v < 0 {
		return negativeStyle.Render(text)
	}
	return positiveStyle.Render(text)
}

// Expected formats per-direction expected utilities, marking the chosen move.
func Expected(expected [4]float64, chosen game.Direction) string {
	parts := make([]string, 0, len(game.Canonical))
	for i, d := range game.Canonical {
		part := fmt.Sprintf("%s %.3f", d, expected[i])
		if d == chosen {
			part = agentStyle.Render(part)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "  ")
}
