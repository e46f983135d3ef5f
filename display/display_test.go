package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/brensch/gridmdp/game"
	"github.com/brensch/gridmdp/mdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solvedSmallGrid(t *testing.T) (*mdp.UtilityMap, *game.World) {
	t.Helper()
	w, err := game.ParseLayout(game.SmallGrid)
	require.NoError(t, err)
	g, err := game.NewGrid(w.Corners, w.Walls)
	require.NoError(t, err)
	seed, err := mdp.BuildSeed(g, w, mdp.NewHistory(), mdp.DefaultRewards)
	require.NoError(t, err)
	m, _, err := mdp.Solve(seed, mdp.DefaultMotion, mdp.DefaultSolver)
	require.NoError(t, err)
	return m, w
}

func TestConsole_PrintUtilities(t *testing.T) {
	m, w := solvedSmallGrid(t)
	var buf bytes.Buffer
	require.NoError(t, NewConsole(&buf, false).PrintUtilities(m, MarkersFor(w)))
	out := buf.String()
	t.Logf("\n%s", out)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.NotContains(t, out, "\x1b[", "colour disabled")
	assert.Equal(t, 7, strings.Count(lines[0], "#"), "top row is all wall")
	assert.Contains(t, lines[1], " 005.00", "food at (5,5) keeps its reward")
	assert.Contains(t, lines[3], "-010.00", "adversary at (3,3)")
}

func TestConsole_Colour(t *testing.T) {
	m, w := solvedSmallGrid(t)
	var buf bytes.Buffer
	require.NoError(t, NewConsole(&buf, true).PrintUtilities(m, MarkersFor(w)))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestBoard(t *testing.T) {
	m, w := solvedSmallGrid(t)
	out := Board(m, MarkersFor(w))
	assert.Contains(t, out, "#####")
	assert.Contains(t, out, "5.00")
	assert.Contains(t, out, "-10.00")

	exp := Expected([4]float64{1, 2, 3, 4}, game.West)
	assert.Contains(t, exp, "North 1.000")
	assert.Contains(t, exp, "West 4.000")
}

func TestWriteHeatmap(t *testing.T) {
	m, _ := solvedSmallGrid(t)
	var buf bytes.Buffer
	require.NoError(t, WriteHeatmap(&buf, "small grid utilities", m))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "small grid utilities", strings.TrimSpace(doc.Find("title").First().Text()))

	var scripts strings.Builder
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		scripts.WriteString(s.Text())
	})
	assert.Contains(t, scripts.String(), "heatmap")
	assert.Contains(t, scripts.String(), "utility")
	assert.Equal(t, 1, doc.Find("div.item").Length())
}

type emptySurface struct{}

func (emptySurface) Dims() (int, int)                 { return 0, 0 }
func (emptySurface) UtilityAt(int, int) (float64, bool) { return 0, false }

func TestWriteHeatmap_Empty(t *testing.T) {
	assert.Error(t, WriteHeatmap(&bytes.Buffer{}, "empty", emptySurface{}))
}

func TestMarkersFor(t *testing.T) {
	w, err := game.ParseLayout(game.SmallGrid)
	require.NoError(t, err)
	mk := MarkersFor(w)
	assert.Equal(t, kindAgent, mk.kind(game.Point{X: 1, Y: 5}))
	assert.Equal(t, kindAdversary, mk.kind(game.Point{X: 3, Y: 3}))
	assert.Equal(t, kindReward, mk.kind(game.Point{X: 5, Y: 5}))
	assert.Equal(t, kindPlain, mk.kind(game.Point{X: 2, Y: 5}))
	assert.Equal(t, kindPlain, MarkersFor(nil).kind(game.Point{}))
}

func TestMarkers_ZeroValue(t *testing.T) {
	var mk Markers
	assert.Equal(t, kindPlain, mk.kind(game.Point{X: 1, Y: 1}))

	m, _ := solvedSmallGrid(t)
	assert.NotEmpty(t, Board(m, Markers{}))
	var buf bytes.Buffer
	require.NoError(t, NewConsole(&buf, false).PrintUtilities(m, Markers{}))
	assert.Contains(t, buf.String(), "#")
}
