package rules

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/brensch/gridmdp/game"
)

func dumpWorld(w *game.World) string {
	if w == nil {
		return "<nil world>"
	}

	var b strings.Builder
	width, height := bounds(w)
	fmt.Fprintf(&b, "Turn=%d Size=%dx%d Agent=(%d,%d)\n", w.Turn, width, height, w.Agent.X, w.Agent.Y)

	fmt.Fprintf(&b, "Food(%d):", len(w.Food))
	for _, f := range w.Food {
		fmt.Fprintf(&b, " (%d,%d)", f.X, f.Y)
	}
	b.WriteString("\n")
	for _, a := range w.Adversaries {
		fmt.Fprintf(&b, "Adversary (%.1f,%.1f) scared=%d\n", a.X, a.Y, a.ScaredTimer)
	}

	if width > 0 && height > 0 && width <= 40 && height <= 40 {
		walls := wallSet(w)
		food := make(map[game.Point]bool, len(w.Food))
		for _, f := range w.Food {
			food[f] = true
		}
		ghosts := make(map[game.Point]bool, len(w.Adversaries))
		for _, a := range w.Adversaries {
			ghosts[a.Cell()] = true
		}

		b.WriteString("Board:\n")
		for y := height - 1; y >= 0; y-- {
			for x := 0; x < width; x++ {
				p := game.Point{X: x, Y: y}
				switch {
				case p == w.Agent:
					b.WriteByte('P')
				case ghosts[p]:
					b.WriteByte('G')
				case walls[p]:
					b.WriteByte('%')
				case food[p]:
					b.WriteByte('.')
				default:
					b.WriteByte(' ')
				}
			}
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func logNextState(t *testing.T, name string, before *game.World, move game.Direction, after *game.World) {
	t.Helper()
	t.Logf("=== %s ===\nBefore:\n%sMove: %s\nAfter:\n%s", name, dumpWorld(before), move, dumpWorld(after))
}

func mustLayout(t *testing.T, text string) *game.World {
	t.Helper()
	w, err := game.ParseLayout(text)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	return w
}

func TestLegalMoves_CanonicalOrder(t *testing.T) {
	w := mustLayout(t, `
%%%%%
%   %
% P %
%   %
%%%%%
`)
	got := LegalMoves(w)
	want := []game.Direction{game.North, game.South, game.East, game.West}
	if len(got) != len(want) {
		t.Fatalf("moves=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("moves[%d]=%s want=%s", i, got[i], want[i])
		}
	}
}

func TestLegalMoves_WallsAndBounds(t *testing.T) {
	w := mustLayout(t, `
%%%%
%P %
%%%%
`)
	got := LegalMoves(w)
	if len(got) != 1 || got[0] != game.East {
		t.Fatalf("moves=%v want=[East]", got)
	}

	// Agent on the top-right corner with no walls around: North and East leave the bounds.
	open := &game.World{Corners: game.Corners(3, 3), Agent: game.Point{X: 2, Y: 2}}
	got = LegalMoves(open)
	if len(got) != 2 || got[0] != game.South || got[1] != game.West {
		t.Fatalf("moves=%v want=[South West]", got)
	}
}

func TestNextState_EatFood(t *testing.T) {
	before := mustLayout(t, `
%%%%%
%P..%
%%%%%
`)
	after, out := NextState(before, game.East)
	logNextState(t, "NextState eat food", before, game.East, after)

	if after.Agent != (game.Point{X: 2, Y: 1}) {
		t.Fatalf("agent=%v want (2,1)", after.Agent)
	}
	if !out.Collected || len(after.Food) != 1 {
		t.Fatalf("collected=%v food=%d", out.Collected, len(after.Food))
	}
	if out.Score != ScoreStep+ScoreFood {
		t.Fatalf("score=%d want=%d", out.Score, ScoreStep+ScoreFood)
	}
	if len(before.Food) != 2 {
		t.Fatalf("NextState mutated its input")
	}
}

func TestNextState_IllegalMoveStaysPut(t *testing.T) {
	before := mustLayout(t, `
%%%%
%P.%
%%%%
`)
	after, out := NextState(before, game.North)
	logNextState(t, "NextState illegal", before, game.North, after)
	if after.Agent != before.Agent || out.Moved != game.Stop {
		t.Fatalf("agent=%v moved=%s", after.Agent, out.Moved)
	}
	if after.Turn != before.Turn+1 {
		t.Fatalf("turn=%d want=%d", after.Turn, before.Turn+1)
	}
}

func TestNextState_LastFoodClears(t *testing.T) {
	before := mustLayout(t, `
%%%%
%P.%
%%%%
`)
	after, out := NextState(before, game.East)
	if !out.Cleared || !IsTerminal(after) || !Won(after) {
		t.Fatalf("cleared=%v terminal=%v won=%v", out.Cleared, IsTerminal(after), Won(after))
	}
}

func TestNextState_WalkIntoAdversary(t *testing.T) {
	before := mustLayout(t, `
%%%%%
%PG.%
%%%%%
`)
	after, out := NextState(before, game.East)
	logNextState(t, "NextState caught", before, game.East, after)
	if !out.Caught || !IsTerminal(after) || Won(after) {
		t.Fatalf("caught=%v terminal=%v won=%v", out.Caught, IsTerminal(after), Won(after))
	}
}

func TestNextState_CapsuleScaresAdversaries(t *testing.T) {
	before := mustLayout(t, `
%%%%%%
%PoG.%
%%%%%%
`)
	mid, _ := NextState(before, game.East)
	if mid.Adversaries[0].ScaredTimer != ScaredTurns {
		t.Fatalf("scared=%d want=%d", mid.Adversaries[0].ScaredTimer, ScaredTurns)
	}
	after, out := NextState(mid, game.East)
	logNextState(t, "NextState eat scared adversary", mid, game.East, after)
	if out.Caught || len(after.Adversaries) != 0 {
		t.Fatalf("caught=%v adversaries=%d", out.Caught, len(after.Adversaries))
	}
}

func TestMoveAdversaries_StaysOnPassableCells(t *testing.T) {
	w := mustLayout(t, game.SmallGrid)
	walls := wallSet(w)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		w, _ = MoveAdversaries(w, rng)
		for _, a := range w.Adversaries {
			if walls[a.Cell()] {
				t.Fatalf("adversary moved into a wall at %v\n%s", a.Cell(), dumpWorld(w))
			}
		}
	}
}

func TestExecute_Distribution(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	legal := []game.Direction{game.North, game.East, game.West}
	counts := map[game.Direction]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		counts[Execute(rng, game.North, legal, 0.8)]++
	}
	if counts[game.South] != 0 || counts[game.Stop] != 0 {
		t.Fatalf("unexpected outcomes: %v", counts)
	}
	north := float64(counts[game.North]) / n
	if north < 0.77 || north > 0.83 {
		t.Fatalf("north share=%.3f want ~0.8", north)
	}
	east := float64(counts[game.East]) / n
	west := float64(counts[game.West]) / n
	if east < 0.08 || east > 0.12 || west < 0.08 || west > 0.12 {
		t.Fatalf("lateral shares east=%.3f west=%.3f want ~0.1", east, west)
	}
}

func TestExecute_IllegalCollapsesToStop(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 200; i++ {
		got := Execute(rng, game.North, nil, 0.8)
		if got != game.Stop {
			t.Fatalf("Execute with no legal moves=%s want Stop", got)
		}
	}
	if got := Execute(rng, game.Stop, []game.Direction{game.North}, 0.8); got != game.Stop {
		t.Fatalf("Execute(Stop)=%s", got)
	}
}
