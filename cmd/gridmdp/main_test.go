package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/brensch/gridmdp/game"
	"github.com/brensch/gridmdp/mdp"
	"github.com/brensch/gridmdp/sim"
	"github.com/brensch/gridmdp/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLayout(t *testing.T) {
	text, err := loadLayout("small")
	require.NoError(t, err)
	assert.Equal(t, game.SmallGrid, text)

	path := filepath.Join(t.TempDir(), "tiny.lay")
	require.NoError(t, os.WriteFile(path, []byte("%%%%\n%P.%\n%%%%\n"), 0o644))
	text, err = loadLayout(path)
	require.NoError(t, err)
	_, err = game.ParseLayout(text)
	assert.NoError(t, err)

	_, err = loadLayout(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestPlannerFlags(t *testing.T) {
	cfg := mdp.DefaultConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	finish := plannerFlags(fs, &cfg)
	require.NoError(t, fs.Parse([]string{"-discount", "0.7", "-terminal", "buffered", "-iterations", "100"}))
	require.NoError(t, finish())
	assert.Equal(t, 0.7, cfg.Solver.Discount)
	assert.Equal(t, mdp.TerminalBuffered, cfg.Solver.Terminal)
	assert.Equal(t, 100, cfg.Solver.Iterations)

	cfg = mdp.DefaultConfig()
	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	finish = plannerFlags(fs, &cfg)
	require.NoError(t, fs.Parse([]string{"-discount", "0"}))
	assert.ErrorIs(t, finish(), mdp.ErrInvalidDiscount)
}

func TestRecorder(t *testing.T) {
	bw, err := store.NewBatchWriter(t.TempDir())
	require.NoError(t, err)
	rec := newRecorder(bw)

	w := &game.World{}
	require.NoError(t, rec.add(sim.Snapshot{Episode: 0, Before: w, Row: store.TraceRow{EpisodeID: "a"}}))
	require.NoError(t, rec.add(sim.Snapshot{Episode: 1, Before: w, Row: store.TraceRow{EpisodeID: "b"}}))
	require.NoError(t, rec.add(sim.Snapshot{Episode: 0, Before: w, Row: store.TraceRow{EpisodeID: "a", Turn: 1}, Done: true, Outcome: sim.OutcomeWon, Score: 40}))
	require.NoError(t, rec.add(sim.Snapshot{Episode: 1, Before: w, Done: true, Err: assert.AnError}))

	rows, episodes := bw.Counts()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, episodes, "a failed episode still keeps its partial rows")
	assert.Contains(t, rec.summary(), "episodes=2 won=1 lost=0 timeout=0 errors=1")
	assert.Contains(t, rec.summary(), "avg_score=40.0")
}
