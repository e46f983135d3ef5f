package sim

import (
	"context"
	"testing"
	"time"

	"github.com/brensch/gridmdp/game"
	"github.com/brensch/gridmdp/mdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlanner(t *testing.T) *mdp.Planner {
	t.Helper()
	p, err := mdp.NewPlanner(mdp.DefaultConfig(), nil)
	require.NoError(t, err)
	return p
}

func collect(t *testing.T, ch <-chan Snapshot) []Snapshot {
	t.Helper()
	var out []Snapshot
	timeout := time.After(30 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, s)
		case <-timeout:
			t.Fatalf("simulation did not finish; %d snapshots so far", len(out))
		}
	}
}

func TestRun_CorridorIsWon(t *testing.T) {
	snaps := collect(t, Run(context.Background(), Config{
		Planner:  testPlanner(t),
		Layout:   "%%%%%%\n%P...%\n%%%%%%",
		MaxTurns: 100,
		Seed:     42,
	}))
	require.NotEmpty(t, snaps)
	last := snaps[len(snaps)-1]
	require.NoError(t, last.Err)
	assert.True(t, last.Done)
	assert.Equal(t, OutcomeWon, last.Outcome)
	assert.Equal(t, OutcomeWon, last.Row.Outcome)
	assert.Empty(t, last.After.Food)

	for i, s := range snaps {
		assert.Equal(t, i, s.Turn)
		assert.Equal(t, game.East, s.Decision.Move, "turn %d", i)
		assert.Contains(t, []game.Direction{game.East, game.Stop}, s.Executed)
	}
}

func TestRun_ManyEpisodes(t *testing.T) {
	const episodes = 4
	snaps := collect(t, Run(context.Background(), Config{
		Planner:  testPlanner(t),
		Layout:   game.SmallGrid,
		Episodes: episodes,
		Workers:  2,
		MaxTurns: 60,
		Seed:     7,
	}))

	done := map[int]Snapshot{}
	turns := map[int]int{}
	ids := map[int]string{}
	for _, s := range snaps {
		require.NoError(t, s.Err)
		if prev, ok := ids[s.Episode]; ok {
			assert.Equal(t, prev, s.EpisodeID)
		}
		ids[s.Episode] = s.EpisodeID
		turns[s.Episode]++
		if s.Done {
			_, dup := done[s.Episode]
			assert.False(t, dup, "episode %d finished twice", s.Episode)
			done[s.Episode] = s
		}
	}
	require.Len(t, done, episodes)
	for idx, s := range done {
		assert.Contains(t, []string{OutcomeWon, OutcomeLost, OutcomeTimeout}, s.Outcome)
		assert.LessOrEqual(t, turns[idx], 60)
		assert.Equal(t, turns[idx]-1, s.Turn)
	}
}

func TestRun_Reproducible(t *testing.T) {
	cfg := Config{Planner: testPlanner(t), Layout: game.SmallGrid, MaxTurns: 40, Seed: 99}
	a := collect(t, Run(context.Background(), cfg))
	b := collect(t, Run(context.Background(), cfg))
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Executed, b[i].Executed)
		assert.Equal(t, a[i].Score, b[i].Score)
		assert.Equal(t, a[i].After.Agent, b[i].After.Agent)
	}
}

func TestRun_BadLayout(t *testing.T) {
	snaps := collect(t, Run(context.Background(), Config{Planner: testPlanner(t), Layout: "%%%\n%%"}))
	require.Len(t, snaps, 1)
	assert.ErrorIs(t, snaps[0].Err, game.ErrBadLayout)

	snaps = collect(t, Run(context.Background(), Config{Layout: game.SmallGrid}))
	require.Len(t, snaps, 1)
	assert.Error(t, snaps[0].Err)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := Run(ctx, Config{Planner: testPlanner(t), Layout: game.MediumClassic, Episodes: 100, Workers: 2, MaxTurns: 1000})
	<-ch
	cancel()
	// Draining must terminate once the context is cancelled.
	collect(t, ch)
}
