// Package sim closes the loop locally: it plays the planner against the rules
// package, with the stochastic actuator between the planned and executed move.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/brensch/gridmdp/game"
	"github.com/brensch/gridmdp/mdp"
	"github.com/brensch/gridmdp/rules"
	"github.com/brensch/gridmdp/store"
)

// Episode outcomes.
const (
	OutcomeWon     = "won"
	OutcomeLost    = "lost"
	OutcomeTimeout = "timeout"
)

// Config describes a simulation run.
type Config struct {
	Planner *mdp.Planner
	Logger  *slog.Logger

	// Layout is a text layout; see game.ParseLayout.
	Layout   string
	Episodes int
	Workers  int
	MaxTurns int
	// Seed makes runs reproducible. Episode i uses Seed+i. Zero picks a
	// time-based seed.
	Seed int64
	// FrozenAdversaries keeps adversaries in place.
	FrozenAdversaries bool
}

func (c *Config) normalize() {
	if c.Episodes <= 0 {
		c.Episodes = 1
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Workers > c.Episodes {
		c.Workers = c.Episodes
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = 500
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

// Snapshot is emitted after every simulated turn.
type Snapshot struct {
	Episode   int
	EpisodeID string
	Turn      int
	// Before is the world the decision was made in; After is the world once
	// the executed move and adversary moves are applied.
	Before   *game.World
	After    *game.World
	Decision mdp.Decision
	Executed game.Direction
	Score    int
	Row      store.TraceRow

	Done    bool
	Outcome string
	Err     error
}

// Run plays cfg.Episodes episodes on cfg.Workers goroutines and streams every
// snapshot. The channel is closed when all episodes finish or ctx is done.
func Run(ctx context.Context, cfg Config) <-chan Snapshot {
	cfg.normalize()
	out := make(chan Snapshot, cfg.Workers*4)

	start, err := game.ParseLayout(cfg.Layout)
	if err != nil || cfg.Planner == nil {
		if err == nil {
			err = fmt.Errorf("sim: planner is required")
		}
		out <- Snapshot{Done: true, Err: err}
		close(out)
		return out
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rng := rand.New(rand.NewSource(cfg.Seed + int64(idx)))
				if err := play(ctx, cfg, idx, start.Clone(), rng, out); err != nil {
					return
				}
			}
		}()
	}

	go func() {
		defer close(out)
		defer wg.Wait()
		defer close(jobs)
		for i := 0; i < cfg.Episodes; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// play runs one episode. It returns a non-nil error only when ctx is done.
func play(ctx context.Context, cfg Config, idx int, w *game.World, rng *rand.Rand, out chan<- Snapshot) error {
	emit := func(s Snapshot) error {
		select {
		case out <- s:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	ep, err := mdp.NewEpisode(w)
	if err != nil {
		return emit(Snapshot{Episode: idx, Done: true, Err: err})
	}
	intended := cfg.Planner.Config().Motion.Intended
	logger := cfg.Logger.With("episode", ep.ID, "index", idx)
	logger.Debug("episode started", "width", ep.Grid.Width, "height", ep.Grid.Height)

	score := 0
	for turn := 0; ; turn++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.Legal = rules.LegalMoves(w)

		d, err := cfg.Planner.Step(ep, w)
		if err != nil {
			logger.Error("planning failed", "turn", turn, "error", err)
			return emit(Snapshot{Episode: idx, EpisodeID: ep.ID.String(), Turn: turn, Before: w, Done: true, Err: err})
		}

		executed := rules.Execute(rng, d.Move, w.Legal, intended)
		next, res := rules.NextState(w, executed)
		score += res.Score
		if !res.Caught && !res.Cleared && !cfg.FrozenAdversaries {
			var adv rules.Outcome
			next, adv = rules.MoveAdversaries(next, rng)
			score += adv.Score
			res.Caught = adv.Caught
		}

		snap := Snapshot{
			Episode:   idx,
			EpisodeID: ep.ID.String(),
			Turn:      turn,
			Before:    w,
			After:     next,
			Decision:  d,
			Executed:  executed,
			Score:     score,
		}
		switch {
		case res.Caught:
			snap.Done, snap.Outcome = true, OutcomeLost
		case res.Cleared:
			snap.Done, snap.Outcome = true, OutcomeWon
		case turn+1 >= cfg.MaxTurns:
			snap.Done, snap.Outcome = true, OutcomeTimeout
		}
		snap.Row = store.NewTraceRow(d, w, executed, score)
		snap.Row.Outcome = snap.Outcome

		if err := emit(snap); err != nil {
			return err
		}
		if snap.Done {
			logger.Info("episode finished", "outcome", snap.Outcome, "turns", turn+1, "score", score, "visited", ep.Visited.Len())
			return nil
		}
		w = next
	}
}
