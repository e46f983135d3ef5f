package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brensch/gridmdp/display"
	"github.com/brensch/gridmdp/sim"
	"github.com/brensch/gridmdp/store"
	tea "github.com/charmbracelet/bubbletea"
)

func runSim(env *appEnv, args []string) error {
	fs := flag.NewFlagSet("sim", flag.ContinueOnError)
	layout := fs.String("layout", "small", "layout: small, medium or a layout file")
	episodes := fs.Int("episodes", 1, "number of episodes")
	workers := fs.Int("workers", 1, "episodes played in parallel")
	maxTurns := fs.Int("max-turns", 500, "turn limit per episode")
	seed := fs.Int64("seed", 0, "random seed (0 = time based)")
	frozen := fs.Bool("frozen", false, "keep adversaries in place")
	tui := fs.Bool("tui", false, "watch the run in a terminal UI")
	traceDir := fs.String("trace-dir", env.cfg.TraceDir, "write every step to a parquet batch in this directory")
	htmlPath := fs.String("html", "", "write a heatmap of the final utilities to this HTML file")
	color := fs.Bool("color", true, "colour console output")
	finish := plannerFlags(fs, &env.cfg.Planner)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := finish(); err != nil {
		return err
	}

	text, err := loadLayout(*layout)
	if err != nil {
		return err
	}
	planner, err := env.planner()
	if err != nil {
		return err
	}

	var bw *store.BatchWriter
	if *traceDir != "" {
		if bw, err = store.NewBatchWriter(*traceDir); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := sim.Config{
		Planner:           planner,
		Logger:            env.logger,
		Layout:            text,
		Episodes:          *episodes,
		Workers:           *workers,
		MaxTurns:          *maxTurns,
		Seed:              *seed,
		FrozenAdversaries: *frozen,
	}
	snaps := sim.Run(ctx, cfg)

	// The TUI reads from a tee so the recorder below still sees every step.
	var frames chan sim.Snapshot
	var ui *tea.Program
	if *tui {
		frames = make(chan sim.Snapshot, 64)
		ui = tea.NewProgram(newSimModel(frames, *episodes), tea.WithAltScreen())
		go func() {
			if _, err := ui.Run(); err != nil {
				env.logger.Error("tui", "error", err)
			}
			cancel()
		}()
	}

	rec := newRecorder(bw)
	var last sim.Snapshot
	for s := range snaps {
		if frames != nil {
			select {
			case frames <- s:
			case <-ctx.Done():
			}
		}
		if s.Err != nil {
			env.logger.Error("episode failed", "episode", s.Episode, "error", s.Err)
		}
		if err := rec.add(s); err != nil {
			return err
		}
		if s.Decision.Utilities != nil {
			last = s
		}
	}
	if frames != nil {
		close(frames)
		ui.Wait()
	}

	if err := rec.finish(env); err != nil {
		return err
	}
	fmt.Println(rec.summary())

	if last.Decision.Utilities == nil {
		return nil
	}
	if !*tui {
		fmt.Printf("final utilities (episode %d, turn %d):\n", last.Episode, last.Turn)
		if err := display.NewConsole(os.Stdout, *color).PrintUtilities(last.Decision.Utilities, display.MarkersFor(last.Before)); err != nil {
			return err
		}
	}
	if *htmlPath != "" {
		f, err := os.Create(*htmlPath)
		if err != nil {
			return err
		}
		defer f.Close()
		title := fmt.Sprintf("utilities: episode %d turn %d", last.Episode, last.Turn)
		if err := display.WriteHeatmap(f, title, last.Decision.Utilities); err != nil {
			return err
		}
		env.logger.Info("heatmap written", "path", *htmlPath)
	}
	return nil
}

// recorder buffers each episode's trace rows until it finishes and keeps
// outcome counts.
type recorder struct {
	bw       *store.BatchWriter
	pending  map[int][]store.TraceRow
	outcomes map[string]int
	turns    int
	score    int
}

func newRecorder(bw *store.BatchWriter) *recorder {
	return &recorder{bw: bw, pending: map[int][]store.TraceRow{}, outcomes: map[string]int{}}
}

func (r *recorder) add(s sim.Snapshot) error {
	if s.Err == nil && s.Before != nil {
		r.turns++
		if r.bw != nil {
			r.pending[s.Episode] = append(r.pending[s.Episode], s.Row)
		}
	}
	if !s.Done {
		return nil
	}
	if s.Err != nil {
		r.outcomes["error"]++
	} else {
		r.outcomes[s.Outcome]++
		r.score += s.Score
	}
	rows := r.pending[s.Episode]
	delete(r.pending, s.Episode)
	if r.bw == nil {
		return nil
	}
	return r.bw.WriteEpisode(rows)
}

func (r *recorder) finish(env *appEnv) error {
	if r.bw == nil {
		return nil
	}
	out, rows, episodes, err := r.bw.Finalize()
	if err != nil {
		return err
	}
	env.logger.Info("trace written", "path", out, "rows", rows, "episodes", episodes)
	return nil
}

func (r *recorder) summary() string {
	played := 0
	for _, n := range r.outcomes {
		played += n
	}
	avg := 0.0
	if scored := played - r.outcomes["error"]; scored > 0 {
		avg = float64(r.score) / float64(scored)
	}
	return fmt.Sprintf("episodes=%d won=%d lost=%d timeout=%d errors=%d turns=%d avg_score=%.1f",
		played, r.outcomes[sim.OutcomeWon], r.outcomes[sim.OutcomeLost], r.outcomes[sim.OutcomeTimeout],
		r.outcomes["error"], r.turns, avg)
}
