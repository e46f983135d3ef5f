package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/brensch/gridmdp/display"
	"github.com/brensch/gridmdp/game"
	"github.com/brensch/gridmdp/store"
	"github.com/zyedidia/generic/mapset"
)

func runInspect(env *appEnv, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	episode := fs.String("episode", "", "episode ID to show (default: first in file)")
	turn := fs.Int("turn", -1, "turn to print utilities for (-1 = last)")
	htmlPath := fs.String("html", "", "write the selected turn's heatmap to this HTML file")
	color := fs.Bool("color", true, "colour console output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: gridmdp inspect [flags] <trace.parquet>")
	}

	rows, err := store.ReadTraceParquet(fs.Arg(0))
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.New("trace is empty")
	}

	byEpisode := map[string][]store.TraceRow{}
	var order []string
	for _, r := range rows {
		if _, ok := byEpisode[r.EpisodeID]; !ok {
			order = append(order, r.EpisodeID)
		}
		byEpisode[r.EpisodeID] = append(byEpisode[r.EpisodeID], r)
	}
	for _, id := range order {
		ep := byEpisode[id]
		sort.Slice(ep, func(i, j int) bool { return ep[i].Turn < ep[j].Turn })
		last := ep[len(ep)-1]
		fmt.Printf("%s  %dx%d  turns=%d  score=%d  outcome=%s  terminal=%s\n",
			id, last.Width, last.Height, len(ep), last.Score, orDash(last.Outcome), last.Terminal)
	}

	id := *episode
	if id == "" {
		id = order[0]
	}
	ep, ok := byEpisode[id]
	if !ok {
		return fmt.Errorf("episode %s not in trace", id)
	}
	row := ep[len(ep)-1]
	if *turn >= 0 {
		found := false
		for _, r := range ep {
			if int(r.Turn) == *turn {
				row, found = r, true
				break
			}
		}
		if !found {
			return fmt.Errorf("episode %s has no turn %d", id, *turn)
		}
	}

	fmt.Printf("\nepisode %s turn %d: planned %s, executed %s, sweeps %d\n", id, row.Turn, row.Move, row.Executed, row.Sweeps)
	if err := display.NewConsole(os.Stdout, *color).PrintUtilities(row, rowMarkers(row)); err != nil {
		return err
	}
	env.logger.Debug("inspected", "rows", len(rows), "episodes", len(order))

	if *htmlPath == "" {
		return nil
	}
	f, err := os.Create(*htmlPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return display.WriteHeatmap(f, fmt.Sprintf("episode %s turn %d", id, row.Turn), row)
}

func rowMarkers(r store.TraceRow) display.Markers {
	agent := game.Point{X: int(r.AgentX), Y: int(r.AgentY)}
	mk := display.Markers{
		Agent:       &agent,
		Adversaries: mapset.New[game.Point](),
		Rewards:     mapset.New[game.Point](),
	}
	for i := range r.AdversaryX {
		mk.Adversaries.Put(game.Point{X: int(r.AdversaryX[i]), Y: int(r.AdversaryY[i])})
	}
	for i := range r.FoodX {
		mk.Rewards.Put(game.Point{X: int(r.FoodX[i]), Y: int(r.FoodY[i])})
	}
	return mk
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
