package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/brensch/gridmdp/display"
	"github.com/brensch/gridmdp/game"
	"github.com/brensch/gridmdp/mdp"
)

func runPlan(env *appEnv, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	layout := fs.String("layout", "small", "layout: small, medium or a layout file")
	htmlPath := fs.String("html", "", "also write a heatmap to this HTML file")
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
	w, err := game.ParseLayout(text)
	if err != nil {
		return err
	}
	planner, err := env.planner()
	if err != nil {
		return err
	}
	ep, err := mdp.NewEpisode(w)
	if err != nil {
		return err
	}
	d, err := planner.Step(ep, w)
	if err != nil {
		return err
	}

	fmt.Printf("%dx%d grid, %s terminals, %d sweeps, residual %.3g\n",
		ep.Grid.Width, ep.Grid.Height, d.Solver.Terminal, d.Stats.Sweeps, d.Stats.Residual)
	if err := display.NewConsole(os.Stdout, *color).PrintUtilities(d.Utilities, display.MarkersFor(w)); err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(mdp.RenderPolicy(d.Utilities, planner.Config().Motion))
	fmt.Printf("\nmove at (%d,%d): %s\n", w.Agent.X, w.Agent.Y, d.Move)
	for i, dir := range game.Canonical {
		fmt.Printf("  %-5s %8.3f\n", dir, d.Expected[i])
	}

	if *htmlPath == "" {
		return nil
	}
	f, err := os.Create(*htmlPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return display.WriteHeatmap(f, fmt.Sprintf("utilities: %s", *layout), d.Utilities)
}
