// Command gridmdp runs the value-iteration grid planner.
//
//	gridmdp serve    HTTP/websocket move server
//	gridmdp sim      local simulation against the built-in rules
//	gridmdp plan     solve one layout and print the utilities and policy
//	gridmdp inspect  summarise a parquet trace
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/brensch/gridmdp/config"
	"github.com/brensch/gridmdp/game"
	"github.com/brensch/gridmdp/logging"
	"github.com/brensch/gridmdp/mdp"
)

type command struct {
	name  string
	usage string
	run   func(env *appEnv, args []string) error
}

var commands = []command{
	{"serve", "run the HTTP move server", runServe},
	{"sim", "simulate episodes locally", runSim},
	{"plan", "solve a single layout and print the result", runPlan},
	{"inspect", "summarise a parquet trace file", runInspect},
}

// appEnv is the shared state every subcommand starts from.
type appEnv struct {
	cfg    config.Config
	logger *slog.Logger
}

func (e *appEnv) planner() (*mdp.Planner, error) {
	return mdp.NewPlanner(e.cfg.Planner, e.logger)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	env := &appEnv{cfg: cfg, logger: logger}

	name := os.Args[1]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(env, os.Args[2:]); err != nil {
			logger.Error(name+" failed", "error", err)
			os.Exit(1)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: gridmdp <command> [flags]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
	}
}

// plannerFlags binds the solver overrides shared by sim and plan onto fs.
func plannerFlags(fs *flag.FlagSet, cfg *mdp.Config) func() error {
	s := &cfg.Solver
	fs.Float64Var(&s.Discount, "discount", s.Discount, "discount factor in (0, 1]")
	fs.Float64Var(&s.StepReward, "step-reward", s.StepReward, "reward applied to every non-terminal backup")
	fs.IntVar(&s.Iterations, "iterations", s.Iterations, "Bellman sweeps per step")
	fs.Float64Var(&s.Tolerance, "tolerance", s.Tolerance, "stop sweeping early below this residual (0 = fixed budget)")
	fs.IntVar(&cfg.LargeMapSize, "large-map-size", cfg.LargeMapSize, "switch to the large-map profile at this width and height (0 = never)")
	terminal := fs.String("terminal", s.Terminal.String(), "terminal policy: plain or buffered")
	return func() error {
		t, err := mdp.ParseTerminalPolicy(*terminal)
		if err != nil {
			return err
		}
		s.Terminal = t
		return cfg.Validate()
	}
}

// loadLayout resolves a built-in layout name or reads a layout file.
func loadLayout(name string) (string, error) {
	switch strings.ToLower(name) {
	case "small", "smallgrid":
		return game.SmallGrid, nil
	case "medium", "mediumclassic":
		return game.MediumClassic, nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("layout %q: %w", name, err)
	}
	return string(b), nil
}
