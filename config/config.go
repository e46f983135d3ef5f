// Package config loads runtime settings from a .env file and GRIDMDP_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/brensch/gridmdp/mdp"
	"github.com/joho/godotenv"
)

const prefix = "GRIDMDP_"

// Config holds every setting the binaries need.
type Config struct {
	Listen     string
	LogLevel   string
	LogFormat  string
	TraceDir   string
	EpisodeLog string

	Planner mdp.Config
}

// Load reads an optional .env file from the working directory and then the
// environment. Unset keys keep their defaults; malformed values are errors.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug(".env file could not be loaded", "error", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which has the signature of os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	e := env{lookup: lookup}
	cfg := Config{
		Listen:     e.str("LISTEN", ":8080"),
		LogLevel:   e.str("LOG_LEVEL", "info"),
		LogFormat:  e.str("LOG_FORMAT", "pretty"),
		TraceDir:   e.str("TRACE_DIR", ""),
		EpisodeLog: e.str("EPISODE_LOG", ""),
		Planner:    mdp.DefaultConfig(),
	}

	p := &cfg.Planner
	p.Solver.Discount = e.float("DISCOUNT", p.Solver.Discount)
	p.Solver.StepReward = e.float("STEP_REWARD", p.Solver.StepReward)
	p.Solver.Iterations = e.int("ITERATIONS", p.Solver.Iterations)
	p.Solver.Tolerance = e.float("TOLERANCE", p.Solver.Tolerance)
	p.Solver.BufferRadius = e.int("BUFFER_RADIUS", p.Solver.BufferRadius)
	p.Solver.Terminal = e.terminal("TERMINAL", p.Solver.Terminal)

	p.Rewards.Food = e.float("FOOD_REWARD", p.Rewards.Food)
	p.Rewards.Capsule = e.float("CAPSULE_REWARD", p.Rewards.Capsule)
	p.Rewards.AdversaryPenalty = e.float("ADVERSARY_PENALTY", p.Rewards.AdversaryPenalty)
	p.Rewards.SkipScared = e.bool("SKIP_SCARED", p.Rewards.SkipScared)

	if _, ok := e.lookupKey("INTENDED_PROB"); ok {
		p.Motion.Intended = e.float("INTENDED_PROB", p.Motion.Intended)
		p.Motion.Lateral = (1 - p.Motion.Intended) / 2
	}

	p.LargeMapSize = e.int("LARGE_MAP_SIZE", p.LargeMapSize)
	p.Large.Discount = e.float("LARGE_DISCOUNT", p.Large.Discount)
	p.Large.StepReward = e.float("LARGE_STEP_REWARD", p.Large.StepReward)
	p.Large.Iterations = e.int("LARGE_ITERATIONS", p.Large.Iterations)
	p.Large.Terminal = e.terminal("LARGE_TERMINAL", p.Large.Terminal)
	// Tolerance and buffer radius follow the primary profile unless overridden.
	p.Large.Tolerance = e.float("LARGE_TOLERANCE", p.Solver.Tolerance)
	p.Large.BufferRadius = e.int("LARGE_BUFFER_RADIUS", p.Solver.BufferRadius)

	return cfg, errors.Join(e.errs...)
}

// Validate checks the planner settings and the log options.
func (c Config) Validate() error {
	if err := c.Planner.Validate(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "pretty", "json", "text", "":
	default:
		return fmt.Errorf("%sLOG_FORMAT: unknown format %q", prefix, c.LogFormat)
	}
	return nil
}

// LogValue lets a Config be logged as one grouped attribute.
func (c Config) LogValue() slog.Value {
	p := c.Planner
	return slog.GroupValue(
		slog.String("listen", c.Listen),
		slog.String("trace_dir", c.TraceDir),
		slog.Float64("discount", p.Solver.Discount),
		slog.Float64("step_reward", p.Solver.StepReward),
		slog.Int("iterations", p.Solver.Iterations),
		slog.String("terminal", p.Solver.Terminal.String()),
		slog.Float64("intended", p.Motion.Intended),
		slog.Int("large_map_size", p.LargeMapSize),
	)
}

type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) lookupKey(key string) (string, bool) {
	v, ok := e.lookup(prefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookupKey(key); ok {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v, ok := e.lookupKey(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s must be an integer: %w", prefix, key, err))
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v, ok := e.lookupKey(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s must be a number: %w", prefix, key, err))
		return def
	}
	return f
}

func (e *env) bool(key string, def bool) bool {
	v, ok := e.lookupKey(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s must be a boolean: %w", prefix, key, err))
		return def
	}
	return b
}

func (e *env) terminal(key string, def mdp.TerminalPolicy) mdp.TerminalPolicy {
	v, ok := e.lookupKey(key)
	if !ok {
		return def
	}
	t, err := mdp.ParseTerminalPolicy(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", prefix, key, err))
		return def
	}
	return t
}
