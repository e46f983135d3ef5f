// Package mdp plans one move per step for an agent on a grid by treating the
// world as a Markov decision process and running value iteration.
//
// Each step seeds a fresh utility map from the sensed world and the episode's
// visited history, runs a fixed budget of Bellman sweeps under the stochastic
// motion model, and reads the greedy policy at the agent's cell.
package mdp

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/brensch/gridmdp/game"
	"github.com/google/uuid"
	"github.com/zyedidia/generic/mapset"
)

// Config is the complete planner configuration.
type Config struct {
	Rewards RewardConfig `json:"rewards"`
	Motion  MotionModel  `json:"motion"`
	Solver  SolverConfig `json:"solver"`
	Large   SolverConfig `json:"large"`
	// LargeMapSize switches to Large when width and height are both at least
	// this value. Zero disables the switch.
	LargeMapSize int `json:"large_map_size"`
}

func DefaultConfig() Config {
	return Config{
		Rewards:      DefaultRewards,
		Motion:       DefaultMotion,
		Solver:       DefaultSolver,
		Large:        LargeMapSolver,
		LargeMapSize: 10,
	}
}

func (c Config) Validate() error {
	if err := c.Motion.Validate(); err != nil {
		return err
	}
	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if c.LargeMapSize > 0 {
		if err := c.Large.Validate(); err != nil {
			return fmt.Errorf("large solver: %w", err)
		}
	}
	return nil
}

// SolverFor picks the solver profile for g.
func (c Config) SolverFor(g *game.Grid) SolverConfig {
	if c.LargeMapSize > 0 && g.Width >= c.LargeMapSize && g.Height >= c.LargeMapSize {
		return c.Large
	}
	return c.Solver
}

// Episode is the state that survives between steps of one game.
type Episode struct {
	ID      uuid.UUID
	Grid    *game.Grid
	Visited *History
	Turn    int

	utilities *UtilityMap
	food      mapset.Set[game.Point]
	capsules  mapset.Set[game.Point]
}

// NewEpisode registers a new episode from the first sensed world. The grid
// is built once here and reused for every step.
func NewEpisode(w *game.World) (*Episode, error) {
	g, err := game.NewGrid(w.Corners, w.Walls)
	if err != nil {
		return nil, err
	}
	ep := &Episode{
		ID:      uuid.New(),
		Grid:    g,
		Visited: NewHistory(),
	}
	ep.Reset()
	return ep, nil
}

// Reset clears the per-episode state. The grid and ID are kept.
func (e *Episode) Reset() {
	e.Visited.Reset()
	e.Turn = 0
	e.utilities = nil
	e.food = mapset.New[game.Point]()
	e.capsules = mapset.New[game.Point]()
}

// Utilities returns the last solved map, or nil before the first step.
func (e *Episode) Utilities() *UtilityMap {
	return e.utilities
}

// remember folds the sensed rewards into the episode's memory and returns a
// copy of w whose food and capsules are every remembered, uncollected cell.
// Rewards that leave sensor range are still planned towards.
func (e *Episode) remember(w *game.World) *game.World {
	out := w.Clone()
	out.Food = e.merge(e.food, w.Food)
	out.Capsules = e.merge(e.capsules, w.Capsules)
	return out
}

func (e *Episode) merge(known mapset.Set[game.Point], sensed []game.Point) []game.Point {
	for _, p := range sensed {
		if e.Grid.InBounds(p) {
			known.Put(p)
		}
	}
	out := make([]game.Point, 0, known.Size()+len(sensed))
	known.Each(func(p game.Point) {
		if !e.Visited.Contains(p) {
			out = append(out, p)
		}
	})
	sort.Slice(out, func(i, j int) bool { return e.Grid.Index(out[i]) < e.Grid.Index(out[j]) })
	for _, p := range sensed {
		if !e.Grid.InBounds(p) {
			out = append(out, p)
		}
	}
	return out
}

// Decision is the outcome of one planning step.
type Decision struct {
	EpisodeID uuid.UUID      `json:"episode_id"`
	Turn      int            `json:"turn"`
	Agent     game.Point     `json:"agent"`
	Move      game.Direction `json:"move"`
	// Expected holds the expected utility of North, South, East, West at the agent.
	Expected  [4]float64   `json:"expected"`
	Solver    SolverConfig `json:"solver"`
	Stats     SolveStats   `json:"stats"`
	Utilities *UtilityMap  `json:"-"`
	// Discarded reports sensor readings dropped while seeding. Non-fatal.
	Discarded error `json:"-"`
}

// Planner turns sensed worlds into moves. It is stateless across episodes;
// all per-game state lives in the Episode passed to Step.
type Planner struct {
	cfg    Config
	logger *slog.Logger
}

func NewPlanner(cfg Config, logger *slog.Logger) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Planner{cfg: cfg, logger: logger}, nil
}

func (p *Planner) Config() Config {
	return p.cfg
}

// Step seeds, solves and extracts the move for the agent's current cell.
// Invalid readings are logged and dropped; an invalid solver configuration
// aborts the step. On error the returned decision's Move is Stop.
func (p *Planner) Step(ep *Episode, w *game.World) (Decision, error) {
	if ep == nil {
		return Decision{Move: game.Stop}, ErrNoEpisode
	}

	solver := p.cfg.SolverFor(ep.Grid)
	seed, seedErr := BuildSeed(ep.Grid, ep.remember(w), ep.Visited, p.cfg.Rewards)
	if seedErr != nil {
		p.logger.Warn("discarded sensor readings",
			"episode", ep.ID,
			"turn", ep.Turn,
			"error", seedErr,
		)
	}

	utilities, stats, err := Solve(seed, p.cfg.Motion, solver)
	if err != nil {
		return Decision{Move: game.Stop}, err
	}

	if !ep.Grid.InBounds(w.Agent) {
		// BuildSeed has already reported the agent reading.
		return Decision{EpisodeID: ep.ID, Turn: ep.Turn, Move: game.Stop}, seedErr
	}

	d := Decision{
		EpisodeID: ep.ID,
		Turn:      ep.Turn,
		Agent:     w.Agent,
		Move:      BestLegalDirection(utilities, p.cfg.Motion, w.Agent, w.Legal),
		Solver:    solver,
		Stats:     stats,
		Utilities: utilities,
		Discarded: seedErr,
	}
	if ep.Grid.Passable(w.Agent) {
		d.Expected = Evaluate(utilities, p.cfg.Motion, w.Agent)
	}
	ep.utilities = utilities
	ep.Turn++

	p.logger.Debug("planned move",
		"episode", ep.ID,
		"turn", d.Turn,
		"agent", fmt.Sprintf("(%d,%d)", w.Agent.X, w.Agent.Y),
		"move", d.Move,
		"terminal", solver.Terminal,
		"sweeps", stats.Sweeps,
		"residual", stats.Residual,
		"visited", ep.Visited.Len(),
	)
	return d, nil
}
