// Package store persists planner traces as zstd-compressed Parquet.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/brensch/gridmdp/game"
	"github.com/brensch/gridmdp/mdp"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

const traceSchema = "planner_trace_v1"

// TraceRow is one planning step of one episode.
//
// Utilities holds the solved map row-major (index y*Width+x); obstacle cells
// are listed in ObstacleIndex and stored as 0. Expected is the expected
// utility of North, South, East, West at the agent.
type TraceRow struct {
	EpisodeID string `parquet:"episode_id,dict"`
	Turn      int32  `parquet:"turn"`
	Width     int32  `parquet:"width"`
	Height    int32  `parquet:"height"`

	AgentX int32 `parquet:"agent_x"`
	AgentY int32 `parquet:"agent_y"`

	FoodX []int32 `parquet:"food_x"`
	FoodY []int32 `parquet:"food_y"`

	AdversaryX []float64 `parquet:"adversary_x"`
	AdversaryY []float64 `parquet:"adversary_y"`

	Move     string `parquet:"move,dict"`
	Executed string `parquet:"executed,dict"`

	Terminal   string  `parquet:"terminal,dict"`
	Discount   float64 `parquet:"discount"`
	StepReward float64 `parquet:"step_reward"`
	Sweeps     int32   `parquet:"sweeps"`
	Residual   float64 `parquet:"residual"`

	Expected      []float64 `parquet:"expected"`
	Utilities     []float64 `parquet:"utilities"`
	ObstacleIndex []int32   `parquet:"obstacle_index"`

	Score int32 `parquet:"score"`
	// Outcome is set on the final row of an episode: "won", "lost" or "timeout".
	Outcome string `parquet:"outcome,dict,optional"`
}

// NewTraceRow captures a planning decision, the world it was made in and the
// move the actuator actually carried out.
func NewTraceRow(d mdp.Decision, w *game.World, executed game.Direction, score int) TraceRow {
	row := TraceRow{
		EpisodeID:  d.EpisodeID.String(),
		Turn:       int32(d.Turn),
		AgentX:     int32(w.Agent.X),
		AgentY:     int32(w.Agent.Y),
		Move:       d.Move.String(),
		Executed:   executed.String(),
		Terminal:   d.Solver.Terminal.String(),
		Discount:   d.Solver.Discount,
		StepReward: d.Solver.StepReward,
		Sweeps:     int32(d.Stats.Sweeps),
		Residual:   d.Stats.Residual,
		Expected:   append([]float64(nil), d.Expected[:]...),
		Score:      int32(score),
	}
	for _, f := range w.Food {
		row.FoodX = append(row.FoodX, int32(f.X))
		row.FoodY = append(row.FoodY, int32(f.Y))
	}
	for _, a := range w.Adversaries {
		row.AdversaryX = append(row.AdversaryX, a.X)
		row.AdversaryY = append(row.AdversaryY, a.Y)
	}
	if m := d.Utilities; m != nil {
		g := m.Grid()
		row.Width, row.Height = int32(g.Width), int32(g.Height)
		row.Utilities = m.Floats(nil)
		for _, o := range g.Obstacles() {
			row.ObstacleIndex = append(row.ObstacleIndex, int32(g.Index(o)))
		}
	}
	return row
}

// Dims returns the row's grid width and height.
func (r TraceRow) Dims() (width, height int) {
	return int(r.Width), int(r.Height)
}

// UtilityAt returns the stored utility at (x, y) and false for obstacles or
// coordinates outside the row's grid.
func (r TraceRow) UtilityAt(x, y int) (float64, bool) {
	if x < 0 || y < 0 || x >= int(r.Width) || y >= int(r.Height) {
		return 0, false
	}
	i := y*int(r.Width) + x
	for _, o := range r.ObstacleIndex {
		if int(o) == i {
			return 0, false
		}
	}
	if i >= len(r.Utilities) {
		return 0, false
	}
	return r.Utilities[i], true
}

func writerOptions() []parquet.WriterOption {
	return []parquet.WriterOption{
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("utilities"),
		parquet.KeyValueMetadata("schema", traceSchema),
	}
}

// WriteTraceParquet writes rows to outPath through a temp file and rename so
// readers never observe a partial file.
func WriteTraceParquet(outPath string, rows []TraceRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows, writerOptions()...); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// WriteTraceBatch writes rows into outDir under a time-stamped name and
// returns the final path.
func WriteTraceBatch(outDir string, rows []TraceRow) (string, error) {
	name := fmt.Sprintf("trace_%d.parquet", time.Now().UnixNano())
	outPath := filepath.Join(outDir, name)
	if err := WriteTraceParquet(outPath, rows); err != nil {
		return "", err
	}
	return outPath, nil
}

// ReadTraceParquet loads every row of a trace file.
func ReadTraceParquet(path string) ([]TraceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if schema, ok := pf.Lookup("schema"); ok && schema != traceSchema {
		return nil, fmt.Errorf("unexpected schema %q in %s", schema, path)
	}

	reader := parquet.NewGenericReader[TraceRow](pf)
	defer reader.Close()

	rows := make([]TraceRow, reader.NumRows())
	read := 0
	for read < len(rows) {
		n, err := reader.Read(rows[read:])
		read += n
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rows: %w", err)
		}
	}
	return rows[:read], nil
}
