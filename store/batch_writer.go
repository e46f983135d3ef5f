package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
)

// BatchWriter collects the trace rows of many episodes into one Parquet
// file. Rows go to dir/tmp while the run is live; Finalize publishes the
// file into dir. Safe for concurrent use by simulation workers and
// server sessions.
type BatchWriter struct {
	mu sync.Mutex

	staging string
	final   string

	f  *os.File
	pw *parquet.GenericWriter[TraceRow]

	episodes int
	rows     int
}

func NewBatchWriter(dir string) (*BatchWriter, error) {
	if dir == "" {
		return nil, fmt.Errorf("trace dir is required")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	stagingDir := filepath.Join(dir, "tmp")
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("trace staging dir: %w", err)
	}

	name := fmt.Sprintf("traces_%s.parquet", time.Now().UTC().Format("20060102T150405.000000000"))
	staging := filepath.Join(stagingDir, name)
	f, err := os.Create(staging)
	if err != nil {
		return nil, fmt.Errorf("create trace file: %w", err)
	}
	return &BatchWriter{
		staging: staging,
		final:   filepath.Join(dir, name),
		f:       f,
		pw:      parquet.NewGenericWriter[TraceRow](f, writerOptions()...),
	}, nil
}

// OutPath is where Finalize publishes the file.
func (b *BatchWriter) OutPath() string { return b.final }

// WriteEpisode appends every row of one finished episode. Empty episodes are
// not counted.
func (b *BatchWriter) WriteEpisode(rows []TraceRow) error {
	if len(rows) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pw == nil {
		return fmt.Errorf("trace batch already finalized")
	}
	if _, err := b.pw.Write(rows); err != nil {
		return fmt.Errorf("write episode %s: %w", rows[0].EpisodeID, err)
	}
	b.rows += len(rows)
	b.episodes++
	return nil
}

// Counts returns the rows and episodes written so far.
func (b *BatchWriter) Counts() (rows, episodes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rows, b.episodes
}

// Finalize flushes and publishes the file. A batch with no rows is
// discarded and reported with an empty path. Calling it twice is a no-op.
func (b *BatchWriter) Finalize() (outPath string, rows int, episodes int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pw == nil {
		return "", 0, 0, nil
	}

	writeErr := b.pw.Close()
	b.pw = nil
	_ = b.f.Sync()
	closeErr := b.f.Close()
	b.f = nil
	switch {
	case writeErr != nil:
		return "", 0, 0, fmt.Errorf("flush trace batch: %w", writeErr)
	case closeErr != nil:
		return "", 0, 0, fmt.Errorf("close trace batch: %w", closeErr)
	}

	if b.rows == 0 {
		_ = os.Remove(b.staging)
		return "", 0, 0, nil
	}
	if err := os.Rename(b.staging, b.final); err != nil {
		return "", 0, 0, fmt.Errorf("publish trace batch: %w", err)
	}
	return b.final, b.rows, b.episodes, nil
}
