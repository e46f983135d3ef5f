package store

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// EpisodeRecord summarises one finished episode.
type EpisodeRecord struct {
	ID      string
	Turns   int
	Visited int
	Outcome string
}

func (r EpisodeRecord) line() string {
	return fmt.Sprintf("%s\t%d\t%d\t%s\n", r.ID, r.Turns, r.Visited, r.Outcome)
}

// parseRecord accepts a full record or a bare ID.
func parseRecord(line string) (EpisodeRecord, bool) {
	fields := strings.Split(strings.TrimSpace(line), "\t")
	if fields[0] == "" {
		return EpisodeRecord{}, false
	}
	rec := EpisodeRecord{ID: fields[0]}
	if len(fields) >= 3 {
		rec.Turns, _ = strconv.Atoi(fields[1])
		rec.Visited, _ = strconv.Atoi(fields[2])
	}
	if len(fields) >= 4 {
		rec.Outcome = fields[3]
	}
	return rec, true
}

// EpisodeLog is an append-only, tab-separated file of finished episodes,
// indexed by ID on open. A torn final line after a crash keeps only its ID.
type EpisodeLog struct {
	mu      sync.RWMutex
	out     *os.File
	records map[string]EpisodeRecord
}

func OpenEpisodeLog(path string) (*EpisodeLog, error) {
	if path == "" {
		return nil, fmt.Errorf("episode log: path is required")
	}
	records, err := loadRecords(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("episode log: mkdir: %w", err)
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("episode log: open: %w", err)
	}
	return &EpisodeLog{out: out, records: records}, nil
}

// loadRecords indexes an existing log. A missing file is an empty log.
func loadRecords(path string) (map[string]EpisodeRecord, error) {
	records := make(map[string]EpisodeRecord)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("episode log: read: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if rec, ok := parseRecord(sc.Text()); ok {
			records[rec.ID] = rec
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("episode log: read %s: %w", path, err)
	}
	return records, nil
}

func (l *EpisodeLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return nil
	}
	err := l.out.Close()
	l.out = nil
	return err
}

// Lookup returns the record logged for id.
func (l *EpisodeLog) Lookup(id string) (EpisodeRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[id]
	return rec, ok
}

func (l *EpisodeLog) Has(id string) bool {
	_, ok := l.Lookup(id)
	return ok
}

func (l *EpisodeLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Add appends rec and fsyncs. An ID that is already logged is skipped.
func (l *EpisodeLog) Add(rec EpisodeRecord) error {
	if rec.ID == "" || strings.ContainsAny(rec.ID, "\t\n") {
		return fmt.Errorf("episode log: invalid id %q", rec.ID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.records[rec.ID]; dup {
		return nil
	}
	if l.out == nil {
		return fmt.Errorf("episode log: closed")
	}
	if _, err := l.out.WriteString(rec.line()); err != nil {
		return fmt.Errorf("episode log: write %s: %w", rec.ID, err)
	}
	if err := l.out.Sync(); err != nil {
		return fmt.Errorf("episode log: sync: %w", err)
	}
	l.records[rec.ID] = rec
	return nil
}
