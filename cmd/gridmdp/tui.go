package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/brensch/gridmdp/display"
	"github.com/brensch/gridmdp/sim"
	tea "github.com/charmbracelet/bubbletea"
)

type simModel struct {
	frames   <-chan sim.Snapshot
	total    int
	started  time.Time
	current  sim.Snapshot
	finished int
	recent   []string
	closed   bool
}

type snapshotMsg struct {
	snap sim.Snapshot
	ok   bool
}

func newSimModel(frames <-chan sim.Snapshot, total int) simModel {
	return simModel{frames: frames, total: total, started: time.Now()}
}

func waitForSnapshot(frames <-chan sim.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-frames
		return snapshotMsg{snap: s, ok: ok}
	}
}

func (m simModel) Init() tea.Cmd {
	return waitForSnapshot(m.frames)
}

func (m simModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case snapshotMsg:
		if !msg.ok {
			m.closed = true
			return m, nil
		}
		m.current = msg.snap
		if msg.snap.Done {
			m.finished++
			line := fmt.Sprintf("episode %d: %s after %d turns, score %d", msg.snap.Episode, msg.snap.Outcome, msg.snap.Turn+1, msg.snap.Score)
			if msg.snap.Err != nil {
				line = fmt.Sprintf("episode %d: error: %v", msg.snap.Episode, msg.snap.Err)
			}
			m.recent = append([]string{line}, m.recent...)
			if len(m.recent) > 8 {
				m.recent = m.recent[:8]
			}
		}
		return m, waitForSnapshot(m.frames)
	}
	return m, nil
}

func (m simModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Episodes: %d/%d   Elapsed: %s\n", m.finished, m.total, time.Since(m.started).Round(time.Second))
	s := m.current
	if u := s.Decision.Utilities; u != nil {
		fmt.Fprintf(&b, "Episode %d  Turn %d  Score %d  Planned %s  Executed %s  Sweeps %d\n\n",
			s.Episode, s.Turn, s.Score, s.Decision.Move, s.Executed, s.Decision.Stats.Sweeps)
		b.WriteString(display.Board(u, display.MarkersFor(s.Before)))
		b.WriteString("\n")
		b.WriteString(display.Expected(s.Decision.Expected, s.Decision.Move))
		b.WriteString("\n")
	}
	b.WriteString("\nFinished:\n")
	for _, line := range m.recent {
		b.WriteString(line + "\n")
	}
	if m.closed {
		b.WriteString("\nRun complete. Press q to quit.\n")
	} else {
		b.WriteString("\nPress q to quit.\n")
	}
	return b.String()
}
