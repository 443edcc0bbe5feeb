// Package tui implements a read-only terminal viewer onto a running
// sequencer: the step grid and per-track state, refreshed from the
// runtime's published LiveSnapshot. It does not edit patterns; that
// stays the job of whatever builds the song.Song passed to BuildConfig.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-groovebox/groovebox/pkg/logbus"
	"github.com/go-groovebox/groovebox/pkg/sequencer"
	"github.com/go-groovebox/groovebox/pkg/song"
)

// Model is the viewer's bubbletea model. It owns no audio state of its
// own; it only reads the Runtime's snapshot and drains the log bus.
type Model struct {
	rt   *sequencer.Runtime
	subs *logbus.Subscription

	songName string
	bpm      uint32

	Width  int
	Height int

	snapshot sequencer.LiveSnapshot
	haveSnap bool
	logLines []string

	quitting bool
}

// NewModel builds a viewer over a running Runtime for the given song.
// The caller remains responsible for starting and stopping rt. name is
// a display label only (the document model carries no title field).
func NewModel(name string, s song.Song, rt *sequencer.Runtime) Model {
	return Model{
		rt:       rt,
		subs:     logbus.Default.Subscribe(64),
		songName: name,
		bpm:      s.BPM,
		Width:    100,
		Height:   30,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tickCmd())
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		if snap, ok := m.rt.Snapshot(); ok {
			m.snapshot = snap
			m.haveSnap = true
		}
		for _, line := range m.subs.Drain() {
			m.logLines = append(m.logLines, line.Text)
		}
		if n := len(m.logLines); n > 8 {
			m.logLines = m.logLines[n-8:]
		}
		return m, tickCmd()
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("14")).
		Render(fmt.Sprintf("GROOVEBOX — %s", m.songName))
	b.WriteString(title + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("8")).
		Render(fmt.Sprintf("bpm %d", m.bpm)) + "\n\n")

	if !m.haveSnap {
		b.WriteString("waiting for first tick...\n")
	} else {
		b.WriteString(m.renderTracks())
	}

	if len(m.logLines) > 0 {
		b.WriteString("\n")
		logStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		for _, line := range m.logLines {
			b.WriteString(logStyle.Render(line) + "\n")
		}
	}

	footer := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).
		Render("\nq: quit")
	b.WriteString(footer)

	return b.String()
}

func (m Model) renderTracks() string {
	var b strings.Builder
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	futureStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	nameStyle := lipgloss.NewStyle().Bold(true).Width(10)

	for _, tr := range m.snapshot.Tracks {
		b.WriteString(nameStyle.Render(tr.Name))
		b.WriteString(" ")
		n := len(tr.Pattern)
		cursor := 0
		if n > 0 {
			cursor = tr.TokenIndex % n
		}
		for i, hit := range tr.Pattern {
			sym := "."
			if hit {
				sym = "x"
			}
			if i == cursor {
				b.WriteString(activeStyle.Render(sym))
			} else if hit {
				b.WriteString(sym)
			} else {
				b.WriteString(futureStyle.Render(sym))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
