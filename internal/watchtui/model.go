// Package watchtui renders the `--watch` live dashboard (SPEC_FULL.md
// §3.5): a bubbletea program showing file count, violation/debt counts,
// last file processed, and elapsed time, updated as internal/walker's
// fsnotify-backed watch loop reports changed files. This is a monitor, not
// an editor or language server — spec.md's Non-goals exclude only the
// latter.
package watchtui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// fileResultMsg reports one re-analyzed file's outcome.
type fileResultMsg struct {
	path       string
	violations int
	debtItems  int
	err        error
}

// tickMsg drives the elapsed-time display.
type tickMsg time.Time

// quitMsg is sent once the watch loop itself exits (context cancelled).
type quitMsg struct{}

// Model is the dashboard's bubbletea state: a running tally since the
// watch session started, not since process start.
type Model struct {
	started        time.Time
	filesProcessed int
	violations     int
	debtItems      int
	lastFile       string
	lastErr        error
	errorCount     int
}

// NewModel returns a fresh dashboard model, its clock starting now.
func NewModel() Model {
	return Model{started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case fileResultMsg:
		m.filesProcessed++
		m.lastFile = msg.path
		m.violations += msg.violations
		m.debtItems += msg.debtItems
		if msg.err != nil {
			m.errorCount++
			m.lastErr = msg.err
		}
		return m, nil

	case quitMsg:
		return m, tea.Quit

	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	elapsed := time.Since(m.started).Round(time.Second)
	b := headerStyle.Render("anteater — watching for changes") + "\n\n"
	b += fmt.Sprintf("%s %d\n", labelStyle.Render("files analyzed:"), m.filesProcessed)
	b += fmt.Sprintf("%s %d\n", labelStyle.Render("violations:     "), m.violations)
	b += fmt.Sprintf("%s %d\n", labelStyle.Render("debt items:     "), m.debtItems)
	if m.lastFile != "" {
		b += fmt.Sprintf("%s %s\n", labelStyle.Render("last file:      "), m.lastFile)
	}
	if m.lastErr != nil {
		b += fmt.Sprintf("%s %v\n", errorStyle.Render("last error:     "), m.lastErr)
	}
	b += fmt.Sprintf("%s %s\n", labelStyle.Render("elapsed:        "), elapsed)
	b += "\n" + footerStyle.Render("press q to quit")
	return b
}
