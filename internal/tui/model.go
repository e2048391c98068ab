// Package tui is the terminal host: the timer, the focused task and session
// stats, driven by bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/pomodoro/internal/models"
	"github.com/starford/pomodoro/internal/notes"
	"github.com/starford/pomodoro/internal/stats"
	"github.com/starford/pomodoro/internal/tasks"
	"github.com/starford/pomodoro/internal/timer"
)

const barWidth = 30

type tickMsg time.Time

// Model is the bubbletea model. It reads component state on every message
// and never caches more than the last snapshot.
type Model struct {
	ctx      context.Context
	engine   *timer.Engine
	tasks    *tasks.Registry
	notes    *notes.Store
	feed     *Feed
	interval time.Duration

	state    models.TimerState
	settings models.TimerSettings
	toast    string
	toastMsg string
	width    int
}

// NewModel builds the model. feed may be nil.
func NewModel(ctx context.Context, engine *timer.Engine, registry *tasks.Registry, note *notes.Store, feed *Feed, interval time.Duration) Model {
	if interval <= 0 {
		interval = time.Second
	}
	return Model{
		ctx:      ctx,
		engine:   engine,
		tasks:    registry,
		notes:    note,
		feed:     feed,
		interval: interval,
		state:    engine.State(),
		settings: engine.Settings(),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the tick loop and the event feed.
func (m Model) Init() tea.Cmd {
	if m.feed == nil {
		return m.tick()
	}
	return tea.Batch(m.tick(), m.feed.wait())
}

// Update handles keys, ticks and component events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.state = m.engine.Toggle()
		case "r":
			m.state = m.engine.Reset()
		case "n":
			m.state = m.engine.Advance()
		case "s":
			m.notes.Save(m.ctx)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		m.state = m.engine.Tick()
		m.settings = m.engine.Settings()
		return m, m.tick()
	case eventMsg:
		m.handleEvent(msg)
		return m, m.feed.wait()
	}
	return m, nil
}

func (m *Model) handleEvent(ev eventMsg) {
	switch ev.Type {
	case timer.EventModeChanged:
		if mc, ok := ev.Data.(timer.ModeChanged); ok {
			m.toast, m.toastMsg = mc.Title, mc.Message
		}
	case notes.EventSaved:
		m.toast, m.toastMsg = "Note saved", ""
	case notes.EventExported:
		if ex, ok := ev.Data.(notes.Exported); ok {
			m.toast, m.toastMsg = "Note exported", ex.Name
		}
	}
}

// View renders the screen.
func (m Model) View() string {
	st := m.state
	style := modeStyle(st.Mode)

	label := modeLabels[st.Mode]
	if st.Mode == models.ModeWork {
		label += fmt.Sprintf(" (%d/%d)", st.CurrentCycle, m.settings.Cycles)
	}

	status := "paused"
	if st.IsRunning {
		status = "running"
	}

	clock := clockStyle.Foreground(modeColors[st.Mode]).Render(formatClock(st.SecondsRemaining))
	timerBox := boxStyle.BorderForeground(modeColors[st.Mode]).Render(lipgloss.JoinVertical(lipgloss.Center,
		style.Render(label),
		"",
		clock,
		progressBar(st, m.settings),
		labelStyle.Render(status),
	))

	focus := labelStyle.Render("No task selected")
	if task, err := m.tasks.Focused(); err == nil {
		focus = "Working on: " + style.Render(task.Text)
	}

	sum := stats.Compute(st, m.tasks.List())
	statsLine := labelStyle.Render(fmt.Sprintf("Cycles completed: %d   Tasks: %d/%d (%d%%)",
		sum.CompletedCycles, sum.CompletedTasks, sum.TotalTasks, sum.CompletionPercentage))

	lines := []string{titleStyle.Render("Pomodoro"), timerBox, focus, statsLine}
	if m.toast != "" {
		toast := toastTitleStyle.Render(m.toast)
		if m.toastMsg != "" {
			toast += " " + m.toastMsg
		}
		lines = append(lines, "", toast)
	}
	lines = append(lines, helpStyle.Render("space start/pause • r reset • n skip • s save note • q quit"))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func progressBar(st models.TimerState, s models.TimerSettings) string {
	total := timer.Duration(st.Mode, s)
	filled := 0
	if total > 0 {
		filled = (total - st.SecondsRemaining) * barWidth / total
	}
	filled = max(0, min(barWidth, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
