package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/pomodoro/internal/notes"
	"github.com/starford/pomodoro/internal/tasks"
	"github.com/starford/pomodoro/internal/timer"
)

// Run shows the TUI on the alternate screen until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, engine *timer.Engine, registry *tasks.Registry, note *notes.Store, feed *Feed, interval time.Duration) error {
	m := NewModel(ctx, engine, registry, note, feed, interval)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
