package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/pomodoro/internal/sse"
)

// Feed carries component events into the program. It implements the
// components' Publisher interface; events are dropped when the program is
// not keeping up.
type Feed struct {
	ch chan sse.Event
}

// NewFeed returns a Feed with a small buffer.
func NewFeed() *Feed {
	return &Feed{ch: make(chan sse.Event, 16)}
}

// Publish queues event without blocking.
func (f *Feed) Publish(event sse.Event) {
	select {
	case f.ch <- event:
	default:
	}
}

type eventMsg sse.Event

func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-f.ch)
	}
}
