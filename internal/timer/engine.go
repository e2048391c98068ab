// Package timer implements the pomodoro interval state machine.
package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/pomodoro/internal/kv"
	"github.com/starford/pomodoro/internal/models"
	"github.com/starford/pomodoro/internal/sse"
)

// Notifier plays the audible cue on every mode transition.
type Notifier interface {
	Play(ctx context.Context) error
}

// Publisher receives engine events.
type Publisher interface {
	Publish(event sse.Event)
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier sets the notification player.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithNotifyTimeout bounds a single notifier call.
func WithNotifyTimeout(d time.Duration) Option {
	return func(e *Engine) { e.notifyTimeout = d }
}

// Engine is the work/break state machine. All methods are safe for
// concurrent use; ticks, host requests and settings edits are serialised
// by a single mutex.
type Engine struct {
	mu sync.Mutex

	store         kv.Store
	notifier      Notifier
	publisher     Publisher
	logger        *slog.Logger
	notifyTimeout time.Duration

	settings  models.TimerSettings
	mode      models.Mode
	remaining int
	running   bool
	cycle     int
	completed int
}

// New creates an engine in work mode, cycle 1, paused, with settings loaded
// from store.
func New(ctx context.Context, store kv.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		logger:        slog.Default(),
		notifyTimeout: 10 * time.Second,
		mode:          models.ModeWork,
		cycle:         1,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.settings = LoadSettings(ctx, store, e.logger)
	e.remaining = Duration(e.mode, e.settings)
	return e
}

// Settings returns the active settings.
func (e *Engine) Settings() models.TimerSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// State returns a snapshot of the engine.
func (e *Engine) State() models.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Toggle starts a paused timer or pauses a running one.
func (e *Engine) Toggle() models.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = !e.running
	return e.stateLocked()
}

// Reset stops the timer and restores the full duration of the current mode.
// Mode and cycle are unchanged.
func (e *Engine) Reset() models.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
	return e.stateLocked()
}

// Tick consumes one elapsed second. It is ignored while paused. When the
// countdown is at zero the engine advances to the next mode within the same
// tick and keeps running.
func (e *Engine) Tick() models.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return e.stateLocked()
	}
	if e.remaining > 0 {
		e.remaining--
	}
	if e.remaining == 0 {
		e.advanceLocked()
	}
	return e.stateLocked()
}

// Advance moves to the next mode immediately, as if the countdown expired.
func (e *Engine) Advance() models.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.advanceLocked()
	return e.stateLocked()
}

// UpdateSettings clamps s into range, persists it, and resets the current
// mode's countdown against the new durations. The current cycle is lowered
// to the new cycle count when it exceeds it.
func (e *Engine) UpdateSettings(ctx context.Context, s models.TimerSettings) models.TimerSettings {
	s = ClampSettings(s)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
	if e.cycle > s.Cycles {
		e.cycle = s.Cycles
	}
	e.resetLocked()

	if err := SaveSettings(ctx, e.store, s); err != nil {
		e.logger.Error("timer: persist settings failed", slog.String("error", err.Error()))
	}
	return s
}

func (e *Engine) resetLocked() {
	e.running = false
	e.remaining = Duration(e.mode, e.settings)
}

func (e *Engine) advanceLocked() {
	from := e.mode
	switch e.mode {
	case models.ModeWork:
		if e.cycle >= e.settings.Cycles {
			e.mode = models.ModeLongBreak
			e.cycle = 1
			e.completed++
		} else {
			e.mode = models.ModeShortBreak
		}
	case models.ModeShortBreak:
		e.mode = models.ModeWork
		e.cycle++
	case models.ModeLongBreak:
		e.mode = models.ModeWork
	}
	e.remaining = Duration(e.mode, e.settings)

	st := e.stateLocked()
	e.logger.Info("timer: mode changed",
		slog.String("from", string(from)),
		slog.String("to", string(st.Mode)),
		slog.Int("cycle", st.CurrentCycle),
		slog.Int("completed_cycles", st.CompletedCycles))

	if e.publisher != nil {
		e.publisher.Publish(sse.Event{Type: EventModeChanged, Data: modeChanged(from, st, e.settings)})
	}
	if e.notifier != nil {
		go e.play(st.Mode)
	}
}

func (e *Engine) play(mode models.Mode) {
	ctx, cancel := context.WithTimeout(context.Background(), e.notifyTimeout)
	defer cancel()
	if err := e.notifier.Play(ctx); err != nil {
		e.logger.Warn("timer: notification failed",
			slog.String("mode", string(mode)),
			slog.String("error", err.Error()))
	}
}

func (e *Engine) stateLocked() models.TimerState {
	return models.TimerState{
		Mode:             e.mode,
		SecondsRemaining: e.remaining,
		IsRunning:        e.running,
		CurrentCycle:     e.cycle,
		CompletedCycles:  e.completed,
	}
}

func plural(format string, n int) string {
	s := fmt.Sprintf(format, n)
	if n != 1 {
		s += "s"
	}
	return s
}
