package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/pomodoro/internal/index"
	"github.com/starford/pomodoro/internal/kv"
	"github.com/starford/pomodoro/internal/notes"
	"github.com/starford/pomodoro/internal/notify"
	"github.com/starford/pomodoro/internal/sse"
	"github.com/starford/pomodoro/internal/storage"
	"github.com/starford/pomodoro/internal/tasks"
	"github.com/starford/pomodoro/internal/timer"
)

// components is the set of stateful parts every host composes.
type components struct {
	store   *kv.SQLite
	exports *storage.FS
	index   *index.DB
	engine  *timer.Engine
	tasks   *tasks.Registry
	notes   *notes.Store
}

// publisher is the event sink shared by all components.
type publisher interface {
	Publish(event sse.Event)
}

// newLogger builds the JSON logger and installs it as the default.
func newLogger(cfg *Config, out io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func newNotifier(cfg NotifyConfig) (timer.Notifier, error) {
	switch cfg.Mode {
	case NotifyModeCommand:
		return notify.NewCommand(cfg.Command)
	case NotifyModeSilent:
		return notify.Silent{}, nil
	default:
		return notify.NewBell(os.Stderr), nil
	}
}

// openComponents opens the key-value store and the export directory and
// builds the engine, registry and note store on top of them. pub may be nil.
func openComponents(ctx context.Context, cfg *Config, logger *slog.Logger, pub publisher) (*components, error) {
	store, err := kv.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	c := &components{store: store}

	notifier, err := newNotifier(cfg.Notify)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init notifier: %w", err)
	}

	timerOpts := []timer.Option{
		timer.WithLogger(logger),
		timer.WithNotifier(notifier),
	}
	if cfg.Notify.Timeout > 0 {
		timerOpts = append(timerOpts, timer.WithNotifyTimeout(cfg.Notify.Timeout))
	}
	taskOpts := []tasks.Option{tasks.WithLogger(logger)}
	noteOpts := []notes.Option{
		notes.WithLogger(logger),
		notes.WithDebounce(cfg.Notes.Debounce),
	}
	if pub != nil {
		timerOpts = append(timerOpts, timer.WithPublisher(pub))
		taskOpts = append(taskOpts, tasks.WithPublisher(pub))
		noteOpts = append(noteOpts, notes.WithPublisher(pub))
	}

	if cfg.Exports.Enabled() {
		c.exports, err = storage.NewFS(cfg.Exports.Dir)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("init exports: %w", err)
		}
		noteOpts = append(noteOpts, notes.WithBlobWriter(c.exports))

		c.index, err = index.Open(cfg.SQLite.Path)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("init export index: %w", err)
		}
		if err := index.Sync(c.index, c.exports, logger); err != nil {
			logger.Warn("initial export sync failed", slog.String("error", err.Error()))
		}
	}

	c.engine = timer.New(ctx, store, timerOpts...)
	c.tasks = tasks.New(ctx, store, taskOpts...)
	c.notes = notes.New(ctx, store, noteOpts...)
	return c, nil
}

// exportProvider returns the export directory as a storage.Provider, or nil
// when exports are disabled.
func (c *components) exportProvider() storage.Provider {
	if c.exports == nil {
		return nil
	}
	return c.exports
}

// exportIndex returns the export search index, or nil when exports are
// disabled.
func (c *components) exportIndex() index.ExportIndex {
	if c.index == nil {
		return nil
	}
	return c.index
}

// watchExports keeps the export index in step with the export directory
// until ctx is cancelled, passing every change to onChange (may be nil).
// It returns immediately when exports are disabled.
func (c *components) watchExports(ctx context.Context, logger *slog.Logger, onChange func(sse.Event)) {
	if c.exports == nil {
		return
	}
	err := storage.Watch(ctx, c.exports.Root(), logger, func(kind, name string) {
		if err := index.Apply(c.index, c.exports, kind, name); err != nil {
			logger.Warn("export index update failed",
				slog.String("name", name),
				slog.String("kind", kind),
				slog.String("error", err.Error()))
		}
		if onChange != nil {
			onChange(sse.Event{Type: storage.EventType(kind), Data: storage.ExportChanged{Name: name}})
		}
	})
	if err != nil {
		logger.Warn("export watcher stopped", slog.String("error", err.Error()))
	}
}

// close flushes a pending note autosave and closes the store.
func (c *components) close(ctx context.Context, logger *slog.Logger) {
	c.notes.Close(ctx)
	if c.index != nil {
		if err := c.index.Close(); err != nil {
			logger.Error("close export index failed", slog.String("error", err.Error()))
		}
	}
	if err := c.store.Close(); err != nil {
		logger.Error("close store failed", slog.String("error", err.Error()))
	}
}
