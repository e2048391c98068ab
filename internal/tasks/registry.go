// Package tasks implements the ordered task list and its focused-task reference.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/pomodoro/internal/apperr"
	"github.com/starford/pomodoro/internal/kv"
	"github.com/starford/pomodoro/internal/models"
	"github.com/starford/pomodoro/internal/sse"
)

// Event types published by the registry.
const (
	EventAdded     = "task.added"
	EventCompleted = "task.completed" // every Toggle, carrying the new completed flag
	EventDeleted   = "task.deleted"
)

// Publisher receives registry events.
type Publisher interface {
	Publish(event sse.Event)
}

// Option configures a Registry.
type Option func(*Registry)

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option {
	return func(r *Registry) { r.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator overrides task id generation.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) { r.newID = gen }
}

// Registry owns the task list (newest first) and the focused task id.
type Registry struct {
	mu sync.Mutex

	store     kv.Store
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	tasks   []models.Task
	focused string
}

// New loads the registry from store. A malformed task list loads as empty and
// a focused id that does not name a loaded task is dropped.
func New(ctx context.Context, store kv.Store, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.load(ctx)
	return r
}

func (r *Registry) load(ctx context.Context) {
	raw, ok, err := r.store.Get(ctx, kv.KeyTasksList)
	if err != nil {
		r.logger.Warn("tasks: load list failed", slog.String("error", err.Error()))
	} else if ok {
		var list []models.Task
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			r.logger.Warn("tasks: malformed list, starting empty", slog.String("error", err.Error()))
		} else {
			r.tasks = list
		}
	}

	id, ok, err := r.store.Get(ctx, kv.KeyTasksFocusedID)
	if err != nil {
		r.logger.Warn("tasks: load focused id failed", slog.String("error", err.Error()))
		return
	}
	if ok && r.indexLocked(id) >= 0 {
		r.focused = id
	}
}

// List returns a copy of all tasks, newest first.
func (r *Registry) List() []models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Task{}, r.tasks...)
}

// Get returns the task with id.
func (r *Registry) Get(id string) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return models.Task{}, apperr.ErrNotFound
	}
	return r.tasks[i], nil
}

// FocusedID returns the focused task id, or "" when none is set.
func (r *Registry) FocusedID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.focused
}

// Focused resolves the focused task reference.
func (r *Registry) Focused() (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.focused == "" {
		return models.Task{}, apperr.ErrNotFound
	}
	i := r.indexLocked(r.focused)
	if i < 0 {
		return models.Task{}, apperr.ErrNotFound
	}
	return r.tasks[i], nil
}

// Add prepends a task with the trimmed text. Blank text is ignored and
// reported with ok=false.
func (r *Registry) Add(ctx context.Context, text string) (task models.Task, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Task{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	task = models.Task{
		ID:        r.newID(),
		Text:      text,
		Completed: false,
		CreatedAt: r.now().UTC(),
	}
	r.tasks = append([]models.Task{task}, r.tasks...)
	r.persistLocked(ctx, false)
	r.publish(EventAdded, task)
	return task, true
}

// Toggle flips the completion flag of the task with id. Unknown ids are ignored.
func (r *Registry) Toggle(ctx context.Context, id string) (models.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return models.Task{}, false
	}
	r.tasks[i].Completed = !r.tasks[i].Completed
	task := r.tasks[i]
	r.persistLocked(ctx, false)
	r.publish(EventCompleted, task)
	return task, true
}

// Delete removes the task with id and clears the focus if it pointed there.
// The focus is cleared even when no task has that id; otherwise unknown ids
// are ignored and false is returned.
func (r *Registry) Delete(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		if id != "" && r.focused == id {
			r.focused = ""
			if err := r.store.Write(ctx, kv.Remove(kv.KeyTasksFocusedID)); err != nil {
				r.logger.Error("tasks: persist focus failed", slog.String("error", err.Error()))
			}
		}
		return false
	}
	task := r.tasks[i]
	r.tasks = append(r.tasks[:i:i], r.tasks[i+1:]...)
	focusChanged := false
	if r.focused == id {
		r.focused = ""
		focusChanged = true
	}
	r.persistLocked(ctx, focusChanged)
	r.publish(EventDeleted, task)
	return true
}

// SetFocus points the focused reference at id; an empty id clears it.
// The id is not required to exist.
func (r *Registry) SetFocus(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focused = id
	entry := kv.Put(kv.KeyTasksFocusedID, id)
	if id == "" {
		entry = kv.Remove(kv.KeyTasksFocusedID)
	}
	if err := r.store.Write(ctx, entry); err != nil {
		r.logger.Error("tasks: persist focus failed", slog.String("error", err.Error()))
	}
}

// persistLocked writes the full list, and the focus key when it changed,
// in one batch.
func (r *Registry) persistLocked(ctx context.Context, withFocus bool) {
	if err := r.writeLocked(ctx, withFocus); err != nil {
		r.logger.Error("tasks: persist failed", slog.String("error", err.Error()))
	}
}

func (r *Registry) writeLocked(ctx context.Context, withFocus bool) error {
	list := r.tasks
	if list == nil {
		list = []models.Task{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("tasks: marshal list: %w", err)
	}
	entries := []kv.Entry{kv.Put(kv.KeyTasksList, string(data))}
	if withFocus {
		if r.focused == "" {
			entries = append(entries, kv.Remove(kv.KeyTasksFocusedID))
		} else {
			entries = append(entries, kv.Put(kv.KeyTasksFocusedID, r.focused))
		}
	}
	return r.store.Write(ctx, entries...)
}

func (r *Registry) publish(typ string, task models.Task) {
	if r.publisher != nil {
		r.publisher.Publish(sse.Event{Type: typ, Data: task})
	}
}

func (r *Registry) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, t := range r.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
