// Package notes implements the single-note store with debounced autosave.
package notes

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/starford/pomodoro/internal/kv"
	"github.com/starford/pomodoro/internal/models"
	"github.com/starford/pomodoro/internal/parser"
	"github.com/starford/pomodoro/internal/sse"
)

// DefaultDebounce is the quiet period before an autosave fires.
const DefaultDebounce = time.Second

// Event types published by the store.
const (
	EventSaved    = "note.saved"
	EventExported = "note.exported"
)

// Publisher receives store events.
type Publisher interface {
	Publish(event sse.Event)
}

// BlobWriter persists an exported note outside the key-value store.
type BlobWriter interface {
	Write(path string, content []byte) error
}

// Saved is the payload of a note.saved event.
type Saved struct {
	Auto bool `json:"auto"`
}

// Exported is the payload of a note.exported event.
type Exported struct {
	Name string `json:"name"`
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithDebounce overrides the autosave quiet period.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithBlobWriter sets the export target.
func WithBlobWriter(w BlobWriter) Option {
	return func(s *Store) { s.blobs = w }
}

// WithClock overrides the time source used for export names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store owns the note text and the autosave policy.
//
// In-memory text may run ahead of the persisted text until Save is called or,
// with autosave on, until the debounce timer fires. Every SetText cancels the
// pending timer and schedules a new one.
type Store struct {
	mu sync.Mutex

	store     kv.Store
	publisher Publisher
	blobs     BlobWriter
	logger    *slog.Logger
	debounce  time.Duration
	now       func() time.Time

	text     string
	saved    string
	autoSave bool
	pending  *time.Timer
	gen      uint64
	closed   bool
}

// New loads the note and its autosave flag from store. Autosave defaults to
// enabled when the flag was never stored or is unreadable.
func New(ctx context.Context, store kv.Store, opts ...Option) *Store {
	s := &Store{
		store:    store,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		now:      time.Now,
		autoSave: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	text, _, err := store.Get(ctx, kv.KeyNoteText)
	if err != nil {
		s.logger.Warn("notes: load text failed", slog.String("error", err.Error()))
	}
	s.text, s.saved = text, text

	raw, ok, err := store.Get(ctx, kv.KeyNoteAutoSave)
	switch {
	case err != nil:
		s.logger.Warn("notes: load autosave flag failed", slog.String("error", err.Error()))
	case ok:
		if v, perr := strconv.ParseBool(raw); perr == nil {
			s.autoSave = v
		} else {
			s.logger.Warn("notes: malformed autosave flag, using default", slog.String("value", raw))
		}
	}
	return s
}

// State returns the current text and policy.
func (s *Store) State() models.NoteState {
	s.mu.Lock()
	defer s.mu.Unlock()
	outline := parser.Parse(s.text)
	return models.NoteState{
		Text:            s.text,
		AutoSaveEnabled: s.autoSave,
		Dirty:           s.text != s.saved,
		Title:           outline.Title,
		Tags:            outline.Tags,
	}
}

// Text returns the in-memory text.
func (s *Store) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// SetText replaces the in-memory text and, with autosave on, reschedules the
// debounced persist.
func (s *Store) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	if s.autoSave {
		s.scheduleLocked()
	}
}

// Save persists the in-memory text immediately.
func (s *Store) Save(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.persistLocked(ctx, false)
}

// SetAutoSave changes the autosave policy and persists the flag immediately.
// Turning autosave off cancels a pending persist; turning it on schedules one.
func (s *Store) SetAutoSave(ctx context.Context, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoSave = enabled
	if err := s.store.Write(ctx, kv.Put(kv.KeyNoteAutoSave, strconv.FormatBool(enabled))); err != nil {
		s.logger.Error("notes: persist autosave flag failed", slog.String("error", err.Error()))
	}
	if enabled {
		s.scheduleLocked()
	} else {
		s.cancelLocked()
	}
}

// Export writes the in-memory text through the blob writer and returns the
// blob name.
func (s *Store) Export(_ context.Context) (string, error) {
	s.mu.Lock()
	text := s.text
	blobs := s.blobs
	now := s.now()
	s.mu.Unlock()

	if blobs == nil {
		return "", fmt.Errorf("notes: export target not configured")
	}
	name := exportName(text, now)
	if err := blobs.Write(name, []byte(text)); err != nil {
		return "", fmt.Errorf("notes: export: %w", err)
	}
	s.logger.Info("notes: exported", slog.String("name", name))
	if s.publisher != nil {
		s.publisher.Publish(sse.Event{Type: EventExported, Data: Exported{Name: name}})
	}
	return name, nil
}

// Close stops the debounce timer, flushing a pending autosave first.
func (s *Store) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.cancelLocked()
		s.persistLocked(ctx, true)
	}
	s.closed = true
}

func (s *Store) scheduleLocked() {
	if s.closed {
		return
	}
	s.cancelLocked()
	s.gen++
	gen := s.gen
	s.pending = time.AfterFunc(s.debounce, func() { s.fire(gen) })
}

func (s *Store) cancelLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.gen++
}

// fire runs on the timer goroutine. gen guards against a timer that was
// stopped after it had already started running.
func (s *Store) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || !s.autoSave {
		return
	}
	s.pending = nil
	s.persistLocked(context.Background(), true)
}

func (s *Store) persistLocked(ctx context.Context, auto bool) {
	if err := s.store.Write(ctx, kv.Put(kv.KeyNoteText, s.text)); err != nil {
		s.logger.Error("notes: persist text failed", slog.String("error", err.Error()), slog.Bool("auto", auto))
		return
	}
	s.saved = s.text
	s.logger.Debug("notes: saved", slog.Bool("auto", auto), slog.Int("bytes", len(s.text)))
	if s.publisher != nil {
		s.publisher.Publish(sse.Event{Type: EventSaved, Data: Saved{Auto: auto}})
	}
}

// exportName derives "<slug>-<timestamp>.md" from the note title (frontmatter
// title or first H1), falling back to "notes".
func exportName(text string, at time.Time) string {
	slug := parser.Slug(parser.Parse(text).Title)
	if slug == "" {
		slug = "notes"
	}
	return fmt.Sprintf("%s-%s.md", slug, at.Format("20060102-150405"))
}
