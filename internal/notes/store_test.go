package notes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/pomodoro/internal/kv"
	"github.com/starford/pomodoro/internal/sse"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func persisted(t *testing.T, store kv.Store) (string, bool) {
	t.Helper()
	v, ok, err := store.Get(context.Background(), kv.KeyNoteText)
	if err != nil {
		t.Fatal(err)
	}
	return v, ok
}

type memBlobs struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (m *memBlobs) Write(path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[path] = content
	return nil
}

func TestNew_Defaults(t *testing.T) {
	s := New(context.Background(), kv.NewMemory(), WithLogger(quietLogger()))
	st := s.State()
	if st.Text != "" || !st.AutoSaveEnabled || st.Dirty {
		t.Errorf("state = %+v", st)
	}
}

func TestNew_MalformedFlagFallsBack(t *testing.T) {
	store := kv.NewMemory()
	_ = store.Write(context.Background(), kv.Put(kv.KeyNoteAutoSave, "maybe"), kv.Put(kv.KeyNoteText, "kept"))
	s := New(context.Background(), store, WithLogger(quietLogger()))
	if !s.State().AutoSaveEnabled {
		t.Error("malformed flag should fall back to enabled")
	}
	if s.Text() != "kept" {
		t.Errorf("text = %q", s.Text())
	}
}

func TestAutoSaveOff_SetTextNeverPersists(t *testing.T) {
	store := kv.NewMemory()
	rec := &sse.Recorder{}
	s := New(context.Background(), store, WithLogger(quietLogger()), WithPublisher(rec), WithDebounce(10*time.Millisecond))
	s.SetAutoSave(context.Background(), false)

	s.SetText("draft one")
	s.SetText("draft two")
	time.Sleep(60 * time.Millisecond)

	if _, ok := persisted(t, store); ok {
		t.Fatal("text persisted without explicit save")
	}
	if !s.State().Dirty {
		t.Error("state should be dirty")
	}

	s.Save(context.Background())
	if v, _ := persisted(t, store); v != "draft two" {
		t.Errorf("persisted = %q, want draft two", v)
	}
	if s.State().Dirty {
		t.Error("state should be clean after save")
	}
	saved := rec.OfType(EventSaved)
	if len(saved) != 1 || saved[0].Data.(Saved).Auto {
		t.Errorf("saved events = %+v", saved)
	}
}

func TestAutoSave_DebouncesToLastText(t *testing.T) {
	store := kv.NewMemory()
	rec := &sse.Recorder{}
	s := New(context.Background(), store, WithLogger(quietLogger()), WithPublisher(rec), WithDebounce(40*time.Millisecond))

	for _, text := range []string{"a", "ab", "abc"} {
		s.SetText(text)
		time.Sleep(10 * time.Millisecond)
	}
	if _, ok := persisted(t, store); ok {
		t.Fatal("persisted before the quiet period elapsed")
	}

	eventually(t, time.Second, 5*time.Millisecond, func() bool {
		v, _ := persisted(t, store)
		return v == "abc"
	}, "debounced save never landed")

	time.Sleep(60 * time.Millisecond)
	if n := len(rec.OfType(EventSaved)); n != 1 {
		t.Errorf("saved events = %d, want exactly 1", n)
	}
}

func TestAutoSave_DisableCancelsPending(t *testing.T) {
	store := kv.NewMemory()
	s := New(context.Background(), store, WithLogger(quietLogger()), WithDebounce(30*time.Millisecond))
	s.SetText("pending")
	s.SetAutoSave(context.Background(), false)
	time.Sleep(80 * time.Millisecond)
	if _, ok := persisted(t, store); ok {
		t.Error("disabling autosave should cancel the pending persist")
	}
	flag, _, _ := store.Get(context.Background(), kv.KeyNoteAutoSave)
	if flag != "false" {
		t.Errorf("flag = %q, want false", flag)
	}
}

func TestAutoSave_EnableSchedulesPersist(t *testing.T) {
	store := kv.NewMemory()
	s := New(context.Background(), store, WithLogger(quietLogger()), WithDebounce(20*time.Millisecond))
	s.SetAutoSave(context.Background(), false)
	s.SetText("written while off")
	s.SetAutoSave(context.Background(), true)

	eventually(t, time.Second, 5*time.Millisecond, func() bool {
		v, _ := persisted(t, store)
		return v == "written while off"
	}, "enabling autosave should persist the current text")
}

func TestSave_CancelsPendingAutosave(t *testing.T) {
	store := kv.NewMemory()
	rec := &sse.Recorder{}
	s := New(context.Background(), store, WithLogger(quietLogger()), WithPublisher(rec), WithDebounce(30*time.Millisecond))
	s.SetText("now")
	s.Save(context.Background())
	time.Sleep(80 * time.Millisecond)
	if n := len(rec.OfType(EventSaved)); n != 1 {
		t.Errorf("saved events = %d, want 1", n)
	}
}

func TestClose_FlushesPending(t *testing.T) {
	store := kv.NewMemory()
	s := New(context.Background(), store, WithLogger(quietLogger()), WithDebounce(time.Hour))
	s.SetText("unsaved")
	s.Close(context.Background())
	if v, _ := persisted(t, store); v != "unsaved" {
		t.Errorf("persisted = %q, want unsaved", v)
	}
}

func TestRoundTrip(t *testing.T) {
	store := kv.NewMemory()
	ctx := context.Background()
	s := New(ctx, store, WithLogger(quietLogger()))
	s.SetAutoSave(ctx, false)
	text := "# Plan\n- one\n- two\n\tunicode: ñ ✓"
	s.SetText(text)
	s.Save(ctx)

	reloaded := New(ctx, store, WithLogger(quietLogger()))
	st := reloaded.State()
	if st.Text != text || st.AutoSaveEnabled {
		t.Errorf("reloaded = %+v", st)
	}
}

func TestExport(t *testing.T) {
	blobs := &memBlobs{}
	rec := &sse.Recorder{}
	at := time.Date(2026, 10, 19, 14, 30, 5, 0, time.UTC)
	s := New(context.Background(), kv.NewMemory(),
		WithLogger(quietLogger()),
		WithPublisher(rec),
		WithBlobWriter(blobs),
		WithClock(func() time.Time { return at }))
	s.SetText("intro\n# Sprint Retro: Week 42!\nbody")

	name, err := s.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if name != "sprint-retro-week-42-20261019-143005.md" {
		t.Errorf("name = %q", name)
	}
	if string(blobs.files[name]) != s.Text() {
		t.Errorf("blob content = %q", blobs.files[name])
	}
	if len(rec.OfType(EventExported)) != 1 {
		t.Error("missing note.exported event")
	}
}

func TestExport_Errors(t *testing.T) {
	s := New(context.Background(), kv.NewMemory(), WithLogger(quietLogger()))
	if _, err := s.Export(context.Background()); err == nil {
		t.Error("export without a blob writer should fail")
	}

	s = New(context.Background(), kv.NewMemory(), WithLogger(quietLogger()), WithBlobWriter(&memBlobs{err: errors.New("disk full")}))
	_, err := s.Export(context.Background())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err = %v", err)
	}
}

func TestExportName_Fallback(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := exportName("no heading here", at); got != "notes-20260102-030405.md" {
		t.Errorf("got %q", got)
	}
	if got := exportName("# !!!", at); got != "notes-20260102-030405.md" {
		t.Errorf("got %q", got)
	}
}

func TestExportName_FrontmatterTitle(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got := exportName("---\ntitle: Weekly Planning\n---\n# Monday\n", at)
	if got != "weekly-planning-20260102-030405.md" {
		t.Errorf("got %q", got)
	}
}

func TestState_TitleAndTags(t *testing.T) {
	s := New(context.Background(), kv.NewMemory(), WithLogger(quietLogger()), WithDebounce(time.Hour))
	defer s.Close(context.Background())

	s.SetText("# Deep Work\nfinish #report and #review")
	st := s.State()
	if st.Title != "Deep Work" {
		t.Errorf("title = %q", st.Title)
	}
	if len(st.Tags) != 2 || st.Tags[0] != "report" || st.Tags[1] != "review" {
		t.Errorf("tags = %v", st.Tags)
	}
}
