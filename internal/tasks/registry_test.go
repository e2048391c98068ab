package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/pomodoro/internal/apperr"
	"github.com/starford/pomodoro/internal/kv"
	"github.com/starford/pomodoro/internal/models"
	"github.com/starford/pomodoro/internal/sse"
)

func testRegistry(t *testing.T, store kv.Store) (*Registry, *sse.Recorder) {
	t.Helper()
	rec := &sse.Recorder{}
	n := 0
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	r := New(context.Background(), store,
		WithPublisher(rec),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("task-%d", n) }),
		WithClock(func() time.Time { return base.Add(time.Duration(n) * time.Minute) }),
	)
	return r, rec
}

func TestAdd_PrependsTrimmed(t *testing.T) {
	r, rec := testRegistry(t, kv.NewMemory())
	ctx := context.Background()

	first, ok := r.Add(ctx, "  write report  ")
	if !ok {
		t.Fatal("Add should succeed")
	}
	if first.Text != "write report" || first.Completed {
		t.Errorf("task = %+v", first)
	}
	second, _ := r.Add(ctx, "review PR")

	list := r.List()
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("order = %+v, want newest first", list)
	}
	if len(rec.OfType(EventAdded)) != 2 {
		t.Errorf("added events = %d", len(rec.OfType(EventAdded)))
	}
}

func TestAdd_BlankIsNoop(t *testing.T) {
	store := kv.NewMemory()
	r, rec := testRegistry(t, store)
	for _, text := range []string{"", "   ", "\t\n"} {
		if _, ok := r.Add(context.Background(), text); ok {
			t.Errorf("Add(%q) should be a no-op", text)
		}
	}
	if len(r.List()) != 0 {
		t.Errorf("list = %+v", r.List())
	}
	if store.Writes() != 0 || len(rec.Events()) != 0 {
		t.Error("blank add should neither persist nor publish")
	}
}

func TestToggle(t *testing.T) {
	r, rec := testRegistry(t, kv.NewMemory())
	ctx := context.Background()
	task, _ := r.Add(ctx, "a")

	got, ok := r.Toggle(ctx, task.ID)
	if !ok || !got.Completed {
		t.Fatalf("toggle = %+v, %v", got, ok)
	}
	got, _ = r.Toggle(ctx, task.ID)
	if got.Completed {
		t.Error("second toggle should un-complete")
	}
	if _, ok := r.Toggle(ctx, "missing"); ok {
		t.Error("toggle on unknown id should be a no-op")
	}
	events := rec.OfType(EventCompleted)
	if len(events) != 2 {
		t.Fatalf("completed events = %d, want 2", len(events))
	}
	if last, ok := events[1].Data.(models.Task); !ok || last.Completed {
		t.Errorf("un-complete event payload = %+v, want completed=false", events[1].Data)
	}
}

func TestDelete_ClearsFocusOnlyForTarget(t *testing.T) {
	r, rec := testRegistry(t, kv.NewMemory())
	ctx := context.Background()
	a, _ := r.Add(ctx, "a")
	b, _ := r.Add(ctx, "b")

	r.SetFocus(ctx, a.ID)
	if !r.Delete(ctx, b.ID) {
		t.Fatal("delete b failed")
	}
	if r.FocusedID() != a.ID {
		t.Errorf("focus = %q, want %q", r.FocusedID(), a.ID)
	}

	r.Delete(ctx, a.ID)
	if r.FocusedID() != "" {
		t.Errorf("focus = %q, want cleared", r.FocusedID())
	}
	if _, err := r.Focused(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Focused err = %v, want ErrNotFound", err)
	}
	if r.Delete(ctx, "missing") {
		t.Error("delete of unknown id should report false")
	}
	if len(rec.OfType(EventDeleted)) != 2 {
		t.Errorf("deleted events = %d, want 2", len(rec.OfType(EventDeleted)))
	}
}

func TestSetFocus_DanglingLooksUpNotFound(t *testing.T) {
	r, _ := testRegistry(t, kv.NewMemory())
	ctx := context.Background()
	r.SetFocus(ctx, "ghost")
	if r.FocusedID() != "ghost" {
		t.Errorf("focus = %q", r.FocusedID())
	}
	if _, err := r.Focused(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}

	task, _ := r.Add(ctx, "real")
	r.SetFocus(ctx, task.ID)
	got, err := r.Focused()
	if err != nil || got.ID != task.ID {
		t.Errorf("Focused = %+v, %v", got, err)
	}
	r.SetFocus(ctx, "")
	if _, err := r.Focused(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("cleared focus err = %v", err)
	}
}

func TestDelete_DanglingFocusCleared(t *testing.T) {
	store := kv.NewMemory()
	r, rec := testRegistry(t, store)
	ctx := context.Background()

	r.SetFocus(ctx, "ghost")
	if r.Delete(ctx, "ghost") {
		t.Error("delete of unknown id should report false")
	}
	if r.FocusedID() != "" {
		t.Errorf("focus = %q, want cleared", r.FocusedID())
	}
	if _, ok, _ := store.Get(ctx, kv.KeyTasksFocusedID); ok {
		t.Error("persisted focus should be removed")
	}
	if len(rec.OfType(EventDeleted)) != 0 {
		t.Error("no task was deleted, nothing should be published")
	}

	reloaded, _ := testRegistry(t, store)
	if reloaded.FocusedID() != "" {
		t.Errorf("reloaded focus = %q, want empty", reloaded.FocusedID())
	}
}

func TestPersistence_RoundTrip(t *testing.T) {
	store := kv.NewMemory()
	ctx := context.Background()
	r, _ := testRegistry(t, store)
	a, _ := r.Add(ctx, "a")
	b, _ := r.Add(ctx, "b")
	r.Toggle(ctx, a.ID)
	r.SetFocus(ctx, b.ID)

	reloaded := New(ctx, store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	want := r.List()
	got := reloaded.List()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Text != want[i].Text ||
			got[i].Completed != want[i].Completed || !got[i].CreatedAt.Equal(want[i].CreatedAt) {
			t.Errorf("task %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if reloaded.FocusedID() != b.ID {
		t.Errorf("focus = %q, want %q", reloaded.FocusedID(), b.ID)
	}
}

func TestDelete_PersistsListAndFocusTogether(t *testing.T) {
	store := kv.NewMemory()
	ctx := context.Background()
	r, _ := testRegistry(t, store)
	a, _ := r.Add(ctx, "a")
	r.SetFocus(ctx, a.ID)

	before := store.Writes()
	r.Delete(ctx, a.ID)
	if store.Writes() != before+1 {
		t.Errorf("delete used %d writes, want a single batch", store.Writes()-before)
	}
	if _, ok, _ := store.Get(ctx, kv.KeyTasksFocusedID); ok {
		t.Error("focused id key should be removed")
	}
	raw, _, _ := store.Get(ctx, kv.KeyTasksList)
	if raw != "[]" {
		t.Errorf("list = %s, want []", raw)
	}
}

func TestLoad_MalformedAndDangling(t *testing.T) {
	store := kv.NewMemory()
	ctx := context.Background()
	_ = store.Write(ctx, kv.Put(kv.KeyTasksList, "{not a list"), kv.Put(kv.KeyTasksFocusedID, "gone"))

	r := New(ctx, store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if len(r.List()) != 0 {
		t.Errorf("list = %+v, want empty", r.List())
	}
	if r.FocusedID() != "" {
		t.Errorf("dangling focus should be dropped, got %q", r.FocusedID())
	}
}
