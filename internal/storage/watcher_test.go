package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

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

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(kind, name string) {
	l.mu.Lock()
	l.events = append(l.events, kind+":"+name)
	l.mu.Unlock()
}

func (l *eventLog) has(want string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e == want {
			return true
		}
	}
	return false
}

func (l *eventLog) count(want string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if strings.HasSuffix(e, ":"+want) {
			n++
		}
	}
	return n
}

func (l *eventLog) matches(pred func(string) bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if pred(e) {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, s *FS) *eventLog {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := &eventLog{}
	go Watch(ctx, s.Root(), logger, log.add)
	time.Sleep(100 * time.Millisecond)
	return log
}

func TestWatcher_ExportCreated(t *testing.T) {
	s := tempExports(t)
	log := startWatcher(t, s)

	if err := s.Write("plan.md", []byte("# Plan")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return log.has("created:plan.md")
	}, "expected created:plan.md callback")

	if log.matches(func(e string) bool { return strings.Contains(e, ".pomodoro-tmp-") }) {
		t.Error("temp files should not be reported")
	}
}

func TestWatcher_ExportDeleted(t *testing.T) {
	s := tempExports(t)
	_ = s.Write("gone.md", []byte("bye"))
	log := startWatcher(t, s)

	_ = s.Delete("gone.md")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return log.has("deleted:gone.md")
	}, "expected deleted:gone.md callback")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	s := tempExports(t)
	log := startWatcher(t, s)

	_ = os.WriteFile(filepath.Join(s.Root(), "photo.png"), []byte("x"), 0o644)
	_ = s.Write("marker.md", []byte("m"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return log.has("created:marker.md")
	}, "expected marker event")
	if log.matches(func(e string) bool { return filepath.Ext(e) == ".png" }) {
		t.Error("non-export file reported")
	}
}

func TestWatcher_CoalescesBurst(t *testing.T) {
	s := tempExports(t)
	log := startWatcher(t, s)

	for i := 0; i < 3; i++ {
		if err := s.Write("burst.md", []byte(strings.Repeat("x", i+1))); err != nil {
			t.Fatal(err)
		}
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return log.count("burst.md") > 0
	}, "expected a burst.md callback")
	time.Sleep(3 * settleDelay)
	if n := log.count("burst.md"); n != 1 {
		t.Errorf("burst.md callbacks = %d, want 1", n)
	}
}

func TestMergeKind(t *testing.T) {
	cases := []struct{ prev, next, want string }{
		{"", "updated", "updated"},
		{"created", "updated", "created"},
		{"created", "deleted", "deleted"},
		{"deleted", "created", "created"},
		{"updated", "updated", "updated"},
	}
	for _, c := range cases {
		if got := mergeKind(c.prev, c.next); got != c.want {
			t.Errorf("mergeKind(%q, %q) = %q, want %q", c.prev, c.next, got, c.want)
		}
	}
}

func TestEventType(t *testing.T) {
	cases := map[string]string{
		"created": EventExportCreated,
		"updated": EventExportUpdated,
		"deleted": EventExportDeleted,
	}
	for kind, want := range cases {
		if got := EventType(kind); got != want {
			t.Errorf("EventType(%q) = %q, want %q", kind, got, want)
		}
	}
}
