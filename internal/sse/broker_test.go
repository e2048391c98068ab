package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "task.added", Data: map[string]string{"id": "a1"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: task.added") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":"a1"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishThrottled_PerType(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First tick goes out; the second is inside the throttle window.
	b.PublishThrottled(Event{Type: "timer.tick", Data: map[string]int{"secondsRemaining": 10}})
	b.PublishThrottled(Event{Type: "timer.tick", Data: map[string]int{"secondsRemaining": 9}})
	// A different type has its own window.
	b.PublishThrottled(Event{Type: "other.tick", Data: map[string]int{}})
	// Unthrottled publishes are never dropped.
	b.Publish(Event{Type: "timer.modeChanged", Data: map[string]string{"mode": "shortBreak"}})

	time.Sleep(50 * time.Millisecond)
	counts := map[string]int{}
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			switch {
			case strings.Contains(s, "event: timer.tick"):
				counts["timer.tick"]++
			case strings.Contains(s, "event: other.tick"):
				counts["other.tick"]++
			case strings.Contains(s, "event: timer.modeChanged"):
				counts["timer.modeChanged"]++
			}
		default:
			break loop
		}
	}

	if counts["timer.tick"] != 1 {
		t.Errorf("timer.tick events = %d, want 1 (throttled)", counts["timer.tick"])
	}
	if counts["other.tick"] != 1 {
		t.Errorf("other.tick events = %d, want 1", counts["other.tick"])
	}
	if counts["timer.modeChanged"] != 1 {
		t.Errorf("modeChanged events = %d, want 1", counts["timer.modeChanged"])
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Publish(Event{Type: "task.added"})
	r.Publish(Event{Type: "note.saved"})
	r.Publish(Event{Type: "task.added"})
	if len(r.Events()) != 3 {
		t.Fatalf("events = %d, want 3", len(r.Events()))
	}
	if len(r.OfType("task.added")) != 2 {
		t.Errorf("task.added = %d, want 2", len(r.OfType("task.added")))
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: "note.saved", Data: map[string]string{}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: note.saved") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "note.saved", Data: map[string]string{}})
	b.PublishThrottled(Event{Type: "timer.tick", Data: map[string]int{}})
}
