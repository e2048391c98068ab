package timer

import (
	"context"
	"testing"

	"github.com/starford/pomodoro/internal/kv"
	"github.com/starford/pomodoro/internal/models"
)

func TestLoadSettings_DefaultsWhenAbsent(t *testing.T) {
	got := LoadSettings(context.Background(), kv.NewMemory(), quietLogger())
	if got != DefaultSettings() {
		t.Errorf("got %+v, want defaults", got)
	}
}

func TestLoadSettings_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":     `{workMinutes:`,
		"wrong type":   `{"workMinutes":"ten"}`,
		"out of range": `{"workMinutes":120,"shortBreakMinutes":5,"longBreakMinutes":15,"cycles":4}`,
		"zero cycles":  `{"workMinutes":25,"shortBreakMinutes":5,"longBreakMinutes":15,"cycles":0}`,
		"missing":      `{}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store := kv.NewMemory()
			_ = store.Write(context.Background(), kv.Put(kv.KeyTimerSettings, raw))
			if got := LoadSettings(context.Background(), store, quietLogger()); got != DefaultSettings() {
				t.Errorf("got %+v, want defaults", got)
			}
		})
	}
}

func TestSettings_RoundTrip(t *testing.T) {
	store := kv.NewMemory()
	want := models.TimerSettings{WorkMinutes: 50, ShortBreakMinutes: 10, LongBreakMinutes: 30, Cycles: 3}
	if err := SaveSettings(context.Background(), store, want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if got := LoadSettings(context.Background(), store, quietLogger()); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// A fresh engine picks them up and starts at the configured work duration.
	e := New(context.Background(), store, WithLogger(quietLogger()))
	if e.State().SecondsRemaining != 50*60 {
		t.Errorf("remaining = %d", e.State().SecondsRemaining)
	}
}

func TestClampSettings(t *testing.T) {
	got := ClampSettings(models.TimerSettings{WorkMinutes: 150, ShortBreakMinutes: 0, LongBreakMinutes: 42, Cycles: 99})
	want := models.TimerSettings{WorkMinutes: 99, ShortBreakMinutes: 1, LongBreakMinutes: 42, Cycles: 10}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if err := ValidateSettings(got); err != nil {
		t.Errorf("clamped settings should validate: %v", err)
	}
}

func TestDuration(t *testing.T) {
	s := models.TimerSettings{WorkMinutes: 2, ShortBreakMinutes: 3, LongBreakMinutes: 4, Cycles: 1}
	if Duration(models.ModeWork, s) != 120 || Duration(models.ModeShortBreak, s) != 180 || Duration(models.ModeLongBreak, s) != 240 {
		t.Error("durations do not match minutes * 60")
	}
}
