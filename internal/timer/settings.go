package timer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pomodoro/internal/kv"
	"github.com/starford/pomodoro/internal/models"
)

// Allowed ranges for TimerSettings fields.
const (
	MinMinutes = 1
	MaxMinutes = 99
	MinCycles  = 1
	MaxCycles  = 10
)

// DefaultSettings returns the documented 25/5/15/4 configuration.
func DefaultSettings() models.TimerSettings {
	return models.TimerSettings{
		WorkMinutes:       25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  15,
		Cycles:            4,
	}
}

// ValidateSettings reports whether every field of s is inside its range.
func ValidateSettings(s models.TimerSettings) error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.WorkMinutes, validation.Required, validation.Min(MinMinutes), validation.Max(MaxMinutes)),
		validation.Field(&s.ShortBreakMinutes, validation.Required, validation.Min(MinMinutes), validation.Max(MaxMinutes)),
		validation.Field(&s.LongBreakMinutes, validation.Required, validation.Min(MinMinutes), validation.Max(MaxMinutes)),
		validation.Field(&s.Cycles, validation.Required, validation.Min(MinCycles), validation.Max(MaxCycles)),
	)
}

// ClampSettings forces every field of s into its allowed range.
func ClampSettings(s models.TimerSettings) models.TimerSettings {
	return models.TimerSettings{
		WorkMinutes:       clamp(s.WorkMinutes, MinMinutes, MaxMinutes),
		ShortBreakMinutes: clamp(s.ShortBreakMinutes, MinMinutes, MaxMinutes),
		LongBreakMinutes:  clamp(s.LongBreakMinutes, MinMinutes, MaxMinutes),
		Cycles:            clamp(s.Cycles, MinCycles, MaxCycles),
	}
}

// Duration returns the length in seconds of mode under s.
func Duration(mode models.Mode, s models.TimerSettings) int {
	switch mode {
	case models.ModeShortBreak:
		return s.ShortBreakMinutes * 60
	case models.ModeLongBreak:
		return s.LongBreakMinutes * 60
	default:
		return s.WorkMinutes * 60
	}
}

// LoadSettings reads settings from store. Absent, unparseable or out-of-range
// values fall back to DefaultSettings.
func LoadSettings(ctx context.Context, store kv.Store, logger *slog.Logger) models.TimerSettings {
	raw, ok, err := store.Get(ctx, kv.KeyTimerSettings)
	if err != nil {
		logger.Warn("timer: load settings failed", slog.String("error", err.Error()))
		return DefaultSettings()
	}
	if !ok {
		return DefaultSettings()
	}
	var s models.TimerSettings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		logger.Warn("timer: malformed settings, using defaults", slog.String("error", err.Error()))
		return DefaultSettings()
	}
	if err := ValidateSettings(s); err != nil {
		logger.Warn("timer: invalid settings, using defaults", slog.String("error", err.Error()))
		return DefaultSettings()
	}
	return s
}

// SaveSettings writes s to store.
func SaveSettings(ctx context.Context, store kv.Store, s models.TimerSettings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("timer: marshal settings: %w", err)
	}
	return store.Write(ctx, kv.Put(kv.KeyTimerSettings, string(data)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
