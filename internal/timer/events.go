package timer

import "github.com/starford/pomodoro/internal/models"

// Event types published by the engine and its scheduler.
const (
	EventModeChanged = "timer.modeChanged"
	EventTick        = "timer.tick"
)

// ModeChanged is the payload of a timer.modeChanged event.
type ModeChanged struct {
	Mode            models.Mode `json:"mode"`
	Cycle           int         `json:"cycle"`
	Duration        int         `json:"duration"`
	CompletedCycles int         `json:"completedCycles"`
	Title           string      `json:"title"`
	Message         string      `json:"message"`
}

func modeChanged(from models.Mode, st models.TimerState, s models.TimerSettings) ModeChanged {
	ev := ModeChanged{
		Mode:            st.Mode,
		Cycle:           st.CurrentCycle,
		Duration:        st.SecondsRemaining,
		CompletedCycles: st.CompletedCycles,
	}
	switch {
	case st.Mode == models.ModeLongBreak:
		ev.Title = "Time for a long break!"
		ev.Message = plural("You've completed %d work session", s.Cycles) +
			plural(". Take %d minute", s.LongBreakMinutes) + " to recharge."
	case st.Mode == models.ModeShortBreak:
		ev.Title = "Short break time!"
		ev.Message = plural("Great work! Take %d minute", s.ShortBreakMinutes) + " to relax."
	case from == models.ModeLongBreak:
		ev.Title = "New session begins!"
		ev.Message = plural("Let's start fresh with %d minute", s.WorkMinutes) + " of focused work."
	default:
		ev.Title = "Back to work!"
		ev.Message = plural("Break's over. Focus for %d minute", s.WorkMinutes) + "."
	}
	return ev
}
