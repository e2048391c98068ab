// Package models defines the domain types shared by the pomodoro components.
package models

import "time"

// Mode is the active interval type of the timer.
type Mode string

const (
	ModeWork       Mode = "work"
	ModeShortBreak Mode = "shortBreak"
	ModeLongBreak  Mode = "longBreak"
)

// TimerSettings holds the user-configurable interval lengths.
type TimerSettings struct {
	WorkMinutes       int `json:"workMinutes"`
	ShortBreakMinutes int `json:"shortBreakMinutes"`
	LongBreakMinutes  int `json:"longBreakMinutes"`
	Cycles            int `json:"cycles"`
}

// TimerState is a point-in-time snapshot of the timer engine.
type TimerState struct {
	Mode             Mode `json:"mode"`
	SecondsRemaining int  `json:"secondsRemaining"`
	IsRunning        bool `json:"isRunning"`
	CurrentCycle     int  `json:"currentCycle"`
	CompletedCycles  int  `json:"completedCycles"`
}

// Task is a single entry in the task registry.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// NoteState is the in-memory view of the note store.
type NoteState struct {
	Text            string   `json:"text"`
	AutoSaveEnabled bool     `json:"autoSaveEnabled"`
	Dirty           bool     `json:"dirty"`
	Title           string   `json:"title"`
	Tags            []string `json:"tags"`
}

// ExportMetadata describes a note blob written to the export directory.
type ExportMetadata struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updatedAt"`
}
