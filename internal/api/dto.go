package api

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pomodoro/internal/index"
	"github.com/starford/pomodoro/internal/models"
	"github.com/starford/pomodoro/internal/stats"
)

// TimerResponse is the timer view: state, settings and the focused task.
type TimerResponse struct {
	State       models.TimerState    `json:"state" validate:"required"`
	Settings    models.TimerSettings `json:"settings" validate:"required"`
	FocusedTask *models.Task         `json:"focusedTask,omitempty"`
}

// UpdateSettingsRequest is a partial settings update. Omitted fields keep
// their current value; out-of-range values are clamped.
type UpdateSettingsRequest struct {
	WorkMinutes       *int `json:"workMinutes,omitempty" example:"25"`
	ShortBreakMinutes *int `json:"shortBreakMinutes,omitempty" example:"5"`
	LongBreakMinutes  *int `json:"longBreakMinutes,omitempty" example:"15"`
	Cycles            *int `json:"cycles,omitempty" example:"4"`
}

// Merge applies the set fields of r onto s.
func (r UpdateSettingsRequest) Merge(s models.TimerSettings) models.TimerSettings {
	if r.WorkMinutes != nil {
		s.WorkMinutes = *r.WorkMinutes
	}
	if r.ShortBreakMinutes != nil {
		s.ShortBreakMinutes = *r.ShortBreakMinutes
	}
	if r.LongBreakMinutes != nil {
		s.LongBreakMinutes = *r.LongBreakMinutes
	}
	if r.Cycles != nil {
		s.Cycles = *r.Cycles
	}
	return s
}

// CreateTaskRequest is the request body for adding a task.
type CreateTaskRequest struct {
	Text string `json:"text" example:"Write the weekly report" validate:"required"`
}

// Validate rejects blank task text.
func (r CreateTaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required, validation.By(notBlank)),
	)
}

// TaskListResponse wraps the task list.
type TaskListResponse struct {
	Tasks     []models.Task `json:"tasks" validate:"required"`
	FocusedID string        `json:"focusedId"`
}

// FocusRequest sets or clears (empty id) the focused task.
type FocusRequest struct {
	ID string `json:"id" example:"3f0c..."`
}

// NoteRequest replaces the in-memory note text.
type NoteRequest struct {
	Text string `json:"text" example:"# Today\n- review PR"`
}

// AutoSaveRequest toggles the autosave policy.
type AutoSaveRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// Validate requires the enabled flag to be present.
func (r AutoSaveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Enabled, validation.NotNil),
	)
}

// ExportResponse is returned after a note export.
type ExportResponse struct {
	Name string `json:"name" example:"sprint-retro-20261019-143005.md" validate:"required"`
}

// ExportListResponse wraps the export directory listing.
type ExportListResponse struct {
	Exports []models.ExportMetadata `json:"exports" validate:"required"`
}

// SearchResponse wraps export search hits.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// StatsResponse is the progress summary.
type StatsResponse = stats.Summary

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be blank")
	}
	return nil
}
