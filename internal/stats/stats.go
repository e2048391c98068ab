// Package stats summarises timer and task progress.
package stats

import (
	"math"

	"github.com/starford/pomodoro/internal/models"
)

// Summary is the progress panel shown next to the timer.
type Summary struct {
	CompletedCycles      int `json:"completedCycles"`
	CompletedTasks       int `json:"completedTasks"`
	TotalTasks           int `json:"totalTasks"`
	CompletionPercentage int `json:"completionPercentage"`
}

// Compute builds a Summary from a timer snapshot and the task list.
func Compute(st models.TimerState, tasks []models.Task) Summary {
	s := Summary{
		CompletedCycles: st.CompletedCycles,
		TotalTasks:      len(tasks),
	}
	for _, t := range tasks {
		if t.Completed {
			s.CompletedTasks++
		}
	}
	if s.TotalTasks > 0 {
		s.CompletionPercentage = int(math.Round(float64(s.CompletedTasks) / float64(s.TotalTasks) * 100))
	}
	return s
}
