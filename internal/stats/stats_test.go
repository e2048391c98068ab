package stats

import (
	"testing"

	"github.com/starford/pomodoro/internal/models"
)

func TestCompute(t *testing.T) {
	cases := []struct {
		name  string
		tasks []models.Task
		want  Summary
	}{
		{"no tasks", nil, Summary{CompletedCycles: 2}},
		{"one of three", []models.Task{{Completed: true}, {}, {}}, Summary{CompletedCycles: 2, CompletedTasks: 1, TotalTasks: 3, CompletionPercentage: 33}},
		{"two of three rounds up", []models.Task{{Completed: true}, {Completed: true}, {}}, Summary{CompletedCycles: 2, CompletedTasks: 2, TotalTasks: 3, CompletionPercentage: 67}},
		{"all", []models.Task{{Completed: true}}, Summary{CompletedCycles: 2, CompletedTasks: 1, TotalTasks: 1, CompletionPercentage: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(models.TimerState{CompletedCycles: 2}, tc.tasks)
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
