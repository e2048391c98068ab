package timer

import (
	"context"
	"time"

	"github.com/starford/pomodoro/internal/models"
)

// Run delivers a Tick to e every interval until ctx is cancelled. onTick, if
// non-nil, receives the state after each tick.
func Run(ctx context.Context, e *Engine, interval time.Duration, onTick func(models.TimerState)) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := e.Tick()
			if onTick != nil {
				onTick(st)
			}
		}
	}
}
