package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Engine drives the simulation at a fixed rate.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Tick interval

	// OnTick runs on the engine goroutine every tick.
	OnTick func(tick uint64)
}

// NewEngine creates an engine running rate ticks per second.
func NewEngine(rate int) *Engine {
	if rate <= 0 {
		rate = 60
	}
	return &Engine{Interval: time.Second / time.Duration(rate)}
}

// Run starts the simulation loop. Blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("simulation engine started", "tick", e.Tick, "interval", e.Interval)

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.Tick)
			return
		case <-ticker.C:
			e.step()
		}
	}
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++
	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
}

// Shift hours shown on the in-game clock.
const (
	shiftStartHour = 9
	shiftHours     = 8
)

// ShiftTime maps shift progress onto a 9-to-5 wall clock, e.g. "1:30 PM".
func ShiftTime(elapsed, total uint64) string {
	if total == 0 {
		total = 1
	}
	if elapsed > total {
		elapsed = total
	}
	minutes := elapsed * shiftHours * 60 / total
	hour := shiftStartHour + int(minutes/60)
	minute := int(minutes % 60)

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	if hour > 12 {
		hour -= 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, suffix)
}
