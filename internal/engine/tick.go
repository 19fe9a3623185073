// Package engine provides the turn orchestrator and the tick-based loop
// that drives it.
package engine

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/talgya/townfolk/internal/clock"
)

// Engine drives the simulation forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Base tick interval (default 1 second)
	Clock    clock.Source  // Consulted after each tick for hour and day rollover

	// Callbacks for each tick layer, populated during setup.
	OnTick func(tick uint64) // Every tick
	OnHour func(tick uint64) // When the settlement hour changes
	OnDay  func(tick uint64) // When the settlement day changes

	speed   atomic.Uint64 // Float64 bits; 1.0 = real-time, 0 = paused
	last    clock.Time
	started bool
}

// NewEngine creates a simulation engine with default settings.
func NewEngine(src clock.Source) *Engine {
	e := &Engine{
		Interval: time.Second,
		Clock:    src,
	}
	e.SetSpeed(1)
	return e
}

// Speed returns the pacing multiplier.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed changes the pacing multiplier. It is safe to call while Run is
// looping on another goroutine.
func (e *Engine) SetSpeed(v float64) {
	e.speed.Store(math.Float64bits(max(v, 0)))
}

// Run starts the real-time loop. Blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())
	defer func() { slog.Info("simulation engine stopped", "tick", e.Tick) }()

	for {
		if ctx.Err() != nil {
			return
		}
		speed := e.Speed()
		if speed <= 0 {
			// Paused: sleep briefly and check again.
			if !sleep(ctx, 100*time.Millisecond) {
				return
			}
			continue
		}

		start := time.Now()
		e.Step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target && !sleep(ctx, target-elapsed) {
			return
		}
	}
}

// RunTicks advances n ticks as fast as possible, stopping early if ctx is
// cancelled. It returns the number of ticks run.
func (e *Engine) RunTicks(ctx context.Context, n uint64) uint64 {
	var done uint64
	for done < n && ctx.Err() == nil {
		e.Step()
		done++
	}
	return done
}

// Step advances the simulation by one tick.
func (e *Engine) Step() {
	if !e.started && e.Clock != nil {
		e.last = e.Clock.Now()
		e.started = true
	}
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.Clock == nil {
		return
	}

	now := e.Clock.Now()
	hourRolled := now.Day != e.last.Day || now.Minute/clock.MinutesPerHour != e.last.Minute/clock.MinutesPerHour
	dayRolled := now.Day != e.last.Day
	e.last = now

	if hourRolled && e.OnHour != nil {
		e.OnHour(e.Tick)
	}
	if dayRolled && e.OnDay != nil {
		e.OnDay(e.Tick)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
