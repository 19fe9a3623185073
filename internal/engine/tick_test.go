package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/townfolk/internal/clock"
)

func TestStepRollsHoursAndDays(t *testing.T) {
	clk := clock.New(1430, 5)
	e := NewEngine(clk)
	var ticks, hours, days int
	var dayTick uint64
	e.OnTick = func(uint64) {
		ticks++
		clk.Advance()
	}
	e.OnHour = func(uint64) { hours++ }
	e.OnDay = func(tick uint64) {
		days++
		dayTick = tick
	}

	assert.Equal(t, uint64(2), e.RunTicks(context.Background(), 2))
	assert.Equal(t, 1, hours, "midnight is a new hour")
	assert.Equal(t, 1, days)
	assert.Equal(t, uint64(2), dayTick)

	e.RunTicks(context.Background(), 12)
	assert.Equal(t, 14, ticks)
	assert.Equal(t, 2, hours)
	assert.Equal(t, 1, days)
	assert.Equal(t, uint64(14), e.Tick)
}

func TestStepWithoutClock(t *testing.T) {
	e := NewEngine(nil)
	var ticks int
	e.OnTick = func(uint64) { ticks++ }
	e.OnDay = func(uint64) { t.Fatal("no clock, no days") }
	e.Step()
	e.Step()
	assert.Equal(t, 2, ticks)
}

func TestRunTicksStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := NewEngine(clock.Fixed{})
	e.OnTick = func(tick uint64) {
		if tick == 3 {
			cancel()
		}
	}
	assert.Equal(t, uint64(3), e.RunTicks(ctx, 100))
}

func TestRunPacesTicks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	e := NewEngine(clock.Fixed{})
	e.Interval = 10 * time.Millisecond
	e.SetSpeed(2)
	e.Run(ctx)

	assert.Positive(t, e.Tick)
	assert.Less(t, e.Tick, uint64(60), "ticks are paced by the interval")
}

func TestRunPaused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	e := NewEngine(clock.Fixed{})
	e.SetSpeed(0)
	e.Run(ctx)
	assert.Zero(t, e.Tick)
}
