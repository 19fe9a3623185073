// Package clock provides the settlement time of day, its coarse phases, and
// shop-hour windows.
package clock

import "fmt"

// Minute constants for the 24-hour day.
const (
	MinutesPerHour = 60
	MinutesPerDay  = 1440
)

// Phase boundaries in minutes since midnight.
const (
	MorningStart = 300  // 05:00
	DayStart     = 480  // 08:00
	EveningStart = 1140 // 19:00
	NightStart   = 1260 // 21:00
)

// Phase is a coarse time-of-day bucket.
type Phase uint8

const (
	Night Phase = iota
	Morning
	Day
	Evening
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Morning:
		return "morning"
	case Day:
		return "day"
	case Evening:
		return "evening"
	default:
		return "night"
	}
}

// Resting reports whether the phase sends everyone home to bed.
func (p Phase) Resting() bool {
	return p == Evening || p == Night
}

// PhaseAt returns the phase for a minute of the day.
func PhaseAt(minute int) Phase {
	minute = Normalize(minute)
	switch {
	case minute < MorningStart:
		return Night
	case minute < DayStart:
		return Morning
	case minute < EveningStart:
		return Day
	case minute < NightStart:
		return Evening
	default:
		return Night
	}
}

// Normalize wraps any minute count into [0, MinutesPerDay).
func Normalize(minute int) int {
	minute %= MinutesPerDay
	if minute < 0 {
		minute += MinutesPerDay
	}
	return minute
}

// Time is a point on the settlement calendar.
type Time struct {
	Day    int `json:"day"`
	Minute int `json:"minute"` // Minutes since midnight
}

// Phase returns the time's phase.
func (t Time) Phase() Phase {
	return PhaseAt(t.Minute)
}

// String renders the time as "Day N, HH:MM".
func (t Time) String() string {
	return fmt.Sprintf("Day %d, %02d:%02d", t.Day+1, t.Minute/MinutesPerHour, t.Minute%MinutesPerHour)
}

// Source supplies the current settlement time.
type Source interface {
	Now() Time
}

// Clock is a Source that advances a fixed number of minutes per tick.
type Clock struct {
	total   int // Minutes since the start of day 0
	PerTick int
}

// New creates a clock starting at the given minute of day 0.
func New(startMinute, perTick int) *Clock {
	if perTick <= 0 {
		perTick = 1
	}
	return &Clock{total: Normalize(startMinute), PerTick: perTick}
}

// Now implements Source.
func (c *Clock) Now() Time {
	return Time{Day: c.total / MinutesPerDay, Minute: c.total % MinutesPerDay}
}

// Advance moves the clock forward one tick.
func (c *Clock) Advance() Time {
	c.total += c.PerTick
	return c.Now()
}

// Set moves the clock to an absolute time.
func (c *Clock) Set(t Time) {
	c.total = t.Day*MinutesPerDay + Normalize(t.Minute)
}

// Fixed is a Source frozen at one time, for callers that drive time
// themselves.
type Fixed Time

// Now implements Source.
func (f Fixed) Now() Time { return Time(f) }
