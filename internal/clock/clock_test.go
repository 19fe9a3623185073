package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseAt(t *testing.T) {
	tests := []struct {
		minute int
		want   Phase
	}{
		{0, Night},
		{299, Night},
		{300, Morning},
		{479, Morning},
		{480, Day},
		{1139, Day},
		{1140, Evening},
		{1259, Evening},
		{1260, Night},
		{1439, Night},
		{1440 + 600, Day},
		{-1, Night},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PhaseAt(tt.minute), "minute %d", tt.minute)
	}
	assert.True(t, Evening.Resting())
	assert.True(t, Night.Resting())
	assert.False(t, Morning.Resting())
	assert.False(t, Day.Resting())
}

func TestClockAdvance(t *testing.T) {
	c := New(1430, 5)
	assert.Equal(t, Time{Day: 0, Minute: 1430}, c.Now())
	c.Advance()
	c.Advance()
	assert.Equal(t, Time{Day: 1, Minute: 0}, c.Now())
	assert.Equal(t, "Day 2, 00:00", c.Now().String())

	c.Set(Time{Day: 3, Minute: 1500})
	assert.Equal(t, Time{Day: 3, Minute: 60}, c.Now())

	assert.Equal(t, 1, New(0, 0).PerTick, "non-positive step defaults to one minute")
	assert.Equal(t, Time{Day: 2, Minute: 9}, Fixed{Day: 2, Minute: 9}.Now())
}

func TestInWindow(t *testing.T) {
	tests := []struct {
		name              string
		now, open, closeM int
		want              bool
	}{
		{"inside", 600, 480, 1080, true},
		{"at open", 480, 480, 1080, true},
		{"at close", 1080, 480, 1080, false},
		{"before", 479, 480, 1080, false},
		{"wrapping late", 1400, 1320, 120, true},
		{"wrapping early", 60, 1320, 120, true},
		{"wrapping outside", 600, 1320, 120, false},
		{"empty window", 480, 480, 480, false},
		{"empty window elsewhere", 900, 480, 480, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InWindow(tt.now, tt.open, tt.closeM))
		})
	}
}

func TestOpenWithGrace(t *testing.T) {
	g := Grace{Before: 30, After: 30}

	assert.True(t, OpenWithGrace(1100, 480, 1080, g), "within closing grace")
	assert.False(t, OpenWithGrace(1110, 480, 1080, g), "grace ends at close+after")
	assert.True(t, OpenWithGrace(450, 480, 1080, g), "within opening grace")
	assert.False(t, OpenWithGrace(449, 480, 1080, g))
	assert.False(t, OpenWithGrace(1200, 480, 1080, g))

	assert.False(t, OpenWithGrace(480, 480, 480, g), "never-open shops get no grace")
	assert.True(t, OpenWithGrace(0, 60, 1430, Grace{Before: 60, After: 60}), "grace covering the whole day")
}
