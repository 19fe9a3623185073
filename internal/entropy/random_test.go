package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameSeedSameSequence(t *testing.T) {
	a, b := New(99), New(99)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
		assert.Equal(t, a.Chance(0.3), b.Chance(0.3))
	}
	assert.Equal(t, a.Perm(20), b.Perm(20))
	assert.Equal(t, a.Draws(), b.Draws())
	assert.Equal(t, int64(99), a.Seed())
}

func TestEdgeCases(t *testing.T) {
	s := New(1)
	assert.Equal(t, 0, s.Intn(0))
	assert.False(t, s.Chance(0))
	assert.True(t, s.Chance(1))
	assert.Zero(t, s.Draws(), "degenerate draws consume nothing")

	_, ok := s.Pick(0)
	assert.False(t, ok)
	idx, ok := s.Pick(3)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, 3)
}

func TestPermIsPermutation(t *testing.T) {
	p := New(5).Perm(50)
	seen := make(map[int]bool)
	for _, v := range p {
		seen[v] = true
	}
	assert.Len(t, seen, 50)
}
