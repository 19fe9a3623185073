package replay

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/townfolk/internal/agents"
	"github.com/talgya/townfolk/internal/clock"
	"github.com/talgya/townfolk/internal/engine"
	"github.com/talgya/townfolk/internal/entropy"
	"github.com/talgya/townfolk/internal/world"
)

func frame(tick uint64, xs ...int) Frame {
	f := Frame{Tick: tick, Time: clock.Time{Minute: int(tick)}}
	for i, x := range xs {
		f.Agents = append(f.Agents, Position{ID: uint64(i + 1), X: x, Y: 0, State: "wandering"})
	}
	return f
}

func TestWriteRead(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	frames := []Frame{frame(1, 0, 5), frame(2, 1, 5), frame(3, 2, 4)}
	for _, f := range frames {
		require.NoError(t, w.Write(f))
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "close is idempotent")
	assert.Error(t, w.Write(frame(4)), "writes after close fail")

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, frames, got)
}

func TestCreateAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "a.jsonl.zst")
	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(frame(1, 3)))
	require.NoError(t, w.Close())

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Agents[0].X)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.zst"))
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	base := []Frame{frame(1, 0), frame(2, 1), frame(3, 2)}

	_, differ := Diff(base, base)
	assert.False(t, differ)

	moved := []Frame{frame(1, 0), frame(2, 1), frame(3, 3)}
	tick, differ := Diff(base, moved)
	assert.True(t, differ)
	assert.Equal(t, uint64(3), tick)

	tick, differ = Diff(base, base[:1])
	assert.True(t, differ)
	assert.Equal(t, uint64(2), tick, "the shorter recording ends first")

	renamed := []Frame{frame(1, 0)}
	renamed[0].Agents[0].State = "sleeping"
	tick, differ = Diff(base[:1], renamed)
	assert.True(t, differ)
	assert.Equal(t, uint64(1), tick)
}

func TestFrameOf(t *testing.T) {
	plaza := world.C(2, 0)
	town := &world.Settlement{Map: world.ParseMap([]string{"====="}), Plaza: plaza}
	sim := engine.NewSimulation(engine.Deps{
		Town:   town,
		Clock:  clock.Fixed{Minute: 720},
		Rng:    entropy.New(1),
		Config: engine.DefaultConfig(),
	}, []*agents.Agent{agents.New(4, "Solo", agents.RoleGeneric, world.C(0, 0))})

	r := sim.AdvanceTick()
	f := FrameOf(sim, r)
	assert.Equal(t, uint64(1), f.Tick)
	assert.Equal(t, r.Moved, f.Moved)
	require.Len(t, f.Agents, 1)
	assert.Equal(t, uint64(4), f.Agents[0].ID)
	assert.Equal(t, sim.Agents[0].Pos.X, f.Agents[0].X)
	assert.Equal(t, sim.Agents[0].State.String(), f.Agents[0].State)
}
