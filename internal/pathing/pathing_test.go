package pathing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/townfolk/internal/world"
)

func set(cs ...world.Coord) BlockerFunc {
	m := make(map[world.Coord]bool, len(cs))
	for _, c := range cs {
		m[c] = true
	}
	return func(c world.Coord) bool { return m[c] }
}

func TestFindPathValid(t *testing.T) {
	m := world.ParseMap([]string{
		"..........",
		".########.",
		".#......#.",
		".#.####.#.",
		".#.#..#.#.",
		"...#..#...",
	})
	f := NewFinder(m, nil, 0, 0)

	plan, ok := f.FindPath(world.C(0, 0), world.C(4, 4), nil)
	require.False(t, ok, "the pocket at (4,4) is sealed")
	assert.Nil(t, plan)

	from, to := world.C(0, 5), world.C(9, 5)
	plan, ok = f.FindPath(from, to, nil)
	require.True(t, ok)
	assert.True(t, plan.Valid())
	assert.Equal(t, from, plan.Steps[0])
	assert.Equal(t, to, plan.Steps[len(plan.Steps)-1])
	for _, c := range plan.Steps {
		assert.True(t, m.Walkable(c), "%s walkable", c)
	}
	assert.Equal(t, 1, int(f.Stats.Found))
}

func TestFindPathSameTile(t *testing.T) {
	f := NewFinder(world.NewMap(3, 3), nil, 0, 0)
	plan, ok := f.FindPath(world.C(1, 1), world.C(1, 1), nil)
	require.True(t, ok)
	assert.Equal(t, []world.Coord{world.C(1, 1)}, plan.Steps)
	assert.Zero(t, f.Stats.Searches)
}

func TestFindPathAvoidsBodiesButEntersGoal(t *testing.T) {
	m := world.NewMap(5, 3)
	f := NewFinder(m, nil, 0, 0)
	occ := set(world.C(2, 1), world.C(4, 1))

	plan, ok := f.FindPath(world.C(0, 1), world.C(4, 1), occ)
	require.True(t, ok, "a blocked goal is still a valid destination")
	assert.NotContains(t, plan.Steps, world.C(2, 1))
	assert.Equal(t, world.C(4, 1), plan.Steps[len(plan.Steps)-1])

	_, ok = f.FindPath(world.C(0, 1), world.C(1, 1), set(world.C(1, 0), world.C(0, 0), world.C(0, 2), world.C(1, 2)))
	assert.True(t, ok)
}

func TestFindPathUnwalkableGoal(t *testing.T) {
	m := world.ParseMap([]string{"..#"})
	f := NewFinder(m, nil, 0, 0)
	_, ok := f.FindPath(world.C(0, 0), world.C(2, 0), nil)
	assert.False(t, ok)
	assert.Zero(t, f.Stats.Searches, "no search for a wall goal")
}

func TestFindPathBudget(t *testing.T) {
	m := world.NewMap(60, 60)
	f := NewFinder(m, nil, 10, 0)
	_, ok := f.FindPath(world.C(0, 0), world.C(59, 59), nil)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), f.Stats.Exhausted)
	assert.Equal(t, 10, f.Budget())

	f = NewFinder(m, nil, 0, 0)
	assert.Equal(t, DefaultBudget, f.Budget())
	_, ok = f.FindPath(world.C(0, 0), world.C(59, 59), nil)
	assert.True(t, ok)
}

func TestFindPathPrefersDoors(t *testing.T) {
	m := world.NewMap(3, 3)
	door := world.C(0, 1)

	biased := NewFinder(m, []world.Coord{door}, 0, DefaultDoorBias)
	plan, ok := biased.FindPath(world.C(0, 0), world.C(2, 2), nil)
	require.True(t, ok)
	assert.Contains(t, plan.Steps, door)
	assert.Len(t, plan.Steps, 5, "the bias never lengthens a route")

	plain := NewFinder(m, []world.Coord{door}, 0, 0)
	plan, ok = plain.FindPath(world.C(0, 0), world.C(2, 2), nil)
	require.True(t, ok)
	assert.NotContains(t, plan.Steps, door)
	assert.True(t, plain.IsDoor(door))
}

func TestNewFinderClampsBias(t *testing.T) {
	f := NewFinder(world.NewMap(1, 1), nil, 0, 50)
	assert.Equal(t, stepCost-1, f.doorBias)
	f = NewFinder(world.NewMap(1, 1), nil, 0, -4)
	assert.Zero(t, f.doorBias)
}

func TestGreedyStep(t *testing.T) {
	m := world.NewMap(5, 5)
	from, goal := world.C(1, 1), world.C(3, 1)

	next, ok := GreedyStep(from, goal, m, nil, world.C(-1, -1))
	require.True(t, ok)
	assert.Equal(t, world.C(2, 1), next)

	next, ok = GreedyStep(from, goal, m, set(world.C(2, 1)), world.C(-1, -1))
	require.True(t, ok)
	assert.Equal(t, world.C(1, 0), next, "ties keep north-east-south-west order")

	next, ok = GreedyStep(from, goal, m, nil, world.C(2, 1))
	require.True(t, ok)
	assert.NotEqual(t, world.C(2, 1), next, "never onto the player")

	around := from.Neighbors()
	_, ok = GreedyStep(from, goal, m, set(around[:]...), world.C(-1, -1))
	assert.False(t, ok)
}

func TestPlanCheck(t *testing.T) {
	steps := []world.Coord{world.C(0, 0), world.C(1, 0), world.C(2, 0)}
	goal := world.C(2, 0)
	free := func(world.Coord) bool { return true }
	blocked := func(world.Coord) bool { return false }

	tests := []struct {
		name string
		plan *Plan
		pos  world.Coord
		goal world.Coord
		free func(world.Coord) bool
		want Verdict
	}{
		{"missing", nil, world.C(0, 0), goal, free, PlanMissing},
		{"goal changed", &Plan{Steps: steps, Goal: goal}, world.C(0, 0), world.C(5, 5), free, PlanGoalChanged},
		{"exhausted", &Plan{Steps: steps[2:], Goal: goal}, world.C(2, 0), goal, free, PlanExhausted},
		{"head mismatch", &Plan{Steps: steps, Goal: goal}, world.C(1, 0), goal, free, PlanHeadMismatch},
		{"next blocked", &Plan{Steps: steps, Goal: goal}, world.C(0, 0), goal, blocked, PlanNextBlocked},
		{"ok", &Plan{Steps: steps, Goal: goal}, world.C(0, 0), goal, free, PlanOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.plan.Check(tt.pos, tt.goal, tt.free))
		})
	}
}

func TestPlanFollow(t *testing.T) {
	p := &Plan{Steps: []world.Coord{world.C(0, 0), world.C(1, 0), world.C(2, 0), world.C(3, 0)}, Goal: world.C(3, 0)}
	assert.True(t, p.Valid())
	assert.Equal(t, 3, p.Remaining())

	next, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, world.C(1, 0), next)
	p.Advance()
	assert.Equal(t, 2, p.Remaining())

	assert.True(t, p.Resync(world.C(2, 0)))
	assert.Equal(t, world.C(2, 0), p.Steps[0])
	assert.False(t, p.Resync(world.C(3, 0)), "nothing left to follow from the goal")
	assert.False(t, p.Resync(world.C(9, 9)))

	var nilPlan *Plan
	assert.Zero(t, nilPlan.Remaining())
	assert.False(t, nilPlan.Valid())
	assert.False(t, (&Plan{Steps: []world.Coord{world.C(0, 0), world.C(1, 1)}}).Valid())
}
