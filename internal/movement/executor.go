// Package movement commits agent steps on the grid: following or rebuilding
// cached plans, falling back to greedy steps, and routing agents through
// building doors to interior tiles.
package movement

import (
	"github.com/talgya/townfolk/internal/agents"
	"github.com/talgya/townfolk/internal/entropy"
	"github.com/talgya/townfolk/internal/occupancy"
	"github.com/talgya/townfolk/internal/pathing"
	"github.com/talgya/townfolk/internal/world"
)

// Stats counts how steps were produced.
type Stats struct {
	Steps       uint64 // Successful one-tile moves
	Reused      uint64 // Steps taken from a cached plan
	Searches    uint64 // Plans computed
	Greedy      uint64 // Steps taken by the greedy fallback
	Invalidated uint64 // Cached plans discarded
	Stuck       uint64 // Step attempts that could not move
}

// Executor moves one agent one tile per call.
type Executor struct {
	grid   world.Oracle
	finder *pathing.Finder

	Stats Stats
}

// NewExecutor creates an executor over grid using finder for searches.
func NewExecutor(grid world.Oracle, finder *pathing.Finder) *Executor {
	return &Executor{grid: grid, finder: finder}
}

// Finder returns the pathfinder the executor searches with.
func (ex *Executor) Finder() *pathing.Finder {
	return ex.finder
}

// Step moves the agent one tile toward goal across the street grid, where
// both bodies and blocking props are obstacles. It reports whether the agent
// moved; false means it stayed put this tick.
func (ex *Executor) Step(a *agents.Agent, occ *occupancy.Set, goal world.Coord) bool {
	return ex.StepWithin(a, occ, goal, occ)
}

// StepWithin is Step with a custom obstacle view. The occupancy set is still
// the one updated when the agent moves.
func (ex *Executor) StepWithin(a *agents.Agent, occ *occupancy.Set, goal world.Coord, view pathing.Blocker) bool {
	if a.Pos == goal {
		a.ClearPlan()
		return false
	}
	free := func(c world.Coord) bool {
		return ex.grid.Walkable(c) && !view.Blocked(c)
	}

	verdict := a.Plan.Check(a.Pos, goal, free)
	if verdict == pathing.PlanHeadMismatch && a.Plan.Resync(a.Pos) {
		verdict = a.Plan.Check(a.Pos, goal, free)
	}
	switch verdict {
	case pathing.PlanOK:
		next, _ := a.Plan.Next()
		ex.commit(a, occ, next)
		a.Plan.Advance()
		ex.Stats.Reused++
		return true
	case pathing.PlanNextBlocked:
		// Someone is standing on the goal itself: wait for them to leave.
		if next, _ := a.Plan.Next(); next == goal && ex.grid.Walkable(next) {
			ex.Stats.Stuck++
			return false
		}
		ex.Stats.Invalidated++
	case pathing.PlanMissing:
	default:
		ex.Stats.Invalidated++
	}
	a.ClearPlan()

	ex.Stats.Searches++
	plan, ok := ex.finder.FindPath(a.Pos, goal, view)
	if !ok {
		next, ok := pathing.GreedyStep(a.Pos, goal, ex.grid, view, occ.Player())
		if !ok {
			ex.Stats.Stuck++
			return false
		}
		ex.Stats.Greedy++
		ex.commit(a, occ, next)
		return true
	}

	a.Plan = plan
	next, ok := plan.Next()
	if !ok || !free(next) {
		ex.Stats.Stuck++
		return false
	}
	ex.commit(a, occ, next)
	plan.Advance()
	return true
}

// Nudge moves the agent to a random free neighbor. Plans and schedule state
// are left alone; a stale plan is resynchronized or dropped on the next
// step.
func (ex *Executor) Nudge(a *agents.Agent, occ *occupancy.Set, rng *entropy.Source) bool {
	neighbors := a.Pos.Neighbors()
	for _, i := range rng.Perm(len(neighbors)) {
		c := neighbors[i]
		if !ex.grid.Walkable(c) || occ.Blocked(c) {
			continue
		}
		ex.commit(a, occ, c)
		return true
	}
	return false
}

func (ex *Executor) commit(a *agents.Agent, occ *occupancy.Set, next world.Coord) {
	occ.Move(a.Pos, next)
	a.Pos = next
	ex.Stats.Steps++
}
