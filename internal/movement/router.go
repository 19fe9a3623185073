package movement

import (
	"github.com/talgya/townfolk/internal/agents"
	"github.com/talgya/townfolk/internal/occupancy"
	"github.com/talgya/townfolk/internal/pathing"
	"github.com/talgya/townfolk/internal/world"
)

// Router takes agents from anywhere on the map to a tile inside a building
// in two phases: street routing to the door, then interior routing from the
// door to the target.
type Router struct {
	grid world.Oracle
	ex   *Executor
}

// NewRouter creates a router that steps agents with ex.
func NewRouter(grid world.Oracle, ex *Executor) *Router {
	return &Router{grid: grid, ex: ex}
}

// RouteInto advances the agent one tile toward target inside b. It reports
// whether the agent was handled this tick: it moved, or it already stands
// where it should.
func (r *Router) RouteInto(a *agents.Agent, b *world.Building, target world.Coord, occ *occupancy.Set) bool {
	if a.Pos == target {
		a.ClearPlan()
		return true
	}
	view := r.interior(b, occ)

	if !r.grid.Inside(b, a.Pos) {
		if a.Pos != b.Door {
			return r.ex.Step(a, occ, b.Door)
		}
		entry, ok := r.entry(b, target, occ)
		if !ok {
			return false
		}
		return r.ex.StepWithin(a, occ, entry, view)
	}

	goal := target
	if occ.HasBody(target) {
		sub, ok := r.substitute(b, target, a.Pos, occ)
		if !ok {
			return false
		}
		if sub == a.Pos {
			return true
		}
		goal = sub
	}
	if r.ex.StepWithin(a, occ, goal, view) {
		return true
	}
	if goal != target {
		return false
	}
	// Target unreachable from here: settle for a free tile beside it.
	sub, ok := r.substitute(b, target, a.Pos, occ)
	if !ok || sub == a.Pos {
		return ok
	}
	return r.ex.StepWithin(a, occ, sub, view)
}

// interior is the routing view used inside b: only b's floor tiles are
// passable, and only bodies block. Furniture never does.
func (r *Router) interior(b *world.Building, occ *occupancy.Set) pathing.Blocker {
	bodies := occ.Interior()
	return pathing.BlockerFunc(func(c world.Coord) bool {
		return !r.grid.Inside(b, c) || bodies.Blocked(c)
	})
}

// entry picks the first interior tile to step onto from the door: the
// target itself when it touches the door and is free, otherwise the free
// door-adjacent floor tile closest to the target.
func (r *Router) entry(b *world.Building, target world.Coord, occ *occupancy.Set) (world.Coord, bool) {
	if world.Adjacent(target, b.Door) && r.grid.Inside(b, target) && !occ.HasBody(target) {
		return target, true
	}
	best, bestD := world.Coord{}, -1
	for _, c := range b.DoorAdjacent() {
		if occ.HasBody(c) {
			continue
		}
		if d := world.Manhattan(c, target); bestD < 0 || d < bestD {
			best, bestD = c, d
		}
	}
	return best, bestD >= 0
}

// substitute finds the free interior tile adjacent to target that is
// closest to the agent. The agent's own tile counts as free.
func (r *Router) substitute(b *world.Building, target, pos world.Coord, occ *occupancy.Set) (world.Coord, bool) {
	best, bestD := world.Coord{}, -1
	for _, c := range target.Neighbors() {
		if !r.grid.Inside(b, c) {
			continue
		}
		if c != pos && occ.HasBody(c) {
			continue
		}
		if d := world.Manhattan(c, pos); bestD < 0 || d < bestD {
			best, bestD = c, d
		}
	}
	return best, bestD >= 0
}
