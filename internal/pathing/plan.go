// Package pathing computes routes across the settlement grid: a bounded A*
// search, a one-step greedy fallback, and the cached Plan agents follow
// between ticks.
package pathing

import "github.com/talgya/townfolk/internal/world"

// Blocker reports whether a coordinate is filled for routing purposes.
type Blocker interface {
	Blocked(c world.Coord) bool
}

// BlockerFunc adapts a function to Blocker.
type BlockerFunc func(c world.Coord) bool

// Blocked implements Blocker.
func (f BlockerFunc) Blocked(c world.Coord) bool { return f(c) }

// Plan is a cached route. Steps[0] is the position the plan was computed
// from; the last step is Goal unless the plan was truncated.
type Plan struct {
	Steps []world.Coord `json:"steps"`
	Goal  world.Coord   `json:"goal"`
}

// Verdict is the result of checking a plan against the agent's situation.
type Verdict uint8

const (
	PlanOK           Verdict = iota
	PlanMissing              // No plan cached
	PlanGoalChanged          // Cached for a different goal
	PlanExhausted            // No steps left to take
	PlanHeadMismatch         // Agent is not where the plan expects
	PlanNextBlocked          // Next step is no longer walkable or free
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case PlanOK:
		return "ok"
	case PlanMissing:
		return "missing"
	case PlanGoalChanged:
		return "goal_changed"
	case PlanExhausted:
		return "exhausted"
	case PlanHeadMismatch:
		return "head_mismatch"
	case PlanNextBlocked:
		return "next_blocked"
	default:
		return "unknown"
	}
}

// Check decides whether the plan can be followed from pos toward goal.
// free reports whether the next step may be entered right now.
func (p *Plan) Check(pos, goal world.Coord, free func(world.Coord) bool) Verdict {
	switch {
	case p == nil:
		return PlanMissing
	case p.Goal != goal:
		return PlanGoalChanged
	case len(p.Steps) < 2:
		return PlanExhausted
	case p.Steps[0] != pos:
		return PlanHeadMismatch
	case free != nil && !free(p.Steps[1]):
		return PlanNextBlocked
	}
	return PlanOK
}

// Resync truncates the plan so that it starts at pos. It reports false when
// pos is not on the plan or nothing is left to follow.
func (p *Plan) Resync(pos world.Coord) bool {
	if p == nil {
		return false
	}
	for i, s := range p.Steps {
		if s == pos {
			p.Steps = p.Steps[i:]
			return len(p.Steps) >= 2
		}
	}
	return false
}

// Next returns the coordinate after the head. ok is false when the plan has
// no further steps.
func (p *Plan) Next() (world.Coord, bool) {
	if p == nil || len(p.Steps) < 2 {
		return world.Coord{}, false
	}
	return p.Steps[1], true
}

// Advance pops the head after the agent has stepped onto Next.
func (p *Plan) Advance() {
	if p != nil && len(p.Steps) > 0 {
		p.Steps = p.Steps[1:]
	}
}

// Remaining returns the number of steps still to take.
func (p *Plan) Remaining() int {
	if p == nil || len(p.Steps) == 0 {
		return 0
	}
	return len(p.Steps) - 1
}

// Valid reports whether every consecutive pair of steps is grid-adjacent.
func (p *Plan) Valid() bool {
	if p == nil || len(p.Steps) == 0 {
		return false
	}
	for i := 1; i < len(p.Steps); i++ {
		if !world.Adjacent(p.Steps[i-1], p.Steps[i]) {
			return false
		}
	}
	return true
}
