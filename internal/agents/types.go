// Package agents provides the NPC data model, the daily-routine state
// machine, and population/assignment of homes, beds and work.
package agents

import (
	"github.com/talgya/townfolk/internal/pathing"
	"github.com/talgya/townfolk/internal/world"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Role determines which daily routine an agent follows.
type Role uint8

const (
	RoleResident   Role = iota // Runs errands by day, sleeps at home
	RoleShopkeeper             // Staffs a shop during opening hours
	RolePet                    // Ignores the clock, jiggles in place
	RoleGeneric                // Goes to a work point or the plaza
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleShopkeeper:
		return "shopkeeper"
	case RolePet:
		return "pet"
	case RoleGeneric:
		return "generic"
	default:
		return "resident"
	}
}

// ParseRole maps a role name back to a Role. Unknown names are residents.
func ParseRole(s string) Role {
	switch s {
	case "shopkeeper":
		return RoleShopkeeper
	case "pet":
		return RolePet
	case "generic":
		return RoleGeneric
	default:
		return RoleResident
	}
}

// State is an agent's place in the daily routine.
type State uint8

const (
	StateAtHome State = iota
	StateSleeping
	StateCommutingToWork
	StateAtWork
	StateCommutingHome
	StateWandering
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateSleeping:
		return "sleeping"
	case StateCommutingToWork:
		return "commuting_to_work"
	case StateAtWork:
		return "at_work"
	case StateCommutingHome:
		return "commuting_home"
	case StateWandering:
		return "wandering"
	default:
		return "at_home"
	}
}

// ParseState maps a state name back to a State.
func ParseState(s string) State {
	for st := StateAtHome; st <= StateWandering; st++ {
		if st.String() == s {
			return st
		}
	}
	return StateAtHome
}

// Home describes where an agent lives and sleeps.
type Home struct {
	Building *world.Building `json:"-"` // Nil when the town has no houses
	Spot     world.Coord     `json:"spot"`
	Door     world.Coord     `json:"door"`
	Bed      *world.Coord    `json:"bed,omitempty"`
}

// SleepAt returns the tile the agent goes to bed on: the bed, or the home
// spot when there is no bed.
func (h *Home) SleepAt() world.Coord {
	if h.Bed != nil {
		return *h.Bed
	}
	return h.Spot
}

// Work describes where an agent spends the day.
type Work struct {
	Goal   world.Coord  `json:"goal"`             // Exterior work point
	Inside *world.Coord `json:"inside,omitempty"` // Interior work point, if any
	Shop   *world.Shop  `json:"-"`
}

// Agent is an NPC living in the settlement.
type Agent struct {
	ID   AgentID `json:"id"`
	Name string  `json:"name"`
	Role Role    `json:"role"`

	// Location
	Pos world.Coord `json:"pos"`

	// Assignments: set once, lazily, before the agent is first scheduled.
	Home  *Home   `json:"home,omitempty"`
	Work  *Work   `json:"work,omitempty"`
	Owner AgentID `json:"owner,omitempty"` // Pets only

	// Routine
	State     State        `json:"state"`
	HomeToday bool         `json:"home_today"`       // Resident stays in today
	Errand    *world.Coord `json:"errand,omitempty"` // Today's errand spot
	PlanDay   int          `json:"plan_day"`         // Day HomeToday/Errand were rolled for, -1 if never

	// Navigation
	Plan *pathing.Plan `json:"-"`

	// Memory of recently visited errand spots
	Memories []Memory `json:"memories,omitempty"`
}

// New creates an unassigned agent standing at pos.
func New(id AgentID, name string, role Role, pos world.Coord) *Agent {
	return &Agent{
		ID:      id,
		Name:    name,
		Role:    role,
		Pos:     pos,
		State:   StateAtHome,
		PlanDay: -1,
	}
}

// Sleeping reports whether the agent is asleep and skipped by the scheduler.
func (a *Agent) Sleeping() bool {
	return a.State == StateSleeping
}

// Assigned reports whether both home and work have been set.
func (a *Agent) Assigned() bool {
	return a.Home != nil && a.Work != nil
}

// ClearPlan drops any cached route.
func (a *Agent) ClearPlan() {
	a.Plan = nil
}

// Positions returns every agent's coordinate, in slice order.
func Positions(list []*Agent) []world.Coord {
	out := make([]world.Coord, len(list))
	for i, a := range list {
		out[i] = a.Pos
	}
	return out
}
