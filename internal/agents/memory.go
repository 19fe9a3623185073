// Agent memory: recently visited errand spots, so a resident's errand picks
// spread over the town instead of repeating the same bench every day.
package agents

import "github.com/talgya/townfolk/internal/world"

// MaxMemories caps the per-agent memory.
const MaxMemories = 4

// Memory records one visit to an errand spot.
type Memory struct {
	Day  int         `json:"day"`
	Spot world.Coord `json:"spot"`
}

// Remember appends a visit. When full, the oldest visit is dropped.
func Remember(a *Agent, day int, spot world.Coord) {
	m := Memory{Day: day, Spot: spot}
	if len(a.Memories) < MaxMemories {
		a.Memories = append(a.Memories, m)
		return
	}
	copy(a.Memories, a.Memories[1:])
	a.Memories[len(a.Memories)-1] = m
}

// Recalls reports whether the agent visited spot within its memory.
func Recalls(a *Agent, spot world.Coord) bool {
	for _, m := range a.Memories {
		if m.Spot == spot {
			return true
		}
	}
	return false
}

// Forget clears an agent's memory.
func Forget(a *Agent) {
	a.Memories = nil
}
