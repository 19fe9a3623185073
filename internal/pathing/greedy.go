package pathing

import (
	"sort"

	"github.com/talgya/townfolk/internal/world"
)

// GreedyStep picks a single step toward goal when no route was found: the
// four neighbors are tried in order of resulting Manhattan distance to goal
// and the first walkable, unblocked coordinate that is not the player's is
// returned. ok is false when every neighbor is closed.
func GreedyStep(from, goal world.Coord, grid Walker, occ Blocker, player world.Coord) (world.Coord, bool) {
	candidates := from.Neighbors()
	sort.SliceStable(candidates[:], func(i, j int) bool {
		return world.Manhattan(candidates[i], goal) < world.Manhattan(candidates[j], goal)
	})
	for _, c := range candidates {
		if c == player || !grid.Walkable(c) {
			continue
		}
		if occ != nil && occ.Blocked(c) {
			continue
		}
		return c, true
	}
	return world.Coord{}, false
}
