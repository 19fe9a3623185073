// Package occupancy tracks which grid coordinates are filled during a tick.
//
// A Set is rebuilt once at the start of every tick from the player, every
// agent and the blocking scenery, then mutated as each agent steps so that
// agents processed later in the same tick see where earlier ones went.
// Bodies (player and agents) and props are tracked separately: street
// routing is blocked by both, interior routing only by bodies.
package occupancy

import "github.com/talgya/townfolk/internal/world"

// Set is the per-tick collection of filled coordinates.
type Set struct {
	player world.Coord
	bodies map[world.Coord]struct{}
	props  map[world.Coord]struct{}
}

// New creates a set holding the player, the given agent positions, and the
// blocking prop positions.
func New(player world.Coord, agents []world.Coord, props []world.Coord) *Set {
	s := &Set{
		player: player,
		bodies: make(map[world.Coord]struct{}, len(agents)+1),
		props:  make(map[world.Coord]struct{}, len(props)),
	}
	s.bodies[player] = struct{}{}
	for _, a := range agents {
		s.bodies[a] = struct{}{}
	}
	for _, p := range props {
		s.props[p] = struct{}{}
	}
	return s
}

// Player returns the player's coordinate.
func (s *Set) Player() world.Coord {
	return s.player
}

// Blocked reports whether c holds a body or a blocking prop.
func (s *Set) Blocked(c world.Coord) bool {
	if _, ok := s.bodies[c]; ok {
		return true
	}
	_, ok := s.props[c]
	return ok
}

// HasBody reports whether the player or an agent stands on c.
func (s *Set) HasBody(c world.Coord) bool {
	_, ok := s.bodies[c]
	return ok
}

// HasProp reports whether a blocking prop stands on c.
func (s *Set) HasProp(c world.Coord) bool {
	_, ok := s.props[c]
	return ok
}

// Add marks c as holding a body.
func (s *Set) Add(c world.Coord) {
	s.bodies[c] = struct{}{}
}

// Remove clears a body from c. Props and the player are untouched.
func (s *Set) Remove(c world.Coord) {
	if c == s.player {
		return
	}
	delete(s.bodies, c)
}

// Move relocates a body from one coordinate to another.
func (s *Set) Move(from, to world.Coord) {
	s.Remove(from)
	s.Add(to)
}

// Len returns the number of bodies, player included.
func (s *Set) Len() int {
	return len(s.bodies)
}

// Interior returns a view that only reports bodies as blocking, for routing
// across building floors where furniture never blocks.
func (s *Set) Interior() Bodies {
	return Bodies{s}
}

// Bodies is a read-only view of a Set that ignores props.
type Bodies struct {
	s *Set
}

// Blocked reports whether a body stands on c.
func (b Bodies) Blocked(c world.Coord) bool {
	return b.s.HasBody(c)
}
