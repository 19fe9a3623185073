package world

import (
	"errors"
	"fmt"
)

// Settlement bundles the static descriptors the navigation engine consumes:
// the tile grid, buildings, shops, scenery, and the town's gathering points.
// It is read-only once simulation begins.
type Settlement struct {
	Name      string      `json:"name"`
	Map       *Map        `json:"-"`
	Buildings []*Building `json:"buildings"`
	Shops     []*Shop     `json:"shops"`
	Props     []Prop      `json:"props"`
	Plaza     Coord       `json:"plaza"` // Open gathering tile in the town square
}

// Walkable implements Oracle by delegating to the map.
func (s *Settlement) Walkable(c Coord) bool {
	return s.Map.Walkable(c)
}

// Inside implements Oracle by delegating to the map.
func (s *Settlement) Inside(b *Building, c Coord) bool {
	return s.Map.Inside(b, c)
}

// BlockingProps returns the coordinates of props that occupy their tile.
func (s *Settlement) BlockingProps() []Coord {
	var out []Coord
	for _, p := range s.Props {
		if p.Kind.Blocking() {
			out = append(out, p.Pos)
		}
	}
	return out
}

// Benches returns bench coordinates, used as errand spots.
func (s *Settlement) Benches() []Coord {
	var out []Coord
	for _, p := range s.Props {
		if p.Kind == PropBench {
			out = append(out, p.Pos)
		}
	}
	return out
}

// Residences returns the residential buildings in ID order.
func (s *Settlement) Residences() []*Building {
	var out []*Building
	for _, b := range s.Buildings {
		if b.Residential {
			out = append(out, b)
		}
	}
	return out
}

// ShopIn returns the shop operating out of b, or nil.
func (s *Settlement) ShopIn(b *Building) *Shop {
	for _, sh := range s.Shops {
		if sh.Building == b {
			return sh
		}
	}
	return nil
}

// BuildingAt returns the building whose bounds contain c, or nil.
func (s *Settlement) BuildingAt(c Coord) *Building {
	for _, b := range s.Buildings {
		if b.Bounds.Contains(c) {
			return b
		}
	}
	return nil
}

// Building returns the building with the given ID, or nil.
func (s *Settlement) Building(id BuildingID) *Building {
	for _, b := range s.Buildings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Shop returns the shop with the given ID, or nil.
func (s *Settlement) Shop(id ShopID) *Shop {
	for _, sh := range s.Shops {
		if sh.ID == id {
			return sh
		}
	}
	return nil
}

// Validate checks the descriptors for the structural problems the engine
// cannot recover from at tick time. It returns every problem found.
func (s *Settlement) Validate() error {
	if s.Map == nil {
		return errors.New("settlement: nil map")
	}
	var errs []error
	for _, b := range s.Buildings {
		if !b.Bounds.OnEdge(b.Door) {
			errs = append(errs, fmt.Errorf("building %d: door %s not on wall ring", b.ID, b.Door))
		}
		if !s.Map.Walkable(b.Door) {
			errs = append(errs, fmt.Errorf("building %d: door %s not walkable", b.ID, b.Door))
		}
		if len(b.DoorAdjacent()) == 0 {
			errs = append(errs, fmt.Errorf("building %d: no interior tile touches the door", b.ID))
		}
		for _, bed := range b.Beds {
			if !b.IsInterior(bed.Pos) {
				errs = append(errs, fmt.Errorf("building %d: bed %s outside interior", b.ID, bed.Pos))
			}
		}
	}
	for _, sh := range s.Shops {
		if sh.Building == nil {
			errs = append(errs, fmt.Errorf("shop %d: no building", sh.ID))
			continue
		}
		if !s.Map.Walkable(sh.Work) {
			errs = append(errs, fmt.Errorf("shop %d: work point %s not walkable", sh.ID, sh.Work))
		}
		if sh.Inside != nil && !sh.Building.IsInterior(*sh.Inside) {
			errs = append(errs, fmt.Errorf("shop %d: inside point %s not interior", sh.ID, *sh.Inside))
		}
	}
	if !s.Map.Walkable(s.Plaza) {
		errs = append(errs, fmt.Errorf("plaza %s not walkable", s.Plaza))
	}
	return errors.Join(errs...)
}
