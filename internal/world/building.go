package world

// BuildingID is a unique identifier for a building.
type BuildingID uint32

// Building is a walled rectangle with a single door and interior floor.
type Building struct {
	ID          BuildingID `json:"id"`
	Name        string     `json:"name"`
	Bounds      Rect       `json:"bounds"` // Includes the wall ring
	Door        Coord      `json:"door"`
	Beds        []Bed      `json:"beds,omitempty"`
	Residential bool       `json:"residential"`

	interior []Coord
	inSet    map[Coord]struct{}
}

// Bed is a furniture record inside a building.
type Bed struct {
	Pos Coord `json:"pos"`
}

// NewBuilding creates a building whose interior is every tile of bounds not
// on the wall ring.
func NewBuilding(id BuildingID, name string, bounds Rect, door Coord) *Building {
	b := &Building{
		ID:     id,
		Name:   name,
		Bounds: bounds,
		Door:   door,
	}
	var tiles []Coord
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			tiles = append(tiles, Coord{X: x, Y: y})
		}
	}
	b.SetInterior(tiles)
	return b
}

// SetInterior replaces the building's interior floor tiles.
func (b *Building) SetInterior(tiles []Coord) {
	b.interior = append([]Coord(nil), tiles...)
	b.inSet = make(map[Coord]struct{}, len(tiles))
	for _, t := range tiles {
		b.inSet[t] = struct{}{}
	}
}

// Interior returns the interior floor tiles in row-major order.
func (b *Building) Interior() []Coord {
	return b.interior
}

// IsInterior reports whether c is one of the building's floor tiles.
// The door is not interior.
func (b *Building) IsInterior(c Coord) bool {
	_, ok := b.inSet[c]
	return ok
}

// DoorAdjacent returns the interior tiles that touch the door.
func (b *Building) DoorAdjacent() []Coord {
	var out []Coord
	for _, n := range b.Door.Neighbors() {
		if b.IsInterior(n) {
			out = append(out, n)
		}
	}
	return out
}

// HasBedAt reports whether a bed sits at c.
func (b *Building) HasBedAt(c Coord) bool {
	for _, bed := range b.Beds {
		if bed.Pos == c {
			return true
		}
	}
	return false
}

// Render stamps the building's walls, door and floor onto m.
func (b *Building) Render(m *Map) {
	for y := b.Bounds.Min.Y; y < b.Bounds.Max.Y; y++ {
		for x := b.Bounds.Min.X; x < b.Bounds.Max.X; x++ {
			c := Coord{X: x, Y: y}
			if b.Bounds.OnEdge(c) {
				m.Set(c, TileWall)
			}
		}
	}
	for _, c := range b.interior {
		m.Set(c, TileFloor)
	}
	m.Set(b.Door, TileDoor)
}

// ShopID is a unique identifier for a shop.
type ShopID uint32

// Shop is a business operating out of a building.
type Shop struct {
	ID       ShopID    `json:"id"`
	Name     string    `json:"name"`
	Building *Building `json:"-"`
	Work     Coord     `json:"work"`             // Exterior work point, usually by the door
	Inside   *Coord    `json:"inside,omitempty"` // Interior work point (counter)
	Open     int       `json:"open"`             // Minutes since midnight
	Close    int       `json:"close"`            // Minutes since midnight
}

// PropKind enumerates scenery props.
type PropKind uint8

const (
	PropTree PropKind = iota
	PropBarrel
	PropCrate
	PropWell
	PropFlowers
	PropLamp
	PropBench
	PropSign
)

// Blocking reports whether the prop occupies its tile on the street.
// Benches, flowers, lamps and signs can be walked past.
func (k PropKind) Blocking() bool {
	switch k {
	case PropTree, PropBarrel, PropCrate, PropWell:
		return true
	default:
		return false
	}
}

// String returns the prop name.
func (k PropKind) String() string {
	names := [...]string{"tree", "barrel", "crate", "well", "flowers", "lamp", "bench", "sign"}
	if int(k) < len(names) {
		return names[k]
	}
	return "prop"
}

// Prop is a piece of scenery placed on the grid.
type Prop struct {
	Kind PropKind `json:"kind"`
	Pos  Coord    `json:"pos"`
}
