package world

import (
	"fmt"
	"strings"
)

// Oracle answers the two grid questions the navigation engine asks.
// Implementations are treated as read-only for the duration of a tick.
type Oracle interface {
	// Walkable reports whether a body may stand on c, ignoring occupancy.
	Walkable(c Coord) bool
	// Inside reports whether c is an interior floor tile of b.
	Inside(b *Building, c Coord) bool
}

// Tile types for grid cells.
type Tile uint8

const (
	TileGrass Tile = iota // Open ground
	TileStreet            // Paved street
	TileFloor             // Building interior floor
	TileWall              // Building wall, impassable
	TileDoor              // Building door, the only passable wall tile
	TileWater             // Ponds and wells, impassable
)

// Walkable reports whether the tile type can be stood on.
func (t Tile) Walkable() bool {
	switch t {
	case TileWall, TileWater:
		return false
	default:
		return true
	}
}

// Map holds the settlement tile grid.
type Map struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tiles  []Tile `json:"-"` // Row-major, len == Width*Height
}

// NewMap creates a grass-filled map of the given size.
func NewMap(width, height int) *Map {
	return &Map{
		Width:  width,
		Height: height,
		Tiles:  make([]Tile, width*height),
	}
}

// InBounds returns true if the coordinate lies on the map.
func (m *Map) InBounds(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < m.Width && c.Y < m.Height
}

// Get returns the tile at c, or TileWall when out of bounds.
func (m *Map) Get(c Coord) Tile {
	if !m.InBounds(c) {
		return TileWall
	}
	return m.Tiles[c.Y*m.Width+c.X]
}

// Set places a tile at c. Out-of-bounds writes are ignored.
func (m *Map) Set(c Coord, t Tile) {
	if !m.InBounds(c) {
		return
	}
	m.Tiles[c.Y*m.Width+c.X] = t
}

// Fill sets every tile of r to t.
func (m *Map) Fill(r Rect, t Tile) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(Coord{X: x, Y: y}, t)
		}
	}
}

// Walkable implements Oracle.
func (m *Map) Walkable(c Coord) bool {
	return m.InBounds(c) && m.Get(c).Walkable()
}

// Inside implements Oracle.
func (m *Map) Inside(b *Building, c Coord) bool {
	if b == nil {
		return false
	}
	return b.IsInterior(c)
}

// IsDoor reports whether c is a door tile.
func (m *Map) IsDoor(c Coord) bool {
	return m.Get(c) == TileDoor
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(%dx%d)", m.Width, m.Height)
}

// Render draws the map in the ParseMap alphabet, one row per line.
func (m *Map) Render() string {
	var sb strings.Builder
	sb.Grow((m.Width + 1) * m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			sb.WriteRune(runeForTile(m.Get(Coord{X: x, Y: y})))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseMap builds a map from an ASCII layout, one string per row.
//
//	.  grass      #  wall
//	=  street     +  door
//	_  floor      ~  water
//
// Unknown runes become grass. Rows shorter than the widest row are padded
// with grass.
func ParseMap(rows []string) *Map {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	m := NewMap(width, len(rows))
	for y, row := range rows {
		for x, r := range row {
			m.Set(Coord{X: x, Y: y}, tileForRune(r))
		}
	}
	return m
}

func tileForRune(r rune) Tile {
	switch r {
	case '=':
		return TileStreet
	case '_':
		return TileFloor
	case '#':
		return TileWall
	case '+':
		return TileDoor
	case '~':
		return TileWater
	default:
		return TileGrass
	}
}

func runeForTile(t Tile) rune {
	switch t {
	case TileStreet:
		return '='
	case TileFloor:
		return '_'
	case TileWall:
		return '#'
	case TileDoor:
		return '+'
	case TileWater:
		return '~'
	default:
		return '.'
	}
}
