// Package world provides the tile grid, building descriptors, and the
// settlement data the navigation engine consumes.
// Coordinates are (x, y) with y growing downward; movement is 4-directional.
package world

import "fmt"

// Coord is a tile position on the settlement grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// C is a convenience constructor for Coord.
func C(x, y int) Coord { return Coord{X: x, Y: y} }

// String renders the coordinate as "(x,y)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Add returns c offset by d.
func (c Coord) Add(d Coord) Coord {
	return Coord{X: c.X + d.X, Y: c.Y + d.Y}
}

// NeighborDirections are the four cardinal offsets, in a fixed order so that
// every iteration over neighbors is deterministic.
var NeighborDirections = [4]Coord{
	{X: 0, Y: -1}, // north
	{X: 1, Y: 0},  // east
	{X: 0, Y: 1},  // south
	{X: -1, Y: 0}, // west
}

// Neighbors returns the four cardinal neighbors of c.
func (c Coord) Neighbors() [4]Coord {
	var result [4]Coord
	for i, dir := range NeighborDirections {
		result[i] = c.Add(dir)
	}
	return result
}

// Manhattan returns the 4-directional grid distance between two coordinates.
func Manhattan(a, b Coord) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Adjacent reports whether a and b are exactly one cardinal step apart.
func Adjacent(a, b Coord) bool {
	return Manhattan(a, b) == 1
}

// Rect is an axis-aligned rectangle of tiles, inclusive of Min and exclusive
// of Max.
type Rect struct {
	Min Coord `json:"min"`
	Max Coord `json:"max"`
}

// R builds a rectangle from its top-left corner and size.
func R(x, y, w, h int) Rect {
	return Rect{Min: Coord{X: x, Y: y}, Max: Coord{X: x + w, Y: y + h}}
}

// Contains reports whether c lies within the rectangle.
func (r Rect) Contains(c Coord) bool {
	return c.X >= r.Min.X && c.X < r.Max.X && c.Y >= r.Min.Y && c.Y < r.Max.Y
}

// Width of the rectangle in tiles.
func (r Rect) Width() int { return r.Max.X - r.Min.X }

// Height of the rectangle in tiles.
func (r Rect) Height() int { return r.Max.Y - r.Min.Y }

// OnEdge reports whether c lies on the outer ring of the rectangle.
func (r Rect) OnEdge(c Coord) bool {
	if !r.Contains(c) {
		return false
	}
	return c.X == r.Min.X || c.X == r.Max.X-1 || c.Y == r.Min.Y || c.Y == r.Max.Y-1
}

// Overlaps reports whether two rectangles share any tile.
func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X < o.Max.X && o.Min.X < r.Max.X && r.Min.Y < o.Max.Y && o.Min.Y < r.Max.Y
}
