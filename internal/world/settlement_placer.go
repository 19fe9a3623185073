// Building placement: carves one building lot per city block and orders the
// lots so the ones nearest the town square become shops.
package world

import (
	"math/rand"
	"sort"
)

// Lot holds the parameters for one building placement.
type Lot struct {
	Bounds Rect
	Door   Coord
	Score  float64 // Desirability for trade; higher sorts first
}

// PlaceBuildings finds a lot in every block except the plaza block.
// Returns lots sorted by desirability so callers can hand the best ones to
// shops.
func PlaceBuildings(cfg GenConfig, rng *rand.Rand, plazaBX, plazaBY int) []Lot {
	var lots []Lot
	for by := 0; by < cfg.BlocksY; by++ {
		for bx := 0; bx < cfg.BlocksX; bx++ {
			if bx == plazaBX && by == plazaBY {
				continue
			}
			block := blockRect(cfg, bx, by)
			lot, ok := carveLot(block, rng)
			if !ok {
				continue
			}
			lot.Score = lotScore(bx, by, plazaBX, plazaBY)
			lots = append(lots, lot)
		}
	}

	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].Score > lots[j].Score
	})
	return lots
}

// carveLot sizes a building inside block, leaving at least one tile of yard
// on every side. The door sits on the south wall.
func carveLot(block Rect, rng *rand.Rand) (Lot, bool) {
	maxW := block.Width() - 2
	maxH := block.Height() - 2
	if maxW < 5 || maxH < 5 {
		return Lot{}, false
	}
	w := 5 + rng.Intn(min(4, maxW-4))
	h := 5 + rng.Intn(min(3, maxH-4))

	x := block.Min.X + 1 + rng.Intn(maxW-w+1)
	y := block.Min.Y + 1 + rng.Intn(maxH-h+1)
	bounds := R(x, y, w, h)
	door := Coord{X: x + w/2, Y: y + h - 1}
	return Lot{Bounds: bounds, Door: door}, true
}

// lotScore prefers blocks close to the plaza.
func lotScore(bx, by, px, py int) float64 {
	d := Manhattan(Coord{X: bx, Y: by}, Coord{X: px, Y: py})
	return 1.0 / float64(1+d)
}

// generateShopNames produces procedural shop names by combining syllables.
func generateShopNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Bright", "Old", "Gold", "Copper",
	}
	suffixes := []string{
		"Anvil", "Kettle", "Loaf", "Lantern", "Needle", "Barrel",
		"Flagon", "Ledger", "Hearth", "Spindle", "Basket", "Scale",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	for len(names) < count {
		name := "The " + prefixes[rng.Intn(len(prefixes))] + " " + suffixes[rng.Intn(len(suffixes))]
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}

	return names
}

// generateTownName combines a root and an ending, e.g. "Ashford".
func generateTownName(rng *rand.Rand) string {
	roots := []string{"Ash", "Oak", "Thorn", "Wil", "Bram", "Hollow", "Marsh", "Elder", "Fern", "Crow"}
	endings := []string{"ford", "wick", "by", "stead", "mere", "ton", "dale", "bury"}
	return roots[rng.Intn(len(roots))] + endings[rng.Intn(len(endings))]
}
