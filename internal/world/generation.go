// Settlement generation using a street grid and simplex-noise scenery.
// Produces a deterministic demo town for the command and for tests; real
// maps are supplied by the caller.
package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds settlement generation parameters.
type GenConfig struct {
	Seed       int64   `yaml:"-"`           // Random seed (0 = random)
	BlocksX    int     `yaml:"blocks_x"`    // City blocks across
	BlocksY    int     `yaml:"blocks_y"`    // City blocks down
	BlockW     int     `yaml:"block_w"`     // Block pitch in tiles, including one street column
	BlockH     int     `yaml:"block_h"`     // Block pitch in tiles, including one street row
	Shops      int     `yaml:"shops"`       // Number of buildings turned into shops
	TreeLevel  float64 `yaml:"tree_level"`  // Noise threshold above which grass grows a tree (0.0–1.0)
	FlowerBand float64 `yaml:"flower_band"` // Width of the noise band below TreeLevel that grows flowers
}

// DefaultGenConfig returns a small market town.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:       0,
		BlocksX:    4,
		BlocksY:    3,
		BlockW:     12,
		BlockH:     10,
		Shops:      3,
		TreeLevel:  0.74,
		FlowerBand: 0.04,
	}
}

// SmallTestConfig returns a tiny town for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Seed:       42,
		BlocksX:    3,
		BlocksY:    2,
		BlockW:     12,
		BlockH:     10,
		Shops:      2,
		TreeLevel:  0.78,
		FlowerBand: 0.04,
	}
}

// Generate creates a complete settlement with streets, buildings, shops,
// beds and scenery.
func Generate(cfg GenConfig) *Settlement {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed + 100))

	width := cfg.BlocksX*cfg.BlockW + 1
	height := cfg.BlocksY*cfg.BlockH + 1
	m := NewMap(width, height)

	// Street grid on block boundaries.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x%cfg.BlockW == 0 || y%cfg.BlockH == 0 {
				m.Set(Coord{X: x, Y: y}, TileStreet)
			}
		}
	}

	s := &Settlement{Name: generateTownName(rng), Map: m}

	// The block nearest the center is paved as the town square.
	plazaBX, plazaBY := cfg.BlocksX/2, cfg.BlocksY/2
	plazaBlock := blockRect(cfg, plazaBX, plazaBY)
	m.Fill(plazaBlock, TileStreet)
	center := Coord{X: plazaBlock.Min.X + plazaBlock.Width()/2, Y: plazaBlock.Min.Y + plazaBlock.Height()/2}
	s.Props = append(s.Props, Prop{Kind: PropWell, Pos: center})
	s.Plaza = Coord{X: center.X, Y: center.Y + 1}
	for _, corner := range []Coord{
		{X: plazaBlock.Min.X + 1, Y: plazaBlock.Min.Y + 1},
		{X: plazaBlock.Max.X - 2, Y: plazaBlock.Min.Y + 1},
		{X: plazaBlock.Min.X + 1, Y: plazaBlock.Max.Y - 2},
		{X: plazaBlock.Max.X - 2, Y: plazaBlock.Max.Y - 2},
	} {
		s.Props = append(s.Props, Prop{Kind: PropBench, Pos: corner})
	}

	lots := PlaceBuildings(cfg, rng, plazaBX, plazaBY)
	for i, lot := range lots {
		b := NewBuilding(BuildingID(i+1), "", lot.Bounds, lot.Door)
		b.Render(m)
		// Walkway from the door straight down to the street below.
		for y := lot.Door.Y + 1; y < height && m.Get(Coord{X: lot.Door.X, Y: y}) != TileStreet; y++ {
			m.Set(Coord{X: lot.Door.X, Y: y}, TileStreet)
		}
		s.Buildings = append(s.Buildings, b)
	}

	names := generateShopNames(rng, cfg.Shops)
	for i, b := range s.Buildings {
		if i < cfg.Shops {
			b.Name = names[i]
			s.Shops = append(s.Shops, makeShop(ShopID(i+1), b, rng))
			continue
		}
		b.Residential = true
		b.Name = "House"
		b.Beds = placeBeds(b, 1+rng.Intn(3))
	}

	placeScenery(s, seed, cfg)
	return s
}

func blockRect(cfg GenConfig, bx, by int) Rect {
	return R(bx*cfg.BlockW+1, by*cfg.BlockH+1, cfg.BlockW-1, cfg.BlockH-1)
}

// makeShop opens a shop in b: the counter sits two steps in from the door
// and the exterior work point is the walkway tile just outside it.
func makeShop(id ShopID, b *Building, rng *rand.Rand) *Shop {
	sh := &Shop{
		ID:       id,
		Name:     b.Name,
		Building: b,
		Work:     Coord{X: b.Door.X, Y: b.Door.Y + 1},
		Open:     420 + 30*rng.Intn(4),  // 07:00–08:30
		Close:    1020 + 30*rng.Intn(3), // 17:00–18:00
	}
	counter := Coord{X: b.Door.X, Y: b.Door.Y - 2}
	if b.IsInterior(counter) {
		sh.Inside = &counter
	}
	return sh
}

// placeBeds puts up to n beds on the interior tiles farthest from the door.
func placeBeds(b *Building, n int) []Bed {
	tiles := append([]Coord(nil), b.Interior()...)
	// Selection by repeated max keeps ties in row-major order.
	var beds []Bed
	used := make(map[Coord]bool)
	for len(beds) < n {
		best, bestD := Coord{}, -1
		for _, t := range tiles {
			if used[t] {
				continue
			}
			if d := Manhattan(t, b.Door); d > bestD {
				best, bestD = t, d
			}
		}
		if bestD < 2 {
			break
		}
		used[best] = true
		beds = append(beds, Bed{Pos: best})
	}
	return beds
}

// placeScenery scatters props over open grass using layered simplex noise.
// Tiles next to streets, doors and walls stay clear so routes never close.
func placeScenery(s *Settlement, seed int64, cfg GenConfig) {
	treeNoise := opensimplex.NewNormalized(seed)
	clutterNoise := opensimplex.NewNormalized(seed + 1)
	m := s.Map

	for y := 1; y < m.Height-1; y++ {
		for x := 1; x < m.Width-1; x++ {
			c := Coord{X: x, Y: y}
			if m.Get(c) != TileGrass || !clearAround(m, c) {
				continue
			}
			n := octaveNoise(treeNoise, float64(x), float64(y), 3, 0.18, 0.5)
			switch {
			case n > cfg.TreeLevel:
				s.Props = append(s.Props, Prop{Kind: PropTree, Pos: c})
			case n > cfg.TreeLevel-cfg.FlowerBand:
				s.Props = append(s.Props, Prop{Kind: PropFlowers, Pos: c})
			}
		}
	}

	// Street clutter: barrels and crates beside shop walkways, lamps along streets.
	for _, sh := range s.Shops {
		for _, side := range []Coord{{X: -1, Y: 0}, {X: 1, Y: 0}} {
			c := sh.Work.Add(side)
			if m.Get(c) != TileGrass {
				continue
			}
			if clutterNoise.Eval2(float64(c.X)*0.5, float64(c.Y)*0.5) > 0.5 {
				s.Props = append(s.Props, Prop{Kind: PropBarrel, Pos: c})
			} else {
				s.Props = append(s.Props, Prop{Kind: PropCrate, Pos: c})
			}
		}
	}
	for y := 0; y < m.Height; y += cfg.BlockH {
		for x := cfg.BlockW / 2; x < m.Width; x += cfg.BlockW {
			c := Coord{X: x, Y: y}
			if m.Get(c) == TileStreet && clutterNoise.Eval2(float64(x), float64(y)) > 0.6 {
				s.Props = append(s.Props, Prop{Kind: PropLamp, Pos: c})
			}
		}
	}
}

// clearAround reports whether every neighbor of c is plain grass, so a
// blocking prop on c cannot cut a street, walkway or door off.
func clearAround(m *Map, c Coord) bool {
	for _, n := range c.Neighbors() {
		if m.Get(n) != TileGrass {
			return false
		}
	}
	return true
}

// octaveNoise samples multi-octave simplex noise normalized to [0, 1).
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxAmp := 0.0
	freq := frequency
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*freq, y*freq) * amplitude
		maxAmp += amplitude
		amplitude *= persistence
		freq *= 2
	}
	return total / maxAmp
}
