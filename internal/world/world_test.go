package world

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordNeighborsOrder(t *testing.T) {
	n := C(5, 5).Neighbors()
	assert.Equal(t, [4]Coord{C(5, 4), C(6, 5), C(5, 6), C(4, 5)}, n)
	for _, c := range n {
		assert.True(t, Adjacent(C(5, 5), c))
	}
	assert.False(t, Adjacent(C(5, 5), C(6, 6)), "diagonals are not adjacent")
	assert.Equal(t, 7, Manhattan(C(0, 0), C(3, -4)))
}

func TestRect(t *testing.T) {
	r := R(2, 3, 4, 5)
	assert.Equal(t, 4, r.Width())
	assert.Equal(t, 5, r.Height())
	assert.True(t, r.Contains(C(2, 3)))
	assert.False(t, r.Contains(C(6, 3)), "max is exclusive")
	assert.True(t, r.OnEdge(C(5, 5)))
	assert.False(t, r.OnEdge(C(3, 4)))
	assert.True(t, r.Overlaps(R(5, 7, 3, 3)))
	assert.False(t, r.Overlaps(R(6, 3, 2, 2)))
}

func TestParseMapRoundTrip(t *testing.T) {
	rows := []string{
		"..=====",
		".#####=",
		".#___#=",
		".##+##=",
		"...=~~=",
	}
	m := ParseMap(rows)
	require.Equal(t, 7, m.Width)
	require.Equal(t, 5, m.Height)

	assert.Equal(t, TileDoor, m.Get(C(3, 3)))
	assert.True(t, m.Walkable(C(3, 3)))
	assert.False(t, m.Walkable(C(1, 1)))
	assert.False(t, m.Walkable(C(4, 4)), "water blocks")
	assert.False(t, m.Walkable(C(-1, 0)), "out of bounds is never walkable")
	assert.Equal(t, TileWall, m.Get(C(99, 99)))

	assert.Equal(t, strings.Join(rows, "\n")+"\n", m.Render())
}

func TestBuildingInterior(t *testing.T) {
	b := NewBuilding(1, "Test", R(0, 0, 5, 4), C(2, 3))
	assert.Len(t, b.Interior(), 6)
	assert.True(t, b.IsInterior(C(1, 1)))
	assert.False(t, b.IsInterior(b.Door), "the door is not interior")
	assert.False(t, b.IsInterior(C(0, 0)))
	assert.Equal(t, []Coord{C(2, 2)}, b.DoorAdjacent())

	m := NewMap(5, 5)
	b.Render(m)
	assert.Equal(t, TileDoor, m.Get(b.Door))
	assert.Equal(t, TileFloor, m.Get(C(3, 2)))
	assert.Equal(t, TileWall, m.Get(C(4, 3)))
	assert.True(t, m.Inside(b, C(1, 2)))
	assert.False(t, m.Inside(nil, C(1, 2)))
}

func TestPropBlocking(t *testing.T) {
	for _, k := range []PropKind{PropTree, PropBarrel, PropCrate, PropWell} {
		assert.True(t, k.Blocking(), k.String())
	}
	for _, k := range []PropKind{PropFlowers, PropLamp, PropBench, PropSign} {
		assert.False(t, k.Blocking(), k.String())
	}
}

func TestGenerateValid(t *testing.T) {
	for _, cfg := range []GenConfig{SmallTestConfig(), withSeed(DefaultGenConfig(), 7)} {
		s := Generate(cfg)
		require.NoError(t, s.Validate())
		assert.NotEmpty(t, s.Name)
		assert.Len(t, s.Shops, cfg.Shops)
		assert.Len(t, s.Buildings, cfg.BlocksX*cfg.BlocksY-1, "one lot per block except the plaza")
		assert.NotEmpty(t, s.Residences())
		assert.Len(t, s.Benches(), 4)

		for _, b := range s.Residences() {
			assert.NotEmpty(t, b.Beds, "house %d has beds", b.ID)
		}
		for _, c := range s.BlockingProps() {
			assert.False(t, c == s.Plaza, "plaza stays clear")
			for _, b := range s.Buildings {
				assert.False(t, c == b.Door)
			}
		}
	}
}

func withSeed(cfg GenConfig, seed int64) GenConfig {
	cfg.Seed = seed
	return cfg
}

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(SmallTestConfig())
	b := Generate(SmallTestConfig())
	assert.Equal(t, a.Map.Render(), b.Map.Render())
	assert.Equal(t, a.Props, b.Props)
	assert.Equal(t, a.Name, b.Name)
}

// Every door must be reachable from the plaza over walkable tiles, blocking
// props excluded.
func TestGenerateDoorsReachable(t *testing.T) {
	s := Generate(SmallTestConfig())
	blocked := make(map[Coord]bool)
	for _, c := range s.BlockingProps() {
		blocked[c] = true
	}
	seen := map[Coord]bool{s.Plaza: true}
	queue := []Coord{s.Plaza}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.Neighbors() {
			if seen[n] || blocked[n] || !s.Walkable(n) {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	for _, b := range s.Buildings {
		assert.True(t, seen[b.Door], "door of building %d reachable", b.ID)
	}
	for _, sh := range s.Shops {
		assert.True(t, seen[sh.Work], "work point of shop %d reachable", sh.ID)
	}
}

func TestSettlementLookups(t *testing.T) {
	s := Generate(SmallTestConfig())
	sh := s.Shops[0]
	assert.Same(t, sh, s.Shop(sh.ID))
	assert.Same(t, sh, s.ShopIn(sh.Building))
	assert.Same(t, sh.Building, s.Building(sh.Building.ID))
	assert.Same(t, sh.Building, s.BuildingAt(sh.Building.Door))
	assert.Nil(t, s.Building(9999))
	assert.Nil(t, s.Shop(9999))
}

func TestValidateReportsProblems(t *testing.T) {
	m := ParseMap([]string{
		"=======",
		"=#####=",
		"=#___#=",
		"=#####=",
		"=======",
	})
	b := NewBuilding(1, "Sealed", R(1, 1, 5, 3), C(3, 3))
	b.Beds = []Bed{{Pos: C(0, 0)}}
	s := &Settlement{Map: m, Buildings: []*Building{b}, Plaza: C(0, 0)}

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not walkable")
	assert.Contains(t, err.Error(), "outside interior")
}
