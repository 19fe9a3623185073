// Agent spawning: creates the initial population and assigns each agent a
// home, a bed and a place to spend the day.
package agents

import (
	"github.com/talgya/townfolk/internal/entropy"
	"github.com/talgya/townfolk/internal/world"
)

// PopulationConfig controls initial population generation.
type PopulationConfig struct {
	MaxResidentsPerHouse int `yaml:"max_residents_per_house"`
	Pets                 int `yaml:"pets"`
	Generic              int `yaml:"generic"`
}

// DefaultPopulationConfig returns a modest town population.
func DefaultPopulationConfig() PopulationConfig {
	return PopulationConfig{
		MaxResidentsPerHouse: 3,
		Pets:                 2,
		Generic:              3,
	}
}

// Spawner creates named agents with sequential IDs.
type Spawner struct {
	rng    *entropy.Source
	nextID AgentID
}

// NewSpawner creates an agent spawner drawing from rng.
func NewSpawner(rng *entropy.Source) *Spawner {
	return &Spawner{rng: rng, nextID: 1}
}

// SetNextID sets the next agent ID to be issued (used when restoring from DB).
func (s *Spawner) SetNextID(id AgentID) {
	s.nextID = id
}

// Spawn creates an unassigned agent of the given role at pos.
func (s *Spawner) Spawn(role Role, pos world.Coord) *Agent {
	id := s.nextID
	s.nextID++
	return New(id, s.generateName(role), role, pos)
}

func (s *Spawner) generateName(role Role) string {
	if role == RolePet {
		return petNames[s.rng.Intn(len(petNames))]
	}
	firsts := maleNames
	if s.rng.Chance(0.5) {
		firsts = femaleNames
	}
	first := firsts[s.rng.Intn(len(firsts))]
	last := lastNames[s.rng.Intn(len(lastNames))]
	return first + " " + last
}

// Populate creates the settlement's agents: one shopkeeper per shop,
// residents for every house, pets owned by residents, and generic townsfolk.
// Every agent leaves with its home, bed and work assigned and stands on a
// distinct free tile near home.
func Populate(town *world.Settlement, cfg PopulationConfig, rng *entropy.Source) []*Agent {
	sp := NewSpawner(rng)
	as := NewAssigner(town, rng)
	pl := newPlacer(town)

	var out []*Agent
	place := func(a *Agent) {
		a.Pos = pl.near(a.Home.Spot)
		out = append(out, a)
	}

	for range town.Shops {
		a := sp.Spawn(RoleShopkeeper, town.Plaza)
		as.Ensure(a)
		place(a)
	}

	var residents []*Agent
	maxPer := max(cfg.MaxResidentsPerHouse, 1)
	for _, b := range town.Residences() {
		n := 1 + rng.Intn(maxPer)
		for i := 0; i < n; i++ {
			a := sp.Spawn(RoleResident, town.Plaza)
			if !as.AssignHomeIn(a, b) {
				break
			}
			as.AssignWork(a)
			place(a)
			residents = append(residents, a)
		}
	}

	for i := 0; i < cfg.Pets; i++ {
		a := sp.Spawn(RolePet, town.Plaza)
		if idx, ok := rng.Pick(len(residents)); ok {
			as.AssignPetHome(a, residents[idx])
		}
		as.Ensure(a)
		place(a)
	}

	for i := 0; i < cfg.Generic; i++ {
		a := sp.Spawn(RoleGeneric, town.Plaza)
		as.Ensure(a)
		place(a)
	}

	return out
}

// placer hands out distinct free starting tiles.
type placer struct {
	town  *world.Settlement
	taken map[world.Coord]bool
}

func newPlacer(town *world.Settlement) *placer {
	p := &placer{town: town, taken: make(map[world.Coord]bool)}
	for _, c := range town.BlockingProps() {
		p.taken[c] = true
	}
	return p
}

// near returns the free walkable tile closest to target by breadth-first
// search and marks it taken. Falls back to target when the map is full.
func (p *placer) near(target world.Coord) world.Coord {
	seen := map[world.Coord]bool{target: true}
	queue := []world.Coord{target}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if p.town.Walkable(cur) && !p.taken[cur] {
			p.taken[cur] = true
			return cur
		}
		for _, n := range cur.Neighbors() {
			if !seen[n] && p.town.Map.InBounds(n) {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return target
}

// Name pools for procedural generation.
var maleNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Oswin", "Per", "Quinn", "Rowan", "Stellan", "Theron", "Ulric",
	"Varen", "Wren", "Yorick", "Zander", "Arlen", "Beric", "Cade",
}

var femaleNames = []string{
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
	"Olwen", "Petra", "Runa", "Senna", "Thea", "Una", "Vera",
	"Willa", "Yara", "Zara", "Ava", "Birgit", "Cora", "Dagny",
}

var lastNames = []string{
	"Voss", "Thornwood", "Blackwood", "Ashford", "Ironhand", "Dunmore",
	"Greenvale", "Stormcrow", "Frostborn", "Hearthstone", "Millward",
	"Copperfield", "Ravenmoor", "Silverdale", "Deepwell", "Brightwater",
	"Redforge", "Windholm", "Marshwood", "Holloway", "Thatcher", "Mercer",
}

var petNames = []string{
	"Biscuit", "Pip", "Soot", "Bramble", "Nettle", "Turnip", "Moss",
	"Pepper", "Clover", "Dumpling", "Whisker", "Acorn",
}
