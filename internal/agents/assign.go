package agents

import (
	"github.com/talgya/townfolk/internal/entropy"
	"github.com/talgya/townfolk/internal/world"
)

// Assigner hands out homes, beds and work. It remembers every claim so that
// no two residents of a building share a bed and every shop gets at most one
// keeper before any shop gets a second.
type Assigner struct {
	town      *world.Settlement
	rng       *entropy.Source
	beds      map[world.BuildingID]map[world.Coord]AgentID
	residents map[world.BuildingID]int
	keepers   map[world.ShopID]AgentID
}

// NewAssigner creates an assigner for town.
func NewAssigner(town *world.Settlement, rng *entropy.Source) *Assigner {
	return &Assigner{
		town:      town,
		rng:       rng,
		beds:      make(map[world.BuildingID]map[world.Coord]AgentID),
		residents: make(map[world.BuildingID]int),
		keepers:   make(map[world.ShopID]AgentID),
	}
}

// Ensure assigns whatever the agent is missing. Assignments already present
// are left alone, so calling Ensure every tick assigns each descriptor
// exactly once.
func (as *Assigner) Ensure(a *Agent) {
	if a.Home == nil {
		as.AssignHome(a)
	}
	if a.Work == nil {
		as.AssignWork(a)
	}
}

// Reserve records the claims of an agent that arrived already assigned,
// such as one restored from storage.
func (as *Assigner) Reserve(a *Agent) {
	if a.Home != nil && a.Home.Building != nil {
		id := a.Home.Building.ID
		if a.Role != RolePet {
			as.residents[id]++
		}
		if a.Home.Bed != nil {
			as.claims(id)[*a.Home.Bed] = a.ID
		}
	}
	if a.Work != nil && a.Work.Shop != nil && a.Role == RoleShopkeeper {
		if _, ok := as.keepers[a.Work.Shop.ID]; !ok {
			as.keepers[a.Work.Shop.ID] = a.ID
		}
	}
}

// AssignHome gives the agent a bed in the least-crowded house that can
// take one. With no house available the agent makes do with the plaza.
func (as *Assigner) AssignHome(a *Agent) {
	if a.Role == RolePet {
		as.AssignPetHome(a, nil)
		return
	}
	houses := as.town.Residences()
	tried := make(map[world.BuildingID]bool, len(houses))
	for len(tried) < len(houses) {
		var best *world.Building
		for _, b := range houses {
			if tried[b.ID] {
				continue
			}
			if best == nil || as.residents[b.ID] < as.residents[best.ID] {
				best = b
			}
		}
		tried[best.ID] = true
		if as.AssignHomeIn(a, best) {
			return
		}
	}
	a.Home = &Home{Spot: as.town.Plaza, Door: as.town.Plaza}
}

// AssignHomeIn gives the agent a bed in b. It reports false when b has no
// bed left and no room for another.
func (as *Assigner) AssignHomeIn(a *Agent, b *world.Building) bool {
	bed, ok := as.claimBed(b, a.ID)
	if !ok {
		return false
	}
	as.residents[b.ID]++
	a.Home = &Home{
		Building: b,
		Spot:     as.spotIn(b),
		Door:     b.Door,
		Bed:      &bed,
	}
	return true
}

// AssignPetHome settles a pet with its owner, or in any house when the
// owner is unknown. Pets never take a bed.
func (as *Assigner) AssignPetHome(a *Agent, owner *Agent) {
	if owner != nil && owner.Home != nil {
		a.Owner = owner.ID
		h := *owner.Home
		h.Bed = nil
		if h.Building != nil {
			h.Spot = as.spotIn(h.Building)
		}
		a.Home = &h
		return
	}
	houses := as.town.Residences()
	if idx, ok := as.rng.Pick(len(houses)); ok {
		b := houses[idx]
		a.Home = &Home{Building: b, Spot: as.spotIn(b), Door: b.Door}
		return
	}
	a.Home = &Home{Spot: as.town.Plaza, Door: as.town.Plaza}
}

// AssignWork sets where the agent spends the day.
func (as *Assigner) AssignWork(a *Agent) {
	switch a.Role {
	case RoleShopkeeper:
		if sh := as.pickShop(a.ID); sh != nil {
			a.Work = &Work{Goal: sh.Work, Inside: sh.Inside, Shop: sh}
			return
		}
		a.Work = &Work{Goal: as.town.Plaza}
	case RoleGeneric:
		spots := []world.Coord{as.town.Plaza}
		for _, sh := range as.town.Shops {
			spots = append(spots, sh.Work)
		}
		a.Work = &Work{Goal: spots[as.rng.Intn(len(spots))]}
	case RolePet:
		spot := as.town.Plaza
		if a.Home != nil {
			spot = a.Home.Spot
		}
		a.Work = &Work{Goal: spot}
	default:
		a.Work = &Work{Goal: as.town.Plaza}
	}
}

// pickShop returns the first shop without a keeper, or a random shop when
// every one is staffed.
func (as *Assigner) pickShop(id AgentID) *world.Shop {
	if len(as.town.Shops) == 0 {
		return nil
	}
	for _, sh := range as.town.Shops {
		if _, ok := as.keepers[sh.ID]; !ok {
			as.keepers[sh.ID] = id
			return sh
		}
	}
	return as.town.Shops[as.rng.Intn(len(as.town.Shops))]
}

func (as *Assigner) claims(id world.BuildingID) map[world.Coord]AgentID {
	m, ok := as.beds[id]
	if !ok {
		m = make(map[world.Coord]AgentID)
		as.beds[id] = m
	}
	return m
}

// claimBed takes the first unclaimed bed in b, adding a bed when all are
// taken and the floor has room.
func (as *Assigner) claimBed(b *world.Building, id AgentID) (world.Coord, bool) {
	claimed := as.claims(b.ID)
	for _, bed := range b.Beds {
		if _, taken := claimed[bed.Pos]; !taken {
			claimed[bed.Pos] = id
			return bed.Pos, true
		}
	}
	pos, ok := as.roomForBed(b)
	if !ok {
		return world.Coord{}, false
	}
	b.Beds = append(b.Beds, world.Bed{Pos: pos})
	claimed[pos] = id
	return pos, true
}

// roomForBed finds the floor tile farthest from the door that is not a bed
// and does not touch the door, so the entrance stays clear.
func (as *Assigner) roomForBed(b *world.Building) (world.Coord, bool) {
	best, bestD := world.Coord{}, -1
	for _, t := range b.Interior() {
		if b.HasBedAt(t) || world.Adjacent(t, b.Door) {
			continue
		}
		if d := world.Manhattan(t, b.Door); d > bestD {
			best, bestD = t, d
		}
	}
	return best, bestD >= 0
}

// spotIn picks a random floor tile that is not a bed, where the agent
// lingers while at home and awake.
func (as *Assigner) spotIn(b *world.Building) world.Coord {
	var free []world.Coord
	for _, t := range b.Interior() {
		if !b.HasBedAt(t) {
			free = append(free, t)
		}
	}
	if idx, ok := as.rng.Pick(len(free)); ok {
		return free[idx]
	}
	if len(b.Beds) > 0 {
		return b.Beds[0].Pos
	}
	return b.Door
}
