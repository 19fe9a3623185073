// Daily routine: maps an agent's role, the time-of-day phase and the
// agent's memory of the day to a movement intent.
//
//	morning        everyone heads home; sleepers wake
//	day            shopkeepers staff their shop, residents run errands or
//	               stay in, generic townsfolk go to work or the plaza
//	evening/night  everyone goes to bed and is skipped until morning
//	pets           ignore the clock and jiggle now and then
package agents

import (
	"github.com/talgya/townfolk/internal/clock"
	"github.com/talgya/townfolk/internal/entropy"
	"github.com/talgya/townfolk/internal/world"
)

// Directive tells the orchestrator how to act on an intent.
type Directive uint8

const (
	DirectiveIdle   Directive = iota // Stay put this tick
	DirectiveSleep                   // Asleep; skip entirely
	DirectiveGo                      // Step toward Goal on the street
	DirectiveEnter                   // Route into Building, then to Goal
	DirectiveWander                  // Step toward an errand spot
	DirectiveJiggle                  // Random one-tile shuffle
)

// String returns the directive name.
func (d Directive) String() string {
	switch d {
	case DirectiveSleep:
		return "sleep"
	case DirectiveGo:
		return "go"
	case DirectiveEnter:
		return "enter"
	case DirectiveWander:
		return "wander"
	case DirectiveJiggle:
		return "jiggle"
	default:
		return "idle"
	}
}

// Intent is the evaluator's answer for one agent on one tick.
type Intent struct {
	Directive Directive
	Goal      world.Coord
	Building  *world.Building // Set for DirectiveEnter
	Near      int             // Arrival radius around Goal; 0 means exact
	Arrive    State           // State entered on arrival
	During    State           // State while travelling
}

// Arrived reports whether an agent standing on pos has reached the intent.
// inside tells whether pos is an interior tile of the intent's building;
// goalTaken whether another body stands on Goal. An agent that finds its
// bed or counter taken settles on a tile next to it.
func (in Intent) Arrived(pos world.Coord, inside, goalTaken bool) bool {
	if pos == in.Goal {
		return true
	}
	if in.Near > 0 && world.Manhattan(pos, in.Goal) <= in.Near {
		return true
	}
	if in.Building == nil || !inside {
		return false
	}
	if in.Arrive == StateAtHome {
		return true
	}
	return goalTaken && world.Adjacent(pos, in.Goal)
}

// Settle applies the intent's state transition after the agent has moved.
func (a *Agent) Settle(in Intent, arrived bool) {
	switch in.Directive {
	case DirectiveSleep, DirectiveJiggle:
		return
	}
	if arrived {
		a.State = in.Arrive
		if in.Arrive == StateSleeping {
			a.ClearPlan()
		}
		return
	}
	a.State = in.During
}

// ScheduleConfig tunes the routine.
type ScheduleConfig struct {
	Grace           clock.Grace `yaml:"grace"`
	HomeTodayChance float64     `yaml:"home_today_chance"` // Daily chance a resident stays in
	PetJiggleChance float64     `yaml:"pet_jiggle_chance"` // Per-tick chance a pet shuffles
	ErrandChance    float64     `yaml:"errand_chance"`     // Per-tick chance to move on from an errand spot
	IdleRadius      int         `yaml:"idle_radius"`       // How close a keeper waits to a closed shop
}

// DefaultScheduleConfig returns the standard routine tuning.
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		Grace:           clock.Grace{Before: 30, After: 30},
		HomeTodayChance: 0.2,
		PetJiggleChance: 0.15,
		ErrandChance:    0.02,
		IdleRadius:      1,
	}
}

// Evaluator is the routine state machine.
type Evaluator struct {
	cfg  ScheduleConfig
	town *world.Settlement
	rng  *entropy.Source
}

// NewEvaluator creates an evaluator for town.
func NewEvaluator(cfg ScheduleConfig, town *world.Settlement, rng *entropy.Source) *Evaluator {
	return &Evaluator{cfg: cfg, town: town, rng: rng}
}

// Evaluate decides what the agent should do at now. The agent must already
// have its home and work assigned. Sleeping agents outside the resting
// phases are woken here.
func (e *Evaluator) Evaluate(a *Agent, now clock.Time) Intent {
	if a.Role == RolePet {
		if e.rng.Chance(e.cfg.PetJiggleChance) {
			return Intent{Directive: DirectiveJiggle, Goal: a.Pos}
		}
		return e.idle(a, a.State)
	}

	phase := now.Phase()
	if a.Sleeping() {
		if phase.Resting() {
			return Intent{Directive: DirectiveSleep, Goal: a.Pos, Arrive: StateSleeping, During: StateSleeping}
		}
		a.State = StateAtHome
	}
	e.rollDay(a, now.Day)

	switch phase {
	case clock.Morning:
		if a.Role == RoleShopkeeper && e.staffed(a, now) {
			return e.shop(a, now)
		}
		return e.home(a, a.Home.Spot, StateAtHome)
	case clock.Day:
		switch a.Role {
		case RoleShopkeeper:
			return e.shop(a, now)
		case RoleGeneric:
			return e.work(a)
		default:
			return e.errand(a, now.Day)
		}
	default:
		return e.home(a, a.Home.SleepAt(), StateSleeping)
	}
}

// rollDay draws the resident's plan for a new day: whether to stay in, and
// which errand spot to visit.
func (e *Evaluator) rollDay(a *Agent, day int) {
	if a.PlanDay == day {
		return
	}
	a.PlanDay = day
	if a.Role != RoleResident {
		return
	}
	a.HomeToday = e.rng.Chance(e.cfg.HomeTodayChance)
	spot := e.pickErrand(a, day)
	a.Errand = &spot
}

func (e *Evaluator) idle(a *Agent, st State) Intent {
	return Intent{Directive: DirectiveIdle, Goal: a.Pos, Arrive: st, During: st}
}

// home routes the agent into its house toward target.
func (e *Evaluator) home(a *Agent, target world.Coord, arrive State) Intent {
	if a.Pos == target {
		return e.idle(a, arrive)
	}
	if a.Home.Building == nil {
		return Intent{Directive: DirectiveGo, Goal: target, Arrive: arrive, During: StateCommutingHome}
	}
	return Intent{
		Directive: DirectiveEnter,
		Goal:      target,
		Building:  a.Home.Building,
		Arrive:    arrive,
		During:    StateCommutingHome,
	}
}

// staffed reports whether a's shop is open at now, grace included.
func (e *Evaluator) staffed(a *Agent, now clock.Time) bool {
	sh := a.Work.Shop
	return sh != nil && clock.OpenWithGrace(now.Minute, sh.Open, sh.Close, e.cfg.Grace)
}

// shop staffs the counter while the shop is open, grace included, and
// otherwise waits by the exterior work point.
func (e *Evaluator) shop(a *Agent, now clock.Time) Intent {
	w := a.Work
	sh := w.Shop
	if e.staffed(a, now) && w.Inside != nil && sh.Building != nil {
		if a.Pos == *w.Inside {
			return e.idle(a, StateAtWork)
		}
		return Intent{
			Directive: DirectiveEnter,
			Goal:      *w.Inside,
			Building:  sh.Building,
			Arrive:    StateAtWork,
			During:    StateCommutingToWork,
		}
	}
	// Shops without a counter are worked from the exterior point.
	return e.goTo(a, w.Goal, e.cfg.IdleRadius, StateAtWork, StateCommutingToWork)
}

// work sends generic townsfolk to their work point; the plaza counts as
// wandering.
func (e *Evaluator) work(a *Agent) Intent {
	arrive := StateAtWork
	if a.Work.Goal == e.town.Plaza {
		arrive = StateWandering
	}
	return e.goTo(a, a.Work.Goal, 1, arrive, StateCommutingToWork)
}

// errand sends a resident to today's errand spot, or keeps them home.
func (e *Evaluator) errand(a *Agent, day int) Intent {
	if a.HomeToday {
		return e.home(a, a.Home.Spot, StateAtHome)
	}
	if a.Errand == nil {
		spot := e.pickErrand(a, day)
		a.Errand = &spot
	}
	if world.Manhattan(a.Pos, *a.Errand) <= 1 && e.rng.Chance(e.cfg.ErrandChance) {
		spot := e.pickErrand(a, day)
		a.Errand = &spot
	}
	in := e.goTo(a, *a.Errand, 1, StateWandering, StateWandering)
	if in.Directive == DirectiveGo {
		in.Directive = DirectiveWander
	}
	return in
}

func (e *Evaluator) goTo(a *Agent, goal world.Coord, near int, arrive, during State) Intent {
	if world.Manhattan(a.Pos, goal) <= near {
		return e.idle(a, arrive)
	}
	return Intent{Directive: DirectiveGo, Goal: goal, Near: near, Arrive: arrive, During: during}
}

// pickErrand chooses among benches, shop fronts and the plaza, avoiding
// spots the agent remembers visiting.
func (e *Evaluator) pickErrand(a *Agent, day int) world.Coord {
	spots := append([]world.Coord{e.town.Plaza}, e.town.Benches()...)
	for _, sh := range e.town.Shops {
		spots = append(spots, sh.Work)
	}
	fresh := spots[:0:0]
	for _, s := range spots {
		if !Recalls(a, s) {
			fresh = append(fresh, s)
		}
	}
	if len(fresh) == 0 {
		// Every spot is remembered; start the rotation over.
		Forget(a)
		fresh = spots
	}
	spot := fresh[e.rng.Intn(len(fresh))]
	Remember(a, day, spot)
	return spot
}
