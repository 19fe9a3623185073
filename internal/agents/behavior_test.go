package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/townfolk/internal/clock"
	"github.com/talgya/townfolk/internal/entropy"
	"github.com/talgya/townfolk/internal/world"
)

func at(minute int) clock.Time {
	return clock.Time{Day: 0, Minute: minute}
}

// keeper returns a town with a shop open 08:00–18:00 and its assigned
// keeper standing on the plaza.
func keeper(t *testing.T) (*world.Settlement, *Agent) {
	t.Helper()
	town := testTown()
	require.NotEmpty(t, town.Shops)
	sh := town.Shops[0]
	sh.Open, sh.Close = 480, 1080
	require.NotNil(t, sh.Inside)

	a := New(1, "Keeper", RoleShopkeeper, town.Plaza)
	NewAssigner(town, entropy.New(1)).Ensure(a)
	require.Same(t, sh, a.Work.Shop)
	return town, a
}

func TestShopkeeperGoesHomeToSleepAfterClosing(t *testing.T) {
	town, a := keeper(t)
	ev := NewEvaluator(DefaultScheduleConfig(), town, entropy.New(1))

	in := ev.Evaluate(a, at(1200))
	assert.Equal(t, DirectiveEnter, in.Directive)
	assert.Same(t, a.Home.Building, in.Building)
	assert.Equal(t, a.Home.SleepAt(), in.Goal)
	assert.Equal(t, StateSleeping, in.Arrive)
	assert.Equal(t, StateCommutingHome, in.During)
}

func TestShopkeeperStaysThroughGrace(t *testing.T) {
	town, a := keeper(t)
	ev := NewEvaluator(DefaultScheduleConfig(), town, entropy.New(1))
	sh := a.Work.Shop

	in := ev.Evaluate(a, at(1100))
	assert.Equal(t, DirectiveEnter, in.Directive, "20 minutes after closing is within grace")
	assert.Same(t, sh.Building, in.Building)
	assert.Equal(t, *sh.Inside, in.Goal)
	assert.Equal(t, StateAtWork, in.Arrive)

	in = ev.Evaluate(a, at(1120))
	assert.Equal(t, DirectiveGo, in.Directive, "past grace the keeper waits outside")
	assert.Equal(t, sh.Work, in.Goal)

	a.Pos = *sh.Inside
	in = ev.Evaluate(a, at(600))
	assert.Equal(t, DirectiveIdle, in.Directive)
	assert.Equal(t, StateAtWork, in.Arrive)
}

func TestShopkeeperArrivesBeforeOpening(t *testing.T) {
	town, a := keeper(t)
	ev := NewEvaluator(DefaultScheduleConfig(), town, entropy.New(1))
	sh := a.Work.Shop

	tests := []struct {
		open, minute int
	}{
		{480, 460},
		{450, 470},
		{420, 470},
	}
	for _, tt := range tests {
		sh.Open = tt.open
		in := ev.Evaluate(a, at(tt.minute))
		assert.Equal(t, DirectiveEnter, in.Directive, "open %d at %d", tt.open, tt.minute)
		assert.Same(t, sh.Building, in.Building, "open %d at %d", tt.open, tt.minute)
		assert.Equal(t, *sh.Inside, in.Goal, "open %d at %d", tt.open, tt.minute)
		assert.Equal(t, StateAtWork, in.Arrive, "open %d at %d", tt.open, tt.minute)
	}

	sh.Open = 510
	in := ev.Evaluate(a, at(460))
	assert.Same(t, a.Home.Building, in.Building, "before grace the keeper stays home")
	assert.Equal(t, StateAtHome, in.Arrive)
}

func TestNeverOpenShop(t *testing.T) {
	town, a := keeper(t)
	sh := a.Work.Shop
	sh.Open, sh.Close = 600, 600
	ev := NewEvaluator(DefaultScheduleConfig(), town, entropy.New(1))

	in := ev.Evaluate(a, at(600))
	assert.Equal(t, DirectiveGo, in.Directive)
	assert.Equal(t, sh.Work, in.Goal)
	assert.Equal(t, 1, in.Near)
}

func TestSleepersWakeInTheMorning(t *testing.T) {
	town, a := keeper(t)
	ev := NewEvaluator(DefaultScheduleConfig(), town, entropy.New(1))
	a.State = StateSleeping

	in := ev.Evaluate(a, at(100))
	assert.Equal(t, DirectiveSleep, in.Directive)
	assert.True(t, a.Sleeping())

	in = ev.Evaluate(a, at(1300))
	assert.Equal(t, DirectiveSleep, in.Directive, "late evening counts as night")

	in = ev.Evaluate(a, at(330))
	assert.False(t, a.Sleeping(), "woken at dawn")
	assert.Equal(t, StateAtHome, in.Arrive)
	assert.Equal(t, a.Home.Spot, in.Goal)
}

func TestPetsIgnoreTheClock(t *testing.T) {
	town := testTown()
	pet := New(1, "Rex", RolePet, town.Plaza)
	NewAssigner(town, entropy.New(1)).Ensure(pet)

	cfg := DefaultScheduleConfig()
	cfg.PetJiggleChance = 1
	for _, m := range []int{100, 400, 700, 1200} {
		in := NewEvaluator(cfg, town, entropy.New(1)).Evaluate(pet, at(m))
		assert.Equal(t, DirectiveJiggle, in.Directive, "minute %d", m)
	}

	cfg.PetJiggleChance = 0
	in := NewEvaluator(cfg, town, entropy.New(1)).Evaluate(pet, at(1200))
	assert.Equal(t, DirectiveIdle, in.Directive)
	assert.Equal(t, pet.Pos, in.Goal)
}

func TestResidentsRunErrandsOrStayIn(t *testing.T) {
	town := testTown()
	as := NewAssigner(town, entropy.New(1))

	cfg := DefaultScheduleConfig()
	cfg.HomeTodayChance = 0
	out := New(1, "Out", RoleResident, town.Plaza)
	as.Ensure(out)
	in := NewEvaluator(cfg, town, entropy.New(1)).Evaluate(out, at(720))
	require.NotNil(t, out.Errand)
	assert.False(t, out.HomeToday)
	assert.Equal(t, 0, out.PlanDay)
	if in.Directive != DirectiveIdle {
		assert.Equal(t, DirectiveWander, in.Directive)
		assert.Equal(t, *out.Errand, in.Goal)
		assert.Equal(t, StateWandering, in.During)
	}
	assert.True(t, Recalls(out, *out.Errand))

	cfg.HomeTodayChance = 1
	stay := New(2, "Stay", RoleResident, town.Plaza)
	as.Ensure(stay)
	in = NewEvaluator(cfg, town, entropy.New(1)).Evaluate(stay, at(720))
	assert.True(t, stay.HomeToday)
	assert.Equal(t, DirectiveEnter, in.Directive)
	assert.Equal(t, stay.Home.Spot, in.Goal)
	assert.Equal(t, StateAtHome, in.Arrive)
}

func TestDayPlanRolledOncePerDay(t *testing.T) {
	town := testTown()
	a := New(1, "Planner", RoleResident, town.Plaza)
	NewAssigner(town, entropy.New(1)).Ensure(a)
	cfg := DefaultScheduleConfig()
	cfg.ErrandChance = 0
	ev := NewEvaluator(cfg, town, entropy.New(1))

	ev.Evaluate(a, at(600))
	first := *a.Errand
	ev.Evaluate(a, at(700))
	assert.Equal(t, first, *a.Errand)
	assert.Len(t, a.Memories, 1)

	ev.Evaluate(a, clock.Time{Day: 1, Minute: 600})
	assert.Equal(t, 1, a.PlanDay)
	assert.Len(t, a.Memories, 2)
}

func TestGenericGoesToWork(t *testing.T) {
	town := testTown()
	a := New(1, "Worker", RoleGeneric, world.C(0, 0))
	NewAssigner(town, entropy.New(1)).Ensure(a)
	ev := NewEvaluator(DefaultScheduleConfig(), town, entropy.New(1))

	in := ev.Evaluate(a, at(720))
	assert.Equal(t, DirectiveGo, in.Directive)
	assert.Equal(t, a.Work.Goal, in.Goal)
	assert.Equal(t, StateCommutingToWork, in.During)
	if a.Work.Goal == town.Plaza {
		assert.Equal(t, StateWandering, in.Arrive)
	} else {
		assert.Equal(t, StateAtWork, in.Arrive)
	}
}

func TestIntentArrived(t *testing.T) {
	b := world.NewBuilding(1, "House", world.R(0, 0, 5, 5), world.C(2, 4))
	goal := world.C(1, 1)

	tests := []struct {
		name      string
		in        Intent
		pos       world.Coord
		inside    bool
		goalTaken bool
		want      bool
	}{
		{"on goal", Intent{Goal: goal}, goal, false, false, true},
		{"within radius", Intent{Goal: goal, Near: 1}, world.C(1, 2), false, false, true},
		{"outside radius", Intent{Goal: goal, Near: 1}, world.C(3, 3), false, false, false},
		{"home anywhere inside", Intent{Goal: goal, Building: b, Arrive: StateAtHome}, world.C(3, 3), true, false, true},
		{"home at the door", Intent{Goal: goal, Building: b, Arrive: StateAtHome}, b.Door, false, false, false},
		{"bed taken, beside it", Intent{Goal: goal, Building: b, Arrive: StateSleeping}, world.C(2, 1), true, true, true},
		{"bed free, beside it", Intent{Goal: goal, Building: b, Arrive: StateSleeping}, world.C(2, 1), true, false, false},
		{"bed taken, far from it", Intent{Goal: goal, Building: b, Arrive: StateSleeping}, world.C(3, 3), true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Arrived(tt.pos, tt.inside, tt.goalTaken))
		})
	}
}

func TestSettle(t *testing.T) {
	a := New(1, "Settler", RoleResident, world.C(0, 0))
	in := Intent{Directive: DirectiveEnter, Arrive: StateSleeping, During: StateCommutingHome}

	a.Settle(in, false)
	assert.Equal(t, StateCommutingHome, a.State)

	a.Plan = nil
	a.Settle(in, true)
	assert.Equal(t, StateSleeping, a.State)
	assert.Nil(t, a.Plan)

	a.State = StateWandering
	a.Settle(Intent{Directive: DirectiveJiggle, Arrive: StateAtWork}, true)
	assert.Equal(t, StateWandering, a.State, "jiggles never change state")
}
