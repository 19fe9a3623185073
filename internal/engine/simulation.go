// Simulation ties the schedule, pathing and movement systems together and
// advances every agent one turn per tick.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/talgya/townfolk/internal/agents"
	"github.com/talgya/townfolk/internal/clock"
	"github.com/talgya/townfolk/internal/entropy"
	"github.com/talgya/townfolk/internal/movement"
	"github.com/talgya/townfolk/internal/observe"
	"github.com/talgya/townfolk/internal/occupancy"
	"github.com/talgya/townfolk/internal/pathing"
	"github.com/talgya/townfolk/internal/world"
)

// maxEvents bounds the event log.
const maxEvents = 1000

// PlayerLocator reports where the player stands. The player's tile always
// blocks agents.
type PlayerLocator interface {
	PlayerPosition() world.Coord
}

// StaticPlayer is a PlayerLocator that never moves.
type StaticPlayer world.Coord

// PlayerPosition implements PlayerLocator.
func (p StaticPlayer) PlayerPosition() world.Coord { return world.Coord(p) }

// Config tunes the orchestrator.
type Config struct {
	Schedule   agents.ScheduleConfig
	Throughput Throughput
	NodeBudget int // Expanded-node cap per path search
	DoorBias   int // Cost discount for stepping onto a door
	MaxNudges  int // Stall-guard nudges per stalled tick
}

// DefaultConfig returns the standard orchestrator tuning.
func DefaultConfig() Config {
	return Config{
		Schedule:   agents.DefaultScheduleConfig(),
		Throughput: DefaultThroughput(),
		NodeBudget: pathing.DefaultBudget,
		DoorBias:   pathing.DefaultDoorBias,
		MaxNudges:  3,
	}
}

// Deps are the collaborators a Simulation runs against.
type Deps struct {
	Town    *world.Settlement // Static descriptors: buildings, shops, props, plaza
	Grid    world.Oracle      // Walkability and interior oracle; defaults to Town
	Clock   clock.Source
	Player  PlayerLocator
	Rng     *entropy.Source
	Metrics *observe.Metrics // Optional
	Config  Config
}

// Event is a notable occurrence in the settlement.
type Event struct {
	Tick        uint64         `json:"tick"`
	Time        clock.Time     `json:"time"`
	Agent       agents.AgentID `json:"agent,omitempty"`
	Description string         `json:"description"`
	Category    string         `json:"category"` // "sleep", "wake", "stall"
}

// TickReport summarises one call to AdvanceTick.
type TickReport struct {
	Tick      uint64     `json:"tick"`
	Time      clock.Time `json:"time"`
	Total     int        `json:"total"`     // Agents in the settlement
	Processed int        `json:"processed"` // Agents given a turn
	Wanting   int        `json:"wanting"`   // Processed agents trying to travel
	Moved     int        `json:"moved"`     // Agents that changed tile, nudges excluded
	Nudged    int        `json:"nudged"`    // Stall-guard nudges applied
	Sleeping  int        `json:"sleeping"`
}

// Stalled reports whether agents wanted to travel and none could.
func (r TickReport) Stalled() bool {
	return r.Wanting > 0 && r.Moved == 0
}

// Simulation holds the live roster and runs the turn orchestrator.
type Simulation struct {
	Town       *world.Settlement
	Agents     []*agents.Agent
	AgentIndex map[agents.AgentID]*agents.Agent
	Events     []Event
	LastTick   uint64
	LastReport TickReport

	grid      world.Oracle
	clock     clock.Source
	player    PlayerLocator
	rng       *entropy.Source
	metrics   *observe.Metrics
	cfg       Config
	blocking  []world.Coord
	spawner   *agents.Spawner
	assigner  *agents.Assigner
	evaluator *agents.Evaluator
	executor  *movement.Executor
	router    *movement.Router

	lastMove  movement.Stats
	lastPath  pathing.Stats
	dayEvents int
}

// NewSimulation creates a Simulation over roster. Agents that arrive already
// assigned keep their assignments; the rest are assigned on their first
// turn.
func NewSimulation(deps Deps, roster []*agents.Agent) *Simulation {
	grid := deps.Grid
	if grid == nil {
		grid = deps.Town
	}
	player := deps.Player
	if player == nil {
		player = StaticPlayer(world.C(-1, -1))
	}
	cfg := deps.Config

	doors := make([]world.Coord, 0, len(deps.Town.Buildings))
	for _, b := range deps.Town.Buildings {
		doors = append(doors, b.Door)
	}
	finder := pathing.NewFinder(grid, doors, cfg.NodeBudget, cfg.DoorBias)
	ex := movement.NewExecutor(grid, finder)

	s := &Simulation{
		Town:       deps.Town,
		Agents:     roster,
		AgentIndex: make(map[agents.AgentID]*agents.Agent, len(roster)),
		grid:       grid,
		clock:      deps.Clock,
		player:     player,
		rng:        deps.Rng,
		metrics:    deps.Metrics,
		cfg:        cfg,
		blocking:   deps.Town.BlockingProps(),
		spawner:    agents.NewSpawner(deps.Rng),
		assigner:   agents.NewAssigner(deps.Town, deps.Rng),
		evaluator:  agents.NewEvaluator(cfg.Schedule, deps.Town, deps.Rng),
		executor:   ex,
		router:     movement.NewRouter(grid, ex),
	}

	var maxID agents.AgentID
	for _, a := range roster {
		s.AgentIndex[a.ID] = a
		s.assigner.Reserve(a)
		maxID = max(maxID, a.ID)
	}
	s.spawner.SetNextID(maxID + 1)
	return s
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	return s.LastTick
}

// Spawn adds an unassigned agent of the given role at pos, such as a
// visitor arriving at the edge of town. It is assigned a home and work on
// its first turn.
func (s *Simulation) Spawn(role agents.Role, pos world.Coord) *agents.Agent {
	a := s.spawner.Spawn(role, pos)
	s.Agents = append(s.Agents, a)
	s.AgentIndex[a.ID] = a
	return a
}

// MovementStats returns cumulative step statistics.
func (s *Simulation) MovementStats() movement.Stats {
	return s.executor.Stats
}

// PathStats returns cumulative pathfinder statistics.
func (s *Simulation) PathStats() pathing.Stats {
	return s.executor.Finder().Stats
}

// AdvanceTick gives agents their turn for the current clock time. The
// occupancy snapshot is built once and updated as agents move, so no two
// bodies ever share a tile.
func (s *Simulation) AdvanceTick() TickReport {
	start := time.Now()
	s.LastTick++
	now := s.clock.Now()

	occ := occupancy.New(s.player.PlayerPosition(), agents.Positions(s.Agents), s.blocking)
	s.separate(occ)

	order := s.rng.Perm(len(s.Agents))
	batch := s.cfg.Throughput.Select(order, s.LastTick)

	report := TickReport{
		Tick:      s.LastTick,
		Time:      now,
		Total:     len(s.Agents),
		Processed: len(batch),
	}
	var wanting []*agents.Agent
	for _, i := range batch {
		a := s.Agents[i]
		from := a.Pos
		if s.turn(a, now, occ) {
			wanting = append(wanting, a)
		}
		if a.Pos != from {
			report.Moved++
		}
	}
	report.Wanting = len(wanting)

	if report.Stalled() {
		report.Nudged = s.nudge(wanting, occ, now)
	}
	for _, a := range s.Agents {
		if a.Sleeping() {
			report.Sleeping++
		}
	}

	slog.Debug("tick", "tick", report.Tick, "time", now.String(),
		"moved", report.Moved, "of", report.Total, "processed", report.Processed)
	s.record(report, time.Since(start))
	s.LastReport = report
	return report
}

// turn evaluates one agent and carries out its intent. It reports whether
// the agent was trying to travel.
func (s *Simulation) turn(a *agents.Agent, now clock.Time, occ *occupancy.Set) bool {
	s.assigner.Ensure(a)
	before := a.State

	in := s.evaluator.Evaluate(a, now)
	travelling := false
	switch in.Directive {
	case agents.DirectiveGo, agents.DirectiveWander:
		travelling = true
		s.executor.Step(a, occ, in.Goal)
	case agents.DirectiveEnter:
		travelling = true
		s.router.RouteInto(a, in.Building, in.Goal, occ)
	case agents.DirectiveJiggle:
		s.executor.Nudge(a, occ, s.rng)
	}

	inside := in.Building != nil && s.grid.Inside(in.Building, a.Pos)
	taken := a.Pos != in.Goal && occ.HasBody(in.Goal)
	arrived := in.Arrived(a.Pos, inside, taken)
	a.Settle(in, arrived)

	switch {
	case a.State == agents.StateSleeping && before != agents.StateSleeping:
		s.addEvent(now, a.ID, "sleep", fmt.Sprintf("%s goes to bed", a.Name))
	case before == agents.StateSleeping && a.State != agents.StateSleeping:
		s.addEvent(now, a.ID, "wake", fmt.Sprintf("%s wakes up", a.Name))
	}
	return travelling && !arrived
}

// nudge shuffles up to MaxNudges of the stuck agents one tile each. Plans
// and schedule state are left as they are.
func (s *Simulation) nudge(stuck []*agents.Agent, occ *occupancy.Set, now clock.Time) int {
	n := 0
	for _, a := range stuck {
		if n >= s.cfg.MaxNudges {
			break
		}
		if s.executor.Nudge(a, occ, s.rng) {
			n++
		}
	}
	slog.Debug("stall guard", "tick", s.LastTick, "stuck", len(stuck), "nudged", n)
	if n > 0 {
		s.addEvent(now, 0, "stall", fmt.Sprintf("nudged %d of %d stuck agents", n, len(stuck)))
	}
	return n
}

// separate moves any agent that shares a tile with the player or an
// earlier agent to the nearest free tile. Overlaps only arise from outside
// changes, such as the player stepping onto an agent or a restored roster.
func (s *Simulation) separate(occ *occupancy.Set) {
	seen := map[world.Coord]bool{s.player.PlayerPosition(): true}
	for _, a := range s.Agents {
		if !seen[a.Pos] {
			seen[a.Pos] = true
			continue
		}
		if c, ok := s.nearestFree(a.Pos, occ); ok {
			slog.Debug("separating overlapping agent", "agent", a.ID, "from", a.Pos.String(), "to", c.String())
			a.Pos = c
			a.ClearPlan()
			occ.Add(c)
			seen[c] = true
		}
	}
}

// nearestFree searches outward from c for a walkable unblocked tile.
func (s *Simulation) nearestFree(c world.Coord, occ *occupancy.Set) (world.Coord, bool) {
	const limit = 256
	visited := map[world.Coord]bool{c: true}
	queue := []world.Coord{c}
	for len(queue) > 0 && len(visited) < limit {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.Neighbors() {
			if visited[n] || !s.grid.Walkable(n) {
				continue
			}
			visited[n] = true
			if !occ.Blocked(n) {
				return n, true
			}
			queue = append(queue, n)
		}
	}
	return world.Coord{}, false
}

func (s *Simulation) addEvent(now clock.Time, id agents.AgentID, category, desc string) {
	s.Events = append(s.Events, Event{
		Tick:        s.LastTick,
		Time:        now,
		Agent:       id,
		Description: desc,
		Category:    category,
	})
	s.dayEvents++
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

// record publishes the tick's metrics.
func (s *Simulation) record(r TickReport, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	ctx := context.Background()
	m := s.metrics
	mode := metric.WithAttributes(attribute.String("mode", string(s.cfg.Throughput.Mode)))

	m.Ticks.Add(ctx, 1)
	m.AgentsProcessed.Add(ctx, int64(r.Processed), mode)
	m.AgentsMoved.Record(ctx, int64(r.Moved))
	m.TickDuration.Record(ctx, elapsed.Seconds())
	m.Sleeping.Record(ctx, int64(r.Sleeping))
	if r.Stalled() {
		m.Stalls.Add(ctx, 1)
	}
	if r.Nudged > 0 {
		m.Nudges.Add(ctx, int64(r.Nudged))
	}

	mv, ps := s.executor.Stats, s.executor.Finder().Stats
	m.PathSearches.Add(ctx, int64(ps.Searches-s.lastPath.Searches))
	m.PathExhausted.Add(ctx, int64(ps.Exhausted-s.lastPath.Exhausted))
	m.PlanReuses.Add(ctx, int64(mv.Reused-s.lastMove.Reused))
	m.GreedySteps.Add(ctx, int64(mv.Greedy-s.lastMove.Greedy))
	s.lastMove, s.lastPath = mv, ps
}

// TickDay logs the daily report.
func (s *Simulation) TickDay(tick uint64) {
	counts := make(map[agents.State]int)
	for _, a := range s.Agents {
		counts[a.State]++
	}
	mv, ps := s.executor.Stats, s.executor.Finder().Stats

	slog.Info("daily report",
		"tick", tick,
		"time", s.clock.Now().String(),
		"agents", len(s.Agents),
		"sleeping", counts[agents.StateSleeping],
		"at_home", counts[agents.StateAtHome],
		"at_work", counts[agents.StateAtWork],
		"wandering", counts[agents.StateWandering],
		"commuting", counts[agents.StateCommutingToWork]+counts[agents.StateCommutingHome],
		"steps", mv.Steps,
		"plan_reuses", mv.Reused,
		"searches", ps.Searches,
		"exhausted", ps.Exhausted,
		"greedy", mv.Greedy,
		"events", s.dayEvents,
	)
	s.dayEvents = 0
}
