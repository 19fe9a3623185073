// Command townsim runs the settlement NPC simulation headless: it generates
// the demo town, populates or restores its roster, advances the turn
// orchestrator and saves the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/townfolk/internal/agents"
	"github.com/talgya/townfolk/internal/api"
	"github.com/talgya/townfolk/internal/clock"
	"github.com/talgya/townfolk/internal/config"
	"github.com/talgya/townfolk/internal/engine"
	"github.com/talgya/townfolk/internal/entropy"
	"github.com/talgya/townfolk/internal/logger"
	"github.com/talgya/townfolk/internal/observe"
	"github.com/talgya/townfolk/internal/persistence"
	"github.com/talgya/townfolk/internal/replay"
	"github.com/talgya/townfolk/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (optional)")
		ticks      = flag.Uint64("ticks", 1440, "ticks to run; 0 runs until interrupted")
		realtime   = flag.Bool("realtime", false, "pace ticks at clock.tick_interval")
		diffPath   = flag.String("diff", "", "recording to compare this run's recording against")
		printMap   = flag.Bool("map", false, "print the generated town and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.Setup(cfg, os.Stdout)

	if err := run(cfg, log, *ticks, *realtime, *diffPath, *printMap); err != nil {
		slog.Error("townsim failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, ticks uint64, realtime bool, diffPath string, printMap bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Persistence (optional) ───────────────────────────────────────
	var db *persistence.DB
	var snap persistence.Snapshot
	restored := false
	if cfg.Persistence.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Persistence.Path), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		var err error
		if db, err = persistence.Open(cfg.Persistence.Path); err != nil {
			return err
		}
		defer db.Close()
		if snap, restored, err = db.LoadSnapshot(); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if restored && snap.Seed != 0 {
			// The town must match the one the roster was saved against.
			cfg.Seed = snap.Seed
		}
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	// ── Town (always regenerated, deterministic from seed) ───────────
	town := world.Generate(cfg.TownConfig())
	if err := town.Validate(); err != nil {
		return fmt.Errorf("generated town is invalid: %w", err)
	}
	if printMap {
		fmt.Print(town.Map.Render())
		return nil
	}
	slog.Info("town ready",
		"name", town.Name,
		"seed", cfg.Seed,
		"size", fmt.Sprintf("%dx%d", town.Map.Width, town.Map.Height),
		"buildings", len(town.Buildings),
		"shops", len(town.Shops),
		"props", len(town.Props),
	)

	rng := entropy.New(cfg.Seed)
	clk := clock.New(cfg.Clock.StartMinute, cfg.Clock.MinutesPerTick)

	// ── Roster ────────────────────────────────────────────────────────
	var roster []*agents.Agent
	if restored {
		var err error
		if roster, err = db.LoadAgents(town); err != nil {
			return err
		}
		clk.Set(snap.Time)
		slog.Info("roster restored", "agents", len(roster), "tick", snap.Tick, "time", snap.Time.String())
	} else {
		roster = agents.Populate(town, cfg.Population, rng)
		slog.Info("roster populated", "agents", len(roster))
	}

	if db != nil {
		runID, err := db.StartRun(cfg.Seed)
		if err != nil {
			return err
		}
		log = logger.WithRun(log, runID)
		slog.SetDefault(log)
	}

	sim := engine.NewSimulation(engine.Deps{
		Town:    town,
		Clock:   clk,
		Player:  engine.StaticPlayer(world.C(-1, -1)),
		Rng:     rng,
		Metrics: observe.DefaultMetrics(),
		Config:  cfg.Engine(),
	}, roster)
	sim.LastTick = snap.Tick

	// ── Replay recording (optional) ──────────────────────────────────
	var rec *replay.Writer
	if cfg.Replay.Path != "" {
		var err error
		if rec, err = replay.Create(cfg.Replay.Path); err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				slog.Warn("closing replay", "error", err)
			}
		}()
	}

	save := func() {
		if db == nil {
			return
		}
		if err := db.SaveWorldState(sim, clk.Now()); err != nil {
			slog.Error("save failed", "error", err)
		}
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(clk)
	eng.Tick = snap.Tick
	if cfg.Clock.TickInterval > 0 {
		eng.Interval = cfg.Clock.TickInterval
	}
	// ── Observation API (optional) ───────────────────────────────────
	var srv *api.Server
	if cfg.API.Addr != "" {
		srv = api.New(town, eng, cfg.API.Addr, cfg.API.AdminKey)
		if db != nil {
			srv.Save = func() error { return db.SaveWorldState(sim, clk.Now()) }
		}
		srv.Sync(sim)
		srv.Start(ctx)
	}

	var recErr error
	eng.OnTick = func(tick uint64) {
		report := sim.AdvanceTick()
		if rec != nil && recErr == nil {
			recErr = rec.Write(replay.FrameOf(sim, report))
		}
		clk.Advance()
		if srv != nil {
			srv.Sync(sim)
		}
		if every := cfg.Persistence.SaveEvery; every > 0 && tick%uint64(every) == 0 {
			save()
		}
	}
	eng.OnHour = func(tick uint64) {
		r := sim.LastReport
		slog.Debug("hour", "tick", tick, "time", clk.Now().String(), "moved", r.Moved, "sleeping", r.Sleeping)
	}
	eng.OnDay = sim.TickDay

	switch {
	case realtime && ticks == 0:
		eng.Run(ctx)
	case realtime:
		runCtx, cancel := context.WithCancel(ctx)
		eng.OnTick = stopAfter(eng.OnTick, eng.Tick+ticks, cancel)
		eng.Run(runCtx)
		cancel()
	case ticks == 0:
		eng.RunTicks(ctx, ^uint64(0))
	default:
		eng.RunTicks(ctx, ticks)
	}

	if recErr != nil {
		return fmt.Errorf("replay: %w", recErr)
	}
	save()

	ms, ps := sim.MovementStats(), sim.PathStats()
	slog.Info("run complete",
		"tick", sim.CurrentTick(),
		"time", clk.Now().String(),
		"steps", ms.Steps,
		"plan_reuses", ms.Reused,
		"searches", ps.Searches,
		"exhausted", ps.Exhausted,
		"greedy", ms.Greedy,
		"stuck", ms.Stuck,
	)

	if diffPath != "" && rec != nil {
		if err := rec.Close(); err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		return compare(cfg.Replay.Path, diffPath)
	}
	return nil
}

// stopAfter wraps fn so that cancel is called once tick reaches last.
func stopAfter(fn func(uint64), last uint64, cancel context.CancelFunc) func(uint64) {
	return func(tick uint64) {
		fn(tick)
		if tick >= last {
			cancel()
		}
	}
}

func compare(ours, theirs string) error {
	a, err := replay.ReadFile(ours)
	if err != nil {
		return err
	}
	b, err := replay.ReadFile(theirs)
	if err != nil {
		return err
	}
	if tick, differs := replay.Diff(a, b); differs {
		slog.Warn("recordings diverge", "tick", tick, "ours", ours, "theirs", theirs)
		return nil
	}
	slog.Info("recordings match", "frames", len(a))
	return nil
}
