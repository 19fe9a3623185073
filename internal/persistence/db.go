// Package persistence provides SQLite-based storage for the agent roster,
// the settlement clock and the event log.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/townfolk/internal/agents"
	"github.com/talgya/townfolk/internal/clock"
	"github.com/talgya/townfolk/internal/engine"
	"github.com/talgya/townfolk/internal/world"
)

// Meta keys.
const (
	MetaRunID      = "run_id"
	MetaSeed       = "seed"
	MetaLastTick   = "last_tick"
	MetaClockDay   = "clock_day"
	MetaClockMin   = "clock_minute"
	metaEventsTick = "events_through_tick"
)

// DB wraps a SQLite connection for roster persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		state TEXT NOT NULL,
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		home_building INTEGER,
		spot_x INTEGER,
		spot_y INTEGER,
		bed_x INTEGER,
		bed_y INTEGER,
		work_x INTEGER,
		work_y INTEGER,
		shop_id INTEGER,
		owner INTEGER NOT NULL DEFAULT 0,
		home_today INTEGER NOT NULL DEFAULT 0,
		plan_day INTEGER NOT NULL DEFAULT -1,
		errand_x INTEGER,
		errand_y INTEGER,
		memories_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		day INTEGER NOT NULL,
		minute INTEGER NOT NULL,
		agent INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// agentRow is the stored shape of an agent.
type agentRow struct {
	ID           uint64        `db:"id"`
	Name         string        `db:"name"`
	Role         string        `db:"role"`
	State        string        `db:"state"`
	PosX         int           `db:"pos_x"`
	PosY         int           `db:"pos_y"`
	HomeBuilding sql.NullInt64 `db:"home_building"`
	SpotX        sql.NullInt64 `db:"spot_x"`
	SpotY        sql.NullInt64 `db:"spot_y"`
	BedX         sql.NullInt64 `db:"bed_x"`
	BedY         sql.NullInt64 `db:"bed_y"`
	WorkX        sql.NullInt64 `db:"work_x"`
	WorkY        sql.NullInt64 `db:"work_y"`
	ShopID       sql.NullInt64 `db:"shop_id"`
	Owner        uint64        `db:"owner"`
	HomeToday    bool          `db:"home_today"`
	PlanDay      int           `db:"plan_day"`
	ErrandX      sql.NullInt64 `db:"errand_x"`
	ErrandY      sql.NullInt64 `db:"errand_y"`
	MemoriesJSON string        `db:"memories_json"`
}

func nullInt(v int, ok bool) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}

func nullCoord(c *world.Coord) (sql.NullInt64, sql.NullInt64) {
	if c == nil {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return nullInt(c.X, true), nullInt(c.Y, true)
}

func coordOf(x, y sql.NullInt64) *world.Coord {
	if !x.Valid || !y.Valid {
		return nil
	}
	c := world.C(int(x.Int64), int(y.Int64))
	return &c
}

func toRow(a *agents.Agent) (agentRow, error) {
	mem, err := json.Marshal(a.Memories)
	if err != nil {
		return agentRow{}, err
	}
	r := agentRow{
		ID:           uint64(a.ID),
		Name:         a.Name,
		Role:         a.Role.String(),
		State:        a.State.String(),
		PosX:         a.Pos.X,
		PosY:         a.Pos.Y,
		Owner:        uint64(a.Owner),
		HomeToday:    a.HomeToday,
		PlanDay:      a.PlanDay,
		MemoriesJSON: string(mem),
	}
	if h := a.Home; h != nil {
		if h.Building != nil {
			r.HomeBuilding = nullInt(int(h.Building.ID), true)
		}
		r.SpotX, r.SpotY = nullCoord(&h.Spot)
		r.BedX, r.BedY = nullCoord(h.Bed)
	}
	if w := a.Work; w != nil {
		r.WorkX, r.WorkY = nullCoord(&w.Goal)
		if w.Shop != nil {
			r.ShopID = nullInt(int(w.Shop.ID), true)
		}
	}
	r.ErrandX, r.ErrandY = nullCoord(a.Errand)
	return r, nil
}

// fromRow rebuilds an agent, resolving building and shop references against
// town. References the town no longer has leave the assignment unset so it
// is redone on the agent's next turn.
func fromRow(r agentRow, town *world.Settlement) (*agents.Agent, error) {
	a := agents.New(agents.AgentID(r.ID), r.Name, agents.ParseRole(r.Role), world.C(r.PosX, r.PosY))
	a.State = agents.ParseState(r.State)
	a.Owner = agents.AgentID(r.Owner)
	a.HomeToday = r.HomeToday
	a.PlanDay = r.PlanDay
	a.Errand = coordOf(r.ErrandX, r.ErrandY)
	if err := json.Unmarshal([]byte(r.MemoriesJSON), &a.Memories); err != nil {
		return nil, fmt.Errorf("agent %d memories: %w", r.ID, err)
	}

	if spot := coordOf(r.SpotX, r.SpotY); spot != nil {
		h := &agents.Home{Spot: *spot, Door: *spot, Bed: coordOf(r.BedX, r.BedY)}
		if r.HomeBuilding.Valid {
			h.Building = town.Building(world.BuildingID(r.HomeBuilding.Int64))
		}
		switch {
		case h.Building != nil:
			h.Door = h.Building.Door
			if h.Bed != nil && !h.Building.HasBedAt(*h.Bed) {
				h.Building.Beds = append(h.Building.Beds, world.Bed{Pos: *h.Bed})
			}
			a.Home = h
		case !r.HomeBuilding.Valid:
			a.Home = h
		}
	}

	if goal := coordOf(r.WorkX, r.WorkY); goal != nil {
		w := &agents.Work{Goal: *goal}
		if r.ShopID.Valid {
			w.Shop = town.Shop(world.ShopID(r.ShopID.Int64))
		}
		switch {
		case w.Shop != nil:
			w.Goal = w.Shop.Work
			w.Inside = w.Shop.Inside
			a.Work = w
		case !r.ShopID.Valid:
			a.Work = w
		}
	}
	return a, nil
}

// SaveAgents writes all agents to the database (full replace).
func (db *DB) SaveAgents(agentList []*agents.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return err
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO agents
		(id, name, role, state, pos_x, pos_y, home_building, spot_x, spot_y,
		 bed_x, bed_y, work_x, work_y, shop_id, owner, home_today, plan_day,
		 errand_x, errand_y, memories_json)
		VALUES (:id, :name, :role, :state, :pos_x, :pos_y, :home_building, :spot_x, :spot_y,
		 :bed_x, :bed_y, :work_x, :work_y, :shop_id, :owner, :home_today, :plan_day,
		 :errand_x, :errand_y, :memories_json)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agentList {
		row, err := toRow(a)
		if err != nil {
			return fmt.Errorf("encode agent %d: %w", a.ID, err)
		}
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// LoadAgents restores the roster onto town, ordered by ID.
func (db *DB) LoadAgents(town *world.Settlement) ([]*agents.Agent, error) {
	var rows []agentRow
	if err := db.conn.Select(&rows, "SELECT * FROM agents ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	out := make([]*agents.Agent, 0, len(rows))
	for _, r := range rows {
		a, err := fromRow(r, town)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, day, minute, agent, description, category) VALUES (?, ?, ?, ?, ?, ?)",
			e.Tick, e.Time.Day, e.Time.Minute, uint64(e.Agent), e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

type eventRow struct {
	Tick        uint64 `db:"tick"`
	Day         int    `db:"day"`
	Minute      int    `db:"minute"`
	Agent       uint64 `db:"agent"`
	Description string `db:"description"`
	Category    string `db:"category"`
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT tick, day, minute, agent, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	events := make([]engine.Event, len(rows))
	for i, r := range rows {
		events[i] = engine.Event{
			Tick:        r.Tick,
			Time:        clock.Time{Day: r.Day, Minute: r.Minute},
			Agent:       agents.AgentID(r.Agent),
			Description: r.Description,
			Category:    r.Category,
		}
	}
	return events, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. ok is false when the key is unset.
func (db *DB) GetMeta(key string) (value string, ok bool, err error) {
	err = db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (db *DB) metaInt(key string) (int64, bool, error) {
	v, ok, err := db.GetMeta(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("meta %s %q: %w", key, v, err)
	}
	return n, true, nil
}

// StartRun stamps a fresh run ID and the seed into world metadata and
// returns the ID.
func (db *DB) StartRun(seed int64) (string, error) {
	id := uuid.NewString()
	if err := db.SaveMeta(MetaRunID, id); err != nil {
		return "", fmt.Errorf("save run id: %w", err)
	}
	if err := db.SaveMeta(MetaSeed, strconv.FormatInt(seed, 10)); err != nil {
		return "", fmt.Errorf("save seed: %w", err)
	}
	return id, nil
}

// Snapshot is the restorable state beyond the roster.
type Snapshot struct {
	Tick uint64
	Time clock.Time
	Seed int64
}

// LoadSnapshot reads the saved clock, tick and seed. ok is false when
// nothing has been saved yet.
func (db *DB) LoadSnapshot() (Snapshot, bool, error) {
	var snap Snapshot
	tick, ok, err := db.metaInt(MetaLastTick)
	if err != nil || !ok {
		return snap, false, err
	}
	snap.Tick = uint64(tick)
	day, _, err := db.metaInt(MetaClockDay)
	if err != nil {
		return snap, false, err
	}
	minute, _, err := db.metaInt(MetaClockMin)
	if err != nil {
		return snap, false, err
	}
	seed, _, err := db.metaInt(MetaSeed)
	if err != nil {
		return snap, false, err
	}
	snap.Time = clock.Time{Day: int(day), Minute: int(minute)}
	snap.Seed = seed
	return snap, true, nil
}

// SaveWorldState performs a full save of the roster, the clock and any
// events not stored yet.
func (db *DB) SaveWorldState(sim *engine.Simulation, now clock.Time) error {
	slog.Info("saving world state", "agents", len(sim.Agents), "tick", sim.CurrentTick())

	if err := db.SaveAgents(sim.Agents); err != nil {
		return fmt.Errorf("save agents: %w", err)
	}

	through, _, err := db.metaInt(metaEventsTick)
	if err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	var fresh []engine.Event
	for _, e := range sim.Events {
		if int64(e.Tick) > through {
			fresh = append(fresh, e)
		}
	}
	if err := db.SaveEvents(fresh); err != nil {
		return fmt.Errorf("save events: %w", err)
	}

	meta := []struct{ key, value string }{
		{MetaLastTick, strconv.FormatUint(sim.CurrentTick(), 10)},
		{metaEventsTick, strconv.FormatUint(sim.CurrentTick(), 10)},
		{MetaClockDay, strconv.Itoa(now.Day)},
		{MetaClockMin, strconv.Itoa(now.Minute)},
	}
	for _, m := range meta {
		if err := db.SaveMeta(m.key, m.value); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
	}

	slog.Info("world state saved", "events", len(fresh))
	return nil
}
