// Package api provides the HTTP API for observing the settlement.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/townfolk/internal/agents"
	"github.com/talgya/townfolk/internal/engine"
	"github.com/talgya/townfolk/internal/world"
)

// opTimeout bounds how long an admin request waits for the simulation
// goroutine to pick it up.
const opTimeout = 5 * time.Second

// errPaused is returned when a queued operation is not picked up in time.
var errPaused = errors.New("simulation is paused or busy")

// AgentView is the public shape of an agent.
type AgentView struct {
	ID           agents.AgentID   `json:"id"`
	Name         string           `json:"name"`
	Role         string           `json:"role"`
	State        string           `json:"state"`
	X            int              `json:"x"`
	Y            int              `json:"y"`
	HomeBuilding world.BuildingID `json:"home_building,omitempty"`
	Shop         world.ShopID     `json:"shop,omitempty"`
}

func viewOf(a *agents.Agent) AgentView {
	v := AgentView{
		ID:    a.ID,
		Name:  a.Name,
		Role:  a.Role.String(),
		State: a.State.String(),
		X:     a.Pos.X,
		Y:     a.Pos.Y,
	}
	if a.Home != nil && a.Home.Building != nil {
		v.HomeBuilding = a.Home.Building.ID
	}
	if a.Work != nil && a.Work.Shop != nil {
		v.Shop = a.Work.Shop.ID
	}
	return v
}

// Status summarises the latest tick.
type Status struct {
	Town       string            `json:"town"`
	Tick       uint64            `json:"tick"`
	Time       string            `json:"time"`
	Phase      string            `json:"phase"`
	Agents     int               `json:"agents"`
	LastReport engine.TickReport `json:"last_report"`
	Steps      uint64            `json:"steps"`
	Searches   uint64            `json:"searches"`
	Greedy     uint64            `json:"greedy"`
}

type op struct {
	fn   func(*engine.Simulation) (any, error)
	done chan opResult
}

type opResult struct {
	value any
	err   error
}

// Server serves a snapshot of the settlement over HTTP. The snapshot is
// refreshed by Sync on the simulation goroutine, so handlers never touch
// live simulation state.
type Server struct {
	Town     *world.Settlement // Read-only once the simulation starts
	Eng      *engine.Engine
	Addr     string
	AdminKey string       // Bearer token for POST endpoints. Empty = POST disabled.
	Save     func() error // Snapshot hook; nil when persistence is off

	mu     sync.RWMutex
	status Status
	agents []AgentView
	events []engine.Event

	ops chan op
}

// New creates a server for town driven by eng.
func New(town *world.Settlement, eng *engine.Engine, addr, adminKey string) *Server {
	return &Server{
		Town:     town,
		Eng:      eng,
		Addr:     addr,
		AdminKey: adminKey,
		ops:      make(chan op, 16),
	}
}

// Sync runs queued admin operations against sim, then publishes a fresh
// snapshot. Call it from the goroutine that advances sim.
func (s *Server) Sync(sim *engine.Simulation) {
	for {
		select {
		case o := <-s.ops:
			v, err := o.fn(sim)
			o.done <- opResult{value: v, err: err}
		default:
			s.publish(sim)
			return
		}
	}
}

func (s *Server) publish(sim *engine.Simulation) {
	views := make([]AgentView, len(sim.Agents))
	for i, a := range sim.Agents {
		views[i] = viewOf(a)
	}
	events := append([]engine.Event(nil), sim.Events...)
	r := sim.LastReport
	ms, ps := sim.MovementStats(), sim.PathStats()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = views
	s.events = events
	s.status = Status{
		Town:       sim.Town.Name,
		Tick:       sim.CurrentTick(),
		Time:       r.Time.String(),
		Phase:      r.Time.Phase().String(),
		Agents:     len(views),
		LastReport: r,
		Steps:      ms.Steps,
		Searches:   ps.Searches,
		Greedy:     ms.Greedy,
	}
}

// exec queues fn for the simulation goroutine and waits for its result.
func (s *Server) exec(ctx context.Context, fn func(*engine.Simulation) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	o := op{fn: fn, done: make(chan opResult, 1)}
	select {
	case s.ops <- o:
	case <-ctx.Done():
		return nil, errPaused
	}
	select {
	case res := <-o.done:
		return res.value, res.err
	case <-ctx.Done():
		return nil, errPaused
	}
}

// Handler returns the API routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	mapLimiter := NewRateLimiter(30, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/agents", s.handleAgents)
	mux.HandleFunc("GET /api/v1/agent/{id}", s.handleAgent)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/map", RateLimitMiddleware(mapLimiter, s.handleMap))
	mux.HandleFunc("GET /api/v1/speed", s.handleSpeed)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("POST /api/v1/spawn", s.adminOnly(s.handleSpawn))

	return corsMiddleware(mux)
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no TOWNFOLK_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token != s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()

	writeJSON(w, map[string]any{
		"status": st,
		"speed":  s.Eng.Speed(),
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	role := r.URL.Query().Get("role")

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]AgentView, 0, len(s.agents))
	for _, v := range s.agents {
		if state != "" && v.State != state {
			continue
		}
		if role != "" && v.Role != role {
			continue
		}
		result = append(result, v)
	}
	writeJSON(w, result)
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.agents {
		if v.ID == agents.AgentID(id) {
			writeJSON(w, v)
			return
		}
	}
	http.Error(w, "agent not found", http.StatusNotFound)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	category := r.URL.Query().Get("category")

	s.mu.RLock()
	events := s.events
	s.mu.RUnlock()

	if category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := max(len(events)-limit, 0)
	writeJSON(w, append([]engine.Event{}, events[start:]...))
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.Town.Map.Render()))
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.Save == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	v, err := s.exec(r.Context(), func(sim *engine.Simulation) (any, error) {
		return sim.CurrentTick(), s.Save()
	})
	switch {
	case errors.Is(err, errPaused):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":    v,
		"message": "snapshot saved",
	})
}

// handleSpawn adds a visitor to the settlement. The newcomer is assigned a
// home and work on its first turn.
func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
		X    int    `json:"x"`
		Y    int    `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	pos := world.C(req.X, req.Y)
	if !s.Town.Walkable(pos) {
		http.Error(w, "spawn tile is not walkable", http.StatusBadRequest)
		return
	}
	role := agents.ParseRole(req.Role)

	v, err := s.exec(r.Context(), func(sim *engine.Simulation) (any, error) {
		a := sim.Spawn(role, pos)
		slog.Info("agent spawned", "agent", a.ID, "name", a.Name, "role", role.String(), "pos", pos.String())
		return viewOf(a), nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, http.StatusCreated, v)
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("write response", "error", err)
	}
}
