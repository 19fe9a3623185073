// Package config loads simulation settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/townfolk/internal/agents"
	"github.com/talgya/townfolk/internal/clock"
	"github.com/talgya/townfolk/internal/engine"
	"github.com/talgya/townfolk/internal/pathing"
	"github.com/talgya/townfolk/internal/world"
)

// Config is the complete simulation configuration.
type Config struct {
	Seed        int64                   `yaml:"seed"` // 0 picks a random seed
	Environment string                  `yaml:"environment"`
	LogLevel    string                  `yaml:"log_level"`
	Town        world.GenConfig         `yaml:"town"`
	Population  agents.PopulationConfig `yaml:"population"`
	Clock       ClockConfig             `yaml:"clock"`
	Schedule    agents.ScheduleConfig   `yaml:"schedule"`
	Pathing     PathingConfig           `yaml:"pathing"`
	Throughput  engine.Throughput       `yaml:"throughput"`
	Stall       StallConfig             `yaml:"stall"`
	Persistence PersistenceConfig       `yaml:"persistence"`
	Replay      ReplayConfig            `yaml:"replay"`
	API         APIConfig               `yaml:"api"`
}

// ClockConfig sets where the day starts and how fast it runs.
type ClockConfig struct {
	StartMinute    int           `yaml:"start_minute"`
	MinutesPerTick int           `yaml:"minutes_per_tick"`
	TickInterval   time.Duration `yaml:"tick_interval"` // Real-time pacing
}

// PathingConfig bounds pathfinder effort.
type PathingConfig struct {
	NodeBudget int `yaml:"node_budget"`
	DoorBias   int `yaml:"door_bias"`
}

// StallConfig tunes the stall guard.
type StallConfig struct {
	MaxNudges int `yaml:"max_nudges"`
}

// PersistenceConfig locates the SQLite store. An empty path disables it.
type PersistenceConfig struct {
	Path      string `yaml:"path"`
	SaveEvery int    `yaml:"save_every"` // Ticks between saves; 0 saves only on exit
}

// ReplayConfig locates the trajectory recording. An empty path disables it.
type ReplayConfig struct {
	Path string `yaml:"path"`
}

// APIConfig controls the HTTP observation API. An empty address disables it.
type APIConfig struct {
	Addr     string `yaml:"addr"`
	AdminKey string `yaml:"-"` // From TOWNFOLK_ADMIN_KEY only
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Town:        world.DefaultGenConfig(),
		Population:  agents.DefaultPopulationConfig(),
		Clock: ClockConfig{
			StartMinute:    clock.MorningStart,
			MinutesPerTick: 1,
			TickInterval:   time.Second,
		},
		Schedule: agents.DefaultScheduleConfig(),
		Pathing: PathingConfig{
			NodeBudget: pathing.DefaultBudget,
			DoorBias:   pathing.DefaultDoorBias,
		},
		Throughput: engine.DefaultThroughput(),
		Stall:      StallConfig{MaxNudges: 3},
	}
}

// Load reads the YAML configuration file at path over the defaults, applies
// environment overrides and validates the result. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()
		if err := decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults and
// validates the result. Environment overrides are not applied.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from TOWNFOLK_SEED, LOG_LEVEL, ENVIRONMENT,
// TOWNFOLK_DB, TOWNFOLK_API_ADDR and TOWNFOLK_ADMIN_KEY when they are set.
func (c *Config) ApplyEnv() error {
	if v := getEnv("TOWNFOLK_SEED", ""); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: TOWNFOLK_SEED %q: %w", v, err)
		}
		c.Seed = seed
	}
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.Persistence.Path = getEnv("TOWNFOLK_DB", c.Persistence.Path)
	c.API.Addr = getEnv("TOWNFOLK_API_ADDR", c.API.Addr)
	c.API.AdminKey = getEnv("TOWNFOLK_ADMIN_KEY", c.API.AdminKey)
	return nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if _, ok := parseLogLevel(cfg.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	t := cfg.Town
	if t.BlocksX < 1 || t.BlocksY < 1 {
		errs = append(errs, fmt.Errorf("town.blocks_x and town.blocks_y must be at least 1, got %dx%d", t.BlocksX, t.BlocksY))
	}
	if t.BlockW < 8 || t.BlockH < 8 {
		errs = append(errs, fmt.Errorf("town.block_w and town.block_h must be at least 8, got %dx%d", t.BlockW, t.BlockH))
	}
	if t.Shops < 0 {
		errs = append(errs, fmt.Errorf("town.shops must not be negative, got %d", t.Shops))
	}
	if t.TreeLevel < 0 || t.TreeLevel > 1 {
		errs = append(errs, fmt.Errorf("town.tree_level %.2f is out of range [0, 1]", t.TreeLevel))
	}

	p := cfg.Population
	if p.MaxResidentsPerHouse < 1 {
		errs = append(errs, fmt.Errorf("population.max_residents_per_house must be at least 1, got %d", p.MaxResidentsPerHouse))
	}
	if p.Pets < 0 || p.Generic < 0 {
		errs = append(errs, fmt.Errorf("population.pets and population.generic must not be negative"))
	}

	if cfg.Clock.StartMinute < 0 || cfg.Clock.StartMinute >= clock.MinutesPerDay {
		errs = append(errs, fmt.Errorf("clock.start_minute %d is out of range [0, %d)", cfg.Clock.StartMinute, clock.MinutesPerDay))
	}
	if cfg.Clock.MinutesPerTick < 1 {
		errs = append(errs, fmt.Errorf("clock.minutes_per_tick must be at least 1, got %d", cfg.Clock.MinutesPerTick))
	}
	if cfg.Clock.TickInterval < 0 {
		errs = append(errs, fmt.Errorf("clock.tick_interval must not be negative, got %s", cfg.Clock.TickInterval))
	}

	s := cfg.Schedule
	if s.Grace.Before < 0 || s.Grace.After < 0 {
		errs = append(errs, fmt.Errorf("schedule.grace values must not be negative"))
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"home_today_chance", s.HomeTodayChance},
		{"pet_jiggle_chance", s.PetJiggleChance},
		{"errand_chance", s.ErrandChance},
	} {
		if p.v < 0 || p.v > 1 {
			errs = append(errs, fmt.Errorf("schedule.%s %.2f is out of range [0, 1]", p.name, p.v))
		}
	}
	if s.IdleRadius < 0 {
		errs = append(errs, fmt.Errorf("schedule.idle_radius must not be negative, got %d", s.IdleRadius))
	}

	if cfg.Pathing.NodeBudget < 1 {
		errs = append(errs, fmt.Errorf("pathing.node_budget must be at least 1, got %d", cfg.Pathing.NodeBudget))
	}
	if cfg.Pathing.DoorBias < 0 {
		errs = append(errs, fmt.Errorf("pathing.door_bias must not be negative, got %d", cfg.Pathing.DoorBias))
	}
	if err := cfg.Throughput.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("throughput: %w", err))
	}
	if cfg.Stall.MaxNudges < 0 {
		errs = append(errs, fmt.Errorf("stall.max_nudges must not be negative, got %d", cfg.Stall.MaxNudges))
	}
	if cfg.Persistence.SaveEvery < 0 {
		errs = append(errs, fmt.Errorf("persistence.save_every must not be negative, got %d", cfg.Persistence.SaveEvery))
	}

	return errors.Join(errs...)
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	l, _ := parseLogLevel(c.LogLevel)
	return l
}

// Engine returns the orchestrator settings.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		Schedule:   c.Schedule,
		Throughput: c.Throughput,
		NodeBudget: c.Pathing.NodeBudget,
		DoorBias:   c.Pathing.DoorBias,
		MaxNudges:  c.Stall.MaxNudges,
	}
}

// TownConfig returns generation settings carrying the configured seed.
func (c *Config) TownConfig() world.GenConfig {
	g := c.Town
	g.Seed = c.Seed
	return g
}

func parseLogLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
