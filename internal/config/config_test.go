package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/townfolk/internal/engine"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestLoadFromReader(t *testing.T) {
	const doc = `
seed: 7
log_level: debug
town:
  blocks_x: 2
  blocks_y: 2
  shops: 1
clock:
  start_minute: 480
  minutes_per_tick: 5
  tick_interval: 250ms
schedule:
  grace:
    before: 15
    after: 45
throughput:
  mode: modulo
  divisor: 4
  cap: 10
stall:
  max_nudges: 1
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 2, cfg.Town.BlocksX)
	assert.Equal(t, 12, cfg.Town.BlockW, "unset fields keep their defaults")
	assert.Equal(t, 250*time.Millisecond, cfg.Clock.TickInterval)
	assert.Equal(t, 15, cfg.Schedule.Grace.Before)
	assert.Equal(t, 45, cfg.Schedule.Grace.After)

	ec := cfg.Engine()
	assert.Equal(t, engine.ModeModulo, ec.Throughput.Mode)
	assert.Equal(t, 4, ec.Throughput.Divisor)
	assert.Equal(t, 1, ec.MaxNudges)
	assert.Equal(t, cfg.Pathing.NodeBudget, ec.NodeBudget)

	assert.Equal(t, int64(7), cfg.TownConfig().Seed)
}

func TestLoadFromReaderEmpty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("seed: 1\nsnow: heavy\n"))
	assert.ErrorContains(t, err, "snow")
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "chatty"
	cfg.Clock.MinutesPerTick = 0
	cfg.Schedule.PetJiggleChance = 1.5
	cfg.Throughput = engine.Throughput{Mode: "burst"}
	cfg.Stall.MaxNudges = -1

	err := Validate(cfg)
	require.Error(t, err)

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 5)

	msg := err.Error()
	for _, want := range []string{"log_level", "minutes_per_tick", "pet_jiggle_chance", "throughput", "max_nudges"} {
		assert.Contains(t, msg, want)
	}
}

func TestValidateTownBounds(t *testing.T) {
	cfg := Default()
	cfg.Town.BlocksX = 0
	cfg.Town.BlockH = 4
	cfg.Town.TreeLevel = 2
	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "blocks_x")
	assert.ErrorContains(t, err, "block_h")
	assert.ErrorContains(t, err, "tree_level")
}

func TestLoadAppliesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "townfolk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 3\nlog_level: warn\n"), 0o644))

	t.Setenv("TOWNFOLK_SEED", "99")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("TOWNFOLK_DB", "/tmp/town.db")
	t.Setenv("TOWNFOLK_API_ADDR", ":8080")
	t.Setenv("TOWNFOLK_ADMIN_KEY", "k")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "/tmp/town.db", cfg.Persistence.Path)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, "k", cfg.API.AdminKey)
}

func TestLoadBadSeed(t *testing.T) {
	t.Setenv("TOWNFOLK_SEED", "many")
	_, err := Load("")
	assert.ErrorContains(t, err, "TOWNFOLK_SEED")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := parseLogLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
