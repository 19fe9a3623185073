package engine

import (
	"fmt"
	"strings"
)

// Mode selects which agents the orchestrator processes on a tick.
type Mode string

const (
	ModeAll    Mode = "all"    // Every agent, every tick
	ModeModulo Mode = "modulo" // Agents whose index matches the tick modulo Divisor
	ModeRandom Mode = "random" // A random sample of at most Cap agents
)

// Throughput limits per-tick work on large populations.
type Throughput struct {
	Mode    Mode `yaml:"mode"`
	Divisor int  `yaml:"divisor"` // Modulo group count
	Cap     int  `yaml:"cap"`     // Upper bound on agents per tick; 0 means none
}

// DefaultThroughput processes everyone every tick.
func DefaultThroughput() Throughput {
	return Throughput{Mode: ModeAll, Divisor: 2}
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAll, ModeModulo, ModeRandom:
		return m, nil
	case "":
		return ModeAll, nil
	default:
		return "", fmt.Errorf("unknown throughput mode %q", s)
	}
}

// Validate reports configuration the orchestrator cannot honour.
func (t Throughput) Validate() error {
	if _, err := ParseMode(string(t.Mode)); err != nil {
		return err
	}
	if t.Mode == ModeModulo && t.Divisor < 1 {
		return fmt.Errorf("throughput divisor must be at least 1, got %d", t.Divisor)
	}
	if t.Mode == ModeRandom && t.Cap < 1 {
		return fmt.Errorf("throughput cap must be at least 1 in random mode, got %d", t.Cap)
	}
	if t.Cap < 0 {
		return fmt.Errorf("throughput cap must not be negative, got %d", t.Cap)
	}
	return nil
}

// Select filters order, a shuffled permutation of agent indices, down to
// the agents processed on tick. The result keeps order's visiting order.
//
// Modulo mode keys on the agent's stable index so every agent gets a turn
// once per Divisor ticks. Random mode relies on order already being a
// uniform shuffle: its prefix is a uniform sample.
func (t Throughput) Select(order []int, tick uint64) []int {
	var out []int
	switch t.Mode {
	case ModeModulo:
		d := max(t.Divisor, 1)
		slot := int(tick % uint64(d))
		out = make([]int, 0, len(order)/d+1)
		for _, i := range order {
			if i%d == slot {
				out = append(out, i)
			}
		}
	default:
		out = order
	}
	if t.Cap > 0 && (t.Mode == ModeModulo || t.Mode == ModeRandom) && len(out) > t.Cap {
		out = out[:t.Cap]
	}
	return out
}
