// Package observe provides OpenTelemetry metric instruments for the
// simulation: tick throughput, movement outcomes, pathfinding effort and
// stall handling.
//
// Instruments are created from a [metric.MeterProvider]. Production code uses
// the global provider via [DefaultMetrics]; tests should use [NewMetrics]
// with an SDK provider backed by a manual reader.
package observe

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all townfolk metrics.
const meterName = "github.com/talgya/townfolk"

// Metrics holds all metric instruments for the engine.
type Metrics struct {
	// Ticks counts completed simulation ticks.
	Ticks metric.Int64Counter

	// AgentsProcessed counts agents visited by the orchestrator.
	AgentsProcessed metric.Int64Counter

	// AgentsMoved records how many agents changed tile in each tick.
	AgentsMoved metric.Int64Histogram

	// TickDuration tracks wall-clock time spent in one tick.
	TickDuration metric.Float64Histogram

	// Stalls counts ticks in which agents wanted to move and none did.
	Stalls metric.Int64Counter

	// Nudges counts stall-guard nudges that moved an agent.
	Nudges metric.Int64Counter

	// PathSearches counts full pathfinder searches.
	PathSearches metric.Int64Counter

	// PathExhausted counts searches abandoned at the node budget.
	PathExhausted metric.Int64Counter

	// PlanReuses counts steps taken from a cached plan.
	PlanReuses metric.Int64Counter

	// GreedySteps counts steps taken by the greedy fallback.
	GreedySteps metric.Int64Counter

	// Sleeping tracks the number of agents asleep after each tick.
	Sleeping metric.Int64Gauge
}

// tickBuckets defines histogram bucket boundaries (in seconds) for tick
// processing time.
var tickBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Ticks, err = m.Int64Counter("townfolk.ticks",
		metric.WithDescription("Completed simulation ticks."),
	); err != nil {
		return nil, err
	}
	if met.AgentsProcessed, err = m.Int64Counter("townfolk.agents.processed",
		metric.WithDescription("Agents visited by the turn orchestrator."),
	); err != nil {
		return nil, err
	}
	if met.AgentsMoved, err = m.Int64Histogram("townfolk.agents.moved",
		metric.WithDescription("Agents that changed tile per tick."),
	); err != nil {
		return nil, err
	}
	if met.TickDuration, err = m.Float64Histogram("townfolk.tick.duration",
		metric.WithDescription("Wall-clock time spent advancing one tick."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(tickBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Stalls, err = m.Int64Counter("townfolk.stalls",
		metric.WithDescription("Ticks in which no agent that wanted to move could."),
	); err != nil {
		return nil, err
	}
	if met.Nudges, err = m.Int64Counter("townfolk.nudges",
		metric.WithDescription("Stall-guard nudges that moved an agent."),
	); err != nil {
		return nil, err
	}
	if met.PathSearches, err = m.Int64Counter("townfolk.path.searches",
		metric.WithDescription("Full pathfinder searches."),
	); err != nil {
		return nil, err
	}
	if met.PathExhausted, err = m.Int64Counter("townfolk.path.exhausted",
		metric.WithDescription("Searches abandoned at the node budget."),
	); err != nil {
		return nil, err
	}
	if met.PlanReuses, err = m.Int64Counter("townfolk.plan.reuses",
		metric.WithDescription("Steps taken from a cached plan."),
	); err != nil {
		return nil, err
	}
	if met.GreedySteps, err = m.Int64Counter("townfolk.path.greedy",
		metric.WithDescription("Steps taken by the greedy fallback."),
	); err != nil {
		return nil, err
	}
	if met.Sleeping, err = m.Int64Gauge("townfolk.agents.sleeping",
		metric.WithDescription("Agents asleep after the latest tick."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}
