// Package sim drives the simulation: one Step reads a consistent world
// snapshot, gathers AI decisions for the sampled agents, integrates every
// agent's position against that same snapshot, and commits the next state.
package sim

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/flock/decision"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/world"
)

// Phase is the orchestrator's position in the tick state machine.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseSamplingAI
	PhaseAwaitingDecisions
	PhaseIntegrating
	PhaseCommitted
)

// String returns a log-friendly phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSamplingAI:
		return "sampling_ai"
	case PhaseAwaitingDecisions:
		return "awaiting_decisions"
	case PhaseIntegrating:
		return "integrating"
	case PhaseCommitted:
		return "committed"
	default:
		return "idle"
	}
}

// followerSampleRate is each follower's independent per-tick chance of
// consulting the oracle on an AI tick. Leaders are always sampled.
const followerSampleRate = 0.20

// gridCellSize is the spatial grid cell size in arena units.
const gridCellSize = 64.0

// Options configures a Sim.
type Options struct {
	Store     *world.Store
	Decisions *decision.Service
	Collector *telemetry.Collector
	Output    *telemetry.OutputManager
	Logger    *slog.Logger
	Seed      int64
}

// Sim is the tick orchestrator. It owns the decision service and the
// sampling rng; a single goroutine calls Step in a loop.
type Sim struct {
	store     *world.Store
	svc       *decision.Service
	collector *telemetry.Collector
	output    *telemetry.OutputManager
	log       *slog.Logger

	rng *rand.Rand
	now func() time.Time

	grid         *systems.SpatialGrid
	gridW, gridH float32
	scratch      []systems.Neighbor

	tick       int64
	lastAITime time.Time
	phase      Phase
}

// New creates a Sim.
func New(opts Options) *Sim {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	collector := opts.Collector
	if collector == nil {
		collector = telemetry.NewCollector(opts.Store.ReadConfig().Telemetry.WindowTicks)
	}
	return &Sim{
		store:     opts.Store,
		svc:       opts.Decisions,
		collector: collector,
		output:    opts.Output,
		log:       log,
		rng:       rand.New(rand.NewSource(opts.Seed)),
		now:       time.Now,
		scratch:   make([]systems.Neighbor, 0, 64),
	}
}

// Tick returns the number of completed ticks.
func (s *Sim) Tick() int64 {
	return s.tick
}

// Phase returns the current orchestrator phase.
func (s *Sim) Phase() Phase {
	return s.phase
}

// ensureGrid rebuilds the spatial grid when the arena changes size.
func (s *Sim) ensureGrid(w, h float32) {
	if s.grid == nil || s.gridW != w || s.gridH != h {
		s.grid = systems.NewSpatialGrid(w, h, gridCellSize)
		s.gridW, s.gridH = w, h
	}
}
