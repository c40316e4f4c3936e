package sim

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/decision"
	"github.com/pthm-cable/flock/world"
)

// stubOracle returns one canned decision for every request.
type stubOracle struct {
	dec components.Decision
	err error
}

func (o *stubOracle) RequestDecision(context.Context, decision.AgentContext) (components.Decision, error) {
	return o.dec, o.err
}

// quietCfg zeroes every steering weight so tests enable only what they
// assert on. Alignment always contributes when neighbors exist; tests
// account for that.
func quietCfg(t *testing.T, population, leaders int, aiEnabled bool) *config.Config {
	t.Helper()
	cfg := config.MustLoad("")
	cfg.Swarm.Population = population
	cfg.Swarm.Leaders = leaders
	cfg.Swarm.Cohesion = 0
	cfg.Swarm.Separation = 0
	cfg.Swarm.Alignment = 0
	cfg.Swarm.BoundaryForce = 0
	cfg.Swarm.ObstacleAvoidance = 0
	cfg.Swarm.LeaderInfluence = 0
	cfg.AI.Enabled = aiEnabled
	cfg.Recompute()
	return cfg
}

func newTestSim(t *testing.T, cfg *config.Config, oracle decision.Oracle) (*Sim, *world.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := world.NewStore(cfg, rand.New(rand.NewSource(1)))
	s := New(Options{
		Store:     store,
		Decisions: decision.NewService(oracle, 7, logger),
		Logger:    logger,
		Seed:      7,
	})
	return s, store
}

func placeAgents(t *testing.T, store *world.Store, positions ...components.Position) []world.Agent {
	t.Helper()
	agents := store.ReadAgents()
	if len(agents) != len(positions) {
		t.Fatalf("store has %d agents, test placed %d", len(agents), len(positions))
	}
	for i := range agents {
		agents[i].Pos = positions[i]
	}
	store.CommitAgents(agents)
	return store.ReadAgents()
}

func dist(a, b components.Position) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func TestStepBlendsOracleTarget(t *testing.T) {
	cfg := quietCfg(t, 1, 1, true)
	target := components.Position{X: 10, Y: 10}
	oracle := &stubOracle{dec: components.Decision{
		Action:    components.ActionExplore,
		Reasoning: "open space",
		Target:    &target,
		Priority:  6,
	}}
	s, store := newTestSim(t, cfg, oracle)
	placeAgents(t, store, components.Position{X: 400, Y: 300})

	before := store.ReadAgents()[0]
	s.Step(context.Background())
	after := store.ReadAgents()[0]

	// No flocking forces: displacement is half the target pull, one unit at
	// speed 2.
	moved := dist(before.Pos, after.Pos)
	if math.Abs(moved-1) > 1e-3 {
		t.Errorf("moved %.4f, want 1", moved)
	}
	if dist(after.Pos, target) >= dist(before.Pos, target) {
		t.Error("agent did not move toward the oracle target")
	}

	if after.LastDecision == nil || after.LastDecision.Action != components.ActionExplore {
		t.Errorf("last decision = %+v, want explore", after.LastDecision)
	}
	if len(after.Memory.Entries) != 1 || after.Memory.Entries[0].Kind != "decision" {
		t.Errorf("memory = %+v, want one decision entry", after.Memory.Entries)
	}
}

func TestStepBoundaryFallback(t *testing.T) {
	cfg := quietCfg(t, 1, 1, true)
	s, store := newTestSim(t, cfg, decision.Offline())
	placeAgents(t, store, components.Position{X: 400, Y: 10})

	s.Step(context.Background())
	after := store.ReadAgents()[0]

	dec := after.LastDecision
	if dec == nil || dec.Action != components.ActionAvoid || dec.Priority != 9 {
		t.Fatalf("last decision = %+v, want avoid p9 from boundary rule", dec)
	}
	if dec.Target == nil {
		t.Fatal("boundary avoid needs a target")
	}
	if math.Abs(float64(dec.Target.X-cfg.Derived.CenterX)) > 100 ||
		math.Abs(float64(dec.Target.Y-cfg.Derived.CenterY)) > 100 {
		t.Errorf("target = %+v, want within 100 of arena center", *dec.Target)
	}

	// Heading back toward the interior.
	if after.Pos.Y <= 10 {
		t.Errorf("agent Y = %v, want movement away from the edge", after.Pos.Y)
	}

	// The fallback is cached for the next cycle.
	if s.svc.Cache().Len() != 1 {
		t.Errorf("cache len = %d, want 1", s.svc.Cache().Len())
	}
}

func TestStepForcesOnly(t *testing.T) {
	cfg := quietCfg(t, 2, 0, false)
	cfg.Swarm.Cohesion = 100
	cfg.Recompute()

	s, store := newTestSim(t, cfg, decision.Offline())
	placeAgents(t, store,
		components.Position{X: 400, Y: 300},
		components.Position{X: 410, Y: 300},
	)

	s.Step(context.Background())
	after := store.ReadAgents()

	// Cohesion and alignment both pull each agent toward the other along X;
	// the normalized force is a unit vector, so each moves exactly speed.
	if math.Abs(float64(after[0].Pos.X)-402) > 1e-3 || after[0].Pos.Y != 300 {
		t.Errorf("agent 0 pos = %+v, want (402, 300)", after[0].Pos)
	}
	if math.Abs(float64(after[1].Pos.X)-408) > 1e-3 || after[1].Pos.Y != 300 {
		t.Errorf("agent 1 pos = %+v, want (408, 300)", after[1].Pos)
	}

	// Symmetric movement shows both integrated against the same tick-start
	// snapshot.
	if after[0].LastDecision != nil {
		t.Error("no decisions should be issued with AI disabled")
	}
}

func TestStepCollectsResourceOnce(t *testing.T) {
	cfg := quietCfg(t, 2, 0, false)
	cfg.Swarm.Speed = 0.1
	cfg.Recompute()

	s, store := newTestSim(t, cfg, decision.Offline())
	store.PlaceFeature(components.Feature{
		Kind:         components.FeatureResource,
		Pos:          components.Position{X: 100, Y: 100},
		Radius:       10,
		Effect:       components.EffectCollectible,
		ResourceType: "energy",
		Value:        5,
	})
	placeAgents(t, store,
		components.Position{X: 101, Y: 100},
		components.Position{X: 103, Y: 100},
	)

	s.Step(context.Background())
	after := store.ReadAgents()

	if after[0].Res.Energy != 105 {
		t.Errorf("first agent energy = %d, want 105", after[0].Res.Energy)
	}
	if after[1].Res.Energy != 100 {
		t.Errorf("second agent energy = %d, want 100 (resource already claimed)", after[1].Res.Energy)
	}
	if !store.ReadFeatures()[0].Collected {
		t.Error("feature not marked collected")
	}
	if len(after[0].Memory.Entries) == 0 || after[0].Memory.Entries[0].Kind != "collect" {
		t.Errorf("collector memory = %+v", after[0].Memory.Entries)
	}

	// A second step must not collect again.
	s.Step(context.Background())
	again := store.ReadAgents()
	if again[0].Res.Energy != 105 {
		t.Errorf("energy after second step = %d, want 105", again[0].Res.Energy)
	}
	if s.collector.Collected != 1 {
		t.Errorf("collected counter = %d, want 1", s.collector.Collected)
	}
}

func TestStepSharing(t *testing.T) {
	cfg := quietCfg(t, 2, 0, false)
	cfg.Swarm.Sharing = true
	cfg.Recompute()

	s, store := newTestSim(t, cfg, decision.Offline())
	agents := placeAgents(t, store,
		components.Position{X: 400, Y: 300},
		components.Position{X: 405, Y: 300},
	)
	agents[0].Res.Energy = 150
	store.CommitAgents(agents)

	s.Step(context.Background())
	after := store.ReadAgents()

	if after[0].Res.Energy != 149 || after[1].Res.Energy != 101 {
		t.Errorf("energy = %d/%d, want 149/101", after[0].Res.Energy, after[1].Res.Energy)
	}
	if s.collector.Shared != 1 {
		t.Errorf("shared counter = %d, want 1", s.collector.Shared)
	}
}

func TestStepKeepsAgentsInArena(t *testing.T) {
	cfg := config.MustLoad("")
	cfg.Swarm.Population = 20
	cfg.Swarm.Leaders = 2
	cfg.AI.Enabled = false
	cfg.Recompute()

	s, store := newTestSim(t, cfg, decision.Offline())
	for i := 0; i < 10; i++ {
		s.Step(context.Background())
	}

	for i, a := range store.ReadAgents() {
		if a.Pos.X < 0 || a.Pos.X > cfg.Derived.W32 || a.Pos.Y < 0 || a.Pos.Y > cfg.Derived.H32 {
			t.Errorf("agent %d escaped the arena: %+v", i, a.Pos)
		}
	}
	if s.Tick() != 10 {
		t.Errorf("tick = %d, want 10", s.Tick())
	}
}

func TestStepAITickGate(t *testing.T) {
	cfg := quietCfg(t, 1, 1, true)
	s, store := newTestSim(t, cfg, decision.Offline())
	placeAgents(t, store, components.Position{X: 400, Y: 300})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	s.now = func() time.Time { return clock }

	s.Step(context.Background())
	if s.collector.AITicks != 1 {
		t.Fatalf("ai ticks = %d, want 1 after first step", s.collector.AITicks)
	}

	// Within the decision interval: no sampling.
	clock = base.Add(time.Second)
	s.Step(context.Background())
	if s.collector.AITicks != 1 {
		t.Errorf("ai ticks = %d, sampling fired inside the interval", s.collector.AITicks)
	}

	// Past the interval: sampling fires again.
	clock = base.Add(6 * time.Second)
	s.Step(context.Background())
	if s.collector.AITicks != 2 {
		t.Errorf("ai ticks = %d, want 2 after the interval elapsed", s.collector.AITicks)
	}
}

func TestPhaseLifecycle(t *testing.T) {
	cfg := quietCfg(t, 1, 0, false)
	s, _ := newTestSim(t, cfg, decision.Offline())

	if s.Phase() != PhaseIdle {
		t.Errorf("initial phase = %s, want idle", s.Phase())
	}
	s.Step(context.Background())
	if s.Phase() != PhaseIdle {
		t.Errorf("post-step phase = %s, want idle", s.Phase())
	}

	names := map[Phase]string{
		PhaseIdle:              "idle",
		PhaseSamplingAI:        "sampling_ai",
		PhaseAwaitingDecisions: "awaiting_decisions",
		PhaseIntegrating:       "integrating",
		PhaseCommitted:         "committed",
	}
	for p, want := range names {
		if p.String() != want {
			t.Errorf("phase %d string = %q, want %q", p, p.String(), want)
		}
	}
}
