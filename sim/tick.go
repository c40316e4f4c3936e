package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/decision"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/world"
)

// Step runs one simulation tick: Idle -> SamplingAI -> AwaitingDecisions
// -> Integrating -> Committed -> Idle. Decision gathering never aborts
// integration; every agent advances every tick.
func (s *Sim) Step(ctx context.Context) {
	agents := s.store.ReadAgents()
	cfg := s.store.ReadConfig()
	features := s.store.ReadFeatures()

	if len(agents) == 0 {
		s.tick++
		return
	}

	// SamplingAI: wall-clock gate, independent of tick rate.
	s.phase = PhaseSamplingAI
	interval := time.Duration(cfg.AI.DecisionIntervalMS) * time.Millisecond
	aiTick := cfg.AI.Enabled && s.now().Sub(s.lastAITime) >= interval

	var eligible []int
	if aiTick {
		for i := range agents {
			if agents[i].Meta.Role == components.RoleLeader {
				eligible = append(eligible, i)
			} else if s.rng.Float64() < followerSampleRate {
				eligible = append(eligible, i)
			}
		}
	}

	// AwaitingDecisions: fire all requests, wait for all to settle.
	decisions := make([]*components.Decision, len(agents))
	if len(eligible) > 0 {
		s.phase = PhaseAwaitingDecisions
		s.gatherDecisions(ctx, agents, features, cfg, eligible, decisions)
		s.lastAITime = s.now()
		s.collector.RecordAITick()
	}

	// Integrating: every agent steers against the tick-start snapshot.
	s.phase = PhaseIntegrating
	w, h := cfg.Derived.W32, cfg.Derived.H32
	s.ensureGrid(w, h)
	s.grid.Clear()
	for i := range agents {
		s.grid.Insert(i, agents[i].Pos.X, agents[i].Pos.Y)
	}

	next := make([]world.Agent, len(agents))
	copy(next, agents)

	commRange := float32(cfg.Swarm.CommunicationRange)
	speed := float32(cfg.Swarm.Speed)
	for i := range agents {
		s.scratch = s.grid.QueryRadiusInto(s.scratch[:0], agents[i].Pos.X, agents[i].Pos.Y, commRange, i)
		force := systems.Steering(i, agents, s.scratch, features, cfg)
		disp := systems.Blend(force, decisions[i], agents[i].Pos, speed)

		next[i].Pos = systems.ClampToArena(components.Position{
			X: agents[i].Pos.X + disp.X,
			Y: agents[i].Pos.Y + disp.Y,
		}, w, h)
		next[i].Vel = components.Velocity{X: disp.X, Y: disp.Y}

		if dec := decisions[i]; dec != nil {
			next[i].LastDecision = dec
			next[i].Memory.Push(components.Interaction{
				Tick:    s.tick,
				Kind:    "decision",
				Details: fmt.Sprintf("%s (prio %d): %s", dec.Action, dec.Priority, dec.Reasoning),
			}, cfg.Swarm.MemoryDepth)
		}
	}

	// Committed: resource pickup, optional sharing, atomic publish.
	s.phase = PhaseCommitted
	s.applyCollections(next, features, cfg)
	if cfg.Swarm.Sharing {
		s.applySharing(next, cfg)
	}
	s.store.CommitAgents(next)
	s.tick++

	s.flushTelemetry(next, features, cfg)
	s.phase = PhaseIdle
}

// gatherDecisions rebuilds sensors for the eligible agents and issues all
// decision requests concurrently. Each request settles on its own: the
// service maps failures to fallbacks internally, so one bad request never
// blocks or fails the rest.
func (s *Sim) gatherDecisions(
	ctx context.Context,
	agents []world.Agent,
	features []components.Feature,
	cfg *config.Config,
	eligible []int,
	decisions []*components.Decision,
) {
	for _, i := range eligible {
		agents[i].Sensors = systems.BuildSensors(i, agents, features, cfg)
	}

	sources := make([]decision.Source, len(agents))
	var wg sync.WaitGroup
	for _, i := range eligible {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dec, src := s.svc.GetDecision(ctx, s.buildContext(i, agents, cfg), cfg)
			decisions[i] = &dec
			sources[i] = src
		}(i)
	}
	wg.Wait()

	for _, i := range eligible {
		switch sources[i] {
		case decision.SourceCached:
			s.collector.RecordCacheHit()
		case decision.SourceOracle:
			s.collector.RecordOracleCall()
		case decision.SourceFallback:
			s.collector.RecordFallback()
		case decision.SourceDegraded:
			s.collector.RecordDegraded()
		}
	}
}

// buildContext assembles the oracle view of one agent from the tick-start
// snapshot.
func (s *Sim) buildContext(i int, agents []world.Agent, cfg *config.Config) decision.AgentContext {
	a := &agents[i]
	commRange := float32(cfg.Swarm.CommunicationRange)

	var neighbors []decision.NeighborSummary
	for j := range agents {
		if j == i {
			continue
		}
		d := systems.Vec2{
			X: agents[j].Pos.X - a.Pos.X,
			Y: agents[j].Pos.Y - a.Pos.Y,
		}.Len()
		if d > commRange {
			continue
		}
		neighbors = append(neighbors, decision.NeighborSummary{
			ID:       agents[j].Meta.ID,
			Role:     agents[j].Meta.Role,
			Pos:      agents[j].Pos,
			Distance: d,
		})
	}

	return decision.AgentContext{
		ID:        a.Meta.ID,
		Role:      a.Meta.Role,
		Pos:       a.Pos,
		Res:       a.Res,
		Sensors:   a.Sensors,
		Neighbors: neighbors,
		Memory:    a.Memory.Recent(5),
		Goal: decision.GoalContext{
			GoalOrientation:   cfg.Swarm.GoalOrientation,
			ExplorationWeight: cfg.Swarm.ExplorationWeight,
			ResourcePriority:  cfg.Swarm.ResourcePriority,
			Sharing:           cfg.Swarm.Sharing,
		},
	}
}

// applyCollections awards uncollected resource features to the first
// intersecting agent, in deterministic snapshot order. The store's
// MarkCollected performs the single false->true transition.
func (s *Sim) applyCollections(next []world.Agent, features []components.Feature, cfg *config.Config) {
	for fi := range features {
		f := &features[fi]
		if f.Kind != components.FeatureResource || f.Collected {
			continue
		}
		for i := range next {
			d := systems.Vec2{
				X: f.Pos.X - next[i].Pos.X,
				Y: f.Pos.Y - next[i].Pos.Y,
			}.Len()
			if d > f.Radius {
				continue
			}
			if !s.store.MarkCollected(f.ID) {
				break
			}
			next[i].Res.Add(f.ResourceType, f.Value)
			next[i].Memory.Push(components.Interaction{
				Tick:    s.tick,
				Kind:    "collect",
				Details: fmt.Sprintf("collected %s (+%d)", f.ResourceType, f.Value),
			}, cfg.Swarm.MemoryDepth)
			s.collector.RecordCollected()
			break
		}
	}
}

// sharingSurplus is the energy lead an agent needs before donating.
const sharingSurplus = 10

// applySharing lets each agent donate one energy unit to the poorest
// neighbor within communication range. Neighborhoods come from the
// tick-start grid.
func (s *Sim) applySharing(next []world.Agent, cfg *config.Config) {
	commRange := float32(cfg.Swarm.CommunicationRange)
	for i := range next {
		s.scratch = s.grid.QueryRadiusInto(s.scratch[:0], next[i].Pos.X, next[i].Pos.Y, commRange, i)

		poorest := -1
		for _, n := range s.scratch {
			if poorest == -1 || next[n.Index].Res.Energy < next[poorest].Res.Energy {
				poorest = n.Index
			}
		}
		if poorest == -1 || next[i].Res.Energy < next[poorest].Res.Energy+sharingSurplus {
			continue
		}

		next[i].Res.Add("energy", -1)
		next[poorest].Res.Add("energy", 1)
		next[i].Memory.Push(components.Interaction{
			Tick:    s.tick,
			Kind:    "share",
			Details: fmt.Sprintf("shared energy with %s", next[poorest].Meta.ID),
		}, cfg.Swarm.MemoryDepth)
		s.collector.RecordShared()
	}
}

// flushTelemetry emits a stats window when due.
func (s *Sim) flushTelemetry(next []world.Agent, features []components.Feature, cfg *config.Config) {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	leaders := 0
	densities := make([]float64, len(next))
	speeds := make([]float64, len(next))
	for i := range next {
		if next[i].Meta.Role == components.RoleLeader {
			leaders++
		}
		densities[i] = float64(systems.BuildSensors(i, next, features, cfg).LocalDensity)
		speeds[i] = float64(systems.Vec2{X: next[i].Vel.X, Y: next[i].Vel.Y}.Len())
	}

	stats := s.collector.Flush(s.tick, len(next), leaders, densities, speeds)
	s.log.Info("window stats",
		"tick", stats.WindowEndTick,
		"oracle_calls", stats.OracleCalls,
		"cache_hits", stats.CacheHits,
		"fallbacks", stats.Fallbacks,
		"degraded", stats.Degraded,
		"collected", stats.Collected,
		"density_mean", stats.DensityMean,
	)
	if err := s.output.WriteTelemetry(stats); err != nil {
		s.log.Warn("telemetry write failed", "error", err)
	}
}
