// Package world owns simulation state: the ECS-backed agent population,
// placed environment features, and the active configuration. The tick
// orchestrator reads a consistent snapshot at tick start and commits the
// next state atomically; the presentation layer mutates features and config
// only between ticks.
package world

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
)

// Perception wraps an agent's sensor snapshot as an ECS component.
type Perception struct {
	Sensors components.SensorSnapshot
}

// DecisionState holds the last decision applied to an agent.
type DecisionState struct {
	Last *components.Decision
}

// Agent is the plain snapshot of one agent, handed to systems and the
// decision layer. Mutating a snapshot never touches the live world until
// CommitAgents.
type Agent struct {
	Meta         components.AgentMeta
	Pos          components.Position
	Vel          components.Velocity
	Res          components.Resources
	Memory       components.Memory
	Sensors      components.SensorSnapshot
	LastDecision *components.Decision
}

// Store is the world state store.
type Store struct {
	world  *ecs.World
	mapper *ecs.Map7[
		components.Position,
		components.Velocity,
		components.AgentMeta,
		components.Resources,
		components.Memory,
		Perception,
		DecisionState,
	]
	filter *ecs.Filter7[
		components.Position,
		components.Velocity,
		components.AgentMeta,
		components.Resources,
		components.Memory,
		Perception,
		DecisionState,
	]

	byID map[string]ecs.Entity
	seq  map[string]int // spawn order, keeps reads deterministic
	next int

	mu       sync.RWMutex // guards cfg and features between ticks
	cfg      *config.Config
	features []components.Feature
}

// NewStore creates a store and spawns the initial population. The first
// cfg.Swarm.Leaders agents are leaders, the rest followers; positions are
// uniform over the arena from the injected rng.
func NewStore(cfg *config.Config, rng *rand.Rand) *Store {
	w := ecs.NewWorld()

	s := &Store{
		world: w,
		mapper: ecs.NewMap7[
			components.Position,
			components.Velocity,
			components.AgentMeta,
			components.Resources,
			components.Memory,
			Perception,
			DecisionState,
		](w),
		filter: ecs.NewFilter7[
			components.Position,
			components.Velocity,
			components.AgentMeta,
			components.Resources,
			components.Memory,
			Perception,
			DecisionState,
		](w),
		byID: make(map[string]ecs.Entity),
		seq:  make(map[string]int),
		cfg:  cfg,
	}

	for i := 0; i < cfg.Swarm.Population; i++ {
		role := components.RoleFollower
		if i < cfg.Swarm.Leaders {
			role = components.RoleLeader
		}
		s.Spawn(components.Position{
			X: rng.Float32() * cfg.Derived.W32,
			Y: rng.Float32() * cfg.Derived.H32,
		}, role)
	}

	return s
}

// Spawn adds one agent and returns its id.
func (s *Store) Spawn(pos components.Position, role components.Role) string {
	id := uuid.NewString()
	meta := components.AgentMeta{ID: id, Role: role}
	vel := components.Velocity{}
	res := components.Resources{Energy: 100}
	mem := components.Memory{}
	per := Perception{}
	dec := DecisionState{}

	entity := s.mapper.NewEntity(&pos, &vel, &meta, &res, &mem, &per, &dec)
	s.byID[id] = entity
	s.seq[id] = s.next
	s.next++
	return id
}

// ReadAgents returns a consistent snapshot of all agents in spawn order.
func (s *Store) ReadAgents() []Agent {
	agents := make([]Agent, 0, len(s.byID))

	query := s.filter.Query()
	for query.Next() {
		pos, vel, meta, res, mem, per, dec := query.Get()
		agents = append(agents, Agent{
			Meta:         *meta,
			Pos:          *pos,
			Vel:          *vel,
			Res:          *res,
			Memory:       *mem,
			Sensors:      per.Sensors,
			LastDecision: dec.Last,
		})
	}

	sort.Slice(agents, func(i, j int) bool {
		return s.seq[agents[i].Meta.ID] < s.seq[agents[j].Meta.ID]
	})
	return agents
}

// CommitAgents publishes the next world state. Unknown ids are ignored;
// the commit is the only write path for agent components.
func (s *Store) CommitAgents(agents []Agent) {
	for i := range agents {
		a := &agents[i]
		entity, ok := s.byID[a.Meta.ID]
		if !ok {
			continue
		}
		pos, vel, meta, res, mem, per, dec := s.mapper.Get(entity)
		*pos = a.Pos
		*vel = a.Vel
		*meta = a.Meta
		*res = a.Res
		*mem = a.Memory
		per.Sensors = a.Sensors
		dec.Last = a.LastDecision
	}
}

// ReadConfig returns the active configuration. The pointer is treated as
// read-only for the duration of a tick.
func (s *Store) ReadConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ReplaceConfig swaps the configuration wholesale. Clamping runs before the
// new config becomes visible to the next tick.
func (s *Store) ReplaceConfig(cfg *config.Config) {
	cfg.Recompute()
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// ReadFeatures returns a copy of the placed environment features.
func (s *Store) ReadFeatures() []components.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]components.Feature, len(s.features))
	copy(out, s.features)
	return out
}

// PlaceFeature adds a feature and returns its id. An empty id is filled
// with a fresh uuid.
func (s *Store) PlaceFeature(f components.Feature) string {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.features = append(s.features, f)
	s.mu.Unlock()
	return f.ID
}

// MarkCollected flips a resource feature's collected flag. Returns true
// only for the call that performed the false->true transition, so exactly
// one agent can claim a resource.
func (s *Store) MarkCollected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.features {
		f := &s.features[i]
		if f.ID != id {
			continue
		}
		if f.Kind != components.FeatureResource || f.Collected {
			return false
		}
		f.Collected = true
		return true
	}
	return false
}

// Count returns the number of agents.
func (s *Store) Count() int {
	return len(s.byID)
}
