package systems

import (
	"math"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/world"
)

// Zone multipliers applied to a neighbor's density contribution based on
// the zone it sits in.
const (
	attractZoneMult = 1.5
	repelZoneMult   = 0.5
)

// BuildSensors derives one agent's local perception from raw world state.
// Pure function of its inputs: zero neighbors and zero features yield
// density 0 and an empty obstacle list.
func BuildSensors(self int, agents []world.Agent, features []components.Feature, cfg *config.Config) components.SensorSnapshot {
	a := &agents[self]
	sensorRange := float32(cfg.Swarm.SensorRange)

	var snap components.SensorSnapshot

	// Local density: closer neighbors weigh more, zones modulate.
	var density float32
	for i := range agents {
		if i == self {
			continue
		}
		d := Vec2{agents[i].Pos.X - a.Pos.X, agents[i].Pos.Y - a.Pos.Y}.Len()
		if d > sensorRange {
			continue
		}
		density += (1 - d/sensorRange) * zoneMultiplier(agents[i].Pos, features)
	}
	snap.LocalDensity = density / sensorRange

	// Every feature in sensor range, tagged with distance and bearing.
	for i := range features {
		f := &features[i]
		dx := f.Pos.X - a.Pos.X
		dy := f.Pos.Y - a.Pos.Y
		dist := Vec2{dx, dy}.Len()
		if dist > sensorRange {
			continue
		}
		snap.NearbyObstacles = append(snap.NearbyObstacles, components.ObstacleReading{
			ID:       f.ID,
			Kind:     f.Kind,
			Distance: dist,
			Bearing:  float32(math.Atan2(float64(dy), float64(dx))),
		})
	}

	snap.Boundary = components.BoundaryDistances{
		Top:    a.Pos.Y,
		Right:  cfg.Derived.W32 - a.Pos.X,
		Bottom: cfg.Derived.H32 - a.Pos.Y,
		Left:   a.Pos.X,
	}

	return snap
}

// zoneMultiplier returns the density multiplier for a position: 1.5 inside
// an attract zone, 0.5 inside a repel zone, 1 elsewhere.
func zoneMultiplier(pos components.Position, features []components.Feature) float32 {
	for i := range features {
		f := &features[i]
		if f.Kind != components.FeatureZone {
			continue
		}
		d := Vec2{f.Pos.X - pos.X, f.Pos.Y - pos.Y}.Len()
		if d > f.Radius {
			continue
		}
		switch f.Effect {
		case components.EffectAttract:
			return attractZoneMult
		case components.EffectRepel:
			return repelZoneMult
		}
	}
	return 1
}
