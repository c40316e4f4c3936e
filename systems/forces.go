package systems

import (
	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/world"
)

// BoundaryMargin is the distance from an edge at which the restoring force
// engages.
const BoundaryMargin = 50.0

// featureReach is added to a feature's radius to get its influence range.
const featureReach = 50.0

// Steering computes one agent's normalized steering vector. All six
// contributions are summed componentwise before a single normalization;
// the zero vector stays zero. Neighbors is the set within
// communicationRange of the agent (pairs at exact distance 0 contribute
// nothing, per the normalize-to-zero rule).
func Steering(self int, agents []world.Agent, neighbors []Neighbor, features []components.Feature, cfg *config.Config) Vec2 {
	a := &agents[self]

	force := cohesionForce(a, agents, neighbors, float32(cfg.Swarm.Cohesion))
	force = force.Add(separationForce(neighbors, float32(cfg.Swarm.Separation)))
	force = force.Add(alignmentForce(neighbors))
	force = force.Add(leaderForce(a, agents, neighbors, float32(cfg.Swarm.LeaderInfluence)))
	force = force.Add(boundaryForce(a.Pos, cfg.Derived.W32, cfg.Derived.H32, float32(cfg.Swarm.BoundaryForce)))
	force = force.Add(featureForce(a.Pos, features, float32(cfg.Swarm.ObstacleAvoidance)))

	return force.Norm()
}

// cohesionForce pulls toward the centroid of the neighbor set.
func cohesionForce(a *world.Agent, agents []world.Agent, neighbors []Neighbor, cohesion float32) Vec2 {
	var sum Vec2
	count := 0
	for _, n := range neighbors {
		if n.DistSq == 0 {
			continue
		}
		sum.X += agents[n.Index].Pos.X
		sum.Y += agents[n.Index].Pos.Y
		count++
	}
	if count == 0 {
		return Vec2{}
	}
	centroid := sum.Scale(1 / float32(count))
	return centroid.Sub(Vec2{a.Pos.X, a.Pos.Y}).Scale(cohesion / 100)
}

// separationForce pushes away from neighbors closer than the separation
// distance. The push magnitude is (separation-d)/separation per neighbor:
// bounded, and maximal as d approaches 0. A pair at exact distance 0 has no
// defined direction and is excluded.
func separationForce(neighbors []Neighbor, separation float32) Vec2 {
	if separation <= 0 {
		return Vec2{}
	}
	var force Vec2
	for _, n := range neighbors {
		if n.DistSq == 0 || n.DistSq >= separation*separation {
			continue
		}
		d := Vec2{n.DX, n.DY}.Len()
		away := Vec2{-n.DX / d, -n.DY / d}
		force = force.Add(away.Scale((separation - d) / separation))
	}
	return force
}

// alignmentForce is the unweighted average relative-position vector over
// the neighbor set, a proxy for velocity matching.
func alignmentForce(neighbors []Neighbor) Vec2 {
	var sum Vec2
	count := 0
	for _, n := range neighbors {
		if n.DistSq == 0 {
			continue
		}
		sum.X += n.DX
		sum.Y += n.DY
		count++
	}
	if count == 0 {
		return Vec2{}
	}
	return sum.Scale(1 / float32(count))
}

// leaderForce attracts followers toward the nearest leader among their
// neighbors. Leaders and followers without a leader in range get zero.
// Ties break toward the earlier neighbor: only a strictly smaller distance
// replaces the current best.
func leaderForce(a *world.Agent, agents []world.Agent, neighbors []Neighbor, influence float32) Vec2 {
	if a.Meta.Role != components.RoleFollower {
		return Vec2{}
	}
	best := -1
	var bestSq float32
	for _, n := range neighbors {
		if n.DistSq == 0 || agents[n.Index].Meta.Role != components.RoleLeader {
			continue
		}
		if best == -1 || n.DistSq < bestSq {
			best = n.Index
			bestSq = n.DistSq
		}
	}
	if best == -1 {
		return Vec2{}
	}
	to := Vec2{agents[best].Pos.X - a.Pos.X, agents[best].Pos.Y - a.Pos.Y}
	return to.Scale(influence / 100)
}

// boundaryForce restores agents within BoundaryMargin of an edge back into
// the arena, proportional to penetration depth. Exactly zero beyond the
// margin.
func boundaryForce(pos components.Position, w, h, weight float32) Vec2 {
	var force Vec2
	scale := weight / 100

	if pos.X < BoundaryMargin {
		force.X += (BoundaryMargin - pos.X) / BoundaryMargin * scale
	}
	if w-pos.X < BoundaryMargin {
		force.X -= (BoundaryMargin - (w - pos.X)) / BoundaryMargin * scale
	}
	if pos.Y < BoundaryMargin {
		force.Y += (BoundaryMargin - pos.Y) / BoundaryMargin * scale
	}
	if h-pos.Y < BoundaryMargin {
		force.Y -= (BoundaryMargin - (h - pos.Y)) / BoundaryMargin * scale
	}

	return force
}

// effectMultiplier maps a feature effect to its force multiplier.
func effectMultiplier(e components.Effect) float32 {
	switch e {
	case components.EffectRepel:
		return 1.5
	case components.EffectAttract:
		return -0.5
	case components.EffectSlow:
		return 0.3
	case components.EffectSpeed:
		return 2.0
	default:
		return 1
	}
}

// featureForce applies radial forces from environment features within
// radius+featureReach, directed along the feature-to-agent bearing.
// Collected resources are inert.
func featureForce(pos components.Position, features []components.Feature, avoidance float32) Vec2 {
	var force Vec2
	for i := range features {
		f := &features[i]
		if f.Kind == components.FeatureResource && f.Collected {
			continue
		}

		reach := f.Radius + featureReach
		away := Vec2{pos.X - f.Pos.X, pos.Y - f.Pos.Y}
		d := away.Len()
		if d >= reach || d == 0 {
			continue
		}

		strength := (reach - d) / reach *
			avoidance / 100 *
			effectMultiplier(f.Effect) *
			float32(f.Strength) / 100
		force = force.Add(away.Scale(strength / d))
	}
	return force
}
