package decision

import (
	"fmt"
	"math"
	"time"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
)

// boundaryPanicDist and obstaclePanicDist trigger the avoid rules.
const (
	boundaryPanicDist = 50.0
	obstaclePanicDist = 50.0
	centerJitter      = 100.0
	reflectDist       = 50.0
)

// randSource is the slice of rand the fallback needs; satisfied by
// *rand.Rand and the service's lock-guarded wrapper.
type randSource interface {
	Float32() float32
}

// Synthesize produces a rule-based decision when the oracle is rate
// limited. Rules are evaluated in priority order; the first match wins.
func Synthesize(ac AgentContext, cfg *config.Config, rng randSource, now time.Time) components.Decision {
	// Rule 1: too close to an arena edge — head back toward the center.
	if ac.Sensors.Boundary.Min() < boundaryPanicDist {
		target := components.Position{
			X: cfg.Derived.CenterX + (rng.Float32()*2-1)*centerJitter,
			Y: cfg.Derived.CenterY + (rng.Float32()*2-1)*centerJitter,
		}
		return components.Decision{
			Action:    components.ActionAvoid,
			Reasoning: "rule fallback: boundary too close, returning to center",
			Target:    &target,
			Priority:  9,
			IssuedAt:  now,
		}
	}

	// Rule 2: an obstacle within panic range — reflect away from its bearing.
	if obs, ok := nearestObstacle(ac.Sensors.NearbyObstacles); ok && obs.Distance < obstaclePanicDist {
		target := components.Position{
			X: ac.Pos.X - float32(math.Cos(float64(obs.Bearing)))*reflectDist,
			Y: ac.Pos.Y - float32(math.Sin(float64(obs.Bearing)))*reflectDist,
		}
		return components.Decision{
			Action:    components.ActionAvoid,
			Reasoning: fmt.Sprintf("rule fallback: avoiding %s at %.0fpx", obs.Kind, obs.Distance),
			Target:    &target,
			Priority:  8,
			IssuedAt:  now,
		}
	}

	// Rule 3: leaders strike out on their own.
	if ac.Role == components.RoleLeader {
		target := components.Position{
			X: rng.Float32() * cfg.Derived.W32,
			Y: rng.Float32() * cfg.Derived.H32,
		}
		return components.Decision{
			Action:    components.ActionExplore,
			Reasoning: "rule fallback: leader exploring",
			Target:    &target,
			Priority:  7,
			IssuedAt:  now,
		}
	}

	// Rule 4: a leader in range — fall in behind it.
	for _, n := range ac.Neighbors {
		if n.Role == components.RoleLeader {
			target := n.Pos
			return components.Decision{
				Action:    components.ActionFollow,
				Reasoning: "rule fallback: following nearby leader",
				Target:    &target,
				Priority:  8,
				IssuedAt:  now,
			}
		}
	}

	// Rule 5: nothing notable — stay with the flock.
	return components.Decision{
		Action:    components.ActionAlign,
		Reasoning: "rule fallback: aligning with flock",
		Priority:  5,
		IssuedAt:  now,
	}
}

func nearestObstacle(readings []components.ObstacleReading) (components.ObstacleReading, bool) {
	if len(readings) == 0 {
		return components.ObstacleReading{}, false
	}
	best := readings[0]
	for _, r := range readings[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best, true
}
