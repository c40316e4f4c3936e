package systems

import "github.com/pthm-cable/flock/components"

// Blend produces the final per-tick displacement. Without an actionable
// target the displacement is speed * force. With one, it is the
// componentwise average of the flocking displacement and the displacement
// toward the target — averaging, not override, so an external decision can
// never cause a discontinuous jump out of the flock.
func Blend(force Vec2, dec *components.Decision, pos components.Position, speed float32) Vec2 {
	flock := force.Scale(speed)
	if dec == nil || dec.Target == nil {
		return flock
	}

	toTarget := Vec2{dec.Target.X - pos.X, dec.Target.Y - pos.Y}.Norm().Scale(speed)
	return Vec2{
		X: (flock.X + toTarget.X) / 2,
		Y: (flock.Y + toTarget.Y) / 2,
	}
}

// ClampToArena keeps a position within [0,w] x [0,h].
func ClampToArena(pos components.Position, w, h float32) components.Position {
	return components.Position{
		X: clamp32(pos.X, 0, w),
		Y: clamp32(pos.Y, 0, h),
	}
}
