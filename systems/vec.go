// Package systems provides the pure per-tick math: sensing, steering
// forces, and decision blending. Nothing in this package touches shared
// state or randomness; for fixed inputs the outputs are bit-reproducible.
package systems

import "math"

// Vec2 is a 2D vector.
type Vec2 struct {
	X, Y float32
}

// Add returns a + b.
func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }

// Sub returns a - b.
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }

// Scale returns a * s.
func (a Vec2) Scale(s float32) Vec2 { return Vec2{a.X * s, a.Y * s} }

// LenSq returns the squared length.
func (a Vec2) LenSq() float32 { return a.X*a.X + a.Y*a.Y }

// Len returns the length.
func (a Vec2) Len() float32 {
	l2 := a.LenSq()
	if l2 == 0 {
		return 0
	}
	return float32(math.Sqrt(float64(l2)))
}

// Norm returns the unit vector, or the zero vector when a is zero.
// Division only happens when the magnitude is strictly positive.
func (a Vec2) Norm() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

func clamp32(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
