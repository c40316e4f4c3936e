package components

// ObstacleReading is one environment feature as seen by an agent.
type ObstacleReading struct {
	ID       string
	Kind     FeatureKind
	Distance float32
	Bearing  float32 // atan2 angle from agent to feature
}

// BoundaryDistances holds the distance to each arena edge.
type BoundaryDistances struct {
	Top, Right, Bottom, Left float32
}

// Min returns the distance to the closest edge.
func (b BoundaryDistances) Min() float32 {
	m := b.Top
	if b.Right < m {
		m = b.Right
	}
	if b.Bottom < m {
		m = b.Bottom
	}
	if b.Left < m {
		m = b.Left
	}
	return m
}

// SensorSnapshot is an agent's local perception, rebuilt before each
// decision request.
type SensorSnapshot struct {
	LocalDensity    float32
	NearbyObstacles []ObstacleReading
	Boundary        BoundaryDistances
}
