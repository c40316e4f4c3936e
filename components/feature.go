package components

// FeatureKind classifies an environment feature.
type FeatureKind string

const (
	FeatureObstacle FeatureKind = "obstacle"
	FeatureZone     FeatureKind = "zone"
	FeatureBoundary FeatureKind = "boundary"
	FeatureResource FeatureKind = "resource"
)

// Effect describes how a feature acts on nearby agents.
type Effect string

const (
	EffectRepel       Effect = "repel"
	EffectAttract     Effect = "attract"
	EffectSlow        Effect = "slow"
	EffectSpeed       Effect = "speed"
	EffectCollectible Effect = "collectible"
)

// Feature is a spatial effector placed in the arena. Immutable once placed
// except for Collected, which flips false to true exactly once when the
// first agent intersects a collectible resource.
type Feature struct {
	ID       string // uuid
	Kind     FeatureKind
	Pos      Position
	Radius   float32
	Effect   Effect
	Strength float64 // 0-100

	// Resource-only fields
	ResourceType string // energy | material | data
	Value        int
	Collected    bool
}
