// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
// It is read once per tick and may be replaced wholesale between ticks;
// Clamp runs on every load and replacement so the force model never sees
// out-of-domain values.
type Config struct {
	Arena     ArenaConfig     `yaml:"arena"`
	Swarm     SwarmConfig     `yaml:"swarm"`
	AI        AIConfig        `yaml:"ai"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ArenaConfig holds world dimensions.
type ArenaConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SwarmConfig holds the per-tick behavioral tunables.
// All percentage weights live in [0, 100].
type SwarmConfig struct {
	Population int     `yaml:"population"` // total agents
	Leaders    int     `yaml:"leaders"`    // how many of them lead
	Speed      float64 `yaml:"speed"`      // displacement scale per tick

	Cohesion          float64 `yaml:"cohesion"`           // 0-100
	Separation        float64 `yaml:"separation"`         // 0-100; doubles as min-distance in px
	Alignment         float64 `yaml:"alignment"`          // 0-100
	BoundaryForce     float64 `yaml:"boundary_force"`     // 0-100
	ObstacleAvoidance float64 `yaml:"obstacle_avoidance"` // 0-100
	LeaderInfluence   float64 `yaml:"leader_influence"`   // 0-100
	ExplorationWeight float64 `yaml:"exploration_weight"` // 0-100
	GoalOrientation   float64 `yaml:"goal_orientation"`   // 0-100

	SensorRange        float64 `yaml:"sensor_range"`        // px
	CommunicationRange float64 `yaml:"communication_range"` // px

	MemoryDepth      int    `yaml:"memory_depth"`      // bounded interaction log size
	ResourcePriority string `yaml:"resource_priority"` // energy | material | data | balanced
	Sharing          bool   `yaml:"sharing"`           // neighbor resource sharing
}

// AIConfig holds decision-oracle parameters.
type AIConfig struct {
	Enabled            bool    `yaml:"enabled"`
	DecisionIntervalMS int     `yaml:"decision_interval_ms"` // wall-clock gate between AI ticks
	Model              string  `yaml:"model"`
	TimeoutSec         float64 `yaml:"timeout_sec"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowTicks int `yaml:"window_ticks"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	W32     float32 // Arena.Width as float32
	H32     float32 // Arena.Height as float32
	CenterX float32
	CenterY float32
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.Clamp()
	cfg.computeDerived()

	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Clamp forces every tunable into its declared domain. NaN and Inf are
// treated as absent and reset to a safe value rather than propagating into
// position integration.
func (c *Config) Clamp() {
	c.Swarm.Population = clampInt(c.Swarm.Population, 1, 500)
	c.Swarm.Leaders = clampInt(c.Swarm.Leaders, 0, c.Swarm.Population)
	c.Swarm.Speed = clampFloat(c.Swarm.Speed, 0.1, 20, 2)

	c.Swarm.Cohesion = clampWeight(c.Swarm.Cohesion)
	c.Swarm.Separation = clampWeight(c.Swarm.Separation)
	c.Swarm.Alignment = clampWeight(c.Swarm.Alignment)
	c.Swarm.BoundaryForce = clampWeight(c.Swarm.BoundaryForce)
	c.Swarm.ObstacleAvoidance = clampWeight(c.Swarm.ObstacleAvoidance)
	c.Swarm.LeaderInfluence = clampWeight(c.Swarm.LeaderInfluence)
	c.Swarm.ExplorationWeight = clampWeight(c.Swarm.ExplorationWeight)
	c.Swarm.GoalOrientation = clampWeight(c.Swarm.GoalOrientation)

	c.Swarm.SensorRange = clampFloat(c.Swarm.SensorRange, 10, 500, 100)
	c.Swarm.CommunicationRange = clampFloat(c.Swarm.CommunicationRange, 10, 500, 80)

	c.Swarm.MemoryDepth = clampInt(c.Swarm.MemoryDepth, 1, 50)
	switch c.Swarm.ResourcePriority {
	case "energy", "material", "data", "balanced":
	default:
		c.Swarm.ResourcePriority = "balanced"
	}

	if c.AI.DecisionIntervalMS < 100 {
		c.AI.DecisionIntervalMS = 5000
	}
	c.AI.TimeoutSec = clampFloat(c.AI.TimeoutSec, 1, 120, 30)

	if c.Arena.Width <= 0 {
		c.Arena.Width = 800
	}
	if c.Arena.Height <= 0 {
		c.Arena.Height = 600
	}
	if c.Telemetry.WindowTicks < 1 {
		c.Telemetry.WindowTicks = 60
	}
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.W32 = float32(c.Arena.Width)
	c.Derived.H32 = float32(c.Arena.Height)
	c.Derived.CenterX = c.Derived.W32 / 2
	c.Derived.CenterY = c.Derived.H32 / 2
}

// Recompute re-runs clamping and derived-value computation. Call after
// mutating a Config that bypassed Load (e.g. a wholesale replacement pushed
// in between ticks).
func (c *Config) Recompute() {
	c.Clamp()
	c.computeDerived()
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func clampWeight(v float64) float64 {
	return clampFloat(v, 0, 100, 50)
}

func clampFloat(v, min, max, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
