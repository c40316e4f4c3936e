package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	if cfg.Arena.Width != 800 || cfg.Arena.Height != 600 {
		t.Errorf("arena = %dx%d, want 800x600", cfg.Arena.Width, cfg.Arena.Height)
	}
	if cfg.Swarm.Population != 30 || cfg.Swarm.Leaders != 3 {
		t.Errorf("population = %d/%d leaders, want 30/3", cfg.Swarm.Population, cfg.Swarm.Leaders)
	}
	if cfg.AI.DecisionIntervalMS != 5000 {
		t.Errorf("decision interval = %d, want 5000", cfg.AI.DecisionIntervalMS)
	}
	if cfg.Derived.W32 != 800 || cfg.Derived.CenterX != 400 || cfg.Derived.CenterY != 300 {
		t.Errorf("derived = %+v", cfg.Derived)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("swarm:\n  population: 50\n  cohesion: 80\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}

	if cfg.Swarm.Population != 50 {
		t.Errorf("population = %d, want 50 from user file", cfg.Swarm.Population)
	}
	if cfg.Swarm.Cohesion != 80 {
		t.Errorf("cohesion = %v, want 80 from user file", cfg.Swarm.Cohesion)
	}
	// Untouched fields keep their defaults.
	if cfg.Swarm.Speed != 2.0 {
		t.Errorf("speed = %v, want default 2.0", cfg.Swarm.Speed)
	}
}

func TestLoadRejectsBadPath(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("swarm: [not: a: map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		check  func(*testing.T, *Config)
	}{
		{
			name:   "weight above range",
			mutate: func(c *Config) { c.Swarm.Cohesion = 150 },
			check: func(t *testing.T, c *Config) {
				if c.Swarm.Cohesion != 100 {
					t.Errorf("cohesion = %v, want 100", c.Swarm.Cohesion)
				}
			},
		},
		{
			name:   "weight below range",
			mutate: func(c *Config) { c.Swarm.Separation = -5 },
			check: func(t *testing.T, c *Config) {
				if c.Swarm.Separation != 0 {
					t.Errorf("separation = %v, want 0", c.Swarm.Separation)
				}
			},
		},
		{
			name:   "NaN weight resets to midpoint",
			mutate: func(c *Config) { c.Swarm.BoundaryForce = math.NaN() },
			check: func(t *testing.T, c *Config) {
				if c.Swarm.BoundaryForce != 50 {
					t.Errorf("boundary force = %v, want 50", c.Swarm.BoundaryForce)
				}
			},
		},
		{
			name:   "Inf speed resets to default",
			mutate: func(c *Config) { c.Swarm.Speed = math.Inf(1) },
			check: func(t *testing.T, c *Config) {
				if c.Swarm.Speed != 2 {
					t.Errorf("speed = %v, want 2", c.Swarm.Speed)
				}
			},
		},
		{
			name:   "leaders capped at population",
			mutate: func(c *Config) { c.Swarm.Population = 10; c.Swarm.Leaders = 50 },
			check: func(t *testing.T, c *Config) {
				if c.Swarm.Leaders != 10 {
					t.Errorf("leaders = %d, want 10", c.Swarm.Leaders)
				}
			},
		},
		{
			name:   "population floor",
			mutate: func(c *Config) { c.Swarm.Population = 0 },
			check: func(t *testing.T, c *Config) {
				if c.Swarm.Population != 1 {
					t.Errorf("population = %d, want 1", c.Swarm.Population)
				}
			},
		},
		{
			name:   "unknown resource priority resets",
			mutate: func(c *Config) { c.Swarm.ResourcePriority = "gold" },
			check: func(t *testing.T, c *Config) {
				if c.Swarm.ResourcePriority != "balanced" {
					t.Errorf("priority = %q, want balanced", c.Swarm.ResourcePriority)
				}
			},
		},
		{
			name:   "decision interval floor",
			mutate: func(c *Config) { c.AI.DecisionIntervalMS = 10 },
			check: func(t *testing.T, c *Config) {
				if c.AI.DecisionIntervalMS != 5000 {
					t.Errorf("interval = %d, want 5000", c.AI.DecisionIntervalMS)
				}
			},
		},
		{
			name:   "nonpositive arena resets",
			mutate: func(c *Config) { c.Arena.Width = -100; c.Arena.Height = 0 },
			check: func(t *testing.T, c *Config) {
				if c.Arena.Width != 800 || c.Arena.Height != 600 {
					t.Errorf("arena = %dx%d, want 800x600", c.Arena.Width, c.Arena.Height)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := MustLoad("")
			tc.mutate(cfg)
			cfg.Recompute()
			tc.check(t, cfg)
		})
	}
}

func TestRecomputeDerived(t *testing.T) {
	cfg := MustLoad("")
	cfg.Arena.Width = 1000
	cfg.Arena.Height = 400
	cfg.Recompute()

	if cfg.Derived.W32 != 1000 || cfg.Derived.H32 != 400 {
		t.Errorf("derived size = %vx%v", cfg.Derived.W32, cfg.Derived.H32)
	}
	if cfg.Derived.CenterX != 500 || cfg.Derived.CenterY != 200 {
		t.Errorf("derived center = (%v, %v)", cfg.Derived.CenterX, cfg.Derived.CenterY)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := MustLoad("")
	cfg.Swarm.Cohesion = 72
	path := filepath.Join(t.TempDir(), "out.yaml")

	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if loaded.Swarm.Cohesion != 72 {
		t.Errorf("cohesion = %v after round trip, want 72", loaded.Swarm.Cohesion)
	}
}
