package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/decision"
	"github.com/pthm-cable/flock/sim"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/world"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	tickRate := flag.Int("tick-rate", 30, "Simulation ticks per second (0 = unthrottled)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV telemetry and config snapshot")
	apiKey := flag.String("api-key", os.Getenv("GEMINI_API_KEY"), "Gemini API key (empty = rule-based decisions only)")
	features := flag.Int("features", 12, "Number of environment features to scatter at startup")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	ctx := context.Background()

	// Without an API key the oracle always reports rate limiting, which
	// routes every sampled agent through the deterministic rule fallback.
	var oracle decision.Oracle
	if *apiKey != "" {
		g, err := decision.NewGeminiOracle(ctx, *apiKey, cfg.AI.Model,
			time.Duration(cfg.AI.TimeoutSec*float64(time.Second)))
		if err != nil {
			slog.Error("failed to create gemini oracle", "error", err)
			os.Exit(1)
		}
		oracle = g
	} else {
		oracle = decision.Offline()
	}

	store := world.NewStore(cfg, rng)
	seedFeatures(store, cfg, rng, *features)

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config snapshot", "error", err)
	}

	s := sim.New(sim.Options{
		Store:     store,
		Decisions: decision.NewService(oracle, rngSeed, logger),
		Output:    output,
		Logger:    logger,
		Seed:      rngSeed,
	})

	slog.Info("starting simulation",
		"seed", rngSeed,
		"agents", store.Count(),
		"arena_w", cfg.Arena.Width,
		"arena_h", cfg.Arena.Height,
		"ai_enabled", cfg.AI.Enabled && *apiKey != "",
		"max_ticks", *maxTicks,
	)

	var ticker *time.Ticker
	if *tickRate > 0 {
		ticker = time.NewTicker(time.Second / time.Duration(*tickRate))
		defer ticker.Stop()
	}

	for {
		s.Step(ctx)

		if *maxTicks > 0 && int(s.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", s.Tick())
			return
		}
		if ticker != nil {
			<-ticker.C
		}
	}
}

// seedFeatures scatters a starting environment: roughly half obstacles,
// a few zones, and the rest collectible resources.
func seedFeatures(store *world.Store, cfg *config.Config, rng *rand.Rand, n int) {
	kinds := []string{"energy", "material", "data"}
	for i := 0; i < n; i++ {
		pos := components.Position{
			X: rng.Float32() * cfg.Derived.W32,
			Y: rng.Float32() * cfg.Derived.H32,
		}
		switch {
		case i%3 == 0:
			store.PlaceFeature(components.Feature{
				Kind:     components.FeatureObstacle,
				Pos:      pos,
				Radius:   15 + rng.Float32()*25,
				Effect:   components.EffectRepel,
				Strength: 50 + rng.Float64()*50,
			})
		case i%3 == 1:
			effect := components.EffectAttract
			if rng.Float32() < 0.5 {
				effect = components.EffectSlow
			}
			store.PlaceFeature(components.Feature{
				Kind:     components.FeatureZone,
				Pos:      pos,
				Radius:   40 + rng.Float32()*60,
				Effect:   effect,
				Strength: 50,
			})
		default:
			store.PlaceFeature(components.Feature{
				Kind:         components.FeatureResource,
				Pos:          pos,
				Radius:       10,
				Effect:       components.EffectCollectible,
				Strength:     50,
				ResourceType: kinds[rng.Intn(len(kinds))],
				Value:        5 + rng.Intn(15),
			})
		}
	}
}
