package decision

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
)

// Source tells the orchestrator where a decision came from.
type Source int

const (
	SourceCached Source = iota
	SourceOracle
	SourceFallback // rule-based, cached
	SourceDegraded // continue no-op, not cached, retried next cycle
)

// String returns a log-friendly name for the source.
func (s Source) String() string {
	switch s {
	case SourceCached:
		return "cached"
	case SourceOracle:
		return "oracle"
	case SourceFallback:
		return "fallback"
	default:
		return "degraded"
	}
}

// lockedRand guards a seeded rand shared by concurrent decision requests.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float32() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float32()
}

// Service is the decision flow for one simulation: cache lookup, oracle
// consult, fallback synthesis. Constructed and owned by the orchestrator;
// nothing here is a package-level singleton.
type Service struct {
	oracle Oracle
	cache  *Cache
	rng    *lockedRand
	log    *slog.Logger
	now    func() time.Time
}

// NewService builds a decision service around an oracle. The seed makes
// fallback jitter reproducible.
func NewService(oracle Oracle, seed int64, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		oracle: oracle,
		cache:  NewCache(CacheTTL),
		rng:    &lockedRand{r: rand.New(rand.NewSource(seed))},
		log:    log,
		now:    time.Now,
	}
}

// GetDecision returns a decision for the agent, always. A cache entry
// younger than the TTL short-circuits the oracle; a rate-limited oracle
// yields a cached rule fallback; any other failure yields a non-cached
// continue so the next cycle retries.
func (s *Service) GetDecision(ctx context.Context, ac AgentContext, cfg *config.Config) (components.Decision, Source) {
	if dec, ok := s.cache.Get(ac.ID); ok {
		return dec, SourceCached
	}

	dec, err := s.oracle.RequestDecision(ctx, ac)
	switch {
	case err == nil:
		dec.IssuedAt = s.now()
		dec.Reused = false
		s.cache.Put(ac.ID, dec)
		return dec, SourceOracle

	case errors.Is(err, ErrRateLimited):
		fb := Synthesize(ac, cfg, s.rng, s.now())
		s.cache.Put(ac.ID, fb)
		s.log.Warn("oracle rate limited, using rule fallback",
			"agent", ac.ID, "action", fb.Action)
		return fb, SourceFallback

	default:
		s.log.Warn("oracle failed, continuing",
			"agent", ac.ID, "error", err)
		return components.Decision{
			Action:    components.ActionContinue,
			Reasoning: "oracle unavailable, continuing current behavior",
			Priority:  5,
			IssuedAt:  s.now(),
		}, SourceDegraded
	}
}

// Cache exposes the decision cache for inspection.
func (s *Service) Cache() *Cache {
	return s.cache
}
