// Package telemetry accumulates per-window simulation statistics and
// writes them as CSV.
package telemetry

// Collector accumulates events within tick windows and produces
// WindowStats.
type Collector struct {
	windowTicks     int64
	windowStartTick int64

	// Event counters for the current window
	AITicks     int
	oracleCalls int
	cacheHits   int
	fallbacks   int
	degraded    int
	Collected   int
	Shared      int
}

// NewCollector creates a stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: int64(windowTicks)}
}

// RecordAITick records a tick on which AI sampling triggered.
func (c *Collector) RecordAITick() { c.AITicks++ }

// RecordOracleCall records a fresh decision obtained from the oracle.
func (c *Collector) RecordOracleCall() { c.oracleCalls++ }

// RecordCacheHit records a decision served from the cache.
func (c *Collector) RecordCacheHit() { c.cacheHits++ }

// RecordFallback records a rule-based fallback decision.
func (c *Collector) RecordFallback() { c.fallbacks++ }

// RecordDegraded records a continue no-op from an oracle failure.
func (c *Collector) RecordDegraded() { c.degraded++ }

// RecordCollected records a resource pickup.
func (c *Collector) RecordCollected() { c.Collected++ }

// RecordShared records a resource transfer between neighbors.
func (c *Collector) RecordShared() { c.Shared++ }

// ShouldFlush returns true if enough ticks have passed to flush the
// window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// densities and speeds are per-agent samples taken at window end.
func (c *Collector) Flush(currentTick int64, agents, leaders int, densities, speeds []float64) WindowStats {
	stats := WindowStats{
		WindowEndTick: currentTick,
		Agents:        agents,
		Leaders:       leaders,
		AITicks:       c.AITicks,
		OracleCalls:   c.oracleCalls,
		CacheHits:     c.cacheHits,
		Fallbacks:     c.fallbacks,
		Degraded:      c.degraded,
		Collected:     c.Collected,
		Shared:        c.Shared,
	}
	stats.DensityMean, stats.DensityStd = summarize(densities)
	stats.SpeedMean, stats.SpeedStd = summarize(speeds)

	c.windowStartTick = currentTick
	c.AITicks = 0
	c.oracleCalls = 0
	c.cacheHits = 0
	c.fallbacks = 0
	c.degraded = 0
	c.Collected = 0
	c.Shared = 0

	return stats
}
