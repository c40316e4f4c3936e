package telemetry

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one tick window.
type WindowStats struct {
	WindowEndTick int64 `csv:"window_end"`

	// Population at window end
	Agents  int `csv:"agents"`
	Leaders int `csv:"leaders"`

	// Decision flow during window
	AITicks     int `csv:"ai_ticks"`
	OracleCalls int `csv:"oracle_calls"`
	CacheHits   int `csv:"cache_hits"`
	Fallbacks   int `csv:"fallbacks"`
	Degraded    int `csv:"degraded"`

	// Resource events
	Collected int `csv:"collected"`
	Shared    int `csv:"shared"`

	// Swarm shape (sampled at window end)
	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	SpeedMean   float64 `csv:"speed_mean"`
	SpeedStd    float64 `csv:"speed_std"`
}

// summarize returns mean and standard deviation of samples, zero-safe.
func summarize(samples []float64) (mean, std float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	mean = stat.Mean(samples, nil)
	if len(samples) > 1 {
		std = stat.StdDev(samples, nil)
		if math.IsNaN(std) {
			std = 0
		}
	}
	return mean, std
}
