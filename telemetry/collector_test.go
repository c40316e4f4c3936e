package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCollectorWindowBoundaries(t *testing.T) {
	c := NewCollector(10)

	if c.ShouldFlush(9) {
		t.Error("tick 9 should not flush a 10-tick window")
	}
	if !c.ShouldFlush(10) {
		t.Error("tick 10 should flush")
	}

	c.Flush(10, 5, 1, nil, nil)
	if c.ShouldFlush(19) {
		t.Error("tick 19 should not flush after a flush at 10")
	}
	if !c.ShouldFlush(20) {
		t.Error("tick 20 should flush")
	}
}

func TestCollectorCountersAndReset(t *testing.T) {
	c := NewCollector(10)

	c.RecordAITick()
	c.RecordOracleCall()
	c.RecordOracleCall()
	c.RecordCacheHit()
	c.RecordFallback()
	c.RecordDegraded()
	c.RecordCollected()
	c.RecordShared()

	stats := c.Flush(10, 30, 3, nil, nil)
	if stats.AITicks != 1 || stats.OracleCalls != 2 || stats.CacheHits != 1 ||
		stats.Fallbacks != 1 || stats.Degraded != 1 || stats.Collected != 1 || stats.Shared != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Agents != 30 || stats.Leaders != 3 || stats.WindowEndTick != 10 {
		t.Errorf("population stats = %+v", stats)
	}

	empty := c.Flush(20, 30, 3, nil, nil)
	if empty.OracleCalls != 0 || empty.CacheHits != 0 || empty.Fallbacks != 0 {
		t.Errorf("counters not reset: %+v", empty)
	}
}

func TestCollectorSummaries(t *testing.T) {
	c := NewCollector(10)

	stats := c.Flush(10, 4, 0,
		[]float64{1, 2, 3, 4},
		[]float64{2, 2, 2, 2},
	)

	if stats.DensityMean != 2.5 {
		t.Errorf("density mean = %v, want 2.5", stats.DensityMean)
	}
	if stats.DensityStd <= 0 {
		t.Errorf("density std = %v, want > 0", stats.DensityStd)
	}
	if stats.SpeedMean != 2 || stats.SpeedStd != 0 {
		t.Errorf("speed = %v +- %v, want 2 +- 0", stats.SpeedMean, stats.SpeedStd)
	}
}

func TestSummarizeEdgeCases(t *testing.T) {
	if mean, std := summarize(nil); mean != 0 || std != 0 {
		t.Errorf("empty samples = %v, %v", mean, std)
	}
	if mean, std := summarize([]float64{5}); mean != 5 || std != 0 {
		t.Errorf("single sample = %v, %v", mean, std)
	}
	if _, std := summarize([]float64{1, 2}); math.IsNaN(std) {
		t.Error("std must never be NaN")
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatal(err)
	}
	if om != nil {
		t.Fatal("empty dir should disable output")
	}

	// All methods are nil-safe.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Errorf("nil write: %v", err)
	}
	if om.Dir() != "" {
		t.Errorf("nil dir = %q", om.Dir())
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil close: %v", err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 60, Agents: 30, OracleCalls: 4}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 120, Agents: 30, OracleCalls: 2}); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv lines = %d, want header plus 2 rows", len(lines))
	}
	if !strings.Contains(lines[0], "window_end") || !strings.Contains(lines[0], "oracle_calls") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "60,") || !strings.HasPrefix(lines[2], "120,") {
		t.Errorf("rows = %q, %q", lines[1], lines[2])
	}
}
