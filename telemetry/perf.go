package telemetry

import (
	"log/slog"
	"time"
)

// PerfCollector accumulates per-tick timing samples over a rolling window,
// grounded on the teacher's PerfCollector (telemetry/perf.go).
type PerfCollector struct {
	samples    []time.Duration
	sampleCap  int
	sampleHead int
	sampleLen  int
}

// NewPerfCollector allocates a collector retaining up to windowSize tick
// samples.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize <= 0 {
		windowSize = 256
	}
	return &PerfCollector{samples: make([]time.Duration, windowSize), sampleCap: windowSize}
}

// RecordTick appends one tick's wall-clock duration to the window.
func (p *PerfCollector) RecordTick(d time.Duration) {
	p.samples[p.sampleHead] = d
	p.sampleHead = (p.sampleHead + 1) % p.sampleCap
	if p.sampleLen < p.sampleCap {
		p.sampleLen++
	}
}

// PerfStats holds aggregated tick timing statistics over the current
// window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleLen == 0 {
		return PerfStats{}
	}
	var total, min, max time.Duration
	for i := 0; i < p.sampleLen; i++ {
		d := p.samples[i]
		total += d
		if i == 0 || d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	avg := total / time.Duration(p.sampleLen)
	var tps float64
	if avg > 0 {
		tps = float64(time.Second) / float64(avg)
	}
	return PerfStats{AvgTickDuration: avg, MinTickDuration: min, MaxTickDuration: max, TicksPerSecond: tps}
}

// PerfStatsCSV is the gocsv-tagged flattening of PerfStats into one CSV
// row. OutputManager has no method that writes it.
type PerfStatsCSV struct {
	WindowEnd   uint64  `csv:"window_end"`
	AvgTickUS   int64   `csv:"avg_tick_us"`
	MinTickUS   int64   `csv:"min_tick_us"`
	MaxTickUS   int64   `csv:"max_tick_us"`
	TicksPerSec float64 `csv:"ticks_per_sec"`
}

// ToCSV flattens s into its CSV row shape at the given tick count.
func (s PerfStats) ToCSV(windowEnd uint64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:   windowEnd,
		AvgTickUS:   s.AvgTickDuration.Microseconds(),
		MinTickUS:   s.MinTickDuration.Microseconds(),
		MaxTickUS:   s.MaxTickDuration.Microseconds(),
		TicksPerSec: s.TicksPerSecond,
	}
}

// LogValue implements slog.LogValuer for structured logging of a single
// stats sample.
func (s PerfStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	)
}
