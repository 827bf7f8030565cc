package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated driving statistics for one window.
type WindowStats struct {
	WindowEndTick int32   `csv:"window_end"`
	SimTimeSec    float64 `csv:"sim_time_sec"`

	// Driven vehicle
	ActiveIndex     int     `csv:"active_index"`
	ActiveArchetype string  `csv:"active_archetype"`
	ActiveSpeedMean float64 `csv:"active_speed_mean"`
	ActiveSpeedMax  float64 `csv:"active_speed_max"`

	// Speed distribution across every vehicle at window end
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Wheels touching ground / total wheels
	WheelContact float64 `csv:"wheel_contact"`

	// Events in the window
	Switches int `csv:"switches"`
	Resets   int `csv:"resets"`

	// World size at window end
	Bodies     int `csv:"bodies"`
	DebugLines int `csv:"debug_lines"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSpeedStats calculates mean, sample std, and percentiles from speed values.
func ComputeSpeedStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.MeanStdDev(values, nil)
	if n < 2 {
		std = 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Group("active",
			slog.Int("index", s.ActiveIndex),
			slog.String("archetype", s.ActiveArchetype),
			slog.Float64("speed_mean", s.ActiveSpeedMean),
			slog.Float64("speed_max", s.ActiveSpeedMax),
		),
		slog.Group("speed",
			slog.Float64("mean", s.SpeedMean),
			slog.Float64("std", s.SpeedStd),
			slog.Float64("p10", s.SpeedP10),
			slog.Float64("p50", s.SpeedP50),
			slog.Float64("p90", s.SpeedP90),
		),
		slog.Float64("wheel_contact", s.WheelContact),
		slog.Int("switches", s.Switches),
		slog.Int("resets", s.Resets),
		slog.Int("bodies", s.Bodies),
		slog.Int("debug_lines", s.DebugLines),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"active", s.ActiveArchetype,
		"active_speed", s.ActiveSpeedMean,
		"speed_p50", s.SpeedP50,
		"wheel_contact", s.WheelContact,
		"switches", s.Switches,
		"resets", s.Resets,
		"debug_lines", s.DebugLines,
	)
}
