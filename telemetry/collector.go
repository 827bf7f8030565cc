package telemetry

import "math"

// FlushInput is the world state sampled when a window closes.
type FlushInput struct {
	ActiveIndex     int
	ActiveArchetype string
	Speeds          []float64 // One entry per vehicle
	WheelsInContact int
	WheelsTotal     int
	Bodies          int
	DebugLines      int
}

// Collector accumulates driving events over a time window.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	windowStartTick int32

	activeSpeedSum float64
	activeSpeedMax float64
	activeSamples  int
	switches       int
	resets         int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how often to flush stats (in simulation seconds).
// dt: simulation timestep.
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticks := int32(math.Round(windowDurationSec / dt))
	if ticks < 1 {
		ticks = 1
	}
	return &Collector{
		windowDurationTicks: ticks,
		dt:                  dt,
	}
}

// RecordTick records the driven vehicle's speed for one tick.
func (c *Collector) RecordTick(activeSpeed float64) {
	c.activeSpeedSum += activeSpeed
	c.activeSamples++
	if activeSpeed > c.activeSpeedMax {
		c.activeSpeedMax = activeSpeed
	}
}

// RecordSwitch records a change of driven vehicle.
func (c *Collector) RecordSwitch() {
	c.switches++
}

// RecordReset records a scene reset.
func (c *Collector) RecordReset() {
	c.resets++
}

// ShouldFlush returns true if the window has elapsed.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush computes stats for the current window and resets counters.
func (c *Collector) Flush(currentTick int32, in FlushInput) WindowStats {
	mean, std, p10, p50, p90 := ComputeSpeedStats(in.Speeds)

	var activeMean float64
	if c.activeSamples > 0 {
		activeMean = c.activeSpeedSum / float64(c.activeSamples)
	}
	var contact float64
	if in.WheelsTotal > 0 {
		contact = float64(in.WheelsInContact) / float64(in.WheelsTotal)
	}

	stats := WindowStats{
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,
		ActiveIndex:     in.ActiveIndex,
		ActiveArchetype: in.ActiveArchetype,
		ActiveSpeedMean: activeMean,
		ActiveSpeedMax:  c.activeSpeedMax,
		SpeedMean:       mean,
		SpeedStd:        std,
		SpeedP10:        p10,
		SpeedP50:        p50,
		SpeedP90:        p90,
		WheelContact:    contact,
		Switches:        c.switches,
		Resets:          c.resets,
		Bodies:          in.Bodies,
		DebugLines:      in.DebugLines,
	}

	c.windowStartTick = currentTick
	c.activeSpeedSum = 0
	c.activeSpeedMax = 0
	c.activeSamples = 0
	c.switches = 0
	c.resets = 0

	return stats
}

// WindowDurationTicks returns the window duration in ticks.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
