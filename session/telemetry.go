package session

import (
	"log/slog"

	"github.com/pthm-cable/rigs/telemetry"
	"github.com/pthm-cable/rigs/vehicle"
)

// Stats windows kept by the bookmark detector.
const bookmarkHistory = 10

// flushTelemetry closes the stats window when it has elapsed and exports it.
func (s *Session) flushTelemetry() {
	if !s.stats.ShouldFlush(s.tick) {
		return
	}

	samples := s.sampleVehicles()
	in := telemetry.FlushInput{
		ActiveIndex:     s.active,
		ActiveArchetype: s.vehicles[s.active].Archetype().String(),
		Speeds:          make([]float64, len(samples)),
		Bodies:          s.world.Counts().Bodies,
	}
	for i, smp := range samples {
		in.Speeds[i] = smp.Speed
		in.WheelsInContact += smp.Contacts
		in.WheelsTotal += s.vehicles[i].Constraint().WheelCount()
	}
	if s.debugDraw {
		in.DebugLines = s.lines.LineCount()
	}

	stats := s.stats.Flush(s.tick, in)
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	for _, b := range s.bookmarks.Check(stats) {
		b.LogBookmark()
		s.marked = append(s.marked, b)
	}

	if s.output != nil {
		if err := s.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := s.output.WriteVehicles(samples); err != nil {
			slog.Error("failed to write vehicles", "error", err)
		}
	}
}

// sampleVehicles snapshots every vehicle for vehicles.csv.
func (s *Session) sampleVehicles() []telemetry.VehicleSample {
	samples := make([]telemetry.VehicleSample, len(s.vehicles))
	for i, v := range s.vehicles {
		pos := v.Position()
		cmd := v.LastCommand()
		samples[i] = telemetry.VehicleSample{
			Tick:         s.tick,
			Index:        i,
			Archetype:    v.Archetype().String(),
			Active:       i == s.active,
			Speed:        v.Speed(),
			ForwardSpeed: v.ForwardSpeed(),
			X:            pos[0],
			Y:            pos[1],
			Z:            pos[2],
			Throttle:     cmd.Throttle,
			Steer:        cmd.Steer,
			Brake:        cmd.Brake,
			Contacts:     wheelsInContact(v),
		}
	}
	return samples
}

// wheelsInContact counts the wheels of v touching ground after the last step.
func wheelsInContact(v *vehicle.Vehicle) int {
	c := v.Constraint()
	n := 0
	for i := 0; i < c.WheelCount(); i++ {
		if c.Wheel(i).Contact {
			n++
		}
	}
	return n
}
