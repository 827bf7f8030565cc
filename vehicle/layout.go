package vehicle

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/rigs/config"
	"github.com/pthm-cable/rigs/physics"
)

// COMOffset returns the vertical center of mass offset of the chassis.
func COMOffset(t Tuning, susp config.SuspensionConfig) float64 {
	return -susp.COMFactor * t.HalfExtent[1]
}

// SpawnHeight returns the body origin height at which the wheels just touch
// the ground with the suspension at rest length.
func SpawnHeight(t Tuning, susp config.SuspensionConfig) float64 {
	return t.WheelRadius - COMOffset(t, susp) + susp.RestLength
}

// WheelLayout returns one wheel per slot. Axles come front first; for each
// axle the left (+X) wheel precedes the right one. Single-track layouts have
// one wheel per axle on the center line.
func WheelLayout(t Tuning, susp config.SuspensionConfig) []physics.WheelSettings {
	wheels := make([]physics.WheelSettings, 0, t.WheelCount())
	brake := t.BrakeForce * t.WheelRadius

	add := func(x, z float64) {
		ws := physics.WheelSettings{
			Position:            mgl64.Vec3{x, 0, z},
			SuspensionMinLength: susp.MinLength,
			SuspensionMaxLength: susp.MaxLength,
			SuspensionFrequency: susp.Frequency,
			SuspensionDamping:   susp.Damping,
			Radius:              t.WheelRadius,
			Width:               t.WheelWidth,
			MaxBrakeTorque:      brake,

			// Tire forces act near the center of mass so short, tall layouts do
			// not pitch over under full braking.
			EnableTireForcePoint: true,
			TireForcePoint:       mgl64.Vec3{x, -susp.TireForceDepth, z},
		}
		if z > 0 {
			ws.MaxSteerAngle = t.MaxSteerAngle
		} else {
			ws.MaxHandBrakeTorque = 2 * brake
		}
		wheels = append(wheels, ws)
	}

	for _, z := range t.WheelForward {
		if t.WheelLateral == 0 {
			add(0, z)
			continue
		}
		add(t.WheelLateral, z)
		add(-t.WheelLateral, z)
	}
	return wheels
}

// Differentials pairs wheels into driven axles. Every pair gets an equal share
// of engine torque unless the archetype sets a drive bias, which is normalized
// over the driven pairs. At most maxPairs front-most pairs are
// driven. Single-track layouts drive front and rear together as one pair.
func Differentials(t Tuning, maxPairs int) []physics.Differential {
	var diffs []physics.Differential
	if t.WheelLateral == 0 {
		if len(t.WheelForward) < 2 {
			diffs = []physics.Differential{{LeftWheel: 0, RightWheel: -1, LeftRightSplit: 1}}
		} else {
			diffs = []physics.Differential{{LeftWheel: 0, RightWheel: len(t.WheelForward) - 1, LeftRightSplit: 0.5}}
		}
	} else {
		pairs := min(len(t.WheelForward), maxPairs)
		for i := 0; i < pairs; i++ {
			diffs = append(diffs, physics.Differential{LeftWheel: 2 * i, RightWheel: 2*i + 1, LeftRightSplit: 0.5})
		}
	}

	ratios := driveWeights(t.DriveBias, len(diffs))
	floats.Scale(1/floats.Sum(ratios), ratios)
	for i := range diffs {
		diffs[i].EngineTorqueRatio = ratios[i]
	}
	return diffs
}

// driveWeights returns the unnormalized torque weight of each of n driven
// pairs. Pairs past the end of bias get none; an empty or all-zero bias falls
// back to equal weights.
func driveWeights(bias []float64, n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	copy(w, bias)
	if floats.Sum(w) == 0 {
		for i := range w {
			w[i] = 1
		}
	}
	return w
}
