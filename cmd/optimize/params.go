// Package main provides CMA-ES optimization of the shared suspension and
// arbitration parameters against a headless driving test.
package main

import (
	"github.com/pthm-cable/rigs/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Suspension (lengths locked; they set the spawn height)
			{Name: "frequency", Path: "suspension.frequency", Min: 0.8, Max: 3.0, Default: 1.5},
			{Name: "damping", Path: "suspension.damping", Min: 0.2, Max: 1.0, Default: 0.5},
			{Name: "tire_grip", Path: "suspension.tire_grip", Min: 0.6, Max: 2.0, Default: 1.2},
			{Name: "com_factor", Path: "suspension.com_factor", Min: 0.3, Max: 1.2, Default: 0.9},
			// Arbitration (deadband and thresholds locked)
			{Name: "coast_brake", Path: "arbitration.coast_brake", Min: 0.0, Max: 0.8, Default: 0.3},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Suspension.Frequency = clamped[0]
	cfg.Suspension.Damping = clamped[1]
	cfg.Suspension.TireGrip = clamped[2]
	cfg.Suspension.COMFactor = clamped[3]
	cfg.Arbitration.CoastBrake = clamped[4]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Suspension.Frequency,
		cfg.Suspension.Damping,
		cfg.Suspension.TireGrip,
		cfg.Suspension.COMFactor,
		cfg.Arbitration.CoastBrake,
	}
}
