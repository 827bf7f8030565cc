package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/rigs/config"
)

func TestDefaultsMatchConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	got := pv.ExtractFromConfig(cfg)
	want := pv.DefaultVector()
	if len(got) != pv.Dim() {
		t.Fatalf("extracted %d values, want %d", len(got), pv.Dim())
	}
	for i, spec := range pv.Specs {
		if got[i] != want[i] {
			t.Errorf("%s: config %v, default %v", spec.Path, got[i], want[i])
		}
		if want[i] < spec.Min || want[i] > spec.Max {
			t.Errorf("%s: default %v outside [%v, %v]", spec.Path, want[i], spec.Min, spec.Max)
		}
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestClamp(t *testing.T) {
	pv := NewParamVector()
	low := make([]float64, pv.Dim())
	high := make([]float64, pv.Dim())
	for i := range low {
		low[i] = -100
		high[i] = 100
	}
	lc := pv.Clamp(low)
	hc := pv.Clamp(high)
	for i, spec := range pv.Specs {
		if lc[i] != spec.Min {
			t.Errorf("%s: clamp low = %v, want %v", spec.Name, lc[i], spec.Min)
		}
		if hc[i] != spec.Max {
			t.Errorf("%s: clamp high = %v, want %v", spec.Name, hc[i], spec.Max)
		}
	}
}

func TestApplyToConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	values := []float64{2.0, 0.7, 1.5, 0.5, 10}
	pv.ApplyToConfig(cfg, values)

	got := pv.ExtractFromConfig(cfg)
	want := []float64{2.0, 0.7, 1.5, 0.5, 0.8} // coast brake clamped
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Path, got[i], want[i])
		}
	}
	if cfg.Suspension.RestLength != 0.5 {
		t.Errorf("rest length changed to %v", cfg.Suspension.RestLength)
	}
}
