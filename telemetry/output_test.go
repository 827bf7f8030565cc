package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/rigs/config"
)

func TestNewOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager for empty dir, got %v, %v", om, err)
	}
	// Nil manager methods are no-ops
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteVehicles([]VehicleSample{{}}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("expected empty dir for nil manager")
	}
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("creating output manager: %v", err)
	}

	for tick := int32(1); tick <= 3; tick++ {
		samples := []VehicleSample{
			{Tick: tick, Index: 0, Archetype: "kart", Speed: 1},
			{Tick: tick, Index: 1, Archetype: "sedan", Active: true, Speed: 2},
		}
		if err := om.WriteVehicles(samples); err != nil {
			t.Fatalf("writing vehicles: %v", err)
		}
	}
	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 60, ActiveArchetype: "sedan"}); err != nil {
		t.Fatalf("writing telemetry: %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 60); err != nil {
		t.Fatalf("writing perf: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "vehicles.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected header + 6 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "tick,index,archetype") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Count(string(data), "tick,") != 1 {
		t.Error("expected header written exactly once")
	}

	for _, name := range []string{"telemetry.csv", "perf.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != 2 {
			t.Errorf("%s: expected header + 1 row, got %d lines", name, n)
		}
	}
}

func TestOutputManagerWriteConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	om, err := NewOutputManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := config.Load(filepath.Join(om.Dir(), "config.yaml")); err != nil {
		t.Errorf("config snapshot does not reload: %v", err)
	}
}
