// Package vehicle builds drivable vehicles from archetype tunings and turns
// driver input into engine, brake and steering commands.
package vehicle

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/rigs/config"
	"github.com/pthm-cable/rigs/scene"
)

// Archetype is one of the built-in vehicle kinds.
type Archetype int

const (
	Kart Archetype = iota
	Sedan
	Truck
	Tank
	Motorcycle
	NumArchetypes
)

var archetypeNames = [NumArchetypes]string{"kart", "sedan", "truck", "tank", "motorcycle"}

func (a Archetype) String() string {
	if a < 0 || a >= NumArchetypes {
		return fmt.Sprintf("archetype(%d)", int(a))
	}
	return archetypeNames[a]
}

// ParseArchetype maps a name to an archetype, ignoring case.
func ParseArchetype(name string) (Archetype, error) {
	for i, n := range archetypeNames {
		if strings.EqualFold(n, name) {
			return Archetype(i), nil
		}
	}
	return 0, fmt.Errorf("vehicle: unknown archetype %q", name)
}

// Tuning is the immutable description of an archetype.
type Tuning struct {
	Archetype      Archetype
	HalfExtent     mgl64.Vec3
	WheelRadius    float64
	WheelWidth     float64
	WheelLateral   float64   // 0 for single-track vehicles
	WheelForward   []float64 // axle offsets, front first
	MaxSteerAngle  float64   // radians
	Mass           float64
	EngineForce    float64
	MaxSpeed       float64
	SteerTorque    float64
	BrakeForce     float64
	LinearDamping  float64
	AngularDamping float64
	UprightAssist  float64
	DriveBias      []float64 // relative torque per driven axle; empty = equal
	Color          scene.Color
}

// WheelCount returns the number of wheels in the layout.
func (t Tuning) WheelCount() int {
	if t.WheelLateral == 0 {
		return len(t.WheelForward)
	}
	return 2 * len(t.WheelForward)
}

// Table maps every archetype to its tuning.
type Table [NumArchetypes]Tuning

// NewTable builds the tuning table from config. Every archetype must be present.
func NewTable(cfg *config.Config) (*Table, error) {
	var t Table
	for a := Archetype(0); a < NumArchetypes; a++ {
		idx, ok := cfg.Derived.ArchetypeIndex[a.String()]
		if !ok {
			return nil, fmt.Errorf("vehicle: archetype %q missing from config", a)
		}
		ac := cfg.Archetypes[idx]
		t[a] = Tuning{
			Archetype:      a,
			HalfExtent:     mgl64.Vec3(ac.HalfExtent),
			WheelRadius:    ac.WheelRadius,
			WheelWidth:     ac.WheelWidth,
			WheelLateral:   ac.WheelLateral,
			WheelForward:   append([]float64(nil), ac.WheelForward...),
			MaxSteerAngle:  cfg.Derived.MaxSteerRad[idx],
			Mass:           ac.Mass,
			EngineForce:    ac.EngineForce,
			MaxSpeed:       ac.MaxSpeed,
			SteerTorque:    ac.SteerTorque,
			BrakeForce:     ac.BrakeForce,
			LinearDamping:  ac.LinearDamping,
			AngularDamping: ac.AngularDamping,
			UprightAssist:  ac.UprightAssist,
			DriveBias:      append([]float64(nil), ac.DriveBias...),
			Color:          scene.Color{R: ac.Color[0], G: ac.Color[1], B: ac.Color[2], A: 255},
		}
	}
	return &t, nil
}

// Lookup returns the tuning of a.
func (t *Table) Lookup(a Archetype) Tuning {
	return t[a]
}
