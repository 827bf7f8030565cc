package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"
)

// ModelSpec describes the visual shape of a vehicle.
type ModelSpec struct {
	HalfExtent  mgl64.Vec3
	WheelRadius float64
	WheelWidth  float64
	WheelCount  int
	Color       Color
}

// VehicleModel holds the nodes of a built vehicle. Group follows the chassis
// body; each wheel node takes the wheel's transform relative to the body.
type VehicleModel struct {
	Group   ecs.Entity
	Chassis ecs.Entity
	Wheels  []ecs.Entity
}

var tireColor = Color{30, 30, 30, 255}

// BuildVehicleModel creates a chassis box and one cylinder per wheel under a
// new group attached to parent.
func (s *Scene) BuildVehicleModel(parent ecs.Entity, spec ModelSpec) VehicleModel {
	m := VehicleModel{Group: s.NewGroup(parent)}
	m.Chassis = s.AddMesh(m.Group, Mesh{
		Kind:  MeshBox,
		Size:  spec.HalfExtent.Mul(2),
		Color: spec.Color,
	}, Identity())

	// Cylinders stand along Y; lay them on their side so the axle is X.
	axle := Transform{Rotation: mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{0, 0, 1})}
	m.Wheels = make([]ecs.Entity, spec.WheelCount)
	for i := range m.Wheels {
		m.Wheels[i] = s.NewGroup(m.Group)
		s.AddMesh(m.Wheels[i], Mesh{
			Kind:   MeshCylinder,
			Radius: spec.WheelRadius,
			Width:  spec.WheelWidth,
			Color:  tireColor,
		}, axle)
	}
	return m
}

// Remove deletes the model's nodes.
func (m VehicleModel) Remove(s *Scene) {
	s.Remove(m.Group)
}
