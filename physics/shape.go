package physics

import "github.com/go-gl/mathgl/mgl64"

// Shape is the collision geometry of a body. All vectors are in the shape's
// local frame, relative to the shape origin.
type Shape interface {
	// CenterOfMass returns the center of mass relative to the shape origin.
	CenterOfMass() mgl64.Vec3
	// HalfExtent returns the half size of the geometric box around the origin.
	HalfExtent() mgl64.Vec3
	// Volume returns the solid volume.
	Volume() float64
	// Inertia returns the diagonal inertia tensor about the center of mass.
	Inertia(mass float64) mgl64.Vec3
}

// BoxShape is an axis-aligned box centered on its origin.
type BoxShape struct {
	Half mgl64.Vec3
}

// NewBoxShape creates a box with the given half extents.
func NewBoxShape(half mgl64.Vec3) *BoxShape {
	return &BoxShape{Half: half}
}

func (b *BoxShape) CenterOfMass() mgl64.Vec3 { return mgl64.Vec3{} }
func (b *BoxShape) HalfExtent() mgl64.Vec3   { return b.Half }

func (b *BoxShape) Volume() float64 {
	return 8 * b.Half[0] * b.Half[1] * b.Half[2]
}

// Inertia of a solid box: m/12 * (size_a² + size_b²) = m/3 * (half_a² + half_b²).
func (b *BoxShape) Inertia(mass float64) mgl64.Vec3 {
	x2, y2, z2 := b.Half[0]*b.Half[0], b.Half[1]*b.Half[1], b.Half[2]*b.Half[2]
	return mgl64.Vec3{
		mass / 3 * (y2 + z2),
		mass / 3 * (x2 + z2),
		mass / 3 * (x2 + y2),
	}
}

// OffsetCenterOfMassShape moves the center of mass of Inner by Offset without
// moving its geometry.
type OffsetCenterOfMassShape struct {
	Inner  Shape
	Offset mgl64.Vec3
}

// NewOffsetCenterOfMassShape wraps inner with a shifted center of mass.
func NewOffsetCenterOfMassShape(inner Shape, offset mgl64.Vec3) *OffsetCenterOfMassShape {
	return &OffsetCenterOfMassShape{Inner: inner, Offset: offset}
}

func (s *OffsetCenterOfMassShape) CenterOfMass() mgl64.Vec3 {
	return s.Inner.CenterOfMass().Add(s.Offset)
}

func (s *OffsetCenterOfMassShape) HalfExtent() mgl64.Vec3 { return s.Inner.HalfExtent() }
func (s *OffsetCenterOfMassShape) Volume() float64        { return s.Inner.Volume() }

// Inertia about the shifted point, using the parallel axis theorem on the diagonal.
func (s *OffsetCenterOfMassShape) Inertia(mass float64) mgl64.Vec3 {
	i := s.Inner.Inertia(mass)
	d := s.Offset
	return mgl64.Vec3{
		i[0] + mass*(d[1]*d[1]+d[2]*d[2]),
		i[1] + mass*(d[0]*d[0]+d[2]*d[2]),
		i[2] + mass*(d[0]*d[0]+d[1]*d[1]),
	}
}

// boxCorners writes the 8 local corners of a box with half extents h into dst.
func boxCorners(h mgl64.Vec3, dst *[8]mgl64.Vec3) {
	i := 0
	for _, sx := range [2]float64{-1, 1} {
		for _, sy := range [2]float64{-1, 1} {
			for _, sz := range [2]float64{-1, 1} {
				dst[i] = mgl64.Vec3{sx * h[0], sy * h[1], sz * h[2]}
				i++
			}
		}
	}
}
