// Package camera provides the 3D viewing camera: a free orbit around a point
// and a third-person chase mode that follows the active vehicle.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/rigs/config"
)

// Mode selects how the camera is positioned.
type Mode uint8

const (
	ModeOrbit Mode = iota
	ModeThirdPerson
)

func (m Mode) String() string {
	if m == ModeThirdPerson {
		return "third-person"
	}
	return "orbit"
}

var worldUp = mgl64.Vec3{0, 1, 0}

// Camera controls the viewpoint into the scene.
type Camera struct {
	// Eye and look-at point in world coordinates
	Position, Target mgl64.Vec3

	// Vertical field of view in degrees
	FOV float64

	Mode Mode

	// Orbit state (degrees and meters)
	OrbitTarget mgl64.Vec3
	Yaw, Pitch  float64
	Distance    float64

	// Orbit constraints
	MinDistance, MaxDistance float64
	MinPitch, MaxPitch       float64

	// Third-person offsets
	FollowDistance float64
	FollowHeight   float64
	LookHeight     float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	defaults config.CameraConfig
}

// New creates an orbit camera from config.
func New(cfg config.CameraConfig, viewportW, viewportH float64) *Camera {
	c := &Camera{
		FOV:         cfg.FOV,
		MinDistance: 2,
		MaxDistance: 200,
		MinPitch:    -89,
		MaxPitch:    89,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		defaults:    cfg,
	}
	c.Reset()
	return c
}

// Reset returns the camera to the configured orbit and follow offsets. The mode is kept.
func (c *Camera) Reset() {
	c.OrbitTarget = mgl64.Vec3(c.defaults.OrbitTarget)
	c.Yaw = c.defaults.OrbitYaw
	c.Pitch = c.defaults.OrbitPitch
	c.Distance = c.defaults.OrbitDistance
	c.FollowDistance = c.defaults.ThirdPersonDistance
	c.FollowHeight = c.defaults.ThirdPersonHeight
	c.LookHeight = c.defaults.ThirdPersonLookAt
	if c.Mode == ModeOrbit {
		c.updateOrbit()
	}
}

// Toggle switches between orbit and third-person mode.
func (c *Camera) Toggle() {
	if c.Mode == ModeOrbit {
		c.Mode = ModeThirdPerson
		return
	}
	c.Mode = ModeOrbit
	c.updateOrbit()
}

// Orbit rotates the orbit camera by the given yaw and pitch deltas in degrees.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = mod(c.Yaw+dYaw, 360)
	c.Pitch = clamp(c.Pitch+dPitch, c.MinPitch, c.MaxPitch)
	if c.Mode == ModeOrbit {
		c.updateOrbit()
	}
}

// ZoomBy scales the orbit distance by factor, clamped to min/max.
func (c *Camera) ZoomBy(factor float64) {
	c.Distance = clamp(c.Distance*factor, c.MinDistance, c.MaxDistance)
	if c.Mode == ModeOrbit {
		c.updateOrbit()
	}
}

// updateOrbit places the eye on a sphere around the orbit target.
func (c *Camera) updateOrbit() {
	yaw := mgl64.DegToRad(c.Yaw)
	pitch := mgl64.DegToRad(c.Pitch)
	offset := mgl64.Vec3{
		math.Cos(pitch) * math.Sin(yaw),
		math.Sin(pitch),
		math.Cos(pitch) * math.Cos(yaw),
	}.Mul(c.Distance)
	c.Target = c.OrbitTarget
	c.Position = c.OrbitTarget.Add(offset)
}

// Follow places a third-person camera behind a target with the given pose.
// It does nothing in orbit mode.
func (c *Camera) Follow(targetPos mgl64.Vec3, targetRot mgl64.Quat) {
	if c.Mode != ModeThirdPerson {
		return
	}
	fwd := targetRot.Rotate(mgl64.Vec3{0, 0, 1})
	// Stay level when the target pitches or rolls.
	flat := mgl64.Vec3{fwd[0], 0, fwd[2]}
	if flat.Len() > 1e-6 {
		fwd = flat.Normalize()
	}
	c.Position = targetPos.Sub(fwd.Mul(c.FollowDistance)).Add(worldUp.Mul(c.FollowHeight))
	c.Target = targetPos.Add(worldUp.Mul(c.LookHeight))
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float64) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Aspect returns the viewport aspect ratio.
func (c *Camera) Aspect() float64 {
	if c.ViewportH == 0 {
		return 1
	}
	return c.ViewportW / c.ViewportH
}

// Forward returns the unit view direction.
func (c *Camera) Forward() mgl64.Vec3 {
	d := c.Target.Sub(c.Position)
	if d.Len() < 1e-9 {
		return mgl64.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// ViewProjection returns the combined projection * view matrix.
func (c *Camera) ViewProjection(near, far float64) mgl64.Mat4 {
	view := mgl64.LookAtV(c.Position, c.Target, worldUp)
	proj := mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect(), near, far)
	return proj.Mul4(view)
}

// WorldToScreen projects a world point to screen pixels. The second result is
// false when the point is behind the camera.
func (c *Camera) WorldToScreen(p mgl64.Vec3) (mgl64.Vec2, bool) {
	clip := c.ViewProjection(0.1, 1000).Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return mgl64.Vec2{}, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	return mgl64.Vec2{
		(ndc[0] + 1) / 2 * c.ViewportW,
		(1 - ndc[1]) / 2 * c.ViewportH,
	}, true
}

// mod computes the positive modulo (Go's math.Mod can return negative).
func mod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
