package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/rigs/jobs"
)

// WheelSettings describes one wheel of a vehicle constraint.
type WheelSettings struct {
	// Position is the suspension attachment point relative to the body's center of mass.
	Position            mgl64.Vec3
	SuspensionMinLength float64
	SuspensionMaxLength float64
	SuspensionFrequency float64 // Hz
	SuspensionDamping   float64 // ratio
	Radius              float64
	Width               float64
	MaxSteerAngle       float64 // radians; 0 for wheels that do not steer
	MaxBrakeTorque      float64
	MaxHandBrakeTorque  float64 // 0 for wheels without a handbrake

	// When EnableTireForcePoint is set, longitudinal and lateral tire forces act
	// at TireForcePoint (relative to the center of mass, body axes) instead of
	// at the ground contact.
	EnableTireForcePoint bool
	TireForcePoint       mgl64.Vec3
}

// Engine holds the engine parameters of a wheeled controller.
type Engine struct {
	MaxTorque float64 // N·m at the wheel
}

// Differential splits engine torque between two wheels.
type Differential struct {
	LeftWheel         int
	RightWheel        int
	EngineTorqueRatio float64 // share of engine torque; ratios of all differentials sum to 1
	LeftRightSplit    float64 // share of this differential's torque sent to the left wheel
}

// WheeledVehicleControllerSettings configures the drivetrain.
type WheeledVehicleControllerSettings struct {
	Engine        Engine
	Differentials []Differential
	TireGrip      float64 // friction coefficient at the contact patch
	YawTorque     float64 // steering assist torque at full lock
	UprightTorque float64 // roll stabilisation stiffness, 0 to disable
}

// VehicleConstraintSettings configures a VehicleConstraint.
type VehicleConstraintSettings struct {
	Wheels     []WheelSettings
	Controller WheeledVehicleControllerSettings
	Layer      ObjectLayer // layer the wheel rays test against
}

// Wheel is the runtime state of one wheel.
type Wheel struct {
	Settings WheelSettings

	Contact          bool
	ContactBody      BodyID
	ContactPoint     mgl64.Vec3
	ContactNormal    mgl64.Vec3
	SuspensionLength float64
	SuspensionForce  float64
	SteerAngle       float64
	RotationAngle    float64
	AngularVelocity  float64
}

// VehicleConstraint turns a body into a ray-cast wheeled vehicle. It must be
// registered with the System both as a Constraint and as a StepListener.
type VehicleConstraint struct {
	sys        *System
	body       BodyID
	layer      ObjectLayer
	wheels     []Wheel
	controller *WheeledVehicleController
}

// NewVehicleConstraint creates a constraint for body. Registration is left to the caller.
func NewVehicleConstraint(sys *System, body BodyID, settings VehicleConstraintSettings) *VehicleConstraint {
	c := &VehicleConstraint{
		sys:    sys,
		body:   body,
		layer:  settings.Layer,
		wheels: make([]Wheel, len(settings.Wheels)),
	}
	for i, ws := range settings.Wheels {
		c.wheels[i] = Wheel{Settings: ws, SuspensionLength: ws.SuspensionMaxLength}
	}
	cs := settings.Controller
	c.controller = &WheeledVehicleController{
		constraint:    c,
		engine:        cs.Engine,
		differentials: append([]Differential(nil), cs.Differentials...),
		tireGrip:      cs.TireGrip,
		yawTorque:     cs.YawTorque,
		uprightTorque: cs.UprightTorque,
	}
	return c
}

// Body returns the vehicle body.
func (c *VehicleConstraint) Body() BodyID { return c.body }

// BodyIDs implements Constraint.
func (c *VehicleConstraint) BodyIDs() []BodyID { return []BodyID{c.body} }

// Controller returns the wheeled controller driving the constraint.
func (c *VehicleConstraint) Controller() *WheeledVehicleController { return c.controller }

// WheelCount returns the number of wheels.
func (c *VehicleConstraint) WheelCount() int { return len(c.wheels) }

// Wheel returns the state of wheel i.
func (c *VehicleConstraint) Wheel(i int) *Wheel { return &c.wheels[i] }

// SetBrakeTorque sets the brake torque of every wheel. Wheels with a handbrake
// get twice that as handbrake torque.
func (c *VehicleConstraint) SetBrakeTorque(torque float64) {
	for i := range c.wheels {
		w := &c.wheels[i].Settings
		w.MaxBrakeTorque = torque
		if w.MaxHandBrakeTorque > 0 {
			w.MaxHandBrakeTorque = 2 * torque
		}
	}
}

// WheelLocalTransform returns the pose of wheel i relative to the body's
// shape origin: the suspension offset is applied along body -Y, the steer
// angle about Y and the spin about the axle (X).
func (c *VehicleConstraint) WheelLocalTransform(i int) (mgl64.Vec3, mgl64.Quat) {
	w := &c.wheels[i]
	com := mgl64.Vec3{}
	if b := c.sys.Body(c.body); b != nil {
		com = b.shape.CenterOfMass()
	}
	pos := w.Settings.Position.Add(com).Sub(mgl64.Vec3{0, w.SuspensionLength, 0})
	rot := mgl64.QuatRotate(w.SteerAngle, mgl64.Vec3{0, 1, 0}).Mul(mgl64.QuatRotate(w.RotationAngle, mgl64.Vec3{1, 0, 0}))
	return pos, rot
}

// WheelWorldTransform returns the world pose of wheel i.
func (c *VehicleConstraint) WheelWorldTransform(i int) (mgl64.Vec3, mgl64.Quat) {
	b := c.sys.Body(c.body)
	pos, rot := c.WheelLocalTransform(i)
	if b == nil {
		return pos, rot
	}
	return b.Position().Add(b.rotation.Rotate(pos)), b.rotation.Mul(rot)
}

// OnStep solves suspension, drive, brake and tire forces before integration.
func (c *VehicleConstraint) OnStep(ctx StepContext) {
	b := c.sys.Body(c.body)
	if b == nil || !b.added || !b.active || len(c.wheels) == 0 {
		return
	}
	dt := ctx.DT
	ctrl := c.controller
	rot := b.rotation
	up := rot.Rotate(mgl64.Vec3{0, 1, 0})
	down := up.Mul(-1)
	mEff := b.mass / float64(len(c.wheels))

	drive := ctrl.wheelDriveForces()
	contacts := 0

	for i := range c.wheels {
		w := &c.wheels[i]
		ws := &w.Settings

		w.SteerAngle = -ctrl.right * ws.MaxSteerAngle
		attach := b.com.Add(rot.Rotate(ws.Position))

		hit, ok := c.sys.CastRay(attach, down, ws.SuspensionMaxLength+ws.Radius, c.layer, c.body)
		if !ok {
			w.Contact = false
			w.SuspensionLength = ws.SuspensionMaxLength
			w.SuspensionForce = 0
			w.RotationAngle += w.AngularVelocity * dt
			continue
		}
		contacts++

		raw := hit.Distance - ws.Radius
		length := clamp(raw, ws.SuspensionMinLength, ws.SuspensionMaxLength)
		w.Contact = true
		w.ContactBody = hit.Body
		w.ContactPoint = hit.Point
		w.ContactNormal = hit.Normal
		w.SuspensionLength = length

		// Spring-damper with the given frequency and damping ratio.
		omega := 2 * math.Pi * ws.SuspensionFrequency
		k := mEff * omega * omega
		cd := 2 * mEff * ws.SuspensionDamping * omega
		pointVel := b.PointVelocity(hit.Point)
		closing := pointVel.Dot(down)
		normal := k*(ws.SuspensionMaxLength-length) + cd*closing
		if raw < ws.SuspensionMinLength {
			normal += 4 * k * (ws.SuspensionMinLength - raw)
		}
		if normal < 0 {
			normal = 0
		}
		w.SuspensionForce = normal
		b.AddForceAtPoint(hit.Normal.Mul(normal), hit.Point)

		// Tire frame on the contact plane.
		steer := mgl64.QuatRotate(w.SteerAngle, mgl64.Vec3{0, 1, 0})
		fwd := rot.Mul(steer).Rotate(mgl64.Vec3{0, 0, 1})
		fwd = fwd.Sub(hit.Normal.Mul(fwd.Dot(hit.Normal)))
		if fwd.Len() < 1e-6 {
			continue
		}
		fwd = fwd.Normalize()
		side := hit.Normal.Cross(fwd).Normalize()

		vLong := pointVel.Dot(fwd)
		vLat := pointVel.Dot(side)

		long := drive[i]
		brakeTorque := ctrl.brake*ws.MaxBrakeTorque + ctrl.handBrake*ws.MaxHandBrakeTorque
		if brakeTorque > 0 {
			brakeF := brakeTorque / ws.Radius
			stop := math.Abs(vLong) * mEff / dt
			if brakeF > stop {
				brakeF = stop
			}
			long -= math.Copysign(brakeF, vLong)
		}
		lat := -vLat * mEff / dt * lateralStiffness

		// Friction circle.
		if limit := ctrl.tireGrip * normal; math.Hypot(long, lat) > limit {
			scale := limit / math.Hypot(long, lat)
			long *= scale
			lat *= scale
		}
		at := hit.Point
		if ws.EnableTireForcePoint {
			at = b.com.Add(rot.Rotate(ws.TireForcePoint))
		}
		b.AddForceAtPoint(fwd.Mul(long).Add(side.Mul(lat)), at)

		w.AngularVelocity = vLong / ws.Radius
		w.RotationAngle += w.AngularVelocity * dt
	}

	if contacts > 0 && ctrl.yawTorque != 0 {
		frac := float64(contacts) / float64(len(c.wheels))
		b.AddTorque(up.Mul(-ctrl.right * ctrl.yawTorque * frac))
	}

	if ctrl.uprightTorque > 0 {
		worldUp := mgl64.Vec3{0, 1, 0}
		fwd := rot.Rotate(mgl64.Vec3{0, 0, 1})
		roll := up.Cross(worldUp).Dot(fwd)
		rollRate := b.angVel.Dot(fwd)
		b.AddTorque(fwd.Mul(ctrl.uprightTorque * (roll - uprightDamping*rollRate)))
	}
}

const (
	lateralStiffness = 0.5
	uprightDamping   = 0.2
)

// DrawConstraint draws each wheel's suspension line and rim.
func (c *VehicleConstraint) DrawConstraint(w *jobs.Worker, r DebugRenderer) {
	b := c.sys.Body(c.body)
	if b == nil || !b.added {
		return
	}
	for i := range c.wheels {
		wh := &c.wheels[i]
		attach := b.com.Add(b.rotation.Rotate(wh.Settings.Position))
		center, rot := c.WheelWorldTransform(i)
		r.DrawLine(w, attach, center, ColorYellow)

		col := ColorRed
		if wh.Contact {
			col = ColorGreen
		}
		drawCircle(w, r, center, rot, wh.Settings.Radius, col)
	}
}

// drawCircle draws a wheel rim in the plane perpendicular to the local X axis.
func drawCircle(w *jobs.Worker, r DebugRenderer, center mgl64.Vec3, rot mgl64.Quat, radius float64, col Color) {
	const segments = 12
	prev := center.Add(rot.Rotate(mgl64.Vec3{0, radius, 0}))
	for s := 1; s <= segments; s++ {
		a := 2 * math.Pi * float64(s) / segments
		p := center.Add(rot.Rotate(mgl64.Vec3{0, radius * math.Cos(a), radius * math.Sin(a)}))
		r.DrawLine(w, prev, p, col)
		prev = p
	}
}

// WheeledVehicleController holds driver input and the drivetrain.
type WheeledVehicleController struct {
	constraint    *VehicleConstraint
	engine        Engine
	differentials []Differential
	tireGrip      float64
	yawTorque     float64
	uprightTorque float64

	forward, right, brake, handBrake float64
}

// SetDriverInput sets forward in [-1, 1], right in [-1, 1], brake and handBrake in [0, 1].
func (v *WheeledVehicleController) SetDriverInput(forward, right, brake, handBrake float64) {
	v.forward = clamp(forward, -1, 1)
	v.right = clamp(right, -1, 1)
	v.brake = clamp(brake, 0, 1)
	v.handBrake = clamp(handBrake, 0, 1)
}

// DriverInput returns the last input passed to SetDriverInput.
func (v *WheeledVehicleController) DriverInput() (forward, right, brake, handBrake float64) {
	return v.forward, v.right, v.brake, v.handBrake
}

// Engine returns the engine settings for in-place tuning.
func (v *WheeledVehicleController) Engine() *Engine { return &v.engine }

// Differentials returns the differentials. The slice must not be modified.
func (v *WheeledVehicleController) Differentials() []Differential { return v.differentials }

// SetYawTorque sets the steering assist torque at full lock.
func (v *WheeledVehicleController) SetYawTorque(t float64) { v.yawTorque = t }

// WheelLocalTransform returns the pose of wheel i relative to the body origin.
func (v *WheeledVehicleController) WheelLocalTransform(i int) (mgl64.Vec3, mgl64.Quat) {
	return v.constraint.WheelLocalTransform(i)
}

// wheelDriveForces returns the longitudinal drive force for each wheel.
func (v *WheeledVehicleController) wheelDriveForces() []float64 {
	out := make([]float64, len(v.constraint.wheels))
	if v.forward == 0 {
		return out
	}
	for _, d := range v.differentials {
		torque := v.forward * v.engine.MaxTorque * d.EngineTorqueRatio
		if d.LeftWheel >= 0 && d.LeftWheel < len(out) {
			r := v.constraint.wheels[d.LeftWheel].Settings.Radius
			out[d.LeftWheel] += torque * d.LeftRightSplit / r
		}
		if d.RightWheel >= 0 && d.RightWheel < len(out) {
			r := v.constraint.wheels[d.RightWheel].Settings.Radius
			out[d.RightWheel] += torque * (1 - d.LeftRightSplit) / r
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
