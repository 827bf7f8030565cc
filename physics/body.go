package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyID identifies a body within a System. Zero is never a valid ID.
type BodyID uint32

// MotionType selects how a body moves.
type MotionType uint8

const (
	MotionStatic MotionType = iota
	MotionDynamic
)

// Activation selects whether AddBody wakes the body.
type Activation uint8

const (
	Activate Activation = iota
	DontActivate
)

// BodyCreationSettings describes a body to create.
type BodyCreationSettings struct {
	Shape          Shape
	Position       mgl64.Vec3 // shape origin in world space
	Rotation       mgl64.Quat
	MotionType     MotionType
	Layer          ObjectLayer
	LinearDamping  float64
	AngularDamping float64
	// Mass overrides the density-derived mass; inertia is always calculated from the shape.
	Mass        float64
	Friction    float64
	Restitution float64
}

// density used when no mass override is given, in kg/m³.
const defaultDensity = 1000

// Body is a rigid body. Fields are only written by the System during a step or
// by the owner between steps.
type Body struct {
	id     BodyID
	shape  Shape
	layer  ObjectLayer
	motion MotionType

	com      mgl64.Vec3 // center of mass in world space
	rotation mgl64.Quat
	linVel   mgl64.Vec3
	angVel   mgl64.Vec3

	mass       float64
	invMass    float64
	invInertia mgl64.Vec3 // local diagonal

	linearDamping  float64
	angularDamping float64
	friction       float64
	restitution    float64

	force  mgl64.Vec3
	torque mgl64.Vec3

	added      bool
	active     bool
	sleepTimer float64
}

func newBody(id BodyID, s BodyCreationSettings) *Body {
	rot := s.Rotation
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	rot = rot.Normalize()

	b := &Body{
		id:             id,
		shape:          s.Shape,
		layer:          s.Layer,
		motion:         s.MotionType,
		rotation:       rot,
		linearDamping:  s.LinearDamping,
		angularDamping: s.AngularDamping,
		friction:       s.Friction,
		restitution:    s.Restitution,
	}
	b.com = s.Position.Add(rot.Rotate(s.Shape.CenterOfMass()))

	if s.MotionType == MotionDynamic {
		mass := s.Mass
		if mass <= 0 {
			mass = defaultDensity * s.Shape.Volume()
		}
		b.mass = mass
		b.invMass = 1 / mass
		inertia := s.Shape.Inertia(mass)
		for i := 0; i < 3; i++ {
			if inertia[i] > 0 {
				b.invInertia[i] = 1 / inertia[i]
			}
		}
	}
	return b
}

// ID returns the body's identifier.
func (b *Body) ID() BodyID { return b.id }

// Layer returns the body's object layer.
func (b *Body) Layer() ObjectLayer { return b.layer }

// IsStatic reports whether the body never moves.
func (b *Body) IsStatic() bool { return b.motion == MotionStatic }

// IsActive reports whether the body is awake.
func (b *Body) IsActive() bool { return b.active }

// Mass returns the body mass; zero for static bodies.
func (b *Body) Mass() float64 { return b.mass }

// Shape returns the body shape.
func (b *Body) Shape() Shape { return b.shape }

// Position returns the world position of the shape origin.
func (b *Body) Position() mgl64.Vec3 {
	return b.com.Sub(b.rotation.Rotate(b.shape.CenterOfMass()))
}

// CenterOfMass returns the world position of the center of mass.
func (b *Body) CenterOfMass() mgl64.Vec3 { return b.com }

// Rotation returns the body orientation.
func (b *Body) Rotation() mgl64.Quat { return b.rotation }

// LinearVelocity returns the velocity of the center of mass.
func (b *Body) LinearVelocity() mgl64.Vec3 { return b.linVel }

// AngularVelocity returns the angular velocity in world space.
func (b *Body) AngularVelocity() mgl64.Vec3 { return b.angVel }

// SetLinearVelocity sets the velocity of the center of mass.
func (b *Body) SetLinearVelocity(v mgl64.Vec3) { b.linVel = v }

// SetAngularVelocity sets the world-space angular velocity.
func (b *Body) SetAngularVelocity(w mgl64.Vec3) { b.angVel = w }

// SetPositionAndRotation moves the shape origin to pos with orientation rot.
func (b *Body) SetPositionAndRotation(pos mgl64.Vec3, rot mgl64.Quat) {
	b.rotation = rot.Normalize()
	b.com = pos.Add(b.rotation.Rotate(b.shape.CenterOfMass()))
}

// AddForce accumulates a force at the center of mass.
func (b *Body) AddForce(f mgl64.Vec3) {
	b.force = b.force.Add(f)
}

// AddTorque accumulates a world-space torque.
func (b *Body) AddTorque(t mgl64.Vec3) {
	b.torque = b.torque.Add(t)
}

// AddForceAtPoint accumulates a force applied at a world-space point.
func (b *Body) AddForceAtPoint(f, point mgl64.Vec3) {
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(point.Sub(b.com).Cross(f))
}

// PointVelocity returns the world velocity of a world-space point on the body.
func (b *Body) PointVelocity(point mgl64.Vec3) mgl64.Vec3 {
	return b.linVel.Add(b.angVel.Cross(point.Sub(b.com)))
}

// applyInvInertia multiplies a world vector by the world inverse inertia tensor.
func (b *Body) applyInvInertia(v mgl64.Vec3) mgl64.Vec3 {
	local := b.rotation.Conjugate().Rotate(v)
	local = mgl64.Vec3{local[0] * b.invInertia[0], local[1] * b.invInertia[1], local[2] * b.invInertia[2]}
	return b.rotation.Rotate(local)
}

// applyImpulse applies an impulse j at world point p.
func (b *Body) applyImpulse(j, p mgl64.Vec3) {
	if b.invMass == 0 {
		return
	}
	b.linVel = b.linVel.Add(j.Mul(b.invMass))
	b.angVel = b.angVel.Add(b.applyInvInertia(p.Sub(b.com).Cross(j)))
}

// effectiveMassInv returns 1/m_eff for an impulse along n at world point p.
func (b *Body) effectiveMassInv(n, p mgl64.Vec3) float64 {
	r := p.Sub(b.com)
	rn := r.Cross(n)
	return b.invMass + n.Dot(b.applyInvInertia(rn).Cross(r))
}

// integrate advances the body by dt using semi-implicit Euler.
func (b *Body) integrate(dt float64, gravity mgl64.Vec3) {
	acc := gravity.Add(b.force.Mul(b.invMass))
	b.linVel = b.linVel.Add(acc.Mul(dt))
	b.angVel = b.angVel.Add(b.applyInvInertia(b.torque).Mul(dt))

	b.linVel = b.linVel.Mul(math.Max(0, 1-b.linearDamping*dt))
	b.angVel = b.angVel.Mul(math.Max(0, 1-b.angularDamping*dt))

	b.com = b.com.Add(b.linVel.Mul(dt))

	// q' = q + 0.5 * (0, ω) * q * dt
	w := mgl64.Quat{W: 0, V: b.angVel}
	dq := w.Mul(b.rotation).Scale(0.5 * dt)
	b.rotation = b.rotation.Add(dq).Normalize()

	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}

// updateSleep puts the body to sleep after it has been slow for sleepTime seconds.
func (b *Body) updateSleep(dt, sleepVelocity, sleepTime float64) {
	if sleepTime <= 0 {
		return
	}
	if b.linVel.Len() < sleepVelocity && b.angVel.Len() < sleepVelocity {
		b.sleepTimer += dt
		if b.sleepTimer >= sleepTime {
			b.active = false
			b.linVel = mgl64.Vec3{}
			b.angVel = mgl64.Vec3{}
		}
		return
	}
	b.sleepTimer = 0
}

// wake marks the body active and restarts its sleep timer.
func (b *Body) wake() {
	if b.motion == MotionStatic {
		return
	}
	b.active = true
	b.sleepTimer = 0
}
