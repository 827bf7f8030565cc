package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/rigs/jobs"
)

// Errors returned by System.
var (
	ErrTooManyBodies = errors.New("physics: body limit reached")
	ErrUnknownBody   = errors.New("physics: unknown body")
)

// StepContext is passed to step listeners.
type StepContext struct {
	DT     float64
	System *System
}

// StepListener is called once per step, before integration.
type StepListener interface {
	OnStep(ctx StepContext)
}

// Constraint is anything the system solves or draws alongside bodies.
type Constraint interface {
	// BodyIDs returns the bodies the constraint acts on.
	BodyIDs() []BodyID
	// DrawConstraint emits debug geometry for the constraint.
	DrawConstraint(w *jobs.Worker, r DebugRenderer)
}

// Settings configures a System.
type Settings struct {
	MaxBodies     int
	Gravity       mgl64.Vec3
	SleepVelocity float64
	SleepTime     float64
	BroadPhase    BroadPhaseLayerInterface
	ObjectVsBP    ObjectVsBroadPhaseLayerFilter
	PairFilter    ObjectLayerPairFilter
}

// System holds every body, constraint and step listener of one world.
//
// A System is single-writer: Update, body creation and removal, and
// constraint registration must all happen from the same goroutine. Update
// fans work out to the pool internally.
type System struct {
	settings Settings

	bodies map[BodyID]*Body
	order  []BodyID // insertion order for deterministic iteration
	nextID BodyID

	constraints []Constraint
	listeners   []StepListener

	// scratch reused across steps
	active []*Body
	static []*Body
}

// NewSystem creates an empty system. It panics if Init has not been called.
func NewSystem(s Settings) *System {
	if !Registered() {
		panic("physics: NewSystem called before Init")
	}
	if s.BroadPhase == nil {
		s.BroadPhase = NewTwoLayerBroadPhase()
	}
	if s.ObjectVsBP == nil {
		s.ObjectVsBP = StaticVsMovingFilter{}
	}
	if s.PairFilter == nil {
		s.PairFilter = StaticVsDynamicPairs{}
	}
	if s.MaxBodies <= 0 {
		s.MaxBodies = 1024
	}
	return &System{
		settings: s,
		bodies:   make(map[BodyID]*Body),
	}
}

// Gravity returns the gravity vector.
func (s *System) Gravity() mgl64.Vec3 { return s.settings.Gravity }

// SetGravity replaces the gravity vector.
func (s *System) SetGravity(g mgl64.Vec3) { s.settings.Gravity = g }

// PairFilter returns the object layer pair filter in use.
func (s *System) PairFilter() ObjectLayerPairFilter { return s.settings.PairFilter }

// CreateBody allocates a body without adding it to the simulation.
func (s *System) CreateBody(settings BodyCreationSettings) (BodyID, error) {
	if settings.Shape == nil {
		return 0, fmt.Errorf("physics: body has no shape")
	}
	if len(s.bodies) >= s.settings.MaxBodies {
		return 0, fmt.Errorf("creating body: %w (max %d)", ErrTooManyBodies, s.settings.MaxBodies)
	}
	s.nextID++
	id := s.nextID
	s.bodies[id] = newBody(id, settings)
	s.order = append(s.order, id)
	return id, nil
}

// AddBody inserts a created body into the simulation.
func (s *System) AddBody(id BodyID, activation Activation) error {
	b, ok := s.bodies[id]
	if !ok {
		return fmt.Errorf("adding body %d: %w", id, ErrUnknownBody)
	}
	b.added = true
	if activation == Activate {
		b.wake()
	}
	return nil
}

// CreateAndAddBody creates a body and adds it in one call.
func (s *System) CreateAndAddBody(settings BodyCreationSettings, activation Activation) (BodyID, error) {
	id, err := s.CreateBody(settings)
	if err != nil {
		return 0, err
	}
	if err := s.AddBody(id, activation); err != nil {
		return 0, err
	}
	return id, nil
}

// RemoveBody takes a body out of the simulation. The body stays allocated.
func (s *System) RemoveBody(id BodyID) error {
	b, ok := s.bodies[id]
	if !ok || !b.added {
		return fmt.Errorf("removing body %d: %w", id, ErrUnknownBody)
	}
	b.added = false
	b.active = false
	return nil
}

// DestroyBody frees a body. It must have been removed first.
func (s *System) DestroyBody(id BodyID) error {
	b, ok := s.bodies[id]
	if !ok {
		return fmt.Errorf("destroying body %d: %w", id, ErrUnknownBody)
	}
	if b.added {
		return fmt.Errorf("physics: destroying body %d that is still added", id)
	}
	delete(s.bodies, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Body returns the body with the given ID, or nil.
func (s *System) Body(id BodyID) *Body {
	return s.bodies[id]
}

// ActivateBody wakes a body.
func (s *System) ActivateBody(id BodyID) {
	if b := s.bodies[id]; b != nil && b.added {
		b.wake()
	}
}

// NumBodies returns the number of allocated bodies.
func (s *System) NumBodies() int { return len(s.bodies) }

// AddConstraint registers a constraint.
func (s *System) AddConstraint(c Constraint) {
	s.constraints = append(s.constraints, c)
}

// RemoveConstraint unregisters a constraint. It reports whether c was registered.
func (s *System) RemoveConstraint(c Constraint) bool {
	for i, o := range s.constraints {
		if o == c {
			s.constraints = append(s.constraints[:i], s.constraints[i+1:]...)
			return true
		}
	}
	return false
}

// NumConstraints returns the number of registered constraints.
func (s *System) NumConstraints() int { return len(s.constraints) }

// AddStepListener registers a listener.
func (s *System) AddStepListener(l StepListener) {
	s.listeners = append(s.listeners, l)
}

// RemoveStepListener unregisters a listener. It reports whether l was registered.
func (s *System) RemoveStepListener(l StepListener) bool {
	for i, o := range s.listeners {
		if o == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// NumStepListeners returns the number of registered listeners.
func (s *System) NumStepListeners() int { return len(s.listeners) }

// Constraints returns the registered constraints. The slice must not be modified.
func (s *System) Constraints() []Constraint { return s.constraints }

// StepListeners returns the registered listeners. The slice must not be modified.
func (s *System) StepListeners() []StepListener { return s.listeners }

// BodyIDs returns every allocated body in creation order.
func (s *System) BodyIDs() []BodyID {
	out := make([]BodyID, len(s.order))
	copy(out, s.order)
	return out
}

// Update advances the simulation by dt.
func (s *System) Update(dt float64, arena *TempArena, pool *jobs.Pool) {
	if dt <= 0 {
		return
	}
	arena.Reset()

	ctx := StepContext{DT: dt, System: s}
	for _, l := range s.listeners {
		l.OnStep(ctx)
	}

	s.gather()

	gravity := s.settings.Gravity
	active := s.active
	pool.Run(len(active), func(_ *jobs.Worker, start, end int) {
		for i := start; i < end; i++ {
			active[i].integrate(dt, gravity)
		}
	})

	s.resolveContacts(dt, arena, pool)

	for _, b := range active {
		b.updateSleep(dt, s.settings.SleepVelocity, s.settings.SleepTime)
	}
}

// gather splits added bodies into awake dynamic bodies and static bodies.
func (s *System) gather() {
	s.active = s.active[:0]
	s.static = s.static[:0]
	for _, id := range s.order {
		b := s.bodies[id]
		if !b.added {
			continue
		}
		if b.motion == MotionStatic {
			s.static = append(s.static, b)
		} else if b.active {
			s.active = append(s.active, b)
		} else {
			// Sleeping bodies still accumulate forces from listeners; drop them.
			b.force = mgl64.Vec3{}
			b.torque = mgl64.Vec3{}
		}
	}
}

const (
	floatsPerCorners = 8 * 3
	penetrationSlop  = 0.005
	correctionRate   = 0.4
)

// resolveContacts pushes box corners of awake bodies out of static boxes.
// Corner positions are computed in parallel into arena scratch; impulses are
// applied per body in parallel since static bodies never move.
func (s *System) resolveContacts(dt float64, arena *TempArena, pool *jobs.Pool) {
	active := s.active
	if len(active) == 0 || len(s.static) == 0 {
		return
	}
	corners := arena.Alloc(len(active) * floatsPerCorners)

	pool.Run(len(active), func(_ *jobs.Worker, start, end int) {
		var local [8]mgl64.Vec3
		for i := start; i < end; i++ {
			b := active[i]
			boxCorners(b.shape.HalfExtent(), &local)
			origin := b.Position()
			base := i * floatsPerCorners
			for c := range local {
				p := origin.Add(b.rotation.Rotate(local[c]))
				copy(corners[base+c*3:base+c*3+3], p[:])
			}
		}
	})

	static := s.static
	filter := s.settings.PairFilter
	pool.Run(len(active), func(_ *jobs.Worker, start, end int) {
		for i := start; i < end; i++ {
			b := active[i]
			base := i * floatsPerCorners
			for _, st := range static {
				if !filter.ShouldCollide(b.layer, st.layer) {
					continue
				}
				for c := 0; c < 8; c++ {
					p := mgl64.Vec3{corners[base+c*3], corners[base+c*3+1], corners[base+c*3+2]}
					n, depth, ok := st.boxPenetration(p)
					if !ok {
						continue
					}
					s.resolveCorner(b, st, p, n, depth)
				}
			}
		}
	})
}

// resolveCorner applies a normal and friction impulse at one penetrating corner.
func (s *System) resolveCorner(b, st *Body, p, n mgl64.Vec3, depth float64) {
	vp := b.PointVelocity(p)
	vn := vp.Dot(n)
	if vn < 0 {
		e := math.Max(b.restitution, st.restitution)
		kn := b.effectiveMassInv(n, p)
		jn := -(1 + e) * vn / kn
		b.applyImpulse(n.Mul(jn), p)

		vp = b.PointVelocity(p)
		vt := vp.Sub(n.Mul(vp.Dot(n)))
		if speed := vt.Len(); speed > 1e-6 {
			t := vt.Mul(1 / speed)
			kt := b.effectiveMassInv(t, p)
			jt := speed / kt
			mu := math.Sqrt(b.friction * st.friction)
			if maxT := mu * jn; jt > maxT {
				jt = maxT
			}
			b.applyImpulse(t.Mul(-jt), p)
		}
	}
	if corr := depth - penetrationSlop; corr > 0 {
		b.com = b.com.Add(n.Mul(corr * correctionRate / 8))
	}
}

// boxPenetration tests whether world point p is inside the body's box and
// returns the exit normal and depth along the shallowest face.
func (b *Body) boxPenetration(p mgl64.Vec3) (mgl64.Vec3, float64, bool) {
	h := b.shape.HalfExtent()
	local := b.rotation.Conjugate().Rotate(p.Sub(b.Position()))
	best := math.Inf(1)
	axis, sign := -1, 1.0
	for i := 0; i < 3; i++ {
		d := h[i] - math.Abs(local[i])
		if d <= 0 {
			return mgl64.Vec3{}, 0, false
		}
		if d < best {
			best = d
			axis = i
			sign = 1
			if local[i] < 0 {
				sign = -1
			}
		}
	}
	var n mgl64.Vec3
	n[axis] = sign
	return b.rotation.Rotate(n), best, true
}

// RayHit is the result of a ray cast.
type RayHit struct {
	Body     BodyID
	Distance float64
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
}

// CastRay finds the nearest body box hit by the ray origin + t*dir, t in
// [0, maxDist]. Bodies whose layer does not collide with layer, and the body
// ignore, are skipped. dir must be normalized.
func (s *System) CastRay(origin, dir mgl64.Vec3, maxDist float64, layer ObjectLayer, ignore BodyID) (RayHit, bool) {
	best := RayHit{Distance: maxDist}
	found := false
	for _, id := range s.order {
		b := s.bodies[id]
		if !b.added || id == ignore || !s.settings.PairFilter.ShouldCollide(layer, b.layer) {
			continue
		}
		t, n, ok := b.rayBox(origin, dir, best.Distance)
		if !ok {
			continue
		}
		best = RayHit{Body: id, Distance: t, Point: origin.Add(dir.Mul(t)), Normal: n}
		found = true
	}
	return best, found
}

// rayBox intersects a ray with the body's box using the slab method in local space.
func (b *Body) rayBox(origin, dir mgl64.Vec3, maxDist float64) (float64, mgl64.Vec3, bool) {
	h := b.shape.HalfExtent()
	inv := b.rotation.Conjugate()
	o := inv.Rotate(origin.Sub(b.Position()))
	d := inv.Rotate(dir)

	tMin, tMax := 0.0, maxDist
	nAxis, nSign := -1, 0.0
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if o[i] < -h[i] || o[i] > h[i] {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}
		t1 := (-h[i] - o[i]) / d[i]
		t2 := (h[i] - o[i]) / d[i]
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tMin {
			tMin = t1
			nAxis, nSign = i, sign
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, mgl64.Vec3{}, false
		}
	}
	if nAxis < 0 {
		// Origin inside the box.
		return 0, dir.Mul(-1), true
	}
	var n mgl64.Vec3
	n[nAxis] = nSign
	return tMin, b.rotation.Rotate(n), true
}
