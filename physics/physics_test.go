package physics

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/rigs/jobs"
)

const eps = 1e-9

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// newTestSystem registers types for the duration of the test.
func newTestSystem(t *testing.T) (*System, *TempArena, *jobs.Pool) {
	t.Helper()
	Init()
	pool := jobs.NewPool(2)
	t.Cleanup(func() {
		pool.Close()
		Shutdown()
	})
	sys := NewSystem(Settings{Gravity: mgl64.Vec3{0, -9.81, 0}})
	return sys, NewTempArena(1 << 20), pool
}

func addGround(t *testing.T, sys *System) BodyID {
	t.Helper()
	id, err := sys.CreateAndAddBody(BodyCreationSettings{
		Shape:      NewBoxShape(mgl64.Vec3{100, 0.5, 100}),
		Position:   mgl64.Vec3{0, -0.5, 0},
		Rotation:   mgl64.QuatIdent(),
		MotionType: MotionStatic,
		Layer:      LayerStatic,
		Friction:   0.8,
	}, DontActivate)
	if err != nil {
		t.Fatalf("creating ground: %v", err)
	}
	return id
}

func TestInitTwicePanics(t *testing.T) {
	Init()
	defer Shutdown()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on second Init")
		}
	}()
	Init()
}

func TestShutdownWithoutInitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on Shutdown without Init")
		}
	}()
	Shutdown()
}

func TestNewSystemWithoutInitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic creating a system before Init")
		}
	}()
	NewSystem(Settings{})
}

func TestTempArena(t *testing.T) {
	a := NewTempArena(32) // 4 floats
	if a.Capacity() != 4 {
		t.Fatalf("expected capacity 4, got %d", a.Capacity())
	}

	s := a.Alloc(3)
	if len(s) != 3 || a.Used() != 3 {
		t.Errorf("expected 3 floats used, got len=%d used=%d", len(s), a.Used())
	}
	s[0] = 42

	big := a.Alloc(2)
	if len(big) != 2 || a.Overflow() != 1 {
		t.Errorf("expected heap fallback, got len=%d overflow=%d", len(big), a.Overflow())
	}

	a.Reset()
	if a.Used() != 0 || a.Overflow() != 0 {
		t.Errorf("expected reset arena, got used=%d overflow=%d", a.Used(), a.Overflow())
	}
	if again := a.Alloc(3); again[0] != 0 {
		t.Errorf("expected zeroed allocation after reset, got %v", again[0])
	}
}

func TestLayerFilters(t *testing.T) {
	pairs := StaticVsDynamicPairs{}
	bp := NewTwoLayerBroadPhase()
	obp := StaticVsMovingFilter{}

	tests := []struct {
		a, b ObjectLayer
		want bool
	}{
		{LayerStatic, LayerStatic, false},
		{LayerStatic, LayerDynamic, true},
		{LayerDynamic, LayerStatic, true},
		{LayerDynamic, LayerDynamic, true},
	}
	for _, tt := range tests {
		if got := pairs.ShouldCollide(tt.a, tt.b); got != tt.want {
			t.Errorf("pair(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := obp.ShouldCollide(tt.a, bp.BroadPhaseLayer(tt.b)); got != tt.want {
			t.Errorf("object-vs-broadphase(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
	if bp.NumBroadPhaseLayers() != 2 {
		t.Errorf("expected 2 broad-phase layers, got %d", bp.NumBroadPhaseLayers())
	}
}

func TestOffsetCenterOfMassInertia(t *testing.T) {
	box := NewBoxShape(mgl64.Vec3{1, 0.5, 2})
	off := NewOffsetCenterOfMassShape(box, mgl64.Vec3{0, -0.45, 0})

	if got := off.CenterOfMass(); !approxEqual(got[1], -0.45, eps) {
		t.Errorf("expected COM y -0.45, got %v", got)
	}

	m := 100.0
	base := box.Inertia(m)
	shifted := off.Inertia(m)
	d2 := 0.45 * 0.45
	if !approxEqual(shifted[0], base[0]+m*d2, eps) || !approxEqual(shifted[2], base[2]+m*d2, eps) {
		t.Errorf("expected parallel axis shift on x and z, got %v from %v", shifted, base)
	}
	if !approxEqual(shifted[1], base[1], eps) {
		t.Errorf("expected y inertia unchanged, got %v vs %v", shifted[1], base[1])
	}
}

func TestBodyPositionExcludesCOMOffset(t *testing.T) {
	sys, _, _ := newTestSystem(t)
	shape := NewOffsetCenterOfMassShape(NewBoxShape(mgl64.Vec3{1, 0.5, 1}), mgl64.Vec3{0, -0.4, 0})
	id, err := sys.CreateAndAddBody(BodyCreationSettings{
		Shape:      shape,
		Position:   mgl64.Vec3{1, 2, 3},
		Rotation:   mgl64.QuatIdent(),
		MotionType: MotionDynamic,
		Layer:      LayerDynamic,
		Mass:       10,
	}, Activate)
	if err != nil {
		t.Fatal(err)
	}
	b := sys.Body(id)
	if !b.Position().ApproxEqualThreshold(mgl64.Vec3{1, 2, 3}, 1e-6) {
		t.Errorf("expected origin (1,2,3), got %v", b.Position())
	}
	if !b.CenterOfMass().ApproxEqualThreshold(mgl64.Vec3{1, 1.6, 3}, 1e-6) {
		t.Errorf("expected COM (1,1.6,3), got %v", b.CenterOfMass())
	}
	if b.Mass() != 10 {
		t.Errorf("expected mass override 10, got %v", b.Mass())
	}
}

func TestFreeFall(t *testing.T) {
	sys, arena, pool := newTestSystem(t)
	id, err := sys.CreateAndAddBody(BodyCreationSettings{
		Shape:      NewBoxShape(mgl64.Vec3{0.5, 0.5, 0.5}),
		Position:   mgl64.Vec3{0, 100, 0},
		Rotation:   mgl64.QuatIdent(),
		MotionType: MotionDynamic,
		Layer:      LayerDynamic,
	}, Activate)
	if err != nil {
		t.Fatal(err)
	}

	const steps = 60
	dt := 1.0 / steps
	for i := 0; i < steps; i++ {
		sys.Update(dt, arena, pool)
	}

	b := sys.Body(id)
	if v := b.LinearVelocity()[1]; !approxEqual(v, -9.81, 1e-6) {
		t.Errorf("expected vy -9.81 after 1s, got %v", v)
	}
	// Semi-implicit Euler: y = y0 - g dt² n(n+1)/2
	want := 100 - 9.81*dt*dt*steps*(steps+1)/2
	if y := b.Position()[1]; !approxEqual(y, want, 1e-6) {
		t.Errorf("expected y %v, got %v", want, y)
	}
}

func TestBoxRestsOnGround(t *testing.T) {
	sys, arena, pool := newTestSystem(t)
	addGround(t, sys)
	id, err := sys.CreateAndAddBody(BodyCreationSettings{
		Shape:          NewBoxShape(mgl64.Vec3{0.5, 0.5, 0.5}),
		Position:       mgl64.Vec3{0, 1.5, 0},
		Rotation:       mgl64.QuatIdent(),
		MotionType:     MotionDynamic,
		Layer:          LayerDynamic,
		AngularDamping: 0.5,
		Friction:       0.8,
	}, Activate)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 300; i++ {
		sys.Update(1.0/60, arena, pool)
	}

	y := sys.Body(id).Position()[1]
	if y < 0.35 || y > 0.65 {
		t.Errorf("expected box to rest near y=0.5, got %v", y)
	}
}

func TestCastRay(t *testing.T) {
	sys, _, _ := newTestSystem(t)
	ground := addGround(t, sys)

	hit, ok := sys.CastRay(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -1, 0}, 10, LayerDynamic, 0)
	if !ok {
		t.Fatal("expected ray to hit ground")
	}
	if hit.Body != ground || !approxEqual(hit.Distance, 5, 1e-9) {
		t.Errorf("expected hit on ground at 5, got body %d at %v", hit.Body, hit.Distance)
	}
	if !hit.Normal.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-6) {
		t.Errorf("expected up normal, got %v", hit.Normal)
	}

	if _, ok := sys.CastRay(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -1, 0}, 4, LayerDynamic, 0); ok {
		t.Error("expected miss when ground is beyond max distance")
	}
	if _, ok := sys.CastRay(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -1, 0}, 10, LayerStatic, 0); ok {
		t.Error("expected static rays to ignore static bodies")
	}
	if _, ok := sys.CastRay(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -1, 0}, 10, LayerDynamic, ground); ok {
		t.Error("expected ignored body to be skipped")
	}
}

func TestBodyLifecycle(t *testing.T) {
	sys, _, _ := newTestSystem(t)
	id := addGround(t, sys)

	if err := sys.DestroyBody(id); err == nil {
		t.Error("expected error destroying an added body")
	}
	if err := sys.RemoveBody(id); err != nil {
		t.Fatalf("removing body: %v", err)
	}
	if err := sys.RemoveBody(id); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("expected ErrUnknownBody on double remove, got %v", err)
	}
	if err := sys.DestroyBody(id); err != nil {
		t.Fatalf("destroying body: %v", err)
	}
	if sys.NumBodies() != 0 {
		t.Errorf("expected 0 bodies, got %d", sys.NumBodies())
	}
}

func TestMaxBodies(t *testing.T) {
	Init()
	defer Shutdown()
	sys := NewSystem(Settings{MaxBodies: 1})

	settings := BodyCreationSettings{Shape: NewBoxShape(mgl64.Vec3{1, 1, 1}), MotionType: MotionStatic}
	if _, err := sys.CreateBody(settings); err != nil {
		t.Fatal(err)
	}
	if _, err := sys.CreateBody(settings); !errors.Is(err, ErrTooManyBodies) {
		t.Errorf("expected ErrTooManyBodies, got %v", err)
	}
}

// testCar builds a sedan-like four wheel vehicle resting just above the ground.
func testCar(t *testing.T, sys *System) *VehicleConstraint {
	t.Helper()
	half := mgl64.Vec3{0.8, 0.3, 1.8}
	comY := -0.9 * half[1]
	radius, rest := 0.45, 0.5
	shape := NewOffsetCenterOfMassShape(NewBoxShape(half), mgl64.Vec3{0, comY, 0})
	id, err := sys.CreateAndAddBody(BodyCreationSettings{
		Shape:          shape,
		Position:       mgl64.Vec3{0, radius - comY + rest, 0},
		Rotation:       mgl64.QuatIdent(),
		MotionType:     MotionDynamic,
		Layer:          LayerDynamic,
		Mass:           1100,
		LinearDamping:  0.2,
		AngularDamping: 0.6,
		Friction:       0.8,
	}, Activate)
	if err != nil {
		t.Fatal(err)
	}

	var wheels []WheelSettings
	for _, z := range []float64{1.3, -1.3} {
		for _, x := range []float64{0.9, -0.9} {
			ws := WheelSettings{
				Position:            mgl64.Vec3{x, 0, z},
				SuspensionMinLength: 0.3,
				SuspensionMaxLength: 0.5,
				SuspensionFrequency: 1.5,
				SuspensionDamping:   0.5,
				Radius:              radius,
				Width:               0.3,
				MaxBrakeTorque:      4000 * radius,
			}
			if z > 0 {
				ws.MaxSteerAngle = math.Pi / 6
			} else {
				ws.MaxHandBrakeTorque = 2 * ws.MaxBrakeTorque
			}
			wheels = append(wheels, ws)
		}
	}
	c := NewVehicleConstraint(sys, id, VehicleConstraintSettings{
		Wheels: wheels,
		Controller: WheeledVehicleControllerSettings{
			Engine: Engine{MaxTorque: 8000 * radius},
			Differentials: []Differential{
				{LeftWheel: 0, RightWheel: 1, EngineTorqueRatio: 0.5, LeftRightSplit: 0.5},
				{LeftWheel: 2, RightWheel: 3, EngineTorqueRatio: 0.5, LeftRightSplit: 0.5},
			},
			TireGrip:  1.2,
			YawTorque: 1800,
		},
		Layer: LayerDynamic,
	})
	sys.AddConstraint(c)
	sys.AddStepListener(c)
	return c
}

func TestVehicleSettlesOnSuspension(t *testing.T) {
	sys, arena, pool := newTestSystem(t)
	addGround(t, sys)
	c := testCar(t, sys)

	for i := 0; i < 180; i++ {
		sys.Update(1.0/60, arena, pool)
	}

	for i := 0; i < c.WheelCount(); i++ {
		w := c.Wheel(i)
		if !w.Contact {
			t.Errorf("wheel %d: expected ground contact", i)
		}
		if w.SuspensionLength < w.Settings.SuspensionMinLength || w.SuspensionLength >= w.Settings.SuspensionMaxLength {
			t.Errorf("wheel %d: expected compressed suspension, got %v", i, w.SuspensionLength)
		}
	}
	b := sys.Body(c.Body())
	if v := b.LinearVelocity().Len(); v > 0.2 {
		t.Errorf("expected vehicle at rest, speed %v", v)
	}
}

func TestVehicleDrivesForward(t *testing.T) {
	sys, arena, pool := newTestSystem(t)
	addGround(t, sys)
	c := testCar(t, sys)

	for i := 0; i < 60; i++ {
		sys.Update(1.0/60, arena, pool)
	}
	for i := 0; i < 120; i++ {
		c.Controller().SetDriverInput(1, 0, 0, 0)
		sys.Update(1.0/60, arena, pool)
	}

	b := sys.Body(c.Body())
	fwd := b.Rotation().Rotate(mgl64.Vec3{0, 0, 1})
	if speed := b.LinearVelocity().Dot(fwd); speed < 2 {
		t.Errorf("expected forward speed > 2 after 2s of throttle, got %v", speed)
	}
	if b.Position()[2] <= 0 {
		t.Errorf("expected vehicle to move along +Z, got z=%v", b.Position()[2])
	}
}

// testKart builds a short, tall four wheel vehicle whose tire forces act
// depth below the center of mass.
func testKart(t *testing.T, sys *System, depth float64) *VehicleConstraint {
	t.Helper()
	half := mgl64.Vec3{0.6, 0.2, 1.1}
	comY := -0.9 * half[1]
	radius, rest := 0.35, 0.5
	shape := NewOffsetCenterOfMassShape(NewBoxShape(half), mgl64.Vec3{0, comY, 0})
	id, err := sys.CreateAndAddBody(BodyCreationSettings{
		Shape:          shape,
		Position:       mgl64.Vec3{0, radius - comY + rest, 0},
		Rotation:       mgl64.QuatIdent(),
		MotionType:     MotionDynamic,
		Layer:          LayerDynamic,
		Mass:           450,
		LinearDamping:  0.2,
		AngularDamping: 0.6,
		Friction:       0.8,
	}, Activate)
	if err != nil {
		t.Fatal(err)
	}

	var wheels []WheelSettings
	for _, z := range []float64{0.9, -0.9} {
		for _, x := range []float64{0.7, -0.7} {
			ws := WheelSettings{
				Position:             mgl64.Vec3{x, 0, z},
				SuspensionMinLength:  0.3,
				SuspensionMaxLength:  0.5,
				SuspensionFrequency:  1.5,
				SuspensionDamping:    0.5,
				Radius:               radius,
				Width:                0.25,
				MaxBrakeTorque:       4000 * radius,
				EnableTireForcePoint: true,
				TireForcePoint:       mgl64.Vec3{x, -depth, z},
			}
			if z < 0 {
				ws.MaxHandBrakeTorque = 2 * ws.MaxBrakeTorque
			}
			wheels = append(wheels, ws)
		}
	}
	c := NewVehicleConstraint(sys, id, VehicleConstraintSettings{
		Wheels: wheels,
		Controller: WheeledVehicleControllerSettings{
			Engine: Engine{MaxTorque: 4500 * radius},
			Differentials: []Differential{
				{LeftWheel: 0, RightWheel: 1, EngineTorqueRatio: 0.5, LeftRightSplit: 0.5},
				{LeftWheel: 2, RightWheel: 3, EngineTorqueRatio: 0.5, LeftRightSplit: 0.5},
			},
			TireGrip: 1.2,
		},
		Layer: LayerDynamic,
	})
	sys.AddConstraint(c)
	sys.AddStepListener(c)
	return c
}

func TestTireForcePointKeepsShortVehicleUprightUnderBraking(t *testing.T) {
	sys, arena, pool := newTestSystem(t)
	addGround(t, sys)
	c := testKart(t, sys, 0.3)
	b := sys.Body(c.Body())

	minUp := 1.0
	run := func(n int, forward, brake, handBrake float64) {
		for i := 0; i < n; i++ {
			c.Controller().SetDriverInput(forward, 0, brake, handBrake)
			sys.Update(1.0/60, arena, pool)
			if up := b.Rotation().Rotate(mgl64.Vec3{0, 1, 0})[1]; up < minUp {
				minUp = up
			}
		}
	}
	run(60, 0, 0, 0)
	run(180, 1, 0, 0)
	if speed := b.LinearVelocity().Len(); speed < 5 {
		t.Fatalf("expected the kart to get up to speed, got %v", speed)
	}
	run(120, 0, 1, 1)

	if minUp < 0.8 {
		t.Errorf("expected the kart to stay upright while braking, min up.y %v", minUp)
	}
	if speed := b.LinearVelocity().Len(); speed > 1 {
		t.Errorf("expected the kart to stop, speed %v", speed)
	}
}

func TestDriverInputClamped(t *testing.T) {
	sys, _, _ := newTestSystem(t)
	c := testCar(t, sys)

	c.Controller().SetDriverInput(3, -2, 5, -1)
	f, r, b, h := c.Controller().DriverInput()
	if f != 1 || r != -1 || b != 1 || h != 0 {
		t.Errorf("expected clamped input (1,-1,1,0), got (%v,%v,%v,%v)", f, r, b, h)
	}
}

func TestWheelDriveForcesSumToEngineForce(t *testing.T) {
	sys, _, _ := newTestSystem(t)
	c := testCar(t, sys)

	c.Controller().SetDriverInput(1, 0, 0, 0)
	total := 0.0
	for _, f := range c.Controller().wheelDriveForces() {
		total += f
	}
	if !approxEqual(total, 8000, 1e-6) {
		t.Errorf("expected total drive force 8000, got %v", total)
	}
}

func TestWheelLocalTransformAtRest(t *testing.T) {
	sys, _, _ := newTestSystem(t)
	c := testCar(t, sys)

	pos, rot := c.WheelLocalTransform(0)
	// attachment (0.9, 0, 1.3) relative to COM, COM at y -0.27, suspension fully extended
	want := mgl64.Vec3{0.9, -0.27 - 0.5, 1.3}
	if !pos.ApproxEqualThreshold(want, 1e-6) {
		t.Errorf("expected wheel at %v, got %v", want, pos)
	}
	if !rot.ApproxEqualThreshold(mgl64.QuatIdent(), 1e-6) {
		t.Errorf("expected identity rotation, got %v", rot)
	}
}

func TestSetBrakeTorque(t *testing.T) {
	sys, _, _ := newTestSystem(t)
	c := testCar(t, sys)

	c.SetBrakeTorque(100)
	for i := 0; i < c.WheelCount(); i++ {
		ws := c.Wheel(i).Settings
		if ws.MaxBrakeTorque != 100 {
			t.Errorf("wheel %d: expected brake torque 100, got %v", i, ws.MaxBrakeTorque)
		}
		front := ws.Position[2] > 0
		if front && ws.MaxHandBrakeTorque != 0 {
			t.Errorf("wheel %d: front wheel must not have a handbrake", i)
		}
		if !front && ws.MaxHandBrakeTorque != 200 {
			t.Errorf("wheel %d: expected handbrake 200, got %v", i, ws.MaxHandBrakeTorque)
		}
	}
}

type countingRenderer struct {
	mu    sync.Mutex
	lines int
}

func (r *countingRenderer) DrawLine(_ *jobs.Worker, _, _ mgl64.Vec3, _ Color) {
	r.mu.Lock()
	r.lines++
	r.mu.Unlock()
}

func (r *countingRenderer) DrawText3D(*jobs.Worker, mgl64.Vec3, string, Color, float64) {}

func TestDrawBodies(t *testing.T) {
	sys, _, pool := newTestSystem(t)
	addGround(t, sys)

	tests := []struct {
		name     string
		settings DrawSettings
		want     int
	}{
		{"none", DrawSettings{}, 0},
		{"shape", DrawSettings{DrawShape: true}, 12},
		{"shape and com", DrawSettings{DrawShape: true, DrawCenterOfMassTransform: true}, 15},
		{"bounding box", DrawSettings{DrawBoundingBox: true}, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &countingRenderer{}
			sys.DrawBodies(tt.settings, r, pool)
			if r.lines != tt.want {
				t.Errorf("expected %d lines, got %d", tt.want, r.lines)
			}
		})
	}
}

func TestDrawConstraints(t *testing.T) {
	sys, _, pool := newTestSystem(t)
	c := testCar(t, sys)

	r := &countingRenderer{}
	sys.DrawConstraints(r, pool)
	// one suspension line plus a 12 segment rim per wheel
	if want := c.WheelCount() * 13; r.lines != want {
		t.Errorf("expected %d lines, got %d", want, r.lines)
	}
}

func TestRemoveUnknownRegistrations(t *testing.T) {
	sys, _, _ := newTestSystem(t)
	c := testCar(t, sys)

	if !sys.RemoveStepListener(c) || !sys.RemoveConstraint(c) {
		t.Fatal("expected first removal to succeed")
	}
	if sys.RemoveStepListener(c) || sys.RemoveConstraint(c) {
		t.Error("expected second removal to report false")
	}
}
