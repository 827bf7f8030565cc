package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/rigs/config"
	"github.com/pthm-cable/rigs/jobs"
	"github.com/pthm-cable/rigs/physics"
)

func testConfig(t *testing.T) config.PhysicsConfig {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	p := cfg.Physics
	p.Workers = 2
	p.SleepTime = 0
	return p
}

func box(pos mgl64.Vec3, motion physics.MotionType, layer physics.ObjectLayer) physics.BodyCreationSettings {
	return physics.BodyCreationSettings{
		Shape:      physics.NewBoxShape(mgl64.Vec3{0.5, 0.5, 0.5}),
		Position:   pos,
		Rotation:   mgl64.QuatIdent(),
		MotionType: motion,
		Layer:      layer,
	}
}

type nopListener struct{ steps int }

func (l *nopListener) OnStep(physics.StepContext) { l.steps++ }

type nopConstraint struct{}

func (nopConstraint) BodyIDs() []physics.BodyID                          { return nil }
func (nopConstraint) DrawConstraint(*jobs.Worker, physics.DebugRenderer) {}

func TestNewTwicePanics(t *testing.T) {
	w := New(testConfig(t))
	defer w.Close()

	defer func() {
		if recover() == nil {
			t.Error("expected panic creating a second world")
		}
	}()
	New(testConfig(t))
}

func TestNewAfterCloseSucceeds(t *testing.T) {
	w := New(testConfig(t))
	w.Close()

	w2 := New(testConfig(t))
	defer w2.Close()
	if w2.Workers() != 2 {
		t.Errorf("expected 2 workers, got %d", w2.Workers())
	}
}

func TestGravityPullsDynamicBody(t *testing.T) {
	w := New(testConfig(t))
	defer w.Close()

	id, err := w.AddBody(box(mgl64.Vec3{0, 10, 0}, physics.MotionDynamic, physics.LayerDynamic), physics.Activate)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 30; i++ {
		w.Step(1.0 / 60)
	}
	b := w.Body(id)
	if b.Position()[1] >= 10 {
		t.Errorf("expected body to fall, y=%v", b.Position()[1])
	}
	if b.LinearVelocity()[1] >= 0 {
		t.Errorf("expected downward velocity, got %v", b.LinearVelocity())
	}
}

func TestStaticBodyDoesNotMove(t *testing.T) {
	w := New(testConfig(t))
	defer w.Close()

	id, err := w.AddBody(box(mgl64.Vec3{0, -0.5, 0}, physics.MotionStatic, physics.LayerStatic), physics.DontActivate)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 30; i++ {
		w.Step(1.0 / 60)
	}
	if p := w.Body(id).Position(); p != (mgl64.Vec3{0, -0.5, 0}) {
		t.Errorf("expected static body to stay put, got %v", p)
	}
}

func TestCountsAndClose(t *testing.T) {
	w := New(testConfig(t))

	ground, err := w.AddBody(box(mgl64.Vec3{}, physics.MotionStatic, physics.LayerStatic), physics.DontActivate)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.AddBody(box(mgl64.Vec3{0, 2, 0}, physics.MotionDynamic, physics.LayerDynamic), physics.Activate); err != nil {
		t.Fatal(err)
	}
	l := &nopListener{}
	c := nopConstraint{}
	w.AddStepListener(l)
	w.AddConstraint(c)

	if got, want := w.Counts(), (Counts{Bodies: 2, Constraints: 1, Listeners: 1}); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	w.Step(1.0 / 60)
	if l.steps != 1 {
		t.Errorf("expected listener to run once per step, ran %d", l.steps)
	}

	w.RemoveBody(ground)
	if w.Counts().Bodies != 1 {
		t.Errorf("expected 1 body after removal, got %d", w.Counts().Bodies)
	}

	w.Close()
	if got := w.Counts(); got != (Counts{}) {
		t.Errorf("expected no handles after close, got %+v", got)
	}
	if physics.Registered() {
		t.Error("expected engine types unregistered after close")
	}
	w.Close()
}

func TestRemoveUnregisteredIsIgnored(t *testing.T) {
	w := New(testConfig(t))
	defer w.Close()

	l := &nopListener{}
	w.AddStepListener(l)

	w.RemoveStepListener(&nopListener{})
	w.RemoveConstraint(nopConstraint{})
	w.RemoveBody(999)

	if got := w.Counts(); got.Listeners != 1 {
		t.Errorf("expected existing listener untouched, got %+v", got)
	}

	w.RemoveStepListener(l)
	w.RemoveStepListener(l)
	if got := w.Counts(); got.Listeners != 0 {
		t.Errorf("expected listener removed once, got %+v", got)
	}
}

type reentrantListener struct {
	w        *World
	panicked bool
}

func (l *reentrantListener) OnStep(physics.StepContext) {
	defer func() {
		if recover() != nil {
			l.panicked = true
		}
	}()
	l.w.Step(1.0 / 60)
}

func TestStepIsNotReentrant(t *testing.T) {
	w := New(testConfig(t))
	defer w.Close()

	l := &reentrantListener{w: w}
	w.AddStepListener(l)
	w.Step(1.0 / 60)

	if !l.panicked {
		t.Error("expected reentrant Step to panic")
	}
}

func TestAddBodyRespectsMaxBodies(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxBodies = 1
	w := New(cfg)
	defer w.Close()

	if _, err := w.AddBody(box(mgl64.Vec3{}, physics.MotionStatic, physics.LayerStatic), physics.DontActivate); err != nil {
		t.Fatal(err)
	}
	if _, err := w.AddBody(box(mgl64.Vec3{}, physics.MotionStatic, physics.LayerStatic), physics.DontActivate); err == nil {
		t.Error("expected error past max bodies")
	}
}
