// Package world owns the physics system and everything it needs to step: the
// per-step temp arena, the worker pool and the collision layer policies.
package world

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/rigs/config"
	"github.com/pthm-cable/rigs/jobs"
	"github.com/pthm-cable/rigs/physics"
)

// Counts reports how many handles a World currently holds.
type Counts struct {
	Bodies      int
	Constraints int
	Listeners   int
}

// DebugSettings selects what DrawDebug emits.
type DebugSettings struct {
	Bodies      physics.DrawSettings
	Constraints bool
}

// World is a physics world plus its stepping resources.
//
// Only one World may exist at a time: New registers the engine's types and
// Close unregisters them.
type World struct {
	system *physics.System
	arena  *physics.TempArena
	pool   *jobs.Pool

	broadPhase physics.BroadPhaseLayerInterface
	objectVsBP physics.ObjectVsBroadPhaseLayerFilter
	pairFilter physics.ObjectLayerPairFilter

	friction    float64
	restitution float64

	stepping atomic.Bool
	closed   bool
}

// New initializes the engine and creates a world from cfg. It panics if a
// world is already alive.
func New(cfg config.PhysicsConfig) *World {
	physics.Init()

	workers := cfg.Workers
	if workers <= 0 {
		workers = jobs.DefaultWorkers()
	}

	w := &World{
		arena:       physics.NewTempArena(cfg.TempArenaBytes),
		pool:        jobs.NewPool(workers),
		broadPhase:  physics.NewTwoLayerBroadPhase(),
		objectVsBP:  physics.StaticVsMovingFilter{},
		pairFilter:  physics.StaticVsDynamicPairs{},
		friction:    cfg.Friction,
		restitution: cfg.Restitution,
	}
	w.system = physics.NewSystem(physics.Settings{
		MaxBodies:     cfg.MaxBodies,
		Gravity:       mgl64.Vec3(cfg.Gravity),
		SleepVelocity: cfg.SleepVelocity,
		SleepTime:     cfg.SleepTime,
		BroadPhase:    w.broadPhase,
		ObjectVsBP:    w.objectVsBP,
		PairFilter:    w.pairFilter,
	})

	slog.Info("physics world initialized",
		"workers", workers,
		"temp_arena_bytes", cfg.TempArenaBytes,
		"max_bodies", cfg.MaxBodies,
		"gravity", cfg.Gravity,
	)
	return w
}

// System returns the underlying physics system.
func (w *World) System() *physics.System { return w.system }

// Pool returns the worker pool the world steps on.
func (w *World) Pool() *jobs.Pool { return w.pool }

// Workers returns the number of pool workers.
func (w *World) Workers() int { return w.pool.Size() }

// Arena returns the per-step temp arena.
func (w *World) Arena() *physics.TempArena { return w.arena }

// Body returns the body with the given ID, or nil.
func (w *World) Body(id physics.BodyID) *physics.Body { return w.system.Body(id) }

// Step advances the world by exactly one step of dt seconds. Step is not
// reentrant; calling it from a step listener panics.
func (w *World) Step(dt float64) {
	if !w.stepping.CompareAndSwap(false, true) {
		panic("world: Step called while already stepping")
	}
	defer w.stepping.Store(false)
	w.system.Update(dt, w.arena, w.pool)
}

// AddBody creates a body and adds it to the simulation. Friction and
// restitution default to the world's values when unset.
func (w *World) AddBody(settings physics.BodyCreationSettings, activation physics.Activation) (physics.BodyID, error) {
	if settings.Friction == 0 {
		settings.Friction = w.friction
	}
	if settings.Restitution == 0 {
		settings.Restitution = w.restitution
	}
	id, err := w.system.CreateAndAddBody(settings, activation)
	if err != nil {
		return 0, fmt.Errorf("adding body: %w", err)
	}
	return id, nil
}

// RemoveBody removes and destroys a body. Removing an unknown body is logged and ignored.
func (w *World) RemoveBody(id physics.BodyID) {
	if err := w.system.RemoveBody(id); err != nil {
		slog.Error("remove body failed", "body", id, "error", err)
		return
	}
	if err := w.system.DestroyBody(id); err != nil {
		slog.Error("destroy body failed", "body", id, "error", err)
	}
}

// ActivateBody wakes a body.
func (w *World) ActivateBody(id physics.BodyID) { w.system.ActivateBody(id) }

// AddConstraint registers a constraint.
func (w *World) AddConstraint(c physics.Constraint) { w.system.AddConstraint(c) }

// RemoveConstraint unregisters a constraint. An unregistered constraint is logged and ignored.
func (w *World) RemoveConstraint(c physics.Constraint) {
	if !w.system.RemoveConstraint(c) {
		slog.Error("removing unregistered constraint", "constraint", fmt.Sprintf("%p", c))
	}
}

// AddStepListener registers a step listener.
func (w *World) AddStepListener(l physics.StepListener) { w.system.AddStepListener(l) }

// RemoveStepListener unregisters a step listener. An unregistered listener is logged and ignored.
func (w *World) RemoveStepListener(l physics.StepListener) {
	if !w.system.RemoveStepListener(l) {
		slog.Error("removing unregistered step listener", "listener", fmt.Sprintf("%p", l))
	}
}

// Counts returns the number of live bodies, constraints and step listeners.
func (w *World) Counts() Counts {
	if w.closed {
		return Counts{}
	}
	return Counts{
		Bodies:      w.system.NumBodies(),
		Constraints: w.system.NumConstraints(),
		Listeners:   w.system.NumStepListeners(),
	}
}

// DrawDebug runs the body and constraint debug passes on the worker pool.
func (w *World) DrawDebug(r physics.DebugRenderer, settings DebugSettings) {
	w.system.DrawBodies(settings.Bodies, r, w.pool)
	if settings.Constraints {
		w.system.DrawConstraints(r, w.pool)
	}
}

// Closed reports whether Close has been called.
func (w *World) Closed() bool { return w.closed }

// Close tears the world down: listeners, constraints, bodies, the worker pool,
// then the engine's type registration. Close is idempotent.
func (w *World) Close() {
	if w.closed {
		return
	}
	counts := w.Counts()

	for _, l := range append([]physics.StepListener(nil), w.system.StepListeners()...) {
		w.system.RemoveStepListener(l)
	}
	for _, c := range append([]physics.Constraint(nil), w.system.Constraints()...) {
		w.system.RemoveConstraint(c)
	}
	for _, id := range w.system.BodyIDs() {
		_ = w.system.RemoveBody(id)
		if err := w.system.DestroyBody(id); err != nil {
			slog.Error("destroy body failed during close", "body", id, "error", err)
		}
	}

	w.pool.Close()
	physics.Shutdown()
	w.closed = true

	slog.Info("physics world closed",
		"bodies", counts.Bodies,
		"constraints", counts.Constraints,
		"listeners", counts.Listeners,
	)
}
