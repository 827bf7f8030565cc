package vehicle

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rigs/config"
	"github.com/pthm-cable/rigs/input"
	"github.com/pthm-cable/rigs/physics"
	"github.com/pthm-cable/rigs/scene"
	"github.com/pthm-cable/rigs/world"
)

// Settings are the tunables that may change while driving.
type Settings struct {
	EngineForce float64
	MaxSpeed    float64
	SteerTorque float64
	BrakeForce  float64
}

// Options carries the config sections shared by every vehicle.
type Options struct {
	Suspension  config.SuspensionConfig
	Arbitration config.ArbitrationConfig
}

// OptionsFromConfig extracts Options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{Suspension: cfg.Suspension, Arbitration: cfg.Arbitration}
}

// Vehicle is a chassis body, its wheeled constraint and its visual model.
type Vehicle struct {
	world *world.World
	scene *scene.Scene

	tuning   Tuning
	settings Settings
	opts     Options

	body       physics.BodyID
	constraint *physics.VehicleConstraint
	model      scene.VehicleModel

	lastCommand Command
	closed      bool
}

// New builds a vehicle at spawn (the chassis origin) and registers it with w.
// Visual nodes go under the scene root.
func New(w *world.World, sc *scene.Scene, t Tuning, opts Options, spawn mgl64.Vec3) (*Vehicle, error) {
	if t.WheelCount() == 0 {
		return nil, fmt.Errorf("vehicle: %s has no wheels", t.Archetype)
	}

	comOffset := COMOffset(t, opts.Suspension)
	shape := physics.NewOffsetCenterOfMassShape(
		physics.NewBoxShape(t.HalfExtent),
		mgl64.Vec3{0, comOffset, 0},
	)
	body, err := w.AddBody(physics.BodyCreationSettings{
		Shape:          shape,
		Position:       spawn,
		Rotation:       mgl64.QuatIdent(),
		MotionType:     physics.MotionDynamic,
		Layer:          physics.LayerDynamic,
		LinearDamping:  t.LinearDamping,
		AngularDamping: t.AngularDamping,
		Mass:           t.Mass,
	}, physics.Activate)
	if err != nil {
		return nil, fmt.Errorf("creating %s chassis: %w", t.Archetype, err)
	}

	c := physics.NewVehicleConstraint(w.System(), body, physics.VehicleConstraintSettings{
		Wheels: WheelLayout(t, opts.Suspension),
		Controller: physics.WheeledVehicleControllerSettings{
			Engine:        physics.Engine{MaxTorque: t.EngineForce * t.WheelRadius},
			Differentials: Differentials(t, opts.Suspension.MaxPairs),
			TireGrip:      opts.Suspension.TireGrip,
			YawTorque:     t.SteerTorque,
			UprightTorque: t.UprightAssist,
		},
		Layer: physics.LayerDynamic,
	})
	w.AddConstraint(c)
	w.AddStepListener(c)

	v := &Vehicle{
		world:      w,
		scene:      sc,
		tuning:     t,
		opts:       opts,
		body:       body,
		constraint: c,
		settings: Settings{
			EngineForce: t.EngineForce,
			MaxSpeed:    t.MaxSpeed,
			SteerTorque: t.SteerTorque,
			BrakeForce:  t.BrakeForce,
		},
	}
	if sc != nil {
		v.model = sc.BuildVehicleModel(ecs.Entity{}, scene.ModelSpec{
			HalfExtent:  t.HalfExtent,
			WheelRadius: t.WheelRadius,
			WheelWidth:  t.WheelWidth,
			WheelCount:  t.WheelCount(),
			Color:       t.Color,
		})
		v.SyncVisual()
	}

	slog.Debug("vehicle created",
		"archetype", t.Archetype.String(),
		"wheels", t.WheelCount(),
		"mass", t.Mass,
		"spawn", spawn,
	)
	return v, nil
}

// Archetype returns the vehicle kind.
func (v *Vehicle) Archetype() Archetype { return v.tuning.Archetype }

// Tuning returns the archetype tuning the vehicle was built from.
func (v *Vehicle) Tuning() Tuning { return v.tuning }

// Settings returns the live tunables. Changes take effect on the next ApplyInput.
func (v *Vehicle) Settings() *Settings { return &v.settings }

// Body returns the chassis body ID.
func (v *Vehicle) Body() physics.BodyID { return v.body }

// Constraint returns the wheeled constraint.
func (v *Vehicle) Constraint() *physics.VehicleConstraint { return v.constraint }

// Model returns the visual nodes.
func (v *Vehicle) Model() scene.VehicleModel { return v.model }

// LastCommand returns the command sent by the last ApplyInput.
func (v *Vehicle) LastCommand() Command { return v.lastCommand }

// Position returns the chassis origin.
func (v *Vehicle) Position() mgl64.Vec3 {
	if b := v.world.Body(v.body); b != nil {
		return b.Position()
	}
	return mgl64.Vec3{}
}

// Rotation returns the chassis orientation.
func (v *Vehicle) Rotation() mgl64.Quat {
	if b := v.world.Body(v.body); b != nil {
		return b.Rotation()
	}
	return mgl64.QuatIdent()
}

// Speed returns the magnitude of the chassis velocity.
func (v *Vehicle) Speed() float64 {
	if b := v.world.Body(v.body); b != nil {
		return b.LinearVelocity().Len()
	}
	return 0
}

// ForwardSpeed returns the chassis velocity along its forward (+Z) axis.
func (v *Vehicle) ForwardSpeed() float64 {
	b := v.world.Body(v.body)
	if b == nil {
		return 0
	}
	fwd := b.Rotation().Rotate(mgl64.Vec3{0, 0, 1})
	return b.LinearVelocity().Dot(fwd)
}

// ApplyInput arbitrates in against the current speed and hands the result to
// the drivetrain. The body is always woken.
func (v *Vehicle) ApplyInput(in input.Input) {
	if v.closed {
		return
	}
	cmd := Arbitrate(in, v.ForwardSpeed(), v.settings.MaxSpeed, v.opts.Arbitration)

	ctrl := v.constraint.Controller()
	ctrl.Engine().MaxTorque = v.settings.EngineForce * v.tuning.WheelRadius
	ctrl.SetYawTorque(v.settings.SteerTorque)
	v.constraint.SetBrakeTorque(v.settings.BrakeForce * v.tuning.WheelRadius)
	ctrl.SetDriverInput(cmd.Throttle, cmd.Steer, cmd.Brake, cmd.Handbrake)

	v.lastCommand = cmd
	v.world.ActivateBody(v.body)
}

// SyncVisual copies the chassis pose and wheel transforms to the visual model.
func (v *Vehicle) SyncVisual() {
	if v.closed || v.scene == nil {
		return
	}
	v.scene.SetTransform(v.model.Group, scene.Transform{Position: v.Position(), Rotation: v.Rotation()})
	for i, e := range v.model.Wheels {
		pos, rot := v.constraint.WheelLocalTransform(i)
		v.scene.SetTransform(e, scene.Transform{Position: pos, Rotation: rot})
	}
}

// Close unregisters the step listener, then the constraint, then removes the
// body and the visual model. Later calls do nothing.
func (v *Vehicle) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.world.RemoveStepListener(v.constraint)
	v.world.RemoveConstraint(v.constraint)
	v.world.RemoveBody(v.body)
	if v.scene != nil {
		v.model.Remove(v.scene)
	}
	slog.Debug("vehicle closed", "archetype", v.tuning.Archetype.String())
}
