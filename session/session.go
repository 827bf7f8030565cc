// Package session owns one running sandbox: the physics world, the five
// vehicles, the scene graph, the controller and the camera. It advances them
// together once per frame and can tear everything down and rebuild it.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rigs/camera"
	"github.com/pthm-cable/rigs/config"
	"github.com/pthm-cable/rigs/debugdraw"
	"github.com/pthm-cable/rigs/input"
	"github.com/pthm-cable/rigs/physics"
	"github.com/pthm-cable/rigs/scene"
	"github.com/pthm-cable/rigs/telemetry"
	"github.com/pthm-cable/rigs/vehicle"
	"github.com/pthm-cable/rigs/world"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session: closed")

// Options configures a Session.
type Options struct {
	LogStats       bool    // Log window and perf stats via slog
	StatsWindowSec float64 // 0 = config telemetry.stats_window
	OutputDir      string  // Empty disables CSV output
	Viewport       [2]float64
}

// Session holds the complete sandbox state.
type Session struct {
	cfg   *config.Config
	table *vehicle.Table
	opts  vehicle.Options

	// Rebuilt on every reset
	world    *world.World
	ground   physics.BodyID
	vehicles []*vehicle.Vehicle
	lines    *debugdraw.Collector

	// Persistent across resets
	scene      *scene.Scene
	groundNode ecs.Entity
	controller *input.Controller
	camera     *camera.Camera
	active     int
	debugDraw  bool
	debug      world.DebugSettings

	// Telemetry
	tick          int32
	perf          *telemetry.PerfCollector
	stats         *telemetry.Collector
	output        *telemetry.OutputManager
	bookmarks     *telemetry.BookmarkDetector
	marked        []telemetry.Bookmark
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	resetRequested  bool
	cameraRequested bool
	closed          bool
}

// New builds a session from cfg.
func New(cfg *config.Config, opts Options) (*Session, error) {
	table, err := vehicle.NewTable(cfg)
	if err != nil {
		return nil, err
	}
	if len(cfg.Scene.SpawnX) < int(vehicle.NumArchetypes) {
		return nil, fmt.Errorf("session: need %d spawn lanes, have %d",
			vehicle.NumArchetypes, len(cfg.Scene.SpawnX))
	}

	vw, vh := opts.Viewport[0], opts.Viewport[1]
	if vw <= 0 || vh <= 0 {
		vw, vh = float64(cfg.Screen.Width), float64(cfg.Screen.Height)
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	s := &Session{
		cfg:        cfg,
		table:      table,
		opts:       vehicle.OptionsFromConfig(cfg),
		scene:      scene.New(),
		controller: input.NewController(cfg.Controller.SmoothingRate),
		camera:     camera.New(cfg.Camera, vw, vh),
		active:     0,
		debugDraw:  cfg.DebugDraw.Enabled,
		debug: world.DebugSettings{
			Bodies: physics.DrawSettings{
				DrawShape:                 cfg.DebugDraw.DrawShapes,
				DrawCenterOfMassTransform: cfg.DebugDraw.DrawCOM,
				DrawBoundingBox:           cfg.DebugDraw.DrawBoundingBox,
				DrawVelocity:              cfg.DebugDraw.DrawVelocity,
			},
			Constraints: cfg.DebugDraw.DrawWheels,
		},
		perf:     telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		stats:    telemetry.NewCollector(statsWindow, cfg.Physics.DT),
		output:    output,
		bookmarks: telemetry.NewBookmarkDetector(bookmarkHistory),
		logStats:  opts.LogStats,
	}

	if err := s.build(); err != nil {
		output.Close()
		return nil, err
	}
	return s, nil
}

// build creates the world, ground and vehicles. On failure everything it
// created is torn down again.
func (s *Session) build() (err error) {
	w := world.New(s.cfg.Physics)
	s.world = w
	defer func() {
		if err != nil {
			s.teardown()
		}
	}()

	sc := s.cfg.Scene
	half := mgl64.Vec3(sc.GroundHalfExtent)
	s.ground, err = w.AddBody(physics.BodyCreationSettings{
		Shape:      physics.NewBoxShape(half),
		Position:   mgl64.Vec3(sc.GroundPosition),
		Rotation:   mgl64.QuatIdent(),
		MotionType: physics.MotionStatic,
		Layer:      physics.LayerStatic,
	}, physics.DontActivate)
	if err != nil {
		return fmt.Errorf("creating ground: %w", err)
	}
	s.groundNode = s.scene.AddMesh(ecs.Entity{}, scene.Mesh{
		Kind:  scene.MeshBox,
		Size:  half.Mul(2),
		Color: scene.Color{R: 70, G: 90, B: 70, A: 255},
	}, scene.Transform{Position: mgl64.Vec3(sc.GroundPosition), Rotation: mgl64.QuatIdent()})

	s.vehicles = make([]*vehicle.Vehicle, 0, vehicle.NumArchetypes)
	for a := vehicle.Archetype(0); a < vehicle.NumArchetypes; a++ {
		t := s.table.Lookup(a)
		spawn := mgl64.Vec3{sc.SpawnX[a], vehicle.SpawnHeight(t, s.opts.Suspension), sc.SpawnZ}
		v, err := vehicle.New(w, s.scene, t, s.opts, spawn)
		if err != nil {
			return fmt.Errorf("spawning %s: %w", a, err)
		}
		s.vehicles = append(s.vehicles, v)
	}

	s.lines = debugdraw.NewCollector(w.Workers(), s.cfg.DebugDraw.InitialVertices)

	counts := w.Counts()
	slog.Info("session built",
		"vehicles", len(s.vehicles),
		"bodies", counts.Bodies,
		"constraints", counts.Constraints,
		"workers", w.Workers(),
	)
	return nil
}

// teardown closes the vehicles, removes the ground node and closes the world.
func (s *Session) teardown() {
	for _, v := range s.vehicles {
		v.Close()
	}
	s.vehicles = nil
	if s.scene.Alive(s.groundNode) {
		s.scene.Remove(s.groundNode)
	}
	s.groundNode = ecs.Entity{}
	if s.world != nil {
		s.world.Close()
	}
	s.world = nil
	s.lines = nil
}

// Reset tears down every vehicle and the world, then rebuilds them. Control
// returns to the first vehicle; camera mode and debug toggle survive.
func (s *Session) Reset() error {
	if s.closed {
		return ErrClosed
	}
	s.teardown()
	s.active = 0
	s.stats.RecordReset()
	if err := s.build(); err != nil {
		return fmt.Errorf("rebuilding session: %w", err)
	}
	slog.Info("session reset", "tick", s.tick)
	return nil
}

// Update advances the session by one frame of dt seconds.
func (s *Session) Update(dt float64) error {
	if s.closed {
		return ErrClosed
	}
	if s.world == nil {
		// A failed rebuild leaves nothing to step; retry it.
		return s.Reset()
	}
	s.perf.StartTick()
	defer s.perf.EndTick()

	s.perf.StartPhase(telemetry.PhaseController)
	s.controller.Update(dt)
	if idx := s.controller.ConsumeSwitchRequest(); idx >= 0 {
		s.SetActiveIndex(idx)
	}
	if s.controller.ConsumeResetRequest() || s.resetRequested {
		s.resetRequested = false
		return s.Reset()
	}
	if s.controller.ConsumeCameraToggleRequest() || s.cameraRequested {
		s.cameraRequested = false
		s.camera.Toggle()
	}
	if s.controller.ConsumeDebugToggleRequest() {
		s.SetDebugDraw(!s.debugDraw)
	}

	s.perf.StartPhase(telemetry.PhaseApplyInput)
	in := s.controller.Input()
	for i, v := range s.vehicles {
		if i == s.active {
			v.ApplyInput(in)
		} else {
			v.ApplyInput(input.Input{})
		}
	}

	s.perf.StartPhase(telemetry.PhasePhysicsStep)
	s.world.Step(dt)

	s.perf.StartPhase(telemetry.PhaseSyncVisual)
	for _, v := range s.vehicles {
		v.SyncVisual()
	}
	active := s.vehicles[s.active]
	s.camera.Follow(active.Position(), active.Rotation())

	s.perf.StartPhase(telemetry.PhaseDebugDraw)
	if s.debugDraw {
		s.lines.BeginFrame()
		s.world.DrawDebug(s.lines, s.debug)
		s.lines.EndFrame()
	}

	s.tick++
	s.stats.RecordTick(active.Speed())
	s.flushTelemetry()
	return nil
}

// Tick returns the number of frames stepped since New.
func (s *Session) Tick() int32 { return s.tick }

// Config returns the configuration the session was built from.
func (s *Session) Config() *config.Config { return s.cfg }

// World returns the current physics world, or nil after Close.
func (s *Session) World() *world.World { return s.world }

// Counts returns the world's handle counts, or zero counts when no world exists.
func (s *Session) Counts() world.Counts {
	if s.world == nil {
		return world.Counts{}
	}
	return s.world.Counts()
}

// Controller returns the input controller.
func (s *Session) Controller() *input.Controller { return s.controller }

// Camera returns the camera.
func (s *Session) Camera() *camera.Camera { return s.camera }

// Scene returns the scene graph.
func (s *Session) Scene() *scene.Scene { return s.scene }

// VehicleCount returns the number of vehicles.
func (s *Session) VehicleCount() int { return len(s.vehicles) }

// Vehicle returns vehicle i.
func (s *Session) Vehicle(i int) *vehicle.Vehicle { return s.vehicles[i] }

// ActiveIndex returns the index of the driven vehicle.
func (s *Session) ActiveIndex() int { return s.active }

// ActiveVehicle returns the driven vehicle, or nil when no vehicles exist.
func (s *Session) ActiveVehicle() *vehicle.Vehicle {
	if s.active >= len(s.vehicles) {
		return nil
	}
	return s.vehicles[s.active]
}

// SetActiveIndex selects the driven vehicle. Out of range indices are ignored.
func (s *Session) SetActiveIndex(i int) {
	if i < 0 || i >= len(s.vehicles) || i == s.active {
		return
	}
	s.active = i
	s.stats.RecordSwitch()
	slog.Debug("active vehicle switched", "index", i, "archetype", s.vehicles[i].Archetype().String())
}

// SetDebugDraw turns the debug line pass on or off. Turning it off hides the
// previous frame's lines.
func (s *Session) SetDebugDraw(on bool) {
	s.debugDraw = on
	if !on && s.lines != nil {
		s.lines.Lines().Visible = false
	}
}

// DebugDrawEnabled reports whether the debug line pass runs.
func (s *Session) DebugDrawEnabled() bool { return s.debugDraw }

// DebugSettings returns the debug pass settings for in-place editing.
func (s *Session) DebugSettings() *world.DebugSettings { return &s.debug }

// DebugLines returns the renderable debug line buffer, or nil when no world exists.
func (s *Session) DebugLines() *debugdraw.LineSegments {
	if s.lines == nil {
		return nil
	}
	return s.lines.Lines()
}

// RequestReset schedules a Reset for the start of the next Update.
func (s *Session) RequestReset() { s.resetRequested = true }

// ToggleCamera schedules a camera mode toggle for the next Update.
func (s *Session) ToggleCamera() { s.cameraRequested = true }

// SetStatsCallback sets a function called with each flushed stats window.
func (s *Session) SetStatsCallback(fn func(telemetry.WindowStats)) { s.statsCallback = fn }

// Bookmarks returns every bookmark detected since the session started.
func (s *Session) Bookmarks() []telemetry.Bookmark { return s.marked }

// RecordFrame records a rendered frame for FPS reporting.
func (s *Session) RecordFrame() { s.perf.RecordFrame() }

// PerfStats returns the rolling performance statistics.
func (s *Session) PerfStats() telemetry.PerfStats { return s.perf.Stats() }

// Close tears the session down. Close is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.teardown()
	s.closed = true
	return s.output.Close()
}
