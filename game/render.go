package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/rigs/debugdraw"
	"github.com/pthm-cable/rigs/scene"
	"github.com/pthm-cable/rigs/ui"
)

const (
	panelWidth   = 300
	controlsHelp = "WASD/Arrows drive | Space brake | 1-5 switch | R reset | C camera | F1 debug | F2-F6 overlays | O overlay list | P perf"
)

// initUI creates the HUD and panels.
func (g *Game) initUI() {
	g.hud = ui.NewHUD()
	g.panel = ui.NewVehiclePanel(0, 0, panelWidth)
	g.perfPanel = ui.NewPerfPanel(0, 0)
	g.overlays = ui.NewOverlayRegistry(*g.session.DebugSettings())
	g.controls = ui.NewControlsPanel(10, 80, 220)
	g.layoutUI()
}

// layoutUI positions panels for the current window size.
func (g *Game) layoutUI() {
	g.panel.SetPosition(g.screenWidth-panelWidth-10, 10)
	g.perfPanel.SetPosition(10, int32(g.screenHeight)-150)
}

// Draw renders the frame.
func (g *Game) Draw() {
	g.session.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 135, G: 170, B: 200, A: 255})

	rl.BeginMode3D(g.camera3D())
	g.drawScene()
	if g.session.DebugDrawEnabled() {
		drawLines(g.session.DebugLines())
	}
	rl.EndMode3D()

	g.drawUI()

	rl.EndDrawing()
}

// camera3D converts the session camera to a raylib camera.
func (g *Game) camera3D() rl.Camera3D {
	c := g.session.Camera()
	return rl.Camera3D{
		Position:   vec3(c.Position),
		Target:     vec3(c.Target),
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       float32(c.FOV),
		Projection: rl.CameraPerspective,
	}
}

// drawScene renders every mesh node at its world pose.
func (g *Game) drawScene() {
	g.session.Scene().Each(func(_ ecs.Entity, t scene.Transform, m *scene.Mesh) {
		color := rl.Color{R: m.Color.R, G: m.Color.G, B: m.Color.B, A: m.Color.A}

		rl.PushMatrix()
		rl.Translatef(float32(t.Position[0]), float32(t.Position[1]), float32(t.Position[2]))
		angle, axis := axisAngle(t.Rotation)
		if angle != 0 {
			rl.Rotatef(angle, float32(axis[0]), float32(axis[1]), float32(axis[2]))
		}

		switch m.Kind {
		case scene.MeshBox:
			size := vec3(m.Size)
			rl.DrawCube(rl.Vector3{}, size.X, size.Y, size.Z, color)
			rl.DrawCubeWires(rl.Vector3{}, size.X, size.Y, size.Z, rl.Fade(rl.Black, 0.4))
		case scene.MeshCylinder:
			half := float32(m.Width / 2)
			r := float32(m.Radius)
			rl.DrawCylinderEx(rl.Vector3{Y: -half}, rl.Vector3{Y: half}, r, r, 16, color)
			rl.DrawCylinderWiresEx(rl.Vector3{Y: -half}, rl.Vector3{Y: half}, r, r, 8, rl.DarkGray)
		}

		rl.PopMatrix()
	})
}

// drawLines renders the debug line buffer over its draw range.
func drawLines(l *debugdraw.LineSegments) {
	if l == nil || !l.Visible {
		return
	}
	end := l.DrawStart + l.DrawCount
	for v := l.DrawStart; v+1 < end; v += 2 {
		from := rl.Vector3{X: l.Positions[3*v], Y: l.Positions[3*v+1], Z: l.Positions[3*v+2]}
		to := rl.Vector3{X: l.Positions[3*v+3], Y: l.Positions[3*v+4], Z: l.Positions[3*v+5]}
		c := rl.Color{
			R: uint8(l.Colors[3*v] * 255),
			G: uint8(l.Colors[3*v+1] * 255),
			B: uint8(l.Colors[3*v+2] * 255),
			A: 255,
		}
		rl.DrawLine3D(from, to, c)
	}
}

// drawUI renders the HUD and panels in screen space.
func (g *Game) drawUI() {
	s := g.session
	v := s.ActiveVehicle()

	lines := 0
	if l := s.DebugLines(); l != nil && l.Visible {
		lines = l.DrawCount / 2
	}
	g.hud.Draw(ui.HUDData{
		Title:        "Rigs",
		Tick:         s.Tick(),
		FPS:          rl.GetFPS(),
		CameraMode:   s.Camera().Mode.String(),
		DebugLines:   lines,
		Bodies:       s.Counts().Bodies,
		ScreenWidth:  int32(g.screenWidth),
		ScreenHeight: int32(g.screenHeight),
	})

	y := g.controls.Draw(g.overlays)

	if v != nil {
		t := v.Tuning()
		cmd := v.LastCommand()
		c := v.Constraint()
		contacts := 0
		for i := 0; i < c.WheelCount(); i++ {
			if c.Wheel(i).Contact {
				contacts++
			}
		}
		g.hud.DrawReadout(10, y+10, 260, ui.Readout{
			Archetype:     t.Archetype.String(),
			Color:         rl.Color{R: t.Color.R, G: t.Color.G, B: t.Color.B, A: 255},
			Speed:         v.Speed(),
			MaxSpeed:      v.Settings().MaxSpeed,
			Throttle:      cmd.Throttle,
			Steer:         cmd.Steer,
			Brake:         cmd.Brake,
			Handbrake:     cmd.Handbrake,
			WheelContacts: contacts,
			Wheels:        c.WheelCount(),
		})

		actions := g.panel.Draw(ui.PanelData{
			Settings:     v.Settings(),
			Camera:       s.Camera(),
			Archetype:    t.Archetype.String(),
			ActiveIndex:  s.ActiveIndex(),
			VehicleCount: s.VehicleCount(),
			Speed:        v.Speed(),
			DebugDraw:    s.DebugDrawEnabled(),
		})
		if actions.Reset {
			s.RequestReset()
		}
		if actions.ToggleCamera {
			s.ToggleCamera()
		}
		if actions.DebugDraw != s.DebugDrawEnabled() {
			s.SetDebugDraw(actions.DebugDraw)
		}
	}

	if g.showPerf {
		g.perfPanel.Draw(s.PerfStats())
	}

	g.hud.DrawControls(int32(g.screenWidth), int32(g.screenHeight), controlsHelp)
}

func vec3(v mgl64.Vec3) rl.Vector3 {
	return rl.Vector3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

// axisAngle returns the rotation of q in degrees about a unit axis.
func axisAngle(q mgl64.Quat) (float32, mgl64.Vec3) {
	q = q.Normalize()
	w := math.Max(-1, math.Min(1, q.W))
	s := math.Sqrt(1 - w*w)
	if s < 1e-9 {
		return 0, mgl64.Vec3{0, 1, 0}
	}
	angle := 2 * math.Acos(w)
	return float32(mgl64.RadToDeg(angle)), q.V.Mul(1 / s)
}
