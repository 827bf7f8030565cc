package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/rigs/input"
)

// keyMap maps raylib key codes onto controller keys.
var keyMap = map[int32]input.Key{
	rl.KeyW:     input.KeyW,
	rl.KeyS:     input.KeyS,
	rl.KeyA:     input.KeyA,
	rl.KeyD:     input.KeyD,
	rl.KeyUp:    input.KeyUp,
	rl.KeyDown:  input.KeyDown,
	rl.KeyLeft:  input.KeyLeft,
	rl.KeyRight: input.KeyRight,
	rl.KeySpace: input.KeySpace,
	rl.KeyOne:   input.Key1,
	rl.KeyTwo:   input.Key2,
	rl.KeyThree: input.Key3,
	rl.KeyFour:  input.Key4,
	rl.KeyFive:  input.Key5,
	rl.KeyKp1:   input.KeyKP1,
	rl.KeyKp2:   input.KeyKP2,
	rl.KeyKp3:   input.KeyKP3,
	rl.KeyKp4:   input.KeyKP4,
	rl.KeyKp5:   input.KeyKP5,
	rl.KeyR:     input.KeyR,
	rl.KeyC:     input.KeyC,
	rl.KeyF1:    input.KeyF1,
}

// Orbit camera mouse sensitivity in degrees per pixel.
const orbitSensitivity = 0.3

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}
	if rl.IsKeyPressed(rl.KeyO) {
		g.controls.Toggle()
	}

	// Controller keys
	c := g.session.Controller()
	for rk, k := range keyMap {
		if rl.IsKeyPressed(rk) {
			c.KeyPressed(k)
		}
		if rl.IsKeyReleased(rk) {
			c.KeyReleased(k)
		}
	}

	// Debug overlays
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		if _, _, ok := g.overlays.HandleKeyPress(key); ok {
			g.overlays.Apply(g.session.DebugSettings())
		}
	}

	g.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.session.Camera().Resize(float64(w), float64(h))
	g.layoutUI()
}

// handleCameraInput processes orbit drag and zoom controls.
func (g *Game) handleCameraInput() {
	cam := g.session.Camera()
	mouse := rl.GetMousePosition()
	if g.panel.Contains(mouse.X, mouse.Y) {
		return
	}

	// Right-drag orbits
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		cam.Orbit(float64(-d.X)*orbitSensitivity, float64(d.Y)*orbitSensitivity)
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 {
		cam.ZoomBy(1 - float64(wheelMove)*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		cam.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		cam.ZoomBy(1.25)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		cam.Reset()
	}
}
