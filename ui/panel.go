package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/rigs/camera"
	"github.com/pthm-cable/rigs/vehicle"
)

// Slider ranges of the tuning panel.
const (
	EngineForceMin = 2000
	EngineForceMax = 20000
	MaxSpeedMin    = 5
	MaxSpeedMax    = 60
	SteerTorqueMin = 200
	SteerTorqueMax = 6000
	BrakeForceMin  = 200
	BrakeForceMax  = 4000
)

// PanelData is what the tuning panel shows and edits. Settings and Camera are
// edited in place.
type PanelData struct {
	Settings     *vehicle.Settings
	Camera       *camera.Camera
	Archetype    string
	ActiveIndex  int
	VehicleCount int
	Speed        float64
	DebugDraw    bool
}

// PanelActions are the one-shot requests raised by the panel this frame.
type PanelActions struct {
	Reset        bool
	ToggleCamera bool
	DebugDraw    bool // New checkbox state
}

// VehiclePanel renders the raygui tuning panel on the right side of the screen.
type VehiclePanel struct {
	renderer *Renderer
	x, y     float32
	width    float32
}

// NewVehiclePanel creates a tuning panel.
func NewVehiclePanel(x, y, width float32) *VehiclePanel {
	return &VehiclePanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *VehiclePanel) SetPosition(x, y float32) {
	p.x = x
	p.y = y
}

// Contains reports whether the screen point lies on the panel, so mouse input
// there is not also used to orbit the camera.
func (p *VehiclePanel) Contains(x, y float32) bool {
	return x >= p.x && x <= p.x+p.width && y >= p.y && y <= p.y+p.height()
}

func (p *VehiclePanel) height() float32 {
	return 560
}

// Draw renders the panel and applies slider edits to data.
func (p *VehiclePanel) Draw(data PanelData) PanelActions {
	actions := PanelActions{DebugDraw: data.DebugDraw}
	pad := float32(p.renderer.Theme.Padding)
	p.renderer.DrawPanel(int32(p.x), int32(p.y), int32(p.width), int32(p.height()))

	x := p.x + pad
	y := p.y + pad
	sliderW := p.width - 2*pad - 60

	rl.DrawText(fmt.Sprintf("Vehicle %d/%d: %s", data.ActiveIndex+1, data.VehicleCount, data.Archetype),
		int32(x), int32(y), 16, rl.White)
	y += 22
	rl.DrawText(fmt.Sprintf("Speed: %.1f m/s (%.0f km/h)", data.Speed, data.Speed*3.6),
		int32(x), int32(y), 14, rl.LightGray)
	y += 26

	if s := data.Settings; s != nil {
		y = p.slider(x, y, sliderW, "Engine force", "%.0f", &s.EngineForce, EngineForceMin, EngineForceMax)
		y = p.slider(x, y, sliderW, "Max speed", "%.1f", &s.MaxSpeed, MaxSpeedMin, MaxSpeedMax)
		y = p.slider(x, y, sliderW, "Steer torque", "%.0f", &s.SteerTorque, SteerTorqueMin, SteerTorqueMax)
		y = p.slider(x, y, sliderW, "Brake force", "%.0f", &s.BrakeForce, BrakeForceMin, BrakeForceMax)
	}

	y += 6
	half := (p.width - 3*pad) / 2
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 30}, "Reset Scene") {
		actions.Reset = true
	}
	if gui.Button(rl.Rectangle{X: x + half + pad, Y: y, Width: half, Height: 30}, "Toggle Camera") {
		actions.ToggleCamera = true
	}
	y += 42

	actions.DebugDraw = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 18, Height: 18}, "Debug Draw", data.DebugDraw)
	y += 32

	if c := data.Camera; c != nil {
		rl.DrawText("Third person camera", int32(x), int32(y), 14, p.renderer.Theme.SectionHeader)
		y += 22
		y = p.slider(x, y, sliderW, "Distance", "%.1f", &c.FollowDistance, 2, 30)
		y = p.slider(x, y, sliderW, "Height", "%.1f", &c.FollowHeight, 0, 15)
		y = p.slider(x, y, sliderW, "Look height", "%.1f", &c.LookHeight, 0, 5)
	}

	return actions
}

// slider draws a labelled raygui slider bound to v and returns the next y.
func (p *VehiclePanel) slider(x, y, w float32, label, format string, v *float64, min, max float32) float32 {
	rl.DrawText(label, int32(x), int32(y), 14, rl.Gray)
	y += 18
	nv := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: w, Height: 20},
		"", "",
		float32(*v), min, max,
	)
	rl.DrawText(fmt.Sprintf(format, *v), int32(x+w+8), int32(y+2), 14, rl.LightGray)
	if nv != float32(*v) {
		*v = float64(nv)
	}
	return y + 30
}
