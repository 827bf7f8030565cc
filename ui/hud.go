package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/rigs/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Tick         int32
	FPS          int32
	CameraMode   string
	DebugLines   int
	Bodies       int
	ScreenWidth  int32
	ScreenHeight int32
}

// Readout is the driven vehicle's state as shown by the HUD.
type Readout struct {
	Archetype     string
	Color         rl.Color
	Speed         float64
	MaxSpeed      float64
	Throttle      float64
	Steer         float64
	Brake         float64
	Handbrake     float64
	WheelContacts int
	Wheels        int
}

// readoutSection describes the driven vehicle readout.
var readoutSection = SectionDescriptor{
	ID:    "readout",
	Title: "Driving",
	Fields: []FieldDescriptor{
		{
			ID:         "archetype",
			Label:      "Vehicle",
			Widget:     WidgetText,
			TextGetter: func(d any) string { return d.(Readout).Archetype },
		},
		{
			ID:          "color",
			Label:       "Color",
			Widget:      WidgetColorSwatch,
			ColorGetter: func(d any) rl.Color { return d.(Readout).Color },
		},
		{
			ID:        "speed",
			Label:     "Speed",
			Widget:    WidgetGauge,
			Getter:    func(d any) float32 { return float32(d.(Readout).Speed) },
			MaxGetter: func(d any) float32 { return float32(d.(Readout).MaxSpeed) },
		},
		{
			ID:     "throttle",
			Label:  "Throttle",
			Widget: WidgetCenteredBar,
			Range:  CenteredRange(),
			Getter: func(d any) float32 { return float32(d.(Readout).Throttle) },
		},
		{
			ID:     "steer",
			Label:  "Steer",
			Widget: WidgetCenteredBar,
			Range:  CenteredRange(),
			Getter: func(d any) float32 { return float32(d.(Readout).Steer) },
		},
		{
			ID:     "brake",
			Label:  "Brake",
			Widget: WidgetBar,
			Range:  DefaultRange(),
			Getter: func(d any) float32 { return float32(d.(Readout).Brake) },
		},
		{
			ID:      "handbrake",
			Label:   "Handbrake",
			Widget:  WidgetBar,
			Range:   DefaultRange(),
			Getter:  func(d any) float32 { return float32(d.(Readout).Handbrake) },
			Visible: func(d any) bool { return d.(Readout).Handbrake > 0 },
		},
		{
			ID:     "contacts",
			Label:  "Contacts",
			Widget: WidgetText,
			TextGetter: func(d any) string {
				r := d.(Readout)
				return fmt.Sprintf("%d/%d", r.WheelContacts, r.Wheels)
			},
		},
	},
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD header.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | FPS: %d | Camera: %s", data.Tick, data.FPS, data.CameraMode),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Bodies: %d | Debug lines: %d", data.Bodies, data.DebugLines),
		10, 55, 16, rl.LightGray,
	)
}

// DrawReadout renders the driven vehicle panel at (x, y) and returns the y below it.
func (h *HUD) DrawReadout(x, y, width int32, r Readout) int32 {
	theme := h.renderer.Theme
	height := int32(len(readoutSection.Fields)+1)*(theme.LineHeight+2) + 2*theme.Padding
	h.renderer.DrawPanel(x, y, width, height)
	return h.renderer.DrawSection(x+theme.Padding, y+theme.Padding, readoutSection, r, width-2*theme.Padding)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the frame phase breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Frame Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s (+/- %s)",
		stats.AvgTickDuration.Round(time.Microsecond),
		stats.StdDevTickDuration.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range telemetry.Phases {
		avg := stats.PhaseAvg[name]
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-14s %6s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
