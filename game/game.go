// Package game is the raylib window glue around a session: it polls the
// keyboard and mouse, advances the session once per frame and draws the scene,
// the debug lines and the UI.
package game

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/rigs/config"
	"github.com/pthm-cable/rigs/session"
	"github.com/pthm-cable/rigs/telemetry"
	"github.com/pthm-cable/rigs/ui"
)

// Options configures a Game.
type Options struct {
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
	Headless       bool
}

// Game holds the session and the UI state around it.
type Game struct {
	cfg      *config.Config
	session  *session.Session
	headless bool

	// UI
	hud       *ui.HUD
	panel     *ui.VehiclePanel
	perfPanel *ui.PerfPanel
	overlays  *ui.OverlayRegistry
	controls  *ui.ControlsPanel
	showPerf  bool

	// Window dimensions
	screenWidth, screenHeight float32
}

// NewGame creates a game. In windowed mode the raylib window must already be open.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	w, h := float32(cfg.Screen.Width), float32(cfg.Screen.Height)
	if !opts.Headless {
		w, h = float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
	}

	s, err := session.New(cfg, session.Options{
		LogStats:       opts.LogStats,
		StatsWindowSec: opts.StatsWindowSec,
		OutputDir:      opts.OutputDir,
		Viewport:       [2]float64{float64(w), float64(h)},
	})
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	g := &Game{
		cfg:          cfg,
		session:      s,
		headless:     opts.Headless,
		screenWidth:  w,
		screenHeight: h,
	}
	if !opts.Headless {
		g.initUI()
	}
	return g, nil
}

// Session returns the running session.
func (g *Game) Session() *session.Session { return g.session }

// Tick returns the number of frames stepped.
func (g *Game) Tick() int32 { return g.session.Tick() }

// Update polls input and advances the session by the clamped frame time.
func (g *Game) Update() {
	g.handleInput()

	dt := float64(rl.GetFrameTime())
	if dt > g.cfg.Physics.MaxFrameDT {
		dt = g.cfg.Physics.MaxFrameDT
	}
	if dt <= 0 {
		return
	}
	g.step(dt)
}

// UpdateHeadless advances the session by the fixed config step without touching raylib.
func (g *Game) UpdateHeadless() {
	g.step(g.cfg.Physics.DT)
}

func (g *Game) step(dt float64) {
	if err := g.session.Update(dt); err != nil {
		slog.Error("session update failed", "tick", g.session.Tick(), "error", err)
	}
}

// PerfStats returns the session's rolling performance statistics.
func (g *Game) PerfStats() telemetry.PerfStats { return g.session.PerfStats() }

// Unload releases the session.
func (g *Game) Unload() {
	if err := g.session.Close(); err != nil {
		slog.Error("failed to close session", "error", err)
	}
}
