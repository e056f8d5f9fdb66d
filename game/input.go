package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/pbd/engine"
	"github.com/pthm-cable/pbd/ui"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.controlPanel.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		g.showStats = !g.showStats
	}
	if rl.IsKeyPressed(rl.KeyB) {
		g.controls.Parallel = !g.controls.Parallel
		g.applyControls(ui.Changes{Backend: true})
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.applyControls(ui.Changes{Resolution: true})
	}

	g.handleCameraInput()
	g.handleEmission()
}

// handleEmission emits a circle under the cursor on left click.
func (g *Game) handleEmission() {
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	m := rl.GetMousePosition()
	if g.controlPanel.Contains(m.X, m.Y) {
		return
	}
	wx, wy := g.camera.ScreenToWorld(m.X, m.Y)
	g.engine.EmitAt(float64(wx), float64(wy))
}

// applyControls pushes panel edits into the engine.
func (g *Game) applyControls(ch ui.Changes) {
	if ch.Preset {
		name := g.cfg.PresetNames()[g.controls.Preset]
		p, err := g.cfg.Preset(name)
		if err != nil {
			slog.Error("unknown preset", "preset", name, "error", err)
			return
		}
		preset := g.controls.Preset
		g.engine.SetSim(p.Apply(g.engine.Sim(), g.controls.Resolution))
		if p.Reseeds() {
			if err := g.engine.Reseed(p.ApplyEmission(g.engine.Config().Emission)); err != nil {
				slog.Error("failed to reseed", "preset", name, "error", err)
			}
			g.displayTime = 0
		}
		g.controls = ui.ControlsFromSim(g.engine.Sim(), g.controls.Parallel, g.controls.Resolution)
		g.controls.Preset = preset
	}
	if ch.Sim {
		g.engine.SetSim(g.controls.ApplyTo(g.engine.Sim()))
	}
	if ch.Backend {
		mode := engine.Sequential
		if g.controls.Parallel {
			mode = engine.Parallel
		}
		g.engine.SwitchBackend(mode)
	}
	if ch.Resolution {
		if err := g.engine.SetResolution(g.controls.Resolution); err != nil {
			slog.Error("failed to change resolution", "error", err)
			return
		}
		g.displayTime = 0
		g.controls.SpinDegrees = 0
	}
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
	g.camera.Resize(w, h)
	g.statsPanel = ui.NewStatsPanel(int32(w)-250, 100, 240)
	g.perfPanel = ui.NewPerfPanel(int32(w)-250, 330, 240)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Pan is in screen pixels, so speed is already zoom-independent
	const panSpeed = float32(8.0)

	// Arrow key panning
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, -panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, panSpeed)
	}

	// Right-drag panning
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		g.camera.Pan(d.X, d.Y)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
