package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/pbd/ui"
)

const controlsLegend = "Space: pause | Click: emit | Right-drag/arrows: pan | Wheel: zoom | Home: reset view | B: backend | R: reseed | Tab: panel | S: stats"

// Draw renders the game state.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(g.theme.Background)

	e := g.engine
	cfg := e.Config()
	radius := cfg.Derived.ParticleRadius
	g.boundaryRenderer.Draw(g.camera, e.Boundary(), radius)
	g.particleRenderer.Draw(g.camera, e.Positions(), e.Velocities(), float32(radius))

	// Panel edits apply before the next update
	if ch := g.controlPanel.Draw(&g.controls); ch.Any() {
		g.applyControls(ch)
	}

	sw, sh := int32(g.screenWidth), int32(g.screenHeight)
	g.hud.Draw(sw-250, ui.HUDData{
		Title:     g.cfg.Screen.Title,
		Particles: e.Len(),
		Backend:   e.Mode().String(),
		Cells:     cfg.Derived.NumGridCells,
		Frame:     e.Frame(),
		FPS:       rl.GetFPS(),
		Paused:    g.paused,
		Warmup:    !g.paused && g.displayTime < g.cfg.Frame.Warmup,
	})
	if g.showStats {
		g.statsPanel.Draw(g.lastStats)
		g.perfPanel.Draw(g.perfCollector.Stats())
	}
	g.hud.DrawControls(sh, controlsLegend)

	rl.EndDrawing()
}
