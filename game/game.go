// Package game drives the engine once per displayed frame, either in a
// raylib window or headless.
package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/pbd/camera"
	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/engine"
	"github.com/pthm-cable/pbd/renderer"
	"github.com/pthm-cable/pbd/telemetry"
	"github.com/pthm-cable/pbd/ui"
)

// Options configures a Game.
type Options struct {
	LogStats    bool   // log frame and perf stats via slog on every flush
	OutputDir   string // CSV output directory (empty = disabled)
	StatsWindow int    // frames between flushes (0 = use config)
	Headless    bool
	Preset      string // applied on start (empty = none)
}

// Game owns the engine and everything around it: telemetry, and in
// windowed mode the camera, renderers and UI.
type Game struct {
	cfg    *config.Config
	engine *engine.Engine

	// Telemetry
	perfCollector *telemetry.PerfCollector
	metrics       *telemetry.Metrics
	outputManager *telemetry.OutputManager
	statsWindow   int
	logStats      bool
	lastStats     telemetry.FrameStats

	// Viewer state
	headless         bool
	paused           bool
	displayTime      float64 // seconds of displayed time since start
	steps            int64   // displayed frames stepped, including empty ones
	screenWidth      float32
	screenHeight     float32
	camera           *camera.Camera
	particleRenderer *renderer.ParticleRenderer
	boundaryRenderer *renderer.BoundaryRenderer
	hud              *ui.HUD
	controlPanel     *ui.ControlPanel
	statsPanel       *ui.StatsPanel
	perfPanel        *ui.PerfPanel
	controls         ui.Controls
	theme            ui.Theme
	showStats        bool
}

// NewGameWithOptions builds the engine from cfg and seeds the default
// emission.
func NewGameWithOptions(cfg *config.Config, metrics *telemetry.Metrics, opts Options) (*Game, error) {
	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindow > 0 {
		statsWindow = opts.StatsWindow
	}

	g := &Game{
		cfg:           cfg,
		perfCollector: telemetry.NewPerfCollector(statsWindow),
		metrics:       metrics,
		statsWindow:   statsWindow,
		logStats:      opts.LogStats,
		headless:      opts.Headless,
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, err
	}

	g.engine = engine.New(cfg,
		engine.WithLogger(slog.Default()),
		engine.WithPerf(g.perfCollector),
		engine.WithMetrics(metrics),
	)

	em := cfg.Emission
	if opts.Preset != "" {
		p, err := cfg.Preset(opts.Preset)
		if err != nil {
			g.Unload()
			return nil, err
		}
		g.engine.SetSim(p.Apply(g.engine.Sim(), cfg.Domain.Resolution))
		em = p.ApplyEmission(em)
	}
	if err := g.engine.Reseed(em); err != nil {
		g.Unload()
		return nil, err
	}

	if !g.headless {
		g.initViewer()
	}
	return g, nil
}

func (g *Game) initViewer() {
	g.screenWidth = float32(rl.GetScreenWidth())
	g.screenHeight = float32(rl.GetScreenHeight())
	g.camera = camera.New(g.screenWidth, g.screenHeight, float32(g.cfg.Domain.GridMax))
	g.theme = ui.DefaultTheme()
	g.particleRenderer = renderer.NewParticleRenderer()
	g.particleRenderer.Slow = g.theme.Particle
	g.boundaryRenderer = renderer.NewBoundaryRenderer()
	g.boundaryRenderer.Color = g.theme.Wall
	g.hud = ui.NewHUD()
	g.controlPanel = ui.NewControlPanel(10, 10, 260, g.cfg)
	g.statsPanel = ui.NewStatsPanel(int32(g.screenWidth)-250, 100, 240)
	g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-250, 330, 240)
	g.controls = ui.ControlsFromSim(g.engine.Sim(), g.engine.Mode() == engine.Parallel, g.cfg.Domain.Resolution)
}

// Update handles input and advances one displayed frame.
func (g *Game) Update() {
	g.handleInput()
	g.perfCollector.RecordDisplay()
	if g.paused {
		return
	}

	g.displayTime += float64(rl.GetFrameTime())
	if g.displayTime < g.cfg.Frame.Warmup {
		return
	}
	g.step()
}

// UpdateHeadless advances one displayed frame without input or warm-up.
func (g *Game) UpdateHeadless() {
	g.step()
}

// step spins the boundary and advances the engine by one displayed frame.
func (g *Game) step() {
	sim := g.engine.Sim()
	g.engine.Rotate(sim.Spin)
	g.engine.AdvanceFrame(g.cfg.Frame.Duration, sim.Substeps)
	g.steps++
	g.flushTelemetry()
}

// Frame returns the number of displayed frames stepped. It differs from
// the engine's frame count while the particle set is empty.
func (g *Game) Frame() int64 {
	return g.steps
}

// Engine exposes the simulation engine.
func (g *Game) Engine() *engine.Engine {
	return g.engine
}

// Unload stops workers and closes output files.
func (g *Game) Unload() {
	g.engine.Close()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
