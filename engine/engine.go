// Package engine drives the position-based dynamics pipeline: neighbor
// discovery once per frame, then substeps of estimate, constrain and
// integrate on the selected backend.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/pbd/components"
	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/systems"
	"github.com/pthm-cable/pbd/telemetry"
)

// Engine owns the particle state and every solver component for its
// lifetime. It is driven from a single goroutine; consumers may read
// Positions only between AdvanceFrame calls.
type Engine struct {
	cfg     *config.Config
	sim     config.SimConfig
	logger  *slog.Logger
	perf    *telemetry.PerfCollector
	metrics *telemetry.Metrics

	particles *components.ParticleSet
	boundary  components.Boundary
	grid      *systems.GridHash
	nbors     systems.NeighborList

	backend Backend
	seq     *sequential
	par     *parallel

	frame   int64
	simTime float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithPerf enables per-phase timing.
func WithPerf(pc *telemetry.PerfCollector) Option {
	return func(e *Engine) { e.perf = pc }
}

// WithMetrics enables prometheus metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMode overrides the backend selected by the config.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.backend = e.backendFor(m) }
}

// New creates an engine with an empty particle set. cfg must have passed
// config.Validate.
func New(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		logger: slog.Default(),
		seq:    newSequential(),
		par:    newParallel(cfg.Backend.MaxNeighbors, cfg.Backend.Workers, cfg.Backend.ParallelThreshold),
	}
	mode, err := ParseMode(cfg.Backend.Mode)
	if err != nil {
		mode = Sequential
	}
	e.backend = e.backendFor(mode)

	for _, opt := range opts {
		opt(e)
	}

	e.sim, _ = cfg.Sim.Clamped()
	e.reset()
	e.metrics.SetBackend(e.backend.Mode().String(), Sequential.String(), Parallel.String())
	return e
}

// reset recreates the particle set, boundary and grid for the current config.
func (e *Engine) reset() {
	d := e.cfg.Derived
	e.particles = components.NewParticleSet(0)
	e.boundary = components.NewBoundary(d.HalfExtent, d.HalfExtent, e.sim.Orientation)
	e.grid = systems.NewGridHash(d.NumGridCells, e.cfg.Domain.GridMax, d.Diameter)
	e.nbors.Resize(0)
	e.backend.Upload(e.particles)
}

func (e *Engine) backendFor(m Mode) Backend {
	if m == Parallel {
		return e.par
	}
	return e.seq
}

// AdvanceFrame steps the simulation by duration split into substeps. It is
// a no-op when there are no particles or no substeps.
func (e *Engine) AdvanceFrame(duration float64, substeps int) {
	if e.particles.Len() == 0 || substeps <= 0 || !(duration > 0) {
		return
	}
	start := time.Now()
	sim := e.sim
	substep := duration / float64(substeps)

	f := Frame{
		Substep:          substep,
		Substeps:         substeps,
		GravityForce:     -sim.Gravity * substep,
		Iterations:       sim.Iterations,
		Friction:         systems.PerIterationFriction(sim.Friction, sim.Iterations),
		BoundaryFriction: systems.PerIterationFriction(sim.BoundaryFriction, sim.Iterations),
		MaxSpeed:         sim.MaxSpeed,
		Diameter:         e.cfg.Derived.Diameter,
		Boundary:         e.boundary,
		Neighbors:        &e.nbors,
		Perf:             e.perf,
	}

	e.perf.StartFrame()
	e.perf.StartPhase(telemetry.PhaseNeighbors)
	e.grid.FindNeighbors(e.particles.Positions, &e.nbors)
	e.backend.Advance(e.particles, &f)
	e.perf.EndFrame()

	e.frame++
	e.simTime += duration

	overflow := 0
	if e.backend.Mode() == Parallel {
		overflow = e.par.Overflow()
	}
	e.metrics.ObserveFrame(e.backend.Mode().String(), time.Since(start), e.particles.Len(), overflow)
}

// SwitchBackend moves the authoritative state into the backend for mode.
// It is a no-op when mode is already active or there are no particles.
func (e *Engine) SwitchBackend(mode Mode) {
	from := e.backend
	if mode == from.Mode() || e.particles.Len() == 0 {
		return
	}
	to := e.backendFor(mode)
	from.Flush(e.particles)
	to.Upload(e.particles)
	e.backend = to

	e.logger.Info("backend switched",
		"from", from.Mode().String(),
		"to", to.Mode().String(),
		"particles", e.particles.Len(),
	)
	e.metrics.CountSwitch(mode.String())
	e.metrics.SetBackend(mode.String(), Sequential.String(), Parallel.String())
}

// SetSim replaces the solver parameters used from the next frame on.
// Out-of-range values are clamped and logged.
func (e *Engine) SetSim(sim config.SimConfig) {
	clamped, changed := sim.Clamped()
	if changed {
		e.logger.Warn("sim config clamped",
			"iterations", clamped.Iterations,
			"gravity", clamped.Gravity,
			"friction", clamped.Friction,
			"boundary_friction", clamped.BoundaryFriction,
			"max_speed", clamped.MaxSpeed,
			"orientation", clamped.Orientation,
		)
	}
	e.sim = clamped
	e.boundary = e.boundary.WithOrient(clamped.Orientation)
}

// Rotate adds delta radians to the orientation.
func (e *Engine) Rotate(delta float64) {
	if delta == 0 {
		return
	}
	e.sim.Orientation += delta
	e.boundary = e.boundary.WithOrient(e.sim.Orientation)
}

// SetResolution switches to resolution index idx. All particles are
// discarded, orientation and spin reset, and the default emission re-seeded.
func (e *Engine) SetResolution(idx int) error {
	cfg, err := e.cfg.WithResolution(idx)
	if err != nil {
		return fmt.Errorf("setting resolution: %w", err)
	}
	e.sim.Orientation = 0
	e.sim.Spin = 0
	e.restart(cfg)

	e.logger.Info("resolution changed",
		"cells", cfg.Derived.NumGridCells,
		"diameter", cfg.Derived.Diameter,
		"particles", e.particles.Len(),
	)
	return nil
}

// Reseed discards all particles and seeds em, which becomes the default
// emission. Orientation and resolution are kept.
func (e *Engine) Reseed(em config.EmissionConfig) error {
	if err := em.Validate(); err != nil {
		return fmt.Errorf("reseeding: %w", err)
	}
	cfg := *e.cfg
	cfg.Emission = em
	e.restart(&cfg)

	e.logger.Info("reseeded",
		"shape", em.Shape,
		"invert", em.Invert,
		"particles", e.particles.Len(),
	)
	return nil
}

// restart swaps in cfg, rebuilds the particle state and seeds the default
// emission.
func (e *Engine) restart(cfg *config.Config) {
	e.cfg = cfg
	e.reset()
	e.SeedDefault()
}

// Positions returns the interleaved position array. The slice is owned by
// the engine and valid until the next Emit or SetResolution.
func (e *Engine) Positions() []float64 {
	return e.particles.Positions
}

// Velocities returns the interleaved velocity array, flushing the active
// backend first.
func (e *Engine) Velocities() []float64 {
	e.backend.Flush(e.particles)
	return e.particles.Velocities
}

// Particles flushes the active backend and returns the particle set.
func (e *Engine) Particles() *components.ParticleSet {
	e.backend.Flush(e.particles)
	return e.particles
}

// Len returns the particle count.
func (e *Engine) Len() int {
	return e.particles.Len()
}

// Boundary returns the container at the current orientation.
func (e *Engine) Boundary() components.Boundary {
	return e.boundary
}

// Neighbors returns the neighbor list of the last frame. It must not be
// modified.
func (e *Engine) Neighbors() *systems.NeighborList {
	return &e.nbors
}

// Mode returns the active backend mode.
func (e *Engine) Mode() Mode {
	return e.backend.Mode()
}

// Sim returns the current solver parameters.
func (e *Engine) Sim() config.SimConfig {
	return e.sim
}

// Config returns the config in effect, including the current resolution.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Frame returns the number of frames advanced.
func (e *Engine) Frame() int64 {
	return e.frame
}

// Stats measures the current state.
func (e *Engine) Stats() telemetry.FrameStats {
	s := telemetry.ComputeFrameStats(e.Particles(), &e.nbors, e.boundary, e.cfg.Derived.Diameter, e.cfg.Backend.MaxNeighbors)
	s.Frame = e.frame
	s.SimTime = e.simTime
	s.Backend = e.backend.Mode().String()
	return s
}

// Close stops the parallel workers.
func (e *Engine) Close() {
	e.seq.Close()
	e.par.Close()
}
