package engine

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/pbd/components"
	"github.com/pthm-cable/pbd/config"
)

const frameDuration = 1.0 / 60

// newTestEngine builds an engine on the default config after applying mutate.
func newTestEngine(t testing.TB, mode Mode, mutate func(*config.Config)) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Backend.ParallelThreshold = 0
	cfg.Backend.Workers = 4
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	cfg, err := cfg.WithResolution(cfg.Domain.Resolution)
	require.NoError(t, err)

	e := New(cfg, WithMode(mode), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(e.Close)
	return e
}

// place appends particles at rest outside of emission.
func place(e *Engine, pts ...r2.Vec) {
	e.backend.Flush(e.particles)
	for _, p := range pts {
		e.particles.Append(p.X, p.Y)
	}
	e.backend.Upload(e.particles)
}

// setVel overwrites the velocity of particle i.
func setVel(e *Engine, i int, v r2.Vec) {
	e.backend.Flush(e.particles)
	components.Set(e.particles.Velocities, i, v)
	e.backend.Upload(e.particles)
}

func frictionless(c *config.Config) {
	c.Sim.Friction = 0
	c.Sim.BoundaryFriction = 0
}

var modes = []Mode{Sequential, Parallel}

func TestAdvanceFrame_FreeFall(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			e := newTestEngine(t, mode, func(c *config.Config) {
				frictionless(c)
				c.Sim.Gravity = 9.81
				c.Sim.Iterations = 2
				c.Domain.BoundaryRatio = 1 // half-extent 50
			})
			place(e, r2.Vec{})

			e.AdvanceFrame(frameDuration, 3)

			dt := frameDuration / 3
			vel := e.Velocities()
			pos := e.Positions()
			assert.InDelta(t, 0, vel[0], 1e-12)
			assert.InDelta(t, -9.81*dt*3, vel[1], 1e-9)
			assert.InDelta(t, 0, pos[0], 1e-12)
			assert.InDelta(t, -6*9.81*dt*dt, pos[1], 1e-9)
			assert.Equal(t, int64(1), e.Frame())
		})
	}
}

func TestAdvanceFrame_ConservesVelocity(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			e := newTestEngine(t, mode, func(c *config.Config) {
				frictionless(c)
				c.Sim.Gravity = 0
			})
			place(e, r2.Vec{X: -5, Y: 3})
			v := r2.Vec{X: 1.5, Y: -0.5}
			setVel(e, 0, v)

			for i := 0; i < 10; i++ {
				e.AdvanceFrame(frameDuration, 3)
			}

			got := components.Get(e.Velocities(), 0)
			assert.InDelta(t, v.X, got.X, 1e-9)
			assert.InDelta(t, v.Y, got.Y, 1e-9)
			assert.InDelta(t, -5+v.X*10*frameDuration, e.Positions()[0], 1e-9)
		})
	}
}

func TestAdvanceFrame_NoOp(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			e := newTestEngine(t, mode, nil)

			// No particles
			e.AdvanceFrame(frameDuration, 3)
			assert.Equal(t, 0, e.Len())
			assert.Equal(t, int64(0), e.Frame())

			e.SeedDefault()
			e.AdvanceFrame(frameDuration, 3)
			pos := append([]float64(nil), e.Positions()...)
			vel := append([]float64(nil), e.Velocities()...)

			e.AdvanceFrame(frameDuration, 0)
			e.AdvanceFrame(0, 3)
			assert.Equal(t, pos, e.Positions())
			assert.Equal(t, vel, e.Velocities())
			assert.Equal(t, int64(1), e.Frame())
		})
	}
}

func TestAdvanceFrame_BoundaryContainment(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			e := newTestEngine(t, mode, nil)
			e.SeedDefault()
			require.Greater(t, e.Len(), 100)
			eps := e.Config().Derived.Diameter

			for f := 0; f < 120; f++ {
				e.Rotate(0.02)
				e.AdvanceFrame(frameDuration, 3)

				b := e.Boundary()
				pos := e.Positions()
				for i := 0; i < e.Len(); i++ {
					p := components.Get(pos, i)
					require.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y), "particle %d is NaN at frame %d", i, f)
					require.LessOrEqual(t, b.Excess(p), eps, "particle %d escaped at frame %d", i, f)
				}
			}
		})
	}
}

func TestAdvanceFrame_SeparatesChain(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			e := newTestEngine(t, mode, func(c *config.Config) {
				frictionless(c)
				c.Sim.Gravity = 0
				c.Sim.Iterations = 50
				c.Sim.MaxSpeed = 1e9
			})
			d := e.Config().Derived.Diameter
			place(e,
				r2.Vec{X: 0},
				r2.Vec{X: 0.8 * d},
				r2.Vec{X: 1.6 * d},
				r2.Vec{X: 2.4 * d},
			)

			e.AdvanceFrame(frameDuration, 1)

			pos := e.Positions()
			nb := e.Neighbors()
			for i := 0; i < e.Len(); i++ {
				for _, j := range nb.Of(i) {
					dist := r2.Norm(r2.Sub(components.Get(pos, i), components.Get(pos, j)))
					assert.GreaterOrEqual(t, dist, d-1e-3, "pair (%d, %d)", i, j)
				}
			}
		})
	}
}

func TestSwitchBackend(t *testing.T) {
	e := newTestEngine(t, Parallel, nil)

	// No particles: request ignored
	e.SwitchBackend(Sequential)
	assert.Equal(t, Parallel, e.Mode())

	e.SeedDefault()
	for i := 0; i < 5; i++ {
		e.AdvanceFrame(frameDuration, 3)
	}
	wantVel := append([]float64(nil), e.par.vel...)
	wantPos := append([]float64(nil), e.par.pos[e.par.cur]...)

	e.SwitchBackend(Parallel)
	assert.Equal(t, Parallel, e.Mode())

	e.SwitchBackend(Sequential)
	require.Equal(t, Sequential, e.Mode())
	assert.Equal(t, wantVel, e.particles.Velocities)
	assert.Equal(t, wantPos, e.particles.Positions)

	e.AdvanceFrame(frameDuration, 3)
	e.SwitchBackend(Parallel)
	require.Equal(t, Parallel, e.Mode())
	assert.Equal(t, e.particles.Velocities, e.par.vel)
	e.AdvanceFrame(frameDuration, 3)
}

func TestSetSim_Clamps(t *testing.T) {
	e := newTestEngine(t, Sequential, nil)

	sim := e.Sim()
	sim.Iterations = 0
	sim.Friction = 1.5
	sim.Orientation = 0.4
	e.SetSim(sim)

	got := e.Sim()
	assert.Equal(t, 1, got.Iterations)
	assert.Equal(t, 1.0, got.Friction)
	assert.Equal(t, 0.4, e.Boundary().Orient)
}

func TestSetSim_NonFiniteStaysFinite(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			e := newTestEngine(t, mode, nil)
			e.SeedDefault()
			require.Positive(t, e.Len())

			sim := e.Sim()
			sim.Friction = math.NaN()
			sim.BoundaryFriction = math.Inf(1)
			sim.Gravity = math.NaN()
			sim.Orientation = math.Inf(-1)
			e.SetSim(sim)

			got := e.Sim()
			assert.Equal(t, 0.0, got.Friction)
			assert.Equal(t, 1.0, got.BoundaryFriction)
			assert.Equal(t, config.DefaultGravity, got.Gravity)
			assert.Equal(t, 0.0, e.Boundary().Orient)

			for i := 0; i < 200; i++ {
				e.AdvanceFrame(frameDuration, 3)
			}
			for i, v := range e.Positions() {
				require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "coordinate %d is %v", i, v)
			}
		})
	}
}

func TestSetResolution(t *testing.T) {
	e := newTestEngine(t, Parallel, nil)
	e.SeedDefault()
	n0 := e.Len()
	e.Rotate(0.5)
	e.AdvanceFrame(frameDuration, 3)

	require.NoError(t, e.SetResolution(1))
	assert.Equal(t, 160, e.Config().Derived.NumGridCells)
	assert.Equal(t, 0.0, e.Sim().Orientation)
	assert.Equal(t, 0.0, e.Boundary().Orient)
	assert.Greater(t, e.Len(), n0)

	// Buffers follow the new particle count
	e.AdvanceFrame(frameDuration, 3)

	err := e.SetResolution(9)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
	assert.Equal(t, 160, e.Config().Derived.NumGridCells)
}

func TestStats(t *testing.T) {
	e := newTestEngine(t, Parallel, nil)
	e.SeedDefault()
	e.AdvanceFrame(frameDuration, 3)

	s := e.Stats()
	assert.Equal(t, int64(1), s.Frame)
	assert.Equal(t, "parallel", s.Backend)
	assert.Equal(t, e.Len(), s.Particles)
	assert.Greater(t, s.SpeedMax, 0.0)
	assert.InDelta(t, frameDuration, s.SimTime, 1e-12)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("parallel")
	require.NoError(t, err)
	assert.Equal(t, Parallel, m)

	m, err = ParseMode("sequential")
	require.NoError(t, err)
	assert.Equal(t, Sequential, m)

	_, err = ParseMode("gpu")
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func BenchmarkAdvanceFrame(b *testing.B) {
	for _, mode := range modes {
		b.Run(mode.String(), func(b *testing.B) {
			e := newTestEngine(b, mode, func(c *config.Config) {
				c.Domain.Resolution = 2
				c.Backend.Workers = 0
				c.Backend.ParallelThreshold = 64
			})
			e.Emit(circleAt(0, 0, 30))

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				e.AdvanceFrame(frameDuration, 3)
			}
		})
	}
}
