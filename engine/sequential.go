package engine

import (
	"github.com/pthm-cable/pbd/components"
	"github.com/pthm-cable/pbd/systems"
	"github.com/pthm-cable/pbd/telemetry"
)

// sequential runs each stage as one loop reading and writing the same
// arrays, so every correction is visible to the next particle.
type sequential struct {
	solver  systems.ConstraintSolver
	prev    []float64
	est     []float64
	clamped []bool
}

func newSequential() *sequential {
	return &sequential{}
}

func (s *sequential) Mode() Mode { return Sequential }

// Upload is a no-op: the sequential backend works on the ParticleSet directly.
func (s *sequential) Upload(*components.ParticleSet) {}

// Flush is a no-op for the same reason.
func (s *sequential) Flush(*components.ParticleSet) {}

func (s *sequential) Close() {}

func (s *sequential) Advance(ps *components.ParticleSet, f *Frame) {
	n := ps.Len()
	s.resize(n)
	pos, vel := ps.Positions, ps.Velocities

	for step := 0; step < f.Substeps; step++ {
		f.Perf.StartPhase(telemetry.PhaseEstimate)
		copy(s.prev, pos)
		for i := 0; i < n; i++ {
			v, e := systems.Estimate(components.Get(pos, i), components.Get(vel, i), f.GravityForce, f.Substep)
			components.Set(vel, i, v)
			components.Set(s.est, i, e)
		}

		for it := 0; it < f.Iterations; it++ {
			f.Perf.StartPhase(telemetry.PhaseBoundary)
			s.solver.SolveBoundary(s.est, s.prev, f.Boundary, f.BoundaryFriction)

			f.Perf.StartPhase(telemetry.PhaseCollide)
			s.solver.Collide(s.est, f.Neighbors, f.Diameter)

			f.Perf.StartPhase(telemetry.PhaseConstrain)
			s.solver.ApplyFriction(s.est, s.prev, f.Friction)
		}

		f.Perf.StartPhase(telemetry.PhaseVelocity)
		for i := 0; i < n; i++ {
			v, clamped := systems.DeriveVelocity(components.Get(s.est, i), components.Get(s.prev, i), f.Substep, f.Substeps, f.MaxSpeed)
			components.Set(vel, i, v)
			s.clamped[i] = clamped
		}

		f.Perf.StartPhase(telemetry.PhasePosition)
		for i := 0; i < n; i++ {
			p := systems.Settle(components.Get(s.prev, i), components.Get(s.est, i), components.Get(vel, i), f.Substep, s.clamped[i])
			components.Set(pos, i, p)
		}
	}
}

func (s *sequential) resize(n int) {
	if cap(s.prev) < 2*n {
		s.prev = make([]float64, 2*n)
		s.est = make([]float64, 2*n)
		s.clamped = make([]bool, n)
	}
	s.prev = s.prev[:2*n]
	s.est = s.est[:2*n]
	s.clamped = s.clamped[:n]
}
