// Package components holds the particle state and boundary geometry shared
// by the solver systems and the engine.
package components

import "gonum.org/v1/gonum/spatial/r2"

// ParticleSet stores particle state as flat interleaved arrays: particle i
// owns Positions[2i:2i+2] and Velocities[2i:2i+2]. Identity is the index.
// The set only grows.
type ParticleSet struct {
	Positions  []float64
	Velocities []float64
}

// NewParticleSet creates an empty set with room for capacity particles.
func NewParticleSet(capacity int) *ParticleSet {
	return &ParticleSet{
		Positions:  make([]float64, 0, capacity*2),
		Velocities: make([]float64, 0, capacity*2),
	}
}

// Len returns the number of particles.
func (p *ParticleSet) Len() int {
	return len(p.Positions) / 2
}

// Append adds a particle at rest.
func (p *ParticleSet) Append(x, y float64) {
	p.Positions = append(p.Positions, x, y)
	p.Velocities = append(p.Velocities, 0, 0)
}

// Pos returns the position of particle i.
func (p *ParticleSet) Pos(i int) r2.Vec {
	return Get(p.Positions, i)
}

// Vel returns the velocity of particle i.
func (p *ParticleSet) Vel(i int) r2.Vec {
	return Get(p.Velocities, i)
}

// Get reads element i of an interleaved xy array.
func Get(buf []float64, i int) r2.Vec {
	return r2.Vec{X: buf[2*i], Y: buf[2*i+1]}
}

// Set writes element i of an interleaved xy array.
func Set(buf []float64, i int, v r2.Vec) {
	buf[2*i] = v.X
	buf[2*i+1] = v.Y
}
