package engine

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/pbd/components"
	"github.com/pthm-cable/pbd/systems"
	"github.com/pthm-cable/pbd/telemetry"
)

// parallel runs every stage as a full-array pass in which each particle is
// computed independently. A pass never reads a buffer it writes: estimates
// ping-pong between the two scratch slots and positions between the two
// position slots, with the index of the live slot swapped after each pass.
type parallel struct {
	pool *workerPool

	n       int
	pos     [2][]float64 // authoritative positions, pos[cur]
	cur     int
	vel     []float64
	scratch [2][]float64 // estimated positions, scratch[src]
	src     int
	clamped []bool

	slots    *systems.NeighborSlots
	contacts []int32 // per particle colliders, slots.Cap wide, NoNeighbor terminated

	frame *Frame

	// Pass kernels bound once so dispatch does not allocate
	estimateK, boundaryK, collideK, frictionK, velocityK, positionK kernel
}

func newParallel(maxNeighbors, workers, threshold int) *parallel {
	p := &parallel{
		pool:  newWorkerPool(workers, threshold),
		slots: systems.NewNeighborSlots(maxNeighbors),
	}
	p.estimateK = p.estimateChunk
	p.boundaryK = p.boundaryChunk
	p.collideK = p.collideChunk
	p.frictionK = p.frictionChunk
	p.velocityK = p.velocityChunk
	p.positionK = p.positionChunk
	return p
}

func (p *parallel) Mode() Mode { return Parallel }

// Upload resizes every buffer to the particle count of ps and copies its
// state in.
func (p *parallel) Upload(ps *components.ParticleSet) {
	n := ps.Len()
	p.n = n
	p.cur = 0
	for i := range p.pos {
		p.pos[i] = resizeFloats(p.pos[i], 2*n)
		p.scratch[i] = resizeFloats(p.scratch[i], 2*n)
	}
	p.vel = resizeFloats(p.vel, 2*n)
	if cap(p.clamped) < n {
		p.clamped = make([]bool, n)
	}
	p.clamped = p.clamped[:n]

	copy(p.pos[p.cur], ps.Positions)
	copy(p.vel, ps.Velocities)
}

// Flush copies positions and velocities back into ps.
func (p *parallel) Flush(ps *components.ParticleSet) {
	p.checkSize(ps)
	copy(ps.Positions, p.pos[p.cur])
	copy(ps.Velocities, p.vel)
}

func (p *parallel) Close() {
	p.pool.stop()
}

func (p *parallel) Advance(ps *components.ParticleSet, f *Frame) {
	p.checkSize(ps)
	p.frame = f
	defer func() { p.frame = nil }()

	p.slots.Pack(f.Neighbors)
	p.contacts = resizeInt32(p.contacts, len(p.slots.Idx))

	for step := 0; step < f.Substeps; step++ {
		f.Perf.StartPhase(telemetry.PhaseEstimate)
		p.src = 0
		p.pool.run(p.n, p.estimateK)

		for it := 0; it < f.Iterations; it++ {
			f.Perf.StartPhase(telemetry.PhaseBoundary)
			p.pass(p.boundaryK)

			f.Perf.StartPhase(telemetry.PhaseCollide)
			p.pass(p.collideK)

			f.Perf.StartPhase(telemetry.PhaseConstrain)
			p.pass(p.frictionK)
		}

		f.Perf.StartPhase(telemetry.PhaseVelocity)
		p.pool.run(p.n, p.velocityK)

		f.Perf.StartPhase(telemetry.PhasePosition)
		p.pool.run(p.n, p.positionK)
		p.cur ^= 1
	}

	f.Perf.StartPhase(telemetry.PhaseSync)
	copy(ps.Positions, p.pos[p.cur])
}

// pass runs k from scratch[src] into the other slot, then swaps.
func (p *parallel) pass(k kernel) {
	p.pool.run(p.n, k)
	p.src ^= 1
}

// Overflow returns how many particles had neighbors dropped by the slot
// capacity in the last Advance.
func (p *parallel) Overflow() int {
	return p.slots.Overflow
}

func (p *parallel) checkSize(ps *components.ParticleSet) {
	if ps.Len() != p.n {
		panic(fmt.Sprintf("engine: parallel buffers sized for %d particles, particle set has %d", p.n, ps.Len()))
	}
}

func (p *parallel) estimateChunk(start, end int) {
	f := p.frame
	pos, est := p.pos[p.cur], p.scratch[p.src]
	for i := start; i < end; i++ {
		v, e := systems.Estimate(components.Get(pos, i), components.Get(p.vel, i), f.GravityForce, f.Substep)
		components.Set(p.vel, i, v)
		components.Set(est, i, e)
	}
}

func (p *parallel) boundaryChunk(start, end int) {
	f := p.frame
	in, out, prev := p.scratch[p.src], p.scratch[p.src^1], p.pos[p.cur]
	for i := start; i < end; i++ {
		q, _ := systems.ConstrainToBoundary(components.Get(in, i), components.Get(prev, i), f.Boundary, f.BoundaryFriction)
		components.Set(out, i, q)
	}
}

// collideChunk sums the correction of every overlapping neighbor, each
// computed from the estimates at the start of the pass.
func (p *parallel) collideChunk(start, end int) {
	f := p.frame
	in, out := p.scratch[p.src], p.scratch[p.src^1]
	c := p.slots.Cap
	for i := start; i < end; i++ {
		pi := components.Get(in, i)
		var acc r2.Vec
		hits := p.contacts[i*c : (i+1)*c]
		m := 0
		for _, nb := range p.slots.Row(i) {
			if nb == systems.NoNeighbor {
				break
			}
			corr, hit := systems.PairCorrection(pi, components.Get(in, int(nb)), f.Diameter)
			if !hit {
				continue
			}
			acc = r2.Add(acc, corr)
			hits[m] = nb
			m++
		}
		if m < c {
			hits[m] = systems.NoNeighbor
		}
		components.Set(out, i, r2.Add(pi, acc))
	}
}

// frictionChunk applies each recorded collider in turn to a local copy of
// the particle's estimate; the last collider determines the result.
func (p *parallel) frictionChunk(start, end int) {
	f := p.frame
	in, out, prev := p.scratch[p.src], p.scratch[p.src^1], p.pos[p.cur]
	c := p.slots.Cap
	for i := start; i < end; i++ {
		q := components.Get(in, i)
		pv := components.Get(prev, i)
		for _, nb := range p.contacts[i*c : (i+1)*c] {
			if nb == systems.NoNeighbor {
				break
			}
			q = systems.ContactFriction(q, pv, components.Get(in, int(nb)), f.Friction)
		}
		components.Set(out, i, q)
	}
}

func (p *parallel) velocityChunk(start, end int) {
	f := p.frame
	est, prev := p.scratch[p.src], p.pos[p.cur]
	for i := start; i < end; i++ {
		v, clamped := systems.DeriveVelocity(components.Get(est, i), components.Get(prev, i), f.Substep, f.Substeps, f.MaxSpeed)
		components.Set(p.vel, i, v)
		p.clamped[i] = clamped
	}
}

func (p *parallel) positionChunk(start, end int) {
	f := p.frame
	est, prev, out := p.scratch[p.src], p.pos[p.cur], p.pos[p.cur^1]
	for i := start; i < end; i++ {
		q := systems.Settle(components.Get(prev, i), components.Get(est, i), components.Get(p.vel, i), f.Substep, p.clamped[i])
		components.Set(out, i, q)
	}
}

func resizeFloats(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}

func resizeInt32(buf []int32, n int) []int32 {
	if cap(buf) < n {
		return make([]int32, n)
	}
	return buf[:n]
}
