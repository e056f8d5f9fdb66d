package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/pbd/components"
	"github.com/pthm-cable/pbd/systems"
)

func TestComputeFrameStats_Empty(t *testing.T) {
	ps := components.NewParticleSet(0)
	s := ComputeFrameStats(ps, nil, components.NewBoundary(10, 10, 0), 1, 24)

	assert.Equal(t, 0, s.Particles)
	assert.Equal(t, 0.0, s.SpeedMax)
}

func TestComputeFrameStats(t *testing.T) {
	ps := components.NewParticleSet(4)
	ps.Append(0, 0)
	ps.Append(0.8, 0) // overlaps particle 0 by 0.2
	ps.Append(5, 5)
	ps.Append(12, 0) // 2 outside the boundary
	ps.Velocities = []float64{3, 4, 0, 0, 0, 0, 0, 10}

	// Only the first two are within the interaction radius of each other
	var nl systems.NeighborList
	systems.NewGridHash(100, 50, 1).FindNeighbors(ps.Positions, &nl)
	require.Equal(t, []int{1}, nl.Of(0))

	s := ComputeFrameStats(ps, &nl, components.NewBoundary(10, 10, 0), 1, 1)
	require.Equal(t, 4, s.Particles)

	assert.InDelta(t, 3.75, s.SpeedMean, 1e-12)
	assert.InDelta(t, 10.0, s.SpeedMax, 1e-12)
	assert.InDelta(t, 0.5*(25+100), s.Kinetic, 1e-12)
	assert.Equal(t, 1, s.Contacts)
	assert.InDelta(t, 0.2, s.MaxPenetration, 1e-12)
	assert.InDelta(t, 2.0, s.MaxBoundaryExcess, 1e-12)
	assert.InDelta(t, 0.5, s.NeighborMean, 1e-12)
	assert.Equal(t, 1, s.NeighborMax)
	assert.Equal(t, 0, s.NeighborOverflow)
}

func TestComputeFrameStats_StaleNeighborList(t *testing.T) {
	ps := components.NewParticleSet(2)
	ps.Append(0, 0)
	ps.Append(0.5, 0)

	// List built for more particles than exist, referencing a missing index
	var nl systems.NeighborList
	systems.NewGridHash(100, 50, 1).FindNeighbors([]float64{0, 0, 0.5, 0, 1, 0}, &nl)
	require.Equal(t, []int{0, 2}, nl.Of(1))

	s := ComputeFrameStats(ps, &nl, components.NewBoundary(10, 10, 0), 1, 24)
	assert.Equal(t, 1, s.Contacts)
}
