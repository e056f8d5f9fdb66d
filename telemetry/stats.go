// Package telemetry collects per-frame statistics, phase timings and
// metrics, and writes them out as CSV.
package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/pbd/components"
	"github.com/pthm-cable/pbd/systems"
)

// FrameStats summarizes the particle state after one frame.
type FrameStats struct {
	Frame     int64   `csv:"frame"`
	SimTime   float64 `csv:"sim_time"`
	Backend   string  `csv:"backend"`
	Particles int     `csv:"particles"`

	// Speed distribution
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Kinetic energy with unit particle mass
	Kinetic float64 `csv:"kinetic"`

	// Constraint residuals
	Contacts          int     `csv:"contacts"`
	MaxPenetration    float64 `csv:"max_penetration"`
	MaxBoundaryExcess float64 `csv:"max_boundary_excess"`

	// Neighbor table occupancy
	NeighborMean     float64 `csv:"neighbor_mean"`
	NeighborMax      int     `csv:"neighbor_max"`
	NeighborOverflow int     `csv:"neighbor_overflow"`
}

// ComputeFrameStats measures ps against the neighbor list of the frame.
// Neighbor entries beyond the particle count are ignored, so a list built
// before an emission is still safe to pass. maxNeighbors is the dense
// slot capacity used to count overflow.
func ComputeFrameStats(ps *components.ParticleSet, nbors *systems.NeighborList, b components.Boundary, diameter float64, maxNeighbors int) FrameStats {
	n := ps.Len()
	s := FrameStats{Particles: n}
	if n == 0 {
		return s
	}

	speeds := make([]float64, n)
	for i := 0; i < n; i++ {
		v := ps.Vel(i)
		speeds[i] = r2.Norm(v)
		s.Kinetic += 0.5 * r2.Norm2(v)
		if ex := b.Excess(ps.Pos(i)); ex > s.MaxBoundaryExcess {
			s.MaxBoundaryExcess = ex
		}
	}
	s.SpeedMean, s.SpeedStd = stat.MeanStdDev(speeds, nil)
	if math.IsNaN(s.SpeedStd) {
		s.SpeedStd = 0
	}
	sort.Float64s(speeds)
	s.SpeedP50 = stat.Quantile(0.5, stat.Empirical, speeds, nil)
	s.SpeedP90 = stat.Quantile(0.9, stat.Empirical, speeds, nil)
	s.SpeedMax = speeds[n-1]

	if nbors == nil {
		return s
	}
	total := 0
	m := min(nbors.Len(), n)
	for i := 0; i < m; i++ {
		list := nbors.Of(i)
		total += len(list)
		if len(list) > s.NeighborMax {
			s.NeighborMax = len(list)
		}
		if len(list) > maxNeighbors {
			s.NeighborOverflow++
		}
		for _, j := range list {
			if j >= i || j >= n {
				continue
			}
			pen := diameter - r2.Norm(r2.Sub(ps.Pos(i), ps.Pos(j)))
			if pen > 0 {
				s.Contacts++
				if pen > s.MaxPenetration {
					s.MaxPenetration = pen
				}
			}
		}
	}
	if m > 0 {
		s.NeighborMean = float64(total) / float64(m)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("frame", s.Frame),
		slog.Float64("sim_time", s.SimTime),
		slog.String("backend", s.Backend),
		slog.Int("particles", s.Particles),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("kinetic", s.Kinetic),
		slog.Int("contacts", s.Contacts),
		slog.Float64("max_penetration", s.MaxPenetration),
		slog.Float64("max_boundary_excess", s.MaxBoundaryExcess),
		slog.Float64("neighbor_mean", s.NeighborMean),
		slog.Int("neighbor_overflow", s.NeighborOverflow),
	)
}
