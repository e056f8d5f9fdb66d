package engine

import (
	"github.com/pthm-cable/pbd/components"
	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/systems"
	"github.com/pthm-cable/pbd/telemetry"
)

// Mode selects the execution backend.
type Mode int

const (
	// Sequential runs the pipeline as one in-place loop per stage.
	Sequential Mode = iota
	// Parallel runs each stage as a full-array pass over double buffers.
	Parallel
)

// String returns the mode name used in config and logs.
func (m Mode) String() string {
	if m == Parallel {
		return "parallel"
	}
	return "sequential"
}

// ParseMode converts a config mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	name, err := config.ParseMode(s)
	if err != nil {
		return Sequential, err
	}
	if name == "parallel" {
		return Parallel, nil
	}
	return Sequential, nil
}

// Frame carries the solver parameters of one AdvanceFrame call. Friction
// values are already iteration-normalized retention factors.
type Frame struct {
	Substep          float64
	Substeps         int
	GravityForce     float64
	Iterations       int
	Friction         float64
	BoundaryFriction float64
	MaxSpeed         float64
	Diameter         float64
	Boundary         components.Boundary

	// Neighbors is built once per frame from the positions at frame start.
	Neighbors *systems.NeighborList

	Perf *telemetry.PerfCollector
}

// Backend executes the substep pipeline over a particle set.
//
// The ParticleSet positions are authoritative between frames for both
// backends. The parallel backend keeps velocities in its own buffers until
// Flush.
type Backend interface {
	Mode() Mode

	// Upload materializes ps into the backend's representation. It must be
	// called whenever the particle count changes before the next Advance.
	Upload(ps *components.ParticleSet)

	// Flush writes the backend's authoritative state back into ps. The
	// backend stays usable afterwards.
	Flush(ps *components.ParticleSet)

	// Advance runs every substep of f and leaves the final positions in ps.
	Advance(ps *components.ParticleSet, f *Frame)

	Close()
}
