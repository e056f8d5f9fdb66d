package engine

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/shapes"
)

// Emit appends a particle at rest at every seeding grid cell center that
// lies in shape and strictly inside the boundary at its current
// orientation. Cells are scanned column by column from the domain origin.
// Existing particles are untouched. It returns the full position array.
func (e *Engine) Emit(shape shapes.Shape) []float64 {
	d := e.cfg.Derived
	before := e.particles.Len()
	e.backend.Flush(e.particles)

	for i := 0; i < d.NumGridCells; i++ {
		x := (float64(i)+0.5)*d.CellSize + d.Origin
		for j := 0; j < d.NumGridCells; j++ {
			y := (float64(j)+0.5)*d.CellSize + d.Origin
			if !shape.Contains(x, y) {
				continue
			}
			if !e.boundary.Contains(r2.Vec{X: x, Y: y}) {
				continue
			}
			e.particles.Append(x, y)
		}
	}

	added := e.particles.Len() - before
	if added > 0 {
		e.backend.Upload(e.particles)
		e.logger.Info("particles emitted", "added", added, "total", e.particles.Len())
		e.metrics.CountEmitted(added)
	}
	return e.particles.Positions
}

// SeedDefault emits the configured initial shape.
func (e *Engine) SeedDefault() []float64 {
	return e.Emit(EmissionShape(e.cfg.Emission))
}

// EmissionShape builds the seeding region described by em: the outline
// polygon or the circle, complemented when em.Invert is set.
func EmissionShape(em config.EmissionConfig) shapes.Shape {
	if em.Shape == config.EmitOutline {
		rings := make([][]r2.Vec, len(em.Outline))
		for i, line := range em.Outline {
			rings[i] = make([]r2.Vec, len(line))
			for j, v := range line {
				rings[i][j] = r2.Vec{X: v[0], Y: v[1]}
			}
		}
		return shapes.NewPolygon(rings, em.OutlineScale, em.Invert)
	}

	var s shapes.Shape = shapes.Circle{
		Center: r2.Vec{X: em.Center[0], Y: em.Center[1]},
		Radius: em.Radius,
	}
	if em.Invert {
		s = shapes.Invert(s)
	}
	return s
}

// EmitAt emits a circle of the configured click radius around a
// simulation-space point.
func (e *Engine) EmitAt(x, y float64) []float64 {
	return e.Emit(shapes.Circle{
		Center: r2.Vec{X: x, Y: y},
		Radius: e.cfg.Emission.ClickRadius,
	})
}
