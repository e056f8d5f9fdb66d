// Package shapes provides emission predicates: regions of the simulation
// plane that seed particles when passed to the engine's Emit.
package shapes

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Shape reports whether a simulation-space point belongs to a region.
// Any parameters the test needs are carried by the value itself.
type Shape interface {
	Contains(x, y float64) bool
}

// ShapeFunc adapts a plain function to Shape.
type ShapeFunc func(x, y float64) bool

// Contains calls f(x, y).
func (f ShapeFunc) Contains(x, y float64) bool {
	return f(x, y)
}

// Circle is the open disc around Center.
type Circle struct {
	Center r2.Vec
	Radius float64
}

// Contains reports whether the distance to the center is below the radius.
func (c Circle) Contains(x, y float64) bool {
	return r2.Norm(r2.Sub(r2.Vec{X: x, Y: y}, c.Center)) < c.Radius
}

// Invert returns the complement of s.
func Invert(s Shape) Shape {
	return ShapeFunc(func(x, y float64) bool { return !s.Contains(x, y) })
}

// Polygon is a set of polylines tested with the even-odd rule: a point is
// inside when a vertical ray cast upward from it properly crosses an odd
// number of segments. Rings need not be closed; only the listed segments
// count. Coordinates are multiplied by Scale (1 when zero).
type Polygon struct {
	Rings  [][]r2.Vec
	Scale  float64
	Invert bool

	maxY float64
}

// NewPolygon creates a polygon from polylines in outline units.
func NewPolygon(rings [][]r2.Vec, scale float64, invert bool) *Polygon {
	if scale == 0 {
		scale = 1
	}
	p := &Polygon{Rings: rings, Scale: scale, Invert: invert, maxY: math.Inf(-1)}
	for _, ring := range rings {
		for _, v := range ring {
			p.maxY = math.Max(p.maxY, v.Y*scale)
		}
	}
	return p
}

// Contains applies the even-odd test, flipped when Invert is set.
func (p *Polygon) Contains(x, y float64) bool {
	// Ray from (x, y) to just past the highest vertex
	a := r2.Vec{X: x, Y: y}
	b := r2.Vec{X: x, Y: math.Max(p.maxY, y) + 1}

	crossings := 0
	for _, ring := range p.Rings {
		for i := 0; i+1 < len(ring); i++ {
			if intersects(a, b, r2.Scale(p.Scale, ring[i]), r2.Scale(p.Scale, ring[i+1])) {
				crossings++
			}
		}
	}
	odd := crossings%2 == 1
	if p.Invert {
		return !odd
	}
	return odd
}

// intersects reports whether segment a-b properly crosses segment p-q.
// Touching at an endpoint and parallel segments do not count.
func intersects(a, b, p, q r2.Vec) bool {
	det := (b.X-a.X)*(q.Y-p.Y) - (q.X-p.X)*(b.Y-a.Y)
	if det == 0 {
		return false
	}
	lambda := ((q.Y-p.Y)*(q.X-a.X) + (p.X-q.X)*(q.Y-a.Y)) / det
	gamma := ((a.Y-b.Y)*(q.X-a.X) + (b.X-a.X)*(q.Y-a.Y)) / det
	return 0 < lambda && lambda < 1 && 0 < gamma && gamma < 1
}
