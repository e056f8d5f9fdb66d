package components

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Boundary is an origin-centered square container that rotates rigidly
// with the simulation orientation.
type Boundary struct {
	HalfExtent r2.Vec  // Half-extent along the local x and y axes
	Orient     float64 // radians

	toLocal r2.Rotation
	toWorld r2.Rotation
}

// NewBoundary creates a boundary with the given half-extents and orientation.
func NewBoundary(halfX, halfY, orient float64) Boundary {
	b := Boundary{HalfExtent: r2.Vec{X: halfX, Y: halfY}}
	return b.WithOrient(orient)
}

// WithOrient returns the boundary rotated to orient.
func (b Boundary) WithOrient(orient float64) Boundary {
	b.Orient = orient
	b.toLocal = r2.NewRotation(-orient, r2.Vec{})
	b.toWorld = r2.NewRotation(orient, r2.Vec{})
	return b
}

// ToLocal rotates a world point into the boundary frame.
func (b Boundary) ToLocal(p r2.Vec) r2.Vec {
	return b.toLocal.Rotate(p)
}

// ToWorld rotates a boundary-frame vector back into world space.
func (b Boundary) ToWorld(p r2.Vec) r2.Vec {
	return b.toWorld.Rotate(p)
}

// Contains reports whether p lies strictly inside the boundary.
func (b Boundary) Contains(p r2.Vec) bool {
	l := b.ToLocal(p)
	return math.Abs(l.X) < b.HalfExtent.X && math.Abs(l.Y) < b.HalfExtent.Y
}

// Excess returns how far p lies outside the boundary along its worst axis,
// or 0 when it is inside.
func (b Boundary) Excess(p r2.Vec) float64 {
	l := b.ToLocal(p)
	ex := math.Max(math.Abs(l.X)-b.HalfExtent.X, math.Abs(l.Y)-b.HalfExtent.Y)
	if ex < 0 {
		return 0
	}
	return ex
}

// Frame returns the corners of a wall drawn around the boundary: the inner
// square is inset by pad from the outside, the outer square is width beyond
// it. Corners are in world space, inner first, counter-clockwise from the
// bottom-left.
func (b Boundary) Frame(pad, width float64) (inner, outer [4]r2.Vec) {
	ix, iy := b.HalfExtent.X+pad, b.HalfExtent.Y+pad
	ox, oy := ix+width, iy+width
	signs := [4]r2.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}
	for i, s := range signs {
		inner[i] = b.ToWorld(r2.Vec{X: s.X * ix, Y: s.Y * iy})
		outer[i] = b.ToWorld(r2.Vec{X: s.X * ox, Y: s.Y * oy})
	}
	return inner, outer
}
