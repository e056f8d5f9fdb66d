package components

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestParticleSetAppend(t *testing.T) {
	ps := NewParticleSet(4)
	assert.Equal(t, 0, ps.Len())

	ps.Append(1, 2)
	ps.Append(-3, 4)

	assert.Equal(t, 2, ps.Len())
	assert.Equal(t, r2.Vec{X: -3, Y: 4}, ps.Pos(1))
	assert.Equal(t, r2.Vec{}, ps.Vel(1))
	assert.Len(t, ps.Velocities, len(ps.Positions))
}

func TestBoundaryRotationRoundtrip(t *testing.T) {
	b := NewBoundary(10, 10, 0.7)
	p := r2.Vec{X: 3, Y: -4}

	back := b.ToWorld(b.ToLocal(p))
	assert.InDelta(t, p.X, back.X, 1e-12)
	assert.InDelta(t, p.Y, back.Y, 1e-12)

	// ToLocal rotates by the negative orientation
	l := b.ToLocal(r2.Vec{X: 1, Y: 0})
	assert.InDelta(t, math.Cos(-0.7), l.X, 1e-12)
	assert.InDelta(t, math.Sin(-0.7), l.Y, 1e-12)
}

func TestBoundaryContains(t *testing.T) {
	tests := []struct {
		name   string
		orient float64
		p      r2.Vec
		want   bool
	}{
		{"center", 0, r2.Vec{}, true},
		{"inside near edge", 0, r2.Vec{X: 9.9, Y: 0}, true},
		{"on edge is outside", 0, r2.Vec{X: 10, Y: 0}, false},
		{"corner outside axis-aligned", 0, r2.Vec{X: 11, Y: 11}, false},
		{"corner region rotated inside", math.Pi / 4, r2.Vec{X: 0, Y: 13}, true},
		{"far outside rotated", math.Pi / 4, r2.Vec{X: 0, Y: 15}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBoundary(10, 10, tc.orient)
			assert.Equal(t, tc.want, b.Contains(tc.p))
		})
	}
}

func TestBoundaryExcess(t *testing.T) {
	b := NewBoundary(10, 10, 0)
	assert.Equal(t, 0.0, b.Excess(r2.Vec{X: 5, Y: 5}))
	assert.InDelta(t, 2.0, b.Excess(r2.Vec{X: 12, Y: 5}), 1e-12)
	assert.InDelta(t, 3.0, b.Excess(r2.Vec{X: -12, Y: -13}), 1e-12)
}

func TestBoundaryFrame(t *testing.T) {
	b := NewBoundary(10, 10, math.Pi/2)
	inner, outer := b.Frame(1, 2)

	for i := range inner {
		assert.InDelta(t, math.Sqrt2*11, r2.Norm(inner[i]), 1e-9)
		assert.InDelta(t, math.Sqrt2*13, r2.Norm(outer[i]), 1e-9)
	}
	// Rotated a quarter turn, local (-11,-11) lands at world (11,-11)
	assert.InDelta(t, 11.0, inner[0].X, 1e-9)
	assert.InDelta(t, -11.0, inner[0].Y, 1e-9)
}
