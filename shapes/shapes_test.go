package shapes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestCircle(t *testing.T) {
	c := Circle{Center: r2.Vec{X: 10, Y: 0}, Radius: 2}

	tests := []struct {
		x, y float64
		want bool
	}{
		{10, 0, true},
		{11.9, 0, true},
		{12, 0, false}, // on the rim
		{10, -2.5, false},
		{0, 0, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, c.Contains(tc.x, tc.y), "(%v, %v)", tc.x, tc.y)
	}
}

func TestInvert(t *testing.T) {
	c := Circle{Center: r2.Vec{X: -5}, Radius: 1}
	inv := Invert(c)

	assert.False(t, inv.Contains(-5, 0))
	assert.True(t, inv.Contains(0, 0))
	assert.True(t, inv.Contains(-6, 0), "the rim belongs to the complement")
}

func TestShapeFunc(t *testing.T) {
	upper := ShapeFunc(func(x, y float64) bool { return y > 0 })
	assert.True(t, upper.Contains(0, 1))
	assert.False(t, upper.Contains(0, -1))
}

func TestPolygon_Square(t *testing.T) {
	square := [][]r2.Vec{{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}, {X: 0, Y: 0}}}

	tests := []struct {
		name   string
		scale  float64
		invert bool
		x, y   float64
		want   bool
	}{
		{"inside", 1, false, 1, 1, true},
		{"right of square", 1, false, 3, 1, false},
		{"below crosses twice", 1, false, 1, -1, false},
		{"above", 1, false, 1, 3, false},
		{"scaled inside", 5, false, 7, 9, true},
		{"scaled outside", 5, false, 11, 9, false},
		{"inverted inside", 1, true, 1, 1, false},
		{"inverted outside", 1, true, 3, 1, true},
		{"zero scale means unit", 0, false, 1, 1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPolygon(square, tc.scale, tc.invert)
			assert.Equal(t, tc.want, p.Contains(tc.x, tc.y))
		})
	}
}

func TestPolygon_HoleByEvenOdd(t *testing.T) {
	outer := []r2.Vec{{X: -4, Y: -4}, {X: 4, Y: -4}, {X: 4, Y: 4}, {X: -4, Y: 4}, {X: -4, Y: -4}}
	hole := []r2.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: -1}}
	p := NewPolygon([][]r2.Vec{outer, hole}, 1, false)

	assert.True(t, p.Contains(2.5, 0.5))
	assert.False(t, p.Contains(0.5, 0.5))
	assert.True(t, p.Contains(0.5, -2.5))
}

func TestIntersects(t *testing.T) {
	a, b := r2.Vec{X: 0, Y: 0}, r2.Vec{X: 0, Y: 10}

	assert.True(t, intersects(a, b, r2.Vec{X: -1, Y: 5}, r2.Vec{X: 1, Y: 5}))
	// Parallel
	assert.False(t, intersects(a, b, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 1, Y: 10}))
	// Touches the ray at a segment endpoint only
	assert.False(t, intersects(a, b, r2.Vec{X: 0, Y: 5}, r2.Vec{X: 1, Y: 5}))
	// Beyond the ray end
	assert.False(t, intersects(a, b, r2.Vec{X: -1, Y: 12}, r2.Vec{X: 1, Y: 12}))
}
