package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/shapes"
)

func circleAt(x, y, r float64) shapes.Circle {
	return shapes.Circle{Center: r2.Vec{X: x, Y: y}, Radius: r}
}

// expectedCells lists the seeding cell centers accepted by Emit, in scan order.
func expectedCells(e *Engine, s shapes.Shape) []float64 {
	d := e.Config().Derived
	b := e.Boundary()
	var out []float64
	for i := 0; i < d.NumGridCells; i++ {
		x := (float64(i)+0.5)*d.CellSize + d.Origin
		for j := 0; j < d.NumGridCells; j++ {
			y := (float64(j)+0.5)*d.CellSize + d.Origin
			if s.Contains(x, y) && b.Contains(r2.Vec{X: x, Y: y}) {
				out = append(out, x, y)
			}
		}
	}
	return out
}

func TestEmit_Deterministic(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			e := newTestEngine(t, mode, nil)
			// Straddles the right wall so clipping applies
			shape := circleAt(30, 0, 10)
			want := expectedCells(e, shape)
			require.NotEmpty(t, want)

			first := append([]float64(nil), e.Emit(shape)...)
			assert.Equal(t, want, first)

			second := e.Emit(shape)
			require.Len(t, second, 2*len(want))
			assert.Equal(t, first, second[:len(want)])
			assert.Equal(t, want, second[len(want):])

			for _, v := range e.Velocities() {
				assert.Equal(t, 0.0, v)
			}
		})
	}
}

func TestEmit_ClipsToRotatedBoundary(t *testing.T) {
	e := newTestEngine(t, Sequential, nil)
	e.Rotate(0.6)

	pos := e.Emit(shapes.ShapeFunc(func(x, y float64) bool { return true }))
	b := e.Boundary()
	for i := 0; i < len(pos)/2; i++ {
		assert.True(t, b.Contains(r2.Vec{X: pos[2*i], Y: pos[2*i+1]}))
	}
	assert.Equal(t, expectedCells(e, shapes.ShapeFunc(func(x, y float64) bool { return true })), pos)
}

func TestEmit_OutsideBoundaryAddsNothing(t *testing.T) {
	e := newTestEngine(t, Parallel, nil)
	e.SeedDefault()
	n := e.Len()

	pos := e.Emit(circleAt(48, 48, 1.5))
	assert.Equal(t, n, e.Len())
	assert.Len(t, pos, 2*n)
}

func TestEmit_PreservesRunningState(t *testing.T) {
	e := newTestEngine(t, Parallel, nil)
	e.SeedDefault()
	for i := 0; i < 10; i++ {
		e.AdvanceFrame(frameDuration, 3)
	}
	n := e.Len()
	pos := append([]float64(nil), e.Positions()...)
	vel := append([]float64(nil), e.Velocities()...)

	e.EmitAt(-20, 10)
	require.Greater(t, e.Len(), n)
	assert.Equal(t, pos, e.Positions()[:2*n])
	assert.Equal(t, vel, e.Velocities()[:2*n])
	assert.Equal(t, e.Len(), e.par.n)

	// Buffers were rebuilt, so the next step must not panic
	assert.NotPanics(t, func() { e.AdvanceFrame(frameDuration, 3) })
}

func TestEmissionShape(t *testing.T) {
	em := config.Default().Emission
	circle := EmissionShape(em)
	assert.True(t, circle.Contains(10, 0))
	assert.False(t, circle.Contains(-20, 0))

	em.Invert = true
	inv := EmissionShape(em)
	assert.False(t, inv.Contains(10, 0))
	assert.True(t, inv.Contains(-20, 0))

	em.Shape = config.EmitOutline
	em.Invert = false
	outline := EmissionShape(em)

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"stem", -20, 0, true},
		{"bowl", 10, 10, true},
		{"counter", -2, 13, false},
		{"under the bowl", 10, -20, false},
		{"left of stem", -32, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, outline.Contains(tc.x, tc.y))
		})
	}
}

func TestReseed(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			e := newTestEngine(t, mode, nil)
			e.SeedDefault()
			for i := 0; i < 5; i++ {
				e.AdvanceFrame(frameDuration, 3)
			}
			e.Rotate(0.2)

			em := e.Config().Emission
			em.Shape = config.EmitOutline
			require.NoError(t, e.Reseed(em))

			want := expectedCells(e, EmissionShape(em))
			require.NotEmpty(t, want)
			assert.Equal(t, want, e.Positions())
			assert.Equal(t, config.EmitOutline, e.Config().Emission.Shape)
			assert.Equal(t, 0.2, e.Boundary().Orient)
			for _, v := range e.Velocities() {
				assert.Equal(t, 0.0, v)
			}
			filled := e.Len()

			em.Invert = true
			require.NoError(t, e.Reseed(em))
			assert.Equal(t, expectedCells(e, EmissionShape(em)), e.Positions())
			assert.Greater(t, e.Len(), filled)
			assert.NotPanics(t, func() { e.AdvanceFrame(frameDuration, 3) })

			// SetResolution re-seeds the new default
			require.NoError(t, e.SetResolution(1))
			assert.True(t, e.Config().Emission.Invert)
			assert.Equal(t, expectedCells(e, EmissionShape(em)), e.Positions())
		})
	}
}

func TestReseed_RejectsInvalid(t *testing.T) {
	e := newTestEngine(t, Sequential, nil)
	e.SeedDefault()
	n := e.Len()

	em := e.Config().Emission
	em.Shape = "star"
	err := e.Reseed(em)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))

	em.Shape = config.EmitOutline
	em.Outline = nil
	assert.Error(t, e.Reseed(em))

	assert.Equal(t, n, e.Len())
	assert.Equal(t, config.EmitCircle, e.Config().Emission.Shape)
}
