package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestEstimate(t *testing.T) {
	vel, est := Estimate(r2.Vec{X: 1, Y: 1}, r2.Vec{X: 2, Y: 0}, -0.5, 0.1)

	assert.InDelta(t, 2.0, vel.X, 1e-12)
	assert.InDelta(t, -0.5, vel.Y, 1e-12)
	assert.InDelta(t, 1.2, est.X, 1e-12)
	assert.InDelta(t, 0.95, est.Y, 1e-12)
}

func TestDeriveVelocity(t *testing.T) {
	tests := []struct {
		name        string
		est, prev   r2.Vec
		maxSpeed    float64
		wantVel     r2.Vec
		wantClamped bool
	}{
		{
			name:     "below limit",
			est:      r2.Vec{X: 0.1},
			prev:     r2.Vec{},
			maxSpeed: 100,
			wantVel:  r2.Vec{X: 1},
		},
		{
			// v = 10, extrapolated over 3 substeps = 30 > 15 -> scaled by 0.5
			name:        "clamped",
			est:         r2.Vec{Y: 1},
			prev:        r2.Vec{},
			maxSpeed:    15,
			wantVel:     r2.Vec{Y: 5},
			wantClamped: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			vel, clamped := DeriveVelocity(tc.est, tc.prev, 0.1, 3, tc.maxSpeed)
			assert.Equal(t, tc.wantClamped, clamped)
			assert.InDelta(t, tc.wantVel.X, vel.X, 1e-9)
			assert.InDelta(t, tc.wantVel.Y, vel.Y, 1e-9)
		})
	}
}

func TestSettle(t *testing.T) {
	prev := r2.Vec{X: 1}
	est := r2.Vec{X: 3}
	vel := r2.Vec{X: 5}

	assert.Equal(t, est, Settle(prev, est, vel, 0.1, false))

	p := Settle(prev, est, vel, 0.1, true)
	assert.InDelta(t, 1.5, p.X, 1e-12)
}
