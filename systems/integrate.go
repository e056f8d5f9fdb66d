package systems

import "gonum.org/v1/gonum/spatial/r2"

// Estimate applies gravity to the velocity and predicts the end-of-substep
// position. gravityForce is the vertical velocity change for the substep.
func Estimate(pos, vel r2.Vec, gravityForce, dt float64) (newVel, est r2.Vec) {
	vel.Y += gravityForce
	return vel, r2.Add(pos, r2.Scale(dt, vel))
}

// DeriveVelocity recovers the velocity from the constrained position. The
// speed extrapolated over the full frame (substeps * |v|) is limited to
// maxSpeed; clamped reports whether the limit applied.
func DeriveVelocity(est, prev r2.Vec, dt float64, substeps int, maxSpeed float64) (vel r2.Vec, clamped bool) {
	vel = r2.Scale(1/dt, r2.Sub(est, prev))
	speed := r2.Norm(r2.Scale(float64(substeps), vel))
	if speed > maxSpeed {
		return r2.Scale(maxSpeed/speed, vel), true
	}
	return vel, false
}

// Settle returns the authoritative end-of-substep position: the constrained
// estimate, or a re-integration from prev when the velocity was clamped.
func Settle(prev, est, vel r2.Vec, dt float64, clamped bool) r2.Vec {
	if clamped {
		return r2.Add(prev, r2.Scale(dt, vel))
	}
	return est
}
