package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// unitEpsilon is the length below which a direction is treated as zero.
const unitEpsilon = 1e-5

// Unit returns p scaled to unit length, or the zero vector when p is
// shorter than unitEpsilon. Coincident particles therefore get no push.
func Unit(p r2.Vec) r2.Vec {
	n := r2.Norm(p)
	if n <= unitEpsilon {
		return r2.Vec{}
	}
	return r2.Scale(1/n, p)
}

// PerIterationFriction spreads a total friction over the constraint
// iterations of one substep: applying the returned tangential retention
// factor iterations times retains (1 - total) of the tangential motion.
func PerIterationFriction(total float64, iterations int) float64 {
	if iterations < 1 {
		iterations = 1
	}
	return math.Pow(1-total, 1/float64(iterations))
}
