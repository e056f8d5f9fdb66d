package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/pbd/components"
)

// pairStrength is the constraint weight (0.5) split evenly over both particles.
const pairStrength = 0.25

// PairCorrection returns the displacement for particle i of an overlapping
// pair; particle n receives the negation. hit is false when the pair does
// not overlap.
func PairCorrection(pi, pn r2.Vec, diameter float64) (corr r2.Vec, hit bool) {
	d := r2.Sub(pi, pn)
	dist := r2.Norm(d) - diameter
	if dist >= 0 {
		return r2.Vec{}, false
	}
	return r2.Scale(-pairStrength*dist, Unit(d)), true
}

// ContactFriction splits the displacement of a particle since the start of
// the substep into components normal and tangential to the contact with
// other, and scales the tangential part by friction (a retention factor:
// 1 keeps all tangential motion).
func ContactFriction(p, prev, other r2.Vec, friction float64) r2.Vec {
	n := Unit(r2.Sub(p, other))
	delta := r2.Sub(p, prev)
	normal := r2.Scale(r2.Dot(delta, n), n)
	tangential := r2.Sub(delta, normal)
	return r2.Add(prev, r2.Add(normal, r2.Scale(friction, tangential)))
}

// ConstrainToBoundary pushes p back toward the inside of b by half its
// penetration on each axis, then applies friction using the radial
// direction from the origin as the contact normal.
func ConstrainToBoundary(p, prev r2.Vec, b components.Boundary, friction float64) (r2.Vec, bool) {
	l := b.ToLocal(p)
	var d r2.Vec
	hit := false

	if dist := abs(l.X) - b.HalfExtent.X; dist >= 0 {
		if l.X > 0 {
			dist = -dist
		}
		d.X = 0.5 * dist
		hit = true
	}
	if dist := abs(l.Y) - b.HalfExtent.Y; dist >= 0 {
		if l.Y > 0 {
			dist = -dist
		}
		d.Y = 0.5 * dist
		hit = true
	}
	if !hit {
		return p, false
	}

	p = r2.Add(p, b.ToWorld(d))
	return ContactFriction(p, prev, r2.Vec{}, friction), true
}

// ConstraintSolver resolves constraints in place over interleaved position
// arrays. Every correction is visible to the next pair, which lets each
// pair be processed once from its higher index.
type ConstraintSolver struct {
	contacts [][]int
}

// SolveBoundary constrains every estimated position to b. prev holds the
// positions at the start of the substep. It returns the number of
// particles that touched the boundary.
func (s *ConstraintSolver) SolveBoundary(est, prev []float64, b components.Boundary, friction float64) int {
	hits := 0
	n := len(est) / 2
	for i := 0; i < n; i++ {
		p, hit := ConstrainToBoundary(components.Get(est, i), components.Get(prev, i), b, friction)
		if hit {
			components.Set(est, i, p)
			hits++
		}
	}
	return hits
}

// Collide processes each overlapping neighbor pair once, from its higher
// index, displacing both particles in place and recording the contact for
// both. It returns the number of colliding pairs.
func (s *ConstraintSolver) Collide(est []float64, nbors *NeighborList, diameter float64) int {
	n := len(est) / 2
	s.resetContacts(n)
	pairs := 0

	for i := 0; i < n; i++ {
		for _, c := range nbors.Of(i) {
			if i <= c {
				continue
			}
			corr, hit := PairCorrection(components.Get(est, i), components.Get(est, c), diameter)
			if !hit {
				continue
			}
			s.contacts[i] = append(s.contacts[i], c)
			s.contacts[c] = append(s.contacts[c], i)
			pairs++

			est[2*i] += corr.X
			est[2*i+1] += corr.Y
			est[2*c] -= corr.X
			est[2*c+1] -= corr.Y
		}
	}
	return pairs
}

// ApplyFriction runs the contact friction pass over the contacts of the last
// Collide, in index order and in place. When a particle has several
// colliders each result is computed from the current estimate, so the last
// collider determines the outcome.
func (s *ConstraintSolver) ApplyFriction(est, prev []float64, friction float64) {
	for i := range s.contacts {
		for _, c := range s.contacts[i] {
			p := ContactFriction(components.Get(est, i), components.Get(prev, i), components.Get(est, c), friction)
			components.Set(est, i, p)
		}
	}
}

func (s *ConstraintSolver) resetContacts(n int) {
	if cap(s.contacts) < n {
		grown := make([][]int, n)
		copy(grown, s.contacts)
		s.contacts = grown
	}
	s.contacts = s.contacts[:n]
	for i := range s.contacts {
		s.contacts[i] = s.contacts[i][:0]
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
