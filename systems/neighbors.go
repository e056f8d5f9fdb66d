package systems

// NeighborList maps each particle index to its ordered neighbor indices.
// Per-particle slices grow as needed and are reused across frames.
type NeighborList struct {
	lists [][]int
}

// Resize sets the number of particles, keeping existing allocations.
func (l *NeighborList) Resize(n int) {
	if cap(l.lists) < n {
		grown := make([][]int, n)
		copy(grown, l.lists)
		l.lists = grown
	}
	l.lists = l.lists[:n]
}

// Len returns the number of particles covered.
func (l *NeighborList) Len() int {
	return len(l.lists)
}

// Of returns the neighbors of particle i. The slice must not be modified.
func (l *NeighborList) Of(i int) []int {
	return l.lists[i]
}

// NeighborSlots is a dense fixed-capacity neighbor table: particle i owns
// Idx[i*Cap:(i+1)*Cap]. Unused slots start with NoNeighbor. Neighbors
// beyond Cap are dropped.
type NeighborSlots struct {
	Cap int
	Idx []int32

	// Overflow counts particles that had more neighbors than Cap in the
	// last Pack.
	Overflow int
}

// NewNeighborSlots creates an empty table with the given per-particle capacity.
func NewNeighborSlots(capacity int) *NeighborSlots {
	if capacity < 1 {
		capacity = 1
	}
	return &NeighborSlots{Cap: capacity}
}

// Pack copies list into the table, truncating each particle to Cap entries
// and terminating shorter runs with NoNeighbor.
func (s *NeighborSlots) Pack(list *NeighborList) {
	n := list.Len()
	size := n * s.Cap
	if cap(s.Idx) < size {
		s.Idx = make([]int32, size)
	}
	s.Idx = s.Idx[:size]
	s.Overflow = 0

	for i := 0; i < n; i++ {
		row := s.Idx[i*s.Cap : (i+1)*s.Cap]
		nb := list.Of(i)
		if len(nb) > s.Cap {
			s.Overflow++
			nb = nb[:s.Cap]
		}
		for k, c := range nb {
			row[k] = int32(c)
		}
		if len(nb) < s.Cap {
			row[len(nb)] = NoNeighbor
		}
	}
}

// Row returns particle i's slots. Iteration stops at the first NoNeighbor.
func (s *NeighborSlots) Row(i int) []int32 {
	return s.Idx[i*s.Cap : (i+1)*s.Cap]
}

// Len returns the number of particles in the table.
func (s *NeighborSlots) Len() int {
	if s.Cap == 0 {
		return 0
	}
	return len(s.Idx) / s.Cap
}
