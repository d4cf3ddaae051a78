package molgraph

// RingInfo records ring membership for atoms and bonds.  A bond is in a ring
// exactly when it is not a bridge of the molecular graph; an atom is in a
// ring when any of its bonds is.
type RingInfo struct {
	atomInRing []bool
	bondInRing []bool
}

// AtomInRing reports whether atom i belongs to at least one ring.
func (r *RingInfo) AtomInRing(i int) bool { return r.atomInRing[i] }

// BondInRing reports whether bond i belongs to at least one ring.
func (r *RingInfo) BondInRing(i int) bool { return r.bondInRing[i] }

// NumRingBonds returns the number of ring bonds.
func (r *RingInfo) NumRingBonds() int {
	n := 0
	for _, v := range r.bondInRing {
		if v {
			n++
		}
	}
	return n
}

// RingInfo computes ring membership with a lowlink depth-first search.  The
// result is not cached; callers that query repeatedly should keep it.
func (m *Mol) RingInfo() *RingInfo {
	n := len(m.atoms)
	ri := &RingInfo{
		atomInRing: make([]bool, n),
		bondInRing: make([]bool, len(m.bonds)),
	}
	for i := range ri.bondInRing {
		ri.bondInRing[i] = true
	}

	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	clock := 0

	var visit func(u, parentBond int)
	visit = func(u, parentBond int) {
		disc[u] = clock
		low[u] = clock
		clock++
		for _, bi := range m.adj[u] {
			if bi == parentBond {
				continue
			}
			v := m.bonds[bi].Other(u)
			if disc[v] == -1 {
				visit(v, bi)
				if low[v] < low[u] {
					low[u] = low[v]
				}
				if low[v] > disc[u] {
					ri.bondInRing[bi] = false
				}
			} else if disc[v] < low[u] {
				low[u] = disc[v]
			}
		}
	}
	for u := 0; u < n; u++ {
		if disc[u] == -1 {
			visit(u, -1)
		}
	}

	for bi, b := range m.bonds {
		if ri.bondInRing[bi] {
			ri.atomInRing[b.Begin] = true
			ri.atomInRing[b.End] = true
		}
	}
	return ri
}

//Personal.AI order the ending
