package molgraph

// bondValenceSum returns the valence consumed by the explicit bonds of atom i
// and whether any of them is aromatic.
//
// Aromatic bonds count as one each; an atom that carries aromatic bonds and
// can donate to the pi system (b, c, n, p and their heavier analogues) gets
// one extra unit, matching the Kekulé form it stands for.
func (m *Mol) bondValenceSum(i int) (int, bool) {
	sum, nArom := 0, 0
	for _, bi := range m.adj[i] {
		o := m.bonds[bi].Order
		if o == BondAromatic {
			nArom++
			continue
		}
		sum += o.valence()
	}
	if nArom == 0 {
		return sum, false
	}
	sum += nArom
	switch effectiveElement(m.atoms[i].AtomicNum, m.atoms[i].Charge) {
	case 5, 6, 7, 15, 33:
		sum++
	}
	return sum, true
}

// defaultHs returns the implicit hydrogen count a bare symbol would receive
// in the current bonding context, ignoring NoImplicit and ExplicitHs.
func (m *Mol) defaultHs(i int) int {
	a := m.atoms[i]
	if a.AtomicNum == 0 {
		return 0
	}
	vals := valencesFor(a.AtomicNum, a.Charge)
	if len(vals) == 0 {
		return 0
	}
	sum, _ := m.bondValenceSum(i)
	for _, v := range vals {
		if v >= sum {
			return v - sum
		}
	}
	return 0
}

// ImplicitHs returns the number of implicit hydrogens on atom i.
func (m *Mol) ImplicitHs(i int) int {
	a := m.atoms[i]
	if a.NoImplicit || a.AtomicNum == 0 {
		return 0
	}
	vals := valencesFor(a.AtomicNum, a.Charge)
	if len(vals) == 0 {
		return 0
	}
	sum, _ := m.bondValenceSum(i)
	sum += a.ExplicitHs
	for _, v := range vals {
		if v >= sum {
			return v - sum
		}
	}
	return 0
}

// TotalHs returns explicit plus implicit hydrogens on atom i.
func (m *Mol) TotalHs(i int) int {
	return m.atoms[i].ExplicitHs + m.ImplicitHs(i)
}

// Sanitize checks valences and aromatic ring membership.  It does not
// perceive aromaticity; aromatic flags come from the input.
func Sanitize(m *Mol) error {
	ri := m.RingInfo()
	for i, a := range m.atoms {
		if a.Aromatic && !ri.AtomInRing(i) {
			return &SanitizeError{Atom: i, Msg: "non-ring atom marked aromatic"}
		}
		if a.AtomicNum == 0 {
			continue
		}
		vals := valencesFor(a.AtomicNum, a.Charge)
		if len(vals) == 0 {
			continue
		}
		sum, arom := m.bondValenceSum(i)
		if arom {
			// aromatic atoms are checked against their sigma framework only
			sum = 0
			for _, bi := range m.adj[i] {
				if o := m.bonds[bi].Order; o == BondAromatic {
					sum++
				} else {
					sum += o.valence()
				}
			}
		}
		sum += a.ExplicitHs
		if top := vals[len(vals)-1]; sum > top {
			return &SanitizeError{Atom: i, Msg: "explicit valence for " + Symbol(a.AtomicNum) + " is greater than permitted"}
		}
	}
	for bi, b := range m.bonds {
		if b.Order == BondAromatic && !ri.BondInRing(bi) {
			return &SanitizeError{Atom: b.Begin, Msg: "non-ring bond marked aromatic"}
		}
	}
	return nil
}

//Personal.AI order the ending
