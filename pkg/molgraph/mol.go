// Package molgraph is a small molecular graph toolkit: SMILES and SMARTS
// parsing, substructure matching, single-reactant reaction templates,
// valence sanitization and canonical SMILES output.
//
// A Mol is a plain value graph.  It is not safe for concurrent mutation;
// Query and Reaction values are immutable after parsing and may be shared
// between goroutines.
package molgraph

import (
	"fmt"
	"sort"
)

// ─────────────────────────────────────────────────────────────────────────────
// Bond orders
// ─────────────────────────────────────────────────────────────────────────────

// BondOrder is the order of a bond.
type BondOrder int

const (
	BondSingle BondOrder = iota + 1
	BondDouble
	BondTriple
	BondAromatic
)

func (o BondOrder) String() string {
	switch o {
	case BondSingle:
		return "SINGLE"
	case BondDouble:
		return "DOUBLE"
	case BondTriple:
		return "TRIPLE"
	case BondAromatic:
		return "AROMATIC"
	default:
		return "UNSPECIFIED"
	}
}

// valence is the integral valence contribution of a non-aromatic bond.
func (o BondOrder) valence() int {
	switch o {
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	default:
		return 1
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Atoms and bonds
// ─────────────────────────────────────────────────────────────────────────────

// PropAtomLabel is the atom property written into the CXSMILES label block.
const PropAtomLabel = "atomLabel"

// Atom is a single vertex of a molecular graph.  AtomicNum 0 denotes a dummy
// (wildcard) atom.
type Atom struct {
	AtomicNum  int
	Charge     int
	Isotope    int
	Aromatic   bool
	ExplicitHs int
	// NoImplicit suppresses implicit hydrogen assignment, as for bracket atoms.
	NoImplicit bool
	MapNum     int
	Props      map[string]string
}

func (a Atom) clone() Atom {
	if a.Props != nil {
		p := make(map[string]string, len(a.Props))
		for k, v := range a.Props {
			p[k] = v
		}
		a.Props = p
	}
	return a
}

// IsDummy reports whether the atom is a wildcard.
func (a Atom) IsDummy() bool { return a.AtomicNum == 0 }

// Bond joins two atoms.  Begin is always the atom added first by the caller.
type Bond struct {
	Begin int
	End   int
	Order BondOrder
}

// Other returns the endpoint of b opposite to atom.
func (b Bond) Other(atom int) int {
	if b.Begin == atom {
		return b.End
	}
	return b.Begin
}

// Point3D is a conformer coordinate.
type Point3D struct {
	X, Y, Z float64
}

// ─────────────────────────────────────────────────────────────────────────────
// Mol
// ─────────────────────────────────────────────────────────────────────────────

// Mol is a molecular graph with an optional single conformer.
type Mol struct {
	atoms []Atom
	bonds []Bond
	adj   [][]int // atom -> incident bond indices, insertion order
	conf  []Point3D
}

// NewMol returns an empty molecule.
func NewMol() *Mol {
	return &Mol{}
}

// NumAtoms returns the number of atoms.
func (m *Mol) NumAtoms() int { return len(m.atoms) }

// NumBonds returns the number of bonds.
func (m *Mol) NumBonds() int { return len(m.bonds) }

// Atom returns a copy of atom i.
func (m *Mol) Atom(i int) Atom { return m.atoms[i] }

// Bond returns bond i.
func (m *Mol) Bond(i int) Bond { return m.bonds[i] }

// Atoms returns a copy of the atom list.
func (m *Mol) Atoms() []Atom {
	out := make([]Atom, len(m.atoms))
	copy(out, m.atoms)
	return out
}

// Bonds returns a copy of the bond list.
func (m *Mol) Bonds() []Bond {
	out := make([]Bond, len(m.bonds))
	copy(out, m.bonds)
	return out
}

// AddAtom appends a copy of a and returns its index.  When the molecule has a
// conformer the new atom is placed at the origin.
func (m *Mol) AddAtom(a Atom) int {
	m.atoms = append(m.atoms, a.clone())
	m.adj = append(m.adj, nil)
	if m.conf != nil {
		m.conf = append(m.conf, Point3D{})
	}
	return len(m.atoms) - 1
}

// AddBond joins atoms a and b and returns the new bond index.
func (m *Mol) AddBond(a, b int, order BondOrder) (int, error) {
	if a < 0 || b < 0 || a >= len(m.atoms) || b >= len(m.atoms) {
		return -1, fmt.Errorf("molgraph: bond %d-%d out of range", a, b)
	}
	if a == b {
		return -1, fmt.Errorf("molgraph: self bond on atom %d", a)
	}
	if _, ok := m.BondBetween(a, b); ok {
		return -1, fmt.Errorf("molgraph: duplicate bond %d-%d", a, b)
	}
	m.bonds = append(m.bonds, Bond{Begin: a, End: b, Order: order})
	idx := len(m.bonds) - 1
	m.adj[a] = append(m.adj[a], idx)
	m.adj[b] = append(m.adj[b], idx)
	return idx, nil
}

// BondBetween returns the index of the bond joining a and b.
func (m *Mol) BondBetween(a, b int) (int, bool) {
	if a < 0 || a >= len(m.adj) {
		return -1, false
	}
	for _, bi := range m.adj[a] {
		if m.bonds[bi].Other(a) == b {
			return bi, true
		}
	}
	return -1, false
}

// SetBondOrder changes the order of bond bi.
func (m *Mol) SetBondOrder(bi int, order BondOrder) { m.bonds[bi].Order = order }

// SetAtomicNum changes the element of atom i.
func (m *Mol) SetAtomicNum(i, atomicNum int) { m.atoms[i].AtomicNum = atomicNum }

// SetAromatic sets the aromatic flag of atom i.
func (m *Mol) SetAromatic(i int, aromatic bool) { m.atoms[i].Aromatic = aromatic }

// SetNoImplicit sets the implicit-hydrogen suppression flag of atom i.
func (m *Mol) SetNoImplicit(i int, v bool) { m.atoms[i].NoImplicit = v }

// SetExplicitHs sets the explicit hydrogen count of atom i.
func (m *Mol) SetExplicitHs(i, n int) { m.atoms[i].ExplicitHs = n }

// SetProp stores a string property on atom i.
func (m *Mol) SetProp(i int, key, value string) {
	if m.atoms[i].Props == nil {
		m.atoms[i].Props = make(map[string]string)
	}
	m.atoms[i].Props[key] = value
}

// Prop reads a string property of atom i.
func (m *Mol) Prop(i int, key string) (string, bool) {
	v, ok := m.atoms[i].Props[key]
	return v, ok
}

// Degree returns the number of explicit neighbours of atom i.
func (m *Mol) Degree(i int) int { return len(m.adj[i]) }

// AtomBonds returns the indices of the bonds incident to atom i in insertion
// order.
func (m *Mol) AtomBonds(i int) []int {
	out := make([]int, len(m.adj[i]))
	copy(out, m.adj[i])
	return out
}

// Neighbors returns the neighbours of atom i in bond insertion order.
func (m *Mol) Neighbors(i int) []int {
	out := make([]int, 0, len(m.adj[i]))
	for _, bi := range m.adj[i] {
		out = append(out, m.bonds[bi].Other(i))
	}
	return out
}

// sortedNeighbors returns the neighbours of atom i in ascending index order.
func (m *Mol) sortedNeighbors(i int) []int {
	out := m.Neighbors(i)
	sort.Ints(out)
	return out
}

// RemoveAtom deletes atom i together with its bonds.  Atoms and bonds after
// the removed ones are renumbered down, preserving relative order.
func (m *Mol) RemoveAtom(i int) error {
	if i < 0 || i >= len(m.atoms) {
		return fmt.Errorf("molgraph: atom %d out of range", i)
	}
	bonds := make([]Bond, 0, len(m.bonds))
	for _, b := range m.bonds {
		if b.Begin == i || b.End == i {
			continue
		}
		if b.Begin > i {
			b.Begin--
		}
		if b.End > i {
			b.End--
		}
		bonds = append(bonds, b)
	}
	m.atoms = append(m.atoms[:i], m.atoms[i+1:]...)
	if m.conf != nil {
		m.conf = append(m.conf[:i], m.conf[i+1:]...)
	}
	m.bonds = bonds
	m.rebuildAdjacency()
	return nil
}

func (m *Mol) rebuildAdjacency() {
	m.adj = make([][]int, len(m.atoms))
	for bi, b := range m.bonds {
		m.adj[b.Begin] = append(m.adj[b.Begin], bi)
		m.adj[b.End] = append(m.adj[b.End], bi)
	}
}

// Copy returns a deep copy of m.
func (m *Mol) Copy() *Mol {
	out := &Mol{
		atoms: make([]Atom, len(m.atoms)),
		bonds: make([]Bond, len(m.bonds)),
	}
	for i, a := range m.atoms {
		out.atoms[i] = a.clone()
	}
	copy(out.bonds, m.bonds)
	if m.conf != nil {
		out.conf = make([]Point3D, len(m.conf))
		copy(out.conf, m.conf)
	}
	out.rebuildAdjacency()
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Conformer
// ─────────────────────────────────────────────────────────────────────────────

// HasConformer reports whether coordinates are attached.
func (m *Mol) HasConformer() bool { return m.conf != nil }

// SetConformer attaches one coordinate per atom.
func (m *Mol) SetConformer(pos []Point3D) error {
	if len(pos) != len(m.atoms) {
		return fmt.Errorf("molgraph: conformer has %d positions for %d atoms", len(pos), len(m.atoms))
	}
	m.conf = make([]Point3D, len(pos))
	copy(m.conf, pos)
	return nil
}

// Position returns the coordinate of atom i.
func (m *Mol) Position(i int) (Point3D, bool) {
	if m.conf == nil || i < 0 || i >= len(m.conf) {
		return Point3D{}, false
	}
	return m.conf[i], true
}

// SetPosition moves atom i.  It is a no-op without a conformer.
func (m *Mol) SetPosition(i int, p Point3D) {
	if m.conf == nil || i < 0 || i >= len(m.conf) {
		return
	}
	m.conf[i] = p
}

// ─────────────────────────────────────────────────────────────────────────────
// Connectivity
// ─────────────────────────────────────────────────────────────────────────────

// Components returns the connected components as ascending atom index lists,
// ordered by their lowest atom index.
func (m *Mol) Components() [][]int {
	seen := make([]bool, len(m.atoms))
	var out [][]int
	for start := range m.atoms {
		if seen[start] {
			continue
		}
		var comp []int
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			a := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, a)
			for _, n := range m.Neighbors(a) {
				if !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
		sort.Ints(comp)
		out = append(out, comp)
	}
	return out
}

//Personal.AI order the ending
