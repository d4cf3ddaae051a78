package molgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMol_AddBondRejectsInvalid(t *testing.T) {
	m := NewMol()
	a := m.AddAtom(Atom{AtomicNum: 6})
	b := m.AddAtom(Atom{AtomicNum: 8})

	_, err := m.AddBond(a, a, BondSingle)
	assert.Error(t, err)
	_, err = m.AddBond(a, 7, BondSingle)
	assert.Error(t, err)

	bi, err := m.AddBond(a, b, BondDouble)
	require.NoError(t, err)
	assert.Equal(t, 0, bi)
	_, err = m.AddBond(b, a, BondSingle)
	assert.Error(t, err, "duplicate bond")
}

func TestMol_RemoveAtomRenumbers(t *testing.T) {
	m := MustParseSMILES("CCOC")
	require.NoError(t, m.RemoveAtom(1))

	assert.Equal(t, 3, m.NumAtoms())
	assert.Equal(t, 1, m.NumBonds())
	assert.Equal(t, 8, m.Atom(1).AtomicNum)
	b := m.Bond(0)
	assert.Equal(t, 1, b.Begin)
	assert.Equal(t, 2, b.End)
	assert.Equal(t, 0, m.Degree(0))

	assert.Error(t, m.RemoveAtom(5))
}

// Removing the same atom set front to back or back to front must leave the
// same structure, even though intermediate indices differ.
func TestMol_RemovalOrderDoesNotChangeStructure(t *testing.T) {
	const drop = "drop"
	cases := []struct {
		smiles string
		remove []int
	}{
		{"*c1ccccc1CC1NC(=O)CCC1*", []int{0, 8, 15}},
		{"C1CC2CCC1CC2", []int{7}},
		{"*CC(*)OC*", []int{0, 3, 6}},
	}
	for _, tc := range cases {
		t.Run(tc.smiles, func(t *testing.T) {
			descending := MustParseSMILES(tc.smiles)
			for i := len(tc.remove) - 1; i >= 0; i-- {
				require.NoError(t, descending.RemoveAtom(tc.remove[i]))
			}

			marked := MustParseSMILES(tc.smiles)
			for _, i := range tc.remove {
				marked.SetProp(i, drop, "1")
			}
			for {
				next := -1
				for i := 0; i < marked.NumAtoms(); i++ {
					if _, ok := marked.Prop(i, drop); ok {
						next = i
						break
					}
				}
				if next < 0 {
					break
				}
				require.NoError(t, marked.RemoveAtom(next))
			}

			assert.Equal(t, descending.NumAtoms(), marked.NumAtoms())
			assert.Equal(t, descending.NumBonds(), marked.NumBonds())
			assert.Equal(t, CanonicalSMILES(descending), CanonicalSMILES(marked))
		})
	}
}

func TestMol_CopyIsIndependent(t *testing.T) {
	m := MustParseSMILES("CCO")
	m.SetProp(0, PropAtomLabel, "Et")
	require.NoError(t, m.SetConformer([]Point3D{{X: 1}, {X: 2}, {X: 3}}))

	c := m.Copy()
	c.SetAtomicNum(0, 7)
	c.SetProp(0, PropAtomLabel, "N")
	c.SetPosition(0, Point3D{X: 9})
	c.SetBondOrder(0, BondDouble)

	assert.Equal(t, 6, m.Atom(0).AtomicNum)
	v, _ := m.Prop(0, PropAtomLabel)
	assert.Equal(t, "Et", v)
	p, _ := m.Position(0)
	assert.Equal(t, 1.0, p.X)
	assert.Equal(t, BondSingle, m.Bond(0).Order)
}

func TestMol_Conformer(t *testing.T) {
	m := MustParseSMILES("CC")
	assert.False(t, m.HasConformer())
	_, ok := m.Position(0)
	assert.False(t, ok)

	assert.Error(t, m.SetConformer([]Point3D{{}}))
	require.NoError(t, m.SetConformer([]Point3D{{X: 1, Y: 2, Z: 3}, {}}))
	assert.True(t, m.HasConformer())

	idx := m.AddAtom(Atom{AtomicNum: 0})
	p, ok := m.Position(idx)
	assert.True(t, ok)
	assert.Equal(t, Point3D{}, p)

	require.NoError(t, m.RemoveAtom(0))
	p, ok = m.Position(0)
	assert.True(t, ok)
	assert.Equal(t, Point3D{}, p)
}

func TestMol_Neighbors(t *testing.T) {
	m := MustParseSMILES("CC(O)N")
	assert.Equal(t, []int{0, 2, 3}, m.Neighbors(1))
	assert.Equal(t, 3, m.Degree(1))
	assert.Len(t, m.AtomBonds(1), 3)
}

func TestRingInfo(t *testing.T) {
	m := MustParseSMILES("C1CCCCC1CC")
	ri := m.RingInfo()
	for i := 0; i < 6; i++ {
		assert.True(t, ri.AtomInRing(i), "atom %d", i)
	}
	assert.False(t, ri.AtomInRing(6))
	assert.False(t, ri.AtomInRing(7))
	assert.Equal(t, 6, ri.NumRingBonds())
}

func TestRingInfo_FusedAndLinked(t *testing.T) {
	naph := MustParseSMILES("c1ccc2ccccc2c1")
	assert.Equal(t, 11, naph.RingInfo().NumRingBonds())

	biphenyl := MustParseSMILES("c1ccccc1-c1ccccc1")
	ri := biphenyl.RingInfo()
	assert.Equal(t, 12, ri.NumRingBonds())
	bi, ok := biphenyl.BondBetween(5, 6)
	require.True(t, ok)
	assert.False(t, ri.BondInRing(bi))
	assert.Equal(t, BondSingle, biphenyl.Bond(bi).Order)
}

func TestImplicitHydrogens(t *testing.T) {
	tests := []struct {
		smiles string
		want   []int
	}{
		{"CC(=O)O", []int{3, 0, 0, 1}},
		{"C#N", []int{1, 0}},
		{"*C", []int{0, 3}},
		{"c1ccncc1", []int{1, 1, 1, 0, 1, 1}},
		{"CS(=O)(=O)O", []int{3, 0, 0, 0, 1}},
		{"[O-]C", []int{0, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.smiles, func(t *testing.T) {
			m := MustParseSMILES(tt.smiles)
			got := make([]int, m.NumAtoms())
			for i := range got {
				got[i] = m.TotalHs(i)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSymbolLookup(t *testing.T) {
	assert.Equal(t, "Cl", Symbol(17))
	assert.Equal(t, "*", Symbol(0))
	assert.Equal(t, "*", Symbol(500))
	n, ok := AtomicNumber("Br")
	assert.True(t, ok)
	assert.Equal(t, 35, n)
	_, ok = AtomicNumber("Xx")
	assert.False(t, ok)
}

//Personal.AI order the ending
