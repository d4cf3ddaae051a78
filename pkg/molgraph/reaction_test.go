package molgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const breaker = "[!#0;R:1]-!@[!#0:2]>>[*:1]-[#0].[#0]-[*:2]"

func TestReaction_BondBreaker(t *testing.T) {
	rxn, err := ParseReaction(breaker)
	require.NoError(t, err)
	assert.Equal(t, 2, rxn.NumProducts())
	assert.Equal(t, breaker, rxn.Source())

	out := rxn.RunReactants(MustParseSMILES(lactam))
	require.Len(t, out, 2)

	want := [][]string{
		{"*c1ccccc1", "*CC1CCCC(=O)N1"},
		{"*C1CCCC(=O)N1", "*Cc1ccccc1"},
	}
	for i, prods := range out {
		require.Len(t, prods, 2)
		for j, p := range prods {
			require.NoError(t, Sanitize(p))
			assert.Equal(t, canon(t, want[i][j]), CanonicalSMILES(p), "match %d product %d", i, j)
		}
	}
}

func TestReaction_DoesNotMutateReactant(t *testing.T) {
	m := MustParseSMILES(lactam)
	before := CanonicalSMILES(m)
	_ = MustParseReaction(breaker).RunReactants(m)
	assert.Equal(t, before, CanonicalSMILES(m))
	assert.Equal(t, 14, m.NumAtoms())
}

func TestReaction_NoMatch(t *testing.T) {
	out := MustParseReaction(breaker).RunReactants(MustParseSMILES("c1ccccc1"))
	assert.Empty(t, out)
}

func TestReaction_CarriesConformer(t *testing.T) {
	m := MustParseSMILES("C1CCCCC1C")
	pos := make([]Point3D, m.NumAtoms())
	for i := range pos {
		pos[i] = Point3D{X: float64(i)}
	}
	require.NoError(t, m.SetConformer(pos))

	out := MustParseReaction(breaker).RunReactants(m)
	require.Len(t, out, 1)
	ring := out[0][0]
	require.True(t, ring.HasConformer())
	p, ok := ring.Position(0)
	require.True(t, ok)
	assert.Equal(t, 5.0, p.X)
	assert.Equal(t, 0, ring.Atom(1).AtomicNum)
	assert.Equal(t, 7, ring.NumAtoms())
}

func TestReaction_ElementChange(t *testing.T) {
	out := MustParseReaction("[C:1][OH]>>[N:1]").RunReactants(MustParseSMILES("CCO"))
	require.Len(t, out, 1)
	assert.Equal(t, canon(t, "CN"), CanonicalSMILES(out[0][0]))
}

func TestParseReaction_Errors(t *testing.T) {
	for _, s := range []string{
		"CC",
		"C>>",
		">>C",
		"C.C>>C",
		"[C:1]>>[C:2]",
		"[C:1][C:1]>>[C:1]",
		"C>>C>>C",
		"[C:1]>>[C:1",
	} {
		t.Run(s, func(t *testing.T) {
			_, err := ParseReaction(s)
			assert.Error(t, err)
		})
	}
	assert.Panics(t, func() { MustParseReaction("CC") })
}

//Personal.AI order the ending
