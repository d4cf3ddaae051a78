package scaffold

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/molgraph"
)

const lactam = "c1ccccc1CC1NC(=O)CCC1"

func key(t *testing.T, smiles string) CanonicalKey {
	t.Helper()
	m, err := molgraph.ParseSMILESWithOptions(smiles, molgraph.SmilesOptions{SkipSanitize: true})
	require.NoError(t, err)
	return KeyOf(m)
}

func compiled(t *testing.T, opts ...ParamOption) *CompiledParams {
	t.Helper()
	cp, err := NewParams(opts...).Compile()
	require.NoError(t, err)
	return cp
}

func TestGenerateScaffoldNetwork_Defaults(t *testing.T) {
	net, err := GenerateScaffoldNetwork(molgraph.MustParseSMILES(lactam), compiled(t))
	require.NoError(t, err)

	want := []CanonicalKey{
		key(t, lactam),
		key(t, "*c1ccccc1"),
		key(t, "**1:*:*:*:*:*:1"),
		key(t, "*1:*:*:*:*:*:1"),
		key(t, "c1ccccc1"),
		key(t, "*C1CCCC(=O)N1"),
		key(t, "**1****(=*)*1"),
		key(t, "*1*****1"),
		key(t, "O=C1CCCCN1"),
	}
	assert.Equal(t, want, net.Nodes)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 1, 1}, net.Counts)
	assert.Equal(t, []Edge{
		{0, 1, FragmentEdge},
		{1, 2, GenericEdge},
		{2, 3, RemoveAttachmentEdge},
		{1, 4, RemoveAttachmentEdge},
		{0, 5, FragmentEdge},
		{5, 6, GenericEdge},
		{6, 7, RemoveAttachmentEdge},
		{5, 8, RemoveAttachmentEdge},
	}, net.Edges)
}

func TestGenerateScaffoldNetwork_NoFragments(t *testing.T) {
	for _, s := range []string{"CCO", "c1ccccc1", "C"} {
		t.Run(s, func(t *testing.T) {
			net, err := GenerateScaffoldNetwork(molgraph.MustParseSMILES(s), compiled(t))
			require.NoError(t, err)
			assert.Empty(t, net.Nodes)
			assert.Empty(t, net.Edges)
		})
	}
}

func TestGenerateScaffoldNetwork_GenericBondScaffolds(t *testing.T) {
	net, err := GenerateScaffoldNetwork(molgraph.MustParseSMILES(lactam), compiled(t, WithGenericBondScaffolds(true)))
	require.NoError(t, err)

	assert.Len(t, net.Nodes, 11)
	assert.Len(t, net.Edges, 12)
	gb := net.EdgesOfType(GenericBondEdge)
	require.Len(t, gb, 2)

	benzeneGB, ok := net.NodeIndex(key(t, "**1*****1"))
	require.True(t, ok)
	assert.Equal(t, benzeneGB, gb[0].EndIdx)
	lactamGB, ok := net.NodeIndex(key(t, "**1****(*)*1"))
	require.True(t, ok)
	assert.Equal(t, lactamGB, gb[1].EndIdx)

	ring, ok := net.NodeIndex(key(t, "*1*****1"))
	require.True(t, ok)
	var into int
	for _, e := range net.EdgesOfType(RemoveAttachmentEdge) {
		if e.EndIdx == ring {
			into++
		}
	}
	assert.Equal(t, 3, into)
}

func TestGenerateScaffoldNetwork_FlagsOff(t *testing.T) {
	cp := compiled(t, WithGenericScaffolds(false), WithScaffoldsWithoutAttachments(false))
	net, err := GenerateScaffoldNetwork(molgraph.MustParseSMILES(lactam), cp)
	require.NoError(t, err)
	assert.Equal(t, []CanonicalKey{key(t, lactam), key(t, "*c1ccccc1"), key(t, "*C1CCCC(=O)N1")}, net.Nodes)
	assert.Equal(t, []Edge{{0, 1, FragmentEdge}, {0, 2, FragmentEdge}}, net.Edges)
}

func TestGenerateScaffoldNetwork_WithoutAttachedScaffolds(t *testing.T) {
	t.Run("generic", func(t *testing.T) {
		net, err := GenerateScaffoldNetwork(molgraph.MustParseSMILES(lactam), compiled(t, WithScaffoldsWithAttachments(false)))
		require.NoError(t, err)
		assert.Len(t, net.Nodes, 5)
		assert.Len(t, net.EdgesOfType(FragmentEdge), 2)
		assert.Len(t, net.EdgesOfType(GenericEdge), 2)
		assert.Len(t, net.Edges, 4)
		for i, c := range net.Counts {
			assert.Equal(t, 1, c, "node %d", i)
		}
	})

	t.Run("no generic", func(t *testing.T) {
		cp := compiled(t, WithScaffoldsWithAttachments(false), WithGenericScaffolds(false))
		net, err := GenerateScaffoldNetwork(molgraph.MustParseSMILES(lactam), cp)
		require.NoError(t, err)
		assert.Equal(t, []CanonicalKey{key(t, lactam), key(t, "c1ccccc1"), key(t, "O=C1CCCCN1")}, net.Nodes)
		assert.Equal(t, []Edge{{0, 1, FragmentEdge}, {0, 2, FragmentEdge}}, net.Edges)
	})

	// Ring systems joined by single bonds keep cutting after stripping.
	t.Run("linked rings", func(t *testing.T) {
		cp := compiled(t, WithScaffoldsWithAttachments(false), WithGenericScaffolds(false))
		net, err := GenerateScaffoldNetwork(molgraph.MustParseSMILES("C1CCC1C1CCCC1C1CCCCC1"), cp)
		require.NoError(t, err)
		assert.Len(t, net.Nodes, 6)
		assert.Len(t, net.Edges, 8)
		assert.Len(t, net.EdgesOfType(FragmentEdge), 8)
		for _, n := range net.Nodes {
			assert.NotContains(t, string(n), "*")
			_, err := molgraph.ParseSMILES(string(n))
			assert.NoError(t, err, n)
		}
		for _, ring := range []string{"C1CCC1", "C1CCCC1", "C1CCCCC1", "C1CCC1C1CCCC1", "C1CCCC1C1CCCCC1"} {
			_, ok := net.NodeIndex(key(t, ring))
			assert.True(t, ok, ring)
		}
	})
}

// Every flag combination over fused, bridged, heteroaromatic and multi-site
// inputs must give a deterministic, internally consistent network.
func TestGenerateScaffoldNetwork_Invariants(t *testing.T) {
	mols := []string{
		lactam,
		"Cc1ccc2ccccc2c1CN",
		"C1CC2CC1CC2c1ccncc1",
		"c1ccc2[nH]ccc2c1Cc1ccoc1",
		"OCc1cc(CC2CC2)cc(C3CCNCC3)c1",
	}
	for _, smi := range mols {
		for mask := 0; mask < 32; mask++ {
			generic, genericBond := mask&1 != 0, mask&2 != 0
			keepFirst, withoutAtt, withAtt := mask&4 != 0, mask&8 != 0, mask&16 != 0
			name := fmt.Sprintf("%s/g=%t,gb=%t,first=%t,without=%t,with=%t",
				smi, generic, genericBond, keepFirst, withoutAtt, withAtt)
			t.Run(name, func(t *testing.T) {
				cp := compiled(t,
					WithGenericScaffolds(generic),
					WithGenericBondScaffolds(genericBond),
					WithKeepOnlyFirstFragment(keepFirst),
					WithScaffoldsWithoutAttachments(withoutAtt),
					WithScaffoldsWithAttachments(withAtt),
				)
				net, err := GenerateScaffoldNetwork(molgraph.MustParseSMILES(smi), cp)
				require.NoError(t, err)
				again, err := GenerateScaffoldNetwork(molgraph.MustParseSMILES(smi), cp)
				require.NoError(t, err)

				assert.Equal(t, net.Nodes, again.Nodes)
				assert.Equal(t, net.Counts, again.Counts)
				assert.ElementsMatch(t, net.Edges, again.Edges)

				require.NotEmpty(t, net.Nodes)
				assert.Equal(t, KeyOf(molgraph.MustParseSMILES(smi)), net.Nodes[0])
				seen := make(map[CanonicalKey]bool, len(net.Nodes))
				for _, n := range net.Nodes {
					assert.False(t, seen[n], "duplicate node %s", n)
					seen[n] = true
				}
				require.Len(t, net.Counts, len(net.Nodes))
				for i, c := range net.Counts {
					assert.GreaterOrEqual(t, c, 1, "node %d", i)
				}

				reached := make([]bool, len(net.Nodes))
				for _, e := range net.Edges {
					require.True(t, e.BeginIdx >= 0 && e.BeginIdx < len(net.Nodes), "edge %v", e)
					require.True(t, e.EndIdx >= 0 && e.EndIdx < len(net.Nodes), "edge %v", e)
					reached[e.EndIdx] = true
					switch e.Type {
					case GenericEdge:
						assert.True(t, generic, "edge %v", e)
					case GenericBondEdge:
						assert.True(t, genericBond, "edge %v", e)
					case RemoveAttachmentEdge:
						assert.True(t, withoutAtt && withAtt, "edge %v", e)
					case FragmentEdge:
						if !withAtt {
							assert.False(t, strings.Contains(string(net.Nodes[e.EndIdx]), "*"), "edge %v", e)
						}
					default:
						t.Errorf("unknown edge type %v", e.Type)
					}
				}
				for i := 1; i < len(reached); i++ {
					assert.True(t, reached[i], "node %d has no incoming edge", i)
				}
			})
		}
	}
}

func TestCreateScaffoldNetwork_CountsEachMoleculeOnce(t *testing.T) {
	m := molgraph.MustParseSMILES(lactam)
	net, err := CreateScaffoldNetwork([]*molgraph.Mol{m, m}, compiled(t))
	require.NoError(t, err)
	assert.Len(t, net.Nodes, 9)
	assert.Len(t, net.Edges, 16)
	for i, c := range net.Counts {
		assert.Equal(t, 2, c, "node %d", i)
	}
}

func TestCreateScaffoldNetwork_SharedScaffolds(t *testing.T) {
	mols := []*molgraph.Mol{
		molgraph.MustParseSMILES(lactam),
		molgraph.MustParseSMILES("c1ccccc1CCN"),
	}
	net, err := CreateScaffoldNetwork(mols, compiled(t))
	require.NoError(t, err)

	idx, ok := net.NodeIndex(key(t, "*c1ccccc1"))
	require.True(t, ok)
	assert.Equal(t, 2, net.Counts[idx])
	parent, ok := net.NodeIndex(key(t, "c1ccccc1CCN"))
	require.True(t, ok)
	assert.Equal(t, 1, net.Counts[parent])
	assert.Len(t, net.Nodes, 10)
}

func TestUpdateNetwork_MaxNodes(t *testing.T) {
	net, err := GenerateScaffoldNetwork(molgraph.MustParseSMILES(lactam), compiled(t, WithMaxNodes(4)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrLimitExceeded))
	assert.True(t, errors.IsCode(err, errors.ErrCodeLimitExceeded))
	assert.Len(t, net.Nodes, 4)
	assert.Len(t, net.Edges, 3)
}

func TestUpdateNetwork_DecodedNetwork(t *testing.T) {
	m := molgraph.MustParseSMILES(lactam)
	cp := compiled(t)
	net, err := GenerateScaffoldNetwork(m, cp)
	require.NoError(t, err)

	raw, err := json.Marshal(net)
	require.NoError(t, err)
	var decoded Network
	require.NoError(t, json.Unmarshal(raw, &decoded))

	idx, ok := decoded.NodeIndex(key(t, "c1ccccc1"))
	require.True(t, ok)
	assert.Equal(t, 4, idx)

	require.NoError(t, UpdateNetwork(&decoded, m, cp))
	assert.Len(t, decoded.Nodes, 9)
	assert.Equal(t, 2, decoded.Counts[idx])
}

func TestUpdateNetwork_NilArguments(t *testing.T) {
	assert.Error(t, UpdateNetwork(nil, molgraph.MustParseSMILES("CC"), compiled(t)))
	assert.Error(t, UpdateNetwork(NewNetwork(), nil, compiled(t)))
	assert.Error(t, UpdateNetwork(NewNetwork(), molgraph.MustParseSMILES("CC"), nil))
}

func TestEdge_String(t *testing.T) {
	assert.Equal(t, "NetworkEdge( 0->1, type:Fragment )", Edge{0, 1, FragmentEdge}.String())
	assert.Equal(t, "NetworkEdge( 3->7, type:RemoveAttachment )", Edge{3, 7, RemoveAttachmentEdge}.String())
	assert.Equal(t, "EdgeType(9)", EdgeType(9).String())

	for _, et := range []EdgeType{FragmentEdge, GenericEdge, GenericBondEdge, RemoveAttachmentEdge} {
		got, ok := ParseEdgeType(et.String())
		require.True(t, ok)
		assert.Equal(t, et, got)
	}
	_, ok := ParseEdgeType("Bogus")
	assert.False(t, ok)
}

//Personal.AI order the ending
