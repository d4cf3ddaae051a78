package scaffold

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ScaffoldNet/pkg/molgraph"
)

func TestNewNetworkRecord(t *testing.T) {
	net, err := GenerateScaffoldNetwork(molgraph.MustParseSMILES(lactam), compiled(t))
	require.NoError(t, err)

	rec, err := NewNetworkRecord([]string{lactam}, DefaultParams(), net)
	require.NoError(t, err)
	_, err = uuid.Parse(rec.ID)
	assert.NoError(t, err)
	assert.Equal(t, Fingerprint([]string{lactam}, DefaultParams()), rec.Fingerprint)
	assert.False(t, rec.CreatedAt.IsZero())

	evt := rec.Event()
	assert.Equal(t, "scaffold.network.built", evt.EventType())
	assert.Equal(t, rec.ID, evt.NetworkID)
	assert.Equal(t, 9, evt.NumNodes)
	assert.Equal(t, 8, evt.NumEdges)
	assert.Equal(t, 1, evt.Inputs)
}

func TestNewNetworkRecord_Invalid(t *testing.T) {
	_, err := NewNetworkRecord([]string{"CC"}, DefaultParams(), nil)
	assert.Error(t, err)
	_, err = NewNetworkRecord(nil, DefaultParams(), NewNetwork())
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]string{"CC", "CO"}, DefaultParams())
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint([]string{"CC", "CO"}, DefaultParams()))
	assert.NotEqual(t, a, Fingerprint([]string{"CO", "CC"}, DefaultParams()))
	assert.NotEqual(t, a, Fingerprint([]string{"CC", "CO"}, NewParams(WithGenericBondScaffolds(true))))

	implicit := DefaultParams()
	implicit.BondBreakers = nil
	assert.Equal(t, a, Fingerprint([]string{"CC", "CO"}, implicit))
}

func TestNetworkRecord_Scaffolds(t *testing.T) {
	net, err := GenerateScaffoldNetwork(molgraph.MustParseSMILES(lactam), compiled(t))
	require.NoError(t, err)
	rec, err := NewNetworkRecord([]string{lactam}, DefaultParams(), net)
	require.NoError(t, err)

	nodes := rec.Scaffolds()
	require.Len(t, nodes, 9)
	assert.Equal(t, 14, nodes[0].NumAtoms)
	assert.False(t, nodes[0].Generic)
	assert.True(t, nodes[2].Generic)
	assert.Equal(t, 7, nodes[2].NumAtoms)
	assert.True(t, nodes[7].Generic)
	assert.Equal(t, 6, nodes[4].NumAtoms)
	for i, n := range nodes {
		assert.Equal(t, rec.ID, n.NetworkID)
		assert.Equal(t, i, n.Index)
		assert.Equal(t, 1, n.Count)
	}
}

//Personal.AI order the ending
