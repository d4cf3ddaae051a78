package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	dto "github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

func TestNetworkFromDTO(t *testing.T) {
	in := dto.Network{
		Nodes:  []string{"A", "B", "C"},
		Counts: []int{1, 1, 2},
		Edges: []dto.Edge{
			{Begin: 0, End: 1, Type: dto.EdgeFragment},
			{Begin: 1, End: 2, Type: dto.EdgeRemoveAttachment},
		},
	}
	net, err := NetworkFromDTO(in)
	require.NoError(t, err)
	idx, ok := net.NodeIndex("C")
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Len(t, net.EdgesOfType(domain.RemoveAttachmentEdge), 1)
	assert.Equal(t, in, NetworkToDTO(net))
}

func TestNetworkFromDTO_Invalid(t *testing.T) {
	_, err := NetworkFromDTO(dto.Network{Nodes: []string{"A"}, Counts: []int{}})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = NetworkFromDTO(dto.Network{
		Nodes: []string{"A"}, Counts: []int{1},
		Edges: []dto.Edge{{Begin: 0, End: 0, Type: "Sideways"}},
	})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = NetworkFromDTO(dto.Network{
		Nodes: []string{"A"}, Counts: []int{1},
		Edges: []dto.Edge{{Begin: 0, End: 3, Type: dto.EdgeGeneric}},
	})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestParams(t *testing.T) {
	assert.Nil(t, ParamsFromDTO(nil))

	p := domain.DefaultParams()
	p.MaxNodes = 7
	p.ExcludeScaffoldsWithAttachments = true
	back := ParamsFromDTO(ptr(ParamsToDTO(p)))
	assert.Equal(t, p, *back)
}

func TestNetworkToDTO_Nil(t *testing.T) {
	out := NetworkToDTO(nil)
	assert.NotNil(t, out.Nodes)
	assert.NotNil(t, out.Edges)
}

func ptr[T any](v T) *T { return &v }

//Personal.AI order the ending
