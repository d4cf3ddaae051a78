package scaffold

import (
	"fmt"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/molgraph"
)

// ─────────────────────────────────────────────────────────────────────────────
// Edges
// ─────────────────────────────────────────────────────────────────────────────

// EdgeType classifies the derivation between two network nodes.
type EdgeType int

const (
	// FragmentEdge links a molecule to a fragment cut from it.
	FragmentEdge EdgeType = iota + 1
	// GenericEdge links a fragment to its atom-generic form.
	GenericEdge
	// GenericBondEdge links a fragment to its atom-and-bond generic form.
	GenericBondEdge
	// RemoveAttachmentEdge links a scaffold to its attachment-stripped form.
	RemoveAttachmentEdge
)

var edgeTypeNames = map[EdgeType]string{
	FragmentEdge:         "Fragment",
	GenericEdge:          "Generic",
	GenericBondEdge:      "GenericBond",
	RemoveAttachmentEdge: "RemoveAttachment",
}

func (t EdgeType) String() string {
	if s, ok := edgeTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("EdgeType(%d)", int(t))
}

// ParseEdgeType is the inverse of EdgeType.String.
func ParseEdgeType(s string) (EdgeType, bool) {
	for t, name := range edgeTypeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// Edge is a directed, typed derivation between two node indices.
type Edge struct {
	BeginIdx int      `json:"begin"`
	EndIdx   int      `json:"end"`
	Type     EdgeType `json:"type"`
}

func (e Edge) String() string {
	return fmt.Sprintf("NetworkEdge( %d->%d, type:%s )", e.BeginIdx, e.EndIdx, e.Type)
}

// ─────────────────────────────────────────────────────────────────────────────
// Network
// ─────────────────────────────────────────────────────────────────────────────

// Network is a deduplicated scaffold graph.  Nodes[i] and Counts[i] describe
// the same node; Edges reference nodes by index and may repeat.
type Network struct {
	Nodes  []CanonicalKey `json:"nodes"`
	Counts []int          `json:"counts"`
	Edges  []Edge         `json:"edges"`

	index map[CanonicalKey]int
}

// NewNetwork returns an empty network.
func NewNetwork() *Network {
	return &Network{index: make(map[CanonicalKey]int)}
}

// NumNodes returns the number of distinct scaffolds.
func (n *Network) NumNodes() int { return len(n.Nodes) }

// NodeIndex returns the index of key, if present.
func (n *Network) NodeIndex(key CanonicalKey) (int, bool) {
	n.ensureIndex()
	i, ok := n.index[key]
	return i, ok
}

// EdgesOfType returns the edges with type t in insertion order.
func (n *Network) EdgesOfType(t EdgeType) []Edge {
	var out []Edge
	for _, e := range n.Edges {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ensureIndex rebuilds the key index for networks decoded from storage.
func (n *Network) ensureIndex() {
	if n.index != nil && len(n.index) == len(n.Nodes) {
		return
	}
	n.index = make(map[CanonicalKey]int, len(n.Nodes))
	for i, k := range n.Nodes {
		n.index[k] = i
	}
	for len(n.Counts) < len(n.Nodes) {
		n.Counts = append(n.Counts, 0)
	}
}

// builder tracks the nodes one molecule has already touched so that each
// molecule increments a node count at most once.
type builder struct {
	net      *Network
	maxNodes int
	seen     map[int]struct{}
}

func (b *builder) node(key CanonicalKey) (int, error) {
	idx, ok := b.net.index[key]
	if !ok {
		if b.maxNodes > 0 && len(b.net.Nodes) >= b.maxNodes {
			return -1, errors.Wrap(errors.ErrLimitExceeded, errors.CodeUnknown,
				fmt.Sprintf("network reached %d nodes", b.maxNodes))
		}
		idx = len(b.net.Nodes)
		b.net.Nodes = append(b.net.Nodes, key)
		b.net.Counts = append(b.net.Counts, 0)
		b.net.index[key] = idx
	}
	if _, counted := b.seen[idx]; !counted {
		b.seen[idx] = struct{}{}
		b.net.Counts[idx]++
	}
	return idx, nil
}

// link adds child under parent with edge type t and returns the child index.
func (b *builder) link(parent int, child *molgraph.Mol, t EdgeType) (int, error) {
	idx, err := b.node(KeyOf(child))
	if err != nil {
		return -1, err
	}
	b.net.Edges = append(b.net.Edges, Edge{BeginIdx: parent, EndIdx: idx, Type: t})
	return idx, nil
}

func (b *builder) addFragment(f Fragment, p Params) error {
	parentIdx, err := b.node(f.ParentKey)
	if err != nil {
		return err
	}
	fragIdx, err := b.link(parentIdx, f.Mol, FragmentEdge)
	if err != nil {
		return err
	}

	if p.IncludeGenericScaffolds {
		generic := MakeScaffoldGeneric(f.Mol, true, false)
		gIdx, err := b.link(fragIdx, generic, GenericEdge)
		if err != nil {
			return err
		}
		if p.linksAttachmentRemoval() {
			if _, err := b.link(gIdx, RemoveAttachmentPoints(generic), RemoveAttachmentEdge); err != nil {
				return err
			}
		}
	}
	if p.IncludeGenericBondScaffolds {
		genericBond := MakeScaffoldGeneric(f.Mol, true, true)
		gbIdx, err := b.link(fragIdx, genericBond, GenericBondEdge)
		if err != nil {
			return err
		}
		if p.linksAttachmentRemoval() {
			if _, err := b.link(gbIdx, RemoveAttachmentPoints(genericBond), RemoveAttachmentEdge); err != nil {
				return err
			}
		}
	}
	if p.linksAttachmentRemoval() {
		if _, err := b.link(fragIdx, RemoveAttachmentPoints(f.Mol), RemoveAttachmentEdge); err != nil {
			return err
		}
	}
	return nil
}

// UpdateNetwork folds the scaffolds of mol into net.  On a limit error the
// network keeps every node and edge added before the cap was hit.
func UpdateNetwork(net *Network, mol *molgraph.Mol, cp *CompiledParams) error {
	if net == nil {
		return errors.InvalidParam("network must not be nil")
	}
	net.ensureIndex()
	frags, fragErr := GetMolFragments(mol, cp)
	if fragErr != nil && !errors.Is(fragErr, errors.ErrLimitExceeded) {
		return fragErr
	}

	b := &builder{net: net, maxNodes: cp.params.MaxNodes, seen: make(map[int]struct{})}
	for _, f := range frags {
		if err := b.addFragment(f, cp.params); err != nil {
			return err
		}
	}
	return fragErr
}

// GenerateScaffoldNetwork builds the network of a single molecule.  A
// molecule that yields no fragments produces an empty network.
func GenerateScaffoldNetwork(mol *molgraph.Mol, cp *CompiledParams) (*Network, error) {
	net := NewNetwork()
	err := UpdateNetwork(net, mol, cp)
	return net, err
}

// CreateScaffoldNetwork builds one network from mols in order.  Processing
// stops at the first error; the partial network is returned with it.
func CreateScaffoldNetwork(mols []*molgraph.Mol, cp *CompiledParams) (*Network, error) {
	net := NewNetwork()
	for i, m := range mols {
		if err := UpdateNetwork(net, m, cp); err != nil {
			if errors.Is(err, errors.ErrLimitExceeded) {
				return net, err
			}
			return net, errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("molecule %d", i))
		}
	}
	return net, nil
}

//Personal.AI order the ending
