package scaffold

import "github.com/turtacn/ScaffoldNet/pkg/molgraph"

// CanonicalKey identifies a scaffold by the canonical SMILES of its graph.
// Keys are only produced by KeyOf so that raw strings are never mistaken for
// node identities.
type CanonicalKey string

// KeyOf returns the canonical key of m.
func KeyOf(m *molgraph.Mol) CanonicalKey {
	return CanonicalKey(molgraph.CanonicalSMILES(m))
}

func (k CanonicalKey) String() string { return string(k) }

//Personal.AI order the ending
