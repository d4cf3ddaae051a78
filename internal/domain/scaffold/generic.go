package scaffold

import "github.com/turtacn/ScaffoldNet/pkg/molgraph"

// MakeScaffoldGeneric returns a copy of mol with element identity and/or bond
// identity erased.  With doAtoms every atom becomes a wildcard; charges,
// hydrogen counts and aromatic flags are kept.  With doBonds every bond
// becomes single and all aromatic flags are cleared.  The result is not
// sanitized.
func MakeScaffoldGeneric(mol *molgraph.Mol, doAtoms, doBonds bool) *molgraph.Mol {
	res := mol.Copy()
	if doAtoms {
		for i := 0; i < res.NumAtoms(); i++ {
			res.SetAtomicNum(i, 0)
		}
	}
	if doBonds {
		for i := 0; i < res.NumBonds(); i++ {
			res.SetBondOrder(i, molgraph.BondSingle)
		}
		for i := 0; i < res.NumAtoms(); i++ {
			res.SetAromatic(i, false)
		}
	}
	return res
}

// RemoveAttachmentPoints returns a copy of mol without its terminal wildcard
// atoms (atomic number 0, degree 1).  Degrees are taken from the input, so
// wildcards that become terminal through the removal are kept.
func RemoveAttachmentPoints(mol *molgraph.Mol) *molgraph.Mol {
	res := mol.Copy()
	var doomed []int
	for i := 0; i < res.NumAtoms(); i++ {
		if res.Atom(i).AtomicNum == 0 && res.Degree(i) == 1 {
			doomed = append(doomed, i)
		}
	}
	for k := len(doomed) - 1; k >= 0; k-- {
		_ = res.RemoveAtom(doomed[k])
	}
	return res
}

//Personal.AI order the ending
