package scaffold

import (
	"fmt"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/molgraph"
)

// Fragment is one bond-breaking product together with the key of the
// molecule it was cut from.
type Fragment struct {
	ParentKey CanonicalKey
	Mol       *molgraph.Mol
}

// GetMolFragments recursively applies every rule of cp to mol and returns
// each produced fragment in discovery order.  Structurally identical
// fragments reached from different sites are reported once per site; the
// network builder collapses them.
//
// With ExcludeScaffoldsWithAttachments set, each fragment has its attachment
// points removed before it is recorded and queued for further cutting.
//
// A molecule that cannot be written as canonical SMILES is rejected with
// errors.ErrCodeMoleculeInvalidFormat.
//
// When cp caps the queue and a further fragment would exceed the cap, the
// fragments gathered so far are returned together with an error wrapping
// errors.ErrLimitExceeded.
func GetMolFragments(mol *molgraph.Mol, cp *CompiledParams) ([]Fragment, error) {
	if mol == nil {
		return nil, errors.InvalidParam("molecule must not be nil")
	}
	if cp == nil {
		return nil, errors.InvalidParam("compiled params must not be nil")
	}
	if _, err := molgraph.WriteCanonicalSMILES(mol); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMoleculeInvalidFormat, "molecule has no canonical SMILES form")
	}
	params := cp.params
	rules := cp.rules.rules

	var out []Fragment
	queue := []*molgraph.Mol{mol.Copy()}
	for len(queue) > 0 {
		wm := queue[0]
		queue = queue[1:]
		parentKey := KeyOf(wm)

		for _, rule := range rules {
			for _, products := range rule.Apply(wm) {
				for j, frag := range products {
					if j > 0 && params.KeepOnlyFirstFragment {
						break
					}
					if err := molgraph.Sanitize(frag); err != nil {
						return out, errors.Wrap(err, errors.ErrCodeSanitization, "fragment failed sanitization").
							WithDetail(fmt.Sprintf("parent=%s rule=%s", parentKey, rule.pattern))
					}
					if params.ExcludeScaffoldsWithAttachments {
						frag = RemoveAttachmentPoints(frag)
					}
					if params.MaxQueue > 0 && len(out) >= params.MaxQueue {
						return out, errors.Wrap(errors.ErrLimitExceeded, errors.CodeUnknown,
							fmt.Sprintf("fragment queue reached %d", params.MaxQueue))
					}
					queue = append(queue, frag)
					out = append(out, Fragment{ParentKey: parentKey, Mol: frag})
				}
			}
		}
	}
	return out, nil
}

//Personal.AI order the ending
