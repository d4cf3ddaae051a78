package abbreviation

import (
	"sort"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/molgraph"
)

// DefaultMaxCoverage is the coverage gate applied when callers have no
// preference.
const DefaultMaxCoverage = 0.4

// Result describes one condensation.
type Result struct {
	Mol *molgraph.Mol
	// Accepted counts the matches replaced by a labelled atom.
	Accepted int
	// Skipped counts the matches dropped because they overlapped an
	// accepted one.
	Skipped int
	// Gated is set when the coverage gate refused the pattern.
	Gated bool
	// Matches holds the input atom indices of each accepted match, in
	// acceptance order.
	Matches [][]int
}

// Condense replaces every non-overlapping occurrence of p in mol by a
// wildcard atom carrying label.  An empty label uses p.Label.  mol is never
// modified.
func Condense(mol *molgraph.Mol, p *Pattern, label string, maxCoverage float64) (*molgraph.Mol, error) {
	res, err := CondenseDetailed(mol, p, label, maxCoverage)
	if err != nil {
		return nil, err
	}
	return res.Mol, nil
}

// CondenseDetailed is Condense that also reports match statistics.
func CondenseDetailed(mol *molgraph.Mol, p *Pattern, label string, maxCoverage float64) (*Result, error) {
	if mol == nil {
		return nil, errors.InvalidParam("molecule must not be nil")
	}
	if p == nil || p.Query == nil {
		return nil, errors.InvalidParam("pattern must not be nil")
	}
	if label == "" {
		label = p.Label
	}
	return condense(mol, p.Query, p.NonDummyAtoms, label, maxCoverage), nil
}

// CondenseSMARTS compiles smarts at call time and condenses it.  A pattern
// that fails to compile is an ErrCodePatternCompilation error.
func CondenseSMARTS(mol *molgraph.Mol, smarts, label string, maxCoverage float64) (*molgraph.Mol, error) {
	res, err := CondenseSMARTSDetailed(mol, smarts, label, maxCoverage)
	if err != nil {
		return nil, err
	}
	return res.Mol, nil
}

// CondenseSMARTSDetailed is CondenseSMARTS that also reports match
// statistics.
func CondenseSMARTSDetailed(mol *molgraph.Mol, smarts, label string, maxCoverage float64) (*Result, error) {
	if mol == nil {
		return nil, errors.InvalidParam("molecule must not be nil")
	}
	q, err := molgraph.ParseSMARTS(smarts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePatternCompilation, "abbreviation pattern failed to compile").
			WithDetail(smarts)
	}
	return condense(mol, q, nonDummyAtoms(q), label, maxCoverage), nil
}

// CondenseAll applies every pattern of t in order, each one to the output of
// the previous.
func CondenseAll(mol *molgraph.Mol, t *Table, maxCoverage float64) (*molgraph.Mol, error) {
	if mol == nil {
		return nil, errors.InvalidParam("molecule must not be nil")
	}
	if t == nil {
		return nil, errors.InvalidParam("table must not be nil")
	}
	cur := mol
	for _, p := range t.patterns {
		cur = condense(cur, p.Query, p.NonDummyAtoms, p.Label, maxCoverage).Mol
	}
	if cur == mol {
		cur = mol.Copy()
	}
	return cur, nil
}

func condense(mol *molgraph.Mol, q *molgraph.Query, nonDummy int, label string, maxCoverage float64) *Result {
	n := mol.NumAtoms()
	if n == 0 {
		return &Result{Mol: mol.Copy()}
	}
	if maxCoverage > 0 && maxCoverage < 1 && float64(nonDummy)/float64(n) >= maxCoverage {
		return &Result{Mol: mol.Copy(), Gated: true}
	}

	dummyAtFront := q.NumAtoms() > 0 && q.Atom(0).Wildcard
	// internal[k] is the degree of query atom k inside the removed substructure.
	internal := make([]int, q.NumAtoms())
	for k := range internal {
		internal[k] = q.Degree(k)
		if dummyAtFront && k > 0 {
			for _, nb := range q.Neighbors(k) {
				if nb == 0 {
					internal[k]--
				}
			}
		}
	}

	res := &Result{Mol: mol.Copy()}
	out := res.Mol
	covered := make(map[int]struct{})
	var toRemove []int

	for _, match := range molgraph.Match(mol, q, molgraph.MatchOptions{Uniquify: true}) {
		first := 0
		if dummyAtFront {
			first = 1
		}
		atoms := match[first:]
		if overlaps(covered, atoms) {
			res.Skipped++
			continue
		}
		inMatch := make(map[int]struct{}, len(atoms))
		for _, a := range atoms {
			covered[a] = struct{}{}
			inMatch[a] = struct{}{}
		}
		res.Accepted++
		res.Matches = append(res.Matches, append([]int(nil), atoms...))

		dummy := out.AddAtom(molgraph.Atom{AtomicNum: 0, NoImplicit: true})
		out.SetProp(dummy, molgraph.PropAtomLabel, label)
		if len(atoms) > 0 {
			if pos, ok := mol.Position(atoms[0]); ok {
				out.SetPosition(dummy, pos)
			}
		}

		for k, a := range atoms {
			toRemove = append(toRemove, a)
			if mol.Degree(a) <= internal[k+first] {
				continue
			}
			for _, nb := range mol.Neighbors(a) {
				if _, in := inMatch[nb]; in {
					continue
				}
				if _, exists := out.BondBetween(nb, dummy); exists {
					continue
				}
				_, _ = out.AddBond(nb, dummy, molgraph.BondSingle)
			}
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(toRemove)))
	for _, idx := range toRemove {
		_ = out.RemoveAtom(idx)
	}
	return res
}

func overlaps(covered map[int]struct{}, atoms []int) bool {
	for _, a := range atoms {
		if _, ok := covered[a]; ok {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
