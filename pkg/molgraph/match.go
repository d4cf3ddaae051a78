package molgraph

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxMatches caps the number of matches returned when MatchOptions
// leaves MaxMatches at zero.
const DefaultMaxMatches = 1000

// MatchOptions controls substructure enumeration.
type MatchOptions struct {
	// Uniquify drops matches that cover the same set of target atoms as an
	// earlier match.
	Uniquify bool
	// MaxMatches stops enumeration after this many matches.  Zero means
	// DefaultMaxMatches.
	MaxMatches int
}

// Match returns every embedding of q in m.  Each match is indexed by query
// atom and holds the target atom index.
//
// Enumeration is deterministic: query atoms are placed in depth-first order
// from query atom 0, and candidate target atoms are tried in ascending index
// order.  Matches are therefore ordered by the target atom chosen for query
// atom 0, then the next placed atom, and so on.
func Match(m *Mol, q *Query, opts MatchOptions) [][]int {
	if len(q.atoms) == 0 || m.NumAtoms() == 0 {
		return nil
	}
	limit := opts.MaxMatches
	if limit <= 0 {
		limit = DefaultMaxMatches
	}

	s := &matchState{
		ctx:     newMatchCtx(m),
		q:       q,
		mapping: make([]int, len(q.atoms)),
		used:    make([]bool, m.NumAtoms()),
		limit:   limit,
		unique:  opts.Uniquify,
		seen:    map[string]bool{},
	}
	for i := range s.mapping {
		s.mapping[i] = -1
	}
	s.order, s.anchor = q.dfsOrder()
	s.extend(0)
	return s.results
}

// HasMatch reports whether q occurs in m.
func HasMatch(m *Mol, q *Query) bool {
	return len(Match(m, q, MatchOptions{MaxMatches: 1})) > 0
}

type matchState struct {
	ctx     *matchCtx
	q       *Query
	order   []int
	anchor  []int
	mapping []int
	used    []bool
	limit   int
	unique  bool
	seen    map[string]bool
	results [][]int
}

func (s *matchState) done() bool { return len(s.results) >= s.limit }

func (s *matchState) extend(pos int) {
	if s.done() {
		return
	}
	if pos == len(s.order) {
		s.record()
		return
	}
	qa := s.order[pos]
	var candidates []int
	if from := s.anchor[pos]; from >= 0 {
		candidates = s.ctx.mol.sortedNeighbors(s.mapping[from])
	} else {
		candidates = make([]int, s.ctx.mol.NumAtoms())
		for i := range candidates {
			candidates[i] = i
		}
	}
	for _, t := range candidates {
		if s.used[t] || !s.feasible(qa, t) {
			continue
		}
		s.mapping[qa] = t
		s.used[t] = true
		s.extend(pos + 1)
		s.used[t] = false
		s.mapping[qa] = -1
		if s.done() {
			return
		}
	}
}

// feasible checks the atom predicate and every query bond to already placed
// neighbours.
func (s *matchState) feasible(qa, t int) bool {
	if !s.q.atoms[qa].Expr.matchAtom(s.ctx, t) {
		return false
	}
	for _, qbi := range s.q.adj[qa] {
		qb := s.q.bonds[qbi]
		other := qb.Begin
		if other == qa {
			other = qb.End
		}
		mt := s.mapping[other]
		if mt < 0 {
			continue
		}
		tbi, ok := s.ctx.mol.BondBetween(t, mt)
		if !ok || !qb.Expr.matchBond(s.ctx, tbi) {
			return false
		}
	}
	return true
}

func (s *matchState) record() {
	match := make([]int, len(s.mapping))
	copy(match, s.mapping)
	if s.unique {
		key := atomSetKey(match)
		if s.seen[key] {
			return
		}
		s.seen[key] = true
	}
	s.results = append(s.results, match)
}

func atomSetKey(match []int) string {
	sorted := make([]int, len(match))
	copy(sorted, match)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

//Personal.AI order the ending
