package molgraph

import "sort"

// ─────────────────────────────────────────────────────────────────────────────
// Match context
// ─────────────────────────────────────────────────────────────────────────────

// matchCtx caches per-target facts used while evaluating query expressions.
type matchCtx struct {
	mol   *Mol
	rings *RingInfo
	hs    []int
}

func newMatchCtx(m *Mol) *matchCtx {
	ctx := &matchCtx{mol: m, rings: m.RingInfo(), hs: make([]int, m.NumAtoms())}
	for i := range ctx.hs {
		ctx.hs[i] = m.TotalHs(i)
	}
	return ctx
}

// ─────────────────────────────────────────────────────────────────────────────
// Atom expressions
// ─────────────────────────────────────────────────────────────────────────────

// AtomExpr is a predicate over a target atom.
type AtomExpr interface {
	matchAtom(ctx *matchCtx, i int) bool
}

type atomAny struct{}

func (atomAny) matchAtom(*matchCtx, int) bool { return true }

type atomAtomicNum struct{ n int }

func (e atomAtomicNum) matchAtom(ctx *matchCtx, i int) bool { return ctx.mol.atoms[i].AtomicNum == e.n }

type atomAromatic struct{ want bool }

func (e atomAromatic) matchAtom(ctx *matchCtx, i int) bool {
	return ctx.mol.atoms[i].Aromatic == e.want
}

type atomInRing struct{ want bool }

func (e atomInRing) matchAtom(ctx *matchCtx, i int) bool { return ctx.rings.AtomInRing(i) == e.want }

type atomDegree struct{ n int }

func (e atomDegree) matchAtom(ctx *matchCtx, i int) bool { return ctx.mol.Degree(i) == e.n }

type atomTotalH struct{ n int }

func (e atomTotalH) matchAtom(ctx *matchCtx, i int) bool { return ctx.hs[i] == e.n }

type atomCharge struct{ n int }

func (e atomCharge) matchAtom(ctx *matchCtx, i int) bool { return ctx.mol.atoms[i].Charge == e.n }

type atomIsotope struct{ n int }

func (e atomIsotope) matchAtom(ctx *matchCtx, i int) bool { return ctx.mol.atoms[i].Isotope == e.n }

type atomNot struct{ e AtomExpr }

func (e atomNot) matchAtom(ctx *matchCtx, i int) bool { return !e.e.matchAtom(ctx, i) }

type atomAnd struct{ l, r AtomExpr }

func (e atomAnd) matchAtom(ctx *matchCtx, i int) bool {
	return e.l.matchAtom(ctx, i) && e.r.matchAtom(ctx, i)
}

type atomOr struct{ l, r AtomExpr }

func (e atomOr) matchAtom(ctx *matchCtx, i int) bool {
	return e.l.matchAtom(ctx, i) || e.r.matchAtom(ctx, i)
}

func andAtom(l, r AtomExpr) AtomExpr {
	if l == nil {
		return r
	}
	if r == nil {
		return l
	}
	return atomAnd{l: l, r: r}
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond expressions
// ─────────────────────────────────────────────────────────────────────────────

// BondExpr is a predicate over a target bond.
type BondExpr interface {
	matchBond(ctx *matchCtx, bi int) bool
}

type bondAny struct{}

func (bondAny) matchBond(*matchCtx, int) bool { return true }

type bondOrder struct{ o BondOrder }

func (e bondOrder) matchBond(ctx *matchCtx, bi int) bool { return ctx.mol.bonds[bi].Order == e.o }

// bondImplicit is the SMARTS default between atoms with no bond symbol.
type bondImplicit struct{}

func (bondImplicit) matchBond(ctx *matchCtx, bi int) bool {
	o := ctx.mol.bonds[bi].Order
	return o == BondSingle || o == BondAromatic
}

type bondInRing struct{ want bool }

func (e bondInRing) matchBond(ctx *matchCtx, bi int) bool { return ctx.rings.BondInRing(bi) == e.want }

type bondNot struct{ e BondExpr }

func (e bondNot) matchBond(ctx *matchCtx, bi int) bool { return !e.e.matchBond(ctx, bi) }

type bondAnd struct{ l, r BondExpr }

func (e bondAnd) matchBond(ctx *matchCtx, bi int) bool {
	return e.l.matchBond(ctx, bi) && e.r.matchBond(ctx, bi)
}

type bondOr struct{ l, r BondExpr }

func (e bondOr) matchBond(ctx *matchCtx, bi int) bool {
	return e.l.matchBond(ctx, bi) || e.r.matchBond(ctx, bi)
}

// ─────────────────────────────────────────────────────────────────────────────
// Query
// ─────────────────────────────────────────────────────────────────────────────

// QueryAtom is one vertex of a query graph.
type QueryAtom struct {
	Expr AtomExpr
	// MapNum is the reaction atom map number, 0 when unmapped.
	MapNum int
	// Wildcard is set for a bare '*' that matches any atom.
	Wildcard bool
	// Element is the atomic number implied by the expression, or -1 when the
	// expression does not pin one down.
	Element int
}

// QueryBond is one edge of a query graph.
type QueryBond struct {
	Begin int
	End   int
	Expr  BondExpr
	// Order is the explicit bond order, 0 when the expression is not a single
	// order.
	Order BondOrder
}

// Query is an immutable substructure pattern.
type Query struct {
	atoms  []QueryAtom
	bonds  []QueryBond
	adj    [][]int
	source string
}

// NumAtoms returns the number of query atoms.
func (q *Query) NumAtoms() int { return len(q.atoms) }

// NumBonds returns the number of query bonds.
func (q *Query) NumBonds() int { return len(q.bonds) }

// Atom returns query atom i.
func (q *Query) Atom(i int) QueryAtom { return q.atoms[i] }

// Bond returns query bond i.
func (q *Query) Bond(i int) QueryBond { return q.bonds[i] }

// Source returns the text the query was compiled from.
func (q *Query) Source() string { return q.source }

// Degree returns the number of query bonds at atom i.
func (q *Query) Degree(i int) int { return len(q.adj[i]) }

// Neighbors returns the query neighbours of atom i.
func (q *Query) Neighbors(i int) []int {
	out := make([]int, 0, len(q.adj[i]))
	for _, bi := range q.adj[i] {
		b := q.bonds[bi]
		if b.Begin == i {
			out = append(out, b.End)
		} else {
			out = append(out, b.Begin)
		}
	}
	return out
}

func (q *Query) bondBetween(a, b int) (int, bool) {
	for _, bi := range q.adj[a] {
		qb := q.bonds[bi]
		if (qb.Begin == a && qb.End == b) || (qb.Begin == b && qb.End == a) {
			return bi, true
		}
	}
	return -1, false
}

func (q *Query) addAtom(a QueryAtom) int {
	q.atoms = append(q.atoms, a)
	q.adj = append(q.adj, nil)
	return len(q.atoms) - 1
}

func (q *Query) addBond(b QueryBond) {
	q.bonds = append(q.bonds, b)
	idx := len(q.bonds) - 1
	q.adj[b.Begin] = append(q.adj[b.Begin], idx)
	q.adj[b.End] = append(q.adj[b.End], idx)
}

// QueryOptions controls QueryFromMol.
type QueryOptions struct {
	// AdjustDegree pins every non-dummy atom to its degree in the pattern so
	// that matches cannot carry extra substituents.
	AdjustDegree bool
}

// QueryFromMol turns a molecule into a query.  Dummy atoms become wildcards.
// Other atoms match on atomic number, plus charge and isotope when those are
// set; bonds match on exact order.
func QueryFromMol(m *Mol, opts QueryOptions) *Query {
	q := &Query{source: CanonicalSMILES(m)}
	for i, a := range m.atoms {
		if a.AtomicNum == 0 {
			q.addAtom(QueryAtom{Expr: atomAny{}, MapNum: a.MapNum, Wildcard: true, Element: 0})
			continue
		}
		var e AtomExpr = atomAtomicNum{n: a.AtomicNum}
		if a.Charge != 0 {
			e = andAtom(e, atomCharge{n: a.Charge})
		}
		if a.Isotope != 0 {
			e = andAtom(e, atomIsotope{n: a.Isotope})
		}
		if opts.AdjustDegree {
			e = andAtom(e, atomDegree{n: m.Degree(i)})
		}
		q.addAtom(QueryAtom{Expr: e, MapNum: a.MapNum, Element: a.AtomicNum})
	}
	for _, b := range m.bonds {
		q.addBond(QueryBond{Begin: b.Begin, End: b.End, Expr: bondOrder{o: b.Order}, Order: b.Order})
	}
	return q
}

// dfsOrder returns the order in which query atoms are placed during matching
// and, for each position, the already placed neighbour it hangs from (-1 for
// the first atom of a component).
func (q *Query) dfsOrder() (order, anchor []int) {
	n := len(q.atoms)
	seen := make([]bool, n)
	order = make([]int, 0, n)
	anchor = make([]int, 0, n)
	var visit func(a, from int)
	visit = func(a, from int) {
		seen[a] = true
		order = append(order, a)
		anchor = append(anchor, from)
		nbrs := q.Neighbors(a)
		sort.Ints(nbrs)
		for _, nb := range nbrs {
			if !seen[nb] {
				visit(nb, a)
			}
		}
	}
	for a := 0; a < n; a++ {
		if !seen[a] {
			visit(a, -1)
		}
	}
	return order, anchor
}

//Personal.AI order the ending
