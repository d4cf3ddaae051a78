package molgraph

import (
	"strings"
)

// Reaction is a compiled single-reactant transformation written as reaction
// SMARTS ("reactant>>product1.product2").
type Reaction struct {
	source   string
	reactant *Query
	products []*Query
	// mapIndex maps an atom map number to the reactant query atom carrying it.
	mapIndex map[int]int
}

// ParseReaction compiles reaction SMARTS with exactly one reactant template.
func ParseReaction(s string) (*Reaction, error) {
	parts := strings.Split(s, ">>")
	if len(parts) != 2 {
		return nil, &ParseError{Input: s, Pos: 0, Msg: "reaction must contain exactly one '>>'"}
	}
	lhs, rhs := parts[0], parts[1]
	if lhs == "" || rhs == "" {
		return nil, &ParseError{Input: s, Pos: 0, Msg: "reaction needs a reactant and at least one product"}
	}
	if len(splitTopLevel(lhs)) != 1 {
		return nil, &ParseError{Input: s, Pos: 0, Msg: "only single-reactant reactions are supported"}
	}
	reactant, err := ParseSMARTS(lhs)
	if err != nil {
		return nil, err
	}

	rxn := &Reaction{source: s, reactant: reactant, mapIndex: map[int]int{}}
	for i, a := range reactant.atoms {
		if a.MapNum == 0 {
			continue
		}
		if _, dup := rxn.mapIndex[a.MapNum]; dup {
			return nil, &ParseError{Input: s, Pos: 0, Msg: "duplicate atom map number in reactant"}
		}
		rxn.mapIndex[a.MapNum] = i
	}

	offset := len(lhs) + 2
	for _, part := range splitTopLevel(rhs) {
		pq, err := ParseSMARTS(part)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				return nil, &ParseError{Input: s, Pos: offset + pe.Pos, Msg: pe.Msg}
			}
			return nil, err
		}
		for _, a := range pq.atoms {
			if a.MapNum == 0 {
				continue
			}
			if _, ok := rxn.mapIndex[a.MapNum]; !ok {
				return nil, &ParseError{Input: s, Pos: offset, Msg: "product atom map number missing from reactant"}
			}
		}
		rxn.products = append(rxn.products, pq)
		offset += len(part) + 1
	}
	return rxn, nil
}

// MustParseReaction is ParseReaction that panics on error.
func MustParseReaction(s string) *Reaction {
	r, err := ParseReaction(s)
	if err != nil {
		panic(err)
	}
	return r
}

// splitTopLevel splits on '.' outside brackets.
func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case '.':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// Source returns the reaction SMARTS.
func (r *Reaction) Source() string { return r.source }

// Reactant returns the reactant template.
func (r *Reaction) Reactant() *Query { return r.reactant }

// NumProducts returns the number of product templates.
func (r *Reaction) NumProducts() int { return len(r.products) }

// RunReactants applies the reaction to m at every match of the reactant
// template, in match order.  Each element of the result holds one product
// molecule per product template.  Products are not sanitized.
func (r *Reaction) RunReactants(m *Mol) [][]*Mol {
	matches := Match(m, r.reactant, MatchOptions{Uniquify: false})
	out := make([][]*Mol, 0, len(matches))
	for _, match := range matches {
		prods := make([]*Mol, len(r.products))
		for pi, pq := range r.products {
			prods[pi] = r.buildProduct(m, match, pq)
		}
		out = append(out, prods)
	}
	return out
}

// buildProduct assembles one product for one match.
//
// Mapped template atoms are copied from the reactant and unmapped template
// atoms are created fresh.  Reactant atoms outside the match are carried over
// when they are reachable from a copied atom through bonds the reactant
// template does not cover.  Template bonds come last.
func (r *Reaction) buildProduct(m *Mol, match []int, pq *Query) *Mol {
	prod := NewMol()
	if m.HasConformer() {
		prod.conf = []Point3D{}
	}

	matched := make(map[int]bool, len(match))
	for _, t := range match {
		matched[t] = true
	}
	templateBonds := make(map[int]bool, len(r.reactant.bonds))
	for _, qb := range r.reactant.bonds {
		if bi, ok := m.BondBetween(match[qb.Begin], match[qb.End]); ok {
			templateBonds[bi] = true
		}
	}

	index := map[int]int{}
	tmpl := make([]int, len(pq.atoms))
	var queue []int
	for pi, pa := range pq.atoms {
		if pa.MapNum > 0 {
			t := match[r.mapIndex[pa.MapNum]]
			if idx, ok := index[t]; ok {
				tmpl[pi] = idx
				continue
			}
			atom := m.atoms[t].clone()
			atom.MapNum = 0
			if pa.Element >= 0 && pa.Element != atom.AtomicNum {
				atom.AtomicNum = pa.Element
				atom.Aromatic = false
			}
			idx := prod.AddAtom(atom)
			if p, ok := m.Position(t); ok {
				prod.SetPosition(idx, p)
			}
			index[t] = idx
			tmpl[pi] = idx
			queue = append(queue, t)
			continue
		}
		elem := pa.Element
		if elem < 0 {
			elem = 0
		}
		tmpl[pi] = prod.AddAtom(Atom{AtomicNum: elem, NoImplicit: true})
	}

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		for _, bi := range m.adj[t] {
			if templateBonds[bi] {
				continue
			}
			u := m.bonds[bi].Other(t)
			if idx, ok := index[u]; ok {
				if _, exists := prod.BondBetween(index[t], idx); !exists {
					_, _ = prod.AddBond(index[t], idx, m.bonds[bi].Order)
				}
				continue
			}
			if matched[u] {
				continue
			}
			atom := m.atoms[u].clone()
			atom.MapNum = 0
			idx := prod.AddAtom(atom)
			if p, ok := m.Position(u); ok {
				prod.SetPosition(idx, p)
			}
			index[u] = idx
			_, _ = prod.AddBond(index[t], idx, m.bonds[bi].Order)
			queue = append(queue, u)
		}
	}

	for _, qb := range pq.bonds {
		a, b := tmpl[qb.Begin], tmpl[qb.End]
		if _, exists := prod.BondBetween(a, b); exists {
			continue
		}
		order := qb.Order
		if order == 0 {
			order = BondSingle
			ma, mb := pq.atoms[qb.Begin].MapNum, pq.atoms[qb.End].MapNum
			if ma > 0 && mb > 0 {
				if bi, ok := m.BondBetween(match[r.mapIndex[ma]], match[r.mapIndex[mb]]); ok {
					order = m.bonds[bi].Order
				}
			}
		}
		_, _ = prod.AddBond(a, b, order)
	}
	return prod
}

//Personal.AI order the ending
