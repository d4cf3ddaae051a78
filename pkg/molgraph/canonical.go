package molgraph

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Canonical ranking
// ─────────────────────────────────────────────────────────────────────────────

// CanonicalRanks returns a rank per atom that depends only on the graph, not
// on the input atom order.
//
// Initial invariants (degree, atomic number, isotope, charge, total H,
// aromaticity, map number) are refined with the sorted (neighbour rank, bond
// order) lists until the partition stops splitting.  Remaining ties are
// broken by promoting the lowest-indexed atom of the lowest tied class, then
// refined again.  Ties between atoms that are symmetric under a graph
// automorphism break the same way whichever atom is promoted.
func CanonicalRanks(m *Mol) []int {
	n := len(m.atoms)
	if n == 0 {
		return nil
	}
	keys := make([][]int, n)
	for i, a := range m.atoms {
		arom := 0
		if a.Aromatic {
			arom = 1
		}
		keys[i] = []int{m.Degree(i), a.AtomicNum, a.Isotope, a.Charge, m.TotalHs(i), arom, a.MapNum}
	}
	ranks := refineRanks(m, denseRank(keys))
	for numClasses(ranks) < n {
		ranks = refineRanks(m, breakTie(ranks))
	}
	return ranks
}

func denseRank(keys [][]int) []int {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return compareInts(keys[idx[a]], keys[idx[b]]) < 0 })
	ranks := make([]int, len(keys))
	r := 0
	for k, i := range idx {
		if k > 0 && compareInts(keys[idx[k-1]], keys[i]) != 0 {
			r++
		}
		ranks[i] = r
	}
	return ranks
}

func compareInts(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func numClasses(ranks []int) int {
	top := -1
	for _, r := range ranks {
		if r > top {
			top = r
		}
	}
	return top + 1
}

func refineRanks(m *Mol, ranks []int) []int {
	classes := numClasses(ranks)
	for {
		keys := make([][]int, len(ranks))
		for i := range keys {
			nb := make([]int, 0, len(m.adj[i]))
			for _, bi := range m.adj[i] {
				b := m.bonds[bi]
				nb = append(nb, ranks[b.Other(i)]*8+int(b.Order))
			}
			sort.Ints(nb)
			keys[i] = append([]int{ranks[i]}, nb...)
		}
		next := denseRank(keys)
		nc := numClasses(next)
		if nc == classes {
			return next
		}
		ranks, classes = next, nc
	}
}

func breakTie(ranks []int) []int {
	counts := make([]int, len(ranks))
	for _, r := range ranks {
		counts[r]++
	}
	tied := -1
	for r, c := range counts {
		if c > 1 {
			tied = r
			break
		}
	}
	chosen := -1
	for i, r := range ranks {
		if r == tied {
			chosen = i
			break
		}
	}
	keys := make([][]int, len(ranks))
	for i, r := range ranks {
		k := 2 * r
		if r == tied && i != chosen {
			k++
		}
		keys[i] = []int{k}
	}
	return denseRank(keys)
}

// ─────────────────────────────────────────────────────────────────────────────
// Canonical SMILES writer
// ─────────────────────────────────────────────────────────────────────────────

// MaxRingDigits is the number of ring-closure digits SMILES can hold open at
// once (1-9, then %10-%99).
const MaxRingDigits = 99

// ErrRingDigitsExhausted is returned when writing a molecule would need more
// than MaxRingDigits ring closures open at the same time.
var ErrRingDigitsExhausted = errors.New("molgraph: more than 99 ring closures open at once")

// WriteCanonicalSMILES writes m as a SMILES string that is identical for
// every atom ordering of the same graph.  Each connected component is
// written on its own and the components are joined with "." in sorted
// order.  The empty molecule yields "".
func WriteCanonicalSMILES(m *Mol) (string, error) {
	s, _, err := writeCanonical(m)
	return s, err
}

// CanonicalSMILES is WriteCanonicalSMILES for molecules known to be
// writable.  It returns "" when ErrRingDigitsExhausted would be reported.
func CanonicalSMILES(m *Mol) string {
	s, _, err := writeCanonical(m)
	if err != nil {
		return ""
	}
	return s
}

// CXSMILES is CanonicalSMILES followed by a "|$...$|" block carrying the
// atomLabel property of every atom in output order.  Without labels it is
// plain canonical SMILES.
func CXSMILES(m *Mol) string {
	s, order, err := writeCanonical(m)
	if err != nil {
		return ""
	}
	labels, labelled := m.atomLabels(order)
	if !labelled {
		return s
	}
	return s + " |$" + strings.Join(labels, ";") + "$|"
}

func (m *Mol) atomLabels(order []int) ([]string, bool) {
	labels := make([]string, len(order))
	labelled := false
	for k, i := range order {
		if v, ok := m.atoms[i].Props[PropAtomLabel]; ok {
			labels[k] = v
			labelled = true
		}
	}
	return labels, labelled
}

// canonPart is one written component, with its atoms in output order.
type canonPart struct {
	smiles string
	order  []int
	labels string
}

func writeCanonical(m *Mol) (string, []int, error) {
	comps := m.Components()
	if len(comps) <= 1 {
		return writeComponent(m)
	}

	parts := make([]canonPart, 0, len(comps))
	for _, comp := range comps {
		s, order, err := writeComponent(m.subgraph(comp))
		if err != nil {
			return "", nil, err
		}
		for k, i := range order {
			order[k] = comp[i]
		}
		labels, _ := m.atomLabels(order)
		parts = append(parts, canonPart{smiles: s, order: order, labels: strings.Join(labels, ";")})
	}
	// identical components are ordered by their labels so CXSMILES stays stable
	sort.SliceStable(parts, func(a, b int) bool {
		if parts[a].smiles != parts[b].smiles {
			return parts[a].smiles < parts[b].smiles
		}
		return parts[a].labels < parts[b].labels
	})

	var sb strings.Builder
	order := make([]int, 0, len(m.atoms))
	for k, p := range parts {
		if k > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(p.smiles)
		order = append(order, p.order...)
	}
	return sb.String(), order, nil
}

// subgraph copies the atoms in atoms, in that order, and the bonds between
// them.  Conformers are not carried over.
func (m *Mol) subgraph(atoms []int) *Mol {
	index := make(map[int]int, len(atoms))
	sub := &Mol{atoms: make([]Atom, len(atoms))}
	for k, i := range atoms {
		index[i] = k
		sub.atoms[k] = m.atoms[i].clone()
	}
	for _, b := range m.bonds {
		bi, ok1 := index[b.Begin]
		ei, ok2 := index[b.End]
		if ok1 && ok2 {
			nb := b
			nb.Begin, nb.End = bi, ei
			sub.bonds = append(sub.bonds, nb)
		}
	}
	sub.rebuildAdjacency()
	return sub
}

type ringBond struct {
	bond   int
	opener int
	closer int
}

type canonWriter struct {
	m        *Mol
	ranks    []int
	visited  []bool
	seen     []bool // bonds already classified
	children [][]int
	opens    [][]ringBond
	closes   [][]ringBond
	digit    map[int]int // ring bond -> digit
	inUse    []bool
	order    []int
	sb       strings.Builder
	err      error
}

// writeComponent writes a connected molecule.  Disconnected input is
// written component by component in rank order.
func writeComponent(m *Mol) (string, []int, error) {
	n := len(m.atoms)
	if n == 0 {
		return "", nil, nil
	}
	w := &canonWriter{
		m:        m,
		ranks:    CanonicalRanks(m),
		visited:  make([]bool, n),
		seen:     make([]bool, len(m.bonds)),
		children: make([][]int, n),
		opens:    make([][]ringBond, n),
		closes:   make([][]ringBond, n),
		digit:    map[int]int{},
		inUse:    make([]bool, MaxRingDigits+1),
	}

	byRank := make([]int, n)
	for i := range byRank {
		byRank[i] = i
	}
	sort.Slice(byRank, func(a, b int) bool { return w.ranks[byRank[a]] < w.ranks[byRank[b]] })

	first := true
	for _, start := range byRank {
		if w.visited[start] {
			continue
		}
		w.classify(start, -1)
		if !first {
			w.sb.WriteByte('.')
		}
		first = false
		w.write(start, -1)
	}
	if w.err != nil {
		return "", nil, w.err
	}
	return w.sb.String(), w.order, nil
}

func (w *canonWriter) rankedNeighbors(u int) []int {
	nbrs := w.m.Neighbors(u)
	sort.Slice(nbrs, func(a, b int) bool { return w.ranks[nbrs[a]] < w.ranks[nbrs[b]] })
	return nbrs
}

// classify walks the component depth-first, splitting bonds into tree edges
// and ring closures.
func (w *canonWriter) classify(u, parentBond int) {
	w.visited[u] = true
	for _, v := range w.rankedNeighbors(u) {
		bi, _ := w.m.BondBetween(u, v)
		if bi == parentBond || w.seen[bi] {
			continue
		}
		w.seen[bi] = true
		if w.visited[v] {
			rb := ringBond{bond: bi, opener: v, closer: u}
			w.opens[v] = append(w.opens[v], rb)
			w.closes[u] = append(w.closes[u], rb)
			continue
		}
		w.children[u] = append(w.children[u], v)
		w.classify(v, bi)
	}
}

func (w *canonWriter) write(u, viaBond int) {
	if viaBond >= 0 {
		w.sb.WriteString(w.bondSymbol(viaBond))
	}
	w.sb.WriteString(w.atomSymbol(u))
	w.order = append(w.order, u)

	for _, rb := range w.closes[u] {
		w.sb.WriteString(ringDigit(w.digit[rb.bond]))
	}
	for _, rb := range w.opens[u] {
		d, ok := w.lowestFreeDigit()
		if !ok {
			w.err = ErrRingDigitsExhausted
			return
		}
		w.inUse[d] = true
		w.digit[rb.bond] = d
		w.sb.WriteString(w.bondSymbol(rb.bond))
		w.sb.WriteString(ringDigit(d))
	}
	for _, rb := range w.closes[u] {
		w.inUse[w.digit[rb.bond]] = false
	}

	kids := w.children[u]
	for k, v := range kids {
		bi, _ := w.m.BondBetween(u, v)
		if k < len(kids)-1 {
			w.sb.WriteByte('(')
			w.write(v, bi)
			w.sb.WriteByte(')')
			continue
		}
		w.write(v, bi)
	}
}

func (w *canonWriter) lowestFreeDigit() (int, bool) {
	for d := 1; d < len(w.inUse); d++ {
		if !w.inUse[d] {
			return d, true
		}
	}
	return 0, false
}

func ringDigit(d int) string {
	if d < 10 {
		return strconv.Itoa(d)
	}
	return "%" + strconv.Itoa(d)
}

// writtenLowercase reports whether atom i is emitted with an aromatic symbol.
func (m *Mol) writtenLowercase(i int) bool {
	a := m.atoms[i]
	return a.Aromatic && a.AtomicNum != 0 && aromaticSymbols[a.AtomicNum]
}

func (w *canonWriter) bondSymbol(bi int) string {
	b := w.m.bonds[bi]
	switch b.Order {
	case BondDouble:
		return "="
	case BondTriple:
		return "#"
	case BondAromatic:
		if w.m.writtenLowercase(b.Begin) && w.m.writtenLowercase(b.End) {
			return ""
		}
		return ":"
	default:
		if w.m.writtenLowercase(b.Begin) && w.m.writtenLowercase(b.End) {
			return "-"
		}
		return ""
	}
}

func (w *canonWriter) atomSymbol(i int) string {
	return w.m.atomSMILES(i)
}

// atomSMILES renders atom i, bare when the organic subset allows it.
func (m *Mol) atomSMILES(i int) string {
	a := m.atoms[i]
	h := m.TotalHs(i)

	sym := Symbol(a.AtomicNum)
	lower := m.writtenLowercase(i)
	if lower {
		sym = strings.ToLower(sym)
	}

	plain := a.Charge == 0 && a.Isotope == 0 && a.MapNum == 0
	if a.AtomicNum == 0 {
		if plain && h == 0 {
			return "*"
		}
	} else if plain {
		organic := organicSubset[a.AtomicNum]
		if lower {
			organic = aromaticOrganic[a.AtomicNum]
		}
		if organic && h == m.defaultHs(i) {
			return sym
		}
	}

	var sb strings.Builder
	sb.WriteByte('[')
	if a.Isotope > 0 {
		sb.WriteString(strconv.Itoa(a.Isotope))
	}
	sb.WriteString(sym)
	if h > 0 {
		sb.WriteByte('H')
		if h > 1 {
			sb.WriteString(strconv.Itoa(h))
		}
	}
	switch {
	case a.Charge == 1:
		sb.WriteByte('+')
	case a.Charge == -1:
		sb.WriteByte('-')
	case a.Charge > 1:
		sb.WriteString("+" + strconv.Itoa(a.Charge))
	case a.Charge < -1:
		sb.WriteString("-" + strconv.Itoa(-a.Charge))
	}
	if a.MapNum > 0 {
		sb.WriteString(":" + strconv.Itoa(a.MapNum))
	}
	sb.WriteByte(']')
	return sb.String()
}

//Personal.AI order the ending
