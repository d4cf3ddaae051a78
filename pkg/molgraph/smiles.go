package molgraph

import (
	"strconv"
	"strings"
)

// SmilesOptions tunes ParseSMILESWithOptions.
type SmilesOptions struct {
	// SkipSanitize returns the graph without valence and aromaticity checks.
	SkipSanitize bool
}

// ParseSMILES reads a SMILES string and sanitizes the result.
//
// Supported: the organic subset, aromatic lowercase atoms, bracket atoms with
// isotope, hydrogen count, charge and atom map, branches, ring closures
// (including %nn), explicit bond symbols and '.' separated components.
// Chirality and double-bond stereo marks are accepted and discarded.
func ParseSMILES(s string) (*Mol, error) {
	return ParseSMILESWithOptions(s, SmilesOptions{})
}

// ParseSMILESWithOptions reads a SMILES string.
func ParseSMILESWithOptions(s string, opts SmilesOptions) (*Mol, error) {
	p := &smilesParser{src: s, mol: NewMol(), prev: -1, rings: map[int]ringOpen{}}
	if err := p.parse(); err != nil {
		return nil, err
	}
	if !opts.SkipSanitize {
		if err := Sanitize(p.mol); err != nil {
			return nil, err
		}
	}
	return p.mol, nil
}

// MustParseSMILES is ParseSMILES that panics on error.  Intended for tables
// and tests.
func MustParseSMILES(s string) *Mol {
	m, err := ParseSMILES(s)
	if err != nil {
		panic(err)
	}
	return m
}

type ringOpen struct {
	atom  int
	order BondOrder // 0 when no bond symbol was given at the opening
}

type smilesParser struct {
	src      string
	pos      int
	mol      *Mol
	prev     int
	branches []int
	pending  BondOrder // 0 when no bond symbol is pending
	rings    map[int]ringOpen
}

func (p *smilesParser) errorf(msg string) error {
	return &ParseError{Input: p.src, Pos: p.pos, Msg: msg}
}

func (p *smilesParser) parse() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return p.errorf("branch without preceding atom")
			}
			if p.pending != 0 {
				return p.errorf("bond symbol before branch")
			}
			p.branches = append(p.branches, p.prev)
			p.pos++
		case c == ')':
			if len(p.branches) == 0 {
				return p.errorf("unbalanced ')'")
			}
			if p.pending != 0 {
				return p.errorf("dangling bond symbol")
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			p.pos++
		case c == '.':
			if p.pending != 0 {
				return p.errorf("bond symbol before '.'")
			}
			p.prev = -1
			p.pos++
		case c == '-' || c == '/' || c == '\\':
			if err := p.setPending(BondSingle); err != nil {
				return err
			}
		case c == '=':
			if err := p.setPending(BondDouble); err != nil {
				return err
			}
		case c == '#':
			if err := p.setPending(BondTriple); err != nil {
				return err
			}
		case c == ':':
			if err := p.setPending(BondAromatic); err != nil {
				return err
			}
		case c == '%' || (c >= '0' && c <= '9'):
			if err := p.ringClosure(); err != nil {
				return err
			}
		case c == '[':
			a, err := p.bracketAtom()
			if err != nil {
				return err
			}
			if err := p.addAtom(a); err != nil {
				return err
			}
		default:
			a, err := p.organicAtom()
			if err != nil {
				return err
			}
			if err := p.addAtom(a); err != nil {
				return err
			}
		}
	}
	if len(p.branches) > 0 {
		return p.errorf("unclosed branch")
	}
	if p.pending != 0 {
		return p.errorf("dangling bond symbol")
	}
	if len(p.rings) > 0 {
		return p.errorf("unclosed ring")
	}
	// atoms carrying aromatic bonds are aromatic, whatever their symbol
	for _, b := range p.mol.bonds {
		if b.Order == BondAromatic {
			p.mol.atoms[b.Begin].Aromatic = true
			p.mol.atoms[b.End].Aromatic = true
		}
	}
	return nil
}

func (p *smilesParser) setPending(o BondOrder) error {
	if p.pending != 0 {
		return p.errorf("consecutive bond symbols")
	}
	if p.prev < 0 {
		return p.errorf("bond without preceding atom")
	}
	p.pending = o
	p.pos++
	return nil
}

func (p *smilesParser) defaultOrder(a, b int) BondOrder {
	if p.mol.atoms[a].Aromatic && p.mol.atoms[b].Aromatic &&
		p.mol.atoms[a].AtomicNum != 0 && p.mol.atoms[b].AtomicNum != 0 {
		return BondAromatic
	}
	return BondSingle
}

func (p *smilesParser) addAtom(a Atom) error {
	idx := p.mol.AddAtom(a)
	if p.prev >= 0 {
		order := p.pending
		if order == 0 {
			order = p.defaultOrder(p.prev, idx)
		}
		if _, err := p.mol.AddBond(p.prev, idx, order); err != nil {
			return p.errorf(err.Error())
		}
	}
	p.pending = 0
	p.prev = idx
	return nil
}

func (p *smilesParser) ringClosure() error {
	if p.prev < 0 {
		return p.errorf("ring closure without preceding atom")
	}
	var num int
	if p.src[p.pos] == '%' {
		if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
			return p.errorf("malformed %nn ring closure")
		}
		num, _ = strconv.Atoi(p.src[p.pos+1 : p.pos+3])
		p.pos += 3
	} else {
		num = int(p.src[p.pos] - '0')
		p.pos++
	}

	open, ok := p.rings[num]
	if !ok {
		p.rings[num] = ringOpen{atom: p.prev, order: p.pending}
		p.pending = 0
		return nil
	}
	delete(p.rings, num)
	order := p.pending
	if open.order != 0 {
		if order != 0 && order != open.order {
			return p.errorf("conflicting ring closure bond orders")
		}
		order = open.order
	}
	if order == 0 {
		order = p.defaultOrder(open.atom, p.prev)
	}
	if _, err := p.mol.AddBond(open.atom, p.prev, order); err != nil {
		return p.errorf(err.Error())
	}
	p.pending = 0
	return nil
}

func (p *smilesParser) organicAtom() (Atom, error) {
	c := p.src[p.pos]
	if c == '*' {
		p.pos++
		return Atom{AtomicNum: 0}, nil
	}
	if p.pos+1 < len(p.src) {
		two := p.src[p.pos : p.pos+2]
		if two == "Cl" || two == "Br" {
			p.pos += 2
			n, _ := AtomicNumber(two)
			return Atom{AtomicNum: n}, nil
		}
	}
	switch c {
	case 'B', 'C', 'N', 'O', 'P', 'S', 'F', 'I':
		p.pos++
		n, _ := AtomicNumber(string(c))
		return Atom{AtomicNum: n}, nil
	case 'b', 'c', 'n', 'o', 'p', 's':
		p.pos++
		n, _ := AtomicNumber(strings.ToUpper(string(c)))
		return Atom{AtomicNum: n, Aromatic: true}, nil
	}
	return Atom{}, p.errorf("unexpected character " + strconv.QuoteRune(rune(c)))
}

func (p *smilesParser) bracketAtom() (Atom, error) {
	start := p.pos
	end := strings.IndexByte(p.src[start:], ']')
	if end < 0 {
		return Atom{}, p.errorf("unclosed bracket atom")
	}
	body := p.src[start+1 : start+end]
	a, err := parseBracketBody(body)
	if err != nil {
		return Atom{}, &ParseError{Input: p.src, Pos: start, Msg: err.Error()}
	}
	p.pos = start + end + 1
	return a, nil
}

type bracketError string

func (e bracketError) Error() string { return string(e) }

// parseBracketBody reads the inside of a SMILES bracket atom.
func parseBracketBody(body string) (Atom, error) {
	a := Atom{NoImplicit: true}
	i := 0
	for i < len(body) && isDigit(body[i]) {
		i++
	}
	if i > 0 {
		a.Isotope, _ = strconv.Atoi(body[:i])
	}
	if i >= len(body) {
		return a, bracketError("missing element symbol")
	}

	switch {
	case body[i] == '*':
		a.AtomicNum = 0
		i++
	case body[i] >= 'A' && body[i] <= 'Z':
		if i+1 < len(body) && body[i+1] >= 'a' && body[i+1] <= 'z' {
			if n, ok := AtomicNumber(body[i : i+2]); ok {
				a.AtomicNum = n
				i += 2
				break
			}
		}
		n, ok := AtomicNumber(body[i : i+1])
		if !ok {
			return a, bracketError("unknown element " + body[i:i+1])
		}
		a.AtomicNum = n
		i++
	case body[i] >= 'a' && body[i] <= 'z':
		if i+1 < len(body) && body[i+1] >= 'a' && body[i+1] <= 'z' {
			if n, ok := AtomicNumber(strings.ToUpper(body[i:i+1]) + body[i+1:i+2]); ok && aromaticSymbols[n] {
				a.AtomicNum = n
				a.Aromatic = true
				i += 2
				break
			}
		}
		n, ok := AtomicNumber(strings.ToUpper(body[i : i+1]))
		if !ok || !aromaticSymbols[n] {
			return a, bracketError("unknown aromatic element " + body[i:i+1])
		}
		a.AtomicNum = n
		a.Aromatic = true
		i++
	default:
		return a, bracketError("missing element symbol")
	}

	// chirality, including classes such as @TH1 and @SP2
	if i < len(body) && body[i] == '@' {
		for i < len(body) && body[i] == '@' {
			i++
		}
		for i < len(body) && body[i] >= 'A' && body[i] <= 'Z' && body[i] != 'H' {
			i++
		}
		for i < len(body) && isDigit(body[i]) {
			i++
		}
	}

	if i < len(body) && body[i] == 'H' {
		i++
		j := i
		for i < len(body) && isDigit(body[i]) {
			i++
		}
		a.ExplicitHs = 1
		if i > j {
			a.ExplicitHs, _ = strconv.Atoi(body[j:i])
		}
	}

	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		sym := body[i]
		i++
		j := i
		for i < len(body) && isDigit(body[i]) {
			i++
		}
		switch {
		case i > j:
			n, _ := strconv.Atoi(body[j:i])
			a.Charge = sign * n
		default:
			n := 1
			for i < len(body) && body[i] == sym {
				n++
				i++
			}
			a.Charge = sign * n
		}
	}

	if i < len(body) && body[i] == ':' {
		i++
		j := i
		for i < len(body) && isDigit(body[i]) {
			i++
		}
		if i == j {
			return a, bracketError("missing atom map number")
		}
		a.MapNum, _ = strconv.Atoi(body[j:i])
	}

	if i != len(body) {
		return a, bracketError("unexpected text " + strconv.Quote(body[i:]))
	}
	return a, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

//Personal.AI order the ending
