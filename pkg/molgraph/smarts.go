package molgraph

import (
	"strconv"
	"strings"
)

// ParseSMARTS compiles a SMARTS pattern.
//
// Atom primitives: '*', 'a', 'A', element symbols (uppercase aliphatic,
// lowercase aromatic), #n, Rn/rn (ring membership only), Dn, Hn, +n/-n,
// leading isotope digits and a trailing :map.  Operators ! & , ; follow the
// usual SMARTS precedence.  Bond primitives: - = # : ~ @ with the same
// operators; no symbol means single or aromatic.
func ParseSMARTS(s string) (*Query, error) {
	p := &smartsParser{src: s, q: &Query{source: s}, prev: -1, rings: map[int]smartsRing{}}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.q, nil
}

// MustParseSMARTS is ParseSMARTS that panics on error.
func MustParseSMARTS(s string) *Query {
	q, err := ParseSMARTS(s)
	if err != nil {
		panic(err)
	}
	return q
}

type smartsRing struct {
	atom  int
	expr  BondExpr
	order BondOrder
}

type smartsParser struct {
	src          string
	pos          int
	q            *Query
	prev         int
	branches     []int
	pending      BondExpr
	pendingOrder BondOrder
	rings        map[int]smartsRing
}

func (p *smartsParser) errorf(msg string) error {
	return &ParseError{Input: p.src, Pos: p.pos, Msg: msg}
}

func isBondChar(c byte) bool {
	return strings.IndexByte("-=#:~@!/\\,;&", c) >= 0
}

func (p *smartsParser) parse() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return p.errorf("branch without preceding atom")
			}
			p.branches = append(p.branches, p.prev)
			p.pos++
		case c == ')':
			if len(p.branches) == 0 {
				return p.errorf("unbalanced ')'")
			}
			if p.pending != nil {
				return p.errorf("dangling bond expression")
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			p.pos++
		case c == '.':
			if p.pending != nil {
				return p.errorf("bond expression before '.'")
			}
			p.prev = -1
			p.pos++
		case isBondChar(c):
			if p.prev < 0 {
				return p.errorf("bond without preceding atom")
			}
			if p.pending != nil {
				return p.errorf("consecutive bond expressions")
			}
			start := p.pos
			for p.pos < len(p.src) && isBondChar(p.src[p.pos]) {
				p.pos++
			}
			text := p.src[start:p.pos]
			expr, order, err := parseBondExpr(text)
			if err != nil {
				return &ParseError{Input: p.src, Pos: start, Msg: err.Error()}
			}
			p.pending, p.pendingOrder = expr, order
		case c == '%' || isDigit(c):
			if err := p.ringClosure(); err != nil {
				return err
			}
		case c == '[':
			a, err := p.bracketAtom()
			if err != nil {
				return err
			}
			p.addAtom(a)
		default:
			a, err := p.bareAtom()
			if err != nil {
				return err
			}
			p.addAtom(a)
		}
	}
	if len(p.branches) > 0 {
		return p.errorf("unclosed branch")
	}
	if p.pending != nil {
		return p.errorf("dangling bond expression")
	}
	if len(p.rings) > 0 {
		return p.errorf("unclosed ring")
	}
	return nil
}

func (p *smartsParser) takeBond() (BondExpr, BondOrder) {
	expr, order := p.pending, p.pendingOrder
	if expr == nil {
		expr, order = bondImplicit{}, 0
	}
	p.pending, p.pendingOrder = nil, 0
	return expr, order
}

func (p *smartsParser) addAtom(a QueryAtom) {
	idx := p.q.addAtom(a)
	if p.prev >= 0 {
		expr, order := p.takeBond()
		p.q.addBond(QueryBond{Begin: p.prev, End: idx, Expr: expr, Order: order})
	}
	p.prev = idx
}

func (p *smartsParser) ringClosure() error {
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
		r := smartsRing{atom: p.prev}
		if p.pending != nil {
			r.expr, r.order = p.pending, p.pendingOrder
			p.pending, p.pendingOrder = nil, 0
		}
		p.rings[num] = r
		return nil
	}
	delete(p.rings, num)
	if open.atom == p.prev {
		return p.errorf("ring closure onto the same atom")
	}
	if _, dup := p.q.bondBetween(open.atom, p.prev); dup {
		return p.errorf("duplicate ring closure bond")
	}
	expr, order := p.takeBond()
	if open.expr != nil {
		expr, order = open.expr, open.order
	}
	p.q.addBond(QueryBond{Begin: open.atom, End: p.prev, Expr: expr, Order: order})
	return nil
}

func (p *smartsParser) bareAtom() (QueryAtom, error) {
	c := p.src[p.pos]
	switch c {
	case '*':
		p.pos++
		return QueryAtom{Expr: atomAny{}, Wildcard: true, Element: -1}, nil
	case 'a':
		p.pos++
		return QueryAtom{Expr: atomAromatic{want: true}, Element: -1}, nil
	case 'A':
		p.pos++
		return QueryAtom{Expr: atomAromatic{want: false}, Element: -1}, nil
	}
	if p.pos+1 < len(p.src) {
		two := p.src[p.pos : p.pos+2]
		if two == "Cl" || two == "Br" {
			p.pos += 2
			n, _ := AtomicNumber(two)
			return QueryAtom{Expr: andAtom(atomAtomicNum{n: n}, atomAromatic{want: false}), Element: n}, nil
		}
	}
	switch c {
	case 'B', 'C', 'N', 'O', 'P', 'S', 'F', 'I':
		p.pos++
		n, _ := AtomicNumber(string(c))
		return QueryAtom{Expr: andAtom(atomAtomicNum{n: n}, atomAromatic{want: false}), Element: n}, nil
	case 'b', 'c', 'n', 'o', 'p', 's':
		p.pos++
		n, _ := AtomicNumber(strings.ToUpper(string(c)))
		return QueryAtom{Expr: andAtom(atomAtomicNum{n: n}, atomAromatic{want: true}), Element: n}, nil
	}
	return QueryAtom{}, p.errorf("unexpected character " + strconv.QuoteRune(rune(c)))
}

func (p *smartsParser) bracketAtom() (QueryAtom, error) {
	start := p.pos
	end := strings.IndexByte(p.src[start:], ']')
	if end < 0 {
		return QueryAtom{}, p.errorf("unclosed bracket atom")
	}
	body := p.src[start+1 : start+end]
	p.pos = start + end + 1

	mapNum := 0
	if k := strings.LastIndexByte(body, ':'); k >= 0 {
		n, err := strconv.Atoi(body[k+1:])
		if err != nil || k+1 == len(body) {
			return QueryAtom{}, &ParseError{Input: p.src, Pos: start, Msg: "malformed atom map"}
		}
		mapNum = n
		body = body[:k]
	}
	if body == "" {
		return QueryAtom{}, &ParseError{Input: p.src, Pos: start, Msg: "empty bracket atom"}
	}

	ap := &atomExprParser{s: body}
	expr, err := ap.parse()
	if err != nil {
		return QueryAtom{}, &ParseError{Input: p.src, Pos: start + 1 + ap.pos, Msg: err.Error()}
	}
	return QueryAtom{
		Expr:     expr,
		MapNum:   mapNum,
		Wildcard: body == "*",
		Element:  impliedElement(expr),
	}, nil
}

// impliedElement returns the atomic number an expression requires, or -1.
func impliedElement(e AtomExpr) int {
	switch t := e.(type) {
	case atomAtomicNum:
		return t.n
	case atomAnd:
		if n := impliedElement(t.l); n >= 0 {
			return n
		}
		return impliedElement(t.r)
	}
	return -1
}

// ─────────────────────────────────────────────────────────────────────────────
// Atom expression grammar
// ─────────────────────────────────────────────────────────────────────────────

type atomExprParser struct {
	s   string
	pos int
}

type exprError string

func (e exprError) Error() string { return string(e) }

func (p *atomExprParser) parse() (AtomExpr, error) {
	e, err := p.lowAnd()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.s) {
		return nil, exprError("unexpected " + strconv.Quote(p.s[p.pos:]))
	}
	return e, nil
}

func (p *atomExprParser) lowAnd() (AtomExpr, error) {
	l, err := p.or()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.s) && p.s[p.pos] == ';' {
		p.pos++
		r, err := p.or()
		if err != nil {
			return nil, err
		}
		l = atomAnd{l: l, r: r}
	}
	return l, nil
}

func (p *atomExprParser) or() (AtomExpr, error) {
	l, err := p.highAnd()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.s) && p.s[p.pos] == ',' {
		p.pos++
		r, err := p.highAnd()
		if err != nil {
			return nil, err
		}
		l = atomOr{l: l, r: r}
	}
	return l, nil
}

func (p *atomExprParser) highAnd() (AtomExpr, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == ';' || c == ',' {
			break
		}
		if c == '&' {
			p.pos++
		}
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = atomAnd{l: l, r: r}
	}
	return l, nil
}

func (p *atomExprParser) unary() (AtomExpr, error) {
	neg := false
	for p.pos < len(p.s) && p.s[p.pos] == '!' {
		neg = !neg
		p.pos++
	}
	e, err := p.primitive()
	if err != nil {
		return nil, err
	}
	if neg {
		return atomNot{e: e}, nil
	}
	return e, nil
}

func (p *atomExprParser) number() (int, bool) {
	j := p.pos
	for p.pos < len(p.s) && isDigit(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == j {
		return 0, false
	}
	n, _ := strconv.Atoi(p.s[j:p.pos])
	return n, true
}

func (p *atomExprParser) primitive() (AtomExpr, error) {
	if p.pos >= len(p.s) {
		return nil, exprError("missing atom primitive")
	}
	c := p.s[p.pos]
	switch {
	case isDigit(c):
		n, _ := p.number()
		return atomIsotope{n: n}, nil
	case c == '*':
		p.pos++
		return atomAny{}, nil
	case c == 'a':
		if p.pos+1 < len(p.s) && p.s[p.pos+1] == 's' {
			p.pos += 2
			return andAtom(atomAtomicNum{n: 33}, atomAromatic{want: true}), nil
		}
		p.pos++
		return atomAromatic{want: true}, nil
	case c == 'A':
		if p.pos+1 < len(p.s) && p.s[p.pos+1] >= 'a' && p.s[p.pos+1] <= 'z' {
			if n, ok := AtomicNumber(p.s[p.pos : p.pos+2]); ok {
				p.pos += 2
				return andAtom(atomAtomicNum{n: n}, atomAromatic{want: false}), nil
			}
		}
		p.pos++
		return atomAromatic{want: false}, nil
	case c == '#':
		p.pos++
		n, ok := p.number()
		if !ok {
			return nil, exprError("'#' without atomic number")
		}
		return atomAtomicNum{n: n}, nil
	case c == 'R' || c == 'r':
		p.pos++
		n, ok := p.number()
		if ok && n == 0 {
			return atomInRing{want: false}, nil
		}
		return atomInRing{want: true}, nil
	case c == 'D':
		p.pos++
		n, ok := p.number()
		if !ok {
			n = 1
		}
		return atomDegree{n: n}, nil
	case c == 'H':
		// a leading H with nothing but a charge after it is hydrogen itself
		if p.pos == 0 && (len(p.s) == 1 || p.s[1] == '+' || p.s[1] == '-') {
			p.pos++
			return atomAtomicNum{n: 1}, nil
		}
		p.pos++
		n, ok := p.number()
		if !ok {
			n = 1
		}
		return atomTotalH{n: n}, nil
	case c == '+' || c == '-':
		sign := 1
		if c == '-' {
			sign = -1
		}
		p.pos++
		if n, ok := p.number(); ok {
			return atomCharge{n: sign * n}, nil
		}
		n := 1
		for p.pos < len(p.s) && p.s[p.pos] == c {
			n++
			p.pos++
		}
		return atomCharge{n: sign * n}, nil
	case c == '@':
		for p.pos < len(p.s) && p.s[p.pos] == '@' {
			p.pos++
		}
		return atomAny{}, nil
	case c >= 'A' && c <= 'Z':
		if p.pos+1 < len(p.s) && p.s[p.pos+1] >= 'a' && p.s[p.pos+1] <= 'z' {
			if n, ok := AtomicNumber(p.s[p.pos : p.pos+2]); ok {
				p.pos += 2
				return andAtom(atomAtomicNum{n: n}, atomAromatic{want: false}), nil
			}
		}
		n, ok := AtomicNumber(p.s[p.pos : p.pos+1])
		if !ok {
			return nil, exprError("unknown element " + p.s[p.pos:p.pos+1])
		}
		p.pos++
		return andAtom(atomAtomicNum{n: n}, atomAromatic{want: false}), nil
	case c >= 'a' && c <= 'z':
		if p.pos+1 < len(p.s) && p.s[p.pos+1] == 'e' && c == 's' {
			p.pos += 2
			return andAtom(atomAtomicNum{n: 34}, atomAromatic{want: true}), nil
		}
		n, ok := AtomicNumber(strings.ToUpper(p.s[p.pos : p.pos+1]))
		if !ok || !aromaticSymbols[n] {
			return nil, exprError("unknown aromatic element " + p.s[p.pos:p.pos+1])
		}
		p.pos++
		return andAtom(atomAtomicNum{n: n}, atomAromatic{want: true}), nil
	}
	return nil, exprError("unsupported atom primitive " + strconv.QuoteRune(rune(c)))
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond expression grammar
// ─────────────────────────────────────────────────────────────────────────────

// parseBondExpr compiles a bond expression.  The returned order is set when
// the expression is a single explicit bond order.
func parseBondExpr(s string) (BondExpr, BondOrder, error) {
	p := &bondExprParser{s: s}
	e, err := p.lowAnd()
	if err != nil {
		return nil, 0, err
	}
	if p.pos != len(s) {
		return nil, 0, exprError("unexpected " + strconv.Quote(s[p.pos:]))
	}
	var order BondOrder
	if bo, ok := e.(bondOrder); ok {
		order = bo.o
	}
	return e, order, nil
}

type bondExprParser struct {
	s   string
	pos int
}

func (p *bondExprParser) lowAnd() (BondExpr, error) {
	l, err := p.or()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.s) && p.s[p.pos] == ';' {
		p.pos++
		r, err := p.or()
		if err != nil {
			return nil, err
		}
		l = bondAnd{l: l, r: r}
	}
	return l, nil
}

func (p *bondExprParser) or() (BondExpr, error) {
	l, err := p.highAnd()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.s) && p.s[p.pos] == ',' {
		p.pos++
		r, err := p.highAnd()
		if err != nil {
			return nil, err
		}
		l = bondOr{l: l, r: r}
	}
	return l, nil
}

func (p *bondExprParser) highAnd() (BondExpr, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == ';' || c == ',' {
			break
		}
		if c == '&' {
			p.pos++
		}
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = bondAnd{l: l, r: r}
	}
	return l, nil
}

func (p *bondExprParser) unary() (BondExpr, error) {
	neg := false
	for p.pos < len(p.s) && p.s[p.pos] == '!' {
		neg = !neg
		p.pos++
	}
	if p.pos >= len(p.s) {
		return nil, exprError("missing bond primitive")
	}
	var e BondExpr
	switch p.s[p.pos] {
	case '-', '/', '\\':
		e = bondOrder{o: BondSingle}
	case '=':
		e = bondOrder{o: BondDouble}
	case '#':
		e = bondOrder{o: BondTriple}
	case ':':
		e = bondOrder{o: BondAromatic}
	case '~':
		e = bondAny{}
	case '@':
		e = bondInRing{want: true}
	default:
		return nil, exprError("unsupported bond primitive " + strconv.QuoteRune(rune(p.s[p.pos])))
	}
	p.pos++
	if neg {
		return bondNot{e: e}, nil
	}
	return e, nil
}

//Personal.AI order the ending
