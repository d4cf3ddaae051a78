// Package abbreviation condenses recognised functional groups of a molecule
// into single labelled wildcard atoms ("superatoms") for depiction.
package abbreviation

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/molgraph"
)

// DefaultDefinitions lists the built-in superatoms.  Each row is
// "left right SMILES [color]"; the first SMILES atom is the one bonded to the
// rest of the molecule.
const DefaultDefinitions = `
# Superatom labels and the groups they stand for.
# Empty lines and lines starting with # are ignored.
# Larger groups come first so that they win over their own substructures.
#left    right    SMILES            color
CO2Et    EtO2C    C(=O)OCC
COOEt    EtOOC    C(=O)OCC
OiBu     iBuO     OCC(C)C
tBu      tBu      C(C)(C)C
nBu      nBu      CCCC
iPr      iPr      C(C)C
nPr      nPr      CCC
Et       Et       CC
NCF3     F3CN     NC(F)(F)F
CF3      F3C      C(F)(F)F
CCl3     Cl3C     C(Cl)(Cl)Cl
CN       NC       C#N
NC       CN       [N+]#[C-]
N(OH)CH3 CH3(OH)N N(O)C
NO2      O2N      [N+](=O)[O-]
NO       ON       N=O
SO3H     HO3S     S(=O)(=O)O
CO2H     HOOC     C(=O)O            blue
COOH     HOOC     C(=O)O            blue
OEt      EtO      OCC
OAc      AcO      OC(=O)C
NHAc     AcNH     NC(=O)C
Ac       Ac       C(=O)C
CHO      OHC      C=O
NMe      MeN      NC
SMe      MeS      SC
OMe      MeO      OC
CO2-     -OOC     C(=O)[O-]
COO-     -OOC     C(=O)[O-]
`

// Pattern is a compiled superatom definition.
type Pattern struct {
	Label      string `json:"label"`
	RightLabel string `json:"right_label"`
	SMILES     string `json:"smiles"`
	Color      string `json:"color,omitempty"`

	Query *molgraph.Query `json:"-"`
	// NonDummyAtoms counts the pattern atoms that are not wildcards.
	NonDummyAtoms int `json:"non_dummy_atoms"`
}

// NewPattern compiles a single definition.  A leading wildcard is added to
// smiles unless it already starts with one, and every non-wildcard atom is
// pinned to its degree in the pattern.
func NewPattern(label, right, smiles, color string) (*Pattern, error) {
	src := smiles
	if !strings.HasPrefix(src, "*") && !strings.HasPrefix(src, "[*") {
		src = "*" + src
	}
	m, err := molgraph.ParseSMILES(src)
	if err != nil {
		return nil, err
	}
	q := molgraph.QueryFromMol(m, molgraph.QueryOptions{AdjustDegree: true})
	return &Pattern{
		Label:         label,
		RightLabel:    right,
		SMILES:        src,
		Color:         color,
		Query:         q,
		NonDummyAtoms: nonDummyAtoms(q),
	}, nil
}

func nonDummyAtoms(q *molgraph.Query) int {
	n := 0
	for i := 0; i < q.NumAtoms(); i++ {
		if !q.Atom(i).Wildcard {
			n++
		}
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// Table
// ─────────────────────────────────────────────────────────────────────────────

// Table is an immutable, ordered set of patterns.  It is safe for
// concurrent use.
type Table struct {
	patterns []*Pattern
	byLabel  map[string]*Pattern
}

// ParseDefinitions compiles a definitions text.  Any malformed row or
// uncompilable SMILES is an ErrCodeConfiguration error naming the line.
func ParseDefinitions(text string) (*Table, error) {
	t := &Table{byLabel: make(map[string]*Pattern)}
	for n, line := range strings.Split(text, "\n") {
		if line == "" || line[0] == '#' || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		line = strings.TrimRight(line, "\r")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 || len(fields) > 4 {
			return nil, errors.New(errors.ErrCodeConfiguration,
				fmt.Sprintf("abbreviation line %d: expected label, right label, SMILES and optional color", n+1)).
				WithDetail(line)
		}
		var color string
		if len(fields) == 4 {
			color = fields[3]
		}
		if _, dup := t.byLabel[fields[0]]; dup {
			return nil, errors.New(errors.ErrCodeConfiguration,
				fmt.Sprintf("abbreviation line %d: duplicate label %q", n+1, fields[0]))
		}
		p, err := NewPattern(fields[0], fields[1], fields[2], color)
		if err != nil {
			return nil, errors.New(errors.ErrCodeConfiguration,
				fmt.Sprintf("abbreviation line %d: %s failed to compile", n+1, fields[0])).
				WithDetail(fields[2]).
				WithCause(err)
		}
		t.patterns = append(t.patterns, p)
		t.byLabel[p.Label] = p
	}
	return t, nil
}

// LoadDefinitionsFile reads and compiles a definitions file.
func LoadDefinitionsFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfiguration, "failed to read abbreviation definitions")
	}
	return ParseDefinitions(string(raw))
}

var (
	defaultTableOnce sync.Once
	defaultTable     *Table
)

// DefaultTable returns the shared table built from DefaultDefinitions.
func DefaultTable() *Table {
	defaultTableOnce.Do(func() {
		t, err := ParseDefinitions(DefaultDefinitions)
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

// Len returns the number of patterns.
func (t *Table) Len() int { return len(t.patterns) }

// Patterns returns the patterns in definition order.
func (t *Table) Patterns() []*Pattern {
	out := make([]*Pattern, len(t.patterns))
	copy(out, t.patterns)
	return out
}

// Lookup finds a pattern by its left label.
func (t *Table) Lookup(label string) (*Pattern, bool) {
	p, ok := t.byLabel[label]
	return p, ok
}

// Labels returns the left labels in definition order.
func (t *Table) Labels() []string {
	out := make([]string, len(t.patterns))
	for i, p := range t.patterns {
		out[i] = p.Label
	}
	return out
}

// Subset returns a table holding only the named patterns, in the order
// given.  Unknown labels are reported as errors.CodeNotFound.
func (t *Table) Subset(labels []string) (*Table, error) {
	sub := &Table{byLabel: make(map[string]*Pattern, len(labels))}
	for _, l := range labels {
		p, ok := t.byLabel[l]
		if !ok {
			return nil, errors.NotFound("unknown abbreviation").WithDetail(l)
		}
		if _, dup := sub.byLabel[l]; dup {
			continue
		}
		sub.patterns = append(sub.patterns, p)
		sub.byLabel[l] = p
	}
	return sub, nil
}

//Personal.AI order the ending
