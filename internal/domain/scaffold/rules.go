// Package scaffold implements scaffold network construction: recursive
// bond-breaking of a molecule into fragments, generic abstraction,
// attachment-point stripping and the deduplicated, typed network that ties
// them together.
package scaffold

import (
	"fmt"
	"sync"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/molgraph"
)

// DefaultBondBreaker cleaves any acyclic single bond between a ring atom and
// a non-wildcard neighbour, capping both halves with a wildcard atom.
const DefaultBondBreaker = "[!#0;R:1]-!@[!#0:2]>>[*:1]-[#0].[#0]-[*:2]"

// BondBreakerRule is a compiled bond-breaking reaction.
type BondBreakerRule struct {
	pattern string
	rxn     *molgraph.Reaction
}

// Pattern returns the reaction SMARTS the rule was compiled from.
func (r BondBreakerRule) Pattern() string { return r.pattern }

// Apply runs the rule against m at every site.  Each element holds the two
// product fragments of one site, ring side first.
func (r BondBreakerRule) Apply(m *molgraph.Mol) [][]*molgraph.Mol {
	return r.rxn.RunReactants(m)
}

// RuleSet is an ordered, immutable list of compiled bond breakers.  It is safe
// for concurrent use.
type RuleSet struct {
	rules []BondBreakerRule
}

// CompileRules compiles every pattern eagerly.  The first failure is returned
// as an ErrCodeConfiguration error naming the pattern and its position.
func CompileRules(patterns []string) (*RuleSet, error) {
	if len(patterns) == 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "no bond breakers configured")
	}
	rs := &RuleSet{rules: make([]BondBreakerRule, 0, len(patterns))}
	for i, p := range patterns {
		rxn, err := molgraph.ParseReaction(p)
		if err != nil {
			return nil, errors.New(errors.ErrCodeConfiguration, fmt.Sprintf("bond breaker %d failed to compile", i)).
				WithDetail(p).
				WithCause(err)
		}
		if rxn.NumProducts() != 2 {
			return nil, errors.New(errors.ErrCodeConfiguration,
				fmt.Sprintf("bond breaker %d must produce two fragments, got %d", i, rxn.NumProducts())).
				WithDetail(p)
		}
		rs.rules = append(rs.rules, BondBreakerRule{pattern: p, rxn: rxn})
	}
	return rs, nil
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int { return len(rs.rules) }

// Rules returns a copy of the rule list.
func (rs *RuleSet) Rules() []BondBreakerRule {
	out := make([]BondBreakerRule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Patterns returns the source patterns in rule order.
func (rs *RuleSet) Patterns() []string {
	out := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = r.pattern
	}
	return out
}

var (
	defaultRulesOnce sync.Once
	defaultRules     *RuleSet
)

// DefaultRuleSet returns the shared rule set holding DefaultBondBreaker.
func DefaultRuleSet() *RuleSet {
	defaultRulesOnce.Do(func() {
		rs, err := CompileRules([]string{DefaultBondBreaker})
		if err != nil {
			panic(err)
		}
		defaultRules = rs
	})
	return defaultRules
}

//Personal.AI order the ending
