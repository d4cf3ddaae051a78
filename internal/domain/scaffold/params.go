package scaffold

import (
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Params
// ─────────────────────────────────────────────────────────────────────────────

// Params configures fragment generation and network building.
type Params struct {
	// BondBreakers holds reaction SMARTS rules.  Empty means DefaultBondBreaker.
	BondBreakers []string `json:"bond_breakers,omitempty" yaml:"bond_breakers" mapstructure:"bond_breakers"`

	IncludeGenericScaffolds            bool `json:"include_generic_scaffolds" yaml:"include_generic_scaffolds" mapstructure:"include_generic_scaffolds"`
	IncludeGenericBondScaffolds        bool `json:"include_generic_bond_scaffolds" yaml:"include_generic_bond_scaffolds" mapstructure:"include_generic_bond_scaffolds"`
	KeepOnlyFirstFragment              bool `json:"keep_only_first_fragment" yaml:"keep_only_first_fragment" mapstructure:"keep_only_first_fragment"`
	IncludeScaffoldsWithoutAttachments bool `json:"include_scaffolds_without_attachments" yaml:"include_scaffolds_without_attachments" mapstructure:"include_scaffolds_without_attachments"`

	// ExcludeScaffoldsWithAttachments strips attachment points from every
	// fragment before it is recorded, so no node carries dummy atoms.
	ExcludeScaffoldsWithAttachments bool `json:"exclude_scaffolds_with_attachments,omitempty" yaml:"exclude_scaffolds_with_attachments" mapstructure:"exclude_scaffolds_with_attachments"`

	// MaxNodes caps the network size; 0 means unlimited.
	MaxNodes int `json:"max_nodes,omitempty" yaml:"max_nodes" mapstructure:"max_nodes"`
	// MaxQueue caps the number of fragments produced per molecule; 0 means unlimited.
	MaxQueue int `json:"max_queue,omitempty" yaml:"max_queue" mapstructure:"max_queue"`
}

// DefaultParams returns the standard network settings.
func DefaultParams() Params {
	return Params{
		BondBreakers:                       []string{DefaultBondBreaker},
		IncludeGenericScaffolds:            true,
		IncludeGenericBondScaffolds:        false,
		KeepOnlyFirstFragment:              true,
		IncludeScaffoldsWithoutAttachments: true,
	}
}

// ParamOption mutates Params during NewParams.
type ParamOption func(*Params)

// WithBondBreakers replaces the bond-breaker rules.
func WithBondBreakers(patterns ...string) ParamOption {
	return func(p *Params) {
		p.BondBreakers = append([]string(nil), patterns...)
	}
}

// WithGenericScaffolds toggles atom-generic scaffolds.
func WithGenericScaffolds(v bool) ParamOption {
	return func(p *Params) { p.IncludeGenericScaffolds = v }
}

// WithGenericBondScaffolds toggles atom-and-bond generic scaffolds.
func WithGenericBondScaffolds(v bool) ParamOption {
	return func(p *Params) { p.IncludeGenericBondScaffolds = v }
}

// WithKeepOnlyFirstFragment toggles keeping only the ring-side fragment.
func WithKeepOnlyFirstFragment(v bool) ParamOption {
	return func(p *Params) { p.KeepOnlyFirstFragment = v }
}

// WithScaffoldsWithoutAttachments toggles attachment-stripped scaffolds.
func WithScaffoldsWithoutAttachments(v bool) ParamOption {
	return func(p *Params) { p.IncludeScaffoldsWithoutAttachments = v }
}

// WithScaffoldsWithAttachments toggles keeping attachment points on
// fragments.  Passing false strips them before fragments are recorded.
func WithScaffoldsWithAttachments(v bool) ParamOption {
	return func(p *Params) { p.ExcludeScaffoldsWithAttachments = !v }
}

// WithMaxNodes caps the number of network nodes.
func WithMaxNodes(n int) ParamOption {
	return func(p *Params) { p.MaxNodes = n }
}

// WithMaxQueue caps the number of fragments per molecule.
func WithMaxQueue(n int) ParamOption {
	return func(p *Params) { p.MaxQueue = n }
}

// NewParams returns DefaultParams with opts applied in order.
func NewParams(opts ...ParamOption) Params {
	p := DefaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Validate checks the numeric limits.
func (p Params) Validate() error {
	if p.MaxNodes < 0 {
		return errors.InvalidParam("max_nodes must be >= 0")
	}
	if p.MaxQueue < 0 {
		return errors.InvalidParam("max_queue must be >= 0")
	}
	return nil
}

// linksAttachmentRemoval reports whether RemoveAttachment edges are emitted.
// Stripped fragments have nothing left to remove.
func (p Params) linksAttachmentRemoval() bool {
	return p.IncludeScaffoldsWithoutAttachments && !p.ExcludeScaffoldsWithAttachments
}

// usesDefaultRules reports whether the default shared rule set applies.
func (p Params) usesDefaultRules() bool {
	return len(p.BondBreakers) == 0 ||
		(len(p.BondBreakers) == 1 && p.BondBreakers[0] == DefaultBondBreaker)
}

// Compile validates p and compiles its rules into an immutable
// CompiledParams.
func (p Params) Compile() (*CompiledParams, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var rules *RuleSet
	if p.usesDefaultRules() {
		rules = DefaultRuleSet()
		p.BondBreakers = []string{DefaultBondBreaker}
	} else {
		var err error
		if rules, err = CompileRules(p.BondBreakers); err != nil {
			return nil, err
		}
	}
	p.BondBreakers = append([]string(nil), p.BondBreakers...)
	return &CompiledParams{params: p, rules: rules}, nil
}

// MustCompile is Compile that panics on error.
func (p Params) MustCompile() *CompiledParams {
	cp, err := p.Compile()
	if err != nil {
		panic(err)
	}
	return cp
}

// ─────────────────────────────────────────────────────────────────────────────
// CompiledParams
// ─────────────────────────────────────────────────────────────────────────────

// CompiledParams is the frozen form of Params handed to every network call.
// It is safe for concurrent use.
type CompiledParams struct {
	params Params
	rules  *RuleSet
}

// Params returns a copy of the source settings.
func (c *CompiledParams) Params() Params {
	p := c.params
	p.BondBreakers = append([]string(nil), c.params.BondBreakers...)
	return p
}

// Rules returns the compiled bond breakers.
func (c *CompiledParams) Rules() *RuleSet { return c.rules }

//Personal.AI order the ending
