// Package abbreviation provides the application service that condenses
// functional groups of a molecule into labelled superatoms.
package abbreviation

import (
	"context"
	"time"

	"github.com/turtacn/ScaffoldNet/internal/config"
	domain "github.com/turtacn/ScaffoldNet/internal/domain/abbreviation"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/molgraph"
)

// Condense modes reported in results and metrics.
const (
	ModeSMARTS  = "smarts"
	ModePattern = "pattern"
	ModeTable   = "table"
)

// Service defines the abbreviation application operations.
type Service interface {
	Condense(ctx context.Context, input *CondenseInput) (*CondenseResult, error)
	Definitions() []*domain.Pattern
}

// CondenseInput selects what to condense.  SMARTS wins over Labels; a single
// label may be renamed with Label; no SMARTS and no Labels applies the whole
// table.  A nil MaxCoverage uses the configured gate.
type CondenseInput struct {
	SMILES      string
	Labels      []string
	SMARTS      string
	Label       string
	MaxCoverage *float64
}

// CondenseResult is the condensed molecule and how it was produced.
type CondenseResult struct {
	SMILES   string         `json:"smiles"`
	CXSMILES string         `json:"cxsmiles"`
	Mode     string         `json:"mode"`
	Applied  map[string]int `json:"applied"`
	Accepted int            `json:"accepted"`
	Skipped  int            `json:"skipped"`
	Gated    []string       `json:"gated,omitempty"`
}

// Deps holds the dependencies of the abbreviation service.  A nil Table is
// loaded from Config.DefinitionsFile, or the built-in table when that is
// empty.
type Deps struct {
	Config  config.AbbreviationConfig
	Table   *domain.Table
	Metrics *prometheus.AppMetrics
	Logger  logging.Logger
}

type serviceImpl struct {
	table       *domain.Table
	maxCoverage float64
	metrics     *prometheus.AppMetrics
	logger      logging.Logger
}

// NewService creates a new abbreviation application service.
func NewService(deps Deps) (Service, error) {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	log := deps.Logger.Named("abbreviation")

	table := deps.Table
	if table == nil {
		if deps.Config.DefinitionsFile != "" {
			t, err := domain.LoadDefinitionsFile(deps.Config.DefinitionsFile)
			if err != nil {
				return nil, err
			}
			table = t
			log.Info("loaded abbreviation definitions",
				logging.String("file", deps.Config.DefinitionsFile),
				logging.Int("patterns", table.Len()))
		} else {
			table = domain.DefaultTable()
		}
	}

	return &serviceImpl{
		table:       table,
		maxCoverage: deps.Config.MaxCoverage,
		metrics:     deps.Metrics,
		logger:      log,
	}, nil
}

func (s *serviceImpl) Definitions() []*domain.Pattern {
	return s.table.Patterns()
}

func (s *serviceImpl) Condense(ctx context.Context, input *CondenseInput) (res *CondenseResult, err error) {
	if input == nil {
		return nil, errors.InvalidParam("request cannot be nil")
	}
	mode := ModeTable
	switch {
	case input.SMARTS != "":
		mode = ModeSMARTS
	case len(input.Labels) == 1:
		mode = ModePattern
	}

	start := time.Now()
	defer func() {
		var accepted, skipped int
		var gated bool
		if res != nil {
			accepted, skipped, gated = res.Accepted, res.Skipped, len(res.Gated) > 0
		}
		prometheus.RecordCondense(s.metrics, mode, err, accepted, skipped, gated, time.Since(start))
	}()

	if input.SMILES == "" {
		return nil, errors.InvalidParam("smiles is required")
	}
	mol, err := molgraph.ParseSMILES(input.SMILES)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMoleculeInvalidSMILES, "failed to parse smiles").WithDetail(input.SMILES)
	}
	coverage := s.maxCoverage
	if input.MaxCoverage != nil {
		coverage = *input.MaxCoverage
	}

	res = &CondenseResult{Mode: mode, Applied: map[string]int{}}
	var out *molgraph.Mol
	switch mode {
	case ModeSMARTS:
		d, err := domain.CondenseSMARTSDetailed(mol, input.SMARTS, input.Label, coverage)
		if err != nil {
			return nil, err
		}
		res.add(input.Label, d)
		out = d.Mol

	case ModePattern:
		p, ok := s.table.Lookup(input.Labels[0])
		if !ok {
			return nil, errors.NotFound("unknown abbreviation: " + input.Labels[0])
		}
		d, err := domain.CondenseDetailed(mol, p, input.Label, coverage)
		if err != nil {
			return nil, err
		}
		label := input.Label
		if label == "" {
			label = p.Label
		}
		res.add(label, d)
		out = d.Mol

	default:
		table := s.table
		if len(input.Labels) > 0 {
			if table, err = s.table.Subset(input.Labels); err != nil {
				return nil, err
			}
		}
		// Each pattern runs on the previous output, as CondenseAll does,
		// so that per-label statistics can be collected.
		out = mol
		for _, p := range table.Patterns() {
			d, err := domain.CondenseDetailed(out, p, "", coverage)
			if err != nil {
				return nil, err
			}
			res.add(p.Label, d)
			out = d.Mol
		}
	}

	res.SMILES = molgraph.CanonicalSMILES(out)
	res.CXSMILES = molgraph.CXSMILES(out)
	s.logger.Debug("condensed molecule",
		logging.String("mode", mode),
		logging.Int("accepted", res.Accepted),
		logging.Int("skipped", res.Skipped),
		logging.Duration("duration", time.Since(start)))
	return res, nil
}

func (r *CondenseResult) add(label string, d *domain.Result) {
	r.Accepted += d.Accepted
	r.Skipped += d.Skipped
	if d.Accepted > 0 {
		r.Applied[label] += d.Accepted
	}
	if d.Gated {
		r.Gated = append(r.Gated, label)
	}
}

//Personal.AI order the ending
