// Package scaffold provides the application service that builds, stores and
// searches scaffold networks.  It sits between the HTTP/gRPC/CLI/worker
// entry points and the scaffold domain.
package scaffold

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/ScaffoldNet/internal/config"
	domain "github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/molgraph"
)

// Build sources reported in results and metrics.
const (
	SourceBuilt = "built"
	SourceCache = "cache"
	SourceStore = "store"
)

// Sink names used for logs and the sink error counter.
const (
	sinkGraph    = "neo4j"
	sinkIndex    = "opensearch"
	sinkArtifact = "minio"
	sinkEvents   = "kafka"
	sinkCache    = "redis"
)

const defaultSearchLimit = 20

// Service defines the scaffold network application operations.
type Service interface {
	BuildNetwork(ctx context.Context, input *BuildNetworkInput) (*BuildNetworkResult, error)
	GetNetwork(ctx context.Context, id string) (*domain.NetworkRecord, error)
	ListNetworks(ctx context.Context, input *ListInput) (*ListResult, error)
	Fragments(ctx context.Context, input *FragmentsInput) (*FragmentsResult, error)
	SearchScaffold(ctx context.Context, input *SearchInput) (*SearchResult, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Inputs and results
// ─────────────────────────────────────────────────────────────────────────────

// BuildNetworkInput contains the molecules of one network request.  A nil
// Params uses the configured defaults.
type BuildNetworkInput struct {
	SMILES []string
	Params *domain.Params
	// Source labels the caller in metrics, e.g. "http" or "worker".
	Source string
	// Reuse returns a stored record built from identical inputs instead of
	// building a new one.
	Reuse bool
}

// BuildNetworkResult is the outcome of BuildNetwork.
type BuildNetworkResult struct {
	Record   *domain.NetworkRecord `json:"record"`
	Source   string                `json:"source"`
	Artifact string                `json:"artifact,omitempty"`
	Duration time.Duration         `json:"duration"`
}

type ListInput struct {
	Limit  int
	Offset int
}

type ListResult struct {
	Networks []*domain.NetworkRecord `json:"networks"`
	Total    int64                   `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
}

// FragmentsInput asks for the raw fragments of a single molecule.
type FragmentsInput struct {
	SMILES string
	Params *domain.Params
}

// FragmentView is a fragment rendered for transport.
type FragmentView struct {
	ParentKey string `json:"parent"`
	Fragment  string `json:"fragment"`
}

type FragmentsResult struct {
	Fragments []FragmentView `json:"fragments"`
	// Truncated reports that the queue cap stopped fragment generation.
	Truncated bool `json:"truncated"`
}

// SearchInput looks up the networks containing a scaffold.
type SearchInput struct {
	SMILES string
	Limit  int
	// WithChildren also asks the graph projection for derived scaffolds.
	WithChildren bool
}

type SearchResult struct {
	Key      domain.CanonicalKey   `json:"key"`
	Hits     []domain.ScaffoldNode `json:"hits"`
	Children []domain.CanonicalKey `json:"children,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Dependencies
// ─────────────────────────────────────────────────────────────────────────────

// BuildLock serialises builds of one fingerprint across processes.
type BuildLock interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// LockFactory returns the lock guarding a fingerprint.
type LockFactory func(fingerprint string) BuildLock

// networkLoader is implemented by caches that collapse concurrent builds.
type networkLoader interface {
	GetOrBuild(ctx context.Context, fingerprint string, ttl time.Duration,
		build func(ctx context.Context) (*domain.Network, error)) (*domain.Network, bool, error)
}

// Deps holds the dependencies of the scaffold service.  Everything except
// Logger is optional; a nil Repository disables persistence and lookups.
type Deps struct {
	Config     config.ScaffoldConfig
	Repository domain.Repository
	Cache      domain.NetworkCache
	CacheTTL   time.Duration
	Graph      domain.GraphProjector
	Index      domain.ScaffoldIndex
	Artifacts  domain.ArtifactStore
	Publisher  domain.EventPublisher
	Locks      LockFactory
	Metrics    *prometheus.AppMetrics
	Logger     logging.Logger
}

type serviceImpl struct {
	cfg       config.ScaffoldConfig
	defaults  domain.Params
	repo      domain.Repository
	cache     domain.NetworkCache
	cacheTTL  time.Duration
	graph     domain.GraphProjector
	index     domain.ScaffoldIndex
	artifacts domain.ArtifactStore
	publisher domain.EventPublisher
	locks     LockFactory
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// NewService creates a new scaffold application service.
func NewService(deps Deps) Service {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		cfg:       deps.Config,
		defaults:  ParamsFromConfig(deps.Config),
		repo:      deps.Repository,
		cache:     deps.Cache,
		cacheTTL:  deps.CacheTTL,
		graph:     deps.Graph,
		index:     deps.Index,
		artifacts: deps.Artifacts,
		publisher: deps.Publisher,
		locks:     deps.Locks,
		metrics:   deps.Metrics,
		logger:    deps.Logger.Named("scaffold"),
	}
}

// ParamsFromConfig converts the configured defaults into domain Params.
func ParamsFromConfig(cfg config.ScaffoldConfig) domain.Params {
	p := domain.Params{
		BondBreakers:                       append([]string(nil), cfg.BondBreakers...),
		IncludeGenericScaffolds:            cfg.IncludeGenericScaffolds,
		IncludeGenericBondScaffolds:        cfg.IncludeGenericBondScaffolds,
		KeepOnlyFirstFragment:              cfg.KeepOnlyFirstFragment,
		IncludeScaffoldsWithoutAttachments: cfg.IncludeScaffoldsWithoutAttachments,
		ExcludeScaffoldsWithAttachments:    cfg.ExcludeScaffoldsWithAttachments,
		MaxNodes:                           cfg.MaxNodes,
		MaxQueue:                           cfg.MaxQueue,
	}
	if len(p.BondBreakers) == 0 {
		p.BondBreakers = []string{domain.DefaultBondBreaker}
	}
	return p
}

// resolveParams picks the request params when given, otherwise the defaults.
// Request params never exceed the configured node and queue caps.
func (s *serviceImpl) resolveParams(p *domain.Params) (*domain.CompiledParams, error) {
	params := s.defaults
	if p != nil {
		params = *p
		params.MaxNodes = clampLimit(params.MaxNodes, s.cfg.MaxNodes)
		params.MaxQueue = clampLimit(params.MaxQueue, s.cfg.MaxQueue)
	}
	return params.Compile()
}

// clampLimit bounds a requested limit by the configured one; 0 means
// unlimited on both sides.
func clampLimit(requested, configured int) int {
	if configured > 0 && (requested <= 0 || requested > configured) {
		return configured
	}
	return requested
}

func parseSMILES(smiles string, i int) (*molgraph.Mol, error) {
	if smiles == "" {
		return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES, "smiles is required").
			WithDetail(fmt.Sprintf("input %d", i))
	}
	m, err := molgraph.ParseSMILES(smiles)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMoleculeInvalidSMILES, "failed to parse smiles").
			WithDetail(fmt.Sprintf("input %d: %s", i, smiles))
	}
	return m, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// BuildNetwork
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) BuildNetwork(ctx context.Context, input *BuildNetworkInput) (res *BuildNetworkResult, err error) {
	if input == nil {
		return nil, errors.InvalidParam("request cannot be nil")
	}
	source := input.Source
	if source == "" {
		source = "api"
	}
	start := time.Now()
	defer func() {
		var nodes int
		var edges map[string]int
		if res != nil {
			nodes, edges = res.Record.Network.NumNodes(), edgeCounts(res.Record.Network)
		}
		prometheus.RecordNetworkBuild(s.metrics, source, err, time.Since(start), nodes, edges)
		if err != nil {
			prometheus.RecordError(s.metrics, "scaffold", string(errors.GetCode(err)))
		}
	}()

	if len(input.SMILES) == 0 {
		return nil, errors.InvalidParam("at least one smiles is required")
	}
	if s.cfg.MaxInputs > 0 && len(input.SMILES) > s.cfg.MaxInputs {
		return nil, errors.Newf(errors.ErrCodeLimitExceeded, "%d inputs exceed the limit of %d", len(input.SMILES), s.cfg.MaxInputs)
	}

	cp, err := s.resolveParams(input.Params)
	if err != nil {
		return nil, err
	}
	mols := make([]*molgraph.Mol, len(input.SMILES))
	for i, smi := range input.SMILES {
		if mols[i], err = parseSMILES(smi, i); err != nil {
			return nil, err
		}
	}

	params := cp.Params()
	fingerprint := domain.Fingerprint(input.SMILES, params)
	log := s.logger.With(logging.String("fingerprint", fingerprint), logging.Int("inputs", len(mols)))

	if s.locks != nil {
		lock := s.locks(fingerprint)
		if err := lock.Lock(ctx); err != nil {
			return nil, err
		}
		defer func() {
			if uerr := lock.Unlock(context.WithoutCancel(ctx)); uerr != nil {
				log.Warn("failed to release build lock", logging.Err(uerr))
			}
		}()
	}

	if input.Reuse && s.repo != nil {
		rec, ferr := s.repo.FindByFingerprint(ctx, fingerprint)
		switch {
		case ferr == nil:
			log.Debug("reusing stored network", logging.String("network_id", rec.ID))
			return &BuildNetworkResult{Record: rec, Source: SourceStore, Duration: time.Since(start)}, nil
		case !errors.IsCode(ferr, errors.ErrCodeNetworkNotFound):
			log.Warn("fingerprint lookup failed, building anyway", logging.Err(ferr))
		}
	}

	net, from, err := s.build(ctx, fingerprint, mols, cp)
	if err != nil {
		return nil, err
	}

	rec, err := domain.NewNetworkRecord(input.SMILES, params, net)
	if err != nil {
		return nil, err
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, rec); err != nil {
			log.Error("failed to persist network", logging.Err(err))
			return nil, err
		}
	}

	artifact := s.fanOut(ctx, rec, log)
	log.Info("network built",
		logging.String("network_id", rec.ID),
		logging.String("source", from),
		logging.Int("nodes", net.NumNodes()),
		logging.Int("edges", len(net.Edges)),
		logging.Duration("duration", time.Since(start)))

	return &BuildNetworkResult{Record: rec, Source: from, Artifact: artifact, Duration: time.Since(start)}, nil
}

// build returns the network for fingerprint from the cache or by running the
// builder.  A network that hit the node cap is an error and is not cached.
func (s *serviceImpl) build(ctx context.Context, fingerprint string, mols []*molgraph.Mol, cp *domain.CompiledParams) (*domain.Network, string, error) {
	run := func(context.Context) (*domain.Network, error) {
		net, err := domain.CreateScaffoldNetwork(mols, cp)
		if err != nil {
			if errors.Is(err, errors.ErrLimitExceeded) {
				return nil, errors.Wrap(err, errors.ErrCodeLimitExceeded, "scaffold network exceeded its limits")
			}
			return nil, err
		}
		return net, nil
	}

	if s.cache == nil {
		net, err := run(ctx)
		return net, SourceBuilt, err
	}

	if loader, ok := s.cache.(networkLoader); ok {
		net, hit, err := loader.GetOrBuild(ctx, fingerprint, s.cacheTTL, run)
		prometheus.RecordCacheAccess(s.metrics, sinkCache, hit)
		if err != nil {
			return nil, "", err
		}
		if hit {
			return net, SourceCache, nil
		}
		return net, SourceBuilt, nil
	}

	net, hit, err := s.cache.Get(ctx, fingerprint)
	if err != nil {
		s.logger.Warn("cache read failed", logging.Err(err))
		prometheus.RecordSinkError(s.metrics, sinkCache)
	}
	prometheus.RecordCacheAccess(s.metrics, sinkCache, hit)
	if hit {
		return net, SourceCache, nil
	}
	if net, err = run(ctx); err != nil {
		return nil, "", err
	}
	if err := s.cache.Set(ctx, fingerprint, net, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", logging.Err(err))
		prometheus.RecordSinkError(s.metrics, sinkCache)
	}
	return net, SourceBuilt, nil
}

// fanOut hands rec to every optional sink.  Failures are logged and counted
// but never returned.
func (s *serviceImpl) fanOut(ctx context.Context, rec *domain.NetworkRecord, log logging.Logger) string {
	sinkFailed := func(sink string, err error) {
		log.Warn("sink failed", logging.String("sink", sink), logging.String("network_id", rec.ID), logging.Err(err))
		prometheus.RecordSinkError(s.metrics, sink)
	}

	if s.graph != nil {
		if err := s.graph.ProjectNetwork(ctx, rec); err != nil {
			sinkFailed(sinkGraph, err)
		}
	}
	if s.index != nil {
		if err := s.index.IndexNetwork(ctx, rec); err != nil {
			sinkFailed(sinkIndex, err)
		}
	}
	var artifact string
	if s.artifacts != nil {
		loc, err := s.artifacts.ExportNetwork(ctx, rec)
		if err != nil {
			sinkFailed(sinkArtifact, err)
		} else {
			artifact = loc
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishNetworkBuilt(ctx, rec.Event()); err != nil {
			sinkFailed(sinkEvents, err)
		}
	}
	return artifact
}

func edgeCounts(net *domain.Network) map[string]int {
	out := make(map[string]int, 4)
	for _, e := range net.Edges {
		out[e.Type.String()]++
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) GetNetwork(ctx context.Context, id string) (*domain.NetworkRecord, error) {
	if id == "" {
		return nil, errors.InvalidParam("network id is required")
	}
	if s.repo == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "network storage is not configured")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *serviceImpl) ListNetworks(ctx context.Context, input *ListInput) (*ListResult, error) {
	if s.repo == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "network storage is not configured")
	}
	in := ListInput{}
	if input != nil {
		in = *input
	}
	if in.Limit <= 0 {
		in.Limit = 20
	}
	if in.Limit > 100 {
		in.Limit = 100
	}
	if in.Offset < 0 {
		in.Offset = 0
	}

	recs, err := s.repo.List(ctx, in.Limit, in.Offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &ListResult{Networks: recs, Total: total, Limit: in.Limit, Offset: in.Offset}, nil
}

func (s *serviceImpl) Fragments(ctx context.Context, input *FragmentsInput) (*FragmentsResult, error) {
	if input == nil {
		return nil, errors.InvalidParam("request cannot be nil")
	}
	cp, err := s.resolveParams(input.Params)
	if err != nil {
		return nil, err
	}
	m, err := parseSMILES(input.SMILES, 0)
	if err != nil {
		return nil, err
	}

	frags, err := domain.GetMolFragments(m, cp)
	truncated := errors.Is(err, errors.ErrLimitExceeded)
	if err != nil && !truncated {
		return nil, err
	}
	out := &FragmentsResult{Fragments: make([]FragmentView, 0, len(frags)), Truncated: truncated}
	for _, f := range frags {
		out.Fragments = append(out.Fragments, FragmentView{
			ParentKey: f.ParentKey.String(),
			Fragment:  domain.KeyOf(f.Mol).String(),
		})
	}
	prometheus.RecordFragments(s.metrics, len(frags))
	return out, nil
}

func (s *serviceImpl) SearchScaffold(ctx context.Context, input *SearchInput) (*SearchResult, error) {
	if input == nil || input.SMILES == "" {
		return nil, errors.InvalidParam("smiles is required")
	}
	if s.index == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "scaffold index is not configured")
	}
	// Scaffold keys may carry attachment points and generic atoms that do not
	// survive valence checks, so they are matched as written.
	m, err := molgraph.ParseSMILESWithOptions(input.SMILES, molgraph.SmilesOptions{SkipSanitize: true})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMoleculeInvalidSMILES, "failed to parse smiles")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	key := domain.KeyOf(m)
	hits, err := s.index.SearchByKey(ctx, key, limit)
	if err != nil {
		return nil, err
	}
	res := &SearchResult{Key: key, Hits: hits}
	if input.WithChildren && s.graph != nil {
		children, err := s.graph.Children(ctx, key)
		if err != nil {
			s.logger.Warn("graph lookup failed", logging.String("key", key.String()), logging.Err(err))
		} else {
			res.Children = children
		}
	}
	return res, nil
}

//Personal.AI order the ending
