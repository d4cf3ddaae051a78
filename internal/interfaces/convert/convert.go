// Package convert maps between the domain model and the wire types in
// pkg/types/scaffold.  The HTTP handlers, the gRPC service and the worker
// share it.
package convert

import (
	appabbr "github.com/turtacn/ScaffoldNet/internal/application/abbreviation"
	appscaffold "github.com/turtacn/ScaffoldNet/internal/application/scaffold"
	domainabbr "github.com/turtacn/ScaffoldNet/internal/domain/abbreviation"
	domain "github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	dto "github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

// ParamsFromDTO returns nil for nil so that the service falls back to its
// configured defaults.
func ParamsFromDTO(p *dto.NetworkParams) *domain.Params {
	if p == nil {
		return nil
	}
	return &domain.Params{
		BondBreakers:                       append([]string(nil), p.BondBreakers...),
		IncludeGenericScaffolds:            p.IncludeGenericScaffolds,
		IncludeGenericBondScaffolds:        p.IncludeGenericBondScaffolds,
		KeepOnlyFirstFragment:              p.KeepOnlyFirstFragment,
		IncludeScaffoldsWithoutAttachments: p.IncludeScaffoldsWithoutAttachments,
		ExcludeScaffoldsWithAttachments:    p.ExcludeScaffoldsWithAttachments,
		MaxNodes:                           p.MaxNodes,
		MaxQueue:                           p.MaxQueue,
	}
}

func ParamsToDTO(p domain.Params) dto.NetworkParams {
	return dto.NetworkParams{
		BondBreakers:                       append([]string(nil), p.BondBreakers...),
		IncludeGenericScaffolds:            p.IncludeGenericScaffolds,
		IncludeGenericBondScaffolds:        p.IncludeGenericBondScaffolds,
		KeepOnlyFirstFragment:              p.KeepOnlyFirstFragment,
		IncludeScaffoldsWithoutAttachments: p.IncludeScaffoldsWithoutAttachments,
		ExcludeScaffoldsWithAttachments:    p.ExcludeScaffoldsWithAttachments,
		MaxNodes:                           p.MaxNodes,
		MaxQueue:                           p.MaxQueue,
	}
}

func NetworkToDTO(n *domain.Network) dto.Network {
	out := dto.Network{Nodes: []string{}, Counts: []int{}, Edges: []dto.Edge{}}
	if n == nil {
		return out
	}
	for _, k := range n.Nodes {
		out.Nodes = append(out.Nodes, string(k))
	}
	out.Counts = append(out.Counts, n.Counts...)
	for _, e := range n.Edges {
		out.Edges = append(out.Edges, dto.Edge{Begin: e.BeginIdx, End: e.EndIdx, Type: e.Type.String()})
	}
	return out
}

// NetworkFromDTO rejects unknown edge types and edges that point outside
// the node list.
func NetworkFromDTO(n dto.Network) (*domain.Network, error) {
	if len(n.Counts) != len(n.Nodes) {
		return nil, errors.InvalidParam("nodes and counts differ in length")
	}
	out := &domain.Network{
		Nodes:  make([]domain.CanonicalKey, 0, len(n.Nodes)),
		Counts: append([]int(nil), n.Counts...),
		Edges:  make([]domain.Edge, 0, len(n.Edges)),
	}
	for _, k := range n.Nodes {
		out.Nodes = append(out.Nodes, domain.CanonicalKey(k))
	}
	for i, e := range n.Edges {
		t, ok := domain.ParseEdgeType(e.Type)
		if !ok {
			return nil, errors.InvalidParam("unknown edge type").WithDetail(e.Type)
		}
		if e.Begin < 0 || e.Begin >= len(n.Nodes) || e.End < 0 || e.End >= len(n.Nodes) {
			return nil, errors.Newf(errors.CodeInvalidParam, "edge %d references a missing node", i)
		}
		out.Edges = append(out.Edges, domain.Edge{BeginIdx: e.Begin, EndIdx: e.End, Type: t})
	}
	return out, nil
}

func RecordToDTO(r *domain.NetworkRecord) dto.NetworkRecord {
	if r == nil {
		return dto.NetworkRecord{}
	}
	return dto.NetworkRecord{
		ID:          r.ID,
		Inputs:      append([]string(nil), r.Inputs...),
		Params:      ParamsToDTO(r.Params),
		Network:     NetworkToDTO(r.Network),
		Fingerprint: r.Fingerprint,
		CreatedAt:   r.CreatedAt,
	}
}

func RecordsToDTO(rs []*domain.NetworkRecord) []dto.NetworkRecord {
	out := make([]dto.NetworkRecord, 0, len(rs))
	for _, r := range rs {
		out = append(out, RecordToDTO(r))
	}
	return out
}

func BuildResultToDTO(res *appscaffold.BuildNetworkResult) dto.BuildNetworkResponse {
	return dto.BuildNetworkResponse{
		Network:    RecordToDTO(res.Record),
		Source:     res.Source,
		Artifact:   res.Artifact,
		DurationMS: res.Duration.Milliseconds(),
	}
}

func FragmentsToDTO(res *appscaffold.FragmentsResult) dto.FragmentsResponse {
	out := dto.FragmentsResponse{Fragments: make([]dto.Fragment, 0, len(res.Fragments)), Truncated: res.Truncated}
	for _, f := range res.Fragments {
		out.Fragments = append(out.Fragments, dto.Fragment{Parent: f.ParentKey, Fragment: f.Fragment})
	}
	return out
}

func SearchToDTO(res *appscaffold.SearchResult) dto.SearchResponse {
	out := dto.SearchResponse{Key: string(res.Key), Hits: make([]dto.ScaffoldHit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		out.Hits = append(out.Hits, dto.ScaffoldHit{
			NetworkID: h.NetworkID,
			Index:     h.Index,
			Key:       string(h.Key),
			Count:     h.Count,
			NumAtoms:  h.NumAtoms,
			Generic:   h.Generic,
		})
	}
	for _, c := range res.Children {
		out.Children = append(out.Children, string(c))
	}
	return out
}

func CondenseInputFromDTO(req *dto.CondenseRequest) *appabbr.CondenseInput {
	return &appabbr.CondenseInput{
		SMILES:      req.SMILES,
		Labels:      req.Labels,
		SMARTS:      req.SMARTS,
		Label:       req.Label,
		MaxCoverage: req.MaxCoverage,
	}
}

func CondenseToDTO(res *appabbr.CondenseResult) dto.CondenseResponse {
	applied := res.Applied
	if applied == nil {
		applied = map[string]int{}
	}
	return dto.CondenseResponse{
		SMILES:   res.SMILES,
		CXSMILES: res.CXSMILES,
		Mode:     res.Mode,
		Applied:  applied,
		Accepted: res.Accepted,
		Skipped:  res.Skipped,
		Gated:    res.Gated,
	}
}

func AbbreviationsToDTO(ps []*domainabbr.Pattern) []dto.Abbreviation {
	out := make([]dto.Abbreviation, 0, len(ps))
	for _, p := range ps {
		out = append(out, dto.Abbreviation{
			Label:         p.Label,
			RightLabel:    p.RightLabel,
			SMILES:        p.SMILES,
			Color:         p.Color,
			NonDummyAtoms: p.NonDummyAtoms,
		})
	}
	return out
}

//Personal.AI order the ending
