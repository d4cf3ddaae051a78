// Package scaffold defines the request and response bodies of the scaffold
// network API and the payloads of its asynchronous build events.
package scaffold

import (
	"time"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/types/common"
)

// Edge type names as they appear on the wire.
const (
	EdgeFragment         = "Fragment"
	EdgeGeneric          = "Generic"
	EdgeGenericBond      = "GenericBond"
	EdgeRemoveAttachment = "RemoveAttachment"
)

// NetworkParams configures fragment generation and network building.  A
// request that carries params replaces the server defaults as a whole.
type NetworkParams struct {
	BondBreakers                       []string `json:"bond_breakers,omitempty"`
	IncludeGenericScaffolds            bool     `json:"include_generic_scaffolds"`
	IncludeGenericBondScaffolds        bool     `json:"include_generic_bond_scaffolds"`
	KeepOnlyFirstFragment              bool     `json:"keep_only_first_fragment"`
	IncludeScaffoldsWithoutAttachments bool     `json:"include_scaffolds_without_attachments"`
	ExcludeScaffoldsWithAttachments    bool     `json:"exclude_scaffolds_with_attachments,omitempty"`
	MaxNodes                           int      `json:"max_nodes,omitempty"`
	MaxQueue                           int      `json:"max_queue,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Networks
// ─────────────────────────────────────────────────────────────────────────────

type BuildNetworkRequest struct {
	SMILES []string       `json:"smiles"`
	Params *NetworkParams `json:"params,omitempty"`
	// Reuse answers with a stored network built from identical inputs.
	Reuse bool `json:"reuse,omitempty"`
}

type Edge struct {
	Begin int    `json:"begin"`
	End   int    `json:"end"`
	Type  string `json:"type"`
}

type Network struct {
	Nodes  []string `json:"nodes"`
	Counts []int    `json:"counts"`
	Edges  []Edge   `json:"edges"`
}

type NetworkRecord struct {
	ID          string        `json:"id"`
	Inputs      []string      `json:"inputs"`
	Params      NetworkParams `json:"params"`
	Network     Network       `json:"network"`
	Fingerprint string        `json:"fingerprint"`
	CreatedAt   time.Time     `json:"created_at"`
}

type BuildNetworkResponse struct {
	Network    NetworkRecord `json:"network"`
	Source     string        `json:"source"`
	Artifact   string        `json:"artifact,omitempty"`
	DurationMS int64         `json:"duration_ms"`
}

// Validate rejects requests without molecules.
func (r *BuildNetworkRequest) Validate() error {
	if len(r.SMILES) == 0 {
		return errors.InvalidParam("at least one SMILES is required")
	}
	return nil
}

type GetNetworkRequest struct {
	ID string `json:"id"`
}

func (r *GetNetworkRequest) Validate() error {
	if r.ID == "" {
		return errors.InvalidParam("network id is required")
	}
	return nil
}

type ListNetworksRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ListNetworksResponse carries its page only over gRPC; the HTTP API
// reports paging in the response envelope.
type ListNetworksResponse struct {
	Networks []NetworkRecord `json:"networks"`
	Page     *common.Page    `json:"page,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Fragments and search
// ─────────────────────────────────────────────────────────────────────────────

type FragmentsRequest struct {
	SMILES string         `json:"smiles"`
	Params *NetworkParams `json:"params,omitempty"`
}

func (r *FragmentsRequest) Validate() error {
	if r.SMILES == "" {
		return errors.InvalidParam("smiles is required")
	}
	return nil
}

type Fragment struct {
	Parent   string `json:"parent"`
	Fragment string `json:"fragment"`
}

type FragmentsResponse struct {
	Fragments []Fragment `json:"fragments"`
	Truncated bool       `json:"truncated"`
}

type ScaffoldHit struct {
	NetworkID string `json:"network_id"`
	Index     int    `json:"index"`
	Key       string `json:"key"`
	Count     int    `json:"count"`
	NumAtoms  int    `json:"num_atoms"`
	Generic   bool   `json:"generic"`
}

type SearchRequest struct {
	SMILES   string `json:"smiles"`
	Limit    int    `json:"limit,omitempty"`
	Children bool   `json:"children,omitempty"`
}

func (r *SearchRequest) Validate() error {
	if r.SMILES == "" {
		return errors.InvalidParam("smiles is required")
	}
	return nil
}

type SearchResponse struct {
	Key      string        `json:"key"`
	Hits     []ScaffoldHit `json:"hits"`
	Children []string      `json:"children,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Abbreviations
// ─────────────────────────────────────────────────────────────────────────────

// CondenseRequest selects what to condense.  SMARTS wins over Labels, no
// SMARTS and no Labels applies the whole table, and a nil MaxCoverage uses
// the server default.
type CondenseRequest struct {
	SMILES      string   `json:"smiles"`
	Labels      []string `json:"labels,omitempty"`
	SMARTS      string   `json:"smarts,omitempty"`
	Label       string   `json:"label,omitempty"`
	MaxCoverage *float64 `json:"max_coverage,omitempty"`
}

func (r *CondenseRequest) Validate() error {
	if r.SMILES == "" {
		return errors.InvalidParam("smiles is required")
	}
	// values of 1 and above disable the coverage gate
	if r.MaxCoverage != nil && *r.MaxCoverage < 0 {
		return errors.InvalidParam("max_coverage must be >= 0")
	}
	return nil
}

type CondenseResponse struct {
	SMILES   string         `json:"smiles"`
	CXSMILES string         `json:"cxsmiles"`
	Mode     string         `json:"mode"`
	Applied  map[string]int `json:"applied"`
	Accepted int            `json:"accepted"`
	Skipped  int            `json:"skipped"`
	Gated    []string       `json:"gated,omitempty"`
}

type Abbreviation struct {
	Label         string `json:"label"`
	RightLabel    string `json:"right_label"`
	SMILES        string `json:"smiles"`
	Color         string `json:"color,omitempty"`
	NonDummyAtoms int    `json:"non_dummy_atoms"`
}

type ListAbbreviationsRequest struct{}

type AbbreviationsResponse struct {
	Abbreviations []Abbreviation `json:"abbreviations"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Events
// ─────────────────────────────────────────────────────────────────────────────

// NetworkRequestedEvent asks a worker to build a network.
type NetworkRequestedEvent struct {
	RequestID string         `json:"request_id"`
	SMILES    []string       `json:"smiles"`
	Params    *NetworkParams `json:"params,omitempty"`
	Reuse     bool           `json:"reuse,omitempty"`
}

// NetworkCompletedEvent reports the outcome of a requested build.  Error and
// ErrorCode are set when the build failed permanently.
type NetworkCompletedEvent struct {
	RequestID string `json:"request_id"`
	NetworkID string `json:"network_id,omitempty"`
	NumNodes  int    `json:"num_nodes"`
	NumEdges  int    `json:"num_edges"`
	Source    string `json:"source,omitempty"`
	Artifact  string `json:"artifact,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Failed reports whether the build failed.
func (e NetworkCompletedEvent) Failed() bool { return e.Error != "" }

//Personal.AI order the ending
