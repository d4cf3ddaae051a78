package scaffold

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/molgraph"
)

// ─────────────────────────────────────────────────────────────────────────────
// Domain Events
// ─────────────────────────────────────────────────────────────────────────────

// DomainEvent is a marker interface for scaffold events.
type DomainEvent interface {
	EventType() string
}

// NetworkBuiltEvent is published after a network record has been persisted.
type NetworkBuiltEvent struct {
	NetworkID string `json:"network_id"`
	NumNodes  int    `json:"num_nodes"`
	NumEdges  int    `json:"num_edges"`
	Inputs    int    `json:"inputs"`
}

func (e NetworkBuiltEvent) EventType() string { return "scaffold.network.built" }

// ─────────────────────────────────────────────────────────────────────────────
// NetworkRecord aggregate
// ─────────────────────────────────────────────────────────────────────────────

// NetworkRecord is a built network together with the inputs and settings
// that produced it.
type NetworkRecord struct {
	ID          string    `json:"id"`
	Inputs      []string  `json:"inputs"`
	Params      Params    `json:"params"`
	Network     *Network  `json:"network"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewNetworkRecord wraps net in a record with a fresh ID.
func NewNetworkRecord(inputs []string, params Params, net *Network) (*NetworkRecord, error) {
	if net == nil {
		return nil, errors.InvalidParam("network must not be nil")
	}
	if len(inputs) == 0 {
		return nil, errors.InvalidParam("at least one input molecule is required")
	}
	return &NetworkRecord{
		ID:          uuid.New().String(),
		Inputs:      append([]string(nil), inputs...),
		Params:      params,
		Network:     net,
		Fingerprint: Fingerprint(inputs, params),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Event returns the NetworkBuiltEvent describing r.
func (r *NetworkRecord) Event() NetworkBuiltEvent {
	return NetworkBuiltEvent{
		NetworkID: r.ID,
		NumNodes:  len(r.Network.Nodes),
		NumEdges:  len(r.Network.Edges),
		Inputs:    len(r.Inputs),
	}
}

// Fingerprint derives a stable request identity from the inputs and the
// settings.  Input order matters because node order depends on it.
func Fingerprint(inputs []string, params Params) string {
	if len(params.BondBreakers) == 0 {
		params.BondBreakers = []string{DefaultBondBreaker}
	}
	payload, _ := json.Marshal(struct {
		Inputs []string `json:"inputs"`
		Params Params   `json:"params"`
	}{inputs, params})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// ─────────────────────────────────────────────────────────────────────────────
// Scaffold nodes
// ─────────────────────────────────────────────────────────────────────────────

// ScaffoldNode is the searchable projection of a single network node.
type ScaffoldNode struct {
	NetworkID string       `json:"network_id"`
	Index     int          `json:"index"`
	Key       CanonicalKey `json:"key"`
	Count     int          `json:"count"`
	NumAtoms  int          `json:"num_atoms"`
	Generic   bool         `json:"generic"`
}

// Scaffolds lists the nodes of r with atom statistics read back from their
// keys.
func (r *NetworkRecord) Scaffolds() []ScaffoldNode {
	out := make([]ScaffoldNode, 0, len(r.Network.Nodes))
	for i, key := range r.Network.Nodes {
		node := ScaffoldNode{NetworkID: r.ID, Index: i, Key: key}
		if i < len(r.Network.Counts) {
			node.Count = r.Network.Counts[i]
		}
		if m, err := molgraph.ParseSMILESWithOptions(string(key), molgraph.SmilesOptions{SkipSanitize: true}); err == nil {
			node.NumAtoms = m.NumAtoms()
			node.Generic = m.NumAtoms() > 0
			for _, a := range m.Atoms() {
				if !a.IsDummy() {
					node.Generic = false
					break
				}
			}
		}
		out = append(out, node)
	}
	return out
}

//Personal.AI order the ending
