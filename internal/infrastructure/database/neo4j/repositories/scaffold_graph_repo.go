package repositories

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	driver "github.com/turtacn/ScaffoldNet/internal/infrastructure/database/neo4j"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

// relationshipTypes maps edge types to relationship labels.  Cypher cannot
// parameterise relationship types, so every edge type gets its own statement.
var relationshipTypes = map[scaffold.EdgeType]string{
	scaffold.FragmentEdge:         "FRAGMENT",
	scaffold.GenericEdge:          "GENERIC",
	scaffold.GenericBondEdge:      "GENERIC_BOND",
	scaffold.RemoveAttachmentEdge: "REMOVE_ATTACHMENT",
}

var edgeOrder = []scaffold.EdgeType{
	scaffold.FragmentEdge,
	scaffold.GenericEdge,
	scaffold.GenericBondEdge,
	scaffold.RemoveAttachmentEdge,
}

const (
	cypherMergeNetwork = `
		MERGE (w:Network {id: $id})
		SET w.fingerprint = $fingerprint, w.created_at = $created_at,
		    w.num_nodes = $num_nodes, w.num_edges = $num_edges`

	cypherMergeScaffolds = `
		MATCH (w:Network {id: $id})
		UNWIND $nodes AS n
		MERGE (s:Scaffold {key: n.key})
		ON CREATE SET s.num_atoms = n.num_atoms, s.generic = n.generic
		MERGE (s)-[m:MEMBER_OF]->(w)
		SET m.index = n.index, m.count = n.count`

	cypherMergeEdges = `
		UNWIND $edges AS e
		MATCH (a:Scaffold {key: e.begin}), (b:Scaffold {key: e.end})
		MERGE (a)-[r:%s]->(b)
		ON CREATE SET r.networks = [$id]
		ON MATCH SET r.networks = CASE WHEN $id IN r.networks THEN r.networks ELSE r.networks + $id END`

	cypherChildren = `
		MATCH (:Scaffold {key: $key})-[:FRAGMENT|GENERIC|GENERIC_BOND|REMOVE_ATTACHMENT]->(c:Scaffold)
		RETURN DISTINCT c.key AS key
		ORDER BY key`

	cypherConstraint = `CREATE CONSTRAINT scaffold_key IF NOT EXISTS FOR (s:Scaffold) REQUIRE s.key IS UNIQUE`
)

// ScaffoldGraphRepository projects scaffold networks into Neo4j.  Scaffold
// nodes are merged by canonical key, so networks sharing a scaffold share
// its graph node.
type ScaffoldGraphRepository struct {
	driver driver.DriverInterface
	log    logging.Logger
}

// NewScaffoldGraphRepository returns a repository over d.
func NewScaffoldGraphRepository(d driver.DriverInterface, log logging.Logger) *ScaffoldGraphRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ScaffoldGraphRepository{driver: d, log: log}
}

// EnsureConstraints creates the uniqueness constraint on scaffold keys.
func (r *ScaffoldGraphRepository) EnsureConstraints(ctx context.Context) error {
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		res, err := tx.Run(ctx, cypherConstraint, nil)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

// ProjectNetwork merges every node and edge of rec in a single transaction.
func (r *ScaffoldGraphRepository) ProjectNetwork(ctx context.Context, rec *scaffold.NetworkRecord) error {
	if rec == nil || rec.Network == nil {
		return errors.InvalidParam("network record must not be nil")
	}

	nodes := make([]map[string]any, 0, len(rec.Network.Nodes))
	for _, n := range rec.Scaffolds() {
		nodes = append(nodes, map[string]any{
			"key":       string(n.Key),
			"index":     int64(n.Index),
			"count":     int64(n.Count),
			"num_atoms": int64(n.NumAtoms),
			"generic":   n.Generic,
		})
	}
	edges := groupEdges(rec.Network)

	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		if _, err := tx.Run(ctx, cypherMergeNetwork, map[string]any{
			"id":          rec.ID,
			"fingerprint": rec.Fingerprint,
			"created_at":  rec.CreatedAt,
			"num_nodes":   int64(len(rec.Network.Nodes)),
			"num_edges":   int64(len(rec.Network.Edges)),
		}); err != nil {
			return nil, err
		}
		if len(nodes) > 0 {
			if _, err := tx.Run(ctx, cypherMergeScaffolds, map[string]any{"id": rec.ID, "nodes": nodes}); err != nil {
				return nil, err
			}
		}
		for _, t := range edgeOrder {
			batch := edges[t]
			if len(batch) == 0 {
				continue
			}
			cypher := fmt.Sprintf(cypherMergeEdges, relationshipTypes[t])
			if _, err := tx.Run(ctx, cypher, map[string]any{"id": rec.ID, "edges": batch}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	r.log.Debug("projected scaffold network",
		logging.String("network_id", rec.ID),
		logging.Int("nodes", len(nodes)),
		logging.Int("edges", len(rec.Network.Edges)))
	return nil
}

// Children returns the keys directly derived from key.
func (r *ScaffoldGraphRepository) Children(ctx context.Context, key scaffold.CanonicalKey) ([]scaffold.CanonicalKey, error) {
	if key == "" {
		return nil, errors.InvalidParam("scaffold key must not be empty")
	}
	out, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		res, err := tx.Run(ctx, cypherChildren, map[string]any{"key": string(key)})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, res, func(rec *neo4j.Record) (scaffold.CanonicalKey, error) {
			v, ok := rec.Get("key")
			if !ok {
				return "", errors.New(errors.ErrCodeSerialization, "record has no key column")
			}
			s, ok := v.(string)
			if !ok {
				return "", errors.Newf(errors.ErrCodeSerialization, "unexpected key type %T", v)
			}
			return scaffold.CanonicalKey(s), nil
		})
	})
	if err != nil {
		return nil, err
	}
	keys, _ := out.([]scaffold.CanonicalKey)
	return keys, nil
}

// groupEdges converts edges to key pairs grouped by type.  Repeated edges
// collapse because relationships are merged.
func groupEdges(net *scaffold.Network) map[scaffold.EdgeType][]map[string]any {
	out := make(map[scaffold.EdgeType][]map[string]any)
	seen := make(map[scaffold.Edge]struct{}, len(net.Edges))
	for _, e := range net.Edges {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		if e.BeginIdx < 0 || e.BeginIdx >= len(net.Nodes) || e.EndIdx < 0 || e.EndIdx >= len(net.Nodes) {
			continue
		}
		out[e.Type] = append(out[e.Type], map[string]any{
			"begin": string(net.Nodes[e.BeginIdx]),
			"end":   string(net.Nodes[e.EndIdx]),
		})
	}
	return out
}

var _ scaffold.GraphProjector = (*ScaffoldGraphRepository)(nil)

//Personal.AI order the ending
