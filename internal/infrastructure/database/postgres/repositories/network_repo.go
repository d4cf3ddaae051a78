package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/database/postgres"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

const networkColumns = "id, fingerprint, inputs, params, network, created_at"

// NetworkRepository stores network records in scaffold_networks and their
// nodes in scaffold_nodes.  It implements scaffold.Repository and, through
// the node table, scaffold.ScaffoldIndex.
type NetworkRepository struct {
	conn    *postgres.Connection
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

func NewNetworkRepository(conn *postgres.Connection, log logging.Logger, metrics *prometheus.AppMetrics) *NetworkRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &NetworkRepository{conn: conn, logger: log.Named("network_repo"), metrics: metrics}
}

func (r *NetworkRepository) observe(op string, start time.Time, err error) {
	prometheus.RecordDBQuery(r.metrics, "postgres", op, time.Since(start), err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Save
// ─────────────────────────────────────────────────────────────────────────────

func (r *NetworkRepository) Save(ctx context.Context, rec *scaffold.NetworkRecord) (err error) {
	start := time.Now()
	defer func() { r.observe("save", start, err) }()

	if rec == nil || rec.Network == nil {
		return errors.InvalidParam("record must carry a network")
	}
	inputs, err := json.Marshal(rec.Inputs)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode inputs")
	}
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode params")
	}
	network, err := json.Marshal(rec.Network)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode network")
	}

	err = withTx(ctx, r.conn.DB(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO scaffold_networks (id, fingerprint, inputs, params, network, num_nodes, num_edges, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.ID, rec.Fingerprint, inputs, params, network,
			len(rec.Network.Nodes), len(rec.Network.Edges), rec.CreatedAt,
		)
		if err != nil {
			return err
		}
		return insertNodes(ctx, tx, rec.Scaffolds())
	})
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("network record already exists").WithDetail(rec.ID)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save network record")
	}

	r.logger.Debug("network record saved",
		logging.String("id", rec.ID),
		logging.Int("nodes", len(rec.Network.Nodes)),
		logging.Int("edges", len(rec.Network.Edges)),
	)
	return nil
}

func insertNodes(ctx context.Context, q queryExecutor, nodes []scaffold.ScaffoldNode) error {
	if len(nodes) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO scaffold_nodes (network_id, idx, key, count, num_atoms, generic) VALUES ")
	args := make([]interface{}, 0, len(nodes)*6)
	for i, n := range nodes {
		if i > 0 {
			sb.WriteString(", ")
		}
		b := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)", b+1, b+2, b+3, b+4, b+5, b+6)
		args = append(args, n.NetworkID, n.Index, string(n.Key), n.Count, n.NumAtoms, n.Generic)
	}
	_, err := q.ExecContext(ctx, sb.String(), args...)
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

func (r *NetworkRepository) FindByID(ctx context.Context, id string) (rec *scaffold.NetworkRecord, err error) {
	start := time.Now()
	defer func() { r.observe("find_by_id", start, err) }()

	if _, perr := uuid.Parse(id); perr != nil {
		return nil, errors.InvalidParam("network id must be a UUID").WithDetail(id)
	}
	row := r.conn.DB().QueryRowContext(ctx,
		"SELECT "+networkColumns+" FROM scaffold_networks WHERE id = $1", id)
	rec, err = scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeNetworkNotFound, "network not found").WithDetail(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load network record")
	}
	return rec, nil
}

func (r *NetworkRepository) FindByFingerprint(ctx context.Context, fingerprint string) (rec *scaffold.NetworkRecord, err error) {
	start := time.Now()
	defer func() { r.observe("find_by_fingerprint", start, err) }()

	row := r.conn.DB().QueryRowContext(ctx,
		"SELECT "+networkColumns+" FROM scaffold_networks WHERE fingerprint = $1 ORDER BY created_at DESC LIMIT 1",
		fingerprint)
	rec, err = scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeNetworkNotFound, "no network for fingerprint").WithDetail(fingerprint)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load network record")
	}
	return rec, nil
}

func (r *NetworkRepository) List(ctx context.Context, limit, offset int) (out []*scaffold.NetworkRecord, err error) {
	start := time.Now()
	defer func() { r.observe("list", start, err) }()

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.conn.DB().QueryContext(ctx,
		"SELECT "+networkColumns+" FROM scaffold_networks ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list network records")
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan network record")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate network records")
	}
	return out, nil
}

func (r *NetworkRepository) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { r.observe("delete", start, err) }()

	res, err := r.conn.DB().ExecContext(ctx, "DELETE FROM scaffold_networks WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete network record")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete network record")
	}
	if n == 0 {
		return errors.New(errors.ErrCodeNetworkNotFound, "network not found").WithDetail(id)
	}
	return nil
}

func (r *NetworkRepository) Count(ctx context.Context) (n int64, err error) {
	start := time.Now()
	defer func() { r.observe("count", start, err) }()

	if err = r.conn.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM scaffold_networks").Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count network records")
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ScaffoldIndex over scaffold_nodes
// ─────────────────────────────────────────────────────────────────────────────

// IndexNetwork is a no-op: Save already writes the node rows.
func (r *NetworkRepository) IndexNetwork(context.Context, *scaffold.NetworkRecord) error { return nil }

func (r *NetworkRepository) SearchByKey(ctx context.Context, key scaffold.CanonicalKey, limit int) (out []scaffold.ScaffoldNode, err error) {
	start := time.Now()
	defer func() { r.observe("search_by_key", start, err) }()

	if limit <= 0 {
		limit = 20
	}
	rows, err := r.conn.DB().QueryContext(ctx, `
		SELECT n.network_id, n.idx, n.key, n.count, n.num_atoms, n.generic
		FROM scaffold_nodes n
		JOIN scaffold_networks w ON w.id = n.network_id
		WHERE n.key = $1
		ORDER BY w.created_at DESC
		LIMIT $2`, string(key), limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to search scaffold nodes")
	}
	defer rows.Close()

	for rows.Next() {
		var n scaffold.ScaffoldNode
		var k string
		if err := rows.Scan(&n.NetworkID, &n.Index, &k, &n.Count, &n.NumAtoms, &n.Generic); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan scaffold node")
		}
		n.Key = scaffold.CanonicalKey(k)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate scaffold nodes")
	}
	return out, nil
}

func scanRecord(s scanner) (*scaffold.NetworkRecord, error) {
	var (
		rec                     scaffold.NetworkRecord
		inputs, params, network []byte
	)
	if err := s.Scan(&rec.ID, &rec.Fingerprint, &inputs, &params, &network, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(inputs, &rec.Inputs); err != nil {
		return nil, fmt.Errorf("decode inputs: %w", err)
	}
	if err := json.Unmarshal(params, &rec.Params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	rec.Network = scaffold.NewNetwork()
	if err := json.Unmarshal(network, rec.Network); err != nil {
		return nil, fmt.Errorf("decode network: %w", err)
	}
	return &rec, nil
}

var (
	_ scaffold.Repository    = (*NetworkRepository)(nil)
	_ scaffold.ScaffoldIndex = (*NetworkRepository)(nil)
)

//Personal.AI order the ending
