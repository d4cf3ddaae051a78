package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

var (
	ErrIndexCreationFailed = errors.New(errors.ErrCodeExternalService, "index creation failed")
	ErrBulkFailed          = errors.New(errors.ErrCodeExternalService, "bulk indexing failed")
)

// scaffoldMapping keeps keys as exact keywords; SMILES must never be
// tokenized.
const scaffoldMapping = `{
  "settings": {"number_of_shards": 1, "number_of_replicas": 0},
  "mappings": {
    "properties": {
      "network_id": {"type": "keyword"},
      "index":      {"type": "integer"},
      "key":        {"type": "keyword"},
      "count":      {"type": "integer"},
      "num_atoms":  {"type": "integer"},
      "generic":    {"type": "boolean"},
      "created_at": {"type": "date"}
    }
  }
}`

// scaffoldDoc is the indexed form of a network node.
type scaffoldDoc struct {
	scaffold.ScaffoldNode
	CreatedAt time.Time `json:"created_at"`
}

// BulkResult summarises a bulk request.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    []BulkItemError
}

// BulkItemError describes one rejected document.
type BulkItemError struct {
	DocID     string
	ErrorType string
	Reason    string
}

// ScaffoldIndexer indexes scaffold nodes and searches them by key.
type ScaffoldIndexer struct {
	client    *Client
	index     string
	batchSize int
	refresh   string
	logger    logging.Logger
}

// IndexerOption customises a ScaffoldIndexer.
type IndexerOption func(*ScaffoldIndexer)

// WithBatchSize caps the number of documents per bulk request.
func WithBatchSize(n int) IndexerOption {
	return func(i *ScaffoldIndexer) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// WithRefresh sets the bulk refresh policy ("true", "false", "wait_for").
func WithRefresh(policy string) IndexerOption {
	return func(i *ScaffoldIndexer) { i.refresh = policy }
}

// NewScaffoldIndexer returns an indexer writing to index.
func NewScaffoldIndexer(client *Client, index string, logger logging.Logger, opts ...IndexerOption) *ScaffoldIndexer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	i := &ScaffoldIndexer{
		client:    client,
		index:     index,
		batchSize: 500,
		refresh:   "false",
		logger:    logger,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// EnsureIndex creates the index with its mapping when missing.
func (i *ScaffoldIndexer) EnsureIndex(ctx context.Context) error {
	resp, err := i.client.api.Indices.Exists(ctx, opensearchapi.IndicesExistsReq{Indices: []string{i.index}})
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if resp != nil && resp.StatusCode == 200 {
		return nil
	}
	if resp == nil || resp.StatusCode != 404 {
		if err == nil {
			err = errors.Newf(errors.ErrCodeExternalService, "unexpected status %d", resp.StatusCode)
		}
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to check index existence")
	}

	if _, err := i.client.api.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: i.index,
		Body:  strings.NewReader(scaffoldMapping),
	}); err != nil {
		return ErrIndexCreationFailed.WithCause(err).WithDetail(i.index)
	}
	i.logger.Info("index created", logging.String("index", i.index))
	return nil
}

// IndexNetwork implements scaffold.ScaffoldIndex.  Documents are keyed by
// network id and node index, so re-indexing a network is idempotent.
func (i *ScaffoldIndexer) IndexNetwork(ctx context.Context, rec *scaffold.NetworkRecord) error {
	if rec == nil || rec.Network == nil {
		return errors.InvalidParam("network record must not be nil")
	}
	nodes := rec.Scaffolds()
	docs := make([]scaffoldDoc, len(nodes))
	for n, node := range nodes {
		docs[n] = scaffoldDoc{ScaffoldNode: node, CreatedAt: rec.CreatedAt}
	}

	res, err := i.bulkIndex(ctx, docs)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		first := res.Errors[0]
		return ErrBulkFailed.WithDetail(strconv.Itoa(res.Failed) + " documents rejected, first: " + first.ErrorType + ": " + first.Reason)
	}
	i.logger.Debug("indexed scaffold nodes",
		logging.String("network_id", rec.ID),
		logging.Int("documents", res.Succeeded))
	return nil
}

func docID(n scaffold.ScaffoldNode) string {
	return n.NetworkID + ":" + strconv.Itoa(n.Index)
}

func (i *ScaffoldIndexer) bulkIndex(ctx context.Context, docs []scaffoldDoc) (*BulkResult, error) {
	result := &BulkResult{}
	for start := 0; start < len(docs); start += i.batchSize {
		end := start + i.batchSize
		if end > len(docs) {
			end = len(docs)
		}

		var buf bytes.Buffer
		for _, d := range docs[start:end] {
			meta, _ := json.Marshal(map[string]any{"index": map[string]string{"_index": i.index, "_id": docID(d.ScaffoldNode)}})
			src, err := json.Marshal(d)
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, BulkItemError{DocID: docID(d.ScaffoldNode), ErrorType: "serialization_error", Reason: err.Error()})
				continue
			}
			buf.Write(meta)
			buf.WriteByte('\n')
			buf.Write(src)
			buf.WriteByte('\n')
		}
		if buf.Len() == 0 {
			continue
		}

		resp, err := i.client.api.Bulk(ctx, opensearchapi.BulkReq{
			Body:   &buf,
			Params: opensearchapi.BulkParams{Refresh: i.refresh},
		})
		if err != nil {
			return result, errors.Wrap(err, errors.ErrCodeExternalService, "bulk request failed")
		}
		for _, item := range resp.Items {
			for _, v := range item {
				if v.Status >= 200 && v.Status < 300 {
					result.Succeeded++
					continue
				}
				result.Failed++
				e := BulkItemError{DocID: v.ID}
				if v.Error != nil {
					e.ErrorType, e.Reason = v.Error.Type, v.Error.Reason
				}
				result.Errors = append(result.Errors, e)
			}
		}
	}
	return result, nil
}

// SearchByKey implements scaffold.ScaffoldIndex.
func (i *ScaffoldIndexer) SearchByKey(ctx context.Context, key scaffold.CanonicalKey, limit int) ([]scaffold.ScaffoldNode, error) {
	if key == "" {
		return nil, errors.InvalidParam("scaffold key must not be empty")
	}
	if limit <= 0 {
		limit = 20
	}
	query := map[string]any{
		"size":  limit,
		"query": map[string]any{"term": map[string]any{"key": string(key)}},
		"sort":  []any{map[string]any{"created_at": map[string]string{"order": "desc"}}},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode query")
	}

	resp, err := i.client.api.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{i.index},
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "scaffold search failed")
	}

	out := make([]scaffold.ScaffoldNode, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var d scaffoldDoc
		if err := json.Unmarshal(hit.Source, &d); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search hit")
		}
		out = append(out, d.ScaffoldNode)
	}
	return out, nil
}

var _ scaffold.ScaffoldIndex = (*ScaffoldIndexer)(nil)

//Personal.AI order the ending
