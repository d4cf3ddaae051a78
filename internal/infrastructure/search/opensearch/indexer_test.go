package opensearch

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ScaffoldNet/internal/config"
	"github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	pkgerrors "github.com/turtacn/ScaffoldNet/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := newClient(config.OpenSearchConfig{Addresses: []string{srv.URL}}, nil)
	require.NoError(t, err)
	return c
}

func testRecord(t *testing.T) *scaffold.NetworkRecord {
	t.Helper()
	net := scaffold.NewNetwork()
	net.Nodes = []scaffold.CanonicalKey{"c1ccccc1CC1CCCCC1", "*C1CCCCC1", "*c1ccccc1"}
	net.Counts = []int{1, 1, 1}
	rec, err := scaffold.NewNetworkRecord([]string{"c1ccccc1CC1CCCCC1"}, scaffold.DefaultParams(), net)
	require.NoError(t, err)
	return rec
}

func TestNewClient_Validation(t *testing.T) {
	_, err := newClient(config.OpenSearchConfig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":{"number":"2.11.0","distribution":"opensearch"}}`))
	})
	require.NoError(t, c.Ping(context.Background()))
	assert.True(t, c.IsHealthy())
}

func TestEnsureIndex_Creates(t *testing.T) {
	var created string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			created = string(body)
			_, _ = w.Write([]byte(`{"acknowledged":true,"shards_acknowledged":true,"index":"scaffolds"}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	idx := NewScaffoldIndexer(c, "scaffolds", nil)
	require.NoError(t, idx.EnsureIndex(context.Background()))
	assert.Contains(t, created, `"key":        {"type": "keyword"}`)
}

func TestEnsureIndex_Exists(t *testing.T) {
	var puts int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts++
		}
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, NewScaffoldIndexer(c, "scaffolds", nil).EnsureIndex(context.Background()))
	assert.Zero(t, puts)
}

func TestIndexNetwork(t *testing.T) {
	var mu sync.Mutex
	var batches [][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/_bulk"))
		var lines []string
		sc := bufio.NewScanner(r.Body)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		mu.Lock()
		batches = append(batches, lines)
		mu.Unlock()

		var items []string
		for i := 0; i < len(lines); i += 2 {
			items = append(items, `{"index":{"_index":"scaffolds","_id":"x","status":201}}`)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"took":1,"errors":false,"items":[` + strings.Join(items, ",") + `]}`))
	})

	rec := testRecord(t)
	idx := NewScaffoldIndexer(c, "scaffolds", nil, WithBatchSize(2), WithRefresh("true"))
	require.NoError(t, idx.IndexNetwork(context.Background(), rec))

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 4)
	assert.Len(t, batches[1], 2)

	var meta map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(batches[0][0]), &meta))
	assert.Equal(t, rec.ID+":0", meta["index"]["_id"])

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(batches[1][1]), &doc))
	assert.Equal(t, "*c1ccccc1", doc["key"])
	assert.Equal(t, rec.ID, doc["network_id"])
	assert.Equal(t, float64(7), doc["num_atoms"])
	assert.Equal(t, false, doc["generic"])
}

func TestIndexNetwork_ItemErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"took":1,"errors":true,"items":[
			{"index":{"_id":"a","status":201}},
			{"index":{"_id":"b","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad"}}},
			{"index":{"_id":"c","status":201}}]}`))
	})
	err := NewScaffoldIndexer(c, "scaffolds", nil).IndexNetwork(context.Background(), testRecord(t))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeExternalService))

	err = NewScaffoldIndexer(c, "scaffolds", nil).IndexNetwork(context.Background(), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidParam))
}

func TestSearchByKey(t *testing.T) {
	var query map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/scaffolds/_search"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&query))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"took":2,"timed_out":false,"hits":{"total":{"value":2,"relation":"eq"},"hits":[
			{"_index":"scaffolds","_id":"n2:1","_score":null,"_source":{"network_id":"n2","index":1,"key":"*C1CCCCC1","count":2,"num_atoms":7,"generic":false,"created_at":"2024-01-02T00:00:00Z"}},
			{"_index":"scaffolds","_id":"n1:3","_score":null,"_source":{"network_id":"n1","index":3,"key":"*C1CCCCC1","count":1,"num_atoms":7,"generic":false,"created_at":"2024-01-01T00:00:00Z"}}]}}`))
	})

	nodes, err := NewScaffoldIndexer(c, "scaffolds", nil).SearchByKey(context.Background(), "*C1CCCCC1", 5)
	require.NoError(t, err)
	assert.Equal(t, []scaffold.ScaffoldNode{
		{NetworkID: "n2", Index: 1, Key: "*C1CCCCC1", Count: 2, NumAtoms: 7},
		{NetworkID: "n1", Index: 3, Key: "*C1CCCCC1", Count: 1, NumAtoms: 7},
	}, nodes)

	assert.Equal(t, float64(5), query["size"])
	term := query["query"].(map[string]any)["term"].(map[string]any)
	assert.Equal(t, "*C1CCCCC1", term["key"])

	_, err = NewScaffoldIndexer(c, "scaffolds", nil).SearchByKey(context.Background(), "", 5)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidParam))
}

//Personal.AI order the ending
