package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appabbr "github.com/turtacn/ScaffoldNet/internal/application/abbreviation"
	appscaffold "github.com/turtacn/ScaffoldNet/internal/application/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/config"
	httpapi "github.com/turtacn/ScaffoldNet/internal/interfaces/http"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/http/handlers"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/types/common"
	"github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

const lactam = "c1ccccc1CC1NC(=O)CCC1"

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	abbr, err := appabbr.NewService(appabbr.Deps{Config: cfg.Abbreviation})
	require.NoError(t, err)
	router := httpapi.NewRouter(httpapi.RouterConfig{
		NetworkHandler:      handlers.NewNetworkHandler(appscaffold.NewService(appscaffold.Deps{Config: cfg.Scaffold}), nil, 0),
		AbbreviationHandler: handlers.NewAbbreviationHandler(abbr, nil, 0),
		HealthHandler:       handlers.NewHealthHandler("test"),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRetryWait(time.Millisecond, 2*time.Millisecond)}, opts...)
	c, err := NewClient(url, opts...)
	require.NoError(t, err)
	return c
}

func writeEnvelope(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewClient_Validation(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "://bad"} {
		_, err := NewClient(u)
		assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration), u)
	}
	c, err := NewClient("http://localhost:8080/", WithUserAgent("ua"), WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
	assert.Equal(t, "ua", c.userAgent)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
	assert.Same(t, c.Networks(), c.Networks())
	assert.Same(t, c.Abbreviations(), c.Abbreviations())
}

func TestNetworks_BuildEndToEnd(t *testing.T) {
	c := newTestClient(t, newAPIServer(t).URL)

	res, err := c.Networks().Build(context.Background(), &scaffold.BuildNetworkRequest{SMILES: []string{lactam}})
	require.NoError(t, err)
	assert.Equal(t, appscaffold.SourceBuilt, res.Source)
	assert.Len(t, res.Network.Network.Nodes, 9)
	assert.Len(t, res.Network.Network.Edges, 8)
	assert.Equal(t, []string{lactam}, res.Network.Inputs)

	frags, err := c.Networks().Fragments(context.Background(), &scaffold.FragmentsRequest{SMILES: lactam})
	require.NoError(t, err)
	assert.NotEmpty(t, frags.Fragments)
}

func TestAbbreviations_EndToEnd(t *testing.T) {
	c := newTestClient(t, newAPIServer(t).URL)

	res, err := c.Abbreviations().Condense(context.Background(), &scaffold.CondenseRequest{
		SMILES: "c1ccccc1OC",
		Labels: []string{"OMe"},
	})
	require.NoError(t, err)
	assert.Equal(t, "*c1ccccc1 |$OMe;;;;;;$|", res.CXSMILES)
	assert.Equal(t, map[string]int{"OMe": 1}, res.Applied)

	list, err := c.Abbreviations().List(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, list.Abbreviations)
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	api := newAPIServer(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		api.Config.Handler.ServeHTTP(w, r)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Networks().Build(context.Background(), &scaffold.BuildNetworkRequest{SMILES: []string{"C1CC"}})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, string(errors.ErrCodeMoleculeInvalidSMILES), apiErr.Code)
	assert.Contains(t, apiErr.Detail, "input 0")
	assert.NotEmpty(t, apiErr.RequestID)
	assert.True(t, errors.IsCode(apiErr.AppError(), errors.ErrCodeMoleculeInvalidSMILES))
}

func TestClient_ServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-ID"))
		if calls.Add(1) < 3 {
			writeEnvelope(w, http.StatusServiceUnavailable, common.NewErrorResponse("COMMON_008", "service unavailable", ""))
			return
		}
		writeEnvelope(w, http.StatusOK, common.NewSuccessResponse(scaffold.NetworkRecord{ID: "net-1"}))
	}))
	defer srv.Close()

	rec, err := newTestClient(t, srv.URL).Networks().Get(context.Background(), "net-1")
	require.NoError(t, err)
	assert.Equal(t, "net-1", rec.ID)
	assert.EqualValues(t, 3, calls.Load())
	require.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[2])
}

func TestClient_RetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusServiceUnavailable, common.NewErrorResponse("COMMON_008", "service unavailable", ""))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, WithRetryMax(1)).Networks().Get(context.Background(), "x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.True(t, errors.IsCode(apiErr.AppError(), errors.ErrCodeServiceUnavailable))
}

func TestClient_FlatRateLimitBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code":"COMMON_007","message":"rate limit exceeded"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, WithRetryMax(0)).Abbreviations().List(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimited())
	assert.Equal(t, "COMMON_007", apiErr.Code)
	assert.Equal(t, time.Second, apiErr.retryAfter)
}

func TestNetworks_ListAndSearchQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/networks":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			assert.Equal(t, "10", r.URL.Query().Get("offset"))
			writeEnvelope(w, http.StatusOK, common.NewPagedResponse(
				scaffold.ListNetworksResponse{Networks: []scaffold.NetworkRecord{{ID: "a"}}},
				common.Page{Limit: 5, Offset: 10, Total: 11}))
		case "/api/v1/scaffolds/search":
			assert.Equal(t, "*c1ccccc1", r.URL.Query().Get("smiles"))
			assert.Equal(t, "true", r.URL.Query().Get("children"))
			writeEnvelope(w, http.StatusOK, common.NewSuccessResponse(scaffold.SearchResponse{Key: "*c1ccccc1"}))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	list, err := c.Networks().List(context.Background(), &scaffold.ListNetworksRequest{Limit: 5, Offset: 10})
	require.NoError(t, err)
	require.Len(t, list.Networks, 1)
	require.NotNil(t, list.Page)
	assert.EqualValues(t, 11, list.Page.Total)

	res, err := c.Networks().Search(context.Background(), &scaffold.SearchRequest{SMILES: "*c1ccccc1", Children: true})
	require.NoError(t, err)
	assert.Equal(t, "*c1ccccc1", res.Key)
}

func TestClient_ValidatesBeforeSending(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	ctx := context.Background()

	_, err := c.Networks().Build(ctx, &scaffold.BuildNetworkRequest{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = c.Networks().Build(ctx, nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = c.Networks().Get(ctx, "")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = c.Networks().Search(ctx, &scaffold.SearchRequest{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = c.Abbreviations().Condense(ctx, &scaffold.CondenseRequest{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadGateway, common.NewErrorResponse("COMMON_014", "external service error", ""))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(t, srv.URL).Abbreviations().List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

//Personal.AI order the ending
