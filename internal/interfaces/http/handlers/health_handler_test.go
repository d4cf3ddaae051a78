package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ScaffoldNet/pkg/types/common"
)

func okCheck(name string) HealthChecker {
	return HealthCheckFunc{Component: name, Fn: func(context.Context) error { return nil }}
}

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) common.HealthReport {
	t.Helper()
	var resp common.APIResponse[common.HealthReport]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	return resp.Data
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", HealthCheckFunc{Component: "db", Fn: func(context.Context) error {
		t.Fatal("liveness must not run checks")
		return nil
	}})
	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	report := decodeHealth(t, w)
	assert.Equal(t, common.HealthUp, report.Status)
	assert.Equal(t, "1.2.3", report.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	h := NewHealthHandler("dev", okCheck("postgres"), okCheck("redis"))
	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	report := decodeHealth(t, w)
	assert.Equal(t, common.HealthUp, report.Status)
	assert.Len(t, report.Components, 2)
	assert.Equal(t, common.HealthUp, report.Components["redis"].Status)
}

func TestHealthHandler_ReadinessDown(t *testing.T) {
	down := HealthCheckFunc{Component: "neo4j", Fn: func(context.Context) error { return errors.New("connection refused") }}
	h := NewHealthHandler("dev", okCheck("postgres"), down)
	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	report := decodeHealth(t, w)
	assert.Equal(t, common.HealthDown, report.Status)
	assert.Equal(t, "connection refused", report.Components["neo4j"].Error)
	assert.Equal(t, common.HealthUp, report.Components["postgres"].Status)
}

func TestHealthHandler_NoCheckers(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler("dev").Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

//Personal.AI order the ending
