package keycloak

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ScaffoldNet/internal/testutil"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

func ctxWithRoles(roles ...string) context.Context {
	return WithClaims(context.Background(), &TokenClaims{Subject: "user-1", Roles: roles})
}

func TestEnforcer_DefaultMapping(t *testing.T) {
	e := NewEnforcer(nil, nil)

	tests := []struct {
		role    Role
		granted []Permission
		denied  []Permission
	}{
		{RoleAdmin, []Permission{PermNetworkBuild, PermNetworkRead, PermScaffoldSearch, PermAbbreviationUse}, nil},
		{RoleChemist, []Permission{PermNetworkBuild, PermAbbreviationUse}, nil},
		{RoleViewer, []Permission{PermNetworkRead, PermScaffoldSearch}, []Permission{PermNetworkBuild, PermAbbreviationUse}},
		{RoleService, []Permission{PermNetworkBuild, PermAbbreviationUse}, []Permission{PermNetworkRead}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			ctx := ctxWithRoles(string(tt.role))
			for _, p := range tt.granted {
				assert.True(t, e.HasPermission(ctx, p), p)
			}
			for _, p := range tt.denied {
				assert.False(t, e.HasPermission(ctx, p), p)
			}
		})
	}

	assert.False(t, e.HasPermission(context.Background(), PermNetworkRead))
	assert.False(t, e.HasPermission(ctxWithRoles("unknown"), PermNetworkRead))
}

func TestEnforcer_Permissions(t *testing.T) {
	e := NewEnforcer(nil, nil)
	got := e.Permissions(ctxWithRoles(string(RoleViewer), string(RoleService)))
	assert.Equal(t, []Permission{PermAbbreviationUse, PermNetworkBuild, PermNetworkRead, PermScaffoldSearch}, got)
	assert.Empty(t, e.Permissions(context.Background()))
}

func TestEnforcer_EnforcePermission(t *testing.T) {
	logger := testutil.NewMockLogger()
	e := NewEnforcer(nil, logger)

	assert.NoError(t, e.EnforcePermission(ctxWithRoles("viewer"), PermNetworkRead))

	err := e.EnforcePermission(ctxWithRoles("viewer"), PermNetworkBuild)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeForbidden))

	msg, ok := logger.Find("warn", "permission denied")
	require.True(t, ok)
	assert.Equal(t, "user-1", msg.Field("subject"))
	assert.Equal(t, "network:build", msg.Field("permission"))
}

func TestEnforcer_UpdateMapping(t *testing.T) {
	e := NewEnforcer(nil, nil)
	ctx := ctxWithRoles("viewer")
	require.True(t, e.HasPermission(ctx, PermNetworkRead))

	e.UpdateMapping(RolePermissionMapping{RoleViewer: {PermAbbreviationUse}})
	assert.False(t, e.HasPermission(ctx, PermNetworkRead))
	assert.True(t, e.HasPermission(ctx, PermAbbreviationUse))
}

func TestEnforcer_RequirePermission(t *testing.T) {
	e := NewEnforcer(nil, nil)
	h := e.RequirePermission(PermNetworkBuild)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(ctx context.Context) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/networks", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, serve(ctxWithRoles("chemist")).Code)

	rec := serve(ctxWithRoles("viewer"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), string(errors.ErrCodeForbidden))
	assert.Contains(t, rec.Body.String(), "missing permission network:build")
}

//Personal.AI order the ending
