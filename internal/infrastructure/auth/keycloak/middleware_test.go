package keycloak

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ScaffoldNet/internal/testutil"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/types/common"
)

type stubVerifier struct {
	claims *TokenClaims
	err    error
	got    string
}

func (s *stubVerifier) VerifyToken(_ context.Context, raw string) (*TokenClaims, error) {
	s.got = raw
	return s.claims, s.err
}

// echoHandler reports the authenticated subject.
var echoHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	sub, _ := SubjectFromContext(r.Context())
	_, _ = w.Write([]byte(sub))
})

func doRequest(h http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_Success(t *testing.T) {
	v := &stubVerifier{claims: &TokenClaims{Subject: "user-1", Roles: []string{"chemist"}}}
	mw := NewAuthMiddleware(v, nil)

	rec := doRequest(mw.Handler(echoHandler), "/api/v1/networks", "Bearer abc.def")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
	assert.Equal(t, "abc.def", v.got)
}

func TestAuthMiddleware_Failures(t *testing.T) {
	logger := testutil.NewMockLogger()
	v := &stubVerifier{err: ErrTokenExpired}
	h := NewAuthMiddleware(v, logger).Handler(echoHandler)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "missing authorization header"},
		{"basic scheme", "Basic dXNlcjpwdw==", "invalid authorization format"},
		{"empty token", "Bearer ", "invalid authorization format"},
		{"verifier error", "Bearer tok", "token expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(h, "/api/v1/networks", tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

			var body common.APIResponse[any]
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, string(errors.ErrCodeUnauthorized), body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
	assert.True(t, logger.HasMessage("warn", "authentication failed"))
}

func TestAuthMiddleware_Skips(t *testing.T) {
	v := &stubVerifier{err: ErrTokenMalformed}
	h := NewAuthMiddleware(v, nil,
		WithSkipPaths("/healthz"),
		WithSkipPrefixes("/public/"),
	).Handler(echoHandler)

	assert.Equal(t, http.StatusOK, doRequest(h, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(h, "/public/docs", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(h, "/healthz/deep", "").Code)
}

func TestAuthMiddleware_CustomFailureHandler(t *testing.T) {
	var seen error
	h := NewAuthMiddleware(&stubVerifier{}, nil, WithAuthFailureHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		seen = err
		w.WriteHeader(http.StatusTeapot)
	})).Handler(echoHandler)

	assert.Equal(t, http.StatusTeapot, doRequest(h, "/x", "").Code)
	assert.Same(t, ErrMissingAuthHeader, seen)
}

func TestAuthenticate(t *testing.T) {
	mw := NewAuthMiddleware(&stubVerifier{claims: &TokenClaims{Subject: "svc", Roles: []string{"service"}}}, nil)
	ctx, err := mw.Authenticate(context.Background(), "tok")
	require.NoError(t, err)

	claims, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "svc", claims.Subject)
	roles, ok := RolesFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"service"}, roles)
	assert.True(t, HasRole(ctx, "service"))
	assert.False(t, HasRole(ctx, "viewer"))

	mw = NewAuthMiddleware(&stubVerifier{err: ErrTokenInvalidAudience}, nil)
	_, err = mw.Authenticate(context.Background(), "tok")
	assert.Same(t, ErrTokenInvalidAudience, err)
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("bearer  xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	_, err = BearerToken("")
	assert.Same(t, ErrMissingAuthHeader, err)
	_, err = BearerToken("Bearer")
	assert.Same(t, ErrInvalidAuthFormat, err)
}

func TestContextHelpers_Empty(t *testing.T) {
	ctx := context.Background()
	_, ok := ClaimsFromContext(ctx)
	assert.False(t, ok)
	_, ok = SubjectFromContext(ctx)
	assert.False(t, ok)
	assert.False(t, HasRole(ctx, "chemist"))
}

//Personal.AI order the ending
