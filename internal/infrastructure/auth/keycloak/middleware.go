package keycloak

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/types/common"
)

type contextKey string

const (
	ContextKeyClaims  contextKey = "auth_claims"
	ContextKeySubject contextKey = "auth_subject"
	ContextKeyRoles   contextKey = "auth_roles"
)

var (
	ErrMissingAuthHeader = errors.New(errors.ErrCodeUnauthorized, "missing authorization header")
	ErrInvalidAuthFormat = errors.New(errors.ErrCodeUnauthorized, "invalid authorization format")
)

// AuthMiddleware authenticates HTTP requests carrying a bearer token.
type AuthMiddleware struct {
	verifier      TokenVerifier
	logger        logging.Logger
	skipPaths     map[string]bool
	skipPrefixes  []string
	onAuthFailure func(w http.ResponseWriter, r *http.Request, err error)
}

// MiddlewareOption configures an AuthMiddleware.
type MiddlewareOption func(*AuthMiddleware)

// WithSkipPaths lets the exact paths through unauthenticated.
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(m *AuthMiddleware) {
		for _, p := range paths {
			m.skipPaths[p] = true
		}
	}
}

// WithSkipPrefixes lets every path under the prefixes through.
func WithSkipPrefixes(prefixes ...string) MiddlewareOption {
	return func(m *AuthMiddleware) {
		m.skipPrefixes = append(m.skipPrefixes, prefixes...)
	}
}

// WithAuthFailureHandler replaces the default 401 writer.
func WithAuthFailureHandler(handler func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *AuthMiddleware) {
		m.onAuthFailure = handler
	}
}

func NewAuthMiddleware(verifier TokenVerifier, logger logging.Logger, opts ...MiddlewareOption) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	m := &AuthMiddleware{
		verifier:      verifier,
		logger:        logger,
		skipPaths:     make(map[string]bool),
		onAuthFailure: defaultAuthFailureHandler,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Authenticate verifies token and returns ctx carrying its claims.  The gRPC
// server shares it with the HTTP handler.
func (m *AuthMiddleware) Authenticate(ctx context.Context, token string) (context.Context, error) {
	claims, err := m.verifier.VerifyToken(ctx, token)
	if err != nil {
		return ctx, err
	}
	return WithClaims(ctx, claims), nil
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			m.handleError(w, r, err)
			return
		}
		ctx, err := m.Authenticate(r.Context(), token)
		if err != nil {
			m.handleError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) skip(path string) bool {
	if m.skipPaths[path] {
		return true
	}
	for _, prefix := range m.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (m *AuthMiddleware) handleError(w http.ResponseWriter, r *http.Request, err error) {
	m.logger.Warn("authentication failed",
		logging.String("path", r.URL.Path),
		logging.String("remote_addr", r.RemoteAddr),
		logging.Err(err),
	)
	m.onAuthFailure(w, r, err)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidAuthFormat
	}
	return strings.TrimSpace(token), nil
}

func defaultAuthFailureHandler(w http.ResponseWriter, _ *http.Request, err error) {
	message := "authentication required"
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(common.NewErrorResponse(string(errors.ErrCodeUnauthorized), message, ""))
}

// ─────────────────────────────────────────────────────────────────────────────
// Context helpers
// ─────────────────────────────────────────────────────────────────────────────

// WithClaims stores claims, the subject and the roles on ctx.
func WithClaims(ctx context.Context, claims *TokenClaims) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClaims, claims)
	ctx = context.WithValue(ctx, ContextKeySubject, claims.Subject)
	return context.WithValue(ctx, ContextKeyRoles, claims.Roles)
}

func ClaimsFromContext(ctx context.Context) (*TokenClaims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*TokenClaims)
	return claims, ok
}

func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(ContextKeySubject).(string)
	return sub, ok
}

func RolesFromContext(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(ContextKeyRoles).([]string)
	return roles, ok
}

func HasRole(ctx context.Context, role string) bool {
	roles, _ := RolesFromContext(ctx)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
