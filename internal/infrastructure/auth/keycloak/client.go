// Package keycloak authenticates API callers with access tokens issued by a
// Keycloak realm.  Tokens are verified offline against the realm's JWKS,
// which is fetched at startup and refreshed in the background.
package keycloak

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	stdliberrors "errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/ScaffoldNet/internal/config"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

// minRefreshGap bounds how often an unknown kid may force a JWKS fetch.
const minRefreshGap = 10 * time.Second

// TokenVerifier checks a raw bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, rawToken string) (*TokenClaims, error)
}

// TokenClaims is the subset of a Keycloak access token the API uses.
type TokenClaims struct {
	Subject           string    `json:"sub"`
	PreferredUsername string    `json:"preferred_username"`
	Email             string    `json:"email"`
	Roles             []string  `json:"roles"`
	Scope             string    `json:"scope"`
	Issuer            string    `json:"iss"`
	Audience          []string  `json:"aud"`
	ExpiresAt         time.Time `json:"exp"`
}

// HasRole reports whether role was granted in the realm or to this client.
func (c *TokenClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

var (
	ErrTokenExpired          = errors.New(errors.ErrCodeUnauthorized, "token expired")
	ErrTokenInvalidSignature = errors.New(errors.ErrCodeUnauthorized, "invalid token signature")
	ErrTokenInvalidIssuer    = errors.New(errors.ErrCodeUnauthorized, "invalid token issuer")
	ErrTokenInvalidAudience  = errors.New(errors.ErrCodeUnauthorized, "invalid token audience")
	ErrTokenMalformed        = errors.New(errors.ErrCodeUnauthorized, "malformed token")
	ErrKeycloakUnavailable   = errors.New(errors.ErrCodeServiceUnavailable, "keycloak unavailable")
)

// ─────────────────────────────────────────────────────────────────────────────
// JWKS cache
// ─────────────────────────────────────────────────────────────────────────────

type jwksCache struct {
	client *http.Client
	url    string
	logger logging.Logger

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	lastRefresh time.Time
	group       singleflight.Group
}

type jsonWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// refresh replaces the key set.  Concurrent callers share one fetch.
func (c *jwksCache) refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("jwks", func() (interface{}, error) {
		return nil, c.fetch(ctx)
	})
	return err
}

func (c *jwksCache) fetch(ctx context.Context) error {
	c.logger.Debug("refreshing jwks", logging.String("url", c.url))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to fetch jwks")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.ErrCodeServiceUnavailable, "failed to fetch jwks: %s", resp.Status)
	}

	var set struct {
		Keys []jsonWebKey `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode jwks")
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.rsaKey()
		if err != nil {
			c.logger.Warn("skipping unusable jwk", logging.String("kid", k.Kid), logging.Err(err))
			continue
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.lastRefresh = time.Now()
	c.mu.Unlock()
	return nil
}

func (k jsonWebKey) rsaKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}
	if len(e) == 0 || len(e) > 4 {
		return nil, fmt.Errorf("exponent of %d bytes", len(e))
	}
	exp := 0
	for _, b := range e {
		exp = exp<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: exp}, nil
}

// key returns the key for kid, refetching the set once for an unknown kid
// unless the last fetch is too recent.
func (c *jwksCache) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	recent := time.Since(c.lastRefresh) < minRefreshGap
	c.mu.RUnlock()
	if ok {
		return key, nil
	}
	if recent {
		return nil, ErrTokenInvalidSignature
	}
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	key, ok = c.keys[kid]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrTokenInvalidSignature
	}
	return key, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Verifier
// ─────────────────────────────────────────────────────────────────────────────

// Verifier validates realm access tokens.
type Verifier struct {
	cfg        config.AuthConfig
	issuer     string
	httpClient *http.Client
	jwks       *jwksCache
	logger     logging.Logger
	stop       chan struct{}
	stopOnce   sync.Once
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithHTTPClient replaces the client used for JWKS and discovery requests.
func WithHTTPClient(client *http.Client) VerifierOption {
	return func(v *Verifier) { v.httpClient = client }
}

// NewVerifier fetches the realm keys and starts the background refresh.
func NewVerifier(ctx context.Context, cfg config.AuthConfig, logger logging.Logger, opts ...VerifierOption) (*Verifier, error) {
	if cfg.BaseURL == "" || cfg.Realm == "" || cfg.ClientID == "" {
		return nil, errors.New(errors.ErrCodeConfiguration, "keycloak base_url, realm and client_id are required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	realmURL := strings.TrimRight(cfg.BaseURL, "/") + "/realms/" + cfg.Realm
	v := &Verifier{
		cfg:        cfg,
		issuer:     realmURL,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger.Named("keycloak"),
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.jwks = &jwksCache{
		client: v.httpClient,
		url:    realmURL + "/protocol/openid-connect/certs",
		logger: v.logger,
	}

	if err := v.jwks.refresh(ctx); err != nil {
		return nil, err
	}
	if cfg.JWKSRefreshInterval > 0 {
		go v.refreshLoop(cfg.JWKSRefreshInterval)
	}
	return v, nil
}

func (v *Verifier) refreshLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-v.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), v.cfg.RequestTimeout)
			if err := v.jwks.refresh(ctx); err != nil {
				v.logger.Error("failed to refresh jwks", logging.Err(err))
			}
			cancel()
		}
	}
}

// Close stops the background refresh.
func (v *Verifier) Close() error {
	v.stopOnce.Do(func() { close(v.stop) })
	return nil
}

// VerifyToken checks signature, expiry, issuer and audience.  The token is
// accepted when the client id appears in aud or azp.
func (v *Verifier) VerifyToken(ctx context.Context, rawToken string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrTokenMalformed
		}
		return v.jwks.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithIssuer(v.issuer),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}
	if exp, _ := claims.GetExpirationTime(); exp == nil {
		return nil, ErrTokenMalformed
	}

	aud, _ := claims.GetAudience()
	azp, _ := claims["azp"].(string)
	if !contains(aud, v.cfg.ClientID) && azp != v.cfg.ClientID {
		return nil, ErrTokenInvalidAudience
	}
	return v.toClaims(claims, aud), nil
}

func mapJWTError(err error) error {
	var appErr *errors.AppError
	switch {
	case stdliberrors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case stdliberrors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrTokenInvalidIssuer
	case stdliberrors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenInvalidSignature
	case stdliberrors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.As(err, &appErr):
		// raised by the key lookup
		return appErr
	default:
		return errors.Wrap(err, errors.ErrCodeUnauthorized, "token verification failed")
	}
}

func (v *Verifier) toClaims(mc jwt.MapClaims, aud []string) *TokenClaims {
	tc := &TokenClaims{Audience: aud}
	tc.Subject, _ = mc.GetSubject()
	tc.Issuer, _ = mc.GetIssuer()
	if exp, _ := mc.GetExpirationTime(); exp != nil {
		tc.ExpiresAt = exp.Time
	}
	tc.PreferredUsername, _ = mc["preferred_username"].(string)
	tc.Email, _ = mc["email"].(string)
	tc.Scope, _ = mc["scope"].(string)

	if realm, ok := mc["realm_access"].(map[string]interface{}); ok {
		tc.Roles = append(tc.Roles, stringSlice(realm["roles"])...)
	}
	if resources, ok := mc["resource_access"].(map[string]interface{}); ok {
		if client, ok := resources[v.cfg.ClientID].(map[string]interface{}); ok {
			tc.Roles = append(tc.Roles, stringSlice(client["roles"])...)
		}
	}
	return tc
}

// Health checks that the realm's discovery document is served.
func (v *Verifier) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return ErrKeycloakUnavailable.WithCause(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ErrKeycloakUnavailable.WithDetail(resp.Status)
	}
	return nil
}

func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
