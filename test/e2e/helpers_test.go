package e2e_test

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ScaffoldNet/pkg/client"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

const (
	e2eRealm  = "chem"
	e2eClient = "scaffoldnet"

	// a phenyl ring joined to a piperidinone through a methylene
	lactam = "c1ccccc1CC1NC(=O)CCC1"
)

// stubRealm serves the JWKS and discovery document of one realm and mints
// access tokens signed with its key.
type stubRealm struct {
	server *httptest.Server
	key    *rsa.PrivateKey
	kid    string
}

func newStubRealm(key *rsa.PrivateKey, kid string) *stubRealm {
	r := &stubRealm{key: key, kid: kid}
	r.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(req.URL.Path, "/protocol/openid-connect/certs"):
			pub := r.key.PublicKey
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"keys": []map[string]string{{
					"kid": r.kid,
					"kty": "RSA",
					"use": "sig",
					"alg": "RS256",
					"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
				}},
			})
		case strings.HasSuffix(req.URL.Path, "/.well-known/openid-configuration"):
			_ = json.NewEncoder(w).Encode(map[string]string{"issuer": r.issuer()})
		default:
			http.NotFound(w, req)
		}
	}))
	return r
}

func (r *stubRealm) issuer() string {
	return r.server.URL + "/realms/" + e2eRealm
}

// token mints a one-hour token carrying role as a realm role.
func (r *stubRealm) token(role string) string {
	return r.sign(jwt.MapClaims{
		"sub":                role + "-user",
		"iss":                r.issuer(),
		"aud":                e2eClient,
		"exp":                time.Now().Add(time.Hour).Unix(),
		"preferred_username": role,
		"realm_access":       map[string]interface{}{"roles": []string{role}},
	})
}

func (r *stubRealm) sign(claims jwt.MapClaims) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = r.kid
	raw, err := tok.SignedString(r.key)
	if err != nil {
		panic(err)
	}
	return raw
}

// requireAPIError asserts err is an API error with the given status and code.
func requireAPIError(t *testing.T, err error, status int, code errors.ErrorCode) *client.APIError {
	t.Helper()
	require.Error(t, err)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, apiErr.Error())
	require.Equal(t, string(code), apiErr.Code)
	return apiErr
}

//Personal.AI order the ending
