package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantgate/tenantgate/internal/policy"
	"github.com/tenantgate/tenantgate/internal/token"
)

// TestPurpose: Validates the HTTP exchange wire format and response mapping.
// Scope: Unit Test
// Expected: The issuer posts policy, session name and duration in seconds, and maps the response fields.
// Test Case ID: ISS-01
func TestCredentials_HTTPIssuer_Exchange(t *testing.T) {
	expiration := time.Now().Add(15 * time.Minute).UTC().Truncate(time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Policy          policy.Document `json:"policy"`
			SessionName     string          `json:"session_name"`
			DurationSeconds int             `json:"duration_seconds"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tenant-session-tenant-a", req.SessionName)
		assert.Equal(t, 900, req.DurationSeconds)
		require.Len(t, req.Policy.Statements, 1)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_key_id":     "AKIDTEST",
			"secret_access_key": "secret",
			"session_token":     "session",
			"expiration":        expiration,
		})
	}))
	defer srv.Close()

	issuer := NewHTTPIssuer(srv.URL, time.Second)
	creds, err := issuer.Issue(context.Background(),
		policy.Generate("tenant-a", token.RoleTenantUser), "tenant-session-tenant-a", 900*time.Second)
	require.NoError(t, err)

	assert.Equal(t, "AKIDTEST", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
	assert.Equal(t, "session", creds.SessionToken)
	assert.True(t, creds.Expiration.Equal(expiration))
}

// TestPurpose: Validates that non-2xx issuer responses surface as issuance failures.
// Scope: Unit Test
// Expected: ErrIssuanceFailed wrapping the status code.
// Test Case ID: ISS-02
func TestCredentials_HTTPIssuer_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	issuer := NewHTTPIssuer(srv.URL, time.Second)
	_, err := issuer.Issue(context.Background(),
		policy.Generate("tenant-a", token.RoleTenantUser), "tenant-session-tenant-a", 900*time.Second)
	assert.ErrorIs(t, err, ErrIssuanceFailed)
}

// TestPurpose: Validates that an unreachable issuer fails the exchange instead of hanging.
// Scope: Unit Test
// Expected: ErrIssuanceFailed from the transport layer.
// Test Case ID: ISS-03
func TestCredentials_HTTPIssuer_Unreachable(t *testing.T) {
	issuer := NewHTTPIssuer("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := issuer.Issue(context.Background(),
		policy.Generate("tenant-a", token.RoleTenantUser), "tenant-session-tenant-a", 900*time.Second)
	assert.ErrorIs(t, err, ErrIssuanceFailed)
}

// TestPurpose: Validates the dev-mode issuer mints structurally complete credentials carrying the policy.
// Scope: Unit Test
// Security: Dev credentials must embed the same scoping policy so local runs exercise real plumbing.
// Expected: Keys are derived deterministically from the session name and the session token carries the policy claim.
// Test Case ID: ISS-04
func TestCredentials_LocalIssuer_DeterministicAndScoped(t *testing.T) {
	issuer := NewLocalIssuer("test-secret")
	doc := policy.Generate("tenant-a", token.RoleTenantUser)

	first, err := issuer.Issue(context.Background(), doc, "tenant-session-tenant-a", 15*time.Minute)
	require.NoError(t, err)
	second, err := issuer.Issue(context.Background(), doc, "tenant-session-tenant-a", 15*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, first.AccessKeyID, second.AccessKeyID)
	assert.Equal(t, first.SecretAccessKey, second.SecretAccessKey)
	assert.NotEmpty(t, first.SessionToken)

	parsed, err := jwtlib.Parse(first.SessionToken, func(t *jwtlib.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "tenant-session-tenant-a", claims["sub"])
	assert.Contains(t, claims["policy"], "tenant-a-*")
}
