//go:build e2e

// End-to-end tests against a running gateway instance.
//
// Test Execution:
//
//	go test -tags e2e -v ./tests/e2e/...
//
// Prerequisites: a gateway listening on TENANTGATE_API_URL (default
// http://127.0.0.1:8080). Deny-path assertions need no provisioned
// tenants; the allow-path check runs only when TENANTGATE_TEST_TOKEN
// carries a token the gateway's identity configuration accepts.
package e2e

import (
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseURL = getEnv("TENANTGATE_API_URL", "http://127.0.0.1:8080")

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func client() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func TestE2E_Health(t *testing.T) {
	resp, err := client().Get(baseURL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestE2E_Readiness(t *testing.T) {
	resp, err := client().Get(baseURL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Every deny condition must collapse into the same opaque 401.
func TestE2E_Authorize_DenyIsOpaque(t *testing.T) {
	headers := []string{"", "Basic abc", "Bearer garbage"}

	var bodies []string
	for _, header := range headers {
		req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/authorize", nil)
		require.NoError(t, err)
		if header != "" {
			req.Header.Set("Authorization", header)
		}

		resp, err := client().Do(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "header %q", header)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		bodies = append(bodies, body["error"])
	}

	for _, b := range bodies {
		assert.Equal(t, bodies[0], b)
	}
}

func TestE2E_Authorize_Allow(t *testing.T) {
	token := os.Getenv("TENANTGATE_TEST_TOKEN")
	if token == "" {
		t.Skip("TENANTGATE_TEST_TOKEN not set")
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/authorize", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decision struct {
		PrincipalID  string            `json:"principal_id"`
		RateLimitKey string            `json:"rate_limit_key"`
		Context      map[string]string `json:"context"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decision))
	assert.NotEmpty(t, decision.PrincipalID)
	assert.NotEmpty(t, decision.RateLimitKey)
	assert.NotEmpty(t, decision.Context["tenantId"])
}
