package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tenantgate/tenantgate/internal/audit"
	"github.com/tenantgate/tenantgate/internal/authorizer"
	"github.com/tenantgate/tenantgate/internal/credentials"
	"github.com/tenantgate/tenantgate/internal/directory"
	"github.com/tenantgate/tenantgate/internal/entity"
	"github.com/tenantgate/tenantgate/internal/policy"
	"github.com/tenantgate/tenantgate/internal/shard"
	"github.com/tenantgate/tenantgate/internal/verifier"
)

type mockTenantRepo struct {
	mock.Mock
}

func (m *mockTenantRepo) GetTenant(ctx context.Context, id string) (*directory.TenantRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.TenantRecord), args.Error(1)
}

type mockItemRepo struct {
	mock.Mock
}

func (m *mockItemRepo) Put(ctx context.Context, item *entity.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *mockItemRepo) Get(ctx context.Context, partitionKey, itemID string) (*entity.Item, error) {
	args := m.Called(ctx, partitionKey, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Item), args.Error(1)
}

func (m *mockItemRepo) Update(ctx context.Context, partitionKey, itemID string, attrs map[string]any) (*entity.Item, error) {
	args := m.Called(ctx, partitionKey, itemID, attrs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Item), args.Error(1)
}

func (m *mockItemRepo) Delete(ctx context.Context, partitionKey, itemID string) error {
	args := m.Called(ctx, partitionKey, itemID)
	return args.Error(0)
}

func (m *mockItemRepo) QueryByPartition(ctx context.Context, collection, partitionKey string) ([]*entity.Item, error) {
	args := m.Called(ctx, collection, partitionKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Item), args.Error(1)
}

type staticIssuer struct{}

func (staticIssuer) Issue(ctx context.Context, doc policy.Document, sessionName string, duration time.Duration) (*credentials.ScopedCredentials, error) {
	return &credentials.ScopedCredentials{
		AccessKeyID:     "AKIDTEST",
		SecretAccessKey: "secret",
		SessionToken:    "session",
		Expiration:      time.Now().Add(duration),
	}, nil
}

// gatewayFixture is a fully wired gateway over an in-memory identity
// pool and mocked stores, served through the real router.
type gatewayFixture struct {
	router     http.Handler
	tenantRepo *mockTenantRepo
	itemRepo   *mockItemRepo
	key        *rsa.PrivateKey
}

func newGatewayFixture(t *testing.T, readyCheck func(ctx context.Context) error) *gatewayFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pub, err := jwk.FromRaw(key.Public())
	require.NoError(t, err)
	require.NoError(t, pub.Set(jwk.KeyIDKey, "test-kid"))
	require.NoError(t, pub.Set(jwk.AlgorithmKey, jwa.RS256))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))
	jwks, err := json.Marshal(set)
	require.NoError(t, err)

	jwksServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwks)
	}))
	t.Cleanup(jwksServer.Close)

	tenantRepo := new(mockTenantRepo)
	itemRepo := new(mockItemRepo)

	registry := verifier.NewRegistry(context.Background(), verifier.Config{
		IssuerURLTemplate: "https://idp.example.com/{pool}",
		JWKSURLTemplate:   jwksServer.URL + "/{pool}/jwks.json",
	})
	authService := authorizer.NewService(
		directory.NewCache(tenantRepo, time.Minute),
		registry,
		credentials.NewBroker(staticIssuer{}, credentials.BrokerConfig{}),
		audit.NewSlogLogger(),
		nil,
		authorizer.Options{
			PooledPoolID:           "pooled-pool",
			PooledClientID:         "pooled-client",
			OperationsRateLimitKey: "OPERATIONS-KEY",
		},
	)
	entityService := entity.NewService(itemRepo, shard.NewScheme(1, 11))

	handler := NewHandler(authService, entityService, readyCheck)

	return &gatewayFixture{
		router:     handler.Router(nil),
		tenantRepo: tenantRepo,
		itemRepo:   itemRepo,
		key:        key,
	}
}

func (f *gatewayFixture) mint(t *testing.T, tenantID, role string) string {
	t.Helper()
	now := time.Now()
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, jwtlib.MapClaims{
		"iss":              "https://idp.example.com/pooled-pool",
		"aud":              "pooled-client",
		"sub":              "user-1",
		"cognito:username": "alice",
		"custom:tenantId":  tenantID,
		"custom:userRole":  role,
		"iat":              now.Unix(),
		"exp":              now.Add(time.Hour).Unix(),
	})
	tok.Header["kid"] = "test-kid"
	raw, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return "Bearer " + raw
}

func pooledTenant(id string) *directory.TenantRecord {
	return &directory.TenantRecord{
		ID:           id,
		Name:         "Tenant " + id,
		RateLimitKey: "STANDARD-KEY",
		Tier:         directory.TierStandard,
		Active:       true,
	}
}

// TestPurpose: Validates the health endpoint.
// Scope: Unit Test
// Expected: 200 with a status body.
// Test Case ID: API-01
func TestTransport_Health(t *testing.T) {
	f := newGatewayFixture(t, nil)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

// TestPurpose: Validates readiness reporting against the backing dependency probe.
// Scope: Unit Test
// Expected: 200 when the probe passes, 503 when it fails.
// Test Case ID: API-02
func TestTransport_Readiness(t *testing.T) {
	healthy := newGatewayFixture(t, func(ctx context.Context) error { return nil })
	rec := httptest.NewRecorder()
	healthy.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	broken := newGatewayFixture(t, func(ctx context.Context) error { return errors.New("db down") })
	rec = httptest.NewRecorder()
	broken.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// TestPurpose: Validates the authorize endpoint's allow response shape.
// Scope: Unit Test
// Expected: 200 with principal, rate-limit key and the execution context map including credentials.
// Test Case ID: API-03
func TestTransport_Authorize_Allow(t *testing.T) {
	f := newGatewayFixture(t, nil)
	f.tenantRepo.On("GetTenant", mock.Anything, "tenant-a").Return(pooledTenant("tenant-a"), nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/v1/authorize", nil)
	req.Header.Set("Authorization", f.mint(t, "tenant-a", "TenantUser"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		PrincipalID  string            `json:"principal_id"`
		RateLimitKey string            `json:"rate_limit_key"`
		Context      map[string]string `json:"context"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user-1", resp.PrincipalID)
	assert.Equal(t, "STANDARD-KEY", resp.RateLimitKey)
	assert.Equal(t, "tenant-a", resp.Context["tenantId"])
	assert.Equal(t, "AKIDTEST", resp.Context["accessKeyId"])
}

// TestPurpose: Validates that every deny condition maps to one undistinguished 401 response.
// Scope: Unit Test
// Security: The response body must not reveal which authorization check failed.
// Expected: Identical 401 bodies for a missing header, a garbage token and an unknown tenant.
// Test Case ID: API-04
func TestTransport_Authorize_DenyOpaque(t *testing.T) {
	f := newGatewayFixture(t, nil)
	f.tenantRepo.On("GetTenant", mock.Anything, "ghost").Return(nil, directory.ErrTenantNotFound).Once()

	requests := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/v1/authorize", nil),
		httptest.NewRequest(http.MethodPost, "/v1/authorize", nil),
		httptest.NewRequest(http.MethodPost, "/v1/authorize", nil),
	}
	requests[1].Header.Set("Authorization", "Bearer garbage")
	requests[2].Header.Set("Authorization", f.mint(t, "ghost", "TenantUser"))

	var bodies []string
	for _, req := range requests {
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		bodies = append(bodies, rec.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[1], bodies[2])
}

// TestPurpose: Validates the authenticated item path end to end: authorize, create and read back by key.
// Scope: Unit Test
// Expected: 401 without a token; with a token, create returns a composite key that reads back the item.
// Test Case ID: API-05
func TestTransport_Items_AuthenticatedCRUD(t *testing.T) {
	f := newGatewayFixture(t, nil)
	f.tenantRepo.On("GetTenant", mock.Anything, "tenant-a").Return(pooledTenant("tenant-a"), nil)

	body := bytes.NewBufferString(`{"name":"Widget","attributes":{"price":10}}`)
	unauth := httptest.NewRequest(http.MethodPost, "/v1/products/", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, unauth)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var stored *entity.Item
	f.itemRepo.On("Put", mock.Anything, mock.MatchedBy(func(item *entity.Item) bool {
		stored = item
		return item.Collection == entity.CollectionProducts && item.Name == "Widget"
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/v1/products/",
		bytes.NewBufferString(`{"name":"Widget","attributes":{"price":10}}`))
	req.Header.Set("Authorization", f.mint(t, "tenant-a", "TenantUser"))
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Key)

	f.itemRepo.On("Get", mock.Anything, stored.PartitionKey, stored.ItemID).Return(stored, nil).Once()

	get := httptest.NewRequest(http.MethodGet, "/v1/products/"+created.Key, nil)
	get.Header.Set("Authorization", f.mint(t, "tenant-a", "TenantUser"))
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, get)
	require.Equal(t, http.StatusOK, rec.Code)

	f.itemRepo.AssertExpectations(t)
}

// TestPurpose: Validates that a tenant cannot read another tenant's item through the composite key.
// Scope: Unit Test
// Security: The partition guard must hide foreign items behind the same 404 as absence.
// Expected: 404 and no store read.
// Test Case ID: API-06
func TestTransport_Items_CrossTenantHidden(t *testing.T) {
	f := newGatewayFixture(t, nil)
	f.tenantRepo.On("GetTenant", mock.Anything, "tenant-a").Return(pooledTenant("tenant-a"), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/products/tenant-b-3:item-1", nil)
	req.Header.Set("Authorization", f.mint(t, "tenant-a", "TenantUser"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	f.itemRepo.AssertNotCalled(t, "Get")
}

// TestPurpose: Validates the transport-level token bucket limiter.
// Scope: Unit Test
// Expected: Requests beyond the burst receive 429.
// Test Case ID: API-07
func TestTransport_RateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
	assert.Equal(t, http.StatusTooManyRequests, codes[3])

	// A different caller gets its own bucket
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
