// Copyright 2026 The TenantGate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package authorizer

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tenantgate/tenantgate/internal/audit"
	"github.com/tenantgate/tenantgate/internal/credentials"
	"github.com/tenantgate/tenantgate/internal/directory"
	"github.com/tenantgate/tenantgate/internal/observability/logger"
	"github.com/tenantgate/tenantgate/internal/observability/metrics"
	"github.com/tenantgate/tenantgate/internal/token"
	"github.com/tenantgate/tenantgate/internal/verifier"
)

// ErrUnauthorized is the only error this package returns to callers.
// Every internal failure kind converges here so the caller cannot
// distinguish an invalid token from a disabled tenant from a scoping
// failure (oracle-attack resistance). The specific kind goes to the
// audit trail only.
var ErrUnauthorized = errors.New("unauthorized")

// Options holds the fixed provider-side identity configuration.
type Options struct {
	// Pooled identity binding used by provider roles and by tenants
	// without a dedicated pool.
	PooledPoolID   string
	PooledClientID string

	// Rate-limit identity key for provider-internal callers.
	OperationsRateLimitKey string
}

// Service assembles authorization decisions. It owns nothing but wiring:
// the caches it consults are constructed elsewhere and injected, which
// keeps their TTL and eviction behaviour testable in isolation.
type Service struct {
	directory *directory.Cache
	verifiers *verifier.Registry
	broker    *credentials.Broker
	audit     audit.Logger
	meter     *metrics.Meter
	opts      Options
}

// NewService creates a decision assembler.
func NewService(
	dir *directory.Cache,
	verifiers *verifier.Registry,
	broker *credentials.Broker,
	auditLogger audit.Logger,
	meter *metrics.Meter,
	opts Options,
) *Service {
	return &Service{
		directory: dir,
		verifiers: verifiers,
		broker:    broker,
		audit:     auditLogger,
		meter:     meter,
		opts:      opts,
	}
}

// Authorize runs the decision state machine over a raw authorization
// header value: decode, classify role, resolve identity configuration,
// verify, build context, scope credentials. Steps execute in this strict
// order; any failure lands in the single deny outcome.
func (s *Service) Authorize(ctx context.Context, authorizationHeader string) (*Decision, error) {
	raw, err := token.ParseAuthorizationHeader(authorizationHeader)
	if err != nil {
		return s.deny(ctx, "", "", "malformed_header", err)
	}

	decoded, err := token.Decode(raw)
	if err != nil {
		return s.deny(ctx, "", "", "malformed_token", err)
	}

	// CLASSIFY_ROLE / RESOLVE_IDENTITY_CONFIG. Provider roles use the
	// pooled identity configuration and skip the tenant directory.
	poolID := s.opts.PooledPoolID
	clientID := s.opts.PooledClientID
	rateLimitKey := s.opts.OperationsRateLimitKey

	if !decoded.Role.IsProvider() {
		record, err := s.directory.Resolve(ctx, decoded.TenantID)
		if err != nil {
			return s.deny(ctx, decoded.TenantID, decoded.Role.String(), "tenant_not_found", err)
		}
		if !record.Active {
			return s.deny(ctx, decoded.TenantID, decoded.Role.String(), "tenant_inactive", directory.ErrTenantInactive)
		}
		if record.PoolID != "" {
			poolID = record.PoolID
		}
		if record.ClientID != "" {
			clientID = record.ClientID
		}
		rateLimitKey = record.RateLimitKey
	}

	// VERIFY_TOKEN. The decoded claims only routed us here; everything
	// from this point trusts the verified payload.
	v, err := s.verifiers.GetOrCreate(poolID, clientID)
	if err != nil {
		return s.deny(ctx, decoded.TenantID, decoded.Role.String(), "verifier_unavailable", err)
	}
	verified, err := v.Verify(ctx, raw)
	if err != nil {
		return s.deny(ctx, decoded.TenantID, decoded.Role.String(), "verification_failed", err)
	}

	// BUILD_CONTEXT
	username := verified.Username
	if username == "" {
		username = decoded.Username
	}
	execCtx := ExecutionContext{
		TenantID: verified.TenantID,
		Role:     verified.Role,
		Username: username,
		PoolID:   poolID,
	}

	// SCOPE_CREDENTIALS. Tenant-facing roles must not proceed without
	// scoping; provider flows degrade to the unscoped context.
	creds, err := s.broker.GetScoped(ctx, verified.TenantID, verified.Role)
	if err != nil {
		if !verified.Role.IsProvider() {
			return s.deny(ctx, verified.TenantID, verified.Role.String(), "issuance_failed", err)
		}
		slog.WarnContext(ctx, "credential scoping unavailable, proceeding unscoped",
			logger.Role(verified.Role.String()), logger.Error(err))
	} else {
		execCtx.AccessKeyID = creds.AccessKeyID
		execCtx.SecretAccessKey = creds.SecretAccessKey
		execCtx.SessionToken = creds.SessionToken
	}

	decision := &Decision{
		Allow:        true,
		PrincipalID:  verified.Subject,
		RateLimitKey: rateLimitKey,
		Context:      execCtx,
	}

	s.countDecision(ctx, "allow")
	s.audit.Log(ctx, audit.Event{
		Type:      audit.TypeDecisionAllow,
		TenantID:  verified.TenantID,
		Role:      verified.Role.String(),
		Principal: verified.Subject,
		Metadata: map[string]any{
			"pool_id":    poolID,
			"rate_limit": rateLimitKey,
			"scoped":     execCtx.Scoped(),
		},
	})
	return decision, nil
}

// deny logs the specific failure kind internally and collapses it to the
// undistinguished unauthorized outcome.
func (s *Service) deny(ctx context.Context, tenantID, role, reason string, cause error) (*Decision, error) {
	slog.WarnContext(ctx, "authorization denied",
		logger.TenantID(tenantID),
		logger.Role(role),
		logger.DenyReason(reason),
		logger.Error(cause),
	)
	s.countDecision(ctx, "deny")
	s.audit.Log(ctx, audit.Event{
		Type:     audit.TypeDecisionDeny,
		TenantID: tenantID,
		Role:     role,
		Reason:   reason,
	})
	return nil, ErrUnauthorized
}

func (s *Service) countDecision(ctx context.Context, outcome string) {
	if s.meter == nil {
		return
	}
	s.meter.Decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
