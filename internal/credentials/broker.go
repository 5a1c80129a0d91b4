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

package credentials

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"github.com/tenantgate/tenantgate/internal/observability/logger"
	"github.com/tenantgate/tenantgate/internal/policy"
	"github.com/tenantgate/tenantgate/internal/token"
)

const (
	// DefaultSessionDuration is requested from the issuer for every
	// exchange.
	DefaultSessionDuration = 15 * time.Minute

	// DefaultSafetyMargin is subtracted from the session duration when
	// caching, guaranteeing a cached entry is never served with less than
	// the margin of real lifetime remaining.
	DefaultSafetyMargin = 3 * time.Minute

	// DefaultMaxCacheSize bounds the cache; reaching it triggers a sweep
	// of expired entries before any insert.
	DefaultMaxCacheSize = 1000

	// maxIssueRetries bounds the backoff retry around one issuance.
	maxIssueRetries = 2
)

type cacheEntry struct {
	creds     *ScopedCredentials
	expiresAt time.Time
	tenantID  string
	role      token.Role
}

// BrokerConfig tunes the credential broker. Zero values fall back to the
// package defaults.
type BrokerConfig struct {
	SessionDuration time.Duration
	SafetyMargin    time.Duration
	MaxCacheSize    int
}

// Broker exchanges (tenant, role) pairs for scoped credentials, caching
// the result for the session lifetime minus a safety margin. One entry
// exists per (tenant, role): a role change for the same tenant is a
// different cache key, never an update.
type Broker struct {
	issuer          Issuer
	sessionDuration time.Duration
	safetyMargin    time.Duration
	maxCacheSize    int
	now             func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewBroker creates a credential broker over the given issuer.
func NewBroker(issuer Issuer, cfg BrokerConfig) *Broker {
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = DefaultSessionDuration
	}
	if cfg.SafetyMargin <= 0 {
		cfg.SafetyMargin = DefaultSafetyMargin
	}
	if cfg.MaxCacheSize <= 0 {
		cfg.MaxCacheSize = DefaultMaxCacheSize
	}
	return &Broker{
		issuer:          issuer,
		sessionDuration: cfg.SessionDuration,
		safetyMargin:    cfg.SafetyMargin,
		maxCacheSize:    cfg.MaxCacheSize,
		now:             time.Now,
		entries:         make(map[string]cacheEntry),
	}
}

// GetScoped returns scoped credentials for the tenant/role pair, reusing
// an unexpired cached entry when one exists. On a miss it generates the
// least-privilege policy and exchanges it with the issuer under a bounded
// retry. Failures are never cached.
func (b *Broker) GetScoped(ctx context.Context, tenantID string, role token.Role) (*ScopedCredentials, error) {
	key := tenantID + ":" + role.String()

	b.mu.Lock()
	entry, ok := b.entries[key]
	b.mu.Unlock()
	if ok && b.now().Before(entry.expiresAt) {
		slog.DebugContext(ctx, "credential cache hit",
			logger.TenantID(tenantID), logger.Role(role.String()))
		return entry.creds, nil
	}

	slog.DebugContext(ctx, "credential cache miss",
		logger.TenantID(tenantID), logger.Role(role.String()))

	v, err, _ := b.group.Do(key, func() (any, error) {
		return b.issue(ctx, key, tenantID, role)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ScopedCredentials), nil
}

func (b *Broker) issue(ctx context.Context, key, tenantID string, role token.Role) (*ScopedCredentials, error) {
	b.sweepIfFull()

	doc := policy.Generate(tenantID, role)
	sessionName := "tenant-session-" + tenantID

	var creds *ScopedCredentials
	operation := func() error {
		var err error
		creds, err = b.issuer.Issue(ctx, doc, sessionName, b.sessionDuration)
		return err
	}
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxIssueRetries), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		slog.ErrorContext(ctx, "credential issuance failed",
			logger.TenantID(tenantID), logger.Role(role.String()), logger.Error(err))
		return nil, err
	}

	b.mu.Lock()
	b.entries[key] = cacheEntry{
		creds:     creds,
		expiresAt: b.now().Add(b.sessionDuration - b.safetyMargin),
		tenantID:  tenantID,
		role:      role,
	}
	b.mu.Unlock()

	return creds, nil
}

// sweepIfFull purges entries already past expiry once the cache has
// reached its size bound, making room before the next insert.
func (b *Broker) sweepIfFull() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) < b.maxCacheSize {
		return
	}
	now := b.now()
	for key, entry := range b.entries {
		if !entry.expiresAt.After(now) {
			delete(b.entries, key)
		}
	}
}

// Len reports the number of cached entries, expired or not.
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
