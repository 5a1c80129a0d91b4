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

package verifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Config holds the URL conventions that turn a pool identifier into an
// issuer and a JWKS endpoint. Templates use a "{pool}" placeholder.
type Config struct {
	IssuerURLTemplate string
	JWKSURLTemplate   string
	ClockSkew         time.Duration
}

// Registry hands out at most one Verifier per (pool, client) binding for
// the life of the process. Entries never expire: pool/client bindings are
// stable, and key rotation is absorbed by the shared JWKS cache, so
// re-resolving registry entries would add latency for no security gain.
// A changed binding is a new key, hence a new entry.
type Registry struct {
	cfg  Config
	keys *jwk.Cache

	mu        sync.Mutex
	verifiers map[string]*Verifier
}

// NewRegistry creates a verifier registry. The context bounds the
// lifetime of the background JWKS refresh machinery.
func NewRegistry(ctx context.Context, cfg Config) *Registry {
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = DefaultClockSkew
	}
	return &Registry{
		cfg:       cfg,
		keys:      jwk.NewCache(ctx),
		verifiers: make(map[string]*Verifier),
	}
}

// GetOrCreate returns the verifier for the exact (poolID, clientID) key,
// constructing and registering one unconditionally on first use.
func (r *Registry) GetOrCreate(poolID, clientID string) (*Verifier, error) {
	key := poolID + ":" + clientID

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.verifiers[key]; ok {
		return v, nil
	}

	jwksURL := expandPool(r.cfg.JWKSURLTemplate, poolID)
	if err := r.keys.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("failed to register jwks endpoint: %w", err)
	}

	v := &Verifier{
		poolID:    poolID,
		clientID:  clientID,
		issuer:    expandPool(r.cfg.IssuerURLTemplate, poolID),
		jwksURL:   jwksURL,
		keys:      r.keys,
		clockSkew: r.cfg.ClockSkew,
	}
	r.verifiers[key] = v
	return v, nil
}

// Len reports the number of live verifier entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.verifiers)
}
