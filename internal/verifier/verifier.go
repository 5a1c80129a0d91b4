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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/tenantgate/tenantgate/internal/observability/logger"
	"github.com/tenantgate/tenantgate/internal/token"
)

// ErrVerificationFailed is the single verification outcome exposed to
// callers. Signature, lifetime, issuer and audience failures all collapse
// into it so that nothing outside this package can distinguish which
// check failed.
var ErrVerificationFailed = errors.New("token verification failed")

// DefaultClockSkew tolerates small clock drift between the identity
// provider and the gateway when validating token lifetimes.
const DefaultClockSkew = 60 * time.Second

// Verifier verifies bearer tokens against one (pool, client) identity
// binding. Signing-key material is fetched lazily through the shared JWKS
// cache and refreshed there on its own schedule; the Verifier itself
// never expires.
type Verifier struct {
	poolID    string
	clientID  string
	issuer    string
	jwksURL   string
	keys      *jwk.Cache
	clockSkew time.Duration
}

// Verify checks the token's signature, lifetime, issuer and audience.
// On success it returns the verified claims; these, not the decoded ones,
// are the trust anchor for everything downstream.
func (v *Verifier) Verify(ctx context.Context, raw string) (*token.Claims, error) {
	set, err := v.keys.Get(ctx, v.jwksURL)
	if err != nil {
		slog.ErrorContext(ctx, "jwks fetch failed",
			logger.PoolID(v.poolID), logger.Error(err))
		return nil, fmt.Errorf("%w: key material unavailable", ErrVerificationFailed)
	}

	_, err = jwt.Parse([]byte(raw),
		jwt.WithKeySet(set),
		jwt.WithVerify(true),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.clientID),
		jwt.WithAcceptableSkew(v.clockSkew),
	)
	if err != nil {
		slog.WarnContext(ctx, "token verification failed",
			logger.PoolID(v.poolID), logger.ClientID(v.clientID), logger.Error(err))
		return nil, ErrVerificationFailed
	}

	claims, err := token.Decode(raw)
	if err != nil {
		return nil, ErrVerificationFailed
	}
	return claims, nil
}

// PoolID returns the identity pool this verifier is bound to.
func (v *Verifier) PoolID() string { return v.poolID }

// expandPool substitutes the pool placeholder in a URL template.
func expandPool(template, poolID string) string {
	return strings.ReplaceAll(template, "{pool}", poolID)
}
