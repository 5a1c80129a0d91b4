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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tenantgate/tenantgate/internal/policy"
)

// LocalIssuer mints structurally real credentials without an external
// credential service. It exists for the explicit local/dev configuration
// switch only; production wiring always uses HTTPIssuer, so isolation is
// never silently weakened by a fallback.
type LocalIssuer struct {
	signingSecret []byte
	now           func() time.Time
}

// NewLocalIssuer creates a dev-mode issuer signing session tokens with
// the given secret.
func NewLocalIssuer(signingSecret string) *LocalIssuer {
	return &LocalIssuer{
		signingSecret: []byte(signingSecret),
		now:           time.Now,
	}
}

// Issue derives deterministic keys from the session name and signs the
// policy into an HS256 session token, so downstream code exercises the
// same credential plumbing as in production.
func (l *LocalIssuer) Issue(ctx context.Context, doc policy.Document, sessionName string, duration time.Duration) (*ScopedCredentials, error) {
	policyJSON, err := doc.JSON()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}

	expiration := l.now().Add(duration)
	claims := jwt.MapClaims{
		"sub":    sessionName,
		"policy": policyJSON,
		"exp":    expiration.Unix(),
		"iat":    l.now().Unix(),
	}
	sessionToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.signingSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}

	keyMaterial := sha256.Sum256([]byte(sessionName))
	return &ScopedCredentials{
		AccessKeyID:     "LOCAL" + hex.EncodeToString(keyMaterial[:8]),
		SecretAccessKey: hex.EncodeToString(keyMaterial[8:24]),
		SessionToken:    sessionToken,
		Expiration:      expiration,
	}, nil
}
