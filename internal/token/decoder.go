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

package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	ErrMalformedHeader = errors.New("authorization header must be in format: Bearer <token>")
	ErrMalformedToken  = errors.New("token claims segment is not parseable")
	ErrUnknownRole     = errors.New("unknown role")
)

// Custom claim names carried by tenant identity pools, with plain
// fallbacks for tokens minted outside the provisioning flow.
const (
	claimTenantID         = "custom:tenantId"
	claimTenantIDFallback = "tenant_id"
	claimRole             = "custom:userRole"
	claimRoleFallback     = "role"
	claimUsername         = "cognito:username"
	claimUsernameFallback = "username"
)

// Claims is the structurally decoded body of a bearer token. Values are
// untrusted until the token has been verified against the identity pool;
// the decoded form exists only so the gateway can decide which pool to
// verify against. A forged tenant or role claim can only route
// verification to a pool the token will fail against, never make it
// succeed against the wrong one.
type Claims struct {
	Subject  string
	Username string
	TenantID string
	Role     Role
	Audience string
	Expiry   time.Time
}

// ParseAuthorizationHeader extracts the raw token from a "Bearer <token>"
// header value.
func ParseAuthorizationHeader(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMalformedHeader
	}
	return parts[1], nil
}

// Decode structurally parses the token body without verifying its
// signature or validating its lifetime. Expired tokens still decode; the
// verifier is the authority on token validity.
func Decode(raw string) (*Claims, error) {
	tok, err := jwt.ParseInsecure([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	rawRole := stringClaim(tok, claimRole, claimRoleFallback)
	role, err := ParseRole(rawRole)
	if err != nil {
		return nil, err
	}

	audience := ""
	if aud := tok.Audience(); len(aud) > 0 {
		audience = aud[0]
	}

	return &Claims{
		Subject:  tok.Subject(),
		Username: stringClaim(tok, claimUsername, claimUsernameFallback),
		TenantID: stringClaim(tok, claimTenantID, claimTenantIDFallback),
		Role:     role,
		Audience: audience,
		Expiry:   tok.Expiration(),
	}, nil
}

func stringClaim(tok jwt.Token, names ...string) string {
	for _, name := range names {
		if v, ok := tok.Get(name); ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
