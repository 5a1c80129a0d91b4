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

import "github.com/tenantgate/tenantgate/internal/token"

// ExecutionContext is the opaque context handed to downstream services on
// an allow decision. Credential fields are present only when scoping
// succeeded.
type ExecutionContext struct {
	TenantID string
	Role     token.Role
	Username string
	PoolID   string

	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Scoped reports whether the context carries scoped credentials.
func (c ExecutionContext) Scoped() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != "" && c.SessionToken != ""
}

// Map renders the context in the wire form consumed by the enforcing
// gateway layer.
func (c ExecutionContext) Map() map[string]string {
	m := map[string]string{
		"tenantId": c.TenantID,
		"userRole": c.Role.String(),
		"userName": c.Username,
		"poolId":   c.PoolID,
	}
	if c.Scoped() {
		m["accessKeyId"] = c.AccessKeyID
		m["secretAccessKey"] = c.SecretAccessKey
		m["sessionToken"] = c.SessionToken
	}
	return m
}

// Decision is the assembler's output: coarse-grained access to the whole
// upstream API plus the rate-limit identity key the enforcing layer uses
// to select a throttling policy. Fine-grained authorization, if any, is a
// downstream concern.
type Decision struct {
	Allow        bool
	PrincipalID  string
	RateLimitKey string
	Context      ExecutionContext
}
