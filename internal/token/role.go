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

import "fmt"

// Role is the closed set of caller roles the gateway recognises.
// Unknown role strings are rejected at classification time instead of
// being propagated downstream.
type Role string

const (
	// RoleSystemAdmin is the provider-system role. It bypasses tenant
	// scoping entirely and authenticates against the pooled identity pool.
	RoleSystemAdmin Role = "SystemAdmin"

	// RoleCustomerSupport is the provider-support role. Elevated like
	// SystemAdmin for identity-pool selection, but credential scoping
	// still applies.
	RoleCustomerSupport Role = "CustomerSupport"

	// RoleTenantAdmin administers a single tenant.
	RoleTenantAdmin Role = "TenantAdmin"

	// RoleTenantUser is a regular user within a tenant.
	RoleTenantUser Role = "TenantUser"
)

// ParseRole validates a raw role claim against the closed role set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleSystemAdmin, RoleCustomerSupport, RoleTenantAdmin, RoleTenantUser:
		return Role(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

// IsProvider reports whether the role belongs to the SaaS provider itself
// rather than to a tenant. Provider roles skip tenant directory resolution
// and use the pooled identity configuration.
func (r Role) IsProvider() bool {
	return r == RoleSystemAdmin || r == RoleCustomerSupport
}

// String returns the wire form of the role.
func (r Role) String() string {
	return string(r)
}
