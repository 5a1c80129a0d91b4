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

package policy

import "github.com/tenantgate/tenantgate/internal/token"

// Pooled collections shared across STANDARD/BASIC tenants, and the
// wildcard patterns for the dedicated per-tenant collections provisioned
// for PREMIUM/PLATINUM tiers.
var (
	pooledCollections = []string{
		"collection/products",
		"collection/orders",
	}
	dedicatedCollections = []string{
		"collection/products-*",
		"collection/orders-*",
	}
)

// Generate produces the least-privilege policy for a tenant/role pair.
// It is pure and deterministic: the same inputs always yield the same
// document, which is what makes brokered credentials cacheable by
// (tenant, role).
func Generate(tenantID string, role token.Role) Document {
	if role == token.RoleSystemAdmin {
		// Platform-operator flows get unconditioned read/write over every
		// collection. Never used on regular tenant paths.
		return Document{
			Version: DocumentVersion,
			Statements: []Statement{
				{
					Effect: "Allow",
					Actions: []string{
						ActionGetItem, ActionPutItem, ActionUpdateItem,
						ActionDeleteItem, ActionQuery, ActionScan,
					},
					Resources: []string{"collection/*"},
				},
			},
		}
	}

	resources := make([]string, 0, len(pooledCollections)+len(dedicatedCollections))
	resources = append(resources, pooledCollections...)
	resources = append(resources, dedicatedCollections...)

	return Document{
		Version: DocumentVersion,
		Statements: []Statement{
			{
				Effect: "Allow",
				Actions: []string{
					ActionGetItem, ActionPutItem, ActionUpdateItem,
					ActionDeleteItem, ActionQuery,
				},
				Resources: resources,
				Condition: &Condition{
					LeadingKeys: []string{tenantID + "-*"},
				},
			},
		},
	}
}
