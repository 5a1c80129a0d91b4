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

package directory

import "time"

// Tier is the service class assigned at tenant registration. It selects
// both the isolation strategy (pooled vs dedicated collections) and the
// throttling strategy behind the tenant's rate-limit key.
type Tier string

const (
	TierBasic    Tier = "BASIC"
	TierStandard Tier = "STANDARD"
	TierPremium  Tier = "PREMIUM"
	TierPlatinum Tier = "PLATINUM"
)

// Dedicated reports whether the tier gets per-tenant dedicated
// collections instead of the shared pooled ones.
func (t Tier) Dedicated() bool {
	return t == TierPremium || t == TierPlatinum
}

// TenantRecord is the directory's view of a tenant. It is created by
// tenant provisioning and read-only from the gateway's perspective. The
// ID is immutable after creation.
type TenantRecord struct {
	ID           string
	Name         string
	PoolID       string // identity pool binding; empty falls back to the pooled configuration
	ClientID     string // app client within the pool; empty falls back likewise
	RateLimitKey string // opaque key the enforcing layer uses to pick a throttling policy
	Tier         Tier
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
