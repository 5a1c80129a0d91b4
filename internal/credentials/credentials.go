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
	"errors"
	"time"

	"github.com/tenantgate/tenantgate/internal/policy"
)

// ErrIssuanceFailed signals that the external credential service was
// unavailable or rejected the exchange. It is the one transient,
// infrastructure-flavoured error in the gateway's taxonomy and the only
// one worth a bounded retry.
var ErrIssuanceFailed = errors.New("credential issuance failed")

// ScopedCredentials are short-lived credentials whose permissions were
// narrowed to one tenant's partitions by the policy they were exchanged
// for. They live only in process memory and are never persisted.
type ScopedCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
}

// Issuer exchanges a policy document for temporary scoped credentials.
type Issuer interface {
	Issue(ctx context.Context, doc policy.Document, sessionName string, duration time.Duration) (*ScopedCredentials, error)
}
