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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tenantgate/tenantgate/internal/directory"
)

// TenantRepository implements directory.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// GetTenant retrieves a tenant record by id. Absence is the business
// state directory.ErrTenantNotFound, not a storage fault.
func (r *TenantRepository) GetTenant(ctx context.Context, id string) (*directory.TenantRecord, error) {
	var record directory.TenantRecord
	var tier string
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, pool_id, client_id, rate_limit_key, tier, active, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`, id).Scan(
		&record.ID,
		&record.Name,
		&record.PoolID,
		&record.ClientID,
		&record.RateLimitKey,
		&tier,
		&record.Active,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, directory.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	record.Tier = directory.Tier(tier)
	return &record, nil
}
