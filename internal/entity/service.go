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

package entity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tenantgate/tenantgate/internal/shard"
)

// ErrPartitionOutsideTenant guards the application-level mirror of the
// leading-key policy condition: no operation may touch a partition that
// does not begin with the caller's tenant identifier.
var ErrPartitionOutsideTenant = fmt.Errorf("partition key outside tenant scope")

// Service provides tenant-scoped access to pooled collections.
type Service struct {
	repo   Repository
	scheme *shard.Scheme
}

// NewService creates an entity service over the given store and shard
// scheme. The scheme must be the same one the policy generator's range
// assumptions are configured from.
func NewService(repo Repository, scheme *shard.Scheme) *Service {
	if scheme == nil {
		scheme = shard.DefaultScheme()
	}
	return &Service{repo: repo, scheme: scheme}
}

// Create stores a new item on a freshly assigned shard and returns the
// item along with its opaque composite key.
func (s *Service) Create(ctx context.Context, tenantID, collection, name string, attrs map[string]any) (*Item, string, error) {
	if tenantID == "" {
		return nil, "", fmt.Errorf("tenant id is required")
	}

	now := time.Now()
	item := &Item{
		PartitionKey: s.scheme.Assign(tenantID),
		ItemID:       uuid.NewString(),
		Collection:   collection,
		Name:         name,
		Attributes:   attrs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, item); err != nil {
		return nil, "", fmt.Errorf("failed to store item: %w", err)
	}
	return item, shard.JoinItemKey(item.PartitionKey, item.ItemID), nil
}

// GetByKey resolves an opaque composite key back to partition and item
// identifiers and fetches the item.
func (s *Service) GetByKey(ctx context.Context, tenantID, key string) (*Item, error) {
	partition, itemID, err := shard.SplitItemKey(key)
	if err != nil {
		return nil, err
	}
	if err := s.guardPartition(tenantID, partition); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, partition, itemID)
}

// UpdateByKey updates an item's attributes in place.
func (s *Service) UpdateByKey(ctx context.Context, tenantID, key string, attrs map[string]any) (*Item, error) {
	partition, itemID, err := shard.SplitItemKey(key)
	if err != nil {
		return nil, err
	}
	if err := s.guardPartition(tenantID, partition); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, partition, itemID, attrs)
}

// DeleteByKey removes an item.
func (s *Service) DeleteByKey(ctx context.Context, tenantID, key string) error {
	partition, itemID, err := shard.SplitItemKey(key)
	if err != nil {
		return err
	}
	if err := s.guardPartition(tenantID, partition); err != nil {
		return err
	}
	return s.repo.Delete(ctx, partition, itemID)
}

// ListForTenant fans a tenant-wide read out over every shard in the
// scheme's range. Because Assign draws from the same range, a freshly
// created item's partition is always covered.
func (s *Service) ListForTenant(ctx context.Context, tenantID, collection string) ([]*Item, error) {
	var items []*Item
	for _, partition := range s.scheme.AllShards(tenantID) {
		batch, err := s.repo.QueryByPartition(ctx, collection, partition)
		if err != nil {
			return nil, fmt.Errorf("failed to query partition %s: %w", partition, err)
		}
		items = append(items, batch...)
	}
	return items, nil
}

func (s *Service) guardPartition(tenantID, partition string) error {
	if tenantID == "" || !strings.HasPrefix(partition, tenantID+"-") {
		return fmt.Errorf("%w: %q", ErrPartitionOutsideTenant, partition)
	}
	return nil
}
