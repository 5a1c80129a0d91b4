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

// Package entity is the pooled-store data accessor. It consumes the
// shard-key scheme the same way every downstream data path must: shards
// are assigned once at creation time, tenant-wide reads fan out over the
// full shard range, and composite keys decompose deterministically.
package entity

import (
	"context"
	"errors"
	"time"
)

var ErrItemNotFound = errors.New("item not found")

// Pooled collections
const (
	CollectionProducts = "products"
	CollectionOrders   = "orders"
)

// Item is one entity in a pooled collection. PartitionKey is the shard
// key assigned at creation and never changes for the item's lifetime.
type Item struct {
	PartitionKey string         `json:"partition_key"`
	ItemID       string         `json:"item_id"`
	Collection   string         `json:"collection"`
	Name         string         `json:"name"`
	Attributes   map[string]any `json:"attributes"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Repository defines the interface for pooled item storage
type Repository interface {
	Put(ctx context.Context, item *Item) error
	Get(ctx context.Context, partitionKey, itemID string) (*Item, error)
	Update(ctx context.Context, partitionKey, itemID string, attrs map[string]any) (*Item, error)
	Delete(ctx context.Context, partitionKey, itemID string) error
	QueryByPartition(ctx context.Context, collection, partitionKey string) ([]*Item, error)
}
