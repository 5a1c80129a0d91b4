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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tenantgate/tenantgate/internal/entity"
)

// ItemRepository implements entity.Repository over the pooled_items table
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new pooled item repository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Put stores an item under its (partition_key, item_id) composite key.
func (r *ItemRepository) Put(ctx context.Context, item *entity.Item) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO pooled_items (partition_key, item_id, collection, name, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (partition_key, item_id)
		DO UPDATE SET name = EXCLUDED.name, attributes = EXCLUDED.attributes, updated_at = EXCLUDED.updated_at
	`, item.PartitionKey, item.ItemID, item.Collection, item.Name, item.Attributes, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

// Get fetches a single item by its composite key.
func (r *ItemRepository) Get(ctx context.Context, partitionKey, itemID string) (*entity.Item, error) {
	item, err := r.scanOne(r.db.pool.QueryRow(ctx, `
		SELECT partition_key, item_id, collection, name, attributes, created_at, updated_at
		FROM pooled_items
		WHERE partition_key = $1 AND item_id = $2
	`, partitionKey, itemID))
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update merges attributes into an existing item.
func (r *ItemRepository) Update(ctx context.Context, partitionKey, itemID string, attrs map[string]any) (*entity.Item, error) {
	item, err := r.scanOne(r.db.pool.QueryRow(ctx, `
		UPDATE pooled_items
		SET attributes = attributes || $3, updated_at = $4
		WHERE partition_key = $1 AND item_id = $2
		RETURNING partition_key, item_id, collection, name, attributes, created_at, updated_at
	`, partitionKey, itemID, attrs, time.Now()))
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an item by its composite key.
func (r *ItemRepository) Delete(ctx context.Context, partitionKey, itemID string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM pooled_items
		WHERE partition_key = $1 AND item_id = $2
	`, partitionKey, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrItemNotFound
	}
	return nil
}

// QueryByPartition returns every item of a collection within one shard.
func (r *ItemRepository) QueryByPartition(ctx context.Context, collection, partitionKey string) ([]*entity.Item, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT partition_key, item_id, collection, name, attributes, created_at, updated_at
		FROM pooled_items
		WHERE collection = $1 AND partition_key = $2
	`, collection, partitionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query partition: %w", err)
	}
	defer rows.Close()

	var items []*entity.Item
	for rows.Next() {
		var item entity.Item
		if err := rows.Scan(
			&item.PartitionKey,
			&item.ItemID,
			&item.Collection,
			&item.Name,
			&item.Attributes,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ItemRepository) scanOne(row rowScanner) (*entity.Item, error) {
	var item entity.Item
	err := row.Scan(
		&item.PartitionKey,
		&item.ItemID,
		&item.Collection,
		&item.Name,
		&item.Attributes,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	return &item, nil
}
