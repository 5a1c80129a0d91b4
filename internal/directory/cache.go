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

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tenantgate/tenantgate/internal/observability/logger"
)

// DefaultTTL keeps directory entries fresh enough that tier or rate-limit
// key changes propagate within minutes without redeploying the gateway.
const DefaultTTL = 5 * time.Minute

type cachedEntry struct {
	record    *TenantRecord
	expiresAt time.Time
}

// Cache is the TTL-bounded tenant directory cache. Entries are never
// served past expiry; a miss re-fetches from the repository and
// overwrites the entry, last write wins. The underlying record is
// immutable per fetch, so overlapping fetches are safe.
type Cache struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedEntry
	group   singleflight.Group
}

// NewCache creates a directory cache over the authoritative store. A
// non-positive ttl falls back to DefaultTTL.
func NewCache(repo Repository, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		repo:    repo,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedEntry),
	}
}

// Resolve returns the tenant record for the given id, from cache when an
// unexpired entry exists, otherwise via a point lookup. ErrTenantNotFound
// is a legitimate business state and must map to an authorization denial,
// never a server error. Concurrent misses on the same id collapse into a
// single fetch.
func (c *Cache) Resolve(ctx context.Context, tenantID string) (*TenantRecord, error) {
	if tenantID == "" {
		return nil, ErrTenantNotFound
	}

	c.mu.RLock()
	entry, ok := c.entries[tenantID]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		slog.DebugContext(ctx, "tenant cache hit", logger.TenantID(tenantID))
		return entry.record, nil
	}

	slog.DebugContext(ctx, "tenant cache miss", logger.TenantID(tenantID))
	v, err, _ := c.group.Do(tenantID, func() (any, error) {
		record, err := c.repo.GetTenant(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[tenantID] = cachedEntry{record: record, expiresAt: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return record, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TenantRecord), nil
}

// Invalidate drops a tenant's cached entry, forcing the next Resolve to
// hit the store.
func (c *Cache) Invalidate(tenantID string) {
	c.mu.Lock()
	delete(c.entries, tenantID)
	c.mu.Unlock()
}

// Len reports the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
