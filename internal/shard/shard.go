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

// Package shard implements the partition-key convention shared by the
// authorizer and every pooled-store data accessor. A tenant's entities are
// spread over a fixed small range of partitions ("<tenantID>-<suffix>") to
// bound hot-key risk, while the leading-key policy condition keeps a
// tenant's scoped credentials inside its own partitions.
package shard

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

var ErrInvalidKeyFormat = errors.New("invalid composite item key")

const (
	// Default suffix range, start inclusive, end exclusive.
	DefaultRangeStart = 1
	DefaultRangeEnd   = 11

	itemKeySeparator = ":"
)

// Scheme maps tenant identifiers to partition keys. Assign and AllShards
// MUST draw from the same range: a write assigned outside the fan-out
// range is invisible to tenant-wide reads.
type Scheme struct {
	start int
	end   int
}

// NewScheme creates a scheme over [start, end). Invalid ranges fall back
// to the defaults rather than producing an empty fan-out.
func NewScheme(start, end int) *Scheme {
	if start < 0 || end <= start {
		start, end = DefaultRangeStart, DefaultRangeEnd
	}
	return &Scheme{start: start, end: end}
}

// DefaultScheme returns the scheme used when no range is configured.
func DefaultScheme() *Scheme {
	return NewScheme(DefaultRangeStart, DefaultRangeEnd)
}

// Assign picks a partition key for a new entity. The key is chosen once,
// at creation time, and stored with the entity for its lifetime.
func (s *Scheme) Assign(tenantID string) string {
	suffix := s.start + rand.Intn(s.end-s.start)
	return fmt.Sprintf("%s-%d", tenantID, suffix)
}

// AllShards enumerates every partition key a tenant-wide scan must fan
// out to. The range is identical to the one Assign draws from.
func (s *Scheme) AllShards(tenantID string) []string {
	keys := make([]string, 0, s.end-s.start)
	for i := s.start; i < s.end; i++ {
		keys = append(keys, fmt.Sprintf("%s-%d", tenantID, i))
	}
	return keys
}

// JoinItemKey builds the opaque composite key stored on an entity.
func JoinItemKey(partition, itemID string) string {
	return partition + itemKeySeparator + itemID
}

// SplitItemKey decomposes a composite key back into partition and item
// identifiers. A missing separator is a data-integrity error and fails
// the operation outright.
func SplitItemKey(key string) (partition, itemID string, err error) {
	partition, itemID, ok := strings.Cut(key, itemKeySeparator)
	if !ok || partition == "" || itemID == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKeyFormat, key)
	}
	return partition, itemID, nil
}
