package shard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates that shard assignment and shard enumeration draw from the same range.
// Scope: Unit Test
// Security: A write assigned outside the fan-out range would be invisible to tenant-wide reads.
// Expected: Every key Assign can produce appears in AllShards for the same tenant.
// Test Case ID: SHD-01
func TestShard_AssignWithinAllShards(t *testing.T) {
	scheme := NewScheme(1, 11)
	shards := scheme.AllShards("tenant-a")
	require.Len(t, shards, 10)

	members := make(map[string]bool, len(shards))
	for _, s := range shards {
		members[s] = true
	}

	// Assign is randomized; draw enough samples to cover the range.
	for i := 0; i < 500; i++ {
		key := scheme.Assign("tenant-a")
		assert.True(t, members[key], "assigned key %q outside fan-out range", key)
	}
}

// TestPurpose: Validates the partition key wire format tenant-<suffix> over the configured range.
// Scope: Unit Test
// Expected: AllShards enumerates tenant-1 through tenant-10 for the default range.
// Test Case ID: SHD-02
func TestShard_AllShardsFormat(t *testing.T) {
	scheme := DefaultScheme()
	shards := scheme.AllShards("t1")
	require.Len(t, shards, DefaultRangeEnd-DefaultRangeStart)
	for i, s := range shards {
		assert.Equal(t, fmt.Sprintf("t1-%d", DefaultRangeStart+i), s)
	}
}

// TestPurpose: Validates that invalid shard ranges fall back to the defaults instead of an empty fan-out.
// Scope: Unit Test
// Expected: Zero, inverted and negative ranges behave like the default scheme.
// Test Case ID: SHD-03
func TestShard_InvalidRangeFallsBack(t *testing.T) {
	for _, tc := range []struct{ start, end int }{
		{0, 0},
		{5, 5},
		{7, 3},
		{-2, 4},
	} {
		scheme := NewScheme(tc.start, tc.end)
		assert.Len(t, scheme.AllShards("x"), DefaultRangeEnd-DefaultRangeStart,
			"range [%d,%d)", tc.start, tc.end)
	}
}

// TestPurpose: Validates composite item key symmetry between join and split.
// Scope: Unit Test
// Expected: SplitItemKey(JoinItemKey(p, id)) returns p and id.
// Test Case ID: SHD-04
func TestShard_ItemKeyRoundTrip(t *testing.T) {
	key := JoinItemKey("tenant-a-3", "item-123")
	assert.Equal(t, "tenant-a-3:item-123", key)

	partition, itemID, err := SplitItemKey(key)
	require.NoError(t, err)
	assert.Equal(t, "tenant-a-3", partition)
	assert.Equal(t, "item-123", itemID)
}

// TestPurpose: Validates that item identifiers containing the separator survive the round trip.
// Scope: Unit Test
// Expected: Only the first separator splits; the rest stays in the item id.
// Test Case ID: SHD-05
func TestShard_ItemKeySeparatorInItemID(t *testing.T) {
	partition, itemID, err := SplitItemKey(JoinItemKey("t-1", "a:b:c"))
	require.NoError(t, err)
	assert.Equal(t, "t-1", partition)
	assert.Equal(t, "a:b:c", itemID)
}

// TestPurpose: Validates rejection of malformed composite keys.
// Scope: Unit Test
// Security: A key without a partition segment must fail the operation, not default to another partition.
// Expected: SplitItemKey returns ErrInvalidKeyFormat.
// Test Case ID: SHD-06
func TestShard_SplitItemKeyInvalid(t *testing.T) {
	for _, key := range []string{"", "no-separator", ":item", "partition:"} {
		_, _, err := SplitItemKey(key)
		assert.ErrorIs(t, err, ErrInvalidKeyFormat, "key %q", key)
	}
}
