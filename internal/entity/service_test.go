package entity

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tenantgate/tenantgate/internal/shard"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Put(ctx context.Context, item *Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *mockRepo) Get(ctx context.Context, partitionKey, itemID string) (*Item, error) {
	args := m.Called(ctx, partitionKey, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, partitionKey, itemID string, attrs map[string]any) (*Item, error) {
	args := m.Called(ctx, partitionKey, itemID, attrs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, partitionKey, itemID string) error {
	args := m.Called(ctx, partitionKey, itemID)
	return args.Error(0)
}

func (m *mockRepo) QueryByPartition(ctx context.Context, collection, partitionKey string) ([]*Item, error) {
	args := m.Called(ctx, collection, partitionKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Item), args.Error(1)
}

// TestPurpose: Validates item creation assigns a shard within the scheme's range and returns a decomposable key.
// Scope: Unit Test
// Expected: The stored partition key belongs to the tenant's fan-out set and the returned key splits back to it.
// Test Case ID: ENT-01
func TestEntity_Service_CreateAssignsShard(t *testing.T) {
	repo := new(mockRepo)
	scheme := shard.NewScheme(1, 11)
	service := NewService(repo, scheme)
	ctx := context.Background()

	members := make(map[string]bool)
	for _, s := range scheme.AllShards("tenant-a") {
		members[s] = true
	}

	repo.On("Put", ctx, mock.MatchedBy(func(item *Item) bool {
		if !members[item.PartitionKey] {
			return false
		}
		_, err := uuid.Parse(item.ItemID)
		return err == nil && item.Collection == CollectionProducts
	})).Return(nil)

	item, key, err := service.Create(ctx, "tenant-a", CollectionProducts, "Widget", map[string]any{"price": 10})
	require.NoError(t, err)

	partition, itemID, err := shard.SplitItemKey(key)
	require.NoError(t, err)
	assert.Equal(t, item.PartitionKey, partition)
	assert.Equal(t, item.ItemID, itemID)
	repo.AssertExpectations(t)
}

// TestPurpose: Validates that creation without a tenant id is rejected before any store write.
// Scope: Unit Test
// Expected: An error and no repository call.
// Test Case ID: ENT-02
func TestEntity_Service_CreateRequiresTenant(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, nil)

	_, _, err := service.Create(context.Background(), "", CollectionProducts, "Widget", nil)
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Put")
}

// TestPurpose: Validates the application-level mirror of the leading-key condition on reads.
// Scope: Unit Test
// Security: A key pointing into another tenant's partition must fail without touching the store.
// Expected: ErrPartitionOutsideTenant for foreign partitions; the repository is never consulted.
// Test Case ID: ENT-03
func TestEntity_Service_GuardsForeignPartition(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, nil)
	ctx := context.Background()

	foreignKey := shard.JoinItemKey("tenant-b-3", "item-1")

	_, err := service.GetByKey(ctx, "tenant-a", foreignKey)
	assert.ErrorIs(t, err, ErrPartitionOutsideTenant)

	_, err = service.UpdateByKey(ctx, "tenant-a", foreignKey, map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrPartitionOutsideTenant)

	err = service.DeleteByKey(ctx, "tenant-a", foreignKey)
	assert.ErrorIs(t, err, ErrPartitionOutsideTenant)

	repo.AssertNotCalled(t, "Get")
	repo.AssertNotCalled(t, "Update")
	repo.AssertNotCalled(t, "Delete")
}

// TestPurpose: Validates that a tenant prefix match must be on a full partition segment, not a string prefix.
// Scope: Unit Test
// Security: tenant "ten" must not reach partitions of tenant "tenant".
// Expected: ErrPartitionOutsideTenant for the prefix-overlapping tenant id.
// Test Case ID: ENT-04
func TestEntity_Service_GuardPrefixOverlap(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, nil)

	_, err := service.GetByKey(context.Background(), "tenant", shard.JoinItemKey("tenantother-1", "item-1"))
	assert.ErrorIs(t, err, ErrPartitionOutsideTenant)
}

// TestPurpose: Validates key decomposition and fetch on the read path.
// Scope: Unit Test
// Expected: The repository is queried with the split partition and item identifiers.
// Test Case ID: ENT-05
func TestEntity_Service_GetByKey(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, nil)
	ctx := context.Background()

	stored := &Item{PartitionKey: "tenant-a-3", ItemID: "item-1", Collection: CollectionOrders}
	repo.On("Get", ctx, "tenant-a-3", "item-1").Return(stored, nil).Once()

	item, err := service.GetByKey(ctx, "tenant-a", shard.JoinItemKey("tenant-a-3", "item-1"))
	require.NoError(t, err)
	assert.Same(t, stored, item)

	_, err = service.GetByKey(ctx, "tenant-a", "malformed")
	assert.ErrorIs(t, err, shard.ErrInvalidKeyFormat)
	repo.AssertExpectations(t)
}

// TestPurpose: Validates that tenant-wide listing fans out over every shard in the scheme's range.
// Scope: Unit Test
// Expected: One query per shard and a merged result set.
// Test Case ID: ENT-06
func TestEntity_Service_ListFansOutAllShards(t *testing.T) {
	repo := new(mockRepo)
	scheme := shard.NewScheme(1, 4)
	service := NewService(repo, scheme)
	ctx := context.Background()

	repo.On("QueryByPartition", ctx, CollectionProducts, "tenant-a-1").
		Return([]*Item{{PartitionKey: "tenant-a-1", ItemID: "i1"}}, nil).Once()
	repo.On("QueryByPartition", ctx, CollectionProducts, "tenant-a-2").
		Return([]*Item{}, nil).Once()
	repo.On("QueryByPartition", ctx, CollectionProducts, "tenant-a-3").
		Return([]*Item{{PartitionKey: "tenant-a-3", ItemID: "i2"}, {PartitionKey: "tenant-a-3", ItemID: "i3"}}, nil).Once()

	items, err := service.ListForTenant(ctx, "tenant-a", CollectionProducts)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, item := range items {
		assert.True(t, strings.HasPrefix(item.PartitionKey, "tenant-a-"))
	}
	repo.AssertExpectations(t)
}
