package poolregistry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monadarb/go_monad_discovery/common/models"
)

func testRecord(address, symbol0, symbol1 string) models.PoolRecord {
	return models.PoolRecord{
		Address: address,
		Name:    symbol0 + "/" + symbol1,
		ChainID: 10143,
		Venue:   "uniswap_v3",
		Token0:  models.PoolSide{Symbol: symbol0, Decimals: 18},
		Token1:  models.PoolSide{Symbol: symbol1, Decimals: 6},
		TVLUSD:  100000,
	}
}

// mirrorRepo records every write-through call.
type mirrorRepo struct {
	mu       sync.Mutex
	preload  []models.PoolRecord
	setCalls []models.PoolRecord
}

func (m *mirrorRepo) GetPools(chainID uint) ([]models.PoolRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preload, nil
}

func (m *mirrorRepo) SetPool(record models.PoolRecord) error {
	m.mu.Lock()
	m.setCalls = append(m.setCalls, record)
	m.mu.Unlock()
	return nil
}

func (m *mirrorRepo) setPreload(records []models.PoolRecord) {
	m.mu.Lock()
	m.preload = records
	m.mu.Unlock()
}

func TestRegistryGetIsCaseInsensitive(t *testing.T) {
	registry, err := New(PoolRegistryConfig{ChainID: 10143}, PoolRegistryDependencies{})
	require.NoError(t, err)

	registry.Set(testRecord("0xAbCd000000000000000000000000000000000001", "WMON", "USDC"))

	_, ok := registry.Get("0xabcd000000000000000000000000000000000001")
	assert.True(t, ok)
	_, ok = registry.Get("0xABCD000000000000000000000000000000000001")
	assert.True(t, ok)
}

func TestRegistryPairLookupIsOrderInsensitive(t *testing.T) {
	registry, err := New(PoolRegistryConfig{ChainID: 10143}, PoolRegistryDependencies{})
	require.NoError(t, err)

	registry.Set(testRecord("0x0000000000000000000000000000000000000001", "WMON", "USDC"))

	assert.True(t, registry.HasPair("WMON", "USDC"))
	assert.True(t, registry.HasPair("USDC", "WMON"))
	assert.False(t, registry.HasPair("WMON", "CHOG"))

	record, ok := registry.GetByPair("USDC", "WMON")
	require.True(t, ok)
	assert.Equal(t, "WMON/USDC", record.Name)
}

func TestRegistryEvictsOldestAtCapacity(t *testing.T) {
	registry, err := New(PoolRegistryConfig{ChainID: 10143, MaxEntries: 3}, PoolRegistryDependencies{})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		address := fmt.Sprintf("0x%040d", i)
		registry.Set(testRecord(address, fmt.Sprintf("TK%d", i), "USDC"))
	}

	assert.Equal(t, 3, registry.Len())

	_, ok := registry.Get(fmt.Sprintf("0x%040d", 0))
	assert.False(t, ok, "oldest insertion must be gone")
	_, ok = registry.Get(fmt.Sprintf("0x%040d", 4))
	assert.True(t, ok)

	assert.False(t, registry.HasPair("TK0", "USDC"))
	assert.True(t, registry.HasPair("TK4", "USDC"))
}

func TestRegistryUpdateDoesNotEvict(t *testing.T) {
	registry, err := New(PoolRegistryConfig{ChainID: 10143, MaxEntries: 2}, PoolRegistryDependencies{})
	require.NoError(t, err)

	registry.Set(testRecord("0x0000000000000000000000000000000000000001", "WMON", "USDC"))
	registry.Set(testRecord("0x0000000000000000000000000000000000000002", "CHOG", "WMON"))

	updated := testRecord("0x0000000000000000000000000000000000000001", "WMON", "USDC")
	updated.TVLUSD = 250000
	registry.Set(updated)

	assert.Equal(t, 2, registry.Len())
	record, ok := registry.Get("0x0000000000000000000000000000000000000001")
	require.True(t, ok)
	assert.InDelta(t, 250000, record.TVLUSD, 1e-9)
}

func TestRegistryMirrorsWrites(t *testing.T) {
	mirror := &mirrorRepo{}
	registry, err := New(PoolRegistryConfig{ChainID: 10143}, PoolRegistryDependencies{CacheRepo: mirror})
	require.NoError(t, err)

	registry.Set(testRecord("0x0000000000000000000000000000000000000001", "WMON", "USDC"))

	require.Len(t, mirror.setCalls, 1)
	assert.Equal(t, "WMON/USDC", mirror.setCalls[0].Name)
}

func TestRegistryPreloadsFromCache(t *testing.T) {
	mirror := &mirrorRepo{preload: []models.PoolRecord{
		testRecord("0x0000000000000000000000000000000000000009", "SHMON", "WMON"),
	}}

	registry, err := New(PoolRegistryConfig{ChainID: 10143}, PoolRegistryDependencies{CacheRepo: mirror})
	require.NoError(t, err)

	assert.Equal(t, 1, registry.Len())
	assert.True(t, registry.HasPair("SHMON", "WMON"))
	// the preload itself must not be written back
	assert.Empty(t, mirror.setCalls)
}

func TestRegistryReloadMergesNewCacheRecords(t *testing.T) {
	mirror := &mirrorRepo{}
	registry, err := New(PoolRegistryConfig{ChainID: 10143}, PoolRegistryDependencies{CacheRepo: mirror})
	require.NoError(t, err)

	local := testRecord("0x0000000000000000000000000000000000000001", "WMON", "USDC")
	registry.Set(local)

	// another process mirrored one record we already have and one we do not
	stale := local
	stale.TVLUSD = 1
	mirror.setPreload([]models.PoolRecord{
		stale,
		testRecord("0x0000000000000000000000000000000000000002", "CHOG", "WMON"),
	})

	added, err := registry.Reload()
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	assert.Equal(t, 2, registry.Len())
	assert.True(t, registry.HasPair("CHOG", "WMON"))

	record, ok := registry.Get("0x0000000000000000000000000000000000000001")
	require.True(t, ok)
	assert.InDelta(t, 100000, record.TVLUSD, 1e-9, "local record stays authoritative")

	// merged records must not bounce back into the cache
	require.Len(t, mirror.setCalls, 1)
	assert.Equal(t, "WMON/USDC", mirror.setCalls[0].Name)
}

func TestRegistryReloadWithoutCacheIsNoop(t *testing.T) {
	registry, err := New(PoolRegistryConfig{ChainID: 10143}, PoolRegistryDependencies{})
	require.NoError(t, err)

	added, err := registry.Reload()
	require.NoError(t, err)
	assert.Equal(t, 0, added)
}

func TestSnapshotFollowsInsertionOrder(t *testing.T) {
	registry, err := New(PoolRegistryConfig{ChainID: 10143}, PoolRegistryDependencies{})
	require.NoError(t, err)

	registry.Set(testRecord("0x0000000000000000000000000000000000000001", "WMON", "USDC"))
	registry.Set(testRecord("0x0000000000000000000000000000000000000002", "CHOG", "WMON"))

	snapshot := registry.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "WMON/USDC", snapshot[0].Name)
	assert.Equal(t, "CHOG/WMON", snapshot[1].Name)
}

func TestWhaleThreshold(t *testing.T) {
	assert.InDelta(t, 50, WhaleThreshold(0), 1e-9)
	assert.InDelta(t, 50, WhaleThreshold(5000), 1e-9)
	assert.InDelta(t, 500, WhaleThreshold(100000), 1e-9)
}

func TestRegistryTrackedPoolSet(t *testing.T) {
	registry, err := New(PoolRegistryConfig{ChainID: 10143}, PoolRegistryDependencies{})
	require.NoError(t, err)

	wmonToken := models.PoolSide{Symbol: "WMON", Decimals: 18}
	usdcToken := models.PoolSide{Symbol: "USDC", Decimals: 6}
	registry.Set(models.PoolRecord{
		Address: "0x065C9d28E428A0db40191a54d33d5b7c71a9C394",
		Name:    "WMON/USDC (Kuru)",
		ChainID: 10143,
		Venue:   "kuru",
		Token0:  wmonToken,
		Token1:  usdcToken,
		TVLUSD:  0,
	})

	record, ok := registry.Get("0x065c9d28e428a0db40191a54d33d5b7c71a9c394")
	require.True(t, ok)
	assert.Equal(t, "kuru", record.Venue)
}
