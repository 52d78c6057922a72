package scannerservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/monadarb/go_monad_discovery/common/models"
	"github.com/monadarb/go_monad_discovery/common/repo/poolregistry"
	"github.com/monadarb/go_monad_discovery/services/scannerservice/src/scannererrors"
)

type fakeEngine struct {
	mu    sync.Mutex
	scans int
	err   error
}

func (e *fakeEngine) Scan(ctx context.Context) (models.ScanResult, error) {
	e.mu.Lock()
	e.scans++
	e.mu.Unlock()

	if e.err != nil {
		return models.ScanResult{}, e.err
	}
	return models.ScanResult{TotalScanned: 3, Count: 1, Best: &models.Opportunity{
		Strategy:     models.STRATEGY_SPATIAL,
		Path:         []string{"WMON", "USDC", "WMON"},
		NetProfitUSD: 1.2,
	}}, nil
}

func (e *fakeEngine) scanCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scans
}

type fakeSubgraph struct {
	seeds []models.PoolRecord
	err   error
}

func (s *fakeSubgraph) GetPoolSeeds(ctx context.Context, chainID uint) ([]models.PoolRecord, error) {
	return s.seeds, s.err
}

// fakePoolCache plays the redis mirror; the first GetPools call is the
// registry preload, later calls stand in for another process's writes.
type fakePoolCache struct {
	mu      sync.Mutex
	calls   int
	records []models.PoolRecord
}

func (c *fakePoolCache) GetPools(chainID uint) ([]models.PoolRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.calls == 1 {
		return nil, nil
	}
	return c.records, nil
}

func (c *fakePoolCache) SetPool(record models.PoolRecord) error {
	return nil
}

func newTestRegistry(t *testing.T) poolregistry.PoolRegistry {
	t.Helper()

	registry, err := poolregistry.New(poolregistry.PoolRegistryConfig{ChainID: 10143}, poolregistry.PoolRegistryDependencies{})
	require.NoError(t, err)
	return registry
}

func TestStartSeedsRegistryAndScans(t *testing.T) {
	engine := &fakeEngine{}
	registry := newTestRegistry(t)
	subgraph := &fakeSubgraph{seeds: []models.PoolRecord{{
		Address: "0x0000000000000000000000000000000000000001",
		Name:    "WMON/USDC",
		ChainID: 10143,
		Token0:  models.PoolSide{Symbol: "WMON", Decimals: 18},
		Token1:  models.PoolSide{Symbol: "USDC", Decimals: 6},
	}}}

	scanner, err := New(ScannerServiceConfig{
		ChainID:      10143,
		ScanInterval: 10 * time.Millisecond,
	}, ScannerServiceDependencies{
		Engine:   engine,
		Registry: registry,
		Subgraph: subgraph,
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err = scanner.Start(ctx)
	assert.ErrorIs(t, err, scannererrors.ErrCtxDone)

	assert.Equal(t, 1, registry.Len())
	assert.GreaterOrEqual(t, engine.scanCount(), 2, "initial scan plus at least one tick")
}

func TestStartPicksUpMirroredPoolsBetweenScans(t *testing.T) {
	cache := &fakePoolCache{records: []models.PoolRecord{{
		Address: "0x0000000000000000000000000000000000000007",
		Name:    "CHOG/WMON (0.3%)",
		ChainID: 10143,
		Venue:   "uniswap_v3",
		Token0:  models.PoolSide{Symbol: "CHOG", Decimals: 18},
		Token1:  models.PoolSide{Symbol: "WMON", Decimals: 18},
	}}}

	registry, err := poolregistry.New(
		poolregistry.PoolRegistryConfig{ChainID: 10143},
		poolregistry.PoolRegistryDependencies{CacheRepo: cache},
	)
	require.NoError(t, err)
	require.Equal(t, 0, registry.Len())

	scanner, err := New(ScannerServiceConfig{
		ChainID:      10143,
		ScanInterval: 10 * time.Millisecond,
	}, ScannerServiceDependencies{
		Engine:   &fakeEngine{},
		Registry: registry,
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err = scanner.Start(ctx)
	assert.ErrorIs(t, err, scannererrors.ErrCtxDone)

	assert.True(t, registry.HasPair("CHOG", "WMON"), "pool mirrored by another process must become visible")
	assert.Equal(t, 1, registry.Len())
}

func TestStartContinuesWithoutSubgraph(t *testing.T) {
	engine := &fakeEngine{}

	scanner, err := New(ScannerServiceConfig{ChainID: 10143, ScanInterval: 5 * time.Millisecond}, ScannerServiceDependencies{
		Engine:   engine,
		Registry: newTestRegistry(t),
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err = scanner.Start(ctx)
	assert.ErrorIs(t, err, scannererrors.ErrCtxDone)
	assert.GreaterOrEqual(t, engine.scanCount(), 1)
}

func TestScanOnceSwallowsEngineErrors(t *testing.T) {
	engine := &fakeEngine{err: errors.New("rpc down")}

	scanner, err := New(ScannerServiceConfig{ChainID: 10143}, ScannerServiceDependencies{
		Engine:   engine,
		Registry: newTestRegistry(t),
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)

	assert.NoError(t, scanner.ScanOnce(context.Background()))
}

func TestNewValidatesDependencies(t *testing.T) {
	_, err := New(ScannerServiceConfig{}, ScannerServiceDependencies{})
	assert.ErrorIs(t, err, scannererrors.ErrNilEngine)

	_, err = New(ScannerServiceConfig{}, ScannerServiceDependencies{Engine: &fakeEngine{}})
	assert.ErrorIs(t, err, scannererrors.ErrNilRegistry)
}
