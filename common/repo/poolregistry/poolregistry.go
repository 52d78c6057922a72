package poolregistry

import (
	"strings"
	"sync"

	"github.com/monadarb/go_monad_discovery/common/models"
)

const defaultMaxEntries = 4096

// WhaleThreshold derives the whale cutoff for a pool from its TVL, 0.5%
// of the locked value with a floor of 50 USD.
func WhaleThreshold(tvlUSD float64) float64 {
	threshold := tvlUSD * 0.005
	if threshold < 50 {
		return 50
	}
	return threshold
}

// PoolRegistry is the process-wide map of discovered pools and markets.
// The sentinel writes into it while the scanner reads from it, so every
// access goes through a reader-writer lock.
type PoolRegistry interface {
	Get(address string) (models.PoolRecord, bool)
	GetByPair(symbolA, symbolB string) (models.PoolRecord, bool)
	HasPair(symbolA, symbolB string) bool
	Set(record models.PoolRecord)
	// Reload merges pools other processes have mirrored into the cache
	// since startup. Returns how many new records were picked up.
	Reload() (int, error)
	Snapshot() []models.PoolRecord
	Len() int
}

type PoolRegistryConfig struct {
	ChainID uint
	// MaxEntries bounds registry growth; the oldest insertion is evicted
	// once the cap is hit. Zero means the default cap.
	MaxEntries int
}

type PoolRegistryDependencies struct {
	// CacheRepo mirrors records into redis so discoveries survive restarts
	// and are visible across processes. Nil disables the mirror.
	CacheRepo PoolCacheRepo
}

type poolRegistry struct {
	mu sync.RWMutex

	chainID    uint
	maxEntries int

	records        map[string]models.PoolRecord
	insertionOrder []string
	pairIndex      map[string]string

	cacheRepo PoolCacheRepo
}

func New(config PoolRegistryConfig, dependencies PoolRegistryDependencies) (PoolRegistry, error) {
	maxEntries := config.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	registry := &poolRegistry{
		chainID:    config.ChainID,
		maxEntries: maxEntries,
		records:    map[string]models.PoolRecord{},
		pairIndex:  map[string]string{},
		cacheRepo:  dependencies.CacheRepo,
	}

	if registry.cacheRepo != nil {
		records, err := registry.cacheRepo.GetPools(config.ChainID)
		if err == nil {
			for _, record := range records {
				registry.setLocked(record, false)
			}
		}
	}

	return registry, nil
}

func pairKey(symbolA, symbolB string) string {
	if symbolA > symbolB {
		symbolA, symbolB = symbolB, symbolA
	}
	return symbolA + "/" + symbolB
}

func (r *poolRegistry) Get(address string) (models.PoolRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[strings.ToLower(address)]
	return record, ok
}

func (r *poolRegistry) GetByPair(symbolA, symbolB string) (models.PoolRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	address, ok := r.pairIndex[pairKey(symbolA, symbolB)]
	if !ok {
		return models.PoolRecord{}, false
	}

	record, ok := r.records[address]
	return record, ok
}

func (r *poolRegistry) HasPair(symbolA, symbolB string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.pairIndex[pairKey(symbolA, symbolB)]
	return ok
}

func (r *poolRegistry) Set(record models.PoolRecord) {
	r.mu.Lock()
	r.setLocked(record, true)
	r.mu.Unlock()
}

func (r *poolRegistry) Reload() (int, error) {
	if r.cacheRepo == nil {
		return 0, nil
	}

	records, err := r.cacheRepo.GetPools(r.chainID)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, record := range records {
		// local records stay authoritative, only unseen addresses merge in
		if _, exists := r.records[strings.ToLower(record.Address)]; exists {
			continue
		}
		r.setLocked(record, false)
		added++
	}

	return added, nil
}

func (r *poolRegistry) setLocked(record models.PoolRecord, mirror bool) {
	address := strings.ToLower(record.Address)

	if _, exists := r.records[address]; !exists {
		if len(r.insertionOrder) >= r.maxEntries {
			r.evictOldestLocked()
		}
		r.insertionOrder = append(r.insertionOrder, address)
	}

	r.records[address] = record
	r.pairIndex[pairKey(record.Token0.Symbol, record.Token1.Symbol)] = address

	if mirror && r.cacheRepo != nil {
		// Best effort, the in-memory registry stays authoritative.
		r.cacheRepo.SetPool(record)
	}
}

func (r *poolRegistry) evictOldestLocked() {
	oldest := r.insertionOrder[0]
	r.insertionOrder = r.insertionOrder[1:]

	record, ok := r.records[oldest]
	if !ok {
		return
	}

	delete(r.records, oldest)

	key := pairKey(record.Token0.Symbol, record.Token1.Symbol)
	if r.pairIndex[key] == oldest {
		delete(r.pairIndex, key)
	}
}

func (r *poolRegistry) Snapshot() []models.PoolRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]models.PoolRecord, 0, len(r.records))
	for _, address := range r.insertionOrder {
		if record, ok := r.records[address]; ok {
			records = append(records, record)
		}
	}

	return records
}

func (r *poolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records)
}
