package poolregistry

import (
	"context"
	"fmt"

	"github.com/monadarb/go_monad_discovery/common/models"
	"github.com/monadarb/go_monad_discovery/common/periphery/redisdb"
)

const POOLS_HASH = "pools"

func getPoolsHashByChainID(chainID uint) string {
	return fmt.Sprintf("%d.%s", chainID, POOLS_HASH)
}

// PoolCacheRepo mirrors registry records into redis so a restarted
// process does not have to rediscover every pool from chain traffic.
type PoolCacheRepo interface {
	GetPools(chainID uint) ([]models.PoolRecord, error)
	SetPool(pool models.PoolRecord) error
}

type PoolCacheRepoConfig struct {
	RedisServer string
}

type poolCacheRepo struct {
	redisDB *redisdb.RedisDatabase
	ctx     context.Context
}

func NewCacheRepo(ctx context.Context, config PoolCacheRepoConfig) (PoolCacheRepo, error) {
	redisDatabase, err := redisdb.New(redisdb.RedisDatabaseConfig{
		RedisServer: config.RedisServer,
	})
	if err != nil {
		return &poolCacheRepo{}, err
	}

	return &poolCacheRepo{
		redisDB: redisDatabase,
		ctx:     ctx,
	}, nil
}

func (r *poolCacheRepo) GetPools(chainID uint) ([]models.PoolRecord, error) {
	rdb, err := r.redisDB.GetDB()
	if err != nil {
		return nil, err
	}

	resp := rdb.HGetAll(r.ctx, getPoolsHashByChainID(chainID))
	if resp.Err() != nil {
		return nil, resp.Err()
	}
	poolsMap, err := resp.Result()
	if err != nil {
		return nil, err
	}

	pools := make([]models.PoolRecord, 0, len(poolsMap))
	for _, poolStr := range poolsMap {
		pool := models.PoolRecord{}
		err = pool.FillFromJSON([]byte(poolStr))
		if err != nil {
			continue
		}

		pools = append(pools, pool)
	}

	return pools, nil
}

func (r *poolCacheRepo) SetPool(pool models.PoolRecord) error {
	rdb, err := r.redisDB.GetDB()
	if err != nil {
		return err
	}

	poolIdentificator := pool.GetIdentificator().String()
	poolJSON, err := pool.GetJSON()
	if err != nil {
		return err
	}

	resp := rdb.HSet(r.ctx, getPoolsHashByChainID(pool.ChainID), poolIdentificator, poolJSON)
	if resp.Err() != nil {
		return resp.Err()
	}

	return nil
}
