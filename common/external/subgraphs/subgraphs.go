package subgraphs

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/machinebox/graphql"

	"github.com/monadarb/go_monad_discovery/common/external/subgraphs/subgrapherrors"
	"github.com/monadarb/go_monad_discovery/common/models"
	"github.com/monadarb/go_monad_discovery/common/repo/poolregistry"
)

//go:embed subgraphassets/subgraphurls.json
var subgraphUrlsMapString string

//go:embed subgraphassets/poolsquery.graphql
var poolsQuery string

type subgraphUrlsMap map[uint]string

// SubgraphClient runs the eager seed pass: it pulls the top pools by TVL
// from the indexer so the registry starts warm instead of waiting for
// discovery through live traffic.
type SubgraphClient interface {
	GetPoolSeeds(ctx context.Context, chainID uint) ([]models.PoolRecord, error)
}

type SubgraphClientConfig struct {
	APIKey string
}

type subgraphClient struct {
	subgraphUrlsMap subgraphUrlsMap
	apiKey          string
}

func NewSubgraphClient(config SubgraphClientConfig) (SubgraphClient, error) {
	urlsMap := subgraphUrlsMap{}

	err := json.Unmarshal([]byte(subgraphUrlsMapString), &urlsMap)
	if err != nil {
		return nil, errors.New("unable to parse subgraph urls map")
	}

	return &subgraphClient{
		subgraphUrlsMap: urlsMap,
		apiKey:          config.APIKey,
	}, nil
}

const poolsChunkSize = 500
const maxSeedPools = 2000

func (s *subgraphClient) GetPoolSeeds(ctx context.Context, chainID uint) ([]models.PoolRecord, error) {
	url, ok := s.subgraphUrlsMap[chainID]
	if !ok {
		return nil, subgrapherrors.ErrSubgraphURLNotFound
	}

	poolResponsesArray := []PoolResponse{}

	parallelQueries := 2
	currentChunk := 0
	wg := sync.WaitGroup{}

	for len(poolResponsesArray) < maxSeedPools {
		poolsToPush := make([]PoolResponse, parallelQueries*poolsChunkSize)
		var totalNewValue int32 = 0

		for i := range parallelQueries {
			chunk := currentChunk
			queryNumber := i
			wg.Go(func() {
				poolsArray, err := s.queryPools(ctx, url, chunk*poolsChunkSize)
				if err != nil {
					return
				}
				for i, pool := range poolsArray {
					poolsToPush[(poolsChunkSize*queryNumber)+i] = pool
				}
				atomic.AddInt32(&totalNewValue, int32(len(poolsArray)))
			})
			currentChunk++
		}
		wg.Wait()

		if totalNewValue == 0 {
			break
		}

		poolResponsesArray = append(poolResponsesArray, poolsToPush...)
	}

	result := make([]models.PoolRecord, 0, len(poolResponsesArray))
	for _, poolResp := range poolResponsesArray {
		record, ok := s.poolRecordFromResponse(poolResp, chainID)
		if !ok {
			continue
		}
		result = append(result, record)
	}

	return result, nil
}

func (s *subgraphClient) poolRecordFromResponse(poolResp PoolResponse, chainID uint) (models.PoolRecord, bool) {
	if poolResp.ID == "" || poolResp.Token0.ID == "" || poolResp.Token1.ID == "" {
		return models.PoolRecord{}, false
	}

	feeTier, err := strconv.Atoi(poolResp.FeeTier)
	if err != nil {
		return models.PoolRecord{}, false
	}
	decimals0, err := strconv.Atoi(poolResp.Token0.Decimals)
	if err != nil {
		return models.PoolRecord{}, false
	}
	decimals1, err := strconv.Atoi(poolResp.Token1.Decimals)
	if err != nil {
		return models.PoolRecord{}, false
	}

	tvlUSD, err := strconv.ParseFloat(poolResp.TotalValueLockedUSD, 64)
	if err != nil {
		tvlUSD = 0
	}

	return models.PoolRecord{
		Address: strings.ToLower(poolResp.ID),
		Name:    poolResp.Token0.Symbol + "/" + poolResp.Token1.Symbol,
		ChainID: chainID,
		Venue:   string(models.VenueKindAMM),
		Token0: models.PoolSide{
			Symbol:   poolResp.Token0.Symbol,
			Address:  strings.ToLower(poolResp.Token0.ID),
			Decimals: decimals0,
		},
		Token1: models.PoolSide{
			Symbol:   poolResp.Token1.Symbol,
			Address:  strings.ToLower(poolResp.Token1.ID),
			Decimals: decimals1,
		},
		FeePct:            float64(feeTier) / 10000,
		TVLUSD:            tvlUSD,
		WhaleThresholdUSD: poolregistry.WhaleThreshold(tvlUSD),
	}, true
}

func (s *subgraphClient) queryPools(ctx context.Context, graphURL string, skip int) ([]PoolResponse, error) {
	client := graphql.NewClient(graphURL)
	if client == nil {
		return nil, errors.New("unable to create graphql client")
	}
	req := graphql.NewRequest(poolsQuery)
	if s.apiKey != "" {
		req.Header.Add("Authorization", "Bearer "+s.apiKey)
	}

	req.Var("first", poolsChunkSize)
	req.Var("skip", skip)

	respData := struct {
		Pools []PoolResponse `json:"pools"`
	}{}

	if err := client.Run(ctx, req, &respData); err != nil {
		return nil, err
	}

	return respData.Pools, nil
}
