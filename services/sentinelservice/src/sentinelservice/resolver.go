package sentinelservice

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/monadarb/go_monad_discovery/common/core/quoteaggregator"
	"github.com/monadarb/go_monad_discovery/common/external/chainclient"
	"github.com/monadarb/go_monad_discovery/common/helpers"
	"github.com/monadarb/go_monad_discovery/common/models"
	"github.com/monadarb/go_monad_discovery/common/repo/poolregistry"
	"github.com/monadarb/go_monad_discovery/services/sentinelservice/src/sentinelerrors"
)

const defaultWhaleThresholdUSD = 50
const unknownPairTVLUSD = 50000

// poolReader is the slice of the chain client the resolver needs.
type poolReader interface {
	GetPoolImmutables(ctx context.Context, pool common.Address) (common.Address, common.Address, uint32, error)
	GetPairImmutables(ctx context.Context, pair common.Address) (common.Address, common.Address, error)
	GetTokenMetadata(ctx context.Context, token common.Address) (chainclient.TokenMetadata, error)
	GetBalanceOf(ctx context.Context, token common.Address, owner common.Address) (*big.Int, error)
}

// poolResolver maps an emitting address to a PoolRecord, discovering and
// registering pools it has never seen.
type poolResolver struct {
	chainID  uint
	chain    poolReader
	registry poolregistry.PoolRegistry
	markets  map[string]quoteaggregator.Market
	logger   *zap.Logger
}

func newPoolResolver(chainID uint, chain poolReader, registry poolregistry.PoolRegistry, markets []quoteaggregator.Market, logger *zap.Logger) *poolResolver {
	marketsByAddress := make(map[string]quoteaggregator.Market, len(markets))
	for _, market := range markets {
		marketsByAddress[strings.ToLower(market.Address)] = market
	}

	return &poolResolver{
		chainID:  chainID,
		chain:    chain,
		registry: registry,
		markets:  marketsByAddress,
		logger:   logger,
	}
}

func (r *poolResolver) resolve(ctx context.Context, poolAddress common.Address) (models.PoolRecord, error) {
	address := strings.ToLower(poolAddress.Hex())

	if record, ok := r.registry.Get(address); ok {
		return record, nil
	}

	if market, ok := r.markets[address]; ok {
		record := models.PoolRecord{
			Address: address,
			Name:    market.Token0.Symbol + "/" + market.Token1.Symbol + " (Kuru)",
			ChainID: r.chainID,
			Venue:   quoteaggregator.OrderBookVenueName,
			Token0:  market.Token0,
			Token1:  market.Token1,
			FeePct:  0,
			// order-book depth is not readable as a balance, threshold
			// stays at the floor
			TVLUSD:            0,
			WhaleThresholdUSD: defaultWhaleThresholdUSD,
		}

		r.registry.Set(record)
		r.logger.Info("resolved order book market", zap.String("name", record.Name))
		return record, nil
	}

	return r.resolveAMMPool(ctx, poolAddress, address)
}

func (r *poolResolver) resolveAMMPool(ctx context.Context, poolAddress common.Address, address string) (models.PoolRecord, error) {
	venue := quoteaggregator.AMMVenueName
	feePct := 0.3

	token0Address, token1Address, fee, err := r.chain.GetPoolImmutables(ctx, poolAddress)
	if err == nil {
		feePct = float64(fee) / 10000
	} else {
		venue = "uniswap_v2"
		token0Address, token1Address, err = r.chain.GetPairImmutables(ctx, poolAddress)
		if err != nil {
			return models.PoolRecord{}, sentinelerrors.ErrUnableToResolvePool
		}
	}

	meta0, err := r.chain.GetTokenMetadata(ctx, token0Address)
	if err != nil {
		return models.PoolRecord{}, sentinelerrors.ErrUnableToResolvePool
	}
	meta1, err := r.chain.GetTokenMetadata(ctx, token1Address)
	if err != nil {
		return models.PoolRecord{}, sentinelerrors.ErrUnableToResolvePool
	}

	tvlUSD := r.estimateTVL(ctx, poolAddress, token0Address, token1Address, meta0, meta1)

	record := models.PoolRecord{
		Address: address,
		Name:    fmt.Sprintf("%s/%s (%g%%)", meta0.Symbol, meta1.Symbol, feePct),
		ChainID: r.chainID,
		Venue:   venue,
		Token0: models.PoolSide{
			Symbol:   meta0.Symbol,
			Address:  strings.ToLower(token0Address.Hex()),
			Decimals: int(meta0.Decimals),
		},
		Token1: models.PoolSide{
			Symbol:   meta1.Symbol,
			Address:  strings.ToLower(token1Address.Hex()),
			Decimals: int(meta1.Decimals),
		},
		FeePct:            feePct,
		TVLUSD:            tvlUSD,
		WhaleThresholdUSD: poolregistry.WhaleThreshold(tvlUSD),
	}

	r.registry.Set(record)
	r.logger.Info("discovered pool",
		zap.String("name", record.Name),
		zap.String("venue", venue),
		zap.Float64("tvl_usd", tvlUSD),
	)

	return record, nil
}

// estimateTVL is the cheap heuristic from log resolution: double the
// stable side if there is one, double the wrapped-native side at a 0.1
// USD weighting otherwise, or fall back to a flat figure.
func (r *poolResolver) estimateTVL(ctx context.Context, poolAddress, token0Address, token1Address common.Address, meta0, meta1 chainclient.TokenMetadata) float64 {
	readableBalance := func(token common.Address, decimals uint8) float64 {
		balance, err := r.chain.GetBalanceOf(ctx, token, poolAddress)
		if err != nil {
			return 0
		}
		return helpers.AmountToReadable(balance, int(decimals))
	}

	switch {
	case strings.Contains(meta0.Symbol, "USD"):
		return readableBalance(token0Address, meta0.Decimals) * 2
	case strings.Contains(meta1.Symbol, "USD"):
		return readableBalance(token1Address, meta1.Decimals) * 2
	case strings.Contains(meta0.Symbol, "MON"):
		return readableBalance(token0Address, meta0.Decimals) * 2 * 0.1
	case strings.Contains(meta1.Symbol, "MON"):
		return readableBalance(token1Address, meta1.Decimals) * 2 * 0.1
	default:
		return unknownPairTVLUSD
	}
}
