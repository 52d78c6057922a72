package pricegraph

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/monadarb/go_monad_discovery/common/core/pricecache"
	"github.com/monadarb/go_monad_discovery/common/core/quoteaggregator"
	"github.com/monadarb/go_monad_discovery/common/helpers"
	"github.com/monadarb/go_monad_discovery/common/models"
	"github.com/monadarb/go_monad_discovery/common/repo/tokenrepo"
)

var defaultTiers = []float64{1, 10, 100}

const defaultPivot = "WMON"
const defaultRankingSize = 5

const minRawAmount = 1000

// PriceGraphEngine runs one full market scan: size probes per tier, fetch
// a quote snapshot, rebuild the rate graphs and search them for cycles.
type PriceGraphEngine interface {
	Scan(ctx context.Context) (models.ScanResult, error)
}

type PriceGraphEngineConfig struct {
	// Tiers are target probe sizes in USD.
	Tiers       []float64
	Pivot       string
	RankingSize int
}

type PairLister interface {
	HasPair(symbolA, symbolB string) bool
	GetByPair(symbolA, symbolB string) (models.PoolRecord, bool)
}

type PriceGraphEngineDependencies struct {
	Tokens     tokenrepo.TokenRepo
	Aggregator quoteaggregator.QuoteAggregator
	PriceCache pricecache.PriceCache
	Registry   PairLister
	Logger     *zap.Logger
}

func (d *PriceGraphEngineDependencies) validate() error {
	if d.Tokens == nil {
		return ErrNilTokenRepo
	}
	if d.Aggregator == nil {
		return ErrNilAggregator
	}
	if d.PriceCache == nil {
		return ErrNilPriceCache
	}
	if d.Registry == nil {
		return ErrNilRegistry
	}
	return nil
}

type priceGraphEngine struct {
	config       PriceGraphEngineConfig
	dependencies PriceGraphEngineDependencies
	logger       *zap.Logger
}

func New(config PriceGraphEngineConfig, dependencies PriceGraphEngineDependencies) (PriceGraphEngine, error) {
	if err := dependencies.validate(); err != nil {
		return nil, err
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}

	if config.Tiers == nil {
		config.Tiers = defaultTiers
	}
	if config.Pivot == "" {
		config.Pivot = defaultPivot
	}
	if config.RankingSize <= 0 {
		config.RankingSize = defaultRankingSize
	}

	return &priceGraphEngine{
		config:       config,
		dependencies: dependencies,
		logger:       dependencies.Logger,
	}, nil
}

// edge is one directed rate in a tier graph, tagged with the venue that
// produced its best quote.
type edge struct {
	rate  float64
	venue string
	fee   uint32
}

type tierGraph map[string]map[string]edge

func (e *priceGraphEngine) Scan(ctx context.Context) (models.ScanResult, error) {
	started := time.Now()

	tokens := e.dependencies.Tokens.GetTokens()

	requests := e.buildRequests(tokens)
	e.logger.Info("scan requests built",
		zap.Int("tokens", len(tokens)),
		zap.Int("requests", len(requests)),
	)

	bulk := e.dependencies.Aggregator.QuoteMany(ctx, requests)
	e.logger.Info("snapshot received", zap.Float64("network_ms", bulk.ElapsedMs))

	rejections := e.dependencies.PriceCache.Refresh(requests, bulk)

	graphs := e.buildTierGraphs(requests, bulk)

	allOpportunities := []models.Opportunity{}
	bestByTier := map[float64]*models.Opportunity{}

	for _, tier := range e.config.Tiers {
		opportunities, tierRejections := e.analyzeTier(graphs[tier], tier)
		rejections = append(rejections, tierRejections...)

		sort.SliceStable(opportunities, func(i, j int) bool {
			return opportunities[i].NetProfitUSD > opportunities[j].NetProfitUSD
		})

		if len(opportunities) > 0 {
			best := opportunities[0]
			bestByTier[tier] = &best
		} else {
			bestByTier[tier] = nil
		}

		allOpportunities = append(allOpportunities, opportunities...)
	}

	sort.SliceStable(allOpportunities, func(i, j int) bool {
		return allOpportunities[i].NetProfitUSD > allOpportunities[j].NetProfitUSD
	})

	var best *models.Opportunity
	if len(allOpportunities) > 0 {
		bestCopy := allOpportunities[0]
		bestCopy.Comparison = e.syntheticComparison(bestCopy.ProfitPct)
		best = &bestCopy
	}

	ranking := allOpportunities
	if len(ranking) > e.config.RankingSize {
		ranking = ranking[:e.config.RankingSize]
	}

	return models.ScanResult{
		TotalScanned: len(tokens),
		Count:        len(allOpportunities),
		Tiers:        e.config.Tiers,
		BestByTier:   bestByTier,
		Best:         best,
		Ranking:      ranking,
		Rejections:   rejections,
		TotalTimeMs:  float64(time.Since(started).Microseconds()) / 1000,
	}, nil
}

func (e *priceGraphEngine) buildRequests(tokens []models.Token) []models.QuoteRequest {
	requests := []models.QuoteRequest{}

	for _, tokenIn := range tokens {
		priceIn := e.dependencies.PriceCache.Rate(tokenIn.Symbol)

		for _, tier := range e.config.Tiers {
			amountReadable := tier / priceIn
			rawAmount := helpers.ReadableToAmount(amountReadable, tokenIn.Decimals)
			if rawAmount.Sign() <= 0 {
				rawAmount.SetInt64(minRawAmount)
			}

			for _, tokenOut := range tokens {
				if tokenIn.Symbol == tokenOut.Symbol {
					continue
				}

				if !e.pairListed(tokenIn.Symbol, tokenOut.Symbol) {
					continue
				}

				requests = append(requests, models.QuoteRequest{
					TokenIn:        tokenIn,
					TokenOut:       tokenOut,
					AmountIn:       rawAmount,
					AmountReadable: amountReadable,
					TierUSD:        tier,
				})
			}
		}
	}

	return requests
}

// pairListed keeps the probe matrix down to pairs at least one venue
// actually lists.
func (e *priceGraphEngine) pairListed(symbolA, symbolB string) bool {
	if e.dependencies.Aggregator.HasOrderBookMarket(symbolA, symbolB) {
		return true
	}
	return e.dependencies.Registry.HasPair(symbolA, symbolB)
}

func (e *priceGraphEngine) buildTierGraphs(requests []models.QuoteRequest, bulk models.BulkQuotes) map[float64]tierGraph {
	graphs := map[float64]tierGraph{}
	for _, tier := range e.config.Tiers {
		graphs[tier] = tierGraph{}
	}

	for requestIndex, set := range bulk.Results {
		if set.Best == nil || requestIndex >= len(requests) {
			continue
		}
		request := requests[requestIndex]

		graph, ok := graphs[request.TierUSD]
		if !ok {
			continue
		}

		if request.AmountReadable <= 0 {
			continue
		}

		readableOut := helpers.AmountToReadable(set.Best.AmountOut, request.TokenOut.Decimals)
		rate := readableOut / request.AmountReadable

		if graph[request.TokenIn.Symbol] == nil {
			graph[request.TokenIn.Symbol] = map[string]edge{}
		}
		graph[request.TokenIn.Symbol][request.TokenOut.Symbol] = edge{
			rate:  rate,
			venue: set.Best.Venue,
			fee:   set.Best.Fee,
		}
	}

	return graphs
}

func (e *priceGraphEngine) syntheticComparison(profitPct float64) *models.VenueComparison {
	// fabricated competitor spread, display only
	spread := rand.Float64() - 0.5

	competitorProfit := profitPct + spread
	winner := "Uniswap V3"
	if competitorProfit >= profitPct {
		winner = "Simulated DEX B"
	}

	absSpread := spread
	if absSpread < 0 {
		absSpread = -absSpread
	}

	return &models.VenueComparison{
		VenueA:  "Uniswap V3 (Monad)",
		VenueB:  "Simulated DEX B",
		ProfitA: profitPct,
		ProfitB: competitorProfit,
		Spread:  absSpread,
		Winner:  winner,
	}
}

func (e *priceGraphEngine) poolMeta(symbolA, symbolB string) (tvl string, threshold string) {
	record, ok := e.dependencies.Registry.GetByPair(symbolA, symbolB)
	if !ok {
		return "Unknown", "Unknown"
	}

	return fmt.Sprintf("$%.2f", record.TVLUSD), fmt.Sprintf("$%.2f", record.WhaleThresholdUSD)
}
