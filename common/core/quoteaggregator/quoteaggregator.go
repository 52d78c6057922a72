package quoteaggregator

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/monadarb/go_monad_discovery/common/external/chainclient"
	"github.com/monadarb/go_monad_discovery/common/models"
)

const AMMVenueName = "uniswap_v3"
const OrderBookVenueName = "kuru"

var defaultFeeTiers = []uint32{100, 500, 3000, 10000}

const defaultChunkSize = 40
const defaultWorkers = 8

// ChainCaller is the slice of the chain client the aggregator needs.
type ChainCaller interface {
	TryAggregate(ctx context.Context, calls []chainclient.Call) ([]chainclient.CallResult, error)
	QuoterCall(tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (chainclient.Call, error)
	DecodeQuote(returnData []byte) (chainclient.QuoteOutput, error)
	BestBidAsk(ctx context.Context, market common.Address) (*big.Int, *big.Int, error)
}

// QuoteAggregator answers "how much of tokenOut for this much tokenIn"
// across every venue at once. It never returns an error to the caller, a
// failed probe is simply an absent quote.
type QuoteAggregator interface {
	QuoteOne(ctx context.Context, tokenIn, tokenOut models.Token, amountIn *big.Int) models.QuoteSet
	QuoteMany(ctx context.Context, requests []models.QuoteRequest) models.BulkQuotes

	HasOrderBookMarket(symbolA, symbolB string) bool
	OrderBookMarkets() []Market
}

type QuoteAggregatorConfig struct {
	FeeTiers  []uint32
	ChunkSize int
	Workers   int
	// Markets overrides the builtin order-book listing when non-nil.
	Markets []Market
}

type QuoteAggregatorDependencies struct {
	Chain  ChainCaller
	Logger *zap.Logger
}

type quoteAggregator struct {
	config QuoteAggregatorConfig
	chain  ChainCaller
	logger *zap.Logger

	markets       []Market
	marketsByPair map[string]Market
}

func New(config QuoteAggregatorConfig, dependencies QuoteAggregatorDependencies) (QuoteAggregator, error) {
	if dependencies.Chain == nil {
		return nil, ErrNilChainCaller
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}

	if config.FeeTiers == nil {
		config.FeeTiers = defaultFeeTiers
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaultChunkSize
	}
	if config.Workers <= 0 {
		config.Workers = defaultWorkers
	}
	markets := config.Markets
	if markets == nil {
		markets = DefaultMarkets()
	}

	marketsByPair := make(map[string]Market, len(markets))
	for _, market := range markets {
		marketsByPair[pairKey(market.Token0.Symbol, market.Token1.Symbol)] = market
	}

	return &quoteAggregator{
		config:        config,
		chain:         dependencies.Chain,
		logger:        dependencies.Logger,
		markets:       markets,
		marketsByPair: marketsByPair,
	}, nil
}

func pairKey(symbolA, symbolB string) string {
	if symbolA > symbolB {
		symbolA, symbolB = symbolB, symbolA
	}
	return symbolA + "/" + symbolB
}

func (a *quoteAggregator) HasOrderBookMarket(symbolA, symbolB string) bool {
	_, ok := a.marketsByPair[pairKey(symbolA, symbolB)]
	return ok
}

func (a *quoteAggregator) OrderBookMarkets() []Market {
	markets := make([]Market, len(a.markets))
	copy(markets, a.markets)
	return markets
}

func (a *quoteAggregator) QuoteOne(ctx context.Context, tokenIn, tokenOut models.Token, amountIn *big.Int) models.QuoteSet {
	bulk := a.QuoteMany(ctx, []models.QuoteRequest{{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		AmountIn: amountIn,
	}})

	set, ok := bulk.Results[0]
	if !ok {
		return models.QuoteSet{ElapsedMs: bulk.ElapsedMs}
	}

	set.ElapsedMs = bulk.ElapsedMs
	return set
}

// plannedCall ties a packed sub-call back to the request and fee tier it
// probes, so decoding a batch is a plain index lookup.
type plannedCall struct {
	requestIndex int
	fee          uint32
	call         chainclient.Call
}

func (a *quoteAggregator) QuoteMany(ctx context.Context, requests []models.QuoteRequest) models.BulkQuotes {
	started := time.Now()

	plan := a.buildPlan(requests)

	collected := struct {
		mu     sync.Mutex
		quotes map[int][]models.Quote
	}{quotes: map[int][]models.Quote{}}

	appendQuote := func(requestIndex int, quote models.Quote) {
		collected.mu.Lock()
		collected.quotes[requestIndex] = append(collected.quotes[requestIndex], quote)
		collected.mu.Unlock()
	}

	wg := sync.WaitGroup{}

	// order-book probes run independently of the multicall batches
	for i, request := range requests {
		market, ok := a.marketsByPair[pairKey(request.TokenIn.Symbol, request.TokenOut.Symbol)]
		if !ok {
			continue
		}

		requestIndex := i
		currentRequest := request
		wg.Go(func() {
			quote, ok := a.orderBookQuote(ctx, market, currentRequest)
			if !ok {
				return
			}
			appendQuote(requestIndex, quote)
		})
	}

	sem := make(chan struct{}, a.config.Workers)
	for start := 0; start < len(plan); start += a.config.ChunkSize {
		end := start + a.config.ChunkSize
		if end > len(plan) {
			end = len(plan)
		}
		chunk := plan[start:end]

		sem <- struct{}{}
		wg.Go(func() {
			defer func() { <-sem }()

			calls := make([]chainclient.Call, 0, len(chunk))
			for _, planned := range chunk {
				calls = append(calls, planned.call)
			}

			results, err := a.chain.TryAggregate(ctx, calls)
			if err != nil {
				// whole chunk lost, its rows stay absent
				a.logger.Warn("quote batch failed", zap.Error(err), zap.Int("calls", len(calls)))
				return
			}

			capturedAt := time.Now()
			for j, result := range results {
				if !result.Success {
					continue
				}

				output, err := a.chain.DecodeQuote(result.ReturnData)
				if err != nil {
					continue
				}
				if output.AmountOut == nil || output.AmountOut.Sign() <= 0 {
					continue
				}

				gasEstimate := uint64(0)
				if output.GasEstimate != nil {
					gasEstimate = output.GasEstimate.Uint64()
				}

				appendQuote(chunk[j].requestIndex, models.Quote{
					Kind:        models.VenueKindAMM,
					Venue:       AMMVenueName,
					Fee:         chunk[j].fee,
					AmountOut:   output.AmountOut,
					GasEstimate: gasEstimate,
					CapturedAt:  capturedAt,
				})
			}
		})
	}

	wg.Wait()

	results := make(map[int]models.QuoteSet, len(collected.quotes))
	for requestIndex, quotes := range collected.quotes {
		if len(quotes) == 0 {
			continue
		}

		sort.SliceStable(quotes, func(x, y int) bool {
			cmp := quotes[x].AmountOut.Cmp(quotes[y].AmountOut)
			if cmp != 0 {
				return cmp > 0
			}
			// deterministic tie-break, AMM tiers in probe order first
			if quotes[x].Kind != quotes[y].Kind {
				return quotes[x].Kind == models.VenueKindAMM
			}
			return a.feeTierIndex(quotes[x].Fee) < a.feeTierIndex(quotes[y].Fee)
		})

		best := quotes[0]
		results[requestIndex] = models.QuoteSet{
			Best: &best,
			All:  quotes,
		}
	}

	return models.BulkQuotes{
		Results:   results,
		ElapsedMs: float64(time.Since(started).Microseconds()) / 1000,
	}
}

func (a *quoteAggregator) feeTierIndex(fee uint32) int {
	for i, tier := range a.config.FeeTiers {
		if tier == fee {
			return i
		}
	}
	return len(a.config.FeeTiers)
}

func (a *quoteAggregator) buildPlan(requests []models.QuoteRequest) []plannedCall {
	plan := make([]plannedCall, 0, len(requests)*len(a.config.FeeTiers))

	for i, request := range requests {
		tokenIn := common.HexToAddress(request.TokenIn.Address)
		tokenOut := common.HexToAddress(request.TokenOut.Address)

		for _, fee := range a.config.FeeTiers {
			call, err := a.chain.QuoterCall(tokenIn, tokenOut, fee, request.AmountIn)
			if err != nil {
				continue
			}

			plan = append(plan, plannedCall{
				requestIndex: i,
				fee:          fee,
				call:         call,
			})
		}
	}

	return plan
}

func (a *quoteAggregator) orderBookQuote(ctx context.Context, market Market, request models.QuoteRequest) (models.Quote, bool) {
	bid, ask, err := a.chain.BestBidAsk(ctx, common.HexToAddress(market.Address))
	if err != nil {
		a.logger.Warn("order book read failed", zap.String("market", market.Name), zap.Error(err))
		return models.Quote{}, false
	}

	amountOut := orderBookAmountOut(market, request.TokenIn.Symbol, request.AmountIn, bid, ask)
	if amountOut.Sign() <= 0 {
		return models.Quote{}, false
	}

	return models.Quote{
		Kind:        models.VenueKindOrderBook,
		Venue:       OrderBookVenueName + ":" + strings.ToLower(market.Address),
		Fee:         0,
		AmountOut:   amountOut,
		GasEstimate: orderBookGasEstimate,
		CapturedAt:  time.Now(),
	}, true
}
