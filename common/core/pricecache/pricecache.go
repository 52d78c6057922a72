package pricecache

import (
	"fmt"
	"sync"

	"github.com/monadarb/go_monad_discovery/common/helpers"
	"github.com/monadarb/go_monad_discovery/common/models"
)

const minRate = 1e-6

// Bounds for an implied rate learned from a quote batch. Anything outside
// is treated as corrupted data and dropped.
const (
	minImpliedRate = 1e-8
	maxImpliedRate = 1e6
)

// Implied rates from dust-sized probes are too noisy to trust.
const minRefreshTierUSD = 10

// PriceCache holds approximate USD rates per token symbol. Rates are good
// enough for sizing probes and pricing gas, not for settlement.
type PriceCache interface {
	Rate(symbol string) float64
	SetRate(symbol string, rate float64)
	Rates() map[string]float64
	Refresh(requests []models.QuoteRequest, results models.BulkQuotes) []models.Rejection
}

type PriceCacheConfig struct {
	// Seeds replaces the builtin seed rates when non-nil.
	Seeds map[string]float64
	// Stables lists the symbols trusted as USD anchors during Refresh.
	// Nil falls back to the builtin set.
	Stables []string
}

type priceCache struct {
	mu      sync.RWMutex
	rates   map[string]float64
	stables map[string]struct{}
}

func defaultSeeds() map[string]float64 {
	return map[string]float64{
		"WMON":     0.027,
		"USDC":     1.0,
		"USDT":     1.0,
		"CHOG":     0.22,
		"MOYAKI":   0.001,
		"MOLANDAK": 0.001,
	}
}

func defaultStables() []string {
	return []string{"USDC", "USDT", "AUSD"}
}

func New(config PriceCacheConfig) PriceCache {
	seeds := config.Seeds
	if seeds == nil {
		seeds = defaultSeeds()
	}

	stableList := config.Stables
	if stableList == nil {
		stableList = defaultStables()
	}

	rates := make(map[string]float64, len(seeds))
	for symbol, rate := range seeds {
		rates[symbol] = rate
	}

	stables := make(map[string]struct{}, len(stableList))
	for _, symbol := range stableList {
		stables[symbol] = struct{}{}
	}

	return &priceCache{
		rates:   rates,
		stables: stables,
	}
}

func (c *priceCache) Rate(symbol string) float64 {
	c.mu.RLock()
	rate, ok := c.rates[symbol]
	c.mu.RUnlock()

	if !ok || rate < minRate {
		return minRate
	}

	return rate
}

func (c *priceCache) SetRate(symbol string, rate float64) {
	c.mu.Lock()
	c.rates[symbol] = rate
	c.mu.Unlock()
}

func (c *priceCache) Rates() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rates := make(map[string]float64, len(c.rates))
	for symbol, rate := range c.rates {
		rates[symbol] = rate
	}

	return rates
}

// Refresh folds a quote batch back into the cache. Only quotes that land
// on a stable output token carry a USD signal, the implied rate for the
// input token is readableOut/readableIn. Updates that fail the tier or
// bound checks are returned instead of silently dropped.
func (c *priceCache) Refresh(requests []models.QuoteRequest, results models.BulkQuotes) []models.Rejection {
	rejections := []models.Rejection{}

	for i, request := range requests {
		set, ok := results.Results[i]
		if !ok || set.Best == nil {
			continue
		}

		if _, stable := c.stables[request.TokenOut.Symbol]; !stable {
			continue
		}

		if request.AmountReadable <= 0 {
			continue
		}

		readableOut := helpers.AmountToReadable(set.Best.AmountOut, request.TokenOut.Decimals)
		impliedRate := readableOut / request.AmountReadable

		if request.TierUSD < minRefreshTierUSD {
			rejections = append(rejections, models.Rejection{
				Reason: "refresh_tier_too_small",
				Detail: fmt.Sprintf("%s: tier %.2f USD below %d", request.TokenIn.Symbol, request.TierUSD, minRefreshTierUSD),
			})
			continue
		}

		if impliedRate < minImpliedRate || impliedRate > maxImpliedRate {
			rejections = append(rejections, models.Rejection{
				Reason: "refresh_rate_out_of_bounds",
				Detail: fmt.Sprintf("%s: implied rate %g", request.TokenIn.Symbol, impliedRate),
			})
			continue
		}

		c.SetRate(request.TokenIn.Symbol, impliedRate)
	}

	return rejections
}
