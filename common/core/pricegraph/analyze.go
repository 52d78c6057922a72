package pricegraph

import (
	"fmt"

	"github.com/monadarb/go_monad_discovery/common/models"
)

const spatialGasUnits = 300000
const triangularGasUnits = 450000
const gasPriceGwei = 50

// maxSanePct clamps data errors, nothing real returns 5x in one cycle.
const maxSanePct = 500

func (e *priceGraphEngine) gasCostUSD(gasUnits float64) float64 {
	gasCostMon := gasUnits * gasPriceGwei / 1e9
	return gasCostMon * e.dependencies.PriceCache.Rate(e.config.Pivot)
}

func (e *priceGraphEngine) analyzeTier(graph tierGraph, tierUSD float64) ([]models.Opportunity, []models.Rejection) {
	opportunities := []models.Opportunity{}
	rejections := []models.Rejection{}

	pivot := e.config.Pivot

	// spatial, pivot -> intermediate -> pivot
	for intermediate := range graph[pivot] {
		if _, ok := graph[intermediate]; !ok {
			continue
		}

		edge1, ok1 := graph[pivot][intermediate]
		edge2, ok2 := graph[intermediate][pivot]
		if !ok1 || !ok2 {
			continue
		}

		// both legs on the identical market would be wash trading
		if edge1.venue == edge2.venue && edge1.fee == edge2.fee {
			continue
		}

		profitPct := (edge1.rate*edge2.rate - 1) * 100

		if profitPct > maxSanePct {
			rejections = append(rejections, models.Rejection{
				Reason: "absurd_profit",
				Detail: fmt.Sprintf("%s->%s: %.2f%%", pivot, intermediate, profitPct),
			})
			continue
		}
		if profitPct <= -100 {
			continue
		}

		gasCost := e.gasCostUSD(spatialGasUnits)
		netProfit := tierUSD*(profitPct/100) - gasCost

		if netProfit <= -tierUSD {
			rejections = append(rejections, models.Rejection{
				Reason: "loss_exceeds_principal",
				Detail: fmt.Sprintf("%s->%s: net %.4f USD at tier %.0f", pivot, intermediate, netProfit, tierUSD),
			})
			continue
		}

		leg1In := tierUSD / e.dependencies.PriceCache.Rate(pivot)
		leg1Out := leg1In * edge1.rate
		leg2Out := leg1Out * edge2.rate

		tvl, threshold := e.poolMeta(pivot, intermediate)

		opportunities = append(opportunities, models.Opportunity{
			Strategy:     models.STRATEGY_SPATIAL,
			TierUSD:      tierUSD,
			Path:         []string{pivot, intermediate, pivot},
			Legs: []models.OpportunityLeg{
				{From: pivot, To: intermediate, Rate: edge1.rate, Venue: edge1.venue, Fee: edge1.fee},
				{From: intermediate, To: pivot, Rate: edge2.rate, Venue: edge2.venue, Fee: edge2.fee},
			},
			ProfitPct:    profitPct,
			GasCostUSD:   gasCost,
			NetProfitUSD: netProfit,
			Logs: []string{
				fmt.Sprintf("Step 1: %s (%d): Swap %s -> %s", edge1.venue, edge1.fee, pivot, intermediate),
				fmt.Sprintf("   Rate: %.6f | Est. Out: %.4f", edge1.rate, leg1Out),
				fmt.Sprintf("Step 2: %s (%d): Swap %s -> %s", edge2.venue, edge2.fee, intermediate, pivot),
				fmt.Sprintf("   Rate: %.6f | Est. Out: %.4f", edge2.rate, leg2Out),
				fmt.Sprintf("⛽ Gas: $%.4f | 💵 Net Profit: $%.4f", gasCost, netProfit),
				fmt.Sprintf("🌊 Pool Liquidity (%s/%s): %s", pivot, intermediate, tvl),
				fmt.Sprintf("🛑 Whale Alert Threshold: > %s", threshold),
				fmt.Sprintf("🆚 Comparison: Uniswap V3 (Monad) (%.4f%%) vs Simulated DEX B (%.4f%%)", profitPct, profitPct-0.06),
			},
		})
	}

	// triangular, pivot -> b -> c -> pivot
	for b := range graph[pivot] {
		if _, ok := graph[b]; !ok {
			continue
		}
		for c := range graph[b] {
			if c == pivot {
				continue
			}
			if _, ok := graph[c]; !ok {
				continue
			}

			edge1, ok1 := graph[pivot][b]
			edge2, ok2 := graph[b][c]
			edge3, ok3 := graph[c][pivot]
			if !ok1 || !ok2 || !ok3 {
				continue
			}

			profitPct := (edge1.rate*edge2.rate*edge3.rate - 1) * 100

			if profitPct > maxSanePct {
				rejections = append(rejections, models.Rejection{
					Reason: "absurd_profit",
					Detail: fmt.Sprintf("%s->%s->%s: %.2f%%", pivot, b, c, profitPct),
				})
				continue
			}
			if profitPct <= -100 {
				continue
			}

			gasCost := e.gasCostUSD(triangularGasUnits)
			netProfit := tierUSD*(profitPct/100) - gasCost

			if netProfit <= -tierUSD {
				rejections = append(rejections, models.Rejection{
					Reason: "loss_exceeds_principal",
					Detail: fmt.Sprintf("%s->%s->%s: net %.4f USD at tier %.0f", pivot, b, c, netProfit, tierUSD),
				})
				continue
			}

			opportunities = append(opportunities, models.Opportunity{
				Strategy:     models.STRATEGY_TRIANGULAR,
				TierUSD:      tierUSD,
				Path:         []string{pivot, b, c, pivot},
				Legs: []models.OpportunityLeg{
					{From: pivot, To: b, Rate: edge1.rate, Venue: edge1.venue, Fee: edge1.fee},
					{From: b, To: c, Rate: edge2.rate, Venue: edge2.venue, Fee: edge2.fee},
					{From: c, To: pivot, Rate: edge3.rate, Venue: edge3.venue, Fee: edge3.fee},
				},
				ProfitPct:    profitPct,
				GasCostUSD:   gasCost,
				NetProfitUSD: netProfit,
				Logs: []string{
					fmt.Sprintf("Step 1: %s -> %s (Rate: %.6f)", pivot, b, edge1.rate),
					fmt.Sprintf("Step 2: %s -> %s (Rate: %.6f)", b, c, edge2.rate),
					fmt.Sprintf("Step 3: %s -> %s (Rate: %.6f)", c, pivot, edge3.rate),
					fmt.Sprintf("💰 Est. Gas Cost: $%.4f", gasCost),
					fmt.Sprintf("💵 Net Profit: $%.4f", netProfit),
				},
			})
		}
	}

	return opportunities, rejections
}
