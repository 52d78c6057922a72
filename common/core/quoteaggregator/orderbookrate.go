package quoteaggregator

import (
	"math/big"

	"github.com/monadarb/go_monad_discovery/common/models"
)

const orderBookGasEstimate = 150000

// scale of bestBidAsk prices
var priceScale = big.NewInt(1e18)

// Market is one order-book trading venue. Token0/Token1 follow the listing
// order, base and quote are resolved per request by pickQuote.
type Market struct {
	Address string
	Name    string
	Token0  models.PoolSide
	Token1  models.PoolSide
}

// Monad testnet order-book deployments.
func DefaultMarkets() []Market {
	wmon := models.PoolSide{Symbol: "WMON", Address: "0x3bd359C1119dA7Da1D913D1C4D2B7c461115433A", Decimals: 18}
	usdc := models.PoolSide{Symbol: "USDC", Address: "0x754704Bc059F8C67012fEd69BC8A327a5aafb603", Decimals: 6}
	chog := models.PoolSide{Symbol: "CHOG", Address: "0x350035555e10d9afaf1566aaebfced5ba6c27777", Decimals: 18}
	pinky := models.PoolSide{Symbol: "PINKY", Address: "0x619c9fbdbc94ac3e627ef7e098e3c2a8fb28899e", Decimals: 18}
	ausd := models.PoolSide{Symbol: "AUSD", Address: "0x00000000efe302beaa2b3e6e1b18d08d69a9012a", Decimals: 6}
	shmon := models.PoolSide{Symbol: "SHMON", Address: "0x1b68626dca36c7fe922fd2d55e4f631d962de19c", Decimals: 18}

	return []Market{
		{Address: "0x065C9d28E428A0db40191a54d33d5b7c71a9C394", Name: "WMON/USDC", Token0: wmon, Token1: usdc},
		{Address: "0x5e5166f02b8f91ab80833270435172078f4178ca", Name: "CHOG/WMON", Token0: chog, Token1: wmon},
		{Address: "0x48958d58941d2436c7c973b064a3be9e581797f4", Name: "PINKY/WMON", Token0: pinky, Token1: wmon},
		{Address: "0x699abc15308156e9a3ab89ec7387e9cfe1c86a3b", Name: "AUSD/USDC", Token0: ausd, Token1: usdc},
		{Address: "0x131a2e70a5b31a517a74b8c567149bc294470da9", Name: "WMON/AUSD", Token0: wmon, Token1: ausd},
		{Address: "0xcc46a703345a18c4ef4be20a447dc8613f0aebc4", Name: "SHMON/WMON", Token0: shmon, Token1: wmon},
	}
}

var stableSymbols = map[string]struct{}{
	"USDC": {},
	"USDT": {},
	"AUSD": {},
}

// pickQuote orients a market pair. The quote asset is picked by priority,
// stables first, then the wrapped native, then whatever is listed second.
func pickQuote(a, b models.PoolSide) (base, quote models.PoolSide) {
	if _, ok := stableSymbols[a.Symbol]; ok {
		return b, a
	}
	if _, ok := stableSymbols[b.Symbol]; ok {
		return a, b
	}
	if a.Symbol == "WMON" {
		return b, a
	}
	if b.Symbol == "WMON" {
		return a, b
	}
	return a, b
}

// orderBookAmountOut converts amountIn through a top-of-book price.
// Selling the base hits the bid, buying it hits the ask. A zero price on
// the relevant side means an empty book and a zero amount out.
func orderBookAmountOut(market Market, tokenInSymbol string, amountIn *big.Int, bid, ask *big.Int) *big.Int {
	base, quote := pickQuote(market.Token0, market.Token1)

	var price *big.Int
	var sellingBase bool
	var decimalsIn, decimalsOut int

	switch tokenInSymbol {
	case base.Symbol:
		price = bid
		sellingBase = true
		decimalsIn = base.Decimals
		decimalsOut = quote.Decimals
	case quote.Symbol:
		price = ask
		sellingBase = false
		decimalsIn = quote.Decimals
		decimalsOut = base.Decimals
	default:
		return big.NewInt(0)
	}

	if price == nil || price.Sign() == 0 {
		return big.NewInt(0)
	}

	out := new(big.Int)
	if sellingBase {
		out.Mul(amountIn, price)
		out.Quo(out, priceScale)
	} else {
		out.Mul(amountIn, priceScale)
		out.Quo(out, price)
	}

	return shiftDecimals(out, decimalsOut-decimalsIn)
}

func shiftDecimals(amount *big.Int, shift int) *big.Int {
	if shift == 0 {
		return amount
	}

	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(shift))), nil)
	if shift > 0 {
		return amount.Mul(amount, factor)
	}
	return amount.Quo(amount, factor)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
