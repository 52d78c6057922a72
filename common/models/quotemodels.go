package models

import (
	"math/big"
	"time"
)

type VenueKind string

const (
	VenueKindAMM       VenueKind = "amm"
	VenueKindOrderBook VenueKind = "orderbook"
)

// QuoteRequest describes one directed probe built for a single scan cycle.
// AmountIn is in the smallest unit of TokenIn, AmountReadable in human units.
type QuoteRequest struct {
	TokenIn        Token
	TokenOut       Token
	AmountIn       *big.Int
	AmountReadable float64
	TierUSD        float64
}

// Quote is one venue's answer for a request. Kind tags the variant: AMM
// quotes carry the pool fee tier, order-book quotes carry Fee 0.
type Quote struct {
	Kind        VenueKind
	Venue       string
	Fee         uint32
	AmountOut   *big.Int
	GasEstimate uint64
	CapturedAt  time.Time
}

// QuoteSet holds every surviving quote for one request, sorted by AmountOut
// descending. Best is nil when no venue answered.
type QuoteSet struct {
	Best      *Quote
	All       []Quote
	ElapsedMs float64
}

// BulkQuotes maps request index to its QuoteSet. Requests with no surviving
// quote are absent from Results.
type BulkQuotes struct {
	Results   map[int]QuoteSet
	ElapsedMs float64
}
