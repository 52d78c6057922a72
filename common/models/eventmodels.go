package models

// SwapEvent is one normalized trade pulled off the live log stream.
// Amounts are in human units of the respective token.
type SwapEvent struct {
	Type        string  `json:"type"`
	Venue       string  `json:"venue"`
	Pool        string  `json:"pool"`
	PoolAddress string  `json:"pool_address"`
	Side        string  `json:"side"`
	Description string  `json:"description"`
	SymbolIn    string  `json:"symbol_in"`
	SymbolOut   string  `json:"symbol_out"`
	AmountIn    float64 `json:"amount_in"`
	AmountOut   float64 `json:"amount_out"`
	USDValue    float64 `json:"usd_value"`
	Whale       bool    `json:"whale"`
	TxHash      string  `json:"tx_hash"`
	Timestamp   string  `json:"timestamp"`
}

const (
	SWAP_EVENT_TYPE       = "SWAP"
	WHALE_SWAP_EVENT_TYPE = "WHALE_SWAP"

	SWAP_SIDE_BUY  = "buy"
	SWAP_SIDE_SELL = "sell"
)
