package subgraphs

type PoolResponseToken struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Decimals string `json:"decimals"`
}

type PoolResponse struct {
	ID                  string            `json:"id"`
	FeeTier             string            `json:"feeTier"`
	TotalValueLockedUSD string            `json:"totalValueLockedUSD"`
	Token0              PoolResponseToken `json:"token0"`
	Token1              PoolResponseToken `json:"token1"`
}
