package models

import (
	"encoding/json"
	"fmt"
)

type PoolSide struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// PoolRecord is the registry entry for one discovered pool or order-book
// market. WhaleThresholdUSD is derived from TVLUSD at resolution time.
type PoolRecord struct {
	Address           string   `json:"address"`
	Name              string   `json:"name"`
	ChainID           uint     `json:"chain_id"`
	Venue             string   `json:"venue"`
	Token0            PoolSide `json:"token0"`
	Token1            PoolSide `json:"token1"`
	FeePct            float64  `json:"fee_pct"`
	TVLUSD            float64  `json:"tvl_usd"`
	WhaleThresholdUSD float64  `json:"whale_threshold_usd"`
}

type PoolIdentificator struct {
	Address string
	ChainID uint
}

func (p PoolIdentificator) String() string {
	return fmt.Sprintf("%d.%s", p.ChainID, p.Address)
}

func (p *PoolRecord) GetIdentificator() PoolIdentificator {
	return PoolIdentificator{
		Address: p.Address,
		ChainID: p.ChainID,
	}
}

func (p *PoolRecord) GetJSON() ([]byte, error) {
	return json.Marshal(p)
}

func (p *PoolRecord) FillFromJSON(data []byte) error {
	return json.Unmarshal(data, p)
}
