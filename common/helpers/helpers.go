package helpers

import (
	"encoding/json"
	"math"
	"math/big"
)

func GetJSONString(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}

	return string(data)
}

// AmountToReadable converts a raw token amount to human units.
func AmountToReadable(amount *big.Int, decimals int) float64 {
	if amount == nil {
		return 0
	}

	f := new(big.Float).SetInt(amount)
	f.Quo(f, new(big.Float).SetFloat64(math.Pow10(decimals)))

	readable, _ := f.Float64()
	return readable
}

// ReadableToAmount converts a human amount to the smallest token unit.
func ReadableToAmount(readable float64, decimals int) *big.Int {
	f := new(big.Float).SetFloat64(readable)
	f.Mul(f, new(big.Float).SetFloat64(math.Pow10(decimals)))

	amount, _ := f.Int(nil)
	return amount
}
