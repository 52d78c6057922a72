package helpers

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountToReadable(t *testing.T) {
	assert.InDelta(t, 1.0, AmountToReadable(big.NewInt(1e18), 18), 1e-12)
	assert.InDelta(t, 27.5, AmountToReadable(big.NewInt(27500000), 6), 1e-12)
	assert.InDelta(t, 0, AmountToReadable(nil, 18), 1e-12)
}

func TestReadableToAmount(t *testing.T) {
	assert.Equal(t, "27000000", ReadableToAmount(27, 6).String())
	assert.Equal(t, "1000000000000000000", ReadableToAmount(1, 18).String())
	assert.Equal(t, "0", ReadableToAmount(0, 18).String())
}

func TestReadableAmountRoundTrip(t *testing.T) {
	readable := AmountToReadable(ReadableToAmount(0.027, 18), 18)
	assert.InDelta(t, 0.027, readable, 1e-12)
}

func TestGetJSONString(t *testing.T) {
	out := GetJSONString(map[string]int{"a": 1})
	assert.Contains(t, out, `"a": 1`)

	// unmarshalable values degrade to an empty string
	assert.Equal(t, "", GetJSONString(func() {}))
}
