package sentinelservice

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monadarb/go_monad_discovery/common/models"
	"github.com/monadarb/go_monad_discovery/services/sentinelservice/src/sentinelerrors"
)

var testPoolRecord = models.PoolRecord{
	Address: "0x065c9d28e428a0db40191a54d33d5b7c71a9c394",
	Name:    "WMON/USDC",
	ChainID: 10143,
	Token0:  models.PoolSide{Symbol: "WMON", Decimals: 18},
	Token1:  models.PoolSide{Symbol: "USDC", Decimals: 6},
}

func packWords(values ...*big.Int) []byte {
	data := make([]byte, 0, len(values)*wordSize)
	for _, v := range values {
		word := v
		if v.Sign() < 0 {
			word = new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 256), v)
		}
		data = append(data, common.LeftPadBytes(word.Bytes(), wordSize)...)
	}
	return data
}

func TestV3DecoderSellSide(t *testing.T) {
	// pool gained 1 WMON, paid out 27 USDC
	lg := types.Log{Data: packWords(
		big.NewInt(1e18),
		big.NewInt(-27e6),
	)}

	swap, err := v3DecoderV1{}.decode(lg, testPoolRecord)
	require.NoError(t, err)

	assert.Equal(t, models.SWAP_SIDE_SELL, swap.side)
	assert.Equal(t, "WMON", swap.symbolIn)
	assert.Equal(t, "USDC", swap.symbolOut)
	assert.InDelta(t, 1.0, swap.amountIn, 1e-9)
	assert.InDelta(t, 27.0, swap.amountOut, 1e-9)
}

func TestV3DecoderBuySide(t *testing.T) {
	// pool paid out 2 WMON, gained 55 USDC
	lg := types.Log{Data: packWords(
		big.NewInt(-2e18),
		big.NewInt(55e6),
	)}

	swap, err := v3DecoderV1{}.decode(lg, testPoolRecord)
	require.NoError(t, err)

	assert.Equal(t, models.SWAP_SIDE_BUY, swap.side)
	assert.Equal(t, "USDC", swap.symbolIn)
	assert.Equal(t, "WMON", swap.symbolOut)
	assert.InDelta(t, 55.0, swap.amountIn, 1e-9)
	assert.InDelta(t, 2.0, swap.amountOut, 1e-9)
}

func TestV3DecoderShortData(t *testing.T) {
	lg := types.Log{Data: make([]byte, wordSize)}

	_, err := v3DecoderV1{}.decode(lg, testPoolRecord)
	assert.ErrorIs(t, err, sentinelerrors.ErrLogDataTooShort)
}

func TestV2DecoderSellSide(t *testing.T) {
	lg := types.Log{Data: packWords(
		big.NewInt(3e18), // amount0In
		big.NewInt(0),    // amount1In
		big.NewInt(0),    // amount0Out
		big.NewInt(81e6), // amount1Out
	)}

	swap, err := v2DecoderV1{}.decode(lg, testPoolRecord)
	require.NoError(t, err)

	assert.Equal(t, models.SWAP_SIDE_SELL, swap.side)
	assert.Equal(t, "WMON", swap.symbolIn)
	assert.InDelta(t, 3.0, swap.amountIn, 1e-9)
	assert.InDelta(t, 81.0, swap.amountOut, 1e-9)
}

func TestV2DecoderBuySide(t *testing.T) {
	lg := types.Log{Data: packWords(
		big.NewInt(0),
		big.NewInt(27e6),
		big.NewInt(1e18),
		big.NewInt(0),
	)}

	swap, err := v2DecoderV1{}.decode(lg, testPoolRecord)
	require.NoError(t, err)

	assert.Equal(t, models.SWAP_SIDE_BUY, swap.side)
	assert.Equal(t, "USDC", swap.symbolIn)
	assert.Equal(t, "WMON", swap.symbolOut)
	assert.InDelta(t, 27.0, swap.amountIn, 1e-9)
	assert.InDelta(t, 1.0, swap.amountOut, 1e-9)
}

func TestOrderBookDecoderBuySide(t *testing.T) {
	trader := new(big.Int).SetBytes(common.HexToAddress("0x00000000000000000000000000000000000000aa").Bytes())
	lg := types.Log{Data: packWords(
		big.NewInt(42),      // order id
		trader,              // trader
		big.NewInt(2700000), // 0.027 scaled 1e8
		big.NewInt(2e18),    // 2 base units
		big.NewInt(1),       // buy flag
	)}

	swap, err := orderBookDecoderV0{}.decode(lg, testPoolRecord)
	require.NoError(t, err)

	assert.Equal(t, models.SWAP_SIDE_BUY, swap.side)
	assert.Equal(t, "USDC", swap.symbolIn)
	assert.Equal(t, "WMON", swap.symbolOut)
	assert.InDelta(t, 0.054, swap.amountIn, 1e-9)
	assert.InDelta(t, 2.0, swap.amountOut, 1e-9)
	assert.Equal(t, "KURU Match: 2.0000 WMON @ 0.0270", swap.description)
}

func TestOrderBookDecoderSellSide(t *testing.T) {
	lg := types.Log{Data: packWords(
		big.NewInt(43),
		big.NewInt(0),
		big.NewInt(2650000), // 0.0265
		big.NewInt(4e18),
		big.NewInt(0), // anything but 1 is a sell
	)}

	swap, err := orderBookDecoderV0{}.decode(lg, testPoolRecord)
	require.NoError(t, err)

	assert.Equal(t, models.SWAP_SIDE_SELL, swap.side)
	assert.Equal(t, "WMON", swap.symbolIn)
	assert.Equal(t, "USDC", swap.symbolOut)
	assert.InDelta(t, 4.0, swap.amountIn, 1e-9)
	assert.InDelta(t, 0.106, swap.amountOut, 1e-9)
}

func TestOrderBookDecoderShortData(t *testing.T) {
	lg := types.Log{Data: make([]byte, 4*wordSize)}

	_, err := orderBookDecoderV0{}.decode(lg, testPoolRecord)
	assert.ErrorIs(t, err, sentinelerrors.ErrLogDataTooShort)
}

func TestSignedWordRoundTrip(t *testing.T) {
	negative := big.NewInt(-123456789)
	data := packWords(negative)

	assert.Equal(t, int64(-123456789), signedWord(data, 0).Int64())

	positive := big.NewInt(987654321)
	data = packWords(positive)
	assert.Equal(t, int64(987654321), signedWord(data, 0).Int64())
}
