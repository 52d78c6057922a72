package sentinelservice

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/monadarb/go_monad_discovery/common/helpers"
	"github.com/monadarb/go_monad_discovery/common/models"
	"github.com/monadarb/go_monad_discovery/services/sentinelservice/src/sentinelerrors"
)

const wordSize = 32

// decodedSwap is the venue-independent view of one trade. Amounts are in
// human units of the respective side.
type decodedSwap struct {
	side        string
	symbolIn    string
	symbolOut   string
	amountIn    float64
	amountOut   float64
	description string
}

// swapDecoder turns one raw log into a decodedSwap using the resolved pool
// record for symbols and decimals. Decoders carry a version suffix so a
// wire-layout revision is a new type, not an edit in place.
type swapDecoder interface {
	name() string
	decode(lg types.Log, record models.PoolRecord) (decodedSwap, error)
}

func word(data []byte, index int) []byte {
	return data[index*wordSize : (index+1)*wordSize]
}

// signedWord reads one 32-byte word as a two's complement int256.
func signedWord(data []byte, index int) *big.Int {
	v := new(big.Int).SetBytes(word(data, index))
	if v.Bit(255) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return v
}

func unsignedWord(data []byte, index int) *big.Int {
	return new(big.Int).SetBytes(word(data, index))
}

// v3DecoderV1 handles concentrated-liquidity swap logs. Data carries two
// signed deltas from the pool's point of view, amount0 > 0 means the pool
// gained token0, so the user sold it.
type v3DecoderV1 struct{}

func (d v3DecoderV1) name() string { return "v3_decoder_v1" }

func (d v3DecoderV1) decode(lg types.Log, record models.PoolRecord) (decodedSwap, error) {
	if len(lg.Data) < 2*wordSize {
		return decodedSwap{}, sentinelerrors.ErrLogDataTooShort
	}

	amount0 := signedWord(lg.Data, 0)
	amount1 := signedWord(lg.Data, 1)

	abs0 := new(big.Int).Abs(amount0)
	abs1 := new(big.Int).Abs(amount1)

	if amount0.Sign() > 0 {
		return decodedSwap{
			side:      models.SWAP_SIDE_SELL,
			symbolIn:  record.Token0.Symbol,
			symbolOut: record.Token1.Symbol,
			amountIn:  helpers.AmountToReadable(abs0, record.Token0.Decimals),
			amountOut: helpers.AmountToReadable(abs1, record.Token1.Decimals),
		}, nil
	}

	return decodedSwap{
		side:      models.SWAP_SIDE_BUY,
		symbolIn:  record.Token1.Symbol,
		symbolOut: record.Token0.Symbol,
		amountIn:  helpers.AmountToReadable(abs1, record.Token1.Decimals),
		amountOut: helpers.AmountToReadable(abs0, record.Token0.Decimals),
	}, nil
}

// v2DecoderV1 handles constant-product pair swaps, four unsigned words
// (amount0In, amount1In, amount0Out, amount1Out).
type v2DecoderV1 struct{}

func (d v2DecoderV1) name() string { return "v2_decoder_v1" }

func (d v2DecoderV1) decode(lg types.Log, record models.PoolRecord) (decodedSwap, error) {
	if len(lg.Data) < 4*wordSize {
		return decodedSwap{}, sentinelerrors.ErrLogDataTooShort
	}

	amount0In := unsignedWord(lg.Data, 0)
	amount1In := unsignedWord(lg.Data, 1)
	amount0Out := unsignedWord(lg.Data, 2)
	amount1Out := unsignedWord(lg.Data, 3)

	if amount0In.Sign() > 0 {
		return decodedSwap{
			side:      models.SWAP_SIDE_SELL,
			symbolIn:  record.Token0.Symbol,
			symbolOut: record.Token1.Symbol,
			amountIn:  helpers.AmountToReadable(amount0In, record.Token0.Decimals),
			amountOut: helpers.AmountToReadable(amount1Out, record.Token1.Decimals),
		}, nil
	}

	return decodedSwap{
		side:      models.SWAP_SIDE_BUY,
		symbolIn:  record.Token1.Symbol,
		symbolOut: record.Token0.Symbol,
		amountIn:  helpers.AmountToReadable(amount1In, record.Token1.Decimals),
		amountOut: helpers.AmountToReadable(amount0Out, record.Token0.Decimals),
	}, nil
}

// orderBookDecoderV0 handles order-book match logs. The layout is a
// best-effort reading of observed traffic, five words (order id, trader,
// price scaled 1e8, base amount in native decimals, side flag with 1 as
// buy), and has not been confirmed against the venue's source. Version
// zero until it is.
type orderBookDecoderV0 struct{}

// price words are scaled 1e8
const orderBookPriceDecimals = 8

func (d orderBookDecoderV0) name() string { return "orderbook_decoder_v0" }

func (d orderBookDecoderV0) decode(lg types.Log, record models.PoolRecord) (decodedSwap, error) {
	if len(lg.Data) < 5*wordSize {
		return decodedSwap{}, sentinelerrors.ErrLogDataTooShort
	}

	priceWord := unsignedWord(lg.Data, 2)
	amountWord := unsignedWord(lg.Data, 3)
	sideWord := unsignedWord(lg.Data, 4)

	price := helpers.AmountToReadable(priceWord, orderBookPriceDecimals)

	// token0 is assumed to be the base asset
	amountBase := helpers.AmountToReadable(amountWord, record.Token0.Decimals)
	amountQuote := amountBase * price

	side := models.SWAP_SIDE_SELL
	if sideWord.Cmp(big.NewInt(1)) == 0 {
		side = models.SWAP_SIDE_BUY
	}

	swap := decodedSwap{
		side:        side,
		description: fmt.Sprintf("KURU Match: %.4f %s @ %.4f", amountBase, record.Token0.Symbol, price),
	}

	if side == models.SWAP_SIDE_BUY {
		swap.symbolIn = record.Token1.Symbol
		swap.symbolOut = record.Token0.Symbol
		swap.amountIn = amountQuote
		swap.amountOut = amountBase
	} else {
		swap.symbolIn = record.Token0.Symbol
		swap.symbolOut = record.Token1.Symbol
		swap.amountIn = amountBase
		swap.amountOut = amountQuote
	}

	return swap, nil
}
