package chainclient

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/monadarb/go_monad_discovery/common/external/chainclient/chainclienterrors"
)

type quoteExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

func (c *chainClient) QuoterCall(tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (Call, error) {
	data, err := c.quoterABI.Pack("quoteExactInputSingle", quoteExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               big.NewInt(int64(fee)),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return Call{}, err
	}

	return Call{
		Target:   c.quoterAddress,
		CallData: data,
	}, nil
}

func (c *chainClient) DecodeQuote(returnData []byte) (QuoteOutput, error) {
	if len(returnData) == 0 {
		return QuoteOutput{}, chainclienterrors.ErrEmptyReturnData
	}

	out, err := c.quoterABI.Unpack("quoteExactInputSingle", returnData)
	if err != nil {
		return QuoteOutput{}, err
	}

	amountOut, ok := out[0].(*big.Int)
	if !ok {
		return QuoteOutput{}, chainclienterrors.ErrUnableToUnpack
	}
	sqrtPriceX96After, ok := out[1].(*big.Int)
	if !ok {
		return QuoteOutput{}, chainclienterrors.ErrUnableToUnpack
	}
	initializedTicksCrossed, ok := out[2].(uint32)
	if !ok {
		return QuoteOutput{}, chainclienterrors.ErrUnableToUnpack
	}
	gasEstimate, ok := out[3].(*big.Int)
	if !ok {
		return QuoteOutput{}, chainclienterrors.ErrUnableToUnpack
	}

	return QuoteOutput{
		AmountOut:               amountOut,
		SqrtPriceX96After:       sqrtPriceX96After,
		InitializedTicksCrossed: initializedTicksCrossed,
		GasEstimate:             gasEstimate,
	}, nil
}

// BestBidAsk reads the top of an order-book market. Both sides come back
// scaled by 1e18, a zero value means that side of the book is empty.
func (c *chainClient) BestBidAsk(ctx context.Context, market common.Address) (*big.Int, *big.Int, error) {
	data, err := c.orderBookABI.Pack("bestBidAsk")
	if err != nil {
		return nil, nil, err
	}

	returnBytes, err := c.call(ctx, market, data)
	if err != nil {
		return nil, nil, err
	}

	out, err := c.orderBookABI.Unpack("bestBidAsk", returnBytes)
	if err != nil {
		return nil, nil, err
	}

	bid, ok := out[0].(*big.Int)
	if !ok {
		return nil, nil, chainclienterrors.ErrUnableToUnpack
	}
	ask, ok := out[1].(*big.Int)
	if !ok {
		return nil, nil, chainclienterrors.ErrUnableToUnpack
	}

	return bid, ask, nil
}

func (c *chainClient) GetTokenMetadata(ctx context.Context, token common.Address) (TokenMetadata, error) {
	c.metadataCache.mu.RLock()
	cached, ok := c.metadataCache.tokens[token]
	c.metadataCache.mu.RUnlock()
	if ok {
		return cached, nil
	}

	symbolData, err := c.erc20ABI.Pack("symbol")
	if err != nil {
		return TokenMetadata{}, err
	}
	symbolBytes, err := c.call(ctx, token, symbolData)
	if err != nil {
		return TokenMetadata{}, err
	}
	symbolOut, err := c.erc20ABI.Unpack("symbol", symbolBytes)
	if err != nil {
		return TokenMetadata{}, err
	}
	symbol, ok := symbolOut[0].(string)
	if !ok {
		return TokenMetadata{}, chainclienterrors.ErrUnableToUnpack
	}

	decimalsData, err := c.erc20ABI.Pack("decimals")
	if err != nil {
		return TokenMetadata{}, err
	}
	decimalsBytes, err := c.call(ctx, token, decimalsData)
	if err != nil {
		return TokenMetadata{}, err
	}
	decimalsOut, err := c.erc20ABI.Unpack("decimals", decimalsBytes)
	if err != nil {
		return TokenMetadata{}, err
	}
	decimals, ok := decimalsOut[0].(uint8)
	if !ok {
		return TokenMetadata{}, chainclienterrors.ErrUnableToUnpack
	}

	metadata := TokenMetadata{
		Symbol:   symbol,
		Decimals: decimals,
	}

	c.metadataCache.mu.Lock()
	c.metadataCache.tokens[token] = metadata
	c.metadataCache.mu.Unlock()

	return metadata, nil
}

func (c *chainClient) GetBalanceOf(ctx context.Context, token common.Address, owner common.Address) (*big.Int, error) {
	data, err := c.erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}

	returnBytes, err := c.call(ctx, token, data)
	if err != nil {
		return nil, err
	}

	out, err := c.erc20ABI.Unpack("balanceOf", returnBytes)
	if err != nil {
		return nil, err
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, chainclienterrors.ErrUnableToUnpack
	}

	return balance, nil
}

func (c *chainClient) GetPoolImmutables(ctx context.Context, pool common.Address) (common.Address, common.Address, uint32, error) {
	token0, err := c.callAddressView(ctx, c.v3PoolABI, pool, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, 0, err
	}
	token1, err := c.callAddressView(ctx, c.v3PoolABI, pool, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, 0, err
	}

	feeData, err := c.v3PoolABI.Pack("fee")
	if err != nil {
		return common.Address{}, common.Address{}, 0, err
	}
	feeBytes, err := c.call(ctx, pool, feeData)
	if err != nil {
		return common.Address{}, common.Address{}, 0, err
	}
	feeOut, err := c.v3PoolABI.Unpack("fee", feeBytes)
	if err != nil {
		return common.Address{}, common.Address{}, 0, err
	}
	fee, ok := feeOut[0].(*big.Int)
	if !ok {
		return common.Address{}, common.Address{}, 0, chainclienterrors.ErrUnableToUnpack
	}

	return token0, token1, uint32(fee.Uint64()), nil
}

func (c *chainClient) GetPairImmutables(ctx context.Context, pair common.Address) (common.Address, common.Address, error) {
	token0, err := c.callAddressView(ctx, c.v2PairABI, pair, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token1, err := c.callAddressView(ctx, c.v2PairABI, pair, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}

	return token0, token1, nil
}

func (c *chainClient) GetPool(ctx context.Context, tokenA, tokenB common.Address, fee uint32) (common.Address, error) {
	data, err := c.factoryABI.Pack("getPool", tokenA, tokenB, big.NewInt(int64(fee)))
	if err != nil {
		return common.Address{}, err
	}

	returnBytes, err := c.call(ctx, c.factoryAddress, data)
	if err != nil {
		return common.Address{}, err
	}

	out, err := c.factoryABI.Unpack("getPool", returnBytes)
	if err != nil {
		return common.Address{}, err
	}

	pool, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, chainclienterrors.ErrUnableToUnpack
	}

	if pool == (common.Address{}) {
		return common.Address{}, chainclienterrors.ErrPoolNotFound
	}

	return pool, nil
}

func (c *chainClient) GetPoolState(ctx context.Context, pool common.Address) (PoolState, error) {
	liquidityData, err := c.v3PoolABI.Pack("liquidity")
	if err != nil {
		return PoolState{}, err
	}
	liquidityBytes, err := c.call(ctx, pool, liquidityData)
	if err != nil {
		return PoolState{}, err
	}
	liquidityOut, err := c.v3PoolABI.Unpack("liquidity", liquidityBytes)
	if err != nil {
		return PoolState{}, err
	}
	liquidity, ok := liquidityOut[0].(*big.Int)
	if !ok {
		return PoolState{}, chainclienterrors.ErrUnableToUnpack
	}

	slot0Data, err := c.v3PoolABI.Pack("slot0")
	if err != nil {
		return PoolState{}, err
	}
	slot0Bytes, err := c.call(ctx, pool, slot0Data)
	if err != nil {
		return PoolState{}, err
	}
	slot0Out, err := c.v3PoolABI.Unpack("slot0", slot0Bytes)
	if err != nil {
		return PoolState{}, err
	}
	sqrtPriceX96, ok := slot0Out[0].(*big.Int)
	if !ok {
		return PoolState{}, chainclienterrors.ErrUnableToUnpack
	}
	tick, ok := slot0Out[1].(*big.Int)
	if !ok {
		return PoolState{}, chainclienterrors.ErrUnableToUnpack
	}

	return PoolState{
		Liquidity:    liquidity,
		SqrtPriceX96: sqrtPriceX96,
		Tick:         int(tick.Int64()),
	}, nil
}

func (c *chainClient) callAddressView(ctx context.Context, contractABI abi.ABI, target common.Address, method string) (common.Address, error) {
	data, err := contractABI.Pack(method)
	if err != nil {
		return common.Address{}, err
	}

	returnBytes, err := c.call(ctx, target, data)
	if err != nil {
		return common.Address{}, err
	}

	out, err := contractABI.Unpack(method, returnBytes)
	if err != nil {
		return common.Address{}, err
	}

	address, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, chainclienterrors.ErrUnableToUnpack
	}

	return address, nil
}
