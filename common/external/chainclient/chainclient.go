package chainclient

import (
	"context"
	_ "embed"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/monadarb/go_monad_discovery/common/external/chainclient/chainclienterrors"
)

//go:embed chainclientassets/multicallABI.json
var multicallABIStr string

//go:embed chainclientassets/quoterABI.json
var quoterABIStr string

//go:embed chainclientassets/erc20ABI.json
var erc20ABIStr string

//go:embed chainclientassets/v3poolABI.json
var v3PoolABIStr string

//go:embed chainclientassets/v2pairABI.json
var v2PairABIStr string

//go:embed chainclientassets/factoryABI.json
var factoryABIStr string

//go:embed chainclientassets/orderbookABI.json
var orderBookABIStr string

// Monad testnet deployments.
const (
	DefaultMulticallAddress = "0xcA11bde05977b3631167028862bE2a173976CA11"
	DefaultQuoterAddress    = "0x661E93cca42AfacB172121EF892830cA3b70F08d"
	DefaultFactoryAddress   = "0x204faca1764b154221e35c0d20abb3c525710498"
)

const defaultCallTimeout = 10 * time.Second

type Call struct {
	Target   common.Address
	CallData []byte
}

type CallResult struct {
	Success    bool
	ReturnData []byte
}

type QuoteOutput struct {
	AmountOut               *big.Int
	SqrtPriceX96After       *big.Int
	InitializedTicksCrossed uint32
	GasEstimate             *big.Int
}

type TokenMetadata struct {
	Symbol   string
	Decimals uint8
}

type PoolState struct {
	Liquidity    *big.Int
	SqrtPriceX96 *big.Int
	Tick         int
}

// ChainClient is the single gateway to the chain. Batched quoter reads go
// through TryAggregate, everything else is a direct eth_call view.
type ChainClient interface {
	TryAggregate(ctx context.Context, calls []Call) ([]CallResult, error)

	QuoterCall(tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (Call, error)
	DecodeQuote(returnData []byte) (QuoteOutput, error)

	BestBidAsk(ctx context.Context, market common.Address) (*big.Int, *big.Int, error)

	GetTokenMetadata(ctx context.Context, token common.Address) (TokenMetadata, error)
	GetBalanceOf(ctx context.Context, token common.Address, owner common.Address) (*big.Int, error)

	GetPoolImmutables(ctx context.Context, pool common.Address) (token0 common.Address, token1 common.Address, fee uint32, err error)
	GetPairImmutables(ctx context.Context, pair common.Address) (token0 common.Address, token1 common.Address, err error)
	GetPool(ctx context.Context, tokenA, tokenB common.Address, fee uint32) (common.Address, error)
	GetPoolState(ctx context.Context, pool common.Address) (PoolState, error)

	SubscribeSwapLogs(ctx context.Context, topics []common.Hash, logsCh chan<- types.Log) (ethereum.Subscription, error)

	Close()
}

type ChainClientConfig struct {
	RpcHttp string
	RpcWs   string
	ChainID uint

	// Empty fields fall back to the Monad testnet deployments.
	MulticallAddress string
	QuoterAddress    string
	FactoryAddress   string
}

type chainClient struct {
	config ChainClientConfig
	client *ethclient.Client

	wsMu     sync.Mutex
	wsClient *ethclient.Client

	multicallAddress common.Address
	quoterAddress    common.Address
	factoryAddress   common.Address

	multicallABI abi.ABI
	quoterABI    abi.ABI
	erc20ABI     abi.ABI
	v3PoolABI    abi.ABI
	v2PairABI    abi.ABI
	factoryABI   abi.ABI
	orderBookABI abi.ABI

	metadataCache struct {
		mu     sync.RWMutex
		tokens map[common.Address]TokenMetadata
	}
}

func New(config ChainClientConfig) (ChainClient, error) {
	if config.RpcHttp == "" {
		return nil, chainclienterrors.ErrInvalidRpcEndpoint
	}

	client, err := ethclient.Dial(config.RpcHttp)
	if err != nil {
		return nil, err
	}

	if config.MulticallAddress == "" {
		config.MulticallAddress = DefaultMulticallAddress
	}
	if config.QuoterAddress == "" {
		config.QuoterAddress = DefaultQuoterAddress
	}
	if config.FactoryAddress == "" {
		config.FactoryAddress = DefaultFactoryAddress
	}

	c := &chainClient{
		config:           config,
		client:           client,
		multicallAddress: common.HexToAddress(config.MulticallAddress),
		quoterAddress:    common.HexToAddress(config.QuoterAddress),
		factoryAddress:   common.HexToAddress(config.FactoryAddress),
	}
	c.metadataCache.tokens = map[common.Address]TokenMetadata{}

	for _, a := range []struct {
		dst *abi.ABI
		src string
	}{
		{&c.multicallABI, multicallABIStr},
		{&c.quoterABI, quoterABIStr},
		{&c.erc20ABI, erc20ABIStr},
		{&c.v3PoolABI, v3PoolABIStr},
		{&c.v2PairABI, v2PairABIStr},
		{&c.factoryABI, factoryABIStr},
		{&c.orderBookABI, orderBookABIStr},
	} {
		parsed, err := abi.JSON(strings.NewReader(a.src))
		if err != nil {
			return nil, err
		}
		*a.dst = parsed
	}

	return c, nil
}

type multicallResult struct {
	Success    bool
	ReturnData []byte
}

// TryAggregate runs every call in one multicall with requireSuccess false,
// so a reverting sub-call comes back as Success=false instead of failing
// the whole batch.
func (c *chainClient) TryAggregate(ctx context.Context, calls []Call) ([]CallResult, error) {
	data, err := c.multicallABI.Pack("tryAggregate", false, calls)
	if err != nil {
		return nil, err
	}

	ctxWithTime, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	returnBytes, err := c.client.CallContract(ctxWithTime, ethereum.CallMsg{
		To:   &c.multicallAddress,
		Data: data,
	}, nil)
	if err != nil {
		return nil, err
	}

	out, err := c.multicallABI.Unpack("tryAggregate", returnBytes)
	if err != nil {
		return nil, err
	}

	rawResults := *abi.ConvertType(out[0], new([]multicallResult)).(*[]multicallResult)
	if len(rawResults) != len(calls) {
		return nil, chainclienterrors.ErrMulticallCorrupted
	}

	results := make([]CallResult, 0, len(rawResults))
	for _, r := range rawResults {
		results = append(results, CallResult{
			Success:    r.Success,
			ReturnData: r.ReturnData,
		})
	}

	return results, nil
}

func (c *chainClient) SubscribeSwapLogs(ctx context.Context, topics []common.Hash, logsCh chan<- types.Log) (ethereum.Subscription, error) {
	if c.config.RpcWs == "" {
		return nil, chainclienterrors.ErrInvalidRpcEndpoint
	}

	wsClient, err := ethclient.DialContext(ctx, c.config.RpcWs)
	if err != nil {
		return nil, err
	}

	query := ethereum.FilterQuery{
		Topics: [][]common.Hash{topics},
	}

	sub, err := wsClient.SubscribeFilterLogs(ctx, query, logsCh)
	if err != nil {
		wsClient.Close()
		return nil, err
	}

	c.wsMu.Lock()
	if c.wsClient != nil {
		c.wsClient.Close()
	}
	c.wsClient = wsClient
	c.wsMu.Unlock()

	return sub, nil
}

func (c *chainClient) Close() {
	c.client.Close()

	c.wsMu.Lock()
	if c.wsClient != nil {
		c.wsClient.Close()
		c.wsClient = nil
	}
	c.wsMu.Unlock()
}

func (c *chainClient) call(ctx context.Context, target common.Address, data []byte) ([]byte, error) {
	ctxWithTime, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	return c.client.CallContract(ctxWithTime, ethereum.CallMsg{
		To:   &target,
		Data: data,
	}, nil)
}
