package sentinelservice

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/monadarb/go_monad_discovery/common/models"
	"github.com/monadarb/go_monad_discovery/services/sentinelservice/src/sentinelerrors"
)

func TestEstimateUSDValue(t *testing.T) {
	assert.InDelta(t, 27.0, estimateUSDValue(decodedSwap{symbolIn: "USDC", amountIn: 27, symbolOut: "WMON", amountOut: 1000}), 1e-9)
	assert.InDelta(t, 55.0, estimateUSDValue(decodedSwap{symbolIn: "WMON", amountIn: 2, symbolOut: "AUSD", amountOut: 55}), 1e-9)
	// no USD leg, flat weighting on the output
	assert.InDelta(t, 10.0, estimateUSDValue(decodedSwap{symbolIn: "CHOG", amountIn: 800, symbolOut: "WMON", amountOut: 100}), 1e-9)
}

func TestBuildEventWhaleClassification(t *testing.T) {
	service := &sentinelService{logger: zap.NewNop()}

	record := testPoolRecord
	record.WhaleThresholdUSD = 100

	lg := types.Log{TxHash: common.HexToHash("0xdead")}

	small := service.buildEvent(lg, record, decodedSwap{
		side: models.SWAP_SIDE_SELL, symbolIn: "WMON", symbolOut: "USDC",
		amountIn: 2, amountOut: 54,
	})
	assert.False(t, small.Whale)
	assert.Equal(t, models.SWAP_EVENT_TYPE, small.Type)

	big := service.buildEvent(lg, record, decodedSwap{
		side: models.SWAP_SIDE_SELL, symbolIn: "WMON", symbolOut: "USDC",
		amountIn: 10, amountOut: 270,
	})
	assert.True(t, big.Whale)
	assert.Equal(t, models.WHALE_SWAP_EVENT_TYPE, big.Type)

	// exactly at the threshold is not a whale
	edge := service.buildEvent(lg, record, decodedSwap{
		side: models.SWAP_SIDE_SELL, symbolIn: "WMON", symbolOut: "USDC",
		amountIn: 4, amountOut: 100,
	})
	assert.False(t, edge.Whale)
}

func TestBuildEventDescriptionFallback(t *testing.T) {
	service := &sentinelService{logger: zap.NewNop()}

	event := service.buildEvent(types.Log{}, testPoolRecord, decodedSwap{
		side: models.SWAP_SIDE_BUY, symbolIn: "USDC", symbolOut: "WMON",
		amountIn: 27, amountOut: 1.5,
	})
	assert.Equal(t, "BUY 1.50 WMON", event.Description)

	withDescription := service.buildEvent(types.Log{}, testPoolRecord, decodedSwap{
		side: models.SWAP_SIDE_BUY, symbolIn: "USDC", symbolOut: "WMON",
		amountIn: 27, amountOut: 1.5, description: "KURU Match: 1.5000 WMON @ 0.0270",
	})
	assert.Equal(t, "KURU Match: 1.5000 WMON @ 0.0270", withDescription.Description)
}

func TestConfigValidation(t *testing.T) {
	config := SentinelServiceConfig{}
	require.Error(t, config.validate())

	config.ChainID = 10143
	require.Error(t, config.validate())

	config.KafkaServer = "localhost:9092"
	require.Error(t, config.validate())

	config.KafkaSwapEventsTopic = "swap-events"
	assert.NoError(t, config.validate())
}

func TestProcessLogReportsDropReason(t *testing.T) {
	service := &sentinelService{
		logger: zap.NewNop(),
		decoders: map[common.Hash]swapDecoder{
			SwapTopicV3: v3DecoderV1{},
		},
	}

	err := service.processLog(context.Background(), types.Log{})
	assert.ErrorIs(t, err, sentinelerrors.ErrNoTopicsInLog)

	err = service.processLog(context.Background(), types.Log{
		Topics: []common.Hash{common.HexToHash("0xabc1")},
	})
	assert.ErrorIs(t, err, sentinelerrors.ErrUnknownTopic)
}

func TestEmitRecoversFromPanickingConsumer(t *testing.T) {
	service := &sentinelService{logger: zap.NewNop()}

	service.OnEvent(func(event models.SwapEvent) {
		panic("consumer bug")
	})

	assert.NotPanics(t, func() {
		service.emit(models.SwapEvent{})
	})
}
