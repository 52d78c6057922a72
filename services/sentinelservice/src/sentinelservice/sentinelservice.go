package sentinelservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/monadarb/go_monad_discovery/common/core/quoteaggregator"
	"github.com/monadarb/go_monad_discovery/common/models"
	"github.com/monadarb/go_monad_discovery/common/repo/poolregistry"
	"github.com/monadarb/go_monad_discovery/services/sentinelservice/src/sentinelerrors"
)

var SwapTopicV3 = common.HexToHash("0xc42079f94a6350d7e6235f29174924f928cc2ac818eb64fed8004e115fbcca67")
var SwapTopicV2 = common.HexToHash("0xd78ad95fa46c994b6551d0da85fc275fe613ce37657fb8d5e3d130840159d822")
var OrderBookMatchTopic = common.HexToHash("0xd9c089818ef223629c2af53488dc47cf2867f157caca778ce77aaa742b8c1079")

type connectionState string

const (
	stateDisconnected connectionState = "disconnected"
	stateSubscribed   connectionState = "subscribed"
	stateStreaming    connectionState = "streaming"
)

const logsChannelSize = 1024
const defaultMaxReconnectTries = 10
const reconnectInitialInterval = 2 * time.Second

// SentinelService watches the live swap stream across every venue,
// classifies each trade and republishes it normalized.
type SentinelService interface {
	Start(ctx context.Context) error
	OnEvent(callback func(models.SwapEvent))
	RecentEvents() []models.SwapEvent
}

type SentinelServiceConfig struct {
	ChainID              uint
	KafkaServer          string
	KafkaSwapEventsTopic string
	// HistoryCapacity bounds the in-memory event ring, zero means the
	// default.
	HistoryCapacity   int
	MaxReconnectTries uint
}

func (c *SentinelServiceConfig) validate() error {
	if c.ChainID == 0 {
		return errors.New("SentinelServiceConfig.ChainID cannot be empty")
	}
	if c.KafkaServer == "" {
		return errors.New("SentinelServiceConfig.KafkaServer cannot be empty")
	}
	if c.KafkaSwapEventsTopic == "" {
		return errors.New("SentinelServiceConfig.KafkaSwapEventsTopic cannot be empty")
	}
	return nil
}

// logStreamer is the slice of the chain client the sentinel subscribes
// through.
type logStreamer interface {
	poolReader
	SubscribeSwapLogs(ctx context.Context, topics []common.Hash, logsCh chan<- types.Log) (ethereum.Subscription, error)
}

type SentinelServiceDependencies struct {
	Chain    logStreamer
	Registry poolregistry.PoolRegistry
	// Markets overrides the builtin order-book listing when non-nil.
	Markets []quoteaggregator.Market
	Logger  *zap.Logger
}

func (d *SentinelServiceDependencies) validate() error {
	if d.Chain == nil {
		return errors.New("SentinelServiceDependencies.Chain cannot be nil")
	}
	if d.Registry == nil {
		return errors.New("SentinelServiceDependencies.Registry cannot be nil")
	}
	return nil
}

type sentinelService struct {
	config SentinelServiceConfig
	logger *zap.Logger

	chain    logStreamer
	resolver *poolResolver
	decoders map[common.Hash]swapDecoder
	history  *eventHistory
	kafka    kafkaClient

	mu       sync.RWMutex
	state    connectionState
	callback func(models.SwapEvent)
}

func New(config SentinelServiceConfig, dependencies SentinelServiceDependencies) (SentinelService, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if err := dependencies.validate(); err != nil {
		return nil, err
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if config.MaxReconnectTries == 0 {
		config.MaxReconnectTries = defaultMaxReconnectTries
	}

	markets := dependencies.Markets
	if markets == nil {
		markets = quoteaggregator.DefaultMarkets()
	}

	kafkaClient, err := newKafkaClient(kafkaClientConfig{
		KafkaServer: config.KafkaServer,
		KafkaTopic:  config.KafkaSwapEventsTopic,
	})
	if err != nil {
		return nil, err
	}

	return &sentinelService{
		config: config,
		logger: dependencies.Logger,
		chain:  dependencies.Chain,
		resolver: newPoolResolver(
			config.ChainID,
			dependencies.Chain,
			dependencies.Registry,
			markets,
			dependencies.Logger,
		),
		decoders: map[common.Hash]swapDecoder{
			SwapTopicV3:         v3DecoderV1{},
			SwapTopicV2:         v2DecoderV1{},
			OrderBookMatchTopic: orderBookDecoderV0{},
		},
		history: newEventHistory(config.HistoryCapacity),
		kafka:   kafkaClient,
		state:   stateDisconnected,
	}, nil
}

func (s *sentinelService) OnEvent(callback func(models.SwapEvent)) {
	s.mu.Lock()
	s.callback = callback
	s.mu.Unlock()
}

func (s *sentinelService) RecentEvents() []models.SwapEvent {
	return s.history.recent()
}

func (s *sentinelService) setState(state connectionState) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()

	if changed {
		s.logger.Info("sentinel state changed", zap.String("state", string(state)))
	}
}

// Start blocks until ctx is cancelled or the reconnect budget runs out.
func (s *sentinelService) Start(ctx context.Context) error {
	defer s.kafka.close()

	backoffPolicy := backoff.NewExponentialBackOff()
	backoffPolicy.InitialInterval = reconnectInitialInterval

	notify := func(err error, duration time.Duration) {
		s.logger.Warn("stream dropped, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", duration),
		)
	}

	operation := func() (struct{}, error) {
		err := s.streamOnce(ctx)
		if ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(ctx.Err())
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoffPolicy),
		backoff.WithMaxTries(s.config.MaxReconnectTries),
		backoff.WithNotify(notify))

	s.setState(stateDisconnected)
	return err
}

func (s *sentinelService) streamOnce(ctx context.Context) error {
	s.setState(stateDisconnected)

	logsCh := make(chan types.Log, logsChannelSize)
	topics := []common.Hash{SwapTopicV3, SwapTopicV2, OrderBookMatchTopic}

	sub, err := s.chain.SubscribeSwapLogs(ctx, topics, logsCh)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	s.setState(stateSubscribed)
	s.logger.Info("listening for swaps")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				return sentinelerrors.ErrSubscriptionClosed
			}
			return err
		case lg := <-logsCh:
			s.setState(stateStreaming)
			if err := s.processLog(ctx, lg); err != nil {
				s.logger.Debug("log dropped",
					zap.String("address", lg.Address.Hex()),
					zap.Error(err),
				)
			}
		}
	}
}

func (s *sentinelService) processLog(ctx context.Context, lg types.Log) error {
	if len(lg.Topics) == 0 {
		return sentinelerrors.ErrNoTopicsInLog
	}

	decoder, ok := s.decoders[lg.Topics[0]]
	if !ok {
		return sentinelerrors.ErrUnknownTopic
	}

	record, err := s.resolver.resolve(ctx, lg.Address)
	if err != nil {
		return err
	}

	swap, err := decoder.decode(lg, record)
	if err != nil {
		s.logger.Debug("undecodable log",
			zap.String("decoder", decoder.name()),
			zap.String("pool", record.Name),
			zap.Error(err),
		)
		return nil
	}

	event := s.buildEvent(lg, record, swap)

	s.history.add(event)

	if err := s.kafka.sendSwapEvent(ctx, event); err != nil {
		s.logger.Warn("kafka publish failed", zap.Error(err))
	}

	s.emit(event)

	if event.Whale {
		s.logger.Info("whale swap",
			zap.String("description", event.Description),
			zap.Float64("usd_value", event.USDValue),
			zap.String("pool", event.Pool),
		)
	}

	return nil
}

func (s *sentinelService) buildEvent(lg types.Log, record models.PoolRecord, swap decodedSwap) models.SwapEvent {
	usdValue := estimateUSDValue(swap)

	eventType := models.SWAP_EVENT_TYPE
	whale := usdValue > record.WhaleThresholdUSD
	if whale {
		eventType = models.WHALE_SWAP_EVENT_TYPE
	}

	description := swap.description
	if description == "" {
		description = fmt.Sprintf("%s %.2f %s", strings.ToUpper(swap.side), swap.amountOut, swap.symbolOut)
	}

	return models.SwapEvent{
		Type:        eventType,
		Venue:       record.Venue,
		Pool:        record.Name,
		PoolAddress: record.Address,
		Side:        swap.side,
		Description: description,
		SymbolIn:    swap.symbolIn,
		SymbolOut:   swap.symbolOut,
		AmountIn:    swap.amountIn,
		AmountOut:   swap.amountOut,
		USDValue:    usdValue,
		Whale:       whale,
		TxHash:      lg.TxHash.Hex(),
		Timestamp:   time.Now().Format("15:04:05"),
	}
}

// estimateUSDValue is a rough sizing signal, a USD-ish leg is read at face
// value and anything else gets a flat 0.1 weighting.
func estimateUSDValue(swap decodedSwap) float64 {
	if strings.Contains(swap.symbolIn, "USD") {
		return swap.amountIn
	}
	if strings.Contains(swap.symbolOut, "USD") {
		return swap.amountOut
	}
	return swap.amountOut * 0.1
}

// emit hands the event to the registered consumer. A panicking consumer
// must not take the stream down with it.
func (s *sentinelService) emit(event models.SwapEvent) {
	s.mu.RLock()
	callback := s.callback
	s.mu.RUnlock()

	if callback == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event consumer panicked", zap.Any("panic", r))
		}
	}()

	callback(event)
}
