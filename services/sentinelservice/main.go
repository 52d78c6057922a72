package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/monadarb/go_monad_discovery/common/external/chainclient"
	"github.com/monadarb/go_monad_discovery/common/helpers/envhelper"
	"github.com/monadarb/go_monad_discovery/common/repo/poolregistry"
	"github.com/monadarb/go_monad_discovery/services/sentinelservice/src/sentinelservice"
)

func main() {
	env, err := envhelper.GetEnv()
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chainClient, err := chainclient.New(chainclient.ChainClientConfig{
		RpcHttp: env.MONAD_RPC_HTTP,
		RpcWs:   env.MONAD_RPC_WS,
		ChainID: env.CHAIN_ID,
	})
	if err != nil {
		panic(err)
	}
	defer chainClient.Close()

	poolCacheRepo, err := poolregistry.NewCacheRepo(ctx, poolregistry.PoolCacheRepoConfig{
		RedisServer: env.REDIS_SERVER,
	})
	if err != nil {
		panic(err)
	}

	registry, err := poolregistry.New(poolregistry.PoolRegistryConfig{
		ChainID: env.CHAIN_ID,
	}, poolregistry.PoolRegistryDependencies{
		CacheRepo: poolCacheRepo,
	})
	if err != nil {
		panic(err)
	}

	sentinel, err := sentinelservice.New(sentinelservice.SentinelServiceConfig{
		ChainID:              env.CHAIN_ID,
		KafkaServer:          env.KAFKA_SERVER,
		KafkaSwapEventsTopic: env.KAFKA_SWAP_EVENTS_TOPIC,
	}, sentinelservice.SentinelServiceDependencies{
		Chain:    chainClient,
		Registry: registry,
		Logger:   logger,
	})
	if err != nil {
		panic(err)
	}

	if err := sentinel.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("sentinel stopped", zap.Error(err))
	}
}
